package storage

// LayeredBackend fronts the file backend with a memory mirror. The file layer
// is authoritative: writes land there first, reads fall back to it and
// promote. Keeps the hot path off the disk for read-heavy callers.
type LayeredBackend struct {
	memory Backend
	file   Backend
}

// NewLayeredBackend creates a memory-over-file backend rooted at dir.
func NewLayeredBackend(dir string) *LayeredBackend {
	return &LayeredBackend{
		memory: NewMemoryBackend(),
		file:   NewFileBackend(dir),
	}
}

// Get checks memory first, then the file layer, promoting hits.
func (b *LayeredBackend) Get(key string) ([]byte, bool, error) {
	if val, found, _ := b.memory.Get(key); found {
		return val, true, nil
	}

	val, found, err := b.file.Get(key)
	if err != nil || !found {
		return nil, false, err
	}
	_ = b.memory.Set(key, val)
	return val, true, nil
}

// Set writes to the file layer first; the mirror is only updated after the
// durable write succeeds.
func (b *LayeredBackend) Set(key string, value []byte) error {
	if err := b.file.Set(key, value); err != nil {
		return err
	}
	return b.memory.Set(key, value)
}

// Delete removes the key from both layers.
func (b *LayeredBackend) Delete(key string) error {
	_ = b.memory.Delete(key)
	return b.file.Delete(key)
}

// Clear empties both layers.
func (b *LayeredBackend) Clear() error {
	_ = b.memory.Clear()
	return b.file.Clear()
}

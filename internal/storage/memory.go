package storage

import (
	gocache "github.com/patrickmn/go-cache"
)

// MemoryBackend keeps values in process memory only. Used by tests and by
// the layered backend as its front layer.
type MemoryBackend struct {
	cache *gocache.Cache
}

// NewMemoryBackend creates an in-memory backend. Entries never expire.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		cache: gocache.New(gocache.NoExpiration, 0),
	}
}

// Get retrieves a value from memory.
func (b *MemoryBackend) Get(key string) ([]byte, bool, error) {
	if val, found := b.cache.Get(key); found {
		return val.([]byte), true, nil
	}
	return nil, false, nil
}

// Set stores a value in memory.
func (b *MemoryBackend) Set(key string, value []byte) error {
	b.cache.Set(key, value, gocache.NoExpiration)
	return nil
}

// Delete removes a value from memory.
func (b *MemoryBackend) Delete(key string) error {
	b.cache.Delete(key)
	return nil
}

// Clear removes all values.
func (b *MemoryBackend) Clear() error {
	b.cache.Flush()
	return nil
}

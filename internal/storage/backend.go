package storage

// Backend is the raw key-value layer underneath the store. Values are opaque
// JSON blobs; the store owns all typing. Get reports absence via the bool,
// reserving the error for real I/O failures.
type Backend interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Clear() error
}

// Persisted keys. The whole durable state of the process lives under these
// three entries.
const (
	KeyWords    = "words"
	KeySettings = "settings"
	KeyStats    = "stats"
)

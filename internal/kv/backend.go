// Package kv provides the durable key-value backends the storage layer
// writes through. Backends store opaque text values; encoding, namespacing
// and retention policy live one layer up in internal/storage.
package kv

// Backend is a flat string key-value store.
type Backend interface {
	// Set writes value under key, overwriting any previous value.
	Set(key, value string) error

	// Get returns the value for key. The boolean reports presence; an
	// absent key is not an error.
	Get(key string) (string, bool, error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error

	// Keys returns every stored key starting with prefix, in no
	// particular order.
	Keys(prefix string) ([]string, error)

	Close() error
}

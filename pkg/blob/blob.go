// Package blob provides whole-value JSON persistence. Values are read and
// written in full; there are no partial updates.
package blob

// Store is the persistence contract shared by tenant configs, sessions and
// leads.
type Store interface {
	// Load decodes the value stored under key into v. It reports false when
	// the key is absent; a corrupt stored value is treated as absent.
	Load(key string, v any) (bool, error)
	// Save writes v under key, replacing any previous value.
	Save(key string, v any) error
	// Delete removes key and its backing storage. Deleting an absent key is
	// not an error.
	Delete(key string) error
}

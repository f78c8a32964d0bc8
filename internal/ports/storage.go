// Package ports defines the interfaces (contracts) that adapters must implement.
// These are the boundaries of the hexagonal architecture. Domain logic depends
// only on these interfaces, never on concrete implementations.
package ports

// DictionaryStore persists dictionary definitions to durable storage.
// Only the definition is stored (words + comparer spec); automatons are always
// rebuilt from it. Concurrent reads are safe; writes are serialized by the adapter.
//
// Crash safety: SaveDictionary must be transactional. A crash mid-write must
// not corrupt previously committed definitions.
type DictionaryStore interface {
	// SaveDictionary persists a definition under d.Key, overwriting any prior one.
	SaveDictionary(d *Dictionary) error

	// LoadDictionary retrieves a definition by key.
	// Returns nil, nil if no definition exists.
	LoadDictionary(key string) (*Dictionary, error)

	// DeleteDictionary removes a definition.
	// Idempotent: deleting a nonexistent key is not an error.
	DeleteDictionary(key string) error

	// ListDictionaries returns every stored definition without its words.
	ListDictionaries() ([]*Dictionary, error)

	// Clear removes every stored definition and returns how many were removed.
	Clear() (int, error)
}

// Dictionary is a named word list plus the comparer it is matched with.
// Key is derived from the word-list document and the comparer spec, so two
// identical definitions share one key.
type Dictionary struct {
	Key       string   `json:"key"`
	Name      string   `json:"name"`
	Comparer  string   `json:"comparer"`           // comparer spec, e.g. "o", "n:i", "tr-TR:i"
	Strategy  string   `json:"strategy,omitempty"` // "trie" (default) or "dfa"
	Source    string   `json:"source,omitempty"`   // word-list file the definition came from
	Words     []string `json:"words,omitempty"`
	WordCount int      `json:"word_count"`
	CreatedAt int64    `json:"created_at"` // unix seconds
}

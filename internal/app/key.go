package app

import (
	"crypto/sha256"
	"encoding/hex"
)

// DictionaryKey identifies a dictionary by its word-list document and the
// canonical comparer spec it is matched with. Identical inputs always yield
// the same key, so re-creating a dictionary is a cache hit.
func DictionaryKey(document, comparerSpec string) string {
	h := sha256.New()
	h.Write([]byte(document))
	h.Write([]byte(comparerSpec))
	return hex.EncodeToString(h.Sum(nil))
}

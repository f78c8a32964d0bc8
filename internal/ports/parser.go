package ports

import "io"

// WordListParser extracts dictionary words from a word-list document.
// Concrete implementations live in internal/adapters/wordlist.
type WordListParser interface {
	// Parse reads the whole document and returns its words in document order.
	// Duplicates and empty strings are passed through untouched; the automaton
	// builder ignores both.
	Parse(r io.Reader) ([]string, error)

	// Format names the document format ("xml", "text").
	Format() string
}

package ports

import "iter"

// Match is a single dictionary hit reported by a scan.
//
// Index counts runes from the start of the scanned text, which is what callers
// comparing against character positions expect. Start and End are the byte
// range of the matched text inside the scanned string, so text[m.Start:m.End]
// is the matched slice even when the comparer folds runes of different widths.
type Match struct {
	Index int    `json:"index"`
	Word  string `json:"word"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Searcher scans text against a finished dictionary in a single pass.
// Implementations are immutable after construction and safe for concurrent use.
//
// The returned sequence is ordered by the end position of each match; matches
// ending at the same position are ordered longest word first. Consumers may
// stop pulling early without leaking anything; whether that also saves
// scanning work depends on the implementation (the trie automaton is lazy,
// the DFA scanner is eager). An empty text yields an empty sequence, not an
// error.
type Searcher interface {
	Search(text string) (iter.Seq[Match], error)

	// WordCount returns the number of distinct words in the dictionary.
	WordCount() int
}

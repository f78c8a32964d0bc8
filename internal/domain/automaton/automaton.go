package automaton

import (
	"iter"
	"unicode/utf8"

	"github.com/corey/acmatch/internal/domain/charcmp"
	"github.com/corey/acmatch/internal/domain/trie"
	"github.com/corey/acmatch/internal/ports"
)

// Automaton is a finished Aho-Corasick matcher. It is immutable, and any
// number of goroutines may search it at once.
type Automaton struct {
	trie     *trie.Trie
	maxDepth int
}

var _ ports.Searcher = (*Automaton)(nil)

// Comparer returns the rune equivalence the automaton was built with.
func (a *Automaton) Comparer() charcmp.Comparer { return a.trie.Comparer() }

// WordCount returns the number of distinct words in the dictionary.
func (a *Automaton) WordCount() int {
	if a == nil || a.trie == nil {
		return 0
	}
	return a.trie.WordCount()
}

// NodeCount returns the number of trie nodes, root included.
func (a *Automaton) NodeCount() int { return a.trie.Len() }

// MaxDepth returns the rune length of the longest word.
func (a *Automaton) MaxDepth() int { return a.maxDepth }

// Search returns the matches of every dictionary word in text, overlapping
// ones included. The sequence is lazy: nothing is scanned until it is ranged
// over, and breaking out of the range stops the scan. Matches are ordered by
// end position, longest word first among matches ending at the same rune.
func (a *Automaton) Search(text string) (iter.Seq[ports.Match], error) {
	if a == nil || a.trie == nil {
		return nil, ErrNotBuilt
	}
	return func(yield func(ports.Match) bool) {
		a.scan(text, yield)
	}, nil
}

// FindAll collects every match of Search.
func (a *Automaton) FindAll(text string) ([]ports.Match, error) {
	seq, err := a.Search(text)
	if err != nil {
		return nil, err
	}
	var matches []ports.Match
	for m := range seq {
		matches = append(matches, m)
	}
	return matches, nil
}

// Contains reports whether any dictionary word occurs in text. It stops at
// the first match.
func (a *Automaton) Contains(text string) (bool, error) {
	seq, err := a.Search(text)
	if err != nil {
		return false, err
	}
	for range seq {
		return true, nil
	}
	return false, nil
}

func (a *Automaton) scan(text string, yield func(ports.Match) bool) {
	if text == "" || a.maxDepth == 0 {
		return
	}
	t := a.trie

	// starts[k % maxDepth] is the byte offset of rune k; a match never reaches
	// further back than maxDepth runes.
	starts := make([]int, a.maxDepth)

	cur := trie.Root
	i := 0
	for pos := 0; pos < len(text); i++ {
		c, size := utf8.DecodeRuneInString(text[pos:])
		starts[i%a.maxDepth] = pos
		pos += size

		for {
			if next, ok := t.Child(cur, c); ok {
				cur = next
				break
			}
			if cur == trie.Root {
				break
			}
			cur = failOf(t, cur)
		}

		for n := cur; n != trie.Root; n = failOf(t, n) {
			if !t.IsTerminal(n) {
				continue
			}
			index := i + 1 - t.Depth(n)
			m := ports.Match{
				Index: index,
				Word:  t.Word(n),
				Start: starts[index%a.maxDepth],
				End:   pos,
			}
			if !yield(m) {
				return
			}
		}
	}
}

// failOf resolves an unset fail link to the root.
func failOf(t *trie.Trie, n trie.NodeID) trie.NodeID {
	if f := t.Fail(n); f != trie.None {
		return f
	}
	return trie.Root
}

// Find builds a throwaway automaton for words and searches text once.
// Callers searching more than one text should build an Automaton instead.
func Find(text string, cmp charcmp.Comparer, words ...string) ([]ports.Match, error) {
	a, err := New(cmp, words...)
	if err != nil {
		return nil, err
	}
	return a.FindAll(text)
}

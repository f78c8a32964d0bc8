// Package automaton implements Aho-Corasick multi-pattern matching over a
// trie whose edges follow a pluggable rune equivalence.
//
// Construction happens in two phases on a Builder: words are inserted, then
// Build computes fail links and hands out an immutable Automaton. The split is
// what keeps fail links from going stale: a Builder refuses new words once it
// has been built, and an Automaton has no way to add any.
package automaton

import (
	"errors"

	"github.com/corey/acmatch/internal/domain/charcmp"
	"github.com/corey/acmatch/internal/domain/trie"
)

var (
	// ErrEmptyWord is returned by Builder.Add for a zero-length word.
	ErrEmptyWord = trie.ErrEmptyWord

	// ErrAlreadyBuilt is returned when adding to, or building, a finalized Builder.
	ErrAlreadyBuilt = errors.New("automaton already built")

	// ErrNotBuilt is returned when searching an automaton that did not come from Build.
	ErrNotBuilt = errors.New("automaton not built")
)

// Builder accumulates words for an Automaton. It is not safe for concurrent use.
type Builder struct {
	trie  *trie.Trie
	built bool
}

// NewBuilder returns a Builder whose trie compares runes with cmp.
// A nil cmp means charcmp.Ordinal.
func NewBuilder(cmp charcmp.Comparer) *Builder {
	return &Builder{trie: trie.New(cmp)}
}

// Add inserts one word. Empty words are rejected with ErrEmptyWord; adding a
// word that is already present is a no-op.
func (b *Builder) Add(word string) error {
	if b.built {
		return ErrAlreadyBuilt
	}
	_, err := b.trie.Insert(word)
	return err
}

// AddAll inserts every non-empty word. Empty strings are skipped, matching how
// word lists with blank entries are usually meant.
func (b *Builder) AddAll(words ...string) error {
	if b.built {
		return ErrAlreadyBuilt
	}
	for _, w := range words {
		if w == "" {
			continue
		}
		if _, err := b.trie.Insert(w); err != nil {
			return err
		}
	}
	return nil
}

// Build computes fail links and returns the finished automaton. It can only be
// called once; later calls, and later Adds, return ErrAlreadyBuilt.
func (b *Builder) Build() (*Automaton, error) {
	if b.built {
		return nil, ErrAlreadyBuilt
	}
	b.built = true

	maxDepth := buildFailLinks(b.trie)
	return &Automaton{trie: b.trie, maxDepth: maxDepth}, nil
}

// New builds an automaton for words in one step. Empty words are skipped.
func New(cmp charcmp.Comparer, words ...string) (*Automaton, error) {
	b := NewBuilder(cmp)
	if err := b.AddAll(words...); err != nil {
		return nil, err
	}
	return b.Build()
}

// buildFailLinks visits the trie breadth-first, parents before children, and
// points every node at the node for the longest proper suffix of its prefix
// that is itself a prefix in the trie. Nodes with no such suffix keep an unset
// link, which means the root. It returns the depth of the deepest node.
func buildFailLinks(t *trie.Trie) int {
	maxDepth := 0
	queue := append([]trie.NodeID(nil), t.Children(trie.Root)...)
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]

		path := t.Path(n)
		if len(path) > maxDepth {
			maxDepth = len(path)
		}
		for i := 1; i < len(path); i++ {
			if fail, ok := t.Explore(trie.Root, path[i:]); ok {
				t.SetFail(n, fail)
				break
			}
		}

		queue = append(queue, t.Children(n)...)
	}
	return maxDepth
}

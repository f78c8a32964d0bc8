// Package trie implements the dictionary trie as an arena of nodes.
//
// Nodes live in one slice owned by the Trie and refer to each other by NodeID:
// children map a rune to a child id, parent and fail are ids into the same
// slice, and the root is always id 0. Edge lookup goes through the configured
// charcmp.Comparer for both insertion and traversal, so construction and
// scanning agree on which runes are the same.
package trie

import (
	"errors"

	"github.com/corey/acmatch/internal/domain/charcmp"
)

// NodeID addresses a node inside its Trie.
type NodeID int32

const (
	// Root is the node for the empty prefix.
	Root NodeID = 0
	// None marks an unset parent or fail link. An unset fail link means the root.
	None NodeID = -1
)

// ErrEmptyWord is returned when inserting a zero-length word.
var ErrEmptyWord = errors.New("empty word")

type node struct {
	char     rune
	parent   NodeID
	fail     NodeID
	depth    int32
	terminal bool
	word     string // spelling of the first insertion, terminal nodes only

	children []NodeID            // insertion order
	edges    map[uint64][]NodeID // comparer hash -> candidates
}

// Trie is a prefix tree over runes.
type Trie struct {
	cmp   charcmp.Comparer
	nodes []node
	words int
}

// New returns an empty trie whose edges use cmp. A nil cmp means ordinal.
func New(cmp charcmp.Comparer) *Trie {
	if cmp == nil {
		cmp = charcmp.Ordinal
	}
	return &Trie{
		cmp:   cmp,
		nodes: []node{{parent: None, fail: None}},
	}
}

// Comparer returns the rune equivalence used for edge lookup.
func (t *Trie) Comparer() charcmp.Comparer { return t.cmp }

// Len returns the number of nodes, root included.
func (t *Trie) Len() int { return len(t.nodes) }

// WordCount returns the number of distinct words inserted.
func (t *Trie) WordCount() int { return t.words }

// Insert adds word and returns its terminal node. Inserting a word that already
// ends at a terminal node is a no-op that returns the same node; the spelling
// recorded at the node stays the first one inserted.
func (t *Trie) Insert(word string) (NodeID, error) {
	if word == "" {
		return None, ErrEmptyWord
	}

	n := Root
	for _, c := range word {
		child, ok := t.Child(n, c)
		if !ok {
			child = t.addChild(n, c)
		}
		n = child
	}

	nd := &t.nodes[n]
	if !nd.terminal {
		nd.terminal = true
		nd.word = word
		t.words++
	}
	return n, nil
}

func (t *Trie) addChild(parent NodeID, c rune) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, node{
		char:   c,
		parent: parent,
		fail:   None,
		depth:  t.nodes[parent].depth + 1,
	})

	p := &t.nodes[parent]
	if p.edges == nil {
		p.edges = make(map[uint64][]NodeID, 1)
	}
	h := t.cmp.Hash(c)
	p.edges[h] = append(p.edges[h], id)
	p.children = append(p.children, id)
	return id
}

// Child follows the edge for c out of n.
func (t *Trie) Child(n NodeID, c rune) (NodeID, bool) {
	edges := t.nodes[n].edges
	if edges == nil {
		return None, false
	}
	for _, id := range edges[t.cmp.Hash(c)] {
		if t.cmp.Equal(t.nodes[id].char, c) {
			return id, true
		}
	}
	return None, false
}

// Children returns the children of n in insertion order. The slice is shared
// with the trie and must not be modified.
func (t *Trie) Children(n NodeID) []NodeID { return t.nodes[n].children }

// Explore follows exactly one edge per rune of suffix starting at from, and
// reports false as soon as an edge is missing.
func (t *Trie) Explore(from NodeID, suffix []rune) (NodeID, bool) {
	n := from
	for _, c := range suffix {
		next, ok := t.Child(n, c)
		if !ok {
			return None, false
		}
		n = next
	}
	return n, true
}

// Parent returns the parent of n, or None for the root.
func (t *Trie) Parent(n NodeID) NodeID { return t.nodes[n].parent }

// Char returns the edge label leading into n. It is meaningless for the root.
func (t *Trie) Char(n NodeID) rune { return t.nodes[n].char }

// Depth returns the rune length of the prefix n represents.
func (t *Trie) Depth(n NodeID) int { return int(t.nodes[n].depth) }

// IsTerminal reports whether the prefix of n is a dictionary word.
func (t *Trie) IsTerminal(n NodeID) bool { return t.nodes[n].terminal }

// Fail returns the fail link of n, or None when it is unset (the root).
func (t *Trie) Fail(n NodeID) NodeID { return t.nodes[n].fail }

// SetFail sets the fail link of n. Links must point to a strictly shallower
// node; anything else panics, since a violation would make fail-chain walks
// loop forever.
func (t *Trie) SetFail(n, fail NodeID) {
	if n == Root {
		panic("trie: root has no fail link")
	}
	if fail != None && t.nodes[fail].depth >= t.nodes[n].depth {
		panic("trie: fail link must point to a shallower node")
	}
	t.nodes[n].fail = fail
}

// Path returns the edge labels from the root down to n.
func (t *Trie) Path(n NodeID) []rune {
	path := make([]rune, t.nodes[n].depth)
	for i := len(path) - 1; n != Root; i-- {
		path[i] = t.nodes[n].char
		n = t.nodes[n].parent
	}
	return path
}

// Word returns the text n represents. Terminal nodes return the word as first
// inserted; other nodes return their prefix rebuilt from the edge labels.
func (t *Trie) Word(n NodeID) string {
	if nd := &t.nodes[n]; nd.terminal {
		return nd.word
	}
	return string(t.Path(n))
}

// Package ahocorasick provides an alternate scanning strategy for ordinal
// dictionaries. It wraps the petar-dambovaliev/aho-corasick DFA, which matches
// raw bytes and therefore only supports exact code-point equality.
package ahocorasick

import (
	"errors"
	"fmt"
	"iter"
	"sort"
	"unicode/utf8"

	aho "github.com/petar-dambovaliev/aho-corasick"

	"github.com/corey/acmatch/internal/domain/charcmp"
	"github.com/corey/acmatch/internal/ports"
)

// ErrUnsupportedComparer is returned for any comparer other than charcmp.Ordinal.
var ErrUnsupportedComparer = errors.New("dfa strategy requires the ordinal comparer")

// Scanner implements ports.Searcher on a compiled DFA.
// It is immutable after NewScanner and safe for concurrent use.
//
// Unlike the trie automaton, Scanner is eager: every Search scans the whole
// text before the first match is yielded, so stopping early (Contains, a
// match limit) saves no scanning work. Prefer the trie strategy when texts
// are long and callers usually stop at the first match.
type Scanner struct {
	automaton aho.AhoCorasick
	patterns  []string
	maxLen    int
}

var _ ports.Searcher = (*Scanner)(nil)

// NewScanner compiles patterns into a DFA. Empty and duplicate patterns are
// dropped, keeping the first spelling, so results line up with the trie
// strategy.
func NewScanner(cmp charcmp.Comparer, patterns []string) (*Scanner, error) {
	if cmp != nil && !charcmp.IsOrdinal(cmp) {
		return nil, fmt.Errorf("%w (got %s)", ErrUnsupportedComparer, cmp)
	}

	seen := make(map[string]bool, len(patterns))
	p := make([]string, 0, len(patterns))
	maxLen := 0
	for _, w := range patterns {
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		p = append(p, w)
		if len(w) > maxLen {
			maxLen = len(w)
		}
	}

	s := &Scanner{patterns: p, maxLen: maxLen}
	if len(p) > 0 {
		builder := aho.NewAhoCorasickBuilder(aho.Opts{
			DFA: true,
		})
		s.automaton = builder.Build(p)
	}
	return s, nil
}

// WordCount returns the number of distinct patterns in the automaton.
func (s *Scanner) WordCount() int {
	return len(s.patterns)
}

// Pattern returns the pattern string at the given index.
func (s *Scanner) Pattern(idx int) string {
	if idx < 0 || idx >= len(s.patterns) {
		return ""
	}
	return s.patterns[idx]
}

// Search finds all overlapping pattern matches in text. The DFA reports
// matches in its own order, so the whole text is scanned up front and the
// matches are re-ordered by end position, longest first, before the sequence
// yields anything. Abandoning the sequence early is safe but does not
// shorten the scan.
func (s *Scanner) Search(text string) (iter.Seq[ports.Match], error) {
	return func(yield func(ports.Match) bool) {
		for _, m := range s.scan(text) {
			if !yield(m) {
				return
			}
		}
	}, nil
}

func (s *Scanner) scan(text string) []ports.Match {
	if text == "" || len(s.patterns) == 0 {
		return nil
	}

	it := s.automaton.IterOverlappingByte([]byte(text))
	var matches []ports.Match
	for next := it.Next(); next != nil; next = it.Next() {
		m := *next
		matches = append(matches, ports.Match{
			Word:  s.patterns[m.Pattern()],
			Start: m.Start(),
			End:   m.End(),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].End != matches[j].End {
			return matches[i].End < matches[j].End
		}
		return matches[i].Start < matches[j].Start
	})

	runeIndex := runeOffsets(text)
	for i := range matches {
		matches[i].Index = runeIndex(matches[i].Start)
	}
	return matches
}

// runeOffsets returns a byte offset -> rune index mapping for text.
func runeOffsets(text string) func(int) int {
	if utf8.RuneCountInString(text) == len(text) {
		return func(b int) int { return b }
	}
	idx := make([]int, len(text)+1)
	n := 0
	for b := range text {
		idx[b] = n
		n++
	}
	idx[len(text)] = n
	return func(b int) int { return idx[b] }
}

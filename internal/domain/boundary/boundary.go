// Package boundary restricts raw matches to whole-word occurrences.
package boundary

import (
	"iter"
	"unicode"
	"unicode/utf8"

	"github.com/corey/acmatch/internal/ports"
)

// Filter keeps the matches of seq whose neighbours in text are not letters or
// digits. The start and end of text count as boundaries. Matches must carry
// byte offsets into text, as produced by a Searcher scanning the same text.
func Filter(text string, seq iter.Seq[ports.Match]) iter.Seq[ports.Match] {
	return func(yield func(ports.Match) bool) {
		for m := range seq {
			if !IsBounded(text, m) {
				continue
			}
			if !yield(m) {
				return
			}
		}
	}
}

// IsBounded reports whether m sits on word boundaries in text.
func IsBounded(text string, m ports.Match) bool {
	if m.Start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:m.Start])
		if isWordRune(r) {
			return false
		}
	}
	if m.End < len(text) {
		r, _ := utf8.DecodeRuneInString(text[m.End:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

// Any reports whether seq yields at least one bounded match.
func Any(text string, seq iter.Seq[ports.Match]) bool {
	for range Filter(text, seq) {
		return true
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Package charcmp defines what "the same character" means for a matching run.
//
// A Comparer is an equality test plus a hash over single runes. The trie uses
// the hash to pick an edge bucket and the equality test to resolve it, so both
// must agree: Equal(a, b) implies Hash(a) == Hash(b). Every comparer here is a
// pure function of its inputs and the configuration captured at construction,
// which makes them safe to share between concurrent searches.
package charcmp

import "unicode"

// Comparer decides rune equivalence for edge lookup in the trie.
type Comparer interface {
	Equal(a, b rune) bool
	Hash(r rune) uint64

	// String returns the comparer spec that Parse maps back to an equivalent
	// comparer (e.g. "o", "o:i", "n:i", "tr-TR:i").
	String() string
}

var (
	// Ordinal compares raw code points.
	Ordinal Comparer = ordinal{}

	// OrdinalIgnoreCase compares the invariant simple uppercase mapping of each
	// rune. It is not a full case fold: ß and ẞ stay distinct.
	OrdinalIgnoreCase Comparer = ordinal{ignoreCase: true}

	// InvariantCulture compares with the root-locale collation.
	InvariantCulture Comparer = newCollation(invariantTag, false)

	// InvariantCultureIgnoreCase compares with the root-locale collation,
	// ignoring case weights. ß and ẞ are equal under it.
	InvariantCultureIgnoreCase Comparer = newCollation(invariantTag, true)
)

type ordinal struct {
	ignoreCase bool
}

func (o ordinal) Equal(a, b rune) bool {
	if o.ignoreCase {
		return invariantUpper(a) == invariantUpper(b)
	}
	return a == b
}

func (o ordinal) Hash(r rune) uint64 {
	if o.ignoreCase {
		return uint64(invariantUpper(r))
	}
	return uint64(r)
}

func (o ordinal) String() string {
	if o.ignoreCase {
		return "o:i"
	}
	return "o"
}

// invariantUpper is the locale-independent simple uppercase mapping.
// Dotless ı (U+0131) and long ſ (U+017F) upper-case to themselves here; their
// Unicode mappings to I and S only apply under language-specific rules.
func invariantUpper(r rune) rune {
	switch r {
	case 'ı', 'ſ':
		return r
	}
	return unicode.ToUpper(r)
}

package charcmp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

// =============================================================================
// Character equivalence: ordinal, invariant and locale comparers
// Expectation: Equal follows the named rules and Hash never disagrees with it
// =============================================================================

const (
	smallDotlessI      = 'ı'
	capitalIWithDot    = 'İ'
	capitalSharpS      = 'ẞ'
	latinSmallCapitalR = 'ʀ'
	latinLetterYR      = 'Ʀ'
)

// assertConsistent checks Equal(a, b) ⇒ Hash(a) == Hash(b) for every pair.
func assertConsistent(t *testing.T, c Comparer, runes ...rune) {
	t.Helper()
	for _, a := range runes {
		for _, b := range runes {
			if c.Equal(a, b) {
				assert.Equal(t, c.Hash(a), c.Hash(b), "%s: %q == %q but hashes differ", c, a, b)
			}
		}
	}
}

var sample = []rune{'a', 'A', 'i', 'I', 's', 'S', 'ß', smallDotlessI, capitalIWithDot, capitalSharpS,
	latinSmallCapitalR, latinLetterYR, 'ſ', 'é', 'É', '1'}

func TestOrdinal(t *testing.T) {
	c := Ordinal
	assert.True(t, c.Equal('i', 'i'))
	assert.False(t, c.Equal(smallDotlessI, 'i'))
	assert.False(t, c.Equal('ß', capitalSharpS))
	assert.False(t, c.Equal(latinSmallCapitalR, latinLetterYR))
	assert.False(t, c.Equal('a', 'A'))
	assertConsistent(t, c, sample...)
}

func TestOrdinalIgnoreCase(t *testing.T) {
	c := OrdinalIgnoreCase
	assert.True(t, c.Equal('i', 'I'))
	assert.False(t, c.Equal(smallDotlessI, 'i'))
	assert.False(t, c.Equal(smallDotlessI, 'I'))
	assert.False(t, c.Equal('ß', capitalSharpS))
	assert.True(t, c.Equal(latinSmallCapitalR, latinLetterYR))
	assert.False(t, c.Equal('ſ', 'S'))
	assert.True(t, c.Equal('é', 'É'))
	assertConsistent(t, c, sample...)
}

func TestInvariantCulture(t *testing.T) {
	c := InvariantCulture
	assert.True(t, c.Equal('i', 'i'))
	assert.False(t, c.Equal('i', 'I'))
	assert.False(t, c.Equal(smallDotlessI, 'i'))
	assert.False(t, c.Equal('ß', capitalSharpS))
	assertConsistent(t, c, sample...)
}

func TestInvariantCultureIgnoreCase(t *testing.T) {
	c := InvariantCultureIgnoreCase
	assert.True(t, c.Equal('i', 'I'))
	assert.False(t, c.Equal(smallDotlessI, 'i'))
	assert.False(t, c.Equal(smallDotlessI, 'I'))
	assert.True(t, c.Equal('ß', capitalSharpS))
	assert.Equal(t, c.Hash('ß'), c.Hash(capitalSharpS))
	assertConsistent(t, c, sample...)
}

func TestCurrentCulture_Turkish(t *testing.T) {
	SetCurrentLocale(language.MustParse("tr-TR"))
	t.Cleanup(ResetCurrentLocale)

	c := CurrentCulture()
	assert.True(t, c.Equal('i', 'i'))
	assert.False(t, c.Equal(smallDotlessI, 'i'))
	assert.False(t, c.Equal('ß', capitalSharpS))

	c = CurrentCultureIgnoreCase()
	assert.False(t, c.Equal('i', 'I'))
	assert.False(t, c.Equal(smallDotlessI, 'i'))
	assert.True(t, c.Equal(smallDotlessI, 'I'))
	assert.True(t, c.Equal('i', capitalIWithDot))
	assert.True(t, c.Equal('ß', capitalSharpS))

	assert.Equal(t, c.Hash('i'), c.Hash(capitalIWithDot))
	assert.Equal(t, c.Hash(smallDotlessI), c.Hash('I'))
	assertConsistent(t, c, sample...)
}

func TestCurrentLocale_FromEnv(t *testing.T) {
	ResetCurrentLocale()
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_MESSAGES", "")
	t.Setenv("LANG", "de_DE.UTF-8")
	assert.Equal(t, language.MustParse("de-DE"), CurrentLocale())

	t.Setenv("LANG", "C")
	assert.Equal(t, language.Und, CurrentLocale())

	t.Setenv("LC_ALL", "tr_TR@euro")
	assert.Equal(t, language.MustParse("tr-TR"), CurrentLocale())
}

func TestParse(t *testing.T) {
	tests := []struct {
		spec string
		want string
	}{
		{"", "o"},
		{"o", "o"},
		{"o:i", "o:i"},
		{":i", "o:i"},
		{"n", "n"},
		{"n:i", "n:i"},
		{"tr-TR", "tr-TR"},
		{"tr-TR:i", "tr-TR:i"},
		{" de:i ", "de:i"},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			c, err := Parse(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.String())
		})
	}
}

func TestParse_CurrentResolvesLocale(t *testing.T) {
	SetCurrentLocale(language.MustParse("tr-TR"))
	t.Cleanup(ResetCurrentLocale)

	got, err := Canonical("c:i")
	require.NoError(t, err)
	assert.Equal(t, "tr-TR:i", got)
}

func TestParse_Invalid(t *testing.T) {
	for _, spec := range []string{"o:x", "not a locale!", "n:i:i"} {
		_, err := Parse(spec)
		assert.ErrorIs(t, err, ErrInvalidSpec, spec)
	}
}

func TestIsOrdinal(t *testing.T) {
	assert.True(t, IsOrdinal(Ordinal))
	assert.False(t, IsOrdinal(OrdinalIgnoreCase))
	assert.False(t, IsOrdinal(InvariantCulture))
}

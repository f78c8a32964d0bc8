package boundary

import (
	"slices"
	"testing"

	"github.com/corey/acmatch/internal/domain/automaton"
	"github.com/corey/acmatch/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Word-boundary filter: drop matches glued to letters or digits
// =============================================================================

func search(t *testing.T, text string, words ...string) []ports.Match {
	t.Helper()
	a, err := automaton.New(nil, words...)
	require.NoError(t, err)
	seq, err := a.Search(text)
	require.NoError(t, err)
	return slices.Collect(Filter(text, seq))
}

func TestFilter_SuppressesInnerMatch(t *testing.T) {
	m := search(t, "this is it", "is")
	require.Len(t, m, 1)
	assert.Equal(t, 5, m[0].Index)
	assert.Equal(t, "is", m[0].Word)
}

func TestFilter_TextEdgesAreBoundaries(t *testing.T) {
	m := search(t, "is", "is")
	require.Len(t, m, 1)
	assert.Equal(t, 0, m[0].Index)
}

func TestFilter_PunctuationIsBoundary(t *testing.T) {
	m := search(t, "(is), is. is9 é-is", "is")
	var idx []int
	for _, x := range m {
		idx = append(idx, x.Index)
	}
	assert.Equal(t, []int{1, 6, 16}, idx)
}

func TestFilter_NonASCIILetterIsNotBoundary(t *testing.T) {
	assert.Empty(t, search(t, "éis", "is"))
	assert.Empty(t, search(t, "isé", "is"))
}

func TestAny(t *testing.T) {
	a, err := automaton.New(nil, "is")
	require.NoError(t, err)

	seq, err := a.Search("this")
	require.NoError(t, err)
	assert.False(t, Any("this", seq))

	seq, err = a.Search("this is")
	require.NoError(t, err)
	assert.True(t, Any("this is", seq))
}

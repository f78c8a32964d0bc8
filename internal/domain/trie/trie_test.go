package trie

import (
	"testing"

	"github.com/corey/acmatch/internal/domain/charcmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Arena trie: insertion, edge lookup under a comparer, explore, word rebuild
// =============================================================================

func TestInsert_BuildsOneNodePerRune(t *testing.T) {
	tr := New(nil)
	n, err := tr.Insert("abc")
	require.NoError(t, err)

	assert.Equal(t, 4, tr.Len(), "root + 3 nodes")
	assert.Equal(t, 3, tr.Depth(n))
	assert.True(t, tr.IsTerminal(n))
	assert.Equal(t, "abc", tr.Word(n))
	assert.Equal(t, 1, tr.WordCount())
}

func TestInsert_SharesPrefixes(t *testing.T) {
	tr := New(nil)
	ab, err := tr.Insert("ab")
	require.NoError(t, err)
	abc, err := tr.Insert("abc")
	require.NoError(t, err)

	assert.Equal(t, 4, tr.Len())
	assert.Equal(t, ab, tr.Parent(abc))
	assert.Equal(t, 'c', tr.Char(abc))

	a := tr.Parent(ab)
	assert.False(t, tr.IsTerminal(a))
	assert.Equal(t, "a", tr.Word(a))
	assert.Equal(t, Root, tr.Parent(a))
	assert.Equal(t, None, tr.Parent(Root))
}

func TestInsert_EmptyWordRejected(t *testing.T) {
	tr := New(nil)
	n, err := tr.Insert("")
	assert.ErrorIs(t, err, ErrEmptyWord)
	assert.Equal(t, None, n)
	assert.Equal(t, 1, tr.Len())
}

func TestInsert_DuplicateIsIdempotent(t *testing.T) {
	tr := New(nil)
	first, err := tr.Insert("take")
	require.NoError(t, err)
	second, err := tr.Insert("take")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 5, tr.Len())
	assert.Equal(t, 1, tr.WordCount())
}

func TestInsert_CaseInsensitiveKeepsFirstSpelling(t *testing.T) {
	tr := New(charcmp.OrdinalIgnoreCase)
	first, err := tr.Insert("Take")
	require.NoError(t, err)
	second, err := tr.Insert("TAKE")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "Take", tr.Word(second))
	assert.Equal(t, 1, tr.WordCount())
}

func TestInsert_MultiByteRunes(t *testing.T) {
	tr := New(nil)
	n, err := tr.Insert("straße")
	require.NoError(t, err)
	assert.Equal(t, 6, tr.Depth(n))
	assert.Equal(t, []rune("straße"), tr.Path(n))
}

func TestChild_UsesComparer(t *testing.T) {
	tr := New(charcmp.OrdinalIgnoreCase)
	_, err := tr.Insert("a")
	require.NoError(t, err)

	lower, ok := tr.Child(Root, 'a')
	require.True(t, ok)
	upper, ok := tr.Child(Root, 'A')
	require.True(t, ok)
	assert.Equal(t, lower, upper)

	_, ok = tr.Child(Root, 'b')
	assert.False(t, ok)
}

func TestChildren_InsertionOrder(t *testing.T) {
	tr := New(nil)
	for _, w := range []string{"c", "a", "b"} {
		_, err := tr.Insert(w)
		require.NoError(t, err)
	}
	var got []rune
	for _, id := range tr.Children(Root) {
		got = append(got, tr.Char(id))
	}
	assert.Equal(t, []rune{'c', 'a', 'b'}, got)
}

func TestExplore(t *testing.T) {
	tr := New(nil)
	abc, err := tr.Insert("abc")
	require.NoError(t, err)

	n, ok := tr.Explore(Root, []rune("abc"))
	assert.True(t, ok)
	assert.Equal(t, abc, n)

	_, ok = tr.Explore(Root, []rune("abd"))
	assert.False(t, ok)

	_, ok = tr.Explore(Root, []rune("bc"))
	assert.False(t, ok)

	n, ok = tr.Explore(Root, nil)
	assert.True(t, ok)
	assert.Equal(t, Root, n)
}

func TestSetFail(t *testing.T) {
	tr := New(nil)
	ab, err := tr.Insert("ab")
	require.NoError(t, err)
	b, err := tr.Insert("b")
	require.NoError(t, err)

	assert.Equal(t, None, tr.Fail(ab))
	tr.SetFail(ab, b)
	assert.Equal(t, b, tr.Fail(ab))

	assert.Panics(t, func() { tr.SetFail(b, ab) }, "deeper fail link")
	assert.Panics(t, func() { tr.SetFail(Root, b) }, "root fail link")
}

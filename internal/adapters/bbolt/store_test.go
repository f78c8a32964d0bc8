package bbolt

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/corey/acmatch/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// bbolt DictionaryStore: save/load definitions, idempotent delete, clear
// Expectation: definitions survive a reopen; automatons are never stored
// =============================================================================

// newTestStore creates a temporary bbolt store for testing.
func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")
	store, err := NewStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, path
}

func makeTestDictionary(key, name string) *ports.Dictionary {
	return &ports.Dictionary{
		Key:       key,
		Name:      name,
		Comparer:  "n:i",
		Strategy:  "trie",
		Source:    "lists/" + name + ".xml",
		Words:     []string{"her", "their", "eye", "iris", "he", "is", "si", "straße"},
		CreatedAt: 1700000000,
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	d := makeTestDictionary("k1", "names")
	require.NoError(t, store.SaveDictionary(d))

	got, err := store.LoadDictionary("k1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, d.Key, got.Key)
	assert.Equal(t, d.Name, got.Name)
	assert.Equal(t, d.Comparer, got.Comparer)
	assert.Equal(t, d.Strategy, got.Strategy)
	assert.Equal(t, d.Source, got.Source)
	assert.Equal(t, d.Words, got.Words)
	assert.Equal(t, len(d.Words), got.WordCount)
	assert.Equal(t, d.CreatedAt, got.CreatedAt)
}

func TestLoad_Missing(t *testing.T) {
	store, _ := newTestStore(t)
	got, err := store.LoadDictionary("nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSave_Overwrites(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.SaveDictionary(makeTestDictionary("k1", "a")))

	d := makeTestDictionary("k1", "b")
	d.Words = []string{"only"}
	require.NoError(t, store.SaveDictionary(d))

	got, err := store.LoadDictionary("k1")
	require.NoError(t, err)
	assert.Equal(t, "b", got.Name)
	assert.Equal(t, []string{"only"}, got.Words)
}

func TestSave_Validation(t *testing.T) {
	store, _ := newTestStore(t)
	assert.Error(t, store.SaveDictionary(nil))
	assert.Error(t, store.SaveDictionary(&ports.Dictionary{Name: "no key"}))
}

func TestSave_DoesNotMutateInput(t *testing.T) {
	store, _ := newTestStore(t)
	d := makeTestDictionary("k1", "a")
	require.NoError(t, store.SaveDictionary(d))
	assert.Len(t, d.Words, 8)
}

func TestDelete_Idempotent(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.SaveDictionary(makeTestDictionary("k1", "a")))

	require.NoError(t, store.DeleteDictionary("k1"))
	require.NoError(t, store.DeleteDictionary("k1"))

	got, err := store.LoadDictionary("k1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestList_SortedWithoutWords(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.SaveDictionary(makeTestDictionary("k2", "zeta")))
	require.NoError(t, store.SaveDictionary(makeTestDictionary("k1", "alpha")))
	require.NoError(t, store.SaveDictionary(makeTestDictionary("k3", "alpha")))

	list, err := store.ListDictionaries()
	require.NoError(t, err)
	require.Len(t, list, 3)

	assert.Equal(t, "k1", list[0].Key)
	assert.Equal(t, "k3", list[1].Key)
	assert.Equal(t, "k2", list[2].Key)
	for _, d := range list {
		assert.Nil(t, d.Words)
		assert.Equal(t, 8, d.WordCount)
	}
}

func TestClear(t *testing.T) {
	store, _ := newTestStore(t)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.SaveDictionary(makeTestDictionary(fmt.Sprintf("k%d", i), "d")))
	}

	n, err := store.Clear()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	list, err := store.ListDictionaries()
	require.NoError(t, err)
	assert.Empty(t, list)

	n, err = store.Clear()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestPersistence_AcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	store, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, store.SaveDictionary(makeTestDictionary("k1", "a")))
	require.NoError(t, store.Close())

	store, err = NewStore(path)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.LoadDictionary("k1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, got.Words, 8)
}

func TestConcurrentReads(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.SaveDictionary(makeTestDictionary("k1", "a")))

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := store.LoadDictionary("k1")
			if err == nil && d == nil {
				err = fmt.Errorf("missing dictionary")
			}
			if err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

// =============================================================================
// Word-list binary encoding
// =============================================================================

func TestEncodeWords_RoundTrip(t *testing.T) {
	words := []string{"", "a", "straße", strings.Repeat("x", 300), "日本語"}
	blob, err := encodeWords(words)
	require.NoError(t, err)

	got, err := decodeWords(blob)
	require.NoError(t, err)
	assert.Equal(t, words, got)
}

func TestEncodeWords_Empty(t *testing.T) {
	blob, err := encodeWords(nil)
	require.NoError(t, err)
	got, err := decodeWords(blob)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDecodeWords_Corrupt(t *testing.T) {
	blob, err := encodeWords([]string{"alpha", "beta"})
	require.NoError(t, err)

	cases := map[string][]byte{
		"short":     blob[:3],
		"version":   append([]byte{9}, blob[1:]...),
		"truncated": blob[:len(blob)-2],
		"trailing":  append(append([]byte(nil), blob...), 0),
		"count":     {1, 0xff, 0xff, 0xff, 0x7f, 1},
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := decodeWords(data)
			assert.Error(t, err)
		})
	}
}

func TestSave_KeepsGivenWordCount(t *testing.T) {
	store, _ := newTestStore(t)
	d := makeTestDictionary("k1", "dupes")
	d.Words = []string{"he", "HE", "she", "he"}
	d.WordCount = 2
	require.NoError(t, store.SaveDictionary(d))

	got, err := store.LoadDictionary("k1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.WordCount)
	assert.Len(t, got.Words, 4)

	list, err := store.ListDictionaries()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].WordCount)
}

func TestNewStore_LockedReportsErrLocked(t *testing.T) {
	_, path := newTestStore(t)

	_, err := NewStore(path)
	assert.ErrorIs(t, err, ErrLocked)
}

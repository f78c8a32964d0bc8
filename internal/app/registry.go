package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/corey/acmatch/internal/adapters/ahocorasick"
	"github.com/corey/acmatch/internal/adapters/wordlist"
	"github.com/corey/acmatch/internal/domain/automaton"
	"github.com/corey/acmatch/internal/domain/boundary"
	"github.com/corey/acmatch/internal/domain/charcmp"
	"github.com/corey/acmatch/internal/ports"
)

// DefaultMaxEntries bounds the number of built dictionaries held in memory.
const DefaultMaxEntries = 256

// Scanning strategies.
const (
	StrategyTrie = "trie"
	StrategyDFA  = "dfa"
)

var (
	// ErrNotFound is returned for keys with neither a resident entry nor a
	// persisted definition.
	ErrNotFound = ports.ErrNotFound

	// ErrUnknownStrategy is returned for strategies other than trie and dfa.
	ErrUnknownStrategy = fmt.Errorf("%w: unknown strategy", ports.ErrInvalid)
)

// Definition describes a dictionary to create.
type Definition struct {
	Name     string
	Document string // raw word-list document
	Format   string // "xml" or "text"; empty sniffs a leading "<" as XML
	Comparer string // comparer spec, see charcmp.Parse
	Strategy string // StrategyTrie (default) or StrategyDFA
	Source   string // file the document was read from, if any
}

// Entry is a built dictionary. Dictionary carries no words; they live in the
// searcher.
type Entry struct {
	Dictionary ports.Dictionary
	Searcher   ports.Searcher
	BuiltAt    time.Time
}

// Info summarizes a known dictionary for listings.
type Info struct {
	ports.Dictionary
	Resident bool `json:"resident"`
}

// Registry is a bounded LRU of built dictionaries keyed by dictionary key.
// Definitions are persisted to the store; entries evicted from memory are
// rebuilt from their definition on the next Get.
type Registry struct {
	cache *lru.Cache[string, *Entry]
	max   int

	// mu orders cache writes against removals: gen counts Remove and Clear
	// calls so a rebuild that raced one does not resurrect the entry.
	mu  sync.Mutex
	gen uint64

	store   ports.DictionaryStore // nil = memory only
	rebuild singleflight.Group
	log     *log.Logger
}

// NewRegistry creates a registry. store may be nil; maxEntries <= 0 uses
// DefaultMaxEntries; a nil logger logs to the standard logger.
func NewRegistry(store ports.DictionaryStore, maxEntries int, logger *log.Logger) *Registry {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if logger == nil {
		logger = log.Default()
	}
	// lru.New only fails for a non-positive size.
	cache, _ := lru.New[string, *Entry](maxEntries)
	return &Registry{cache: cache, max: maxEntries, store: store, log: logger}
}

// Create parses, builds, persists and registers a dictionary. Creating a
// dictionary whose key already exists returns the existing entry.
func (r *Registry) Create(ctx context.Context, def Definition) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	spec, err := charcmp.Canonical(def.Comparer)
	if err != nil {
		return nil, err
	}
	strategy, err := normalizeStrategy(def.Strategy)
	if err != nil {
		return nil, err
	}

	key := DictionaryKey(def.Document, spec)
	if e, err := r.Get(key); err == nil {
		return e, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	words, err := wordlist.ParseString(def.Format, def.Document)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", def.Name, err)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("%q: %w", def.Name, wordlist.ErrNoWords)
	}

	d := &ports.Dictionary{
		Key:       key,
		Name:      def.Name,
		Comparer:  spec,
		Strategy:  strategy,
		Source:    def.Source,
		Words:     words,
		CreatedAt: time.Now().Unix(),
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e, err := buildEntry(d)
	if err != nil {
		return nil, err
	}
	d.WordCount = e.Dictionary.WordCount
	if r.store != nil {
		if err := r.store.SaveDictionary(d); err != nil {
			return nil, fmt.Errorf("save dictionary: %w", err)
		}
	}
	r.Put(e)
	r.log.Printf("[registry] created %s %q (%d words, %s, %s)", shortKey(key), d.Name, d.WordCount, spec, strategy)
	return e, nil
}

// Put registers a built entry, evicting the least recently used entries
// beyond the bound.
func (r *Registry) Put(e *Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.add(e)
}

// add inserts e. Caller must hold r.mu.
func (r *Registry) add(e *Entry) {
	if r.cache.Add(e.Dictionary.Key, e) {
		r.log.Printf("[registry] evicted least recently used entry for %s", shortKey(e.Dictionary.Key))
	}
}

// putIfCurrent registers e unless a Remove or Clear happened since gen was
// read.
func (r *Registry) putIfCurrent(e *Entry, gen uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen != gen {
		return false
	}
	r.add(e)
	return true
}

func (r *Registry) generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gen
}

// Get returns the entry for key, rebuilding it from the store when it is not
// resident.
func (r *Registry) Get(key string) (*Entry, error) {
	if e, ok := r.cache.Get(key); ok {
		return e, nil
	}
	if r.store == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	v, err, _ := r.rebuild.Do(key, func() (any, error) {
		if e, ok := r.cache.Get(key); ok {
			return e, nil
		}
		gen := r.generation()
		d, err := r.load(key)
		if err != nil {
			return nil, err
		}
		e, err := buildEntry(d)
		if err != nil {
			return nil, err
		}
		// A removal ran during the build: keep the entry only if its
		// definition is still stored.
		for !r.putIfCurrent(e, gen) {
			gen = r.generation()
			if _, err := r.load(key); err != nil {
				return nil, err
			}
		}
		r.log.Printf("[registry] rebuilt %s from store", shortKey(key))
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Entry), nil
}

// load reads a stored definition, mapping an absent key to ErrNotFound.
func (r *Registry) load(key string) (*ports.Dictionary, error) {
	d, err := r.store.LoadDictionary(key)
	if err != nil {
		return nil, fmt.Errorf("load dictionary: %w", err)
	}
	if d == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return d, nil
}

// Remove drops a dictionary from the store and from memory. It reports
// whether the dictionary existed.
func (r *Registry) Remove(key string) (bool, error) {
	existed := r.cache.Contains(key)
	if r.store != nil {
		if !existed {
			d, err := r.store.LoadDictionary(key)
			if err != nil {
				return false, fmt.Errorf("load dictionary: %w", err)
			}
			existed = d != nil
		}
		// Store first, so a concurrent rebuild either sees the key gone or
		// loses its generation check below.
		if err := r.store.DeleteDictionary(key); err != nil {
			return existed, fmt.Errorf("delete dictionary: %w", err)
		}
	}

	r.mu.Lock()
	r.gen++
	if r.cache.Remove(key) {
		existed = true
	}
	r.mu.Unlock()
	return existed, nil
}

// Clear drops every dictionary and returns how many were known.
func (r *Registry) Clear() (int, error) {
	stored := 0
	if r.store != nil {
		var err error
		if stored, err = r.store.Clear(); err != nil {
			return 0, fmt.Errorf("clear store: %w", err)
		}
	}

	r.mu.Lock()
	r.gen++
	n := r.cache.Len()
	r.cache.Purge()
	r.mu.Unlock()

	// Resident entries are persisted, so the store count covers them.
	total := max(n, stored)
	r.log.Printf("[registry] cleared %d dictionaries", total)
	return total, nil
}

// Len returns the number of resident entries.
func (r *Registry) Len() int {
	return r.cache.Len()
}

// List returns every known dictionary sorted by name then key.
func (r *Registry) List() ([]Info, error) {
	byKey := make(map[string]Info, r.cache.Len())
	for _, key := range r.cache.Keys() {
		if e, ok := r.cache.Peek(key); ok {
			byKey[key] = Info{Dictionary: e.Dictionary, Resident: true}
		}
	}

	if r.store != nil {
		stored, err := r.store.ListDictionaries()
		if err != nil {
			return nil, fmt.Errorf("list dictionaries: %w", err)
		}
		for _, d := range stored {
			if _, ok := byKey[d.Key]; !ok {
				byKey[d.Key] = Info{Dictionary: *d}
			}
		}
	}

	infos := make([]Info, 0, len(byKey))
	for _, info := range byKey {
		infos = append(infos, info)
	}
	slices.SortFunc(infos, func(a, b Info) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.Key, b.Key)
	})
	return infos, nil
}

// Search returns up to limit matches of the dictionary in text (limit <= 0
// means all). Bounded keeps only whole-word matches.
func (r *Registry) Search(key, text string, bounded bool, limit int) ([]ports.Match, error) {
	e, err := r.Get(key)
	if err != nil {
		return nil, err
	}
	return collect(e.Searcher, text, bounded, limit)
}

// SearchBounded is Search restricted to whole-word matches.
func (r *Registry) SearchBounded(key, text string, limit int) ([]ports.Match, error) {
	return r.Search(key, text, true, limit)
}

// Contains reports whether any word of the dictionary occurs in text.
func (r *Registry) Contains(key, text string, bounded bool) (bool, error) {
	e, err := r.Get(key)
	if err != nil {
		return false, err
	}
	seq, err := e.Searcher.Search(text)
	if err != nil {
		return false, err
	}
	if bounded {
		return boundary.Any(text, seq), nil
	}
	for range seq {
		return true, nil
	}
	return false, nil
}

func collect(s ports.Searcher, text string, bounded bool, limit int) ([]ports.Match, error) {
	seq, err := s.Search(text)
	if err != nil {
		return nil, err
	}
	if bounded {
		seq = boundary.Filter(text, seq)
	}
	matches := []ports.Match{}
	for m := range seq {
		matches = append(matches, m)
		if limit > 0 && len(matches) == limit {
			break
		}
	}
	return matches, nil
}

// buildEntry compiles a definition with its strategy. The returned entry's
// dictionary has no words.
func buildEntry(d *ports.Dictionary) (*Entry, error) {
	s, err := NewSearcher(d.Comparer, d.Strategy, d.Words)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", shortKey(d.Key), err)
	}
	meta := *d
	meta.Words = nil
	meta.WordCount = s.WordCount()
	return &Entry{Dictionary: meta, Searcher: s, BuiltAt: time.Now()}, nil
}

// NewSearcher builds a searcher over words for a comparer spec and strategy.
func NewSearcher(comparerSpec, strategy string, words []string) (ports.Searcher, error) {
	cmp, err := charcmp.Parse(comparerSpec)
	if err != nil {
		return nil, err
	}
	strategy, err = normalizeStrategy(strategy)
	if err != nil {
		return nil, err
	}
	if strategy == StrategyDFA {
		s, err := ahocorasick.NewScanner(cmp, words)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	a, err := automaton.New(cmp, words...)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func normalizeStrategy(s string) (string, error) {
	switch s {
	case "", StrategyTrie:
		return StrategyTrie, nil
	case StrategyDFA:
		return StrategyDFA, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownStrategy, s)
}

func shortKey(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}

// Package bbolt implements the ports.DictionaryStore interface using bbolt
// (embedded B+ tree). Every dictionary gets its own sub-bucket of the top-level
// "dictionaries" bucket, holding a JSON "meta" value and a binary "words" value.
// Writes are transactional: a crash mid-write cannot corrupt previously
// committed data.
package bbolt

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/corey/acmatch/internal/ports"
	bolt "go.etcd.io/bbolt"
	berrors "go.etcd.io/bbolt/errors"
)

// ErrLocked is returned by NewStore when another process holds the database
// file lock past the open timeout.
var ErrLocked = errors.New("database is locked")

// Bucket keys
var (
	bucketDictionaries = []byte("dictionaries")
	keyMeta            = []byte("meta")
	keyWords           = []byte("words")
)

// Store implements ports.DictionaryStore backed by bbolt.
type Store struct {
	db *bolt.DB
}

var _ ports.DictionaryStore = (*Store)(nil)

// NewStore opens (or creates) a bbolt database at the given path.
func NewStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if errors.Is(err, berrors.ErrTimeout) {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketDictionaries)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("bbolt init: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveDictionary persists a dictionary definition, replacing any prior one
// stored under the same key. d.WordCount is kept as given (the distinct count
// the caller built); when it is zero the raw word count is stored.
func (s *Store) SaveDictionary(d *ports.Dictionary) error {
	if d == nil {
		return fmt.Errorf("nil dictionary")
	}
	if d.Key == "" {
		return fmt.Errorf("dictionary key required")
	}

	meta := *d
	meta.Words = nil
	if meta.WordCount == 0 {
		meta.WordCount = len(d.Words)
	}
	metaJSON, err := json.Marshal(&meta)
	if err != nil {
		return fmt.Errorf("marshal dictionary meta: %w", err)
	}
	wordsBlob, err := encodeWords(d.Words)
	if err != nil {
		return fmt.Errorf("encode words: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		root := tx.Bucket(bucketDictionaries)
		// Drop the old sub-bucket so no stale values survive an overwrite.
		if err := root.DeleteBucket([]byte(d.Key)); err != nil && err != bolt.ErrBucketNotFound {
			return err
		}
		b, err := root.CreateBucket([]byte(d.Key))
		if err != nil {
			return err
		}
		if err := b.Put(keyMeta, metaJSON); err != nil {
			return err
		}
		return b.Put(keyWords, wordsBlob)
	})
}

// LoadDictionary retrieves a definition with its words.
// Returns nil, nil if no definition exists.
func (s *Store) LoadDictionary(key string) (*ports.Dictionary, error) {
	var metaJSON, wordsBlob []byte

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDictionaries).Bucket([]byte(key))
		if b == nil {
			return nil
		}
		// Copy bytes out of the transaction (bbolt slices are only valid within tx)
		if v := b.Get(keyMeta); v != nil {
			metaJSON = make([]byte, len(v))
			copy(metaJSON, v)
		}
		if v := b.Get(keyWords); v != nil {
			wordsBlob = make([]byte, len(v))
			copy(wordsBlob, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if metaJSON == nil {
		return nil, nil
	}

	var d ports.Dictionary
	if err := json.Unmarshal(metaJSON, &d); err != nil {
		return nil, fmt.Errorf("unmarshal dictionary meta: %w", err)
	}
	if wordsBlob != nil {
		words, err := decodeWords(wordsBlob)
		if err != nil {
			return nil, fmt.Errorf("decode words for %s: %w", key, err)
		}
		d.Words = words
		if d.WordCount == 0 {
			d.WordCount = len(words)
		}
	}
	return &d, nil
}

// DeleteDictionary removes a definition.
// Idempotent: deleting a nonexistent key is not an error.
func (s *Store) DeleteDictionary(key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketDictionaries).DeleteBucket([]byte(key)); err == bolt.ErrBucketNotFound {
			return nil // idempotent
		} else {
			return err
		}
	})
}

// ListDictionaries returns every stored definition without its words,
// sorted by name then key.
func (s *Store) ListDictionaries() ([]*ports.Dictionary, error) {
	var out []*ports.Dictionary
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDictionaries).ForEachBucket(func(k []byte) error {
			v := tx.Bucket(bucketDictionaries).Bucket(k).Get(keyMeta)
			if v == nil {
				return nil
			}
			var d ports.Dictionary
			if err := json.Unmarshal(v, &d); err != nil {
				return fmt.Errorf("unmarshal dictionary meta %s: %w", k, err)
			}
			out = append(out, &d)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Key < out[j].Key
	})
	return out, nil
}

// Clear removes every stored definition.
func (s *Store) Clear() (int, error) {
	n := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		if b := tx.Bucket(bucketDictionaries); b != nil {
			if err := b.ForEachBucket(func([]byte) error { n++; return nil }); err != nil {
				return err
			}
			if err := tx.DeleteBucket(bucketDictionaries); err != nil {
				return err
			}
		}
		_, err := tx.CreateBucket(bucketDictionaries)
		return err
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

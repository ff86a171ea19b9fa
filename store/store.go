// Package store is the indexed entity store: keyed records over
// BadgerDB plus ordered per-container index lists. Values pass through
// a Codec on every read and write; missing or undecodable records
// degrade to "absent" so a single corrupt value can never fail a
// lookup or a listing.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

type Store struct {
	db    *badger.DB
	codec Codec
	log   *slog.Logger
}

func New(db *badger.DB, codec Codec, log *slog.Logger) *Store {
	return &Store{db: db, codec: codec, log: log}
}

// Get returns the decoded record for a key, or false if the key is
// missing, expired, or its value cannot be decoded. Read failures are
// logged, never returned: callers only ever see present or absent.
func (s *Store) Get(key string) ([]byte, bool) {
	var stored []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		stored, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false
	}
	if err != nil {
		s.log.Warn("store read failed", "key", key, "err", err)
		return nil, false
	}
	value, err := s.codec.Decode(stored)
	if err != nil {
		s.log.Warn("store record undecodable, treating as absent", "key", key, "err", err)
		return nil, false
	}
	return value, true
}

// Set writes a record. A zero ttl means the record never expires.
func (s *Store) Set(key string, value []byte, ttl time.Duration) error {
	encoded, err := s.codec.Encode(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), encoded)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
}

// Delete removes a record. Deleting an absent key is a no-op.
func (s *Store) Delete(key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// ListByPrefix returns every decodable record under a key prefix, in
// unspecified order. Undecodable records are skipped.
func (s *Store) ListByPrefix(prefix string) ([][]byte, error) {
	var values [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Prefix = []byte(prefix)
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			stored, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			value, err := s.codec.Decode(stored)
			if err != nil {
				s.log.Warn("skipping undecodable record in prefix scan",
					"key", string(it.Item().Key()), "err", err)
				continue
			}
			values = append(values, value)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("prefix scan %s: %w", prefix, err)
	}
	return values, nil
}

// ReadIndex returns the ordered id list stored under an index key.
// Insertion order is chronological; an absent index reads as empty.
func (s *Store) ReadIndex(indexKey string) []string {
	value, ok := s.Get(indexKey)
	if !ok {
		return nil
	}
	var ids []string
	if err := json.Unmarshal(value, &ids); err != nil {
		s.log.Warn("index record corrupt, treating as empty", "key", indexKey, "err", err)
		return nil
	}
	return ids
}

// AppendToIndex appends an id to the end of an index list, creating
// the index if it does not exist yet.
func (s *Store) AppendToIndex(indexKey, id string) error {
	return s.writeIndex(indexKey, append(s.ReadIndex(indexKey), id))
}

// RemoveFromIndex removes an id from an index list, preserving the
// relative order of the remainder. Removing an absent id is a no-op.
func (s *Store) RemoveFromIndex(indexKey, id string) error {
	ids := s.ReadIndex(indexKey)
	remaining := lo.Without(ids, id)
	if len(remaining) == len(ids) {
		return nil
	}
	if len(remaining) == 0 {
		return s.Delete(indexKey)
	}
	return s.writeIndex(indexKey, remaining)
}

func (s *Store) writeIndex(indexKey string, ids []string) error {
	value, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return s.Set(indexKey, value, 0)
}

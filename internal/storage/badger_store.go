// internal/storage/badger_store.go
package storage

import (
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// ErrNotFound is returned by Get when no record exists under the key.
var ErrNotFound = fmt.Errorf("record not found")

// BadgerStore provides prefixed JSON record storage on top of BadgerDB.
// The content store keeps blob metadata here, keyed by content hash.
type BadgerStore struct {
	db     *badger.DB
	prefix string
}

func NewBadgerStore(db *badger.DB, prefix string) *BadgerStore {
	return &BadgerStore{
		db:     db,
		prefix: prefix,
	}
}

func (s *BadgerStore) makeKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", s.prefix, id))
}

// Put inserts or overwrites the record stored under id.
func (s *BadgerStore) Put(id string, value any) error {
	if id == "" {
		return fmt.Errorf("record ID cannot be empty")
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}

	key := s.makeKey(id)
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

func (s *BadgerStore) Get(id string, value any) error {
	key := s.makeKey(id)

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, value)
		})
	})

	if err == badger.ErrKeyNotFound {
		return ErrNotFound
	}
	return err
}

func (s *BadgerStore) Has(id string) (bool, error) {
	key := s.makeKey(id)

	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

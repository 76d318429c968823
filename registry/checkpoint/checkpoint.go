// Package checkpoint persists an executor run's global valuation and
// event sequence number to a bbolt file, so a long-running conformance
// test can resume after a crash instead of restarting from the initial
// state.
package checkpoint

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"
)

var bucketName = []byte("stl_checkpoint")

const (
	globalKey   = "global"
	sequenceKey = "sequence"
)

// Store wraps one open bbolt database file.
type Store struct {
	db *bbolt.DB
}

// Open opens (creating if absent) the checkpoint file at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("checkpoint: init bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying file handle.
func (s *Store) Close() error { return s.db.Close() }

// SaveGlobal persists a snapshot of the global valuation, stored as JSON
// (executor.Global has no exported field layout of its own to serialize
// directly, so the caller supplies an exported view).
func (s *Store) SaveGlobal(snapshot map[string]string) error {
	return s.put(globalKey, snapshot)
}

// LoadGlobal returns the last-saved global valuation snapshot, or
// (nil, nil) if none was ever saved.
func (s *Store) LoadGlobal() (map[string]string, error) {
	var snapshot map[string]string
	ok, err := s.get(globalKey, &snapshot)
	if err != nil || !ok {
		return nil, err
	}
	return snapshot, nil
}

// SaveSequence persists the executor's monotonic event sequence number.
func (s *Store) SaveSequence(n uint64) error {
	return s.put(sequenceKey, n)
}

// LoadSequence returns the last-saved sequence number, or 0 if none was
// ever saved.
func (s *Store) LoadSequence() (uint64, error) {
	var n uint64
	ok, err := s.get(sequenceKey, &n)
	if err != nil || !ok {
		return 0, err
	}
	return n, nil
}

func (s *Store) put(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("checkpoint: marshal %s: %w", key, err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), data)
	})
}

func (s *Store) get(key string, out interface{}) (bool, error) {
	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketName).Get([]byte(key))
		if v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("checkpoint: read %s: %w", key, err)
	}
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("checkpoint: unmarshal %s: %w", key, err)
	}
	return true, nil
}

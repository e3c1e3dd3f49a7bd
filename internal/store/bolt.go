// ABOUTME: BoltDB-backed Store persisting session state to a single file
// ABOUTME: The file is opened per operation so several cleanops processes can share it

package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	defaultBucket = "session"
	lockTimeout   = time.Second
)

// Bolt is a Store backed by a bbolt database file.
// bbolt locks the file while it is open, so each Get and Write opens the
// database, runs one transaction, and closes it again. A long-running TUI
// therefore never blocks other commands that use the same state file.
type Bolt struct {
	path   string
	bucket []byte

	mu     sync.Mutex
	closed bool
}

// OpenBolt prepares the database at path, creating it and its bucket if
// needed. The parent directory is created with owner-only permissions
// because the file holds bearer tokens.
func OpenBolt(path string) (*Bolt, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	s := &Bolt{path: path, bucket: []byte(defaultBucket)}
	err := s.update(func(*bolt.Bucket) error { return nil })
	if err != nil {
		return nil, fmt.Errorf("initialize state file: %w", err)
	}
	return s, nil
}

func (s *Bolt) open(readOnly bool) (*bolt.DB, error) {
	db, err := bolt.Open(s.path, 0o600, &bolt.Options{Timeout: lockTimeout, ReadOnly: readOnly})
	if err != nil {
		return nil, fmt.Errorf("open state file %s: %w", s.path, err)
	}
	return db, nil
}

func (s *Bolt) update(fn func(*bolt.Bucket) error) error {
	db, err := s.open(false)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Update(func(tx *bolt.Tx) error {
		bkt, err := tx.CreateBucketIfNotExists(s.bucket)
		if err != nil {
			return err
		}
		return fn(bkt)
	})
}

// Get returns the value for key or ErrNotFound
func (s *Bolt) Get(key string) ([]byte, error) {
	if s == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, bolt.ErrDatabaseNotOpen
	}

	db, err := s.open(true)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var out []byte
	err = db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(s.bucket)
		if bkt == nil {
			return ErrNotFound
		}
		v := bkt.Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		// bolt values are only valid for the life of the transaction
		out = append([]byte(nil), v...)
		return nil
	})
	return out, err
}

// Write applies the batch in a single read-write transaction
func (s *Bolt) Write(b Batch) error {
	if s == nil {
		return bolt.ErrDatabaseNotOpen
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return bolt.ErrDatabaseNotOpen
	}

	return s.update(func(bkt *bolt.Bucket) error {
		for k, v := range b.Set {
			if err := bkt.Put([]byte(k), v); err != nil {
				return fmt.Errorf("put %s: %w", k, err)
			}
		}
		for _, k := range b.Delete {
			if err := bkt.Delete([]byte(k)); err != nil {
				return fmt.Errorf("delete %s: %w", k, err)
			}
		}
		return nil
	})
}

// Close makes later operations fail with bolt.ErrDatabaseNotOpen.
// No file lock is held between operations, so there is nothing to release.
func (s *Bolt) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

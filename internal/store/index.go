// Package store keeps the repository's bbolt index: commit id to branch
// lookups and a few repository facts. Opening the index takes an exclusive
// file lock, so only one process can operate on a repository at a time.
package store

import (
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

// Buckets
var (
	BucketCommits = []byte("commits") // commit id -> branch name
	BucketMeta    = []byte("meta")    // repository facts
)

var (
	// ErrNotIndexed is returned by Lookup for an unknown commit id.
	ErrNotIndexed = errors.New("commit not indexed")
	// ErrLocked is returned by OpenIndex when another process holds the index.
	ErrLocked = errors.New("repository is locked by another process")
)

// LockTimeout bounds how long OpenIndex waits for the file lock.
const LockTimeout = time.Second

type Index struct{ db *bbolt.DB }

// OpenIndex opens or creates the index at path.
func OpenIndex(path string) (*Index, error) {
	db, err := bbolt.Open(path, 0644, &bbolt.Options{Timeout: LockTimeout})
	if err != nil {
		if errors.Is(err, bbolt.ErrTimeout) {
			return nil, fmt.Errorf("open index %s: %w", path, ErrLocked)
		}
		return nil, fmt.Errorf("open index %s: %w", path, err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{BucketCommits, BucketMeta} {
			if _, e := tx.CreateBucketIfNotExists(b); e != nil {
				return e
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create index buckets: %w", err)
	}
	return &Index{db: db}, nil
}

func (ix *Index) Close() error { return ix.db.Close() }

// Put records that commit id lives on branch.
func (ix *Index) Put(id, branch string) error {
	return ix.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(BucketCommits).Put([]byte(id), []byte(branch))
	})
}

// Lookup returns the branch holding commit id.
func (ix *Index) Lookup(id string) (string, error) {
	var branch string
	err := ix.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(BucketCommits).Get([]byte(id))
		if v == nil {
			return fmt.Errorf("%s: %w", id, ErrNotIndexed)
		}
		branch = string(v)
		return nil
	})
	return branch, err
}

// Rebuild replaces every commit mapping with entries.
func (ix *Index) Rebuild(entries map[string]string) error {
	return ix.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(BucketCommits); err != nil {
			return err
		}
		b, err := tx.CreateBucket(BucketCommits)
		if err != nil {
			return err
		}
		for id, branch := range entries {
			if err := b.Put([]byte(id), []byte(branch)); err != nil {
				return err
			}
		}
		return nil
	})
}

// PutMeta stores a repository fact.
func (ix *Index) PutMeta(key, value string) error {
	return ix.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(BucketMeta).Put([]byte(key), []byte(value))
	})
}

// GetMeta returns a repository fact, or "" when unset.
func (ix *Index) GetMeta(key string) (string, error) {
	var value string
	err := ix.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(BucketMeta).Get([]byte(key)); v != nil {
			value = string(v)
		}
		return nil
	})
	return value, err
}

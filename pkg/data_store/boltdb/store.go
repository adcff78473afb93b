package boltdb

import (
	"errors"

	"github.com/boltdb/bolt"
)

var ErrClosed = errors.New("database is closed")

// Store is a key/value view over a single bucket.
type Store struct {
	name string
	db   *DB
}

// Name returns the bucket name.
func (s *Store) Name() string {
	return s.name
}

func (s *Store) bucket(tx *bolt.Tx) *bolt.Bucket {
	return tx.Bucket([]byte(rootBucket)).Bucket([]byte(s.name))
}

func (s *Store) update(fn func(*bolt.Bucket) error) error {
	if s.db.db == nil {
		return ErrClosed
	}

	return s.db.db.Update(func(tx *bolt.Tx) error {
		return fn(s.bucket(tx))
	})
}

func (s *Store) view(fn func(*bolt.Bucket) error) error {
	if s.db.db == nil {
		return ErrClosed
	}

	return s.db.db.View(func(tx *bolt.Tx) error {
		return fn(s.bucket(tx))
	})
}

// Put stores the value at the provided key.
func (s *Store) Put(key string, value []byte) error {
	return s.update(func(bkt *bolt.Bucket) error {
		return bkt.Put([]byte(key), value)
	})
}

// Get returns a copy of the value stored at key, or nil if there is none.
func (s *Store) Get(key string) ([]byte, error) {
	var out []byte
	err := s.view(func(bkt *bolt.Bucket) error {
		val := bkt.Get([]byte(key))
		if val != nil {
			out = append([]byte{}, val...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (s *Store) Delete(key string) error {
	return s.update(func(bkt *bolt.Bucket) error {
		return bkt.Delete([]byte(key))
	})
}

// GetAndUpdate passes the current value of key to updateFunc and stores what it returns.
// A nil return leaves the key untouched. This allows you to transform data atomically.
func (s *Store) GetAndUpdate(key string, updateFunc func([]byte) ([]byte, error)) error {
	return s.update(func(bkt *bolt.Bucket) error {
		k := []byte(key)
		updateVal, err := updateFunc(bkt.Get(k))
		if err != nil {
			return err
		}

		if updateVal != nil {
			return bkt.Put(k, updateVal)
		}
		return nil
	})
}

// ForEach calls fn for every key in the bucket, in key order.
func (s *Store) ForEach(fn func(key string, value []byte) error) error {
	return s.view(func(bkt *bolt.Bucket) error {
		return bkt.ForEach(func(k, v []byte) error {
			return fn(string(k), v)
		})
	})
}

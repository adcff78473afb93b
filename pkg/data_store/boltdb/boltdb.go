package boltdb

import (
	"fmt"
	"time"

	"github.com/boltdb/bolt"
)

const rootBucket = "services"

// DB is a bolt database shared by every kv service that points at the same file.
type DB struct {
	path string
	db   *bolt.DB
}

// Open opens (or creates) the database at path.
func Open(path string) (*DB, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt database %s: %w", path, err)
	}

	return &DB{
		path: path,
		db:   db,
	}, nil
}

// Path returns the file the database was opened from.
func (d *DB) Path() string {
	return d.path
}

// Bucket makes sure the named bucket exists and returns a Store scoped to it.
func (d *DB) Bucket(name string) (*Store, error) {
	err := d.db.Update(func(tx *bolt.Tx) error {
		rootBkt, err := tx.CreateBucketIfNotExists([]byte(rootBucket))
		if err != nil {
			return err
		}

		_, err = rootBkt.CreateBucketIfNotExists([]byte(name))
		return err
	})
	if err != nil {
		return nil, err
	}

	return &Store{
		name: name,
		db:   d,
	}, nil
}

func (d *DB) Close() error {
	if d.db == nil {
		return nil
	}
	err := d.db.Close()
	d.db = nil

	return err
}

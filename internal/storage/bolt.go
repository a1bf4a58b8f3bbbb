package storage

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

var boltBucket = []byte("novadb")

// BoltEngine keeps every key in one bucket of a bbolt file.
type BoltEngine struct {
	db *bolt.DB
}

func NewBoltEngine(dir string) (*BoltEngine, error) {
	if err := os.MkdirAll(dir, FileMode0755); err != nil {
		return nil, errors.Wrapf(err, "os.MkdirAll failed. directory: %s", dir)
	}
	path := filepath.Join(dir, "novadb.bolt")
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "bolt.Open failed. path: %s", path)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create bucket failed")
	}
	return &BoltEngine{db: db}, nil
}

func (b *BoltEngine) Read(key string) ([]byte, error) {
	var out []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(boltBucket).Get([]byte(key))
		if data == nil {
			return ErrKeyNotFound
		}
		// bbolt reuses the memory after the transaction
		out = make([]byte, len(data))
		copy(out, data)
		return nil
	})
	return out, err
}

func (b *BoltEngine) Write(key string, data []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Put([]byte(key), data)
	})
}

func (b *BoltEngine) Delete(key string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Delete([]byte(key))
	})
}

func (b *BoltEngine) Keys() ([]string, error) {
	var keys []string
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	return keys, err
}

func (b *BoltEngine) Flush() error { return b.db.Sync() }

func (b *BoltEngine) Close() error { return b.db.Close() }

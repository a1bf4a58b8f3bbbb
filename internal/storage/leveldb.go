package storage

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

type LevelDBEngine struct {
	db *leveldb.DB
}

func NewLevelDBEngine(dir string) (*LevelDBEngine, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "leveldb.OpenFile failed. dir: %s", dir)
	}
	return &LevelDBEngine{db: db}, nil
}

func (l *LevelDBEngine) Read(key string) ([]byte, error) {
	data, err := l.db.Get([]byte(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrKeyNotFound
	}
	return data, err
}

func (l *LevelDBEngine) Write(key string, data []byte) error {
	return l.db.Put([]byte(key), data, &opt.WriteOptions{Sync: true})
}

func (l *LevelDBEngine) Delete(key string) error {
	return l.db.Delete([]byte(key), &opt.WriteOptions{Sync: true})
}

func (l *LevelDBEngine) Keys() ([]string, error) {
	it := l.db.NewIterator(nil, nil)
	defer it.Release()
	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	return keys, it.Error()
}

// Flush is a no-op: writes are synced.
func (l *LevelDBEngine) Flush() error { return nil }

func (l *LevelDBEngine) Close() error { return l.db.Close() }

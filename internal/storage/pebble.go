package storage

import (
	"slices"

	"github.com/cockroachdb/pebble"
	"github.com/pkg/errors"
)

type PebbleEngine struct {
	db *pebble.DB
}

func NewPebbleEngine(dir string) (*PebbleEngine, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrap(err, "pebble.Open failed")
	}
	return &PebbleEngine{db: db}, nil
}

func (p *PebbleEngine) Read(key string) ([]byte, error) {
	data, closer, err := p.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	// the slice is only valid until closer.Close
	return slices.Clone(data), nil
}

func (p *PebbleEngine) Write(key string, data []byte) error {
	return p.db.Set([]byte(key), data, pebble.Sync)
}

func (p *PebbleEngine) Delete(key string) error {
	return p.db.Delete([]byte(key), pebble.Sync)
}

func (p *PebbleEngine) Keys() ([]string, error) {
	it, err := p.db.NewIter(nil)
	if err != nil {
		return nil, errors.Wrap(err, "pebble.NewIter failed")
	}
	var keys []string
	for it.First(); it.Valid(); it.Next() {
		keys = append(keys, string(it.Key()))
	}
	if err := it.Close(); err != nil {
		return nil, err
	}
	return keys, nil
}

func (p *PebbleEngine) Flush() error { return p.db.Flush() }

func (p *PebbleEngine) Close() error { return p.db.Close() }

// Package storage persists the catalog and table rows through a pluggable
// key/value engine and codec.
package storage

import (
	"errors"
)

var (
	ErrKeyNotFound = errors.New("storage: key not found")
	ErrClosed      = errors.New("storage: engine closed")
)

// Engine is the byte-level key/value store under a Store.
type Engine interface {
	Read(key string) ([]byte, error)
	Write(key string, data []byte) error
	Delete(key string) error
	// Keys lists every stored key in ascending order.
	Keys() ([]string, error)
	Flush() error
	Close() error
}

// Options configures NewEngine.
type Options struct {
	Mode StorageMode
	// Dir is the work directory of the file, bolt, leveldb and pebble engines.
	Dir string
	// FileExt is appended to file names by the file engine.
	FileExt string

	RedisAddr   string
	RedisPrefix string
}

// NewEngine builds the engine selected by opts.Mode.
func NewEngine(opts Options) (Engine, error) {
	switch opts.Mode {
	case File:
		return NewFileEngine(opts.Dir, opts.FileExt)
	case Bolt:
		return NewBoltEngine(opts.Dir)
	case LevelDB:
		return NewLevelDBEngine(opts.Dir)
	case Pebble:
		return NewPebbleEngine(opts.Dir)
	case Redis:
		return NewRedisEngine(opts.RedisAddr, opts.RedisPrefix)
	case Memory:
		return NewMemoryEngine(), nil
	default:
		return nil, errors.New("storage: unsupported storage mode")
	}
}

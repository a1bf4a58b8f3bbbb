package storage

import (
	"fmt"
	"strings"
)

const (
	FileMode0644 = 0o644
	FileMode0755 = 0o755
)

type StorageMode int

const (
	File    StorageMode = iota + 1 // one file per key
	Bolt                           // go.etcd.io/bbolt
	LevelDB                        // github.com/syndtr/goleveldb
	Pebble                         // github.com/cockroachdb/pebble
	Redis                          // github.com/redis/go-redis
	Memory                         // process memory, nothing survives Close
)

func (s StorageMode) String() string {
	switch s {
	case File:
		return "file"
	case Bolt:
		return "bolt"
	case LevelDB:
		return "leveldb"
	case Pebble:
		return "pebble"
	case Redis:
		return "redis"
	case Memory:
		return "memory"
	default:
		return "unknown"
	}
}

// ParseMode maps a configuration name to a StorageMode.
func ParseMode(name string) (StorageMode, error) {
	for m := File; m <= Memory; m++ {
		if strings.EqualFold(name, m.String()) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("storage: unsupported storage mode %q", name)
}

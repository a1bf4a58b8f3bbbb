// Package cache keeps encoded SELECT results in a freecache arena so a
// repeated query skips parsing and scanning until the next write.
package cache

import (
	"strings"
	"time"

	"github.com/coocood/freecache"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/tuannm99/novadb/internal/sql/executor"
)

// freecache refuses arenas smaller than this.
const minSize = 512 * 1024

type ResultCache struct {
	cache *freecache.Cache
	ttl   time.Duration
}

// New allocates a cache of sizeBytes. A zero ttl keeps entries until they are
// evicted or the cache is invalidated.
func New(sizeBytes int, ttl time.Duration) *ResultCache {
	if sizeBytes < minSize {
		sizeBytes = minSize
	}
	return &ResultCache{cache: freecache.NewCache(sizeBytes), ttl: ttl}
}

type entry struct {
	Columns []string `msgpack:"c"`
	Rows    [][]any  `msgpack:"r"`
}

// Key normalises the statement text: surrounding blanks and a trailing
// semicolon do not change the query.
func Key(sql string) []byte {
	s := strings.TrimSpace(sql)
	s = strings.TrimSpace(strings.TrimSuffix(s, ";"))
	return []byte(s)
}

// Get returns a copy of the cached result of sql.
func (c *ResultCache) Get(sql string) (*executor.Result, bool) {
	data, err := c.cache.Get(Key(sql))
	if err != nil {
		return nil, false
	}
	var e entry
	if err := msgpack.Unmarshal(data, &e); err != nil {
		c.cache.Del(Key(sql))
		return nil, false
	}
	rows := e.Rows
	if rows == nil {
		rows = [][]any{}
	}
	return &executor.Result{Columns: e.Columns, Rows: rows, AffectedRows: int64(len(rows))}, true
}

// Put stores a query result. Results that are not row sets are ignored.
func (c *ResultCache) Put(sql string, res *executor.Result) error {
	if res == nil || !res.IsQuery() {
		return nil
	}
	data, err := msgpack.Marshal(entry{Columns: res.Columns, Rows: res.Rows})
	if err != nil {
		return errors.Wrap(err, "msgpack.Marshal failed")
	}
	if err := c.cache.Set(Key(sql), data, int(c.ttl.Seconds())); err != nil {
		return errors.Wrap(err, "freecache.Set failed")
	}
	return nil
}

// Invalidate drops every cached result.
func (c *ResultCache) Invalidate() { c.cache.Clear() }

func (c *ResultCache) Len() int64 { return c.cache.EntryCount() }

func (c *ResultCache) HitRate() float64 { return c.cache.HitRate() }

// Package index keeps in-memory hash indexes over a table's primary-key and
// unique columns. Indexes map a column value to the set of row ids holding
// it; they never own row data.
package index

import (
	"iter"
	"slices"

	"github.com/tuannm99/novadb/internal/record"
)

// HashIndex maps the values of one column to the rows that hold them.
// NULL is never indexed and a value with no rows has no bucket.
type HashIndex struct {
	Column string
	pos    int

	buckets map[record.Value]map[record.RowID]struct{}
}

// NewHashIndex creates an empty index over the column at position pos.
func NewHashIndex(column string, pos int) *HashIndex {
	return &HashIndex{
		Column:  column,
		pos:     pos,
		buckets: make(map[record.Value]map[record.RowID]struct{}),
	}
}

// Pos is the schema position of the indexed column.
func (h *HashIndex) Pos() int { return h.pos }

func (h *HashIndex) Add(v record.Value, id record.RowID) {
	if v.IsNull() {
		return
	}
	b, ok := h.buckets[v]
	if !ok {
		b = make(map[record.RowID]struct{}, 1)
		h.buckets[v] = b
	}
	b[id] = struct{}{}
}

func (h *HashIndex) Remove(v record.Value, id record.RowID) {
	if v.IsNull() {
		return
	}
	b, ok := h.buckets[v]
	if !ok {
		return
	}
	delete(b, id)
	if len(b) == 0 {
		delete(h.buckets, v)
	}
}

// Lookup returns the row ids holding v in ascending order, or an empty
// slice.
func (h *HashIndex) Lookup(v record.Value) []record.RowID {
	b := h.buckets[v]
	out := make([]record.RowID, 0, len(b))
	for id := range b {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Contains reports whether any row other than those in exclude holds v.
func (h *HashIndex) Contains(v record.Value, exclude map[record.RowID]struct{}) bool {
	for id := range h.buckets[v] {
		if _, skip := exclude[id]; !skip {
			return true
		}
	}
	return false
}

// Rebuild discards every entry and re-indexes rows.
func (h *HashIndex) Rebuild(rows iter.Seq2[record.RowID, record.Row]) {
	h.buckets = make(map[record.Value]map[record.RowID]struct{})
	for id, row := range rows {
		h.Add(row[h.pos], id)
	}
}

// Len is the number of distinct indexed values.
func (h *HashIndex) Len() int { return len(h.buckets) }

// Entries is the number of (value, row) pairs.
func (h *HashIndex) Entries() int {
	n := 0
	for _, b := range h.buckets {
		n += len(b)
	}
	return n
}

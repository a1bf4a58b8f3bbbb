// Package heap is the in-memory row store. A Table owns its schema, an
// arena of row slots and the hash indexes over its key columns.
package heap

import (
	"iter"

	"github.com/tuannm99/novadb/internal/constraint"
	"github.com/tuannm99/novadb/internal/dberr"
	"github.com/tuannm99/novadb/internal/index"
	"github.com/tuannm99/novadb/internal/record"
)

// compaction kicks in once tombstones outnumber live rows and reach this
// many slots.
const minCompactTombstones = 32

// Table represent for heap logic: name, schema, row arena, indexes.
//
// Rows live in slots; a deleted slot is a nil tombstone so the RowIDs of
// surviving rows stay valid until the next compaction. Scan order is
// insertion order.
type Table struct {
	Name   string
	Schema record.Schema

	slots []record.Row
	live  int

	indexes   *index.Manager
	validator *constraint.Validator
}

// NewTable validates schema and returns an empty table with one hash index
// per primary-key and unique column.
func NewTable(name string, schema record.Schema) (*Table, error) {
	if err := schema.Validate(); err != nil {
		return nil, dberr.Parse(name, 0, "%v", err)
	}
	idx := index.NewManager(schema)
	return &Table{
		Name:      name,
		Schema:    schema,
		indexes:   idx,
		validator: constraint.New(name, schema, idx),
	}, nil
}

// CoerceRow turns literals into a row of the declared column types.
// Missing trailing values are NULL; surplus values are a type mismatch.
func (t *Table) CoerceRow(vals []record.Value, texts []string) (record.Row, error) {
	n := t.Schema.NumCols()
	if len(vals) > n {
		return nil, dberr.TypeMismatch("", "", "table %s has %d columns, got %d values", t.Name, n, len(vals))
	}
	row := make(record.Row, n)
	for i := range vals {
		text := ""
		if i < len(texts) {
			text = texts[i]
		}
		v, err := record.Coerce(t.Schema.Cols[i], vals[i], text)
		if err != nil {
			return nil, err
		}
		row[i] = v
	}
	return row, nil
}

// Insert validates row against the live rows and appends it.
func (t *Table) Insert(row record.Row) (record.RowID, error) {
	if err := t.validator.CheckInsert(row); err != nil {
		return -1, err
	}
	id := record.RowID(len(t.slots))
	t.slots = append(t.slots, row)
	t.live++
	t.indexes.OnInsert(id, row)
	return id, nil
}

// Get reads a single live row by id.
func (t *Table) Get(id record.RowID) (record.Row, bool) {
	if id < 0 || int(id) >= len(t.slots) || t.slots[id] == nil {
		return nil, false
	}
	return t.slots[id], true
}

// Scan iterates through all live rows in insertion order. The row passed
// to fn must not be modified.
func (t *Table) Scan(fn func(id record.RowID, row record.Row) error) error {
	for i, r := range t.slots {
		if r == nil {
			continue
		}
		if err := fn(record.RowID(i), r); err != nil {
			return err
		}
	}
	return nil
}

// All is Scan as an iterator.
func (t *Table) All() iter.Seq2[record.RowID, record.Row] {
	return func(yield func(record.RowID, record.Row) bool) {
		for i, r := range t.slots {
			if r == nil {
				continue
			}
			if !yield(record.RowID(i), r) {
				return
			}
		}
	}
}

// Lookup returns the ids of rows whose indexed column equals v. ok is
// false when the column has no index.
func (t *Table) Lookup(column string, v record.Value) (ids []record.RowID, ok bool) {
	h, ok := t.indexes.Get(column)
	if !ok {
		return nil, false
	}
	return h.Lookup(v), true
}

// Update replaces every candidate row at once. The whole batch is
// validated against the post-update state first; on error nothing changes.
func (t *Table) Update(cands []constraint.Candidate) error {
	for _, c := range cands {
		if _, ok := t.Get(c.ID); !ok {
			return dberr.StorageFormat(t.Name, "update of missing row %d", c.ID)
		}
	}
	if err := t.validator.CheckBatch(cands); err != nil {
		return err
	}
	for _, c := range cands {
		old := t.slots[c.ID]
		t.slots[c.ID] = c.Row
		t.indexes.OnUpdate(c.ID, old, c.Row)
	}
	return nil
}

// Delete tombstones the given rows and drops their index entries. It
// returns how many live rows were removed. RowIDs are invalid afterwards.
func (t *Table) Delete(ids []record.RowID) int {
	n := 0
	for _, id := range ids {
		row, ok := t.Get(id)
		if !ok {
			continue
		}
		t.indexes.OnDelete(id, row)
		t.slots[id] = nil
		t.live--
		n++
	}
	if dead := len(t.slots) - t.live; dead >= minCompactTombstones && dead > t.live {
		t.compact()
	}
	return n
}

// Rows returns the live rows in insertion order.
func (t *Table) Rows() []record.Row {
	out := make([]record.Row, 0, t.live)
	for _, r := range t.slots {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

// Load replaces the table content with rows, checking constraints as if
// each row were inserted in order.
func (t *Table) Load(rows []record.Row) error {
	t.slots = nil
	t.live = 0
	t.indexes.RebuildAll(t.All())
	for _, r := range rows {
		if len(r) != t.Schema.NumCols() {
			return dberr.StorageFormat(t.Name, "row has %d values, schema has %d columns", len(r), t.Schema.NumCols())
		}
		if _, err := t.Insert(r); err != nil {
			return err
		}
	}
	return nil
}

// Len is the number of live rows.
func (t *Table) Len() int { return t.live }

func (t *Table) Indexes() *index.Manager { return t.indexes }

func (t *Table) compact() {
	t.slots = t.Rows()
	t.indexes.RebuildAll(t.All())
}

package index

import (
	"errors"
	"iter"

	"github.com/tuannm99/novadb/internal/record"
)

var (
	ErrIndexExists    = errors.New("novadb: index already exists")
	ErrIndexBadColumn = errors.New("novadb: index key column not found")
)

// Manager owns the hash indexes of one table, one per indexed column.
type Manager struct {
	schema  record.Schema
	indexes map[string]*HashIndex
	// declaration order, so maintenance and checks are deterministic
	order []*HashIndex
}

// NewManager creates an empty index for every primary-key and unique column
// of schema.
func NewManager(schema record.Schema) *Manager {
	m := &Manager{
		schema:  schema,
		indexes: make(map[string]*HashIndex),
	}
	for _, pos := range schema.IndexedCols() {
		_, _ = m.Create(schema.Cols[pos].Name)
	}
	return m
}

// Create adds an empty index over column.
func (m *Manager) Create(column string) (*HashIndex, error) {
	if _, ok := m.indexes[column]; ok {
		return nil, ErrIndexExists
	}
	pos := m.schema.ColIndex(column)
	if pos < 0 {
		return nil, ErrIndexBadColumn
	}
	h := NewHashIndex(column, pos)
	m.indexes[column] = h
	m.order = append(m.order, h)
	return h, nil
}

func (m *Manager) Get(column string) (*HashIndex, bool) {
	h, ok := m.indexes[column]
	return h, ok
}

func (m *Manager) Has(column string) bool {
	_, ok := m.indexes[column]
	return ok
}

// All returns the indexes in column declaration order.
func (m *Manager) All() []*HashIndex { return m.order }

func (m *Manager) OnInsert(id record.RowID, row record.Row) {
	for _, h := range m.order {
		h.Add(row[h.pos], id)
	}
}

// OnUpdate moves id between buckets for every indexed column whose value
// changed.
func (m *Manager) OnUpdate(id record.RowID, old, updated record.Row) {
	for _, h := range m.order {
		if old[h.pos] == updated[h.pos] {
			continue
		}
		h.Remove(old[h.pos], id)
		h.Add(updated[h.pos], id)
	}
}

func (m *Manager) OnDelete(id record.RowID, row record.Row) {
	for _, h := range m.order {
		h.Remove(row[h.pos], id)
	}
}

func (m *Manager) RebuildAll(rows iter.Seq2[record.RowID, record.Row]) {
	for _, h := range m.order {
		h.Rebuild(rows)
	}
}

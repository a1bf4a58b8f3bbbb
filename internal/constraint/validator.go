// Package constraint accepts or rejects candidate rows against the current
// state of a table: primary key non-null, primary key unique, unique
// columns unique. NULL never collides in a UNIQUE column.
package constraint

import (
	"github.com/tuannm99/novadb/internal/dberr"
	"github.com/tuannm99/novadb/internal/index"
	"github.com/tuannm99/novadb/internal/record"
)

// Candidate is a row about to be written. ID is the slot it replaces, or a
// negative id for a fresh insert.
type Candidate struct {
	ID  record.RowID
	Row record.Row
}

type Validator struct {
	table   string
	schema  record.Schema
	indexes *index.Manager
}

func New(table string, schema record.Schema, indexes *index.Manager) *Validator {
	return &Validator{table: table, schema: schema, indexes: indexes}
}

// CheckInsert validates one new row against every live row.
func (v *Validator) CheckInsert(row record.Row) error {
	return v.CheckBatch([]Candidate{{ID: -1, Row: row}})
}

// CheckBatch validates candidates as if all of them were written at once.
// Rows being replaced are excluded from the collision check, and
// candidates must not collide with each other.
func (v *Validator) CheckBatch(cands []Candidate) error {
	exclude := make(map[record.RowID]struct{}, len(cands))
	for _, c := range cands {
		if c.ID >= 0 {
			exclude[c.ID] = struct{}{}
		}
	}

	pk := v.schema.PrimaryKey()
	indexed := v.indexes.All()
	seen := make([]map[record.Value]struct{}, len(indexed))
	for i := range seen {
		seen[i] = make(map[record.Value]struct{}, len(cands))
	}

	for _, c := range cands {
		if pk >= 0 && c.Row[pk].IsNull() {
			return dberr.PrimaryKeyNull(v.table, v.schema.Cols[pk].Name)
		}
		// primary key first so its violation wins over a unique one
		for pass := 0; pass < 2; pass++ {
			for i, h := range indexed {
				isPK := h.Pos() == pk
				if (pass == 0) != isPK {
					continue
				}
				val := c.Row[h.Pos()]
				if val.IsNull() {
					continue
				}
				_, dup := seen[i][val]
				if dup || h.Contains(val, exclude) {
					if isPK {
						return dberr.PrimaryKeyViolation(v.table, h.Column, val.String())
					}
					return dberr.UniqueViolation(v.table, h.Column, val.String())
				}
				seen[i][val] = struct{}{}
			}
		}
	}
	return nil
}

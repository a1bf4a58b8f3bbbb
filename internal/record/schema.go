package record

import (
	"fmt"
	"strings"
)

type ColumnType uint8

const (
	ColInt64   ColumnType = iota + 1 // INTEGER
	ColFloat64                       // FLOATING-POINT
	ColText                          // VARIABLE-LENGTH-STRING, UTF-8
	ColBool                          // BOOLEAN
)

func (t ColumnType) String() string {
	switch t {
	case ColInt64:
		return "INTEGER"
	case ColFloat64:
		return "FLOAT"
	case ColText:
		return "VARCHAR"
	case ColBool:
		return "BOOLEAN"
	default:
		return fmt.Sprintf("ColumnType(%d)", uint8(t))
	}
}

// ParseColumnType maps a SQL type keyword to a ColumnType.
func ParseColumnType(name string) (ColumnType, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "INT", "INTEGER", "BIGINT", "SMALLINT":
		return ColInt64, nil
	case "FLOAT", "REAL", "DOUBLE", "DECIMAL", "NUMERIC":
		return ColFloat64, nil
	case "VARCHAR", "CHAR", "TEXT", "STRING":
		return ColText, nil
	case "BOOL", "BOOLEAN":
		return ColBool, nil
	default:
		return 0, fmt.Errorf("unsupported column type: %s", name)
	}
}

type Column struct {
	Name       string
	Type       ColumnType
	PrimaryKey bool
	Unique     bool
}

// Indexed reports whether the column carries a hash index.
func (c Column) Indexed() bool { return c.PrimaryKey || c.Unique }

type Schema struct {
	Cols []Column
}

func (s Schema) NumCols() int { return len(s.Cols) }

// ColIndex returns the position of the named column, or -1.
func (s Schema) ColIndex(name string) int {
	for i := range s.Cols {
		if s.Cols[i].Name == name {
			return i
		}
	}
	return -1
}

// PrimaryKey returns the position of the primary-key column, or -1.
func (s Schema) PrimaryKey() int {
	for i := range s.Cols {
		if s.Cols[i].PrimaryKey {
			return i
		}
	}
	return -1
}

// IndexedCols returns the positions of primary-key and unique columns in
// declaration order.
func (s Schema) IndexedCols() []int {
	var out []int
	for i := range s.Cols {
		if s.Cols[i].Indexed() {
			out = append(out, i)
		}
	}
	return out
}

func (s Schema) Names() []string {
	out := make([]string, len(s.Cols))
	for i := range s.Cols {
		out[i] = s.Cols[i].Name
	}
	return out
}

// Validate checks the structural rules of a schema: at least one column,
// unique names and at most one primary key.
func (s Schema) Validate() error {
	if len(s.Cols) == 0 {
		return fmt.Errorf("schema has no columns")
	}
	seen := make(map[string]struct{}, len(s.Cols))
	pk := 0
	for _, c := range s.Cols {
		if c.Name == "" {
			return fmt.Errorf("column with empty name")
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("duplicate column %q", c.Name)
		}
		seen[c.Name] = struct{}{}
		if c.PrimaryKey {
			pk++
		}
		if c.Type < ColInt64 || c.Type > ColBool {
			return fmt.Errorf("column %q has invalid type %d", c.Name, c.Type)
		}
	}
	if pk > 1 {
		return fmt.Errorf("schema declares %d primary keys", pk)
	}
	return nil
}

// TableDef is a named schema, the unit stored in the catalog.
type TableDef struct {
	Name   string
	Schema Schema
}

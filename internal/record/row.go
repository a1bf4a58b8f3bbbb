package record

// RowID is a slot number in a table's row arena.
type RowID int

// Row holds one Value per schema column, in schema order.
type Row []Value

func (r Row) Clone() Row {
	cp := make(Row, len(r))
	copy(cp, r)
	return cp
}

func (r Row) Equal(o Row) bool {
	if len(r) != len(o) {
		return false
	}
	for i := range r {
		if r[i] != o[i] {
			return false
		}
	}
	return true
}

// Map returns the name -> plain value view of the row.
func (r Row) Map(s Schema) map[string]any {
	m := make(map[string]any, len(s.Cols))
	for i, c := range s.Cols {
		if i < len(r) {
			m[c.Name] = r[i].Any()
		}
	}
	return m
}

// Anys converts the row to plain Go values.
func (r Row) Anys() []any {
	out := make([]any, len(r))
	for i := range r {
		out[i] = r[i].Any()
	}
	return out
}

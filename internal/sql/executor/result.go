package executor

// Result is the generic query result returned to the caller.
type Result struct {
	Columns []string `json:"columns,omitempty"`
	Rows    [][]any  `json:"rows,omitempty"`

	// For DML; for SELECT it is the number of rows returned.
	AffectedRows int64 `json:"affected_rows"`
}

// IsQuery reports whether the result carries a row set (SELECT) rather
// than only an affected-row count.
func (r *Result) IsQuery() bool { return r != nil && r.Columns != nil }

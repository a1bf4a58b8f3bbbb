package executor

import (
	"github.com/tuannm99/novadb/internal/dberr"
	"github.com/tuannm99/novadb/internal/record"
	"github.com/tuannm99/novadb/internal/sql/parser"
)

// binding is one table visible to column references.
type binding struct {
	ref    parser.TableRef
	schema record.Schema
}

// scope resolves column references against the base table and, for a
// join, the joined table. Unqualified names try the base table first.
type scope []binding

// colAddr locates a column inside a combined row: tables[slot][pos].
type colAddr struct {
	slot int
	pos  int
	col  record.Column
}

func (s scope) resolve(ref parser.ColumnRef) (colAddr, error) {
	for slot, b := range s {
		if ref.Qualifier != "" && ref.Qualifier != b.ref.Qualifier() && ref.Qualifier != b.ref.Name {
			continue
		}
		if pos := b.schema.ColIndex(ref.Name); pos >= 0 {
			return colAddr{slot: slot, pos: pos, col: b.schema.Cols[pos]}, nil
		}
		if ref.Qualifier != "" {
			return colAddr{}, dberr.ColumnNotFound(b.ref.Name, ref.Name)
		}
	}
	table := ""
	if len(s) > 0 {
		table = s[0].ref.Name
	}
	return colAddr{}, dberr.ColumnNotFound(table, ref.String())
}

// predicate evaluates a WHERE clause over one combined row.
type predicate func(rows []record.Row) bool

func matchAll([]record.Row) bool { return true }

// compile resolves every column and coerces every literal up front, so
// name and type errors surface even when no row is scanned.
func (s scope) compile(e parser.Expr) (predicate, error) {
	switch x := e.(type) {
	case nil:
		return matchAll, nil

	case *parser.Comparison:
		return s.compileComparison(x)

	case *parser.Logical:
		l, err := s.compile(x.Left)
		if err != nil {
			return nil, err
		}
		r, err := s.compile(x.Right)
		if err != nil {
			return nil, err
		}
		if x.Op == parser.Or {
			return func(rows []record.Row) bool { return l(rows) || r(rows) }, nil
		}
		return func(rows []record.Row) bool { return l(rows) && r(rows) }, nil

	default:
		return nil, dberr.Parse("", 0, "unsupported expression %T", e)
	}
}

func (s scope) compileComparison(c *parser.Comparison) (predicate, error) {
	addr, err := s.resolve(c.Column)
	if err != nil {
		return nil, err
	}

	lit := c.Value.Value
	if lit.IsNull() {
		// comparisons with NULL are never true
		return func([]record.Row) bool { return false }, nil
	}

	_, litNumeric := lit.Numeric()
	colNumeric := addr.col.Type == record.ColInt64 || addr.col.Type == record.ColFloat64
	if !(colNumeric && litNumeric) {
		if lit, err = record.Coerce(addr.col, lit, c.Value.Text); err != nil {
			return nil, err
		}
	}

	op := c.Op
	return func(rows []record.Row) bool {
		v := rows[addr.slot][addr.pos]
		cmp, ok := record.Compare(v, lit)
		if !ok {
			return false
		}
		return applyOp(op, cmp)
	}, nil
}

func applyOp(op parser.CompareOp, cmp int) bool {
	switch op {
	case parser.OpEq:
		return cmp == 0
	case parser.OpNe:
		return cmp != 0
	case parser.OpLt:
		return cmp < 0
	case parser.OpLe:
		return cmp <= 0
	case parser.OpGt:
		return cmp > 0
	case parser.OpGe:
		return cmp >= 0
	default:
		return false
	}
}

// equal is the join equality: NULL never equals anything.
func equal(a, b record.Value) bool {
	cmp, ok := record.Compare(a, b)
	return ok && cmp == 0
}

package planner

import (
	"fmt"

	"github.com/tuannm99/novadb/internal/dberr"
	"github.com/tuannm99/novadb/internal/heap"
	"github.com/tuannm99/novadb/internal/record"
	"github.com/tuannm99/novadb/internal/sql/parser"
)

// Catalog resolves table names to live tables.
type Catalog interface {
	Table(name string) (*heap.Table, bool)
}

// BuildPlan builds a physical plan from an AST Statement.
func BuildPlan(stmt parser.Statement, cat Catalog) (Plan, error) {
	switch s := stmt.(type) {
	case *parser.CreateTableStmt:
		return buildCreateTablePlan(s)
	case *parser.InsertStmt:
		return buildInsertPlan(s, cat)
	case *parser.SelectStmt:
		return buildSelectPlan(s, cat)
	case *parser.UpdateStmt:
		return buildUpdatePlan(s, cat)
	case *parser.DeleteStmt:
		return buildDeletePlan(s, cat)
	default:
		return nil, fmt.Errorf("planner: unsupported statement type %T", stmt)
	}
}

func buildCreateTablePlan(s *parser.CreateTableStmt) (Plan, error) {
	return &CreateTablePlan{
		TableName:   s.TableName,
		IfNotExists: s.IfNotExists,
		Schema:      s.Schema(),
	}, nil
}

func buildInsertPlan(s *parser.InsertStmt, cat Catalog) (Plan, error) {
	tbl, err := lookup(cat, s.TableName)
	if err != nil {
		return nil, err
	}
	return &InsertPlan{Table: tbl, Values: s.Values}, nil
}

func buildSelectPlan(s *parser.SelectStmt, cat Catalog) (Plan, error) {
	tbl, err := lookup(cat, s.From.Name)
	if err != nil {
		return nil, err
	}
	p := &SelectPlan{
		Table:   tbl,
		Ref:     s.From,
		Columns: s.Columns,
		Where:   s.Where,
	}
	if s.Join != nil {
		inner, err := lookup(cat, s.Join.Table.Name)
		if err != nil {
			return nil, err
		}
		p.Join = &JoinPlan{
			Table: inner,
			Ref:   s.Join.Table,
			Left:  s.Join.Left,
			Right: s.Join.Right,
		}
	}
	p.Access = chooseAccess(tbl, s.From.Qualifier(), s.Where)
	return p, nil
}

func buildUpdatePlan(s *parser.UpdateStmt, cat Catalog) (Plan, error) {
	tbl, err := lookup(cat, s.TableName)
	if err != nil {
		return nil, err
	}
	return &UpdatePlan{
		Table:       tbl,
		Access:      chooseAccess(tbl, s.TableName, s.Where),
		Assignments: s.Assignments,
		Where:       s.Where,
	}, nil
}

func buildDeletePlan(s *parser.DeleteStmt, cat Catalog) (Plan, error) {
	tbl, err := lookup(cat, s.TableName)
	if err != nil {
		return nil, err
	}
	return &DeletePlan{
		Table:  tbl,
		Access: chooseAccess(tbl, s.TableName, s.Where),
		Where:  s.Where,
	}, nil
}

func lookup(cat Catalog, name string) (*heap.Table, error) {
	if cat == nil {
		return nil, dberr.TableNotFound(name)
	}
	tbl, ok := cat.Table(name)
	if !ok {
		return nil, dberr.TableNotFound(name)
	}
	return tbl, nil
}

// chooseAccess picks an index lookup when the WHERE clause, or one of its
// top-level AND conjuncts, is an equality between an indexed column of tbl
// and a literal of the column's type.
func chooseAccess(tbl *heap.Table, qualifier string, where parser.Expr) Access {
	for _, c := range conjuncts(where) {
		if c.Op != parser.OpEq || c.Value.Value.IsNull() {
			continue
		}
		if c.Column.Qualifier != "" && c.Column.Qualifier != qualifier {
			continue
		}
		pos := tbl.Schema.ColIndex(c.Column.Name)
		if pos < 0 || !tbl.Indexes().Has(c.Column.Name) {
			continue
		}
		key, err := record.Coerce(tbl.Schema.Cols[pos], c.Value.Value, c.Value.Text)
		if err != nil {
			continue
		}
		return Access{Kind: IndexLookup, Column: c.Column.Name, Key: key}
	}
	return Access{Kind: SeqScan}
}

func conjuncts(e parser.Expr) []*parser.Comparison {
	switch x := e.(type) {
	case *parser.Comparison:
		return []*parser.Comparison{x}
	case *parser.Logical:
		if x.Op != parser.And {
			return nil
		}
		return append(conjuncts(x.Left), conjuncts(x.Right)...)
	default:
		return nil
	}
}

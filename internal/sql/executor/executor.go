package executor

import (
	"fmt"
	"log/slog"

	"github.com/tuannm99/novadb/internal/constraint"
	"github.com/tuannm99/novadb/internal/dberr"
	"github.com/tuannm99/novadb/internal/heap"
	"github.com/tuannm99/novadb/internal/record"
	"github.com/tuannm99/novadb/internal/sql/parser"
	"github.com/tuannm99/novadb/internal/sql/planner"
)

// Registry is the table registry the executor runs against.
type Registry interface {
	planner.Catalog
	// CreateTable registers a new empty table. It fails with
	// TableExistsError when the name is taken.
	CreateTable(name string, schema record.Schema) (*heap.Table, error)
}

// Executor executes a plan against a Registry.
type Executor struct {
	DB  Registry
	Log *slog.Logger
}

func NewExecutor(db Registry) *Executor {
	return &Executor{DB: db, Log: slog.Default()}
}

// ExecSQL is the top-level entry: SQL string -> Result.
func (e *Executor) ExecSQL(sql string) (*Result, error) {
	stmt, err := parser.Parse(sql)
	if err != nil {
		return nil, err
	}
	return e.ExecStatement(stmt)
}

func (e *Executor) ExecStatement(stmt parser.Statement) (*Result, error) {
	plan, err := planner.BuildPlan(stmt, e.DB)
	if err != nil {
		return nil, err
	}
	return e.ExecPlan(plan)
}

func (e *Executor) ExecPlan(p planner.Plan) (*Result, error) {
	switch plan := p.(type) {
	case *planner.CreateTablePlan:
		return e.execCreateTable(plan)
	case *planner.InsertPlan:
		return e.execInsert(plan)
	case *planner.SelectPlan:
		return e.execSelect(plan)
	case *planner.UpdatePlan:
		return e.execUpdate(plan)
	case *planner.DeletePlan:
		return e.execDelete(plan)
	default:
		return nil, fmt.Errorf("executor: unsupported plan type %T", p)
	}
}

func (e *Executor) execCreateTable(p *planner.CreateTablePlan) (*Result, error) {
	if _, ok := e.DB.Table(p.TableName); ok {
		if p.IfNotExists {
			return &Result{AffectedRows: 0}, nil
		}
		return nil, dberr.TableExists(p.TableName)
	}
	if _, err := e.DB.CreateTable(p.TableName, p.Schema); err != nil {
		return nil, err
	}
	return &Result{AffectedRows: 0}, nil
}

func (e *Executor) execInsert(p *planner.InsertPlan) (*Result, error) {
	vals := make([]record.Value, len(p.Values))
	texts := make([]string, len(p.Values))
	for i, lit := range p.Values {
		vals[i] = lit.Value
		texts[i] = lit.Text
	}

	row, err := p.Table.CoerceRow(vals, texts)
	if err != nil {
		return nil, err
	}
	if _, err := p.Table.Insert(row); err != nil {
		return nil, err
	}
	return &Result{AffectedRows: 1}, nil
}

func (e *Executor) execUpdate(p *planner.UpdatePlan) (*Result, error) {
	tbl := p.Table

	type setter struct {
		pos int
		val record.Value
	}
	sets := make([]setter, 0, len(p.Assignments))
	for _, a := range p.Assignments {
		pos := tbl.Schema.ColIndex(a.Column)
		if pos < 0 {
			return nil, dberr.ColumnNotFound(tbl.Name, a.Column)
		}
		v, err := record.Coerce(tbl.Schema.Cols[pos], a.Value.Value, a.Value.Text)
		if err != nil {
			return nil, err
		}
		sets = append(sets, setter{pos: pos, val: v})
	}

	ids, rows, err := e.matchRows(tbl, parser.TableRef{Name: tbl.Name}, p.Access, p.Where)
	if err != nil {
		return nil, err
	}

	cands := make([]constraint.Candidate, len(ids))
	for i, id := range ids {
		nr := rows[i].Clone()
		for _, s := range sets {
			nr[s.pos] = s.val
		}
		cands[i] = constraint.Candidate{ID: id, Row: nr}
	}
	if err := tbl.Update(cands); err != nil {
		return nil, err
	}
	return &Result{AffectedRows: int64(len(cands))}, nil
}

func (e *Executor) execDelete(p *planner.DeletePlan) (*Result, error) {
	ids, _, err := e.matchRows(p.Table, parser.TableRef{Name: p.Table.Name}, p.Access, p.Where)
	if err != nil {
		return nil, err
	}
	n := p.Table.Delete(ids)
	return &Result{AffectedRows: int64(n)}, nil
}

// matchRows returns the live rows of a single table satisfying where, in
// scan order.
func (e *Executor) matchRows(
	tbl *heap.Table,
	ref parser.TableRef,
	access planner.Access,
	where parser.Expr,
) ([]record.RowID, []record.Row, error) {
	pred, err := scope{{ref: ref, schema: tbl.Schema}}.compile(where)
	if err != nil {
		return nil, nil, err
	}

	var (
		ids  []record.RowID
		rows []record.Row
	)
	err = e.candidates(tbl, access, func(id record.RowID, row record.Row) error {
		if pred([]record.Row{row}) {
			ids = append(ids, id)
			rows = append(rows, row)
		}
		return nil
	})
	return ids, rows, err
}

// candidates feeds fn the rows reachable through the access path. An index
// lookup only narrows the set; callers still apply the full predicate.
func (e *Executor) candidates(tbl *heap.Table, access planner.Access, fn func(record.RowID, record.Row) error) error {
	if access.Kind != planner.IndexLookup {
		return tbl.Scan(fn)
	}
	ids, ok := tbl.Lookup(access.Column, access.Key)
	if !ok {
		// index vanished between planning and execution: fall back
		e.Log.Warn("executor: index missing, scanning", "table", tbl.Name, "col", access.Column)
		return tbl.Scan(fn)
	}
	e.Log.Debug("executor: index lookup", "table", tbl.Name, "col", access.Column, "hits", len(ids))
	for _, id := range ids {
		row, ok := tbl.Get(id)
		if !ok {
			continue
		}
		if err := fn(id, row); err != nil {
			return err
		}
	}
	return nil
}

package executor

import (
	"github.com/tuannm99/novadb/internal/record"
	"github.com/tuannm99/novadb/internal/sql/parser"
	"github.com/tuannm99/novadb/internal/sql/planner"
)

func (e *Executor) execSelect(p *planner.SelectPlan) (*Result, error) {
	sc := scope{{ref: p.Ref, schema: p.Table.Schema}}
	if p.Join != nil {
		sc = append(sc, binding{ref: p.Join.Ref, schema: p.Join.Table.Schema})
	}

	cols, names, err := projection(sc, p.Columns)
	if err != nil {
		return nil, err
	}
	pred, err := sc.compile(p.Where)
	if err != nil {
		return nil, err
	}

	res := &Result{Columns: names, Rows: [][]any{}}
	emit := func(combined []record.Row) {
		if !pred(combined) {
			return
		}
		out := make([]any, len(cols))
		for i, c := range cols {
			out[i] = combined[c.slot][c.pos].Any()
		}
		res.Rows = append(res.Rows, out)
	}

	if p.Join == nil {
		err = e.candidates(p.Table, p.Access, func(_ record.RowID, row record.Row) error {
			emit([]record.Row{row})
			return nil
		})
	} else {
		err = e.nestedLoopJoin(p, sc, emit)
	}
	if err != nil {
		return nil, err
	}

	res.AffectedRows = int64(len(res.Rows))
	return res, nil
}

// projection resolves the select list. An empty list is *: every column of
// the base table, then of the joined table qualified as q.col.
func projection(sc scope, refs []parser.ColumnRef) ([]colAddr, []string, error) {
	if len(refs) == 0 {
		var (
			cols  []colAddr
			names = []string{}
		)
		for slot, b := range sc {
			for pos, c := range b.schema.Cols {
				cols = append(cols, colAddr{slot: slot, pos: pos, col: c})
				if len(sc) > 1 {
					names = append(names, b.ref.Qualifier()+"."+c.Name)
				} else {
					names = append(names, c.Name)
				}
			}
		}
		return cols, names, nil
	}

	cols := make([]colAddr, len(refs))
	names := make([]string, len(refs))
	for i, ref := range refs {
		addr, err := sc.resolve(ref)
		if err != nil {
			return nil, nil, err
		}
		cols[i] = addr
		names[i] = ref.String()
	}
	return cols, names, nil
}

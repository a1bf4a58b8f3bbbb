package executor

import (
	"github.com/tuannm99/novadb/internal/record"
	"github.com/tuannm99/novadb/internal/sql/planner"
)

// nestedLoopJoin pairs every candidate base row with every joined row for
// which the ON equality holds. When the joined side of the ON clause is an
// indexed column of the same type as the base side, the inner loop is an
// index lookup instead of a scan; both yield the same rows in the same
// order.
func (e *Executor) nestedLoopJoin(p *planner.SelectPlan, sc scope, emit func([]record.Row)) error {
	left, err := sc.resolve(p.Join.Left)
	if err != nil {
		return err
	}
	right, err := sc.resolve(p.Join.Right)
	if err != nil {
		return err
	}

	inner := p.Join.Table
	outerCol, innerCol := left, right
	if outerCol.slot == 1 && innerCol.slot == 0 {
		outerCol, innerCol = innerCol, outerCol
	}
	useIndex := outerCol.slot == 0 && innerCol.slot == 1 &&
		outerCol.col.Type == innerCol.col.Type &&
		inner.Indexes().Has(innerCol.col.Name)

	return e.candidates(p.Table, p.Access, func(_ record.RowID, outer record.Row) error {
		combined := []record.Row{outer, nil}

		if useIndex {
			key := outer[outerCol.pos]
			if key.IsNull() {
				return nil
			}
			ids, _ := inner.Lookup(innerCol.col.Name, key)
			for _, id := range ids {
				row, ok := inner.Get(id)
				if !ok {
					continue
				}
				combined[1] = row
				emit(combined)
			}
			return nil
		}

		return inner.Scan(func(_ record.RowID, row record.Row) error {
			combined[1] = row
			if equal(combined[left.slot][left.pos], combined[right.slot][right.pos]) {
				emit(combined)
			}
			return nil
		})
	})
}

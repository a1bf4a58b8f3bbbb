package planner

import (
	"github.com/tuannm99/novadb/internal/heap"
	"github.com/tuannm99/novadb/internal/record"
	"github.com/tuannm99/novadb/internal/sql/parser"
)

// Plan is the interface for executable plans.
type Plan interface {
	planNode()
}

type AccessKind uint8

const (
	SeqScan AccessKind = iota
	IndexLookup
)

func (k AccessKind) String() string {
	if k == IndexLookup {
		return "IndexLookup"
	}
	return "SeqScan"
}

// Access is how the rows of a base table are found. An IndexLookup narrows
// the candidates to Column = Key; the full WHERE is still evaluated on
// every candidate.
type Access struct {
	Kind   AccessKind
	Column string
	Key    record.Value
}

// ----- Plan nodes -----

type CreateTablePlan struct {
	TableName   string
	IfNotExists bool
	Schema      record.Schema
}

func (*CreateTablePlan) planNode() {}

type InsertPlan struct {
	Table  *heap.Table
	Values []parser.Literal // coerced at execution
}

func (*InsertPlan) planNode() {}

// JoinPlan is the inner side of a nested-loop equi-join.
type JoinPlan struct {
	Table *heap.Table
	Ref   parser.TableRef
	Left  parser.ColumnRef
	Right parser.ColumnRef
}

type SelectPlan struct {
	Table   *heap.Table
	Ref     parser.TableRef
	Access  Access
	Columns []parser.ColumnRef // empty means *
	Join    *JoinPlan
	Where   parser.Expr
}

func (*SelectPlan) planNode() {}

type UpdatePlan struct {
	Table       *heap.Table
	Access      Access
	Assignments []parser.Assignment
	Where       parser.Expr
}

func (*UpdatePlan) planNode() {}

type DeletePlan struct {
	Table  *heap.Table
	Access Access
	Where  parser.Expr
}

func (*DeletePlan) planNode() {}

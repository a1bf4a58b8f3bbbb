package parser

import (
	"github.com/tuannm99/novadb/internal/record"
)

// Statement is the root interface for all SQL statements.
type Statement interface {
	stmtNode()
}

// ----- CREATE TABLE -----
type ColumnDef struct {
	Name       string
	Type       record.ColumnType
	PrimaryKey bool
	Unique     bool
}

type CreateTableStmt struct {
	TableName   string
	IfNotExists bool
	Columns     []ColumnDef
}

func (*CreateTableStmt) stmtNode() {}

// Schema converts the column definitions to a record.Schema.
func (s *CreateTableStmt) Schema() record.Schema {
	cols := make([]record.Column, len(s.Columns))
	for i, c := range s.Columns {
		cols[i] = record.Column{Name: c.Name, Type: c.Type, PrimaryKey: c.PrimaryKey, Unique: c.Unique}
	}
	return record.Schema{Cols: cols}
}

// ----- INSERT -----
type InsertStmt struct {
	TableName string
	Values    []Literal
}

func (*InsertStmt) stmtNode() {}

// ----- SELECT -----
type TableRef struct {
	Name  string
	Alias string
}

// Qualifier is the name columns of this table are qualified with.
func (t TableRef) Qualifier() string {
	if t.Alias != "" {
		return t.Alias
	}
	return t.Name
}

type ColumnRef struct {
	Qualifier string // empty when unqualified
	Name      string
}

func (c ColumnRef) String() string {
	if c.Qualifier == "" {
		return c.Name
	}
	return c.Qualifier + "." + c.Name
}

// JoinClause is an inner equi-join: JOIN Table ON Left = Right.
type JoinClause struct {
	Table TableRef
	Left  ColumnRef
	Right ColumnRef
}

type SelectStmt struct {
	From    TableRef
	Columns []ColumnRef // empty means *
	Join    *JoinClause
	Where   Expr // nil when absent
}

func (*SelectStmt) stmtNode() {}

// ----- UPDATE / DELETE -----
type Assignment struct {
	Column string
	Value  Literal
}

type UpdateStmt struct {
	TableName   string
	Assignments []Assignment
	Where       Expr
}

func (*UpdateStmt) stmtNode() {}

type DeleteStmt struct {
	TableName string
	Where     Expr
}

func (*DeleteStmt) stmtNode() {}

// ----- Expressions -----
type Expr interface {
	exprNode()
}

// Literal is a constant. Text is the literal as written (strings without
// their quotes), used when the value is stored in a VARCHAR column.
type Literal struct {
	Value record.Value
	Text  string
}

type CompareOp uint8

const (
	OpEq CompareOp = iota + 1
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

func (o CompareOp) String() string {
	switch o {
	case OpEq:
		return "="
	case OpNe:
		return "!="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	default:
		return "?"
	}
}

// Flip returns the operator with its operands swapped: a < b == b > a.
func (o CompareOp) Flip() CompareOp {
	switch o {
	case OpLt:
		return OpGt
	case OpLe:
		return OpGe
	case OpGt:
		return OpLt
	case OpGe:
		return OpLe
	default:
		return o
	}
}

// Comparison is Column Op Value. "literal op column" is normalised into
// this form while parsing.
type Comparison struct {
	Column ColumnRef
	Op     CompareOp
	Value  Literal
}

func (*Comparison) exprNode() {}

type LogicalOp uint8

const (
	And LogicalOp = iota + 1
	Or
)

type Logical struct {
	Op          LogicalOp
	Left, Right Expr
}

func (*Logical) exprNode() {}

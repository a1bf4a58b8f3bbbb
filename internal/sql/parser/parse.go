package parser

import (
	"strconv"
	"strings"

	"github.com/tuannm99/novadb/internal/dberr"
	"github.com/tuannm99/novadb/internal/record"
)

// Parse parses a single SQL statement into an AST. A trailing ';' is
// optional; anything after the statement is an error.
func Parse(sql string) (Statement, error) {
	toks, err := lex(sql)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}

	if p.peek().kind == tokEOF {
		return nil, dberr.Parse("", 0, "empty statement")
	}

	var stmt Statement
	head := p.peek()
	switch head.upper() {
	case "CREATE":
		stmt, err = p.parseCreateTable()
	case "INSERT":
		stmt, err = p.parseInsert()
	case "SELECT":
		stmt, err = p.parseSelect()
	case "UPDATE":
		stmt, err = p.parseUpdate()
	case "DELETE":
		stmt, err = p.parseDelete()
	default:
		return nil, p.errAt(head, "unsupported statement")
	}
	if err != nil {
		return nil, err
	}

	p.acceptSymbol(";")
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.errAt(t, "unexpected trailing input")
	}
	return stmt, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) errAt(t token, format string, args ...any) error {
	return dberr.Parse(t.fragment(), t.pos, format, args...)
}

func (p *parser) isKeyword(kw string) bool {
	t := p.peek()
	return t.kind == tokIdent && t.upper() == kw
}

func (p *parser) acceptKeyword(kw string) bool {
	if p.isKeyword(kw) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expectKeyword(kw string) error {
	if !p.acceptKeyword(kw) {
		return p.errAt(p.peek(), "expected %s", kw)
	}
	return nil
}

func (p *parser) isSymbol(s string) bool {
	t := p.peek()
	return t.kind == tokSymbol && t.text == s
}

func (p *parser) acceptSymbol(s string) bool {
	if p.isSymbol(s) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expectSymbol(s string) error {
	if !p.acceptSymbol(s) {
		return p.errAt(p.peek(), "expected %q", s)
	}
	return nil
}

// ident reads a table, column or alias name.
func (p *parser) ident(what string) (string, error) {
	t := p.peek()
	if t.kind != tokIdent || reserved[t.upper()] {
		return "", p.errAt(t, "expected %s name", what)
	}
	p.pos++
	return t.text, nil
}

// ----- CREATE TABLE -----

func (p *parser) parseCreateTable() (Statement, error) {
	p.next() // CREATE
	if err := p.expectKeyword("TABLE"); err != nil {
		return nil, err
	}
	stmt := &CreateTableStmt{}
	if p.acceptKeyword("IF") {
		if err := p.expectKeyword("NOT"); err != nil {
			return nil, err
		}
		if err := p.expectKeyword("EXISTS"); err != nil {
			return nil, err
		}
		stmt.IfNotExists = true
	}

	name, err := p.ident("table")
	if err != nil {
		return nil, err
	}
	stmt.TableName = name

	if err := p.expectSymbol("("); err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	pkSeen := false
	for {
		colTok := p.peek()
		col, err := p.parseColumnDef()
		if err != nil {
			return nil, err
		}
		if seen[col.Name] {
			return nil, p.errAt(colTok, "duplicate column %q", col.Name)
		}
		seen[col.Name] = true
		if col.PrimaryKey {
			if pkSeen {
				return nil, p.errAt(colTok, "multiple primary keys")
			}
			pkSeen = true
		}
		stmt.Columns = append(stmt.Columns, col)

		if p.acceptSymbol(",") {
			continue
		}
		if err := p.expectSymbol(")"); err != nil {
			return nil, err
		}
		break
	}
	return stmt, nil
}

func (p *parser) parseColumnDef() (ColumnDef, error) {
	name, err := p.ident("column")
	if err != nil {
		return ColumnDef{}, err
	}

	typeTok := p.peek()
	if typeTok.kind != tokIdent {
		return ColumnDef{}, p.errAt(typeTok, "expected column type")
	}
	typ, err := record.ParseColumnType(typeTok.text)
	if err != nil {
		return ColumnDef{}, p.errAt(typeTok, "unsupported column type")
	}
	p.pos++

	// VARCHAR(255) / CHAR(10): the length is accepted and ignored
	if typ == record.ColText && p.acceptSymbol("(") {
		if t := p.next(); t.kind != tokNumber || strings.Contains(t.text, ".") {
			return ColumnDef{}, p.errAt(t, "expected type length")
		}
		if err := p.expectSymbol(")"); err != nil {
			return ColumnDef{}, err
		}
	}

	col := ColumnDef{Name: name, Type: typ}
	for {
		switch {
		case p.acceptKeyword("PRIMARY"):
			if err := p.expectKeyword("KEY"); err != nil {
				return ColumnDef{}, err
			}
			col.PrimaryKey = true
		case p.acceptKeyword("UNIQUE"):
			col.Unique = true
		default:
			return col, nil
		}
	}
}

// ----- INSERT -----

func (p *parser) parseInsert() (Statement, error) {
	p.next() // INSERT
	if err := p.expectKeyword("INTO"); err != nil {
		return nil, err
	}
	name, err := p.ident("table")
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("VALUES"); err != nil {
		return nil, err
	}
	if err := p.expectSymbol("("); err != nil {
		return nil, err
	}

	stmt := &InsertStmt{TableName: name}
	for {
		lit, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		stmt.Values = append(stmt.Values, lit)
		if p.acceptSymbol(",") {
			continue
		}
		if err := p.expectSymbol(")"); err != nil {
			return nil, err
		}
		return stmt, nil
	}
}

// ----- SELECT -----

func (p *parser) parseSelect() (Statement, error) {
	p.next() // SELECT
	stmt := &SelectStmt{}

	if !p.acceptSymbol("*") {
		for {
			ref, err := p.parseColumnRef()
			if err != nil {
				return nil, err
			}
			stmt.Columns = append(stmt.Columns, ref)
			if !p.acceptSymbol(",") {
				break
			}
		}
	}

	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	from, err := p.parseTableRef()
	if err != nil {
		return nil, err
	}
	stmt.From = from

	if p.acceptKeyword("INNER") {
		if !p.isKeyword("JOIN") {
			return nil, p.errAt(p.peek(), "expected JOIN")
		}
	}
	if p.acceptKeyword("JOIN") {
		join, err := p.parseJoin()
		if err != nil {
			return nil, err
		}
		stmt.Join = join
	}

	if stmt.Where, err = p.parseOptionalWhere(); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *parser) parseTableRef() (TableRef, error) {
	name, err := p.ident("table")
	if err != nil {
		return TableRef{}, err
	}
	ref := TableRef{Name: name}
	if p.acceptKeyword("AS") {
		if ref.Alias, err = p.ident("alias"); err != nil {
			return TableRef{}, err
		}
	} else if t := p.peek(); t.kind == tokIdent && !reserved[t.upper()] {
		ref.Alias = t.text
		p.pos++
	}
	return ref, nil
}

func (p *parser) parseJoin() (*JoinClause, error) {
	table, err := p.parseTableRef()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("ON"); err != nil {
		return nil, err
	}
	left, err := p.parseColumnRef()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); !p.acceptSymbol("=") {
		return nil, p.errAt(t, "JOIN condition must be an equality")
	}
	right, err := p.parseColumnRef()
	if err != nil {
		return nil, err
	}
	return &JoinClause{Table: table, Left: left, Right: right}, nil
}

func (p *parser) parseColumnRef() (ColumnRef, error) {
	first, err := p.ident("column")
	if err != nil {
		return ColumnRef{}, err
	}
	if !p.acceptSymbol(".") {
		return ColumnRef{Name: first}, nil
	}
	second, err := p.ident("column")
	if err != nil {
		return ColumnRef{}, err
	}
	return ColumnRef{Qualifier: first, Name: second}, nil
}

// ----- UPDATE / DELETE -----

func (p *parser) parseUpdate() (Statement, error) {
	p.next() // UPDATE
	name, err := p.ident("table")
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("SET"); err != nil {
		return nil, err
	}

	stmt := &UpdateStmt{TableName: name}
	for {
		col, err := p.ident("column")
		if err != nil {
			return nil, err
		}
		if err := p.expectSymbol("="); err != nil {
			return nil, err
		}
		lit, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		stmt.Assignments = append(stmt.Assignments, Assignment{Column: col, Value: lit})
		if !p.acceptSymbol(",") {
			break
		}
	}

	if stmt.Where, err = p.parseOptionalWhere(); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *parser) parseDelete() (Statement, error) {
	p.next() // DELETE
	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	name, err := p.ident("table")
	if err != nil {
		return nil, err
	}
	stmt := &DeleteStmt{TableName: name}
	if stmt.Where, err = p.parseOptionalWhere(); err != nil {
		return nil, err
	}
	return stmt, nil
}

// ----- WHERE -----

func (p *parser) parseOptionalWhere() (Expr, error) {
	if !p.acceptKeyword("WHERE") {
		return nil, nil
	}
	return p.parseOr()
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.acceptKeyword("OR") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Logical{Op: Or, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.acceptKeyword("AND") {
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &Logical{Op: And, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseComparison() (Expr, error) {
	if p.acceptSymbol("(") {
		e, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expectSymbol(")"); err != nil {
			return nil, err
		}
		return e, nil
	}

	start := p.peek()
	if start.kind == tokIdent && !reserved[start.upper()] {
		col, err := p.parseColumnRef()
		if err != nil {
			return nil, err
		}
		op, err := p.parseCompareOp()
		if err != nil {
			return nil, err
		}
		lit, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		return &Comparison{Column: col, Op: op, Value: lit}, nil
	}

	// literal op column
	lit, err := p.parseLiteral()
	if err != nil {
		return nil, p.errAt(start, "expected comparison")
	}
	op, err := p.parseCompareOp()
	if err != nil {
		return nil, err
	}
	col, err := p.parseColumnRef()
	if err != nil {
		return nil, err
	}
	return &Comparison{Column: col, Op: op.Flip(), Value: lit}, nil
}

func (p *parser) parseCompareOp() (CompareOp, error) {
	t := p.peek()
	if t.kind == tokSymbol {
		var op CompareOp
		switch t.text {
		case "=":
			op = OpEq
		case "!=", "<>":
			op = OpNe
		case "<":
			op = OpLt
		case "<=":
			op = OpLe
		case ">":
			op = OpGt
		case ">=":
			op = OpGe
		}
		if op != 0 {
			p.pos++
			return op, nil
		}
	}
	return 0, p.errAt(t, "expected comparison operator")
}

// ----- literals -----

func (p *parser) parseLiteral() (Literal, error) {
	t := p.peek()
	switch t.kind {
	case tokString:
		p.pos++
		return Literal{Value: record.NewText(t.text), Text: t.text}, nil

	case tokNumber:
		p.pos++
		return numberLiteral(t, "")

	case tokSymbol:
		if t.text == "-" || t.text == "+" {
			p.pos++
			num := p.peek()
			if num.kind != tokNumber {
				return Literal{}, p.errAt(num, "expected number after %q", t.text)
			}
			p.pos++
			sign := ""
			if t.text == "-" {
				sign = "-"
			}
			return numberLiteral(num, sign)
		}

	case tokIdent:
		switch t.upper() {
		case "NULL":
			p.pos++
			return Literal{Value: record.Null(), Text: t.text}, nil
		case "TRUE":
			p.pos++
			return Literal{Value: record.NewBool(true), Text: t.text}, nil
		case "FALSE":
			p.pos++
			return Literal{Value: record.NewBool(false), Text: t.text}, nil
		}
	}
	return Literal{}, p.errAt(t, "expected literal")
}

func numberLiteral(t token, sign string) (Literal, error) {
	text := sign + t.text
	if !strings.Contains(t.text, ".") {
		if i, err := strconv.ParseInt(text, 10, 64); err == nil {
			return Literal{Value: record.NewInt(i), Text: text}, nil
		}
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Literal{}, dberr.Parse(t.raw, t.pos, "malformed number")
	}
	return Literal{Value: record.NewFloat(f), Text: text}, nil
}

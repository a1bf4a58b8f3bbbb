package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/tuannm99/novadb/internal/dberr"
)

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokSymbol
)

type token struct {
	kind tokenKind
	// text is the decoded value: the word, the number digits, the unquoted
	// string, or the symbol.
	text string
	// raw is the source slice the token was read from.
	raw string
	pos int
}

// upper returns the keyword form of an identifier token.
func (t token) upper() string { return strings.ToUpper(t.text) }

func (t token) fragment() string {
	if t.kind == tokEOF {
		return "<end of statement>"
	}
	return t.raw
}

// reserved words cannot be used as table, column or alias names.
var reserved = map[string]bool{
	"SELECT": true, "FROM": true, "WHERE": true, "JOIN": true, "INNER": true,
	"ON": true, "AS": true, "AND": true, "OR": true, "INSERT": true,
	"INTO": true, "VALUES": true, "UPDATE": true, "SET": true, "DELETE": true,
	"CREATE": true, "TABLE": true, "PRIMARY": true, "KEY": true, "UNIQUE": true,
	"NULL": true, "TRUE": true, "FALSE": true, "IF": true, "NOT": true,
	"EXISTS": true,
}

// lex splits a statement into tokens, always ending with tokEOF.
func lex(src string) ([]token, error) {
	var out []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++

		case isIdentStart(c):
			start := i
			for i < len(src) && isIdentPart(src[i]) {
				i++
			}
			out = append(out, token{kind: tokIdent, text: src[start:i], raw: src[start:i], pos: start})

		case isDigit(c) || (c == '.' && i+1 < len(src) && isDigit(src[i+1])):
			start := i
			dot := false
			for i < len(src) && (isDigit(src[i]) || (src[i] == '.' && !dot)) {
				if src[i] == '.' {
					dot = true
				}
				i++
			}
			if i < len(src) && isIdentStart(src[i]) {
				return nil, dberr.Parse(src[start:i+1], start, "malformed number")
			}
			out = append(out, token{kind: tokNumber, text: src[start:i], raw: src[start:i], pos: start})

		case c == '\'' || c == '"':
			tok, next, err := lexString(src, i)
			if err != nil {
				return nil, err
			}
			out = append(out, tok)
			i = next

		default:
			start := i
			sym := ""
			if i+1 < len(src) {
				switch two := src[i : i+2]; two {
				case "!=", "<>", "<=", ">=":
					sym = two
				}
			}
			if sym == "" {
				switch c {
				case '(', ')', ',', '.', '*', ';', '=', '<', '>', '-', '+':
					sym = string(c)
				default:
					return nil, dberr.Parse(string(c), i, "unexpected character")
				}
			}
			i += len(sym)
			out = append(out, token{kind: tokSymbol, text: sym, raw: sym, pos: start})
		}
	}
	out = append(out, token{kind: tokEOF, pos: len(src)})
	return out, nil
}

// lexString reads a quoted literal starting at src[start]. The quote is
// escaped by doubling it; a backslash escapes either quote or itself.
func lexString(src string, start int) (token, int, error) {
	q := src[start]
	var b strings.Builder
	i := start + 1
	for i < len(src) {
		c := src[i]
		switch {
		case c == '\\' && i+1 < len(src) && (src[i+1] == '\'' || src[i+1] == '"' || src[i+1] == '\\'):
			b.WriteByte(src[i+1])
			i += 2
		case c == q && i+1 < len(src) && src[i+1] == q:
			b.WriteByte(q)
			i += 2
		case c == q:
			i++
			if !utf8.ValidString(b.String()) {
				return token{}, 0, dberr.Parse(src[start:i], start, "string literal is not valid UTF-8")
			}
			return token{kind: tokString, text: b.String(), raw: src[start:i], pos: start}, i, nil
		default:
			b.WriteByte(c)
			i++
		}
	}
	return token{}, 0, dberr.Parse(src[start:], start, "unterminated string literal")
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

package record

import (
	"fmt"
	"strconv"
)

type Kind uint8

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindText
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "NULL"
	case KindInt:
		return "INTEGER"
	case KindFloat:
		return "FLOAT"
	case KindText:
		return "STRING"
	case KindBool:
		return "BOOLEAN"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Value is one cell. The zero Value is NULL.
//
// Value is comparable: two Values are == iff they have the same kind and
// payload, which makes it usable as a map key.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	b    bool
}

func Null() Value              { return Value{} }
func NewInt(v int64) Value     { return Value{kind: KindInt, i: v} }
func NewFloat(v float64) Value { return Value{kind: KindFloat, f: v} }
func NewText(v string) Value   { return Value{kind: KindText, s: v} }
func NewBool(v bool) Value     { return Value{kind: KindBool, b: v} }

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) Int() (int64, bool)     { return v.i, v.kind == KindInt }
func (v Value) Float() (float64, bool) { return v.f, v.kind == KindFloat }
func (v Value) Text() (string, bool)   { return v.s, v.kind == KindText }
func (v Value) Bool() (bool, bool)     { return v.b, v.kind == KindBool }

// Numeric returns the value as float64 for INTEGER and FLOAT kinds.
func (v Value) Numeric() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	default:
		return 0, false
	}
}

// Any converts the value to a plain Go value: nil, int64, float64, string
// or bool.
func (v Value) Any() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindText:
		return v.s
	case KindBool:
		return v.b
	default:
		return nil
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindText:
		return v.s
	case KindBool:
		if v.b {
			return "TRUE"
		}
		return "FALSE"
	default:
		return "NULL"
	}
}

// Compare orders two non-null values. INTEGER and FLOAT compare
// numerically with each other; any other mix of kinds is not comparable
// and ok is false. NULL is never comparable.
func Compare(a, b Value) (cmp int, ok bool) {
	if a.kind == KindNull || b.kind == KindNull {
		return 0, false
	}
	if a.kind == KindInt && b.kind == KindInt {
		return cmpOrdered(a.i, b.i), true
	}
	if af, aok := a.Numeric(); aok {
		if bf, bok := b.Numeric(); bok {
			return cmpOrdered(af, bf), true
		}
		return 0, false
	}
	if a.kind != b.kind {
		return 0, false
	}
	switch a.kind {
	case KindText:
		return cmpOrdered(a.s, b.s), true
	case KindBool:
		switch {
		case a.b == b.b:
			return 0, true
		case !a.b:
			return -1, true
		default:
			return 1, true
		}
	}
	return 0, false
}

func cmpOrdered[T int64 | float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

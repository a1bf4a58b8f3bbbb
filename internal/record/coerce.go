package record

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/tuannm99/novadb/internal/dberr"
)

// Coerce converts a literal to the declared type of col.
//
// text is the literal's source text; VARCHAR columns store it verbatim.
// NULL passes through for every column, the primary-key rule is enforced by
// the constraint validator, not here.
func Coerce(col Column, lit Value, text string) (Value, error) {
	if lit.IsNull() {
		return Null(), nil
	}
	if text == "" && lit.kind != KindText {
		text = lit.String()
	}

	switch col.Type {
	case ColInt64:
		switch lit.kind {
		case KindInt:
			return lit, nil
		case KindText:
			i, err := strconv.ParseInt(strings.TrimSpace(lit.s), 10, 64)
			if err != nil {
				return Value{}, dberr.TypeMismatch(col.Name, text, "INTEGER expects a whole number")
			}
			return NewInt(i), nil
		default:
			return Value{}, dberr.TypeMismatch(col.Name, text, "INTEGER expects a whole number, got %s", lit.kind)
		}

	case ColFloat64:
		switch lit.kind {
		case KindInt:
			return NewFloat(float64(lit.i)), nil
		case KindFloat:
			return lit, nil
		case KindText:
			f, err := strconv.ParseFloat(strings.TrimSpace(lit.s), 64)
			if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
				return Value{}, dberr.TypeMismatch(col.Name, text, "FLOAT expects a number")
			}
			return NewFloat(f), nil
		default:
			return Value{}, dberr.TypeMismatch(col.Name, text, "FLOAT expects a number, got %s", lit.kind)
		}

	case ColText:
		if lit.kind == KindText {
			if !utf8.ValidString(lit.s) {
				return Value{}, dberr.TypeMismatch(col.Name, "", "VARCHAR expects UTF-8 text")
			}
			return lit, nil
		}
		return NewText(text), nil

	case ColBool:
		switch lit.kind {
		case KindBool:
			return lit, nil
		case KindText:
			switch strings.ToLower(lit.s) {
			case "true":
				return NewBool(true), nil
			case "false":
				return NewBool(false), nil
			}
		}
		return Value{}, dberr.TypeMismatch(col.Name, text, "BOOLEAN expects TRUE or FALSE")
	}

	return Value{}, dberr.TypeMismatch(col.Name, text, "unsupported column type %s", col.Type)
}

// FromStored converts a decoded storage value (JSON or msgpack) into a
// Value of the column's type. Unlike Coerce it never converts between
// representations: text stays text, numbers stay numbers.
func FromStored(col Column, raw any) (Value, error) {
	if raw == nil {
		return Null(), nil
	}

	switch col.Type {
	case ColInt64:
		switch x := raw.(type) {
		case json.Number:
			i, err := x.Int64()
			if err != nil {
				return Value{}, fmt.Errorf("column %s: %q is not a whole number", col.Name, x.String())
			}
			return NewInt(i), nil
		case float64:
			if x != math.Trunc(x) || math.Abs(x) > 1<<53 {
				return Value{}, fmt.Errorf("column %s: %v is not a whole number", col.Name, x)
			}
			return NewInt(int64(x)), nil
		case float32:
			return FromStored(col, float64(x))
		default:
			if i, ok := asInt64(raw); ok {
				return NewInt(i), nil
			}
		}

	case ColFloat64:
		switch x := raw.(type) {
		case json.Number:
			f, err := x.Float64()
			if err != nil {
				return Value{}, fmt.Errorf("column %s: %q is not a number", col.Name, x.String())
			}
			return NewFloat(f), nil
		case float64:
			return NewFloat(x), nil
		case float32:
			return NewFloat(float64(x)), nil
		default:
			if i, ok := asInt64(raw); ok {
				return NewFloat(float64(i)), nil
			}
		}

	case ColText:
		if s, ok := raw.(string); ok {
			return NewText(s), nil
		}

	case ColBool:
		if b, ok := raw.(bool); ok {
			return NewBool(b), nil
		}
	}

	return Value{}, fmt.Errorf("column %s: %T does not fit %s", col.Name, raw, col.Type)
}

func asInt64(raw any) (int64, bool) {
	switch x := raw.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		if x > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	default:
		return 0, false
	}
}

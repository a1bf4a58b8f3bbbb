package record

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuannm99/novadb/internal/dberr"
)

func TestParseColumnType(t *testing.T) {
	cases := map[string]ColumnType{
		"int":      ColInt64,
		"INTEGER":  ColInt64,
		"bigint":   ColInt64,
		"FLOAT":    ColFloat64,
		"double":   ColFloat64,
		"VARCHAR":  ColText,
		"text":     ColText,
		"BOOLEAN":  ColBool,
		" bool ":   ColBool,
		"SMALLINT": ColInt64,
	}
	for in, want := range cases {
		got, err := ParseColumnType(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	_, err := ParseColumnType("BLOB")
	require.Error(t, err)
}

func TestSchema_Validate(t *testing.T) {
	ok := Schema{Cols: []Column{
		{Name: "id", Type: ColInt64, PrimaryKey: true},
		{Name: "email", Type: ColText, Unique: true},
		{Name: "age", Type: ColInt64},
	}}
	require.NoError(t, ok.Validate())
	require.Equal(t, 0, ok.PrimaryKey())
	require.Equal(t, []int{0, 1}, ok.IndexedCols())
	require.Equal(t, 2, ok.ColIndex("age"))
	require.Equal(t, -1, ok.ColIndex("nope"))

	require.Error(t, Schema{}.Validate())

	dup := Schema{Cols: []Column{{Name: "a", Type: ColInt64}, {Name: "a", Type: ColText}}}
	require.Error(t, dup.Validate())

	twoPK := Schema{Cols: []Column{
		{Name: "a", Type: ColInt64, PrimaryKey: true},
		{Name: "b", Type: ColInt64, PrimaryKey: true},
	}}
	require.Error(t, twoPK.Validate())
}

func TestValue_ComparableAsMapKey(t *testing.T) {
	m := map[Value]int{}
	m[NewInt(1)] = 1
	m[NewText("1")] = 2
	m[NewFloat(1)] = 3

	require.Len(t, m, 3)
	require.Equal(t, 1, m[NewInt(1)])
	require.Equal(t, 2, m[NewText("1")])
	require.True(t, Null() == Value{})
}

func TestCompare(t *testing.T) {
	c, ok := Compare(NewInt(2), NewFloat(2.5))
	require.True(t, ok)
	require.Equal(t, -1, c)

	c, ok = Compare(NewText("b"), NewText("a"))
	require.True(t, ok)
	require.Equal(t, 1, c)

	c, ok = Compare(NewBool(false), NewBool(true))
	require.True(t, ok)
	require.Equal(t, -1, c)

	_, ok = Compare(Null(), NewInt(1))
	require.False(t, ok)

	_, ok = Compare(NewText("1"), NewInt(1))
	require.False(t, ok)
}

func TestCoerce(t *testing.T) {
	intCol := Column{Name: "age", Type: ColInt64}
	floatCol := Column{Name: "score", Type: ColFloat64}
	textCol := Column{Name: "name", Type: ColText}
	boolCol := Column{Name: "active", Type: ColBool}

	t.Run("integer", func(t *testing.T) {
		v, err := Coerce(intCol, NewInt(30), "30")
		require.NoError(t, err)
		require.Equal(t, NewInt(30), v)

		v, err = Coerce(intCol, NewText("42"), "'42'")
		require.NoError(t, err)
		require.Equal(t, NewInt(42), v)

		_, err = Coerce(intCol, NewText("abc"), "'abc'")
		require.ErrorIs(t, err, dberr.ErrTypeMismatch)

		_, err = Coerce(intCol, NewFloat(1.5), "1.5")
		require.ErrorIs(t, err, dberr.ErrTypeMismatch)
	})

	t.Run("float widens integers", func(t *testing.T) {
		v, err := Coerce(floatCol, NewInt(3), "3")
		require.NoError(t, err)
		require.Equal(t, NewFloat(3), v)

		v, err = Coerce(floatCol, NewText("2.5"), "'2.5'")
		require.NoError(t, err)
		require.Equal(t, NewFloat(2.5), v)

		_, err = Coerce(floatCol, NewBool(true), "TRUE")
		require.ErrorIs(t, err, dberr.ErrTypeMismatch)
	})

	t.Run("text keeps source text", func(t *testing.T) {
		v, err := Coerce(textCol, NewInt(7), "007")
		require.NoError(t, err)
		require.Equal(t, NewText("007"), v)

		v, err = Coerce(textCol, NewText("Alice"), "'Alice'")
		require.NoError(t, err)
		require.Equal(t, NewText("Alice"), v)

		_, err = Coerce(textCol, NewText("a\xffb"), "'a\xffb'")
		require.ErrorIs(t, err, dberr.ErrTypeMismatch)
	})

	t.Run("boolean", func(t *testing.T) {
		v, err := Coerce(boolCol, NewBool(true), "TRUE")
		require.NoError(t, err)
		require.Equal(t, NewBool(true), v)

		v, err = Coerce(boolCol, NewText("False"), "'False'")
		require.NoError(t, err)
		require.Equal(t, NewBool(false), v)

		_, err = Coerce(boolCol, NewInt(1), "1")
		require.ErrorIs(t, err, dberr.ErrTypeMismatch)
	})

	t.Run("null passes", func(t *testing.T) {
		for _, c := range []Column{intCol, floatCol, textCol, boolCol} {
			v, err := Coerce(c, Null(), "NULL")
			require.NoError(t, err)
			require.True(t, v.IsNull())
		}
	})
}

func TestFromStored(t *testing.T) {
	intCol := Column{Name: "id", Type: ColInt64}

	v, err := FromStored(intCol, json.Number("12"))
	require.NoError(t, err)
	require.Equal(t, NewInt(12), v)

	v, err = FromStored(intCol, int8(5))
	require.NoError(t, err)
	require.Equal(t, NewInt(5), v)

	v, err = FromStored(intCol, float64(9))
	require.NoError(t, err)
	require.Equal(t, NewInt(9), v)

	_, err = FromStored(intCol, json.Number("1.5"))
	require.Error(t, err)

	_, err = FromStored(intCol, "12")
	require.Error(t, err)

	v, err = FromStored(Column{Name: "f", Type: ColFloat64}, json.Number("1.25"))
	require.NoError(t, err)
	require.Equal(t, NewFloat(1.25), v)

	v, err = FromStored(Column{Name: "b", Type: ColBool}, true)
	require.NoError(t, err)
	require.Equal(t, NewBool(true), v)

	v, err = FromStored(Column{Name: "s", Type: ColText}, nil)
	require.NoError(t, err)
	require.True(t, v.IsNull())
}

func TestRow_MapAndClone(t *testing.T) {
	s := Schema{Cols: []Column{{Name: "id", Type: ColInt64}, {Name: "name", Type: ColText}}}
	r := Row{NewInt(1), NewText("a")}

	require.Equal(t, map[string]any{"id": int64(1), "name": "a"}, r.Map(s))
	require.Equal(t, []any{int64(1), "a"}, r.Anys())

	cp := r.Clone()
	cp[1] = NewText("b")
	require.False(t, r.Equal(cp))
	require.Equal(t, NewText("a"), r[1])
}

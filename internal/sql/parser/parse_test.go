package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannm99/novadb/internal/dberr"
	"github.com/tuannm99/novadb/internal/record"
)

func TestParse_SemicolonOptional(t *testing.T) {
	for _, sql := range []string{"SELECT * FROM users", "SELECT * FROM users;", "  select * from users ;  "} {
		stmt, err := Parse(sql)
		require.NoError(t, err, sql)
		s, ok := stmt.(*SelectStmt)
		require.True(t, ok, "want *SelectStmt, got %T", stmt)
		assert.Equal(t, "users", s.From.Name)
		assert.Empty(t, s.Columns)
	}
}

func TestParse_CreateTable(t *testing.T) {
	stmt, err := Parse("CREATE TABLE users (id INTEGER PRIMARY KEY, name VARCHAR(100), email VARCHAR UNIQUE, score FLOAT, active BOOLEAN);")
	require.NoError(t, err)

	s, ok := stmt.(*CreateTableStmt)
	require.True(t, ok, "want *CreateTableStmt, got %T", stmt)
	assert.Equal(t, "users", s.TableName)
	assert.False(t, s.IfNotExists)
	require.Len(t, s.Columns, 5)

	assert.Equal(t, ColumnDef{Name: "id", Type: record.ColInt64, PrimaryKey: true}, s.Columns[0])
	assert.Equal(t, ColumnDef{Name: "name", Type: record.ColText}, s.Columns[1])
	assert.Equal(t, ColumnDef{Name: "email", Type: record.ColText, Unique: true}, s.Columns[2])
	assert.Equal(t, record.ColFloat64, s.Columns[3].Type)
	assert.Equal(t, record.ColBool, s.Columns[4].Type)

	schema := s.Schema()
	require.NoError(t, schema.Validate())
	assert.Equal(t, 0, schema.PrimaryKey())
}

func TestParse_CreateTable_IfNotExistsAndSynonyms(t *testing.T) {
	stmt, err := Parse("create table if not exists t (a int, b text, c bool, d real, e char(3))")
	require.NoError(t, err)
	s := stmt.(*CreateTableStmt)
	assert.True(t, s.IfNotExists)
	assert.Equal(t, []record.ColumnType{record.ColInt64, record.ColText, record.ColBool, record.ColFloat64, record.ColText},
		[]record.ColumnType{s.Columns[0].Type, s.Columns[1].Type, s.Columns[2].Type, s.Columns[3].Type, s.Columns[4].Type})
}

func TestParse_CreateTable_Invalid(t *testing.T) {
	cases := map[string]string{
		"unsupported type": "CREATE TABLE t (id BLOB)",
		"duplicate column": "CREATE TABLE t (id INT, id TEXT)",
		"two primary keys": "CREATE TABLE t (a INT PRIMARY KEY, b INT PRIMARY KEY)",
		"missing paren":    "CREATE TABLE t (id INT",
		"trailing comma":   "CREATE TABLE t (id INT,)",
		"no columns":       "CREATE TABLE t ()",
		"reserved as name": "CREATE TABLE select (id INT)",
		"missing type":     "CREATE TABLE t (id)",
		"dangling PRIMARY": "CREATE TABLE t (id INT PRIMARY)",
	}
	for name, sql := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(sql)
			require.ErrorIs(t, err, dberr.ErrParse)
		})
	}
}

func TestParse_Insert(t *testing.T) {
	stmt, err := Parse(`INSERT INTO users VALUES (1, 'O''Brien', "it\'s", -2.5, TRUE, null, +7)`)
	require.NoError(t, err)

	s, ok := stmt.(*InsertStmt)
	require.True(t, ok, "want *InsertStmt, got %T", stmt)
	assert.Equal(t, "users", s.TableName)
	require.Len(t, s.Values, 7)

	assert.Equal(t, record.NewInt(1), s.Values[0].Value)
	assert.Equal(t, record.NewText("O'Brien"), s.Values[1].Value)
	assert.Equal(t, record.NewText("it's"), s.Values[2].Value)
	assert.Equal(t, record.NewFloat(-2.5), s.Values[3].Value)
	assert.Equal(t, "-2.5", s.Values[3].Text)
	assert.Equal(t, record.NewBool(true), s.Values[4].Value)
	assert.True(t, s.Values[5].Value.IsNull())
	assert.Equal(t, record.NewInt(7), s.Values[6].Value)
}

func TestParse_Insert_CommaInsideQuotes(t *testing.T) {
	stmt, err := Parse("INSERT INTO t VALUES ('a,b', 'c')")
	require.NoError(t, err)
	s := stmt.(*InsertStmt)
	require.Len(t, s.Values, 2)
	assert.Equal(t, "a,b", s.Values[0].Text)
}

func TestParse_Insert_Invalid(t *testing.T) {
	for _, sql := range []string{
		"INSERT INTO t VALUES (1,, 2)",
		"INSERT INTO t VALUES 1, 2",
		"INSERT INTO t VALUES (1, 2",
		"INSERT INTO t (1)",
		"INSERT INTO t VALUES ('open)",
		"INSERT INTO t VALUES (abc)",
	} {
		_, err := Parse(sql)
		require.ErrorIs(t, err, dberr.ErrParse, sql)
	}
}

func TestParse_Insert_RejectsInvalidUTF8(t *testing.T) {
	_, err := Parse("INSERT INTO t VALUES (1, 'a\xffb')")
	require.ErrorIs(t, err, dberr.ErrParse)

	stmt, err := Parse("INSERT INTO t VALUES ('héllo')")
	require.NoError(t, err)
	assert.Equal(t, "héllo", stmt.(*InsertStmt).Values[0].Text)
}

func TestParse_Select_ProjectionAndWhere(t *testing.T) {
	stmt, err := Parse("SELECT name, age FROM users WHERE age > 25")
	require.NoError(t, err)
	s := stmt.(*SelectStmt)

	assert.Equal(t, []ColumnRef{{Name: "name"}, {Name: "age"}}, s.Columns)
	cmp, ok := s.Where.(*Comparison)
	require.True(t, ok)
	assert.Equal(t, ColumnRef{Name: "age"}, cmp.Column)
	assert.Equal(t, OpGt, cmp.Op)
	assert.Equal(t, record.NewInt(25), cmp.Value.Value)
}

func TestParse_Select_LiteralFirstIsNormalised(t *testing.T) {
	stmt, err := Parse("SELECT * FROM users WHERE 25 < age")
	require.NoError(t, err)
	cmp := stmt.(*SelectStmt).Where.(*Comparison)
	assert.Equal(t, "age", cmp.Column.Name)
	assert.Equal(t, OpGt, cmp.Op)
}

func TestParse_Select_AndOrPrecedence(t *testing.T) {
	stmt, err := Parse("SELECT * FROM t WHERE a = 1 OR b = 2 AND (c <> 3 OR d <= 4)")
	require.NoError(t, err)

	or, ok := stmt.(*SelectStmt).Where.(*Logical)
	require.True(t, ok)
	assert.Equal(t, Or, or.Op)
	and, ok := or.Right.(*Logical)
	require.True(t, ok)
	assert.Equal(t, And, and.Op)
	inner, ok := and.Right.(*Logical)
	require.True(t, ok)
	assert.Equal(t, Or, inner.Op)
	assert.Equal(t, OpNe, inner.Left.(*Comparison).Op)
}

func TestParse_Select_Join(t *testing.T) {
	stmt, err := Parse("SELECT u.name, o.amount FROM users u JOIN orders AS o ON u.id = o.user_id WHERE o.amount >= 10")
	require.NoError(t, err)
	s := stmt.(*SelectStmt)

	assert.Equal(t, TableRef{Name: "users", Alias: "u"}, s.From)
	require.NotNil(t, s.Join)
	assert.Equal(t, TableRef{Name: "orders", Alias: "o"}, s.Join.Table)
	assert.Equal(t, ColumnRef{Qualifier: "u", Name: "id"}, s.Join.Left)
	assert.Equal(t, ColumnRef{Qualifier: "o", Name: "user_id"}, s.Join.Right)
	assert.Equal(t, []ColumnRef{{Qualifier: "u", Name: "name"}, {Qualifier: "o", Name: "amount"}}, s.Columns)
	assert.Equal(t, "o.amount", s.Where.(*Comparison).Column.String())

	stmt, err = Parse("SELECT * FROM users INNER JOIN orders ON users.id = orders.user_id")
	require.NoError(t, err)
	s = stmt.(*SelectStmt)
	assert.Equal(t, "users", s.From.Qualifier())
	assert.Equal(t, "orders", s.Join.Table.Qualifier())
}

func TestParse_Select_Invalid(t *testing.T) {
	for _, sql := range []string{
		"SELECT FROM users",
		"SELECT * users",
		"SELECT * FROM users WHERE",
		"SELECT * FROM users WHERE age",
		"SELECT * FROM users WHERE age = ",
		"SELECT * FROM users WHERE age == 1",
		"SELECT * FROM users WHERE (age = 1",
		"SELECT * FROM a JOIN b ON a.id < b.id",
		"SELECT * FROM a INNER b ON a.id = b.id",
		"SELECT * FROM users extra tokens",
		"SELECT * FROM users; SELECT 1",
	} {
		_, err := Parse(sql)
		require.ErrorIs(t, err, dberr.ErrParse, sql)
	}
}

func TestParse_Update(t *testing.T) {
	stmt, err := Parse("UPDATE users SET age = 31, name = 'Al' WHERE id = 1")
	require.NoError(t, err)
	s := stmt.(*UpdateStmt)

	assert.Equal(t, "users", s.TableName)
	require.Len(t, s.Assignments, 2)
	assert.Equal(t, "age", s.Assignments[0].Column)
	assert.Equal(t, record.NewInt(31), s.Assignments[0].Value.Value)
	assert.Equal(t, "name", s.Assignments[1].Column)
	require.NotNil(t, s.Where)

	_, err = Parse("UPDATE users age = 1")
	require.ErrorIs(t, err, dberr.ErrParse)
	_, err = Parse("UPDATE users SET age 1")
	require.ErrorIs(t, err, dberr.ErrParse)
}

func TestParse_Delete(t *testing.T) {
	stmt, err := Parse("DELETE FROM users WHERE id = 2;")
	require.NoError(t, err)
	s := stmt.(*DeleteStmt)
	assert.Equal(t, "users", s.TableName)
	assert.Equal(t, record.NewInt(2), s.Where.(*Comparison).Value.Value)

	stmt, err = Parse("DELETE FROM users")
	require.NoError(t, err)
	assert.Nil(t, stmt.(*DeleteStmt).Where)
}

func TestParse_UnsupportedCarriesFragment(t *testing.T) {
	_, err := Parse("DROP TABLE users")
	require.ErrorIs(t, err, dberr.ErrParse)

	var de *dberr.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "DROP", de.Fragment)
	assert.Equal(t, 0, de.Offset)

	_, err = Parse("SELECT * FROMM users")
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "FROMM", de.Fragment)
	assert.Equal(t, 9, de.Offset)

	_, err = Parse("   ")
	require.ErrorIs(t, err, dberr.ErrParse)
}

func TestParse_NoSchemaLookup(t *testing.T) {
	_, err := Parse("SELECT * FROM nonexistent")
	require.NoError(t, err)
}

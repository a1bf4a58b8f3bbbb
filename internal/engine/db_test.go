package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuannm99/novadb/internal/dberr"
	"github.com/tuannm99/novadb/internal/record"
	"github.com/tuannm99/novadb/internal/storage"
)

func openMem(t *testing.T) *Database {
	t.Helper()
	db, err := Open(Options{Mode: storage.Memory, CacheSize: 1 << 20})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func mustExec(t *testing.T, db *Database, sqls ...string) {
	t.Helper()
	for _, sql := range sqls {
		_, err := db.Execute(sql)
		require.NoError(t, err, sql)
	}
}

func TestDatabase_DuplicatePrimaryKeyLeavesOneRow(t *testing.T) {
	db := openMem(t)
	mustExec(t, db,
		"CREATE TABLE t (id INTEGER PRIMARY KEY, name VARCHAR UNIQUE)",
		"INSERT INTO t VALUES (1, 'a')",
	)

	_, err := db.Execute("INSERT INTO t VALUES (1, 'b')")
	require.ErrorIs(t, err, dberr.ErrPrimaryKeyViolation)

	n, err := db.RowCount("t")
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestDatabase_UniqueAllowsManyNulls(t *testing.T) {
	db := openMem(t)
	mustExec(t, db,
		"CREATE TABLE t (id INTEGER PRIMARY KEY, email TEXT UNIQUE)",
		"INSERT INTO t VALUES (1, NULL)",
		"INSERT INTO t VALUES (2, NULL)",
	)
	n, _ := db.RowCount("t")
	require.Equal(t, 2, n)
}

func TestDatabase_Join(t *testing.T) {
	db := openMem(t)
	mustExec(t, db,
		"CREATE TABLE categories (id INTEGER PRIMARY KEY, name VARCHAR(50))",
		"CREATE TABLE items (id INTEGER PRIMARY KEY, category_id INTEGER)",
		"INSERT INTO categories VALUES (7, 'tools')",
		"INSERT INTO items VALUES (1, 7)",
	)

	res, err := db.Execute("SELECT items.category_id, categories.name FROM items INNER JOIN categories ON items.category_id = categories.id")
	require.NoError(t, err)
	require.Equal(t, []string{"items.category_id", "categories.name"}, res.Columns)
	require.Equal(t, [][]any{{int64(7), "tools"}}, res.Rows)
}

func TestDatabase_DeleteDropsIndexBucket(t *testing.T) {
	db := openMem(t)
	mustExec(t, db,
		"CREATE TABLE t (id INTEGER PRIMARY KEY, name VARCHAR UNIQUE)",
		"INSERT INTO t VALUES (1, 'a')",
		"INSERT INTO t VALUES (2, 'b')",
	)

	res, err := db.Execute("DELETE FROM t WHERE id = 1")
	require.NoError(t, err)
	require.EqualValues(t, 1, res.AffectedRows)

	tbl, ok := db.Table("t")
	require.True(t, ok)
	pk, ok := tbl.Indexes().Get("id")
	require.True(t, ok)
	require.Equal(t, 1, pk.Len())
	require.Empty(t, pk.Lookup(record.NewInt(1)))
}

func TestDatabase_SchemaMatchesDeclaration(t *testing.T) {
	db := openMem(t)
	mustExec(t, db, "CREATE TABLE u (id INT PRIMARY KEY, name TEXT, score FLOAT, ok BOOLEAN, email VARCHAR(9) UNIQUE)")

	s, err := db.Schema("u")
	require.NoError(t, err)
	require.Equal(t, []string{"id", "name", "score", "ok", "email"}, s.Names())
	require.Equal(t, record.Column{Name: "email", Type: record.ColText, Unique: true}, s.Cols[4])
	require.Equal(t, []string{"u"}, db.Tables())

	_, err = db.Schema("nope")
	require.ErrorIs(t, err, dberr.ErrTableNotFound)
	_, err = db.RowCount("nope")
	require.ErrorIs(t, err, dberr.ErrTableNotFound)
}

func TestDatabase_ResultCacheInvalidatedByWrites(t *testing.T) {
	db := openMem(t)
	mustExec(t, db,
		"CREATE TABLE t (id INTEGER PRIMARY KEY)",
		"INSERT INTO t VALUES (1)",
	)

	first, err := db.Execute("SELECT * FROM t")
	require.NoError(t, err)
	require.EqualValues(t, 1, db.cache.Len())

	again, err := db.Execute("select * from t;")
	require.NoError(t, err)
	require.Equal(t, first.Rows, again.Rows)

	mustExec(t, db, "INSERT INTO t VALUES (2)")
	require.Zero(t, db.cache.Len())

	res, err := db.Execute("SELECT * FROM t")
	require.NoError(t, err)
	require.Equal(t, [][]any{{int64(1)}, {int64(2)}}, res.Rows)
}

func TestDatabase_FailedStatementChangesNothing(t *testing.T) {
	db := openMem(t)
	mustExec(t, db,
		"CREATE TABLE t (id INTEGER PRIMARY KEY, email TEXT UNIQUE)",
		"INSERT INTO t VALUES (1, 'a')",
		"INSERT INTO t VALUES (2, 'b')",
	)

	_, err := db.Execute("UPDATE t SET email = 'a' WHERE id = 2")
	require.ErrorIs(t, err, dberr.ErrUniqueViolation)

	res, err := db.Execute("SELECT email FROM t WHERE id = 2")
	require.NoError(t, err)
	require.Equal(t, [][]any{{"b"}}, res.Rows)

	_, err = db.Execute("SELEC * FROM t")
	require.ErrorIs(t, err, dberr.ErrParse)
	_, err = db.Execute("CREATE TABLE t (id INT)")
	require.ErrorIs(t, err, dberr.ErrTableExists)
	mustExec(t, db, "CREATE TABLE IF NOT EXISTS t (id INT)")
	require.Equal(t, []string{"t"}, db.Tables())
}

func TestDatabase_ReopenRestoresState(t *testing.T) {
	for _, tc := range []struct {
		name  string
		mode  storage.StorageMode
		codec string
	}{
		{"file-json", storage.File, "json"},
		{"bolt-msgpack", storage.Bolt, "msgpack"},
		{"leveldb-json", storage.LevelDB, "json"},
		{"pebble-msgpack", storage.Pebble, "msgpack"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			opts := Options{Mode: tc.mode, Dir: t.TempDir(), Codec: tc.codec}

			db, err := Open(opts)
			require.NoError(t, err)
			mustExec(t, db,
				"CREATE TABLE users (id INTEGER PRIMARY KEY, name VARCHAR, email TEXT UNIQUE, score FLOAT, active BOOLEAN)",
				"CREATE TABLE empty (id INTEGER PRIMARY KEY)",
				"INSERT INTO users VALUES (1, 'Alice', 'a@x', 9.5, TRUE)",
				"INSERT INTO users VALUES (2, 'Bob', NULL, 3, FALSE)",
				"INSERT INTO users VALUES (3, 'Carol', 'c@x')",
				"UPDATE users SET score = 4.25 WHERE id = 2",
				"DELETE FROM users WHERE id = 1",
			)
			before, err := db.Execute("SELECT * FROM users")
			require.NoError(t, err)
			require.NoError(t, db.Close())

			db, err = Open(opts)
			require.NoError(t, err)
			defer func() { require.NoError(t, db.Close()) }()

			require.Equal(t, []string{"users", "empty"}, db.Tables())
			after, err := db.Execute("SELECT * FROM users")
			require.NoError(t, err)
			require.Equal(t, before, after)

			n, err := db.RowCount("empty")
			require.NoError(t, err)
			require.Zero(t, n)

			// indexes are rebuilt on load
			_, err = db.Execute("INSERT INTO users VALUES (4, 'Dup', 'c@x')")
			require.ErrorIs(t, err, dberr.ErrUniqueViolation)
			res, err := db.Execute("SELECT name FROM users WHERE id = 3")
			require.NoError(t, err)
			require.Equal(t, [][]any{{"Carol"}}, res.Rows)
		})
	}
}

func TestDatabase_TextSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(Options{Mode: storage.File, Dir: dir})
	require.NoError(t, err)
	mustExec(t, db, "CREATE TABLE t (id INT PRIMARY KEY, s TEXT UNIQUE)")

	_, err = db.Execute("INSERT INTO t VALUES (1, 'a\xffb')")
	require.ErrorIs(t, err, dberr.ErrParse)
	_, err = db.Execute("INSERT INTO t VALUES (2, 'a\xfeb')")
	require.ErrorIs(t, err, dberr.ErrParse)
	mustExec(t, db,
		"INSERT INTO t VALUES (3, 'café')",
		"INSERT INTO t VALUES (4, '日本')",
	)
	before, err := db.Execute("SELECT * FROM t")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(Options{Mode: storage.File, Dir: dir})
	require.NoError(t, err)
	defer func() { require.NoError(t, db.Close()) }()

	after, err := db.Execute("SELECT * FROM t")
	require.NoError(t, err)
	require.Equal(t, before, after)
	require.Equal(t, [][]any{{int64(3), "café"}, {int64(4), "日本"}}, after.Rows)
}

func TestDatabase_PersistedLayout(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(Options{Mode: storage.File, Dir: dir})
	require.NoError(t, err)
	mustExec(t, db,
		"CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT)",
		"INSERT INTO t VALUES (1, 'a')",
	)
	require.NoError(t, db.Close())

	var catalog map[string]any
	data, err := os.ReadFile(filepath.Join(dir, "catalog.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &catalog))
	require.Equal(t, map[string]any{"tables": []any{map[string]any{
		"name": "t",
		"columns": []any{
			map[string]any{"name": "id", "type": "INTEGER", "primary_key": true},
			map[string]any{"name": "name", "type": "VARCHAR"},
		},
	}}}, catalog)

	var doc map[string]any
	data, err = os.ReadFile(filepath.Join(dir, "table.t.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Equal(t, map[string]any{
		"table": "t",
		"rows":  []any{map[string]any{"id": 1.0, "name": "a"}},
	}, doc)
}

func TestDatabase_OpenRejectsCorruptRows(t *testing.T) {
	cases := map[string]string{
		"wrong shape":   `{"table":"t","rows":[{"id":1}]}`,
		"duplicate key": `{"table":"t","rows":[{"id":1,"name":"a"},{"id":1,"name":"b"}]}`,
		"not a doc":     `[1,2,3]`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			db, err := Open(Options{Mode: storage.File, Dir: dir})
			require.NoError(t, err)
			mustExec(t, db, "CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT)")
			require.NoError(t, db.Close())

			require.NoError(t, os.WriteFile(filepath.Join(dir, "table.t.json"), []byte(body), 0o644))
			_, err = Open(Options{Mode: storage.File, Dir: dir})
			require.ErrorIs(t, err, dberr.ErrStorageFormat)
		})
	}
}

func TestDatabase_OrphanRowDocumentIgnored(t *testing.T) {
	eng := storage.NewMemoryEngine()
	require.NoError(t, eng.Write(storage.TableKey("ghost"), []byte(`{"table":"ghost","rows":[]}`)))

	var logs bytes.Buffer
	db, err := Open(Options{Engine: eng, Logger: slog.New(slog.NewTextHandler(&logs, nil))})
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	orphans, err := db.orphanTables()
	require.NoError(t, err)
	require.Equal(t, []string{"ghost"}, orphans)
	require.Empty(t, db.Tables())
	require.Contains(t, logs.String(), "table=ghost")
}

func TestDatabase_ClosedAndCancelled(t *testing.T) {
	db, err := Open(Options{Mode: storage.Memory})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = db.ExecuteContext(ctx, "CREATE TABLE t (id INT)")
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, db.Tables())

	require.NoError(t, db.Close())
	require.NoError(t, db.Close())
	_, err = db.Execute("CREATE TABLE t (id INT)")
	require.ErrorIs(t, err, ErrDatabaseClosed)
}

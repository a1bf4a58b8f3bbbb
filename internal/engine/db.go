// Package engine is the database facade: it owns the table registry, runs
// statements through parse, plan and execute, and persists every change.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tuannm99/novadb/internal/cache"
	"github.com/tuannm99/novadb/internal/dberr"
	"github.com/tuannm99/novadb/internal/heap"
	"github.com/tuannm99/novadb/internal/metrics"
	"github.com/tuannm99/novadb/internal/record"
	"github.com/tuannm99/novadb/internal/sql/executor"
	"github.com/tuannm99/novadb/internal/sql/parser"
	"github.com/tuannm99/novadb/internal/storage"
)

var ErrDatabaseClosed = errors.New("novadb: database is closed")

const tracerName = "github.com/tuannm99/novadb/engine"

// Database is single-threaded: callers sharing one instance serialise their
// calls.
type Database struct {
	store   *storage.Store
	tables  map[string]*heap.Table
	order   []string
	exec    *executor.Executor
	cache   *cache.ResultCache
	metrics *metrics.Metrics
	log     *slog.Logger
	tracer  trace.Tracer
	closed  bool
}

var _ executor.Registry = (*Database)(nil)

// Open builds the storage engine, loads the catalog and every table, and
// rebuilds their indexes.
func Open(opts Options) (*Database, error) {
	opts = opts.withDefaults()

	eng := opts.Engine
	if eng == nil {
		var err error
		eng, err = storage.NewEngine(storage.Options{
			Mode:        opts.Mode,
			Dir:         opts.Dir,
			FileExt:     opts.FileExt,
			RedisAddr:   opts.RedisAddr,
			RedisPrefix: opts.RedisPrefix,
		})
		if err != nil {
			return nil, dberr.StorageIO("", err)
		}
	}
	codec, err := storage.ParseCodec(opts.Codec)
	if err != nil {
		_ = eng.Close()
		return nil, err
	}

	db := &Database{
		store:   storage.NewStore(eng, codec),
		tables:  make(map[string]*heap.Table),
		metrics: opts.Metrics,
		log:     opts.Logger,
		tracer:  otel.Tracer(tracerName),
	}
	if opts.CacheSize > 0 {
		db.cache = cache.New(opts.CacheSize, opts.CacheTTL)
		db.metrics.ObserveCacheHitRate(db.cache.HitRate)
	}
	db.exec = &executor.Executor{DB: db, Log: db.log}

	if err := db.load(); err != nil {
		_ = db.store.Close()
		return nil, err
	}
	db.log.Info("engine: database opened",
		"mode", opts.Mode.String(), "codec", codec.Name(), "tables", len(db.order))
	return db, nil
}

func (db *Database) load() error {
	defs, err := db.store.LoadCatalog()
	if err != nil {
		return err
	}
	for _, def := range defs {
		if _, dup := db.tables[def.Name]; dup {
			return dberr.StorageFormat(def.Name, "catalog lists the table twice")
		}
		tbl, err := heap.NewTable(def.Name, def.Schema)
		if err != nil {
			return dberr.StorageFormat(def.Name, "%v", err)
		}
		rows, err := db.store.LoadTable(def.Name, def.Schema)
		if err != nil {
			return err
		}
		if err := tbl.Load(rows); err != nil {
			if dberr.KindOf(err) == dberr.KindStorageFormat {
				return err
			}
			return dberr.StorageFormat(def.Name, "persisted rows: %v", err)
		}
		db.tables[def.Name] = tbl
		db.order = append(db.order, def.Name)
		db.log.Debug("engine: table loaded", "table", def.Name, "rows", tbl.Len())
	}

	orphans, err := db.orphanTables()
	if err != nil {
		return err
	}
	for _, name := range orphans {
		db.log.Warn("engine: row document without a catalog entry ignored", "table", name)
	}
	return nil
}

// orphanTables lists row documents whose table is missing from the catalog.
func (db *Database) orphanTables() ([]string, error) {
	names, err := db.store.TableKeys()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, name := range names {
		if _, ok := db.tables[name]; !ok {
			out = append(out, name)
		}
	}
	return out, nil
}

// Table implements planner.Catalog.
func (db *Database) Table(name string) (*heap.Table, bool) {
	t, ok := db.tables[name]
	return t, ok
}

// CreateTable registers an empty table. The catalog is written by Execute
// once the statement has succeeded.
func (db *Database) CreateTable(name string, schema record.Schema) (*heap.Table, error) {
	if _, ok := db.tables[name]; ok {
		return nil, dberr.TableExists(name)
	}
	tbl, err := heap.NewTable(name, schema)
	if err != nil {
		return nil, err
	}
	db.tables[name] = tbl
	db.order = append(db.order, name)
	return tbl, nil
}

func (db *Database) Execute(sql string) (*executor.Result, error) {
	return db.ExecuteContext(context.Background(), sql)
}

// ExecuteContext runs one statement to completion. A mutating statement is
// persisted before ExecuteContext returns.
func (db *Database) ExecuteContext(ctx context.Context, sql string) (*executor.Result, error) {
	if db.closed {
		return nil, ErrDatabaseClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	ctx, span := db.tracer.Start(ctx, "novadb.execute",
		trace.WithAttributes(attribute.String("db.statement", sql)))
	defer span.End()

	kind := "unknown"
	res, err := db.execute(sql, &kind, span)
	d := time.Since(start)

	status := metrics.StatusOK
	if err != nil {
		status = dberr.KindOf(err).String()
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		db.log.WarnContext(ctx, "engine: statement failed",
			"statement", kind, "kind", status, "err", err, "duration", d)
	} else {
		span.SetStatus(codes.Ok, "")
		span.SetAttributes(attribute.Int64("db.rows", res.AffectedRows))
		db.log.DebugContext(ctx, "engine: statement done",
			"statement", kind, "rows", res.AffectedRows, "duration", d)
	}
	span.SetAttributes(attribute.String("db.operation", kind))

	var rows int64
	if res != nil {
		rows = res.AffectedRows
	}
	db.metrics.ObserveStatement(kind, status, rows, d)
	return res, err
}

func (db *Database) execute(sql string, kind *string, span trace.Span) (*executor.Result, error) {
	if db.cache != nil && looksLikeSelect(sql) {
		if res, ok := db.cache.Get(sql); ok {
			*kind = "select"
			db.metrics.CacheHit()
			span.SetAttributes(attribute.Bool("db.cache_hit", true))
			return res, nil
		}
		db.metrics.CacheMiss()
	}

	stmt, err := parser.Parse(sql)
	if err != nil {
		return nil, err
	}
	*kind = statementKind(stmt)

	res, err := db.exec.ExecStatement(stmt)
	if err != nil {
		return nil, err
	}

	if _, ok := stmt.(*parser.SelectStmt); ok {
		if db.cache != nil {
			if err := db.cache.Put(sql, res); err != nil {
				db.log.Warn("engine: result not cached", "err", err)
			}
		}
		return res, nil
	}

	if db.cache != nil {
		db.cache.Invalidate()
	}
	if err := db.persist(stmt); err != nil {
		return nil, err
	}
	return res, nil
}

// persist writes what a successful mutating statement changed: the catalog
// for CREATE TABLE, the full row set of the table for DML.
func (db *Database) persist(stmt parser.Statement) error {
	switch s := stmt.(type) {
	case *parser.CreateTableStmt:
		if err := db.store.SaveCatalog(db.defs()); err != nil {
			return err
		}
		return db.saveTable(s.TableName)
	case *parser.InsertStmt:
		return db.saveTable(s.TableName)
	case *parser.UpdateStmt:
		return db.saveTable(s.TableName)
	case *parser.DeleteStmt:
		return db.saveTable(s.TableName)
	}
	return nil
}

func (db *Database) saveTable(name string) error {
	tbl, ok := db.tables[name]
	if !ok {
		return dberr.TableNotFound(name)
	}
	return db.store.SaveTable(name, tbl.Schema, tbl.Rows())
}

func (db *Database) defs() []record.TableDef {
	out := make([]record.TableDef, len(db.order))
	for i, name := range db.order {
		out[i] = record.TableDef{Name: name, Schema: db.tables[name].Schema}
	}
	return out
}

// Tables lists table names in creation order.
func (db *Database) Tables() []string {
	return slices.Clone(db.order)
}

func (db *Database) Schema(name string) (record.Schema, error) {
	tbl, ok := db.tables[name]
	if !ok {
		return record.Schema{}, dberr.TableNotFound(name)
	}
	return tbl.Schema, nil
}

func (db *Database) RowCount(name string) (int, error) {
	tbl, ok := db.tables[name]
	if !ok {
		return 0, dberr.TableNotFound(name)
	}
	return tbl.Len(), nil
}

// Metrics exposes the statement metrics, for a /metrics endpoint.
func (db *Database) Metrics() *metrics.Metrics { return db.metrics }

func (db *Database) Close() error {
	if db.closed {
		return nil
	}
	db.closed = true
	if db.cache != nil {
		db.cache.Invalidate()
	}
	return db.store.Close()
}

func statementKind(stmt parser.Statement) string {
	switch stmt.(type) {
	case *parser.CreateTableStmt:
		return "create"
	case *parser.InsertStmt:
		return "insert"
	case *parser.SelectStmt:
		return "select"
	case *parser.UpdateStmt:
		return "update"
	case *parser.DeleteStmt:
		return "delete"
	default:
		return "unknown"
	}
}

func looksLikeSelect(sql string) bool {
	s := strings.TrimSpace(sql)
	return len(s) >= 6 && strings.EqualFold(s[:6], "select")
}

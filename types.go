// Package novadb is the top-level facade of the NovaDB engine.
package novadb

import (
	"github.com/tuannm99/novadb/internal/dberr"
	"github.com/tuannm99/novadb/internal/engine"
	"github.com/tuannm99/novadb/internal/record"
	"github.com/tuannm99/novadb/internal/sql/executor"
	"github.com/tuannm99/novadb/internal/storage"
)

type (
	Database = engine.Database
	Options  = engine.Options
	Result   = executor.Result
	Schema   = record.Schema
	Column   = record.Column

	// Error is the concrete type of every engine error; inspect it with
	// errors.As, or match a kind with errors.Is and the sentinels below.
	Error     = dberr.Error
	ErrorKind = dberr.Kind
)

const (
	ModeFile    = storage.File
	ModeBolt    = storage.Bolt
	ModeLevelDB = storage.LevelDB
	ModePebble  = storage.Pebble
	ModeRedis   = storage.Redis
	ModeMemory  = storage.Memory
)

var (
	ErrParse               = dberr.ErrParse
	ErrTableNotFound       = dberr.ErrTableNotFound
	ErrTableExists         = dberr.ErrTableExists
	ErrColumnNotFound      = dberr.ErrColumnNotFound
	ErrTypeMismatch        = dberr.ErrTypeMismatch
	ErrPrimaryKeyNull      = dberr.ErrPrimaryKeyNull
	ErrPrimaryKeyViolation = dberr.ErrPrimaryKeyViolation
	ErrUniqueViolation     = dberr.ErrUniqueViolation
	ErrStorageIO           = dberr.ErrStorageIO
	ErrStorageFormat       = dberr.ErrStorageFormat

	ErrDatabaseClosed = engine.ErrDatabaseClosed
)

// Open opens (or creates) a database. See Options for the storage choices.
func Open(opts Options) (*Database, error) { return engine.Open(opts) }

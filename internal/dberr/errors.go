// Package dberr defines the error kinds surfaced by Database.Execute.
//
// Every failure carries exactly one Kind. Callers match a kind with
// errors.Is against the Err* sentinels and read details with errors.As:
//
//	var de *dberr.Error
//	if errors.As(err, &de) && de.Kind == dberr.KindPrimaryKeyViolation {
//		...
//	}
package dberr

import (
	"errors"
	"fmt"
	"strings"
)

type Kind uint8

const (
	KindParse Kind = iota + 1
	KindTableNotFound
	KindTableExists
	KindColumnNotFound
	KindTypeMismatch
	KindPrimaryKeyNull
	KindPrimaryKeyViolation
	KindUniqueViolation
	KindStorageIO
	KindStorageFormat
)

var kindNames = map[Kind]string{
	KindParse:               "ParseError",
	KindTableNotFound:       "TableNotFoundError",
	KindTableExists:         "TableExistsError",
	KindColumnNotFound:      "ColumnNotFoundError",
	KindTypeMismatch:        "TypeMismatchError",
	KindPrimaryKeyNull:      "PrimaryKeyNullError",
	KindPrimaryKeyViolation: "PrimaryKeyViolationError",
	KindUniqueViolation:     "UniqueConstraintViolationError",
	KindStorageIO:           "StorageIOError",
	KindStorageFormat:       "StorageFormatError",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "UnknownError"
}

// ParseKind is the inverse of Kind.String. It returns 0 for unknown names.
func ParseKind(name string) Kind {
	for k, s := range kindNames {
		if s == name {
			return k
		}
	}
	return 0
}

// Sentinels for errors.Is. They compare by Kind only.
var (
	ErrParse               = &Error{Kind: KindParse}
	ErrTableNotFound       = &Error{Kind: KindTableNotFound}
	ErrTableExists         = &Error{Kind: KindTableExists}
	ErrColumnNotFound      = &Error{Kind: KindColumnNotFound}
	ErrTypeMismatch        = &Error{Kind: KindTypeMismatch}
	ErrPrimaryKeyNull      = &Error{Kind: KindPrimaryKeyNull}
	ErrPrimaryKeyViolation = &Error{Kind: KindPrimaryKeyViolation}
	ErrUniqueViolation     = &Error{Kind: KindUniqueViolation}
	ErrStorageIO           = &Error{Kind: KindStorageIO}
	ErrStorageFormat       = &Error{Kind: KindStorageFormat}
)

// Error is the single concrete error type of the engine.
type Error struct {
	Kind Kind

	Table  string
	Column string
	// Value is the offending value rendered as text (constraint and type errors).
	Value string

	// Fragment and Offset locate a ParseError in the statement text.
	Fragment string
	Offset   int

	Msg string
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("novadb: ")
	b.WriteString(e.Kind.String())
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Kind == KindParse && e.Fragment != "" {
		fmt.Fprintf(&b, " near %q (offset %d)", e.Fragment, e.Offset)
	}
	if e.Table != "" {
		fmt.Fprintf(&b, " table=%s", e.Table)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, " column=%s", e.Column)
	}
	if e.Value != "" {
		fmt.Fprintf(&b, " value=%s", e.Value)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of err, or 0 when err is not an engine error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func Parse(fragment string, offset int, format string, args ...any) *Error {
	return &Error{Kind: KindParse, Fragment: fragment, Offset: offset, Msg: fmt.Sprintf(format, args...)}
}

func TableNotFound(table string) *Error {
	return &Error{Kind: KindTableNotFound, Table: table, Msg: "table does not exist"}
}

func TableExists(table string) *Error {
	return &Error{Kind: KindTableExists, Table: table, Msg: "table already exists"}
}

func ColumnNotFound(table, column string) *Error {
	return &Error{Kind: KindColumnNotFound, Table: table, Column: column, Msg: "unknown column"}
}

func TypeMismatch(column, value, format string, args ...any) *Error {
	return &Error{Kind: KindTypeMismatch, Column: column, Value: value, Msg: fmt.Sprintf(format, args...)}
}

func PrimaryKeyNull(table, column string) *Error {
	return &Error{Kind: KindPrimaryKeyNull, Table: table, Column: column, Msg: "primary key cannot be NULL"}
}

func PrimaryKeyViolation(table, column, value string) *Error {
	return &Error{Kind: KindPrimaryKeyViolation, Table: table, Column: column, Value: value, Msg: "duplicate primary key"}
}

func UniqueViolation(table, column, value string) *Error {
	return &Error{Kind: KindUniqueViolation, Table: table, Column: column, Value: value, Msg: "duplicate value in unique column"}
}

func StorageIO(table string, err error) *Error {
	return &Error{Kind: KindStorageIO, Table: table, Err: err}
}

func StorageFormat(table, format string, args ...any) *Error {
	return &Error{Kind: KindStorageFormat, Table: table, Msg: fmt.Sprintf(format, args...)}
}

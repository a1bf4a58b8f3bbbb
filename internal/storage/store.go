package storage

import (
	"github.com/pkg/errors"

	"github.com/tuannm99/novadb/internal/dberr"
	"github.com/tuannm99/novadb/internal/record"
)

const (
	CatalogKey  = "catalog"
	tablePrefix = "table."
)

func TableKey(name string) string { return tablePrefix + name }

// Store reads and writes the persisted layout: the ordered catalog of table
// definitions, and one document of rows per table.
type Store struct {
	engine Engine
	codec  Codec
}

func NewStore(engine Engine, codec Codec) *Store {
	if codec == nil {
		codec = JSONCodec{}
	}
	return &Store{engine: engine, codec: codec}
}

func (s *Store) Engine() Engine { return s.engine }

type columnDoc struct {
	Name       string `json:"name" msgpack:"name"`
	Type       string `json:"type" msgpack:"type"`
	PrimaryKey bool   `json:"primary_key,omitempty" msgpack:"primary_key,omitempty"`
	Unique     bool   `json:"unique,omitempty" msgpack:"unique,omitempty"`
}

type tableDefDoc struct {
	Name    string      `json:"name" msgpack:"name"`
	Columns []columnDoc `json:"columns" msgpack:"columns"`
}

type catalogDoc struct {
	Tables []tableDefDoc `json:"tables" msgpack:"tables"`
}

type tableDoc struct {
	Table string           `json:"table" msgpack:"table"`
	Rows  []map[string]any `json:"rows" msgpack:"rows"`
}

// LoadCatalog returns the table definitions in creation order. A missing
// catalog is an empty database.
func (s *Store) LoadCatalog() ([]record.TableDef, error) {
	data, err := s.engine.Read(CatalogKey)
	if errors.Is(err, ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dberr.StorageIO("", errors.Wrap(err, "read catalog"))
	}

	var doc catalogDoc
	if err := s.codec.Unmarshal(data, &doc); err != nil {
		return nil, dberr.StorageFormat("", "catalog: %v", err)
	}

	defs := make([]record.TableDef, 0, len(doc.Tables))
	for _, td := range doc.Tables {
		if td.Name == "" {
			return nil, dberr.StorageFormat("", "catalog: table without a name")
		}
		cols := make([]record.Column, len(td.Columns))
		for i, c := range td.Columns {
			typ, err := record.ParseColumnType(c.Type)
			if err != nil {
				return nil, dberr.StorageFormat(td.Name, "catalog: column %s: %v", c.Name, err)
			}
			cols[i] = record.Column{Name: c.Name, Type: typ, PrimaryKey: c.PrimaryKey, Unique: c.Unique}
		}
		schema := record.Schema{Cols: cols}
		if err := schema.Validate(); err != nil {
			return nil, dberr.StorageFormat(td.Name, "catalog: %v", err)
		}
		defs = append(defs, record.TableDef{Name: td.Name, Schema: schema})
	}
	return defs, nil
}

func (s *Store) SaveCatalog(defs []record.TableDef) error {
	doc := catalogDoc{Tables: make([]tableDefDoc, len(defs))}
	for i, d := range defs {
		cols := make([]columnDoc, len(d.Schema.Cols))
		for j, c := range d.Schema.Cols {
			cols[j] = columnDoc{Name: c.Name, Type: c.Type.String(), PrimaryKey: c.PrimaryKey, Unique: c.Unique}
		}
		doc.Tables[i] = tableDefDoc{Name: d.Name, Columns: cols}
	}

	data, err := s.codec.Marshal(doc)
	if err != nil {
		return dberr.StorageIO("", errors.Wrap(err, "encode catalog"))
	}
	if err := s.engine.Write(CatalogKey, data); err != nil {
		return dberr.StorageIO("", errors.Wrap(err, "write catalog"))
	}
	return nil
}

// LoadTable reads the rows of one table and checks them against schema:
// every row must carry exactly the schema's columns, each value of the
// declared type. A missing document is an empty table.
func (s *Store) LoadTable(name string, schema record.Schema) ([]record.Row, error) {
	data, err := s.engine.Read(TableKey(name))
	if errors.Is(err, ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dberr.StorageIO(name, errors.Wrapf(err, "read table %s", name))
	}

	var doc tableDoc
	if err := s.codec.Unmarshal(data, &doc); err != nil {
		return nil, dberr.StorageFormat(name, "decode: %v", err)
	}
	if doc.Table != "" && doc.Table != name {
		return nil, dberr.StorageFormat(name, "document belongs to table %q", doc.Table)
	}

	rows := make([]record.Row, 0, len(doc.Rows))
	for i, m := range doc.Rows {
		if len(m) != schema.NumCols() {
			return nil, dberr.StorageFormat(name, "row %d has %d fields, schema has %d columns", i, len(m), schema.NumCols())
		}
		row := make(record.Row, schema.NumCols())
		for j, col := range schema.Cols {
			raw, ok := m[col.Name]
			if !ok {
				return nil, dberr.StorageFormat(name, "row %d is missing column %s", i, col.Name)
			}
			v, err := record.FromStored(col, raw)
			if err != nil {
				return nil, dberr.StorageFormat(name, "row %d: %v", i, err)
			}
			row[j] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// SaveTable rewrites the whole row document of a table.
func (s *Store) SaveTable(name string, schema record.Schema, rows []record.Row) error {
	doc := tableDoc{Table: name, Rows: make([]map[string]any, len(rows))}
	for i, r := range rows {
		doc.Rows[i] = r.Map(schema)
	}

	data, err := s.codec.Marshal(doc)
	if err != nil {
		return dberr.StorageIO(name, errors.Wrapf(err, "encode table %s", name))
	}
	if err := s.engine.Write(TableKey(name), data); err != nil {
		return dberr.StorageIO(name, errors.Wrapf(err, "write table %s", name))
	}
	return nil
}

// TableKeys lists the tables that have a row document.
func (s *Store) TableKeys() ([]string, error) {
	keys, err := s.engine.Keys()
	if err != nil {
		return nil, dberr.StorageIO("", errors.Wrap(err, "list keys"))
	}
	var out []string
	for _, k := range keys {
		if len(k) > len(tablePrefix) && k[:len(tablePrefix)] == tablePrefix {
			out = append(out, k[len(tablePrefix):])
		}
	}
	return out, nil
}

// Close flushes and closes the engine.
func (s *Store) Close() error {
	if err := s.engine.Flush(); err != nil {
		_ = s.engine.Close()
		return dberr.StorageIO("", errors.Wrap(err, "flush"))
	}
	if err := s.engine.Close(); err != nil {
		return dberr.StorageIO("", errors.Wrap(err, "close"))
	}
	return nil
}

package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tuannm99/novadb"
	"github.com/tuannm99/novadb/internal/dberr"
	"github.com/tuannm99/novadb/internal/sql/executor"
	"github.com/tuannm99/novadb/sqlclient"
)

// session is where statements go: an embedded database or a server.
type session interface {
	Exec(sql string) (*executor.Result, error)
	Close() error
}

// catalog is implemented by sessions that can list tables.
type catalog interface {
	Tables() []string
	Schema(name string) (novadb.Schema, error)
	RowCount(name string) (int, error)
}

type embedded struct {
	*novadb.Database
}

func (e embedded) Exec(sql string) (*executor.Result, error) { return e.Execute(sql) }

var (
	_ session = embedded{}
	_ catalog = embedded{}
	_ session = (*sqlclient.Client)(nil)
)

const helpText = `meta commands:
  .tables                list tables (embedded mode)
  .schema <table>        show the columns of a table (embedded mode)
  .history               print history
  .help                  show help
  .exit | .quit | \q     quit

sql:
  end a statement with ';'
  multiline is supported (the shell waits until ';')`

var errExit = errors.New("exit")

func isMetaCommand(line string) bool {
	line = strings.TrimSpace(line)
	return strings.HasPrefix(line, ".") || strings.HasPrefix(line, "\\") ||
		line == "quit" || line == "exit"
}

// runMeta handles one meta command. It returns errExit when the shell
// should stop.
func runMeta(w io.Writer, s session, h *History, line string) error {
	fields := strings.Fields(line)
	switch strings.ToLower(fields[0]) {
	case ".exit", ".quit", "\\q", "quit", "exit":
		return errExit
	case ".help", "\\help", "\\?":
		fmt.Fprintln(w, helpText)
	case ".history", "\\history":
		if h != nil {
			h.Print(w, 50)
		}
	case ".tables":
		cat, ok := s.(catalog)
		if !ok {
			fmt.Fprintln(w, ".tables needs embedded mode (-data-dir)")
			return nil
		}
		tables := cat.Tables()
		if len(tables) == 0 {
			fmt.Fprintln(w, "(no tables)")
			return nil
		}
		for _, name := range tables {
			n, _ := cat.RowCount(name)
			fmt.Fprintf(w, "%s (%d rows)\n", name, n)
		}
	case ".schema":
		cat, ok := s.(catalog)
		if !ok {
			fmt.Fprintln(w, ".schema needs embedded mode (-data-dir)")
			return nil
		}
		if len(fields) != 2 {
			fmt.Fprintln(w, "usage: .schema <table>")
			return nil
		}
		schema, err := cat.Schema(fields[1])
		if err != nil {
			printError(w, err)
			return nil
		}
		printSchema(w, fields[1], schema)
	default:
		fmt.Fprintf(w, "unknown command: %s\n", line)
	}
	return nil
}

func printSchema(w io.Writer, table string, schema novadb.Schema) {
	fmt.Fprintf(w, "CREATE TABLE %s (\n", table)
	for i, c := range schema.Cols {
		fmt.Fprintf(w, "  %s %s", c.Name, c.Type)
		if c.PrimaryKey {
			fmt.Fprint(w, " PRIMARY KEY")
		}
		if c.Unique {
			fmt.Fprint(w, " UNIQUE")
		}
		if i < len(schema.Cols)-1 {
			fmt.Fprint(w, ",")
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, ");")
}

// printError renders an engine error by kind; the engine itself leaves
// user-facing wording to its callers.
func printError(w io.Writer, err error) {
	var de *dberr.Error
	if errors.As(err, &de) {
		switch de.Kind {
		case dberr.KindParse:
			fmt.Fprintf(w, "syntax error near %q at offset %d\n", de.Fragment, de.Offset)
			return
		case dberr.KindTableNotFound:
			fmt.Fprintf(w, "no such table: %s\n", de.Table)
			return
		case dberr.KindPrimaryKeyViolation:
			fmt.Fprintf(w, "duplicate primary key %s in %s\n", de.Value, de.Table)
			return
		case dberr.KindUniqueViolation:
			fmt.Fprintf(w, "duplicate value %s for unique column %s.%s\n", de.Value, de.Table, de.Column)
			return
		}
	}
	fmt.Fprintf(w, "error: %v\n", err)
}

// statementComplete checks if we have a terminating ';' outside quotes.
func statementComplete(buf string) bool {
	var quote rune
	escaped := false

	for _, r := range buf {
		if escaped {
			escaped = false
			continue
		}
		if r == '\\' && quote != 0 {
			escaped = true
			continue
		}
		if r == '\'' || r == '"' {
			switch quote {
			case 0:
				quote = r
			case r:
				quote = 0
			}
			continue
		}
		if r == ';' && quote == 0 {
			return true
		}
	}
	return false
}

func formatCell(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", v)
}

func printResult(w io.Writer, res *executor.Result) {
	if !res.IsQuery() {
		// DDL/DML
		fmt.Fprintf(w, "OK (%d affected)\n", res.AffectedRows)
		return
	}

	cols := res.Columns
	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = len(c)
	}
	cells := make([][]string, len(res.Rows))
	for r, row := range res.Rows {
		cells[r] = make([]string, len(cols))
		for i := range cols {
			s := "NULL"
			if i < len(row) {
				s = formatCell(row[i])
			}
			cells[r][i] = s
			widths[i] = max(widths[i], len(s))
		}
	}

	printRow := func(values []string) {
		for i := range cols {
			if i > 0 {
				fmt.Fprint(w, " | ")
			}
			fmt.Fprint(w, padRight(values[i], widths[i]))
		}
		fmt.Fprintln(w)
	}

	printRow(cols)
	for i := range cols {
		if i > 0 {
			fmt.Fprint(w, "-+-")
		}
		fmt.Fprint(w, strings.Repeat("-", widths[i]))
	}
	fmt.Fprintln(w)
	for _, row := range cells {
		printRow(row)
	}
	fmt.Fprintf(w, "(%d rows)\n", len(res.Rows))
}

func padRight(s string, w int) string {
	if len(s) >= w {
		return s
	}
	return s + strings.Repeat(" ", w-len(s))
}

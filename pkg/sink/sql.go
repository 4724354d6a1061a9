package sink

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	_ "github.com/lib/pq"           // postgres driver
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver

	"github.com/ccollicutt/walog/pkg/config"
	"github.com/ccollicutt/walog/pkg/parser"
)

// Driver names registered by the imported database drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// SQLWriter inserts records into a table inside a single transaction.
// Rows become visible when Close commits.
type SQLWriter struct {
	db     *sql.DB
	tx     *sql.Tx
	stmt   *sql.Stmt
	driver string
	table  string
	header header
	rows   int
}

// pingTimeout bounds the connectivity check on open.
const pingTimeout = 5 * time.Second

// Connect opens a database handle and verifies it answers a ping.
func Connect(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("invalid %s data source", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

// OpenSQL connects with the given driver and data source, creates the table
// if needed and starts the insert transaction.
func OpenSQL(ctx context.Context, driver, dsn, table string) (*SQLWriter, error) {
	db, err := Connect(ctx, driver, dsn)
	if err != nil {
		return nil, err
	}

	w, err := NewSQLWriter(ctx, db, driver, table)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return w, nil
}

// NewSQLWriter prepares db for inserts. The writer owns db and closes it.
func NewSQLWriter(ctx context.Context, db *sql.DB, driver, table string) (*SQLWriter, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	if _, err := db.ExecContext(ctx, createTableSQL(table)); err != nil {
		return nil, fmt.Errorf("creating table %s: %w", table, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertSQL(driver, table))
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("preparing insert: %w", err)
	}

	return &SQLWriter{
		db:     db,
		tx:     tx,
		stmt:   stmt,
		driver: driver,
		table:  table,
	}, nil
}

// Format returns "sqlite" or "postgres".
func (w *SQLWriter) Format() string {
	if w.driver == DriverPostgres {
		return config.FormatPostgres
	}
	return config.FormatSQLite
}

// Rows returns the number of rows inserted so far.
func (w *SQLWriter) Rows() int {
	return w.rows
}

// Write inserts one record.
func (w *SQLWriter) Write(ctx context.Context, rec *parser.Record) error {
	values := rec.Values()
	if _, err := w.header.check(parser.Columns(), values); err != nil {
		return fmt.Errorf("record at line %d: %w", rec.LineNumber, err)
	}

	args := make([]any, len(values))
	args[0] = rec.LineNumber
	for i := 1; i < len(values); i++ {
		args[i] = sanitizeUTF8(values[i])
	}

	if _, err := w.stmt.ExecContext(ctx, args...); err != nil {
		return fmt.Errorf("inserting record at line %d: %w", rec.LineNumber, err)
	}
	w.rows++
	return nil
}

// Close commits the transaction and closes the database.
func (w *SQLWriter) Close() error {
	var err error
	if w.stmt != nil {
		err = w.stmt.Close()
		w.stmt = nil
	}
	if w.tx != nil {
		if cerr := w.tx.Commit(); cerr != nil && err == nil {
			err = fmt.Errorf("commit: %w", cerr)
		}
		w.tx = nil
	}
	if w.db != nil {
		if cerr := w.db.Close(); cerr != nil && err == nil {
			err = cerr
		}
		w.db = nil
	}
	return err
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func createTableSQL(table string) string {
	cols := parser.Columns()
	defs := make([]string, len(cols))
	for i, c := range cols {
		typ := "TEXT NOT NULL DEFAULT ''"
		if c == parser.ColLineNumber {
			typ = "INTEGER NOT NULL"
		}
		defs[i] = quoteIdent(c) + " " + typ
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", quoteIdent(table), strings.Join(defs, ",\n\t"))
}

func insertSQL(driver, table string) string {
	cols := parser.Columns()
	names := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		names[i] = quoteIdent(c)
		if driver == DriverPostgres {
			marks[i] = fmt.Sprintf("$%d", i+1)
		} else {
			marks[i] = "?"
		}
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table), strings.Join(names, ", "), strings.Join(marks, ", "))
}

// sanitizeUTF8 replaces invalid byte sequences; postgres rejects them in TEXT.
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "�")
}

// Package store owns the relational side of the mirror: dialects, the
// long-lived connection, transactions, and DDL generation.
//
// The engine is logically single-writer. One connection is acquired at start
// and kept for the lifetime of the process; every write happens inside a
// transaction obtained from Begin.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// Now3MSFormat is the client-side wall-clock format used for insert_ts and
// event timestamps: UTC, millisecond precision, identical to what the
// dialect Now3MS literals produce.
const Now3MSFormat = "2006-01-02 15:04:05.000"

// Now3MS formats a time in the engine's canonical timestamp format.
func Now3MS(t time.Time) string {
	return t.UTC().Format(Now3MSFormat)
}

// Store is one open target database.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// Open connects to the target database and verifies the connection.
//
// SQLite targets are configured with WAL mode, NORMAL synchronous, and a 5s
// busy timeout. All engines are limited to a single connection, matching the
// engine's serialized-transaction model.
func Open(d Dialect, dsn string) (*Store, error) {
	db, err := sql.Open(d.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.Name(), err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect %s: %w", d.Name(), err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if d.Name() == "sqlite" {
		if err := applySQLitePragmas(db); err != nil {
			db.Close()
			return nil, err
		}
	}

	return &Store{db: db, dialect: d}, nil
}

// OpenDB wraps an already-open connection. Used by tests that share an
// in-memory database.
func OpenDB(d Dialect, db *sql.DB) *Store {
	return &Store{db: db, dialect: d}
}

func applySQLitePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("apply %q: %w", p, err)
		}
	}
	return nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Dialect returns the dialect this store was opened with.
func (s *Store) Dialect() Dialect { return s.dialect }

// DB returns the underlying sql.DB for direct queries. Tests use this;
// engine code goes through transactions.
func (s *Store) DB() *sql.DB { return s.db }

// Begin opens a transaction stamped with the given wall clock. The
// timestamp is threaded through the transaction so every row written in it
// carries the same insert_ts and the primitives never read the clock
// themselves.
func (s *Store) Begin(ctx context.Context, now time.Time) (*Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	return &Tx{tx: tx, ctx: ctx, dialect: s.dialect, now: Now3MS(now)}, nil
}

// CreateSchema executes the DDL for the given tables. Idempotent via
// IF NOT EXISTS.
func (s *Store) CreateSchema(ctx context.Context, tables []DDLTable) error {
	for _, t := range tables {
		for _, stmt := range CreateTableSQL(s.dialect, t) {
			if _, err := s.db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("create %s: %w", t.Table.Name, err)
			}
		}
	}
	return nil
}

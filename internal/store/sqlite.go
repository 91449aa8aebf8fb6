package store

import (
	"fmt"

	"github.com/roach88/tabledog/internal/meta"
)

// SQLite is the default target. One connection, WAL mode, writes serialized
// by the engine.
type SQLite struct{}

func (SQLite) Name() string       { return "sqlite" }
func (SQLite) DriverName() string { return "sqlite3" }

func (SQLite) Placeholder(int) string { return "?" }

func (SQLite) QuoteIdent(ident string) string { return `"` + ident + `"` }

// Now3MS matches the engine's client-side timestamp format
// (`2006-01-02 15:04:05.000`, UTC).
func (SQLite) Now3MS() string { return `STRFTIME('%Y-%m-%d %H:%M:%f', 'NOW')` }

func (SQLite) ColumnType(k meta.Kind) string {
	switch k {
	case meta.KindInt64:
		return "INTEGER"
	case meta.KindBool:
		return "INTEGER"
	case meta.KindFloat64:
		return "REAL"
	default:
		return "TEXT"
	}
}

func (SQLite) JSONColumnType() string { return "TEXT" }

func (SQLite) TimestampColumnType() string { return "TEXT" }

func (SQLite) AutoPKColumn(name string) string {
	return fmt.Sprintf("%q INTEGER PRIMARY KEY AUTOINCREMENT", name)
}

func (SQLite) InsertReturningID() bool { return false }

func (SQLite) InlineIndexes() bool { return false }

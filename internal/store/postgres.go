package store

import (
	"fmt"

	"github.com/roach88/tabledog/internal/meta"
)

// Postgres dialect, used through pgx's database/sql adapter. Positional $N
// parameters and RETURNING for generated keys.
type Postgres struct{}

func (Postgres) Name() string       { return "postgres" }
func (Postgres) DriverName() string { return "pgx" }

func (Postgres) Placeholder(i int) string { return fmt.Sprintf("$%d", i) }

func (Postgres) QuoteIdent(ident string) string { return `"` + ident + `"` }

func (Postgres) Now3MS() string {
	return "(now() AT TIME ZONE 'utc')::timestamp(3)"
}

func (Postgres) ColumnType(k meta.Kind) string {
	switch k {
	case meta.KindInt64:
		return "BIGINT"
	case meta.KindBool:
		return "BOOLEAN"
	case meta.KindFloat64:
		return "DOUBLE PRECISION"
	default:
		return "TEXT"
	}
}

func (Postgres) JSONColumnType() string { return "JSONB" }

func (Postgres) TimestampColumnType() string { return "TIMESTAMP(3)" }

func (Postgres) AutoPKColumn(name string) string {
	return fmt.Sprintf("%q BIGSERIAL PRIMARY KEY", name)
}

func (Postgres) InsertReturningID() bool { return true }

func (Postgres) InlineIndexes() bool { return false }

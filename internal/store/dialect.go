package store

import (
	"fmt"
	"strings"

	"github.com/roach88/tabledog/internal/meta"
)

// Dialect isolates the per-engine SQL quirks. The engine's SQL templates are
// composed from these primitives; everything else is shared.
type Dialect interface {
	// Name is the dialect key used in logs and golden files.
	Name() string

	// DriverName is the database/sql driver registration name.
	DriverName() string

	// Placeholder returns the parameter marker for the i-th (1-based)
	// bound value.
	Placeholder(i int) string

	// QuoteIdent quotes a table or column identifier.
	QuoteIdent(ident string) string

	// Now3MS is a literal yielding the current UTC time at millisecond
	// precision. It must be accepted in a VALUES position and in
	// `UPDATE ... SET col = <literal>`.
	Now3MS() string

	// ColumnType translates a portable column kind to a concrete type.
	ColumnType(k meta.Kind) string

	// JSONColumnType is the column type for nested-document columns.
	JSONColumnType() string

	// TimestampColumnType is the column type for wall-clock columns
	// (insert_ts, update_ts, provider datetimes).
	TimestampColumnType() string

	// AutoPKColumn renders the surrogate integer primary key column.
	AutoPKColumn(name string) string

	// InsertReturningID reports whether inserts must use a RETURNING
	// clause to obtain the generated key (true) or Result.LastInsertId
	// (false).
	InsertReturningID() bool

	// InlineIndexes reports whether secondary indexes must be declared
	// inside CREATE TABLE (MySQL has no CREATE INDEX IF NOT EXISTS).
	InlineIndexes() bool
}

// rebind rewrites a `:name` parameterized statement into the dialect's
// positional form and returns the ordered argument list. Every named
// parameter in the SQL must be present in params; unused params are an
// error, since a silently dropped value is almost always a bug.
func rebind(d Dialect, query string, params []meta.NamedValue) (string, []any, error) {
	byName := make(map[string]any, len(params))
	for _, p := range params {
		byName[p.Name] = p.Value
	}

	var (
		sb   strings.Builder
		args []any
		used = make(map[string]bool, len(params))
	)

	for i := 0; i < len(query); i++ {
		c := query[i]
		// `::` is a Postgres cast, not a parameter.
		if c == ':' && i+1 < len(query) && query[i+1] == ':' {
			sb.WriteString("::")
			i++
			continue
		}
		if c != ':' || i+1 >= len(query) || !isIdentStart(query[i+1]) {
			sb.WriteByte(c)
			continue
		}

		j := i + 1
		for j < len(query) && isIdentPart(query[j]) {
			j++
		}
		name := query[i+1 : j]
		val, ok := byName[name]
		if !ok {
			return "", nil, fmt.Errorf("store: missing parameter :%s", name)
		}
		used[name] = true
		args = append(args, val)
		sb.WriteString(d.Placeholder(len(args)))
		i = j - 1
	}

	for _, p := range params {
		if !used[p.Name] {
			return "", nil, fmt.Errorf("store: unused parameter :%s", p.Name)
		}
	}

	return sb.String(), args, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

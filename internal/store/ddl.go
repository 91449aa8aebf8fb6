package store

import (
	"fmt"
	"strings"

	"github.com/roach88/tabledog/internal/meta"
)

// DDLTable pairs a mapped table with the secondary indexes it wants. The
// DDL is emitted from the same metadata that produces row tuples, so the
// dialect shim owns only column-type translation.
type DDLTable struct {
	Table *meta.Table

	// Indexes lists non-unique secondary indexes, one per column set.
	// Parent-pointer columns on child tables belong here.
	Indexes [][]string
}

// CreateTableSQL renders the CREATE TABLE statement plus index statements
// for one table.
func CreateTableSQL(d Dialect, t DDLTable) []string {
	tbl := t.Table
	var cols []string

	for _, c := range tbl.Cols {
		if c.PK {
			cols = append(cols, d.AutoPKColumn(c.Name))
			continue
		}

		var typ string
		switch {
		case c.JSON:
			typ = d.JSONColumnType()
		case c.DT || c.InsertTS || c.UpdateTS:
			typ = d.TimestampColumnType()
		default:
			typ = d.ColumnType(c.Kind)
		}

		def := fmt.Sprintf("%s %s", d.QuoteIdent(c.Name), typ)
		if !c.Nullable {
			def += " NOT NULL"
		}
		if c.Unique {
			def += " UNIQUE"
		}
		cols = append(cols, def)
	}

	if d.InlineIndexes() {
		for _, idx := range t.Indexes {
			quoted := make([]string, len(idx))
			for i, c := range idx {
				quoted[i] = d.QuoteIdent(c)
			}
			name := fmt.Sprintf("idx_%s_%s", tbl.Name, strings.Join(idx, "_"))
			cols = append(cols, fmt.Sprintf("INDEX %s (%s)", d.QuoteIdent(name), strings.Join(quoted, ", ")))
		}
	}

	stmts := []string{fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n  %s\n)",
		d.QuoteIdent(tbl.Name), strings.Join(cols, ",\n  "),
	)}

	if !d.InlineIndexes() {
		for _, idx := range t.Indexes {
			quoted := make([]string, len(idx))
			for i, c := range idx {
				quoted[i] = d.QuoteIdent(c)
			}
			name := fmt.Sprintf("idx_%s_%s", tbl.Name, strings.Join(idx, "_"))
			stmts = append(stmts, fmt.Sprintf(
				"CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
				d.QuoteIdent(name), d.QuoteIdent(tbl.Name), strings.Join(quoted, ", "),
			))
		}
	}

	return stmts
}

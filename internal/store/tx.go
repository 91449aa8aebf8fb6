package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/roach88/tabledog/internal/meta"
)

// Tx is one engine transaction. It carries the dialect for SQL generation
// and the wall-clock timestamp captured at Begin, so row primitives never
// read the clock themselves.
type Tx struct {
	tx      *sql.Tx
	ctx     context.Context
	dialect Dialect
	now     string
}

// Now returns the transaction's wall-clock stamp (3ms format, UTC).
func (t *Tx) Now() string { return t.now }

// Dialect returns the dialect the transaction renders SQL for.
func (t *Tx) Dialect() Dialect { return t.dialect }

// Commit commits the transaction.
func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Rollback rolls the transaction back. Safe to defer after Commit.
func (t *Tx) Rollback() error {
	err := t.tx.Rollback()
	if err == sql.ErrTxDone {
		return nil
	}
	return err
}

// ExecNamed executes a `:name` parameterized statement and returns the
// number of rows affected.
func (t *Tx) ExecNamed(query string, params []meta.NamedValue) (int64, error) {
	q, args, err := rebind(t.dialect, query, params)
	if err != nil {
		return 0, err
	}
	res, err := t.tx.ExecContext(t.ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// QueryNamed runs a `:name` parameterized query. Callers close the rows.
func (t *Tx) QueryNamed(query string, params []meta.NamedValue) (*sql.Rows, error) {
	q, args, err := rebind(t.dialect, query, params)
	if err != nil {
		return nil, err
	}
	return t.tx.QueryContext(t.ctx, q, args...)
}

// Exists reports whether the table contains a row with the given provider
// id.
func (t *Tx) Exists(tbl *meta.Table, id string) (bool, error) {
	q := fmt.Sprintf("SELECT 1 FROM %s WHERE %s = :id LIMIT 1",
		t.dialect.QuoteIdent(tbl.Name), t.dialect.QuoteIdent("id"))
	rows, err := t.QueryNamed(q, []meta.NamedValue{{Name: "id", Value: id}})
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", tbl.Name, err)
	}
	defer rows.Close()
	return rows.Next(), rows.Err()
}

// InsertTS returns the insert_ts of the row with the given id, or "" when
// the row does not exist.
func (t *Tx) InsertTS(tbl *meta.Table, id string) (string, error) {
	q := fmt.Sprintf("SELECT %s FROM %s WHERE %s = :id LIMIT 1",
		t.dialect.QuoteIdent("insert_ts"), t.dialect.QuoteIdent(tbl.Name), t.dialect.QuoteIdent("id"))
	rows, err := t.QueryNamed(q, []meta.NamedValue{{Name: "id", Value: id}})
	if err != nil {
		return "", fmt.Errorf("insert_ts %s: %w", tbl.Name, err)
	}
	defer rows.Close()
	if !rows.Next() {
		return "", rows.Err()
	}
	var ts string
	if err := rows.Scan(&ts); err != nil {
		return "", err
	}
	return ts, nil
}

// InsertRow inserts a row, stamps its insert_ts from the transaction clock,
// and writes the generated surrogate key back onto the row.
func (t *Tx) InsertRow(tbl *meta.Table, row any) error {
	tbl.SetInsertTS(row, t.now)

	cols := tbl.InsertCols()
	vals := tbl.Values(row, cols)

	names := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		names[i] = t.dialect.QuoteIdent(c.Name)
		marks[i] = ":" + c.Name
	}

	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.dialect.QuoteIdent(tbl.Name), strings.Join(names, ", "), strings.Join(marks, ", "))

	if t.dialect.InsertReturningID() {
		q += " RETURNING " + t.dialect.QuoteIdent(tbl.PKName())
		rows, err := t.QueryNamed(q, vals)
		if err != nil {
			return fmt.Errorf("insert %s: %w", tbl.Name, err)
		}
		defer rows.Close()
		if !rows.Next() {
			if err := rows.Err(); err != nil {
				return fmt.Errorf("insert %s: %w", tbl.Name, err)
			}
			return fmt.Errorf("insert %s: no returned key", tbl.Name)
		}
		var pk int64
		if err := rows.Scan(&pk); err != nil {
			return fmt.Errorf("insert %s: %w", tbl.Name, err)
		}
		tbl.SetPK(row, pk)
		return nil
	}

	rq, args, err := rebind(t.dialect, q, vals)
	if err != nil {
		return err
	}
	res, err := t.tx.ExecContext(t.ctx, rq, args...)
	if err != nil {
		return fmt.Errorf("insert %s: %w", tbl.Name, err)
	}
	pk, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert %s: last insert id: %w", tbl.Name, err)
	}
	tbl.SetPK(row, pk)
	return nil
}

// UpdateRow updates every writable column where whereCol matches the row's
// value for that column, and sets update_ts server-side via the dialect's
// Now3MS literal. Returns the number of rows matched.
func (t *Tx) UpdateRow(tbl *meta.Table, row any, whereCol string) (int64, error) {
	cols := tbl.UpdateCols(whereCol)
	vals := tbl.Values(row, cols)

	sets := make([]string, 0, len(cols)+1)
	for _, c := range cols {
		sets = append(sets, fmt.Sprintf("%s = :%s", t.dialect.QuoteIdent(c.Name), c.Name))
	}
	if uts := tbl.UpdateTSCol(); uts != "" {
		sets = append(sets, fmt.Sprintf("%s = %s", t.dialect.QuoteIdent(uts), t.dialect.Now3MS()))
	}

	where, err := tbl.Value(row, whereCol)
	if err != nil {
		return 0, err
	}
	// The where column cannot also be assigned; rename its parameter.
	where.Name = "w_" + where.Name
	vals = append(vals, where)

	q := fmt.Sprintf("UPDATE %s SET %s WHERE %s = :%s",
		t.dialect.QuoteIdent(tbl.Name), strings.Join(sets, ", "),
		t.dialect.QuoteIdent(whereCol), where.Name)

	n, err := t.ExecNamed(q, vals)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", tbl.Name, err)
	}
	return n, nil
}

// DeleteRow deletes rows where whereCol matches the row's value. Returns
// the number of rows deleted.
func (t *Tx) DeleteRow(tbl *meta.Table, row any, whereCol string) (int64, error) {
	where, err := tbl.Value(row, whereCol)
	if err != nil {
		return 0, err
	}
	return t.DeleteWhere(tbl, whereCol, where.Value)
}

// DeleteWhere deletes rows where the given column equals the given value.
func (t *Tx) DeleteWhere(tbl *meta.Table, col string, val any) (int64, error) {
	q := fmt.Sprintf("DELETE FROM %s WHERE %s = :w",
		t.dialect.QuoteIdent(tbl.Name), t.dialect.QuoteIdent(col))
	n, err := t.ExecNamed(q, []meta.NamedValue{{Name: "w", Value: val}})
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", tbl.Name, err)
	}
	return n, nil
}

package schema

import (
	"database/sql"
	"fmt"
	"sync/atomic"

	"github.com/roach88/tabledog/internal/meta"
	"github.com/roach88/tabledog/internal/store"
)

// WriteCreate, WriteUpdate, and WriteDelete are the write_type markers in
// the write log.
const (
	WriteCreate = "c"
	WriteUpdate = "u"
	WriteDelete = "d"
)

// Write is one row of td_stripe_writes: a single row write performed by the
// engine. Entries are append-only and written in the same transaction as
// the row they describe.
type Write struct {
	WriteID   *int64  `td:"write_id,pk"`
	RunID     int64   `td:"run_id"`
	Seq       int64   `td:"seq"`
	ObjType   string  `td:"obj_type"`
	ObjID     string  `td:"obj_id"`
	WriteType string  `td:"write_type"`
	EventID   *string `td:"event_id"`
	InsertTS  string  `td:"insert_ts,insert_ts"`
}

// WritesTable is the write log's table metadata.
var WritesTable = meta.MustParse("td_stripe_writes", "td_stripe_write", Write{})

// Seq is the per-run monotonic sequence for write-log entries. The engine
// is single-writer; the atomic mirrors the provider-facing loop being the
// only caller.
type Seq struct {
	n atomic.Int64
}

// Next returns the next sequence number, starting at 1.
func (s *Seq) Next() int64 { return s.n.Add(1) }

// Current returns the last issued sequence number.
func (s *Seq) Current() int64 { return s.n.Load() }

// Writer stamps every row primitive with the run, sequence, and causing
// event. All write-log entries flow through it; no other component writes
// the log.
type Writer struct {
	RunID   int64
	EventID *string
	Seq     *Seq
}

// NewWriter builds a Writer for one run. EventID is set per-event by the
// applier and nil during download.
func NewWriter(runID int64) *Writer {
	return &Writer{RunID: runID, Seq: &Seq{}}
}

// ForEvent returns a shallow copy of the writer attributing subsequent
// writes to the given provider event. The sequence is shared.
func (w *Writer) ForEvent(eventID string) *Writer {
	return &Writer{RunID: w.RunID, EventID: &eventID, Seq: w.Seq}
}

func (w *Writer) logWrite(tx *store.Tx, objType, objID, writeType string) (int64, error) {
	entry := Write{
		RunID:     w.RunID,
		Seq:       w.Seq.Next(),
		ObjType:   objType,
		ObjID:     objID,
		WriteType: writeType,
		EventID:   w.EventID,
	}
	if err := tx.InsertRow(WritesTable, &entry); err != nil {
		return 0, fmt.Errorf("write log %s %s: %w", objType, objID, err)
	}
	return *entry.WriteID, nil
}

// Insert inserts the row, populates its surrogate key, and logs a create.
// A unique violation surfaces as-is; the download path treats it as fatal
// and the apply path upgrades the operation to an update via Upsert.
func (w *Writer) Insert(tx *store.Tx, tbl *meta.Table, row any) (int64, error) {
	if err := tx.InsertRow(tbl, row); err != nil {
		return 0, err
	}
	return w.logWrite(tx, tbl.ObjType, tbl.ID(row), WriteCreate)
}

// Update updates all writable columns where whereCol matches and logs an
// update. Returns ErrNotFound when no row matched.
func (w *Writer) Update(tx *store.Tx, tbl *meta.Table, row any, whereCol string) (int64, error) {
	n, err := tx.UpdateRow(tbl, row, whereCol)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("update %s %s: %w", tbl.Name, tbl.ID(row), ErrNotFound)
	}
	return w.logWrite(tx, tbl.ObjType, tbl.ID(row), WriteUpdate)
}

// Delete deletes rows where whereCol matches and logs a delete.
func (w *Writer) Delete(tx *store.Tx, tbl *meta.Table, row any, whereCol string) (int64, error) {
	if _, err := tx.DeleteRow(tbl, row, whereCol); err != nil {
		return 0, err
	}
	return w.logWrite(tx, tbl.ObjType, tbl.ID(row), WriteDelete)
}

// Upsert writes the first level of the row: update when a row with the
// same provider id exists, insert otherwise. Child rows are the tree
// writers' concern.
func (w *Writer) Upsert(tx *store.Tx, tbl *meta.Table, row any) (int64, error) {
	exists, err := tx.Exists(tbl, tbl.ID(row))
	if err != nil {
		return 0, err
	}
	if exists {
		return w.Update(tx, tbl, row, "id")
	}
	return w.Insert(tx, tbl, row)
}

// DeleteChildren removes every child row whose parent column matches
// parentID, logging one delete per child id. Used by tree writers that
// replace a child set wholesale.
func (w *Writer) DeleteChildren(tx *store.Tx, tbl *meta.Table, parentCol, parentID string) ([]int64, error) {
	q := fmt.Sprintf("SELECT %s FROM %s WHERE %s = :parent",
		tx.Dialect().QuoteIdent("id"), tx.Dialect().QuoteIdent(tbl.Name), tx.Dialect().QuoteIdent(parentCol))
	rows, err := tx.QueryNamed(q, []meta.NamedValue{{Name: "parent", Value: parentID}})
	if err != nil {
		return nil, fmt.Errorf("list children %s: %w", tbl.Name, err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	var writes []int64
	for _, id := range ids {
		if _, err := tx.DeleteWhere(tbl, "id", id); err != nil {
			return nil, err
		}
		wid, err := w.logWrite(tx, tbl.ObjType, id, WriteDelete)
		if err != nil {
			return nil, err
		}
		writes = append(writes, wid)
	}
	return writes, nil
}

// LastWrite returns the most recent write-log entry for (objType, objID),
// or nil when the object was never written.
func LastWrite(tx *store.Tx, objType, objID string) (*Write, error) {
	q := `SELECT write_id, run_id, seq, obj_type, obj_id, write_type, event_id, insert_ts
		FROM td_stripe_writes
		WHERE obj_type = :obj_type AND obj_id = :obj_id
		ORDER BY run_id DESC, seq DESC
		LIMIT 1`
	rows, err := tx.QueryNamed(q, []meta.NamedValue{
		{Name: "obj_type", Value: objType},
		{Name: "obj_id", Value: objID},
	})
	if err != nil {
		return nil, fmt.Errorf("last write %s %s: %w", objType, objID, err)
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, rows.Err()
	}
	var (
		entry Write
		pk    int64
		evID  sql.NullString
	)
	if err := rows.Scan(&pk, &entry.RunID, &entry.Seq, &entry.ObjType, &entry.ObjID, &entry.WriteType, &evID, &entry.InsertTS); err != nil {
		return nil, err
	}
	entry.WriteID = &pk
	if evID.Valid {
		entry.EventID = &evID.String
	}
	return &entry, nil
}

// HasWriteSince reports whether (objType, objID) was written with
// run_id >= runID. The applier uses it to skip events already covered by a
// later write in the current run.
func HasWriteSince(tx *store.Tx, runID int64, objType, objID string) (bool, error) {
	q := `SELECT 1 FROM td_stripe_writes
		WHERE obj_type = :obj_type AND obj_id = :obj_id AND run_id >= :run_id
		LIMIT 1`
	rows, err := tx.QueryNamed(q, []meta.NamedValue{
		{Name: "obj_type", Value: objType},
		{Name: "obj_id", Value: objID},
		{Name: "run_id", Value: runID},
	})
	if err != nil {
		return false, fmt.Errorf("write since %s %s: %w", objType, objID, err)
	}
	defer rows.Close()
	return rows.Next(), rows.Err()
}

// MaxRunID returns the highest run id in the write log, or 0 on an empty
// mirror. Run ids strictly increase across runs; run 1 is the download.
func MaxRunID(tx *store.Tx) (int64, error) {
	rows, err := tx.QueryNamed(`SELECT COALESCE(MAX(run_id), 0) FROM td_stripe_writes`, nil)
	if err != nil {
		return 0, fmt.Errorf("max run id: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		return 0, rows.Err()
	}
	var id int64
	if err := rows.Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

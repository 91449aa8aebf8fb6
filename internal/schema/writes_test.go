package schema

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tabledog/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(store.SQLite{}, t.TempDir()+"/mirror.sqlite")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.CreateSchema(context.Background(), DDLTables()))
	return s
}

func begin(t *testing.T, s *store.Store) *store.Tx {
	t.Helper()
	tx, err := s.Begin(context.Background(), time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	t.Cleanup(func() { tx.Rollback() })
	return tx
}

func readWrites(t *testing.T, tx *store.Tx) []Write {
	t.Helper()
	rows, err := tx.QueryNamed(`SELECT run_id, seq, obj_type, obj_id, write_type
		FROM td_stripe_writes ORDER BY run_id, seq`, nil)
	require.NoError(t, err)
	defer rows.Close()

	var out []Write
	for rows.Next() {
		var w Write
		require.NoError(t, rows.Scan(&w.RunID, &w.Seq, &w.ObjType, &w.ObjID, &w.WriteType))
		out = append(out, w)
	}
	require.NoError(t, rows.Err())
	return out
}

func TestWriterInsertLogsCreate(t *testing.T) {
	s := openTestStore(t)
	tx := begin(t, s)
	w := NewWriter(1)

	row := &CouponRow{ID: "co_1", Duration: "once", Created: "2021-01-01 00:00:00"}
	logID, err := w.Insert(tx, CouponsTable, row)
	require.NoError(t, err)
	assert.Positive(t, logID)

	writes := readWrites(t, tx)
	require.Len(t, writes, 1)
	assert.Equal(t, Write{RunID: 1, Seq: 1, ObjType: "coupon", ObjID: "co_1", WriteType: "c"}, writes[0])
}

func TestWriterUpsertInsertsThenUpdates(t *testing.T) {
	s := openTestStore(t)
	tx := begin(t, s)
	w := NewWriter(1)

	row := &CouponRow{ID: "co_1", Duration: "once", Created: "2021-01-01 00:00:00"}
	_, err := w.Upsert(tx, CouponsTable, row)
	require.NoError(t, err)

	row2 := &CouponRow{ID: "co_1", Duration: "forever", Created: "2021-01-01 00:00:00"}
	_, err = w.Upsert(tx, CouponsTable, row2)
	require.NoError(t, err)

	writes := readWrites(t, tx)
	require.Len(t, writes, 2)
	assert.Equal(t, "c", writes[0].WriteType)
	assert.Equal(t, "u", writes[1].WriteType)
	assert.Equal(t, int64(2), writes[1].Seq, "seq is monotone within a run")
}

func TestWriterUpdateMissingRowIsNotFound(t *testing.T) {
	s := openTestStore(t)
	tx := begin(t, s)
	w := NewWriter(1)

	row := &CouponRow{ID: "co_missing", Duration: "once", Created: "2021-01-01 00:00:00"}
	_, err := w.Update(tx, CouponsTable, row, "id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWriterDeleteLogsDelete(t *testing.T) {
	s := openTestStore(t)
	tx := begin(t, s)
	w := NewWriter(1)

	row := &TaxIDRow{ID: "txi_1", Type: "eu_vat", Value: "DE123", Created: "2021-01-01 00:00:00"}
	_, err := w.Insert(tx, TaxIDsTable, row)
	require.NoError(t, err)
	_, err = w.Delete(tx, TaxIDsTable, row, "id")
	require.NoError(t, err)

	writes := readWrites(t, tx)
	require.Len(t, writes, 2)
	assert.Equal(t, "d", writes[1].WriteType)

	exists, err := tx.Exists(TaxIDsTable, "txi_1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLastWrite(t *testing.T) {
	s := openTestStore(t)
	tx := begin(t, s)

	w1 := NewWriter(1)
	row := &CouponRow{ID: "co_1", Duration: "once", Created: "2021-01-01 00:00:00"}
	_, err := w1.Insert(tx, CouponsTable, row)
	require.NoError(t, err)

	w2 := NewWriter(2)
	row2 := &CouponRow{ID: "co_1", Duration: "forever", Created: "2021-01-01 00:00:00"}
	_, err = w2.Upsert(tx, CouponsTable, row2)
	require.NoError(t, err)

	last, err := LastWrite(tx, "coupon", "co_1")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, int64(2), last.RunID)
	assert.Equal(t, "u", last.WriteType)

	none, err := LastWrite(tx, "coupon", "co_other")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestHasWriteSince(t *testing.T) {
	s := openTestStore(t)
	tx := begin(t, s)

	w := NewWriter(3)
	row := &CouponRow{ID: "co_1", Duration: "once", Created: "2021-01-01 00:00:00"}
	_, err := w.Insert(tx, CouponsTable, row)
	require.NoError(t, err)

	got, err := HasWriteSince(tx, 3, "coupon", "co_1")
	require.NoError(t, err)
	assert.True(t, got)

	got, err = HasWriteSince(tx, 4, "coupon", "co_1")
	require.NoError(t, err)
	assert.False(t, got)
}

func TestMaxRunID(t *testing.T) {
	s := openTestStore(t)
	tx := begin(t, s)

	id, err := MaxRunID(tx)
	require.NoError(t, err)
	assert.Zero(t, id)

	w := NewWriter(7)
	row := &CouponRow{ID: "co_1", Duration: "once", Created: "2021-01-01 00:00:00"}
	_, err = w.Insert(tx, CouponsTable, row)
	require.NoError(t, err)

	id, err = MaxRunID(tx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
}

func TestWriterForEventTagsWrites(t *testing.T) {
	s := openTestStore(t)
	tx := begin(t, s)

	w := NewWriter(2).ForEvent("evt_1")
	row := &CouponRow{ID: "co_1", Duration: "once", Created: "2021-01-01 00:00:00"}
	_, err := w.Insert(tx, CouponsTable, row)
	require.NoError(t, err)

	rows, err := tx.QueryNamed(`SELECT event_id FROM td_stripe_writes`, nil)
	require.NoError(t, err)
	defer rows.Close()
	require.True(t, rows.Next())
	var eventID *string
	require.NoError(t, rows.Scan(&eventID))
	require.NotNil(t, eventID)
	assert.Equal(t, "evt_1", *eventID)
}

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tabledog/internal/meta"
)

var gadgetsTable = meta.MustParse("gadgets", "gadget", gadgetRow{})

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(SQLite{}, t.TempDir()+"/test.sqlite")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	err = s.CreateSchema(context.Background(), []DDLTable{{Table: gadgetsTable}})
	require.NoError(t, err)
	return s
}

func begin(t *testing.T, s *Store) *Tx {
	t.Helper()
	tx, err := s.Begin(context.Background(), time.Date(2021, 1, 24, 19, 6, 26, 256e6, time.UTC))
	require.NoError(t, err)
	t.Cleanup(func() { tx.Rollback() })
	return tx
}

func TestOpenAppliesPragmas(t *testing.T) {
	s := openTestStore(t)

	var mode string
	require.NoError(t, s.DB().QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestNow3MSFormat(t *testing.T) {
	ts := time.Date(2021, 1, 24, 19, 6, 26, 256e6, time.UTC)
	assert.Equal(t, "2021-01-24 19:06:26.256", Now3MS(ts))
}

func TestInsertRowSetsPKAndInsertTS(t *testing.T) {
	s := openTestStore(t)
	tx := begin(t, s)

	row := &gadgetRow{ID: "g_1", Name: "sprocket", Active: true, Created: "2021-01-01 00:00:00"}
	require.NoError(t, tx.InsertRow(gadgetsTable, row))

	require.NotNil(t, row.GadgetID)
	assert.Equal(t, "2021-01-24 19:06:26.256", row.InsertTS)

	exists, err := tx.Exists(gadgetsTable, "g_1")
	require.NoError(t, err)
	assert.True(t, exists)

	ts, err := tx.InsertTS(gadgetsTable, "g_1")
	require.NoError(t, err)
	assert.Equal(t, "2021-01-24 19:06:26.256", ts)
}

func TestInsertDuplicateIDIsUniqueViolation(t *testing.T) {
	s := openTestStore(t)
	tx := begin(t, s)

	require.NoError(t, tx.InsertRow(gadgetsTable, &gadgetRow{ID: "g_1", Name: "a", Created: "2021-01-01 00:00:00"}))
	err := tx.InsertRow(gadgetsTable, &gadgetRow{ID: "g_1", Name: "b", Created: "2021-01-01 00:00:00"})
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
}

func TestUpdateRowSetsUpdateTS(t *testing.T) {
	s := openTestStore(t)
	tx := begin(t, s)

	row := &gadgetRow{ID: "g_1", Name: "before", Created: "2021-01-01 00:00:00"}
	require.NoError(t, tx.InsertRow(gadgetsTable, row))

	row.Name = "after"
	n, err := tx.UpdateRow(gadgetsTable, row, "id")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	rows, err := tx.QueryNamed(`SELECT name, update_ts FROM gadgets WHERE id = :id`,
		[]meta.NamedValue{{Name: "id", Value: "g_1"}})
	require.NoError(t, err)
	defer rows.Close()
	require.True(t, rows.Next())

	var (
		name     string
		updateTS *string
	)
	require.NoError(t, rows.Scan(&name, &updateTS))
	assert.Equal(t, "after", name)
	require.NotNil(t, updateTS, "update_ts must be set server-side on update")
	assert.NotEmpty(t, *updateTS)
}

func TestUpdateRowZeroMatches(t *testing.T) {
	s := openTestStore(t)
	tx := begin(t, s)

	n, err := tx.UpdateRow(gadgetsTable, &gadgetRow{ID: "missing", Name: "x", Created: "2021-01-01 00:00:00"}, "id")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestDeleteRow(t *testing.T) {
	s := openTestStore(t)
	tx := begin(t, s)

	row := &gadgetRow{ID: "g_1", Name: "x", Created: "2021-01-01 00:00:00"}
	require.NoError(t, tx.InsertRow(gadgetsTable, row))

	n, err := tx.DeleteRow(gadgetsTable, row, "id")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	exists, err := tx.Exists(gadgetsTable, "g_1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRollbackDiscardsWrites(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	tx, err := s.Begin(ctx, time.Now())
	require.NoError(t, err)
	require.NoError(t, tx.InsertRow(gadgetsTable, &gadgetRow{ID: "g_1", Name: "x", Created: "2021-01-01 00:00:00"}))
	require.NoError(t, tx.Rollback())

	tx2, err := s.Begin(ctx, time.Now())
	require.NoError(t, err)
	defer tx2.Rollback()

	exists, err := tx2.Exists(gadgetsTable, "g_1")
	require.NoError(t, err)
	assert.False(t, exists)
}

package engine

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/tabledog/internal/harness"
	"github.com/roach88/tabledog/internal/schema"
	"github.com/roach88/tabledog/internal/store"
	"github.com/roach88/tabledog/internal/testutil"
)

// newTestEngine builds an engine over a fresh sqlite mirror with a
// deterministic clock, in one-shot-no-apply mode so tests drive each apply
// cycle themselves.
func newTestEngine(t *testing.T, fake *harness.Fake) (*Engine, *store.Store) {
	t.Helper()

	s, err := store.Open(store.SQLite{}, t.TempDir()+"/mirror.sqlite")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	clk := testutil.NewClock(time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC))
	e := New(s, fake, Options{Watch: false, ApplyEventsAfterOneShotDL: false}, WithClock(clk.Now))
	return e, s
}

// dl runs the one-shot download lifecycle (no apply pass).
func dl(t *testing.T, e *Engine) {
	t.Helper()
	require.NoError(t, e.Run(context.Background()))
}

// rowExists checks a mirrored table for a provider id.
func rowExists(t *testing.T, s *store.Store, table, id string) bool {
	t.Helper()
	var one int
	err := s.DB().QueryRow("SELECT 1 FROM "+table+" WHERE id = ?", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false
	}
	require.NoError(t, err)
	return true
}

// writesFor reads the write log for one object type in (run_id, seq)
// order.
func writesFor(t *testing.T, s *store.Store, objType string) []schema.Write {
	t.Helper()
	rows, err := s.DB().Query(`SELECT run_id, seq, obj_type, obj_id, write_type
		FROM td_stripe_writes WHERE obj_type = ? ORDER BY run_id, seq`, objType)
	require.NoError(t, err)
	defer rows.Close()

	var out []schema.Write
	for rows.Next() {
		var w schema.Write
		require.NoError(t, rows.Scan(&w.RunID, &w.Seq, &w.ObjType, &w.ObjID, &w.WriteType))
		out = append(out, w)
	}
	require.NoError(t, rows.Err())
	return out
}

// actions reads the apply-event audit in application order.
func actions(t *testing.T, s *store.Store) []schema.EventAction {
	t.Helper()
	out, err := schema.ActionsTaken(context.Background(), s.DB())
	require.NoError(t, err)
	return out
}

// applyOnce reveals nothing new and runs one steady-state cycle.
func applyOnce(t *testing.T, e *Engine) int {
	t.Helper()
	n, err := e.applySince(context.Background())
	require.NoError(t, err)
	return n
}

// scalar runs a one-value query against the mirror.
func scalar[T any](t *testing.T, s *store.Store, query string, args ...any) T {
	t.Helper()
	var v T
	require.NoError(t, s.DB().QueryRow(query, args...).Scan(&v))
	return v
}

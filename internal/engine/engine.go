// Package engine is the replication core: it walks the provider's object
// listings into a consistent initial image, then consumes the event stream
// and converges the mirror on the provider's authoritative state.
//
// The engine is logically single-writer against the store. The download
// loop runs to completion first; the event-apply loop follows, anchored at
// the event horizon the download recorded. Every row write flows through
// the schema package's primitives, which log each write in the same
// transaction, and every per-event decision lands in the apply-event audit
// table.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/tabledog/internal/meta"
	"github.com/roach88/tabledog/internal/schema"
	"github.com/roach88/tabledog/internal/store"
	"github.com/roach88/tabledog/internal/stripe"
)

// DDLTables is the full mirror schema: every entity table plus the engine's
// own run bookkeeping.
func DDLTables() []store.DDLTable {
	return append(schema.DDLTables(), store.DDLTable{Table: RunsTable})
}

// State is the engine's lifecycle position.
type State string

const (
	StateStarting    State = "starting"
	StateDownloading State = "downloading"
	StateDownloaded  State = "downloaded"
	StateApplying    State = "applying"
	StateIdle        State = "idle"
)

// Client is the provider pull interface the engine consumes. Implemented
// by the HTTP client and by the test harness.
type Client interface {
	// Account verifies credentials and primes the account cache.
	Account(ctx context.Context) (json.RawMessage, error)

	// List fetches one page of a listing endpoint.
	List(ctx context.Context, path, cursor string, expand []string) (stripe.Page[json.RawMessage], error)

	// Events fetches one page of the event stream, newest first.
	Events(ctx context.Context, startingAfter string) (stripe.Page[stripe.Event], error)
}

// Options configures engine behavior beyond its collaborators.
type Options struct {
	// Watch keeps the applier polling after the initial download.
	Watch bool

	// ApplyEventsAfterOneShotDL runs one apply pass over the backlog
	// after a one-shot download before exiting.
	ApplyEventsAfterOneShotDL bool

	// PollFreq is the pause between apply cycles in watch mode.
	PollFreq time.Duration
}

// DefaultPollFreq is the pause between poll cycles when none is
// configured.
const DefaultPollFreq = 400 * time.Millisecond

// Engine drives one mirror: one store, one provider client.
type Engine struct {
	store  *store.Store
	client Client
	opts   Options

	// now is the wall clock, injectable for deterministic tests.
	now func() time.Time

	state State

	// t0 anchors the event horizon: the newest event visible before the
	// first list call of the download.
	t0ID      string
	t0Created int64

	// cursor is the newest event id already processed by the applier.
	cursor string

	// seen de-duplicates events across overlapping poll windows within
	// this process.
	seen map[string]bool

	// nextRun is the run id the next cycle will take.
	nextRun int64
}

// Option mutates engine construction.
type Option func(*Engine)

// WithClock injects the wall clock. Tests pin it for deterministic
// insert_ts values.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New builds an Engine.
func New(s *store.Store, client Client, opts Options, extra ...Option) *Engine {
	if opts.PollFreq <= 0 {
		opts.PollFreq = DefaultPollFreq
	}
	e := &Engine{
		store:  s,
		client: client,
		opts:   opts,
		now:    time.Now,
		state:  StateStarting,
		seen:   make(map[string]bool),
	}
	for _, o := range extra {
		o(e)
	}
	return e
}

// State returns the engine's current lifecycle position.
func (e *Engine) State() State { return e.state }

// RunRow records one bounded execution (download or apply cycle) in
// td_stripe_runs. update_ts doubles as the finish marker.
type RunRow struct {
	RowID     *int64  `td:"row_id,pk"`
	RunID     int64   `td:"run_id,unique"`
	Kind      string  `td:"kind"`
	T0EventID *string `td:"t0_event_id"`
	T0Created *string `td:"t0_created,dt"`
	Cursor    *string `td:"cursor_event_id"`
	InsertTS  string  `td:"insert_ts,insert_ts"`
	UpdateTS  *string `td:"update_ts,update_ts"`
}

// RunsTable is the runs table metadata.
var RunsTable = meta.MustParse("td_stripe_runs", "td_stripe_run", RunRow{})

const (
	runKindDownload = "dl"
	runKindApply    = "apply"
)

// Run executes the engine lifecycle: download when the store is fresh,
// then event application, then either exit (one-shot) or the poll loop
// (watch).
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("engine starting", "watch", e.opts.Watch)

	if _, err := e.client.Account(ctx); err != nil {
		return classify(err)
	}

	if err := e.store.CreateSchema(ctx, DDLTables()); err != nil {
		return &ReplicationError{Code: CodeStoreIO, Err: err}
	}

	fresh, err := e.loadRunState(ctx)
	if err != nil {
		return err
	}

	if fresh {
		e.state = StateDownloading
		if err := e.download(ctx); err != nil {
			return err
		}
	} else {
		slog.Info("store already mirrored, skipping download", "t0", e.t0ID)
	}
	e.state = StateDownloaded

	if !e.opts.Watch {
		if e.opts.ApplyEventsAfterOneShotDL {
			e.state = StateApplying
			if _, err := e.applyBacklog(ctx); err != nil {
				return err
			}
		}
		e.state = StateIdle
		slog.Info("one-shot download complete")
		return nil
	}

	e.state = StateApplying
	if _, err := e.applyBacklog(ctx); err != nil {
		return err
	}
	e.state = StateIdle

	return e.watch(ctx)
}

// loadRunState reads prior runs to decide whether a download is needed and
// to restore the event horizon and cursor after a restart. Returns true
// when the store is fresh.
func (e *Engine) loadRunState(ctx context.Context) (bool, error) {
	tx, err := e.store.Begin(ctx, e.now())
	if err != nil {
		return false, &ReplicationError{Code: CodeStoreIO, Err: err}
	}
	defer tx.Rollback()

	rows, err := tx.QueryNamed(`SELECT run_id, kind, t0_event_id, t0_created, cursor_event_id, update_ts
		FROM td_stripe_runs ORDER BY run_id ASC`, nil)
	if err != nil {
		return false, &ReplicationError{Code: CodeStoreIO, Err: err}
	}
	defer rows.Close()

	var (
		fresh      = true
		dlFinished bool
		maxRun     int64
		t0ID       *string
		t0DT       *string
		cursor     *string
		anyRow     bool
	)
	for rows.Next() {
		var r RunRow
		if err := rows.Scan(&r.RunID, &r.Kind, &r.T0EventID, &r.T0Created, &r.Cursor, &r.UpdateTS); err != nil {
			return false, &ReplicationError{Code: CodeStoreIO, Err: err}
		}
		anyRow = true
		maxRun = r.RunID
		if r.Kind == runKindDownload {
			fresh = false
			dlFinished = r.UpdateTS != nil
			t0ID = r.T0EventID
			t0DT = r.T0Created
		}
		if r.Cursor != nil {
			cursor = r.Cursor
		}
	}
	if err := rows.Err(); err != nil {
		return false, &ReplicationError{Code: CodeStoreIO, Err: err}
	}

	if !anyRow {
		e.nextRun = 1
		return true, nil
	}

	if fresh || !dlFinished {
		// An interrupted download is not resumable: the next start
		// replays from scratch against an empty schema. Anything else
		// here is a stale store.
		return false, &ReplicationError{
			Code: CodeStoreConflict,
			Err:  fmt.Errorf("store holds an incomplete download; delete the target and re-run"),
		}
	}

	e.nextRun = maxRun + 1
	if t0ID != nil {
		e.t0ID = *t0ID
		e.cursor = *t0ID
	}
	if t0DT != nil {
		if ts, err := time.Parse("2006-01-02 15:04:05", *t0DT); err == nil {
			e.t0Created = ts.Unix()
		}
	}
	// The newest applied event wins over the download horizon: a
	// restarted watcher resumes where the last committed cycle stopped.
	if cursor != nil {
		e.cursor = *cursor
	}
	return false, nil
}

// recordRun inserts the run row for a starting run. finishRun later stamps
// update_ts as the completion marker.
func (e *Engine) recordRun(tx *store.Tx, runID int64, kind string) error {
	row := RunRow{RunID: runID, Kind: kind}
	if e.t0ID != "" {
		row.T0EventID = &e.t0ID
		dt := time.Unix(e.t0Created, 0).UTC().Format("2006-01-02 15:04:05")
		row.T0Created = &dt
	}
	if err := tx.InsertRow(RunsTable, &row); err != nil {
		return &ReplicationError{Code: CodeStoreIO, Err: err}
	}
	return nil
}

// finishRun stamps the run's update_ts inside the given transaction,
// marking it complete. Apply runs also persist the cycle's newest event id
// so a restart resumes from it.
func (e *Engine) finishRun(tx *store.Tx, runID int64, cursor string) error {
	d := tx.Dialect()
	params := []meta.NamedValue{{Name: "run_id", Value: runID}}

	cursorSet := ""
	if cursor != "" {
		cursorSet = fmt.Sprintf(", %s = :cursor", d.QuoteIdent("cursor_event_id"))
		params = append(params, meta.NamedValue{Name: "cursor", Value: cursor})
	}

	q := fmt.Sprintf("UPDATE %s SET %s = %s%s WHERE %s = :run_id",
		d.QuoteIdent(RunsTable.Name), d.QuoteIdent("update_ts"), d.Now3MS(), cursorSet, d.QuoteIdent("run_id"))
	if _, err := tx.ExecNamed(q, params); err != nil {
		return &ReplicationError{Code: CodeStoreIO, Err: err}
	}
	return nil
}

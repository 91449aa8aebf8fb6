package engine

import (
	"context"
	"log/slog"

	"github.com/roach88/tabledog/internal/schema"
	"github.com/roach88/tabledog/internal/store"
	"github.com/roach88/tabledog/internal/stripe"
)

// maxEventPages bounds one fetch window. A backlog larger than this
// short-reads and the next cycle continues from the new cursor.
const maxEventPages = 100

// applyBacklog fetches the full visible event history and applies it
// newest-to-oldest in one transaction. The write log makes later writes
// win: once an object is written in the run, older events for it skip.
func (e *Engine) applyBacklog(ctx context.Context) (int, error) {
	events, err := e.fetchEvents(ctx, "")
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}
	// Newest-first order is exactly what the provider returns.
	return e.applyCycle(ctx, events, true)
}

// applySince fetches events newer than the cursor and applies them
// oldest-to-newest in one transaction.
func (e *Engine) applySince(ctx context.Context) (int, error) {
	events, err := e.fetchEvents(ctx, e.cursor)
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}
	reverse(events)
	return e.applyCycle(ctx, events, false)
}

// fetchEvents pulls pages newest-first until the stop id is seen, the
// stream is exhausted, or the window cap is hit. Events already decided in
// this process are dropped.
func (e *Engine) fetchEvents(ctx context.Context, stopAt string) ([]stripe.Event, error) {
	var (
		out    []stripe.Event
		cursor string
	)
	for pages := 0; pages < maxEventPages; pages++ {
		page, err := e.client.Events(ctx, cursor)
		if err != nil {
			return nil, classify(err)
		}

		for _, ev := range page.Data {
			if stopAt != "" && ev.ID == stopAt {
				return out, nil
			}
			if e.seen[ev.ID] {
				continue
			}
			out = append(out, ev)
		}

		if !page.HasMore {
			return out, nil
		}
		cursor = page.NextCursor
	}
	slog.Warn("event window short-read, continuing next cycle", "fetched", len(out))
	return out, nil
}

// applyCycle applies one batch of events in one transaction. backfill
// batches are ordered newest-first and rely on the write log for
// last-write-wins; steady-state batches are oldest-first and use in-batch
// lookahead. Partial failure rolls the whole cycle back.
func (e *Engine) applyCycle(ctx context.Context, events []stripe.Event, backfill bool) (int, error) {
	runID := e.nextRun

	tx, err := e.store.Begin(ctx, e.now())
	if err != nil {
		return 0, &ReplicationError{Code: CodeStoreIO, Err: err}
	}
	defer tx.Rollback()

	if err := e.recordRun(tx, runID, runKindApply); err != nil {
		return 0, err
	}

	writer := schema.NewWriter(runID)

	var lookahead *cycleLookahead
	if !backfill {
		lookahead = buildLookahead(events)
	}

	applied := 0
	for i := range events {
		ev := &events[i]
		if err := e.applyEvent(tx, writer, runID, ev, i, backfill, lookahead); err != nil {
			return 0, err
		}
		applied++
	}

	newest := events[0]
	if !backfill {
		newest = events[len(events)-1]
	}

	if err := e.finishRun(tx, runID, newest.ID); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, &ReplicationError{Code: CodeStoreIO, Err: err}
	}

	// Only after commit: advance the in-memory cursor and dedup set.
	e.cursor = newest.ID
	for i := range events {
		e.seen[events[i].ID] = true
	}
	e.nextRun = runID + 1

	slog.Info("apply cycle committed", "run", runID, "events", applied)
	return applied, nil
}

// applyEvent runs one event through the decision table and records the
// outcome in the audit table.
func (e *Engine) applyEvent(tx *store.Tx, writer *schema.Writer, runID int64, ev *stripe.Event, idx int, backfill bool, lookahead *cycleLookahead) error {
	objType, err := ev.ObjectType()
	if err != nil {
		return &ReplicationError{Code: CodeUnexpectedShape, Err: err}
	}

	entity := schema.Registry[objType]
	if entity == nil || entity.SkipEvents {
		name := objType
		if entity != nil {
			name = entity.ObjType
		}
		return e.audit(tx, runID, ev, name, "", schema.ActionSkipIgnoredType)
	}

	objID, err := ev.ObjectID()
	if err != nil {
		return &ReplicationError{Code: CodeUnexpectedShape, ObjType: entity.ObjType, Err: err}
	}

	// Events at or before the download horizon describe state the
	// download already captured, except for types the download cannot
	// reach once their parent is gone. The horizon event itself counts:
	// it was visible before the first list call.
	if e.t0ID != "" && (ev.ID == e.t0ID || ev.Created < e.t0Created) {
		exists, err := tx.Exists(entity.Table, objID)
		if err != nil {
			return &ReplicationError{Code: CodeStoreIO, Err: err}
		}
		if exists {
			return e.audit(tx, runID, ev, entity.ObjType, objID, schema.ActionSkipEventBeforeDL)
		}
		if !entity.CreateOnlyViaEvent {
			return e.audit(tx, runID, ev, entity.ObjType, objID, schema.ActionSkipEventBeforeDLGone)
		}
	}

	// Last-write-wins within the run.
	if backfill {
		written, err := schema.HasWriteSince(tx, runID, entity.ObjType, objID)
		if err != nil {
			return &ReplicationError{Code: CodeStoreIO, Err: err}
		}
		if written {
			return e.audit(tx, runID, ev, entity.ObjType, objID, schema.ActionSkipNotLastWrite)
		}
	} else if lookahead.terminalAfter(idx, entity.ObjType, objID) {
		return e.audit(tx, runID, ev, entity.ObjType, objID, schema.ActionSkipNotLastWrite)
	}

	// A later delete of the owning parent supersedes child writes.
	if entity.ParentType != "" {
		if skip, err := e.parentDeleted(tx, runID, entity, ev, idx, backfill, lookahead); err != nil {
			return err
		} else if skip {
			return e.audit(tx, runID, ev, entity.ObjType, objID, schema.ActionSkipParentWriteLater)
		}
	}

	ew := writer.ForEvent(ev.ID)

	if ev.IsDelete() && entity.Deletable {
		if _, err := entity.Delete(tx, ew, ev.Data.Object); err != nil {
			return classify(err)
		}
		return e.audit(tx, runID, ev, entity.ObjType, objID, schema.ActionWriteDelete)
	}

	// Create, update, or a detach-style "delete" on a non-deletable
	// type: the payload's state is mirrored as an upsert.
	exists, err := tx.Exists(entity.Table, objID)
	if err != nil {
		return &ReplicationError{Code: CodeStoreIO, Err: err}
	}
	if _, err := entity.Upsert(tx, ew, ev.Data.Object); err != nil {
		return classify(err)
	}

	action := schema.ActionWriteCreate
	if exists {
		action = schema.ActionWriteUpdate
	}
	return e.audit(tx, runID, ev, entity.ObjType, objID, action)
}

// parentDeleted reports whether the event's parent object is deleted later
// in the run: by a later event in a steady-state batch, or by an
// already-applied write in a backfill batch.
func (e *Engine) parentDeleted(tx *store.Tx, runID int64, entity *schema.Entity, ev *stripe.Event, idx int, backfill bool, lookahead *cycleLookahead) (bool, error) {
	parentID := entity.ParentID(ev.Data.Object)
	if parentID == "" {
		return false, nil
	}

	if backfill {
		last, err := schema.LastWrite(tx, entity.ParentType, parentID)
		if err != nil {
			return false, &ReplicationError{Code: CodeStoreIO, Err: err}
		}
		return last != nil && last.RunID >= runID && last.WriteType == schema.WriteDelete, nil
	}
	return lookahead.deleteAfter(idx, entity.ParentType, parentID), nil
}

func (e *Engine) audit(tx *store.Tx, runID int64, ev *stripe.Event, objType, objID, action string) error {
	slog.Debug("event decided", "event", ev.ID, "type", ev.Type, "action", action)
	if err := schema.RecordAction(tx, &schema.EventAction{
		RunID:     runID,
		EventID:   ev.ID,
		EventType: ev.Type,
		ObjType:   objType,
		ObjID:     objID,
		Action:    action,
	}); err != nil {
		return &ReplicationError{Code: CodeStoreIO, Err: err}
	}
	return nil
}

// cycleLookahead indexes a steady-state batch for the two later-event
// checks: last terminal write per object and last delete per object.
type cycleLookahead struct {
	// terminal maps obj key to the last index whose write is terminal
	// for the object: a delete, or an update on a non-deletable type.
	terminal map[string]int

	// deletes maps obj key to the last index holding a delete event.
	deletes map[string]int
}

func buildLookahead(events []stripe.Event) *cycleLookahead {
	la := &cycleLookahead{
		terminal: make(map[string]int),
		deletes:  make(map[string]int),
	}
	for i := range events {
		ev := &events[i]
		objType, err := ev.ObjectType()
		if err != nil {
			continue
		}
		entity := schema.Registry[objType]
		if entity == nil || entity.SkipEvents {
			continue
		}
		objID, err := ev.ObjectID()
		if err != nil {
			continue
		}
		key := entity.ObjType + "\x00" + objID

		if ev.IsDelete() {
			if entity.Deletable {
				la.deletes[key] = i
			}
			la.terminal[key] = i
		} else if !entity.Deletable {
			// An update on a non-deletable type fully determines the
			// final row; earlier events for the object are redundant.
			la.terminal[key] = i
		}
	}
	return la
}

func (la *cycleLookahead) terminalAfter(idx int, objType, objID string) bool {
	last, ok := la.terminal[objType+"\x00"+objID]
	return ok && last > idx
}

func (la *cycleLookahead) deleteAfter(idx int, objType, objID string) bool {
	last, ok := la.deletes[objType+"\x00"+objID]
	return ok && last > idx
}

func reverse(events []stripe.Event) {
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
}

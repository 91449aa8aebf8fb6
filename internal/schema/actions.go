package schema

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/tabledog/internal/meta"
	"github.com/roach88/tabledog/internal/store"
)

// Action names recorded per applied event. Every decision the applier
// takes, including every skip, lands in the audit table; nothing is
// silently dropped.
const (
	ActionWriteCreate = "write.c"
	ActionWriteUpdate = "write.u"
	ActionWriteDelete = "write.d"

	ActionSkipIgnoredType       = "skip.ignored_type"
	ActionSkipEventBeforeDL     = "skip.event_before_dl"
	ActionSkipEventBeforeDLGone = "skip.event_before_dl_absent"
	ActionSkipNotLastWrite      = "skip.not_last_write"
	ActionSkipParentWriteLater  = "skip.parent_write_exists_later"
)

// EventAction is one row of td_stripe_apply_event_actions: the decision
// outcome for one provider event in one apply run.
type EventAction struct {
	ActionID  *int64 `td:"action_id,pk"`
	RunID     int64  `td:"run_id"`
	EventID   string `td:"event_id"`
	EventType string `td:"event_type"`
	ObjType   string `td:"obj_type"`
	ObjID     string `td:"obj_id"`
	Action    string `td:"action"`
	InsertTS  string `td:"insert_ts,insert_ts"`
}

// ActionsTable is the audit table's metadata.
var ActionsTable = meta.MustParse("td_stripe_apply_event_actions", "td_stripe_apply_event_action", EventAction{})

// RecordAction appends one decision to the audit table, inside the cycle's
// transaction.
func RecordAction(tx *store.Tx, a *EventAction) error {
	if err := tx.InsertRow(ActionsTable, a); err != nil {
		return fmt.Errorf("record action %s %s: %w", a.EventID, a.Action, err)
	}
	return nil
}

// ActionsTaken reads the full audit table in application order. Test and
// debugging helper.
func ActionsTaken(ctx context.Context, db *sql.DB) ([]EventAction, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT action_id, run_id, event_id, event_type, obj_type, obj_id, action, insert_ts
		FROM td_stripe_apply_event_actions
		ORDER BY action_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("actions taken: %w", err)
	}
	defer rows.Close()

	var out []EventAction
	for rows.Next() {
		var (
			a  EventAction
			pk int64
		)
		if err := rows.Scan(&pk, &a.RunID, &a.EventID, &a.EventType, &a.ObjType, &a.ObjID, &a.Action, &a.InsertTS); err != nil {
			return nil, err
		}
		a.ActionID = &pk
		out = append(out, a)
	}
	return out, rows.Err()
}

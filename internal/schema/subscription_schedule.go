package schema

import (
	"encoding/json"

	"github.com/roach88/tabledog/internal/meta"
	"github.com/roach88/tabledog/internal/store"
	"github.com/roach88/tabledog/internal/stripe"
)

// SubscriptionScheduleRow mirrors one subscription schedule.
type SubscriptionScheduleRow struct {
	SubscriptionScheduleID *int64  `td:"subscription_schedule_id,pk"`
	ID                     string  `td:"id,unique"`
	CanceledAt             *string `td:"canceled_at,dt"`
	CompletedAt            *string `td:"completed_at,dt"`
	CurrentPhase           *string `td:"current_phase,json"`
	Customer               *string `td:"customer"`
	DefaultSettings        *string `td:"default_settings,json"`
	EndBehavior            string  `td:"end_behavior"`
	Livemode               bool    `td:"livemode"`
	Metadata               *string `td:"metadata,json"`
	Phases                 *string `td:"phases,json"`
	ReleasedAt             *string `td:"released_at,dt"`
	ReleasedSubscription   *string `td:"released_subscription"`
	Status                 string  `td:"status"`
	Subscription           *string `td:"subscription"`
	Created                string  `td:"created,dt"`
	InsertTS               string  `td:"insert_ts,insert_ts"`
	UpdateTS               *string `td:"update_ts,update_ts"`
}

// SubscriptionSchedulesTable is the subscription_schedules table metadata.
var SubscriptionSchedulesTable = meta.MustParse("subscription_schedules", "subscription_schedule", SubscriptionScheduleRow{})

func subscriptionScheduleRowFrom(x *stripe.SubscriptionSchedule) *SubscriptionScheduleRow {
	return &SubscriptionScheduleRow{
		ID:                   x.ID,
		CanceledAt:           unixDTPtr(x.CanceledAt),
		CompletedAt:          unixDTPtr(x.CompletedAt),
		CurrentPhase:         rawJSON(x.CurrentPhase),
		Customer:             expID(x.Customer),
		DefaultSettings:      rawJSON(x.DefaultSettings),
		EndBehavior:          x.EndBehavior,
		Livemode:             x.Livemode,
		Metadata:             rawJSON(x.Metadata),
		Phases:               rawJSON(x.Phases),
		ReleasedAt:           unixDTPtr(x.ReleasedAt),
		ReleasedSubscription: x.ReleasedSubscription,
		Status:               x.Status,
		Subscription:         expID(x.Subscription),
		Created:              unixDT(x.Created),
	}
}

func subscriptionScheduleInsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	return subscriptionScheduleUpsertTree(tx, w, data)
}

func subscriptionScheduleUpsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	x, err := decode[stripe.SubscriptionSchedule](data, "subscription_schedule")
	if err != nil {
		return nil, err
	}
	id, err := w.Upsert(tx, SubscriptionSchedulesTable, subscriptionScheduleRowFrom(x))
	if err != nil {
		return nil, err
	}
	return []int64{id}, nil
}

func subscriptionScheduleDeleteTree(*store.Tx, *Writer, json.RawMessage) ([]int64, error) {
	return nil, ErrUnsupportedDelete
}

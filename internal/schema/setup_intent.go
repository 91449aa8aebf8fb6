package schema

import (
	"encoding/json"

	"github.com/roach88/tabledog/internal/meta"
	"github.com/roach88/tabledog/internal/store"
	"github.com/roach88/tabledog/internal/stripe"
)

// SetupIntentRow mirrors one setup intent.
type SetupIntentRow struct {
	SetupIntentID      *int64  `td:"setup_intent_id,pk"`
	ID                 string  `td:"id,unique"`
	CancellationReason *string `td:"cancellation_reason"`
	Customer           *string `td:"customer"`
	Description        *string `td:"description"`
	LastSetupError     *string `td:"last_setup_error,json"`
	Livemode           bool    `td:"livemode"`
	Mandate            *string `td:"mandate"`
	Metadata           *string `td:"metadata,json"`
	NextAction         *string `td:"next_action,json"`
	PaymentMethod      *string `td:"payment_method"`
	PaymentMethodTypes *string `td:"payment_method_types,json"`
	Status             string  `td:"status"`
	Usage              string  `td:"usage"`
	Created            string  `td:"created,dt"`
	InsertTS           string  `td:"insert_ts,insert_ts"`
	UpdateTS           *string `td:"update_ts,update_ts"`
}

// SetupIntentsTable is the setup_intents table metadata.
var SetupIntentsTable = meta.MustParse("setup_intents", "setup_intent", SetupIntentRow{})

func setupIntentRowFrom(x *stripe.SetupIntent) *SetupIntentRow {
	return &SetupIntentRow{
		ID:                 x.ID,
		CancellationReason: x.CancellationReason,
		Customer:           expID(x.Customer),
		Description:        x.Description,
		LastSetupError:     rawJSON(x.LastSetupError),
		Livemode:           x.Livemode,
		Mandate:            x.Mandate,
		Metadata:           rawJSON(x.Metadata),
		NextAction:         rawJSON(x.NextAction),
		PaymentMethod:      x.PaymentMethod,
		PaymentMethodTypes: rawJSON(x.PaymentMethodTypes),
		Status:             x.Status,
		Usage:              x.Usage,
		Created:            unixDT(x.Created),
	}
}

func setupIntentInsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	return setupIntentUpsertTree(tx, w, data)
}

func setupIntentUpsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	x, err := decode[stripe.SetupIntent](data, "setup_intent")
	if err != nil {
		return nil, err
	}
	id, err := w.Upsert(tx, SetupIntentsTable, setupIntentRowFrom(x))
	if err != nil {
		return nil, err
	}
	return []int64{id}, nil
}

func setupIntentDeleteTree(*store.Tx, *Writer, json.RawMessage) ([]int64, error) {
	return nil, ErrUnsupportedDelete
}

package schema

import (
	"encoding/json"

	"github.com/roach88/tabledog/internal/meta"
	"github.com/roach88/tabledog/internal/store"
	"github.com/roach88/tabledog/internal/stripe"
)

// SessionRow mirrors one checkout session. Session events carry no state
// transitions the mirror needs, so the applier skips them; rows enter via
// download only.
type SessionRow struct {
	SessionID           *int64  `td:"session_id,pk"`
	ID                  string  `td:"id,unique"`
	AllowPromotionCodes *bool   `td:"allow_promotion_codes"`
	AmountSubtotal      *int64  `td:"amount_subtotal"`
	AmountTotal         *int64  `td:"amount_total"`
	CancelURL           string  `td:"cancel_url"`
	ClientReferenceID   *string `td:"client_reference_id"`
	Currency            *string `td:"currency"`
	Customer            *string `td:"customer"`
	CustomerEmail       *string `td:"customer_email"`
	LineItems           *string `td:"line_items,json"`
	Livemode            bool    `td:"livemode"`
	Locale              *string `td:"locale"`
	Metadata            *string `td:"metadata,json"`
	Mode                string  `td:"mode"`
	PaymentIntent       *string `td:"payment_intent"`
	PaymentMethodTypes  *string `td:"payment_method_types,json"`
	PaymentStatus       string  `td:"payment_status"`
	SetupIntent         *string `td:"setup_intent"`
	Shipping            *string `td:"shipping,json"`
	SubmitType          *string `td:"submit_type"`
	Subscription        *string `td:"subscription"`
	SuccessURL          string  `td:"success_url"`
	TotalDetails        *string `td:"total_details,json"`
	InsertTS            string  `td:"insert_ts,insert_ts"`
	UpdateTS            *string `td:"update_ts,update_ts"`
}

// SessionsTable is the sessions table metadata.
var SessionsTable = meta.MustParse("sessions", "session", SessionRow{})

func sessionRowFrom(x *stripe.Session) (*SessionRow, error) {
	lineItems, err := nestedJSON(x.LineItems, "session", x.ID, "line_items")
	if err != nil {
		return nil, err
	}
	return &SessionRow{
		ID:                  x.ID,
		AllowPromotionCodes: x.AllowPromotionCodes,
		AmountSubtotal:      x.AmountSubtotal,
		AmountTotal:         x.AmountTotal,
		CancelURL:           x.CancelURL,
		ClientReferenceID:   x.ClientReferenceID,
		Currency:            x.Currency,
		Customer:            expID(x.Customer),
		CustomerEmail:       x.CustomerEmail,
		LineItems:           lineItems,
		Livemode:            x.Livemode,
		Locale:              x.Locale,
		Metadata:            rawJSON(x.Metadata),
		Mode:                x.Mode,
		PaymentIntent:       expID(x.PaymentIntent),
		PaymentMethodTypes:  rawJSON(x.PaymentMethodTypes),
		PaymentStatus:       x.PaymentStatus,
		SetupIntent:         expID(x.SetupIntent),
		Shipping:            rawJSON(x.Shipping),
		SubmitType:          x.SubmitType,
		Subscription:        expID(x.Subscription),
		SuccessURL:          x.SuccessURL,
		TotalDetails:        rawJSON(x.TotalDetails),
	}, nil
}

func sessionInsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	return sessionUpsertTree(tx, w, data)
}

func sessionUpsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	x, err := decode[stripe.Session](data, "session")
	if err != nil {
		return nil, err
	}
	row, err := sessionRowFrom(x)
	if err != nil {
		return nil, err
	}
	id, err := w.Upsert(tx, SessionsTable, row)
	if err != nil {
		return nil, err
	}
	return []int64{id}, nil
}

func sessionDeleteTree(*store.Tx, *Writer, json.RawMessage) ([]int64, error) {
	return nil, ErrUnsupportedDelete
}

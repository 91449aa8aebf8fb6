package schema

import (
	"encoding/json"

	"github.com/roach88/tabledog/internal/meta"
	"github.com/roach88/tabledog/internal/store"
	"github.com/roach88/tabledog/internal/stripe"
)

// PaymentIntentRow mirrors one payment intent.
type PaymentIntentRow struct {
	PaymentIntentID     *int64  `td:"payment_intent_id,pk"`
	ID                  string  `td:"id,unique"`
	Amount              int64   `td:"amount"`
	AmountCapturable    int64   `td:"amount_capturable"`
	AmountReceived      int64   `td:"amount_received"`
	CanceledAt          *string `td:"canceled_at,dt"`
	CancellationReason  *string `td:"cancellation_reason"`
	CaptureMethod       string  `td:"capture_method"`
	ConfirmationMethod  string  `td:"confirmation_method"`
	Currency            string  `td:"currency"`
	Customer            *string `td:"customer"`
	Description         *string `td:"description"`
	Invoice             *string `td:"invoice"`
	Livemode            bool    `td:"livemode"`
	Metadata            *string `td:"metadata,json"`
	NextAction          *string `td:"next_action,json"`
	PaymentMethod       *string `td:"payment_method"`
	PaymentMethodTypes  *string `td:"payment_method_types,json"`
	ReceiptEmail        *string `td:"receipt_email"`
	SetupFutureUsage    *string `td:"setup_future_usage"`
	Shipping            *string `td:"shipping,json"`
	StatementDescriptor *string `td:"statement_descriptor"`
	Status              string  `td:"status"`
	Created             string  `td:"created,dt"`
	InsertTS            string  `td:"insert_ts,insert_ts"`
	UpdateTS            *string `td:"update_ts,update_ts"`
}

// PaymentIntentsTable is the payment_intents table metadata.
var PaymentIntentsTable = meta.MustParse("payment_intents", "payment_intent", PaymentIntentRow{})

func paymentIntentRowFrom(x *stripe.PaymentIntent) *PaymentIntentRow {
	return &PaymentIntentRow{
		ID:                  x.ID,
		Amount:              x.Amount,
		AmountCapturable:    x.AmountCapturable,
		AmountReceived:      x.AmountReceived,
		CanceledAt:          unixDTPtr(x.CanceledAt),
		CancellationReason:  x.CancellationReason,
		CaptureMethod:       x.CaptureMethod,
		ConfirmationMethod:  x.ConfirmationMethod,
		Currency:            x.Currency,
		Customer:            expID(x.Customer),
		Description:         x.Description,
		Invoice:             expID(x.Invoice),
		Livemode:            x.Livemode,
		Metadata:            rawJSON(x.Metadata),
		NextAction:          rawJSON(x.NextAction),
		PaymentMethod:       x.PaymentMethod,
		PaymentMethodTypes:  rawJSON(x.PaymentMethodTypes),
		ReceiptEmail:        x.ReceiptEmail,
		SetupFutureUsage:    x.SetupFutureUsage,
		Shipping:            rawJSON(x.Shipping),
		StatementDescriptor: x.StatementDescriptor,
		Status:              x.Status,
		Created:             unixDT(x.Created),
	}
}

// writePaymentIntentTree persists the intent and upserts the charges
// embedded on it. Charges are also downloaded directly; the embedded copy
// keeps event-driven intents consistent between polls.
func writePaymentIntentTree(tx *store.Tx, w *Writer, x *stripe.PaymentIntent) ([]int64, error) {
	var writes []int64

	id, err := w.Upsert(tx, PaymentIntentsTable, paymentIntentRowFrom(x))
	if err != nil {
		return nil, err
	}
	writes = append(writes, id)

	charges, err := childList(x.Charges, "payment_intent", x.ID, "charges", false)
	if err != nil {
		return nil, err
	}
	for i := range charges {
		ids, err := writeChargeTree(tx, w, &charges[i], true)
		if err != nil {
			return nil, err
		}
		writes = append(writes, ids...)
	}
	return writes, nil
}

func paymentIntentInsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	return paymentIntentUpsertTree(tx, w, data)
}

func paymentIntentUpsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	x, err := decode[stripe.PaymentIntent](data, "payment_intent")
	if err != nil {
		return nil, err
	}
	return writePaymentIntentTree(tx, w, x)
}

func paymentIntentDeleteTree(*store.Tx, *Writer, json.RawMessage) ([]int64, error) {
	return nil, ErrUnsupportedDelete
}

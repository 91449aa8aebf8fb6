package schema

import (
	"encoding/json"

	"github.com/roach88/tabledog/internal/meta"
	"github.com/roach88/tabledog/internal/store"
	"github.com/roach88/tabledog/internal/stripe"
)

// PaymentMethodRow mirrors one payment method. payment_method.detached is
// mirrored as an update clearing the customer pointer; the provider never
// deletes payment methods, they just become unlistable.
type PaymentMethodRow struct {
	PaymentMethodID *int64  `td:"payment_method_id,pk"`
	ID              string  `td:"id,unique"`
	BillingDetails  *string `td:"billing_details,json"`
	Card            *string `td:"card,json"`
	Customer        *string `td:"customer"`
	Livemode        bool    `td:"livemode"`
	Metadata        *string `td:"metadata,json"`
	Type            string  `td:"type"`
	Created         string  `td:"created,dt"`
	InsertTS        string  `td:"insert_ts,insert_ts"`
	UpdateTS        *string `td:"update_ts,update_ts"`
}

// PaymentMethodsTable is the payment_methods table metadata.
var PaymentMethodsTable = meta.MustParse("payment_methods", "payment_method", PaymentMethodRow{})

func paymentMethodRowFrom(x *stripe.PaymentMethod) *PaymentMethodRow {
	return &PaymentMethodRow{
		ID:             x.ID,
		BillingDetails: rawJSON(x.BillingDetails),
		Card:           rawJSON(x.Card),
		Customer:       expID(x.Customer),
		Livemode:       x.Livemode,
		Metadata:       rawJSON(x.Metadata),
		Type:           x.Type,
		Created:        unixDT(x.Created),
	}
}

func paymentMethodInsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	return paymentMethodUpsertTree(tx, w, data)
}

func paymentMethodUpsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	x, err := decode[stripe.PaymentMethod](data, "payment_method")
	if err != nil {
		return nil, err
	}
	id, err := w.Upsert(tx, PaymentMethodsTable, paymentMethodRowFrom(x))
	if err != nil {
		return nil, err
	}
	return []int64{id}, nil
}

func paymentMethodDeleteTree(*store.Tx, *Writer, json.RawMessage) ([]int64, error) {
	return nil, ErrUnsupportedDelete
}

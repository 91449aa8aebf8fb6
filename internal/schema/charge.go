package schema

import (
	"encoding/json"

	"github.com/roach88/tabledog/internal/meta"
	"github.com/roach88/tabledog/internal/store"
	"github.com/roach88/tabledog/internal/stripe"
)

// ChargeRow mirrors one charge.
type ChargeRow struct {
	ChargeID             *int64  `td:"charge_id,pk"`
	ID                   string  `td:"id,unique"`
	Amount               int64   `td:"amount"`
	AmountCaptured       int64   `td:"amount_captured"`
	AmountRefunded       int64   `td:"amount_refunded"`
	BalanceTransaction   *string `td:"balance_transaction"`
	BillingDetails       *string `td:"billing_details,json"`
	Captured             bool    `td:"captured"`
	Currency             string  `td:"currency"`
	Customer             *string `td:"customer"`
	Description          *string `td:"description"`
	Disputed             bool    `td:"disputed"`
	FailureCode          *string `td:"failure_code"`
	FailureMessage       *string `td:"failure_message"`
	Invoice              *string `td:"invoice"`
	Livemode             bool    `td:"livemode"`
	Metadata             *string `td:"metadata,json"`
	OrderID              *string `td:"order_id"`
	Outcome              *string `td:"outcome,json"`
	Paid                 bool    `td:"paid"`
	PaymentIntent        *string `td:"payment_intent"`
	PaymentMethod        *string `td:"payment_method"`
	PaymentMethodDetails *string `td:"payment_method_details,json"`
	ReceiptEmail         *string `td:"receipt_email"`
	ReceiptURL           *string `td:"receipt_url"`
	Refunded             bool    `td:"refunded"`
	Shipping             *string `td:"shipping,json"`
	StatementDescriptor  *string `td:"statement_descriptor"`
	Status               string  `td:"status"`
	Created              string  `td:"created,dt"`
	InsertTS             string  `td:"insert_ts,insert_ts"`
	UpdateTS             *string `td:"update_ts,update_ts"`
}

// ChargesTable is the charges table metadata.
var ChargesTable = meta.MustParse("charges", "charge", ChargeRow{})

func chargeRowFrom(x *stripe.Charge) *ChargeRow {
	return &ChargeRow{
		ID:                   x.ID,
		Amount:               x.Amount,
		AmountCaptured:       x.AmountCaptured,
		AmountRefunded:       x.AmountRefunded,
		BalanceTransaction:   expID(x.BalanceTransaction),
		BillingDetails:       rawJSON(x.BillingDetails),
		Captured:             x.Captured,
		Currency:             x.Currency,
		Customer:             expID(x.Customer),
		Description:          x.Description,
		Disputed:             x.Disputed,
		FailureCode:          x.FailureCode,
		FailureMessage:       x.FailureMessage,
		Invoice:              expID(x.Invoice),
		Livemode:             x.Livemode,
		Metadata:             rawJSON(x.Metadata),
		OrderID:              expID(x.Order),
		Outcome:              rawJSON(x.Outcome),
		Paid:                 x.Paid,
		PaymentIntent:        expID(x.PaymentIntent),
		PaymentMethod:        x.PaymentMethod,
		PaymentMethodDetails: rawJSON(x.PaymentMethodDetails),
		ReceiptEmail:         x.ReceiptEmail,
		ReceiptURL:           x.ReceiptURL,
		Refunded:             x.Refunded,
		Shipping:             rawJSON(x.Shipping),
		StatementDescriptor:  x.StatementDescriptor,
		Status:               x.Status,
		Created:              unixDT(x.Created),
	}
}

// writeChargeTree persists the charge and its embedded refunds. Refunds
// are additive children: individual rows upsert in place and are never
// pruned, matching their immutable ledger semantics. allowTruncated is set
// only by delete paths.
func writeChargeTree(tx *store.Tx, w *Writer, x *stripe.Charge, upsert bool) ([]int64, error) {
	var writes []int64

	var (
		id  int64
		err error
	)
	if upsert {
		id, err = w.Upsert(tx, ChargesTable, chargeRowFrom(x))
	} else {
		id, err = w.Insert(tx, ChargesTable, chargeRowFrom(x))
	}
	if err != nil {
		return nil, err
	}
	writes = append(writes, id)

	refunds, err := childList(x.Refunds, "charge", x.ID, "refunds", false)
	if err != nil {
		return nil, err
	}
	for i := range refunds {
		rid, err := w.Upsert(tx, RefundsTable, refundRowFrom(&refunds[i]))
		if err != nil {
			return nil, err
		}
		writes = append(writes, rid)
	}
	return writes, nil
}

func chargeInsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	x, err := decode[stripe.Charge](data, "charge")
	if err != nil {
		return nil, err
	}
	return writeChargeTree(tx, w, x, false)
}

func chargeUpsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	x, err := decode[stripe.Charge](data, "charge")
	if err != nil {
		return nil, err
	}
	return writeChargeTree(tx, w, x, true)
}

func chargeDeleteTree(*store.Tx, *Writer, json.RawMessage) ([]int64, error) {
	return nil, ErrUnsupportedDelete
}

package schema

import (
	"encoding/json"

	"github.com/roach88/tabledog/internal/meta"
	"github.com/roach88/tabledog/internal/store"
	"github.com/roach88/tabledog/internal/stripe"
)

// RefundRow mirrors one refund. Refunds are immutable ledger entries; the
// provider never deletes them.
type RefundRow struct {
	RefundID                  *int64  `td:"refund_id,pk"`
	ID                        string  `td:"id,unique"`
	Amount                    int64   `td:"amount"`
	BalanceTransaction        *string `td:"balance_transaction"`
	Charge                    *string `td:"charge"`
	Currency                  string  `td:"currency"`
	FailureBalanceTransaction *string `td:"failure_balance_transaction"`
	FailureReason             *string `td:"failure_reason"`
	Metadata                  *string `td:"metadata,json"`
	PaymentIntent             *string `td:"payment_intent"`
	Reason                    *string `td:"reason"`
	ReceiptNumber             *string `td:"receipt_number"`
	Status                    *string `td:"status"`
	Created                   string  `td:"created,dt"`
	InsertTS                  string  `td:"insert_ts,insert_ts"`
	UpdateTS                  *string `td:"update_ts,update_ts"`
}

// RefundsTable is the refunds table metadata.
var RefundsTable = meta.MustParse("refunds", "refund", RefundRow{})

func refundRowFrom(x *stripe.Refund) *RefundRow {
	return &RefundRow{
		ID:                        x.ID,
		Amount:                    x.Amount,
		BalanceTransaction:        expID(x.BalanceTransaction),
		Charge:                    expID(x.Charge),
		Currency:                  x.Currency,
		FailureBalanceTransaction: expID(x.FailureBalanceTransaction),
		FailureReason:             x.FailureReason,
		Metadata:                  rawJSON(x.Metadata),
		PaymentIntent:             expID(x.PaymentIntent),
		Reason:                    x.Reason,
		ReceiptNumber:             x.ReceiptNumber,
		Status:                    x.Status,
		Created:                   unixDT(x.Created),
	}
}

func refundInsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	return refundUpsertTree(tx, w, data)
}

// refundUpsertTree upserts on both paths: refunds arrive embedded on
// charges as well as through charge.refund.updated events.
func refundUpsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	x, err := decode[stripe.Refund](data, "refund")
	if err != nil {
		return nil, err
	}
	id, err := w.Upsert(tx, RefundsTable, refundRowFrom(x))
	if err != nil {
		return nil, err
	}
	return []int64{id}, nil
}

func refundDeleteTree(*store.Tx, *Writer, json.RawMessage) ([]int64, error) {
	return nil, ErrUnsupportedDelete
}

package schema

import (
	"encoding/json"

	"github.com/roach88/tabledog/internal/meta"
	"github.com/roach88/tabledog/internal/store"
	"github.com/roach88/tabledog/internal/stripe"
)

// DisputeRow mirrors one dispute.
type DisputeRow struct {
	DisputeID           *int64  `td:"dispute_id,pk"`
	ID                  string  `td:"id,unique"`
	Amount              int64   `td:"amount"`
	BalanceTransactions *string `td:"balance_transactions,json"`
	Charge              *string `td:"charge"`
	Currency            string  `td:"currency"`
	Evidence            *string `td:"evidence,json"`
	EvidenceDetails     *string `td:"evidence_details,json"`
	IsChargeRefundable  bool    `td:"is_charge_refundable"`
	Livemode            bool    `td:"livemode"`
	Metadata            *string `td:"metadata,json"`
	PaymentIntent       *string `td:"payment_intent"`
	Reason              string  `td:"reason"`
	Status              string  `td:"status"`
	Created             string  `td:"created,dt"`
	InsertTS            string  `td:"insert_ts,insert_ts"`
	UpdateTS            *string `td:"update_ts,update_ts"`
}

// DisputesTable is the disputes table metadata.
var DisputesTable = meta.MustParse("disputes", "dispute", DisputeRow{})

func disputeRowFrom(x *stripe.Dispute) *DisputeRow {
	return &DisputeRow{
		ID:                  x.ID,
		Amount:              x.Amount,
		BalanceTransactions: rawJSON(x.BalanceTransactions),
		Charge:              expID(x.Charge),
		Currency:            x.Currency,
		Evidence:            rawJSON(x.Evidence),
		EvidenceDetails:     rawJSON(x.EvidenceDetails),
		IsChargeRefundable:  x.IsChargeRefundable,
		Livemode:            x.Livemode,
		Metadata:            rawJSON(x.Metadata),
		PaymentIntent:       expID(x.PaymentIntent),
		Reason:              x.Reason,
		Status:              x.Status,
		Created:             unixDT(x.Created),
	}
}

func disputeInsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	return disputeUpsertTree(tx, w, data)
}

func disputeUpsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	x, err := decode[stripe.Dispute](data, "dispute")
	if err != nil {
		return nil, err
	}
	id, err := w.Upsert(tx, DisputesTable, disputeRowFrom(x))
	if err != nil {
		return nil, err
	}
	return []int64{id}, nil
}

func disputeDeleteTree(*store.Tx, *Writer, json.RawMessage) ([]int64, error) {
	return nil, ErrUnsupportedDelete
}

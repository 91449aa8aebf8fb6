package schema

import (
	"encoding/json"

	"github.com/roach88/tabledog/internal/meta"
	"github.com/roach88/tabledog/internal/store"
	"github.com/roach88/tabledog/internal/stripe"
)

// OrderReturnRow mirrors one order return. `order` is reserved in SQL,
// hence order_ref.
type OrderReturnRow struct {
	OrderReturnID *int64  `td:"order_return_id,pk"`
	ID            string  `td:"id,unique"`
	Amount        int64   `td:"amount"`
	Currency      string  `td:"currency"`
	Items         *string `td:"items,json"`
	Livemode      bool    `td:"livemode"`
	OrderRef      *string `td:"order_ref"`
	Refund        *string `td:"refund"`
	Created       string  `td:"created,dt"`
	InsertTS      string  `td:"insert_ts,insert_ts"`
	UpdateTS      *string `td:"update_ts,update_ts"`
}

// OrderReturnsTable is the order_returns table metadata.
var OrderReturnsTable = meta.MustParse("order_returns", "order_return", OrderReturnRow{})

func orderReturnRowFrom(x *stripe.OrderReturn) *OrderReturnRow {
	return &OrderReturnRow{
		ID:       x.ID,
		Amount:   x.Amount,
		Currency: x.Currency,
		Items:    rawJSON(x.Items),
		Livemode: x.Livemode,
		OrderRef: expID(x.Order),
		Refund:   expID(x.Refund),
		Created:  unixDT(x.Created),
	}
}

func orderReturnInsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	return orderReturnUpsertTree(tx, w, data)
}

func orderReturnUpsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	x, err := decode[stripe.OrderReturn](data, "order_return")
	if err != nil {
		return nil, err
	}
	id, err := w.Upsert(tx, OrderReturnsTable, orderReturnRowFrom(x))
	if err != nil {
		return nil, err
	}
	return []int64{id}, nil
}

// orderReturnDeleteTree always fails; returns only leave the mirror when
// their order is deleted.
func orderReturnDeleteTree(*store.Tx, *Writer, json.RawMessage) ([]int64, error) {
	return nil, ErrUnsupportedDelete
}

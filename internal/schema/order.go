package schema

import (
	"encoding/json"

	"github.com/roach88/tabledog/internal/meta"
	"github.com/roach88/tabledog/internal/store"
	"github.com/roach88/tabledog/internal/stripe"
)

// OrderRow mirrors one order. Order items carry no provider ids and live in
// the items JSON column; returns are id-bearing child rows.
type OrderRow struct {
	OrderID                *int64  `td:"order_id,pk"`
	ID                     string  `td:"id,unique"`
	Amount                 int64   `td:"amount"`
	AmountReturned         *int64  `td:"amount_returned"`
	Charge                 *string `td:"charge"`
	Currency               string  `td:"currency"`
	Customer               *string `td:"customer"`
	Email                  *string `td:"email"`
	Items                  *string `td:"items,json"`
	Livemode               bool    `td:"livemode"`
	Metadata               *string `td:"metadata,json"`
	SelectedShippingMethod *string `td:"selected_shipping_method"`
	Shipping               *string `td:"shipping,json"`
	ShippingMethods        *string `td:"shipping_methods,json"`
	Status                 string  `td:"status"`
	StatusTransitions      *string `td:"status_transitions,json"`
	Updated                *string `td:"updated,dt"`
	UpstreamID             *string `td:"upstream_id"`
	Created                string  `td:"created,dt"`
	InsertTS               string  `td:"insert_ts,insert_ts"`
	UpdateTS               *string `td:"update_ts,update_ts"`
}

// OrdersTable is the orders table metadata.
var OrdersTable = meta.MustParse("orders", "order", OrderRow{})

func orderRowFrom(x *stripe.Order) *OrderRow {
	return &OrderRow{
		ID:                     x.ID,
		Amount:                 x.Amount,
		AmountReturned:         x.AmountReturned,
		Charge:                 expID(x.Charge),
		Currency:               x.Currency,
		Customer:               expID(x.Customer),
		Email:                  x.Email,
		Items:                  rawJSON(x.Items),
		Livemode:               x.Livemode,
		Metadata:               rawJSON(x.Metadata),
		SelectedShippingMethod: x.SelectedShippingMethod,
		Shipping:               rawJSON(x.Shipping),
		ShippingMethods:        rawJSON(x.ShippingMethods),
		Status:                 x.Status,
		StatusTransitions:      rawJSON(x.StatusTransitions),
		Updated:                unixDTPtr(x.Updated),
		UpstreamID:             x.UpstreamID,
		Created:                unixDT(x.Created),
	}
}

// writeOrderTree persists the order and upserts its returns. Returns are
// additive children: upserted in place, never pruned.
func writeOrderTree(tx *store.Tx, w *Writer, x *stripe.Order, upsert bool) ([]int64, error) {
	var writes []int64

	var (
		id  int64
		err error
	)
	if upsert {
		id, err = w.Upsert(tx, OrdersTable, orderRowFrom(x))
	} else {
		id, err = w.Insert(tx, OrdersTable, orderRowFrom(x))
	}
	if err != nil {
		return nil, err
	}
	writes = append(writes, id)

	returns, err := childList(x.Returns, "order", x.ID, "returns", false)
	if err != nil {
		return nil, err
	}
	for i := range returns {
		rid, err := w.Upsert(tx, OrderReturnsTable, orderReturnRowFrom(&returns[i]))
		if err != nil {
			return nil, err
		}
		writes = append(writes, rid)
	}
	return writes, nil
}

func orderInsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	x, err := decode[stripe.Order](data, "order")
	if err != nil {
		return nil, err
	}
	return writeOrderTree(tx, w, x, false)
}

func orderUpsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	x, err := decode[stripe.Order](data, "order")
	if err != nil {
		return nil, err
	}
	return writeOrderTree(tx, w, x, true)
}

// orderDeleteTree cascades: returns for the order first, then the order.
func orderDeleteTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	x, err := decode[stripe.Order](data, "order")
	if err != nil {
		return nil, err
	}

	writes, err := w.DeleteChildren(tx, OrderReturnsTable, "order_ref", x.ID)
	if err != nil {
		return nil, err
	}

	id, err := w.Delete(tx, OrdersTable, orderRowFrom(x), "id")
	if err != nil {
		return nil, err
	}
	return append(writes, id), nil
}

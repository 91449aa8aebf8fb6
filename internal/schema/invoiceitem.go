package schema

import (
	"encoding/json"

	"github.com/roach88/tabledog/internal/meta"
	"github.com/roach88/tabledog/internal/store"
	"github.com/roach88/tabledog/internal/stripe"
)

// InvoiceItemRow mirrors one invoice item (a pending charge or credit
// staged for the customer's next invoice).
type InvoiceItemRow struct {
	InvoiceItemID     *int64  `td:"invoiceitem_id,pk"`
	ID                string  `td:"id,unique"`
	Amount            int64   `td:"amount"`
	Currency          string  `td:"currency"`
	Customer          *string `td:"customer"`
	Date              string  `td:"date,dt"`
	Description       *string `td:"description"`
	Discountable      bool    `td:"discountable"`
	Discounts         *string `td:"discounts,json"`
	Invoice           *string `td:"invoice"`
	Livemode          bool    `td:"livemode"`
	Metadata          *string `td:"metadata,json"`
	Period            *string `td:"period,json"`
	Price             *string `td:"price"`
	Proration         bool    `td:"proration"`
	Quantity          int64   `td:"quantity"`
	Subscription      *string `td:"subscription"`
	UnitAmount        *int64  `td:"unit_amount"`
	UnitAmountDecimal *string `td:"unit_amount_decimal"`
	InsertTS          string  `td:"insert_ts,insert_ts"`
	UpdateTS          *string `td:"update_ts,update_ts"`
}

// InvoiceItemsTable is the invoiceitems table metadata. The table keeps the
// provider's own endpoint spelling.
var InvoiceItemsTable = meta.MustParse("invoiceitems", "invoiceitem", InvoiceItemRow{})

func invoiceItemRowFrom(x *stripe.InvoiceItem) *InvoiceItemRow {
	row := &InvoiceItemRow{
		ID:                x.ID,
		Amount:            x.Amount,
		Currency:          x.Currency,
		Customer:          expID(x.Customer),
		Date:              unixDT(x.Date),
		Description:       x.Description,
		Discountable:      x.Discountable,
		Discounts:         rawJSON(x.Discounts),
		Invoice:           expID(x.Invoice),
		Livemode:          x.Livemode,
		Metadata:          rawJSON(x.Metadata),
		Period:            rawJSON(x.Period),
		Proration:         x.Proration,
		Quantity:          x.Quantity,
		Subscription:      expID(x.Subscription),
		UnitAmount:        x.UnitAmount,
		UnitAmountDecimal: x.UnitAmountDecimal,
	}
	if x.Price != nil {
		row.Price = &x.Price.ID
	}
	return row
}

func invoiceItemInsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	return invoiceItemUpsertTree(tx, w, data)
}

func invoiceItemUpsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	x, err := decode[stripe.InvoiceItem](data, "invoiceitem")
	if err != nil {
		return nil, err
	}

	var writes []int64
	id, err := w.Upsert(tx, InvoiceItemsTable, invoiceItemRowFrom(x))
	if err != nil {
		return nil, err
	}
	writes = append(writes, id)

	if x.Price != nil {
		ids, err := upsertInlinePrice(tx, w, x.Price)
		if err != nil {
			return nil, err
		}
		writes = append(writes, ids...)
	}

	ids, err := upsertTaxRates(tx, w, x.TaxRates)
	if err != nil {
		return nil, err
	}
	return append(writes, ids...), nil
}

// invoiceItemDeleteTree removes the row; invoice items are deletable until
// their invoice finalizes, and the provider fires invoiceitem.deleted.
func invoiceItemDeleteTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	x, err := decode[stripe.InvoiceItem](data, "invoiceitem")
	if err != nil {
		return nil, err
	}
	id, err := w.Delete(tx, InvoiceItemsTable, invoiceItemRowFrom(x), "id")
	if err != nil {
		return nil, err
	}
	return []int64{id}, nil
}

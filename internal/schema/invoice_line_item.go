package schema

import (
	"github.com/roach88/tabledog/internal/meta"
	"github.com/roach88/tabledog/internal/store"
	"github.com/roach88/tabledog/internal/stripe"
)

// InvoiceLineItemRow mirrors one invoice line. Lines have no direct event
// stream; the parent invoice's events carry the authoritative set, which
// replaces the stored set wholesale.
type InvoiceLineItemRow struct {
	InvoiceLineItemID *int64  `td:"invoice_line_item_id,pk"`
	ID                string  `td:"id,unique"`
	Amount            int64   `td:"amount"`
	Currency          string  `td:"currency"`
	Description       *string `td:"description"`
	DiscountAmounts   *string `td:"discount_amounts,json"`
	Discountable      bool    `td:"discountable"`
	Discounts         *string `td:"discounts,json"`
	Invoice           string  `td:"invoice"`
	InvoiceItem       *string `td:"invoice_item"`
	Livemode          bool    `td:"livemode"`
	Metadata          *string `td:"metadata,json"`
	Period            *string `td:"period,json"`
	Plan              *string `td:"plan"`
	Price             *string `td:"price"`
	Proration         bool    `td:"proration"`
	Quantity          *int64  `td:"quantity"`
	Subscription      *string `td:"subscription"`
	SubscriptionItem  *string `td:"subscription_item"`
	TaxAmounts        *string `td:"tax_amounts,json"`
	Type              string  `td:"type"`
	InsertTS          string  `td:"insert_ts,insert_ts"`
	UpdateTS          *string `td:"update_ts,update_ts"`
}

// InvoiceLineItemsTable is the invoice_line_items table metadata.
var InvoiceLineItemsTable = meta.MustParse("invoice_line_items", "invoice_line_item", InvoiceLineItemRow{})

func invoiceLineItemRowFrom(invoiceID string, x *stripe.InvoiceLineItem) *InvoiceLineItemRow {
	row := &InvoiceLineItemRow{
		ID:               x.ID,
		Amount:           x.Amount,
		Currency:         x.Currency,
		Description:      x.Description,
		DiscountAmounts:  rawJSON(x.DiscountAmounts),
		Discountable:     x.Discountable,
		Discounts:        rawJSON(x.Discounts),
		Invoice:          invoiceID,
		InvoiceItem:      x.InvoiceItem,
		Livemode:         x.Livemode,
		Metadata:         rawJSON(x.Metadata),
		Period:           rawJSON(x.Period),
		Proration:        x.Proration,
		Quantity:         x.Quantity,
		Subscription:     x.Subscription,
		SubscriptionItem: x.SubscriptionItem,
		TaxAmounts:       rawJSON(x.TaxAmounts),
		Type:             x.Type,
	}
	if x.Plan != nil {
		row.Plan = &x.Plan.ID
	}
	if x.Price != nil {
		row.Price = &x.Price.ID
	}
	return row
}

// writeInvoiceLine persists one line plus the inline price/plan and tax
// rates it references.
func writeInvoiceLine(tx *store.Tx, w *Writer, invoiceID string, x *stripe.InvoiceLineItem) ([]int64, error) {
	var writes []int64

	id, err := w.Upsert(tx, InvoiceLineItemsTable, invoiceLineItemRowFrom(invoiceID, x))
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
	if x.Plan != nil {
		ids, err := upsertInlinePlan(tx, w, x.Plan)
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

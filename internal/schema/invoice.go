package schema

import (
	"encoding/json"

	"github.com/roach88/tabledog/internal/meta"
	"github.com/roach88/tabledog/internal/store"
	"github.com/roach88/tabledog/internal/stripe"
)

// InvoiceRow mirrors one invoice.
type InvoiceRow struct {
	InvoiceID            *int64  `td:"invoice_id,pk"`
	ID                   string  `td:"id,unique"`
	AccountCountry       *string `td:"account_country"`
	AccountName          *string `td:"account_name"`
	AmountDue            int64   `td:"amount_due"`
	AmountPaid           int64   `td:"amount_paid"`
	AmountRemaining      int64   `td:"amount_remaining"`
	AttemptCount         int64   `td:"attempt_count"`
	Attempted            bool    `td:"attempted"`
	AutoAdvance          *bool   `td:"auto_advance"`
	BillingReason        *string `td:"billing_reason"`
	Charge               *string `td:"charge"`
	CollectionMethod     *string `td:"collection_method"`
	Currency             string  `td:"currency"`
	Customer             *string `td:"customer"`
	CustomerEmail        *string `td:"customer_email"`
	CustomerName         *string `td:"customer_name"`
	DefaultPaymentMethod *string `td:"default_payment_method"`
	Description          *string `td:"description"`
	Discount             *string `td:"discount"`
	Discounts            *string `td:"discounts,json"`
	DueDate              *string `td:"due_date,dt"`
	EndingBalance        *int64  `td:"ending_balance"`
	HostedInvoiceURL     *string `td:"hosted_invoice_url"`
	InvoicePDF           *string `td:"invoice_pdf"`
	Livemode             bool    `td:"livemode"`
	Metadata             *string `td:"metadata,json"`
	NextPaymentAttempt   *string `td:"next_payment_attempt,dt"`
	Number               *string `td:"number"`
	Paid                 bool    `td:"paid"`
	PaymentIntent        *string `td:"payment_intent"`
	PeriodEnd            string  `td:"period_end,dt"`
	PeriodStart          string  `td:"period_start,dt"`
	ReceiptNumber        *string `td:"receipt_number"`
	StartingBalance      int64   `td:"starting_balance"`
	StatementDescriptor  *string `td:"statement_descriptor"`
	Status               *string `td:"status"`
	StatusTransitions    *string `td:"status_transitions,json"`
	Subscription         *string `td:"subscription"`
	Subtotal             int64   `td:"subtotal"`
	Tax                  *int64  `td:"tax"`
	Total                int64   `td:"total"`
	TotalDiscountAmounts *string `td:"total_discount_amounts,json"`
	TotalTaxAmounts      *string `td:"total_tax_amounts,json"`
	WebhooksDeliveredAt  *string `td:"webhooks_delivered_at,dt"`
	Created              string  `td:"created,dt"`
	InsertTS             string  `td:"insert_ts,insert_ts"`
	UpdateTS             *string `td:"update_ts,update_ts"`
}

// InvoicesTable is the invoices table metadata.
var InvoicesTable = meta.MustParse("invoices", "invoice", InvoiceRow{})

func invoiceRowFrom(x *stripe.Invoice) *InvoiceRow {
	row := &InvoiceRow{
		ID:                   x.ID,
		AccountCountry:       x.AccountCountry,
		AccountName:          x.AccountName,
		AmountDue:            x.AmountDue,
		AmountPaid:           x.AmountPaid,
		AmountRemaining:      x.AmountRemaining,
		AttemptCount:         x.AttemptCount,
		Attempted:            x.Attempted,
		AutoAdvance:          x.AutoAdvance,
		BillingReason:        x.BillingReason,
		Charge:               expID(x.Charge),
		CollectionMethod:     x.CollectionMethod,
		Currency:             x.Currency,
		Customer:             expID(x.Customer),
		CustomerEmail:        x.CustomerEmail,
		CustomerName:         x.CustomerName,
		DefaultPaymentMethod: expID(x.DefaultPaymentMethod),
		Description:          x.Description,
		DueDate:              unixDTPtr(x.DueDate),
		EndingBalance:        x.EndingBalance,
		HostedInvoiceURL:     x.HostedInvoiceURL,
		InvoicePDF:           x.InvoicePDF,
		Livemode:             x.Livemode,
		Metadata:             rawJSON(x.Metadata),
		NextPaymentAttempt:   unixDTPtr(x.NextPaymentAttempt),
		Number:               x.Number,
		Paid:                 x.Paid,
		PaymentIntent:        expID(x.PaymentIntent),
		PeriodEnd:            unixDT(x.PeriodEnd),
		PeriodStart:          unixDT(x.PeriodStart),
		ReceiptNumber:        x.ReceiptNumber,
		StartingBalance:      x.StartingBalance,
		StatementDescriptor:  x.StatementDescriptor,
		Status:               x.Status,
		StatusTransitions:    rawJSON(x.StatusTransitions),
		Subscription:         expID(x.Subscription),
		Subtotal:             x.Subtotal,
		Tax:                  x.Tax,
		Total:                x.Total,
		TotalDiscountAmounts: rawJSON(x.TotalDiscountAmounts),
		TotalTaxAmounts:      rawJSON(x.TotalTaxAmounts),
		WebhooksDeliveredAt:  unixDTPtr(x.WebhooksDeliveredAt),
		Created:              unixDT(x.Created),
	}
	if x.Discount != nil {
		row.Discount = &x.Discount.ID
	}
	// The discounts array is id-or-object; normalize to ids for the JSON
	// column, the expanded rows are written separately.
	if len(x.Discounts) > 0 {
		ids := make([]string, 0, len(x.Discounts))
		for _, d := range x.Discounts {
			ids = append(ids, d.ID)
		}
		row.Discounts = marshalJSON(ids)
	}
	return row
}

// writeInvoiceDiscounts upserts the discount rows the invoice carries,
// expanded or as the legacy single discount field.
func writeInvoiceDiscounts(tx *store.Tx, w *Writer, x *stripe.Invoice) ([]int64, error) {
	var writes []int64

	if x.Discount != nil {
		ids, err := upsertDiscount(tx, w, x.Discount)
		if err != nil {
			return nil, err
		}
		writes = append(writes, ids...)
	}

	for _, d := range x.Discounts {
		if d.Obj == nil {
			continue
		}
		if x.Discount != nil && d.ID == x.Discount.ID {
			continue
		}
		ids, err := upsertDiscount(tx, w, d.Obj)
		if err != nil {
			return nil, err
		}
		writes = append(writes, ids...)
	}
	return writes, nil
}

// invoiceInsertTree writes the invoice, all lines, and the discounts.
// Called from the downloader, which completes truncated line lists with
// continuation calls before handing the payload over; has_more here still
// fails closed.
func invoiceInsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	x, err := decode[stripe.Invoice](data, "invoice")
	if err != nil {
		return nil, err
	}

	var writes []int64
	id, err := w.Insert(tx, InvoicesTable, invoiceRowFrom(x))
	if err != nil {
		return nil, err
	}
	writes = append(writes, id)

	lines, err := childList(x.Lines, "invoice", x.ID, "lines", false)
	if err != nil {
		return nil, err
	}
	for i := range lines {
		ids, err := writeInvoiceLine(tx, w, x.ID, &lines[i])
		if err != nil {
			return nil, err
		}
		writes = append(writes, ids...)
	}

	ids, err := writeInvoiceDiscounts(tx, w, x)
	if err != nil {
		return nil, err
	}
	return append(writes, ids...), nil
}

// invoiceUpsertTree replaces the line set: the event payload's lines are
// authoritative for the whole invoice, so the prior child set is deleted
// before the new one is written.
func invoiceUpsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	x, err := decode[stripe.Invoice](data, "invoice")
	if err != nil {
		return nil, err
	}

	// Fail closed before any write: a truncated line list cannot replace
	// the stored set.
	lines, err := childList(x.Lines, "invoice", x.ID, "lines", false)
	if err != nil {
		return nil, err
	}

	var writes []int64
	id, err := w.Upsert(tx, InvoicesTable, invoiceRowFrom(x))
	if err != nil {
		return nil, err
	}
	writes = append(writes, id)

	pruned, err := w.DeleteChildren(tx, InvoiceLineItemsTable, "invoice", x.ID)
	if err != nil {
		return nil, err
	}
	writes = append(writes, pruned...)

	for i := range lines {
		ids, err := writeInvoiceLine(tx, w, x.ID, &lines[i])
		if err != nil {
			return nil, err
		}
		writes = append(writes, ids...)
	}

	ids, err := writeInvoiceDiscounts(tx, w, x)
	if err != nil {
		return nil, err
	}
	return append(writes, ids...), nil
}

// invoiceDeleteTree cascades lines then the invoice. The terminal payload
// often ships a truncated line list; the children are discarded regardless,
// so truncation is tolerated here and only here.
func invoiceDeleteTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	x, err := decode[stripe.Invoice](data, "invoice")
	if err != nil {
		return nil, err
	}

	if _, err := childList(x.Lines, "invoice", x.ID, "lines", true); err != nil {
		return nil, err
	}

	writes, err := w.DeleteChildren(tx, InvoiceLineItemsTable, "invoice", x.ID)
	if err != nil {
		return nil, err
	}

	id, err := w.Delete(tx, InvoicesTable, invoiceRowFrom(x), "id")
	if err != nil {
		return nil, err
	}
	return append(writes, id), nil
}

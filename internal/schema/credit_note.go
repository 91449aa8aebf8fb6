package schema

import (
	"encoding/json"

	"github.com/roach88/tabledog/internal/meta"
	"github.com/roach88/tabledog/internal/store"
	"github.com/roach88/tabledog/internal/stripe"
)

// CreditNoteRow mirrors one credit note.
type CreditNoteRow struct {
	CreditNoteID    *int64  `td:"credit_note_id,pk"`
	ID              string  `td:"id,unique"`
	Amount          int64   `td:"amount"`
	Currency        string  `td:"currency"`
	Customer        *string `td:"customer"`
	DiscountAmount  int64   `td:"discount_amount"`
	Invoice         *string `td:"invoice"`
	Livemode        bool    `td:"livemode"`
	Memo            *string `td:"memo"`
	Metadata        *string `td:"metadata,json"`
	Number          string  `td:"number"`
	OutOfBandAmount *int64  `td:"out_of_band_amount"`
	PDF             *string `td:"pdf"`
	Reason          *string `td:"reason"`
	Refund          *string `td:"refund"`
	Status          string  `td:"status"`
	Subtotal        int64   `td:"subtotal"`
	TaxAmounts      *string `td:"tax_amounts,json"`
	Total           int64   `td:"total"`
	Type            string  `td:"type"`
	VoidedAt        *string `td:"voided_at,dt"`
	Created         string  `td:"created,dt"`
	InsertTS        string  `td:"insert_ts,insert_ts"`
	UpdateTS        *string `td:"update_ts,update_ts"`
}

// CreditNotesTable is the credit_notes table metadata.
var CreditNotesTable = meta.MustParse("credit_notes", "credit_note", CreditNoteRow{})

// CreditNoteLineItemRow mirrors one credit note line.
type CreditNoteLineItemRow struct {
	CreditNoteLineItemID *int64  `td:"credit_note_line_item_id,pk"`
	ID                   string  `td:"id,unique"`
	Amount               int64   `td:"amount"`
	CreditNote           string  `td:"credit_note"`
	Description          *string `td:"description"`
	DiscountAmount       int64   `td:"discount_amount"`
	DiscountAmounts      *string `td:"discount_amounts,json"`
	InvoiceLineItem      *string `td:"invoice_line_item"`
	Livemode             bool    `td:"livemode"`
	Quantity             *int64  `td:"quantity"`
	TaxAmounts           *string `td:"tax_amounts,json"`
	Type                 string  `td:"type"`
	UnitAmount           *int64  `td:"unit_amount"`
	UnitAmountDecimal    *string `td:"unit_amount_decimal"`
	InsertTS             string  `td:"insert_ts,insert_ts"`
	UpdateTS             *string `td:"update_ts,update_ts"`
}

// CreditNoteLineItemsTable is the credit_note_line_items table metadata.
var CreditNoteLineItemsTable = meta.MustParse("credit_note_line_items", "credit_note_line_item", CreditNoteLineItemRow{})

func creditNoteRowFrom(x *stripe.CreditNote) *CreditNoteRow {
	return &CreditNoteRow{
		ID:              x.ID,
		Amount:          x.Amount,
		Currency:        x.Currency,
		Customer:        expID(x.Customer),
		DiscountAmount:  x.DiscountAmount,
		Invoice:         expID(x.Invoice),
		Livemode:        x.Livemode,
		Memo:            x.Memo,
		Metadata:        rawJSON(x.Metadata),
		Number:          x.Number,
		OutOfBandAmount: x.OutOfBandAmount,
		PDF:             x.PDF,
		Reason:          x.Reason,
		Refund:          expID(x.Refund),
		Status:          x.Status,
		Subtotal:        x.Subtotal,
		TaxAmounts:      rawJSON(x.TaxAmounts),
		Total:           x.Total,
		Type:            x.Type,
		VoidedAt:        unixDTPtr(x.VoidedAt),
		Created:         unixDT(x.Created),
	}
}

func creditNoteLineItemRowFrom(creditNoteID string, x *stripe.CreditNoteLineItem) *CreditNoteLineItemRow {
	return &CreditNoteLineItemRow{
		ID:                x.ID,
		Amount:            x.Amount,
		CreditNote:        creditNoteID,
		Description:       x.Description,
		DiscountAmount:    x.DiscountAmount,
		DiscountAmounts:   rawJSON(x.DiscountAmounts),
		InvoiceLineItem:   x.InvoiceLineItem,
		Livemode:          x.Livemode,
		Quantity:          x.Quantity,
		TaxAmounts:        rawJSON(x.TaxAmounts),
		Type:              x.Type,
		UnitAmount:        x.UnitAmount,
		UnitAmountDecimal: x.UnitAmountDecimal,
	}
}

// writeCreditNoteTree persists the note and replaces its line set; like
// invoice lines, the payload's set is authoritative.
func writeCreditNoteTree(tx *store.Tx, w *Writer, x *stripe.CreditNote, upsert bool) ([]int64, error) {
	lines, err := childList(x.Lines, "credit_note", x.ID, "lines", false)
	if err != nil {
		return nil, err
	}

	var writes []int64
	var id int64
	if upsert {
		id, err = w.Upsert(tx, CreditNotesTable, creditNoteRowFrom(x))
	} else {
		id, err = w.Insert(tx, CreditNotesTable, creditNoteRowFrom(x))
	}
	if err != nil {
		return nil, err
	}
	writes = append(writes, id)

	if upsert {
		pruned, err := w.DeleteChildren(tx, CreditNoteLineItemsTable, "credit_note", x.ID)
		if err != nil {
			return nil, err
		}
		writes = append(writes, pruned...)
	}

	for i := range lines {
		lid, err := w.Upsert(tx, CreditNoteLineItemsTable, creditNoteLineItemRowFrom(x.ID, &lines[i]))
		if err != nil {
			return nil, err
		}
		writes = append(writes, lid)

		ids, err := upsertTaxRates(tx, w, lines[i].TaxRates)
		if err != nil {
			return nil, err
		}
		writes = append(writes, ids...)
	}
	return writes, nil
}

func creditNoteInsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	x, err := decode[stripe.CreditNote](data, "credit_note")
	if err != nil {
		return nil, err
	}
	return writeCreditNoteTree(tx, w, x, false)
}

func creditNoteUpsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	x, err := decode[stripe.CreditNote](data, "credit_note")
	if err != nil {
		return nil, err
	}
	return writeCreditNoteTree(tx, w, x, true)
}

// creditNoteDeleteTree always fails; credit notes void, they do not
// delete.
func creditNoteDeleteTree(*store.Tx, *Writer, json.RawMessage) ([]int64, error) {
	return nil, ErrUnsupportedDelete
}

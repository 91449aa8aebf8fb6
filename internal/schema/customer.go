package schema

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/tabledog/internal/meta"
	"github.com/roach88/tabledog/internal/store"
	"github.com/roach88/tabledog/internal/stripe"
)

// CustomerRow mirrors one customer.
type CustomerRow struct {
	CustomerID    *int64  `td:"customer_id,pk"`
	ID            string  `td:"id,unique"`
	Balance       int64   `td:"balance"`
	Currency      *string `td:"currency"`
	DefaultSource *string `td:"default_source"`
	Deleted       bool    `td:"deleted"`
	Delinquent    *bool   `td:"delinquent"`
	Description   *string `td:"description"`
	Discount      *string `td:"discount"`
	Email         *string `td:"email"`
	InvoicePrefix *string `td:"invoice_prefix"`
	Livemode      bool    `td:"livemode"`
	Metadata      *string `td:"metadata,json"`
	Name          *string `td:"name"`
	Phone         *string `td:"phone"`
	Shipping      *string `td:"shipping,json"`
	Created       string  `td:"created,dt"`
	InsertTS      string  `td:"insert_ts,insert_ts"`
	UpdateTS      *string `td:"update_ts,update_ts"`
}

// CustomersTable is the customers table metadata.
var CustomersTable = meta.MustParse("customers", "customer", CustomerRow{})

func customerRowFrom(x *stripe.Customer) *CustomerRow {
	row := &CustomerRow{
		ID:            x.ID,
		Balance:       x.Balance,
		Currency:      x.Currency,
		DefaultSource: expID(x.DefaultSource),
		Deleted:       x.Deleted,
		Delinquent:    x.Delinquent,
		Description:   x.Description,
		Email:         x.Email,
		InvoicePrefix: x.InvoicePrefix,
		Livemode:      x.Livemode,
		Metadata:      rawJSON(x.Metadata),
		Name:          x.Name,
		Phone:         x.Phone,
		Shipping:      rawJSON(x.Shipping),
		Created:       unixDT(x.Created),
	}
	if x.Discount != nil {
		row.Discount = &x.Discount.ID
	}
	return row
}

// writeCustomerChildren persists the subtree a customer payload owns:
// the expanded discount (plus its coupon), attached sources, and tax ids.
// Sources are polymorphic; the object discriminator routes each element.
func writeCustomerChildren(tx *store.Tx, w *Writer, x *stripe.Customer) ([]int64, error) {
	var writes []int64

	if x.Discount != nil {
		ids, err := upsertDiscount(tx, w, x.Discount)
		if err != nil {
			return nil, err
		}
		writes = append(writes, ids...)
	}

	if x.Sources != nil {
		items, err := childList(x.Sources, "customer", x.ID, "sources", false)
		if err != nil {
			return nil, err
		}
		for _, raw := range items {
			ids, err := writePaymentSource(tx, w, x.ID, raw)
			if err != nil {
				return nil, err
			}
			writes = append(writes, ids...)
		}
	}

	if x.TaxIDs != nil {
		items, err := childList(x.TaxIDs, "customer", x.ID, "tax_ids", false)
		if err != nil {
			return nil, err
		}
		for i := range items {
			id, err := w.Upsert(tx, TaxIDsTable, taxIDRowFrom(&items[i]))
			if err != nil {
				return nil, err
			}
			writes = append(writes, id)
		}
	}

	return writes, nil
}

// writePaymentSource routes one element of a customer's sources list by its
// object discriminator.
func writePaymentSource(tx *store.Tx, w *Writer, customerID string, raw json.RawMessage) ([]int64, error) {
	var probe struct {
		Object string `json:"object"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("customer %s: decode source: %w", customerID, err)
	}

	switch probe.Object {
	case "card":
		return cardUpsertTree(tx, w, raw)
	case "bank_account":
		return bankAccountUpsertTree(tx, w, raw)
	case "source":
		return sourceUpsertTree(tx, w, raw)
	default:
		return nil, &ShapeError{ObjType: "customer", ObjID: customerID,
			Detail: fmt.Sprintf("unknown source object %q", probe.Object)}
	}
}

func customerInsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	x, err := decode[stripe.Customer](data, "customer")
	if err != nil {
		return nil, err
	}

	var writes []int64
	id, err := w.Insert(tx, CustomersTable, customerRowFrom(x))
	if err != nil {
		return nil, err
	}
	writes = append(writes, id)

	children, err := writeCustomerChildren(tx, w, x)
	if err != nil {
		return nil, err
	}
	return append(writes, children...), nil
}

func customerUpsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	x, err := decode[stripe.Customer](data, "customer")
	if err != nil {
		return nil, err
	}

	var writes []int64
	id, err := w.Upsert(tx, CustomersTable, customerRowFrom(x))
	if err != nil {
		return nil, err
	}
	writes = append(writes, id)

	children, err := writeCustomerChildren(tx, w, x)
	if err != nil {
		return nil, err
	}
	return append(writes, children...), nil
}

// customerDeleteTree removes the customer and its tax ids. Attached
// payment instruments only detach; their rows stay for history queries.
func customerDeleteTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	x, err := decode[stripe.Customer](data, "customer")
	if err != nil {
		return nil, err
	}

	writes, err := w.DeleteChildren(tx, TaxIDsTable, "customer", x.ID)
	if err != nil {
		return nil, err
	}

	id, err := w.Delete(tx, CustomersTable, customerRowFrom(x), "id")
	if err != nil {
		return nil, err
	}
	return append(writes, id), nil
}

package schema

import (
	"encoding/json"

	"github.com/roach88/tabledog/internal/meta"
	"github.com/roach88/tabledog/internal/store"
	"github.com/roach88/tabledog/internal/stripe"
)

// TaxIDRow mirrors one customer tax id. Tax ids are only listable through
// their customer and are genuinely deletable.
type TaxIDRow struct {
	TaxIDID      *int64  `td:"tax_id_id,pk"`
	ID           string  `td:"id,unique"`
	Country      *string `td:"country"`
	Customer     *string `td:"customer"`
	Livemode     bool    `td:"livemode"`
	Type         string  `td:"type"`
	Value        string  `td:"value"`
	Verification *string `td:"verification,json"`
	Created      string  `td:"created,dt"`
	InsertTS     string  `td:"insert_ts,insert_ts"`
	UpdateTS     *string `td:"update_ts,update_ts"`
}

// TaxIDsTable is the tax_ids table metadata.
var TaxIDsTable = meta.MustParse("tax_ids", "tax_id", TaxIDRow{})

func taxIDRowFrom(x *stripe.TaxID) *TaxIDRow {
	return &TaxIDRow{
		ID:           x.ID,
		Country:      x.Country,
		Customer:     expID(x.Customer),
		Livemode:     x.Livemode,
		Type:         x.Type,
		Value:        x.Value,
		Verification: rawJSON(x.Verification),
		Created:      unixDT(x.Created),
	}
}

func taxIDInsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	return taxIDUpsertTree(tx, w, data)
}

func taxIDUpsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	x, err := decode[stripe.TaxID](data, "tax_id")
	if err != nil {
		return nil, err
	}
	id, err := w.Upsert(tx, TaxIDsTable, taxIDRowFrom(x))
	if err != nil {
		return nil, err
	}
	return []int64{id}, nil
}

func taxIDDeleteTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	x, err := decode[stripe.TaxID](data, "tax_id")
	if err != nil {
		return nil, err
	}
	id, err := w.Delete(tx, TaxIDsTable, taxIDRowFrom(x), "id")
	if err != nil {
		return nil, err
	}
	return []int64{id}, nil
}

package schema

import (
	"encoding/json"

	"github.com/roach88/tabledog/internal/meta"
	"github.com/roach88/tabledog/internal/store"
	"github.com/roach88/tabledog/internal/stripe"
)

// TaxRateRow mirrors one tax rate. Tax rates are archived, never deleted.
type TaxRateRow struct {
	TaxRateID    *int64  `td:"tax_rate_id,pk"`
	ID           string  `td:"id,unique"`
	Active       bool    `td:"active"`
	Country      *string `td:"country"`
	Description  *string `td:"description"`
	DisplayName  string  `td:"display_name"`
	Inclusive    bool    `td:"inclusive"`
	Jurisdiction *string `td:"jurisdiction"`
	Livemode     bool    `td:"livemode"`
	Metadata     *string `td:"metadata,json"`
	Percentage   float64 `td:"percentage"`
	State        *string `td:"state"`
	Created      string  `td:"created,dt"`
	InsertTS     string  `td:"insert_ts,insert_ts"`
	UpdateTS     *string `td:"update_ts,update_ts"`
}

// TaxRatesTable is the tax_rates table metadata.
var TaxRatesTable = meta.MustParse("tax_rates", "tax_rate", TaxRateRow{})

func taxRateRowFrom(x *stripe.TaxRate) *TaxRateRow {
	return &TaxRateRow{
		ID:           x.ID,
		Active:       x.Active,
		Country:      x.Country,
		Description:  x.Description,
		DisplayName:  x.DisplayName,
		Inclusive:    x.Inclusive,
		Jurisdiction: x.Jurisdiction,
		Livemode:     x.Livemode,
		Metadata:     rawJSON(x.Metadata),
		Percentage:   x.Percentage,
		State:        x.State,
		Created:      unixDT(x.Created),
	}
}

// upsertTaxRates writes the tax rates embedded on lines, subscriptions, and
// invoice items. They also have their own listing, so every path upserts.
func upsertTaxRates(tx *store.Tx, w *Writer, rates []stripe.TaxRate) ([]int64, error) {
	var writes []int64
	for i := range rates {
		id, err := w.Upsert(tx, TaxRatesTable, taxRateRowFrom(&rates[i]))
		if err != nil {
			return nil, err
		}
		writes = append(writes, id)
	}
	return writes, nil
}

func taxRateInsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	return taxRateUpsertTree(tx, w, data)
}

func taxRateUpsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	x, err := decode[stripe.TaxRate](data, "tax_rate")
	if err != nil {
		return nil, err
	}
	id, err := w.Upsert(tx, TaxRatesTable, taxRateRowFrom(x))
	if err != nil {
		return nil, err
	}
	return []int64{id}, nil
}

func taxRateDeleteTree(*store.Tx, *Writer, json.RawMessage) ([]int64, error) {
	return nil, ErrUnsupportedDelete
}

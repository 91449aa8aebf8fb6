package schema

import (
	"encoding/json"

	"github.com/roach88/tabledog/internal/meta"
	"github.com/roach88/tabledog/internal/store"
	"github.com/roach88/tabledog/internal/stripe"
)

// PriceRow mirrors one price. Inline holds provenance: prices created via
// price_data have no listing and no events, and only enter the store
// through the objects that reference them.
type PriceRow struct {
	PriceID           *int64  `td:"price_id,pk"`
	ID                string  `td:"id,unique"`
	Type              string  `td:"type"`
	Product           string  `td:"product"`
	Active            bool    `td:"active"`
	BillingScheme     string  `td:"billing_scheme"`
	Currency          string  `td:"currency"`
	Inline            bool    `td:"inline,writeonce"`
	Livemode          bool    `td:"livemode"`
	LookupKey         *string `td:"lookup_key"`
	Metadata          *string `td:"metadata,json"`
	Nickname          *string `td:"nickname"`
	Recurring         *string `td:"recurring,json"`
	Tiers             *string `td:"tiers,json"`
	TiersMode         *string `td:"tiers_mode"`
	TransformQuantity *string `td:"transform_quantity,json"`
	UnitAmount        *int64  `td:"unit_amount"`
	UnitAmountDecimal *string `td:"unit_amount_decimal"`
	Created           string  `td:"created,dt"`
	InsertTS          string  `td:"insert_ts,insert_ts"`
	UpdateTS          *string `td:"update_ts,update_ts"`
}

// PricesTable is the prices table metadata.
var PricesTable = meta.MustParse("prices", "price", PriceRow{})

func priceRowFrom(x *stripe.Price) *PriceRow {
	return &PriceRow{
		ID:                x.ID,
		Type:              x.Type,
		Product:           expIDReq(x.Product),
		Active:            x.Active,
		BillingScheme:     x.BillingScheme,
		Currency:          x.Currency,
		Livemode:          x.Livemode,
		LookupKey:         x.LookupKey,
		Metadata:          rawJSON(x.Metadata),
		Nickname:          x.Nickname,
		Recurring:         rawJSON(x.Recurring),
		Tiers:             rawJSON(x.Tiers),
		TiersMode:         x.TiersMode,
		TransformQuantity: rawJSON(x.TransformQuantity),
		UnitAmount:        x.UnitAmount,
		UnitAmountDecimal: x.UnitAmountDecimal,
		Created:           unixDT(x.Created),
	}
}

// upsertInlinePrice writes a price embedded on another object (line items,
// subscription items). Upsert, not insert: many parents can reference the
// same price and the download may reach it through several of them.
//
// inline is write-once: a price first seen through a parent is marked as
// provenance inline=true; the direct listing path inserts with
// inline=false. Updates never flip the flag.
func upsertInlinePrice(tx *store.Tx, w *Writer, x *stripe.Price) ([]int64, error) {
	var writes []int64

	row := priceRowFrom(x)
	row.Inline = true
	id, err := w.Upsert(tx, PricesTable, row)
	if err != nil {
		return nil, err
	}
	writes = append(writes, id)

	if x.Product.Obj != nil {
		pid, err := upsertExpandedProduct(tx, w, x.Product.Obj)
		if err != nil {
			return nil, err
		}
		writes = append(writes, pid)
	}
	return writes, nil
}

// priceInsertTree upserts even on the download path: inline prices hang off
// many objects and the downloader may meet the same price repeatedly.
func priceInsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	return priceUpsertTree(tx, w, data)
}

func priceUpsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	x, err := decode[stripe.Price](data, "price")
	if err != nil {
		return nil, err
	}
	id, err := w.Upsert(tx, PricesTable, priceRowFrom(x))
	if err != nil {
		return nil, err
	}
	return []int64{id}, nil
}

func priceDeleteTree(*store.Tx, *Writer, json.RawMessage) ([]int64, error) {
	return nil, ErrUnsupportedDelete
}

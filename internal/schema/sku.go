package schema

import (
	"encoding/json"

	"github.com/roach88/tabledog/internal/meta"
	"github.com/roach88/tabledog/internal/store"
	"github.com/roach88/tabledog/internal/stripe"
)

// SKURow mirrors one sku.
type SKURow struct {
	SKUID             *int64  `td:"sku_id,pk"`
	ID                string  `td:"id,unique"`
	Active            bool    `td:"active"`
	Attributes        *string `td:"attributes,json"`
	Currency          string  `td:"currency"`
	Deleted           bool    `td:"deleted"`
	Image             *string `td:"image"`
	Inventory         *string `td:"inventory,json"`
	Livemode          bool    `td:"livemode"`
	Metadata          *string `td:"metadata,json"`
	PackageDimensions *string `td:"package_dimensions,json"`
	Price             int64   `td:"price"`
	Product           string  `td:"product"`
	Created           string  `td:"created,dt"`
	Updated           string  `td:"updated,dt"`
	InsertTS          string  `td:"insert_ts,insert_ts"`
	UpdateTS          *string `td:"update_ts,update_ts"`
}

// SKUsTable is the skus table metadata.
var SKUsTable = meta.MustParse("skus", "sku", SKURow{})

func skuRowFrom(x *stripe.SKU) *SKURow {
	return &SKURow{
		ID:                x.ID,
		Active:            x.Active,
		Attributes:        rawJSON(x.Attributes),
		Currency:          x.Currency,
		Deleted:           x.Deleted,
		Image:             x.Image,
		Inventory:         rawJSON(x.Inventory),
		Livemode:          x.Livemode,
		Metadata:          rawJSON(x.Metadata),
		PackageDimensions: rawJSON(x.PackageDimensions),
		Price:             x.Price,
		Product:           expIDReq(x.Product),
		Created:           unixDT(x.Created),
		Updated:           unixDT(x.Updated),
	}
}

func skuInsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	return skuUpsertTree(tx, w, data)
}

// skuUpsertTree writes the sku and any expanded product. Upsert on both
// paths: order items reference skus that may also arrive via the listing.
func skuUpsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	x, err := decode[stripe.SKU](data, "sku")
	if err != nil {
		return nil, err
	}

	var writes []int64
	id, err := w.Upsert(tx, SKUsTable, skuRowFrom(x))
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

// skuDeleteTree removes the sku row; skus are deletable like products.
func skuDeleteTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	x, err := decode[stripe.SKU](data, "sku")
	if err != nil {
		return nil, err
	}
	id, err := w.Delete(tx, SKUsTable, skuRowFrom(x), "id")
	if err != nil {
		return nil, err
	}
	return []int64{id}, nil
}

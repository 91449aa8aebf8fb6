package schema

import (
	"encoding/json"

	"github.com/roach88/tabledog/internal/meta"
	"github.com/roach88/tabledog/internal/store"
	"github.com/roach88/tabledog/internal/stripe"
)

// ProductRow mirrors one product.
type ProductRow struct {
	ProductID           *int64  `td:"product_id,pk"`
	ID                  string  `td:"id,unique"`
	Active              bool    `td:"active"`
	Attributes          *string `td:"attributes,json"`
	Caption             *string `td:"caption"`
	Deleted             bool    `td:"deleted"`
	Description         *string `td:"description"`
	Images              *string `td:"images,json"`
	Livemode            bool    `td:"livemode"`
	Metadata            *string `td:"metadata,json"`
	Name                string  `td:"name"`
	PackageDimensions   *string `td:"package_dimensions,json"`
	Shippable           *bool   `td:"shippable"`
	StatementDescriptor *string `td:"statement_descriptor"`
	Type                string  `td:"type"`
	UnitLabel           *string `td:"unit_label"`
	URL                 *string `td:"url"`
	Created             string  `td:"created,dt"`
	Updated             string  `td:"updated,dt"`
	InsertTS            string  `td:"insert_ts,insert_ts"`
	UpdateTS            *string `td:"update_ts,update_ts"`
}

// ProductsTable is the products table metadata.
var ProductsTable = meta.MustParse("products", "product", ProductRow{})

func productRowFrom(x *stripe.Product) *ProductRow {
	return &ProductRow{
		ID:                  x.ID,
		Active:              x.Active,
		Attributes:          rawJSON(x.Attributes),
		Caption:             x.Caption,
		Deleted:             x.Deleted,
		Description:         x.Description,
		Images:              rawJSON(x.Images),
		Livemode:            x.Livemode,
		Metadata:            rawJSON(x.Metadata),
		Name:                x.Name,
		PackageDimensions:   rawJSON(x.PackageDimensions),
		Shippable:           x.Shippable,
		StatementDescriptor: x.StatementDescriptor,
		Type:                x.Type,
		UnitLabel:           x.UnitLabel,
		URL:                 x.URL,
		Created:             unixDT(x.Created),
		Updated:             unixDT(x.Updated),
	}
}

// upsertExpandedProduct writes a product found expanded on a price, plan,
// or sku.
func upsertExpandedProduct(tx *store.Tx, w *Writer, x *stripe.Product) (int64, error) {
	return w.Upsert(tx, ProductsTable, productRowFrom(x))
}

func productInsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	return productUpsertTree(tx, w, data)
}

func productUpsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	x, err := decode[stripe.Product](data, "product")
	if err != nil {
		return nil, err
	}
	id, err := w.Upsert(tx, ProductsTable, productRowFrom(x))
	if err != nil {
		return nil, err
	}
	return []int64{id}, nil
}

// productDeleteTree removes the product row. Products are one of the few
// genuinely deletable catalog types.
func productDeleteTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	x, err := decode[stripe.Product](data, "product")
	if err != nil {
		return nil, err
	}
	id, err := w.Delete(tx, ProductsTable, productRowFrom(x), "id")
	if err != nil {
		return nil, err
	}
	return []int64{id}, nil
}

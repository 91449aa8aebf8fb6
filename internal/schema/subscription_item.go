package schema

import (
	"github.com/roach88/tabledog/internal/meta"
	"github.com/roach88/tabledog/internal/store"
	"github.com/roach88/tabledog/internal/stripe"
)

// SubscriptionItemRow mirrors one subscription item.
type SubscriptionItemRow struct {
	SubscriptionItemID *int64  `td:"subscription_item_id,pk"`
	ID                 string  `td:"id,unique"`
	BillingThresholds  *string `td:"billing_thresholds,json"`
	Metadata           *string `td:"metadata,json"`
	Price              *string `td:"price"`
	Quantity           *int64  `td:"quantity"`
	Subscription       string  `td:"subscription"`
	Created            string  `td:"created,dt"`
	InsertTS           string  `td:"insert_ts,insert_ts"`
	UpdateTS           *string `td:"update_ts,update_ts"`
}

// SubscriptionItemsTable is the subscription_items table metadata.
var SubscriptionItemsTable = meta.MustParse("subscription_items", "subscription_item", SubscriptionItemRow{})

func subscriptionItemRowFrom(x *stripe.SubscriptionItem) *SubscriptionItemRow {
	row := &SubscriptionItemRow{
		ID:                x.ID,
		BillingThresholds: rawJSON(x.BillingThresholds),
		Metadata:          rawJSON(x.Metadata),
		Quantity:          x.Quantity,
		Subscription:      x.Subscription,
		Created:           unixDT(x.Created),
	}
	if x.Price != nil {
		row.Price = &x.Price.ID
	}
	return row
}

// writeSubscriptionItem persists one item plus its inline price and tax
// rates.
func writeSubscriptionItem(tx *store.Tx, w *Writer, x *stripe.SubscriptionItem) ([]int64, error) {
	var writes []int64

	id, err := w.Upsert(tx, SubscriptionItemsTable, subscriptionItemRowFrom(x))
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

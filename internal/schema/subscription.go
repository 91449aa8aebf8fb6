package schema

import (
	"encoding/json"

	"github.com/roach88/tabledog/internal/meta"
	"github.com/roach88/tabledog/internal/store"
	"github.com/roach88/tabledog/internal/stripe"
)

// SubscriptionRow mirrors one subscription.
type SubscriptionRow struct {
	SubscriptionID        *int64   `td:"subscription_id,pk"`
	ID                    string   `td:"id,unique"`
	ApplicationFeePercent *float64 `td:"application_fee_percent"`
	BillingCycleAnchor    string   `td:"billing_cycle_anchor,dt"`
	BillingThresholds     *string  `td:"billing_thresholds,json"`
	CancelAt              *string  `td:"cancel_at,dt"`
	CancelAtPeriodEnd     bool     `td:"cancel_at_period_end"`
	CanceledAt            *string  `td:"canceled_at,dt"`
	CollectionMethod      *string  `td:"collection_method"`
	CurrentPeriodEnd      string   `td:"current_period_end,dt"`
	CurrentPeriodStart    string   `td:"current_period_start,dt"`
	Customer              *string  `td:"customer"`
	DaysUntilDue          *int64   `td:"days_until_due"`
	DefaultPaymentMethod  *string  `td:"default_payment_method"`
	Discount              *string  `td:"discount"`
	EndedAt               *string  `td:"ended_at,dt"`
	LatestInvoice         *string  `td:"latest_invoice"`
	Livemode              bool     `td:"livemode"`
	Metadata              *string  `td:"metadata,json"`
	PauseCollection       *string  `td:"pause_collection,json"`
	Schedule              *string  `td:"schedule"`
	StartDate             string   `td:"start_date,dt"`
	Status                string   `td:"status"`
	TrialEnd              *string  `td:"trial_end,dt"`
	TrialStart            *string  `td:"trial_start,dt"`
	InsertTS              string   `td:"insert_ts,insert_ts"`
	UpdateTS              *string  `td:"update_ts,update_ts"`
}

// SubscriptionsTable is the subscriptions table metadata.
var SubscriptionsTable = meta.MustParse("subscriptions", "subscription", SubscriptionRow{})

func subscriptionRowFrom(x *stripe.Subscription) *SubscriptionRow {
	row := &SubscriptionRow{
		ID:                    x.ID,
		ApplicationFeePercent: x.ApplicationFeePercent,
		BillingCycleAnchor:    unixDT(x.BillingCycleAnchor),
		BillingThresholds:     rawJSON(x.BillingThresholds),
		CancelAt:              unixDTPtr(x.CancelAt),
		CancelAtPeriodEnd:     x.CancelAtPeriodEnd,
		CanceledAt:            unixDTPtr(x.CanceledAt),
		CollectionMethod:      x.CollectionMethod,
		CurrentPeriodEnd:      unixDT(x.CurrentPeriodEnd),
		CurrentPeriodStart:    unixDT(x.CurrentPeriodStart),
		Customer:              expID(x.Customer),
		DaysUntilDue:          x.DaysUntilDue,
		DefaultPaymentMethod:  expID(x.DefaultPaymentMethod),
		EndedAt:               unixDTPtr(x.EndedAt),
		LatestInvoice:         expID(x.LatestInvoice),
		Livemode:              x.Livemode,
		Metadata:              rawJSON(x.Metadata),
		PauseCollection:       rawJSON(x.PauseCollection),
		Schedule:              expID(x.Schedule),
		StartDate:             unixDT(x.StartDate),
		Status:                x.Status,
		TrialEnd:              unixDTPtr(x.TrialEnd),
		TrialStart:            unixDTPtr(x.TrialStart),
	}
	if x.Discount != nil {
		row.Discount = &x.Discount.ID
	}
	return row
}

// writeSubscriptionTree persists the subscription, replaces its item set,
// and upserts the expanded discount. The payload's item list is the
// authoritative set; a truncated list fails closed.
func writeSubscriptionTree(tx *store.Tx, w *Writer, x *stripe.Subscription, upsert bool) ([]int64, error) {
	items, err := childList(x.Items, "subscription", x.ID, "items", false)
	if err != nil {
		return nil, err
	}

	var writes []int64
	var id int64
	if upsert {
		id, err = w.Upsert(tx, SubscriptionsTable, subscriptionRowFrom(x))
	} else {
		id, err = w.Insert(tx, SubscriptionsTable, subscriptionRowFrom(x))
	}
	if err != nil {
		return nil, err
	}
	writes = append(writes, id)

	if upsert {
		pruned, err := w.DeleteChildren(tx, SubscriptionItemsTable, "subscription", x.ID)
		if err != nil {
			return nil, err
		}
		writes = append(writes, pruned...)
	}

	for i := range items {
		ids, err := writeSubscriptionItem(tx, w, &items[i])
		if err != nil {
			return nil, err
		}
		writes = append(writes, ids...)
	}

	if x.Discount != nil {
		ids, err := upsertDiscount(tx, w, x.Discount)
		if err != nil {
			return nil, err
		}
		writes = append(writes, ids...)
	}
	return writes, nil
}

func subscriptionInsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	x, err := decode[stripe.Subscription](data, "subscription")
	if err != nil {
		return nil, err
	}
	return writeSubscriptionTree(tx, w, x, false)
}

func subscriptionUpsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	x, err := decode[stripe.Subscription](data, "subscription")
	if err != nil {
		return nil, err
	}
	return writeSubscriptionTree(tx, w, x, true)
}

// subscriptionDeleteTree always fails: customer.subscription.deleted means
// canceled, and the payload's status update is mirrored instead.
func subscriptionDeleteTree(*store.Tx, *Writer, json.RawMessage) ([]int64, error) {
	return nil, ErrUnsupportedDelete
}

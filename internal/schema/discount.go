package schema

import (
	"encoding/json"

	"github.com/roach88/tabledog/internal/meta"
	"github.com/roach88/tabledog/internal/store"
	"github.com/roach88/tabledog/internal/stripe"
)

// DiscountRow mirrors one discount: a coupon applied to a customer,
// subscription, or invoice. `end` is a reserved word in Postgres, hence
// end_ts.
type DiscountRow struct {
	DiscountID      *int64  `td:"discount_id,pk"`
	ID              string  `td:"id,unique"`
	CheckoutSession *string `td:"checkout_session"`
	Coupon          string  `td:"coupon"`
	Customer        *string `td:"customer"`
	EndTS           *string `td:"end_ts,dt"`
	Invoice         *string `td:"invoice"`
	InvoiceItem     *string `td:"invoice_item"`
	PromotionCode   *string `td:"promotion_code"`
	Start           string  `td:"start,dt"`
	Subscription    *string `td:"subscription"`
	InsertTS        string  `td:"insert_ts,insert_ts"`
	UpdateTS        *string `td:"update_ts,update_ts"`
}

// DiscountsTable is the discounts table metadata.
var DiscountsTable = meta.MustParse("discounts", "discount", DiscountRow{})

func discountRowFrom(x *stripe.Discount) *DiscountRow {
	return &DiscountRow{
		ID:              x.ID,
		CheckoutSession: x.CheckoutSession,
		Coupon:          x.Coupon.ID,
		Customer:        expID(x.Customer),
		EndTS:           unixDTPtr(x.End),
		Invoice:         x.Invoice,
		InvoiceItem:     x.InvoiceItem,
		PromotionCode:   expID(x.PromotionCode),
		Start:           unixDT(x.Start),
		Subscription:    x.Subscription,
	}
}

// upsertDiscount writes a discount found expanded on a parent (customer,
// invoice, invoice item, subscription) plus its embedded coupon. The coupon
// is upserted because coupons with valid=false are absent from the direct
// download list.
func upsertDiscount(tx *store.Tx, w *Writer, x *stripe.Discount) ([]int64, error) {
	var writes []int64

	id, err := w.Upsert(tx, DiscountsTable, discountRowFrom(x))
	if err != nil {
		return nil, err
	}
	writes = append(writes, id)

	cid, err := upsertCoupon(tx, w, &x.Coupon)
	if err != nil {
		return nil, err
	}
	return append(writes, cid), nil
}

func discountInsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	x, err := decode[stripe.Discount](data, "discount")
	if err != nil {
		return nil, err
	}

	var writes []int64
	id, err := w.Insert(tx, DiscountsTable, discountRowFrom(x))
	if err != nil {
		return nil, err
	}
	writes = append(writes, id)

	cid, err := upsertCoupon(tx, w, &x.Coupon)
	if err != nil {
		return nil, err
	}
	return append(writes, cid), nil
}

func discountUpsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	x, err := decode[stripe.Discount](data, "discount")
	if err != nil {
		return nil, err
	}
	return upsertDiscount(tx, w, x)
}

// discountDeleteTree always fails: older paid invoices reference the
// discount row, so removal from the parent never removes the mirror row.
func discountDeleteTree(*store.Tx, *Writer, json.RawMessage) ([]int64, error) {
	return nil, ErrUnsupportedDelete
}

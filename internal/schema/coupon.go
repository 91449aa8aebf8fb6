package schema

import (
	"encoding/json"

	"github.com/roach88/tabledog/internal/meta"
	"github.com/roach88/tabledog/internal/store"
	"github.com/roach88/tabledog/internal/stripe"
)

// CouponRow mirrors one coupon. Provider delete only expires the coupon
// for new redemptions; issued discounts keep referencing it, so the row is
// never removed.
type CouponRow struct {
	CouponID         *int64   `td:"coupon_id,pk"`
	ID               string   `td:"id,unique"`
	AmountOff        *int64   `td:"amount_off"`
	Currency         *string  `td:"currency"`
	Deleted          bool     `td:"deleted"`
	Duration         string   `td:"duration"`
	DurationInMonths *int64   `td:"duration_in_months"`
	Livemode         bool     `td:"livemode"`
	MaxRedemptions   *int64   `td:"max_redemptions"`
	Metadata         *string  `td:"metadata,json"`
	Name             *string  `td:"name"`
	PercentOff       *float64 `td:"percent_off"`
	RedeemBy         *string  `td:"redeem_by,dt"`
	TimesRedeemed    int64    `td:"times_redeemed"`
	Valid            bool     `td:"valid"`
	Created          string   `td:"created,dt"`
	InsertTS         string   `td:"insert_ts,insert_ts"`
	UpdateTS         *string  `td:"update_ts,update_ts"`
}

// CouponsTable is the coupons table metadata.
var CouponsTable = meta.MustParse("coupons", "coupon", CouponRow{})

func couponRowFrom(x *stripe.Coupon) *CouponRow {
	return &CouponRow{
		ID:               x.ID,
		AmountOff:        x.AmountOff,
		Currency:         x.Currency,
		Deleted:          x.Deleted,
		Duration:         x.Duration,
		DurationInMonths: x.DurationInMonths,
		Livemode:         x.Livemode,
		MaxRedemptions:   x.MaxRedemptions,
		Metadata:         rawJSON(x.Metadata),
		Name:             x.Name,
		PercentOff:       x.PercentOff,
		RedeemBy:         unixDTPtr(x.RedeemBy),
		TimesRedeemed:    x.TimesRedeemed,
		Valid:            x.Valid,
		Created:          unixDT(x.Created),
	}
}

// upsertCoupon writes a coupon encountered inline (discounts, promotion
// codes). Coupons with valid=false drop out of the direct listing, so every
// path upserts.
func upsertCoupon(tx *store.Tx, w *Writer, x *stripe.Coupon) (int64, error) {
	return w.Upsert(tx, CouponsTable, couponRowFrom(x))
}

func couponInsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	x, err := decode[stripe.Coupon](data, "coupon")
	if err != nil {
		return nil, err
	}
	id, err := upsertCoupon(tx, w, x)
	if err != nil {
		return nil, err
	}
	return []int64{id}, nil
}

func couponUpsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	return couponInsertTree(tx, w, data)
}

// couponDeleteTree always fails: paid invoices keep joining against the
// coupon. The applier mirrors coupon.deleted as an update (the payload
// carries deleted=true).
func couponDeleteTree(*store.Tx, *Writer, json.RawMessage) ([]int64, error) {
	return nil, ErrUnsupportedDelete
}

package schema

import (
	"encoding/json"

	"github.com/roach88/tabledog/internal/meta"
	"github.com/roach88/tabledog/internal/store"
	"github.com/roach88/tabledog/internal/stripe"
)

// PromotionCodeRow mirrors one promotion code.
type PromotionCodeRow struct {
	PromotionCodeID *int64  `td:"promotion_code_id,pk"`
	ID              string  `td:"id,unique"`
	Active          bool    `td:"active"`
	Code            string  `td:"code"`
	Coupon          string  `td:"coupon"`
	Customer        *string `td:"customer"`
	ExpiresAt       *string `td:"expires_at,dt"`
	Livemode        bool    `td:"livemode"`
	MaxRedemptions  *int64  `td:"max_redemptions"`
	Metadata        *string `td:"metadata,json"`
	Restrictions    *string `td:"restrictions,json"`
	TimesRedeemed   int64   `td:"times_redeemed"`
	Created         string  `td:"created,dt"`
	InsertTS        string  `td:"insert_ts,insert_ts"`
	UpdateTS        *string `td:"update_ts,update_ts"`
}

// PromotionCodesTable is the promotion_codes table metadata.
var PromotionCodesTable = meta.MustParse("promotion_codes", "promotion_code", PromotionCodeRow{})

func promotionCodeRowFrom(x *stripe.PromotionCode) *PromotionCodeRow {
	return &PromotionCodeRow{
		ID:             x.ID,
		Active:         x.Active,
		Code:           x.Code,
		Coupon:         x.Coupon.ID,
		Customer:       expID(x.Customer),
		ExpiresAt:      unixDTPtr(x.ExpiresAt),
		Livemode:       x.Livemode,
		MaxRedemptions: x.MaxRedemptions,
		Metadata:       rawJSON(x.Metadata),
		Restrictions:   rawJSON(x.Restrictions),
		TimesRedeemed:  x.TimesRedeemed,
		Created:        unixDT(x.Created),
	}
}

func promotionCodeInsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	return promotionCodeUpsertTree(tx, w, data)
}

// promotionCodeUpsertTree writes the code and its embedded coupon. Upsert
// on both paths: codes are reachable from discounts as well as the direct
// list.
func promotionCodeUpsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	x, err := decode[stripe.PromotionCode](data, "promotion_code")
	if err != nil {
		return nil, err
	}

	id, err := w.Upsert(tx, PromotionCodesTable, promotionCodeRowFrom(x))
	if err != nil {
		return nil, err
	}
	cid, err := upsertCoupon(tx, w, &x.Coupon)
	if err != nil {
		return nil, err
	}
	return []int64{id, cid}, nil
}

func promotionCodeDeleteTree(*store.Tx, *Writer, json.RawMessage) ([]int64, error) {
	return nil, ErrUnsupportedDelete
}

package schema

import (
	"encoding/json"

	"github.com/roach88/tabledog/internal/meta"
	"github.com/roach88/tabledog/internal/store"
	"github.com/roach88/tabledog/internal/stripe"
)

// PlanRow mirrors one legacy plan.
type PlanRow struct {
	PlanID          *int64  `td:"plan_id,pk"`
	ID              string  `td:"id,unique"`
	Active          bool    `td:"active"`
	AggregateUsage  *string `td:"aggregate_usage"`
	Amount          *int64  `td:"amount"`
	AmountDecimal   *string `td:"amount_decimal"`
	BillingScheme   string  `td:"billing_scheme"`
	Currency        string  `td:"currency"`
	Deleted         bool    `td:"deleted"`
	Interval        string  `td:"interval"`
	IntervalCount   int64   `td:"interval_count"`
	Livemode        bool    `td:"livemode"`
	Metadata        *string `td:"metadata,json"`
	Nickname        *string `td:"nickname"`
	Product         *string `td:"product"`
	Tiers           *string `td:"tiers,json"`
	TiersMode       *string `td:"tiers_mode"`
	TransformUsage  *string `td:"transform_usage,json"`
	TrialPeriodDays *int64  `td:"trial_period_days"`
	UsageType       string  `td:"usage_type"`
	Created         string  `td:"created,dt"`
	InsertTS        string  `td:"insert_ts,insert_ts"`
	UpdateTS        *string `td:"update_ts,update_ts"`
}

// PlansTable is the plans table metadata.
var PlansTable = meta.MustParse("plans", "plan", PlanRow{})

func planRowFrom(x *stripe.Plan) *PlanRow {
	return &PlanRow{
		ID:              x.ID,
		Active:          x.Active,
		AggregateUsage:  x.AggregateUsage,
		Amount:          x.Amount,
		AmountDecimal:   x.AmountDecimal,
		BillingScheme:   x.BillingScheme,
		Currency:        x.Currency,
		Deleted:         x.Deleted,
		Interval:        x.Interval,
		IntervalCount:   x.IntervalCount,
		Livemode:        x.Livemode,
		Metadata:        rawJSON(x.Metadata),
		Nickname:        x.Nickname,
		Product:         expID(x.Product),
		Tiers:           rawJSON(x.Tiers),
		TiersMode:       x.TiersMode,
		TransformUsage:  rawJSON(x.TransformUsage),
		TrialPeriodDays: x.TrialPeriodDays,
		UsageType:       x.UsageType,
		Created:         unixDT(x.Created),
	}
}

// upsertInlinePlan writes a plan embedded on a line or subscription item.
func upsertInlinePlan(tx *store.Tx, w *Writer, x *stripe.Plan) ([]int64, error) {
	var writes []int64

	id, err := w.Upsert(tx, PlansTable, planRowFrom(x))
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

func planInsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	return planUpsertTree(tx, w, data)
}

func planUpsertTree(tx *store.Tx, w *Writer, data json.RawMessage) ([]int64, error) {
	x, err := decode[stripe.Plan](data, "plan")
	if err != nil {
		return nil, err
	}
	return upsertInlinePlan(tx, w, x)
}

// planDeleteTree always fails; plan.deleted is mirrored as an update so
// that existing subscriptions keep their pricing history.
func planDeleteTree(*store.Tx, *Writer, json.RawMessage) ([]int64, error) {
	return nil, ErrUnsupportedDelete
}

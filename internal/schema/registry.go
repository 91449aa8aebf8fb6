package schema

import (
	"encoding/json"
	"sort"

	"github.com/roach88/tabledog/internal/meta"
	"github.com/roach88/tabledog/internal/store"
)

// NestedList describes an embedded child list that the downloader must
// complete with continuation calls when the provider reports has_more on a
// single object. Path is the continuation endpoint with %s standing for the
// object id.
type NestedList struct {
	Field string
	Path  string
}

// Entity binds one mirrored object type to its table, tree writers, and
// stream semantics.
type Entity struct {
	ObjType string
	Table   *meta.Table

	// Deletable marks types whose provider delete removes the object.
	// Everything else mirrors "delete" as an update (detach, expire,
	// cancel).
	Deletable bool

	// SkipEvents marks types whose events carry no state the mirror
	// needs (checkout sessions, stateless balance notifications).
	SkipEvents bool

	// CreateOnlyViaEvent marks types the download cannot reach when
	// their parent is already gone; pre-T0 events still create them.
	CreateOnlyViaEvent bool

	// ParentType and ParentField name the owning object, when one
	// exists, for the applier's later-parent-delete check.
	ParentType  string
	ParentField string

	// ListPath is the direct listing endpoint; empty for types only
	// reachable through a parent.
	ListPath   string
	ListExpand []string

	// NestedLists are embedded child lists the downloader completes
	// before insert_tree.
	NestedLists []NestedList

	// Indexes are secondary indexes on the entity table.
	Indexes [][]string

	Insert TreeFunc
	Upsert TreeFunc
	Delete TreeFunc
}

// ParentID extracts the parent object id from an event payload, or ""
// when the entity has no parent or the field is absent.
func (e *Entity) ParentID(data json.RawMessage) string {
	if e.ParentField == "" {
		return ""
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return ""
	}
	raw, ok := fields[e.ParentField]
	if !ok {
		return ""
	}
	// Id-or-object: a bare string or an expanded object with an id.
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return id
	}
	var probe struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return ""
	}
	return probe.ID
}

// Registry maps every event-addressable object type to its entity. The
// map key is the payload's `object` discriminator.
var Registry = map[string]*Entity{
	"customer": {
		ObjType:    "customer",
		Table:      CustomersTable,
		Deletable:  true,
		ListPath:   "/v1/customers",
		ListExpand: []string{"sources", "tax_ids", "discount"},
		NestedLists: []NestedList{
			{Field: "sources", Path: "/v1/customers/%s/sources"},
			{Field: "tax_ids", Path: "/v1/customers/%s/tax_ids"},
		},
		Insert: customerInsertTree,
		Upsert: customerUpsertTree,
		Delete: customerDeleteTree,
	},
	"charge": {
		ObjType:     "charge",
		Table:       ChargesTable,
		ListPath:    "/v1/charges",
		NestedLists: []NestedList{{Field: "refunds", Path: "/v1/charges/%s/refunds"}},
		Indexes:     [][]string{{"customer"}, {"payment_intent"}},
		Insert:      chargeInsertTree,
		Upsert:      chargeUpsertTree,
		Delete:      chargeDeleteTree,
	},
	"refund": {
		ObjType:     "refund",
		Table:       RefundsTable,
		ParentType:  "charge",
		ParentField: "charge",
		Indexes:     [][]string{{"charge"}},
		Insert:      refundInsertTree,
		Upsert:      refundUpsertTree,
		Delete:      refundDeleteTree,
	},
	"coupon": {
		ObjType:  "coupon",
		Table:    CouponsTable,
		ListPath: "/v1/coupons",
		Insert:   couponInsertTree,
		Upsert:   couponUpsertTree,
		Delete:   couponDeleteTree,
	},
	"discount": {
		ObjType:     "discount",
		Table:       DiscountsTable,
		ParentType:  "customer",
		ParentField: "customer",
		Indexes:     [][]string{{"customer"}},
		Insert:      discountInsertTree,
		Upsert:      discountUpsertTree,
		Delete:      discountDeleteTree,
	},
	"promotion_code": {
		ObjType:  "promotion_code",
		Table:    PromotionCodesTable,
		ListPath: "/v1/promotion_codes",
		Insert:   promotionCodeInsertTree,
		Upsert:   promotionCodeUpsertTree,
		Delete:   promotionCodeDeleteTree,
	},
	"tax_rate": {
		ObjType:  "tax_rate",
		Table:    TaxRatesTable,
		ListPath: "/v1/tax_rates",
		Insert:   taxRateInsertTree,
		Upsert:   taxRateUpsertTree,
		Delete:   taxRateDeleteTree,
	},
	"tax_id": {
		ObjType:     "tax_id",
		Table:       TaxIDsTable,
		Deletable:   true,
		ParentType:  "customer",
		ParentField: "customer",
		Indexes:     [][]string{{"customer"}},
		Insert:      taxIDInsertTree,
		Upsert:      taxIDUpsertTree,
		Delete:      taxIDDeleteTree,
	},
	"product": {
		ObjType:   "product",
		Table:     ProductsTable,
		Deletable: true,
		ListPath:  "/v1/products",
		Insert:    productInsertTree,
		Upsert:    productUpsertTree,
		Delete:    productDeleteTree,
	},
	"price": {
		ObjType:  "price",
		Table:    PricesTable,
		ListPath: "/v1/prices",
		Insert:   priceInsertTree,
		Upsert:   priceUpsertTree,
		Delete:   priceDeleteTree,
	},
	"plan": {
		ObjType:  "plan",
		Table:    PlansTable,
		ListPath: "/v1/plans",
		Insert:   planInsertTree,
		Upsert:   planUpsertTree,
		Delete:   planDeleteTree,
	},
	"sku": {
		ObjType:   "sku",
		Table:     SKUsTable,
		Deletable: true,
		ListPath:  "/v1/skus",
		Insert:    skuInsertTree,
		Upsert:    skuUpsertTree,
		Delete:    skuDeleteTree,
	},
	"order": {
		ObjType:     "order",
		Table:       OrdersTable,
		Deletable:   true,
		ListPath:    "/v1/orders",
		NestedLists: []NestedList{{Field: "returns", Path: "/v1/order_returns?order=%s"}},
		Indexes:     [][]string{{"customer"}},
		Insert:      orderInsertTree,
		Upsert:      orderUpsertTree,
		Delete:      orderDeleteTree,
	},
	"order_return": {
		ObjType:     "order_return",
		Table:       OrderReturnsTable,
		ParentType:  "order",
		ParentField: "order",
		ListPath:    "/v1/order_returns",
		Indexes:     [][]string{{"order_ref"}},
		Insert:      orderReturnInsertTree,
		Upsert:      orderReturnUpsertTree,
		Delete:      orderReturnDeleteTree,
	},
	"invoice": {
		ObjType:     "invoice",
		Table:       InvoicesTable,
		Deletable:   true,
		ListPath:    "/v1/invoices",
		ListExpand:  []string{"discounts"},
		NestedLists: []NestedList{{Field: "lines", Path: "/v1/invoices/%s/lines"}},
		Indexes:     [][]string{{"customer"}, {"subscription"}},
		Insert:      invoiceInsertTree,
		Upsert:      invoiceUpsertTree,
		Delete:      invoiceDeleteTree,
	},
	"invoiceitem": {
		ObjType:     "invoiceitem",
		Table:       InvoiceItemsTable,
		Deletable:   true,
		ParentType:  "customer",
		ParentField: "customer",
		ListPath:    "/v1/invoiceitems",
		Indexes:     [][]string{{"customer"}, {"invoice"}},
		Insert:      invoiceItemInsertTree,
		Upsert:      invoiceItemUpsertTree,
		Delete:      invoiceItemDeleteTree,
	},
	"credit_note": {
		ObjType:     "credit_note",
		Table:       CreditNotesTable,
		ListPath:    "/v1/credit_notes",
		NestedLists: []NestedList{{Field: "lines", Path: "/v1/credit_notes/%s/lines"}},
		Indexes:     [][]string{{"invoice"}},
		Insert:      creditNoteInsertTree,
		Upsert:      creditNoteUpsertTree,
		Delete:      creditNoteDeleteTree,
	},
	"payment_method": {
		ObjType:            "payment_method",
		Table:              PaymentMethodsTable,
		CreateOnlyViaEvent: true,
		ParentType:         "customer",
		ParentField:        "customer",
		Indexes:            [][]string{{"customer"}},
		Insert:             paymentMethodInsertTree,
		Upsert:             paymentMethodUpsertTree,
		Delete:             paymentMethodDeleteTree,
	},
	"source": {
		ObjType:            "source",
		Table:              SourcesTable,
		CreateOnlyViaEvent: true,
		ParentType:         "customer",
		ParentField:        "customer",
		Indexes:            [][]string{{"customer"}},
		Insert:             sourceInsertTree,
		Upsert:             sourceUpsertTree,
		Delete:             sourceDeleteTree,
	},
	"bank_account": {
		ObjType:            "bank_account",
		Table:              BankAccountsTable,
		CreateOnlyViaEvent: true,
		ParentType:         "customer",
		ParentField:        "customer",
		Indexes:            [][]string{{"customer"}},
		Insert:             bankAccountInsertTree,
		Upsert:             bankAccountUpsertTree,
		Delete:             bankAccountDeleteTree,
	},
	"card": {
		ObjType:            "card",
		Table:              CardsTable,
		CreateOnlyViaEvent: true,
		ParentType:         "customer",
		ParentField:        "customer",
		Indexes:            [][]string{{"customer"}},
		Insert:             cardInsertTree,
		Upsert:             cardUpsertTree,
		Delete:             cardDeleteTree,
	},
	"subscription": {
		ObjType:     "subscription",
		Table:       SubscriptionsTable,
		ParentType:  "customer",
		ParentField: "customer",
		ListPath:    "/v1/subscriptions",
		Indexes:     [][]string{{"customer"}},
		Insert:      subscriptionInsertTree,
		Upsert:      subscriptionUpsertTree,
		Delete:      subscriptionDeleteTree,
	},
	"subscription_schedule": {
		ObjType:  "subscription_schedule",
		Table:    SubscriptionSchedulesTable,
		ListPath: "/v1/subscription_schedules",
		Indexes:  [][]string{{"customer"}},
		Insert:   subscriptionScheduleInsertTree,
		Upsert:   subscriptionScheduleUpsertTree,
		Delete:   subscriptionScheduleDeleteTree,
	},
	"checkout.session": {
		ObjType:    "session",
		Table:      SessionsTable,
		SkipEvents: true,
		ListPath:   "/v1/checkout/sessions",
		Insert:     sessionInsertTree,
		Upsert:     sessionUpsertTree,
		Delete:     sessionDeleteTree,
	},
	"dispute": {
		ObjType:  "dispute",
		Table:    DisputesTable,
		ListPath: "/v1/disputes",
		Indexes:  [][]string{{"charge"}},
		Insert:   disputeInsertTree,
		Upsert:   disputeUpsertTree,
		Delete:   disputeDeleteTree,
	},
	"balance_transaction": {
		ObjType:  "balance_transaction",
		Table:    BalanceTransactionsTable,
		ListPath: "/v1/balance_transactions",
		Insert:   balanceTransactionInsertTree,
		Upsert:   balanceTransactionUpsertTree,
		Delete:   balanceTransactionDeleteTree,
	},
	"payment_intent": {
		ObjType:  "payment_intent",
		Table:    PaymentIntentsTable,
		ListPath: "/v1/payment_intents",
		Indexes:  [][]string{{"customer"}},
		Insert:   paymentIntentInsertTree,
		Upsert:   paymentIntentUpsertTree,
		Delete:   paymentIntentDeleteTree,
	},
	"setup_intent": {
		ObjType:  "setup_intent",
		Table:    SetupIntentsTable,
		ListPath: "/v1/setup_intents",
		Indexes:  [][]string{{"customer"}},
		Insert:   setupIntentInsertTree,
		Upsert:   setupIntentUpsertTree,
		Delete:   setupIntentDeleteTree,
	},
	// Stateless balance notifications; nothing to mirror.
	"balance": {
		ObjType:    "balance",
		SkipEvents: true,
	},
}

// ByObjType resolves an entity by its canonical object type name (the
// write-log spelling), which differs from the payload discriminator only
// for checkout sessions.
func ByObjType(objType string) *Entity {
	if e, ok := Registry[objType]; ok {
		return e
	}
	if objType == "session" {
		return Registry["checkout.session"]
	}
	return nil
}

// DownloadOrder lists directly-listable types in a dependency-safe order:
// referenced catalog types first, then account activity. Ties are broken by
// this fixed ordering so repeated downloads are deterministic.
var DownloadOrder = []string{
	"product",
	"plan",
	"price",
	"coupon",
	"promotion_code",
	"tax_rate",
	"sku",
	"balance_transaction",
	"customer",
	"order",
	"order_return",
	"checkout.session",
	"subscription_schedule",
	"subscription",
	"invoiceitem",
	"invoice",
	"credit_note",
	"payment_intent",
	"setup_intent",
	"charge",
	"dispute",
}

// ChildTables are mirrored tables with no event-addressable identity of
// their own; they exist for DDL and tree writes only.
var ChildTables = []store.DDLTable{
	{Table: InvoiceLineItemsTable, Indexes: [][]string{{"invoice"}}},
	{Table: CreditNoteLineItemsTable, Indexes: [][]string{{"credit_note"}}},
	{Table: SubscriptionItemsTable, Indexes: [][]string{{"subscription"}}},
}

// DDLTables returns every table the mirror owns, including the write log
// and the apply-event audit.
func DDLTables() []store.DDLTable {
	seen := map[string]bool{}
	var out []store.DDLTable

	for _, key := range DownloadOrder {
		e := Registry[key]
		if e.Table != nil && !seen[e.Table.Name] {
			seen[e.Table.Name] = true
			out = append(out, store.DDLTable{Table: e.Table, Indexes: e.Indexes})
		}
	}
	rest := make([]string, 0, len(Registry))
	for key := range Registry {
		rest = append(rest, key)
	}
	sort.Strings(rest)
	for _, key := range rest {
		e := Registry[key]
		if e.Table != nil && !seen[e.Table.Name] {
			seen[e.Table.Name] = true
			out = append(out, store.DDLTable{Table: e.Table, Indexes: e.Indexes})
		}
	}
	out = append(out, ChildTables...)
	out = append(out,
		store.DDLTable{Table: WritesTable, Indexes: [][]string{{"obj_type", "obj_id", "run_id", "seq"}}},
		store.DDLTable{Table: ActionsTable, Indexes: [][]string{{"run_id"}}},
	)
	return out
}

package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tabledog/internal/meta"
	"github.com/roach88/tabledog/internal/store"
)

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func countWhere(t *testing.T, tx *store.Tx, table, col, val string) int {
	t.Helper()
	rows, err := tx.QueryNamed(
		"SELECT COUNT(*) FROM "+table+" WHERE "+col+" = :v",
		[]meta.NamedValue{{Name: "v", Value: val}})
	require.NoError(t, err)
	defer rows.Close()
	require.True(t, rows.Next())
	var n int
	require.NoError(t, rows.Scan(&n))
	return n
}

func customerPayload(id string) map[string]any {
	return map[string]any{
		"object":  "customer",
		"id":      id,
		"created": int64(1610000000),
		"balance": int64(0),
		"email":   "a@example.com",
		"tax_ids": map[string]any{
			"object":   "list",
			"data":     []any{taxIDPayload("txi_1", id)},
			"has_more": false,
		},
	}
}

func taxIDPayload(id, customer string) map[string]any {
	return map[string]any{
		"object":   "tax_id",
		"id":       id,
		"created":  int64(1610000001),
		"customer": customer,
		"type":     "eu_vat",
		"value":    "DE123456789",
	}
}

func TestCustomerInsertTreeWritesChildren(t *testing.T) {
	s := openTestStore(t)
	tx := begin(t, s)
	w := NewWriter(1)

	writes, err := customerInsertTree(tx, w, mustJSON(t, customerPayload("cus_1")))
	require.NoError(t, err)
	assert.Len(t, writes, 2) // customer + tax id

	exists, err := tx.Exists(CustomersTable, "cus_1")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, 1, countWhere(t, tx, "tax_ids", "customer", "cus_1"))
}

func TestCustomerDeleteTreeCascadesTaxIDs(t *testing.T) {
	s := openTestStore(t)
	tx := begin(t, s)
	w := NewWriter(1)

	_, err := customerInsertTree(tx, w, mustJSON(t, customerPayload("cus_1")))
	require.NoError(t, err)

	deleted := map[string]any{"object": "customer", "id": "cus_1", "created": int64(1610000000), "deleted": true}
	writes, err := customerDeleteTree(tx, w, mustJSON(t, deleted))
	require.NoError(t, err)
	assert.Len(t, writes, 2) // tax id + customer

	exists, err := tx.Exists(CustomersTable, "cus_1")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, 0, countWhere(t, tx, "tax_ids", "customer", "cus_1"))
}

func TestCustomerSourcesRouteByObject(t *testing.T) {
	s := openTestStore(t)
	tx := begin(t, s)
	w := NewWriter(1)

	payload := customerPayload("cus_1")
	payload["sources"] = map[string]any{
		"object": "list",
		"data": []any{
			map[string]any{"object": "card", "id": "card_1", "customer": "cus_1",
				"brand": "visa", "exp_month": 1, "exp_year": 2030, "funding": "credit", "last4": "4242"},
			map[string]any{"object": "bank_account", "id": "ba_1", "customer": "cus_1",
				"country": "US", "currency": "usd", "last4": "6789", "status": "new"},
		},
		"has_more": false,
	}

	_, err := customerInsertTree(tx, w, mustJSON(t, payload))
	require.NoError(t, err)

	assert.Equal(t, 1, countWhere(t, tx, "cards", "id", "card_1"))
	assert.Equal(t, 1, countWhere(t, tx, "bank_accounts", "id", "ba_1"))
}

func TestCustomerUnknownSourceShapeFails(t *testing.T) {
	s := openTestStore(t)
	tx := begin(t, s)
	w := NewWriter(1)

	payload := customerPayload("cus_1")
	payload["sources"] = map[string]any{
		"object":   "list",
		"data":     []any{map[string]any{"object": "alien", "id": "x_1"}},
		"has_more": false,
	}

	_, err := customerInsertTree(tx, w, mustJSON(t, payload))
	var se *ShapeError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "customer", se.ObjType)
}

func TestDiscountTreeUpsertsCoupon(t *testing.T) {
	s := openTestStore(t)
	tx := begin(t, s)
	w := NewWriter(1)

	discount := map[string]any{
		"object":   "discount",
		"id":       "di_1",
		"customer": "cus_1",
		"start":    int64(1610000000),
		"coupon": map[string]any{
			"object": "coupon", "id": "co_1", "created": int64(1609000000),
			"duration": "once", "valid": false, "times_redeemed": 1,
		},
	}

	writes, err := discountUpsertTree(tx, w, mustJSON(t, discount))
	require.NoError(t, err)
	assert.Len(t, writes, 2)
	assert.Equal(t, 1, countWhere(t, tx, "coupons", "id", "co_1"))

	// Second pass updates both rows in place.
	_, err = discountUpsertTree(tx, w, mustJSON(t, discount))
	require.NoError(t, err)
	assert.Equal(t, 1, countWhere(t, tx, "coupons", "id", "co_1"))
	assert.Equal(t, 1, countWhere(t, tx, "discounts", "id", "di_1"))
}

func TestDiscountDeleteUnsupported(t *testing.T) {
	s := openTestStore(t)
	tx := begin(t, s)
	w := NewWriter(1)

	_, err := discountDeleteTree(tx, w, nil)
	assert.ErrorIs(t, err, ErrUnsupportedDelete)
}

func invoiceLine(id, invoice string, amount int64, discount int64) map[string]any {
	return map[string]any{
		"object":       "line_item",
		"id":           id,
		"amount":       amount,
		"currency":     "usd",
		"discountable": true,
		"livemode":     false,
		"proration":    false,
		"type":         "invoiceitem",
		"discount_amounts": []any{
			map[string]any{"amount": discount, "discount": "di_1"},
		},
	}
}

func invoicePayload(id string, lines []any, hasMore bool) map[string]any {
	return map[string]any{
		"object":           "invoice",
		"id":               id,
		"created":          int64(1610000000),
		"currency":         "usd",
		"customer":         "cus_1",
		"amount_due":       int64(100),
		"amount_paid":      int64(0),
		"amount_remaining": int64(100),
		"attempt_count":    int64(0),
		"period_end":       int64(1610000000),
		"period_start":     int64(1607000000),
		"starting_balance": int64(0),
		"subtotal":         int64(100),
		"total":            int64(100),
		"paid":             false,
		"attempted":        false,
		"lines": map[string]any{
			"object":   "list",
			"data":     lines,
			"has_more": hasMore,
		},
	}
}

func TestInvoiceUpsertReplacesLineSet(t *testing.T) {
	s := openTestStore(t)
	tx := begin(t, s)
	w := NewWriter(1)

	first := invoicePayload("in_1", []any{
		invoiceLine("il_1", "in_1", 40, 0),
		invoiceLine("il_2", "in_1", 60, 0),
	}, false)
	_, err := invoiceInsertTree(tx, w, mustJSON(t, first))
	require.NoError(t, err)
	assert.Equal(t, 2, countWhere(t, tx, "invoice_line_items", "invoice", "in_1"))

	second := invoicePayload("in_1", []any{
		invoiceLine("il_3", "in_1", 100, 0),
	}, false)
	_, err = invoiceUpsertTree(tx, w, mustJSON(t, second))
	require.NoError(t, err)

	assert.Equal(t, 1, countWhere(t, tx, "invoice_line_items", "invoice", "in_1"))
	assert.Equal(t, 1, countWhere(t, tx, "invoice_line_items", "id", "il_3"))
	assert.Equal(t, 0, countWhere(t, tx, "invoice_line_items", "id", "il_1"))
}

func TestInvoiceUpsertTruncatedLinesFailsClosed(t *testing.T) {
	s := openTestStore(t)
	tx := begin(t, s)
	w := NewWriter(1)

	full := invoicePayload("in_1", []any{invoiceLine("il_1", "in_1", 100, 0)}, false)
	_, err := invoiceInsertTree(tx, w, mustJSON(t, full))
	require.NoError(t, err)

	truncated := invoicePayload("in_1", []any{invoiceLine("il_1", "in_1", 100, 0)}, true)
	_, err = invoiceUpsertTree(tx, w, mustJSON(t, truncated))

	var te *TruncatedListError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "invoice", te.ObjType)
	assert.Equal(t, "lines", te.Field)

	// Fail-closed means no partial write: the stored line set is intact.
	assert.Equal(t, 1, countWhere(t, tx, "invoice_line_items", "id", "il_1"))
}

func TestInvoiceDeleteToleratesTruncatedLines(t *testing.T) {
	s := openTestStore(t)
	tx := begin(t, s)
	w := NewWriter(1)

	full := invoicePayload("in_1", []any{invoiceLine("il_1", "in_1", 100, 0)}, false)
	_, err := invoiceInsertTree(tx, w, mustJSON(t, full))
	require.NoError(t, err)

	// The terminal payload ships a truncated list; the children are
	// discarded regardless, so the delete proceeds.
	truncated := invoicePayload("in_1", []any{}, true)
	_, err = invoiceDeleteTree(tx, w, mustJSON(t, truncated))
	require.NoError(t, err)

	assert.Equal(t, 0, countWhere(t, tx, "invoices", "id", "in_1"))
	assert.Equal(t, 0, countWhere(t, tx, "invoice_line_items", "invoice", "in_1"))
}

func TestInvoiceLineWritesInlinePrice(t *testing.T) {
	s := openTestStore(t)
	tx := begin(t, s)
	w := NewWriter(1)

	line := invoiceLine("il_1", "in_1", 100, 0)
	line["price"] = map[string]any{
		"object": "price", "id": "price_inline_1", "created": int64(1609000000),
		"active": false, "billing_scheme": "per_unit", "currency": "usd",
		"product": "prod_1", "type": "one_time",
	}
	payload := invoicePayload("in_1", []any{line}, false)

	_, err := invoiceInsertTree(tx, w, mustJSON(t, payload))
	require.NoError(t, err)

	rows, err := tx.QueryNamed(`SELECT inline FROM prices WHERE id = :id`,
		[]meta.NamedValue{{Name: "id", Value: "price_inline_1"}})
	require.NoError(t, err)
	defer rows.Close()
	require.True(t, rows.Next())
	var inline bool
	require.NoError(t, rows.Scan(&inline))
	assert.True(t, inline, "parent-embedded price is marked inline")
}

func TestChargeTreeUpsertsRefundsAdditively(t *testing.T) {
	s := openTestStore(t)
	tx := begin(t, s)
	w := NewWriter(1)

	charge := map[string]any{
		"object": "charge", "id": "ch_1", "created": int64(1610000000),
		"amount": int64(500), "amount_captured": int64(500), "amount_refunded": int64(0),
		"currency": "usd", "captured": true, "paid": true, "status": "succeeded",
		"refunds": map[string]any{
			"object": "list",
			"data": []any{map[string]any{
				"object": "refund", "id": "re_1", "amount": int64(100),
				"charge": "ch_1", "created": int64(1610000500), "currency": "usd",
			}},
			"has_more": false,
		},
	}

	_, err := chargeUpsertTree(tx, w, mustJSON(t, charge))
	require.NoError(t, err)
	assert.Equal(t, 1, countWhere(t, tx, "refunds", "charge", "ch_1"))

	// A second upsert with the same refund does not duplicate or prune.
	_, err = chargeUpsertTree(tx, w, mustJSON(t, charge))
	require.NoError(t, err)
	assert.Equal(t, 1, countWhere(t, tx, "refunds", "charge", "ch_1"))
}

func TestChargeTruncatedRefundsFailsClosed(t *testing.T) {
	s := openTestStore(t)
	tx := begin(t, s)
	w := NewWriter(1)

	charge := map[string]any{
		"object": "charge", "id": "ch_1", "created": int64(1610000000),
		"amount": int64(500), "amount_captured": int64(500), "amount_refunded": int64(0),
		"currency": "usd", "captured": true, "paid": true, "status": "succeeded",
		"refunds": map[string]any{"object": "list", "data": []any{}, "has_more": true},
	}

	_, err := chargeUpsertTree(tx, w, mustJSON(t, charge))
	var te *TruncatedListError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "refunds", te.Field)
}

func TestNonDeletableTreesRefuseDelete(t *testing.T) {
	s := openTestStore(t)
	tx := begin(t, s)
	w := NewWriter(1)

	for name, fn := range map[string]TreeFunc{
		"coupon":              couponDeleteTree,
		"charge":              chargeDeleteTree,
		"refund":              refundDeleteTree,
		"price":               priceDeleteTree,
		"plan":                planDeleteTree,
		"source":              sourceDeleteTree,
		"bank_account":        bankAccountDeleteTree,
		"card":                cardDeleteTree,
		"payment_method":      paymentMethodDeleteTree,
		"dispute":             disputeDeleteTree,
		"balance_transaction": balanceTransactionDeleteTree,
		"tax_rate":            taxRateDeleteTree,
		"promotion_code":      promotionCodeDeleteTree,
		"order_return":        orderReturnDeleteTree,
		"subscription":        subscriptionDeleteTree,
	} {
		_, err := fn(tx, w, nil)
		assert.ErrorIs(t, err, ErrUnsupportedDelete, name)
	}
}

func TestOrderDeleteCascadesReturns(t *testing.T) {
	s := openTestStore(t)
	tx := begin(t, s)
	w := NewWriter(1)

	order := map[string]any{
		"object": "order", "id": "or_1", "created": int64(1610000000),
		"amount": int64(900), "currency": "usd", "status": "paid",
		"returns": map[string]any{
			"object": "list",
			"data": []any{map[string]any{
				"object": "order_return", "id": "orret_1", "amount": int64(900),
				"created": int64(1610001000), "currency": "usd", "order": "or_1",
			}},
			"has_more": false,
		},
	}

	_, err := orderInsertTree(tx, w, mustJSON(t, order))
	require.NoError(t, err)
	assert.Equal(t, 1, countWhere(t, tx, "order_returns", "order_ref", "or_1"))

	_, err = orderDeleteTree(tx, w, mustJSON(t, order))
	require.NoError(t, err)
	assert.Equal(t, 0, countWhere(t, tx, "orders", "id", "or_1"))
	assert.Equal(t, 0, countWhere(t, tx, "order_returns", "order_ref", "or_1"))
}

package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tabledog/internal/harness"
	"github.com/roach88/tabledog/internal/store"
)

func TestDownloadRecordsT0(t *testing.T) {
	fake := harness.New()
	e, s := newTestEngine(t, fake)

	fake.AddEvent("evt_9", "product.created", 1620000400,
		harness.Obj("product", "prod_1", 1620000400, map[string]any{"active": true, "name": "w", "type": "good", "updated": int64(1620000400)}))

	dl(t, e)

	assert.Equal(t, "evt_9", e.t0ID)
	assert.Equal(t, int64(1620000400), e.t0Created)

	var t0 string
	require.NoError(t, s.DB().QueryRow(
		"SELECT t0_event_id FROM td_stripe_runs WHERE kind = 'dl'").Scan(&t0))
	assert.Equal(t, "evt_9", t0)
}

func TestDownloadWalksTypesInDependencyOrder(t *testing.T) {
	fake := harness.New()
	e, _ := newTestEngine(t, fake)

	fake.SetListing("/v1/products",
		harness.Obj("product", "prod_1", 1, map[string]any{"active": true, "name": "w", "type": "good", "updated": int64(1)}))
	fake.SetListing("/v1/customers", customerPayloadNoChildren("cus_1"))

	dl(t, e)

	productIdx, customerIdx := -1, -1
	for i, path := range fake.CallLog {
		switch path {
		case "/v1/products":
			if productIdx == -1 {
				productIdx = i
			}
		case "/v1/customers":
			if customerIdx == -1 {
				customerIdx = i
			}
		}
	}
	require.NotEqual(t, -1, productIdx)
	require.NotEqual(t, -1, customerIdx)
	assert.Less(t, productIdx, customerIdx, "catalog types list before account activity")
}

func customerPayloadNoChildren(id string) map[string]any {
	return harness.Obj("customer", id, 1620000000, map[string]any{"balance": int64(0)})
}

func TestDownloadPaginates(t *testing.T) {
	fake := harness.New()
	fake.PageSize = 2
	e, s := newTestEngine(t, fake)

	var items []any
	for i := 0; i < 5; i++ {
		items = append(items, customerPayloadNoChildren(fmt.Sprintf("cus_%d", i)))
	}
	fake.SetListing("/v1/customers", items...)

	dl(t, e)

	assert.Equal(t, 5, scalar[int](t, s, "SELECT COUNT(*) FROM customers"))
	assert.GreaterOrEqual(t, fake.Calls["/v1/customers"], 3, "5 items at page size 2")
}

// An invoice whose line list exceeds the embedded page. The
// downloader completes the child set with continuation calls; the stored
// line items reconcile with the parent's discount totals.
func TestDownloadCompletesTruncatedInvoiceLines(t *testing.T) {
	fake := harness.New()
	e, s := newTestEngine(t, fake)

	const lineCount = 12
	var all []any
	for i := 1; i <= lineCount; i++ {
		all = append(all, map[string]any{
			"object": "line_item", "id": fmt.Sprintf("il_%02d", i),
			"amount": int64(10), "currency": "usd", "discountable": true,
			"proration": false, "type": "invoiceitem",
			"discount_amounts": []any{map[string]any{"amount": int64(2), "discount": "di_1"}},
		})
	}

	discount := func(id string) map[string]any {
		return map[string]any{
			"object": "discount", "id": id, "customer": "cus_1", "start": int64(1620000000),
			"coupon": map[string]any{"object": "coupon", "id": "co_" + id, "created": int64(1619000000),
				"duration": "once", "valid": true, "times_redeemed": 1},
		}
	}

	invoice := map[string]any{
		"object": "invoice", "id": "in_1", "created": int64(1620000000),
		"currency": "usd", "customer": "cus_1",
		"amount_due": int64(120), "amount_paid": int64(0), "amount_remaining": int64(120),
		"attempt_count": int64(0), "attempted": false, "paid": false,
		"period_end": int64(1620000000), "period_start": int64(1610000000),
		"starting_balance": int64(0), "subtotal": int64(120), "total": int64(96),
		"total_discount_amounts": []any{
			map[string]any{"amount": int64(14), "discount": "di_1"},
			map[string]any{"amount": int64(10), "discount": "di_2"},
		},
		"discounts": []any{discount("di_1"), discount("di_2")},
		"lines": map[string]any{
			"object": "list", "data": all[:10], "has_more": true,
		},
	}

	fake.SetListing("/v1/invoices", invoice)
	fake.SetListing("/v1/invoices/in_1/lines", all...)

	dl(t, e)

	require.True(t, rowExists(t, s, "invoices", "in_1"))
	lines := scalar[int](t, s, "SELECT COUNT(*) FROM invoice_line_items WHERE invoice = ?", "in_1")
	assert.Equal(t, lineCount, lines)
	assert.Greater(t, lines, 10)

	// Sum of per-line discount amounts equals the parent's total.
	var (
		parentJSON string
		lineSum    int
	)
	require.NoError(t, s.DB().QueryRow(
		"SELECT total_discount_amounts FROM invoices WHERE id = ?", "in_1").Scan(&parentJSON))
	var parentAmounts []struct {
		Amount int `json:"amount"`
	}
	require.NoError(t, json.Unmarshal([]byte(parentJSON), &parentAmounts))
	parentSum := 0
	for _, a := range parentAmounts {
		parentSum += a.Amount
	}

	rows, err := s.DB().Query("SELECT discount_amounts FROM invoice_line_items WHERE invoice = ?", "in_1")
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var raw string
		require.NoError(t, rows.Scan(&raw))
		var amounts []struct {
			Amount int `json:"amount"`
		}
		require.NoError(t, json.Unmarshal([]byte(raw), &amounts))
		for _, a := range amounts {
			lineSum += a.Amount
		}
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, parentSum, lineSum)

	assert.Equal(t, 2, scalar[int](t, s, "SELECT COUNT(*) FROM discounts"))

	// A historical event that still carries the truncated list fails
	// closed on apply.
	fake.AddEvent("evt_trunc", "invoice.updated", 1620001000, invoice)
	_, err = e.applySince(context.Background())
	var re *ReplicationError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, CodeTruncatedNested, re.Code)
}

func TestDownloadDuplicateIDIsStoreConflict(t *testing.T) {
	fake := harness.New()
	e, _ := newTestEngine(t, fake)

	fake.SetListing("/v1/customers",
		customerPayloadNoChildren("cus_1"),
		customerPayloadNoChildren("cus_1"))

	err := e.Run(context.Background())
	var re *ReplicationError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, CodeStoreConflict, re.Code)
	assert.Equal(t, 3, ExitCode(err))
}

func TestRestartSkipsDownload(t *testing.T) {
	fake := harness.New()
	fake.SetListing("/v1/customers", customerPayloadNoChildren("cus_1"))
	fake.AddEvent("evt_1", "customer.created", 1619999000, customerPayloadNoChildren("cus_1"))

	s, err := store.Open(store.SQLite{}, t.TempDir()+"/mirror.sqlite")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	e1 := New(s, fake, Options{ApplyEventsAfterOneShotDL: true})
	require.NoError(t, e1.Run(context.Background()))
	listCalls := fake.Calls["/v1/customers"]

	// Second process against the same store: no re-download; horizon and
	// cursor restored from the run table.
	e2 := New(s, fake, Options{ApplyEventsAfterOneShotDL: false})
	require.NoError(t, e2.Run(context.Background()))

	assert.Equal(t, listCalls, fake.Calls["/v1/customers"], "no second download")
	assert.Equal(t, "evt_1", e2.t0ID)
	assert.Equal(t, "evt_1", e2.cursor)
}

// A download that never finished is not resumable; the engine refuses the
// store instead of mirroring on top of a partial image.
func TestInterruptedDownloadIsStoreConflict(t *testing.T) {
	fake := harness.New()
	e, s := newTestEngine(t, fake)
	dl(t, e)

	_, err := s.DB().Exec("UPDATE td_stripe_runs SET update_ts = NULL")
	require.NoError(t, err)

	e2 := New(s, fake, Options{ApplyEventsAfterOneShotDL: false})
	err = e2.Run(context.Background())
	var re *ReplicationError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, CodeStoreConflict, re.Code)
}

// Re-downloading into a fresh store yields the same rows for immutable
// fields.
func TestRedownloadIsDeterministic(t *testing.T) {
	fake := harness.New()
	fake.SetListing("/v1/customers",
		customerPayloadNoChildren("cus_1"),
		customerPayloadNoChildren("cus_2"))

	snapshot := func() []string {
		e, s := newTestEngine(t, fake)
		dl(t, e)
		rows, err := s.DB().Query("SELECT id, balance, created FROM customers ORDER BY id")
		require.NoError(t, err)
		defer rows.Close()
		var out []string
		for rows.Next() {
			var id, created string
			var balance int64
			require.NoError(t, rows.Scan(&id, &balance, &created))
			out = append(out, fmt.Sprintf("%s|%d|%s", id, balance, created))
		}
		require.NoError(t, rows.Err())
		return out
	}

	assert.Equal(t, snapshot(), snapshot())
}

package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler, mutate func(*Config)) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := Config{
		SecretKey:            "sk_test_x",
		BaseURL:              srv.URL,
		MaxRequestsPerSecond: 1000,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	c, err := NewClient(cfg)
	require.NoError(t, err)
	return c
}

func TestListPaginationCursor(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk_test_x", r.Header.Get("Authorization"))
		assert.Equal(t, APIVersion, r.Header.Get("Stripe-Version"))

		cursor := r.URL.Query().Get("starting_after")
		switch cursor {
		case "":
			fmt.Fprint(w, `{"object":"list","data":[{"id":"cus_1"},{"id":"cus_2"}],"has_more":true}`)
		case "cus_2":
			fmt.Fprint(w, `{"object":"list","data":[{"id":"cus_3"}],"has_more":false}`)
		default:
			t.Errorf("unexpected cursor %q", cursor)
		}
	})
	c := newTestClient(t, handler, nil)

	page, err := c.List(context.Background(), "/v1/customers", "", nil)
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
	assert.True(t, page.HasMore)
	assert.Equal(t, "cus_2", page.NextCursor)

	page, err = c.List(context.Background(), "/v1/customers", page.NextCursor, nil)
	require.NoError(t, err)
	assert.Len(t, page.Data, 1)
	assert.False(t, page.HasMore)
}

func TestListExpandParams(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.ElementsMatch(t, []string{"data.sources", "data.tax_ids"}, r.URL.Query()["expand[]"])
		fmt.Fprint(w, `{"object":"list","data":[],"has_more":false}`)
	})
	c := newTestClient(t, handler, nil)

	_, err := c.List(context.Background(), "/v1/customers", "", []string{"sources", "tax_ids"})
	require.NoError(t, err)
}

func TestEventsNewestFirst(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/events", r.URL.Path)
		fmt.Fprint(w, `{"object":"list","data":[
			{"id":"evt_2","type":"customer.updated","created":200,"data":{"object":{"object":"customer","id":"cus_1"}}},
			{"id":"evt_1","type":"customer.created","created":100,"data":{"object":{"object":"customer","id":"cus_1"}}}
		],"has_more":false}`)
	})
	c := newTestClient(t, handler, nil)

	page, err := c.Events(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "evt_2", page.Data[0].ID)
	assert.Equal(t, int64(200), page.Data[0].Created)
}

func TestTransientRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"id":"acct_1"}`)
	})
	c := newTestClient(t, handler, nil)

	body, err := c.Account(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())

	var probe struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body, &probe))
	assert.Equal(t, "acct_1", probe.ID)
}

func TestRateLimitBacksOffByDefault(t *testing.T) {
	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"error":{"message":"slow down"}}`)
			return
		}
		fmt.Fprint(w, `{"id":"acct_1"}`)
	})
	c := newTestClient(t, handler, nil)

	_, err := c.Account(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRateLimitFatalWithExitOn429(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"slow down"}}`)
	})
	c := newTestClient(t, handler, func(cfg *Config) { cfg.ExitOn429 = true })

	_, err := c.Account(context.Background())
	require.Error(t, err)
	assert.True(t, IsRateLimited(err))
}

func TestAuthErrorIsFatalImmediately(t *testing.T) {
	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Request-Id", "req_123")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"Invalid API Key provided"}}`)
	})
	c := newTestClient(t, handler, nil)

	_, err := c.Account(context.Background())
	require.Error(t, err)
	assert.True(t, IsAuth(err))
	assert.Equal(t, int32(1), calls.Load(), "no retry on auth failure")

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "req_123", apiErr.RequestID)
	assert.Contains(t, apiErr.Error(), "Invalid API Key")
}

func TestPathWithQueryMergesParams(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "or_1", r.URL.Query().Get("order"))
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		fmt.Fprint(w, `{"object":"list","data":[],"has_more":false}`)
	})
	c := newTestClient(t, handler, nil)

	_, err := c.List(context.Background(), "/v1/order_returns?order=or_1", "", nil)
	require.NoError(t, err)
}

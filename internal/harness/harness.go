// Package harness fakes the provider for end-to-end engine tests.
//
// A Fake holds an account's event history oldest-first plus the object
// listings as they would appear at a given point in that history. Walk
// tests place the download at different timeline positions and apply event
// sub-sequences on either side of it, asserting the mirror converges to
// the same end state regardless of the interleaving.
package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/roach88/tabledog/internal/stripe"
)

// Fake implements the engine's Client interface from in-memory fixtures.
type Fake struct {
	mu sync.Mutex

	// listings maps a list endpoint path to its items, oldest first.
	listings map[string][]json.RawMessage

	// events is the account history, oldest first. Events() serves the
	// visible prefix newest-first, like the provider.
	events  []stripe.Event
	visible int

	// PageSize forces small pages to exercise pagination.
	PageSize int

	// Calls counts requests per path for assertions; CallLog keeps the
	// request order.
	Calls   map[string]int
	CallLog []string
}

// New creates an empty fake account.
func New() *Fake {
	return &Fake{
		listings: make(map[string][]json.RawMessage),
		PageSize: 100,
		Calls:    make(map[string]int),
	}
}

// SetListing replaces the items served for a list endpoint.
func (f *Fake) SetListing(path string, items ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raws := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		raws = append(raws, mustJSON(item))
	}
	f.listings[path] = raws
}

// AddEvent appends one event to the timeline and makes it visible.
func (f *Fake) AddEvent(id, eventType string, created int64, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev := stripe.Event{ID: id, Type: eventType, Created: created}
	ev.Data.Object = mustJSON(payload)
	f.events = append(f.events, ev)
	f.visible = len(f.events)
}

// Stage appends an event without revealing it; Reveal makes staged events
// visible. Walk tests use this to interleave download and apply.
func (f *Fake) Stage(id, eventType string, created int64, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev := stripe.Event{ID: id, Type: eventType, Created: created}
	ev.Data.Object = mustJSON(payload)
	f.events = append(f.events, ev)
}

// Reveal makes the next n staged events visible. Reveal(-1) reveals all.
func (f *Fake) Reveal(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n < 0 || f.visible+n > len(f.events) {
		f.visible = len(f.events)
		return
	}
	f.visible += n
}

// Account implements engine.Client.
func (f *Fake) Account(context.Context) (json.RawMessage, error) {
	f.count("/v1/account")
	return json.RawMessage(`{"id":"acct_test","object":"account"}`), nil
}

// List implements engine.Client: cursor pagination over the listing,
// oldest first, mirroring the provider's stable list order.
func (f *Fake) List(_ context.Context, path, cursor string, _ []string) (stripe.Page[json.RawMessage], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls[path]++
	f.CallLog = append(f.CallLog, path)

	items, ok := f.listings[path]
	if !ok {
		// Continuation endpoints may carry a query; fall back to the
		// bare path.
		if i := strings.IndexByte(path, '?'); i >= 0 {
			items = f.listings[path[:i]]
		}
	}

	start := 0
	if cursor != "" {
		for i, raw := range items {
			if jsonID(raw) == cursor {
				start = i + 1
				break
			}
		}
	}

	end := start + f.PageSize
	if end > len(items) {
		end = len(items)
	}
	page := stripe.Page[json.RawMessage]{
		Data:    items[start:end],
		HasMore: end < len(items),
	}
	if page.HasMore && len(page.Data) > 0 {
		page.NextCursor = jsonID(page.Data[len(page.Data)-1])
	}
	return page, nil
}

// Events implements engine.Client: the visible timeline, newest first.
func (f *Fake) Events(_ context.Context, startingAfter string) (stripe.Page[stripe.Event], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["/v1/events"]++

	newest := make([]stripe.Event, 0, f.visible)
	for i := f.visible - 1; i >= 0; i-- {
		newest = append(newest, f.events[i])
	}

	start := 0
	if startingAfter != "" {
		for i, ev := range newest {
			if ev.ID == startingAfter {
				start = i + 1
				break
			}
		}
	}

	end := start + f.PageSize
	if end > len(newest) {
		end = len(newest)
	}
	page := stripe.Page[stripe.Event]{
		Data:    newest[start:end],
		HasMore: end < len(newest),
	}
	if page.HasMore && len(page.Data) > 0 {
		page.NextCursor = page.Data[len(page.Data)-1].ID
	}
	return page, nil
}

func (f *Fake) count(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls[path]++
	f.CallLog = append(f.CallLog, path)
}

func mustJSON(v any) json.RawMessage {
	if raw, ok := v.(json.RawMessage); ok {
		return raw
	}
	if s, ok := v.(string); ok {
		return json.RawMessage(s)
	}
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("harness: marshal fixture: %v", err))
	}
	return b
}

func jsonID(raw json.RawMessage) string {
	var probe struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return ""
	}
	return probe.ID
}

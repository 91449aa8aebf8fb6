package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// APIVersion is the provider API version every request pins.
const APIVersion = "2020-08-27"

const defaultBaseURL = "https://api.stripe.com"

// listLimit is the page size for list and event calls.
const listLimit = 100

// maxAttempts bounds back-off retries before a transient error is treated
// as fatal.
const maxAttempts = 8

// Config configures a Client.
type Config struct {
	SecretKey string

	// MaxRequestsPerSecond throttles all outgoing requests. Zero means
	// the provider's documented default budget (25 rps in test mode).
	MaxRequestsPerSecond int

	// ExitOn429 turns rate-limit responses into fatal errors instead of
	// backing off.
	ExitOn429 bool

	// ProxyURL routes requests through an HTTP proxy when set.
	ProxyURL string

	// BaseURL overrides the API host. Tests point this at a local stub.
	BaseURL string
}

// Client is the provider HTTP client: paginated lists, single-object gets
// with expansion, and event polling. One Client is shared by the downloader
// and the applier; an internal limiter enforces the request budget.
type Client struct {
	cfg     Config
	base    string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient builds a Client from config.
func NewClient(cfg Config) (*Client, error) {
	rps := cfg.MaxRequestsPerSecond
	if rps <= 0 {
		rps = 25
	}

	transport := http.DefaultTransport
	if cfg.ProxyURL != "" {
		proxy, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("stripe: parse proxy url: %w", err)
		}
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.Proxy = http.ProxyURL(proxy)
		transport = t
	}

	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}

	return &Client{
		cfg:  cfg,
		base: base,
		http: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// Account fetches the account the secret key belongs to. Called once at
// start to fail fast on bad credentials.
func (c *Client) Account(ctx context.Context) (json.RawMessage, error) {
	return c.getJSON(ctx, "/v1/account", nil)
}

// List fetches one page of a listing endpoint. path is the endpoint
// ("/v1/customers"); cursor is the id to start after, empty for the first
// page; expand names the sub-objects to expand on each item.
func (c *Client) List(ctx context.Context, path, cursor string, expand []string) (Page[json.RawMessage], error) {
	params := url.Values{}
	params.Set("limit", fmt.Sprint(listLimit))
	if cursor != "" {
		params.Set("starting_after", cursor)
	}
	for _, e := range expand {
		params.Add("expand[]", "data."+e)
	}

	body, err := c.getJSON(ctx, path, params)
	if err != nil {
		return Page[json.RawMessage]{}, err
	}

	var list List[json.RawMessage]
	if err := json.Unmarshal(body, &list); err != nil {
		return Page[json.RawMessage]{}, fmt.Errorf("stripe: decode list %s: %w", path, err)
	}

	page := Page[json.RawMessage]{Data: list.Data, HasMore: list.HasMore}
	if list.HasMore && len(list.Data) > 0 {
		var probe struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(list.Data[len(list.Data)-1], &probe); err != nil {
			return Page[json.RawMessage]{}, fmt.Errorf("stripe: list %s: cursor id: %w", path, err)
		}
		page.NextCursor = probe.ID
	}
	return page, nil
}

// Get fetches one object by id.
func (c *Client) Get(ctx context.Context, path, id string, expand []string) (json.RawMessage, error) {
	params := url.Values{}
	for _, e := range expand {
		params.Add("expand[]", e)
	}
	return c.getJSON(ctx, path+"/"+url.PathEscape(id), params)
}

// Events fetches one page of the event stream, newest first. startingAfter
// resumes iteration past a previously seen event id.
func (c *Client) Events(ctx context.Context, startingAfter string) (Page[Event], error) {
	params := url.Values{}
	params.Set("limit", fmt.Sprint(listLimit))
	if startingAfter != "" {
		params.Set("starting_after", startingAfter)
	}

	body, err := c.getJSON(ctx, "/v1/events", params)
	if err != nil {
		return Page[Event]{}, err
	}

	var list List[Event]
	if err := json.Unmarshal(body, &list); err != nil {
		return Page[Event]{}, fmt.Errorf("stripe: decode events: %w", err)
	}

	page := Page[Event]{Data: list.Data, HasMore: list.HasMore}
	if list.HasMore && len(list.Data) > 0 {
		page.NextCursor = list.Data[len(list.Data)-1].ID
	}
	return page, nil
}

// getJSON performs one GET with rate limiting and back-off. Transient
// failures (5xx, network) and 429s retry with exponential back-off; auth
// failures and other 4xx are returned immediately.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	var body json.RawMessage

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxAttempts), ctx)
	err := backoff.Retry(func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		b, err := c.doOnce(ctx, path, params)
		if err == nil {
			body = b
			return nil
		}

		switch {
		case IsRateLimited(err):
			if c.cfg.ExitOn429 {
				return backoff.Permanent(err)
			}
			slog.Warn("rate limited, backing off", "path", path)
			return err
		case IsTransient(err):
			slog.Warn("transient provider error, retrying", "path", path, "err", err)
			return err
		default:
			return backoff.Permanent(err)
		}
	}, bo)
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) doOnce(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	u := c.base + path
	if len(params) > 0 {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		u += sep + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("stripe: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)
	req.Header.Set("Stripe-Version", APIVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Code: ErrCodeTransient, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Code: ErrCodeTransient, Status: resp.StatusCode, Message: err.Error()}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}

	apiErr := &Error{
		Status:    resp.StatusCode,
		RequestID: resp.Header.Get("Request-Id"),
		Message:   errorMessage(body),
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		apiErr.Code = ErrCodeAuth
	case resp.StatusCode == http.StatusTooManyRequests:
		apiErr.Code = ErrCodeRateLimited
	case resp.StatusCode >= 500:
		apiErr.Code = ErrCodeTransient
	default:
		apiErr.Code = ErrCodeFatal
	}
	return nil, apiErr
}

func errorMessage(body []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error.Message == "" {
		if len(body) > 200 {
			body = body[:200]
		}
		return string(body)
	}
	return envelope.Error.Message
}

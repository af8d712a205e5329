package lookup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultTimeout bounds a single lookup including reading the body.
	DefaultTimeout = 10 * time.Second

	maxBodyBytes     = 1 << 20
	defaultUserAgent = "addrbot/1"
)

var (
	errMissingChainStats = errors.New("response has no chain_stats object")
	errBodyTooLarge      = fmt.Errorf("response body exceeds %d bytes", maxBodyBytes)
)

// Client queries an Esplora-style address endpoint: GET {baseURL}/{key}.
type Client struct {
	baseURL   string
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. A nil client is ignored.
// hc itself is never modified; WithTimeout applies to a copy.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithTimeout sets the per-request timeout regardless of option order.
// Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header sent with each lookup.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New creates a lookup client for the given base URL. A trailing slash on
// baseURL is dropped so the key always follows exactly one separator.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: DefaultTimeout},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.client
		hc.Timeout = c.timeout
		c.client = &hc
	}
	return c
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Lookup issues exactly one GET for key and classifies the response.
// The key is appended verbatim; it is untrusted user input and is not validated.
// Lookup never returns a Go error: every failure is folded into the Result.
func (c *Client) Lookup(ctx context.Context, key string) Result {
	url := c.baseURL + "/" + key

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{Kind: TransportError, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{Kind: TransportError, Err: fmt.Errorf("http get: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return Result{Kind: NotFound, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return Result{Kind: TransportError, Err: fmt.Errorf("read response: %w", err)}
	}
	if len(body) > maxBodyBytes {
		return Result{Kind: TransportError, Err: errBodyTooLarge}
	}

	txCount, err := decodeTxCount(body)
	if err != nil {
		return Result{Kind: TransportError, Err: fmt.Errorf("decode response: %w", err)}
	}
	if txCount == nil {
		return Result{Kind: NotAttributed}
	}
	return Result{Kind: Attributed, TxCount: *txCount}
}

// decodeTxCount extracts chain_stats.tx_count. Key names match exactly and
// the body must hold a single JSON value. A nil count means absent or null.
func decodeTxCount(body []byte) (*int64, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, err
	}
	raw, ok := top["chain_stats"]
	if !ok || isNull(raw) {
		return nil, errMissingChainStats
	}

	var stats map[string]json.RawMessage
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, fmt.Errorf("chain_stats: %w", err)
	}
	raw, ok = stats["tx_count"]
	if !ok || isNull(raw) {
		return nil, nil
	}

	var n int64
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, fmt.Errorf("tx_count: %w", err)
	}
	return &n, nil
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

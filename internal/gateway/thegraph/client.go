package thegraph

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"swapsignal/internal/logger"
	"swapsignal/internal/market"
)

const (
	defaultBaseURL = "https://token-api.thegraph.com"
	// maxDetailBytes bounds the upstream body kept in MarketDataError, which reaches chat replies.
	maxDetailBytes = 512
)

// SwapQuery selects the swap history of one pool.
type SwapQuery struct {
	Pool          string
	Network       string
	StartTime     int64
	EndTime       int64
	BucketMinutes int
	Limit         int
}

func (q SwapQuery) validate() error {
	switch {
	case strings.TrimSpace(q.Network) == "":
		return &market.InvalidConfigurationError{Field: "network", Value: q.Network, Reason: "must not be empty"}
	case q.BucketMinutes <= 0:
		return &market.InvalidConfigurationError{Field: "bucket_minutes", Value: q.BucketMinutes, Reason: "must be > 0"}
	case q.Limit <= 0:
		return &market.InvalidConfigurationError{Field: "limit", Value: q.Limit, Reason: "must be > 0"}
	case q.StartTime > q.EndTime:
		return &market.InvalidConfigurationError{Field: "start_time", Value: q.StartTime, Reason: "must not be after end_time"}
	}
	return nil
}

// MarketDataError is a failed or non-success market data call.
type MarketDataError struct {
	StatusCode int
	Detail     string
	Err        error
}

func (e *MarketDataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("market data request failed: %v", e.Err)
	}
	return fmt.Sprintf("market data request failed: status=%d: %s", e.StatusCode, e.Detail)
}

func (e *MarketDataError) Unwrap() error { return e.Err }

// Observer receives per-fetch outcomes; metrics hooks implement it.
type Observer interface {
	ObserveFetch(status string, kept, skipped int, took time.Duration)
}

// Client is the only component that performs market data I/O. Callers get normalized events.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	Observer   Observer
}

// NewClient builds a client with the given bearer token. Empty baseURL uses the public token API.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL:    baseURL,
		Token:      token,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) endpoint(q SwapQuery) string {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	params := url.Values{}
	params.Set("network_id", q.Network)
	if pool := strings.TrimSpace(q.Pool); pool != "" {
		params.Set("pool", pool)
	}
	params.Set("startTime", strconv.FormatInt(q.StartTime, 10))
	params.Set("endTime", strconv.FormatInt(q.EndTime, 10))
	params.Set("orderBy", "timestamp")
	params.Set("orderDirection", "desc")
	params.Set("limit", strconv.Itoa(q.Limit))
	params.Set("page", "1")
	return base + "/swaps/evm?" + params.Encode()
}

// FetchSwaps issues one GET for q and returns the normalized, bucketed series.
func (c *Client) FetchSwaps(ctx context.Context, q SwapQuery) ([]market.NormalizedSwapEvent, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	endpoint := c.endpoint(q)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &MarketDataError{Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	logger.Debugf("[market] GET %s auth=Bearer %s", endpoint, logger.MaskSecret(c.Token))

	httpc := c.HTTPClient
	if httpc == nil {
		httpc = http.DefaultClient
	}
	resp, err := httpc.Do(req)
	if err != nil {
		c.observe("transport_error", 0, 0, start)
		return nil, &MarketDataError{Err: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		c.observe("transport_error", 0, 0, start)
		return nil, &MarketDataError{StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode/100 != 2 {
		c.observe("http_"+strconv.Itoa(resp.StatusCode), 0, 0, start)
		detail := truncateDetail(strings.TrimSpace(string(body)))
		if detail == "" {
			detail = resp.Status
		}
		return nil, &MarketDataError{StatusCode: resp.StatusCode, Detail: detail}
	}
	res, err := market.NormalizePayload(body, q.BucketMinutes)
	if err != nil {
		return nil, err
	}
	c.observe("ok", len(res.Events), len(res.Warnings), start)
	logger.Infof("[market] pool=%s network=%s fetched, %d buckets kept, %d records skipped", q.Pool, q.Network, len(res.Events), len(res.Warnings))
	return res.Events, nil
}

func truncateDetail(s string) string {
	if len(s) <= maxDetailBytes {
		return s
	}
	cut := maxDetailBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func (c *Client) observe(status string, kept, skipped int, start time.Time) {
	if c.Observer == nil {
		return
	}
	c.Observer.ObserveFetch(status, kept, skipped, time.Since(start))
}

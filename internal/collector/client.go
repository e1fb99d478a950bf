package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	// DefaultUserAgent identifies this service to the upstream APIs.
	DefaultUserAgent = "TempoRelay/1.0"

	primaryTimeout  = 8 * time.Second
	fallbackTimeout = 10 * time.Second
)

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("GET %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("GET %s: status %d, body: %s", e.URL, e.StatusCode, e.Body)
}

func newClient(timeout time.Duration, userAgent, proxyURL string) *resty.Client {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	c := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", userAgent)
	if proxyURL != "" {
		c.SetProxy(proxyURL)
	}
	return c
}

// getJSON issues one GET and decodes the body into out.
func getJSON(ctx context.Context, c *resty.Client, url string, out any) error {
	return get(ctx, c, url, out, false)
}

// getJSONNumbers is getJSON with numbers kept as json.Number, so their wire
// text ("1" vs "1.0") survives decoding.
func getJSONNumbers(ctx context.Context, c *resty.Client, url string, out any) error {
	return get(ctx, c, url, out, true)
}

func get(ctx context.Context, c *resty.Client, url string, out any, useNumber bool) error {
	resp, err := c.R().SetContext(ctx).Get(url)
	if err != nil {
		return fmt.Errorf("GET %s: %w", url, err)
	}
	if !resp.IsSuccess() {
		return &StatusError{URL: url, StatusCode: resp.StatusCode(), Body: truncate(resp.String(), 200)}
	}
	dec := json.NewDecoder(bytes.NewReader(resp.Body()))
	if useNumber {
		dec.UseNumber()
	}
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

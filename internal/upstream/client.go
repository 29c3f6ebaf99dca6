// Package upstream performs the JSON GETs both data clients make: a shared
// http.Client (optionally proxied), the retry policy around each call and a
// per-attempt timeout, with failures mapped to StatusError.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/warpdl/parkdl/pkg/logger"
	"github.com/warpdl/parkdl/pkg/retry"
)

const (
	DEF_REQUEST_TIMEOUT = 30 * time.Second
	// maxErrorBody bounds how much of an error response is kept.
	maxErrorBody = 512
)

// Limiter paces outgoing requests. *rate.Limiter implements it.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Options configures a Client.
type Options struct {
	HTTPClient *http.Client
	Retry      retry.Config
	// Timeout bounds a single attempt; the retry budget is separate.
	Timeout   time.Duration
	UserAgent string
	Limiter   Limiter
	Logger    logger.Logger
}

// Client issues JSON GET requests.
type Client struct {
	hc        *http.Client
	retry     retry.Config
	timeout   time.Duration
	userAgent string
	limiter   Limiter
	l         logger.Logger
}

func NewClient(opts Options) *Client {
	c := &Client{
		hc:        opts.HTTPClient,
		retry:     opts.Retry,
		timeout:   opts.Timeout,
		userAgent: opts.UserAgent,
		limiter:   opts.Limiter,
		l:         opts.Logger,
	}
	if c.hc == nil {
		c.hc = &http.Client{CheckRedirect: RedirectPolicy(DefaultMaxRedirects)}
	}
	if c.timeout <= 0 {
		c.timeout = DEF_REQUEST_TIMEOUT
	}
	if c.l == nil {
		c.l = logger.NewNopLogger()
	}
	return c
}

// GetJSON fetches url with headers and decodes the body into out. Each
// attempt gets its own timeout; retries follow the retry policy. A 2xx body
// that fails to decode is not retried.
func (c *Client) GetJSON(ctx context.Context, url string, headers http.Header, out any) error {
	attempt := 0
	return retry.Do(ctx, c.retry, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			c.l.Warning("upstream: retrying %s (attempt %d)", url, attempt)
		}
		return c.getOnce(ctx, url, headers, out)
	})
}

func (c *Client) getOnce(ctx context.Context, url string, headers http.Header, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return retry.Permanent(err)
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("User-Agent") == "" && c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Code: resp.StatusCode, URL: url, Body: string(body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return retry.Permanent(fmt.Errorf("decode %s: %w", url, err))
	}
	return nil
}

// Package practicum talks to the homework status API.
package practicum

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"homeworkbot/internal/homework"
	logx "homeworkbot/pkg/logx"
)

const userAgent = "homeworkbot/1.0"

// maxBodyBytes caps the response we are willing to decode.
const maxBodyBytes = 4 << 20

// Config is the immutable client configuration.
type Config struct {
	Endpoint string
	Token    string
	Timeout  time.Duration
}

// Client fetches status payloads. It performs no retries; the poll loop
// retries on its next cycle.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
	log      logx.Logger
	now      func() time.Time
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithClock overrides time.Now (used when the cursor is zero).
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

func New(cfg Config, log logx.Logger, opts ...Option) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("practicum endpoint: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	c := &Client{
		endpoint: endpoint,
		token:    cfg.Token,
		http:     &http.Client{Timeout: timeout},
		log:      log,
		now:      time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// GetAPIAnswer requests statuses changed since cursor (unix seconds). A zero
// cursor means "now".
//
// Every failure is an endpoint error: non-200 status (Status set), transport
// failure, or a body that is not JSON (Err set).
func (c *Client) GetAPIAnswer(ctx context.Context, cursor int64) (homework.StatusResponse, error) {
	if cursor == 0 {
		cursor = c.now().Unix()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, http.NoBody)
	if err != nil {
		return homework.StatusResponse{}, homework.EndpointError(err)
	}
	q := req.URL.Query()
	q.Set("from_date", strconv.FormatInt(cursor, 10))
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Authorization", "OAuth "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	c.log.Info("requesting homework statuses", logx.String("endpoint", c.endpoint), logx.Int64("from_date", cursor))
	started := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		return homework.StatusResponse{}, homework.EndpointError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		c.log.Debug("status API responded with error status", logx.Int("status", resp.StatusCode), logx.Duration("took", time.Since(started)))
		return homework.StatusResponse{}, homework.EndpointStatusError(resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return homework.StatusResponse{}, homework.EndpointError(fmt.Errorf("read body: %w", err))
	}
	if len(body) > maxBodyBytes {
		return homework.StatusResponse{}, homework.EndpointError(errors.New("response body too large"))
	}

	out, err := homework.ParseResponse(body)
	if err != nil {
		return homework.StatusResponse{}, homework.EndpointError(err)
	}
	c.log.Debug("status API responded", logx.Int("bytes", len(body)), logx.Duration("took", time.Since(started)))
	return out, nil
}

package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/orbstation/portal/config"
	"go.uber.org/zap"
)

// ErrNotFound is returned when the upstream reports 404 for a resource.
var ErrNotFound = errors.New("upstream: not found")

// ErrUnauthorized is returned when the upstream rejects the API key.
var ErrUnauthorized = errors.New("upstream: unauthorized")

// StatusError is any other non-2xx upstream response. The response body is
// discarded; it never reaches portal clients.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream: unexpected status %d", e.Code)
}

// IsConflict reports whether err is an upstream 409.
func IsConflict(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Code == http.StatusConflict
}

// Client talks to the game-server REST API. Every request carries the
// X-API-KEY header and runs under an explicit timeout.
type Client struct {
	base   string
	key    string
	http   *http.Client
	logger *zap.Logger
}

// New creates a Client from config. The timeout applies per request on top
// of any caller-supplied context deadline.
func New(cfg config.UpstreamConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		base:   strings.TrimRight(cfg.BaseURL, "/"),
		key:    cfg.APIKey,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Get issues a GET to path and decodes the JSON response into out.
// out may be nil to discard the body, or a *json.RawMessage to pass the
// upstream body through untouched.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues a POST with an optional JSON body.
func (c *Client) Post(ctx context.Context, path string, query url.Values, body, out any) error {
	return c.do(ctx, http.MethodPost, path, query, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	req.Header.Set("X-API-KEY", c.key)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, res.Body)
		return ErrNotFound
	}
	if res.StatusCode == http.StatusUnauthorized {
		io.Copy(io.Discard, res.Body)
		c.logger.Error("upstream rejected API key", zap.String("path", path))
		return ErrUnauthorized
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		io.Copy(io.Discard, res.Body)
		c.logger.Warn("upstream request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", res.StatusCode),
		)
		return &StatusError{Code: res.StatusCode}
	}

	if out == nil {
		io.Copy(io.Discard, res.Body)
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}

// Package api implements the single HTTP transport the rest of the client
// goes through: it builds requests, injects the bearer credential, enforces
// the fixed per-request deadline, and classifies every failure.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ndmitrenko/tribune/internal/apierr"
)

// DefaultTimeout bounds every request; there are no retries, a timed-out
// call is terminal.
const DefaultTimeout = 5 * time.Second

// TokenSource yields the current bearer credential, or "" when logged out.
// The transport only reads the credential; reacting to a rejection is the
// caller's business.
type TokenSource interface {
	Token() string
}

// validatable is implemented by response shapes that carry their own schema
// check. Decoded bodies failing it are classified as decode errors.
type validatable interface {
	Validate() error
}

// Client is the forum API transport. All endpoint methods funnel through
// request, so the credential, deadline and error classification rules hold
// uniformly.
type Client struct {
	http    *http.Client
	baseURL string
	tokens  TokenSource
	timeout time.Duration
	log     *zap.Logger
}

// Option tweaks a Client at construction.
type Option func(*Client)

// WithTimeout overrides the per-request deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithHTTPClient replaces the underlying http.Client, mainly for tests that
// install a fake transport.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New builds a Client for the given base URL. tokens may yield "" while
// logged out; log may be nil.
func New(baseURL string, tokens TokenSource, log *zap.Logger, opts ...Option) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Client{
		http:    &http.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		timeout: DefaultTimeout,
		log:     log,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// errBody is the backend's error envelope.
type errBody struct {
	Detail string `json:"detail"`
}

// request performs one bounded HTTP call. body and contentType describe the
// request payload (both may be empty); out, when non-nil, receives the
// decoded 2xx response body.
func (c *Client) request(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return apierr.Wrap(apierr.KindNetwork, "build request", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if tok := c.tokens.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			c.log.Debug("request timed out",
				zap.String("method", method), zap.String("path", path),
				zap.String("request_id", reqID))
			return apierr.Wrap(apierr.KindTimeout, "request timed out", err)
		}
		return apierr.Wrap(apierr.KindNetwork, "no response from server", err)
	}
	defer resp.Body.Close()

	c.log.Debug("request done",
		zap.String("method", method), zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
		zap.String("request_id", reqID))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		var eb errBody
		_ = json.Unmarshal(data, &eb)
		return apierr.FromStatus(resp.StatusCode, eb.Detail)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		// The deadline can also expire mid-body; that is still a timeout,
		// not malformed data.
		if ctx.Err() == context.DeadlineExceeded {
			return apierr.Wrap(apierr.KindTimeout, "request timed out", err)
		}
		return apierr.Wrap(apierr.KindDecode, "invalid response body", err)
	}
	if v, ok := out.(validatable); ok {
		if err := v.Validate(); err != nil {
			return apierr.Wrap(apierr.KindDecode, "response failed schema check", err)
		}
	}
	return nil
}

// doJSON marshals in as the JSON request body and decodes the response
// into out.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}
	return c.request(ctx, method, path, body, contentType, out)
}

// Package square is the gateway client for the Square v2 REST API: deposits,
// terminal checkouts, refunds and payment lookups.
package square

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"

	"github.com/shampooches/payments/internal/config"
)

const maxResponseBytes = 1 << 20

// Client talks to the gateway. It is safe for concurrent use.
type Client struct {
	httpClient  *http.Client
	limiter     *rate.Limiter
	validate    *validator.Validate
	logger      *slog.Logger
	now         func() time.Time
	baseURL     string
	accessToken string
	apiVersion  string
	locationID  string
	timeout     time.Duration
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL overrides the environment-derived API root.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithClock replaces time.Now for key derivation.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a gateway client for cfg.
func New(cfg config.SquareConfig, logger *slog.Logger, opts ...Option) *Client {
	rps := cfg.RateLimitRPS
	if rps <= 0 {
		rps = 10
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	c := &Client{
		httpClient:  &http.Client{},
		limiter:     rate.NewLimiter(rate.Limit(rps), int(max(1, rps))),
		validate:    validator.New(),
		logger:      logger,
		now:         time.Now,
		baseURL:     cfg.BaseURL(),
		accessToken: cfg.AccessToken,
		apiVersion:  cfg.APIVersion,
		locationID:  cfg.LocationID,
		timeout:     timeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LocationID returns the configured shop location.
func (c *Client) LocationID() string {
	return c.locationID
}

func (c *Client) check(req any) error {
	if err := c.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

// do sends one request. A nil out discards the response body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return &TransportError{Err: err}
	}

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Square-Version", c.apiVersion)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "gateway request failed", "method", method, "path", path, "error", err)
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &TransportError{Err: err, StatusCode: resp.StatusCode}
	}

	c.logger.DebugContext(ctx, "gateway request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("failed to decode gateway response: %w", err)
		}
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return &TransportError{StatusCode: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	default:
		return decodeRejection(resp.StatusCode, raw)
	}
}

func decodeRejection(status int, raw []byte) error {
	rej := &RejectedError{StatusCode: status, Code: http.StatusText(status)}

	var er errorResponse
	if err := json.Unmarshal(raw, &er); err == nil && len(er.Errors) > 0 {
		rej.Category = er.Errors[0].Category
		rej.Code = er.Errors[0].Code
		rej.Detail = er.Errors[0].Detail
	}
	return rej
}

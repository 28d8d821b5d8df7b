// Package practicum provides the HTTP client for the homework review status API.
//
// The client performs exactly one GET per call and never retries; the poll
// loop's fixed schedule is the only retry mechanism. The decoded body is
// returned untyped so shape validation stays in the use case layer.
package practicum

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"homework-bot/internal/domain/entity"
	"homework-bot/internal/observability/tracing"

	"go.opentelemetry.io/otel/attribute"
)

const (
	// DefaultEndpoint is the production homework status endpoint.
	DefaultEndpoint = "https://practicum.yandex.ru/api/user_api/homework_statuses/"

	// DefaultTimeout bounds a single poll request.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBodySize is the largest response body accepted (4 MiB).
	DefaultMaxBodySize int64 = 4 << 20
)

// Config holds the settings for the status API client.
type Config struct {
	// Endpoint is the absolute http(s) URL of the status resource
	Endpoint string

	// Token is the OAuth token sent in the Authorization header (secret)
	Token string

	// Timeout is the HTTP client timeout for one request
	Timeout time.Duration

	// MaxBodySize limits the response body; larger bodies are a decode failure
	MaxBodySize int64
}

// Client fetches homework statuses changed since a cursor.
type Client struct {
	endpoint    *url.URL
	token       string
	httpClient  *http.Client
	maxBodySize int64
	metrics     *Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client built from Config.Timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMetrics records request outcomes and latency on m.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a status API client.
//
// Parameters:
//   - cfg: Endpoint, token and limits; zero Timeout and MaxBodySize use defaults
//   - opts: Optional HTTP client and metrics
//
// Returns:
//   - *Client: Ready-to-use client, safe for sequential use by the poll loop
//   - error: Non-nil if the endpoint is not an absolute http(s) URL
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	endpoint, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("practicum: parse endpoint: %w", err)
	}
	if (endpoint.Scheme != "http" && endpoint.Scheme != "https") || endpoint.Host == "" {
		return nil, fmt.Errorf("practicum: endpoint must be an absolute http(s) URL: %q", cfg.Endpoint)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	maxBody := cfg.MaxBodySize
	if maxBody <= 0 {
		maxBody = DefaultMaxBodySize
	}

	c := &Client{
		endpoint:    endpoint,
		token:       cfg.Token,
		maxBodySize: maxBody,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
				TLSHandshakeTimeout: 10 * time.Second,
				MaxIdleConns:        2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint returns the configured endpoint without query parameters.
func (c *Client) Endpoint() string {
	u := *c.endpoint
	u.RawQuery = ""
	return u.String()
}

// Fetch requests statuses changed since cursor (Unix seconds).
//
// Returns:
//   - any: The decoded JSON body (objects as map[string]any, numbers as json.Number)
//   - error: *entity.ValidationError (ErrNegativeCursor) before any request, or
//     *entity.TransportError with ErrUnreachable, ErrEndpointUnavailable or ErrDecode
func (c *Client) Fetch(ctx context.Context, cursor int64) (any, error) {
	if cursor < 0 {
		c.metrics.observe(outcomeInvalidCursor, 0)
		return nil, &entity.ValidationError{
			Reason:  entity.ErrNegativeCursor,
			Field:   "from_date",
			Message: strconv.FormatInt(cursor, 10),
		}
	}

	ctx, span := tracing.StartSpan(ctx, "practicum.fetch",
		attribute.Int64("practicum.from_date", cursor),
		attribute.String("http.url", c.Endpoint()))

	start := time.Now()
	payload, outcome, err := c.do(ctx, cursor)
	elapsed := time.Since(start)

	c.metrics.observe(outcome, elapsed)
	span.SetAttributes(attribute.String("practicum.outcome", outcome))
	tracing.EndSpan(span, err)

	return payload, err
}

func (c *Client) do(ctx context.Context, cursor int64) (any, string, error) {
	u := *c.endpoint
	q := u.Query()
	q.Set("from_date", strconv.FormatInt(cursor, 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, outcomeUnreachable, c.transportErr(entity.ErrUnreachable, 0, err)
	}
	req.Header.Set("Authorization", "OAuth "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "homework-bot")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, outcomeUnreachable, c.transportErr(entity.ErrUnreachable, 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxBodySize))
		return nil, outcomeUnavailable, c.transportErr(entity.ErrEndpointUnavailable, resp.StatusCode, nil)
	}

	payload, err := c.decode(resp.Body)
	if err != nil {
		return nil, outcomeDecode, c.transportErr(entity.ErrDecode, 0, err)
	}
	return payload, outcomeSuccess, nil
}

func (c *Client) decode(body io.Reader) (any, error) {
	data, err := io.ReadAll(io.LimitReader(body, c.maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > c.maxBodySize {
		return nil, fmt.Errorf("body exceeds %d bytes", c.maxBodySize)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}
	if err := dec.Decode(new(any)); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON value")
	}
	return payload, nil
}

func (c *Client) transportErr(reason error, status int, cause error) error {
	return &entity.TransportError{
		Reason:     reason,
		Endpoint:   c.Endpoint(),
		StatusCode: status,
		Err:        cause,
	}
}

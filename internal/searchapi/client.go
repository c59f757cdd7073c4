// Package searchapi is a REST client for the search service control plane:
// indexers, datasources and indexes.
package searchapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/north-cloud/aisearch/infrastructure/circuitbreaker"
	infrahttp "github.com/jonesrussell/north-cloud/aisearch/infrastructure/http"
	infralogger "github.com/jonesrussell/north-cloud/aisearch/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/aisearch/infrastructure/retry"
)

// Default client settings.
const (
	DefaultAPIVersion          = "2024-07-01"
	DefaultTimeout             = 60 * time.Second
	DefaultReachabilityTimeout = 10 * time.Second
	maxResponseBytes           = 8 << 20
	maxLoggedBodyBytes         = 4 << 10
	clientRequestIDHeader      = "client-request-id"
	serviceRequestIDHeader     = "request-id"
)

// Config configures a Client.
type Config struct {
	// Endpoint is the service root, e.g. https://mysvc.search.windows.net.
	Endpoint   string
	APIVersion string
	// Timeout bounds each attempt.
	Timeout time.Duration
	// ReachabilityTimeout bounds the probe run after connection failures.
	ReachabilityTimeout time.Duration
	Retry               retry.Config
	Breaker             circuitbreaker.Config
	UserAgent           string
}

// Recorder observes every attempt. Implemented by internal/metrics.
type Recorder interface {
	ObserveRequest(op, method string, statusCode int, duration time.Duration)
	ObserveRetry(op string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveRequest(string, string, int, time.Duration) {}
func (nopRecorder) ObserveRetry(string)                               {}

// Client talks to one search service. Safe for concurrent use.
type Client struct {
	endpoint   string
	apiVersion string
	timeout    time.Duration
	probeTO    time.Duration
	userAgent  string
	auth       Authenticator
	httpClient *http.Client
	retryCfg   retry.Config
	breaker    *circuitbreaker.Breaker
	logger     infralogger.Logger
	recorder   Recorder
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the tuned default transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(log infralogger.Logger) Option {
	return func(c *Client) { c.logger = log }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// NewClient validates cfg and builds a Client.
func NewClient(cfg Config, auth Authenticator, opts ...Option) (*Client, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
		return nil, fmt.Errorf("invalid search endpoint %q", cfg.Endpoint)
	}
	if auth == nil {
		return nil, errors.New("authenticator is required")
	}

	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.ReachabilityTimeout <= 0 {
		cfg.ReachabilityTimeout = DefaultReachabilityTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "aisearch"
	}
	cfg.Retry.IsRetryable = isRetryable
	cfg.Breaker.IsFailure = countsAgainstCircuit

	c := &Client{
		endpoint:   endpoint,
		apiVersion: cfg.APIVersion,
		timeout:    cfg.Timeout,
		probeTO:    cfg.ReachabilityTimeout,
		userAgent:  cfg.UserAgent,
		auth:       auth,
		retryCfg:   cfg.Retry,
		logger:     infralogger.NewNop(),
		recorder:   nopRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		// Per-attempt deadlines come from the request context.
		c.httpClient = infrahttp.NewClient(&infrahttp.ClientConfig{
			Timeout:               cfg.Timeout + cfg.ReachabilityTimeout,
			ResponseHeaderTimeout: cfg.Timeout,
		})
	}

	breakerCfg := cfg.Breaker
	breakerCfg.OnStateChange = func(from, to circuitbreaker.State) {
		c.logger.Warn("Search service circuit changed state",
			infralogger.String("from", from.String()),
			infralogger.String("to", to.String()),
		)
	}
	c.breaker = circuitbreaker.New(breakerCfg)

	return c, nil
}

// Endpoint returns the normalised service root.
func (c *Client) Endpoint() string { return c.endpoint }

// APIVersion returns the api-version sent with every request.
func (c *Client) APIVersion() string { return c.apiVersion }

// AuthScheme names the configured authentication strategy.
func (c *Client) AuthScheme() string { return c.auth.Scheme() }

// BreakerState reports the circuit state for health checks.
func (c *Client) BreakerState() circuitbreaker.State { return c.breaker.State() }

// request describes one logical call.
type request struct {
	op      string
	method  string
	path    string
	query   url.Values
	body    any
	success []int
	// noRetry disables retrying for calls that must not be repeated.
	noRetry bool
	// timeout overrides the client timeout for this call.
	timeout time.Duration
	// bypassBreaker sends even when the circuit is open.
	bypassBreaker bool
}

// response is a successful HTTP exchange.
type response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (c *Client) buildURL(path string, query url.Values) string {
	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	q.Set("api-version", c.apiVersion)
	return c.endpoint + path + "?" + q.Encode()
}

// resourcePath joins escaped segments: resourcePath("indexers", name, "run").
func resourcePath(segments ...string) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

// do runs r through the retry policy and the circuit breaker.
func (c *Client) do(ctx context.Context, r request) (*response, error) {
	var payload []byte
	if r.body != nil {
		var err error
		payload, err = json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("%s: marshal request: %w", r.op, err)
		}
	}

	retryCfg := c.retryCfg
	if r.noRetry {
		retryCfg.MaxAttempts = 1
	}
	retryCfg.OnRetry = func(attempt int, delay time.Duration, err error) {
		c.recorder.ObserveRetry(r.op)
		c.logger.Warn("Retrying search request",
			infralogger.String("operation", r.op),
			infralogger.Int("attempt", attempt),
			infralogger.Duration("delay", delay),
			infralogger.Error(err),
		)
	}

	var resp *response
	err := retry.Retry(ctx, retryCfg, func() error {
		attempt := func() error {
			var attemptErr error
			resp, attemptErr = c.send(ctx, r, payload)
			return attemptErr
		}
		if r.bypassBreaker {
			return attempt()
		}
		return c.breaker.Execute(ctx, attempt)
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// send performs exactly one HTTP exchange.
func (c *Client) send(ctx context.Context, r request, payload []byte) (*response, error) {
	timeout := c.timeout
	if r.timeout > 0 {
		timeout = r.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	target := c.buildURL(r.path, r.query)

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", r.op, err)
	}

	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(clientRequestIDHeader, reqID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authErr := c.auth.Authorize(ctx, req); authErr != nil {
		return nil, fmt.Errorf("%s: %w", r.op, authErr)
	}

	c.logger.Debug("Search request",
		infralogger.String("operation", r.op),
		infralogger.String("method", r.method),
		infralogger.String("url", target),
		infralogger.Any("headers", redactHeaders(req.Header)),
		infralogger.String("payload", redactBody(payload)),
	)

	start := time.Now()
	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		c.recorder.ObserveRequest(r.op, r.method, 0, time.Since(start))
		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.Canceled) {
			return nil, ctxErr
		}
		return nil, &TransportError{Op: r.op, Method: r.method, URL: target, Err: err}
	}
	defer httpResp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	latency := time.Since(start)
	c.recorder.ObserveRequest(r.op, r.method, httpResp.StatusCode, latency)
	if readErr != nil {
		return nil, &TransportError{Op: r.op, Method: r.method, URL: target, Err: fmt.Errorf("read body: %w", readErr)}
	}

	c.logger.Debug("Search response",
		infralogger.String("operation", r.op),
		infralogger.Int("status", httpResp.StatusCode),
		infralogger.Duration("latency", latency),
		infralogger.String("client_request_id", reqID),
		infralogger.String("request_id", httpResp.Header.Get(serviceRequestIDHeader)),
		infralogger.Any("headers", redactHeaders(httpResp.Header)),
		infralogger.String("body", redactBody(body)),
	)

	if !slices.Contains(r.success, httpResp.StatusCode) {
		return nil, newAPIError(r.op, r.method, target, httpResp.StatusCode, body,
			httpResp.Header.Get(serviceRequestIDHeader))
	}

	return &response{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: body}, nil
}

// decodeInto unmarshals a successful response body into out.
func decodeInto(op string, resp *response, out any) error {
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return fmt.Errorf("%s: empty response body (status %d)", op, resp.StatusCode)
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

var sensitiveHeaders = []string{APIKeyHeader, "Authorization", "Cookie", "Set-Cookie"}

func redactHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		val := strings.Join(v, ", ")
		for _, s := range sensitiveHeaders {
			if strings.EqualFold(k, s) {
				val = "REDACTED"
				break
			}
		}
		out[k] = val
	}
	return out
}

// redactBody blanks secret-bearing string fields in a JSON body before it is
// logged. Bodies that are not JSON carry no credentials and are logged as is.
func redactBody(b []byte) string {
	if len(bytes.TrimSpace(b)) == 0 {
		return ""
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return truncate(b)
	}
	redacted, err := json.Marshal(redactValue(doc))
	if err != nil {
		return fmt.Sprintf("(%d bytes)", len(b))
	}
	return truncate(redacted)
}

func redactValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			if s, ok := val.(string); ok && s != "" && isSecretField(k) {
				t[k] = "REDACTED"
				continue
			}
			t[k] = redactValue(val)
		}
	case []any:
		for i := range t {
			t[i] = redactValue(t[i])
		}
	}
	return v
}

// isSecretField matches connectionString and any *key, *secret or *password
// field, case-insensitively.
func isSecretField(name string) bool {
	lower := strings.ToLower(name)
	if lower == "connectionstring" {
		return true
	}
	for _, suffix := range []string{"key", "secret", "password", "token"} {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

func truncate(b []byte) string {
	if len(b) <= maxLoggedBodyBytes {
		return string(b)
	}
	return string(b[:maxLoggedBodyBytes]) + "...(truncated)"
}

func requireName(op, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%s: %w", op, ErrInvalidName)
	}
	return nil
}

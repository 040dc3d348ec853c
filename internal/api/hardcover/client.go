package hardcover

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/hasura/go-graphql-client"

	"github.com/RobBrazier/calibre-plugins/internal/logger"
	"github.com/RobBrazier/calibre-plugins/internal/util"
)

const (
	// DefaultBaseURL is the default base URL for the Hardcover API
	DefaultBaseURL = "https://api.hardcover.app/v1/graphql"
	// DefaultTimeout is the default timeout for a single GraphQL call
	DefaultTimeout = 30 * time.Second
)

// Default rate limiting configuration
const (
	// DefaultRateLimit is the default minimum time between requests once the burst is spent
	DefaultRateLimit = 1 * time.Second
	// DefaultBurst is the default burst size for rate limiting
	DefaultBurst = 5
)

// ClientConfig holds configuration for the Hardcover client
type ClientConfig struct {
	// BaseURL is the base URL for the API (default: DefaultBaseURL)
	BaseURL string
	// Timeout is used when a caller passes no timeout of its own (default: DefaultTimeout)
	Timeout time.Duration
	// RateLimit specifies the minimum time between requests (default: DefaultRateLimit)
	RateLimit time.Duration
	// Burst specifies the burst size for rate limiting (default: DefaultBurst)
	Burst int
	// Transport overrides the underlying round tripper, mainly for tests
	Transport http.RoundTripper
}

// DefaultClientConfig returns the default configuration for the client
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:   DefaultBaseURL,
		Timeout:   DefaultTimeout,
		RateLimit: DefaultRateLimit,
		Burst:     DefaultBurst,
	}
}

// Client represents a client for the Hardcover API
type Client struct {
	baseURL     string
	authToken   string
	timeout     time.Duration
	gqlClient   *graphql.Client
	logger      *logger.Logger
	rateLimiter *util.RateLimiter
}

// NewClient creates a new Hardcover client with default configuration
func NewClient(token string, log *logger.Logger) *Client {
	return NewClientWithConfig(DefaultClientConfig(), token, log)
}

// NewClientWithConfig creates a new Hardcover client with custom configuration
func NewClientWithConfig(cfg *ClientConfig, token string, log *logger.Logger) *Client {
	if cfg == nil {
		cfg = DefaultClientConfig()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.Get()
	}
	childLogger := log.With(map[string]interface{}{
		"component": "hardcover_client",
	})

	rt := cfg.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	httpClient := &http.Client{
		Transport: loggingRoundTripper{
			logger: childLogger,
			rt:     rt,
		},
	}

	c := &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		authToken:   token,
		timeout:     cfg.Timeout,
		logger:      childLogger,
		rateLimiter: util.NewRateLimiter(cfg.RateLimit, cfg.Burst),
	}

	c.gqlClient = graphql.NewClient(c.baseURL, httpClient).
		WithRequestModifier(func(r *http.Request) {
			if auth := c.GetAuthHeader(); auth != "" {
				r.Header.Set("Authorization", auth)
			}
			r.Header.Set("Content-Type", "application/json")
			r.Header.Set("Accept", "application/json")
		})

	childLogger.Debug("Created new Hardcover client", map[string]interface{}{
		"base_url": c.baseURL,
		"timeout":  c.timeout.String(),
	})

	return c
}

// GetAuthHeader returns the properly formatted Authorization header value.
// Tokens that already carry a scheme ("Bearer x", "Token x") are sent as-is.
func (c *Client) GetAuthHeader() string {
	authToken := strings.TrimSpace(c.authToken)
	if authToken != "" && !strings.Contains(authToken, " ") {
		authToken = "Bearer " + authToken
	}
	return authToken
}

// Timeout returns the timeout applied when a caller passes none
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

var operationName = regexp.MustCompile(`(?m)^\s*(?:query|mutation)\s+(\w+)`)

// Execute runs a GraphQL document and returns the decoded data object.
// Errors from the network, non-2xx responses and GraphQL error payloads
// are all returned; nothing is retried.
func (c *Client) Execute(ctx context.Context, query string, variables map[string]interface{}, timeout time.Duration) (map[string]interface{}, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if strings.TrimSpace(c.authToken) == "" {
		return nil, ErrMissingToken
	}
	if timeout <= 0 {
		timeout = c.timeout
	}
	if variables == nil {
		variables = make(map[string]interface{})
	}

	op := ""
	if m := operationName.FindStringSubmatch(query); m != nil {
		op = m[1]
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, WithOperation(fmt.Errorf("rate limiter error: %w", err), op)
	}

	c.logger.Debug("Executing GraphQL request", map[string]interface{}{
		"operation": op,
		"variables": variables,
	})

	raw, err := c.gqlClient.ExecRaw(ctx, query, variables)
	if err != nil {
		c.logger.Error("GraphQL operation failed", map[string]interface{}{
			"operation": op,
			"error":     err.Error(),
		})
		return nil, WithOperation(fmt.Errorf("graphql request failed: %w", err), op)
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, WithOperation(fmt.Errorf("failed to unmarshal GraphQL data: %w", err), op)
	}
	return data, nil
}

// loggingRoundTripper logs requests and turns error statuses into HTTPError
type loggingRoundTripper struct {
	logger *logger.Logger
	rt     http.RoundTripper
}

// RoundTrip implements the http.RoundTripper interface
func (l loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := l.rt.RoundTrip(req)
	if err != nil {
		l.logger.Error("Request failed", map[string]interface{}{
			"error":  err.Error(),
			"method": req.Method,
			"url":    req.URL.String(),
		})
		return nil, err
	}

	logFields := map[string]interface{}{
		"status":   resp.StatusCode,
		"path":     req.URL.Path,
		"duration": time.Since(start).String(),
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		l.logger.Error("Received error response", logFields)
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: body}
	}

	l.logger.Debug("Received response", logFields)
	return resp, nil
}

package datasource

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/josema3054/predicciones-deportivas/internal/config"
)

// RetryPolicy controls how failed requests are retried
type RetryPolicy struct {
	MaxAttempts int
	MinBackoff  time.Duration
	MaxBackoff  time.Duration
}

// DefaultRetryPolicy retries three times with exponential backoff
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		MinBackoff:  200 * time.Millisecond,
		MaxBackoff:  5 * time.Second,
	}
}

// HTTPClientConfig holds configuration for HTTP clients
type HTTPClientConfig struct {
	Timeout           time.Duration
	Retry             RetryPolicy
	RateLimit         float64 // requests per second
	Burst             int
	CircuitBreakerMax int // consecutive failures before the circuit opens
}

// DefaultHTTPClientConfig returns recommended defaults
func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		Timeout:           10 * time.Second,
		Retry:             DefaultRetryPolicy(),
		RateLimit:         2.0,
		Burst:             2,
		CircuitBreakerMax: 5,
	}
}

// HTTPClientConfigFrom maps the results source section onto client settings
func HTTPClientConfigFrom(cfg config.ResultsSourceConfig) HTTPClientConfig {
	out := DefaultHTTPClientConfig()
	if cfg.TimeoutSeconds > 0 {
		out.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	if cfg.RequestsPerSecond > 0 {
		out.RateLimit = cfg.RequestsPerSecond
	}
	if cfg.Burst > 0 {
		out.Burst = cfg.Burst
	}
	out.Retry.MaxAttempts = cfg.RetryAttempts
	return out
}

// RateLimitedHTTPClient wraps retryablehttp.Client with rate limiting and a
// circuit breaker. It is safe for concurrent use.
type RateLimitedHTTPClient struct {
	client            *retryablehttp.Client
	limiter           *rate.Limiter
	circuitBreakerMax int
	logger            *logrus.Entry

	mu                sync.Mutex
	consecutiveErrors int
	isOpen            bool
	lastError         error
}

// NewRateLimitedHTTPClient creates a new rate-limited HTTP client
func NewRateLimitedHTTPClient(cfg HTTPClientConfig, logger *logrus.Logger) *RateLimitedHTTPClient {
	if logger == nil {
		logger = logrus.New()
	}
	entry := logger.WithField("component", "http_client")

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Timeout = cfg.Timeout
	retryClient.RetryMax = cfg.Retry.MaxAttempts
	retryClient.RetryWaitMin = cfg.Retry.MinBackoff
	retryClient.RetryWaitMax = cfg.Retry.MaxBackoff
	retryClient.CheckRetry = customRetryPolicy()
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = nil
	retryClient.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if attempt > 0 {
			entry.WithFields(logrus.Fields{"url": req.URL.String(), "attempt": attempt}).Debug("Retrying request")
		}
	}

	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	return &RateLimitedHTTPClient{
		client:            retryClient,
		limiter:           rate.NewLimiter(rate.Limit(cfg.RateLimit), burst),
		circuitBreakerMax: cfg.CircuitBreakerMax,
		logger:            entry,
	}
}

// Do executes an HTTP request with rate limiting and circuit breaker
func (c *RateLimitedHTTPClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	c.mu.Lock()
	if c.isOpen {
		err := c.lastError
		c.mu.Unlock()
		return nil, fmt.Errorf("circuit breaker open: %v", err)
	}
	c.mu.Unlock()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	retryReq, err := retryablehttp.FromRequest(req.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to wrap request: %w", err)
	}
	resp, err := c.client.Do(retryReq)

	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case err != nil:
		c.recordFailure(err)
		return nil, err
	case resp.StatusCode >= 500:
		c.recordFailure(fmt.Errorf("server returned %d", resp.StatusCode))
	default:
		c.consecutiveErrors = 0
	}
	return resp, nil
}

// recordFailure must be called with mu held
func (c *RateLimitedHTTPClient) recordFailure(err error) {
	c.consecutiveErrors++
	c.lastError = err
	if c.circuitBreakerMax > 0 && c.consecutiveErrors >= c.circuitBreakerMax {
		c.isOpen = true
		c.logger.WithError(err).Warnf("Circuit breaker opened after %d consecutive errors", c.consecutiveErrors)
	}
}

// Get executes a GET request
func (c *RateLimitedHTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return c.Do(ctx, req)
}

// Reset closes the circuit breaker
func (c *RateLimitedHTTPClient) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.isOpen = false
	c.consecutiveErrors = 0
	c.lastError = nil
}

// Close closes any resources held by the client
func (c *RateLimitedHTTPClient) Close() error {
	c.client.HTTPClient.CloseIdleConnections()
	return nil
}

// customRetryPolicy retries network errors, 429 and 5xx gateway failures
func customRetryPolicy() retryablehttp.CheckRetry {
	return func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil {
			return true, err
		}
		switch resp.StatusCode {
		case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true, nil
		}
		return false, nil
	}
}

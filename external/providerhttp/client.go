package providerhttp

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

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/statlink/internal/platform/logging"
	"github.com/riskibarqy/statlink/internal/platform/metrics"
	"github.com/riskibarqy/statlink/internal/platform/ratelimit"
	"github.com/riskibarqy/statlink/internal/platform/resilience"
	"github.com/riskibarqy/statlink/internal/platform/robots"
	"github.com/riskibarqy/statlink/internal/usecase"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultTimeout      = 60 * time.Second
	defaultMaxBodyBytes = 64 << 20
	defaultUserAgent    = "statlink/1.0"
)

var errTransient = crerr.New("provider transient failure")

// ErrBodyTooLarge is returned when a response exceeds the configured cap.
var ErrBodyTooLarge = errors.New("response body exceeds limit")

type ClientConfig struct {
	// Name labels logs, metrics, the rate limit bucket and the breaker.
	Name           string
	HTTPClient     *http.Client
	BaseURL        string
	UserAgent      string
	Timeout        time.Duration
	Retry          resilience.RetryPolicy
	RateLimit      float64
	RateBurst      int
	MaxBodyBytes   int64
	CircuitBreaker resilience.CircuitBreakerConfig
	// Limiter is shared between clients when set; otherwise each client
	// gets its own.
	Limiter *ratelimit.Limiter
	// Robots gates every request through robots.txt when set.
	Robots  *robots.Checker
	Metrics *metrics.Manager
	Logger  *logging.Logger
}

// Client issues GET requests against one provider with rate limiting,
// bounded retries, a circuit breaker and request coalescing.
type Client struct {
	name           string
	httpClient     *http.Client
	baseURL        string
	userAgent      string
	retry          resilience.RetryPolicy
	maxBodyBytes   int64
	limiter        *ratelimit.Limiter
	robots         *robots.Checker
	metrics        *metrics.Manager
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = "provider"
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultTimeout
	}

	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}

	limiter := cfg.Limiter
	if limiter == nil {
		limiter = ratelimit.NewLimiter(0, 1)
	}
	if cfg.RateLimit > 0 {
		limiter.SetRate(name, cfg.RateLimit, cfg.RateBurst)
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)
	breaker := resilience.NewCircuitBreaker(name, breakerCfg)
	breaker.OnStateChange(func(name string, from, to resilience.CircuitState) {
		cfg.Metrics.SetBreakerOpen(name, to == resilience.CircuitStateOpen)
		logger.Warn("provider circuit breaker state changed", "provider", name, "from", from, "to", to)
	})

	return &Client{
		name:           name,
		httpClient:     httpClient,
		baseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		userAgent:      userAgent,
		retry:          resilience.NormalizeRetryPolicy(cfg.Retry),
		maxBodyBytes:   maxBody,
		limiter:        limiter,
		robots:         cfg.Robots,
		metrics:        cfg.Metrics,
		logger:         logger,
		breaker:        breaker,
		circuitEnabled: breakerCfg.Enabled,
	}
}

func (c *Client) Name() string {
	return c.name
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// URL joins path and query onto the base url.
func (c *Client) URL(path string, query url.Values) string {
	fullURL := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}
	return fullURL
}

// Get fetches path relative to the base url.
func (c *Client) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	return c.GetURL(ctx, c.URL(path, query))
}

// GetURL fetches an absolute url. Identical concurrent requests share one
// upstream call. Errors are classified as usecase.ErrRequestRejected (not
// retryable), usecase.ErrUpstreamUnavailable (retry budget exhausted or
// breaker open) or the context error.
func (c *Client) GetURL(ctx context.Context, fullURL string) ([]byte, error) {
	if c.robots != nil {
		decision, err := c.robots.Check(ctx, fullURL)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", usecase.ErrRequestRejected, c.name, err)
		}
		if !decision.Allowed {
			return nil, fmt.Errorf("%w: %s: %s disallowed by robots.txt", usecase.ErrRequestRejected, c.name, fullURL)
		}
		if decision.CrawlDelay > 0 {
			c.limiter.SlowDown(c.name, 1/decision.CrawlDelay.Seconds())
		}
	}

	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "provider circuit breaker rejected request", "provider", c.name, "state", c.breaker.State())
			return nil, fmt.Errorf("%w: %s is temporarily unavailable", usecase.ErrUpstreamUnavailable, c.name)
		}
	}

	out, err, _ := c.flight.Do(fullURL, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			switch {
			case reqErr == nil:
				c.breaker.RecordSuccess()
			case errors.Is(reqErr, usecase.ErrUpstreamUnavailable):
				c.breaker.RecordFailure()
			case errors.Is(reqErr, context.Canceled), errors.Is(reqErr, context.DeadlineExceeded):
				c.breaker.Release()
			default:
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return nil, err
	}

	raw, ok := out.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected response payload type %T", out)
	}
	return raw, nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	attempts := 0
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		attempts = attempt
		if err := c.limiter.Wait(ctx, c.name); err != nil {
			return nil, err
		}

		started := time.Now()
		raw, retryAfter, err := c.do(ctx, fullURL)
		c.metrics.ObserveUpstream(c.name, outcomeOf(err), time.Since(started))
		if err == nil {
			return raw, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if !errors.Is(err, errTransient) {
			c.logger.WarnContext(ctx, "provider rejected request", "provider", c.name, "url", fullURL, "error", err)
			return nil, err
		}

		lastErr = err
		if attempt == c.retry.MaxAttempts {
			break
		}
		delay := c.retry.Delay(attempt, retryAfter)
		c.metrics.IncRetry(c.name)
		c.logger.DebugContext(ctx, "retrying provider request",
			"provider", c.name,
			"attempt", attempt,
			"delay", delay.String(),
			"error", err,
		)
		if err := resilience.Sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	c.logger.WarnContext(ctx, "provider request failed", "provider", c.name, "url", fullURL, "attempts", attempts, "error", lastErr)
	return nil, fmt.Errorf("%w: %s after %d attempts: %v", usecase.ErrUpstreamUnavailable, c.name, attempts, lastErr)
}

// do performs one attempt. Transient failures are marked with errTransient
// and may carry a Retry-After hint.
func (c *Client) do(ctx context.Context, fullURL string) ([]byte, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: build request: %v", usecase.ErrRequestRejected, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: send request: %v", errTransient, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: read response body: %v", errTransient, err)
	}
	if int64(len(raw)) > c.maxBodyBytes {
		return nil, 0, fmt.Errorf("%w: %w: %d bytes", usecase.ErrRequestRejected, ErrBodyTooLarge, c.maxBodyBytes)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return raw, 0, nil
	}
	if isRetryableStatus(resp.StatusCode) {
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
		if resp.StatusCode == http.StatusTooManyRequests {
			next := c.limiter.Throttle(c.name, retryAfter)
			c.logger.WarnContext(ctx, "provider throttled requests", "provider", c.name, "rate", next, "retry_after", retryAfter.String())
		}
		return nil, retryAfter,
			fmt.Errorf("%w: provider status=%d body=%s", errTransient, resp.StatusCode, abbreviateBody(raw))
	}
	return nil, 0, fmt.Errorf("%w: provider status=%d body=%s", usecase.ErrRequestRejected, resp.StatusCode, abbreviateBody(raw))
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusRequestTimeout || code >= http.StatusInternalServerError
}

// parseRetryAfter accepts delay-seconds or an HTTP date.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, errTransient):
		return "transient"
	default:
		return "rejected"
	}
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}

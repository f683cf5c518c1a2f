package robots

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/riskibarqy/statlink/internal/platform/cache"
	"github.com/riskibarqy/statlink/internal/platform/logging"
	"github.com/temoto/robotstxt"
)

// Checker answers robots.txt questions per host. Policies are fetched once
// per host and kept for the cache ttl.
type Checker struct {
	httpClient *http.Client
	userAgent  string
	agent      string
	policies   *cache.Store
	logger     *logging.Logger
}

type Decision struct {
	Allowed    bool
	CrawlDelay time.Duration
}

func NewChecker(httpClient *http.Client, userAgent string, ttl time.Duration, logger *logging.Logger) *Checker {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Checker{
		httpClient: httpClient,
		userAgent:  userAgent,
		agent:      productToken(userAgent),
		policies:   cache.NewStore(ttl),
		logger:     logger,
	}
}

// Check reports whether rawURL may be fetched. A robots.txt that cannot be
// retrieved allows everything, matching common crawler behaviour.
func (c *Checker) Check(ctx context.Context, rawURL string) (Decision, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return Decision{}, fmt.Errorf("parse url: %w", err)
	}
	if parsed.Host == "" {
		return Decision{}, fmt.Errorf("url %q has no host", rawURL)
	}

	robotsURL := parsed.Scheme + "://" + parsed.Host + "/robots.txt"
	value, err := c.policies.GetOrLoad(ctx, parsed.Host, func(ctx context.Context) (any, error) {
		return c.fetch(ctx, robotsURL), nil
	})
	if err != nil {
		return Decision{}, err
	}
	data := value.(*robotstxt.RobotsData)

	path := parsed.EscapedPath()
	if path == "" {
		path = "/"
	}
	decision := Decision{Allowed: data.TestAgent(path, c.agent)}
	if group := data.FindGroup(c.agent); group != nil {
		decision.CrawlDelay = group.CrawlDelay
	}
	return decision, nil
}

func (c *Checker) fetch(ctx context.Context, robotsURL string) *robotstxt.RobotsData {
	allowAll, _ := robotstxt.FromStatusAndBytes(http.StatusNotFound, nil)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return allowAll
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "robots.txt unavailable, allowing by default", "url", robotsURL, "error", err)
		return allowAll
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512<<10))
	if err != nil {
		return allowAll
	}
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		c.logger.WarnContext(ctx, "robots.txt unparsable, allowing by default", "url", robotsURL, "error", err)
		return allowAll
	}
	return data
}

// productToken reduces "statlink/1.0 (+https://...)" to "statlink" for
// group matching.
func productToken(ua string) string {
	parts := strings.Fields(ua)
	if len(parts) == 0 {
		return ua
	}
	return strings.Split(parts[0], "/")[0]
}

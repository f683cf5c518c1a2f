package chadwick

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/statlink/external/providerhttp"
	"github.com/riskibarqy/statlink/internal/domain/crosswalk"
	"github.com/riskibarqy/statlink/internal/platform/logging"
	"github.com/riskibarqy/statlink/internal/usecase"
	"github.com/sourcegraph/conc/pool"
)

const (
	DefaultBaseURL     = "https://raw.githubusercontent.com/chadwickbureau/register/master/data"
	defaultConcurrency = 4
	shardNames         = "0123456789abcdef"
)

type ClientConfig struct {
	HTTP    *providerhttp.Client
	BaseURL string
	// URLs overrides the shard list, e.g. with a single people.csv mirror.
	URLs        []string
	Concurrency int
	Logger      *logging.Logger
	Now         func() time.Time
}

// Client downloads the Chadwick Bureau register, published as one CSV shard
// per leading hex digit of the person key.
type Client struct {
	http        *providerhttp.Client
	urls        []string
	concurrency int
	logger      *logging.Logger
	now         func() time.Time
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	httpClient := cfg.HTTP
	if httpClient == nil {
		httpClient = providerhttp.NewClient(providerhttp.ClientConfig{Name: "chadwick", Logger: logger})
	}

	urls := make([]string, 0, len(shardNames))
	for _, u := range cfg.URLs {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	if len(urls) == 0 {
		base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
		if base == "" {
			base = DefaultBaseURL
		}
		for _, shard := range shardNames {
			urls = append(urls, fmt.Sprintf("%s/people-%c.csv", base, shard))
		}
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Client{
		http:        httpClient,
		urls:        urls,
		concurrency: concurrency,
		logger:      logger,
		now:         now,
	}
}

func (c *Client) URLs() []string {
	return append([]string(nil), c.urls...)
}

// Source describes where snapshots come from.
func (c *Client) Source() string {
	if len(c.urls) == 1 {
		return c.urls[0]
	}
	return strings.TrimSuffix(c.urls[0], "/people-0.csv")
}

// FetchTable downloads every shard and builds a validated table. Rows keep
// shard order. A shard that fails to download fails the whole fetch; a
// snapshot that fails validation is reported as usecase.ErrValidation.
func (c *Client) FetchTable(ctx context.Context) (*crosswalk.Table, error) {
	shards := make([][]crosswalk.Record, len(c.urls))
	var extra []string

	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError().WithMaxGoroutines(c.concurrency)
	for i, shardURL := range c.urls {
		p.Go(func(ctx context.Context) error {
			raw, err := c.http.GetURL(ctx, shardURL)
			if err != nil {
				return fmt.Errorf("download %s: %w", shardURL, err)
			}
			records, layout, err := crosswalk.ReadCSV(bytes.NewReader(raw))
			if err != nil {
				return fmt.Errorf("%w: %s: %w", usecase.ErrValidation, shardURL, err)
			}
			shards[i] = records
			if i == 0 {
				extra = layout.Extra()
			}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			return nil, ctxErr
		}
		return nil, err
	}

	total := 0
	for _, s := range shards {
		total += len(s)
	}
	records := make([]crosswalk.Record, 0, total)
	for _, s := range shards {
		records = append(records, s...)
	}

	table, err := crosswalk.NewTable(records, crosswalk.Meta{
		FetchedAt:    c.now().UTC(),
		Source:       c.Source(),
		ExtraColumns: extra,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", usecase.ErrValidation, err)
	}

	c.logger.InfoContext(ctx, "chadwick register downloaded", "shards", len(c.urls), "rows", table.Len())
	return table, nil
}

package bref

import (
	"bytes"
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/riskibarqy/statlink/external/providerhttp"
	"github.com/riskibarqy/statlink/internal/domain/crosswalk"
	"github.com/riskibarqy/statlink/internal/domain/statrecord"
	"github.com/riskibarqy/statlink/internal/platform/logging"
	"github.com/riskibarqy/statlink/internal/usecase"
	"golang.org/x/net/html"
)

const DefaultBaseURL = "https://www.baseball-reference.com"

type ClientConfig struct {
	HTTP   *providerhttp.Client
	Logger *logging.Logger
}

// Client scrapes Baseball-Reference league season tables.
type Client struct {
	http   *providerhttp.Client
	logger *logging.Logger
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	httpClient := cfg.HTTP
	if httpClient == nil {
		httpClient = providerhttp.NewClient(providerhttp.ClientConfig{
			Name:      string(crosswalk.ProviderBRef),
			BaseURL:   DefaultBaseURL,
			RateLimit: 0.3,
			RateBurst: 1,
			Logger:    logger,
		})
	}
	return &Client{http: httpClient, logger: logger}
}

func (c *Client) Provider() crosswalk.Provider {
	return crosswalk.ProviderBRef
}

// Fetch reads one standard batting or pitching page per season.
func (c *Client) Fetch(ctx context.Context, q statrecord.Query) iter.Seq2[statrecord.Record, error] {
	return func(yield func(statrecord.Record, error) bool) {
		if err := q.Validate(); err != nil {
			yield(statrecord.Record{}, fmt.Errorf("%w: %w", usecase.ErrInvalidInput, err))
			return
		}
		schema, ok := schemaFor(q.Category)
		if !ok {
			yield(statrecord.Record{}, fmt.Errorf("%w: bref does not serve category %q", usecase.ErrInvalidInput, q.Category))
			return
		}

		kind := "batting"
		if q.Category == statrecord.CategoryPitching {
			kind = "pitching"
		}
		for _, season := range q.Seasons() {
			path := fmt.Sprintf("/leagues/majors/%d-standard-%s.shtml", season, kind)
			raw, err := c.http.Get(ctx, path, nil)
			if err != nil {
				yield(statrecord.Record{}, fmt.Errorf("bref %s: %w", path, err))
				return
			}
			records, err := c.parse(ctx, raw, "players_standard_"+kind, schema, season, q)
			if err != nil {
				yield(statrecord.Record{}, fmt.Errorf("bref %s: %w", path, err))
				return
			}
			for _, r := range records {
				if !yield(r, nil) {
					return
				}
			}
		}
	}
}

func (c *Client) parse(ctx context.Context, raw []byte, tableID string, schema statrecord.Schema, season int, q statrecord.Query) ([]statrecord.Record, error) {
	doc, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %v", usecase.ErrSchemaMismatch, err)
	}
	node := findTable(doc, tableID)
	if node == nil {
		return nil, fmt.Errorf("%w: table %s not found", usecase.ErrSchemaMismatch, tableID)
	}
	table := flatten(node)

	binding, err := schema.Bind(table.header)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", usecase.ErrSchemaMismatch, err)
	}
	if unknown := binding.Unknown(); len(unknown) > 0 {
		c.logger.InfoContext(ctx, "bref columns not mapped", "table", tableID, "columns", strings.Join(unknown, ","))
	}

	out := make([]statrecord.Record, 0, len(table.rows))
	for _, row := range table.rows {
		rec, _ := binding.Decode(row)
		// League totals and averages carry no player id.
		if rec.NativeID == "" || !q.WantsPlayer(rec.NativeID) {
			continue
		}
		rec.Season = season
		out = append(out, rec)
	}
	return out, nil
}

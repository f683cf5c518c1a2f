package fangraphs

import (
	"context"
	"fmt"
	"iter"
	"net/url"
	"slices"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/statlink/external/providerhttp"
	"github.com/riskibarqy/statlink/internal/domain/crosswalk"
	"github.com/riskibarqy/statlink/internal/domain/statrecord"
	"github.com/riskibarqy/statlink/internal/platform/logging"
	"github.com/riskibarqy/statlink/internal/usecase"
)

const (
	DefaultBaseURL   = "https://www.fangraphs.com"
	leadersPath      = "/api/leaders/major-league/data"
	defaultPageItems = 500
	maxPages         = 200
)

type ClientConfig struct {
	HTTP      *providerhttp.Client
	PageItems int
	Logger    *logging.Logger
}

// Client reads the FanGraphs leaderboard API.
type Client struct {
	http      *providerhttp.Client
	pageItems int
	logger    *logging.Logger
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	httpClient := cfg.HTTP
	if httpClient == nil {
		httpClient = providerhttp.NewClient(providerhttp.ClientConfig{
			Name:    string(crosswalk.ProviderFanGraphs),
			BaseURL: DefaultBaseURL,
			Logger:  logger,
		})
	}
	pageItems := cfg.PageItems
	if pageItems <= 0 {
		pageItems = defaultPageItems
	}
	return &Client{http: httpClient, pageItems: pageItems, logger: logger}
}

func (c *Client) Provider() crosswalk.Provider {
	return crosswalk.ProviderFanGraphs
}

type leadersEnvelope struct {
	Data       []map[string]any `json:"data"`
	TotalCount int              `json:"totalCount"`
}

// Fetch pages through the leaderboard for the batting or pitching category.
func (c *Client) Fetch(ctx context.Context, q statrecord.Query) iter.Seq2[statrecord.Record, error] {
	return func(yield func(statrecord.Record, error) bool) {
		if err := q.Validate(); err != nil {
			yield(statrecord.Record{}, fmt.Errorf("%w: %w", usecase.ErrInvalidInput, err))
			return
		}
		schema, ok := schemaFor(q.Category)
		if !ok {
			yield(statrecord.Record{}, fmt.Errorf("%w: fangraphs does not serve category %q", usecase.ErrInvalidInput, q.Category))
			return
		}

		var binding *statrecord.Binding
		var header []string
		seen := 0
		for page := 1; page <= maxPages; page++ {
			raw, err := c.http.Get(ctx, leadersPath, leadersParams(q, page, c.pageItems))
			if err != nil {
				yield(statrecord.Record{}, fmt.Errorf("fangraphs leaders page %d: %w", page, err))
				return
			}
			var envelope leadersEnvelope
			if err := sonic.Unmarshal(raw, &envelope); err != nil {
				yield(statrecord.Record{}, fmt.Errorf("%w: decode fangraphs payload: %v", usecase.ErrSchemaMismatch, err))
				return
			}
			if len(envelope.Data) == 0 {
				return
			}

			if binding == nil {
				header = rowKeys(envelope.Data[0])
				binding, err = schema.Bind(header)
				if err != nil {
					yield(statrecord.Record{}, fmt.Errorf("%w: %w", usecase.ErrSchemaMismatch, err))
					return
				}
				if unknown := binding.Unknown(); len(unknown) > 0 {
					c.logger.DebugContext(ctx, "fangraphs columns not mapped", "count", len(unknown))
				}
			}

			cells := make([]string, len(header))
			for _, row := range envelope.Data {
				for i, key := range header {
					cells[i] = cellString(row[key])
				}
				rec, _ := binding.Decode(cells)
				if rec.NativeID == "" || !q.WantsPlayer(rec.NativeID) {
					continue
				}
				if rec.Season == 0 {
					rec.Season = q.Season
				}
				if !yield(rec, nil) {
					return
				}
			}

			seen += len(envelope.Data)
			if seen >= envelope.TotalCount || len(envelope.Data) < c.pageItems {
				return
			}
		}
		c.logger.WarnContext(ctx, "fangraphs pagination stopped at page limit", "pages", maxPages)
	}
}

func leadersParams(q statrecord.Query, page, pageItems int) url.Values {
	stats := "bat"
	if q.Category == statrecord.CategoryPitching {
		stats = "pit"
	}
	from, to := q.Season, q.Season
	if !q.Start.IsZero() {
		from, to = q.Start.Year(), q.End.Year()
	}

	params := url.Values{}
	params.Set("pos", "all")
	params.Set("stats", stats)
	params.Set("lg", "all")
	params.Set("qual", "y")
	if q.MinPA > 0 {
		params.Set("qual", strconv.Itoa(q.MinPA))
	}
	params.Set("season", strconv.Itoa(to))
	params.Set("season1", strconv.Itoa(from))
	params.Set("ind", "1")
	params.Set("type", "8")
	params.Set("month", "0")
	params.Set("pageitems", strconv.Itoa(pageItems))
	params.Set("pagenum", strconv.Itoa(page))
	if len(q.PlayerIDs) > 0 {
		params.Set("players", strings.Join(q.PlayerIDs, ","))
	}
	return params
}

func rowKeys(row map[string]any) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

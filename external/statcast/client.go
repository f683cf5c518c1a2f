package statcast

import (
	"bytes"
	"cmp"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/riskibarqy/statlink/external/providerhttp"
	"github.com/riskibarqy/statlink/internal/domain/crosswalk"
	"github.com/riskibarqy/statlink/internal/domain/statrecord"
	"github.com/riskibarqy/statlink/internal/platform/logging"
	"github.com/riskibarqy/statlink/internal/usecase"
	"github.com/sourcegraph/conc/pool"
)

const (
	DefaultBaseURL     = "https://baseballsavant.mlb.com"
	searchPath         = "/statcast_search/csv"
	expectedStatsPath  = "/leaderboard/expected_statistics"
	defaultConcurrency = 2
)

type ClientConfig struct {
	HTTP *providerhttp.Client
	// Concurrency bounds parallel search windows.
	Concurrency int
	Logger      *logging.Logger
}

// Client reads Baseball Savant: pitch-level search results, single games
// and the season leaderboards.
type Client struct {
	http        *providerhttp.Client
	concurrency int
	logger      *logging.Logger
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	httpClient := cfg.HTTP
	if httpClient == nil {
		httpClient = providerhttp.NewClient(providerhttp.ClientConfig{
			Name:    string(crosswalk.ProviderStatcast),
			BaseURL: DefaultBaseURL,
			Logger:  logger,
		})
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Client{http: httpClient, concurrency: concurrency, logger: logger}
}

func (c *Client) Provider() crosswalk.Provider {
	return crosswalk.ProviderStatcast
}

// Fetch supports the pitch category and every category in Leaderboards.
func (c *Client) Fetch(ctx context.Context, q statrecord.Query) iter.Seq2[statrecord.Record, error] {
	return func(yield func(statrecord.Record, error) bool) {
		if err := q.Validate(); err != nil {
			yield(statrecord.Record{}, fmt.Errorf("%w: %w", usecase.ErrInvalidInput, err))
			return
		}
		if q.Category == statrecord.CategoryPitch {
			if q.GamePK > 0 {
				c.game(ctx, q, yield)
				return
			}
			c.search(ctx, q, yield)
			return
		}
		board, ok := leaderboards[q.Category]
		if !ok {
			yield(statrecord.Record{}, fmt.Errorf("%w: statcast does not serve category %q", usecase.ErrInvalidInput, q.Category))
			return
		}
		c.leaderboard(ctx, board, q, yield)
	}
}

// search fetches windows in batches of c.concurrency and yields each batch
// in chronological order before starting the next, so a consumer that stops
// early stops further requests.
func (c *Client) search(ctx context.Context, q statrecord.Query, yield func(statrecord.Record, error) bool) {
	start, end := q.Start, q.End
	if start.IsZero() {
		bounds := seasonBounds(q.Season)
		start, end = bounds.start, bounds.end
	}
	windows := SplitRange(start, end, len(q.PlayerIDs))
	c.logger.DebugContext(ctx, "statcast search planned", "windows", len(windows), "player_type", q.PlayerType)

	schema := searchSchema(q.PlayerType)
	warned := false
	for batchStart := 0; batchStart < len(windows); batchStart += c.concurrency {
		batch := windows[batchStart:min(batchStart+c.concurrency, len(windows))]
		results := make([][]statrecord.Record, len(batch))
		unknown := make([][]string, len(batch))

		p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
		for i, w := range batch {
			p.Go(func(ctx context.Context) error {
				raw, err := c.http.Get(ctx, searchPath, searchParams(q, w))
				if err != nil {
					return fmt.Errorf("statcast search %s..%s: %w", w.Start.Format("2006-01-02"), w.End.Format("2006-01-02"), err)
				}
				records, cols, err := c.decode(ctx, raw, schema, q)
				if err != nil {
					return err
				}
				results[i], unknown[i] = records, cols
				return nil
			})
		}
		if err := p.Wait(); err != nil {
			yield(statrecord.Record{}, err)
			return
		}

		for i := range batch {
			if !warned && len(unknown[i]) > 0 {
				warned = true
				c.logger.InfoContext(ctx, "statcast columns not mapped", "count", len(unknown[i]), "columns", strings.Join(unknown[i], ","))
			}
			sortPitches(results[i])
			for _, r := range results[i] {
				if !yield(r, nil) {
					return
				}
			}
		}
	}
}

// game fetches every pitch of one game in a single request.
func (c *Client) game(ctx context.Context, q statrecord.Query, yield func(statrecord.Record, error) bool) {
	raw, err := c.http.Get(ctx, searchPath, gameParams(q))
	if err != nil {
		yield(statrecord.Record{}, fmt.Errorf("statcast game %d: %w", q.GamePK, err))
		return
	}
	records, unknown, err := c.decode(ctx, raw, searchSchema(q.PlayerType), q)
	if err != nil {
		yield(statrecord.Record{}, err)
		return
	}
	if len(unknown) > 0 {
		c.logger.InfoContext(ctx, "statcast columns not mapped", "count", len(unknown), "columns", strings.Join(unknown, ","))
	}
	sortPitches(records)
	for _, r := range records {
		if !yield(r, nil) {
			return
		}
	}
}

// leaderboard requests one CSV per season.
func (c *Client) leaderboard(ctx context.Context, board leaderboard, q statrecord.Query, yield func(statrecord.Record, error) bool) {
	for _, season := range q.Seasons() {
		raw, err := c.http.Get(ctx, board.path, board.params(q, season))
		if err != nil {
			yield(statrecord.Record{}, fmt.Errorf("statcast %s %d: %w", q.Category, season, err))
			return
		}
		records, unknown, err := c.decode(ctx, raw, board.schema, q)
		if err != nil {
			yield(statrecord.Record{}, err)
			return
		}
		if len(unknown) > 0 {
			c.logger.InfoContext(ctx, "statcast columns not mapped", "category", q.Category, "count", len(unknown), "columns", strings.Join(unknown, ","))
		}
		for _, r := range records {
			if r.Season == 0 {
				r.Season = season
			}
			if !yield(r, nil) {
				return
			}
		}
	}
}

// decode parses one CSV body. An empty body is an empty result. Rows
// without an id, and pitch rows without a game date, are skipped.
func (c *Client) decode(ctx context.Context, raw []byte, schema statrecord.Schema, q statrecord.Query) ([]statrecord.Record, []string, error) {
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil, nil
	}

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: statcast header: %v", usecase.ErrSchemaMismatch, err)
	}
	binding, err := schema.Bind(header)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", usecase.ErrSchemaMismatch, err)
	}

	var out []statrecord.Record
	badCells := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%w: statcast row: %v", usecase.ErrSchemaMismatch, err)
		}
		rec, bad := binding.Decode(row)
		badCells += bad
		if rec.NativeID == "" {
			continue
		}
		if binding.HasDate() && rec.Date.IsZero() {
			continue
		}
		if !q.WantsPlayer(rec.NativeID) {
			continue
		}
		out = append(out, rec)
	}
	if badCells > 0 {
		c.logger.DebugContext(ctx, "statcast cells could not be parsed", "count", badCells, "category", schema.Category)
	}
	return out, binding.Unknown(), nil
}

func searchParams(q statrecord.Query, w Window) url.Values {
	params := url.Values{}
	params.Set("all", "true")
	params.Set("type", "details")
	params.Set("player_type", string(q.PlayerType))
	params.Set("hfGT", "R|PO|")
	params.Set("hfSea", strconv.Itoa(w.Season)+"|")
	params.Set("game_date_gt", w.Start.Format("2006-01-02"))
	params.Set("game_date_lt", w.End.Format("2006-01-02"))
	params.Set("group_by", "name")
	params.Set("min_pitches", "0")
	params.Set("min_results", "0")
	params.Set("min_pas", "0")
	params.Set("sort_col", "pitches")
	params.Set("sort_order", "desc")

	lookup := "pitchers_lookup[]"
	if q.PlayerType == statrecord.PlayerTypeBatter {
		lookup = "batters_lookup[]"
	}
	for _, id := range q.PlayerIDs {
		params.Add(lookup, id)
	}
	return params
}

func gameParams(q statrecord.Query) url.Values {
	params := url.Values{}
	params.Set("all", "true")
	params.Set("type", "details")
	params.Set("player_type", string(q.PlayerType))
	params.Set("game_pk", strconv.Itoa(q.GamePK))
	params.Set("hfSea", "")
	params.Set("group_by", "name")
	params.Set("min_pitches", "0")
	params.Set("min_results", "0")
	return params
}

func sortPitches(records []statrecord.Record) {
	slices.SortStableFunc(records, func(a, b statrecord.Record) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		for _, f := range []statrecord.Field{statrecord.FieldGamePK, statrecord.FieldAtBat, statrecord.FieldPitchNumber} {
			if c := cmp.Compare(a.Stats[f], b.Stats[f]); c != 0 {
				return c
			}
		}
		return 0
	})
}

package cli

import (
	"time"

	"github.com/riskibarqy/statlink/internal/domain/crosswalk"
	"github.com/riskibarqy/statlink/internal/domain/statrecord"
	"github.com/riskibarqy/statlink/internal/interfaces/view"
	"github.com/riskibarqy/statlink/internal/usecase"
	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

type fetchOptions struct {
	*RootOptions
	Providers  []string
	Season     int
	Start      string
	End        string
	PlayerType string
	Category   string
	PlayerIDs  []string
	MinPA      int
	GamePK     int
	MaxAge     time.Duration
}

func newFetchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &fetchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch stats from providers and join them on canonical keys",
		Long: `Fetch queries each provider in parallel, caches every provider's dataset
for DATASET_MAX_AGE and joins the rows on the crosswalk's canonical key.
Rows whose ids the crosswalk does not know are reported as unresolved.

Example:
  statlink fetch --provider fangraphs,bref --season 2023 --category batting
  statlink fetch --provider statcast --start 2024-04-01 --end 2024-04-07 --category pitch
  statlink fetch --provider statcast --season 2023 --category expected_stats --player-type pitcher
  statlink fetch --provider statcast --season 2023 --category sprint_speed
  statlink fetch --provider statcast --game-pk 717465 --category pitch --player-type pitcher`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFetch(cmd, opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Providers, "provider", nil, "providers to query (statcast, fangraphs, bref)")
	cmd.Flags().IntVar(&opts.Season, "season", 0, "season to fetch")
	cmd.Flags().StringVar(&opts.Start, "start", "", "first date, YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.End, "end", "", "last date, YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.PlayerType, "player-type", string(statrecord.PlayerTypeBatter), "batter or pitcher")
	cmd.Flags().StringVar(&opts.Category, "category", string(statrecord.CategoryBatting), "pitch, batting, pitching or a statcast leaderboard (expected_stats, exit_velocity, percentile_rankings, pitch_arsenal_stats, sprint_speed, outs_above_average, home_runs)")
	cmd.Flags().StringSliceVar(&opts.PlayerIDs, "player-id", nil, "limit to these provider-native ids")
	cmd.Flags().IntVar(&opts.MinPA, "min-pa", 0, "leaderboard plate appearance minimum")
	cmd.Flags().IntVar(&opts.GamePK, "game-pk", 0, "fetch the pitches of a single game")
	cmd.Flags().DurationVar(&opts.MaxAge, "max-age", 0, "override DATASET_MAX_AGE")

	return cmd
}

func (o *fetchOptions) request() (usecase.AcquisitionRequest, error) {
	if len(o.Providers) == 0 {
		return usecase.AcquisitionRequest{}, usageErrorf("--provider is required")
	}
	req := usecase.AcquisitionRequest{
		MaxAge: o.MaxAge,
		Query: statrecord.Query{
			Season:     o.Season,
			PlayerType: statrecord.PlayerType(o.PlayerType),
			Category:   statrecord.Category(o.Category),
			PlayerIDs:  o.PlayerIDs,
			MinPA:      o.MinPA,
			GamePK:     o.GamePK,
		},
	}
	for _, raw := range o.Providers {
		p, err := crosswalk.ParseProvider(raw)
		if err != nil {
			return usecase.AcquisitionRequest{}, usageError{err: err}
		}
		req.Providers = append(req.Providers, p)
	}

	var err error
	if o.Start != "" {
		if req.Query.Start, err = time.Parse(dateLayout, o.Start); err != nil {
			return usecase.AcquisitionRequest{}, usageErrorf("invalid --start: %v", err)
		}
	}
	if o.End != "" {
		if req.Query.End, err = time.Parse(dateLayout, o.End); err != nil {
			return usecase.AcquisitionRequest{}, usageErrorf("invalid --end: %v", err)
		}
	}
	if o.MaxAge < 0 {
		return usecase.AcquisitionRequest{}, usageErrorf("--max-age must be positive")
	}
	if err := req.Query.Validate(); err != nil {
		return usecase.AcquisitionRequest{}, usageError{err: err}
	}
	return req, nil
}

func runFetch(cmd *cobra.Command, opts *fetchOptions) error {
	req, err := opts.request()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	s, err := opts.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close(ctx)

	res, err := s.app.Acquisition.Acquire(ctx, req)
	if err != nil {
		return err
	}
	return opts.printer().acquisition(view.NewAcquisition(res))
}

package cli

import (
	"fmt"
	"time"

	"github.com/riskibarqy/statlink/internal/domain/crosswalk"
	"github.com/riskibarqy/statlink/internal/interfaces/view"
	"github.com/riskibarqy/statlink/internal/usecase"
	"github.com/spf13/cobra"
)

type lookupOptions struct {
	*RootOptions
	ID        string
	Name      string
	Key       string
	Provider  string
	MLBOnly   bool
	DebutYear int
}

func newLookupCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &lookupOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Map player ids and names through the crosswalk",
		Long: `Lookup searches the local crosswalk, downloading it first when it is
missing or older than CROSSWALK_MAX_AGE.

  --id ID                     players holding ID in any provider
  --id ID --provider P        the player holding P's id ID
  --name NAME                 players matching a full, first or last name
  --name NAME --provider P    P's id for NAME (--debut-year breaks ties)
  --key KEY --provider P      P's id for a canonical key

Example:
  statlink lookup --id 545361
  statlink lookup --name "Mike Trout" --provider fangraphs
  statlink lookup --name "Will Smith" --provider bref --debut-year 2019`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLookup(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.ID, "id", "", "provider-native player id")
	cmd.Flags().StringVar(&opts.Name, "name", "", "player name")
	cmd.Flags().StringVar(&opts.Key, "key", "", "canonical player key")
	cmd.Flags().StringVar(&opts.Provider, "provider", "", "statcast, fangraphs, bref or retro")
	cmd.Flags().BoolVar(&opts.MLBOnly, "mlb-only", false, "only players with major league seasons")
	cmd.Flags().IntVar(&opts.DebutYear, "debut-year", 0, "first MLB season, to pick between players sharing a name")

	return cmd
}

func runLookup(cmd *cobra.Command, opts *lookupOptions) error {
	set := 0
	for _, v := range []string{opts.ID, opts.Name, opts.Key} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return usageErrorf("exactly one of --id, --name or --key is required")
	}

	var provider crosswalk.Provider
	if opts.Provider != "" {
		p, err := crosswalk.ParseProvider(opts.Provider)
		if err != nil {
			return usageError{err: err}
		}
		provider = p
	}
	if opts.Key != "" && provider == "" {
		return usageErrorf("--key requires --provider")
	}

	ctx := cmd.Context()
	s, err := opts.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close(ctx)

	xwalk := s.app.Crosswalk
	st, err := xwalk.Ensure(ctx, s.app.Config.CrosswalkMaxAge)
	if err != nil {
		return err
	}
	if st.Stale {
		fmt.Fprintf(opts.Stderr, "warning: crosswalk is stale (fetched %s): %v\n",
			st.Table.FetchedAt().UTC().Format(time.RFC3339), st.RefreshErr)
	}
	out := opts.printer()

	switch {
	case opts.Key != "":
		nativeID, ok, err := xwalk.ReverseLookup(crosswalk.CanonicalKey(opts.Key), provider)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s has no %s id", usecase.ErrNotFound, opts.Key, provider)
		}
		return out.value("id", nativeID)

	case opts.ID != "" && provider != "":
		key, ok, err := xwalk.Lookup(provider, opts.ID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s id %q", usecase.ErrNotFound, provider, opts.ID)
		}
		record, err := xwalk.Player(key)
		if err != nil {
			return err
		}
		return out.players([]view.Player{view.NewPlayer(record)})

	case opts.ID != "":
		records, err := xwalk.LookupAny(opts.ID, opts.MLBOnly)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return fmt.Errorf("%w: id %q", usecase.ErrNotFound, opts.ID)
		}
		return out.players(view.NewPlayers(records))

	case provider != "":
		nativeID, err := xwalk.IDForName(opts.Name, provider, opts.DebutYear, opts.MLBOnly)
		if err != nil {
			return err
		}
		return out.value("id", nativeID)

	default:
		records, err := xwalk.LookupName(opts.Name, opts.MLBOnly)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return fmt.Errorf("%w: name %q", usecase.ErrNotFound, opts.Name)
		}
		return out.players(view.NewPlayers(records))
	}
}

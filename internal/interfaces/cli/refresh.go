package cli

import (
	"github.com/riskibarqy/statlink/internal/domain/crosswalk"
	"github.com/riskibarqy/statlink/internal/interfaces/view"
	"github.com/spf13/cobra"
)

type refreshOptions struct {
	*RootOptions
	Table      string
	Force      bool
	Invalidate bool
	Output     string
}

func newRefreshCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &refreshOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Download the crosswalk when it is missing or stale",
		Long: `Refresh makes sure the local crosswalk is present and younger than
CROSSWALK_MAX_AGE, downloading the Chadwick register when it is not.
A failed download exits non-zero even when an older local copy exists.
--invalidate deletes the local copy first, so the register is always fetched.

Example:
  statlink refresh --table crosswalk
  statlink refresh --table crosswalk --force
  statlink refresh --table crosswalk --invalidate
  statlink refresh --table crosswalk --output /tmp/people.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRefresh(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Table, "table", "crosswalk", "table to refresh (crosswalk)")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "download even when the local copy is fresh")
	cmd.Flags().BoolVar(&opts.Invalidate, "invalidate", false, "delete the local copy before downloading")
	cmd.Flags().StringVar(&opts.Output, "output", "", "write the snapshot here instead of CROSSWALK_FILE")

	return cmd
}

func runRefresh(cmd *cobra.Command, opts *refreshOptions) error {
	if opts.Table != "crosswalk" {
		return usageErrorf("unknown table %q: only crosswalk can be refreshed", opts.Table)
	}
	if opts.Invalidate && opts.Output != "" {
		return usageErrorf("--invalidate cannot be combined with --output")
	}

	ctx := cmd.Context()
	s, err := opts.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close(ctx)

	if opts.Invalidate {
		if err := s.app.Crosswalk.Invalidate(ctx); err != nil {
			return err
		}
	}

	var table *crosswalk.Table
	switch {
	case opts.Output != "":
		table, err = s.app.Crosswalk.Refresh(ctx, opts.Output)
	case opts.Force:
		table, err = s.app.Crosswalk.ForceRefresh(ctx)
	default:
		table, err = s.app.Crosswalk.EnsureStrict(ctx, s.app.Config.CrosswalkMaxAge)
	}
	if err != nil {
		return err
	}

	return opts.printer().snapshot(view.NewTableSnapshot(table))
}

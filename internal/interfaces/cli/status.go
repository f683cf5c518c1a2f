package cli

import (
	"errors"
	"time"

	"github.com/riskibarqy/statlink/internal/interfaces/view"
	"github.com/riskibarqy/statlink/internal/usecase"
	"github.com/spf13/cobra"
)

func newStatusCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the local crosswalk snapshot and mirror without downloading",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, opts)
		},
	}
}

func runStatus(cmd *cobra.Command, opts *RootOptions) error {
	ctx := cmd.Context()
	s, err := opts.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close(ctx)

	out := view.Status{Resources: []view.Resource{}}
	table, err := s.app.Crosswalk.Load(ctx, "")
	switch {
	case err == nil:
		snap := view.NewTableSnapshot(table)
		out.Crosswalk = &snap
	case errors.Is(err, usecase.ErrNotFound):
	default:
		return err
	}

	info, ok, err := s.app.Crosswalk.MirrorStatus(ctx)
	if err != nil {
		s.logger.Warn("read mirror status failed", "error", err)
	} else if ok {
		snap := view.NewSnapshot(info)
		out.Mirror = &snap
	}

	if st, ok := s.app.Refresh.Status(usecase.ResourceCrosswalk); ok {
		out.Resources = append(out.Resources, view.NewResource(st, s.app.Config.CrosswalkMaxAge, time.Now()))
	}

	return opts.printer().status(out)
}

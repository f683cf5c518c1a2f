// Package cli implements the statlink command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/riskibarqy/statlink/internal/app"
	"github.com/riskibarqy/statlink/internal/config"
	"github.com/riskibarqy/statlink/internal/observability"
	"github.com/riskibarqy/statlink/internal/platform/logging"
	"github.com/spf13/cobra"
)

var validFormats = []string{formatText, formatJSON}

// RootOptions holds global flags and the process streams.
type RootOptions struct {
	Format  string
	Verbose bool

	Stdout io.Writer
	Stderr io.Writer
	// LoadConfig defaults to config.Load.
	LoadConfig func() (config.Config, error)
}

// NewRootCommand builds the statlink command tree.
func NewRootCommand(opts *RootOptions) *cobra.Command {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.LoadConfig == nil {
		opts.LoadConfig = config.Load
	}

	cmd := &cobra.Command{
		Use:   "statlink",
		Short: "Player identity crosswalk and multi-source stat acquisition",
		Long: `statlink keeps a local copy of the Chadwick register, maps player ids between
Statcast, FanGraphs, Baseball-Reference and Retrosheet, and fetches stats from
those providers joined on one canonical player key.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.NoArgs(cmd, args); err != nil {
				return usageErrorf("%v", err)
			}
			return nil
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(validFormats, opts.Format) {
				return usageErrorf("invalid format %q: must be one of %v", opts.Format, validFormats)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.SetOut(opts.Stdout)
	cmd.SetErr(opts.Stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err: err}
	})

	cmd.PersistentFlags().StringVar(&opts.Format, "format", formatText, "output format (text|json)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging on stderr")

	cmd.AddCommand(newRefreshCommand(opts))
	cmd.AddCommand(newLookupCommand(opts))
	cmd.AddCommand(newFetchCommand(opts))
	cmd.AddCommand(newStatusCommand(opts))
	cmd.AddCommand(newServeCommand(opts))

	return cmd
}

// Execute runs the command tree and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts := &RootOptions{Stdout: stdout, Stderr: stderr}
	cmd := NewRootCommand(opts)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
	}
	return ExitCode(err)
}

type session struct {
	app    *app.App
	logger *logging.Logger

	closers []func(context.Context) error
}

// open loads configuration and wires the services. Logs go to stderr so
// stdout stays parseable.
func (o *RootOptions) open(ctx context.Context) (*session, error) {
	cfg, err := o.LoadConfig()
	if err != nil {
		return nil, usageErrorf("load config: %v", err)
	}

	level := cfg.LogLevel
	if o.Verbose {
		level = logging.LevelDebug
	}
	logger := logging.New(o.Stderr, level, cfg.LogFormat).With("service", cfg.ServiceName)
	logging.SetDefault(logger)

	s := &session{logger: logger}
	s.closers = append(s.closers, func(context.Context) error {
		_ = logger.Sync()
		return nil
	})

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	s.closers = append(s.closers, shutdownTracing)

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		s.Close(ctx)
		return nil, err
	}
	s.app = a
	s.closers = append(s.closers, func(context.Context) error { return a.Close() })

	return s, nil
}

// Close runs the registered closers in reverse order.
func (s *session) Close(ctx context.Context) {
	var errs []error
	for _, closeFn := range slices.Backward(s.closers) {
		if err := closeFn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	if err := errors.Join(errs...); err != nil && s.logger != nil {
		s.logger.Warn("shutdown incomplete", "error", err)
	}
}

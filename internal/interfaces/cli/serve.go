package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/riskibarqy/statlink/internal/observability"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the crosswalk and acquisition HTTP API",
		Long: `Serve starts the HTTP API on APP_HTTP_ADDR and, when METRICS_ENABLED is set,
the metrics and pprof server on METRICS_ADDR. It stops on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}
}

func runServe(cmd *cobra.Command, opts *RootOptions) error {
	ctx := cmd.Context()
	s, err := opts.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close(context.Background())

	a := s.app
	logger := s.logger

	stopProfiling, err := observability.InitPyroscope(a.Config, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := stopProfiling(); err != nil {
			logger.Warn("stop profiler failed", "error", err)
		}
	}()

	if st, err := a.Crosswalk.Ensure(ctx, a.Config.CrosswalkMaxAge); err != nil {
		logger.Warn("crosswalk not ready at startup, requests will retry", "error", err)
	} else if st.Stale {
		logger.Warn("serving stale crosswalk at startup", "fetched_at", st.Table.FetchedAt(), "error", st.RefreshErr)
	}

	diagnostics, err := observability.StartDiagnosticsServer(a.Config, a.Metrics, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := observability.StopDiagnosticsServer(diagnostics, logger, shutdownTimeout); err != nil {
			logger.Warn("stop diagnostics server failed", "error", err)
		}
	}()

	srv, err := a.NewHTTPServer()
	if err != nil {
		return err
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("http server stopped")
	return nil
}

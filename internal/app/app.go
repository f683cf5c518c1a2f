package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/riskibarqy/statlink/external/bref"
	"github.com/riskibarqy/statlink/external/chadwick"
	"github.com/riskibarqy/statlink/external/fangraphs"
	"github.com/riskibarqy/statlink/external/providerhttp"
	"github.com/riskibarqy/statlink/external/statcast"
	"github.com/riskibarqy/statlink/internal/config"
	"github.com/riskibarqy/statlink/internal/domain/crosswalk"
	"github.com/riskibarqy/statlink/internal/domain/statrecord"
	cacherepo "github.com/riskibarqy/statlink/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/statlink/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/statlink/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/statlink/internal/infrastructure/snapshotfile"
	"github.com/riskibarqy/statlink/internal/interfaces/httpapi"
	"github.com/riskibarqy/statlink/internal/platform/cache"
	"github.com/riskibarqy/statlink/internal/platform/id"
	"github.com/riskibarqy/statlink/internal/platform/logging"
	"github.com/riskibarqy/statlink/internal/platform/metrics"
	"github.com/riskibarqy/statlink/internal/platform/ratelimit"
	"github.com/riskibarqy/statlink/internal/platform/resilience"
	"github.com/riskibarqy/statlink/internal/platform/robots"
	"github.com/riskibarqy/statlink/internal/usecase"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const robotsTTL = 24 * time.Hour

// App holds the wired services shared by every command.
type App struct {
	Config      config.Config
	Logger      *logging.Logger
	Metrics     *metrics.Manager
	Refresh     *usecase.RefreshManager
	Crosswalk   *usecase.CrosswalkService
	Resolution  *usecase.ResolutionService
	Acquisition *usecase.AcquisitionService

	db *sqlx.DB
}

// New wires providers, storage and services from cfg. The Postgres mirror is
// connected only when CROSSWALK_MIRROR_ENABLED is set; otherwise the mirror
// lives in memory.
func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	m := metrics.NewManager()
	limiter := ratelimit.NewLimiter(0, 1)

	var checker *robots.Checker
	if cfg.BRefRespectRobots {
		checker = robots.NewChecker(
			&http.Client{Timeout: 10 * time.Second, Transport: otelhttp.NewTransport(http.DefaultTransport)},
			cfg.HTTPUserAgent,
			robotsTTL,
			logger,
		)
	}

	newProvider := func(name string, pc config.ProviderConfig, gate *robots.Checker) *providerhttp.Client {
		return providerhttp.NewClient(providerhttp.ClientConfig{
			Name:      name,
			BaseURL:   pc.BaseURL,
			UserAgent: cfg.HTTPUserAgent,
			Timeout:   pc.Timeout,
			Retry: resilience.RetryPolicy{
				MaxAttempts: pc.MaxAttempts,
				BaseDelay:   pc.BackoffBase,
				MaxDelay:    pc.BackoffMax,
			},
			RateLimit: pc.RateLimit,
			RateBurst: pc.RateBurst,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          pc.CircuitEnabled,
				FailureThreshold: pc.CircuitFailureCount,
				OpenTimeout:      pc.CircuitOpenTimeout,
				HalfOpenMaxReq:   pc.CircuitHalfOpenMaxReq,
			},
			Limiter: limiter,
			Robots:  gate,
			Metrics: m,
			Logger:  logger,
		})
	}

	register := chadwick.NewClient(chadwick.ClientConfig{
		HTTP:        newProvider("chadwick", cfg.Chadwick, nil),
		BaseURL:     cfg.Chadwick.BaseURL,
		URLs:        cfg.CrosswalkUpstreamURLs,
		Concurrency: cfg.Chadwick.Concurrency,
		Logger:      logger,
	})
	connectors := []statrecord.Connector{
		statcast.NewClient(statcast.ClientConfig{
			HTTP:        newProvider(string(crosswalk.ProviderStatcast), cfg.Statcast, nil),
			Concurrency: cfg.Statcast.Concurrency,
			Logger:      logger,
		}),
		fangraphs.NewClient(fangraphs.ClientConfig{
			HTTP:   newProvider(string(crosswalk.ProviderFanGraphs), cfg.FanGraphs, nil),
			Logger: logger,
		}),
		bref.NewClient(bref.ClientConfig{
			HTTP:   newProvider(string(crosswalk.ProviderBRef), cfg.BRef, checker),
			Logger: logger,
		}),
	}

	a := &App{Config: cfg, Logger: logger, Metrics: m}

	mirror, err := a.newMirror(ctx)
	if err != nil {
		return nil, err
	}

	a.Refresh = usecase.NewRefreshManager(usecase.RefreshManagerConfig{Metrics: m, Logger: logger})
	a.Crosswalk, err = usecase.NewCrosswalkService(usecase.CrosswalkServiceConfig{
		Path:    cfg.CrosswalkFile,
		Fetcher: register,
		Files:   snapshotfile.NewStore(logger),
		Mirror:  mirror,
		Refresh: a.Refresh,
		Metrics: m,
		Logger:  logger,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("build crosswalk service: %w", err), a.Close())
	}

	a.Resolution = usecase.NewResolutionService(m, logger)
	a.Acquisition, err = usecase.NewAcquisitionService(usecase.AcquisitionServiceConfig{
		Connectors:     connectors,
		Crosswalk:      a.Crosswalk,
		Resolution:     a.Resolution,
		Refresh:        a.Refresh,
		Datasets:       cache.NewStore(cfg.DatasetMaxAge * 2),
		IDs:            id.NewUUIDGenerator(),
		MaxConcurrency: cfg.FetchMaxConcurrency,
		CrosswalkAge:   cfg.CrosswalkMaxAge,
		DatasetAge:     cfg.DatasetMaxAge,
		Metrics:        m,
		Logger:         logger,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("build acquisition service: %w", err), a.Close())
	}

	return a, nil
}

// NewHTTPServer builds the API server for the serve command.
func (a *App) NewHTTPServer() (*http.Server, error) {
	handler := httpapi.NewHandler(httpapi.HandlerConfig{
		Crosswalk:    a.Crosswalk,
		Acquisition:  a.Acquisition,
		Refresh:      a.Refresh,
		CrosswalkAge: a.Config.CrosswalkMaxAge,
		DatasetAge:   a.Config.DatasetMaxAge,
		Logger:       a.Logger,
	})
	router := httpapi.NewRouter(handler, a.Logger, a.Config.CORSAllowedOrigins, a.Config.AdminToken)

	server := &http.Server{
		Addr:         a.Config.HTTPAddr,
		Handler:      router,
		ReadTimeout:  a.Config.HTTPReadTimeout,
		WriteTimeout: a.Config.HTTPWriteTimeout,
	}

	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, nil
}

// Close releases the database pool, if one was opened.
func (a *App) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

func (a *App) newMirror(ctx context.Context) (crosswalk.Mirror, error) {
	if !a.Config.CrosswalkMirrorEnabled {
		return memory.NewCrosswalkRepository(), nil
	}

	db, err := openDB(ctx, a.Config)
	if err != nil {
		return nil, err
	}
	a.db = db
	a.Logger.Info("crosswalk mirror connected", "db", dbNameFromURL(a.Config.DBURL))

	repo := postgres.NewCrosswalkRepository(db, id.NewUUIDGenerator())
	return cacherepo.NewCrosswalkRepository(repo, cache.NewStore(a.Config.CacheTTL)), nil
}

func openDB(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	db, err := otelsqlx.Open("postgres", DatabaseURL(cfg),
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/statlink/internal/domain/crosswalk"
	"github.com/riskibarqy/statlink/internal/domain/statrecord"
	"github.com/riskibarqy/statlink/internal/platform/cache"
	"github.com/riskibarqy/statlink/internal/platform/id"
	"github.com/riskibarqy/statlink/internal/platform/logging"
	"github.com/riskibarqy/statlink/internal/platform/metrics"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultFetchConcurrency = 3
	datasetPrefix           = "dataset:"
)

type AcquisitionRequest struct {
	Providers []crosswalk.Provider
	Query     statrecord.Query
	// MaxAge overrides the configured dataset max age when positive.
	MaxAge time.Duration
}

// DatasetStatus describes the data one provider contributed.
type DatasetStatus struct {
	Provider  crosswalk.Provider
	Records   int
	FetchedAt time.Time
	// Stale is set when a refresh failed and older cached data was used.
	Stale     bool
	LastError error
}

type AcquisitionResult struct {
	RunID     string
	Join      JoinResult
	Datasets  []DatasetStatus
	Crosswalk crosswalk.SnapshotInfo
	// CrosswalkStale is set when the crosswalk refresh failed and an older
	// table resolved the records; CrosswalkError holds that failure.
	CrosswalkStale bool
	CrosswalkError error
}

type AcquisitionServiceConfig struct {
	Connectors     []statrecord.Connector
	Crosswalk      *CrosswalkService
	Resolution     *ResolutionService
	Refresh        *RefreshManager
	Datasets       *cache.Store
	IDs            id.Generator
	MaxConcurrency int
	CrosswalkAge   time.Duration
	DatasetAge     time.Duration
	Metrics        *metrics.Manager
	Logger         *logging.Logger
	Now            func() time.Time
}

// AcquisitionService fetches a query from several providers in parallel,
// caches each provider's dataset and joins the results on canonical keys.
type AcquisitionService struct {
	connectors     map[crosswalk.Provider]statrecord.Connector
	crosswalk      *CrosswalkService
	resolution     *ResolutionService
	refresh        *RefreshManager
	datasets       *cache.Store
	ids            id.Generator
	maxConcurrency int
	crosswalkAge   time.Duration
	datasetAge     time.Duration
	metrics        *metrics.Manager
	logger         *logging.Logger
	now            func() time.Time
}

type dataset struct {
	records   []statrecord.Record
	fetchedAt time.Time
}

func NewAcquisitionService(cfg AcquisitionServiceConfig) (*AcquisitionService, error) {
	if cfg.Crosswalk == nil || cfg.Resolution == nil || cfg.Refresh == nil {
		return nil, fmt.Errorf("%w: crosswalk, resolution and refresh services are required", ErrInvalidInput)
	}
	if cfg.CrosswalkAge <= 0 || cfg.DatasetAge <= 0 {
		return nil, fmt.Errorf("%w: max ages must be positive", ErrInvalidInput)
	}
	if cfg.Datasets == nil {
		cfg.Datasets = cache.NewStore(0)
	}
	if cfg.IDs == nil {
		cfg.IDs = id.NewUUIDGenerator()
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = defaultFetchConcurrency
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	connectors := make(map[crosswalk.Provider]statrecord.Connector, len(cfg.Connectors))
	for _, c := range cfg.Connectors {
		if c == nil {
			continue
		}
		connectors[c.Provider()] = c
	}

	return &AcquisitionService{
		connectors:     connectors,
		crosswalk:      cfg.Crosswalk,
		resolution:     cfg.Resolution,
		refresh:        cfg.Refresh,
		datasets:       cfg.Datasets,
		ids:            cfg.IDs,
		maxConcurrency: cfg.MaxConcurrency,
		crosswalkAge:   cfg.CrosswalkAge,
		datasetAge:     cfg.DatasetAge,
		metrics:        cfg.Metrics,
		logger:         cfg.Logger,
		now:            cfg.Now,
	}, nil
}

// Providers lists the providers with a registered connector.
func (s *AcquisitionService) Providers() []crosswalk.Provider {
	return sortedProviders(s.connectors)
}

// Acquire ensures a usable crosswalk, fetches every requested provider in
// parallel and joins the resolved records. A provider that fails with no
// cached data fails the call; one with older cached data is served stale.
func (s *AcquisitionService) Acquire(ctx context.Context, req AcquisitionRequest) (_ AcquisitionResult, err error) {
	if len(req.Providers) == 0 {
		return AcquisitionResult{}, fmt.Errorf("%w: at least one provider is required", ErrInvalidInput)
	}
	for _, p := range req.Providers {
		if _, ok := s.connectors[p]; !ok {
			return AcquisitionResult{}, fmt.Errorf("%w: no connector for provider %q", ErrInvalidInput, p)
		}
	}
	if err := req.Query.Validate(); err != nil {
		return AcquisitionResult{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	maxAge := s.datasetAge
	if req.MaxAge > 0 {
		maxAge = req.MaxAge
	}

	runID, err := s.ids.NewID()
	if err != nil {
		return AcquisitionResult{}, err
	}
	ctx, span := startUsecaseSpan(ctx, "usecase.AcquisitionService.Acquire",
		attribute.String("run_id", runID),
		attribute.String("query", req.Query.Key()),
	)
	defer func() { endUsecaseSpan(span, err) }()
	logger := s.logger.With("run_id", runID)

	xwalk, err := s.crosswalk.Ensure(ctx, s.crosswalkAge)
	if err != nil {
		return AcquisitionResult{}, fmt.Errorf("ensure crosswalk: %w", err)
	}
	table := xwalk.Table

	providers := dedupeProviders(req.Providers)
	statuses := make([]DatasetStatus, len(providers))
	data := make([]dataset, len(providers))
	errs := make([]error, len(providers))

	pool, err := ants.NewPool(min(s.maxConcurrency, len(providers)))
	if err != nil {
		return AcquisitionResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for i, p := range providers {
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			data[i], statuses[i], errs[i] = s.dataset(ctx, logger, p, req.Query, maxAge)
		}); err != nil {
			workers.Done()
			return AcquisitionResult{}, fmt.Errorf("submit task to worker pool: %w", err)
		}
	}
	workers.Wait()

	if err := errors.Join(errs...); err != nil {
		return AcquisitionResult{}, err
	}

	sources := make(map[crosswalk.Provider][]statrecord.Resolved, len(providers))
	for i, p := range providers {
		resolved, err := s.resolution.Resolve(ctx, statrecord.FromSlice(data[i].records), table)
		if err != nil {
			return AcquisitionResult{}, err
		}
		sources[p] = resolved
	}

	result := AcquisitionResult{
		RunID:          runID,
		Join:           s.resolution.Join(sources, table),
		Datasets:       statuses,
		Crosswalk:      xwalk.Info(),
		CrosswalkStale: xwalk.Stale,
		CrosswalkError: xwalk.RefreshErr,
	}
	logger.InfoContext(ctx, "acquisition finished",
		"providers", len(providers),
		"players", len(result.Join.Players),
		"unresolved", len(result.Join.Unresolved),
	)
	return result, nil
}

// InvalidateDatasets drops every cached dataset and its refresh
// registration.
func (s *AcquisitionService) InvalidateDatasets(ctx context.Context) {
	s.datasets.DeletePrefix(ctx, datasetPrefix)
	dropped := s.refresh.UnregisterPrefix(datasetPrefix)
	s.logger.InfoContext(ctx, "datasets invalidated", "resources", dropped)
}

func (s *AcquisitionService) dataset(ctx context.Context, logger *logging.Logger, p crosswalk.Provider, q statrecord.Query, maxAge time.Duration) (dataset, DatasetStatus, error) {
	key := datasetKey(p, q)
	connector := s.connectors[p]
	s.refresh.RegisterIfAbsent(key, func(ctx context.Context) error {
		records, err := statrecord.Collect(connector.Fetch(ctx, q))
		if err != nil {
			return err
		}
		s.datasets.Set(ctx, key, dataset{records: records, fetchedAt: s.now()})
		s.metrics.SetDatasetRecords(string(p), len(records))
		return nil
	})

	status := DatasetStatus{Provider: p}
	_, refreshErr := s.refresh.EnsureFresh(ctx, key, maxAge)

	cached, ok := s.datasets.Get(ctx, key)
	if refreshErr == nil && !ok {
		// Fresh by timestamp but the cached value was invalidated.
		refreshErr = s.refresh.Refresh(ctx, key)
		cached, ok = s.datasets.Get(ctx, key)
	}
	value, _ := cached.(dataset)
	if refreshErr != nil {
		if !ok || errors.Is(refreshErr, context.Canceled) || errors.Is(refreshErr, context.DeadlineExceeded) {
			return dataset{}, status, fmt.Errorf("fetch %s: %w", p, refreshErr)
		}
		status.Stale = true
		status.LastError = refreshErr
		logger.WarnContext(ctx, "provider refresh failed, serving cached dataset",
			"provider", p, "fetched_at", value.fetchedAt, "error", refreshErr)
	}

	status.Records = len(value.records)
	status.FetchedAt = value.fetchedAt
	return value, status, nil
}

func datasetKey(p crosswalk.Provider, q statrecord.Query) string {
	return datasetPrefix + string(p) + ":" + q.Key()
}

func dedupeProviders(in []crosswalk.Provider) []crosswalk.Provider {
	seen := make(map[crosswalk.Provider]struct{}, len(in))
	out := make([]crosswalk.Provider, 0, len(in))
	for _, p := range in {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

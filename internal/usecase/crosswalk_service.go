package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/riskibarqy/statlink/internal/domain/crosswalk"
	"github.com/riskibarqy/statlink/internal/platform/logging"
	"github.com/riskibarqy/statlink/internal/platform/metrics"
	"go.opentelemetry.io/otel/attribute"
)

// ResourceCrosswalk is the refresh manager resource for the crosswalk table.
const ResourceCrosswalk = "crosswalk"

// CrosswalkFetcher downloads a complete upstream snapshot.
type CrosswalkFetcher interface {
	FetchTable(ctx context.Context) (*crosswalk.Table, error)
	Source() string
}

// CrosswalkFiles persists snapshots.
type CrosswalkFiles interface {
	Load(ctx context.Context, path string) (*crosswalk.Table, error)
	Save(ctx context.Context, path string, table *crosswalk.Table) error
	Remove(path string) error
}

type CrosswalkServiceConfig struct {
	// Path is the snapshot file used when Load or Refresh get no path.
	Path    string
	Fetcher CrosswalkFetcher
	Files   CrosswalkFiles
	// Mirror is optional. Mirror failures are logged and never fail a refresh.
	Mirror  crosswalk.Mirror
	Refresh *RefreshManager
	Metrics *metrics.Manager
	Logger  *logging.Logger
}

// CrosswalkService owns the active crosswalk snapshot. Readers always see a
// complete table: a refresh builds and validates a new one before swapping it
// in, and a failed refresh keeps the old one.
type CrosswalkService struct {
	current atomic.Pointer[crosswalk.Table]

	path    string
	fetcher CrosswalkFetcher
	files   CrosswalkFiles
	mirror  crosswalk.Mirror
	refresh *RefreshManager
	metrics *metrics.Manager
	logger  *logging.Logger
}

func NewCrosswalkService(cfg CrosswalkServiceConfig) (*CrosswalkService, error) {
	if cfg.Fetcher == nil || cfg.Files == nil {
		return nil, fmt.Errorf("%w: crosswalk fetcher and file store are required", ErrInvalidInput)
	}
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, fmt.Errorf("%w: crosswalk path is required", ErrInvalidInput)
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Refresh == nil {
		cfg.Refresh = NewRefreshManager(RefreshManagerConfig{Metrics: cfg.Metrics, Logger: cfg.Logger})
	}

	s := &CrosswalkService{
		path:    cfg.Path,
		fetcher: cfg.Fetcher,
		files:   cfg.Files,
		mirror:  cfg.Mirror,
		refresh: cfg.Refresh,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
	}
	if err := s.refresh.Register(ResourceCrosswalk, func(ctx context.Context) error {
		_, err := s.Refresh(ctx, "")
		return err
	}); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *CrosswalkService) Path() string {
	return s.path
}

// Snapshot returns the active table, if any.
func (s *CrosswalkService) Snapshot() (*crosswalk.Table, bool) {
	t := s.current.Load()
	return t, t != nil
}

// Load reads a persisted snapshot and makes it active. An empty path means
// the configured one.
func (s *CrosswalkService) Load(ctx context.Context, path string) (*crosswalk.Table, error) {
	if path == "" {
		path = s.path
	}
	table, err := s.files.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	s.swap(table)
	s.refresh.Touch(ResourceCrosswalk, table.FetchedAt())
	return table, nil
}

// Refresh downloads, validates and persists a new snapshot, then makes it
// active. destination defaults to the configured path. On failure the
// previous table stays active and the previous file stays on disk.
func (s *CrosswalkService) Refresh(ctx context.Context, destination string) (_ *crosswalk.Table, err error) {
	if destination == "" {
		destination = s.path
	}
	ctx, span := startUsecaseSpan(ctx, "usecase.CrosswalkService.Refresh", attribute.String("destination", destination))
	defer func() { endUsecaseSpan(span, err) }()

	table, err := s.fetcher.FetchTable(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.files.Save(ctx, destination, table); err != nil {
		return nil, fmt.Errorf("persist crosswalk to %s: %w", destination, err)
	}

	s.swap(table)
	s.refresh.Touch(ResourceCrosswalk, table.FetchedAt())
	s.logger.InfoContext(ctx, "crosswalk refreshed", "source", table.Source(), "rows", table.Len(), "path", destination)
	s.mirrorTable(ctx, table)
	return table, nil
}

// ForceRefresh refreshes the configured file through the refresh manager, so
// it joins any refresh already running.
func (s *CrosswalkService) ForceRefresh(ctx context.Context) (*crosswalk.Table, error) {
	if err := s.refresh.Refresh(ctx, ResourceCrosswalk); err != nil {
		return nil, err
	}
	table, ok := s.Snapshot()
	if !ok {
		return nil, fmt.Errorf("%w: crosswalk snapshot", ErrNotFound)
	}
	return table, nil
}

// CrosswalkState is the table Ensure settled on.
type CrosswalkState struct {
	Table *crosswalk.Table
	// Stale is set when a refresh failed and an older table is served.
	Stale bool
	// RefreshErr is the failed refresh behind Stale.
	RefreshErr error
}

// Info summarises the table for status output.
func (st CrosswalkState) Info() crosswalk.SnapshotInfo {
	if st.Table == nil {
		return crosswalk.SnapshotInfo{}
	}
	return crosswalk.SnapshotInfo{Source: st.Table.Source(), FetchedAt: st.Table.FetchedAt(), Rows: st.Table.Len()}
}

// Ensure returns an active table no older than maxAge. It loads the
// persisted file first and downloads when the file is missing, corrupt or
// stale. A failed download falls back to an older table when one exists and
// marks the state stale; read paths can keep answering from it.
func (s *CrosswalkService) Ensure(ctx context.Context, maxAge time.Duration) (CrosswalkState, error) {
	if _, ok := s.Snapshot(); !ok {
		if _, err := s.Load(ctx, ""); err != nil {
			switch {
			case errors.Is(err, ErrNotFound):
				s.logger.InfoContext(ctx, "no crosswalk file, downloading", "path", s.path)
			case errors.Is(err, ErrCorruptData):
				s.logger.WarnContext(ctx, "crosswalk file unreadable, downloading", "path", s.path, "error", err)
			default:
				return CrosswalkState{}, err
			}
		}
	}

	if _, err := s.refresh.EnsureFresh(ctx, ResourceCrosswalk, maxAge); err != nil {
		table, ok := s.Snapshot()
		if !ok || errors.Is(err, ErrInvalidInput) {
			return CrosswalkState{}, err
		}
		s.logger.WarnContext(ctx, "crosswalk refresh failed, serving stale snapshot",
			"fetched_at", table.FetchedAt(), "error", err)
		return CrosswalkState{Table: table, Stale: true, RefreshErr: err}, nil
	}

	table, ok := s.Snapshot()
	if !ok {
		return CrosswalkState{}, fmt.Errorf("%w: crosswalk snapshot", ErrNotFound)
	}
	return CrosswalkState{Table: table}, nil
}

// EnsureStrict is Ensure without the stale fallback: a failed download is
// returned even when an older table is available.
func (s *CrosswalkService) EnsureStrict(ctx context.Context, maxAge time.Duration) (*crosswalk.Table, error) {
	st, err := s.Ensure(ctx, maxAge)
	if err != nil {
		return nil, err
	}
	if st.Stale {
		return nil, st.RefreshErr
	}
	return st.Table, nil
}

// Invalidate drops the active table, deletes the persisted file and clears
// the refresh timestamp so the next Ensure downloads again.
func (s *CrosswalkService) Invalidate(ctx context.Context) error {
	s.current.Store(nil)
	s.metrics.SetCrosswalkRows(0)
	s.refresh.Forget(ResourceCrosswalk)
	if err := s.files.Remove(s.path); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "crosswalk invalidated", "path", s.path)
	return nil
}

func (s *CrosswalkService) Lookup(p crosswalk.Provider, nativeID string) (crosswalk.CanonicalKey, bool, error) {
	table, err := s.table(p)
	if err != nil {
		return "", false, err
	}
	key, ok := table.Lookup(p, nativeID)
	return key, ok, nil
}

func (s *CrosswalkService) ReverseLookup(key crosswalk.CanonicalKey, p crosswalk.Provider) (string, bool, error) {
	table, err := s.table(p)
	if err != nil {
		return "", false, err
	}
	nativeID, ok := table.ReverseLookup(key, p)
	return nativeID, ok, nil
}

func (s *CrosswalkService) NativeIDs(key crosswalk.CanonicalKey, p crosswalk.Provider) ([]string, error) {
	table, err := s.table(p)
	if err != nil {
		return nil, err
	}
	return table.NativeIDs(key, p), nil
}

// Player returns the crosswalk row for key.
func (s *CrosswalkService) Player(key crosswalk.CanonicalKey) (crosswalk.Record, error) {
	table, err := s.table("")
	if err != nil {
		return crosswalk.Record{}, err
	}
	rec, ok := table.Record(key)
	if !ok {
		return crosswalk.Record{}, fmt.Errorf("%w: player %q", ErrNotFound, key)
	}
	return rec, nil
}

// LookupAny finds players holding nativeID in any provider.
func (s *CrosswalkService) LookupAny(nativeID string, mlbOnly bool) ([]crosswalk.Record, error) {
	if strings.TrimSpace(nativeID) == "" {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	table, err := s.table("")
	if err != nil {
		return nil, err
	}
	return filterMLB(table.LookupAny(nativeID), mlbOnly), nil
}

// LookupName matches full, first or last names case-insensitively.
func (s *CrosswalkService) LookupName(name string, mlbOnly bool) ([]crosswalk.Record, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	table, err := s.table("")
	if err != nil {
		return nil, err
	}
	return filterMLB(table.FindByName(name), mlbOnly), nil
}

// NameForID returns the full name of the first player holding nativeID.
func (s *CrosswalkService) NameForID(nativeID string, mlbOnly bool) (string, error) {
	matches, err := s.LookupAny(nativeID, mlbOnly)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: id %q", ErrNotFound, nativeID)
	}
	return matches[0].FullName(), nil
}

// IDForName returns the provider id of the player called name. When several
// players share the name, debutYear selects by first MLB season; without it
// the most recent debut wins.
func (s *CrosswalkService) IDForName(name string, p crosswalk.Provider, debutYear int, mlbOnly bool) (string, error) {
	if !p.Valid() {
		return "", fmt.Errorf("%w: unknown provider %q", ErrInvalidInput, p)
	}
	matches, err := s.LookupName(name, mlbOnly)
	if err != nil {
		return "", err
	}

	if len(matches) > 1 {
		if debutYear > 0 {
			matches = slices.DeleteFunc(matches, func(r crosswalk.Record) bool { return r.MLBFirst != debutYear })
		} else {
			latest := slices.MaxFunc(matches, func(a, b crosswalk.Record) int { return a.MLBFirst - b.MLBFirst })
			matches = []crosswalk.Record{latest}
		}
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: name %q", ErrNotFound, name)
	}

	nativeID, ok := matches[0].PrimaryID(p)
	if !ok {
		return "", fmt.Errorf("%w: %s has no %s id", ErrNotFound, matches[0].FullName(), p)
	}
	return nativeID, nil
}

// MirrorStatus reports the snapshot held by the mirror, if one is configured.
func (s *CrosswalkService) MirrorStatus(ctx context.Context) (crosswalk.SnapshotInfo, bool, error) {
	if s.mirror == nil {
		return crosswalk.SnapshotInfo{}, false, nil
	}
	return s.mirror.Latest(ctx)
}

func (s *CrosswalkService) table(p crosswalk.Provider) (*crosswalk.Table, error) {
	if p != "" && !p.Valid() {
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidInput, p)
	}
	table, ok := s.Snapshot()
	if !ok {
		return nil, fmt.Errorf("%w: crosswalk not loaded", ErrNotFound)
	}
	return table, nil
}

func (s *CrosswalkService) swap(table *crosswalk.Table) {
	s.current.Store(table)
	s.metrics.SetCrosswalkRows(table.Len())
}

func (s *CrosswalkService) mirrorTable(ctx context.Context, table *crosswalk.Table) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.Replace(ctx, table); err != nil {
		s.logger.WarnContext(ctx, "crosswalk mirror failed", "rows", table.Len(), "error", err)
		return
	}
	s.logger.DebugContext(ctx, "crosswalk mirrored", "rows", table.Len())
}

func filterMLB(records []crosswalk.Record, mlbOnly bool) []crosswalk.Record {
	if !mlbOnly {
		return records
	}
	return slices.DeleteFunc(records, func(r crosswalk.Record) bool { return !r.PlayedMLB() })
}

package usecase

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/riskibarqy/statlink/internal/platform/logging"
	"github.com/riskibarqy/statlink/internal/platform/metrics"
	"github.com/riskibarqy/statlink/internal/platform/resilience"
	"go.opentelemetry.io/otel/attribute"
)

// RefreshFunc rebuilds one resource. It must leave the previous value in
// place when it fails.
type RefreshFunc func(ctx context.Context) error

type ResourceStatus struct {
	Resource      string
	RefreshedAt   time.Time
	LastAttemptAt time.Time
	LastError     error
	Refreshing    bool
}

// Stale reports whether the resource is older than maxAge at now, or has
// never been refreshed.
func (s ResourceStatus) Stale(maxAge time.Duration, now time.Time) bool {
	if s.RefreshedAt.IsZero() {
		return true
	}
	return now.Sub(s.RefreshedAt) > maxAge
}

type resourceState struct {
	refresh       RefreshFunc
	refreshedAt   time.Time
	lastAttemptAt time.Time
	lastErr       error
}

type RefreshManagerConfig struct {
	Metrics *metrics.Manager
	Logger  *logging.Logger
	Now     func() time.Time
}

// RefreshManager tracks when each resource was last refreshed and runs at
// most one refresh per resource at a time. Callers that arrive while a
// refresh is running wait for it and share its outcome.
type RefreshManager struct {
	mu        sync.RWMutex
	resources map[string]*resourceState
	flight    resilience.SingleFlight

	metrics *metrics.Manager
	logger  *logging.Logger
	now     func() time.Time
}

func NewRefreshManager(cfg RefreshManagerConfig) *RefreshManager {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &RefreshManager{
		resources: make(map[string]*resourceState),
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
		now:       cfg.Now,
	}
}

// Register adds a resource. Registering the same name twice is an error.
func (m *RefreshManager) Register(resource string, fn RefreshFunc) error {
	resource = strings.TrimSpace(resource)
	if resource == "" || fn == nil {
		return fmt.Errorf("%w: resource name and refresh func are required", ErrInvalidInput)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.resources[resource]; exists {
		return fmt.Errorf("%w: resource %q already registered", ErrInvalidInput, resource)
	}
	m.resources[resource] = &resourceState{refresh: fn}
	return nil
}

// RegisterIfAbsent registers fn unless resource is already known and
// reports whether it did.
func (m *RefreshManager) RegisterIfAbsent(resource string, fn RefreshFunc) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.resources[resource]; exists || fn == nil {
		return false
	}
	m.resources[resource] = &resourceState{refresh: fn}
	return true
}

// Touch records that resource was refreshed at at, e.g. after loading it
// from a file whose age is known. Older timestamps never overwrite newer ones.
func (m *RefreshManager) Touch(resource string, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.resources[resource]
	if !ok {
		return
	}
	if at.After(st.refreshedAt) {
		st.refreshedAt = at
	}
}

// Forget clears the refresh timestamp of resource so the next EnsureFresh
// refreshes it regardless of max age. The registration is kept.
func (m *RefreshManager) Forget(resource string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.resources[resource]; ok {
		st.refreshedAt = time.Time{}
	}
}

// UnregisterPrefix drops every resource whose name starts with prefix and
// returns how many were dropped. Resources with a refresh in flight stay.
func (m *RefreshManager) UnregisterPrefix(prefix string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	dropped := 0
	for name := range m.resources {
		if !strings.HasPrefix(name, prefix) || m.flight.InFlight(name) {
			continue
		}
		delete(m.resources, name)
		dropped++
	}
	return dropped
}

// EnsureFresh refreshes resource when it is older than maxAge and reports
// whether this call caused or shared a refresh.
func (m *RefreshManager) EnsureFresh(ctx context.Context, resource string, maxAge time.Duration) (bool, error) {
	if maxAge <= 0 {
		return false, fmt.Errorf("%w: max age must be positive, got %s", ErrInvalidInput, maxAge)
	}
	return m.run(ctx, resource, maxAge, false)
}

// Refresh forces a refresh of resource.
func (m *RefreshManager) Refresh(ctx context.Context, resource string) error {
	_, err := m.run(ctx, resource, 0, true)
	return err
}

func (m *RefreshManager) IsStale(resource string, maxAge time.Duration) bool {
	status, ok := m.Status(resource)
	if !ok {
		return true
	}
	return status.Stale(maxAge, m.now())
}

func (m *RefreshManager) Status(resource string) (ResourceStatus, bool) {
	m.mu.RLock()
	st, ok := m.resources[resource]
	if !ok {
		m.mu.RUnlock()
		return ResourceStatus{}, false
	}
	status := ResourceStatus{
		Resource:      resource,
		RefreshedAt:   st.refreshedAt,
		LastAttemptAt: st.lastAttemptAt,
		LastError:     st.lastErr,
	}
	m.mu.RUnlock()

	status.Refreshing = m.flight.InFlight(resource)
	return status, true
}

// Resources lists registered resource names in sorted order.
func (m *RefreshManager) Resources() []string {
	m.mu.RLock()
	out := make([]string, 0, len(m.resources))
	for name := range m.resources {
		out = append(out, name)
	}
	m.mu.RUnlock()
	slices.Sort(out)
	return out
}

type flightOutcome struct {
	refreshed bool
	err       error
}

// run joins or starts the flight for resource. The refresh runs with the
// context of the caller that started it; every caller stops waiting when its
// own context ends.
func (m *RefreshManager) run(ctx context.Context, resource string, maxAge time.Duration, force bool) (bool, error) {
	m.mu.RLock()
	st, ok := m.resources[resource]
	stale := ok && (force || m.isStaleLocked(st, maxAge))
	m.mu.RUnlock()
	if !ok {
		return false, fmt.Errorf("%w: refresh resource %q", ErrNotFound, resource)
	}
	if !stale {
		return false, nil
	}

	done := make(chan flightOutcome, 1)
	go func() {
		v, err, _ := m.flight.Do(resource, func() (any, error) {
			return m.refreshIfStale(ctx, resource, st, maxAge, force)
		})
		refreshed, _ := v.(bool)
		done <- flightOutcome{refreshed: refreshed, err: err}
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case out := <-done:
		if out.err != nil {
			return false, out.err
		}
		return out.refreshed, nil
	}
}

func (m *RefreshManager) refreshIfStale(ctx context.Context, resource string, st *resourceState, maxAge time.Duration, force bool) (bool, error) {
	// A flight that finished just before this one started may already
	// have refreshed the resource.
	m.mu.RLock()
	stale := force || m.isStaleLocked(st, maxAge)
	m.mu.RUnlock()
	if !stale {
		return false, nil
	}

	ctx, span := startUsecaseSpan(ctx, "usecase.RefreshManager.refresh", attribute.String("resource", resource))
	start := m.now()
	err := st.refresh(ctx)
	elapsed := m.now().Sub(start)
	endUsecaseSpan(span, err)

	m.mu.Lock()
	st.lastAttemptAt = start
	st.lastErr = err
	if err == nil {
		st.refreshedAt = m.now()
	}
	m.mu.Unlock()

	if err != nil {
		m.metrics.ObserveRefresh(resource, "error", elapsed)
		m.logger.WarnContext(ctx, "refresh failed, keeping previous value", "resource", resource, "elapsed", elapsed, "error", err)
		return false, err
	}
	m.metrics.ObserveRefresh(resource, "success", elapsed)
	m.logger.InfoContext(ctx, "resource refreshed", "resource", resource, "elapsed", elapsed)
	return true, nil
}

func (m *RefreshManager) isStaleLocked(st *resourceState, maxAge time.Duration) bool {
	if st.refreshedAt.IsZero() {
		return true
	}
	return m.now().Sub(st.refreshedAt) > maxAge
}

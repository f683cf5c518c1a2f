package memory

import (
	"context"
	"sync"
	"time"

	"github.com/riskibarqy/statlink/internal/domain/crosswalk"
)

// CrosswalkRepository is the mirror used when no database is configured.
type CrosswalkRepository struct {
	mu    sync.RWMutex
	table *crosswalk.Table
	info  crosswalk.SnapshotInfo
	now   func() time.Time
}

func NewCrosswalkRepository() *CrosswalkRepository {
	return &CrosswalkRepository{now: time.Now}
}

func (r *CrosswalkRepository) Replace(_ context.Context, table *crosswalk.Table) error {
	if table == nil || table.Len() == 0 {
		return crosswalk.ErrEmptyTable
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.table = table
	r.info = crosswalk.SnapshotInfo{
		Source:     table.Source(),
		FetchedAt:  table.FetchedAt(),
		Rows:       table.Len(),
		MirroredAt: r.now().UTC(),
	}
	return nil
}

func (r *CrosswalkRepository) Latest(_ context.Context) (crosswalk.SnapshotInfo, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.table == nil {
		return crosswalk.SnapshotInfo{}, false, nil
	}
	return r.info, true, nil
}

func (r *CrosswalkRepository) Lookup(_ context.Context, p crosswalk.Provider, nativeID string) (crosswalk.CanonicalKey, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.table == nil {
		return "", false, nil
	}
	key, ok := r.table.Lookup(p, nativeID)
	return key, ok, nil
}

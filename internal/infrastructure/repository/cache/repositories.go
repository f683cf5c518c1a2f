package cache

import (
	"context"

	"github.com/riskibarqy/statlink/internal/domain/crosswalk"
	basecache "github.com/riskibarqy/statlink/internal/platform/cache"
)

const crosswalkLookupPrefix = "crosswalk:lookup:"

// CrosswalkRepository caches mirror lookups, including misses, until the
// next Replace.
type CrosswalkRepository struct {
	next  crosswalk.Mirror
	cache *basecache.Store
}

func NewCrosswalkRepository(next crosswalk.Mirror, cache *basecache.Store) *CrosswalkRepository {
	return &CrosswalkRepository{next: next, cache: cache}
}

func (r *CrosswalkRepository) Replace(ctx context.Context, table *crosswalk.Table) error {
	if err := r.next.Replace(ctx, table); err != nil {
		return err
	}
	r.cache.DeletePrefix(ctx, "crosswalk:")
	return nil
}

func (r *CrosswalkRepository) Latest(ctx context.Context) (crosswalk.SnapshotInfo, bool, error) {
	v, err := r.cache.GetOrLoad(ctx, "crosswalk:latest", func(ctx context.Context) (any, error) {
		info, exists, err := r.next.Latest(ctx)
		if err != nil {
			return nil, err
		}
		return cachedSnapshotInfo{value: info, exists: exists}, nil
	})
	if err != nil {
		return crosswalk.SnapshotInfo{}, false, err
	}

	cached, _ := v.(cachedSnapshotInfo)
	return cached.value, cached.exists, nil
}

func (r *CrosswalkRepository) Lookup(ctx context.Context, p crosswalk.Provider, nativeID string) (crosswalk.CanonicalKey, bool, error) {
	key := crosswalkLookupPrefix + string(p) + ":" + nativeID
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		canonical, exists, err := r.next.Lookup(ctx, p, nativeID)
		if err != nil {
			return nil, err
		}
		return cachedLookup{value: canonical, exists: exists}, nil
	})
	if err != nil {
		return "", false, err
	}

	cached, _ := v.(cachedLookup)
	return cached.value, cached.exists, nil
}

type cachedSnapshotInfo struct {
	value  crosswalk.SnapshotInfo
	exists bool
}

type cachedLookup struct {
	value  crosswalk.CanonicalKey
	exists bool
}

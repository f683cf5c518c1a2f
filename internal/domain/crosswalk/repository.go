package crosswalk

import (
	"context"
	"time"
)

// SnapshotInfo summarises a mirrored snapshot.
type SnapshotInfo struct {
	Source     string
	FetchedAt  time.Time
	Rows       int
	MirroredAt time.Time
}

// Mirror keeps a queryable copy of the active snapshot outside the process.
type Mirror interface {
	Replace(ctx context.Context, table *Table) error
	Latest(ctx context.Context) (SnapshotInfo, bool, error)
	Lookup(ctx context.Context, p Provider, nativeID string) (CanonicalKey, bool, error)
}

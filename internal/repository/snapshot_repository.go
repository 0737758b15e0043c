package repository

import (
	"context"

	"github.com/Tommy88/xparser/internal/domain/entity"
)

// SnapshotRepository persists the last known catalog snapshot.
//
// Keys are whatever the scraper profile's key scheme produced (product id, or
// display title in degraded mode). The store never interprets them.
type SnapshotRepository interface {
	// Load returns the stored snapshot. A store that has never been written
	// returns an empty, non-nil snapshot.
	Load(ctx context.Context) (entity.Snapshot, error)
	// Save replaces the stored snapshot with s.
	Save(ctx context.Context, s entity.Snapshot) error
}

// DiffRepository records the change set of the latest pass for audit.
type DiffRepository interface {
	SaveDiff(ctx context.Context, d entity.Diff) error
}

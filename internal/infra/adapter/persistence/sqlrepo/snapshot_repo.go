// Package sqlrepo implements the snapshot repository on database/sql for any
// driver that accepts the catalog_entries schema created by db.MigrateUp.
package sqlrepo

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Tommy88/xparser/internal/domain/entity"
	"github.com/Tommy88/xparser/internal/observability/logging"
	"github.com/Tommy88/xparser/internal/observability/metrics"
	"github.com/Tommy88/xparser/internal/repository"
)

var _ repository.SnapshotRepository = (*SnapshotRepo)(nil)

// SnapshotRepo stores the catalog snapshot in the catalog_entries table.
// Save replaces the whole table inside one transaction.
type SnapshotRepo struct {
	db     *sql.DB
	insert string
	logger *slog.Logger
}

// New returns a SnapshotRepo that writes rows with insert, a statement taking
// entry_key, title, old_price, new_price, image_url and observed_at in that
// order using the driver's placeholder syntax.
func New(db *sql.DB, insert string, logger *slog.Logger) *SnapshotRepo {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotRepo{db: db, insert: insert, logger: logger}
}

func (repo *SnapshotRepo) Load(ctx context.Context) (entity.Snapshot, error) {
	defer func(start time.Time) { metrics.RecordDBQuery("load_snapshot", time.Since(start)) }(time.Now())

	const query = `
SELECT entry_key, title, old_price, new_price, image_url, observed_at
FROM catalog_entries
ORDER BY entry_key ASC`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("Load: QueryContext: %w", err)
	}
	defer func() { _ = rows.Close() }()

	snap := make(entity.Snapshot)
	for rows.Next() {
		var (
			key   string
			attrs entity.Attributes
		)
		if err := rows.Scan(&key, &attrs.Title, &attrs.OldPrice, &attrs.NewPrice, &attrs.ImageURL, &attrs.Date); err != nil {
			repo.logger.Warn("skipping unreadable catalog row", logging.Error(err))
			continue
		}
		snap[key] = attrs
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Load: rows.Err: %w", err)
	}
	return snap, nil
}

func (repo *SnapshotRepo) Save(ctx context.Context, snap entity.Snapshot) (err error) {
	defer func(start time.Time) { metrics.RecordDBQuery("save_snapshot", time.Since(start)) }(time.Now())

	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Save: BeginTx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM catalog_entries`); err != nil {
		return fmt.Errorf("Save: delete: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, repo.insert)
	if err != nil {
		return fmt.Errorf("Save: PrepareContext: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, key := range snap.Keys() {
		a := snap[key]
		if _, err = stmt.ExecContext(ctx, key, a.Title, a.OldPrice, a.NewPrice, a.ImageURL, a.Date); err != nil {
			return fmt.Errorf("Save: insert %q: %w", key, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("Save: Commit: %w", err)
	}
	return nil
}

package sqlite

import (
	"database/sql"
	"log/slog"

	"github.com/Tommy88/xparser/internal/infra/adapter/persistence/sqlrepo"
	"github.com/Tommy88/xparser/internal/repository"
)

const insertEntry = `
INSERT OR REPLACE INTO catalog_entries (entry_key, title, old_price, new_price, image_url, observed_at)
VALUES (?, ?, ?, ?, ?, ?)`

// NewSnapshotRepo returns the SQLite catalog_entries repository.
func NewSnapshotRepo(db *sql.DB, logger *slog.Logger) repository.SnapshotRepository {
	return sqlrepo.New(db, insertEntry, logger)
}

package db

import "database/sql"

// MigrateUp creates the catalog_entries table. The statements are valid for
// both PostgreSQL and SQLite.
//
// observed_at is kept as text in the snapshot date layout so a malformed value
// survives the round trip and is evicted by the reconciler like it would be
// from the JSON file store.
func MigrateUp(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS catalog_entries (
    entry_key   TEXT PRIMARY KEY,
    title       TEXT NOT NULL DEFAULT '',
    old_price   TEXT NOT NULL DEFAULT '',
    new_price   TEXT NOT NULL DEFAULT '',
    image_url   TEXT NOT NULL DEFAULT '',
    observed_at TEXT NOT NULL DEFAULT ''
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_catalog_entries_observed_at ON catalog_entries(observed_at)`); err != nil {
		return err
	}

	return nil
}

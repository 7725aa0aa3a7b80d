package cache

import (
	"database/sql"
	"errors"
	"fmt"
)

// Initialize the Postgres schema used by SQLTravelTimeCache.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createCacheQuery := `
	CREATE TABLE IF NOT EXISTS traveltime_cache (
		cache_key TEXT PRIMARY KEY,
		size INTEGER NOT NULL,
		matrix JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_traveltime_cache_created_at
	ON traveltime_cache(created_at);
	`

	statements := []string{
		createCacheQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

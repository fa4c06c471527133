// Package database opens the sqlite store and keeps its schema current.
package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // sqlite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS offers (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	url             TEXT UNIQUE NOT NULL,
	title           TEXT NOT NULL,
	company         TEXT,
	location        TEXT,
	description     TEXT,
	technologies    TEXT,
	salary_min      REAL,
	salary_max      REAL,
	salary_period   TEXT,
	work_type       TEXT,
	contract_type   TEXT,
	employment_type TEXT,
	valid_until     TIMESTAMP,
	source          TEXT NOT NULL,
	seen            BOOLEAN NOT NULL DEFAULT 0,
	scraped_at      TIMESTAMP NOT NULL,
	created_at      TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_offers_seen ON offers(seen);
CREATE INDEX IF NOT EXISTS idx_offers_source ON offers(source);
`

// Open connects to the sqlite database at path, creating parent directories
// and the schema as needed. Pass ":memory:" for an ephemeral database.
func Open(ctx context.Context, path string) (*sqlx.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on", path)
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// sqlite serializes writers; a single connection avoids SQLITE_BUSY
	// churn under concurrent scrape upserts.
	db.SetMaxOpenConns(1)

	if pingErr := db.PingContext(ctx); pingErr != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", pingErr)
	}

	if _, execErr := db.ExecContext(ctx, schema); execErr != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", execErr)
	}

	return db, nil
}

package ledger

import (
	"context"
	"database/sql"
	"fmt"
)

// SchemaVersion is the current ledger schema version.
const SchemaVersion = 1

const schemaV1 = `
CREATE TABLE IF NOT EXISTS invocations (
    name TEXT PRIMARY KEY,   -- --results file name, unique per invocation
    batch TEXT NOT NULL,
    family TEXT NOT NULL,
    seed TEXT NOT NULL,
    params TEXT NOT NULL,
    artifact_path TEXT NOT NULL,
    status TEXT NOT NULL,
    exit_code INTEGER,       -- NULL when the child never exited on its own
    stderr TEXT,             -- tail only
    error TEXT,
    attempts INTEGER NOT NULL DEFAULT 0,
    started_at TEXT NOT NULL,
    finished_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_invocations_status ON invocations(status);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);
`

// InitSchema creates the ledger tables if they do not exist
func InitSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaV1); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, SchemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return nil
}

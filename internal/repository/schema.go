package repository

// Schema definitions for the Lyrebird run store.
// Compatible with both SQLite and PostgreSQL.

const schemaRuns = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    status TEXT NOT NULL,
    subscriber_count INTEGER NOT NULL DEFAULT 0,
    call_count INTEGER NOT NULL DEFAULT 0,
    fraud_count INTEGER NOT NULL DEFAULT 0,
    output_path TEXT,
    error TEXT,
    created_at TIMESTAMP NOT NULL,
    completed_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
`

const schemaCalls = `
CREATE TABLE IF NOT EXISTS calls (
    id TEXT PRIMARY KEY,
    run_id TEXT NOT NULL,
    subscriber TEXT NOT NULL,
    cell_id TEXT NOT NULL,
    cell_lat REAL NOT NULL,
    cell_lon REAL NOT NULL,
    line INTEGER NOT NULL,
    type TEXT NOT NULL,
    destination TEXT NOT NULL,
    start_time TIMESTAMP NOT NULL,
    end_time TIMESTAMP NOT NULL,
    cost REAL NOT NULL,
    fraud TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_calls_run ON calls(run_id);
CREATE INDEX IF NOT EXISTS idx_calls_subscriber ON calls(run_id, subscriber);
CREATE INDEX IF NOT EXISTS idx_calls_fraud ON calls(run_id, fraud);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaRuns,
		schemaCalls,
	}
}

// Package db provides PostgreSQL storage for exported sheet records.
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS export_runs (
	id             UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	spreadsheet_id TEXT NOT NULL,
	status         TEXT NOT NULL DEFAULT 'running',
	error_message  TEXT,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	completed_at   TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS sheet_records (
	run_id     UUID NOT NULL REFERENCES export_runs(id) ON DELETE CASCADE,
	sheet      TEXT NOT NULL,
	position   INTEGER NOT NULL,
	keys       TEXT[] NOT NULL,
	record     JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (run_id, sheet, position)
);

CREATE INDEX IF NOT EXISTS idx_export_runs_spreadsheet ON export_runs(spreadsheet_id, created_at DESC);
`

// EnsureSchema creates the export tables when they do not exist
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// CreateRun creates a new export run record and returns its ID
func (db *DB) CreateRun(ctx context.Context, runID uuid.UUID, spreadsheetID string) (uuid.UUID, error) {
	if runID == uuid.Nil {
		runID = uuid.New()
	}
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO export_runs (id, spreadsheet_id, status)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		runID, spreadsheetID, RunStatusRunning,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create run: %w", err)
	}
	return id, nil
}

// CompleteRun marks an export run as finished. A non-nil runErr marks it failed.
func (db *DB) CompleteRun(ctx context.Context, runID uuid.UUID, runErr error) error {
	status, message := runOutcome(runErr)
	_, err := db.pool.Exec(ctx,
		`UPDATE export_runs SET status = $1, error_message = $2, completed_at = NOW() WHERE id = $3`,
		status, message, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

func runOutcome(runErr error) (string, *string) {
	if runErr == nil {
		return RunStatusCompleted, nil
	}
	msg := runErr.Error()
	return RunStatusFailed, &msg
}

// GetRun retrieves an export run by ID
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	var run Run
	err := db.pool.QueryRow(ctx,
		`SELECT id, spreadsheet_id, status, error_message, created_at, completed_at
		 FROM export_runs WHERE id = $1`,
		runID,
	).Scan(&run.ID, &run.SpreadsheetID, &run.Status, &run.ErrorMessage, &run.CreatedAt, &run.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// ListRuns retrieves recent export runs of a spreadsheet
func (db *DB) ListRuns(ctx context.Context, spreadsheetID string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, spreadsheet_id, status, error_message, created_at, completed_at
		 FROM export_runs WHERE spreadsheet_id = $1
		 ORDER BY created_at DESC LIMIT $2`,
		spreadsheetID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.SpreadsheetID, &run.Status, &run.ErrorMessage, &run.CreatedAt, &run.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Package repository provides data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/opensource-telco/lyrebird/internal/domain"
)

var ErrInvalidInput = errors.New("invalid input")

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (domain.Repository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// SaveRun stores a new run record.
func (r *SQLRepository) SaveRun(ctx context.Context, run *domain.Run) error {
	if run.ID == "" {
		return fmt.Errorf("%w: run ID is required", ErrInvalidInput)
	}

	query := `
		INSERT INTO runs (
			id, status, subscriber_count, call_count, fraud_count,
			output_path, error, created_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		run.ID, run.Status,
		run.SubscriberCount, run.CallCount, run.FraudCount,
		run.OutputPath, run.Error,
		run.CreatedAt, nullTime(run.CompletedAt),
	)
	return err
}

// UpdateRun updates an existing run record.
func (r *SQLRepository) UpdateRun(ctx context.Context, run *domain.Run) error {
	if run.ID == "" {
		return fmt.Errorf("%w: run ID is required", ErrInvalidInput)
	}

	query := `
		UPDATE runs
		SET status = ?, subscriber_count = ?, call_count = ?, fraud_count = ?,
		    output_path = ?, error = ?, completed_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, r.rebind(query),
		run.Status, run.SubscriberCount, run.CallCount, run.FraudCount,
		run.OutputPath, run.Error, nullTime(run.CompletedAt),
		run.ID,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("run %s: %w", run.ID, domain.ErrNotFound)
	}

	return nil
}

// GetRun retrieves a run by ID.
func (r *SQLRepository) GetRun(ctx context.Context, runID string) (*domain.Run, error) {
	query := `
		SELECT id, status, subscriber_count, call_count, fraud_count,
		       output_path, error, created_at, completed_at
		FROM runs
		WHERE id = ?
	`

	run, err := scanRun(r.db.QueryRowContext(ctx, r.rebind(query), runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	return run, nil
}

// ListRuns retrieves the most recent runs, newest first.
func (r *SQLRepository) ListRuns(ctx context.Context, limit int) ([]*domain.Run, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, status, subscriber_count, call_count, fraud_count,
		       output_path, error, created_at, completed_at
		FROM runs
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// SaveCalls persists every call in the population for a run, in one transaction.
func (r *SQLRepository) SaveCalls(ctx context.Context, runID string, population *domain.Population) error {
	if runID == "" {
		return fmt.Errorf("%w: runID is required", ErrInvalidInput)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO calls (
			id, run_id, subscriber, cell_id, cell_lat, cell_lon,
			line, type, destination, start_time, end_time, cost, fraud
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	stmt, err := tx.PrepareContext(ctx, r.rebind(query))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, sub := range population.Subscribers {
		for _, call := range sub.Calls {
			if _, err := stmt.ExecContext(ctx,
				call.ID, runID, sub.PhoneNumber,
				call.Cell.ID, call.Cell.Lat, call.Cell.Lon,
				call.Line, call.Type, call.Destination,
				call.Time.Start, call.Time.End,
				call.Cost, string(call.Fraud),
			); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// GetCallsByRun retrieves all stored calls for a run, ordered by start time.
func (r *SQLRepository) GetCallsByRun(ctx context.Context, runID string) ([]*domain.StoredCall, error) {
	query := `
		SELECT id, run_id, subscriber, cell_id, cell_lat, cell_lon,
		       line, type, destination, start_time, end_time, cost, fraud
		FROM calls
		WHERE run_id = ?
		ORDER BY start_time
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var calls []*domain.StoredCall
	for rows.Next() {
		var (
			sc    domain.StoredCall
			call  domain.Call
			fraud string
		)

		if err := rows.Scan(
			&call.ID, &sc.RunID, &sc.Subscriber,
			&call.Cell.ID, &call.Cell.Lat, &call.Cell.Lon,
			&call.Line, &call.Type, &call.Destination,
			&call.Time.Start, &call.Time.End,
			&call.Cost, &fraud,
		); err != nil {
			return nil, err
		}

		call.Fraud = domain.FraudClass(fraud)
		sc.Call = &call
		calls = append(calls, &sc)
	}

	return calls, rows.Err()
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*domain.Run, error) {
	var (
		run       domain.Run
		completed sql.NullTime
	)

	if err := row.Scan(
		&run.ID, &run.Status,
		&run.SubscriberCount, &run.CallCount, &run.FraudCount,
		&run.OutputPath, &run.Error,
		&run.CreatedAt, &completed,
	); err != nil {
		return nil, err
	}

	if completed.Valid {
		run.CompletedAt = completed.Time
	}

	return &run, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	// Convert ? to $1, $2, etc.
	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}

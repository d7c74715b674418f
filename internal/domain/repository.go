// Package domain defines the core interfaces and types for Lyrebird.
package domain

import (
	"context"
	"time"
)

// Run status values.
const (
	RunStatusPending   = "pending"
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run records one population generation run and its outcome.
type Run struct {
	ID              string    `json:"id"`
	Status          string    `json:"status"`
	SubscriberCount int       `json:"subscriberCount"`
	CallCount       int       `json:"callCount"`
	FraudCount      int       `json:"fraudCount"`
	OutputPath      string    `json:"outputPath,omitempty"`
	Error           string    `json:"error,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	CompletedAt     time.Time `json:"completedAt,omitempty"`
}

// StoredCall is one persisted CDR row, denormalized with its owner's number.
type StoredCall struct {
	RunID      string
	Subscriber string
	Call       *Call
}

// Repository defines the interface for run and CDR persistence.
type Repository interface {
	// Run lifecycle
	SaveRun(ctx context.Context, run *Run) error
	UpdateRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, runID string) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]*Run, error)

	// Generated calls
	SaveCalls(ctx context.Context, runID string, population *Population) error
	GetCallsByRun(ctx context.Context, runID string) ([]*StoredCall, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string `json:"driver"`

	// SQLite specific
	SQLitePath string `json:"sqlitePath"`

	// PostgreSQL specific
	PostgresHost     string `json:"postgresHost"`
	PostgresPort     int    `json:"postgresPort"`
	PostgresUser     string `json:"postgresUser"`
	PostgresPassword string `json:"postgresPassword"`
	PostgresDB       string `json:"postgresDb"`
	PostgresSSLMode  string `json:"postgresSslMode"`

	// Connection pool settings
	MaxOpenConns    int           `json:"maxOpenConns"`
	MaxIdleConns    int           `json:"maxIdleConns"`
	ConnMaxLifetime time.Duration `json:"-"`
}

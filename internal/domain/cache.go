package domain

import (
	"context"
	"time"
)

// Cache defines the interface for caching run artifacts.
// Supports two-phase caching: local LRU in front of Redis.
type Cache interface {
	// Get retrieves a value from cache.
	// Returns nil, nil if key not found.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in cache with expiration.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from cache.
	Delete(ctx context.Context, key string) error

	// GetRunSummary retrieves a cached run summary.
	GetRunSummary(ctx context.Context, runID string) (*RunSummary, error)

	// SetRunSummary caches a run summary for the retrieval API.
	SetRunSummary(ctx context.Context, runID string, summary *RunSummary, ttl time.Duration) error

	// IncrementCounter atomically increments a counter and returns the new
	// value. Used to count runs started within a time window.
	IncrementCounter(ctx context.Context, key string, window time.Duration) (int64, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// RunSummary is the cached digest of a completed run.
type RunSummary struct {
	RunID           string `json:"runId"`
	Status          string `json:"status"`
	SubscriberCount int    `json:"subscriberCount"`
	CallCount       int    `json:"callCount"`
	FraudCount      int    `json:"fraudCount"`
	OutputPath      string `json:"outputPath,omitempty"`
}

// CacheConfig holds configuration for cache initialization.
type CacheConfig struct {
	// Type is the cache type: "memory" or "redis"
	Type string `json:"type"`

	// Local LRU cache settings
	LocalMaxSize int `json:"localMaxSize"`
	LocalTTL     int `json:"localTtl"` // seconds

	// Redis settings
	RedisAddr     string `json:"redisAddr"`
	RedisPassword string `json:"redisPassword"`
	RedisDB       int    `json:"redisDb"`

	// Two-phase settings
	EnableTwoPhase bool `json:"enableTwoPhase"` // If true, check local first, then Redis
}

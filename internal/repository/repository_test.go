package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/opensource-telco/lyrebird/internal/domain"
)

func newTestRepo(t *testing.T) domain.Repository {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "lyrebird-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	t.Cleanup(func() { os.Remove(tmpPath) })

	cfg := domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: tmpPath,
	}

	repo, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	return repo
}

func TestSQLiteRepository(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	t.Run("Ping", func(t *testing.T) {
		if err := repo.Ping(ctx); err != nil {
			t.Errorf("Ping failed: %v", err)
		}
	})

	t.Run("SaveAndGetRun", func(t *testing.T) {
		run := &domain.Run{
			ID:              "run-001",
			Status:          domain.RunStatusPending,
			SubscriberCount: 100,
			CreatedAt:       time.Now().UTC(),
		}

		if err := repo.SaveRun(ctx, run); err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}

		retrieved, err := repo.GetRun(ctx, run.ID)
		if err != nil {
			t.Fatalf("GetRun failed: %v", err)
		}

		if retrieved.ID != run.ID {
			t.Errorf("expected ID %s, got %s", run.ID, retrieved.ID)
		}
		if retrieved.Status != domain.RunStatusPending {
			t.Errorf("expected status %s, got %s", domain.RunStatusPending, retrieved.Status)
		}
		if retrieved.SubscriberCount != 100 {
			t.Errorf("expected 100 subscribers, got %d", retrieved.SubscriberCount)
		}
		if !retrieved.CompletedAt.IsZero() {
			t.Errorf("expected zero CompletedAt for pending run, got %v", retrieved.CompletedAt)
		}
	})

	t.Run("UpdateRun", func(t *testing.T) {
		run := &domain.Run{
			ID:              "run-001",
			Status:          domain.RunStatusCompleted,
			SubscriberCount: 100,
			CallCount:       4200,
			FraudCount:      10,
			OutputPath:      "/tmp/run-001.csv",
			CompletedAt:     time.Now().UTC(),
		}

		if err := repo.UpdateRun(ctx, run); err != nil {
			t.Fatalf("UpdateRun failed: %v", err)
		}

		retrieved, err := repo.GetRun(ctx, run.ID)
		if err != nil {
			t.Fatalf("GetRun failed: %v", err)
		}

		if retrieved.Status != domain.RunStatusCompleted {
			t.Errorf("expected status %s, got %s", domain.RunStatusCompleted, retrieved.Status)
		}
		if retrieved.CallCount != 4200 {
			t.Errorf("expected 4200 calls, got %d", retrieved.CallCount)
		}
		if retrieved.CompletedAt.IsZero() {
			t.Error("expected non-zero CompletedAt after completion")
		}
	})

	t.Run("UpdateMissingRun", func(t *testing.T) {
		run := &domain.Run{ID: "no-such-run", Status: domain.RunStatusFailed}

		err := repo.UpdateRun(ctx, run)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got: %v", err)
		}
	})

	t.Run("ListRuns", func(t *testing.T) {
		second := &domain.Run{
			ID:        "run-002",
			Status:    domain.RunStatusPending,
			CreatedAt: time.Now().UTC().Add(time.Second),
		}
		if err := repo.SaveRun(ctx, second); err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}

		runs, err := repo.ListRuns(ctx, 10)
		if err != nil {
			t.Fatalf("ListRuns failed: %v", err)
		}

		if len(runs) != 2 {
			t.Fatalf("expected 2 runs, got %d", len(runs))
		}
		if runs[0].ID != "run-002" {
			t.Errorf("expected newest run first, got %s", runs[0].ID)
		}

		runs, err = repo.ListRuns(ctx, 1)
		if err != nil {
			t.Fatalf("ListRuns failed: %v", err)
		}
		if len(runs) != 1 {
			t.Errorf("expected limit to cap results at 1, got %d", len(runs))
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := repo.GetRun(ctx, "nonexistent")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got: %v", err)
		}
	})

	t.Run("RequiresRunID", func(t *testing.T) {
		if err := repo.SaveRun(ctx, &domain.Run{}); err == nil {
			t.Error("expected error for empty run ID")
		}
		if err := repo.SaveCalls(ctx, "", &domain.Population{}); err == nil {
			t.Error("expected error for empty runID")
		}
	})
}

func TestSaveAndGetCalls(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	start := time.Date(2026, 1, 5, 9, 30, 0, 0, time.UTC)
	cell := domain.Cell{ID: "C1", Lat: 51.5, Lon: -0.12}

	pop := &domain.Population{
		Subscribers: []*domain.Subscriber{
			{
				PhoneNumber: "44711234567",
				Calls: []*domain.Call{
					{
						ID:          "call-001",
						Cell:        cell,
						Line:        0,
						Type:        "Local",
						Destination: "44715550001",
						Time:        domain.Interval{Start: start, End: start.Add(5 * time.Minute)},
						Cost:        0.65,
						Fraud:       domain.FraudNone,
					},
					{
						ID:          "call-002",
						Cell:        cell,
						Line:        1,
						Type:        "International",
						Destination: "00185550002",
						Time:        domain.Interval{Start: start.Add(time.Hour), End: start.Add(time.Hour + 2*time.Minute)},
						Cost:        1.20,
						Fraud:       domain.FraudFar,
					},
				},
			},
		},
	}

	run := &domain.Run{ID: "run-calls", Status: domain.RunStatusRunning, CreatedAt: time.Now().UTC()}
	if err := repo.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	if err := repo.SaveCalls(ctx, run.ID, pop); err != nil {
		t.Fatalf("SaveCalls failed: %v", err)
	}

	calls, err := repo.GetCallsByRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetCallsByRun failed: %v", err)
	}

	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}

	first := calls[0]
	if first.Call.ID != "call-001" {
		t.Errorf("expected calls ordered by start time, got %s first", first.Call.ID)
	}
	if first.Subscriber != "44711234567" {
		t.Errorf("expected subscriber 44711234567, got %s", first.Subscriber)
	}
	if first.Call.Cell != cell {
		t.Errorf("expected cell %+v, got %+v", cell, first.Call.Cell)
	}
	if !first.Call.Time.Start.Equal(start) {
		t.Errorf("expected start %v, got %v", start, first.Call.Time.Start)
	}

	if calls[1].Call.Fraud != domain.FraudFar {
		t.Errorf("expected fraud class %s, got %s", domain.FraudFar, calls[1].Call.Fraud)
	}

	other, err := repo.GetCallsByRun(ctx, "other-run")
	if err != nil {
		t.Fatalf("GetCallsByRun failed: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("expected no calls for unrelated run, got %d", len(other))
	}
}

func TestUnsupportedDriver(t *testing.T) {
	cfg := domain.RepositoryConfig{
		Driver: "mysql",
	}

	_, err := New(cfg)
	if err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestRebind(t *testing.T) {
	repo := &SQLRepository{driver: "postgres"}

	tests := []struct {
		input    string
		expected string
	}{
		{"SELECT * FROM t WHERE id = ?", "SELECT * FROM t WHERE id = $1"},
		{"INSERT INTO t (a, b) VALUES (?, ?)", "INSERT INTO t (a, b) VALUES ($1, $2)"},
		{"SELECT * FROM t", "SELECT * FROM t"},
	}

	for _, tt := range tests {
		result := repo.rebind(tt.input)
		if result != tt.expected {
			t.Errorf("rebind(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

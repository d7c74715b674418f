package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/opensource-telco/lyrebird/internal/domain"
	"github.com/opensource-telco/lyrebird/internal/geo"
	"github.com/opensource-telco/lyrebird/internal/worker"
)

// Handler holds dependencies for API handlers.
type Handler struct {
	repo    domain.Repository
	cache   domain.Cache
	bus     domain.EventBus
	cells   *geo.Registry
	version string
}

// NewHandler creates a new API handler.
func NewHandler(repo domain.Repository, cache domain.Cache, bus domain.EventBus, cells *geo.Registry, version string) *Handler {
	return &Handler{
		repo:    repo,
		cache:   cache,
		bus:     bus,
		cells:   cells,
		version: version,
	}
}

// CreateRunRequest is the request body for POST /runs.
type CreateRunRequest struct {
	NumSubscribers int    `json:"numSubscribers,omitempty"`
	FraudCount     int    `json:"fraudCount,omitempty"`
	Seed           uint64 `json:"seed,omitempty"`
}

// CreateRunResponse is the response for POST /runs.
type CreateRunResponse struct {
	RunID  string `json:"runId"`
	Status string `json:"status"`
}

// CreateRun handles POST /runs: it records a pending run and hands it to the
// workers over the bus.
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateRunRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "invalid JSON request body",
			})
			return
		}
	}

	if req.NumSubscribers < 0 || req.FraudCount < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "numSubscribers and fraudCount must not be negative",
		})
		return
	}

	run := &domain.Run{
		ID:        uuid.New().String(),
		Status:    domain.RunStatusPending,
		CreatedAt: time.Now().UTC(),
	}

	if err := h.repo.SaveRun(ctx, run); err != nil {
		slog.Error("failed to save run", "run_id", run.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to create run",
		})
		return
	}

	if h.cache != nil {
		if _, err := h.cache.IncrementCounter(ctx, "runs.requested", time.Hour); err != nil {
			slog.Warn("failed to count run request", "error", err)
		}
	}

	payload, _ := json.Marshal(worker.RunRequest{
		RunID:          run.ID,
		Seed:           req.Seed,
		NumSubscribers: req.NumSubscribers,
		FraudCount:     req.FraudCount,
	})

	if err := h.bus.Publish(ctx, domain.TopicRunRequested, payload); err != nil {
		slog.Error("failed to publish run request", "run_id", run.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to enqueue run",
		})
		return
	}

	writeJSON(w, http.StatusAccepted, CreateRunResponse{
		RunID:  run.ID,
		Status: run.Status,
	})
}

// GetRun retrieves a run by ID, preferring the cached summary.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	runID := chi.URLParam(r, "id")

	if h.cache != nil {
		summary, err := h.cache.GetRunSummary(ctx, runID)
		if err == nil && summary != nil {
			writeJSON(w, http.StatusOK, summary)
			return
		}
	}

	run, err := h.repo.GetRun(ctx, runID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "run not found",
			})
			return
		}
		slog.Error("failed to get run", "run_id", runID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to get run",
		})
		return
	}

	writeJSON(w, http.StatusOK, run)
}

// ListRuns returns the most recent runs.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "limit must be a positive integer",
			})
			return
		}
		limit = n
	}

	runs, err := h.repo.ListRuns(ctx, limit)
	if err != nil {
		slog.Error("failed to list runs", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to list runs",
		})
		return
	}
	if runs == nil {
		runs = []*domain.Run{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// CallRecord is one call in the GET /runs/{id}/calls response.
type CallRecord struct {
	Subscriber string       `json:"subscriber"`
	Call       *domain.Call `json:"call"`
}

// GetRunCalls returns every stored call for a run.
func (h *Handler) GetRunCalls(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	runID := chi.URLParam(r, "id")

	// Confirm the run exists before fetching its calls
	if _, err := h.repo.GetRun(ctx, runID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "run not found",
			})
			return
		}
		slog.Error("failed to get run", "run_id", runID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to get run",
		})
		return
	}

	stored, err := h.repo.GetCallsByRun(ctx, runID)
	if err != nil {
		slog.Error("failed to get calls", "run_id", runID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to get calls",
		})
		return
	}

	records := make([]CallRecord, 0, len(stored))
	for _, sc := range stored {
		records = append(records, CallRecord{
			Subscriber: sc.Subscriber,
			Call:       sc.Call,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"runId": runID,
		"calls": records,
		"count": len(records),
	})
}

// ListCells returns the full cell registry.
func (h *Handler) ListCells(w http.ResponseWriter, r *http.Request) {
	cells := h.cells.Cells()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"cells": cells,
		"count": len(cells),
	})
}

// GetCell retrieves one cell by ID.
func (h *Handler) GetCell(w http.ResponseWriter, r *http.Request) {
	cellID := chi.URLParam(r, "id")

	cell, err := h.cells.CellByID(cellID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "cell not found",
		})
		return
	}

	writeJSON(w, http.StatusOK, cell)
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	// Check repository health
	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	// Check cache health
	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	// Check bus health
	if h.bus != nil {
		if err := h.bus.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

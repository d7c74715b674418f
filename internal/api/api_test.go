package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/opensource-telco/lyrebird/internal/bus"
	"github.com/opensource-telco/lyrebird/internal/cache"
	"github.com/opensource-telco/lyrebird/internal/domain"
	"github.com/opensource-telco/lyrebird/internal/geo"
	"github.com/opensource-telco/lyrebird/internal/repository"
)

// createTestServer wires a server over a temp sqlite store, an in-memory
// cache and a channel bus.
func createTestServer(t *testing.T) (*Server, domain.Repository, *bus.ChannelBus) {
	t.Helper()

	repo, err := repository.New(domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "api.db"),
	})
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	eventBus := bus.NewChannelBus(100)
	t.Cleanup(func() { eventBus.Close() })

	cells := geo.NewRegistry([]domain.Cell{
		{ID: "C0", Lat: 0, Lon: 0},
		{ID: "C1", Lat: 0, Lon: 10},
		{ID: "C2", Lat: 45, Lon: 45},
	})

	cfg := domain.ServerConfig{
		Host:         "localhost",
		Port:         8080,
		ReadTimeout:  30,
		WriteTimeout: 30,
	}

	server := NewServer(cfg, repo, cache.NewLRUCache(100), eventBus, cells, "test-v1")
	return server, repo, eventBus
}

func TestCreateRunEndpoint(t *testing.T) {
	server, repo, eventBus := createTestServer(t)

	t.Run("AcceptsRun", func(t *testing.T) {
		var publishedPayload []byte
		eventBus.Subscribe(context.Background(), domain.TopicRunRequested, func(ctx context.Context, msg *domain.Message) error {
			publishedPayload = msg.Payload
			return nil
		})
		time.Sleep(10 * time.Millisecond)

		body, _ := json.Marshal(CreateRunRequest{NumSubscribers: 10, Seed: 42})
		req := httptest.NewRequest(http.MethodPost, "/runs", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusAccepted {
			t.Fatalf("expected status 202, got %d: %s", rr.Code, rr.Body.String())
		}

		var resp CreateRunResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if resp.RunID == "" {
			t.Error("expected a run ID")
		}
		if resp.Status != domain.RunStatusPending {
			t.Errorf("expected status %s, got %s", domain.RunStatusPending, resp.Status)
		}

		// Run is persisted as pending
		run, err := repo.GetRun(context.Background(), resp.RunID)
		if err != nil {
			t.Fatalf("GetRun failed: %v", err)
		}
		if run.Status != domain.RunStatusPending {
			t.Errorf("expected persisted status %s, got %s", domain.RunStatusPending, run.Status)
		}

		// Request went out on the bus
		time.Sleep(50 * time.Millisecond)
		if publishedPayload == nil {
			t.Fatal("expected run request on the bus")
		}
		var reqMsg struct {
			RunID string `json:"runId"`
			Seed  uint64 `json:"seed"`
		}
		if err := json.Unmarshal(publishedPayload, &reqMsg); err != nil {
			t.Fatalf("failed to parse bus payload: %v", err)
		}
		if reqMsg.RunID != resp.RunID {
			t.Errorf("expected bus run ID %s, got %s", resp.RunID, reqMsg.RunID)
		}
		if reqMsg.Seed != 42 {
			t.Errorf("expected seed 42, got %d", reqMsg.Seed)
		}
	})

	t.Run("EmptyBodyAllowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/runs", nil)

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusAccepted {
			t.Errorf("expected status 202, got %d: %s", rr.Code, rr.Body.String())
		}
	})

	t.Run("RejectsBadJSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/runs", bytes.NewBufferString("{not json"))
		req.Header.Set("Content-Type", "application/json")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("RejectsNegativeCounts", func(t *testing.T) {
		body, _ := json.Marshal(map[string]int{"numSubscribers": -5})
		req := httptest.NewRequest(http.MethodPost, "/runs", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})
}

func TestGetRunEndpoint(t *testing.T) {
	server, repo, _ := createTestServer(t)
	ctx := context.Background()

	run := &domain.Run{
		ID:              "run-api",
		Status:          domain.RunStatusCompleted,
		SubscriberCount: 10,
		CallCount:       250,
		FraudCount:      5,
		CreatedAt:       time.Now().UTC(),
	}
	if err := repo.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	t.Run("Found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/runs/run-api", nil)
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var resp domain.Run
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if resp.CallCount != 250 {
			t.Errorf("expected 250 calls, got %d", resp.CallCount)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/runs/missing", nil)
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rr.Code)
		}
	})

	t.Run("List", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/runs", nil)
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}

		var resp struct {
			Runs  []*domain.Run `json:"runs"`
			Count int           `json:"count"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if resp.Count != 1 {
			t.Errorf("expected 1 run, got %d", resp.Count)
		}
	})

	t.Run("ListBadLimit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/runs?limit=zero", nil)
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})
}

func TestGetRunCallsEndpoint(t *testing.T) {
	server, repo, _ := createTestServer(t)
	ctx := context.Background()

	run := &domain.Run{ID: "run-calls", Status: domain.RunStatusCompleted, CreatedAt: time.Now().UTC()}
	if err := repo.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	start := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	pop := &domain.Population{
		Subscribers: []*domain.Subscriber{
			{
				PhoneNumber: "44715550000",
				Calls: []*domain.Call{
					{
						ID:          "c1",
						Cell:        domain.Cell{ID: "C0"},
						Type:        "Local",
						Destination: "44715550001",
						Time:        domain.Interval{Start: start, End: start.Add(time.Minute)},
						Cost:        0.25,
						Fraud:       domain.FraudNone,
					},
				},
			},
		},
	}
	if err := repo.SaveCalls(ctx, run.ID, pop); err != nil {
		t.Fatalf("SaveCalls failed: %v", err)
	}

	t.Run("ReturnsCalls", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/runs/run-calls/calls", nil)
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var resp struct {
			RunID string       `json:"runId"`
			Calls []CallRecord `json:"calls"`
			Count int          `json:"count"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if resp.Count != 1 {
			t.Fatalf("expected 1 call, got %d", resp.Count)
		}
		if resp.Calls[0].Subscriber != "44715550000" {
			t.Errorf("expected subscriber 44715550000, got %s", resp.Calls[0].Subscriber)
		}
		if resp.Calls[0].Call.ID != "c1" {
			t.Errorf("expected call c1, got %s", resp.Calls[0].Call.ID)
		}
	})

	t.Run("UnknownRun", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/runs/missing/calls", nil)
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rr.Code)
		}
	})
}

func TestCellEndpoints(t *testing.T) {
	server, _, _ := createTestServer(t)

	t.Run("ListCells", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/cells", nil)
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}

		var resp struct {
			Cells []domain.Cell `json:"cells"`
			Count int           `json:"count"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if resp.Count != 3 {
			t.Errorf("expected 3 cells, got %d", resp.Count)
		}
	})

	t.Run("GetCell", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/cells/C2", nil)
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}

		var cell domain.Cell
		if err := json.Unmarshal(rr.Body.Bytes(), &cell); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if cell.Lat != 45 || cell.Lon != 45 {
			t.Errorf("expected cell at (45,45), got (%v,%v)", cell.Lat, cell.Lon)
		}
	})

	t.Run("GetCellNotFound", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/cells/ZZ", nil)
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rr.Code)
		}
	})
}

func TestHealthEndpoints(t *testing.T) {
	server, _, _ := createTestServer(t)

	t.Run("Health", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}

		var resp map[string]string
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if resp["status"] != "healthy" {
			t.Errorf("expected healthy, got %s", resp["status"])
		}
		if resp["version"] != "test-v1" {
			t.Errorf("expected version test-v1, got %s", resp["version"])
		}
	})

	t.Run("Ready", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ready", nil)
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rr.Code)
		}
	})

	t.Run("RequestIDHeader", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Header().Get(RequestIDHeader) == "" {
			t.Error("expected request ID header to be set")
		}
	})

	t.Run("CORSPreflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/runs", nil)
		req.Header.Set("Origin", "http://example.com")
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusNoContent {
			t.Errorf("expected status 204 for preflight, got %d", rr.Code)
		}
		if rr.Header().Get("Access-Control-Allow-Origin") != "http://example.com" {
			t.Errorf("expected origin echo, got %q", rr.Header().Get("Access-Control-Allow-Origin"))
		}
	})
}

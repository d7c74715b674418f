// Package worker runs population generation jobs off the event bus.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/opensource-telco/lyrebird/internal/domain"
	"github.com/opensource-telco/lyrebird/internal/output"
	"github.com/opensource-telco/lyrebird/internal/population"
)

// Worker executes generation runs requested over the EventBus. The cell
// registry is shared across runs; each run gets its own generator and rand
// source.
type Worker struct {
	bus   domain.EventBus
	repo  domain.Repository
	cache domain.Cache
	cells domain.CellSource
	cfg   *domain.Config

	subscriptions []domain.Subscription
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewWorker creates a run worker. Cache may be nil.
func NewWorker(bus domain.EventBus, repo domain.Repository, cache domain.Cache, cells domain.CellSource, cfg *domain.Config) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:    bus,
		repo:   repo,
		cache:  cache,
		cells:  cells,
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start subscribes to the run request topic.
func (w *Worker) Start() error {
	sub, err := w.bus.Subscribe(w.ctx, domain.TopicRunRequested, w.handleMessage)
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("run worker started", "topic", domain.TopicRunRequested)
	return nil
}

// RunRequest is the message payload for a generation run. Zero-valued
// overrides fall back to the configured generator settings.
type RunRequest struct {
	RunID          string `json:"runId"`
	Seed           uint64 `json:"seed,omitempty"`
	NumSubscribers int    `json:"numSubscribers,omitempty"`
	FraudCount     int    `json:"fraudCount,omitempty"`
}

// handleMessage handles run requests from the bus.
func (w *Worker) handleMessage(ctx context.Context, msg *domain.Message) error {
	var req RunRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		slog.Error("failed to parse run request",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}

	w.wg.Add(1)
	defer w.wg.Done()

	return w.Execute(ctx, &req)
}

// Execute performs one generation run end to end: generate the population,
// persist the calls, write the CSV artifact and publish the outcome.
func (w *Worker) Execute(ctx context.Context, req *RunRequest) error {
	start := time.Now()

	run, err := w.repo.GetRun(ctx, req.RunID)
	if err != nil {
		slog.Error("run not found", "run_id", req.RunID, "error", err)
		return err
	}

	run.Status = domain.RunStatusRunning
	if err := w.repo.UpdateRun(ctx, run); err != nil {
		return err
	}

	pop, err := w.generate(req)
	if err != nil {
		return w.fail(ctx, run, err)
	}

	if err := w.repo.SaveCalls(ctx, run.ID, pop); err != nil {
		return w.fail(ctx, run, fmt.Errorf("failed to persist calls: %w", err))
	}

	name := w.cfg.Output.Prefix + "-" + run.ID + ".csv"
	path, err := output.WriteFile(w.cfg.Output.Dir, name, pop)
	if err != nil {
		return w.fail(ctx, run, fmt.Errorf("failed to write output: %w", err))
	}

	run.Status = domain.RunStatusCompleted
	run.SubscriberCount = len(pop.Subscribers)
	run.CallCount = pop.TotalCalls()
	run.FraudCount = pop.FraudCalls()
	run.OutputPath = path
	run.CompletedAt = time.Now().UTC()

	if err := w.repo.UpdateRun(ctx, run); err != nil {
		return err
	}

	w.cacheSummary(ctx, run)

	payload, _ := json.Marshal(run)
	if err := w.bus.Publish(ctx, domain.TopicRunCompleted, payload); err != nil {
		slog.Error("failed to publish run completion",
			"run_id", run.ID,
			"error", err,
		)
	}

	slog.Info("run completed",
		"run_id", run.ID,
		"subscribers", run.SubscriberCount,
		"calls", run.CallCount,
		"fraud_calls", run.FraudCount,
		"output", path,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}

// generate builds the population for one request.
func (w *Worker) generate(req *RunRequest) (*domain.Population, error) {
	genCfg := w.cfg.Generator
	if req.NumSubscribers > 0 {
		genCfg.NumSubscribers = req.NumSubscribers
	}
	if req.FraudCount > 0 {
		genCfg.Fraud.Count = req.FraudCount
	}

	var rng *rand.Rand
	if req.Seed != 0 {
		rng = rand.New(rand.NewPCG(req.Seed, req.Seed))
	}

	gen, err := population.NewGenerator(genCfg, w.cells, rng)
	if err != nil {
		return nil, err
	}

	return gen.Generate()
}

// fail marks the run failed and publishes the failure.
func (w *Worker) fail(ctx context.Context, run *domain.Run, cause error) error {
	run.Status = domain.RunStatusFailed
	run.Error = cause.Error()
	run.CompletedAt = time.Now().UTC()

	if err := w.repo.UpdateRun(ctx, run); err != nil {
		slog.Error("failed to record run failure",
			"run_id", run.ID,
			"error", err,
		)
	}

	w.cacheSummary(ctx, run)

	payload, _ := json.Marshal(run)
	if err := w.bus.Publish(ctx, domain.TopicRunFailed, payload); err != nil {
		slog.Error("failed to publish run failure",
			"run_id", run.ID,
			"error", err,
		)
	}

	slog.Error("run failed", "run_id", run.ID, "error", cause)
	return cause
}

func (w *Worker) cacheSummary(ctx context.Context, run *domain.Run) {
	if w.cache == nil {
		return
	}

	summary := &domain.RunSummary{
		RunID:           run.ID,
		Status:          run.Status,
		SubscriberCount: run.SubscriberCount,
		CallCount:       run.CallCount,
		FraudCount:      run.FraudCount,
		OutputPath:      run.OutputPath,
	}

	if err := w.cache.SetRunSummary(ctx, run.ID, summary, time.Hour); err != nil {
		slog.Warn("failed to cache run summary",
			"run_id", run.ID,
			"error", err,
		)
	}
}

// Stop gracefully stops the worker, waiting for in-flight runs.
func (w *Worker) Stop() error {
	w.cancel()

	for _, sub := range w.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}
	w.subscriptions = nil

	w.wg.Wait()

	slog.Info("run worker stopped")
	return nil
}

// Batch CLI for generating synthetic CDR populations without the daemon.
//
// Usage:
//   lyrebird -config config.json -cells cells.csv -runs 4 -workers 2 -out ./out
//
// Each run produces one CSV artifact of the configured population.

package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"sync"
	"time"

	"github.com/opensource-telco/lyrebird/internal/domain"
	"github.com/opensource-telco/lyrebird/internal/geo"
	"github.com/opensource-telco/lyrebird/internal/output"
	"github.com/opensource-telco/lyrebird/internal/population"
)

func main() {
	configPath := flag.String("config", "", "path to JSON configuration file")
	cellsPath := flag.String("cells", "", "path to cells CSV (overrides config)")
	outDir := flag.String("out", "", "output directory (overrides config)")
	prefix := flag.String("prefix", "", "output file name prefix (overrides config)")
	runs := flag.Int("runs", 1, "number of populations to generate")
	workers := flag.Int("workers", 1, "number of concurrent generation workers")
	subscribers := flag.Int("subscribers", 0, "population size (overrides config)")
	seed := flag.Uint64("seed", 0, "base random seed; 0 for time-based seeding")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg := domain.DefaultConfig()
	if *configPath != "" {
		loaded, err := domain.LoadConfig(*configPath)
		if err != nil {
			slog.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	if *cellsPath != "" {
		cfg.Generator.CellsFile = *cellsPath
	}
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}
	if *prefix != "" {
		cfg.Output.Prefix = *prefix
	}
	if *subscribers > 0 {
		cfg.Generator.NumSubscribers = *subscribers
	}
	if *runs < 1 {
		slog.Error("runs must be at least 1")
		os.Exit(1)
	}
	if *workers < 1 {
		*workers = 1
	}

	cells, err := geo.LoadRegistry(cfg.Generator.CellsFile)
	if err != nil {
		slog.Error("failed to load cell registry", "error", err)
		os.Exit(1)
	}
	slog.Info("cell registry loaded", "cells", cells.Size(), "file", cfg.Generator.CellsFile)

	start := time.Now()

	jobs := make(chan int)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var failures int

	for w := 0; w < *workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				if err := generateOne(cfg, cells, *seed, job); err != nil {
					slog.Error("generation failed", "run", job, "error", err)
					mu.Lock()
					failures++
					mu.Unlock()
				}
			}
		}()
	}

	for i := 0; i < *runs; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	slog.Info("done",
		"runs", *runs,
		"failures", failures,
		"duration", time.Since(start).Round(time.Millisecond).String(),
	)

	if failures > 0 {
		os.Exit(1)
	}
}

// generateOne builds and writes a single population. Each run gets its own
// rand source so concurrent runs stay independent and seeded runs stay
// reproducible.
func generateOne(cfg *domain.Config, cells *geo.Registry, baseSeed uint64, job int) error {
	var rng *rand.Rand
	if baseSeed != 0 {
		rng = rand.New(rand.NewPCG(baseSeed, uint64(job)))
	}

	gen, err := population.NewGenerator(cfg.Generator, cells, rng)
	if err != nil {
		return err
	}

	pop, err := gen.Generate()
	if err != nil {
		return err
	}

	name := fmt.Sprintf("%s-%03d.csv", cfg.Output.Prefix, job)
	path, err := output.WriteFile(cfg.Output.Dir, name, pop)
	if err != nil {
		return err
	}

	slog.Info("population written",
		"run", job,
		"subscribers", len(pop.Subscribers),
		"calls", pop.TotalCalls(),
		"fraud_calls", pop.FraudCalls(),
		"output", path,
	)

	return nil
}

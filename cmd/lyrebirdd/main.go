// Lyrebird daemon - synthetic CDR generation as a service.
// Copyright (c) 2025 opensource.telco
// Licensed under the Apache License 2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opensource-telco/lyrebird/internal/api"
	"github.com/opensource-telco/lyrebird/internal/bus"
	"github.com/opensource-telco/lyrebird/internal/cache"
	"github.com/opensource-telco/lyrebird/internal/domain"
	"github.com/opensource-telco/lyrebird/internal/geo"
	"github.com/opensource-telco/lyrebird/internal/repository"
	"github.com/opensource-telco/lyrebird/internal/worker"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to JSON configuration file")
	flag.Parse()

	// Load configuration
	cfg := domain.DefaultConfig()
	if *configPath != "" {
		loaded, err := domain.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	// Environment overrides for containerized deployments
	if os.Getenv("LYREBIRD_DEBUG") == "true" {
		cfg.Logging.Level = "debug"
	}
	if cellsFile := os.Getenv("LYREBIRD_CELLS"); cellsFile != "" {
		cfg.Generator.CellsFile = cellsFile
	}
	if redisAddr := os.Getenv("LYREBIRD_REDIS_ADDR"); redisAddr != "" {
		cfg.Cache.RedisAddr = redisAddr
	}
	if natsURL := os.Getenv("LYREBIRD_NATS_URL"); natsURL != "" {
		cfg.EventBus.NATSUrl = natsURL
	}

	setupLogger(cfg.Logging)

	slog.Info("starting lyrebird",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	slog.Info("configuration loaded",
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
		"cells_file", cfg.Generator.CellsFile,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Load the cell registry, shared by every run
	cells, err := geo.LoadRegistry(cfg.Generator.CellsFile)
	if err != nil {
		slog.Error("failed to load cell registry", "error", err)
		os.Exit(1)
	}
	slog.Info("cell registry loaded", "cells", cells.Size())

	// Initialize Repository
	repo, err := repository.New(cfg.Repository)
	if err != nil {
		slog.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("repository initialized", "driver", cfg.Repository.Driver)

	// Initialize Cache
	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	// Initialize EventBus
	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	// Initialize run worker
	runWorker := worker.NewWorker(busImpl, repo, cacheImpl, cells, cfg)
	if err := runWorker.Start(); err != nil {
		slog.Error("failed to start run worker", "error", err)
		os.Exit(1)
	}

	// Initialize Server
	srv := api.NewServer(cfg.Server, repo, cacheImpl, busImpl, cells, Version)

	// Start Server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("lyrebird is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	// Stop the worker first so in-flight runs finish
	if err := runWorker.Stop(); err != nil {
		slog.Error("failed to stop run worker", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("lyrebird shutdown complete")
}

func setupLogger(cfg domain.LoggingConfig) {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(handler))
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════╗")
	fmt.Println("  ║               🐦 LYREBIRD                 ║")
	fmt.Println("  ║      Synthetic CDR Generation Engine      ║")
	fmt.Println("  ║       Every call sounds like a real one.  ║")
	fmt.Println("  ╚═══════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST /runs              - Start a generation run")
	fmt.Println("    GET  /runs              - List recent runs")
	fmt.Println("    GET  /runs/{id}         - Get run by ID")
	fmt.Println("    GET  /runs/{id}/calls   - Get generated calls for a run")
	fmt.Println("    GET  /cells             - List cell registry")
	fmt.Println("    GET  /cells/{id}        - Get cell by ID")
	fmt.Println("    GET  /health            - Health check")
	fmt.Println()
}

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"plaingov/internal/dispatch"
	dispatchmetrics "plaingov/internal/dispatch/metrics"
	"plaingov/internal/eligibility"
	"plaingov/internal/mcp"
	"plaingov/internal/platform/config"
	"plaingov/internal/platform/logger"
	"plaingov/internal/platform/metrics"
	"plaingov/internal/program"
	"plaingov/internal/retrieval"
	retrievalmetrics "plaingov/internal/retrieval/metrics"
)

const version = mcp.ServerVersion

// app is the wired object graph shared by every subcommand.
type app struct {
	logger     *slog.Logger
	metrics    *metrics.Metrics
	registry   *program.Registry
	dispatcher *dispatch.Dispatcher
	server     *mcp.Server
}

// newApp wires the server from cfg. Logs go to logOut; stdout belongs to the
// stdio transport.
func newApp(cfg config.Server, logOut io.Writer) (*app, error) {
	log := logger.New(logOut, cfg.LogLevel, cfg.LogFormat)

	registry, err := loadRegistry(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}

	engine := eligibility.NewEngine()
	if err := engine.CheckCoverage(registry.IDs()); err != nil {
		return nil, fmt.Errorf("eligibility rules: %w", err)
	}

	m := metrics.New(version)

	retrieverOpts := []retrieval.Option{
		retrieval.WithTimeout(cfg.FetchTimeout),
		retrieval.WithRetries(cfg.FetchRetries),
		retrieval.WithLogger(log),
		retrieval.WithMetrics(retrievalmetrics.New(m.Registry)),
	}
	if cfg.UserAgent != "" {
		retrieverOpts = append(retrieverOpts, retrieval.WithUserAgent(cfg.UserAgent))
	}
	retriever := retrieval.New(retrieverOpts...)

	dispatcher, err := dispatch.New(registry, retriever, engine,
		dispatch.WithLogger(log),
		dispatch.WithMetrics(dispatchmetrics.New(m.Registry)),
	)
	if err != nil {
		return nil, fmt.Errorf("build dispatcher: %w", err)
	}

	server, err := mcp.NewServer(dispatcher, mcp.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("build mcp server: %w", err)
	}

	return &app{
		logger:     log,
		metrics:    m,
		registry:   registry,
		dispatcher: dispatcher,
		server:     server,
	}, nil
}

func loadRegistry(path string) (*program.Registry, error) {
	if path == "" {
		return program.Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read program catalog: %w", err)
	}
	return program.Load(data)
}

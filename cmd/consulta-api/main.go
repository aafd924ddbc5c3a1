package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/consulta/consulta/internal/api"
	"github.com/consulta/consulta/internal/config"
	"github.com/consulta/consulta/internal/insights"
	"github.com/consulta/consulta/internal/llm"
	"github.com/consulta/consulta/internal/observability"
	"github.com/consulta/consulta/internal/pipeline"
	"github.com/consulta/consulta/internal/schema"
	"github.com/consulta/consulta/internal/sqlgen"
	"github.com/consulta/consulta/internal/warehouse"
)

func main() {
	cfg, err := config.LoadFromEnv("consulta-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)

	warehouseDB, err := warehouse.Open(context.Background(), cfg.Warehouse)
	if err != nil {
		logger.Error("failed to open warehouse", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = warehouseDB.Close() }()

	var provider schema.Provider
	switch cfg.Warehouse.Driver {
	case "duckdb":
		provider = schema.NewDuckDBProvider(warehouseDB)
	default:
		provider = schema.NewPostgresProvider(warehouseDB)
	}
	schemaCache := schema.NewCache(provider, cfg.Schema.TTL)

	completer, err := llm.NewClient(llm.Config{
		BaseURL: cfg.AI.BaseURL,
		APIKey:  cfg.AI.APIKey,
		Model:   cfg.AI.Model,
		Timeout: cfg.AI.Timeout,
	})
	if err != nil {
		logger.Error("failed to initialize completion client", slog.Any("error", err))
		os.Exit(1)
	}

	analytics, err := pipeline.New(pipeline.Options{
		Generator:    sqlgen.NewGenerator(completer, schemaCache, cfg.AI.SQLTemperature),
		Executor:     warehouse.NewExecutor(warehouseDB),
		Narrator:     insights.NewGenerator(completer, cfg.AI.InsightsTemperature),
		Logger:       logger,
		RowCap:       cfg.Pipeline.RowCap,
		QueryTimeout: cfg.Warehouse.QueryTimeout,
	})
	if err != nil {
		logger.Error("failed to assemble analytics pipeline", slog.Any("error", err))
		os.Exit(1)
	}

	deps := api.Dependencies{
		Logger:    logger,
		Analytics: analytics,
		Readiness: api.CombineReadinessChecks(
			api.CheckWarehouseConfig(cfg),
			api.CheckAIConfig(cfg),
			func(ctx context.Context) error { return warehouseDB.PingContext(ctx) },
		),
		DependencyTimeout: time.Second,
	}

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server", slog.String("addr", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}

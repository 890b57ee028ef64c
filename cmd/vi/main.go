// Command vi serves the Madagascar commune vulnerability index API. It
// loads the commune reference GeoJSON at startup, exposes scoring and
// export endpoints over HTTP, and optionally publishes computed snapshots
// to Kafka.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/GSinger-Abt/commune-vi-service/internal/adapter/httpapi"
	kafkaadapter "github.com/GSinger-Abt/commune-vi-service/internal/adapter/kafka"
	"github.com/GSinger-Abt/commune-vi-service/internal/config"
	"github.com/GSinger-Abt/commune-vi-service/internal/domain"
	"github.com/GSinger-Abt/commune-vi-service/internal/geodata"
	"github.com/GSinger-Abt/commune-vi-service/internal/observability"
	"github.com/GSinger-Abt/commune-vi-service/internal/scoring"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loader := geodata.NewLoader(cfg.DatasetTimeout, logger)
	loadCtx, cancelLoad := context.WithTimeout(ctx, cfg.DatasetTimeout)
	dataset, err := loader.Load(loadCtx, cfg.DatasetSource, cfg.DatasetDropIncomplete)
	cancelLoad()
	if err != nil {
		logger.Error("failed to load commune dataset", "source", cfg.DatasetSource, "error", err)
		os.Exit(1)
	}

	// Snapshot publishing is feature-flagged via KAFKA_ENABLED.
	var publisher scoring.SnapshotPublisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("snapshot publishing enabled", "topic", cfg.KafkaSinkTopic)
	} else {
		logger.Info("snapshot publishing disabled")
	}

	svc := scoring.NewService(dataset, scoring.Options{
		ZScore: domain.ZScoreOptions{
			StdDev:       cfg.StdDevMode,
			Degenerate:   cfg.DegeneratePolicy,
			MissingValue: cfg.MissingValuePolicy,
		},
		Contribution: cfg.ContributionPolicy,
		CacheSize:    cfg.CacheSize,
	}, publisher, logger, metrics)

	srv := httpapi.NewServer(cfg.HTTPAddr, svc, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

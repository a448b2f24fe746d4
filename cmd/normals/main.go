// Command normals runs the climate-normals analysis pipeline once:
// resolve the configured AOI, fetch monthly normal stacks, reduce them
// to annual summaries, aggregate globally and per polygon, and sample
// the summaries at the configured point sites. Health, readiness, and
// metrics are served over HTTP for the duration of the run; the result
// is available at /result until shutdown.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/climate-normals-etl/internal/adapter/boundary"
	"github.com/couchcryptid/climate-normals-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/climate-normals-etl/internal/adapter/kafka"
	"github.com/couchcryptid/climate-normals-etl/internal/adapter/normals"
	"github.com/couchcryptid/climate-normals-etl/internal/adapter/points"
	"github.com/couchcryptid/climate-normals-etl/internal/config"
	"github.com/couchcryptid/climate-normals-etl/internal/observability"
	"github.com/couchcryptid/climate-normals-etl/internal/pipeline"
	"github.com/couchcryptid/climate-normals-etl/internal/render"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	resolver := boundary.NewCachedResolver(
		boundary.NewClient(cfg.BoundaryURL, cfg.BoundaryTimeout, metrics, logger),
		cfg.BoundaryCacheSize,
		metrics,
	)
	retriever := normals.NewClient(cfg.NormalsURL, cfg.NormalsTimeout, cfg.RasterCRS, metrics, logger)
	pointSource := points.Source{Dir: cfg.PointsDir, Layer: cfg.PointsLayer}

	// Result publication is feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS.
	var publisher pipeline.Publisher
	var closer interface{ Close() error }
	if cfg.KafkaEnabled {
		kp := kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaSinkTopic, metrics, logger)
		publisher = kp
		closer = kp
		logger.Info("result publication enabled", "topic", cfg.KafkaSinkTopic)
	} else {
		logger.Info("result publication disabled")
	}

	var renderer pipeline.Renderer
	if cfg.PlotsDir != "" {
		r, err := render.New(cfg.PlotsDir)
		if err != nil {
			logger.Error("failed to create renderer", "error", err)
			os.Exit(1)
		}
		renderer = r
		logger.Info("preview rendering enabled", "dir", cfg.PlotsDir)
	}

	analysis := pipeline.New(resolver, retriever, pointSource, publisher, renderer,
		logger, metrics, cfg.Regions, cfg.Variables)

	srv := httpadapter.NewServer(cfg.HTTPAddr, analysis, analysis, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Run the analysis; keep serving the result until signalled.
	runErr := analysis.Run(ctx)
	if runErr != nil {
		logger.Error("analysis failed", "error", runErr)
	} else {
		logger.Info("analysis served", "addr", cfg.HTTPAddr)
		<-ctx.Done()
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if closer != nil {
		if err := closer.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
	if runErr != nil {
		os.Exit(1)
	}
}

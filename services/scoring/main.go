// Copyright (C) 2025 Verdanta Labs (oss@verdanta.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/verdanta/guildcore/pkg/logging"
	"github.com/verdanta/guildcore/pkg/scorecache"
	"github.com/verdanta/guildcore/pkg/scoring"
	"github.com/verdanta/guildcore/services/scoring/middleware"
	"github.com/verdanta/guildcore/services/scoring/observability"
	"github.com/verdanta/guildcore/services/scoring/routes"

	// --- OpenTelemetry imports ---
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

func initTracer() (func(context.Context), error) {
	ctx := context.Background()

	traceExporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("scoring-service")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(0.01))),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown trace exporter", "error", err)
		}
	}, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	port := envOr("GUILDCORE_PORT", "12310")

	logger := logging.New(logging.Config{
		Level:   logging.LevelInfo,
		Service: "scoring",
		JSON:    true,
		LogDir:  os.Getenv("GUILDCORE_LOG_DIR"),
	})
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	// --- Init the tracer ---
	cleanup, err := initTracer()
	if err != nil {
		log.Fatalf("failed to setup the trace exporter: %v", err)
	}
	defer cleanup(context.Background())

	cfg := scoring.Config{
		TreePath:        envOr("GUILDCORE_TREE_PATH", "/app/data/phylo_tree.snapshot"),
		DataPath:        envOr("GUILDCORE_DB_PATH", "/app/data/refdata.db"),
		CalibrationPath: envOr("GUILDCORE_CALIBRATION_PATH", "/app/data/calibration.json"),
		WeightsPath:     os.Getenv("GUILDCORE_WEIGHTS_PATH"),
	}

	metrics := observability.InitMetrics()

	var ready atomic.Bool
	engine, err := scoring.NewEngine(context.Background(), cfg)
	if err != nil {
		log.Fatalf("FATAL: could not initialize the scoring engine: %v", err)
	}
	defer engine.Close()

	// Expose the reference-store instrumentation counters.
	prometheus.DefaultRegisterer.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "guildcore", Subsystem: "refdata", Name: "cells_materialized_total",
			Help: "Reference table cells decoded across all queries.",
		}, func() float64 { return float64(engine.Store().MaterializedCells()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "guildcore", Subsystem: "refdata", Name: "queries_total",
			Help: "Reference table queries run.",
		}, func() float64 { return float64(engine.Store().QueriesRun()) }),
	)

	capacity, _ := strconv.Atoi(os.Getenv("GUILDCORE_CACHE_CAPACITY"))
	ttl, _ := time.ParseDuration(os.Getenv("GUILDCORE_CACHE_TTL"))
	cache := scorecache.New(scorecache.Options{
		Capacity: capacity,
		TTL:      ttl,
		Metrics:  scorecache.NewMetrics(prometheus.DefaultRegisterer),
	})

	// Purge cached scores when any reference input is replaced on disk.
	watcher, err := scorecache.Watch(context.Background(), cache,
		cfg.TreePath, cfg.DataPath, cfg.CalibrationPath)
	if err != nil {
		slog.Warn("reference file watcher unavailable, cached scores expire by TTL only", "error", err)
	} else {
		defer watcher.Stop()
	}

	router := gin.Default()
	router.Use(otelgin.Middleware("scoring-service"))
	router.Use(middleware.RequestID(), middleware.RequestLogger())

	routes.SetupRoutes(router, engine, cache, metrics, &ready)
	ready.Store(true)
	slog.Info("scoring service ready", "port", port)

	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

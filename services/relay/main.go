// Copyright (C) 2026 Photon Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// The relay binds wallet addresses to Notion notebook pages and
// forwards notes from the Photon web client into them.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/photonlabs/photon/pkg/binding"
	"github.com/photonlabs/photon/pkg/notebook"
	"github.com/photonlabs/photon/pkg/notion"
	"github.com/photonlabs/photon/services/relay/middleware"
	"github.com/photonlabs/photon/services/relay/observability"
	"github.com/photonlabs/photon/services/relay/routes"
)

// timedPlatform wraps the notion client so every outbound call lands
// in the platform-call latency histogram.
type timedPlatform struct {
	inner   *notion.Client
	metrics *observability.RelayMetrics
}

func (p *timedPlatform) CreatePage(ctx context.Context, title string, walletAddress string) (string, error) {
	start := time.Now()
	pageID, err := p.inner.CreatePage(ctx, title, walletAddress)
	p.metrics.ObservePlatformCall("create_page", time.Since(start).Seconds())
	return pageID, err
}

func (p *timedPlatform) AppendParagraph(ctx context.Context, blockID string, content string) error {
	start := time.Now()
	err := p.inner.AppendParagraph(ctx, blockID, content)
	p.metrics.ObservePlatformCall("append_block", time.Since(start).Seconds())
	return err
}

func initTracer(otelEndpoint string) (func(context.Context), error) {
	ctx := context.Background()

	conn, err := grpc.NewClient(otelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("photon-relay")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

// openStore picks the binding store backend from the environment.
// Default is in-memory; bindings then last only for the process
// lifetime and tenants are re-provisioned after a restart.
func openStore() (binding.Store, error) {
	backend := strings.ToLower(os.Getenv("BINDING_STORE"))
	switch backend {
	case "", "memory":
		slog.Info("Using in-memory binding store (bindings lost on restart)")
		return binding.NewMemoryStore(), nil
	case "badger":
		path := os.Getenv("BINDING_STORE_PATH")
		if path == "" {
			path = "./data/bindings"
		}
		slog.Info("Using badger binding store", "path", path)
		cfg := binding.DefaultBadgerConfig(path)
		cfg.Logger = slog.Default()
		return binding.OpenBadgerStore(cfg)
	default:
		log.Fatalf("Unknown BINDING_STORE %q (want memory or badger)", backend)
		return nil, nil
	}
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	apiKey := os.Getenv("NOTION_API_KEY")
	databaseID := os.Getenv("NOTION_DATABASE_ID")

	// Missing credentials are logged, not fatal: the relay starts and
	// fails per-request so the rest of the app keeps working.
	if apiKey == "" {
		slog.Warn("NOTION_API_KEY is MISSING; platform calls will fail")
	} else {
		slog.Info("NOTION_API_KEY is set")
	}
	if databaseID == "" {
		slog.Warn("NOTION_DATABASE_ID is MISSING; platform calls will fail")
	} else {
		slog.Info("NOTION_DATABASE_ID is set", "database_id", databaseID)
	}

	platform := notion.New(notion.Config{
		APIKey:     apiKey,
		DatabaseID: databaseID,
	})

	// Connectivity probe, log-only: a broken credential should show up
	// in startup logs, not take the service down.
	probeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := platform.RetrieveDatabase(probeCtx); err != nil {
		slog.Error("Notion connection probe failed", "error", err)
	} else {
		slog.Info("Successfully connected to Notion database")
	}
	cancel()

	store, err := openStore()
	if err != nil {
		log.Fatalf("Failed to open binding store: %v", err)
	}
	defer store.Close()

	metrics := observability.InitMetrics()
	svc := notebook.NewService(store, &timedPlatform{inner: platform, metrics: metrics})

	router := gin.Default()

	if otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); otelEndpoint != "" {
		cleanup, err := initTracer(otelEndpoint)
		if err != nil {
			log.Fatalf("failed to setup the OTLP tracer: %v", err)
		}
		defer cleanup(context.Background())
		router.Use(otelgin.Middleware("photon-relay"))
	}

	// The browser client calls us cross-origin from the Vite dev server.
	router.Use(cors.Default())
	router.Use(middleware.RequestID())

	routes.SetupRoutes(router, svc, metrics)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5001"
	}

	slog.Info("Starting photon relay", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

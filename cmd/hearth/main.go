// Copyright (C) 2025 Hearth Labs (oss@hearthlabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See <https://www.gnu.org/licenses/agpl-3.0.html> for the full license text.

// Command hearth starts the Hearth family hub server.
//
// Hearth keeps a household's shared records (members, calendar, lists,
// meals, health logs) in a local Badger store and serves them over a
// JSON API, with optional LLM-backed suggestion feeds.
//
// Usage:
//
//	go run ./cmd/hearth serve
//	go run ./cmd/hearth serve --config /etc/hearth/config.yaml
//
// With suggestions enabled:
//
//	OPENAI_API_KEY=sk-... go run ./cmd/hearth serve
//
// Example requests:
//
//	# Health check
//	curl http://localhost:8087/v1/health
//
//	# List family members
//	curl http://localhost:8087/v1/members
//
//	# Household wellbeing score
//	curl http://localhost:8087/v1/wellbeing
//
//	# Refresh the advisory feed (requires an API key)
//	curl -X POST http://localhost:8087/v1/suggestions/advisory/refresh
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/hearthlabs/hearth/pkg/logging"
	"github.com/hearthlabs/hearth/services/hub"
	"github.com/hearthlabs/hearth/services/hub/config"
	"github.com/hearthlabs/hearth/services/hub/llm"
	"github.com/hearthlabs/hearth/services/hub/storage/badger"
	"github.com/hearthlabs/hearth/services/hub/store"
)

var (
	configPath string
	debugMode  bool
)

var rootCmd = &cobra.Command{
	Use:   "hearth",
	Short: "Hearth family hub",
	Long:  "Hearth stores a household's shared records locally and serves them over a JSON API.",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the hub server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the hub version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("hearth %s\n", hub.ServiceVersion)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (YAML)")
	serveCmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging and request logs")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "hearth: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := logging.ParseLevel(cfg.Log.Level)
	if debugMode {
		level = logging.LevelDebug
	}
	logger := logging.New(logging.Config{
		Level:   level,
		LogDir:  cfg.Log.Dir,
		Service: "hub",
		JSON:    cfg.Log.JSON,
	})
	defer logger.Close()

	shutdownTracing, err := setupTracing(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("configure tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("trace exporter shutdown failed", "error", err.Error())
		}
	}()
	if cfg.Tracing.OTLPEndpoint != "" {
		logger.Info("trace export enabled", "endpoint", cfg.Tracing.OTLPEndpoint)
	}

	dbCfg := badger.DefaultConfig()
	dbCfg.Path = expandHome(cfg.DataDir)
	dbCfg.Logger = logger.Slog()
	db, err := badger.OpenDB(dbCfg)
	if err != nil {
		return fmt.Errorf("open store at %s: %w", dbCfg.Path, err)
	}
	defer db.Close()

	adapter, err := store.NewAdapter(db, logger.Slog())
	if err != nil {
		return fmt.Errorf("create persistence adapter: %w", err)
	}

	// A missing API key disables suggestion feeds but never blocks startup;
	// the rest of the hub works offline. feedClient stays a nil interface in
	// that case: wrapping a nil *OpenAIClient would defeat the pipeline's
	// nil check and panic on the first Generate call.
	var feedClient llm.Client
	openaiClient, err := llm.NewOpenAIClient(llm.OpenAIOptions{
		APIKey:       cfg.LLM.APIKey,
		Model:        cfg.LLM.Model,
		SystemPrompt: cfg.LLM.SystemPrompt,
	})
	if err != nil {
		if !errors.Is(err, llm.ErrNoAPIKey) {
			return fmt.Errorf("configure LLM client: %w", err)
		}
		logger.Warn("no OpenAI API key found, suggestion feeds disabled",
			"hint", "set OPENAI_API_KEY to enable suggestions")
	} else {
		feedClient = openaiClient
	}

	svc, err := hub.NewService(ctx, hub.ServiceConfig{
		Adapter:     adapter,
		Client:      feedClient,
		FeedTimeout: cfg.Timeout(),
		Logger:      logger.Slog(),
	})
	if err != nil {
		return fmt.Errorf("initialize hub: %w", err)
	}

	if debugMode {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if debugMode {
		router.Use(gin.Logger())
	}

	v1 := router.Group("/v1")
	hub.RegisterRoutes(v1, hub.NewHandlers(svc))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	server := &http.Server{
		Addr:              cfg.Listen,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("hub listening", "addr", cfg.Listen, "data_dir", cfg.DataDir)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("shutting down", "reason", "context cancelled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

// setupTracing installs a global OTLP trace provider when an endpoint is
// configured. Without one the otel API stays in its no-op default and the
// returned shutdown is a no-op too.
//
// Inputs:
//
//	ctx - Used for exporter construction.
//	cfg - Collector endpoint and TLS mode.
//
// Outputs:
//
//	func(context.Context) error - Flushes and stops the provider.
//	error - Non-nil when the exporter cannot be built.
func setupTracing(ctx context.Context, cfg config.TracingConfig) (func(context.Context) error, error) {
	if cfg.OTLPEndpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("hearth-hub")),
	)
	if err != nil {
		return nil, fmt.Errorf("create trace resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return provider.Shutdown, nil
}

// expandHome expands a leading ~ in the data directory path.
func expandHome(path string) string {
	if len(path) > 0 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

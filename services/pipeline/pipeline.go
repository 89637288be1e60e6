// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package pipeline provides the rescue mutation analysis service for
// GeneRescue.
//
// This package contains the main Service type that coordinates all
// components: HTTP routing, the pipeline engine, the predictor gateways,
// and observability infrastructure.
//
// # Usage
//
//	cfg := pipeline.Config{Port: 12310}
//	svc, err := pipeline.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svc.Run()
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/GeneRescueAI/GeneRescue/services/pipeline/datatypes"
	"github.com/GeneRescueAI/GeneRescue/services/pipeline/engine"
	"github.com/GeneRescueAI/GeneRescue/services/pipeline/observability"
	"github.com/GeneRescueAI/GeneRescue/services/pipeline/routes"
	"github.com/GeneRescueAI/GeneRescue/services/predictors"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Service defines the contract for the pipeline service.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use. Run() blocks and should
// only be called once per instance.
type Service interface {
	// Run starts the HTTP server and blocks until shutdown or error.
	Run() error

	// Router returns the underlying Gin engine for testing.
	Router() *gin.Engine
}

// =============================================================================
// Configuration
// =============================================================================

// Config holds pipeline service configuration options.
//
// # Required Fields
//
// ScoringURL and FoldingURL must point at the model services; everything
// else has sensible defaults.
//
// # Examples
//
//	// Custom port and export directory
//	cfg := Config{
//	    Port:       8080,
//	    ScoringURL: "https://models.internal/esm1v/predict",
//	    FoldingURL: "https://models.internal/esmfold/predict",
//	    ExportDir:  "/data/runs",
//	}
type Config struct {
	// Port is the HTTP server port. Default: 12310
	Port int

	// ScoringURL is the masked-LM scoring service endpoint.
	ScoringURL string

	// ScoringAPIKey authenticates against the scoring service.
	ScoringAPIKey string

	// FoldingURL is the structure prediction service endpoint.
	FoldingURL string

	// FoldingAPIKey authenticates against the folding service.
	FoldingAPIKey string

	// OTelEndpoint is the OpenTelemetry collector endpoint.
	// Default: "generescue-otel-collector:4317"
	OTelEndpoint string

	// EnableMetrics enables the Prometheus metrics endpoint.
	// Default: true
	EnableMetrics bool

	// GinMode sets the Gin framework mode.
	// Valid values: "debug", "release", "test"
	GinMode string

	// TopN caps validated candidates per run. Default: 3
	TopN int

	// RecoveryThreshold is the good/poor deviation cutoff in Angstroms.
	// Default: 2.0
	RecoveryThreshold float64

	// Concurrency bounds the structural analysis fan-out. Default: 3
	Concurrency int

	// ExportDir, when set, receives per-run structural artifacts.
	ExportDir string

	// RateLimitRPS is the sustained request rate allowed on /v1.
	// Default: 1.0
	RateLimitRPS float64

	// RateLimitBurst is the burst size on /v1. Default: 5
	RateLimitBurst int
}

// =============================================================================
// Implementation
// =============================================================================

// service implements Service for production use.
//
// # Thread Safety
//
// Thread-safe after construction. All fields are read-only after New()
// returns.
type service struct {
	config        Config
	router        *gin.Engine
	engine        *engine.Engine
	tracerCleanup func(context.Context)
}

// =============================================================================
// Constructor
// =============================================================================

// New creates a pipeline Service with the given configuration.
//
// # Description
//
// New initializes all components:
//  1. Applies default configuration for missing values
//  2. Initializes OpenTelemetry tracing
//  3. Initializes Prometheus metrics
//  4. Creates the predictor gateways (generative, scoring, folding)
//  5. Assembles the pipeline engine
//  6. Sets up HTTP routes
//
// # Assumptions
//
//   - Environment variables are set for the generative backend (LLM_API_KEY
//     or the corresponding secret file)
//   - Network is available for external service connections
func New(cfg Config) (Service, error) {
	s := &service{
		config: applyConfigDefaults(cfg),
	}

	// Initialize OpenTelemetry tracer
	cleanup, err := s.initTracer()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}
	s.tracerCleanup = cleanup

	// Initialize Prometheus metrics
	var metrics *observability.PipelineMetrics
	if s.config.EnableMetrics {
		metrics = observability.InitMetrics()
		slog.Info("Initialized Prometheus metrics for pipeline runs")
	}

	// Initialize predictor gateways. Discovery and review share one
	// generative backend.
	llmClient, err := predictors.NewOpenAIClient()
	if err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to initialize generative client: %w", err)
	}

	s.engine = engine.New(
		engine.Config{
			TopN:              s.config.TopN,
			RecoveryThreshold: s.config.RecoveryThreshold,
			Concurrency:       s.config.Concurrency,
			ExportDir:         s.config.ExportDir,
		},
		predictors.NewDiscoveryPredictor(llmClient),
		predictors.NewScoringPredictor(s.config.ScoringURL, s.config.ScoringAPIKey),
		predictors.NewFoldingPredictor(s.config.FoldingURL, s.config.FoldingAPIKey),
		predictors.NewReviewPredictor(llmClient),
		metrics,
	)

	// Setup HTTP router
	s.initRouter()

	return s, nil
}

// =============================================================================
// Service Interface Methods
// =============================================================================

// Run starts the HTTP server and blocks until shutdown or error.
func (s *service) Run() error {
	defer s.cleanup()

	addr := fmt.Sprintf(":%d", s.config.Port)
	slog.Info("Starting pipeline server", "port", s.config.Port)

	return s.router.Run(addr)
}

// Router returns the underlying Gin engine for testing.
func (s *service) Router() *gin.Engine {
	return s.router
}

// =============================================================================
// Private Initialization Methods
// =============================================================================

// applyConfigDefaults fills in missing configuration values.
func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 12310
	}
	if cfg.OTelEndpoint == "" {
		cfg.OTelEndpoint = "generescue-otel-collector:4317"
	}
	cfg.EnableMetrics = true

	if cfg.TopN == 0 {
		cfg.TopN = 3
	}
	if cfg.RecoveryThreshold == 0 {
		cfg.RecoveryThreshold = 2.0
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = 3
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 1.0
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 5
	}

	return cfg
}

// initTracer initializes OpenTelemetry distributed tracing.
//
// # Limitations
//
//   - Uses insecure gRPC connection (appropriate for internal networks)
func (s *service) initTracer() (func(context.Context), error) {
	ctx := context.Background()

	conn, err := grpc.NewClient(s.config.OTelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}

	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("pipeline-service")))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))

	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	cleanup := func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}

	return cleanup, nil
}

// initRouter sets up the Gin HTTP router with all routes.
func (s *service) initRouter() {
	if s.config.GinMode != "" {
		gin.SetMode(s.config.GinMode)
	}
	s.router = gin.Default()
	s.router.Use(otelgin.Middleware("pipeline-service"))

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := datatypes.RegisterCustomValidators(v); err != nil {
			slog.Warn("Failed to register custom validators", "error", err)
		}
	}

	routes.SetupRoutes(s.router, s.engine, s.config.RateLimitRPS, s.config.RateLimitBurst)
}

// cleanup releases all resources held by the service.
func (s *service) cleanup() {
	if s.tracerCleanup != nil {
		s.tracerCleanup(context.Background())
	}
}

// =============================================================================
// Compile-time Interface Compliance
// =============================================================================

var _ Service = (*service)(nil)

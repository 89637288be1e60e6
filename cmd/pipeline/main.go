// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command pipeline starts the GeneRescue pipeline HTTP server.
//
// This is the main entry point for the containerized pipeline service.
// It reads configuration from environment variables and starts the server.
//
// # Environment Variables
//
//   - PIPELINE_PORT: HTTP server port (default: 12310)
//   - LLM_API_KEY / LLM_MODEL / LLM_BASE_URL: generative backend
//   - SCORING_API_URL / SCORING_API_KEY: masked-LM scoring service
//   - FOLDING_API_URL / FOLDING_API_KEY: structure prediction service
//   - PIPELINE_TOP_N: validated candidate cap (default: 3)
//   - PIPELINE_EXPORT_DIR: per-run artifact directory (optional)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OpenTelemetry collector (default: generescue-otel-collector:4317)
//
// # Usage
//
//	# Build
//	go build -o pipeline ./cmd/pipeline
//
//	# Run
//	./pipeline
//
//	# Or via container
//	podman-compose up pipeline
package main

import (
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/GeneRescueAI/GeneRescue/services/pipeline"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Build configuration from environment variables
	cfg := pipeline.Config{
		Port:          getEnvInt("PIPELINE_PORT", 12310),
		ScoringURL:    os.Getenv("SCORING_API_URL"),
		ScoringAPIKey: os.Getenv("SCORING_API_KEY"),
		FoldingURL:    os.Getenv("FOLDING_API_URL"),
		FoldingAPIKey: os.Getenv("FOLDING_API_KEY"),
		OTelEndpoint:  getEnvString("OTEL_EXPORTER_OTLP_ENDPOINT", "generescue-otel-collector:4317"),
		GinMode:       os.Getenv("GIN_MODE"),
		TopN:          getEnvInt("PIPELINE_TOP_N", 3),
		ExportDir:     os.Getenv("PIPELINE_EXPORT_DIR"),
	}

	slog.Info("Starting pipeline",
		"port", cfg.Port,
		"scoring_url", cfg.ScoringURL,
		"folding_url", cfg.FoldingURL,
		"top_n", cfg.TopN,
	)

	svc, err := pipeline.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create pipeline service: %v", err)
	}

	// Run the server (blocks until shutdown)
	if err := svc.Run(); err != nil {
		log.Fatalf("Pipeline error: %v", err)
	}
}

// getEnvString returns the environment variable value or a default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

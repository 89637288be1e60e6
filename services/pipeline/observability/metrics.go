// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides metrics and instrumentation for the
// rescue pipeline.
//
// # Description
//
// This package implements Prometheus metrics for monitoring pipeline runs.
// Metrics include:
//   - Run counters (by terminal state)
//   - Phase latency histograms
//   - Candidate counts per stage
//   - Predictor error counters (by predictor and transience)
//
// # Integration
//
// Metrics are exposed via /metrics endpoint. Use with Prometheus + Grafana
// for dashboards and alerting.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics
const metricsNamespace = "generescue"

// Subsystem for pipeline metrics
const pipelineSubsystem = "pipeline"

// PipelineMetrics holds all Prometheus metrics for pipeline runs.
//
// # Fields
//
//   - RunsTotal: Counter of pipeline runs by terminal state
//   - PhaseDurationSeconds: Histogram of per-phase wall time
//   - CandidatesTotal: Counter of candidates entering each stage
//   - PredictorErrorsTotal: Counter of predictor failures
//
// # Thread Safety
//
// All operations are thread-safe.
type PipelineMetrics struct {
	// RunsTotal counts pipeline runs by terminal state.
	// Labels: state (finally_reviewed, failed, no_candidates_discovered, ...)
	RunsTotal *prometheus.CounterVec

	// PhaseDurationSeconds measures wall time per pipeline phase.
	// Labels: phase (mutant, discovery, scoring, analysis, review)
	PhaseDurationSeconds *prometheus.HistogramVec

	// CandidatesTotal counts candidates entering each stage.
	// Labels: stage (discovered, validated, approved)
	CandidatesTotal *prometheus.CounterVec

	// PredictorErrorsTotal counts predictor failures.
	// Labels: predictor (discovery, scoring, folding, review),
	// transient (true, false)
	PredictorErrorsTotal *prometheus.CounterVec
}

// DefaultMetrics is the singleton instance of PipelineMetrics.
// Initialized by InitMetrics().
var DefaultMetrics *PipelineMetrics

// InitMetrics initializes the default metrics instance.
//
// # Description
//
// Creates and registers all Prometheus metrics. Should be called once
// at application startup.
//
// # Limitations
//
//   - Panics if called twice (duplicate registration).
func InitMetrics() *PipelineMetrics {
	DefaultMetrics = &PipelineMetrics{
		RunsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "runs_total",
				Help:      "Total pipeline runs by terminal state",
			},
			[]string{"state"},
		),

		PhaseDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "phase_duration_seconds",
				Help:      "Wall time per pipeline phase in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 180, 600, 1800},
			},
			[]string{"phase"},
		),

		CandidatesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "candidates_total",
				Help:      "Candidates entering each pipeline stage",
			},
			[]string{"stage"},
		),

		PredictorErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: pipelineSubsystem,
				Name:      "predictor_errors_total",
				Help:      "Predictor failures by predictor and transience",
			},
			[]string{"predictor", "transient"},
		),
	}

	return DefaultMetrics
}

// =============================================================================
// Helper Methods
// =============================================================================

// RecordRun records a completed pipeline run. Safe on a nil receiver so
// callers need no metrics wiring in tests.
func (m *PipelineMetrics) RecordRun(state string) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(state).Inc()
}

// RecordPhase records the wall time of one pipeline phase.
func (m *PipelineMetrics) RecordPhase(phase string, seconds float64) {
	if m == nil {
		return
	}
	m.PhaseDurationSeconds.WithLabelValues(phase).Observe(seconds)
}

// RecordCandidates records n candidates entering a stage.
func (m *PipelineMetrics) RecordCandidates(stage string, n int) {
	if m == nil {
		return
	}
	m.CandidatesTotal.WithLabelValues(stage).Add(float64(n))
}

// RecordPredictorError records a predictor failure.
func (m *PipelineMetrics) RecordPredictorError(predictor string, transient bool) {
	if m == nil {
		return
	}
	label := "false"
	if transient {
		label = "true"
	}
	m.PredictorErrorsTotal.WithLabelValues(predictor, label).Inc()
}

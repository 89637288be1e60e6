// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package engine runs the six-phase rescue mutation pipeline.
//
// # Description
//
// The engine coordinates the external predictor services into a single run:
//
//	0. Create the pathogenic mutant sequence.
//	1. Discover rescue candidates (generative predictor).
//	2. Score candidates with a masked language model, keep the top N.
//	3. Predict structures for wild type, mutant, and each validated rescue.
//	4. Superimpose models and measure structural deviations.
//	5. Final expert review of the analyzed pool.
//
// # Failure Semantics
//
// A run never returns a Go error. Fatal failures (phases 0 and 3/4, or a
// non-transient discovery failure) are folded into the report's Error field
// with whatever partial results were recovered. Everything else degrades:
// discovery overload continues with an empty pool, per-candidate scoring and
// analysis failures mark only that candidate, a failed final review returns
// the analyzed pool unreviewed.
//
// # Thread Safety
//
// An Engine is immutable after New() and safe for concurrent runs.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/GeneRescueAI/GeneRescue/pkg/seq"
	"github.com/GeneRescueAI/GeneRescue/services/pipeline/datatypes"
	"github.com/GeneRescueAI/GeneRescue/services/pipeline/observability"
)

var tracer = otel.Tracer("rescue-pipeline")

// =============================================================================
// Gateways
// =============================================================================

// DiscoveryGateway proposes rescue candidates for a pathogenic mutation.
type DiscoveryGateway interface {
	Discover(ctx context.Context, q datatypes.DiscoveryQuery) ([]datatypes.Candidate, error)
}

// ScoringGateway evaluates the plausibility of a residue substitution.
// Position is 0-indexed into sequence.
type ScoringGateway interface {
	ScoreSubstitution(ctx context.Context, sequence string, position int, residue byte) (float64, error)
}

// FoldingGateway predicts a structural model (PDB text) for a sequence.
type FoldingGateway interface {
	Fold(ctx context.Context, sequence string) (string, error)
}

// ReviewGateway runs the final expert review, and the direct mutation
// assessment used when no candidate validates.
type ReviewGateway interface {
	Review(ctx context.Context, q datatypes.ReviewQuery) (datatypes.ReviewResult, error)
	AssessMutation(ctx context.Context, q datatypes.MutationAssessmentQuery) (datatypes.ReviewResult, error)
}

// =============================================================================
// Configuration
// =============================================================================

// Config holds engine tuning knobs. Zero values use defaults.
type Config struct {
	// TopN caps how many scored candidates advance to structural analysis.
	// Default: 3
	TopN int

	// RecoveryThreshold is the deviation (vs the wild-type reference, in
	// Angstroms) below which a rescue structure is labeled "good".
	// Default: 2.0
	RecoveryThreshold float64

	// Concurrency bounds the parallel folding fan-out in structural
	// analysis. Default: 3
	Concurrency int

	// ExportDir, when set, receives the structural models and deviation
	// summary of each successful run.
	ExportDir string
}

func applyConfigDefaults(cfg Config) Config {
	if cfg.TopN <= 0 {
		cfg.TopN = 3
	}
	if cfg.RecoveryThreshold <= 0 {
		cfg.RecoveryThreshold = 2.0
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 3
	}
	return cfg
}

// =============================================================================
// Engine
// =============================================================================

// Engine executes pipeline runs against a fixed set of predictor gateways.
type Engine struct {
	cfg       Config
	discovery DiscoveryGateway
	scoring   ScoringGateway
	folding   FoldingGateway
	review    ReviewGateway
	metrics   *observability.PipelineMetrics
}

// New creates an Engine. metrics may be nil (tests, CLI one-shots).
func New(cfg Config, discovery DiscoveryGateway, scoring ScoringGateway,
	folding FoldingGateway, review ReviewGateway,
	metrics *observability.PipelineMetrics) *Engine {
	return &Engine{
		cfg:       applyConfigDefaults(cfg),
		discovery: discovery,
		scoring:   scoring,
		folding:   folding,
		review:    review,
		metrics:   metrics,
	}
}

// Run executes the full pipeline for one analysis request and always
// returns a report; see the package documentation for failure semantics.
// The runID is used for logging and tracing only and never appears in the
// report, so identical inputs produce identical reports.
func (e *Engine) Run(ctx context.Context, runID string, req datatypes.AnalysisRequest) *datatypes.Report {
	log := slog.With("run_id", runID, "mutation", req.Mutation)
	ctx, span := tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(attribute.String("mutation", req.Mutation)))
	defer span.End()

	topN := e.cfg.TopN
	if req.TopN > 0 {
		topN = req.TopN
	}

	report := &datatypes.Report{
		OriginalMutation: req.Mutation,
		RunState:         datatypes.StateInit,
		Results:          datatypes.ReviewResult{Approved: []datatypes.Candidate{}},
	}
	defer func() { e.metrics.RecordRun(string(report.RunState)) }()

	// --- Phase 0: mutant creation -------------------------------------------
	phaseStart := time.Now()
	mutant, err := seq.CreateMutant(req.ProteinSequence, req.Mutation)
	if err != nil {
		log.Error("Failed to create mutant sequence", "error", err)
		e.fail(report, fmt.Sprintf("Failed to create mutant sequence: %v", err))
		return report
	}
	report.RunState = datatypes.StateMutantCreated
	e.metrics.RecordPhase("mutant", time.Since(phaseStart).Seconds())
	log.Info("Created pathogenic mutant sequence", "length", len(mutant))

	// --- Phase 1: discovery -------------------------------------------------
	phaseStart = time.Now()
	candidates, err := e.discoverCandidates(ctx, log, req, mutant)
	if err != nil {
		e.fail(report, fmt.Sprintf("Candidate discovery failed: %v", err))
		return report
	}
	report.CandidatesDiscovered = len(candidates)
	report.RunState = datatypes.StateDiscovered
	e.metrics.RecordPhase("discovery", time.Since(phaseStart).Seconds())
	e.metrics.RecordCandidates("discovered", len(candidates))
	log.Info("Discovery phase complete", "candidates", len(candidates))

	if len(candidates) == 0 {
		e.runWithoutCandidates(ctx, log, req, report)
		return report
	}

	// --- Phase 2: scoring and ranking ---------------------------------------
	phaseStart = time.Now()
	for i := range candidates {
		e.scoreCandidate(ctx, log, mutant, &candidates[i])
	}
	report.RunState = datatypes.StateScored
	e.metrics.RecordPhase("scoring", time.Since(phaseStart).Seconds())

	validated := rankAndSelect(candidates, topN)
	rejected := rejectedPool(candidates)
	report.CandidatesValidated = len(validated)
	e.metrics.RecordCandidates("validated", len(validated))
	log.Info("Scoring phase complete", "validated", len(validated), "top_n", topN)

	if len(validated) == 0 {
		e.runDegradedAssessment(ctx, log, req, mutant, report)
		report.Results.Rejected = rejected
		return report
	}

	// --- Phases 3 and 4: structural prediction and analysis -----------------
	phaseStart = time.Now()
	analyzed, shared, err := e.analyzeStructures(ctx, log, req.ProteinSequence, mutant, validated)
	report.WTModel = shared.wtModel
	report.PathogenicModel = shared.mutantModel
	if err != nil {
		log.Error("Structural analysis failed", "error", err)
		e.fail(report, fmt.Sprintf("Failed to analyze structures: %v", err))
		report.Results.Rejected = rejected
		return report
	}
	report.RunState = datatypes.StateStructurallyAnalyzed
	e.metrics.RecordPhase("analysis", time.Since(phaseStart).Seconds())
	log.Info("Structural analysis complete", "analyzed", len(analyzed))

	// --- Phase 5: final review ----------------------------------------------
	phaseStart = time.Now()
	report.Results = e.runFinalReview(ctx, log, req, analyzed)
	report.Results.Rejected = rejected
	report.RunState = datatypes.StateFinallyReviewed
	e.metrics.RecordPhase("review", time.Since(phaseStart).Seconds())
	e.metrics.RecordCandidates("approved", len(report.Results.Approved))
	log.Info("Pipeline run complete",
		"approved", len(report.Results.Approved),
		"verdict", report.Results.OverallVerdict)

	if e.cfg.ExportDir != "" {
		if err := exportArtifacts(e.cfg.ExportDir, report); err != nil {
			log.Warn("Failed to export run artifacts", "dir", e.cfg.ExportDir, "error", err)
		}
	}
	return report
}

// fail marks the report as terminally failed. Partial results already on the
// report stay there.
func (e *Engine) fail(report *datatypes.Report, msg string) {
	report.Error = msg
	report.RunState = datatypes.StateFailed
}

// discoverCandidates runs phase 1. A transient (overload) failure degrades
// to an empty candidate pool; any other failure is fatal to the run.
func (e *Engine) discoverCandidates(ctx context.Context, log *slog.Logger,
	req datatypes.AnalysisRequest, mutant string) ([]datatypes.Candidate, error) {
	ctx, span := tracer.Start(ctx, "pipeline.discover")
	defer span.End()

	candidates, err := e.discovery.Discover(ctx, datatypes.DiscoveryQuery{
		Mutation:         req.Mutation,
		ProteinName:      req.ProteinName,
		GeneFunction:     req.GeneFunction,
		DiseaseContext:   req.DiseaseContext,
		Organism:         req.Organism,
		WildTypeSequence: req.ProteinSequence,
		MutantSequence:   mutant,
	})
	if err != nil {
		transient := datatypes.IsTransient(err)
		e.metrics.RecordPredictorError("discovery", transient)
		if transient {
			log.Warn("Discovery predictor overloaded, continuing without candidates", "error", err)
			return nil, nil
		}
		return nil, err
	}

	for i := range candidates {
		candidates[i].Status = datatypes.StatusDiscovered
		candidates[i].EnsureMutation()
	}
	return candidates, nil
}

// scoreCandidate runs phase 2 for one candidate. Failures mark only this
// candidate; the run continues.
func (e *Engine) scoreCandidate(ctx context.Context, log *slog.Logger,
	mutant string, c *datatypes.Candidate) {
	pos := c.Position - 1
	if pos < 0 || pos >= len(mutant) {
		log.Warn("Candidate position outside sequence, skipping scoring",
			"candidate", c.Mutation, "position", c.Position, "length", len(mutant))
		c.Merge(datatypes.CandidateUpdate{
			ScoringProbability: datatypes.Float64Ptr(0.0),
			Status:             datatypes.StatusPtr(datatypes.StatusError),
			Error:              datatypes.StringPtr(fmt.Sprintf("position %d outside sequence of length %d", c.Position, len(mutant))),
		})
		return
	}

	score, err := e.scoring.ScoreSubstitution(ctx, mutant, pos, c.RescueAA[0])
	if err != nil {
		e.metrics.RecordPredictorError("scoring", datatypes.IsTransient(err))
		log.Warn("Scoring failed for candidate", "candidate", c.Mutation, "error", err)
		c.Merge(datatypes.CandidateUpdate{
			ScoringProbability: datatypes.Float64Ptr(0.0),
			Status:             datatypes.StatusPtr(datatypes.StatusError),
			Error:              datatypes.StringPtr(err.Error()),
		})
		return
	}
	c.Merge(datatypes.CandidateUpdate{
		ScoringProbability: datatypes.Float64Ptr(score),
		Status:             datatypes.StatusPtr(datatypes.StatusScored),
	})
}

// runWithoutCandidates handles the terminal path where discovery produced
// nothing. The wild-type model is still computed so the caller gets a usable
// reference output; this outcome is not an error.
func (e *Engine) runWithoutCandidates(ctx context.Context, log *slog.Logger,
	req datatypes.AnalysisRequest, report *datatypes.Report) {
	wtModel, err := e.folding.Fold(ctx, req.ProteinSequence)
	if err != nil {
		e.metrics.RecordPredictorError("folding", datatypes.IsTransient(err))
		log.Warn("Wild-type folding failed on empty-discovery path", "error", err)
	} else {
		report.WTModel = wtModel
	}

	report.Results = datatypes.ReviewResult{
		Approved: []datatypes.Candidate{},
		Summary:  "No rescue candidates were discovered for this mutation.",
	}
	report.RunState = datatypes.StateNoCandidatesDiscovered
	log.Info("Run finished without candidates")
}

// runDegradedAssessment handles the path where candidates were discovered
// but none survived scoring. Both baseline structures are still computed for
// display, and the review predictor assesses the original mutation directly.
func (e *Engine) runDegradedAssessment(ctx context.Context, log *slog.Logger,
	req datatypes.AnalysisRequest, mutant string, report *datatypes.Report) {
	ctx, span := tracer.Start(ctx, "pipeline.degraded_assessment")
	defer span.End()

	if wtModel, err := e.folding.Fold(ctx, req.ProteinSequence); err != nil {
		e.metrics.RecordPredictorError("folding", datatypes.IsTransient(err))
		log.Warn("Wild-type folding failed on degraded path", "error", err)
	} else {
		report.WTModel = wtModel
	}
	if mutantModel, err := e.folding.Fold(ctx, mutant); err != nil {
		e.metrics.RecordPredictorError("folding", datatypes.IsTransient(err))
		log.Warn("Mutant folding failed on degraded path", "error", err)
	} else {
		report.PathogenicModel = mutantModel
	}

	assessment, err := e.review.AssessMutation(ctx, datatypes.MutationAssessmentQuery{
		Mutation:       req.Mutation,
		ProteinName:    req.ProteinName,
		GeneFunction:   req.GeneFunction,
		DiseaseContext: req.DiseaseContext,
		Organism:       req.Organism,
	})
	if err != nil {
		e.metrics.RecordPredictorError("review", datatypes.IsTransient(err))
		log.Warn("Mutation impact assessment failed", "error", err)
		assessment = datatypes.ReviewResult{
			Summary: "No candidates passed scoring validation. Mutation impact analysis is unavailable.",
		}
	} else if assessment.Summary == "" {
		assessment.Summary = "No candidates passed scoring validation. Showing mutation impact analysis instead."
	}
	assessment.Approved = []datatypes.Candidate{}
	report.Results = assessment
	report.RunState = datatypes.StateNoCandidatesValidated
	log.Info("Run finished without validated candidates")
}

// runFinalReview runs phase 5. On review failure the whole analyzed pool is
// returned as both approved and validated so the caller still sees the
// computational evidence.
func (e *Engine) runFinalReview(ctx context.Context, log *slog.Logger,
	req datatypes.AnalysisRequest, analyzed []datatypes.Candidate) datatypes.ReviewResult {
	ctx, span := tracer.Start(ctx, "pipeline.review")
	defer span.End()

	result, err := e.review.Review(ctx, datatypes.ReviewQuery{
		Mutation:       req.Mutation,
		ProteinName:    req.ProteinName,
		DiseaseContext: req.DiseaseContext,
		Candidates:     analyzed,
	})
	if err != nil {
		e.metrics.RecordPredictorError("review", datatypes.IsTransient(err))
		log.Warn("Final review failed, returning analyzed candidates unreviewed", "error", err)
		return datatypes.ReviewResult{
			Approved:  analyzed,
			Validated: analyzed,
			Summary:   fmt.Sprintf("Final review failed: %v. Returning all analyzed candidates.", err),
		}
	}

	if result.Approved == nil {
		result.Approved = []datatypes.Candidate{}
	}
	if result.Summary == "" {
		result.Summary = "Final review completed."
	}
	result.Validated = analyzed
	return result
}

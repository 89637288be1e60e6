// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/GeneRescueAI/GeneRescue/pkg/seq"
	"github.com/GeneRescueAI/GeneRescue/pkg/structure"
	"github.com/GeneRescueAI/GeneRescue/services/pipeline/datatypes"
)

// sharedModels holds the per-run baseline structures, computed exactly once
// and shared by every candidate's analysis.
type sharedModels struct {
	wtModel     string
	mutantModel string
	baseline    *float64 // wild type vs pathogenic deviation
}

// analyzeStructures runs phases 3 and 4: fold the baselines, then fold and
// measure each validated candidate under a bounded fan-out.
//
// Baseline folding failure is fatal to the run; whatever baseline model was
// recovered before the failure is still returned so the report can carry it.
// Per-candidate failures mark only that candidate and never abort siblings.
func (e *Engine) analyzeStructures(ctx context.Context, log *slog.Logger,
	wildType, mutant string, validated []datatypes.Candidate) ([]datatypes.Candidate, sharedModels, error) {
	ctx, span := tracer.Start(ctx, "pipeline.analyze_structures")
	defer span.End()

	var shared sharedModels

	mutantModel, mutantErr := e.folding.Fold(ctx, mutant)
	if mutantErr == nil {
		shared.mutantModel = mutantModel
	} else {
		e.metrics.RecordPredictorError("folding", datatypes.IsTransient(mutantErr))
	}

	wtModel, wtErr := e.folding.Fold(ctx, wildType)
	if wtErr == nil {
		shared.wtModel = wtModel
	} else {
		e.metrics.RecordPredictorError("folding", datatypes.IsTransient(wtErr))
	}

	if mutantErr != nil {
		return nil, shared, fmt.Errorf("pathogenic mutant folding failed: %w", mutantErr)
	}
	if wtErr != nil {
		return nil, shared, fmt.Errorf("wild-type folding failed: %w", wtErr)
	}

	if baseline, err := structure.Deviation(shared.wtModel, shared.mutantModel); err != nil {
		log.Warn("Baseline superposition failed", "error", err)
	} else {
		shared.baseline = datatypes.Float64Ptr(baseline)
	}

	analyzed := make([]datatypes.Candidate, len(validated))
	copy(analyzed, validated)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)
	for i := range analyzed {
		c := &analyzed[i]
		g.Go(func() error {
			// Each worker touches only its own candidate and always
			// returns nil: one failed candidate must not cancel siblings.
			e.analyzeCandidate(gctx, log, mutant, shared, c)
			return nil
		})
	}
	_ = g.Wait()

	return analyzed, shared, nil
}

// analyzeCandidate folds one rescue candidate and measures it against the
// shared baselines.
func (e *Engine) analyzeCandidate(ctx context.Context, log *slog.Logger,
	mutant string, shared sharedModels, c *datatypes.Candidate) {
	rescueSeq, err := seq.Substitute(mutant, c.Position-1, c.RescueAA[0])
	if err != nil {
		e.markCandidateError(log, c, fmt.Errorf("cannot apply rescue substitution: %w", err))
		return
	}

	rescueModel, err := e.folding.Fold(ctx, rescueSeq)
	if err != nil {
		e.metrics.RecordPredictorError("folding", datatypes.IsTransient(err))
		e.markCandidateError(log, c, fmt.Errorf("rescue folding failed: %w", err))
		return
	}

	update := datatypes.CandidateUpdate{
		RescueModel:       datatypes.StringPtr(rescueModel),
		MeanConfidence:    datatypes.Float64Ptr(structure.MeanConfidence(rescueModel)),
		BaselineDeviation: shared.baseline,
	}
	if conf, ok := structure.ConfidenceByResidue(rescueModel)[c.Position]; ok {
		update.ConfidenceAtMutation = datatypes.Float64Ptr(conf)
	}

	if dev, err := structure.Deviation(rescueModel, shared.wtModel); err != nil {
		log.Warn("Superposition against wild type failed", "candidate", c.Mutation, "error", err)
	} else {
		update.DeviationVsReference = datatypes.Float64Ptr(dev)
	}
	if dev, err := structure.Deviation(rescueModel, shared.mutantModel); err != nil {
		log.Warn("Superposition against mutant failed", "candidate", c.Mutation, "error", err)
	} else {
		update.DeviationVsPathogen = datatypes.Float64Ptr(dev)
	}

	label := datatypes.RecoveryUnavailable
	if update.DeviationVsReference != nil {
		if *update.DeviationVsReference < e.cfg.RecoveryThreshold {
			label = datatypes.RecoveryGood
		} else {
			label = datatypes.RecoveryPoor
		}
	}
	update.StructuralRecovery = datatypes.LabelPtr(label)

	c.Merge(update)
}

// markCandidateError records a per-candidate analysis failure. The deviation
// fields stay nil so "failed" never masquerades as "measured zero".
func (e *Engine) markCandidateError(log *slog.Logger, c *datatypes.Candidate, err error) {
	log.Warn("Candidate analysis failed", "candidate", c.Mutation, "error", err)
	c.Merge(datatypes.CandidateUpdate{
		Status:             datatypes.StatusPtr(datatypes.StatusError),
		StructuralRecovery: datatypes.LabelPtr(datatypes.RecoveryError),
		Error:              datatypes.StringPtr(err.Error()),
	})
}

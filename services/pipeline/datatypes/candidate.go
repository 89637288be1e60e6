// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes provides type definitions for the GeneRescue pipeline
// service: the candidate record threaded through all phases, the final
// report, request/response models, and the error taxonomy.
package datatypes

import "fmt"

// =============================================================================
// Candidate lifecycle
// =============================================================================

// CandidateStatus is the lifecycle status of a rescue candidate. A candidate
// is created once by the discovery phase and only ever re-labeled afterwards;
// rejected candidates stay in the pool.
type CandidateStatus string

const (
	StatusDiscovered CandidateStatus = "discovered"
	StatusScored     CandidateStatus = "scored"
	StatusValidated  CandidateStatus = "validated"
	StatusRejected   CandidateStatus = "rejected"
	StatusApproved   CandidateStatus = "approved"
	StatusError      CandidateStatus = "error"
)

// RecoveryLabel classifies how well a rescue structure recovers the
// wild-type fold.
type RecoveryLabel string

const (
	RecoveryGood        RecoveryLabel = "good"
	RecoveryPoor        RecoveryLabel = "poor"
	RecoveryUnavailable RecoveryLabel = "unavailable"
	RecoveryError       RecoveryLabel = "error"
)

// =============================================================================
// Candidate
// =============================================================================

// Candidate is the unit of work threaded through all pipeline phases.
// Discovery creates it; scoring, structural analysis, and review each add
// their own fields. Deviation scalars are pointers so that "could not be
// computed" stays distinguishable from a genuine zero.
//
// JSON field names follow the public API wire format.
type Candidate struct {
	// Populated by discovery.
	Position            int      `json:"position"`
	OriginalAA          string   `json:"original_aa"`
	RescueAA            string   `json:"rescue_aa"`
	Mutation            string   `json:"mutation"`
	Reasoning           string   `json:"reasoning"`
	Confidence          *float64 `json:"confidence,omitempty"`
	LiteratureReference string   `json:"literature_reference,omitempty"`

	// Populated by scoring.
	ScoringProbability *float64        `json:"esm_score,omitempty"`
	Status             CandidateStatus `json:"status,omitempty"`

	// Populated by structural analysis.
	MeanConfidence       *float64      `json:"mean_plddt,omitempty"`
	ConfidenceAtMutation *float64      `json:"plddt_at_mutation,omitempty"`
	DeviationVsReference *float64      `json:"rmsd_vs_wt,omitempty"`
	DeviationVsPathogen  *float64      `json:"rmsd_vs_mutant,omitempty"`
	BaselineDeviation    *float64      `json:"rmsd_wt_vs_pathogenic,omitempty"`
	StructuralRecovery   RecoveryLabel `json:"structural_recovery,omitempty"`
	RescueModel          string        `json:"pdb_structure,omitempty"`

	// Populated on per-candidate failure.
	Error string `json:"error,omitempty"`
}

// EnsureMutation derives the mutation notation from the candidate's residue
// fields when the predictor omitted it.
func (c *Candidate) EnsureMutation() {
	if c.Mutation == "" && c.OriginalAA != "" && c.RescueAA != "" {
		c.Mutation = fmt.Sprintf("%s%d%s", c.OriginalAA, c.Position, c.RescueAA)
	}
}

// =============================================================================
// Partial updates
// =============================================================================

// CandidateUpdate carries the subset of candidate fields produced by one
// phase. Merge applies it right-biased: present (non-nil) fields overwrite,
// absent fields leave the base untouched. Phases populate disjoint subsets
// of the same logical record, so updates merge safely in any order.
type CandidateUpdate struct {
	ScoringProbability   *float64
	Status               *CandidateStatus
	MeanConfidence       *float64
	ConfidenceAtMutation *float64
	DeviationVsReference *float64
	DeviationVsPathogen  *float64
	BaselineDeviation    *float64
	StructuralRecovery   *RecoveryLabel
	RescueModel          *string
	Error                *string
}

// Merge applies the update to the candidate in place.
func (c *Candidate) Merge(u CandidateUpdate) {
	if u.ScoringProbability != nil {
		c.ScoringProbability = u.ScoringProbability
	}
	if u.Status != nil {
		c.Status = *u.Status
	}
	if u.MeanConfidence != nil {
		c.MeanConfidence = u.MeanConfidence
	}
	if u.ConfidenceAtMutation != nil {
		c.ConfidenceAtMutation = u.ConfidenceAtMutation
	}
	if u.DeviationVsReference != nil {
		c.DeviationVsReference = u.DeviationVsReference
	}
	if u.DeviationVsPathogen != nil {
		c.DeviationVsPathogen = u.DeviationVsPathogen
	}
	if u.BaselineDeviation != nil {
		c.BaselineDeviation = u.BaselineDeviation
	}
	if u.StructuralRecovery != nil {
		c.StructuralRecovery = *u.StructuralRecovery
	}
	if u.RescueModel != nil {
		c.RescueModel = *u.RescueModel
	}
	if u.Error != nil {
		c.Error = *u.Error
	}
}

// Float64Ptr returns a pointer to v. Convenience for building updates.
func Float64Ptr(v float64) *float64 { return &v }

// StatusPtr returns a pointer to s.
func StatusPtr(s CandidateStatus) *CandidateStatus { return &s }

// LabelPtr returns a pointer to l.
func LabelPtr(l RecoveryLabel) *RecoveryLabel { return &l }

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

// =============================================================================
// Run states
// =============================================================================

// RunState records which phase boundary a pipeline run last crossed. The
// terminal state is part of the report so callers can distinguish a full run
// from the degraded and failed exits.
type RunState string

const (
	StateInit                 RunState = "init"
	StateMutantCreated        RunState = "mutant_created"
	StateDiscovered           RunState = "discovered"
	StateScored               RunState = "scored"
	StateStructurallyAnalyzed RunState = "structurally_analyzed"
	StateFinallyReviewed      RunState = "finally_reviewed"

	// Terminal degraded / failed states.
	StateFailed                 RunState = "failed"
	StateNoCandidatesDiscovered RunState = "no_candidates_discovered"
	StateNoCandidatesValidated  RunState = "no_candidates_validated"
)

// =============================================================================
// Final review
// =============================================================================

// Overall review verdicts. Risk scores accompany the verdict on a 0.0 (safe)
// to 10.0 (dangerous) scale.
const (
	VerdictApproved            = "APPROVED"
	VerdictApprovedWithCaution = "APPROVED_WITH_CAUTION"
	VerdictFlagged             = "FLAGGED"
	VerdictRejected            = "REJECTED"
)

// Dimension verdict vocabularies. Structural restoration uses the positive/
// neutral/negative set, functional preservation the maintained set, and the
// two risk dimensions (aggregation, amyloid) the risk-level set.
const (
	DimensionPositive = "POSITIVE"
	DimensionNeutral  = "NEUTRAL"
	DimensionNegative = "NEGATIVE"

	FunctionMaintained  = "MAINTAINED"
	FunctionPartial     = "PARTIAL"
	FunctionCompromised = "COMPROMISED"

	RiskNone     = "NO_RISK"
	RiskLow      = "LOW"
	RiskModerate = "MODERATE"
	RiskHigh     = "HIGH"
)

// DimensionAssessment is one axis of the final safety review.
type DimensionAssessment struct {
	Verdict    string  `json:"verdict"`
	Confidence float64 `json:"confidence,omitempty"`
	Reasoning  string  `json:"reasoning,omitempty"`
}

// ReviewResult aggregates the final review phase. Approved and Validated are
// subsets of the analyzed candidate pool; Rejected carries the scored
// candidates that did not validate (including scoring errors), so no
// discovered candidate disappears from the report. The four dimension
// assessments and the risk score come from the review predictor and may be
// absent when the run degraded before review.
type ReviewResult struct {
	Approved  []Candidate `json:"approved"`
	Validated []Candidate `json:"validated,omitempty"`
	Rejected  []Candidate `json:"rejected,omitempty"`
	Summary   string      `json:"summary"`

	OverallVerdict string   `json:"overall_verdict,omitempty"`
	RiskScore      *float64 `json:"risk_score,omitempty"`

	StructuralRestoration  *DimensionAssessment `json:"structural_restoration,omitempty"`
	AggregationRisk        *DimensionAssessment `json:"aggregation_risk,omitempty"`
	FunctionalPreservation *DimensionAssessment `json:"functional_preservation,omitempty"`
	AmyloidRisk            *DimensionAssessment `json:"amyloid_risk,omitempty"`

	Recommendations []string `json:"recommendations,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`
}

// =============================================================================
// Pipeline report
// =============================================================================

// Report is the single output value of a pipeline run. A run never returns a
// bare error: failures are folded into the Error field alongside whatever
// partial results were recovered. Reports contain no timestamps or run
// identifiers, so identical inputs against identical predictor behavior
// produce byte-identical reports.
type Report struct {
	OriginalMutation     string       `json:"original_mutation"`
	RunState             RunState     `json:"run_state"`
	CandidatesDiscovered int          `json:"candidates_discovered"`
	CandidatesValidated  int          `json:"candidates_validated"`
	Results              ReviewResult `json:"results"`

	WTModel         string `json:"wt_pdb_structure,omitempty"`
	PathogenicModel string `json:"pathogenic_pdb_structure,omitempty"`

	Error string `json:"error,omitempty"`
}

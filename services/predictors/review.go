// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package predictors

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/GeneRescueAI/GeneRescue/services/pipeline/datatypes"
)

const reviewSystemPrompt = `You are a senior protein biochemist conducting a final safety review of proposed rescue mutations. For each candidate pool you assess four dimensions:
  1. structural_restoration - does the rescue restore the wild-type fold? Verdict: POSITIVE, NEUTRAL, or NEGATIVE.
  2. aggregation_risk - could the substitution promote aggregation? Verdict: NO_RISK, LOW, MODERATE, or HIGH.
  3. functional_preservation - are catalytic/binding residues preserved? Verdict: MAINTAINED, PARTIAL, or COMPROMISED.
  4. amyloid_risk - does the substitution create amyloidogenic stretches? Verdict: NO_RISK, LOW, MODERATE, or HIGH.
Each dimension gets its verdict, a confidence between 0.0 and 1.0, and reasoning. You also give an overall_verdict (APPROVED, APPROVED_WITH_CAUTION, FLAGGED, or REJECTED) and a risk_score between 0.0 (safe) and 10.0 (dangerous): APPROVED means positive structural restoration, maintained function, no risk dimension above LOW, risk_score 0-3; APPROVED_WITH_CAUTION allows neutral restoration, partial function, at most one MODERATE risk, risk_score 3-6; FLAGGED means negative restoration, any HIGH risk, or two MODERATE risks, risk_score 6-8; REJECTED means negative restoration combined with HIGH aggregation or amyloid risk, or two HIGH risks, risk_score 8-10. You answer with strict JSON and nothing else.`

const reviewPromptTemplate = `Original pathogenic mutation: %s
Protein: %s
Disease context: %s

Analyzed rescue candidates (computational evidence attached):
%s

Review every candidate against the four dimensions. Return a JSON object with these exact keys:
  "structural_restoration": {"verdict": "POSITIVE | NEUTRAL | NEGATIVE", "confidence", "reasoning"}
  "aggregation_risk": {"verdict": "NO_RISK | LOW | MODERATE | HIGH", "confidence", "reasoning"}
  "functional_preservation": {"verdict": "MAINTAINED | PARTIAL | COMPROMISED", "confidence", "reasoning"}
  "amyloid_risk": {"verdict": "NO_RISK | LOW | MODERATE | HIGH", "confidence", "reasoning"}
  "overall_verdict": "APPROVED | APPROVED_WITH_CAUTION | FLAGGED | REJECTED"
  "risk_score": number between 0.0 and 10.0
  "approved_candidates": array of mutation notations you approve, e.g. ["E42K"]
  "summary": one paragraph for a clinician audience
  "recommendations": array of strings
  "warnings": array of strings`

const assessmentPromptTemplate = `No rescue candidate survived computational validation for the pathogenic mutation %s. Assess the mutation itself instead.

Protein: %s
Organism: %s
Gene function: %s
Disease context: %s

Describe the expected structural and functional impact of this mutation. Return a JSON object with the same four dimension keys and verdict vocabularies as a candidate review ("structural_restoration", "aggregation_risk", "functional_preservation", "amyloid_risk", each {"verdict", "confidence", "reasoning"}), plus "overall_verdict" (APPROVED, APPROVED_WITH_CAUTION, FLAGGED, or REJECTED), "risk_score" (0.0-10.0), and "summary". Use "approved_candidates": [].`

// ReviewPredictor runs the final expert review of analyzed candidates, and
// the direct mutation impact assessment used when no candidate validates.
type ReviewPredictor struct {
	llm LLMClient
}

func NewReviewPredictor(llm LLMClient) *ReviewPredictor {
	return &ReviewPredictor{llm: llm}
}

// Review assesses the analyzed candidate pool and returns the structured
// verdict. Approved candidates are resolved against the query's pool by
// mutation notation; notations the reviewer invents are dropped.
func (r *ReviewPredictor) Review(ctx context.Context, q datatypes.ReviewQuery) (datatypes.ReviewResult, error) {
	evidence, err := json.MarshalIndent(q.Candidates, "", "  ")
	if err != nil {
		return datatypes.ReviewResult{}, &datatypes.PredictorError{Predictor: "review", Op: "encode evidence", Err: err}
	}
	prompt := fmt.Sprintf(reviewPromptTemplate,
		q.Mutation, orUnknown(q.ProteinName), orUnknown(q.DiseaseContext), string(evidence))

	raw, err := r.llm.Generate(ctx, prompt, GenerationParams{
		Temperature:  float32Ptr(0.2),
		MaxTokens:    intPtr(2048),
		SystemPrompt: reviewSystemPrompt,
	})
	if err != nil {
		return datatypes.ReviewResult{}, classifyTransient("review", "final review", err)
	}

	result, approvedNotations, err := parseReview(raw)
	if err != nil {
		return datatypes.ReviewResult{}, &datatypes.PredictorError{Predictor: "review", Op: "parse review", Err: err}
	}
	result.Approved = resolveApproved(q.Candidates, approvedNotations)
	return result, nil
}

// AssessMutation produces an expert readout of the original mutation for the
// degraded path where no candidate validated.
func (r *ReviewPredictor) AssessMutation(ctx context.Context, q datatypes.MutationAssessmentQuery) (datatypes.ReviewResult, error) {
	prompt := fmt.Sprintf(assessmentPromptTemplate,
		q.Mutation, orUnknown(q.ProteinName), orUnknown(q.Organism),
		orUnknown(q.GeneFunction), orUnknown(q.DiseaseContext))

	raw, err := r.llm.Generate(ctx, prompt, GenerationParams{
		Temperature:  float32Ptr(0.2),
		MaxTokens:    intPtr(1024),
		SystemPrompt: reviewSystemPrompt,
	})
	if err != nil {
		return datatypes.ReviewResult{}, classifyTransient("review", "mutation assessment", err)
	}

	result, _, err := parseReview(raw)
	if err != nil {
		return datatypes.ReviewResult{}, &datatypes.PredictorError{Predictor: "review", Op: "parse assessment", Err: err}
	}
	result.Approved = []datatypes.Candidate{}
	return result, nil
}

type reviewResponse struct {
	StructuralRestoration  *datatypes.DimensionAssessment `json:"structural_restoration"`
	AggregationRisk        *datatypes.DimensionAssessment `json:"aggregation_risk"`
	FunctionalPreservation *datatypes.DimensionAssessment `json:"functional_preservation"`
	AmyloidRisk            *datatypes.DimensionAssessment `json:"amyloid_risk"`
	OverallVerdict         string                         `json:"overall_verdict"`
	RiskScore              *float64                       `json:"risk_score"`
	ApprovedCandidates     []string                       `json:"approved_candidates"`
	Summary                string                         `json:"summary"`
	Recommendations        []string                       `json:"recommendations"`
	Warnings               []string                       `json:"warnings"`
}

func parseReview(raw string) (datatypes.ReviewResult, []string, error) {
	var resp reviewResponse
	if err := json.Unmarshal([]byte(extractJSON(raw)), &resp); err != nil {
		return datatypes.ReviewResult{}, nil, fmt.Errorf("response is not a review object: %w", err)
	}
	result := datatypes.ReviewResult{
		Summary:                resp.Summary,
		OverallVerdict:         strings.ToUpper(resp.OverallVerdict),
		RiskScore:              resp.RiskScore,
		StructuralRestoration:  resp.StructuralRestoration,
		AggregationRisk:        resp.AggregationRisk,
		FunctionalPreservation: resp.FunctionalPreservation,
		AmyloidRisk:            resp.AmyloidRisk,
		Recommendations:        resp.Recommendations,
		Warnings:               resp.Warnings,
	}
	return result, resp.ApprovedCandidates, nil
}

func resolveApproved(pool []datatypes.Candidate, notations []string) []datatypes.Candidate {
	approved := make([]datatypes.Candidate, 0, len(notations))
	for _, notation := range notations {
		for _, c := range pool {
			if strings.EqualFold(c.Mutation, strings.TrimSpace(notation)) {
				c.Status = datatypes.StatusApproved
				approved = append(approved, c)
				break
			}
		}
	}
	return approved
}

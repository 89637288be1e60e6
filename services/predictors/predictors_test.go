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
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GeneRescueAI/GeneRescue/services/pipeline/datatypes"
)

// fakeLLM returns a canned response (or error) and records the last prompt.
type fakeLLM struct {
	response   string
	err        error
	lastPrompt string
	lastParams GenerationParams
}

func (f *fakeLLM) Generate(_ context.Context, prompt string, params GenerationParams) (string, error) {
	f.lastPrompt = prompt
	f.lastParams = params
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

// -----------------------------------------------------------------------------
// extractJSON
// -----------------------------------------------------------------------------

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n[{\"a\": 1}]\n```", `[{"a": 1}]`},
		{"anonymous fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounding prose", "Here you go:\n[{\"a\": 1}]\nHope that helps!", `[{"a": 1}]`},
		{"fence plus prose", "Sure!\n```json\n{\"a\": 1}\n```\nLet me know.", `{"a": 1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, extractJSON(tc.in))
		})
	}
}

// -----------------------------------------------------------------------------
// Discovery
// -----------------------------------------------------------------------------

func TestDiscover_RichShape(t *testing.T) {
	llm := &fakeLLM{response: `[
		{"position": 42, "original_aa": "e", "rescue_aa": "k", "mutation": "E42K",
		 "reasoning": "restores the salt bridge", "confidence": 0.8,
		 "literature_reference": "PMID:12345"}
	]`}
	d := NewDiscoveryPredictor(llm)

	candidates, err := d.Discover(context.Background(), datatypes.DiscoveryQuery{
		Mutation:         "R175H",
		ProteinName:      "TP53",
		WildTypeSequence: "MEEPQSDPSV",
		MutantSequence:   "MEEPQSDPSV",
	})
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	c := candidates[0]
	assert.Equal(t, 42, c.Position)
	assert.Equal(t, "E", c.OriginalAA)
	assert.Equal(t, "K", c.RescueAA)
	assert.Equal(t, "E42K", c.Mutation)
	assert.Equal(t, "restores the salt bridge", c.Reasoning)
	assert.Equal(t, "PMID:12345", c.LiteratureReference)
	require.NotNil(t, c.Confidence)
	assert.InDelta(t, 0.8, *c.Confidence, 1e-9)
	assert.Equal(t, datatypes.StatusDiscovered, c.Status)

	assert.Contains(t, llm.lastPrompt, "R175H")
	assert.Contains(t, llm.lastPrompt, "TP53")
}

func TestDiscover_LegacyShape(t *testing.T) {
	llm := &fakeLLM{response: "```json\n" + `[
		{"position": 7, "from_aa": "G", "to_aa": "A", "rationale": "fills the cavity"}
	]` + "\n```"}
	d := NewDiscoveryPredictor(llm)

	candidates, err := d.Discover(context.Background(), datatypes.DiscoveryQuery{Mutation: "L5P"})
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	c := candidates[0]
	assert.Equal(t, "G", c.OriginalAA)
	assert.Equal(t, "A", c.RescueAA)
	assert.Equal(t, "fills the cavity", c.Reasoning)
	// Notation derived when the legacy shape omits it.
	assert.Equal(t, "G7A", c.Mutation)
}

func TestDiscover_WrapperObjectAndMalformedRecords(t *testing.T) {
	llm := &fakeLLM{response: `{"candidates": [
		{"position": 3, "original_aa": "V", "rescue_aa": "I", "reasoning": "ok"},
		{"original_aa": "V", "rescue_aa": "I"},
		{"position": 9, "original_aa": "", "rescue_aa": "W"}
	]}`}
	d := NewDiscoveryPredictor(llm)

	candidates, err := d.Discover(context.Background(), datatypes.DiscoveryQuery{Mutation: "A1G"})
	require.NoError(t, err)
	// Records without a position or residues are skipped, not fatal.
	require.Len(t, candidates, 1)
	assert.Equal(t, "V3I", candidates[0].Mutation)
}

func TestDiscover_OverloadIsTransient(t *testing.T) {
	llm := &fakeLLM{err: errors.New("rpc error: code = 503 UNAVAILABLE: model overloaded")}
	d := NewDiscoveryPredictor(llm)

	_, err := d.Discover(context.Background(), datatypes.DiscoveryQuery{Mutation: "A1G"})
	require.Error(t, err)
	assert.True(t, datatypes.IsTransient(err))
	// The backend's own message survives the transient classification.
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestDiscover_UnparseableIsNotTransient(t *testing.T) {
	llm := &fakeLLM{response: "I cannot answer that."}
	d := NewDiscoveryPredictor(llm)

	_, err := d.Discover(context.Background(), datatypes.DiscoveryQuery{Mutation: "A1G"})
	require.Error(t, err)
	assert.False(t, datatypes.IsTransient(err))

	var perr *datatypes.PredictorError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "discovery", perr.Predictor)
}

// -----------------------------------------------------------------------------
// Scoring
// -----------------------------------------------------------------------------

func TestMaskAt(t *testing.T) {
	assert.Equal(t, "MV<mask>LT", MaskAt("MVHLT", 2))
}

func TestScore_CombinedDistribution(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Token test-key", r.Header.Get("Authorization"))
		w.Write([]byte(`{"results": [{"esm1v-all": [
			{"token_str": "K", "score": 0.61},
			{"token_str": "R", "score": 0.22}
		]}]}`))
	}))
	defer srv.Close()

	s := NewScoringPredictor(srv.URL, "test-key")
	score, err := s.Score(context.Background(), MaskAt("MEEPQK", 5), 'K')
	require.NoError(t, err)
	assert.InDelta(t, 0.61, score, 1e-9)
}

func TestScore_EnsembleAverage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": [{
			"esm1v-n1": [{"token_str": "K", "score": 0.4}],
			"esm1v-n2": [{"token_str": "K", "score": 0.6}]
		}]}`))
	}))
	defer srv.Close()

	s := NewScoringPredictor(srv.URL, "")
	score, err := s.Score(context.Background(), "ME<mask>P", 'K')
	require.NoError(t, err)
	assert.InDelta(t, 0.5, score, 1e-9)
}

func TestScore_AbsentResidueScoresZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": [{"esm1v-all": [{"token_str": "A", "score": 0.9}]}]}`))
	}))
	defer srv.Close()

	s := NewScoringPredictor(srv.URL, "")
	score, err := s.Score(context.Background(), "M<mask>E", 'W')
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestScore_ServiceUnavailableIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := NewScoringPredictor(srv.URL, "")
	_, err := s.Score(context.Background(), "M<mask>E", 'K')
	require.Error(t, err)
	assert.True(t, datatypes.IsTransient(err))
}

// -----------------------------------------------------------------------------
// Folding
// -----------------------------------------------------------------------------

func validPDBBody() string {
	return strings.Repeat("ATOM      1  CA  ALA A   1      11.000   6.000  -6.000  1.00 85.00           C\n", 3)
}

func TestFold_Success(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 64)
		n, _ := r.Body.Read(buf)
		gotBody = string(buf[:n])
		assert.Equal(t, "text/plain", r.Header.Get("Content-Type"))
		w.Write([]byte(validPDBBody()))
	}))
	defer srv.Close()

	f := NewFoldingPredictor(srv.URL, "")
	pdb, err := f.Fold(context.Background(), "MVHLTPEEK")
	require.NoError(t, err)
	assert.Equal(t, "MVHLTPEEK", gotBody)
	assert.Contains(t, pdb, "ATOM")
}

func TestFold_RejectsShortResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ERROR"))
	}))
	defer srv.Close()

	f := NewFoldingPredictor(srv.URL, "")
	_, err := f.Fold(context.Background(), "MVHLT")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too short")
}

func TestFold_RetriesGatewayTimeout(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			http.Error(w, "upstream timed out", http.StatusGatewayTimeout)
			return
		}
		w.Write([]byte(validPDBBody()))
	}))
	defer srv.Close()

	f := NewFoldingPredictor(srv.URL, "")
	f.retryDelay = time.Millisecond

	pdb, err := f.Fold(context.Background(), "MVHLT")
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, pdb, "ATOM")
}

func TestFold_GatewayTimeoutExhaustsAttempts(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "upstream timed out", http.StatusGatewayTimeout)
	}))
	defer srv.Close()

	f := NewFoldingPredictor(srv.URL, "")
	f.retryDelay = time.Millisecond

	_, err := f.Fold(context.Background(), "MVHLT")
	require.Error(t, err)
	assert.Equal(t, foldMaxAttempts, calls)
}

func TestFold_ServerErrorDoesNotRetry(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewFoldingPredictor(srv.URL, "")
	f.retryDelay = time.Millisecond

	_, err := f.Fold(context.Background(), "MVHLT")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

// -----------------------------------------------------------------------------
// Review
// -----------------------------------------------------------------------------

const reviewJSON = `{
	"structural_restoration": {"verdict": "POSITIVE", "confidence": 0.85, "reasoning": "fold recovered"},
	"aggregation_risk": {"verdict": "MODERATE", "confidence": 0.6, "reasoning": "surface hydrophobics"},
	"functional_preservation": {"verdict": "MAINTAINED", "confidence": 0.7, "reasoning": "active site intact"},
	"amyloid_risk": {"verdict": "NO_RISK", "confidence": 0.9, "reasoning": "no new stretches"},
	"overall_verdict": "approved_with_caution",
	"risk_score": 4.5,
	"approved_candidates": ["E42K"],
	"summary": "One candidate approved with caution.",
	"recommendations": ["validate in vitro"],
	"warnings": []
}`

func TestReview_ParsesAndResolvesApproved(t *testing.T) {
	llm := &fakeLLM{response: "```json\n" + reviewJSON + "\n```"}
	r := NewReviewPredictor(llm)

	pool := []datatypes.Candidate{
		{Mutation: "E42K", Status: datatypes.StatusValidated},
		{Mutation: "G7A", Status: datatypes.StatusValidated},
	}
	result, err := r.Review(context.Background(), datatypes.ReviewQuery{
		Mutation:   "R175H",
		Candidates: pool,
	})
	require.NoError(t, err)

	assert.Equal(t, datatypes.VerdictApprovedWithCaution, result.OverallVerdict)
	require.NotNil(t, result.RiskScore)
	assert.InDelta(t, 4.5, *result.RiskScore, 1e-9)
	require.NotNil(t, result.StructuralRestoration)
	assert.Equal(t, datatypes.DimensionPositive, result.StructuralRestoration.Verdict)
	require.NotNil(t, result.AmyloidRisk)
	assert.Equal(t, datatypes.RiskNone, result.AmyloidRisk.Verdict)

	require.Len(t, result.Approved, 1)
	assert.Equal(t, "E42K", result.Approved[0].Mutation)
	assert.Equal(t, datatypes.StatusApproved, result.Approved[0].Status)
	// Pool statuses are untouched; approval is recorded on the copy.
	assert.Equal(t, datatypes.StatusValidated, pool[0].Status)
}

func TestReview_InventedNotationDropped(t *testing.T) {
	llm := &fakeLLM{response: strings.Replace(reviewJSON, `["E42K"]`, `["Z99Z"]`, 1)}
	r := NewReviewPredictor(llm)

	result, err := r.Review(context.Background(), datatypes.ReviewQuery{
		Candidates: []datatypes.Candidate{{Mutation: "E42K"}},
	})
	require.NoError(t, err)
	assert.Empty(t, result.Approved)
}

func TestAssessMutation(t *testing.T) {
	llm := &fakeLLM{response: reviewJSON}
	r := NewReviewPredictor(llm)

	result, err := r.AssessMutation(context.Background(), datatypes.MutationAssessmentQuery{
		Mutation:    "R175H",
		ProteinName: "TP53",
	})
	require.NoError(t, err)
	assert.NotNil(t, result.StructuralRestoration)
	assert.Empty(t, result.Approved)
	assert.Contains(t, llm.lastPrompt, "R175H")
	assert.Contains(t, llm.lastParams.SystemPrompt, "four dimensions")
}

// The verdict vocabularies and risk scale are a wire contract with report
// consumers, so the prompts must request exactly them.
func TestReview_PromptRequestsVerdictContract(t *testing.T) {
	llm := &fakeLLM{response: reviewJSON}
	r := NewReviewPredictor(llm)

	_, err := r.Review(context.Background(), datatypes.ReviewQuery{Mutation: "R175H"})
	require.NoError(t, err)

	for _, verdict := range []string{
		datatypes.VerdictApproved,
		datatypes.VerdictApprovedWithCaution,
		datatypes.VerdictFlagged,
		datatypes.VerdictRejected,
	} {
		assert.Contains(t, llm.lastPrompt, verdict)
	}
	assert.Contains(t, llm.lastPrompt, "POSITIVE | NEUTRAL | NEGATIVE")
	assert.Contains(t, llm.lastPrompt, "NO_RISK | LOW | MODERATE | HIGH")
	assert.Contains(t, llm.lastPrompt, "MAINTAINED | PARTIAL | COMPROMISED")
	assert.Contains(t, llm.lastPrompt, "0.0 and 10.0")
	assert.Contains(t, llm.lastParams.SystemPrompt, "10.0 (dangerous)")

	_, err = r.AssessMutation(context.Background(), datatypes.MutationAssessmentQuery{Mutation: "R175H"})
	require.NoError(t, err)
	assert.Contains(t, llm.lastPrompt, datatypes.VerdictApprovedWithCaution)
	assert.Contains(t, llm.lastPrompt, "0.0-10.0")
}

func TestReview_OverloadIsTransient(t *testing.T) {
	llm := &fakeLLM{err: errors.New("model is overloaded, retry later")}
	r := NewReviewPredictor(llm)

	_, err := r.Review(context.Background(), datatypes.ReviewQuery{})
	require.Error(t, err)
	assert.True(t, datatypes.IsTransient(err))
}

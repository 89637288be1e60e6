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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/GeneRescueAI/GeneRescue/services/pipeline/datatypes"
)

// MaskToken is the placeholder the scoring model expects at the residue
// position being evaluated.
const MaskToken = "<mask>"

// ScoringPredictor queries a masked-language-model service for the
// probability of a residue at a masked position. The wire format follows the
// hosted ESM-1v ensemble API: a params/items request envelope and a per-model
// token distribution in the response.
type ScoringPredictor struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

func NewScoringPredictor(url, apiKey string) *ScoringPredictor {
	return &ScoringPredictor{
		url:        url,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// MaskAt replaces the 0-indexed position with the mask token.
func MaskAt(sequence string, position int) string {
	return sequence[:position] + MaskToken + sequence[position+1:]
}

// ScoreSubstitution masks the 0-indexed position of sequence and scores
// residue at the masked site.
func (s *ScoringPredictor) ScoreSubstitution(ctx context.Context, sequence string, position int, residue byte) (float64, error) {
	return s.Score(ctx, MaskAt(sequence, position), residue)
}

type scoringRequest struct {
	Params scoringParams `json:"params"`
	Items  []scoringItem `json:"items"`
}

type scoringParams struct {
	ModelNumber string `json:"model_number"`
}

type scoringItem struct {
	Sequence string `json:"sequence"`
}

type tokenScore struct {
	TokenStr string  `json:"token_str"`
	Score    float64 `json:"score"`
}

// Score returns the model probability of target at the masked position of
// maskedSequence, averaged across the ensemble. A target residue absent from
// every model's distribution scores 0.0 without error; the caller treats
// non-positive scores as failed validation.
func (s *ScoringPredictor) Score(ctx context.Context, maskedSequence string, target byte) (float64, error) {
	body, err := json.Marshal(scoringRequest{
		Params: scoringParams{ModelNumber: "all"},
		Items:  []scoringItem{{Sequence: maskedSequence}},
	})
	if err != nil {
		return 0, &datatypes.PredictorError{Predictor: "scoring", Op: "encode request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return 0, &datatypes.PredictorError{Predictor: "scoring", Op: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Token "+s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, &datatypes.PredictorError{Predictor: "scoring", Op: "call service", Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, &datatypes.PredictorError{Predictor: "scoring", Op: "read response", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return 0, classifyTransient("scoring", "call service",
			fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(payload), 200)))
	}

	score, err := parseEnsembleScore(payload, target)
	if err != nil {
		return 0, &datatypes.PredictorError{Predictor: "scoring", Op: "parse response", Err: err}
	}
	return score, nil
}

// parseEnsembleScore extracts the probability of target from the first
// result. The combined "esm1v-all" distribution is preferred; otherwise the
// per-model distributions (esm1v-n1..n5) are averaged.
func parseEnsembleScore(payload []byte, target byte) (float64, error) {
	var envelope struct {
		Results []map[string]json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return 0, fmt.Errorf("malformed scoring response: %w", err)
	}
	if len(envelope.Results) == 0 {
		return 0, fmt.Errorf("scoring response has no results")
	}
	result := envelope.Results[0]

	if combined, ok := result["esm1v-all"]; ok {
		var scores []tokenScore
		if err := json.Unmarshal(combined, &scores); err != nil {
			return 0, fmt.Errorf("malformed combined distribution: %w", err)
		}
		return scoreForToken(scores, target), nil
	}

	var sum float64
	var models int
	for key, raw := range result {
		if !strings.HasPrefix(key, "esm1v-") {
			continue
		}
		var scores []tokenScore
		if err := json.Unmarshal(raw, &scores); err != nil {
			continue
		}
		sum += scoreForToken(scores, target)
		models++
	}
	if models == 0 {
		return 0, fmt.Errorf("scoring response contains no model distributions")
	}
	return sum / float64(models), nil
}

func scoreForToken(scores []tokenScore, target byte) float64 {
	want := strings.ToUpper(string(target))
	for _, ts := range scores {
		if strings.ToUpper(strings.TrimSpace(ts.TokenStr)) == want {
			return ts.Score
		}
	}
	slog.Debug("Target residue absent from scored distribution", "residue", want)
	return 0.0
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

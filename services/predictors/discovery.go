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
	"log/slog"
	"strings"

	"github.com/GeneRescueAI/GeneRescue/services/pipeline/datatypes"
)

const discoverySystemPrompt = `You are an expert protein engineer specializing in intragenic suppressor mutations. You propose compensatory second-site mutations that rescue the function of proteins carrying pathogenic variants. You answer with strict JSON and nothing else.`

const discoveryPromptTemplate = `A protein carries the pathogenic mutation %s.

Protein: %s
Organism: %s
Gene function: %s
Disease context: %s

Wild-type sequence:
%s

Mutant sequence:
%s

Propose up to 5 second-site rescue mutations (intragenic suppressors) that could restore function. Do NOT propose the direct reversion. For each candidate return a JSON object with these exact keys:
  "position": 1-indexed residue position in the sequence
  "original_aa": single-letter residue currently at that position in the mutant
  "rescue_aa": single-letter residue to substitute
  "mutation": the notation, e.g. "E42K"
  "reasoning": one or two sentences of structural/functional rationale
  "confidence": number between 0 and 1
  "literature_reference": citation if one exists, else ""

Respond with a JSON array of these objects only.`

// DiscoveryPredictor proposes rescue candidates for a pathogenic mutation
// using a generative backend.
type DiscoveryPredictor struct {
	llm LLMClient
}

func NewDiscoveryPredictor(llm LLMClient) *DiscoveryPredictor {
	return &DiscoveryPredictor{llm: llm}
}

// Discover returns the candidate pool for the query, each with status
// "discovered". Capacity failures from the backend come back wrapped in
// ErrPredictorOverloaded so the caller can degrade rather than abort.
func (d *DiscoveryPredictor) Discover(ctx context.Context, q datatypes.DiscoveryQuery) ([]datatypes.Candidate, error) {
	prompt := fmt.Sprintf(discoveryPromptTemplate,
		q.Mutation,
		orUnknown(q.ProteinName),
		orUnknown(q.Organism),
		orUnknown(q.GeneFunction),
		orUnknown(q.DiseaseContext),
		q.WildTypeSequence,
		q.MutantSequence,
	)

	raw, err := d.llm.Generate(ctx, prompt, GenerationParams{
		Temperature:  float32Ptr(0.7),
		MaxTokens:    intPtr(2048),
		SystemPrompt: discoverySystemPrompt,
	})
	if err != nil {
		return nil, classifyTransient("discovery", "generate candidates", err)
	}

	candidates, err := parseCandidates(raw)
	if err != nil {
		return nil, &datatypes.PredictorError{Predictor: "discovery", Op: "parse candidates", Err: err}
	}
	slog.Debug("Discovery predictor returned candidates", "count", len(candidates))
	return candidates, nil
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// parseCandidates decodes the predictor's response, accepting either a bare
// array or an object with a "candidates" key, and normalizes each record.
func parseCandidates(raw string) ([]datatypes.Candidate, error) {
	payload := extractJSON(raw)

	var records []map[string]any
	if err := json.Unmarshal([]byte(payload), &records); err != nil {
		var wrapper struct {
			Candidates []map[string]any `json:"candidates"`
		}
		if err2 := json.Unmarshal([]byte(payload), &wrapper); err2 != nil || wrapper.Candidates == nil {
			return nil, fmt.Errorf("response is not a candidate list: %w", err)
		}
		records = wrapper.Candidates
	}

	candidates := make([]datatypes.Candidate, 0, len(records))
	for _, rec := range records {
		c, ok := normalizeProposal(rec)
		if !ok {
			slog.Warn("Skipping malformed candidate record", "record_keys", len(rec))
			continue
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// Two response shapes are in the wild: the current one keyed by
// original_aa/rescue_aa/reasoning and a legacy one keyed by
// from_aa/to_aa/rationale. The shape is resolved by presence of the
// distinguishing residue key, then mapped through a fixed field table.
var (
	richFields   = proposalFields{original: "original_aa", rescue: "rescue_aa", reasoning: "reasoning"}
	legacyFields = proposalFields{original: "from_aa", rescue: "to_aa", reasoning: "rationale"}
)

type proposalFields struct {
	original  string
	rescue    string
	reasoning string
}

func normalizeProposal(rec map[string]any) (datatypes.Candidate, bool) {
	fields := richFields
	if _, legacy := rec["to_aa"]; legacy {
		fields = legacyFields
	}

	pos, ok := asInt(rec["position"])
	if !ok {
		return datatypes.Candidate{}, false
	}
	original, _ := rec[fields.original].(string)
	rescue, _ := rec[fields.rescue].(string)
	if original == "" || rescue == "" {
		return datatypes.Candidate{}, false
	}

	c := datatypes.Candidate{
		Position:   pos,
		OriginalAA: strings.ToUpper(original),
		RescueAA:   strings.ToUpper(rescue),
		Status:     datatypes.StatusDiscovered,
	}
	c.Mutation, _ = rec["mutation"].(string)
	c.Reasoning, _ = rec[fields.reasoning].(string)
	c.LiteratureReference, _ = rec["literature_reference"].(string)
	if conf, isNum := rec["confidence"].(float64); isNum {
		c.Confidence = datatypes.Float64Ptr(conf)
	}
	c.EnsureMutation()
	return c, true
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	default:
		return 0, false
	}
}

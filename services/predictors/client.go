// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package predictors holds the gateways to the external model services the
// pipeline depends on: a generative predictor for candidate discovery and
// final review, a masked-language-model scoring service, and a structure
// folding service. Each gateway exposes a small typed API and keeps wire
// formats, prompts, and retry behavior out of the pipeline engine.
package predictors

import "context"

// GenerationParams tunes a single generative call. Nil fields use the
// backend's defaults.
type GenerationParams struct {
	Temperature  *float32 `json:"temperature"`
	TopP         *float32 `json:"top_p"`
	MaxTokens    *int     `json:"max_tokens"`
	Stop         []string `json:"stop"`
	SystemPrompt string   `json:"-"`
}

// LLMClient defines the standard interface for any generative backend.
type LLMClient interface {
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)
}

func float32Ptr(v float32) *float32 { return &v }
func intPtr(v int) *int             { return &v }

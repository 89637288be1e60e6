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
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/GeneRescueAI/GeneRescue/services/pipeline/datatypes"
)

const (
	// A structure prediction can legitimately run for minutes; each attempt
	// gets a long leash, and the gateway in front of the folding service is
	// the component that actually times out.
	foldAttemptTimeout = 10 * time.Minute
	foldRetryDelay     = 30 * time.Second
	foldMaxAttempts    = 3

	// Anything shorter than this is an error page, not a PDB model.
	minPDBBytes = 100
)

// FoldingPredictor submits a protein sequence to a structure prediction
// service and returns the predicted model as PDB text. The service accepts
// the raw sequence as the request body.
type FoldingPredictor struct {
	url        string
	apiKey     string
	httpClient *http.Client

	attempts   int
	retryDelay time.Duration
}

func NewFoldingPredictor(url, apiKey string) *FoldingPredictor {
	return &FoldingPredictor{
		url:    url,
		apiKey: apiKey,
		// Per-attempt deadlines come from the request context.
		httpClient: &http.Client{},
		attempts:   foldMaxAttempts,
		retryDelay: foldRetryDelay,
	}
}

// Fold predicts the structure for sequence. Gateway timeouts are retried
// with fixed spacing because the upstream model is often still warming up;
// all other failures are returned on first occurrence.
func (f *FoldingPredictor) Fold(ctx context.Context, sequence string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= f.attempts; attempt++ {
		pdb, retryable, err := f.foldOnce(ctx, sequence)
		if err == nil {
			return pdb, nil
		}
		lastErr = err
		if !retryable {
			break
		}
		if attempt < f.attempts {
			slog.Warn("Folding attempt hit a gateway timeout, retrying",
				"attempt", attempt, "delay", f.retryDelay.String())
			select {
			case <-time.After(f.retryDelay):
			case <-ctx.Done():
				return "", &datatypes.PredictorError{Predictor: "folding", Op: "predict structure", Err: ctx.Err()}
			}
		}
	}
	return "", lastErr
}

func (f *FoldingPredictor) foldOnce(ctx context.Context, sequence string) (pdb string, retryable bool, err error) {
	attemptCtx, cancel := context.WithTimeout(ctx, foldAttemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, f.url, strings.NewReader(sequence))
	if err != nil {
		return "", false, &datatypes.PredictorError{Predictor: "folding", Op: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "text/plain")
	if f.apiKey != "" {
		req.Header.Set("Authorization", "Token "+f.apiKey)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", false, &datatypes.PredictorError{Predictor: "folding", Op: "call service", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", false, &datatypes.PredictorError{Predictor: "folding", Op: "read response", Err: err}
	}

	if resp.StatusCode == http.StatusGatewayTimeout {
		return "", true, &datatypes.PredictorError{
			Predictor: "folding",
			Op:        "predict structure",
			Err:       fmt.Errorf("gateway timeout after %d bytes: %s", len(body), truncate(string(body), 120)),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return "", false, &datatypes.PredictorError{
			Predictor: "folding",
			Op:        "predict structure",
			Err:       fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(body), 200)),
		}
	}

	if len(body) < minPDBBytes {
		return "", false, &datatypes.PredictorError{
			Predictor: "folding",
			Op:        "predict structure",
			Err:       fmt.Errorf("response too short to be a PDB model (%d bytes)", len(body)),
		}
	}
	return string(body), false, nil
}

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
	"fmt"
	"strings"

	"github.com/GeneRescueAI/GeneRescue/services/pipeline/datatypes"
)

// extractJSON strips markdown code fences and surrounding prose from a
// generative response, returning the JSON payload between the first opening
// bracket and its matching last closing bracket. Models wrap structured
// output in ```json fences often enough that every parser in this package
// routes through here; the quirk lives in exactly one place.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if i := strings.Index(s, "```json"); i >= 0 {
		s = s[i+len("```json"):]
	} else if i := strings.Index(s, "```"); i >= 0 {
		s = s[i+len("```"):]
	}
	if i := strings.Index(s, "```"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)

	objStart := strings.IndexAny(s, "[{")
	if objStart < 0 {
		return s
	}
	var objEnd int
	if s[objStart] == '[' {
		objEnd = strings.LastIndex(s, "]")
	} else {
		objEnd = strings.LastIndex(s, "}")
	}
	if objEnd <= objStart {
		return s
	}
	return s[objStart : objEnd+1]
}

// overloadMarkers are the substrings that identify a capacity failure in a
// generative backend error. Gateways map these onto the transient error so
// the pipeline degrades instead of aborting.
var overloadMarkers = []string{"503", "UNAVAILABLE", "overloaded"}

func classifyTransient(predictor, op string, err error) error {
	msg := err.Error()
	for _, marker := range overloadMarkers {
		if strings.Contains(msg, marker) {
			// Keep the backend's message alongside the sentinel so logs and
			// failure reports still show the cause.
			return &datatypes.PredictorError{
				Predictor: predictor,
				Op:        op,
				Err:       fmt.Errorf("%w: %v", datatypes.ErrPredictorOverloaded, err),
			}
		}
	}
	return &datatypes.PredictorError{Predictor: predictor, Op: op, Err: err}
}

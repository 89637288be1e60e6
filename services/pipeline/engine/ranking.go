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
	"sort"

	"github.com/GeneRescueAI/GeneRescue/services/pipeline/datatypes"
)

// rankAndSelect promotes the topN best-scoring candidates to validated and
// demotes the rest of the scored pool to rejected. Candidates that errored
// during scoring or scored non-positive are excluded from ranking entirely;
// errored ones keep their error status.
//
// The sort is stable on the incoming (discovery) order, so equal scores
// preserve the discovery predictor's preference and reruns rank identically.
func rankAndSelect(pool []datatypes.Candidate, topN int) []datatypes.Candidate {
	eligible := make([]int, 0, len(pool))
	for i := range pool {
		c := &pool[i]
		if c.Status == datatypes.StatusError {
			continue
		}
		if c.ScoringProbability == nil || *c.ScoringProbability <= 0 {
			c.Status = datatypes.StatusRejected
			continue
		}
		eligible = append(eligible, i)
	}

	sort.SliceStable(eligible, func(a, b int) bool {
		return *pool[eligible[a]].ScoringProbability > *pool[eligible[b]].ScoringProbability
	})

	validated := make([]datatypes.Candidate, 0, topN)
	for rank, i := range eligible {
		if rank < topN {
			pool[i].Status = datatypes.StatusValidated
			validated = append(validated, pool[i])
		} else {
			pool[i].Status = datatypes.StatusRejected
		}
	}
	return validated
}

// rejectedPool returns the scored candidates that did not validate, in
// discovery order. They stay on the report so a rejection is never silent.
func rejectedPool(pool []datatypes.Candidate) []datatypes.Candidate {
	var rejected []datatypes.Candidate
	for _, c := range pool {
		if c.Status == datatypes.StatusRejected || c.Status == datatypes.StatusError {
			rejected = append(rejected, c)
		}
	}
	return rejected
}

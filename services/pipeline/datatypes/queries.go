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

// DiscoveryQuery carries the biological context handed to the discovery
// predictor when proposing rescue candidates.
type DiscoveryQuery struct {
	Mutation         string
	ProteinName      string
	GeneFunction     string
	DiseaseContext   string
	Organism         string
	WildTypeSequence string
	MutantSequence   string
}

// ReviewQuery is the input to the final review phase: the analyzed candidate
// pool plus the context of the original pathogenic mutation.
type ReviewQuery struct {
	Mutation       string
	ProteinName    string
	DiseaseContext string
	Candidates     []Candidate
}

// MutationAssessmentQuery requests a direct impact assessment of the original
// mutation. Used on the degraded path when no rescue candidate survived
// scoring, so the caller still gets an expert readout of the mutation itself.
type MutationAssessmentQuery struct {
	Mutation       string
	ProteinName    string
	GeneFunction   string
	DiseaseContext string
	Organism       string
}

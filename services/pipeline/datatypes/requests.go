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

import (
	"github.com/go-playground/validator/v10"

	"github.com/GeneRescueAI/GeneRescue/pkg/seq"
)

// AnalysisRequest is the body of POST /v1/mutations/analyze.
type AnalysisRequest struct {
	Mutation        string `json:"mutation" binding:"required,mutation_notation"`
	ProteinSequence string `json:"protein_sequence" binding:"required,protein_sequence"`
	ProteinName     string `json:"protein_name,omitempty"`
	GeneFunction    string `json:"gene_function,omitempty"`
	DiseaseContext  string `json:"disease_context,omitempty"`
	Organism        string `json:"organism,omitempty"`

	// TopN overrides the server's validated-candidate cap for this run.
	TopN int `json:"top_n,omitempty" binding:"omitempty,min=1,max=10"`
}

// MutantRequest is the body of POST /v1/mutations/mutant, the standalone
// phase-0 operation.
type MutantRequest struct {
	Mutation        string `json:"mutation" binding:"required,mutation_notation"`
	ProteinSequence string `json:"protein_sequence" binding:"required,protein_sequence"`
}

// MutantResponse returns the applied substitution.
type MutantResponse struct {
	Mutation         string `json:"mutation"`
	WildTypeSequence string `json:"wild_type_sequence"`
	MutantSequence   string `json:"mutant_sequence"`
}

// ErrorResponse is the uniform error body for all endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse reports service liveness and whether predictor credentials
// are present. It never includes the credential values.
type HealthResponse struct {
	Status            string          `json:"status"`
	Version           string          `json:"version"`
	APIKeysConfigured map[string]bool `json:"api_keys_configured"`
}

// RegisterCustomValidators installs the domain validation tags used by the
// request models onto a validator engine. Gin exposes its engine via
// binding.Validator.Engine().
func RegisterCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("mutation_notation", validMutationNotation); err != nil {
		return err
	}
	return v.RegisterValidation("protein_sequence", validProteinSequence)
}

func validMutationNotation(fl validator.FieldLevel) bool {
	_, err := seq.ParseNotation(fl.Field().String())
	return err == nil
}

func validProteinSequence(fl validator.FieldLevel) bool {
	return seq.ValidSequence(fl.Field().String())
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/GeneRescueAI/GeneRescue/pkg/seq"
	"github.com/GeneRescueAI/GeneRescue/services/pipeline/datatypes"
)

var tracer = otel.Tracer("generescue.pipeline.handlers")

// PipelineRunner is the slice of the engine the analyze handler needs.
type PipelineRunner interface {
	Run(ctx context.Context, runID string, req datatypes.AnalysisRequest) *datatypes.Report
}

// HandleAnalyze runs the full rescue pipeline for one mutation.
//
// The response status is 200 even for failed runs: the report's error field
// and run_state carry the outcome, so clients get partial results (recovered
// structures, candidate pools) instead of a bare 5xx. Only a request that
// fails validation gets a 400.
func HandleAnalyze(eng PipelineRunner) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "HandleAnalyze")
		defer span.End()

		var request datatypes.AnalysisRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Failed to bind analysis request", "error", err)
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: "Invalid request body: " + err.Error()})
			return
		}

		runID := uuid.New().String()
		span.SetAttributes(
			attribute.String("mutation", request.Mutation),
			attribute.String("run_id", runID),
		)
		slog.Info("Received analysis request",
			"run_id", runID,
			"mutation", request.Mutation,
			"protein", request.ProteinName,
			"sequence_length", len(request.ProteinSequence))

		report := eng.Run(ctx, runID, request)
		if report.Error != "" {
			span.SetStatus(codes.Error, report.Error)
		}
		c.JSON(http.StatusOK, report)
	}
}

// HandleCreateMutant applies a single point mutation and returns the mutant
// sequence, without running the pipeline.
func HandleCreateMutant() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, span := tracer.Start(c.Request.Context(), "HandleCreateMutant")
		defer span.End()

		var request datatypes.MutantRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			span.RecordError(err)
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: "Invalid request body: " + err.Error()})
			return
		}

		mutant, err := seq.CreateMutant(request.ProteinSequence, request.Mutation)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			c.JSON(http.StatusBadRequest, datatypes.ErrorResponse{Error: err.Error()})
			return
		}

		c.JSON(http.StatusOK, datatypes.MutantResponse{
			Mutation:         request.Mutation,
			WildTypeSequence: request.ProteinSequence,
			MutantSequence:   mutant,
		})
	}
}

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
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/GeneRescueAI/GeneRescue/services/pipeline/datatypes"
)

// Version is the service version reported by the health endpoint.
const Version = "0.3.0"

// HealthCheck reports liveness and which predictor credentials are present.
// Only booleans leave the process; the key material never does.
func HealthCheck() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, datatypes.HealthResponse{
			Status:  "ok",
			Version: Version,
			APIKeysConfigured: map[string]bool{
				"llm":     os.Getenv("LLM_API_KEY") != "",
				"scoring": os.Getenv("SCORING_API_KEY") != "",
				"folding": os.Getenv("FOLDING_API_KEY") != "",
			},
		})
	}
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/GeneRescueAI/GeneRescue/services/pipeline/datatypes"
)

func runHealthCommand(cmd *cobra.Command, args []string) {
	client := &http.Client{Timeout: 10 * time.Second}

	resp, err := client.Get(config.ServerURL + "/health")
	if err != nil {
		log.Fatalf("Pipeline server unreachable at %s: %v", config.ServerURL, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("Error reading response: %v", err)
	}

	if jsonOutput {
		fmt.Println(string(payload))
		return
	}

	var health datatypes.HealthResponse
	if err := json.Unmarshal(payload, &health); err != nil {
		log.Fatalf("Error decoding health response: %v", err)
	}

	fmt.Printf("Server:  %s\n", config.ServerURL)
	fmt.Printf("Status:  %s (version %s)\n", health.Status, health.Version)
	fmt.Println("Credentials configured:")
	for name, present := range health.APIKeysConfigured {
		mark := "missing"
		if present {
			mark = "ok"
		}
		fmt.Printf("  %-8s %s\n", name, mark)
	}
}

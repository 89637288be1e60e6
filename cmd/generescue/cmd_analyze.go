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
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/GeneRescueAI/GeneRescue/pkg/seq"
	"github.com/GeneRescueAI/GeneRescue/services/pipeline/datatypes"
)

// resolveSequence returns the wild-type sequence from --sequence or --fasta.
func resolveSequence() (string, error) {
	if sequenceFlag != "" && fastaFlag != "" {
		return "", fmt.Errorf("use either --sequence or --fasta, not both")
	}
	if sequenceFlag != "" {
		if !seq.ValidSequence(sequenceFlag) {
			return "", fmt.Errorf("sequence contains characters outside the amino acid alphabet")
		}
		return sequenceFlag, nil
	}
	if fastaFlag != "" {
		content, err := os.ReadFile(fastaFlag)
		if err != nil {
			return "", fmt.Errorf("cannot read FASTA file: %w", err)
		}
		return seq.ParseFASTA(string(content))
	}
	return "", fmt.Errorf("a wild-type sequence is required (--sequence or --fasta)")
}

func runAnalyzeCommand(cmd *cobra.Command, args []string) {
	sequence, err := resolveSequence()
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	request := datatypes.AnalysisRequest{
		Mutation:        mutationFlag,
		ProteinSequence: sequence,
		ProteinName:     proteinFlag,
		GeneFunction:    functionFlag,
		DiseaseContext:  diseaseFlag,
		Organism:        organismFlag,
		TopN:            topNFlag,
	}
	body, err := json.Marshal(request)
	if err != nil {
		log.Fatalf("Error encoding request: %v", err)
	}

	client := &http.Client{Timeout: time.Duration(config.RequestTimeoutMinutes) * time.Minute}
	fmt.Printf("Analyzing %s (this folds several structures and can take minutes)...\n", mutationFlag)

	resp, err := client.Post(config.ServerURL+"/v1/mutations/analyze", "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatalf("Error calling pipeline server: %v", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("Error reading response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Server returned %d: %s", resp.StatusCode, string(payload))
	}

	if jsonOutput {
		fmt.Println(string(payload))
		return
	}

	var report datatypes.Report
	if err := json.Unmarshal(payload, &report); err != nil {
		log.Fatalf("Error decoding report: %v", err)
	}
	printReport(&report)
}

func printReport(report *datatypes.Report) {
	fmt.Printf("\nMutation:    %s\n", report.OriginalMutation)
	fmt.Printf("Run state:   %s\n", report.RunState)
	fmt.Printf("Discovered:  %d candidates\n", report.CandidatesDiscovered)
	fmt.Printf("Validated:   %d candidates\n", report.CandidatesValidated)
	if report.Error != "" {
		fmt.Printf("Error:       %s\n", report.Error)
	}

	if report.Results.OverallVerdict != "" {
		fmt.Printf("\nVerdict:     %s", report.Results.OverallVerdict)
		if report.Results.RiskScore != nil {
			fmt.Printf(" (risk %.2f)", *report.Results.RiskScore)
		}
		fmt.Println()
	}
	fmt.Printf("\n%s\n", report.Results.Summary)

	if len(report.Results.Approved) > 0 {
		fmt.Println("\nApproved rescue candidates:")
		for _, c := range report.Results.Approved {
			printCandidate(c)
		}
	}
	if len(report.Results.Validated) > 0 {
		fmt.Println("\nAll analyzed candidates:")
		for _, c := range report.Results.Validated {
			printCandidate(c)
		}
	}
}

func printCandidate(c datatypes.Candidate) {
	fmt.Printf("  %-8s status=%-10s", c.Mutation, c.Status)
	if c.ScoringProbability != nil {
		fmt.Printf(" score=%.3f", *c.ScoringProbability)
	}
	if c.DeviationVsReference != nil {
		fmt.Printf(" rmsd_vs_wt=%.2fA", *c.DeviationVsReference)
	}
	if c.StructuralRecovery != "" {
		fmt.Printf(" recovery=%s", c.StructuralRecovery)
	}
	fmt.Println()
	if c.Reasoning != "" {
		fmt.Printf("           %s\n", c.Reasoning)
	}
}

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
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	mutationFlag string
	sequenceFlag string
	fastaFlag    string
	proteinFlag  string
	functionFlag string
	diseaseFlag  string
	organismFlag string
	topNFlag     int
	jsonOutput   bool

	rootCmd = &cobra.Command{
		Use:   "generescue",
		Short: "A cli for the GeneRescue mutation rescue pipeline",
		Long: `GeneRescue discovers and validates second-site rescue mutations
for pathogenic protein variants, combining generative candidate discovery,
masked language model scoring, and structure prediction.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			loadConfig()
		},
	}

	// --- Analysis ---
	analyzeCmd = &cobra.Command{
		Use:   "analyze",
		Short: "Run the full rescue pipeline for a mutation against a running server",
		Run:   runAnalyzeCommand, // Defined in cmd_analyze.go
	}

	// --- Mutant creation (local, no server needed) ---
	mutantCmd = &cobra.Command{
		Use:   "mutant",
		Short: "Apply a point mutation to a sequence locally and print the mutant",
		Run:   runMutantCommand, // Defined in cmd_mutant.go
	}

	// --- Health ---
	healthCmd = &cobra.Command{
		Use:   "health",
		Short: "Check the pipeline server and its configured predictor credentials",
		Run:   runHealthCommand, // Defined in cmd_health.go
	}
)

func init() {
	for _, cmd := range []*cobra.Command{analyzeCmd, mutantCmd} {
		cmd.Flags().StringVarP(&mutationFlag, "mutation", "m", "", "Mutation in <orig><pos><new> notation, e.g. R175H")
		cmd.Flags().StringVarP(&sequenceFlag, "sequence", "s", "", "Wild-type protein sequence")
		cmd.Flags().StringVarP(&fastaFlag, "fasta", "f", "", "Path to a FASTA file with the wild-type sequence")
		_ = cmd.MarkFlagRequired("mutation")
	}

	analyzeCmd.Flags().StringVar(&proteinFlag, "protein", "", "Protein name, e.g. TP53")
	analyzeCmd.Flags().StringVar(&functionFlag, "function", "", "Gene function description")
	analyzeCmd.Flags().StringVar(&diseaseFlag, "disease", "", "Disease context")
	analyzeCmd.Flags().StringVar(&organismFlag, "organism", "", "Organism")
	analyzeCmd.Flags().IntVar(&topNFlag, "top-n", 0, "Override the validated candidate cap for this run")
	analyzeCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the raw report JSON")

	healthCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the raw health JSON")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(mutantCmd)
	rootCmd.AddCommand(healthCmd)
}

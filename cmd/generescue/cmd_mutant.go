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
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/GeneRescueAI/GeneRescue/pkg/seq"
)

func runMutantCommand(cmd *cobra.Command, args []string) {
	sequence, err := resolveSequence()
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	mutant, err := seq.CreateMutant(sequence, mutationFlag)
	if err != nil {
		log.Fatalf("Error applying mutation: %v", err)
	}

	notation, err := seq.ParseNotation(mutationFlag)
	if err != nil {
		log.Fatalf("Error parsing mutation: %v", err)
	}
	replaced, err := seq.ResidueAt(mutant, notation.Position)
	if err != nil {
		log.Fatalf("Error reading mutant position: %v", err)
	}

	fmt.Printf("Replaced %c with %c at position %d\n", notation.Original, replaced, notation.Position)
	fmt.Printf(">mutant_%s\n%s\n", mutationFlag, mutant)
}

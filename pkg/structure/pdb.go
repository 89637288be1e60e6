// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package structure compares predicted protein structures.
//
// A structural model is carried through the pipeline as an opaque PDB-format
// string. This package parses out the two pieces the pipeline needs: one
// alpha-carbon anchor point per residue (for superposition) and the
// per-residue confidence scalar the folding predictor writes into the
// B-factor column (a pLDDT-like score).
package structure

import (
	"bufio"
	"strconv"
	"strings"
)

// Coord is a single 3D coordinate in the model's length unit (Angstroms for
// PDB input).
type Coord struct {
	X, Y, Z float64
}

// CAAtoms extracts one alpha-carbon coordinate per residue from PDB content,
// in residue order. Malformed ATOM lines are skipped; duplicate CA entries
// for a residue (alternate locations) keep the first occurrence.
func CAAtoms(pdb string) []Coord {
	var atoms []Coord
	lastRes := ""

	scanner := bufio.NewScanner(strings.NewReader(pdb))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) < 54 || !strings.HasPrefix(line, "ATOM") {
			continue
		}
		// PDB fixed columns: atom name 13-16, resSeq 23-26, x/y/z 31-54.
		if strings.TrimSpace(line[12:16]) != "CA" {
			continue
		}
		resSeq := strings.TrimSpace(line[22:26])
		if resSeq == lastRes {
			continue
		}
		x, errX := strconv.ParseFloat(strings.TrimSpace(line[30:38]), 64)
		y, errY := strconv.ParseFloat(strings.TrimSpace(line[38:46]), 64)
		z, errZ := strconv.ParseFloat(strings.TrimSpace(line[46:54]), 64)
		if errX != nil || errY != nil || errZ != nil {
			continue
		}
		atoms = append(atoms, Coord{X: x, Y: y, Z: z})
		lastRes = resSeq
	}
	return atoms
}

// ConfidenceByResidue returns the per-residue confidence score keyed by
// 1-indexed residue number, read from the B-factor column of each residue's
// CA atom. Malformed lines are skipped; total parse failure yields an empty
// map, never an error.
func ConfidenceByResidue(pdb string) map[int]float64 {
	scores := make(map[int]float64)

	scanner := bufio.NewScanner(strings.NewReader(pdb))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) < 66 || !strings.HasPrefix(line, "ATOM") {
			continue
		}
		if strings.TrimSpace(line[12:16]) != "CA" {
			continue
		}
		resNum, err := strconv.Atoi(strings.TrimSpace(line[22:26]))
		if err != nil {
			continue
		}
		if _, seen := scores[resNum]; seen {
			continue
		}
		score, err := strconv.ParseFloat(strings.TrimSpace(line[60:66]), 64)
		if err != nil {
			continue
		}
		scores[resNum] = score
	}
	return scores
}

// MeanConfidence returns the arithmetic mean of the per-residue confidence
// scores, or 0.0 when none could be parsed. Downstream code treats zero as
// "unknown / low confidence" rather than a failure.
func MeanConfidence(pdb string) float64 {
	scores := ConfidenceByResidue(pdb)
	if len(scores) == 0 {
		return 0.0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

// ResidueCount returns the number of residues with a CA anchor atom.
func ResidueCount(pdb string) int {
	return len(CAAtoms(pdb))
}

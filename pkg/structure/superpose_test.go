// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package structure

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPDB renders coordinates as minimal fixed-column PDB ATOM records with
// the given per-residue confidence in the B-factor column.
func buildPDB(coords []Coord, confidence []float64) string {
	var b strings.Builder
	for i, c := range coords {
		plddt := 0.0
		if i < len(confidence) {
			plddt = confidence[i]
		}
		fmt.Fprintf(&b, "ATOM  %5d  CA  ALA A%4d    %8.3f%8.3f%8.3f%6.2f%6.2f           C\n",
			i+1, i+1, c.X, c.Y, c.Z, 1.00, plddt)
	}
	b.WriteString("TER\nEND\n")
	return b.String()
}

// helix produces n CA positions along an idealized alpha-helix.
func helix(n int) []Coord {
	coords := make([]Coord, n)
	for i := range coords {
		theta := float64(i) * 100.0 * math.Pi / 180.0
		coords[i] = Coord{
			X: 2.3 * math.Cos(theta),
			Y: 2.3 * math.Sin(theta),
			Z: 1.5 * float64(i),
		}
	}
	return coords
}

func TestDeviation_SelfIsZero(t *testing.T) {
	pdb := buildPDB(helix(25), nil)
	rmsd, err := Deviation(pdb, pdb)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, rmsd, 1e-9)
}

func TestDeviation_TranslationInvariant(t *testing.T) {
	coords := helix(25)
	shifted := make([]Coord, len(coords))
	for i, c := range coords {
		shifted[i] = Coord{X: c.X + 13.5, Y: c.Y - 7.25, Z: c.Z + 101.0}
	}
	rmsd, err := Deviation(buildPDB(coords, nil), buildPDB(shifted, nil))
	require.NoError(t, err)
	assert.InDelta(t, 0.0, rmsd, 1e-6)
}

func TestDeviation_RotationInvariant(t *testing.T) {
	coords := helix(25)
	rotated := make([]Coord, len(coords))
	for i, c := range coords {
		// 90 degrees about the z axis.
		rotated[i] = Coord{X: -c.Y, Y: c.X, Z: c.Z}
	}
	rmsd, err := Deviation(buildPDB(coords, nil), buildPDB(rotated, nil))
	require.NoError(t, err)
	assert.InDelta(t, 0.0, rmsd, 1e-6)
}

func TestDeviation_Symmetric(t *testing.T) {
	a := helix(30)
	b := helix(30)
	// Perturb a few positions so the deviation is nonzero.
	b[3].X += 2.0
	b[11].Y -= 1.5
	b[20].Z += 3.0

	pdbA := buildPDB(a, nil)
	pdbB := buildPDB(b, nil)

	ab, err := Deviation(pdbA, pdbB)
	require.NoError(t, err)
	ba, err := Deviation(pdbB, pdbA)
	require.NoError(t, err)

	assert.Greater(t, ab, 0.0)
	assert.InDelta(t, ab, ba, 1e-9)
}

func TestDeviation_PerturbationBounded(t *testing.T) {
	a := helix(30)
	b := helix(30)
	b[15].X += 4.0

	rmsd, err := Deviation(buildPDB(a, nil), buildPDB(b, nil))
	require.NoError(t, err)
	// A single 4A displacement over 30 residues gives a small but nonzero
	// RMSD, and superposition can only shrink it.
	assert.Greater(t, rmsd, 0.0)
	assert.Less(t, rmsd, 4.0)
}

func TestDeviation_IncompatibleCounts(t *testing.T) {
	short := buildPDB(helix(10), nil)
	long := buildPDB(helix(12), nil)

	_, err := Deviation(short, long)
	var incompatible *IncompatibleModelsError
	require.ErrorAs(t, err, &incompatible)
	assert.Equal(t, 10, incompatible.CountA)
	assert.Equal(t, 12, incompatible.CountB)
}

func TestDeviation_EmptyModel(t *testing.T) {
	_, err := Deviation("REMARK nothing here\n", buildPDB(helix(5), nil))
	assert.ErrorIs(t, err, ErrEmptyModel)
}

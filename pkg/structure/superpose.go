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
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrEmptyModel is returned when a model contains no CA anchor atoms.
var ErrEmptyModel = errors.New("no CA atoms found in structure")

// IncompatibleModelsError indicates two models whose residue counts differ.
// Superposition requires a 1:1 residue correspondence; no alignment or
// gap handling is attempted.
type IncompatibleModelsError struct {
	CountA int
	CountB int
}

func (e *IncompatibleModelsError) Error() string {
	return fmt.Sprintf("structures have different numbers of CA atoms: %d vs %d", e.CountA, e.CountB)
}

// Deviation computes the root-mean-square deviation between two PDB models
// after optimal rigid-body superposition (Kabsch least squares) of their CA
// anchor atoms. The result is in the input's length unit.
//
// The computation is deterministic and symmetric up to floating point
// rounding: Deviation(a, b) == Deviation(b, a).
func Deviation(pdbA, pdbB string) (float64, error) {
	a := CAAtoms(pdbA)
	b := CAAtoms(pdbB)
	if len(a) == 0 || len(b) == 0 {
		return 0, ErrEmptyModel
	}
	if len(a) != len(b) {
		return 0, &IncompatibleModelsError{CountA: len(a), CountB: len(b)}
	}
	return kabschRMSD(a, b), nil
}

// kabschRMSD superimposes two equal-length coordinate sets and returns the
// resulting RMSD. Both sets are centered, the optimal rotation is taken from
// the SVD of the 3x3 covariance matrix, and the RMSD follows from the
// singular values without materializing the rotation:
//
//	rmsd^2 = (E0 - 2*(s1 + s2 + d*s3)) / n
//
// where E0 is the total squared norm of the centered sets and d corrects for
// an improper rotation (reflection).
func kabschRMSD(a, b []Coord) float64 {
	n := len(a)
	ca := centroid(a)
	cb := centroid(b)

	var e0 float64
	h := mat.NewDense(3, 3, nil)
	for i := 0; i < n; i++ {
		ax, ay, az := a[i].X-ca.X, a[i].Y-ca.Y, a[i].Z-ca.Z
		bx, by, bz := b[i].X-cb.X, b[i].Y-cb.Y, b[i].Z-cb.Z
		e0 += ax*ax + ay*ay + az*az + bx*bx + by*by + bz*bz

		h.Set(0, 0, h.At(0, 0)+ax*bx)
		h.Set(0, 1, h.At(0, 1)+ax*by)
		h.Set(0, 2, h.At(0, 2)+ax*bz)
		h.Set(1, 0, h.At(1, 0)+ay*bx)
		h.Set(1, 1, h.At(1, 1)+ay*by)
		h.Set(1, 2, h.At(1, 2)+ay*bz)
		h.Set(2, 0, h.At(2, 0)+az*bx)
		h.Set(2, 1, h.At(2, 1)+az*by)
		h.Set(2, 2, h.At(2, 2)+az*bz)
	}

	var svd mat.SVD
	if ok := svd.Factorize(h, mat.SVDFull); !ok {
		// Degenerate covariance; fall back to the unrotated deviation.
		return math.Sqrt(e0 / float64(n))
	}
	s := svd.Values(nil)

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	d := 1.0
	if mat.Det(&u)*mat.Det(&v) < 0 {
		d = -1.0
	}

	sum := s[0] + s[1] + d*s[2]
	msd := (e0 - 2*sum) / float64(n)
	if msd < 0 {
		// Rounding can push a perfect superposition slightly negative.
		msd = 0
	}
	return math.Sqrt(msd)
}

func centroid(pts []Coord) Coord {
	var c Coord
	for _, p := range pts {
		c.X += p.X
		c.Y += p.Y
		c.Z += p.Z
	}
	n := float64(len(pts))
	return Coord{X: c.X / n, Y: c.Y / n, Z: c.Z / n}
}

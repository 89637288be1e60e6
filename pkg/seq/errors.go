// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package seq

import "fmt"

// NotationError indicates a mutation string that does not match the
// <residue><position><residue> grammar (e.g. "R249S").
type NotationError struct {
	Notation string
}

func (e *NotationError) Error() string {
	return fmt.Sprintf("invalid mutation format: %q (expected format like 'R249S')", e.Notation)
}

// PositionError indicates a 1-indexed position outside [1, len(sequence)].
type PositionError struct {
	Position int
	Length   int
}

func (e *PositionError) Error() string {
	return fmt.Sprintf("position %d is out of range for sequence of length %d", e.Position, e.Length)
}

// MismatchError indicates that the residue declared in a mutation notation
// does not match the residue actually present in the reference sequence.
type MismatchError struct {
	Position int
	Expected byte
	Found    byte
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("expected %c at position %d, but found %c", e.Expected, e.Position, e.Found)
}

// ResidueError indicates a character outside the 20-letter amino acid alphabet.
type ResidueError struct {
	Residue byte
}

func (e *ResidueError) Error() string {
	return fmt.Sprintf("invalid amino acid: %c", e.Residue)
}

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

import (
	"fmt"
	"regexp"
)

// notationRe matches the <original><position><new> mutation grammar, e.g. "R249S".
var notationRe = regexp.MustCompile(`^([A-Z])(\d+)([A-Z])$`)

// Notation is a parsed point mutation: replace Original at the 1-indexed
// Position with New.
type Notation struct {
	Original byte
	Position int
	New      byte
}

// String renders the notation back into its textual form ("R249S").
func (n Notation) String() string {
	return fmt.Sprintf("%c%d%c", n.Original, n.Position, n.New)
}

// ParseNotation parses a mutation string such as "R249S".
//
// It validates the grammar only; the declared original residue is checked
// against an actual sequence by Apply.
func ParseNotation(mutation string) (Notation, error) {
	m := notationRe.FindStringSubmatch(mutation)
	if m == nil {
		return Notation{}, &NotationError{Notation: mutation}
	}
	var pos int
	if _, err := fmt.Sscanf(m[2], "%d", &pos); err != nil || pos < 1 {
		return Notation{}, &NotationError{Notation: mutation}
	}
	return Notation{Original: m[1][0], Position: pos, New: m[3][0]}, nil
}

// Apply applies the notation to a reference sequence and returns the mutant.
//
// Errors:
//   - *PositionError if the position is outside [1, len(reference)]
//   - *MismatchError if the reference residue at the position differs from
//     the declared original (a validation error, never silently corrected)
//   - *ResidueError if the new residue is outside the alphabet
func (n Notation) Apply(reference string) (string, error) {
	if n.Position < 1 || n.Position > len(reference) {
		return "", &PositionError{Position: n.Position, Length: len(reference)}
	}
	if found := reference[n.Position-1]; found != n.Original {
		return "", &MismatchError{Position: n.Position, Expected: n.Original, Found: found}
	}
	if !ValidResidue(n.New) {
		return "", &ResidueError{Residue: n.New}
	}
	return Substitute(reference, n.Position-1, n.New)
}

// CreateMutant parses a mutation string and applies it to the wild-type
// sequence in one step. This is the standalone "phase 0" entry point.
func CreateMutant(wildType, mutation string) (string, error) {
	n, err := ParseNotation(mutation)
	if err != nil {
		return "", err
	}
	return n.Apply(wildType)
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package seq provides protein sequence editing primitives for the rescue
// mutation pipeline: mutation notation parsing, single-residue substitution,
// alphabet validation, and FASTA parsing.
//
// Sequences are plain strings over the 20-letter amino acid alphabet and are
// never edited in place; every operation returns a new string.
package seq

import "strings"

// Alphabet is the set of canonical amino acid one-letter codes.
const Alphabet = "ACDEFGHIKLMNPQRSTVWY"

// ValidResidue reports whether r is one of the 20 canonical amino acids.
// Lowercase input is accepted.
func ValidResidue(r byte) bool {
	if r >= 'a' && r <= 'z' {
		r -= 'a' - 'A'
	}
	return strings.IndexByte(Alphabet, r) >= 0
}

// ValidSequence reports whether every character of s is a canonical amino
// acid. The empty sequence is invalid.
func ValidSequence(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !ValidResidue(s[i]) {
			return false
		}
	}
	return true
}

// Substitute returns a copy of sequence with the residue at the 0-indexed
// position replaced by newResidue. Unlike Notation.Apply it performs no check
// against a declared original residue, so it can stack a rescue substitution
// on top of an existing mutant.
func Substitute(sequence string, position int, newResidue byte) (string, error) {
	if position < 0 || position >= len(sequence) {
		return "", &PositionError{Position: position + 1, Length: len(sequence)}
	}
	if !ValidResidue(newResidue) {
		return "", &ResidueError{Residue: newResidue}
	}
	b := []byte(sequence)
	b[position] = newResidue
	return string(b), nil
}

// ResidueAt returns the residue at a 1-indexed position.
func ResidueAt(sequence string, position int) (byte, error) {
	if position < 1 || position > len(sequence) {
		return 0, &PositionError{Position: position, Length: len(sequence)}
	}
	return sequence[position-1], nil
}

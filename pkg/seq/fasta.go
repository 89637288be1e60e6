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
	"errors"
	"strings"
)

// ErrNoSequence is returned by ParseFASTA when the input contains no
// sequence lines.
var ErrNoSequence = errors.New("no sequence found in FASTA content")

// ErrInvalidFASTA is returned by ParseFASTA when the concatenated sequence
// contains characters outside the amino acid alphabet.
var ErrInvalidFASTA = errors.New("invalid amino acid characters found in sequence")

// ParseFASTA extracts a single protein sequence from FASTA content. Header
// lines (starting with '>') are dropped and remaining lines concatenated.
// The result is uppercased and validated against the alphabet.
func ParseFASTA(content string) (string, error) {
	var b strings.Builder
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, ">") {
			continue
		}
		b.WriteString(line)
	}
	sequence := strings.ToUpper(strings.Join(strings.Fields(b.String()), ""))
	if sequence == "" {
		return "", ErrNoSequence
	}
	if !ValidSequence(sequence) {
		return "", ErrInvalidFASTA
	}
	return sequence, nil
}

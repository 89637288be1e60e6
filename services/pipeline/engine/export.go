// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/GeneRescueAI/GeneRescue/services/pipeline/datatypes"
)

// exportArtifacts writes the structural models and deviation summary of a
// completed run under dir. Layout:
//
//	<dir>/<mutation>/wild_type.pdb
//	<dir>/<mutation>/pathogenic_mutant.pdb
//	<dir>/<mutation>/rescue_<notation>.pdb
//	<dir>/<mutation>/rmsd_results.json
//
// Export is best effort and never affects the report; the caller logs the
// returned error and moves on.
func exportArtifacts(dir string, report *datatypes.Report) error {
	runDir := filepath.Join(dir, sanitizeName(report.OriginalMutation))
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	if report.WTModel != "" {
		if err := os.WriteFile(filepath.Join(runDir, "wild_type.pdb"), []byte(report.WTModel), 0o644); err != nil {
			return fmt.Errorf("write wild-type model: %w", err)
		}
	}
	if report.PathogenicModel != "" {
		if err := os.WriteFile(filepath.Join(runDir, "pathogenic_mutant.pdb"), []byte(report.PathogenicModel), 0o644); err != nil {
			return fmt.Errorf("write pathogenic model: %w", err)
		}
	}

	type deviationRow struct {
		Mutation             string   `json:"mutation"`
		Status               string   `json:"status"`
		ScoringProbability   *float64 `json:"esm_score,omitempty"`
		DeviationVsReference *float64 `json:"rmsd_vs_wt,omitempty"`
		DeviationVsPathogen  *float64 `json:"rmsd_vs_mutant,omitempty"`
		BaselineDeviation    *float64 `json:"rmsd_wt_vs_pathogenic,omitempty"`
		StructuralRecovery   string   `json:"structural_recovery,omitempty"`
	}

	rows := make([]deviationRow, 0, len(report.Results.Validated))
	for _, c := range report.Results.Validated {
		if c.RescueModel != "" {
			name := fmt.Sprintf("rescue_%s.pdb", sanitizeName(c.Mutation))
			if err := os.WriteFile(filepath.Join(runDir, name), []byte(c.RescueModel), 0o644); err != nil {
				return fmt.Errorf("write rescue model %s: %w", c.Mutation, err)
			}
		}
		rows = append(rows, deviationRow{
			Mutation:             c.Mutation,
			Status:               string(c.Status),
			ScoringProbability:   c.ScoringProbability,
			DeviationVsReference: c.DeviationVsReference,
			DeviationVsPathogen:  c.DeviationVsPathogen,
			BaselineDeviation:    c.BaselineDeviation,
			StructuralRecovery:   string(c.StructuralRecovery),
		})
	}

	summary, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("encode deviation summary: %w", err)
	}
	if err := os.WriteFile(filepath.Join(runDir, "rmsd_results.json"), summary, 0o644); err != nil {
		return fmt.Errorf("write deviation summary: %w", err)
	}
	return nil
}

// sanitizeName keeps export file names to a safe character set.
func sanitizeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}

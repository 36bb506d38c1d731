// Copyright (C) 2025 Verdanta Labs (oss@verdanta.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/verdanta/guildcore/pkg/scoring"
	"github.com/verdanta/guildcore/pkg/scoring/explain"
	"github.com/verdanta/guildcore/pkg/validation"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	scoreContext string // Climate tier the guild is evaluated in
	scoreExplain bool   // Render the human-readable explanation
)

func init() {
	scoreCmd.Flags().StringVarP(&scoreContext, "context", "c", "tier_3_humid_temperate",
		"Climate context tier (e.g. tier_3_humid_temperate)")
	scoreCmd.Flags().BoolVar(&scoreExplain, "explain", false,
		"Include the human-readable explanation in the output")
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

// runScoreCommand scores one guild and prints the result as JSON.
//
// Species ids may be given as separate arguments or comma-separated:
//
//	guildctl score wfo-0000511077 wfo-0000420248 --context tier_3_humid_temperate
//	guildctl score wfo-0000511077,wfo-0000420248 -c tier_2_mediterranean --explain
func runScoreCommand(cmd *cobra.Command, args []string) error {
	ids := splitSpeciesArgs(args)
	if err := validation.ValidateSpeciesIDs(ids); err != nil {
		return err
	}

	engine, err := scoring.NewEngine(cmd.Context(), scoring.Config{
		TreePath:        treePath,
		DataPath:        dbPath,
		CalibrationPath: calibrationPath,
		WeightsPath:     weightsPath,
	})
	if err != nil {
		return err
	}
	defer engine.Close()

	score, err := engine.ScoreGuild(cmd.Context(), ids, scoreContext)
	if err != nil {
		return err
	}

	if scoreExplain {
		return printJSON(map[string]any{
			"score":       score,
			"explanation": explain.Generate(score),
		})
	}
	return printJSON(score)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Copyright (C) 2025 Verdanta Labs (oss@verdanta.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	treePath        string
	dbPath          string
	calibrationPath string
	weightsPath     string

	rootCmd = &cobra.Command{
		Use:   "guildctl",
		Short: "A cli to score plant guilds for ecological compatibility",
		Long: `Guildctl evaluates guilds of plant species against the frozen
reference data: seven compatibility metrics over a phylogenetic tree
and curated interaction tables, aggregated into one 0-100 score.`,
	}

	// --- Scoring ---
	scoreCmd = &cobra.Command{
		Use:   "score [species-id ...]",
		Short: "Score a guild of species within a climate context",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runScoreCommand, // Defined in cmd_score.go
	}

	// --- Tree Utilities ---
	treeCmd = &cobra.Command{
		Use:   "tree",
		Short: "Inspect the phylogenetic tree snapshot",
	}
	treeInfoCmd = &cobra.Command{
		Use:   "info",
		Short: "Print snapshot summary statistics",
		RunE:  runTreeInfoCommand, // Defined in cmd_tree.go
	}
	treePDCmd = &cobra.Command{
		Use:   "pd [species-id ...]",
		Short: "Compute Faith's phylogenetic diversity for a set of species",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runTreePDCommand, // Defined in cmd_tree.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&treePath, "tree", "phylo_tree.snapshot",
		"Path to the phylogenetic tree snapshot")

	scoreCmd.Flags().StringVar(&dbPath, "db", "refdata.db",
		"Path to the reference sqlite database")
	scoreCmd.Flags().StringVar(&calibrationPath, "calibration", "calibration.json",
		"Path to the frozen percentile calibration file")
	scoreCmd.Flags().StringVar(&weightsPath, "weights", "",
		"Path to a metric weight configuration (default: uniform weights)")

	treeCmd.AddCommand(treeInfoCmd)
	treeCmd.AddCommand(treePDCmd)

	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(treeCmd)
}

// Copyright (C) 2025 Verdanta Labs (oss@verdanta.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/verdanta/guildcore/pkg/phylo"
	"github.com/verdanta/guildcore/pkg/validation"
)

// runTreeInfoCommand prints snapshot summary statistics.
//
//	guildctl tree info --tree phylo_tree.snapshot
func runTreeInfoCommand(cmd *cobra.Command, args []string) error {
	tree, err := phylo.Load(treePath)
	if err != nil {
		return err
	}
	return printJSON(map[string]any{
		"path":   treePath,
		"nodes":  tree.NodeCount(),
		"leaves": tree.LeafCount(),
	})
}

// runTreePDCommand computes Faith's phylogenetic diversity for a set of
// species: the total branch length of the subtree connecting their
// leaves to their most recent common ancestor.
//
//	guildctl tree pd wfo-0000511077 wfo-0000420248
func runTreePDCommand(cmd *cobra.Command, args []string) error {
	ids := splitSpeciesArgs(args)
	if err := validation.ValidateSpeciesIDs(ids); err != nil {
		return err
	}

	tree, err := phylo.Load(treePath)
	if err != nil {
		return err
	}
	pd, err := tree.FaithsPD(ids)
	if err != nil {
		return fmt.Errorf("compute Faith's PD: %w", err)
	}
	return printJSON(map[string]any{
		"species_ids": ids,
		"faiths_pd":   pd,
	})
}

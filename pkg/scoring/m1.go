// Copyright (C) 2025 Verdanta Labs (oss@verdanta.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package scoring

import (
	"fmt"
	"math"

	"github.com/verdanta/guildcore/pkg/phylo"
)

// pestRiskDecay converts Faith's PD (millions of years of branch length)
// into a pest-risk score: exp(-k * PD). PD 0 (conspecifics) gives risk
// 1.0; PD 1000 gives 0.37. Frozen for cross-implementation parity.
const pestRiskDecay = 0.001

// calcM1 scores phylogenetic diversity: evolutionary breadth lowers the
// chance that one pest or pathogen can sweep the whole guild.
//
// Ids without a tree leaf are dropped from the PD computation and noted
// in the detail payload; the guild itself is not failed. Fewer than two
// mapped species degenerates to maximum risk with percentile 0 (which
// the display inversion renders as 100).
func calcM1(tree *phylo.Tree, ids []string, tier string, cal *Calibration) (MetricResult, error) {
	mapped := make([]string, 0, len(ids))
	var unmapped []string
	for _, id := range ids {
		if _, ok := tree.Leaf(id); ok {
			mapped = append(mapped, id)
		} else {
			unmapped = append(unmapped, id)
		}
	}

	res := MetricResult{
		Code:       MetricCodes[M1],
		Name:       MetricNames[M1],
		Applicable: true,
		Detail:     map[string]any{},
	}
	if len(unmapped) > 0 {
		res.Detail["unmapped_species"] = unmapped
	}

	if len(mapped) < 2 {
		res.Raw = 1.0
		res.Normalized = 0.0
		res.Display = 100.0
		res.Note = "fewer than two species mapped to the phylogenetic tree"
		res.Detail["faiths_pd"] = 0.0
		return res, nil
	}

	pd, err := tree.FaithsPD(mapped)
	if err != nil {
		return res, fmt.Errorf("faith's pd: %w", err)
	}

	res.Raw = math.Exp(-pestRiskDecay * pd)
	norm, err := cal.Normalize(res.Raw, tier, calM1, false)
	if err != nil {
		return res, err
	}
	res.Normalized = norm
	res.Display = 100.0 - norm
	res.Detail["faiths_pd"] = pd
	res.Detail["n_species_in_tree"] = len(mapped)
	return res, nil
}

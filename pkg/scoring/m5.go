// Copyright (C) 2025 Verdanta Labs (oss@verdanta.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package scoring

// M5 component weights: shared-network connectivity versus per-plant
// coverage of any beneficial fungus.
const (
	m5NetworkWeight  = 0.6
	m5CoverageWeight = 0.4
)

// calcM5 scores beneficial fungi networks. A fungus associated with two
// or more guild members can link them into a common mycorrhizal network;
// each contributes its plant fraction to the network score. Coverage
// measures how many plants host any beneficial fungus at all.
func calcM5(fungi []FungiView, tier string, cal *Calibration) (MetricResult, error) {
	res := MetricResult{
		Code:       MetricCodes[M5],
		Name:       MetricNames[M5],
		Applicable: true,
		Detail:     map[string]any{},
	}

	n := len(fungi)
	if n == 0 {
		res.Detail["n_shared_fungi"] = 0
		return res, nil
	}

	beneficial := func(f FungiView) [][]string {
		return [][]string{f.AMF, f.EMF, f.Endophytic, f.Saprotrophic}
	}

	// Count plants per fungus, deduplicating within each plant first.
	counts := make(map[string]int)
	plantsWithAny := 0
	for _, f := range fungi {
		perPlant := dedupeSorted(beneficial(f)...)
		if len(perPlant) > 0 {
			plantsWithAny++
		}
		for _, name := range perPlant {
			counts[name]++
		}
	}

	networkScore := 0.0
	sharedFungi := 0
	for _, name := range sortedKeys(counts) {
		if counts[name] >= 2 {
			networkScore += float64(counts[name]) / float64(n)
			sharedFungi++
		}
	}
	coverage := float64(plantsWithAny) / float64(n)

	raw := m5NetworkWeight*networkScore + m5CoverageWeight*coverage
	norm, err := cal.Normalize(raw, tier, calM5, false)
	if err != nil {
		return res, err
	}

	res.Raw = raw
	res.Normalized = norm
	res.Display = norm
	res.Detail["network_score"] = networkScore
	res.Detail["coverage_ratio"] = coverage
	res.Detail["n_shared_fungi"] = sharedFungi
	res.Detail["plants_with_fungi"] = plantsWithAny
	return res, nil
}

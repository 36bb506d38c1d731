// Copyright (C) 2025 Verdanta Labs (oss@verdanta.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package scoring

// calcM7 scores pollinator support. Pollinators (and flower visitors)
// shared by two or more guild members contribute the square of their
// plant fraction: high-overlap pollinator communities compound their
// benefit rather than adding linearly.
func calcM7(orgs []OrganismView, tier string, cal *Calibration) (MetricResult, error) {
	res := MetricResult{
		Code:       MetricCodes[M7],
		Name:       MetricNames[M7],
		Applicable: true,
		Detail:     map[string]any{},
	}

	n := len(orgs)
	if n == 0 {
		res.Detail["n_shared_pollinators"] = 0
		return res, nil
	}

	counts := make(map[string]int)
	for _, o := range orgs {
		perPlant := dedupeSorted(o.Pollinators, o.FlowerVisitors)
		for _, name := range perPlant {
			counts[name]++
		}
	}

	raw := 0.0
	shared := 0
	for _, name := range sortedKeys(counts) {
		if counts[name] >= 2 {
			overlap := float64(counts[name]) / float64(n)
			raw += overlap * overlap
			shared++
		}
	}

	norm, err := cal.Normalize(raw, tier, calM7, false)
	if err != nil {
		return res, err
	}

	res.Raw = raw
	res.Normalized = norm
	res.Display = norm
	res.Detail["n_shared_pollinators"] = shared
	return res, nil
}

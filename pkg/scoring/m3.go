// Copyright (C) 2025 Verdanta Labs (oss@verdanta.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package scoring

import (
	"sort"

	"github.com/verdanta/guildcore/pkg/refdata"
)

// Mechanism weights for cross-species pest control. Specific matches
// come from the curated interaction lookups; the general mechanism only
// credits the mere presence of entomopathogenic fungi.
const (
	weightSpecificPredator = 1.0
	weightSpecificFungus   = 1.0
	weightGeneralFungus    = 0.2
)

// m3Scale rescales mechanism density onto the calibrated range.
const m3Scale = 20.0

// calcM3 scores biological pest control: for each ordered pair (A, B)
// it asks whether B's associated predators or entomopathogenic fungi
// are known controls of A's herbivores, plus a small general credit for
// any entomopathogenic fungi B hosts.
//
// Only plants with an organisms-table row participate; a guild with no
// organism data at all scores zero without consulting calibration.
func calcM3(orgs []OrganismView, fungi []FungiView, store *refdata.Store, tier string, cal *Calibration) (MetricResult, error) {
	res := MetricResult{
		Code:       MetricCodes[M3],
		Name:       MetricNames[M3],
		Applicable: true,
		Detail:     map[string]any{},
	}

	if len(orgs) == 0 {
		res.Detail["n_mechanisms"] = 0
		return res, nil
	}

	// Per-plant aggregates, already deduplicated and sorted by the view
	// builders: all animals (potential herbivores) and the predator pool
	// (flower visitors plus the three predator relations).
	animals := make([][]string, len(orgs))
	predators := make([][]string, len(orgs))
	for i, o := range orgs {
		animals[i] = dedupeSorted(o.Herbivores, o.FlowerVisitors, o.Predators)
		predators[i] = dedupeSorted(o.FlowerVisitors, o.Predators)
	}
	entomoByID := make(map[string][]string, len(fungi))
	for _, f := range fungi {
		entomoByID[f.ID] = f.Entomopathogenic
	}

	raw := 0.0
	nMechanisms := 0
	specificPredatorMatches := 0
	specificFungusMatches := 0
	var predatorPairs, fungusPairs [][2]string

	for a := range orgs {
		if len(animals[a]) == 0 {
			continue
		}
		for b := range orgs {
			if a == b {
				continue
			}

			// Mechanism 1: B hosts a predator known to control one of
			// A's herbivores.
			predatorSet := toSet(predators[b])
			for _, herbivore := range animals[a] {
				known := store.PredatorsOf(herbivore)
				matched := intersectSorted(known, predatorSet)
				if len(matched) > 0 {
					raw += float64(len(matched)) * weightSpecificPredator
					nMechanisms++
					specificPredatorMatches++
					for _, p := range matched {
						predatorPairs = append(predatorPairs, [2]string{herbivore, p})
					}
				}
			}

			entomoB := entomoByID[orgs[b].ID]
			if len(entomoB) == 0 {
				continue
			}
			entomoSet := toSet(entomoB)

			// Mechanism 2: B hosts a fungus known to parasitize one of
			// A's herbivores.
			for _, herbivore := range animals[a] {
				known := store.ParasitesOf(herbivore)
				matched := intersectSorted(known, entomoSet)
				if len(matched) > 0 {
					raw += float64(len(matched)) * weightSpecificFungus
					nMechanisms++
					specificFungusMatches++
					for _, f := range matched {
						fungusPairs = append(fungusPairs, [2]string{herbivore, f})
					}
				}
			}

			// Mechanism 3: general credit for B's entomopathogenic load.
			raw += float64(len(entomoB)) * weightGeneralFungus
		}
	}

	scaled := raw / float64(orderedPairCount(len(orgs))) * m3Scale
	norm, err := cal.Normalize(scaled, tier, calM3, false)
	if err != nil {
		return res, err
	}

	res.Raw = scaled
	res.Normalized = norm
	res.Display = norm
	res.Detail["biocontrol_raw"] = raw
	res.Detail["n_mechanisms"] = nMechanisms
	res.Detail["specific_predator_matches"] = specificPredatorMatches
	res.Detail["specific_fungus_matches"] = specificFungusMatches
	res.Detail["matched_predator_pairs"] = dedupePairs(predatorPairs)
	res.Detail["matched_fungus_pairs"] = dedupePairs(fungusPairs)
	return res, nil
}

func toSet(list []string) map[string]struct{} {
	set := make(map[string]struct{}, len(list))
	for _, v := range list {
		set[v] = struct{}{}
	}
	return set
}

// intersectSorted returns the members of list present in set, in list
// order. Lookup lists are stored sorted, so the result is deterministic.
func intersectSorted(list []string, set map[string]struct{}) []string {
	var out []string
	for _, v := range list {
		if _, ok := set[v]; ok {
			out = append(out, v)
		}
	}
	return out
}

func dedupePairs(pairs [][2]string) [][2]string {
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] != pairs[j][0] {
			return pairs[i][0] < pairs[j][0]
		}
		return pairs[i][1] < pairs[j][1]
	})
	out := pairs[:0]
	for i, p := range pairs {
		if i == 0 || p != pairs[i-1] {
			out = append(out, p)
		}
	}
	return out
}

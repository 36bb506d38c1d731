// Copyright (C) 2025 Verdanta Labs (oss@verdanta.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package scoring

import "github.com/verdanta/guildcore/pkg/refdata"

// m4Scale rescales mechanism density onto the calibrated range.
const m4Scale = 10.0

// calcM4 scores disease suppression: for each ordered pair where plant A
// carries pathogenic fungi and plant B hosts mycoparasites, B's
// mycoparasite load counts as general protection, with an extra credit
// when a curated antagonist of one of A's pathogens is among them.
//
// guildSize is the full guild cardinality; density normalizes against
// it even when some plants lack fungi rows.
func calcM4(fungi []FungiView, guildSize int, store *refdata.Store, tier string, cal *Calibration) (MetricResult, error) {
	res := MetricResult{
		Code:       MetricCodes[M4],
		Name:       MetricNames[M4],
		Applicable: true,
		Detail:     map[string]any{},
	}

	if len(fungi) == 0 {
		res.Detail["n_mechanisms"] = 0
		return res, nil
	}

	raw := 0.0
	nMechanisms := 0
	specificAntagonistMatches := 0

	for a := range fungi {
		if len(fungi[a].Pathogenic) == 0 {
			continue
		}
		for b := range fungi {
			if a == b || len(fungi[b].Mycoparasites) == 0 {
				continue
			}
			mycoSet := toSet(fungi[b].Mycoparasites)

			// Specific antagonists rarely fire: the curated lookup is
			// sparse compared to the general mycoparasite lists.
			for _, pathogen := range fungi[a].Pathogenic {
				known := store.AntagonistsOf(pathogen)
				matched := intersectSorted(known, mycoSet)
				if len(matched) > 0 {
					raw += float64(len(matched))
					nMechanisms++
					specificAntagonistMatches++
				}
			}

			// General protection from B's mycoparasite load.
			raw += float64(len(fungi[b].Mycoparasites))
			nMechanisms++
		}
	}

	scaled := raw / float64(orderedPairCount(guildSize)) * m4Scale
	norm, err := cal.Normalize(scaled, tier, calM4, false)
	if err != nil {
		return res, err
	}

	res.Raw = scaled
	res.Normalized = norm
	res.Display = norm
	res.Detail["pathogen_control_raw"] = raw
	res.Detail["n_mechanisms"] = nMechanisms
	res.Detail["specific_antagonist_matches"] = specificAntagonistMatches
	return res, nil
}

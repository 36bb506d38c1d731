// Copyright (C) 2025 Verdanta Labs (oss@verdanta.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package scoring

import (
	"sort"
	"strings"
)

// M6 component weights: light-validated height stratification versus
// growth-form diversity.
const (
	m6StratificationWeight = 0.7
	m6FormWeight           = 0.3

	// Height differences above this form distinct canopy layers.
	canopyLayerGap = 2.0
)

// calcM6 scores structural compatibility. Plants are sorted by height;
// every pair separated by more than a canopy layer is judged by the
// shorter plant's light preference: shade tolerators validate the
// stratification, sun demanders invalidate it, flexible and unknown
// preferences count partially. Growth-form variety adds the rest.
func calcM6(plants []PlantView, tier string, cal *Calibration) (MetricResult, error) {
	res := MetricResult{
		Code:       MetricCodes[M6],
		Name:       MetricNames[M6],
		Applicable: true,
		Detail:     map[string]any{},
	}

	sorted := make([]PlantView, len(plants))
	copy(sorted, plants)
	sort.SliceStable(sorted, func(i, j int) bool {
		hi, hj := sorted[i].Height, sorted[j].Height
		if !sorted[i].HasHeight {
			hi = 0
		}
		if !sorted[j].HasHeight {
			hj = 0
		}
		return hi < hj
	})

	valid, invalid := 0.0, 0.0
	for i := 0; i < len(sorted)-1; i++ {
		for j := i + 1; j < len(sorted); j++ {
			short, tall := sorted[i], sorted[j]
			if !short.HasHeight || !tall.HasHeight {
				continue
			}
			diff := tall.Height - short.Height
			if diff <= canopyLayerGap {
				continue
			}
			switch {
			case !short.HasLight:
				valid += diff * 0.5
			case short.Light < shadeLightMax:
				valid += diff // thrives under the canopy
			case short.Light > sunLightMin:
				invalid += diff // shaded out
			default:
				valid += diff * 0.6
			}
		}
	}

	quality := 0.0
	if valid+invalid > 0 {
		quality = valid / (valid + invalid)
	}

	forms := make(map[string]struct{})
	for _, p := range plants {
		form := strings.TrimSpace(p.GrowthForm)
		if form != "" {
			forms[strings.ToLower(form)] = struct{}{}
		}
	}
	formDiversity := 0.0
	if len(forms) > 0 {
		formDiversity = float64(len(forms)-1) / 5.0
	}

	raw := m6StratificationWeight*quality + m6FormWeight*formDiversity
	norm, err := cal.Normalize(raw, tier, calM6, false)
	if err != nil {
		return res, err
	}

	minH, maxH, withHeight := 0.0, 0.0, 0
	for _, p := range plants {
		if !p.HasHeight {
			continue
		}
		if withHeight == 0 || p.Height < minH {
			minH = p.Height
		}
		if withHeight == 0 || p.Height > maxH {
			maxH = p.Height
		}
		withHeight++
	}
	heightRange := 0.0
	if withHeight >= 2 {
		heightRange = maxH - minH
	}

	res.Raw = raw
	res.Normalized = norm
	res.Display = norm
	res.Detail["stratification_quality"] = quality
	res.Detail["form_diversity"] = formDiversity
	res.Detail["n_forms"] = len(forms)
	res.Detail["height_range_m"] = heightRange
	return res, nil
}

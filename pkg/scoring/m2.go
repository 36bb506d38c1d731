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
	"strings"
)

// highStrategistCutoff classifies a plant as a strong C, S, or R
// strategist when its axis percentile exceeds the top quartile.
const highStrategistCutoff = 75.0

// Light-preference breakpoints (EIVE-L scale) separating shade-tolerant
// and sun-demanding stress tolerators in the C-S conflict rule.
const (
	shadeLightMax = 3.2
	sunLightMin   = 7.47
)

// csrPlant is one guild member's strategy classification.
type csrPlant struct {
	view       PlantView
	cPct       float64
	sPct       float64
	rPct       float64
	dominant   string
	height     float64
	growthForm string
	light      float64
}

// calcM2 scores growth-strategy conflicts under Grime's CSR framework:
// pairs of strong competitors (or competitors against stress-tolerators
// and ruderals) fight for the same resources unless their growth forms,
// heights, or light niches separate them.
//
// A plant with missing CSR coordinates fails the metric: substituting a
// neutral value would fabricate or hide conflicts.
func calcM2(plants []PlantView, tier string, cal *Calibration) (MetricResult, error) {
	res := MetricResult{
		Code:       MetricCodes[M2],
		Name:       MetricNames[M2],
		Applicable: true,
		Detail:     map[string]any{},
	}

	rows := make([]csrPlant, len(plants))
	for i, p := range plants {
		if !p.HasCSR {
			return res, fmt.Errorf("plant %s has missing CSR data", p.ID)
		}
		row := csrPlant{
			view:       p,
			cPct:       cal.CSRPercentile("c", p.C),
			sPct:       cal.CSRPercentile("s", p.S),
			rPct:       cal.CSRPercentile("r", p.R),
			height:     1.0,
			growthForm: strings.ToLower(p.GrowthForm),
			light:      5.0,
		}
		if p.HasHeight {
			row.height = p.Height
		}
		if p.HasLight {
			row.light = p.Light
		}
		row.dominant = dominantStrategy(row.cPct, row.sPct, row.rPct)
		rows[i] = row
	}

	var highC, highS, highR []csrPlant
	for _, r := range rows {
		if r.cPct > highStrategistCutoff {
			highC = append(highC, r)
		}
		if r.sPct > highStrategistCutoff {
			highS = append(highS, r)
		}
		if r.rPct > highStrategistCutoff {
			highR = append(highR, r)
		}
	}

	total := 0.0
	for i := 0; i < len(highC); i++ {
		for j := i + 1; j < len(highC); j++ {
			total += ccConflict(highC[i], highC[j])
		}
	}
	for _, c := range highC {
		for _, s := range highS {
			if c.view.ID != s.view.ID {
				total += csConflict(c, s)
			}
		}
	}
	for _, c := range highC {
		for _, r := range highR {
			if c.view.ID != r.view.ID {
				total += crConflict(c, r)
			}
		}
	}
	if len(highR) >= 2 {
		pairs := len(highR) * (len(highR) - 1) / 2
		total += 0.3 * float64(pairs)
	}

	maxPairs := orderedPairCount(len(plants))
	density := total / float64(maxPairs)

	norm, err := cal.Normalize(density, tier, calM2, false)
	if err != nil {
		return res, err
	}

	res.Raw = density
	res.Normalized = norm
	res.Display = 100.0 - norm

	strategies := make([]map[string]any, len(rows))
	for i, r := range rows {
		strategies[i] = map[string]any{
			"id":           r.view.ID,
			"name":         r.view.Name,
			"c_percentile": r.cPct,
			"s_percentile": r.sPct,
			"r_percentile": r.rPct,
			"dominant":     r.dominant,
		}
	}
	res.Detail["total_conflicts"] = total
	res.Detail["high_c_count"] = len(highC)
	res.Detail["high_s_count"] = len(highS)
	res.Detail["high_r_count"] = len(highR)
	res.Detail["strategies"] = strategies
	return res, nil
}

// orderedPairCount is the shared pairwise normalizer: n(n-1), floored at
// 1 so a single-plant guild divides by one instead of zero.
func orderedPairCount(n int) int {
	if n <= 1 {
		return 1
	}
	return n * (n - 1)
}

// ccConflict rates two strong competitors. Base severity 1.0, reduced
// when growth forms or canopy heights separate their niches.
func ccConflict(a, b csrPlant) float64 {
	conflict := 1.0
	formA, formB := a.growthForm, b.growthForm
	switch {
	case (strings.Contains(formA, "vine") || strings.Contains(formA, "liana")) && strings.Contains(formB, "tree"):
		conflict *= 0.2 // vine climbs the tree
	case (strings.Contains(formB, "vine") || strings.Contains(formB, "liana")) && strings.Contains(formA, "tree"):
		conflict *= 0.2
	case (strings.Contains(formA, "tree") && strings.Contains(formB, "herb")) ||
		(strings.Contains(formB, "tree") && strings.Contains(formA, "herb")):
		conflict *= 0.4 // separate vertical niches
	default:
		diff := math.Abs(a.height - b.height)
		switch {
		case diff < 2.0:
			conflict *= 1.0 // same canopy layer
		case diff < 5.0:
			conflict *= 0.6
		default:
			conflict *= 0.3
		}
	}
	return conflict
}

// csConflict rates a competitor against a stress tolerator. A
// shade-tolerant S plant thrives under the competitor's canopy; a
// sun-demanding one is shaded out.
func csConflict(c, s csrPlant) float64 {
	conflict := 0.6
	switch {
	case s.light < shadeLightMax:
		conflict = 0.0
	case s.light > sunLightMin:
		conflict = 0.9
	default:
		if math.Abs(c.height-s.height) > 8.0 {
			conflict *= 0.3 // strong vertical separation
		}
	}
	return conflict
}

// crConflict rates a competitor against a ruderal; tall competitors and
// ground-level ruderals occupy different temporal/spatial niches.
func crConflict(c, r csrPlant) float64 {
	conflict := 0.8
	if math.Abs(c.height-r.height) > 5.0 {
		conflict *= 0.3
	}
	return conflict
}

// dominantStrategy labels a plant's strongest axis, or "Mixed" when the
// three percentiles sit within 20 points of each other.
func dominantStrategy(cPct, sPct, rPct float64) string {
	maxPct := math.Max(cPct, math.Max(sPct, rPct))
	minPct := math.Min(cPct, math.Min(sPct, rPct))
	if maxPct-minPct < 20.0 {
		return "Mixed"
	}
	switch {
	case cPct >= sPct && cPct >= rPct:
		if cPct > highStrategistCutoff {
			return "Competitive"
		}
		return "C-leaning"
	case sPct >= cPct && sPct >= rPct:
		if sPct > highStrategistCutoff {
			return "Stress-tolerant"
		}
		return "S-leaning"
	default:
		if rPct > highStrategistCutoff {
			return "Ruderal"
		}
		return "R-leaning"
	}
}

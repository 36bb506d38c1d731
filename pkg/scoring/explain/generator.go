// Copyright (C) 2025 Verdanta Labs (oss@verdanta.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package explain

import (
	"fmt"

	"github.com/verdanta/guildcore/pkg/scoring"
)

// universalMetricCount splits the display into metrics that apply to
// every guild (M1-M4) and bonus metrics (M5-M7).
const universalMetricCount = 4

// tierDisplayNames maps scoring contexts to their presentation names.
var tierDisplayNames = map[string]string{
	"tier_1_tropical":        "Tier 1 (Tropical)",
	"tier_2_mediterranean":   "Tier 2 (Mediterranean)",
	"tier_3_humid_temperate": "Tier 3 (Humid Temperate)",
	"tier_4_continental":     "Tier 4 (Continental)",
	"tier_5_boreal_polar":    "Tier 5 (Boreal/Polar)",
	"tier_6_arid":            "Tier 6 (Arid)",
}

// Generate renders a scored guild into explanation cards. It is a pure
// function of the GuildScore: deterministic, no I/O.
func Generate(score *scoring.GuildScore) *Explanation {
	ex := &Explanation{
		Overall: overallExplanation(score.Overall),
		Climate: climateExplanation(score.Context),
		Metrics: metricsDisplay(score),
	}
	for idx, m := range score.Metrics {
		frag := fragmentFor(idx, m)
		if frag.benefit != nil {
			ex.Benefits = append(ex.Benefits, *frag.benefit)
		}
		if frag.warning != nil {
			ex.Warnings = append(ex.Warnings, *frag.warning)
		}
		if frag.risk != nil {
			ex.Risks = append(ex.Risks, *frag.risk)
		}
	}
	return ex
}

func overallExplanation(score float64) OverallExplanation {
	var stars, label string
	switch {
	case score >= 90:
		stars, label = "★★★★★", "Exceptional"
	case score >= 80:
		stars, label = "★★★★☆", "Excellent"
	case score >= 70:
		stars, label = "★★★☆☆", "Good"
	case score >= 60:
		stars, label = "★★☆☆☆", "Fair"
	case score >= 50:
		stars, label = "★☆☆☆☆", "Poor"
	default:
		stars, label = "☆☆☆☆☆", "Unsuitable"
	}
	return OverallExplanation{
		Score:   score,
		Stars:   stars,
		Label:   label,
		Message: fmt.Sprintf("Overall guild compatibility: %.1f/100", score),
	}
}

func climateExplanation(tier string) ClimateExplanation {
	display, ok := tierDisplayNames[tier]
	if !ok {
		display = "Unknown"
	}
	return ClimateExplanation{
		Compatible:  true, // enforced before scoring
		Tier:        tier,
		TierDisplay: display,
		Message:     fmt.Sprintf("All plants compatible with %s", display),
	}
}

func metricsDisplay(score *scoring.GuildScore) MetricsDisplay {
	var display MetricsDisplay
	for i, m := range score.Metrics {
		card := MetricCard{
			Code:           m.Code,
			Name:           m.Name,
			Score:          m.Display,
			Raw:            m.Raw,
			Interpretation: interpret(m.Display),
			Note:           m.Note,
		}
		if i < universalMetricCount {
			display.Universal = append(display.Universal, card)
		} else {
			display.Bonus = append(display.Bonus, card)
		}
	}
	return display
}

func interpret(score float64) string {
	switch {
	case score >= 80:
		return "Excellent"
	case score >= 60:
		return "Good"
	case score >= 40:
		return "Fair"
	default:
		return "Poor"
	}
}

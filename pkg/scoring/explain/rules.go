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

// Display-score thresholds for emitting cards. Frozen for
// cross-implementation parity.
const (
	benefitThreshold   = 50.0
	m1RiskThreshold    = 30.0
	m7BenefitThreshold = 30.0
	m2WarningThreshold = 80.0
)

// fragmentFor dispatches one metric result to its rule. Inapplicable
// metrics emit no cards: a neutral contribution has nothing to say.
func fragmentFor(idx int, m scoring.MetricResult) fragment {
	if !m.Applicable {
		return fragment{}
	}
	switch idx {
	case scoring.M1:
		return m1Fragment(m)
	case scoring.M2:
		return m2Fragment(m)
	case scoring.M3:
		return m3Fragment(m)
	case scoring.M4:
		return m4Fragment(m)
	case scoring.M5:
		return m5Fragment(m)
	case scoring.M6:
		return m6Fragment(m)
	case scoring.M7:
		return m7Fragment(m)
	}
	return fragment{}
}

// m1Fragment: distant relatives share fewer pests; close relatives are
// a risk, not just a missing benefit.
func m1Fragment(m scoring.MetricResult) fragment {
	pd := detailFloat(m.Detail, "faiths_pd")
	switch {
	case m.Display > benefitThreshold:
		return fragment{benefit: &BenefitCard{
			BenefitType: "phylogenetic_diversity",
			MetricCode:  m.Code,
			Title:       "High Phylogenetic Diversity",
			Message:     fmt.Sprintf("Plants are distantly related (Faith's PD: %.2f)", pd),
			Detail:      "Distant relatives typically share fewer pests and pathogens, reducing disease spread in the guild.",
			Evidence:    fmt.Sprintf("Phylogenetic diversity score: %.1f/100", m.Display),
		}}
	case m.Display < m1RiskThreshold:
		return fragment{risk: &RiskCard{
			RiskType: "pest_vulnerability",
			Severity: SeverityFromScore(m.Display),
			Title:    "Closely Related Plants",
			Message:  "Guild contains closely related plants that may share pests",
			Detail:   fmt.Sprintf("Low phylogenetic diversity (Faith's PD: %.2f) increases pest and pathogen risk", pd),
			Advice:   "Consider adding plants from different families to increase diversity",
		}}
	}
	return fragment{}
}

// m2Fragment warns about growth-strategy conflicts by severity.
func m2Fragment(m scoring.MetricResult) fragment {
	if m.Display >= m2WarningThreshold {
		return fragment{}
	}
	conflicts := detailFloat(m.Detail, "total_conflicts")
	highC := detailInt(m.Detail, "high_c_count")
	highS := detailInt(m.Detail, "high_s_count")
	highR := detailInt(m.Detail, "high_r_count")
	return fragment{warning: &WarningCard{
		WarningType: "csr_conflict",
		Severity:    SeverityFromScore(m.Display),
		Message:     fmt.Sprintf("Growth strategy conflicts detected (severity %.1f)", conflicts),
		Detail: fmt.Sprintf(
			"Guild composition: %d competitive-dominant, %d stress-tolerant-dominant, %d ruderal-dominant plants (high CSR values: >75th percentile)",
			highC, highS, highR),
		Advice: "Pair aggressive competitors with plants in different canopy layers, or separate them spatially",
	}}
}

func m3Fragment(m scoring.MetricResult) fragment {
	if m.Display <= benefitThreshold {
		return fragment{}
	}
	return fragment{benefit: &BenefitCard{
		BenefitType: "insect_control",
		MetricCode:  m.Code,
		Title:       "Natural Insect Pest Control",
		Message:     "Guild provides natural insect pest control",
		Detail:      "Plants attract beneficial insects (predators and parasitoids) that naturally suppress pest populations.",
		Evidence:    fmt.Sprintf("Biocontrol score: %.1f/100", m.Display),
	}}
}

func m4Fragment(m scoring.MetricResult) fragment {
	if m.Display <= benefitThreshold {
		return fragment{}
	}
	n := detailInt(m.Detail, "n_mechanisms")
	word := "mechanisms"
	if n == 1 {
		word = "mechanism"
	}
	return fragment{benefit: &BenefitCard{
		BenefitType: "disease_control",
		MetricCode:  m.Code,
		Title:       "Natural Disease Suppression",
		Message:     fmt.Sprintf("Guild provides disease suppression via %d antagonistic fungal %s", n, word),
		Detail:      "Plants harbor beneficial fungi that antagonize pathogens, reducing disease incidence through biological control.",
		Evidence:    fmt.Sprintf("Pathogen control score: %.1f/100, covering %d %s", m.Display, n, word),
	}}
}

func m5Fragment(m scoring.MetricResult) fragment {
	if m.Display <= benefitThreshold {
		return fragment{}
	}
	shared := detailInt(m.Detail, "n_shared_fungi")
	return fragment{benefit: &BenefitCard{
		BenefitType: "fungal_networks",
		MetricCode:  m.Code,
		Title:       "Shared Beneficial Fungi Networks",
		Message:     fmt.Sprintf("%d beneficial fungi link multiple guild members", shared),
		Detail:      "Mycorrhizae, endophytes, and decomposers shared across plants can form common nutrient and signaling networks.",
		Evidence:    fmt.Sprintf("Beneficial fungi score: %.1f/100", m.Display),
	}}
}

func m6Fragment(m scoring.MetricResult) fragment {
	if m.Display <= benefitThreshold {
		return fragment{}
	}
	nForms := detailInt(m.Detail, "n_forms")
	heightRange := detailFloat(m.Detail, "height_range_m")
	quality := detailFloat(m.Detail, "stratification_quality")
	word := "forms"
	if nForms == 1 {
		word = "form"
	}
	return fragment{benefit: &BenefitCard{
		BenefitType: "structural_diversity",
		MetricCode:  m.Code,
		Title:       "High Structural Diversity",
		Message:     fmt.Sprintf("%d growth %s spanning %.1fm height range", nForms, word, heightRange),
		Detail:      "Diverse plant structures create vertical stratification, maximizing space use, light capture, and habitat complexity.",
		Evidence:    fmt.Sprintf("Stratification quality: %.2f", quality),
	}}
}

func m7Fragment(m scoring.MetricResult) fragment {
	if m.Display <= m7BenefitThreshold {
		return fragment{}
	}
	shared := detailInt(m.Detail, "n_shared_pollinators")
	return fragment{benefit: &BenefitCard{
		BenefitType: "pollinator_support",
		MetricCode:  m.Code,
		Title:       "Robust Pollinator Support",
		Message:     fmt.Sprintf("%d shared pollinator species", shared),
		Detail:      "Plants attract and support overlapping pollinator communities, ensuring reliable pollination services and promoting pollinator diversity.",
		Evidence:    fmt.Sprintf("Pollinator support score: %.1f/100", m.Display),
	}}
}

// Detail values arrive as native types from the engine but as float64
// after a JSON round trip through the cache; both forms are accepted.
func detailFloat(detail map[string]any, key string) float64 {
	switch v := detail[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

func detailInt(detail map[string]any, key string) int {
	switch v := detail[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

// Copyright (C) 2025 Verdanta Labs (oss@verdanta.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package explain renders a scored guild into human-readable cards:
// an overall verdict, climate context, and per-metric benefits,
// warnings, and risks. Generation is pure; it never touches the
// reference store.
package explain

// Explanation is the complete rendering of one GuildScore.
type Explanation struct {
	Overall  OverallExplanation `json:"overall"`
	Climate  ClimateExplanation `json:"climate"`
	Benefits []BenefitCard      `json:"benefits"`
	Warnings []WarningCard      `json:"warnings"`
	Risks    []RiskCard         `json:"risks"`
	Metrics  MetricsDisplay     `json:"metrics_display"`
}

// OverallExplanation is the star-rated verdict.
type OverallExplanation struct {
	Score   float64 `json:"score"`
	Stars   string  `json:"stars"` // "★★★★☆"
	Label   string  `json:"label"` // "Excellent"
	Message string  `json:"message"`
}

// ClimateExplanation names the scoring context the guild was evaluated
// in. Compatibility was already enforced before scoring, so Compatible
// is always true on a successful score.
type ClimateExplanation struct {
	Compatible  bool   `json:"compatible"`
	Tier        string `json:"tier"`         // "tier_3_humid_temperate"
	TierDisplay string `json:"tier_display"` // "Tier 3 (Humid Temperate)"
	Message     string `json:"message"`
}

// BenefitCard calls out a positive guild characteristic.
type BenefitCard struct {
	BenefitType string `json:"benefit_type"` // "phylogenetic_diversity"
	MetricCode  string `json:"metric_code"`  // "M1"
	Title       string `json:"title"`
	Message     string `json:"message"`
	Detail      string `json:"detail"`
	Evidence    string `json:"evidence,omitempty"`
}

// WarningCard flags a potential issue worth watching.
type WarningCard struct {
	WarningType string   `json:"warning_type"` // "csr_conflict"
	Severity    Severity `json:"severity"`
	Message     string   `json:"message"`
	Detail      string   `json:"detail"`
	Advice      string   `json:"advice"`
}

// RiskCard flags a significant concern.
type RiskCard struct {
	RiskType string   `json:"risk_type"` // "pest_vulnerability"
	Severity Severity `json:"severity"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Detail   string   `json:"detail"`
	Advice   string   `json:"advice"`
}

// Severity grades warnings and risks.
type Severity string

const (
	SeverityNone   Severity = "none"
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// SeverityFromScore derives a severity from a 0-100 display score.
// Thresholds are frozen for cross-implementation parity.
func SeverityFromScore(score float64) Severity {
	switch {
	case score >= 80:
		return SeverityNone
	case score >= 60:
		return SeverityLow
	case score >= 40:
		return SeverityMedium
	default:
		return SeverityHigh
	}
}

// MetricsDisplay groups metric cards the way the UI presents them:
// universal metrics apply to every guild, bonus metrics reward extras.
type MetricsDisplay struct {
	Universal []MetricCard `json:"universal"` // M1-M4
	Bonus     []MetricCard `json:"bonus"`     // M5-M7
}

// MetricCard is one metric's scored summary.
type MetricCard struct {
	Code           string  `json:"code"`
	Name           string  `json:"name"`
	Score          float64 `json:"score"` // display score, 0-100
	Raw            float64 `json:"raw"`
	Interpretation string  `json:"interpretation"` // "Excellent" .. "Poor"
	Note           string  `json:"note,omitempty"`
}

// fragment is one metric's contribution to the card lists. At most one
// card of each kind per metric.
type fragment struct {
	benefit *BenefitCard
	warning *WarningCard
	risk    *RiskCard
}

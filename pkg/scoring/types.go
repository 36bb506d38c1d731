// Copyright (C) 2025 Verdanta Labs (oss@verdanta.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package scoring

// Metric codes in engine order.
const (
	M1 = iota // phylogenetic diversity
	M2        // growth-strategy conflict
	M3        // biological pest control
	M4        // disease suppression
	M5        // beneficial fungi networks
	M6        // structural compatibility
	M7        // pollinator support
	MetricCount
)

// MetricNames are the display names in engine order.
var MetricNames = [MetricCount]string{
	"Phylogenetic Diversity",
	"Growth Strategy",
	"Biocontrol Networks",
	"Disease Suppression",
	"Beneficial Fungi",
	"Structural Diversity",
	"Pollinator Support",
}

// MetricCodes are the wire codes in engine order.
var MetricCodes = [MetricCount]string{"M1", "M2", "M3", "M4", "M5", "M6", "M7"}

// neutralDisplay is the contribution of an inapplicable or failed
// metric: it neither rewards nor penalizes the guild.
const neutralDisplay = 50.0

// MetricResult carries one metric's raw score (domain units), its
// percentile normalization (0-100), and the display score fed into the
// aggregate. For M1 and M2 the display is the inverted percentile (the
// raw quantities measure risk, the display measures benefit); for the
// rest display equals the percentile.
//
// Detail is consumed only by the explanation generator, never re-parsed
// for scoring.
type MetricResult struct {
	Code       string         `json:"code"`
	Name       string         `json:"name"`
	Raw        float64        `json:"raw"`
	Normalized float64        `json:"normalized"`
	Display    float64        `json:"display"`
	Applicable bool           `json:"applicable"`
	Note       string         `json:"note,omitempty"`
	Detail     map[string]any `json:"detail,omitempty"`
}

// neutralResult marks a metric inapplicable or failed without aborting
// the other six.
func neutralResult(idx int, note string) MetricResult {
	return MetricResult{
		Code:       MetricCodes[idx],
		Name:       MetricNames[idx],
		Raw:        0,
		Normalized: neutralDisplay,
		Display:    neutralDisplay,
		Applicable: false,
		Note:       note,
	}
}

// GuildScore is the complete scoring result for one canonical guild in
// one context.
type GuildScore struct {
	GuildIDs []string                  `json:"guild_ids"`
	Context  string                    `json:"context"`
	Metrics  [MetricCount]MetricResult `json:"metrics"`
	Overall  float64                   `json:"overall"`
	CacheKey string                    `json:"cache_key"`
}

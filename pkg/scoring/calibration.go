// Copyright (C) 2025 Verdanta Labs (oss@verdanta.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package scoring

import (
	"encoding/json"
	"fmt"
	"os"
)

// Calibration keys tying metrics to their percentile tables. These match
// the frozen cross-implementation calibration files.
const (
	calM1 = "m1" // pest risk exp(-0.001 * PD)
	calM2 = "n4" // strategy conflict density
	calM3 = "p1" // biocontrol mechanism density
	calM4 = "p2" // disease-suppression mechanism density
	calM5 = "p3" // beneficial fungi network score
	calM6 = "p5" // structural compatibility score
	calM7 = "p6" // pollinator sharing score
)

// metricPoints are the 13 percentile anchors of every metric table.
var metricPoints = []percentilePoint{
	{"p01", 1}, {"p05", 5}, {"p10", 10}, {"p20", 20}, {"p30", 30},
	{"p40", 40}, {"p50", 50}, {"p60", 60}, {"p70", 70}, {"p80", 80},
	{"p90", 90}, {"p95", 95}, {"p99", 99},
}

// csrPoints add p75/p85 for finer resolution around the "high
// strategist" cutoff used by the growth-strategy metric.
var csrPoints = []percentilePoint{
	{"p01", 1}, {"p05", 5}, {"p10", 10}, {"p20", 20}, {"p30", 30},
	{"p40", 40}, {"p50", 50}, {"p60", 60}, {"p70", 70}, {"p75", 75},
	{"p80", 80}, {"p85", 85}, {"p90", 90}, {"p95", 95}, {"p99", 99},
}

type percentilePoint struct {
	key     string
	percent float64
}

// Percentiles maps anchor names (p01..p99) to raw metric values.
type Percentiles map[string]float64

// Calibration holds the per-context percentile tables used to rescale
// raw metric values onto a common 0-100 range, plus the global CSR
// strategy tables.
type Calibration struct {
	Tiers map[string]map[string]Percentiles `json:"tiers"`
	CSR   map[string]Percentiles            `json:"csr"`
}

// LoadCalibration reads and validates a calibration file. Every declared
// tier must carry a table for all seven metric keys.
func LoadCalibration(path string) (*Calibration, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read calibration %s: %w", path, err)
	}
	var c Calibration
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse calibration %s: %w", path, err)
	}
	if len(c.Tiers) == 0 {
		return nil, fmt.Errorf("calibration %s declares no tiers", path)
	}
	for tier, tables := range c.Tiers {
		for _, key := range []string{calM1, calM2, calM3, calM4, calM5, calM6, calM7} {
			table, ok := tables[key]
			if !ok {
				return nil, fmt.Errorf("calibration tier %s missing table %q", tier, key)
			}
			for _, pt := range metricPoints {
				if _, ok := table[pt.key]; !ok {
					return nil, fmt.Errorf("calibration tier %s table %s missing %s", tier, key, pt.key)
				}
			}
		}
	}
	return &c, nil
}

// HasTier reports whether a context tier is calibrated.
func (c *Calibration) HasTier(tier string) bool {
	_, ok := c.Tiers[tier]
	return ok
}

// Normalize rescales a raw metric value to its percentile rank (0-100)
// within a context tier.
//
// Values at or below the p01 anchor map to 0, values at or above p99 map
// to 100, and values between adjacent anchors interpolate linearly.
// With invert set the result is flipped to 100-rank (used where a high
// raw value is bad).
func (c *Calibration) Normalize(raw float64, tier, metric string, invert bool) (float64, error) {
	tables, ok := c.Tiers[tier]
	if !ok {
		return 0, fmt.Errorf("no calibration for tier %q", tier)
	}
	table, ok := tables[metric]
	if !ok {
		return 0, fmt.Errorf("tier %q has no calibration table %q", tier, metric)
	}
	rank := interpolate(raw, table, metricPoints)
	if invert {
		rank = 100 - rank
	}
	return rank, nil
}

// CSRPercentile ranks one C/S/R axis value against the global strategy
// distribution. Without CSR calibration it falls back to the frozen
// coarse thresholds (c/s: >=60 -> 100; r: >=50 -> 100; else 50).
func (c *Calibration) CSRPercentile(axis string, value float64) float64 {
	if table, ok := c.CSR[axis]; ok && len(table) > 0 {
		return interpolate(value, table, csrPoints)
	}
	switch axis {
	case "r":
		if value >= 50 {
			return 100
		}
	default:
		if value >= 60 {
			return 100
		}
	}
	return 50
}

// interpolate maps raw onto the percentile scale defined by anchors.
// Anchor values are non-decreasing in every frozen calibration file;
// a flat pair collapses to the upper anchor's percentile.
func interpolate(raw float64, table Percentiles, anchors []percentilePoint) float64 {
	lo := anchors[0]
	hi := anchors[len(anchors)-1]
	if raw <= table[lo.key] {
		return 0
	}
	if raw >= table[hi.key] {
		return 100
	}
	for i := 1; i < len(anchors); i++ {
		a, b := anchors[i-1], anchors[i]
		va, vb := table[a.key], table[b.key]
		if raw > vb {
			continue
		}
		if vb == va {
			return b.percent
		}
		return a.percent + (b.percent-a.percent)*(raw-va)/(vb-va)
	}
	return 100
}

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

// =============================================================================
// Column Requirements
// =============================================================================
//
// Each metric declares the exact column subset it reads. The engine
// unions the subsets per table into one projected query, so the filtered
// view is materialized once and shared read-only by every metric that
// needs it. Nothing outside these lists is ever materialized.

// Plants-table columns.
const (
	ColScientificName = "wfo_scientific_name"
	ColCSRC           = "csr_c"
	ColCSRS           = "csr_s"
	ColCSRR           = "csr_r"
	ColHeight         = "height_m"
	ColGrowthForm     = "growth_form"
	ColLightPref      = "light_pref"
)

// ClimateTiers are the plants-table membership flags, one per scoring
// context.
var ClimateTiers = []string{
	"tier_1_tropical",
	"tier_2_mediterranean",
	"tier_3_humid_temperate",
	"tier_4_continental",
	"tier_5_boreal_polar",
	"tier_6_arid",
}

// M2Columns and M6Columns are the plants projections of the two
// trait-driven metrics.
var (
	M2Columns = []string{ColCSRC, ColCSRS, ColCSRR, ColHeight, ColGrowthForm, ColLightPref}
	M6Columns = []string{ColHeight, ColLightPref, ColGrowthForm}
)

// Organisms-table columns.
const (
	ColHerbivores     = "herbivores"
	ColFlowerVisitors = "flower_visitors"
	ColPollinators    = "pollinators"
	ColPredHasHost    = "predators_has_host"
	ColPredInteracts  = "predators_interacts_with"
	ColPredAdjacent   = "predators_adjacent_to"
)

var (
	M3OrganismColumns = []string{ColHerbivores, ColFlowerVisitors, ColPredHasHost, ColPredInteracts, ColPredAdjacent}
	M7OrganismColumns = []string{ColPollinators, ColFlowerVisitors}
)

// Fungi-table columns.
const (
	ColPathogenicFungi = "pathogenic_fungi"
	ColMycoparasites   = "mycoparasite_fungi"
	ColEntomoFungi     = "entomopathogenic_fungi"
	ColAMF             = "amf_fungi"
	ColEMF             = "emf_fungi"
	ColEndophytic      = "endophytic_fungi"
	ColSaprotrophic    = "saprotrophic_fungi"
)

var (
	M3FungiColumns = []string{ColEntomoFungi}
	M4FungiColumns = []string{ColPathogenicFungi, ColMycoparasites}
	M5FungiColumns = []string{ColAMF, ColEMF, ColEndophytic, ColSaprotrophic}
)

// =============================================================================
// Materialized Views
// =============================================================================

// PlantView is one guild member's trait projection. Missing trait cells
// keep their Has flag false; each metric decides its own default.
type PlantView struct {
	ID         string
	Name       string
	C, S, R    float64
	HasCSR     bool
	Height     float64
	HasHeight  bool
	GrowthForm string
	Light      float64
	HasLight   bool
	Tiers      map[string]bool
}

// OrganismView is one guild member's interaction lists.
type OrganismView struct {
	ID             string
	Herbivores     []string
	FlowerVisitors []string
	Pollinators    []string
	Predators      []string // union of the three predator relations
}

// FungiView is one guild member's fungal association lists.
type FungiView struct {
	ID               string
	Pathogenic       []string
	Mycoparasites    []string
	Entomopathogenic []string
	AMF              []string
	EMF              []string
	Endophytic       []string
	Saprotrophic     []string
}

func plantViewFromRow(row refdata.Row) PlantView {
	v := PlantView{ID: row.ID, Tiers: make(map[string]bool, len(ClimateTiers))}
	v.Name, _ = row.Str(ColScientificName)

	c, okC := row.Float(ColCSRC)
	s, okS := row.Float(ColCSRS)
	r, okR := row.Float(ColCSRR)
	if okC && okS && okR {
		v.C, v.S, v.R, v.HasCSR = c, s, r, true
	}
	v.Height, v.HasHeight = row.Float(ColHeight)
	v.GrowthForm, _ = row.Str(ColGrowthForm)
	v.Light, v.HasLight = row.Float(ColLightPref)
	for _, tier := range ClimateTiers {
		v.Tiers[tier] = row.Bool(tier)
	}
	return v
}

func organismViewFromRow(row refdata.Row) OrganismView {
	v := OrganismView{
		ID:             row.ID,
		Herbivores:     row.List(ColHerbivores),
		FlowerVisitors: row.List(ColFlowerVisitors),
		Pollinators:    row.List(ColPollinators),
	}
	v.Predators = dedupeSorted(
		row.List(ColPredHasHost),
		row.List(ColPredInteracts),
		row.List(ColPredAdjacent),
	)
	return v
}

func fungiViewFromRow(row refdata.Row) FungiView {
	return FungiView{
		ID:               row.ID,
		Pathogenic:       row.List(ColPathogenicFungi),
		Mycoparasites:    row.List(ColMycoparasites),
		Entomopathogenic: row.List(ColEntomoFungi),
		AMF:              row.List(ColAMF),
		EMF:              row.List(ColEMF),
		Endophytic:       row.List(ColEndophytic),
		Saprotrophic:     row.List(ColSaprotrophic),
	}
}

// organismsFromRows materializes the per-plant organism views. Only
// plants with an organisms-table row appear; rows arrive sorted by id,
// so every downstream accumulation is deterministic.
func organismsFromRows(rows []refdata.Row) []OrganismView {
	out := make([]OrganismView, len(rows))
	for i, row := range rows {
		out[i] = organismViewFromRow(row)
	}
	return out
}

func fungiFromRows(rows []refdata.Row) []FungiView {
	out := make([]FungiView, len(rows))
	for i, row := range rows {
		out[i] = fungiViewFromRow(row)
	}
	return out
}

// dedupeSorted merges string lists into a sorted, duplicate-free slice.
func dedupeSorted(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, v := range list {
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// sortedKeys returns map keys in sorted order for deterministic
// accumulation and detail payloads.
func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

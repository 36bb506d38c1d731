// Copyright (C) 2025 Verdanta Labs (oss@verdanta.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package scoring

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/verdanta/guildcore/pkg/phylo"
	"github.com/verdanta/guildcore/pkg/refdata"
)

const testTier = "tier_3_humid_temperate"

// linearTable spans raw values low..high linearly across the percentile
// anchors, so Normalize is easy to reason about in tests.
func linearTable(points []percentilePoint, low, high float64) Percentiles {
	table := make(Percentiles, len(points))
	for _, pt := range points {
		table[pt.key] = low + (high-low)*(pt.percent-1)/98.0
	}
	return table
}

func newTestCalibration() *Calibration {
	tables := map[string]Percentiles{
		calM1: linearTable(metricPoints, 0, 1),
		calM2: linearTable(metricPoints, 0, 1),
		calM3: linearTable(metricPoints, 0, 20),
		calM4: linearTable(metricPoints, 0, 10),
		calM5: linearTable(metricPoints, 0, 2),
		calM6: linearTable(metricPoints, 0, 1),
		calM7: linearTable(metricPoints, 0, 1),
	}
	return &Calibration{
		Tiers: map[string]map[string]Percentiles{testTier: tables},
		CSR:   map[string]Percentiles{},
	}
}

// newTestEngine builds a three-species fixture: an apple tree, a clover
// ground cover, and a hazel shrub sharing pollinators and mycorrhizae.
func newTestEngine(t *testing.T) *Engine {
	t.Helper()

	b := phylo.NewBuilder()
	rosids := b.Internal(b.Root(), 80)
	b.Leaf(rosids, "wfo-0000000001", 60) // Malus
	b.Leaf(rosids, "wfo-0000000002", 95) // Trifolium
	b.Leaf(b.Root(), "wfo-0000000003", 150)
	tree, err := b.Build()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "refdata.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	for _, stmt := range []string{
		`CREATE TABLE plants (
			wfo_taxon_id TEXT PRIMARY KEY, wfo_scientific_name TEXT, vernacular TEXT,
			csr_c REAL, csr_s REAL, csr_r REAL, height_m REAL, growth_form TEXT, light_pref REAL,
			tier_1_tropical INTEGER DEFAULT 0, tier_2_mediterranean INTEGER DEFAULT 0,
			tier_3_humid_temperate INTEGER DEFAULT 0, tier_4_continental INTEGER DEFAULT 0,
			tier_5_boreal_polar INTEGER DEFAULT 0, tier_6_arid INTEGER DEFAULT 0)`,
		`CREATE TABLE organisms (
			plant_wfo_id TEXT PRIMARY KEY, herbivores TEXT, flower_visitors TEXT, pollinators TEXT,
			predators_has_host TEXT, predators_interacts_with TEXT, predators_adjacent_to TEXT)`,
		`CREATE TABLE fungi (
			plant_wfo_id TEXT PRIMARY KEY, pathogenic_fungi TEXT, mycoparasite_fungi TEXT,
			entomopathogenic_fungi TEXT, amf_fungi TEXT, emf_fungi TEXT,
			endophytic_fungi TEXT, saprotrophic_fungi TEXT)`,
		`CREATE TABLE herbivore_predators (organism TEXT, control TEXT)`,
		`CREATE TABLE insect_parasites (organism TEXT, control TEXT)`,
		`CREATE TABLE pathogen_antagonists (organism TEXT, control TEXT)`,

		`INSERT INTO plants (wfo_taxon_id, wfo_scientific_name, csr_c, csr_s, csr_r,
			height_m, growth_form, light_pref, tier_3_humid_temperate, tier_6_arid)
		 VALUES ('wfo-0000000001', 'Malus domestica', 45, 30, 25, 6.0, 'tree', 6.5, 1, 0),
		        ('wfo-0000000002', 'Trifolium repens', 20, 20, 60, 0.2, 'herb', 7.0, 1, 0),
		        ('wfo-0000000003', 'Corylus avellana', 55, 25, 20, 4.0, 'shrub', 5.0, 1, 1)`,
		`INSERT INTO organisms (plant_wfo_id, herbivores, flower_visitors, pollinators)
		 VALUES ('wfo-0000000001', '["Cydia pomonella"]', '["Apis mellifera","Episyrphus balteatus"]', '["Apis mellifera"]'),
		        ('wfo-0000000002', '[]', '["Apis mellifera"]', '["Apis mellifera","Bombus terrestris"]'),
		        ('wfo-0000000003', '["Curculio nucum"]', '["Episyrphus balteatus"]', '[]')`,
		`INSERT INTO fungi (plant_wfo_id, pathogenic_fungi, mycoparasite_fungi, entomopathogenic_fungi, amf_fungi)
		 VALUES ('wfo-0000000001', '["Venturia inaequalis"]', '[]', '[]', '["Rhizophagus irregularis"]'),
		        ('wfo-0000000002', '[]', '["Trichoderma harzianum"]', '["Beauveria bassiana"]', '["Rhizophagus irregularis"]'),
		        ('wfo-0000000003', '[]', '[]', '[]', '["Rhizophagus irregularis"]')`,
		`INSERT INTO herbivore_predators (organism, control)
		 VALUES ('Cydia pomonella', 'Episyrphus balteatus')`,
		`INSERT INTO insect_parasites (organism, control)
		 VALUES ('Cydia pomonella', 'Beauveria bassiana')`,
		`INSERT INTO pathogen_antagonists (organism, control)
		 VALUES ('Venturia inaequalis', 'Trichoderma harzianum')`,
	} {
		_, err := db.Exec(stmt)
		require.NoError(t, err, "statement: %s", stmt)
	}
	require.NoError(t, db.Close())

	store, err := refdata.Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return NewEngineFromParts(tree, store, newTestCalibration(), UniformWeights())
}

// Copyright (C) 2025 Verdanta Labs (oss@verdanta.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/verdanta/guildcore/pkg/phylo"
	"github.com/verdanta/guildcore/pkg/refdata"
	"github.com/verdanta/guildcore/pkg/scorecache"
	"github.com/verdanta/guildcore/pkg/scoring"
	"github.com/verdanta/guildcore/services/scoring/observability"
	"github.com/verdanta/guildcore/services/scoring/routes"
)

const testTier = "tier_3_humid_temperate"

func init() {
	gin.SetMode(gin.TestMode)
}

// percentile anchors shared by every calibration table
var anchorKeys = []string{
	"p01", "p05", "p10", "p20", "p30", "p40", "p50",
	"p60", "p70", "p80", "p90", "p95", "p99",
}

var anchorPercents = []float64{1, 5, 10, 20, 30, 40, 50, 60, 70, 80, 90, 95, 99}

func linearTable(low, high float64) scoring.Percentiles {
	table := make(scoring.Percentiles, len(anchorKeys))
	for i, key := range anchorKeys {
		table[key] = low + (high-low)*(anchorPercents[i]-1)/98.0
	}
	return table
}

func testCalibration() *scoring.Calibration {
	tables := map[string]scoring.Percentiles{
		"m1": linearTable(0, 1),
		"n4": linearTable(0, 1),
		"p1": linearTable(0, 20),
		"p2": linearTable(0, 10),
		"p3": linearTable(0, 2),
		"p5": linearTable(0, 1),
		"p6": linearTable(0, 1),
	}
	return &scoring.Calibration{
		Tiers: map[string]map[string]scoring.Percentiles{testTier: tables},
		CSR:   map[string]scoring.Percentiles{},
	}
}

// newTestEngine builds a two-species fixture: an apple tree and a clover
// ground cover, both compatible with the humid temperate tier.
func newTestEngine(t *testing.T) *scoring.Engine {
	t.Helper()

	b := phylo.NewBuilder()
	rosids := b.Internal(b.Root(), 80)
	b.Leaf(rosids, "wfo-0000000001", 60)
	b.Leaf(rosids, "wfo-0000000002", 95)
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

		`INSERT INTO plants (wfo_taxon_id, wfo_scientific_name, vernacular, csr_c, csr_s, csr_r,
			height_m, growth_form, light_pref, tier_3_humid_temperate)
		 VALUES ('wfo-0000000001', 'Malus domestica', 'apple', 45, 30, 25, 6.0, 'tree', 6.5, 1),
		        ('wfo-0000000002', 'Trifolium repens', 'white clover', 20, 20, 60, 0.2, 'herb', 7.0, 1)`,
		`INSERT INTO organisms (plant_wfo_id, herbivores, flower_visitors, pollinators)
		 VALUES ('wfo-0000000001', '["Cydia pomonella"]', '["Apis mellifera"]', '["Apis mellifera"]'),
		        ('wfo-0000000002', '[]', '["Apis mellifera"]', '["Apis mellifera"]')`,
		`INSERT INTO fungi (plant_wfo_id, pathogenic_fungi, mycoparasite_fungi, entomopathogenic_fungi, amf_fungi)
		 VALUES ('wfo-0000000001', '["Venturia inaequalis"]', '[]', '[]', '["Rhizophagus irregularis"]'),
		        ('wfo-0000000002', '[]', '["Trichoderma harzianum"]', '[]', '["Rhizophagus irregularis"]')`,
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

	return scoring.NewEngineFromParts(tree, store, testCalibration(), scoring.UniformWeights())
}

// newTestRouter wires the full route table against the fixture engine
// with isolated metrics.
func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	engine := newTestEngine(t)
	cache := scorecache.New(scorecache.Options{})
	metrics := observability.NewScoringMetrics(prometheus.NewRegistry())

	var ready atomic.Bool
	ready.Store(true)

	router := gin.New()
	routes.SetupRoutes(router, engine, cache, metrics, &ready)
	return router
}

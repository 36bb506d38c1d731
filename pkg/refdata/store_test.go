// Copyright (C) 2025 Verdanta Labs (oss@verdanta.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package refdata

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore writes a miniature reference snapshot to a temp file and
// opens it. The plants table carries a block of padding columns so the
// projection tests exercise a genuinely wide schema.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "refdata.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)

	padding := ""
	for i := 0; i < 60; i++ {
		padding += fmt.Sprintf(", pad_%02d REAL", i)
	}
	stmts := []string{
		`CREATE TABLE plants (
			wfo_taxon_id TEXT PRIMARY KEY,
			wfo_scientific_name TEXT,
			vernacular TEXT,
			csr_c REAL, csr_s REAL, csr_r REAL,
			height_m REAL,
			growth_form TEXT,
			light_pref REAL,
			tier_3_humid_temperate INTEGER` + padding + `)`,
		`CREATE TABLE organisms (
			plant_wfo_id TEXT PRIMARY KEY,
			herbivores TEXT, flower_visitors TEXT, pollinators TEXT,
			predators_has_host TEXT, predators_interacts_with TEXT, predators_adjacent_to TEXT)`,
		`CREATE TABLE fungi (
			plant_wfo_id TEXT PRIMARY KEY,
			pathogenic_fungi TEXT, mycoparasite_fungi TEXT, entomopathogenic_fungi TEXT,
			amf_fungi TEXT, emf_fungi TEXT, endophytic_fungi TEXT, saprotrophic_fungi TEXT)`,
		`CREATE TABLE herbivore_predators (organism TEXT, control TEXT)`,
		`CREATE TABLE insect_parasites (organism TEXT, control TEXT)`,
		`CREATE TABLE pathogen_antagonists (organism TEXT, control TEXT)`,

		`INSERT INTO plants (wfo_taxon_id, wfo_scientific_name, vernacular, csr_c, csr_s, csr_r, height_m, growth_form, light_pref, tier_3_humid_temperate)
		 VALUES ('wfo-0000000001', 'Malus domestica', 'apple', 40, 30, 30, 6.0, 'tree', 6.5, 1),
		        ('wfo-0000000002', 'Trifolium repens', 'white clover', 20, 20, 60, 0.2, 'herb', 7.0, 1),
		        ('wfo-0000000003', 'Corylus avellana', 'hazel', 55, 25, 20, 4.0, 'shrub', 5.0, 1)`,
		`INSERT INTO organisms (plant_wfo_id, herbivores, flower_visitors)
		 VALUES ('wfo-0000000001', '["Cydia pomonella"]', '["Apis mellifera","Bombus terrestris"]'),
		        ('wfo-0000000002', '[]', '["Apis mellifera"]')`,
		`INSERT INTO fungi (plant_wfo_id, amf_fungi)
		 VALUES ('wfo-0000000001', '["Rhizophagus irregularis"]')`,
		`INSERT INTO herbivore_predators (organism, control)
		 VALUES ('Cydia pomonella', 'Trichogramma brassicae')`,
	}
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err, "statement: %s", stmt)
	}
	require.NoError(t, db.Close())

	store, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpen_ReadsSchemasOnly(t *testing.T) {
	store := newTestStore(t)

	schema, err := store.Schema(TablePlants)
	require.NoError(t, err)
	assert.Contains(t, schema, "height_m")
	assert.Contains(t, schema, "pad_59")
	assert.Greater(t, len(schema), 60)

	// Opening must not decode any table cell.
	assert.Zero(t, store.MaterializedCells())
}

func TestOpen_MissingTableFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE plants (wfo_taxon_id TEXT PRIMARY KEY)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = Open(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "organisms")
}

func TestSelect_ProjectsOnlyRequestedColumns(t *testing.T) {
	store := newTestStore(t)

	ids := []string{"wfo-0000000001", "wfo-0000000002", "wfo-0000000003"}
	rows, err := store.Select(context.Background(), TablePlants,
		[]string{"height_m", "growth_form"}, ids)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// 3 rows x 2 requested columns; none of the 60 padding columns may
	// have been materialized.
	assert.Equal(t, int64(6), store.MaterializedCells())
	assert.Equal(t, int64(1), store.QueriesRun())
}

func TestSelect_IDFilterPushdown(t *testing.T) {
	store := newTestStore(t)

	rows, err := store.Select(context.Background(), TablePlants,
		[]string{"height_m"}, []string{"wfo-0000000002"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "wfo-0000000002", rows[0].ID)

	h, ok := rows[0].Float("height_m")
	require.True(t, ok)
	assert.InDelta(t, 0.2, h, 1e-9)
}

func TestSelect_UnknownColumnRejectedBeforeRead(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Select(context.Background(), TablePlants,
		[]string{"no_such_column"}, []string{"wfo-0000000001"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no_such_column")
	assert.Zero(t, store.MaterializedCells())
}

func TestSelect_MissingIDsAbsentFromResult(t *testing.T) {
	store := newTestStore(t)

	rows, err := store.Select(context.Background(), TableOrganisms,
		[]string{"herbivores"}, []string{"wfo-0000000001", "wfo-0000000003"})
	require.NoError(t, err)
	// wfo-...03 has no organisms row.
	require.Len(t, rows, 1)
	assert.Equal(t, "wfo-0000000001", rows[0].ID)
}

func TestRow_ListDecoding(t *testing.T) {
	store := newTestStore(t)

	rows, err := store.Select(context.Background(), TableOrganisms,
		[]string{"herbivores", "flower_visitors", "pollinators"},
		[]string{"wfo-0000000001", "wfo-0000000002"})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, []string{"Cydia pomonella"}, rows[0].List("herbivores"))
	assert.Equal(t, []string{"Apis mellifera", "Bombus terrestris"}, rows[0].List("flower_visitors"))
	assert.Nil(t, rows[0].List("pollinators")) // NULL cell

	assert.Nil(t, rows[1].List("herbivores")) // empty JSON array
}

func TestLookups_LoadedAtOpen(t *testing.T) {
	store := newTestStore(t)

	assert.Equal(t, []string{"Trichogramma brassicae"}, store.PredatorsOf("Cydia pomonella"))
	assert.Empty(t, store.PredatorsOf("Unknown herbivore"))
	assert.Empty(t, store.ParasitesOf("Cydia pomonella"))
}

func TestSearchPlants(t *testing.T) {
	store := newTestStore(t)

	results, err := store.SearchPlants(context.Background(), "clover", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "wfo-0000000002", results[0].ID)
	assert.Equal(t, "Trifolium repens", results[0].ScientificName)

	results, err = store.SearchPlants(context.Background(), "us", 10)
	require.NoError(t, err)
	assert.Len(t, results, 2) // Malus domestica, Corylus avellana

	_, err = store.SearchPlants(context.Background(), "   ", 10)
	require.Error(t, err)
}

func TestPlantByID(t *testing.T) {
	store := newTestStore(t)

	p, err := store.PlantByID(context.Background(), "wfo-0000000001")
	require.NoError(t, err)
	assert.Equal(t, "Malus domestica", p.ScientificName)

	_, err = store.PlantByID(context.Background(), "wfo-9999999999")
	var notFound *ErrPlantNotFound
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "wfo-9999999999", notFound.ID)
}

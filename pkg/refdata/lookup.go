// Copyright (C) 2025 Verdanta Labs (oss@verdanta.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package refdata

import (
	"context"
	"fmt"
	"sort"
)

// lookupTables holds the small interaction maps consumed by the
// biocontrol and disease-suppression metrics. Each maps an organism name
// to the sorted list of its known controls. They are tiny relative to
// the reference tables and are loaded eagerly at open.
type lookupTables struct {
	herbivorePredators  map[string][]string
	insectParasites     map[string][]string
	pathogenAntagonists map[string][]string
}

// Names of the optional lookup side tables. Each has two TEXT columns:
// organism, control.
const (
	tableHerbivorePredators  = "herbivore_predators"
	tableInsectParasites     = "insect_parasites"
	tablePathogenAntagonists = "pathogen_antagonists"
)

// PredatorsOf returns the known predators of a herbivore.
func (s *Store) PredatorsOf(herbivore string) []string {
	return s.lookups.herbivorePredators[herbivore]
}

// ParasitesOf returns the entomopathogenic fungi known to parasitize an
// insect.
func (s *Store) ParasitesOf(insect string) []string {
	return s.lookups.insectParasites[insect]
}

// AntagonistsOf returns the mycoparasites known to antagonize a
// pathogenic fungus.
func (s *Store) AntagonistsOf(pathogen string) []string {
	return s.lookups.pathogenAntagonists[pathogen]
}

func (s *Store) loadLookups(ctx context.Context) error {
	var err error
	if s.lookups.herbivorePredators, err = s.loadLookup(ctx, tableHerbivorePredators); err != nil {
		return err
	}
	if s.lookups.insectParasites, err = s.loadLookup(ctx, tableInsectParasites); err != nil {
		return err
	}
	if s.lookups.pathogenAntagonists, err = s.loadLookup(ctx, tablePathogenAntagonists); err != nil {
		return err
	}
	return nil
}

// loadLookup reads one organism->control table. A snapshot without the
// table yields an empty map: the dependent metrics then score only their
// general (non-specific) mechanisms.
func (s *Store) loadLookup(ctx context.Context, table string) (map[string][]string, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", table, err)
	}
	if exists == 0 {
		return map[string][]string{}, nil
	}

	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT organism, control FROM %s", quoteIdent(table)))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", table, err)
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var organism, control string
		if err := rows.Scan(&organism, &control); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		out[organism] = append(out[organism], control)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}
	for _, controls := range out {
		sort.Strings(controls)
	}
	return out, nil
}

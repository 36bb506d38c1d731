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
	"errors"
	"fmt"
	"strings"
)

// PlantSummary is the search/lookup projection of one plants row.
type PlantSummary struct {
	ID             string `json:"id"`
	ScientificName string `json:"scientific_name"`
	Vernacular     string `json:"vernacular,omitempty"`
}

const (
	colScientificName = "wfo_scientific_name"
	colVernacular     = "vernacular"

	maxSearchLimit = 100
)

// SearchPlants finds plants whose scientific or vernacular name contains
// the query (case-insensitive). Results are ordered by scientific name
// for stable paging.
func (s *Store) SearchPlants(ctx context.Context, query string, limit int) ([]PlantSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty search query")
	}
	if limit <= 0 || limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	pattern := "%" + escapeLike(query) + "%"
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT %s, %s, COALESCE(%s, '')
		   FROM %s
		  WHERE %s LIKE ? ESCAPE '\' OR %s LIKE ? ESCAPE '\'
		  ORDER BY %s
		  LIMIT ?`,
		quoteIdent(idColumns[TablePlants]),
		quoteIdent(colScientificName),
		quoteIdent(colVernacular),
		quoteIdent(TablePlants),
		quoteIdent(colScientificName),
		quoteIdent(colVernacular),
		quoteIdent(colScientificName),
	), pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search plants: %w", err)
	}
	defer rows.Close()

	var out []PlantSummary
	for rows.Next() {
		var p PlantSummary
		if err := rows.Scan(&p.ID, &p.ScientificName, &p.Vernacular); err != nil {
			return nil, fmt.Errorf("scan search row: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search rows: %w", err)
	}
	return out, nil
}

// PlantByID resolves one species id to its name projection. A missing id
// returns ErrPlantNotFound.
func (s *Store) PlantByID(ctx context.Context, id string) (PlantSummary, error) {
	var p PlantSummary
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT %s, %s, COALESCE(%s, '') FROM %s WHERE %s = ?`,
		quoteIdent(idColumns[TablePlants]),
		quoteIdent(colScientificName),
		quoteIdent(colVernacular),
		quoteIdent(TablePlants),
		quoteIdent(idColumns[TablePlants]),
	), id).Scan(&p.ID, &p.ScientificName, &p.Vernacular)
	if errors.Is(err, sql.ErrNoRows) {
		return PlantSummary{}, &ErrPlantNotFound{ID: id}
	}
	if err != nil {
		return PlantSummary{}, fmt.Errorf("lookup plant %s: %w", id, err)
	}
	return p, nil
}

// escapeLike escapes LIKE metacharacters in user input.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

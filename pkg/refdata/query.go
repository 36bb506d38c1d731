// Copyright (C) 2025 Verdanta Labs (oss@verdanta.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package refdata

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Row is one materialized result row. The species id is always present;
// every other cell belongs to an explicitly requested column.
type Row struct {
	ID    string
	cells map[string]any
}

// Str returns a string cell. The second return is false for NULL or a
// column absent from the projection.
func (r Row) Str(col string) (string, bool) {
	switch v := r.cells[col].(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	default:
		return "", false
	}
}

// Float returns a numeric cell as float64.
func (r Row) Float(col string) (float64, bool) {
	switch v := r.cells[col].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// Bool interprets an integer cell as a flag (SQLite has no bool type).
func (r Row) Bool(col string) bool {
	v, ok := r.cells[col].(int64)
	return ok && v != 0
}

// List decodes a list-valued cell. List columns are stored as JSON
// string arrays in TEXT cells; NULL and the empty string decode to nil.
func (r Row) List(col string) []string {
	raw, ok := r.Str(col)
	if !ok || raw == "" || raw == "[]" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}

// Select runs a projected, id-filtered query against one reference table.
//
// # Description
//
// Only the named columns (plus the table's id column) are read; the
// projection and the id filter are part of the generated SQL, so SQLite
// never materializes any other column. Every requested column is
// validated against the schema first; an unknown column is an error
// before any row is touched.
//
// Ids absent from the table are simply absent from the result; callers
// that require full resolution compare result cardinality themselves.
func (s *Store) Select(ctx context.Context, table string, cols []string, ids []string) ([]Row, error) {
	schema, ok := s.schemas[table]
	if !ok {
		return nil, fmt.Errorf("unknown reference table %q", table)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	idCol := idColumns[table]
	for _, c := range cols {
		if _, ok := schema[c]; !ok {
			return nil, fmt.Errorf("table %s has no column %q", table, c)
		}
		if c == idCol {
			return nil, fmt.Errorf("id column %q is implicit, do not request it", c)
		}
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(quoteIdent(idCol))
	for _, c := range cols {
		sb.WriteString(", ")
		sb.WriteString(quoteIdent(c))
	}
	sb.WriteString(" FROM ")
	sb.WriteString(quoteIdent(table))
	sb.WriteString(" WHERE ")
	sb.WriteString(quoteIdent(idCol))
	sb.WriteString(" IN (")
	args := make([]any, len(ids))
	for i, id := range ids {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("?")
		args[i] = id
	}
	sb.WriteString(") ORDER BY ")
	sb.WriteString(quoteIdent(idCol))

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	s.queriesRun.Add(1)

	var out []Row
	scan := make([]any, len(cols)+1)
	for rows.Next() {
		var id string
		scan[0] = &id
		holders := make([]any, len(cols))
		for i := range cols {
			scan[i+1] = &holders[i]
		}
		if err := rows.Scan(scan...); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", table, err)
		}
		cells := make(map[string]any, len(cols))
		for i, c := range cols {
			cells[c] = holders[i]
		}
		s.cellsMaterialized.Add(int64(len(cols)))
		out = append(out, Row{ID: id, cells: cells})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s rows: %w", table, err)
	}
	return out, nil
}

// quoteIdent quotes a schema-validated identifier for embedding in SQL.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

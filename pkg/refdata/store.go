// Copyright (C) 2025 Verdanta Labs (oss@verdanta.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package refdata provides lazy, schema-first access to the frozen
// reference snapshot: three columnar tables (plants, organisms, fungi)
// plus small interaction-lookup side tables.
//
// Opening a Store reads only table schemas; no row data is touched until
// a query runs. Every query names the exact column subset it needs and an
// id set to filter on, and both are pushed down into SQL before any row
// is materialized. Per-query cost therefore scales with matched rows x
// requested columns, never with table width.
//
// # Thread Safety
//
// A Store is shared read-only across concurrent queries; each query
// materializes its own result rows independently.
package refdata

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"

	_ "modernc.org/sqlite"
)

// Reference table names.
const (
	TablePlants    = "plants"
	TableOrganisms = "organisms"
	TableFungi     = "fungi"
)

// idColumns maps each reference table to its species-id column.
var idColumns = map[string]string{
	TablePlants:    "wfo_taxon_id",
	TableOrganisms: "plant_wfo_id",
	TableFungi:     "plant_wfo_id",
}

// ErrPlantNotFound reports a species id with no row in the plants table.
type ErrPlantNotFound struct {
	ID string
}

func (e *ErrPlantNotFound) Error() string {
	return fmt.Sprintf("plant %q not found in reference tables", e.ID)
}

// Store is the read-only handle over the reference snapshot.
type Store struct {
	db      *sql.DB
	schemas map[string]map[string]string // table -> column -> declared type

	lookups lookupTables

	// cellsMaterialized counts every non-id cell decoded from the
	// snapshot. Tests and the projection-efficiency gauge read it to
	// verify that queries never touch columns they did not request.
	cellsMaterialized atomic.Int64
	queriesRun        atomic.Int64
}

// Open opens the reference snapshot read-only and loads table schemas and
// interaction lookup tables. Row data of the three reference tables is
// not read. A missing table or unreadable file is fatal to the caller:
// the process must not serve without reference data.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open reference snapshot %s: %w", path, err)
	}

	s := &Store{
		db:      db,
		schemas: make(map[string]map[string]string, 3),
	}
	for _, table := range []string{TablePlants, TableOrganisms, TableFungi} {
		schema, err := readSchema(ctx, db, table)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("read schema of %s: %w", table, err)
		}
		if _, ok := schema[idColumns[table]]; !ok {
			db.Close()
			return nil, fmt.Errorf("table %s has no id column %s", table, idColumns[table])
		}
		s.schemas[table] = schema
	}

	if err := s.loadLookups(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("load interaction lookups: %w", err)
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Schema returns the column->type map of a reference table as read at
// open time.
func (s *Store) Schema(table string) (map[string]string, error) {
	schema, ok := s.schemas[table]
	if !ok {
		return nil, fmt.Errorf("unknown reference table %q", table)
	}
	return schema, nil
}

// MaterializedCells returns the total number of non-id cells decoded
// since open (or the last ResetCounters).
func (s *Store) MaterializedCells() int64 { return s.cellsMaterialized.Load() }

// QueriesRun returns the number of projected queries executed.
func (s *Store) QueriesRun() int64 { return s.queriesRun.Load() }

// ResetCounters zeroes the materialization instrumentation.
func (s *Store) ResetCounters() {
	s.cellsMaterialized.Store(0)
	s.queriesRun.Store(0)
}

// readSchema lists a table's columns via PRAGMA without scanning rows.
func readSchema(ctx context.Context, db *sql.DB, table string) (map[string]string, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schema := make(map[string]string)
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		schema[name] = ctype
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(schema) == 0 {
		return nil, fmt.Errorf("table %q does not exist or has no columns", table)
	}
	return schema, nil
}

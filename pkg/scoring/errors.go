// Copyright (C) 2025 Verdanta Labs (oss@verdanta.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package scoring

import (
	"fmt"
	"strings"
)

// InitializationError wraps a failure to load one of the immutable
// startup inputs (tree snapshot, reference tables, calibration, weights).
// It is fatal: a process holding one must not serve scoring requests.
type InitializationError struct {
	Stage string
	Err   error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("initialization failed at %s: %v", e.Stage, e.Err)
}

func (e *InitializationError) Unwrap() error { return e.Err }

// SpeciesNotFoundError reports guild ids with no row in the plants
// table. Scoring cannot proceed without the trait row, so resolution
// happens before any metric runs.
type SpeciesNotFoundError struct {
	IDs []string
}

func (e *SpeciesNotFoundError) Error() string {
	return fmt.Sprintf("species not found in reference tables: %s", strings.Join(e.IDs, ", "))
}

// InvalidGuildError rejects a guild before any metric computation:
// empty, over the size bound, climate-incompatible, or containing ids
// with no plants-table row. Never retried.
type InvalidGuildError struct {
	Reason string
	IDs    []string
}

func (e *InvalidGuildError) Error() string {
	if len(e.IDs) == 0 {
		return fmt.Sprintf("invalid guild: %s", e.Reason)
	}
	return fmt.Sprintf("invalid guild: %s (%s)", e.Reason, strings.Join(e.IDs, ", "))
}

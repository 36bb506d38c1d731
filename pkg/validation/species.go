// Copyright (C) 2025 Verdanta Labs (oss@verdanta.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package validation provides input validation utilities for security-critical operations.
//
// This package contains validators for user-provided inputs that are used in
// database queries or file paths. Using these validators prevents injection
// attacks (SQL injection, path traversal).
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// speciesIDPattern matches World Flora Online taxon identifiers:
// "wfo-" followed by exactly ten digits.
var speciesIDPattern = regexp.MustCompile(`^wfo-\d{10}$`)

// ValidateSpeciesID validates a WFO taxon identifier before it reaches
// a database query.
//
// Example:
//
//	if err := validation.ValidateSpeciesID(id); err != nil {
//	    c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
//	    return
//	}
func ValidateSpeciesID(id string) error {
	if id == "" {
		return fmt.Errorf("species id cannot be empty")
	}
	if !speciesIDPattern.MatchString(id) {
		return fmt.Errorf("invalid species id format: %q (must be wfo- followed by 10 digits)", id)
	}
	return nil
}

// ValidateSpeciesIDs validates multiple identifiers.
// Returns an error listing all invalid ids if any fail validation.
func ValidateSpeciesIDs(ids []string) error {
	var invalid []string
	for _, id := range ids {
		if err := ValidateSpeciesID(id); err != nil {
			invalid = append(invalid, id)
		}
	}
	if len(invalid) > 0 {
		return fmt.Errorf("invalid species ids: %v", invalid)
	}
	return nil
}

// SanitizeSpeciesID normalizes and validates an identifier. Returns the
// trimmed, lowercased id if valid, or an error if invalid.
func SanitizeSpeciesID(id string) (string, error) {
	clean := strings.ToLower(strings.TrimSpace(id))
	if err := ValidateSpeciesID(clean); err != nil {
		return "", err
	}
	return clean, nil
}

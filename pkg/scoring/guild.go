// Copyright (C) 2025 Verdanta Labs (oss@verdanta.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package scoring

import (
	"sort"
	"strings"
)

// MaxGuildSize bounds how many species one guild may contain.
const MaxGuildSize = 40

// NormalizeGuild canonicalizes a guild: trims whitespace, drops empty
// entries, deduplicates, and sorts. The canonical form is what every
// downstream computation and the cache key are built from, so duplicate
// ids can never be double-counted.
func NormalizeGuild(ids []string) ([]string, error) {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil, &InvalidGuildError{Reason: "guild is empty"}
	}
	if len(out) > MaxGuildSize {
		return nil, &InvalidGuildError{Reason: "guild exceeds maximum size"}
	}
	sort.Strings(out)
	return out, nil
}

// CanonicalKey renders the cache identity of a normalized guild within a
// scoring context.
func CanonicalKey(normalizedIDs []string, context string) string {
	return strings.Join(normalizedIDs, ",") + "|" + context
}

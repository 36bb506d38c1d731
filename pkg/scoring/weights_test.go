// Copyright (C) 2025 Verdanta Labs (oss@verdanta.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package scoring

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWeights(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "weights.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadWeights_EmptyPathIsUniform(t *testing.T) {
	w, err := LoadWeights("")
	require.NoError(t, err)
	vec := w.For("anything")
	for _, v := range vec {
		assert.InDelta(t, 1.0/MetricCount, v, 1e-12)
	}
}

func TestLoadWeights_ContextOverride(t *testing.T) {
	path := writeWeights(t, `
default:
  M1: 0.25
  M2: 0.15
  M3: 0.15
  M4: 0.15
  M5: 0.10
  M6: 0.10
  M7: 0.10
contexts:
  tier_1_tropical:
    M1: 0.10
    M2: 0.10
    M3: 0.20
    M4: 0.20
    M5: 0.20
    M6: 0.10
    M7: 0.10
`)
	w, err := LoadWeights(path)
	require.NoError(t, err)

	assert.InDelta(t, 0.25, w.For("tier_3_humid_temperate")[M1], 1e-12)
	assert.InDelta(t, 0.10, w.For("tier_1_tropical")[M1], 1e-12)
	assert.InDelta(t, 0.20, w.For("tier_1_tropical")[M3], 1e-12)
}

func TestLoadWeights_RejectsMissingMetric(t *testing.T) {
	path := writeWeights(t, `
default:
  M1: 0.5
  M2: 0.5
`)
	_, err := LoadWeights(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "7 metric weights")
}

func TestLoadWeights_RejectsNegative(t *testing.T) {
	path := writeWeights(t, `
default:
  M1: -0.1
  M2: 0.3
  M3: 0.2
  M4: 0.2
  M5: 0.2
  M6: 0.1
  M7: 0.1
`)
	_, err := LoadWeights(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "negative")
}

func TestLoadWeights_RejectsBadSum(t *testing.T) {
	path := writeWeights(t, `
default:
  M1: 0.5
  M2: 0.5
  M3: 0.5
  M4: 0.1
  M5: 0.1
  M6: 0.1
  M7: 0.1
`)
	_, err := LoadWeights(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sum")
}

func TestLoadWeights_MissingFile(t *testing.T) {
	_, err := LoadWeights(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

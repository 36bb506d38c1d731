// Copyright (C) 2025 Verdanta Labs (oss@verdanta.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strategist(id string, height float64, form string, light float64) csrPlant {
	return csrPlant{
		view:       PlantView{ID: id},
		height:     height,
		growthForm: form,
		light:      light,
	}
}

func TestCCConflict_VineClimbsTree(t *testing.T) {
	vine := strategist("a", 8, "vine", 6)
	tree := strategist("b", 20, "tree", 7)

	assert.InDelta(t, 0.2, ccConflict(vine, tree), 1e-9)
	assert.InDelta(t, 0.2, ccConflict(tree, vine), 1e-9)
}

func TestCCConflict_TreeVersusHerb(t *testing.T) {
	tree := strategist("a", 15, "tree", 7)
	herb := strategist("b", 0.5, "herb", 6)

	assert.InDelta(t, 0.4, ccConflict(tree, herb), 1e-9)
}

func TestCCConflict_HeightSeparation(t *testing.T) {
	low := strategist("a", 1, "shrub", 6)
	near := strategist("b", 2, "shrub", 6)
	mid := strategist("c", 4, "shrub", 6)
	far := strategist("d", 9, "shrub", 6)

	assert.InDelta(t, 1.0, ccConflict(low, near), 1e-9) // same canopy layer
	assert.InDelta(t, 0.6, ccConflict(low, mid), 1e-9)
	assert.InDelta(t, 0.3, ccConflict(low, far), 1e-9)
}

func TestCSConflict_LightModulation(t *testing.T) {
	competitor := strategist("a", 10, "tree", 7)

	shade := strategist("b", 1, "herb", 2.0)
	sun := strategist("c", 1, "herb", 8.0)
	flexible := strategist("d", 1, "herb", 5.0)
	flexibleTall := strategist("e", 9.5, "herb", 5.0)

	assert.InDelta(t, 0.0, csConflict(competitor, shade), 1e-9)
	assert.InDelta(t, 0.9, csConflict(competitor, sun), 1e-9)
	assert.InDelta(t, 0.6*0.3, csConflict(competitor, flexible), 1e-9) // height diff 9 > 8
	assert.InDelta(t, 0.6, csConflict(competitor, flexibleTall), 1e-9)
}

func TestCRConflict_HeightModulation(t *testing.T) {
	competitor := strategist("a", 10, "tree", 7)
	ruderalLow := strategist("b", 0.3, "herb", 7)
	ruderalNear := strategist("c", 8, "shrub", 7)

	assert.InDelta(t, 0.8*0.3, crConflict(competitor, ruderalLow), 1e-9)
	assert.InDelta(t, 0.8, crConflict(competitor, ruderalNear), 1e-9)
}

func TestDominantStrategy(t *testing.T) {
	assert.Equal(t, "Mixed", dominantStrategy(50, 45, 60))
	assert.Equal(t, "Competitive", dominantStrategy(90, 30, 20))
	assert.Equal(t, "C-leaning", dominantStrategy(70, 30, 20))
	assert.Equal(t, "Stress-tolerant", dominantStrategy(20, 90, 30))
	assert.Equal(t, "S-leaning", dominantStrategy(20, 60, 30))
	assert.Equal(t, "Ruderal", dominantStrategy(20, 30, 90))
	assert.Equal(t, "R-leaning", dominantStrategy(20, 30, 60))
}

func TestCalcM2_MissingCSRFailsMetric(t *testing.T) {
	cal := newTestCalibration()
	plants := []PlantView{
		{ID: "a", HasCSR: true, C: 50, S: 25, R: 25},
		{ID: "b"}, // no CSR data
	}

	_, err := calcM2(plants, testTier, cal)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing CSR")
}

func TestCalcM2_NoStrategistsNoConflicts(t *testing.T) {
	cal := newTestCalibration()
	// Fallback CSR thresholds: all axes below the cutoffs rank at 50,
	// so nobody is a high strategist and density is 0.
	plants := []PlantView{
		{ID: "a", HasCSR: true, C: 30, S: 30, R: 40, HasHeight: true, Height: 1},
		{ID: "b", HasCSR: true, C: 25, S: 35, R: 40, HasHeight: true, Height: 2},
	}

	res, err := calcM2(plants, testTier, cal)
	require.NoError(t, err)
	assert.Zero(t, res.Raw)
	assert.Equal(t, 100.0, res.Display) // zero conflicts is the best case
}

func TestCalcM2_CompetitiveClash(t *testing.T) {
	cal := newTestCalibration()
	// Two high-C shrubs in the same canopy layer: one unordered C-C
	// pair at full severity, density 1.0 / (2*1) = 0.5.
	plants := []PlantView{
		{ID: "a", HasCSR: true, C: 80, S: 10, R: 10, HasHeight: true, Height: 2, GrowthForm: "shrub"},
		{ID: "b", HasCSR: true, C: 85, S: 5, R: 10, HasHeight: true, Height: 3, GrowthForm: "shrub"},
	}

	res, err := calcM2(plants, testTier, cal)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, res.Raw, 1e-9)
	assert.InDelta(t, 1.0, res.Detail["total_conflicts"].(float64), 1e-9)
	assert.Equal(t, 2, res.Detail["high_c_count"].(int))
	assert.Less(t, res.Display, 60.0)
}

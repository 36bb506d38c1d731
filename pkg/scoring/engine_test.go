// Copyright (C) 2025 Verdanta Labs (oss@verdanta.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package scoring

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreGuild_Deterministic(t *testing.T) {
	engine := newTestEngine(t)
	guild := []string{"wfo-0000000001", "wfo-0000000002", "wfo-0000000003"}

	first, err := engine.ScoreGuild(context.Background(), guild, testTier)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := engine.ScoreGuild(context.Background(), guild, testTier)
		require.NoError(t, err)
		assert.Equal(t, first, again, "run %d diverged", i)
	}
}

// Recorded golden values for the apple/clover/hazel fixture. Run-to-run
// determinism alone cannot catch a regression that shifts every run the
// same way (aggregation weighting, display inversion, calibration
// interpolation); any change to these constants must be deliberate.
func TestScoreGuild_GoldenFixture(t *testing.T) {
	engine := newTestEngine(t)

	score, err := engine.ScoreGuild(context.Background(),
		[]string{"wfo-0000000001", "wfo-0000000002", "wfo-0000000003"}, testTier)
	require.NoError(t, err)

	const tol = 1e-4
	assert.InDelta(t, 60.80766, score.Overall, tol)
	assert.InDelta(t, 385.0, score.Metrics[M1].Detail["faiths_pd"].(float64), tol)

	golden := []struct {
		idx        int
		raw        float64
		normalized float64
		display    float64
	}{
		{M1, 0.6804506, 67.68416, 32.31584},
		{M2, 0.0, 0.0, 100.0},
		{M3, 8.0, 40.2, 40.2},
		{M4, 3.3333333, 33.66667, 33.66667},
		{M5, 1.0, 50.0, 50.0},
		{M6, 0.82, 81.36, 81.36},
		{M7, 0.8888889, 88.11111, 88.11111},
	}
	for _, g := range golden {
		m := score.Metrics[g.idx]
		assert.True(t, m.Applicable, "%s should be applicable", m.Code)
		assert.InDelta(t, g.raw, m.Raw, tol, "%s raw", m.Code)
		assert.InDelta(t, g.normalized, m.Normalized, tol, "%s normalized", m.Code)
		assert.InDelta(t, g.display, m.Display, tol, "%s display", m.Code)
	}
}

func TestScoreGuild_DuplicatesCollapse(t *testing.T) {
	engine := newTestEngine(t)

	clean, err := engine.ScoreGuild(context.Background(),
		[]string{"wfo-0000000001", "wfo-0000000002"}, testTier)
	require.NoError(t, err)

	noisy, err := engine.ScoreGuild(context.Background(),
		[]string{"wfo-0000000002", " wfo-0000000001 ", "wfo-0000000001", ""}, testTier)
	require.NoError(t, err)

	assert.Equal(t, clean, noisy)
	assert.Equal(t, []string{"wfo-0000000001", "wfo-0000000002"}, noisy.GuildIDs)
}

func TestScoreGuild_SingleSpeciesNeutral(t *testing.T) {
	engine := newTestEngine(t)

	score, err := engine.ScoreGuild(context.Background(), []string{"wfo-0000000001"}, testTier)
	require.NoError(t, err)

	assert.Equal(t, 100.0, score.Metrics[M1].Display)
	for i := M2; i < MetricCount; i++ {
		m := score.Metrics[i]
		assert.False(t, m.Applicable, "%s should be inapplicable", m.Code)
		assert.Equal(t, 50.0, m.Display, "%s should contribute neutrally", m.Code)
		assert.Equal(t, "single-species guild", m.Note)
	}
}

func TestScoreGuild_SpeciesNotFound(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.ScoreGuild(context.Background(),
		[]string{"wfo-0000000001", "wfo-7777777777"}, testTier)

	var nf *SpeciesNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, []string{"wfo-7777777777"}, nf.IDs)
}

func TestScoreGuild_ClimateVeto(t *testing.T) {
	engine := newTestEngine(t)
	engine.cal.Tiers["tier_6_arid"] = engine.cal.Tiers[testTier]

	// Apple and clover are not flagged for the arid tier; hazel is.
	_, err := engine.ScoreGuild(context.Background(),
		[]string{"wfo-0000000001", "wfo-0000000003"}, "tier_6_arid")

	var invalid *InvalidGuildError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, []string{"wfo-0000000001"}, invalid.IDs)

	score, err := engine.ScoreGuild(context.Background(),
		[]string{"wfo-0000000003"}, "tier_6_arid")
	require.NoError(t, err)
	assert.Equal(t, "tier_6_arid", score.Context)
}

func TestScoreGuild_EmptyGuild(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.ScoreGuild(context.Background(), []string{" ", ""}, testTier)
	var invalid *InvalidGuildError
	require.ErrorAs(t, err, &invalid)
}

func TestScoreGuild_OversizedGuild(t *testing.T) {
	engine := newTestEngine(t)

	ids := make([]string, MaxGuildSize+1)
	for i := range ids {
		ids[i] = fmt.Sprintf("wfo-%010d", i+1)
	}
	_, err := engine.ScoreGuild(context.Background(), ids, testTier)
	var invalid *InvalidGuildError
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Reason, "maximum size")
}

func TestScoreGuild_UnknownContext(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.ScoreGuild(context.Background(),
		[]string{"wfo-0000000001"}, "tier_9_lunar")
	var invalid *InvalidGuildError
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Reason, "scoring context")
}

func TestScoreGuild_OverallIsWeightedMean(t *testing.T) {
	engine := newTestEngine(t)

	score, err := engine.ScoreGuild(context.Background(),
		[]string{"wfo-0000000001", "wfo-0000000002", "wfo-0000000003"}, testTier)
	require.NoError(t, err)

	sum := 0.0
	for _, m := range score.Metrics {
		sum += m.Display
	}
	assert.InDelta(t, sum/MetricCount, score.Overall, 1e-9)
	assert.GreaterOrEqual(t, score.Overall, 0.0)
	assert.LessOrEqual(t, score.Overall, 100.0)
}

func TestScoreGuild_CacheKeyMatchesCanonicalForm(t *testing.T) {
	engine := newTestEngine(t)

	score, err := engine.ScoreGuild(context.Background(),
		[]string{"wfo-0000000002", "wfo-0000000001"}, testTier)
	require.NoError(t, err)
	assert.Equal(t, "wfo-0000000001,wfo-0000000002|"+testTier, score.CacheKey)
}

func TestScoreGuild_ContextCancellation(t *testing.T) {
	engine := newTestEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := engine.ScoreGuild(ctx,
		[]string{"wfo-0000000001", "wfo-0000000002"}, testTier)
	require.Error(t, err)
}

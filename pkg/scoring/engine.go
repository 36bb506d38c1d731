// Copyright (C) 2025 Verdanta Labs (oss@verdanta.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package scoring evaluates guilds of plant species for ecological
// compatibility: seven independent metrics over minimal column-projected
// reference views, aggregated into one 0-100 score.
package scoring

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/verdanta/guildcore/pkg/phylo"
	"github.com/verdanta/guildcore/pkg/refdata"
)

// Config names the immutable startup inputs of an Engine.
type Config struct {
	TreePath        string
	DataPath        string
	CalibrationPath string
	WeightsPath     string // empty means uniform weights
}

// Engine is the immutable per-process scoring context. It is constructed
// once at startup and shared read-only by every request; the only
// mutable state it touches is inside the refdata instrumentation
// counters.
type Engine struct {
	tree    *phylo.Tree
	store   *refdata.Store
	cal     *Calibration
	weights *Weights
	log     *slog.Logger
}

// NewEngine loads the tree snapshot, reference tables, calibration, and
// weights. Every failure is an InitializationError: the caller must not
// serve scoring requests with a partially constructed engine.
func NewEngine(ctx context.Context, cfg Config) (*Engine, error) {
	tree, err := phylo.Load(cfg.TreePath)
	if err != nil {
		return nil, &InitializationError{Stage: "tree snapshot", Err: err}
	}
	store, err := refdata.Open(ctx, cfg.DataPath)
	if err != nil {
		return nil, &InitializationError{Stage: "reference tables", Err: err}
	}
	cal, err := LoadCalibration(cfg.CalibrationPath)
	if err != nil {
		store.Close()
		return nil, &InitializationError{Stage: "calibration", Err: err}
	}
	weights, err := LoadWeights(cfg.WeightsPath)
	if err != nil {
		store.Close()
		return nil, &InitializationError{Stage: "weights", Err: err}
	}
	return NewEngineFromParts(tree, store, cal, weights), nil
}

// NewEngineFromParts assembles an engine from already-loaded inputs.
func NewEngineFromParts(tree *phylo.Tree, store *refdata.Store, cal *Calibration, weights *Weights) *Engine {
	return &Engine{
		tree:    tree,
		store:   store,
		cal:     cal,
		weights: weights,
		log:     slog.Default().With("component", "scoring"),
	}
}

// Store exposes the reference store for the search/lookup surface.
func (e *Engine) Store() *refdata.Store { return e.store }

// Close releases the engine's reference store.
func (e *Engine) Close() error { return e.store.Close() }

// plantColumns is the union projection of every plants-table consumer:
// M2, M6, the climate veto, and display names.
func plantColumns() []string {
	cols := []string{ColScientificName}
	seen := map[string]struct{}{ColScientificName: {}}
	for _, group := range [][]string{M2Columns, M6Columns, ClimateTiers} {
		for _, c := range group {
			if _, dup := seen[c]; !dup {
				seen[c] = struct{}{}
				cols = append(cols, c)
			}
		}
	}
	return cols
}

func organismColumns() []string {
	return dedupeSorted(M3OrganismColumns, M7OrganismColumns)
}

func fungiColumns() []string {
	return dedupeSorted(M3FungiColumns, M4FungiColumns, M5FungiColumns)
}

// ScoreGuild validates and scores one guild within a scoring context
// (climate tier).
//
// # Description
//
// The guild is canonicalized, resolved against the plants table, and
// checked for climate compatibility; then the three reference views are
// materialized concurrently, the seven metrics fan out as independent
// tasks sharing no mutable state, and their display scores join into the
// weighted aggregate.
//
// A failed metric degrades to a neutral contribution with a note in its
// result; only InvalidGuildError, SpeciesNotFoundError, and reference
// I/O failures abort the request. Identical guild and snapshot yield a
// bit-identical GuildScore.
func (e *Engine) ScoreGuild(ctx context.Context, ids []string, scoringContext string) (*GuildScore, error) {
	guild, err := NormalizeGuild(ids)
	if err != nil {
		return nil, err
	}
	if !e.cal.HasTier(scoringContext) {
		return nil, &InvalidGuildError{Reason: fmt.Sprintf("unknown scoring context %q", scoringContext)}
	}

	var (
		plantRows    []refdata.Row
		organismRows []refdata.Row
		fungiRows    []refdata.Row
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		plantRows, err = e.store.Select(gctx, refdata.TablePlants, plantColumns(), guild)
		return err
	})
	g.Go(func() error {
		var err error
		organismRows, err = e.store.Select(gctx, refdata.TableOrganisms, organismColumns(), guild)
		return err
	})
	g.Go(func() error {
		var err error
		fungiRows, err = e.store.Select(gctx, refdata.TableFungi, fungiColumns(), guild)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("materialize reference views: %w", err)
	}

	plants := make([]PlantView, len(plantRows))
	for i, row := range plantRows {
		plants[i] = plantViewFromRow(row)
	}
	if len(plants) != len(guild) {
		return nil, &SpeciesNotFoundError{IDs: missingIDs(guild, plantRows)}
	}

	var incompatible []string
	for _, p := range plants {
		if !p.Tiers[scoringContext] {
			incompatible = append(incompatible, p.ID)
		}
	}
	if len(incompatible) > 0 {
		return nil, &InvalidGuildError{
			Reason: fmt.Sprintf("plants outside climate context %s", scoringContext),
			IDs:    incompatible,
		}
	}

	orgs := organismsFromRows(organismRows)
	fungi := fungiFromRows(fungiRows)

	score := &GuildScore{
		GuildIDs: guild,
		Context:  scoringContext,
		CacheKey: CanonicalKey(guild, scoringContext),
	}

	single := len(guild) < 2
	var mg errgroup.Group
	run := func(idx int, f func() (MetricResult, error)) {
		mg.Go(func() error {
			if single && idx != M1 {
				score.Metrics[idx] = neutralResult(idx, "single-species guild")
				return nil
			}
			res, err := f()
			if err != nil {
				e.log.Warn("metric failed, contributing neutral score",
					"metric", MetricCodes[idx], "error", err)
				score.Metrics[idx] = neutralResult(idx, err.Error())
				return nil
			}
			score.Metrics[idx] = res
			return nil
		})
	}

	run(M1, func() (MetricResult, error) { return calcM1(e.tree, guild, scoringContext, e.cal) })
	run(M2, func() (MetricResult, error) { return calcM2(plants, scoringContext, e.cal) })
	run(M3, func() (MetricResult, error) { return calcM3(orgs, fungi, e.store, scoringContext, e.cal) })
	run(M4, func() (MetricResult, error) { return calcM4(fungi, len(guild), e.store, scoringContext, e.cal) })
	run(M5, func() (MetricResult, error) { return calcM5(fungi, scoringContext, e.cal) })
	run(M6, func() (MetricResult, error) { return calcM6(plants, scoringContext, e.cal) })
	run(M7, func() (MetricResult, error) { return calcM7(orgs, scoringContext, e.cal) })
	_ = mg.Wait() // metric tasks never return errors

	weights := e.weights.For(scoringContext)
	overall := 0.0
	for i := range score.Metrics {
		overall += weights[i] * score.Metrics[i].Display
	}
	score.Overall = overall
	return score, nil
}

func missingIDs(guild []string, rows []refdata.Row) []string {
	present := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		present[r.ID] = struct{}{}
	}
	var missing []string
	for _, id := range guild {
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

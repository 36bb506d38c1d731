// Copyright (C) 2025 Verdanta Labs (oss@verdanta.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/verdanta/guildcore/pkg/scorecache"
	"github.com/verdanta/guildcore/pkg/scoring"
	"github.com/verdanta/guildcore/pkg/scoring/explain"
	"github.com/verdanta/guildcore/pkg/validation"
	"github.com/verdanta/guildcore/services/scoring/observability"
)

// GuildRequest is the request body for score and explain.
type GuildRequest struct {
	SpeciesIDs []string `json:"species_ids" binding:"required,min=1"`
	Context    string   `json:"context" binding:"required"`
}

// ScoreGuild scores one guild of species within a climate context.
//
// POST /v1/guilds/score
//
// Responses: 200 with a full GuildScore; 400 for malformed requests and
// invalid guilds; 404 when a species has no reference row; 500 for
// reference I/O failures.
func ScoreGuild(engine *scoring.Engine, cache *scorecache.Cache, metrics *observability.ScoringMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		score, ok := scoreFromRequest(c, "score", engine, cache, metrics)
		if !ok {
			return
		}
		metrics.RequestsTotal.WithLabelValues("score", "success").Inc()
		c.JSON(http.StatusOK, score)
	}
}

// ExplainGuild scores one guild and renders the human-readable
// explanation alongside the numeric score.
//
// POST /v1/guilds/explain
func ExplainGuild(engine *scoring.Engine, cache *scorecache.Cache, metrics *observability.ScoringMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		score, ok := scoreFromRequest(c, "explain", engine, cache, metrics)
		if !ok {
			return
		}
		metrics.RequestsTotal.WithLabelValues("explain", "success").Inc()
		c.JSON(http.StatusOK, gin.H{
			"score":       score,
			"explanation": explain.Generate(score),
		})
	}
}

// scoreFromRequest binds, validates, and scores. On failure it writes
// the error response and returns ok=false; callers only handle success.
func scoreFromRequest(c *gin.Context, endpoint string, engine *scoring.Engine,
	cache *scorecache.Cache, metrics *observability.ScoringMetrics) (*scoring.GuildScore, bool) {

	var req GuildRequest
	if err := c.BindJSON(&req); err != nil {
		metrics.RequestsTotal.WithLabelValues(endpoint, "client_error").Inc()
		metrics.ErrorsTotal.WithLabelValues(endpoint, observability.ErrCodeBadRequest).Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return nil, false
	}
	if err := validation.ValidateSpeciesIDs(req.SpeciesIDs); err != nil {
		metrics.RequestsTotal.WithLabelValues(endpoint, "client_error").Inc()
		metrics.ErrorsTotal.WithLabelValues(endpoint, observability.ErrCodeBadRequest).Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	guild, err := scoring.NormalizeGuild(req.SpeciesIDs)
	if err != nil {
		return nil, writeScoringError(c, endpoint, err, metrics)
	}
	canonical := scoring.CanonicalKey(guild, req.Context)

	score, err := cache.GetOrCompute(c.Request.Context(), canonical, func(ctx context.Context) (*scoring.GuildScore, error) {
		start := time.Now()
		s, err := engine.ScoreGuild(ctx, guild, req.Context)
		if err == nil {
			metrics.ScoreDurationSeconds.WithLabelValues(req.Context).Observe(time.Since(start).Seconds())
			metrics.GuildSize.Observe(float64(len(guild)))
		}
		return s, err
	})
	if err != nil {
		return nil, writeScoringError(c, endpoint, err, metrics)
	}
	return score, true
}

// writeScoringError maps scoring errors onto HTTP statuses. Always
// returns false so callers can return its result directly.
func writeScoringError(c *gin.Context, endpoint string, err error, metrics *observability.ScoringMetrics) bool {
	var invalid *scoring.InvalidGuildError
	var notFound *scoring.SpeciesNotFoundError
	switch {
	case errors.As(err, &invalid):
		metrics.RequestsTotal.WithLabelValues(endpoint, "client_error").Inc()
		metrics.ErrorsTotal.WithLabelValues(endpoint, observability.ErrCodeInvalidGuild).Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &notFound):
		metrics.RequestsTotal.WithLabelValues(endpoint, "client_error").Inc()
		metrics.ErrorsTotal.WithLabelValues(endpoint, observability.ErrCodeSpeciesNotFound).Inc()
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "missing": notFound.IDs})
	default:
		slog.Error("guild scoring failed", "endpoint", endpoint, "error", err)
		metrics.RequestsTotal.WithLabelValues(endpoint, "server_error").Inc()
		metrics.ErrorsTotal.WithLabelValues(endpoint, observability.ErrCodeInternal).Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "scoring failed"})
	}
	return false
}

// Copyright (C) 2025 Verdanta Labs (oss@verdanta.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/verdanta/guildcore/pkg/scorecache"
	"github.com/verdanta/guildcore/pkg/scoring"
	"github.com/verdanta/guildcore/services/scoring/handlers"
	"github.com/verdanta/guildcore/services/scoring/observability"
)

// SetupRoutes wires every endpoint of the scoring service. The engine's
// store backs the species search surface; scoring goes through the
// cache.
func SetupRoutes(router *gin.Engine, engine *scoring.Engine, cache *scorecache.Cache,
	metrics *observability.ScoringMetrics, ready *atomic.Bool) {

	router.GET("/health", handlers.HealthCheck(ready))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API version 1 group
	v1 := router.Group("/v1")
	{
		species := v1.Group("/species")
		{
			species.GET("/search", timed("search", metrics, handlers.SearchSpecies(engine.Store(), metrics)))
			species.GET("/:id", timed("species", metrics, handlers.GetSpecies(engine.Store(), metrics)))
		}
		guilds := v1.Group("/guilds")
		{
			guilds.POST("/score", timed("score", metrics, handlers.ScoreGuild(engine, cache, metrics)))
			guilds.POST("/explain", timed("explain", metrics, handlers.ExplainGuild(engine, cache, metrics)))
		}
	}
}

// timed records the request latency histogram for one endpoint.
func timed(endpoint string, metrics *observability.ScoringMetrics, h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		h(c)
		metrics.RequestDurationSeconds.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}
}

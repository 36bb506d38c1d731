// Copyright (C) 2025 Verdanta Labs (oss@verdanta.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/verdanta/guildcore/pkg/refdata"
	"github.com/verdanta/guildcore/pkg/validation"
	"github.com/verdanta/guildcore/services/scoring/observability"
)

const defaultSearchLimit = 20

// SearchSpecies finds plants by scientific or vernacular name.
//
// GET /v1/species/search?q=apple&limit=20
func SearchSpecies(store *refdata.Store, metrics *observability.ScoringMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := c.Query("q")
		if query == "" {
			metrics.RequestsTotal.WithLabelValues("search", "client_error").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter 'q'"})
			return
		}

		limit := defaultSearchLimit
		if raw := c.Query("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				metrics.RequestsTotal.WithLabelValues("search", "client_error").Inc()
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
				return
			}
			limit = parsed
		}

		results, err := store.SearchPlants(c.Request.Context(), query, limit)
		if err != nil {
			slog.Error("species search failed", "query", query, "error", err)
			metrics.RequestsTotal.WithLabelValues("search", "server_error").Inc()
			metrics.ErrorsTotal.WithLabelValues("search", observability.ErrCodeInternal).Inc()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
			return
		}
		if results == nil {
			results = []refdata.PlantSummary{}
		}

		metrics.RequestsTotal.WithLabelValues("search", "success").Inc()
		c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
	}
}

// GetSpecies resolves one species id to its name projection.
//
// GET /v1/species/wfo-0000511077
func GetSpecies(store *refdata.Store, metrics *observability.ScoringMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := validation.SanitizeSpeciesID(c.Param("id"))
		if err != nil {
			metrics.RequestsTotal.WithLabelValues("species", "client_error").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		plant, err := store.PlantByID(c.Request.Context(), id)
		var notFound *refdata.ErrPlantNotFound
		if errors.As(err, &notFound) {
			metrics.RequestsTotal.WithLabelValues("species", "client_error").Inc()
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			slog.Error("species lookup failed", "id", id, "error", err)
			metrics.RequestsTotal.WithLabelValues("species", "server_error").Inc()
			metrics.ErrorsTotal.WithLabelValues("species", observability.ErrCodeInternal).Inc()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
			return
		}

		metrics.RequestsTotal.WithLabelValues("species", "success").Inc()
		c.JSON(http.StatusOK, plant)
	}
}

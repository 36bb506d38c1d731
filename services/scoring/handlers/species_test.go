// Copyright (C) 2025 Verdanta Labs (oss@verdanta.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdanta/guildcore/pkg/refdata"
)

func get(router http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSearchSpecies_OK(t *testing.T) {
	router := newTestRouter(t)

	w := get(router, "/v1/species/search?q=Malus")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Results []refdata.PlantSummary `json:"results"`
		Count   int                    `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "wfo-0000000001", resp.Results[0].ID)
	assert.Equal(t, "Malus domestica", resp.Results[0].ScientificName)
}

func TestSearchSpecies_MatchesVernacular(t *testing.T) {
	router := newTestRouter(t)

	w := get(router, "/v1/species/search?q=clover")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Trifolium repens")
}

func TestSearchSpecies_EmptyResultIsArray(t *testing.T) {
	router := newTestRouter(t)

	w := get(router, "/v1/species/search?q=zzzznothing")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"results":[]`)
}

func TestSearchSpecies_MissingQuery(t *testing.T) {
	router := newTestRouter(t)
	assert.Equal(t, http.StatusBadRequest, get(router, "/v1/species/search").Code)
}

func TestSearchSpecies_BadLimit(t *testing.T) {
	router := newTestRouter(t)
	assert.Equal(t, http.StatusBadRequest, get(router, "/v1/species/search?q=Malus&limit=nope").Code)
	assert.Equal(t, http.StatusBadRequest, get(router, "/v1/species/search?q=Malus&limit=-3").Code)
}

func TestGetSpecies_OK(t *testing.T) {
	router := newTestRouter(t)

	w := get(router, "/v1/species/wfo-0000000002")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var plant refdata.PlantSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plant))
	assert.Equal(t, "Trifolium repens", plant.ScientificName)
	assert.Equal(t, "white clover", plant.Vernacular)
}

func TestGetSpecies_NormalizesID(t *testing.T) {
	router := newTestRouter(t)
	assert.Equal(t, http.StatusOK, get(router, "/v1/species/WFO-0000000001").Code)
}

func TestGetSpecies_InvalidID(t *testing.T) {
	router := newTestRouter(t)
	assert.Equal(t, http.StatusBadRequest, get(router, "/v1/species/not-an-id").Code)
}

func TestGetSpecies_NotFound(t *testing.T) {
	router := newTestRouter(t)
	assert.Equal(t, http.StatusNotFound, get(router, "/v1/species/wfo-9999999999").Code)
}

// Copyright (C) 2025 Verdanta Labs (oss@verdanta.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package scoring

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Weights is the deployment-scoped configuration combining the seven
// display scores into the overall score. Every vector is non-negative
// and sums to 1; contexts without an explicit vector use the default.
type Weights struct {
	def       [MetricCount]float64
	byContext map[string][MetricCount]float64
}

// weightsFile is the on-disk YAML shape.
type weightsFile struct {
	Default  map[string]float64            `yaml:"default"`
	Contexts map[string]map[string]float64 `yaml:"contexts"`
}

// UniformWeights weighs all seven metrics equally.
func UniformWeights() *Weights {
	var def [MetricCount]float64
	for i := range def {
		def[i] = 1.0 / MetricCount
	}
	return &Weights{def: def, byContext: map[string][MetricCount]float64{}}
}

// LoadWeights reads a weight configuration. An empty path yields uniform
// weights.
func LoadWeights(path string) (*Weights, error) {
	if path == "" {
		return UniformWeights(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read weights %s: %w", path, err)
	}
	var f weightsFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse weights %s: %w", path, err)
	}

	w := UniformWeights()
	if len(f.Default) > 0 {
		vec, err := toVector(f.Default)
		if err != nil {
			return nil, fmt.Errorf("weights %s: default: %w", path, err)
		}
		w.def = vec
	}
	for context, m := range f.Contexts {
		vec, err := toVector(m)
		if err != nil {
			return nil, fmt.Errorf("weights %s: context %s: %w", path, context, err)
		}
		w.byContext[context] = vec
	}
	return w, nil
}

// For returns the weight vector for a context, falling back to the
// default.
func (w *Weights) For(context string) [MetricCount]float64 {
	if vec, ok := w.byContext[context]; ok {
		return vec
	}
	return w.def
}

func toVector(m map[string]float64) ([MetricCount]float64, error) {
	var vec [MetricCount]float64
	if len(m) != MetricCount {
		return vec, fmt.Errorf("expected %d metric weights, got %d", MetricCount, len(m))
	}
	sum := 0.0
	for i, code := range MetricCodes {
		v, ok := m[code]
		if !ok {
			return vec, fmt.Errorf("missing weight for %s", code)
		}
		if v < 0 {
			return vec, fmt.Errorf("weight for %s is negative", code)
		}
		vec[i] = v
		sum += v
	}
	if math.Abs(sum-1.0) > 1e-6 {
		return vec, fmt.Errorf("weights sum to %g, want 1", sum)
	}
	return vec, nil
}

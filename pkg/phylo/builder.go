// Copyright (C) 2025 Verdanta Labs (oss@verdanta.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package phylo

import "fmt"

// Builder assembles a Tree programmatically. It exists for snapshot
// tooling and test fixtures; production trees come from Load.
type Builder struct {
	parents []NodeID
	labels  []string
	edges   []float32
}

// NewBuilder returns a Builder with a single unlabeled root node.
func NewBuilder() *Builder {
	return &Builder{
		parents: []NodeID{NoParent},
		labels:  []string{""},
		edges:   []float32{0},
	}
}

// Root returns the root node id (always 0 for built trees).
func (b *Builder) Root() NodeID { return 0 }

// Internal appends an unlabeled node under parent and returns its id.
func (b *Builder) Internal(parent NodeID, edgeLength float32) NodeID {
	return b.add(parent, "", edgeLength)
}

// Leaf appends a labeled leaf under parent and returns its id.
func (b *Builder) Leaf(parent NodeID, label string, edgeLength float32) NodeID {
	return b.add(parent, label, edgeLength)
}

func (b *Builder) add(parent NodeID, label string, edgeLength float32) NodeID {
	id := NodeID(len(b.parents))
	b.parents = append(b.parents, parent)
	b.labels = append(b.labels, label)
	b.edges = append(b.edges, edgeLength)
	return id
}

// Build validates the assembled structure and returns the immutable Tree.
func (b *Builder) Build() (*Tree, error) {
	n := len(b.parents)
	t := &Tree{
		parents:   append([]NodeID(nil), b.parents...),
		children:  make([][]NodeID, n),
		labels:    append([]string(nil), b.labels...),
		edgeLen:   append([]float32(nil), b.edges...),
		leafIndex: make(map[string]NodeID),
	}
	for i := 0; i < n; i++ {
		p := t.parents[i]
		if p == NoParent {
			continue
		}
		if int(p) >= n {
			return nil, fmt.Errorf("node %d: parent %d out of range", i, p)
		}
		t.children[p] = append(t.children[p], NodeID(i))
	}
	if err := finalize(t); err != nil {
		return nil, err
	}
	return t, nil
}

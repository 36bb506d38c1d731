// Copyright (C) 2025 Verdanta Labs (oss@verdanta.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package phylo

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"unicode/utf8"
)

// =============================================================================
// Binary Snapshot Format
// =============================================================================
//
// The snapshot layout is frozen for cross-implementation interoperability.
// All integers and floats are little-endian.
//
//	header:
//	    node_count  u32
//	    leaf_count  u32
//	per node (node_count records, node index = record index):
//	    parent      u32     (0xFFFFFFFF for the root)
//	    child_count u32
//	    children    u32 x child_count
//	    label_len   u32
//	    label       UTF-8 bytes (empty for internal nodes)
//	    edge_length f32     (branch length to parent; 0 for the root)

// maxSnapshotNodes bounds header counts so a corrupt file cannot drive
// allocation. Real trees in this system are well under a million nodes.
const maxSnapshotNodes = 1 << 27

var byteOrder = binary.LittleEndian

// Load reads a tree snapshot from disk.
//
// Any malformed content is returned as an error wrapping the structural
// problem; callers treat a failed load as fatal (the process must not
// serve without a tree).
func Load(path string) (*Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tree snapshot: %w", err)
	}
	defer f.Close()

	t, err := Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("decode tree snapshot %s: %w", path, err)
	}
	return t, nil
}

// Decode reads the frozen binary snapshot format from r and validates the
// resulting tree (single root, connected, acyclic, non-negative edge
// lengths, unique leaf labels).
func Decode(r io.Reader) (*Tree, error) {
	var nodeCount, leafCount uint32
	if err := binary.Read(r, byteOrder, &nodeCount); err != nil {
		return nil, fmt.Errorf("read node count: %w", err)
	}
	if err := binary.Read(r, byteOrder, &leafCount); err != nil {
		return nil, fmt.Errorf("read leaf count: %w", err)
	}
	if nodeCount == 0 {
		return nil, fmt.Errorf("snapshot declares zero nodes")
	}
	if nodeCount > maxSnapshotNodes {
		return nil, fmt.Errorf("snapshot declares %d nodes, limit %d", nodeCount, maxSnapshotNodes)
	}
	if leafCount > nodeCount {
		return nil, fmt.Errorf("snapshot declares %d leaves for %d nodes", leafCount, nodeCount)
	}

	t := &Tree{
		parents:   make([]NodeID, nodeCount),
		children:  make([][]NodeID, nodeCount),
		labels:    make([]string, nodeCount),
		edgeLen:   make([]float32, nodeCount),
		leafIndex: make(map[string]NodeID, leafCount),
	}

	for i := uint32(0); i < nodeCount; i++ {
		var parent uint32
		if err := binary.Read(r, byteOrder, &parent); err != nil {
			return nil, fmt.Errorf("node %d: read parent: %w", i, err)
		}
		if parent != uint32(NoParent) && parent >= nodeCount {
			return nil, fmt.Errorf("node %d: parent index %d out of range", i, parent)
		}
		t.parents[i] = NodeID(parent)

		var childCount uint32
		if err := binary.Read(r, byteOrder, &childCount); err != nil {
			return nil, fmt.Errorf("node %d: read child count: %w", i, err)
		}
		if childCount > nodeCount {
			return nil, fmt.Errorf("node %d: child count %d out of range", i, childCount)
		}
		if childCount > 0 {
			kids := make([]NodeID, childCount)
			for j := range kids {
				var c uint32
				if err := binary.Read(r, byteOrder, &c); err != nil {
					return nil, fmt.Errorf("node %d: read child %d: %w", i, j, err)
				}
				if c >= nodeCount {
					return nil, fmt.Errorf("node %d: child index %d out of range", i, c)
				}
				kids[j] = NodeID(c)
			}
			t.children[i] = kids
		}

		var labelLen uint32
		if err := binary.Read(r, byteOrder, &labelLen); err != nil {
			return nil, fmt.Errorf("node %d: read label length: %w", i, err)
		}
		if labelLen > 4096 {
			return nil, fmt.Errorf("node %d: label length %d out of range", i, labelLen)
		}
		if labelLen > 0 {
			buf := make([]byte, labelLen)
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, fmt.Errorf("node %d: read label: %w", i, err)
			}
			if !utf8.Valid(buf) {
				return nil, fmt.Errorf("node %d: label is not valid UTF-8", i)
			}
			t.labels[i] = string(buf)
		}

		var edge float32
		if err := binary.Read(r, byteOrder, &edge); err != nil {
			return nil, fmt.Errorf("node %d: read edge length: %w", i, err)
		}
		if edge < 0 || math.IsNaN(float64(edge)) || math.IsInf(float64(edge), 0) {
			return nil, fmt.Errorf("node %d: edge length %v invalid", i, edge)
		}
		t.edgeLen[i] = edge
	}

	if err := finalize(t); err != nil {
		return nil, err
	}
	if uint32(len(t.leafIndex)) != leafCount {
		return nil, fmt.Errorf("snapshot declares %d leaves, found %d labeled nodes", leafCount, len(t.leafIndex))
	}
	return t, nil
}

// Encode writes t in the frozen binary snapshot format. Used by fixture
// and snapshot tooling; the serving path only ever reads.
func (t *Tree) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, byteOrder, uint32(len(t.parents))); err != nil {
		return fmt.Errorf("write node count: %w", err)
	}
	if err := binary.Write(bw, byteOrder, uint32(len(t.leafIndex))); err != nil {
		return fmt.Errorf("write leaf count: %w", err)
	}
	for i := range t.parents {
		if err := binary.Write(bw, byteOrder, uint32(t.parents[i])); err != nil {
			return fmt.Errorf("node %d: write parent: %w", i, err)
		}
		kids := t.children[i]
		if err := binary.Write(bw, byteOrder, uint32(len(kids))); err != nil {
			return fmt.Errorf("node %d: write child count: %w", i, err)
		}
		for _, c := range kids {
			if err := binary.Write(bw, byteOrder, uint32(c)); err != nil {
				return fmt.Errorf("node %d: write child: %w", i, err)
			}
		}
		label := t.labels[i]
		if err := binary.Write(bw, byteOrder, uint32(len(label))); err != nil {
			return fmt.Errorf("node %d: write label length: %w", i, err)
		}
		if len(label) > 0 {
			if _, err := bw.WriteString(label); err != nil {
				return fmt.Errorf("node %d: write label: %w", i, err)
			}
		}
		if err := binary.Write(bw, byteOrder, t.edgeLen[i]); err != nil {
			return fmt.Errorf("node %d: write edge length: %w", i, err)
		}
	}
	return bw.Flush()
}

// finalize indexes leaves, locates the root, and checks structural
// invariants shared by Decode and the Builder.
func finalize(t *Tree) error {
	n := len(t.parents)

	rootSeen := false
	for i := 0; i < n; i++ {
		if t.parents[i] == NoParent {
			if rootSeen {
				return fmt.Errorf("multiple roots: nodes %d and %d", t.root, i)
			}
			t.root = NodeID(i)
			rootSeen = true
		}
	}
	if !rootSeen {
		return fmt.Errorf("no root node (parent sentinel missing)")
	}

	// Parent/child cross-consistency.
	for i := 0; i < n; i++ {
		for _, c := range t.children[i] {
			if t.parents[c] != NodeID(i) {
				return fmt.Errorf("node %d lists child %d whose parent is %d", i, c, t.parents[c])
			}
		}
	}

	// Connectivity and acyclicity: a walk from the root must reach every
	// node exactly once.
	reached := make([]bool, n)
	stack := []NodeID{t.root}
	count := 0
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if reached[node] {
			return fmt.Errorf("node %d reachable twice (cycle or duplicate child entry)", node)
		}
		reached[node] = true
		count++
		stack = append(stack, t.children[node]...)
	}
	if count != n {
		return fmt.Errorf("tree is disconnected: reached %d of %d nodes", count, n)
	}

	for i := 0; i < n; i++ {
		label := t.labels[i]
		if label == "" {
			continue
		}
		if prev, dup := t.leafIndex[label]; dup {
			return fmt.Errorf("duplicate leaf label %q on nodes %d and %d", label, prev, i)
		}
		t.leafIndex[label] = NodeID(i)
	}

	t.scratch.New = func() any { return make([]uint16, n) }
	return nil
}

// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package projector implements the deterministic coordinate mapping
// between two cortical areas (C4): many-to-one, one-to-many, and
// direct per-axis projection, with optional axis transpose and
// "collapse to first layer of axis" support.
package projector

import (
	"fmt"
	"sync"

	"github.com/feagi/feagi-core-sub006/cortical"
)

// ErrOutOfBounds is returned when a source coordinate falls outside
// its declared source dimensions.
type ErrOutOfBounds struct {
	Coord cortical.Coord
	Dims  cortical.Dims
}

func (e *ErrOutOfBounds) Error() string {
	return fmt.Sprintf("projector: coordinate %v out of bounds for dimensions %v", e.Coord, e.Dims)
}

// Params configures an optional transpose and an optional
// "project-last-layer-of" axis collapse.
type Params struct {
	// Transpose, if non-nil, is a permutation of {0,1,2} applied to
	// both the dimensions and the coordinate before per-axis projection.
	Transpose *[3]int

	// ProjectLastLayerOf, if non-nil, names an axis (post-transpose)
	// whose projection collapses to destination index 0 regardless of
	// the source/destination size ratio.
	ProjectLastLayerOf *int
}

// Project computes every destination coordinate a source neuron at
// coord maps to, given the source and destination area dimensions.
func Project(srcDims, dstDims cortical.Dims, coord cortical.Coord, p Params) ([]cortical.Coord, error) {
	if !srcDims.Contains(coord) {
		return nil, &ErrOutOfBounds{Coord: coord, Dims: srcDims}
	}

	if p.Transpose != nil {
		srcDims, dstDims, coord = applyTranspose(srcDims, dstDims, coord, *p.Transpose)
	}

	var perAxis [3][]uint32
	for axis := 0; axis < 3; axis++ {
		forceFirst := p.ProjectLastLayerOf != nil && *p.ProjectLastLayerOf == axis
		perAxis[axis] = axisProjection(coord[axis], srcDims[axis], dstDims[axis], forceFirst)
		if len(perAxis[axis]) == 0 {
			return nil, nil
		}
	}

	out := make([]cortical.Coord, 0, len(perAxis[0])*len(perAxis[1])*len(perAxis[2]))
	for _, x := range perAxis[0] {
		for _, y := range perAxis[1] {
			for _, z := range perAxis[2] {
				c := cortical.Coord{x, y, z}
				if dstDims.Contains(c) {
					out = append(out, c)
				}
			}
		}
	}
	return out, nil
}

// axisProjection implements the per-axis rule from spec §4.4:
//  1. forceFirst -> [0] only.
//  2. srcSize > dstSize (many-to-one) -> floor(loc*dst/src), if in bounds.
//  3. srcSize < dstSize (one-to-many) -> every dstVox whose floor(dstVox*src/dst) == loc.
//  4. equal sizes (direct) -> [loc], if in bounds.
func axisProjection(loc, srcSize, dstSize uint32, forceFirst bool) []uint32 {
	if forceFirst {
		return []uint32{0}
	}
	if srcSize > dstSize {
		v := loc * dstSize / srcSize
		if v < dstSize {
			return []uint32{v}
		}
		return nil
	}
	if srcSize < dstSize {
		var out []uint32
		for dstVox := uint32(0); dstVox < dstSize; dstVox++ {
			if dstVox*srcSize/dstSize == loc {
				out = append(out, dstVox)
			}
		}
		return out
	}
	if loc < dstSize {
		return []uint32{loc}
	}
	return nil
}

func applyTranspose(srcDims, dstDims cortical.Dims, coord cortical.Coord, t [3]int) (cortical.Dims, cortical.Dims, cortical.Coord) {
	var ns, nd cortical.Dims
	var nc cortical.Coord
	for axis := 0; axis < 3; axis++ {
		ns[axis] = srcDims[t[axis]]
		nd[axis] = dstDims[t[axis]]
		nc[axis] = coord[t[axis]]
	}
	return ns, nd, nc
}

// BatchEntry pairs an input id with its source coordinate, for use
// with ProjectBatch.
type BatchEntry[ID any] struct {
	ID    ID
	Coord cortical.Coord
}

// BatchResult holds the projection outcome for one batch entry,
// preserving input order.
type BatchResult[ID any] struct {
	ID    ID
	Coord []cortical.Coord
	Err   error
}

// ProjectBatch runs Project concurrently over many (id, coord) pairs,
// preserving per-input ordering in its output. A bounded worker pool
// is used rather than one goroutine per entry.
func ProjectBatch[ID any](srcDims, dstDims cortical.Dims, entries []BatchEntry[ID], p Params, workers int) []BatchResult[ID] {
	if workers <= 0 {
		workers = 1
	}
	out := make([]BatchResult[ID], len(entries))

	var wg sync.WaitGroup
	jobs := make(chan int)
	worker := func() {
		defer wg.Done()
		for i := range jobs {
			coords, err := Project(srcDims, dstDims, entries[i].Coord, p)
			out[i] = BatchResult[ID]{ID: entries[i].ID, Coord: coords, Err: err}
		}
	}
	n := workers
	if n > len(entries) {
		n = len(entries)
	}
	if n == 0 {
		return out
	}
	wg.Add(n)
	for i := 0; i < n; i++ {
		go worker()
	}
	for i := range entries {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return out
}

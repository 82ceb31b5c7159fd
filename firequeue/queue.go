// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package firequeue implements the Fire Queue / Fire Candidate List
// (C7): the canonical, insertion-ordered set of neurons that fired
// during one tick, with area grouping and read-only snapshot support.
package firequeue

import "github.com/feagi/feagi-core-sub006/ids"

// FiringNeuron records one neuron's fire event within a tick.
type FiringNeuron struct {
	NeuronID          ids.NeuronId
	MembranePotential float32
	CorticalIdx       ids.CorticalAreaId
	X, Y, Z           uint32
}

// Queue is the per-tick ordered set of fires.
type Queue struct {
	entries []FiringNeuron
}

// New returns an empty Queue.
func New() *Queue {
	return &Queue{}
}

// Add appends a fire event in insertion order.
func (q *Queue) Add(f FiringNeuron) {
	q.entries = append(q.entries, f)
}

// Len returns the total number of fires recorded this tick.
func (q *Queue) Len() int { return len(q.entries) }

// All returns the fires in insertion order. The returned slice aliases
// the queue's backing array; callers that need a stable copy across a
// Clear should use Snapshot instead.
func (q *Queue) All() []FiringNeuron { return q.entries }

// ByArea groups the fires by cortical area, preserving per-area
// insertion order.
func (q *Queue) ByArea() map[ids.CorticalAreaId][]FiringNeuron {
	out := make(map[ids.CorticalAreaId][]FiringNeuron)
	for _, f := range q.entries {
		out[f.CorticalIdx] = append(out[f.CorticalIdx], f)
	}
	return out
}

// IDPotential is a minimal (id, potential) pair for the FCL snapshot
// outbound interface.
type IDPotential struct {
	NeuronID          ids.NeuronId
	MembranePotential float32
}

// GroupedPotential adds the cortical area to IDPotential, for the
// grouped outbound form.
type GroupedPotential struct {
	NeuronID          ids.NeuronId
	CorticalIdx       ids.CorticalAreaId
	MembranePotential float32
}

// Snapshot returns a read-only copy of (id, potential) pairs in
// insertion order. The copy survives a subsequent Clear.
func (q *Queue) Snapshot() []IDPotential {
	out := make([]IDPotential, len(q.entries))
	for i, f := range q.entries {
		out[i] = IDPotential{NeuronID: f.NeuronID, MembranePotential: f.MembranePotential}
	}
	return out
}

// GroupedSnapshot returns a read-only copy including each fire's
// cortical area, for external consumers that need area context.
func (q *Queue) GroupedSnapshot() []GroupedPotential {
	out := make([]GroupedPotential, len(q.entries))
	for i, f := range q.entries {
		out[i] = GroupedPotential{NeuronID: f.NeuronID, CorticalIdx: f.CorticalIdx, MembranePotential: f.MembranePotential}
	}
	return out
}

// ParallelArrays is the area-sampled outbound form: parallel arrays of
// coordinates, ids, and potentials for one area.
type ParallelArrays struct {
	X, Y, Z    []uint32
	NeuronID   []ids.NeuronId
	Potential  []float32
}

// SampleArea returns the parallel-array form for one area's fires.
func (q *Queue) SampleArea(area ids.CorticalAreaId) ParallelArrays {
	var pa ParallelArrays
	for _, f := range q.entries {
		if f.CorticalIdx != area {
			continue
		}
		pa.X = append(pa.X, f.X)
		pa.Y = append(pa.Y, f.Y)
		pa.Z = append(pa.Z, f.Z)
		pa.NeuronID = append(pa.NeuronID, f.NeuronID)
		pa.Potential = append(pa.Potential, f.MembranePotential)
	}
	return pa
}

// Clear empties the queue for the next tick. Previously taken
// Snapshot/GroupedSnapshot copies are unaffected.
func (q *Queue) Clear() {
	q.entries = q.entries[:0]
}

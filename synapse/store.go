// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package synapse implements the Structure-of-Arrays synapse storage
// (C3): parallel attribute arrays plus a source-indexed reverse map
// (NeuronId -> synapse indices) that every tick's propagation kernel
// reads. The source index is a pure projection over the SoA: it is
// never the source of truth and can always be rebuilt from it.
package synapse

import (
	"errors"
)

// ErrCapacityExceeded is returned when the store has no free slots left.
var ErrCapacityExceeded = errors.New("synapse: capacity exceeded")

// Type tags whether a synapse is excitatory or inhibitory.
type Type uint8

const ( //enums:enum
	Excitatory Type = iota
	Inhibitory
)

// Sign returns +1 for excitatory, -1 for inhibitory.
func (t Type) Sign() int8 {
	if t == Inhibitory {
		return -1
	}
	return 1
}

// Params describes one synapse to add.
type Params[N comparable] struct {
	Source N
	Target N
	Weight uint8
	PSP    uint8
	Type   Type
}

// Store is the parallel-array synapse population, generic over the
// neuron-id type N so it has no dependency on the neuron package.
type Store[N comparable] struct {
	capacity int
	count    int

	source    []N
	target    []N
	weight    []uint8
	psp       []uint8
	synType   []Type
	validMask []bool

	sourceIndex map[N][]int
}

// New allocates a Store with the given fixed capacity.
func New[N comparable](capacity int) *Store[N] {
	return &Store[N]{
		capacity:    capacity,
		source:      make([]N, 0, capacity),
		target:      make([]N, 0, capacity),
		weight:      make([]uint8, 0, capacity),
		psp:         make([]uint8, 0, capacity),
		synType:     make([]Type, 0, capacity),
		validMask:   make([]bool, 0, capacity),
		sourceIndex: make(map[N][]int),
	}
}

// Capacity returns the fixed maximum population.
func (s *Store[N]) Capacity() int { return s.capacity }

// AddSynapse appends one synapse and updates the source index,
// returning its index.
func (s *Store[N]) AddSynapse(p Params[N]) (int, error) {
	if s.count >= s.capacity {
		return 0, ErrCapacityExceeded
	}
	idx := s.count
	s.source = append(s.source, p.Source)
	s.target = append(s.target, p.Target)
	s.weight = append(s.weight, p.Weight)
	s.psp = append(s.psp, p.PSP)
	s.synType = append(s.synType, p.Type)
	s.validMask = append(s.validMask, true)
	s.sourceIndex[p.Source] = append(s.sourceIndex[p.Source], idx)
	s.count++
	return idx, nil
}

// AddSynapsesBatch adds every synapse in params, or none: capacity is
// checked up front so the batch is atomic.
func (s *Store[N]) AddSynapsesBatch(params []Params[N]) ([]int, error) {
	if s.count+len(params) > s.capacity {
		return nil, ErrCapacityExceeded
	}
	out := make([]int, 0, len(params))
	for _, p := range params {
		idx, err := s.AddSynapse(p)
		if err != nil {
			return nil, err
		}
		out = append(out, idx)
	}
	return out, nil
}

// RemoveSynapse tombstones a synapse index and removes it from its
// source's entry in the source index right away.
func (s *Store[N]) RemoveSynapse(idx int) {
	if idx < 0 || idx >= s.count || !s.validMask[idx] {
		return
	}
	s.validMask[idx] = false
	s.pruneFromSourceIndex(s.source[idx], idx)
}

func (s *Store[N]) pruneFromSourceIndex(src N, idx int) {
	list := s.sourceIndex[src]
	for i, v := range list {
		if v == idx {
			s.sourceIndex[src] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// RemoveSynapsesFromSources removes every synapse whose source is in
// sources, returning the count removed.
func (s *Store[N]) RemoveSynapsesFromSources(sources []N) int {
	set := make(map[N]bool, len(sources))
	for _, n := range sources {
		set[n] = true
	}
	removed := 0
	for i := 0; i < s.count; i++ {
		if s.validMask[i] && set[s.source[i]] {
			s.validMask[i] = false
			removed++
		}
	}
	for _, n := range sources {
		delete(s.sourceIndex, n)
	}
	return removed
}

// RemoveSynapsesBetween removes every synapse directly connecting
// source to target, returning the count removed.
func (s *Store[N]) RemoveSynapsesBetween(source, target N) int {
	removed := 0
	for i := 0; i < s.count; i++ {
		if s.validMask[i] && s.source[i] == source && s.target[i] == target {
			s.validMask[i] = false
			removed++
		}
	}
	if removed > 0 {
		s.rebuildSourceFor(source)
	}
	return removed
}

func (s *Store[N]) rebuildSourceFor(src N) {
	list := s.sourceIndex[src][:0]
	for i := 0; i < s.count; i++ {
		if s.validMask[i] && s.source[i] == src {
			list = append(list, i)
		}
	}
	if len(list) == 0 {
		delete(s.sourceIndex, src)
	} else {
		s.sourceIndex[src] = list
	}
}

// UpdateWeight mutates a synapse's weight in place (used by plasticity).
func (s *Store[N]) UpdateWeight(idx int, w uint8) {
	if idx < 0 || idx >= s.count {
		return
	}
	s.weight[idx] = w
}

// ValidCount returns the number of non-tombstoned synapses.
func (s *Store[N]) ValidCount() int {
	n := 0
	for _, v := range s.validMask {
		if v {
			n++
		}
	}
	return n
}

// RebuildSourceIndex rebuilds the reverse source->indices map purely
// from the SoA, discarding whatever the index previously held. Used
// after deserialization and after bulk mutations.
func (s *Store[N]) RebuildSourceIndex() {
	s.sourceIndex = make(map[N][]int)
	for i := 0; i < s.count; i++ {
		if s.validMask[i] {
			s.sourceIndex[s.source[i]] = append(s.sourceIndex[s.source[i]], i)
		}
	}
}

// SourceIndex returns the synapse indices originating at src.
func (s *Store[N]) SourceIndex(src N) []int {
	return s.sourceIndex[src]
}

// Accessors.

func (s *Store[N]) Sources() []N         { return s.source }
func (s *Store[N]) Targets() []N         { return s.target }
func (s *Store[N]) Weights() []uint8     { return s.weight }
func (s *Store[N]) PSPs() []uint8        { return s.psp }
func (s *Store[N]) Types() []Type        { return s.synType }
func (s *Store[N]) ValidMask() []bool    { return s.validMask }
func (s *Store[N]) IsValid(idx int) bool { return idx >= 0 && idx < s.count && s.validMask[idx] }

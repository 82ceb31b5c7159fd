// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package neuron implements the Structure-of-Arrays neuron storage
// (C2): parallel attribute arrays sized to a fixed capacity, a valid
// mask for tombstoning, and a coordinate index for O(1) average
// lookup of the neuron occupying a given (area, x, y, z) slot.
package neuron

import (
	"errors"
	"fmt"

	"github.com/feagi/feagi-core-sub006/cortical"
	"github.com/feagi/feagi-core-sub006/ids"
	"github.com/feagi/feagi-core-sub006/neural"
)

// ErrCapacityExceeded is returned by AddNeuron/AddNeuronsBatch when the
// store has no free slots left.
var ErrCapacityExceeded = errors.New("neuron: capacity exceeded")

// ErrCoordinateOccupied is returned when adding a neuron at a
// coordinate that already holds a valid neuron in the same area.
var ErrCoordinateOccupied = errors.New("neuron: coordinate already occupied")

// Params describes the attributes of a neuron to add.
type Params[T any] struct {
	Threshold             T
	ThresholdLimit        T
	LeakCoefficient       float32
	RestingPotential      T
	NeuronType            int32
	RefractoryPeriod      uint16
	Excitability          float32
	ConsecutiveFireLimit  uint16
	SnoozePeriod          uint16
	MPChargeAccumulation  bool
	CorticalArea          ids.CorticalAreaId
	Coordinate            cortical.Coord
}

type coordKey struct {
	area ids.CorticalAreaId
	x, y, z uint32
}

// Store is the parallel-array neuron population, generic over the
// membrane-potential representation T.
type Store[T neural.Value[T]] struct {
	capacity int
	count    int

	membranePotential    []T
	threshold            []T
	thresholdLimit       []T
	leakCoefficient      []float32
	restingPotential     []T
	neuronType           []int32
	refractoryPeriod     []uint16
	refractoryCountdown  []uint16
	excitability         []float32
	consecutiveFireCount []uint16
	consecutiveFireLimit []uint16
	snoozePeriod         []uint16
	mpChargeAccumulation []bool
	corticalArea         []ids.CorticalAreaId
	coordinates          []uint32 // flat xyz triples, length count*3
	validMask            []bool

	coordIndex map[coordKey]ids.NeuronId
	areaIndex  map[ids.CorticalAreaId][]ids.NeuronId
}

// New allocates a Store with the given fixed capacity.
func New[T neural.Value[T]](capacity int) *Store[T] {
	return &Store[T]{
		capacity:             capacity,
		membranePotential:    make([]T, 0, capacity),
		threshold:            make([]T, 0, capacity),
		thresholdLimit:       make([]T, 0, capacity),
		leakCoefficient:      make([]float32, 0, capacity),
		restingPotential:     make([]T, 0, capacity),
		neuronType:           make([]int32, 0, capacity),
		refractoryPeriod:     make([]uint16, 0, capacity),
		refractoryCountdown:  make([]uint16, 0, capacity),
		excitability:         make([]float32, 0, capacity),
		consecutiveFireCount: make([]uint16, 0, capacity),
		consecutiveFireLimit: make([]uint16, 0, capacity),
		snoozePeriod:         make([]uint16, 0, capacity),
		mpChargeAccumulation: make([]bool, 0, capacity),
		corticalArea:         make([]ids.CorticalAreaId, 0, capacity),
		coordinates:          make([]uint32, 0, capacity*3),
		validMask:            make([]bool, 0, capacity),
		coordIndex:           make(map[coordKey]ids.NeuronId),
		areaIndex:            make(map[ids.CorticalAreaId][]ids.NeuronId),
	}
}

// Capacity returns the fixed maximum population.
func (s *Store[T]) Capacity() int { return s.capacity }

// Count returns the number of slots used, including tombstoned ones.
func (s *Store[T]) Count() int { return s.count }

func (s *Store[T]) key(area ids.CorticalAreaId, c cortical.Coord) coordKey {
	return coordKey{area, c[0], c[1], c[2]}
}

// AddNeuron appends one neuron, returning its new id.
func (s *Store[T]) AddNeuron(p Params[T]) (ids.NeuronId, error) {
	if s.count >= s.capacity {
		return 0, ErrCapacityExceeded
	}
	k := s.key(p.CorticalArea, p.Coordinate)
	if existing, ok := s.coordIndex[k]; ok && s.validMask[existing] {
		return 0, ErrCoordinateOccupied
	}

	id := ids.NeuronId(s.count)
	var zero T
	s.membranePotential = append(s.membranePotential, zero.Zero())
	s.threshold = append(s.threshold, p.Threshold)
	s.thresholdLimit = append(s.thresholdLimit, p.ThresholdLimit)
	s.leakCoefficient = append(s.leakCoefficient, p.LeakCoefficient)
	s.restingPotential = append(s.restingPotential, p.RestingPotential)
	s.neuronType = append(s.neuronType, p.NeuronType)
	s.refractoryPeriod = append(s.refractoryPeriod, p.RefractoryPeriod)
	s.refractoryCountdown = append(s.refractoryCountdown, 0)
	s.excitability = append(s.excitability, p.Excitability)
	s.consecutiveFireCount = append(s.consecutiveFireCount, 0)
	s.consecutiveFireLimit = append(s.consecutiveFireLimit, p.ConsecutiveFireLimit)
	s.snoozePeriod = append(s.snoozePeriod, p.SnoozePeriod)
	s.mpChargeAccumulation = append(s.mpChargeAccumulation, p.MPChargeAccumulation)
	s.corticalArea = append(s.corticalArea, p.CorticalArea)
	s.coordinates = append(s.coordinates, p.Coordinate[0], p.Coordinate[1], p.Coordinate[2])
	s.validMask = append(s.validMask, true)

	s.coordIndex[k] = id
	s.areaIndex[p.CorticalArea] = append(s.areaIndex[p.CorticalArea], id)
	s.count++
	return id, nil
}

// AddNeuronsBatch adds every neuron in params, or none: if any entry
// would fail, the store is left unmodified and the first error is
// returned.
func (s *Store[T]) AddNeuronsBatch(params []Params[T]) ([]ids.NeuronId, error) {
	if s.count+len(params) > s.capacity {
		return nil, ErrCapacityExceeded
	}
	seen := make(map[coordKey]bool, len(params))
	for _, p := range params {
		k := s.key(p.CorticalArea, p.Coordinate)
		if existing, ok := s.coordIndex[k]; ok && s.validMask[existing] {
			return nil, ErrCoordinateOccupied
		}
		if seen[k] {
			return nil, ErrCoordinateOccupied
		}
		seen[k] = true
	}
	out := make([]ids.NeuronId, 0, len(params))
	for _, p := range params {
		id, err := s.AddNeuron(p)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// Invalidate tombstones a neuron, removing it from the coordinate and
// area indices.
func (s *Store[T]) Invalidate(id ids.NeuronId) {
	if int(id) >= s.count || !s.validMask[id] {
		return
	}
	s.validMask[id] = false
	area := s.corticalArea[id]
	c := s.CoordinateOf(id)
	delete(s.coordIndex, s.key(area, c))
	members := s.areaIndex[area]
	for i, m := range members {
		if m == id {
			s.areaIndex[area] = append(members[:i], members[i+1:]...)
			break
		}
	}
}

// IsValid reports whether id refers to a non-tombstoned neuron.
func (s *Store[T]) IsValid(id ids.NeuronId) bool {
	return int(id) < s.count && s.validMask[id]
}

// GetNeuronAtCoordinate returns the neuron occupying (area,x,y,z), if any.
func (s *Store[T]) GetNeuronAtCoordinate(area ids.CorticalAreaId, c cortical.Coord) (ids.NeuronId, bool) {
	id, ok := s.coordIndex[s.key(area, c)]
	if !ok || !s.validMask[id] {
		return 0, false
	}
	return id, true
}

// CoordinateOf returns the (x,y,z) of a neuron.
func (s *Store[T]) CoordinateOf(id ids.NeuronId) cortical.Coord {
	o := int(id) * 3
	return cortical.Coord{s.coordinates[o], s.coordinates[o+1], s.coordinates[o+2]}
}

// AreaOf returns the cortical area a neuron belongs to.
func (s *Store[T]) AreaOf(id ids.NeuronId) (ids.CorticalAreaId, bool) {
	if !s.IsValid(id) {
		return 0, false
	}
	return s.corticalArea[id], true
}

// EnumerateByArea returns every valid neuron id belonging to area.
func (s *Store[T]) EnumerateByArea(area ids.CorticalAreaId) []ids.NeuronId {
	return s.areaIndex[area]
}

// Accessors. Go slices are reference types, so the "mutable" variants
// below alias the same backing array as the read-only ones; both are
// exposed to mirror the read/mut accessor split the connectome storage
// contract specifies.

func (s *Store[T]) MembranePotentials() []T        { return s.membranePotential }
func (s *Store[T]) Thresholds() []T                { return s.threshold }
func (s *Store[T]) ThresholdLimits() []T           { return s.thresholdLimit }
func (s *Store[T]) LeakCoefficients() []float32    { return s.leakCoefficient }
func (s *Store[T]) RestingPotentials() []T         { return s.restingPotential }
func (s *Store[T]) NeuronTypes() []int32           { return s.neuronType }
func (s *Store[T]) RefractoryPeriods() []uint16    { return s.refractoryPeriod }
func (s *Store[T]) RefractoryCountdowns() []uint16 { return s.refractoryCountdown }
func (s *Store[T]) Excitabilities() []float32      { return s.excitability }
func (s *Store[T]) ConsecutiveFireCounts() []uint16 { return s.consecutiveFireCount }
func (s *Store[T]) ConsecutiveFireLimits() []uint16 { return s.consecutiveFireLimit }
func (s *Store[T]) SnoozePeriods() []uint16         { return s.snoozePeriod }
func (s *Store[T]) MPChargeAccumulation() []bool    { return s.mpChargeAccumulation }
func (s *Store[T]) CorticalAreas() []ids.CorticalAreaId { return s.corticalArea }
func (s *Store[T]) ValidMask() []bool               { return s.validMask }

// String implements a compact population summary, mainly for debug logs.
func (s *Store[T]) String() string {
	valid := 0
	for _, v := range s.validMask {
		if v {
			valid++
		}
	}
	return fmt.Sprintf("neuron.Store{count=%d valid=%d capacity=%d}", s.count, valid, s.capacity)
}

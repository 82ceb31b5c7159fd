// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package plasticity

import (
	"sort"
	"sync"

	"github.com/feagi/feagi-core-sub006/ids"
)

// MemoryNeuronLifecycleConfig parameterizes how a memory neuron's
// lifespan grows on reactivation and when it promotes to long-term.
type MemoryNeuronLifecycleConfig struct {
	InitialLifespan     uint32
	LifespanGrowthRate  float64
	LongtermThreshold   uint32
}

// DefaultMemoryNeuronLifecycleConfig matches the reference defaults.
func DefaultMemoryNeuronLifecycleConfig() MemoryNeuronLifecycleConfig {
	return MemoryNeuronLifecycleConfig{InitialLifespan: 100, LifespanGrowthRate: 1.5, LongtermThreshold: 10}
}

// memoryNeuronSlot is one bounded-array slot; Alive distinguishes an
// occupied slot from one on the free list.
type memoryNeuronSlot struct {
	Alive             bool
	PatternHash       [32]byte
	Area              ids.CorticalAreaId
	Birth             uint64
	Lifespan          uint32
	LastReactivation  uint64
	ReactivationCount uint32
	Longterm          bool
}

// MemoryNeuronStats reports the array's population counters.
type MemoryNeuronStats struct {
	ActiveNeurons    int
	DeadNeurons      int
	LongtermNeurons  int
	ReusableIndices  int
}

// MemoryNeuronArray is the bounded, slot-reused population of memory
// neurons, each addressable by a memory-partitioned ids.NeuronId via
// ids.MemoryNeuronID/ids.MemoryNeuronIndex.
type MemoryNeuronArray struct {
	mu           sync.Mutex
	slots        []memoryNeuronSlot
	freeList     []uint32
	byPattern    map[[32]byte]uint32
	deadCount    int
	longtermCount int
}

// NewMemoryNeuronArray allocates an array with a fixed maximum population.
func NewMemoryNeuronArray(capacity int) *MemoryNeuronArray {
	return &MemoryNeuronArray{
		slots:     make([]memoryNeuronSlot, capacity),
		byPattern: make(map[[32]byte]uint32),
	}
}

// CreateMemoryNeuron consumes a free slot (new or reused) for
// pattern_hash, returning its memory-partitioned NeuronId, or false if
// the array is at capacity.
func (a *MemoryNeuronArray) CreateMemoryNeuron(patternHash [32]byte, area ids.CorticalAreaId, birthTimestep uint64, cfg MemoryNeuronLifecycleConfig) (ids.NeuronId, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var idx uint32
	if n := len(a.freeList); n > 0 {
		idx = a.freeList[n-1]
		a.freeList = a.freeList[:n-1]
		a.deadCount--
	} else {
		used := 0
		for _, s := range a.slots {
			if s.Alive {
				used++
			}
		}
		if used+a.deadCount >= len(a.slots) {
			return 0, false
		}
		idx = uint32(used + a.deadCount)
	}

	a.slots[idx] = memoryNeuronSlot{
		Alive:            true,
		PatternHash:      patternHash,
		Area:             area,
		Birth:            birthTimestep,
		Lifespan:         cfg.InitialLifespan,
		LastReactivation: birthTimestep,
	}
	a.byPattern[patternHash] = idx
	return ids.MemoryNeuronID(idx), true
}

// FindNeuronByPattern looks up the memory neuron currently holding
// pattern_hash, if any.
func (a *MemoryNeuronArray) FindNeuronByPattern(patternHash [32]byte) (ids.NeuronId, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	idx, ok := a.byPattern[patternHash]
	if !ok || !a.slots[idx].Alive {
		return 0, false
	}
	return ids.MemoryNeuronID(idx), true
}

// ReactivateMemoryNeuron extends id's lifespan by the configured growth
// rate and records the reactivation timestep. Returns false if id does
// not refer to a live memory neuron.
func (a *MemoryNeuronArray) ReactivateMemoryNeuron(id ids.NeuronId, timestep uint64, cfg MemoryNeuronLifecycleConfig) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	idx := ids.MemoryNeuronIndex(id)
	if int(idx) >= len(a.slots) || !a.slots[idx].Alive {
		return false
	}
	s := &a.slots[idx]
	s.Lifespan += uint32(cfg.LifespanGrowthRate)
	s.LastReactivation = timestep
	s.ReactivationCount++
	return true
}

// CheckLongtermConversion promotes every live, not-yet-longterm memory
// neuron whose lifespan has grown to reach threshold (reactivation
// accumulates lifespan, so long-lived, frequently reactivated patterns
// cross it naturally), returning the ids promoted this call.
func (a *MemoryNeuronArray) CheckLongtermConversion(threshold uint32) []ids.NeuronId {
	a.mu.Lock()
	defer a.mu.Unlock()
	var promoted []ids.NeuronId
	for idx := range a.slots {
		s := &a.slots[idx]
		if !s.Alive || s.Longterm {
			continue
		}
		if s.Lifespan >= threshold {
			s.Longterm = true
			a.longtermCount++
			promoted = append(promoted, ids.MemoryNeuronID(uint32(idx)))
		}
	}
	return promoted
}

// AgeMemoryNeurons decrements every live, non-longterm memory neuron's
// lifespan by one tick; a neuron reaching zero lifespan is released
// back to the free list for reuse, and its pattern-hash lookup entry
// is removed. Longterm neurons no longer decay.
func (a *MemoryNeuronArray) AgeMemoryNeurons(timestep uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for idx := range a.slots {
		s := &a.slots[idx]
		if !s.Alive || s.Longterm {
			continue
		}
		if s.Lifespan == 0 {
			a.release(uint32(idx))
			continue
		}
		s.Lifespan--
		if s.Lifespan == 0 {
			a.release(uint32(idx))
		}
	}
}

// release tombstones a slot and returns it to the free list. Caller
// holds a.mu.
func (a *MemoryNeuronArray) release(idx uint32) {
	s := &a.slots[idx]
	delete(a.byPattern, s.PatternHash)
	if s.Longterm {
		a.longtermCount--
	}
	*s = memoryNeuronSlot{}
	a.freeList = append(a.freeList, idx)
	a.deadCount++
}

// GetActiveNeuronsByArea returns every live memory neuron id belonging
// to area, sorted ascending.
func (a *MemoryNeuronArray) GetActiveNeuronsByArea(area ids.CorticalAreaId) []ids.NeuronId {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []ids.NeuronId
	for idx, s := range a.slots {
		if s.Alive && s.Area == area {
			out = append(out, ids.MemoryNeuronID(uint32(idx)))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// GetNeuronID returns the memory-partitioned id for slot idx, if alive.
func (a *MemoryNeuronArray) GetNeuronID(idx uint32) (ids.NeuronId, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if int(idx) >= len(a.slots) || !a.slots[idx].Alive {
		return 0, false
	}
	return ids.MemoryNeuronID(idx), true
}

// Stats returns a snapshot of the array's population counters.
func (a *MemoryNeuronArray) Stats() MemoryNeuronStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	active := 0
	for _, s := range a.slots {
		if s.Alive {
			active++
		}
	}
	return MemoryNeuronStats{
		ActiveNeurons:   active,
		DeadNeurons:     a.deadCount,
		LongtermNeurons: a.longtermCount,
		ReusableIndices: len(a.freeList),
	}
}

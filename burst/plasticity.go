// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package burst

import (
	"github.com/feagi/feagi-core-sub006/firequeue"
	"github.com/feagi/feagi-core-sub006/ids"
	"github.com/feagi/feagi-core-sub006/ledger"
	"github.com/feagi/feagi-core-sub006/plasticity"
)

// STDPConfig turns on per-tick synaptic weight adjustment (spec
// §4.10): every synapse feeding a neuron that fired this tick has its
// weight nudged by the source/target timing factor computed from the
// Fire Ledger's recent history, scaled by LearningRate and clamped to
// the uint8 weight range.
type STDPConfig struct {
	Timing       plasticity.STDPConfig
	LearningRate float64
	// HistoryDepth bounds how many past ticks of ledger history feed
	// the timing-factor lookup; it must not exceed the tracked window
	// size configured via ConfigureFireLedgerWindow for the areas
	// involved, or the ledger query is dropped for that tick.
	HistoryDepth int
}

// DefaultSTDPSettings matches the plasticity package's reference
// timing-factor defaults with a conservative learning rate.
func DefaultSTDPSettings() STDPConfig {
	return STDPConfig{Timing: plasticity.DefaultSTDPConfig(), LearningRate: 8, HistoryDepth: 20}
}

// EnableSTDP turns on per-tick weight adjustment. Synapses feeding an
// area must already be tracked (ConfigureFireLedgerWindow) with a
// window at least cfg.HistoryDepth deep for their timing factors to
// resolve; otherwise the lookup misses and the weight is left alone.
func (l *Loop[T]) EnableSTDP(cfg STDPConfig) {
	l.regMu.Lock()
	l.stdp = &cfg
	l.regMu.Unlock()
}

// DisableSTDP turns per-tick weight adjustment back off.
func (l *Loop[T]) DisableSTDP() {
	l.regMu.Lock()
	l.stdp = nil
	l.regMu.Unlock()
}

// applySTDP runs once per tick, after ledger archival, for every
// neuron the new Fire Candidate List reports as fired.
func (l *Loop[T]) applySTDP(cfg *STDPConfig, nextTimestep uint64, newFCL *firequeue.Queue) {
	fired := newFCL.All()
	if len(fired) == 0 {
		return
	}

	byTarget := make(map[ids.NeuronId][]int)
	targets := l.synapses.Targets()
	for idx := range targets {
		if !l.synapses.IsValid(idx) {
			continue
		}
		byTarget[targets[idx]] = append(byTarget[targets[idx]], idx)
	}
	if len(byTarget) == 0 {
		return
	}

	history := make(map[ids.CorticalAreaId][]plasticity.FireEvent)
	historyFor := func(area ids.CorticalAreaId) []plasticity.FireEvent {
		if h, ok := history[area]; ok {
			return h
		}
		frames, err := l.led.GetDenseWindowBitmaps(area, nextTimestep, cfg.HistoryDepth)
		if err != nil {
			history[area] = nil
			return nil
		}
		events := make([]plasticity.FireEvent, 0, len(frames))
		for _, f := range frames {
			for _, id := range f.Bitmap.IDs() {
				events = append(events, plasticity.FireEvent{Timestep: f.Timestep, ID: id})
			}
		}
		history[area] = events
		return events
	}

	sources := l.synapses.Sources()
	weights := l.synapses.Weights()
	for _, f := range fired {
		targetHistory := historyFor(f.CorticalIdx)
		for _, idx := range byTarget[f.NeuronID] {
			src := sources[idx]
			srcArea, ok := l.store.AreaOf(src)
			if !ok {
				continue
			}
			srcHistory := historyFor(srcArea)
			factors := plasticity.ComputeTimingFactors(
				[]ids.NeuronId{src}, []ids.NeuronId{f.NeuronID},
				srcHistory, targetHistory, cfg.Timing,
			)
			if len(factors) == 0 || factors[0] == 0 {
				continue
			}
			newWeight := int(weights[idx]) + int(factors[0]*cfg.LearningRate)
			if newWeight < 0 {
				newWeight = 0
			} else if newWeight > 255 {
				newWeight = 255
			}
			l.synapses.UpdateWeight(idx, uint8(newWeight))
		}
	}
}

// MemoryFormationConfig turns on temporal pattern detection and
// memory-neuron lifecycle management (spec §4.10). Areas maps a
// memory-forming area to the upstream areas whose recent Fire Ledger
// activity is hashed into that area's candidate patterns.
type MemoryFormationConfig struct {
	Pattern      plasticity.PatternConfig
	Lifecycle    plasticity.MemoryNeuronLifecycleConfig
	Capacity     int
	HistoryDepth int
	Areas        map[ids.CorticalAreaId][]ids.CorticalAreaId
}

// DefaultMemoryFormationConfig matches the plasticity package's
// reference defaults with a modest history depth.
func DefaultMemoryFormationConfig() MemoryFormationConfig {
	return MemoryFormationConfig{
		Pattern:      plasticity.DefaultPatternConfig(),
		Lifecycle:    plasticity.DefaultMemoryNeuronLifecycleConfig(),
		Capacity:     1024,
		HistoryDepth: 5,
		Areas:        make(map[ids.CorticalAreaId][]ids.CorticalAreaId),
	}
}

// memoryFormation bundles the pattern detector and memory-neuron array
// a Loop drives once per tick.
type memoryFormation struct {
	cfg      MemoryFormationConfig
	detector *plasticity.PatternDetector
	neurons  *plasticity.MemoryNeuronArray
}

func newMemoryFormation(cfg MemoryFormationConfig) *memoryFormation {
	return &memoryFormation{
		cfg:      cfg,
		detector: plasticity.NewPatternDetector(cfg.Pattern),
		neurons:  plasticity.NewMemoryNeuronArray(cfg.Capacity),
	}
}

// EnableMemoryFormation turns on memory-neuron lifecycle management.
// It returns the underlying MemoryNeuronArray so callers can query the
// live population (e.g. GetActiveNeuronsByArea) between ticks.
func (l *Loop[T]) EnableMemoryFormation(cfg MemoryFormationConfig) *plasticity.MemoryNeuronArray {
	mf := newMemoryFormation(cfg)
	l.regMu.Lock()
	l.memory = mf
	l.regMu.Unlock()
	return mf.neurons
}

// DisableMemoryFormation turns memory-neuron lifecycle management back off.
func (l *Loop[T]) DisableMemoryFormation() {
	l.regMu.Lock()
	l.memory = nil
	l.regMu.Unlock()
}

// run executes one tick's worth of pattern detection and lifecycle
// bookkeeping: every configured memory area's upstream history is
// hashed into a candidate pattern; a pattern seen for the first time
// spawns a memory neuron, a repeat sighting reactivates its existing
// one, and every live memory neuron not yet promoted to long-term ages
// by one tick regardless of whether any pattern fired this tick.
func (m *memoryFormation) run(led *ledger.Ledger, nextTimestep uint64) {
	for area, upstream := range m.cfg.Areas {
		var frames []ledger.Frame
		for _, up := range upstream {
			fr, err := led.GetDenseWindowBitmaps(up, nextTimestep, m.cfg.HistoryDepth)
			if err != nil {
				continue
			}
			frames = append(frames, fr...)
		}
		pattern := m.detector.DetectPattern(area, upstream, frames, nil)
		if pattern == nil {
			continue
		}
		if id, ok := m.neurons.FindNeuronByPattern(pattern.PatternHash); ok {
			m.neurons.ReactivateMemoryNeuron(id, nextTimestep, m.cfg.Lifecycle)
		} else {
			m.neurons.CreateMemoryNeuron(pattern.PatternHash, area, nextTimestep, m.cfg.Lifecycle)
		}
	}
	m.neurons.AgeMemoryNeurons(nextTimestep)
	m.neurons.CheckLongtermConversion(m.cfg.Lifecycle.LongtermThreshold)
}

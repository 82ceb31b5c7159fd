// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package propagation implements the synaptic propagation kernel (C5),
// the dominant hot path of the burst loop: given a set of fired source
// neurons, it computes grouped (target, contribution) lists per
// destination cortical area in three phases -- Gather, Compute, Group.
package propagation

import (
	"log/slog"
	"sync"

	"github.com/feagi/feagi-core-sub006/ids"
	"github.com/feagi/feagi-core-sub006/synapse"
)

// Contribution is one synapse's raw effect on its target, left
// unscaled: the dynamics package (C6) applies the NeuralValue-specific
// quantization of weight/PSP into a membrane-potential delta.
type Contribution struct {
	Target ids.NeuronId
	Weight uint8
	PSP    uint8
	Sign   int8
}

// Result is the propagation kernel's output: per destination area, the
// list of (target, contribution) pairs bucketed there. Order within a
// bucket is unspecified but deterministic for a given fired-id order.
type Result map[ids.CorticalAreaId][]Contribution

// AreaOf resolves a neuron id to the cortical area it belongs to.
type AreaOf func(ids.NeuronId) (ids.CorticalAreaId, bool)

// Stats reports running kernel counters.
type Stats struct {
	TotalPropagations      uint64
	TotalSynapsesProcessed uint64
	DroppedMissingArea     uint64
}

// Engine runs the three-phase propagation kernel against a synapse
// store, with a configurable worker count for the Compute phase.
type Engine struct {
	synapses *synapse.Store[ids.NeuronId]
	areaOf   AreaOf
	workers  int

	mu    sync.Mutex
	stats Stats
}

// New builds a propagation Engine over the given synapse store. areaOf
// resolves a target neuron to its cortical area; workers bounds the
// Compute-phase goroutine pool (workers <= 1 runs sequentially).
func New(synapses *synapse.Store[ids.NeuronId], areaOf AreaOf, workers int) *Engine {
	if workers < 1 {
		workers = 1
	}
	return &Engine{synapses: synapses, areaOf: areaOf, workers: workers}
}

// Propagate runs Gather -> Compute -> Group over the fired set.
func (e *Engine) Propagate(fired []ids.NeuronId) Result {
	if len(fired) == 0 {
		return Result{}
	}

	// Gather: union (here, concatenation -- each synapse has exactly
	// one source) of valid synapse indices reachable from fired ids.
	valid := e.synapses.ValidMask()
	var gathered []int
	for _, id := range fired {
		for _, idx := range e.synapses.SourceIndex(id) {
			if valid[idx] {
				gathered = append(gathered, idx)
			}
		}
	}
	if len(gathered) == 0 {
		e.addStats(0, 0)
		return Result{}
	}

	// Compute, parallelized across the gathered indices with per-worker
	// partial results merged in the serial Group step.
	targets := e.synapses.Targets()
	weights := e.synapses.Weights()
	psps := e.synapses.PSPs()
	types := e.synapses.Types()

	n := e.workers
	if n > len(gathered) {
		n = len(gathered)
	}
	if n < 1 {
		n = 1
	}
	chunks := make([]Result, n)
	var dropped uint64
	var droppedMu sync.Mutex
	var wg sync.WaitGroup
	chunkSize := (len(gathered) + n - 1) / n
	for w := 0; w < n; w++ {
		lo := w * chunkSize
		hi := lo + chunkSize
		if lo >= len(gathered) {
			continue
		}
		if hi > len(gathered) {
			hi = len(gathered)
		}
		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			local := Result{}
			localDropped := uint64(0)
			for _, idx := range gathered[lo:hi] {
				target := targets[idx]
				area, ok := e.areaOf(target)
				if !ok {
					localDropped++
					slog.Debug("propagation: dropping contribution, target has no area mapping", "target", target)
					continue
				}
				local[area] = append(local[area], Contribution{
					Target: target,
					Weight: weights[idx],
					PSP:    psps[idx],
					Sign:   types[idx].Sign(),
				})
			}
			chunks[w] = local
			if localDropped > 0 {
				droppedMu.Lock()
				dropped += localDropped
				droppedMu.Unlock()
			}
		}(w, lo, hi)
	}
	wg.Wait()

	// Group: serial merge of per-worker partial maps.
	merged := Result{}
	for _, c := range chunks {
		for area, contribs := range c {
			merged[area] = append(merged[area], contribs...)
		}
	}

	e.addStats(uint64(len(gathered)), dropped)
	return merged
}

func (e *Engine) addStats(processed, dropped uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stats.TotalPropagations++
	e.stats.TotalSynapsesProcessed += processed
	e.stats.DroppedMissingArea += dropped
}

// Stats returns a snapshot of the running counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// ResetStats zeroes the running counters.
func (e *Engine) ResetStats() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stats = Stats{}
}

// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compute

import (
	"runtime"

	"github.com/feagi/feagi-core-sub006/ids"
	"github.com/feagi/feagi-core-sub006/propagation"
	"github.com/feagi/feagi-core-sub006/synapse"
)

// CPUBackend runs the propagation kernel on a bounded goroutine worker
// pool, adapted from the teacher's NThreads-style fan-out (see
// propagation.Engine, which this backend wraps directly).
type CPUBackend struct {
	workers int
	engine  *propagation.Engine
}

// NewCPUBackend builds a CPU backend with the given worker count; 0
// selects runtime.NumCPU().
func NewCPUBackend(workers int) *CPUBackend {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &CPUBackend{workers: workers}
}

// Initialize builds the propagation engine against the current
// synapse store and area resolver. neuronCount is accepted to satisfy
// the Backend contract but unused: the CPU kernel needs no
// neuron-indexed staging buffers.
func (b *CPUBackend) Initialize(neuronCount int, areaOf propagation.AreaOf, synapses *synapse.Store[ids.NeuronId]) error {
	_ = neuronCount
	b.engine = propagation.New(synapses, areaOf, b.workers)
	return nil
}

// ProcessPropagation runs the Gather/Compute/Group kernel over fired.
func (b *CPUBackend) ProcessPropagation(fired []ids.NeuronId) (propagation.Result, int, error) {
	result := b.engine.Propagate(fired)
	processed := 0
	for _, contribs := range result {
		processed += len(contribs)
	}
	return result, processed, nil
}

func (b *CPUBackend) Name() string          { return "cpu" }
func (b *CPUBackend) SupportsParallel() bool { return b.workers > 1 }
func (b *CPUBackend) SupportsSIMD() bool     { return false }
func (b *CPUBackend) MemoryLimit() uint64    { return 0 } // unbounded: host RAM

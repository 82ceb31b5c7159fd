// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package compute implements the compute-backend capability set (C11):
// a uniform initialize/propagate/name contract over a CPU worker-pool
// implementation and an optional GPU implementation, plus the policy
// that selects between them.
package compute

import (
	"github.com/feagi/feagi-core-sub006/ids"
	"github.com/feagi/feagi-core-sub006/propagation"
	"github.com/feagi/feagi-core-sub006/synapse"
)

// Backend is the capability set every compute implementation must
// satisfy. Initialize is called once, after load_connectome or any
// bulk rebuild, to let the backend stage persistent data (e.g. upload
// GPU buffers); neuronCount sizes any neuron-indexed buffers even
// though the propagation kernel itself only reads synapse data.
// ProcessPropagation runs one tick's propagation and returns the
// number of synapses actually processed -- it must succeed as a
// no-op on an empty fired set.
type Backend interface {
	Initialize(neuronCount int, areaOf propagation.AreaOf, synapses *synapse.Store[ids.NeuronId]) error
	ProcessPropagation(fired []ids.NeuronId) (propagation.Result, int, error)
	Name() string
	SupportsParallel() bool
	SupportsSIMD() bool
	MemoryLimit() uint64
}

// Policy selects which backend a running instance uses.
type Policy uint8

const ( //enums:enum
	ForceCPU Policy = iota
	ForceGPU
	Heuristic
)

// Select applies policy given the current population counts, falling
// back to the CPU backend whenever the GPU backend is unavailable or
// the heuristic doesn't favor it. neuronCount/synapseCount drive the
// heuristic threshold.
func Select(policy Policy, cpu, gpu Backend, neuronCount, synapseCount int) Backend {
	switch policy {
	case ForceGPU:
		if gpu != nil {
			return gpu
		}
		return cpu
	case Heuristic:
		// GPU dispatch overhead only pays off past a sizable working
		// set; below it the CPU worker pool wins on latency.
		const heuristicThreshold = 250_000
		if gpu != nil && (neuronCount+synapseCount) >= heuristicThreshold {
			return gpu
		}
		return cpu
	default:
		return cpu
	}
}

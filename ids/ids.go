// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ids defines the opaque identifier types shared across the
// connectome packages, so that neuron, synapse, and cortical storage
// can refer to each other without import cycles.
package ids

// NeuronId is a dense index into neuron storage.
type NeuronId uint32

// SynapseIndex is an index into synapse storage.
type SynapseIndex uint32

// CorticalAreaId is an opaque tag identifying a cortical area.
type CorticalAreaId uint32

// memoryBit marks a NeuronId as belonging to the memory-neuron partition
// rather than the regular neuron population. The exact bit layout is
// implementation-defined (see DESIGN.md Open Questions) and must not be
// relied on across process boundaries.
const memoryBit NeuronId = 1 << 31

// IsMemoryNeuronID reports whether id was allocated from the memory-neuron
// id partition.
func IsMemoryNeuronID(id NeuronId) bool {
	return id&memoryBit != 0
}

// IsRegularNeuronID reports whether id was allocated from the regular
// neuron id partition.
func IsRegularNeuronID(id NeuronId) bool {
	return id&memoryBit == 0
}

// MemoryNeuronID tags a plain index as a memory-neuron id.
func MemoryNeuronID(idx uint32) NeuronId {
	return NeuronId(idx) | memoryBit
}

// MemoryNeuronIndex strips the memory-partition tag, returning the
// underlying index within the memory-neuron array.
func MemoryNeuronIndex(id NeuronId) uint32 {
	return uint32(id &^ memoryBit)
}

// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compute

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feagi/feagi-core-sub006/ids"
	"github.com/feagi/feagi-core-sub006/synapse"
)

func buildSynapses(t *testing.T) *synapse.Store[ids.NeuronId] {
	s := synapse.New[ids.NeuronId](4)
	_, err := s.AddSynapse(synapse.Params[ids.NeuronId]{Source: 1, Target: 2, Weight: 255, PSP: 255, Type: synapse.Excitatory})
	require.NoError(t, err)
	return s
}

func TestCPUBackendEmptyFiredIsNoop(t *testing.T) {
	s := buildSynapses(t)
	backend := NewCPUBackend(2)
	require.NoError(t, backend.Initialize(2, func(ids.NeuronId) (ids.CorticalAreaId, bool) { return 1, true }, s))
	result, processed, err := backend.ProcessPropagation(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, processed)
	assert.Empty(t, result)
}

func TestCPUBackendProcessesFired(t *testing.T) {
	s := buildSynapses(t)
	backend := NewCPUBackend(1)
	require.NoError(t, backend.Initialize(2, func(ids.NeuronId) (ids.CorticalAreaId, bool) { return 1, true }, s))
	_, processed, err := backend.ProcessPropagation([]ids.NeuronId{1})
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
}

type stubDevice struct{}

func (stubDevice) Name() string           { return "stub" }
func (stubDevice) MaxBufferBytes() uint64 { return 1 << 30 }

func TestGPUBackendFallsBackToCPU(t *testing.T) {
	s := buildSynapses(t)
	backend := NewGPUBackend(stubDevice{}, 2)
	require.NoError(t, backend.Initialize(2, func(ids.NeuronId) (ids.CorticalAreaId, bool) { return 1, true }, s))
	_, processed, err := backend.ProcessPropagation([]ids.NeuronId{1})
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.True(t, backend.Available())
	assert.True(t, backend.SupportsSIMD())
}

func TestGPUBackendUnavailableStillSucceeds(t *testing.T) {
	s := buildSynapses(t)
	backend := NewGPUBackend(nil, 1)
	require.NoError(t, backend.Initialize(2, func(ids.NeuronId) (ids.CorticalAreaId, bool) { return 1, true }, s))
	_, _, err := backend.ProcessPropagation(nil)
	require.NoError(t, err)
	assert.False(t, backend.Available())
	assert.Equal(t, "gpu(unavailable)", backend.Name())
}

func TestSelectPolicy(t *testing.T) {
	s := buildSynapses(t)
	cpu := NewCPUBackend(1)
	require.NoError(t, cpu.Initialize(2, func(ids.NeuronId) (ids.CorticalAreaId, bool) { return 1, true }, s))
	gpu := NewGPUBackend(stubDevice{}, 1)
	require.NoError(t, gpu.Initialize(2, func(ids.NeuronId) (ids.CorticalAreaId, bool) { return 1, true }, s))

	assert.Equal(t, cpu, Select(ForceCPU, cpu, gpu, 1_000_000, 1_000_000))
	assert.Equal(t, gpu, Select(ForceGPU, cpu, gpu, 1, 1))
	assert.Equal(t, cpu, Select(Heuristic, cpu, gpu, 10, 10))
	assert.Equal(t, gpu, Select(Heuristic, cpu, gpu, 500_000, 0))
}

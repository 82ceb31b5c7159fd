// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package burst

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feagi/feagi-core-sub006/compute"
	"github.com/feagi/feagi-core-sub006/cortical"
	"github.com/feagi/feagi-core-sub006/dynamics"
	"github.com/feagi/feagi-core-sub006/ids"
	"github.com/feagi/feagi-core-sub006/ledger"
	"github.com/feagi/feagi-core-sub006/mapping"
	"github.com/feagi/feagi-core-sub006/neural"
	"github.com/feagi/feagi-core-sub006/neuron"
	"github.com/feagi/feagi-core-sub006/synapse"
)

const testArea ids.CorticalAreaId = 1

func chainParams(coord cortical.Coord) neuron.Params[neural.F32] {
	return neuron.Params[neural.F32]{
		Threshold:            1.0,
		ThresholdLimit:       0,
		LeakCoefficient:      0,
		RestingPotential:     0,
		RefractoryPeriod:     0,
		Excitability:         1.0,
		ConsecutiveFireLimit: 0,
		SnoozePeriod:         0,
		MPChargeAccumulation: true,
		CorticalArea:         testArea,
		Coordinate:           coord,
	}
}

func buildLoop(t *testing.T) (*Loop[neural.F32], ids.NeuronId, ids.NeuronId) {
	store := neuron.New[neural.F32](4)
	n1, err := store.AddNeuron(chainParams(cortical.Coord{0, 0, 0}))
	require.NoError(t, err)
	n2, err := store.AddNeuron(chainParams(cortical.Coord{1, 0, 0}))
	require.NoError(t, err)

	synapses := synapse.New[ids.NeuronId](4)
	_, err = synapses.AddSynapse(synapse.Params[ids.NeuronId]{Source: n1, Target: n2, Weight: 255, PSP: 255, Type: synapse.Excitatory})
	require.NoError(t, err)

	backend := compute.NewCPUBackend(1)
	areaOf := func(id ids.NeuronId) (ids.CorticalAreaId, bool) { return store.AreaOf(id) }
	require.NoError(t, backend.Initialize(store.Count(), areaOf, synapses))

	dyn := dynamics.New[neural.F32](neural.F32Contribution, dynamics.NewStdRand(1, 1))

	loop := New[neural.F32](Config[neural.F32]{
		Store:       store,
		Synapses:    synapses,
		Backend:     backend,
		Dynamics:    dyn,
		Ledger:      ledger.New(),
		FromF32:     func(f float32) neural.F32 { return neural.F32(f) },
		FrequencyHz: 1_000_000, // effectively unthrottled for the test
	})
	loop.RegisterArea(testArea)
	require.NoError(t, loop.ConfigureFireLedgerWindow(testArea, 8))
	return loop, n1, n2
}

func TestPowerInjectionCausesImmediateFire(t *testing.T) {
	loop, n1, _ := buildLoop(t)
	loop.SetPowerArea(testArea, 2.0, true)

	loop.RunStep()
	frames, err := loop.led.GetDenseWindowBitmaps(testArea, 1, 1)
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.True(t, frames[0].Bitmap.Contains(n1))
}

func TestSensoryInjectResolvesCoordinateAndFires(t *testing.T) {
	loop, n1, _ := buildLoop(t)
	err := loop.InjectSensoryByCoordinates(SensoryBatch{
		Area:   testArea,
		Points: []SensoryPoint{{X: 0, Y: 0, Z: 0, Potential: 2.0}},
	})
	require.NoError(t, err)

	loop.RunStep()
	frames, err := loop.led.GetDenseWindowBitmaps(testArea, 1, 1)
	require.NoError(t, err)
	assert.True(t, frames[0].Bitmap.Contains(n1))
}

func TestSensoryInjectUnresolvedCoordinateIsCountedAndDropped(t *testing.T) {
	loop, _, _ := buildLoop(t)
	err := loop.InjectSensoryByCoordinates(SensoryBatch{
		Area:   testArea,
		Points: []SensoryPoint{{X: 99, Y: 99, Z: 99, Potential: 2.0}},
	})
	require.NoError(t, err)

	loop.RunStep()
	assert.EqualValues(t, 1, loop.GetStatus().DroppedInject)
}

func TestChainFiresAcrossTwoTicks(t *testing.T) {
	loop, n1, n2 := buildLoop(t)
	require.NoError(t, loop.InjectSensoryByCoordinates(SensoryBatch{
		Area:   testArea,
		Points: []SensoryPoint{{X: 0, Y: 0, Z: 0, Potential: 2.0}},
	}))

	loop.RunStep()
	frames, err := loop.led.GetDenseWindowBitmaps(testArea, 1, 1)
	require.NoError(t, err)
	assert.True(t, frames[0].Bitmap.Contains(n1))
	assert.False(t, frames[0].Bitmap.Contains(n2))

	loop.RunStep()
	frames, err = loop.led.GetDenseWindowBitmaps(testArea, 2, 1)
	require.NoError(t, err)
	assert.True(t, frames[0].Bitmap.Contains(n2))
}

func TestControlStartStopGatesRun(t *testing.T) {
	loop, _, _ := buildLoop(t)
	loop.SetPowerArea(testArea, 2.0, true)

	done := make(chan struct{})
	loop.Start()
	go func() {
		loop.Run()
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	loop.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop after Stop()")
	}
	assert.Equal(t, Stopped, loop.State())
	assert.True(t, loop.GetBurstCount() > 0)
}

func TestStepOnlyAdvancesRequestedCount(t *testing.T) {
	loop, _, _ := buildLoop(t)
	loop.SetPowerArea(testArea, 2.0, true)

	loop.Step(2)
	done := make(chan struct{})
	go func() {
		loop.Run()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Run should not exit on its own after Stepping exhausts; it should pause")
	case <-time.After(20 * time.Millisecond):
	}
	assert.Equal(t, Paused, loop.State())
	assert.EqualValues(t, 2, loop.GetBurstCount())

	loop.Stop()
	<-done
}

func TestSetFrequencyRejectsNonPositive(t *testing.T) {
	loop, _, _ := buildLoop(t)
	assert.ErrorIs(t, loop.SetFrequency(0), ErrInvalidFrequency)
	assert.ErrorIs(t, loop.SetFrequency(-1), ErrInvalidFrequency)
	assert.NoError(t, loop.SetFrequency(30))
}

func TestInjectQueueFullReturnsError(t *testing.T) {
	loop, _, _ := buildLoop(t)
	q := newInjectQueue(1)
	loop.inject = q
	require.NoError(t, loop.InjectSensoryByCoordinates(SensoryBatch{Area: testArea}))
	assert.ErrorIs(t, loop.InjectSensoryByCoordinates(SensoryBatch{Area: testArea}), ErrInjectQueueFull)
}

func TestMappingUpdateAndRegenerateWiresSynapses(t *testing.T) {
	loop, _, _ := buildLoop(t)
	const otherArea ids.CorticalAreaId = 2
	_, err := loop.store.AddNeuron(neuron.Params[neural.F32]{
		Threshold:    1.0,
		Excitability: 1.0,
		CorticalArea: otherArea,
		Coordinate:   cortical.Coord{0, 0, 0},
	})
	require.NoError(t, err)

	loop.UpdateCorticalMapping(testArea, otherArea, []mapping.Rule{{Weight: 200, PSP: 200, Type: synapse.Excitatory}})

	srcDims := cortical.Dims{2, 1, 1}
	dstDims := cortical.Dims{1, 1, 1}
	added, err := loop.RegenerateSynapsesForMapping(testArea, otherArea, srcDims, dstDims)
	require.NoError(t, err)
	assert.Equal(t, 2, added, "both testArea neurons collapse onto the single otherArea neuron")

	added, err = loop.RegenerateSynapsesForMapping(testArea, otherArea, srcDims, dstDims)
	require.NoError(t, err)
	assert.Equal(t, 0, added, "repeat regeneration with an unchanged rule set must be idempotent")
}

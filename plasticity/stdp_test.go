// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package plasticity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/feagi/feagi-core-sub006/ids"
)

func TestComputeTimingFactorsPotentiation(t *testing.T) {
	cfg := DefaultSTDPConfig()
	sources := []ids.NeuronId{1, 2, 3}
	targets := []ids.NeuronId{10, 11, 12}
	sourceHistory := []FireEvent{{Timestep: 5, ID: 1}, {Timestep: 6, ID: 2}, {Timestep: 7, ID: 3}}
	targetHistory := []FireEvent{{Timestep: 6, ID: 10}, {Timestep: 7, ID: 11}, {Timestep: 8, ID: 12}}

	factors := ComputeTimingFactors(sources, targets, sourceHistory, targetHistory, cfg)
	assert.Len(t, factors, 3)
	for _, f := range factors {
		assert.Greater(t, f, 0.0)
	}
}

func TestComputeTimingFactorsDepression(t *testing.T) {
	cfg := DefaultSTDPConfig()
	factors := ComputeTimingFactors(
		[]ids.NeuronId{1},
		[]ids.NeuronId{10},
		[]FireEvent{{Timestep: 8, ID: 1}},
		[]FireEvent{{Timestep: 5, ID: 10}},
		cfg,
	)
	assert.Less(t, factors[0], 0.0)
}

func TestComputeTimingFactorsOutsideWindowIsZero(t *testing.T) {
	cfg := STDPConfig{WindowTicks: 5, Amplitude: 1.0}
	factors := ComputeTimingFactors(
		[]ids.NeuronId{1},
		[]ids.NeuronId{10},
		[]FireEvent{{Timestep: 1, ID: 1}},
		[]FireEvent{{Timestep: 100, ID: 10}},
		cfg,
	)
	assert.Equal(t, 0.0, factors[0])
}

func TestComputeTimingFactorsMissingFireIsZero(t *testing.T) {
	cfg := DefaultSTDPConfig()
	factors := ComputeTimingFactors(
		[]ids.NeuronId{1},
		[]ids.NeuronId{10},
		nil,
		[]FireEvent{{Timestep: 5, ID: 10}},
		cfg,
	)
	assert.Equal(t, 0.0, factors[0])
}

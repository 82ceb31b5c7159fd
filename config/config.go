// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config holds the burst engine's startup configuration:
// tick rate, compute backend policy and worker count, default Fire
// Ledger window, and sampler defaults. It loads from an optional TOML
// file through cogentcore.org/core/base/iox/tomlx, without econfig's
// SetFromDefaultsStruct reflection machinery, which depends on
// github.com/goki/ki/kit -- a package this module has otherwise
// dropped in favor of cogentcore.org/core's generated-enum convention.
package config

import (
	"fmt"
	"os"

	"cogentcore.org/core/base/iox/tomlx"

	"github.com/feagi/feagi-core-sub006/burst"
	"github.com/feagi/feagi-core-sub006/compute"
)

// Config is the full set of startup knobs for a burstcored instance.
// The runnable defaults come from Defaults (which Load starts from), not
// from the zero value: a zero-value Config has a zero TickHz and zero
// queue capacities.
type Config struct {
	// TickHz is the target burst frequency in Hz (spec §4.8 phase 8).
	TickHz float64 `toml:"TickHz"`

	// Workers is the CPU backend's goroutine pool size; 0 means
	// runtime.NumCPU().
	Workers int `toml:"Workers"`

	// BackendPolicy selects CPU/GPU/Heuristic dispatch (C11).
	BackendPolicy compute.Policy `toml:"BackendPolicy"`

	// DefaultLedgerWindow is the Fire Ledger window size burstcored
	// configures for every cortical area of the connectome at startup.
	DefaultLedgerWindow int `toml:"DefaultLedgerWindow"`

	// InjectQueueCapacity bounds the sensory-inject queue (spec §5).
	InjectQueueCapacity int `toml:"InjectQueueCapacity"`

	// SampleQueueCapacity bounds the sampler's publish queue.
	SampleQueueCapacity int `toml:"SampleQueueCapacity"`

	// SampleOverflowPolicy selects drop-oldest vs. drop-newest
	// behavior when the sampler's publish queue is full.
	SampleOverflowPolicy burst.OverflowPolicy `toml:"SampleOverflowPolicy"`

	// RandSeed seeds the dynamics engine's probabilistic-firing
	// generator as given (0 is an ordinary seed); the default is 1, so a
	// run is reproducible unless the operator picks a different seed.
	RandSeed int64 `toml:"RandSeed"`

	// EnableSTDP turns on per-tick synaptic weight adjustment (spec
	// §4.10). Off by default: the weight-update pass has a real cost
	// and most deployments run a fixed, already-trained connectome.
	EnableSTDP bool `toml:"EnableSTDP"`

	// STDPLearningRate scales the timing factor before it's added to a
	// synapse's weight; only consulted when EnableSTDP is set.
	STDPLearningRate float64 `toml:"STDPLearningRate"`

	// EnableMemoryFormation turns on temporal pattern detection and
	// memory-neuron lifecycle management (spec §4.10). Off by default
	// for the same reason as EnableSTDP.
	EnableMemoryFormation bool `toml:"EnableMemoryFormation"`

	// MemoryNeuronCapacity bounds the memory-neuron population; only
	// consulted when EnableMemoryFormation is set.
	MemoryNeuronCapacity int `toml:"MemoryNeuronCapacity"`
}

// Defaults returns the out-of-the-box configuration.
func Defaults() Config {
	return Config{
		TickHz:                60,
		Workers:               0,
		BackendPolicy:         compute.Heuristic,
		DefaultLedgerWindow:   8,
		InjectQueueCapacity:   256,
		SampleQueueCapacity:   64,
		SampleOverflowPolicy:  burst.DropOldest,
		RandSeed:              1,
		EnableSTDP:            false,
		STDPLearningRate:      8,
		EnableMemoryFormation: false,
		MemoryNeuronCapacity:  1024,
	}
}

// Load starts from Defaults and overlays file, if it exists. A
// missing file is not an error -- the caller gets the defaults back
// untouched, matching the teacher's "config file is optional" stance
// in econfig.Config's doc comment.
func Load(file string) (Config, error) {
	cfg := Defaults()
	if file == "" {
		return cfg, nil
	}
	if _, err := os.Stat(file); os.IsNotExist(err) {
		return cfg, nil
	}
	if err := tomlx.Open(&cfg, file); err != nil {
		return cfg, fmt.Errorf("config: reading %s: %w", file, err)
	}
	return cfg, nil
}

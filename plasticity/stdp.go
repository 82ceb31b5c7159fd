// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package plasticity implements C10: STDP timing factors, temporal
// pattern detection with a bounded cache, and the memory-neuron
// lifecycle.
package plasticity

import "github.com/feagi/feagi-core-sub006/ids"

// STDPConfig parameterizes the timing-factor curve.
type STDPConfig struct {
	// WindowTicks bounds how far apart two fire events can be and
	// still contribute a nonzero factor.
	WindowTicks uint64
	// Amplitude scales the factor magnitude at Δt=0 (exclusive --
	// exactly-simultaneous fires produce a zero factor).
	Amplitude float64
}

// DefaultSTDPConfig matches the reference curve's defaults.
func DefaultSTDPConfig() STDPConfig {
	return STDPConfig{WindowTicks: 20, Amplitude: 1.0}
}

// FireEvent is one (timestep, neuron) firing record, as read back from
// the Fire Ledger's bitmaps.
type FireEvent struct {
	Timestep uint64
	ID       ids.NeuronId
}

// firstFire returns the earliest timestep id fired at, within history.
func firstFire(history []FireEvent, id ids.NeuronId) (uint64, bool) {
	found := false
	var best uint64
	for _, e := range history {
		if e.ID != id {
			continue
		}
		if !found || e.Timestep < best {
			best = e.Timestep
			found = true
		}
	}
	return best, found
}

// ComputeTimingFactors returns, for each (source, target) pair, a
// factor positive when the source fired strictly before the target
// within the window, negative when after, and zero outside the window
// or when either side never fired. The curve is monotonically
// decreasing in |Δt| and linear, vanishing at WindowTicks.
func ComputeTimingFactors(sources, targets []ids.NeuronId, sourceHistory, targetHistory []FireEvent, cfg STDPConfig) []float64 {
	out := make([]float64, len(sources))
	for i := range sources {
		if i >= len(targets) {
			break
		}
		srcT, srcOK := firstFire(sourceHistory, sources[i])
		dstT, dstOK := firstFire(targetHistory, targets[i])
		if !srcOK || !dstOK {
			continue
		}
		out[i] = timingFactor(srcT, dstT, cfg)
	}
	return out
}

func timingFactor(srcTimestep, dstTimestep uint64, cfg STDPConfig) float64 {
	var delta int64
	var sign float64
	if dstTimestep >= srcTimestep {
		delta = int64(dstTimestep - srcTimestep)
		sign = 1 // pre-before-post: potentiation
	} else {
		delta = int64(srcTimestep - dstTimestep)
		sign = -1 // post-before-pre: depression
	}
	if delta == 0 || uint64(delta) >= cfg.WindowTicks {
		return 0
	}
	magnitude := cfg.Amplitude * (1 - float64(delta)/float64(cfg.WindowTicks))
	return sign * magnitude
}

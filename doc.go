// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package emergent is the root of a real-time spiking-brain burst engine.
This top level has no functional code -- everything is organized into
the following sub-packages:

* neuron and synapse hold the connectome's two flat, capacity-bounded
stores (membrane potential, refractory state, weight, PSP, type) and
their coordinate/area/source indices.

* cortical and projector define cortical-area coordinate spaces and the
coordinate-mapping math (identity, scale, transpose) used to wire one
area's neurons to another's.

* mapping lets a caller redefine an area pair's connectivity rule set
at runtime and regenerate the synapses it implies.

* dynamics and propagation run the per-tick LIF/stochastic-firing
update and the fire-then-propagate edge walk; compute selects and
drives a CPU or GPU backend for the propagation phase.

* firequeue, ledger, and ringidx hold, respectively, one tick's Fire
Candidate List, the rolling per-area dense-window fire history, and the
ring-buffer index the ledger is built from.

* plasticity implements STDP timing factors, temporal pattern
detection, and memory-neuron lifecycle management; burst wires it in
as an opt-in per-tick pass alongside the rest of the tick loop
(inject, sample, archive).

* snapshot serializes and restores a full connectome -- stores, ledger
position, area name table -- to a single versioned, checksummed file.

* config and cmd/burstcored assemble the above into a standalone,
signal-driven runnable.
*/
package emergent

// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package burst implements the burst loop (C8): the single
// single-threaded owner of neuron/synapse storage and the Fire Ledger,
// sequencing power injection, sensory injection, propagation, dynamics,
// refractory decay, ledger archival, and sampler fanout into one
// strictly-ordered tick, with a start/stop/pause/resume/step control
// plane adapted from the teacher's stepper.Stepper.
package burst

// RunState is the control-plane state of a Loop.
type RunState uint8

const ( //enums:enum
	// Stopped means the loop is not running; Run returns on seeing it.
	// Start moves it back to Running; the burst count, Fire Ledger and
	// previous Fire Candidate List are kept, and Run must be called again.
	Stopped RunState = iota
	// Paused means the loop is holding at the top of the next tick,
	// waiting for Resume, Step, or Stop.
	Paused
	// Stepping means the loop runs a bounded number of ticks (set by
	// Step) then transitions itself to Paused.
	Stepping
	// Running means the loop ticks continuously until Pause or Stop.
	Running
)

func (s RunState) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Paused:
		return "paused"
	case Stepping:
		return "stepping"
	case Running:
		return "running"
	default:
		return "unknown"
	}
}

// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package burst

import "sync"

// Control is the start/stop/pause/resume/step state machine the loop
// consults at the top of every tick, adapted from the teacher's
// stepper.Stepper. Unlike the original, Gate is called by exactly one
// goroutine (the loop itself), so the teacher's cross-goroutine
// watchdog-timer wrapper around sync.Cond.Wait isn't needed here:
// every transition (Stop/Pause/Resume/Step) always reaches the loop via
// Broadcast from the single control-plane caller, with no GUI-driven
// multiplicity of notifiers to guard against.
type Control struct {
	mu             sync.Mutex
	cond           *sync.Cond
	state          RunState
	stepsRemaining int
}

// NewControl returns a Control in the Stopped state.
func NewControl() *Control {
	c := &Control{state: Stopped}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// State returns the current run state.
func (c *Control) State() RunState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Control) enter(s RunState) {
	c.mu.Lock()
	c.state = s
	c.cond.Broadcast()
	c.mu.Unlock()
}

// Start transitions to Running from Stopped (or any other state).
func (c *Control) Start() { c.enter(Running) }

// Stop signals the loop to exit after the current tick completes.
func (c *Control) Stop() { c.enter(Stopped) }

// Pause holds the loop at the top of the next tick.
func (c *Control) Pause() { c.enter(Paused) }

// Resume continues a paused loop without a step bound.
func (c *Control) Resume() { c.enter(Running) }

// Step runs exactly n further ticks then returns to Paused. Step is
// only meaningful when the loop is not already Running continuously;
// callers are expected to check Status first.
func (c *Control) Step(n int) {
	c.mu.Lock()
	if n < 1 {
		n = 1
	}
	c.stepsRemaining = n
	c.state = Stepping
	c.cond.Broadcast()
	c.mu.Unlock()
}

// Gate blocks the calling goroutine until the loop may proceed with the
// next tick, returning false when the loop should exit (Stopped).
func (c *Control) Gate() (proceed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for {
		switch c.state {
		case Stopped:
			return false
		case Running:
			return true
		case Stepping:
			if c.stepsRemaining <= 0 {
				c.state = Paused
				continue
			}
			c.stepsRemaining--
			return true
		case Paused:
			c.cond.Wait()
		}
	}
}

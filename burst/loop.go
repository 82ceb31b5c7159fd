// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package burst

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/feagi/feagi-core-sub006/compute"
	"github.com/feagi/feagi-core-sub006/cortical"
	"github.com/feagi/feagi-core-sub006/dynamics"
	"github.com/feagi/feagi-core-sub006/firequeue"
	"github.com/feagi/feagi-core-sub006/ids"
	"github.com/feagi/feagi-core-sub006/ledger"
	"github.com/feagi/feagi-core-sub006/mapping"
	"github.com/feagi/feagi-core-sub006/neural"
	"github.com/feagi/feagi-core-sub006/neuron"
	"github.com/feagi/feagi-core-sub006/synapse"
)

// ErrInvalidFrequency is returned by SetFrequency for a non-positive
// target rate.
var ErrInvalidFrequency = errors.New("burst: frequency must be > 0")

// Status is a read-only snapshot of the loop's control-plane state,
// returned by get_status (spec §6).
type Status struct {
	State          RunState
	BurstCount     uint64
	CurrentTick    uint64
	FrequencyHz    float64
	Overruns       uint64
	DroppedInject  uint64
	DroppedSamples uint64
}

// Loop is the single-threaded owner of neuron/synapse storage and the
// Fire Ledger (C8): it sequences power injection, sensory injection,
// propagation, dynamics, refractory decay, ledger archival, and
// sampler fanout into one strictly-ordered tick, with a control plane
// adapted from the teacher's stepper.Stepper.
type Loop[T neural.Value[T]] struct {
	store    *neuron.Store[T]
	synapses *synapse.Store[ids.NeuronId]
	backend  compute.Backend
	dyn      *dynamics.Engine[T]
	led      *ledger.Ledger
	fromF32  func(float32) T

	// stateLock blocks external readers during the propagation/dynamics
	// phases (spec §5: "readers are blocked during phases 3-6"); the
	// loop holds the write side only across those phases, never across
	// injection, archival, or the rate-regulation sleep.
	stateLock sync.RWMutex

	regMu      sync.Mutex
	areas      map[ids.CorticalAreaId]bool
	powerAreas map[ids.CorticalAreaId]T

	previousFCL *firequeue.Queue

	inject  *injectQueue
	control *Control
	sampler *Sampler
	mapper  *mapping.Registry
	stdp    *STDPConfig
	memory  *memoryFormation

	hzMu sync.RWMutex
	hz   float64

	burstCount        uint64
	overranCount      uint64
	unresolvedDropped uint64
}

// Config bundles the construction-time dependencies a Loop needs.
type Config[T neural.Value[T]] struct {
	Store          *neuron.Store[T]
	Synapses       *synapse.Store[ids.NeuronId]
	Backend        compute.Backend
	Dynamics       *dynamics.Engine[T]
	Ledger         *ledger.Ledger
	FromF32        func(float32) T
	FrequencyHz    float64
	InjectCapacity int
	SampleQueueCap int
	OverflowPolicy OverflowPolicy
}

// New builds a Loop in the Stopped state.
func New[T neural.Value[T]](cfg Config[T]) *Loop[T] {
	if cfg.FrequencyHz <= 0 {
		cfg.FrequencyHz = 60
	}
	if cfg.InjectCapacity <= 0 {
		cfg.InjectCapacity = 256
	}
	if cfg.SampleQueueCap <= 0 {
		cfg.SampleQueueCap = 64
	}
	return &Loop[T]{
		store:       cfg.Store,
		synapses:    cfg.Synapses,
		backend:     cfg.Backend,
		dyn:         cfg.Dynamics,
		led:         cfg.Ledger,
		fromF32:     cfg.FromF32,
		areas:       make(map[ids.CorticalAreaId]bool),
		powerAreas:  make(map[ids.CorticalAreaId]T),
		previousFCL: firequeue.New(),
		inject:      newInjectQueue(cfg.InjectCapacity),
		control:     NewControl(),
		sampler:     NewSampler(cfg.FrequencyHz, cfg.SampleQueueCap, cfg.OverflowPolicy),
		mapper:      mapping.NewRegistry(),
		hz:          cfg.FrequencyHz,
	}
}

// Control-plane passthroughs (spec §6).

func (l *Loop[T]) Start()           { l.control.Start() }
func (l *Loop[T]) Stop()            { l.control.Stop() }
func (l *Loop[T]) Pause()           { l.control.Pause() }
func (l *Loop[T]) Resume()          { l.control.Resume() }
func (l *Loop[T]) Step(n int)       { l.control.Step(n) }
func (l *Loop[T]) State() RunState  { return l.control.State() }

// SetFrequency changes the target tick rate; hz must be > 0.
func (l *Loop[T]) SetFrequency(hz float64) error {
	if hz <= 0 {
		return ErrInvalidFrequency
	}
	l.hzMu.Lock()
	l.hz = hz
	l.hzMu.Unlock()
	return nil
}

func (l *Loop[T]) frequency() float64 {
	l.hzMu.RLock()
	defer l.hzMu.RUnlock()
	return l.hz
}

// GetStatus returns a read-only status snapshot.
func (l *Loop[T]) GetStatus() Status {
	return Status{
		State:          l.control.State(),
		BurstCount:     l.burstCount,
		CurrentTick:    l.led.CurrentTimestep(),
		FrequencyHz:    l.frequency(),
		Overruns:       l.overranCount,
		DroppedInject:  l.unresolvedDropped,
		DroppedSamples: l.sampler.Dropped(),
	}
}

// GetBurstCount returns the number of ticks completed so far.
func (l *Loop[T]) GetBurstCount() uint64 { return l.burstCount }

// RegisterArea adds area to the set the loop knows about for the
// purposes of step-5 refractory decay on untouched areas. Call this
// once per area after load_connectome or a structural edit.
func (l *Loop[T]) RegisterArea(area ids.CorticalAreaId) {
	l.regMu.Lock()
	defer l.regMu.Unlock()
	l.areas[area] = true
}

// SetPowerArea configures area as a "power" area, injecting potential
// into every neuron it contains on every tick (spec §4.8 phase 1).
// Passing on=false removes the area from the power set; potential is
// ignored in that case.
func (l *Loop[T]) SetPowerArea(area ids.CorticalAreaId, potential T, on bool) {
	l.regMu.Lock()
	defer l.regMu.Unlock()
	if on {
		l.powerAreas[area] = potential
		l.areas[area] = true
	} else {
		delete(l.powerAreas, area)
	}
}

// InjectSensoryByCoordinates enqueues a batch for the next tick,
// resolving ahead of time is NOT performed here -- resolution happens
// during phase 2 so coordinate->id lookups always run against the
// storage state at the moment of consumption. Returns an error only if
// the bounded inject queue is already full; the loop never blocks for
// a producer.
func (l *Loop[T]) InjectSensoryByCoordinates(batch SensoryBatch) error {
	return l.inject.enqueue(batch)
}

// ConfigureFireLedgerWindow proxies to the ledger's TrackArea.
func (l *Loop[T]) ConfigureFireLedgerWindow(area ids.CorticalAreaId, windowSize int) error {
	l.regMu.Lock()
	l.areas[area] = true
	l.regMu.Unlock()
	return l.led.TrackArea(area, windowSize)
}

// GetFireLedgerConfigs proxies to the ledger's GetTrackedWindows.
func (l *Loop[T]) GetFireLedgerConfigs() []ledger.TrackedWindow {
	return l.led.GetTrackedWindows()
}

// UpdateCorticalMapping replaces the projection rule set used to wire
// src to dst; it does not itself add any synapse (spec §6 -- a
// regenerate_synapses_for_mapping call materializes the change).
func (l *Loop[T]) UpdateCorticalMapping(src, dst ids.CorticalAreaId, rules []mapping.Rule) {
	l.mapper.UpdateCorticalMapping(src, dst, rules)
}

// RegenerateSynapsesForMapping materializes the currently configured
// rules for (src, dst) into concrete synapses, under the same
// propagation/dynamics write lock the tick loop holds so a structural
// edit never races a mid-tick read of the synapse population. Returns
// the number of synapses actually added; a repeat call with an
// unchanged rule set returns 0.
func (l *Loop[T]) RegenerateSynapsesForMapping(src, dst ids.CorticalAreaId, srcDims, dstDims cortical.Dims) (int, error) {
	l.stateLock.Lock()
	defer l.stateLock.Unlock()
	return mapping.RegenerateSynapsesForMapping[T](l.mapper, src, dst, srcDims, dstDims, l.store, l.synapses)
}

// Sampler proxies (spec §6 sampler configuration).
func (l *Loop[T]) SetFCLSamplerConfig(frequencyHz *float64, consumer Consumer) {
	l.sampler.SetFCLSamplerConfig(frequencyHz, consumer)
}

func (l *Loop[T]) SetAreaFCLSampleRate(area ids.CorticalAreaId, hz float64, consumer AreaConsumer) error {
	return l.sampler.SetAreaFCLSampleRate(area, hz, consumer)
}

// ReadLocked runs fn while holding the read lock the tick phases
// 3-6 contend against, giving external callers a consistent view of
// neuron/synapse storage without racing a mid-phase mutation.
func (l *Loop[T]) ReadLocked(fn func()) {
	l.stateLock.RLock()
	defer l.stateLock.RUnlock()
	fn()
}

// Run ticks continuously until Control transitions to Stopped,
// blocking at Gate() when Paused. Intended to run on a dedicated
// goroutine; Run returns once the loop has stopped.
func (l *Loop[T]) Run() {
	for l.control.Gate() {
		l.tick()
	}
}

// RunStep runs exactly one tick unconditionally, ignoring the control
// plane. step() (spec §6) is only valid when the continuous loop is
// not running; callers are responsible for checking GetStatus first.
func (l *Loop[T]) RunStep() {
	l.tick()
}

// tick executes one full phase-ordered burst (spec §4.8).
func (l *Loop[T]) tick() {
	start := time.Now()

	// Phase 1: power injection.
	injected := make(map[ids.NeuronId]T)
	l.regMu.Lock()
	powerAreas := make(map[ids.CorticalAreaId]T, len(l.powerAreas))
	for area, pot := range l.powerAreas {
		powerAreas[area] = pot
	}
	l.regMu.Unlock()
	for area, pot := range powerAreas {
		for _, id := range l.store.EnumerateByArea(area) {
			injected[id] = pot
		}
	}

	// Phase 2: external sensory inject.
	for _, batch := range l.inject.drain() {
		for _, pt := range batch.Points {
			id, ok := l.store.GetNeuronAtCoordinate(batch.Area, cortical.Coord{pt.X, pt.Y, pt.Z})
			if !ok {
				l.unresolvedDropped++
				slog.Debug("burst: dropping unresolved sensory inject coordinate", "area", batch.Area, "x", pt.X, "y", pt.Y, "z", pt.Z)
				continue
			}
			v := l.fromF32(pt.Potential)
			if existing, has := injected[id]; has {
				injected[id] = existing.SaturatingAdd(v)
			} else {
				injected[id] = v
			}
		}
	}

	l.stateLock.Lock()

	// Phase 3: propagation, using the previous tick's FCL.
	fired := make([]ids.NeuronId, l.previousFCL.Len())
	for i, f := range l.previousFCL.All() {
		fired[i] = f.NeuronID
	}
	result, _, err := l.backend.ProcessPropagation(fired)
	if err != nil {
		slog.Warn("burst: propagation backend error, treating as empty result", "err", err)
		result = nil
	}

	// Phase 4: dynamics, producing the new FCL.
	touched := make(map[ids.CorticalAreaId]bool, len(result))
	for area := range result {
		touched[area] = true
	}
	for id := range injected {
		if area, ok := l.store.AreaOf(id); ok {
			touched[area] = true
		}
	}
	members := make(map[ids.CorticalAreaId][]ids.NeuronId, len(touched))
	for area := range touched {
		members[area] = l.store.EnumerateByArea(area)
	}
	newFCL := l.dyn.Tick(l.store, result, injected, members)

	// Phase 5: refractory countdown decrement for untouched areas.
	l.regMu.Lock()
	allAreas := make(map[ids.CorticalAreaId][]ids.NeuronId, len(l.areas))
	for area := range l.areas {
		allAreas[area] = l.store.EnumerateByArea(area)
	}
	l.regMu.Unlock()
	dynamics.DecrementRefractory(l.store, touched, allAreas)

	l.stateLock.Unlock()

	// Phase 6: ledger archival at current_timestep + 1.
	nextTimestep := l.led.CurrentTimestep() + 1
	if err := l.led.ArchiveBurst(nextTimestep, newFCL); err != nil {
		slog.Warn("burst: ledger archival failed", "err", err, "timestep", nextTimestep)
	} else {
		l.regMu.Lock()
		stdp, mem := l.stdp, l.memory
		l.regMu.Unlock()
		if stdp != nil {
			l.applySTDP(stdp, nextTimestep, newFCL)
		}
		if mem != nil {
			mem.run(l.led, nextTimestep)
		}
	}

	// Phase 7: counter advance and sampler fanout.
	l.burstCount++
	l.sampler.Publish(l.burstCount, nextTimestep, newFCL)

	l.previousFCL = newFCL

	// Phase 8: rate regulation.
	l.regulate(start)
}

func (l *Loop[T]) regulate(tickStart time.Time) {
	hz := l.frequency()
	if hz <= 0 {
		return
	}
	budget := time.Duration(float64(time.Second) / hz)
	elapsed := time.Since(tickStart)
	if elapsed >= budget {
		l.overranCount++
		slog.Warn("burst: tick overran frequency budget", "budget", budget, "elapsed", elapsed)
		return
	}
	time.Sleep(budget - elapsed)
}

// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package burst

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/feagi/feagi-core-sub006/firequeue"
	"github.com/feagi/feagi-core-sub006/ids"
)

// ErrInvalidSampleRate is returned by SetAreaFCLSampleRate for a rate
// outside (0, 1000] Hz.
var ErrInvalidSampleRate = errors.New("burst: sample rate must be in (0, 1000] Hz")

// OverflowPolicy selects what a Sampler does when its publish queue is
// full.
type OverflowPolicy uint8

const ( //enums:enum
	DropOldest OverflowPolicy = iota
	DropNewest
)

// Snapshot is one published FCL sample: the grouped (id, area,
// potential) form, read-only and safe to retain past the tick.
type Snapshot struct {
	BurstCount uint64
	Timestep   uint64
	Fires      []firequeue.GroupedPotential
}

// AreaSample is one published per-area parallel-array sample.
type AreaSample struct {
	BurstCount uint64
	Timestep   uint64
	Area       ids.CorticalAreaId
	Arrays     firequeue.ParallelArrays
}

// Consumer receives published global snapshots.
type Consumer func(Snapshot)

// AreaConsumer receives published per-area samples.
type AreaConsumer func(AreaSample)

// Sampler implements the non-blocking FCL snapshot fanout named in
// spec §4.8 step 7 and §6's outbound sampler configuration: a global
// sample rate (ticks between global snapshots), independent per-area
// sample rates, and a bounded publish queue whose overflow policy is
// fixed at construction. Publish never blocks the loop -- a full queue
// either drops the oldest entry to make room or drops the new one,
// incrementing a backpressure counter either way.
type Sampler struct {
	loopHz float64

	mu          sync.Mutex
	globalHz    float64 // 0 disables global sampling
	lastGlobal  uint64
	areaHz      map[ids.CorticalAreaId]float64
	lastArea    map[ids.CorticalAreaId]uint64
	consumer    Consumer
	areaConsume AreaConsumer

	queue     chan Snapshot
	areaQueue chan AreaSample
	policy    OverflowPolicy
	dropped   uint64

	closeOnce sync.Once
	done      chan struct{}
}

// NewSampler builds a Sampler ticking alongside a loop running at
// loopHz, with the given publish-queue capacity and overflow policy.
func NewSampler(loopHz float64, queueCapacity int, policy OverflowPolicy) *Sampler {
	if queueCapacity < 1 {
		queueCapacity = 1
	}
	s := &Sampler{
		loopHz:    loopHz,
		areaHz:    make(map[ids.CorticalAreaId]float64),
		lastArea:  make(map[ids.CorticalAreaId]uint64),
		queue:     make(chan Snapshot, queueCapacity),
		areaQueue: make(chan AreaSample, queueCapacity),
		policy:    policy,
		done:      make(chan struct{}),
	}
	go s.drainGlobal()
	go s.drainArea()
	return s
}

func (s *Sampler) drainGlobal() {
	for {
		select {
		case snap := <-s.queue:
			s.mu.Lock()
			c := s.consumer
			s.mu.Unlock()
			if c != nil {
				c(snap)
			}
		case <-s.done:
			return
		}
	}
}

func (s *Sampler) drainArea() {
	for {
		select {
		case as := <-s.areaQueue:
			s.mu.Lock()
			c := s.areaConsume
			s.mu.Unlock()
			if c != nil {
				c(as)
			}
		case <-s.done:
			return
		}
	}
}

// Close stops the drain goroutines. Not required for correctness if
// the Sampler outlives the process, but useful in tests.
func (s *Sampler) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// SetFCLSamplerConfig sets the global sample frequency (nil leaves it
// unchanged; 0 disables global sampling) and registers the consumer
// callback invoked for each published global snapshot.
func (s *Sampler) SetFCLSamplerConfig(frequencyHz *float64, consumer Consumer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if frequencyHz != nil {
		s.globalHz = *frequencyHz
	}
	s.consumer = consumer
}

// SetAreaFCLSampleRate configures a per-area override sample rate in
// (0, 1000] Hz, and registers the area-sample consumer.
func (s *Sampler) SetAreaFCLSampleRate(area ids.CorticalAreaId, hz float64, consumer AreaConsumer) error {
	if hz <= 0 || hz > 1000 {
		return ErrInvalidSampleRate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.areaHz[area] = hz
	s.areaConsume = consumer
	return nil
}

// ticksPerSample converts a target Hz into an integer tick stride
// against the loop's own rate, clamped to at least 1 (never sample
// faster than the loop itself ticks).
func (s *Sampler) ticksPerSample(hz float64) uint64 {
	if hz <= 0 || s.loopHz <= 0 {
		return 1
	}
	n := uint64(s.loopHz / hz)
	if n < 1 {
		n = 1
	}
	return n
}

// Publish evaluates every configured rate against burstCount and
// enqueues any samples that are due. fq is the tick's new Fire
// Candidate List.
func (s *Sampler) Publish(burstCount, timestep uint64, fq *firequeue.Queue) {
	s.mu.Lock()
	globalHz := s.globalHz
	dueGlobal := globalHz > 0 && burstCount-s.lastGlobal >= s.ticksPerSample(globalHz)
	if dueGlobal {
		s.lastGlobal = burstCount
	}
	var dueAreas []ids.CorticalAreaId
	for area, hz := range s.areaHz {
		if burstCount-s.lastArea[area] >= s.ticksPerSample(hz) {
			dueAreas = append(dueAreas, area)
			s.lastArea[area] = burstCount
		}
	}
	s.mu.Unlock()

	if dueGlobal {
		s.pushGlobal(Snapshot{BurstCount: burstCount, Timestep: timestep, Fires: fq.GroupedSnapshot()})
	}
	for _, area := range dueAreas {
		s.pushArea(AreaSample{BurstCount: burstCount, Timestep: timestep, Area: area, Arrays: fq.SampleArea(area)})
	}
}

func (s *Sampler) pushGlobal(snap Snapshot) {
	select {
	case s.queue <- snap:
		return
	default:
	}
	switch s.policy {
	case DropOldest:
		select {
		case <-s.queue:
			atomic.AddUint64(&s.dropped, 1)
		default:
		}
		select {
		case s.queue <- snap:
		default:
			atomic.AddUint64(&s.dropped, 1)
		}
	default: // DropNewest
		atomic.AddUint64(&s.dropped, 1)
	}
}

func (s *Sampler) pushArea(as AreaSample) {
	select {
	case s.areaQueue <- as:
		return
	default:
	}
	switch s.policy {
	case DropOldest:
		select {
		case <-s.areaQueue:
			atomic.AddUint64(&s.dropped, 1)
		default:
		}
		select {
		case s.areaQueue <- as:
		default:
			atomic.AddUint64(&s.dropped, 1)
		}
	default:
		atomic.AddUint64(&s.dropped, 1)
	}
}

// Dropped returns the number of snapshots discarded due to backpressure.
func (s *Sampler) Dropped() uint64 { return atomic.LoadUint64(&s.dropped) }

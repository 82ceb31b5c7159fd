// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ledger implements the dense, burst-aligned Fire Ledger (C9):
// per-tracked-area firing history where every archived tick writes a
// frame, explicit empty frames included, so STDP and pattern-detection
// windows are never implicitly sparse.
package ledger

import (
	"fmt"
	"sort"

	"github.com/feagi/feagi-core-sub006/firequeue"
	"github.com/feagi/feagi-core-sub006/ids"
	"github.com/feagi/feagi-core-sub006/ringidx"
)

// Bitmap is a sorted set of neuron ids that fired within one area
// during one archived tick. No bitset/roaring library appears anywhere
// in the reference corpus, so this is a minimal sorted-slice
// implementation rather than a hand-rolled stand-in for a missing
// dependency.
type Bitmap struct {
	ids []ids.NeuronId
}

// NewBitmap builds a Bitmap from an unsorted id slice.
func NewBitmap(neurons []ids.NeuronId) Bitmap {
	cp := append([]ids.NeuronId(nil), neurons...)
	sort.Slice(cp, func(i, j int) bool { return cp[i] < cp[j] })
	return Bitmap{ids: cp}
}

// Len returns the number of set bits (fired neurons).
func (b Bitmap) Len() int { return len(b.ids) }

// Contains reports whether id fired in this frame.
func (b Bitmap) Contains(id ids.NeuronId) bool {
	i := sort.Search(len(b.ids), func(i int) bool { return b.ids[i] >= id })
	return i < len(b.ids) && b.ids[i] == id
}

// IDs returns the fired ids in ascending order. The returned slice
// aliases the Bitmap's backing array and must not be mutated.
func (b Bitmap) IDs() []ids.NeuronId { return b.ids }

// Frame is one archived tick's bitmap for one tracked area.
type Frame struct {
	Timestep uint64
	Bitmap   Bitmap
}

// Error enumerates the Fire Ledger's contract violations, mirroring
// the per-case error taxonomy rather than a single generic error.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string { return e.Message }

// ErrorKind tags the specific contract violation, so callers can
// branch without string matching.
type ErrorKind uint8

const ( //enums:enum
	InvalidWindowSize ErrorKind = iota
	InvalidDepth
	NonMonotonicTimestep
	AreaNotTracked
	EndTimestepInFuture
	DepthExceedsWindow
	InsufficientHistory
)

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// trackedAreaHistory is a fixed-capacity FIFO of frames, adapted from
// the teacher's ringidx.Idx so overflow never requires copying more
// than the ring index bookkeeping itself.
type trackedAreaHistory struct {
	windowSize int
	timesteps  []uint64
	bitmaps    []Bitmap
	ring       ringidx.Idx
}

func newTrackedAreaHistory(windowSize int) *trackedAreaHistory {
	return &trackedAreaHistory{
		windowSize: windowSize,
		timesteps:  make([]uint64, windowSize),
		bitmaps:    make([]Bitmap, windowSize),
		ring:       ringidx.Idx{Max: windowSize},
	}
}

func (h *trackedAreaHistory) resizeWindow(newSize int) {
	// Drop the oldest frames first if shrinking, matching the
	// original's pop_front-until-fits behavior.
	if newSize < h.ring.Len {
		h.ring.Shift(h.ring.Len - newSize)
	}
	nt := make([]uint64, newSize)
	nb := make([]Bitmap, newSize)
	for i := 0; i < h.ring.Len; i++ {
		idx := h.ring.Idx(i)
		nt[i] = h.timesteps[idx]
		nb[i] = h.bitmaps[idx]
	}
	h.windowSize = newSize
	h.timesteps = nt
	h.bitmaps = nb
	h.ring = ringidx.Idx{Max: newSize, Len: h.ring.Len}
}

func (h *trackedAreaHistory) pushFrame(timestep uint64, bm Bitmap) {
	if h.ring.Len < h.ring.Max {
		h.timesteps[h.ring.Idx(h.ring.Len)] = timestep
		h.bitmaps[h.ring.Idx(h.ring.Len)] = bm
		h.ring.Add(1)
		return
	}
	// Full: Add(1) shifts StIdx forward by one, freeing the oldest slot.
	h.ring.Add(1)
	last := h.ring.LastIdx()
	h.timesteps[last] = timestep
	h.bitmaps[last] = bm
}

func (h *trackedAreaHistory) frameAt(i int) (uint64, Bitmap, bool) {
	if !h.ring.IdxIsValid(i) {
		return 0, Bitmap{}, false
	}
	idx := h.ring.Idx(i)
	return h.timesteps[idx], h.bitmaps[idx], true
}

func (h *trackedAreaHistory) rangeBounds() (start, end uint64, ok bool) {
	if h.ring.Len == 0 {
		return 0, 0, false
	}
	s, _, _ := h.frameAt(0)
	e, _, _ := h.frameAt(h.ring.Len - 1)
	return s, e, true
}

// Ledger is the dense, tracked-area firing history.
type Ledger struct {
	tracked         map[ids.CorticalAreaId]*trackedAreaHistory
	currentTimestep uint64
}

// New builds an empty Ledger.
func New() *Ledger {
	return &Ledger{tracked: make(map[ids.CorticalAreaId]*trackedAreaHistory)}
}

// CurrentTimestep returns the last archived tick.
func (l *Ledger) CurrentTimestep() uint64 { return l.currentTimestep }

// TrackArea begins (or reconfigures) tracking for a cortical area with
// an explicit window size. This sets the window exactly; it does not
// merge with any previously requested size. Newly tracked areas are
// seeded with window_size empty frames ending at the current timestep,
// so queries succeed immediately even if ticks have already run.
func (l *Ledger) TrackArea(area ids.CorticalAreaId, windowSize int) error {
	if windowSize <= 0 {
		return newError(InvalidWindowSize, "ledger: window size must be > 0")
	}
	if hist, ok := l.tracked[area]; ok {
		hist.resizeWindow(windowSize)
		return nil
	}
	hist := newTrackedAreaHistory(windowSize)
	if l.currentTimestep > 0 {
		start := l.currentTimestep + 1
		if uint64(windowSize) <= l.currentTimestep {
			start = l.currentTimestep - uint64(windowSize) + 1
		} else {
			start = 1
		}
		for t := start; t <= l.currentTimestep; t++ {
			hist.pushFrame(t, Bitmap{})
		}
	}
	l.tracked[area] = hist
	return nil
}

// UntrackArea stops tracking a cortical area, returning whether it had
// been tracked.
func (l *Ledger) UntrackArea(area ids.CorticalAreaId) bool {
	if _, ok := l.tracked[area]; !ok {
		return false
	}
	delete(l.tracked, area)
	return true
}

// GetTrackedWindow returns the configured window size for a tracked area.
func (l *Ledger) GetTrackedWindow(area ids.CorticalAreaId) (int, error) {
	hist, ok := l.tracked[area]
	if !ok {
		return 0, newError(AreaNotTracked, "ledger: area %d is not tracked", area)
	}
	return hist.windowSize, nil
}

// TrackedWindow pairs an area with its configured window size.
type TrackedWindow struct {
	Area       ids.CorticalAreaId
	WindowSize int
}

// GetTrackedWindows returns every tracked area's window size, sorted
// by area id for deterministic output.
func (l *Ledger) GetTrackedWindows() []TrackedWindow {
	out := make([]TrackedWindow, 0, len(l.tracked))
	for area, hist := range l.tracked {
		out = append(out, TrackedWindow{Area: area, WindowSize: hist.windowSize})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Area < out[j].Area })
	return out
}

// ArchiveBurst records one tick's fire queue into every tracked area's
// history. timestep must be strictly greater than the current
// timestep (the very first call accepts any positive value). Gaps
// between the current timestep and the new one are filled with empty
// frames for every tracked area.
func (l *Ledger) ArchiveBurst(timestep uint64, fq *firequeue.Queue) error {
	if l.currentTimestep != 0 && timestep <= l.currentTimestep {
		return newError(NonMonotonicTimestep, "ledger: non-monotonic timestep: current=%d, requested=%d", l.currentTimestep, timestep)
	}

	if len(l.tracked) == 0 {
		l.currentTimestep = timestep
		return nil
	}

	byArea := fq.ByArea()
	firedBitmaps := make(map[ids.CorticalAreaId]Bitmap, len(l.tracked))
	for area, fires := range byArea {
		if _, ok := l.tracked[area]; !ok {
			continue
		}
		neurons := make([]ids.NeuronId, len(fires))
		for i, f := range fires {
			neurons[i] = f.NeuronID
		}
		firedBitmaps[area] = NewBitmap(neurons)
	}

	if l.currentTimestep > 0 && timestep > l.currentTimestep+1 {
		for missing := l.currentTimestep + 1; missing < timestep; missing++ {
			for _, hist := range l.tracked {
				hist.pushFrame(missing, Bitmap{})
			}
		}
	}

	for area, hist := range l.tracked {
		hist.pushFrame(timestep, firedBitmaps[area])
	}

	l.currentTimestep = timestep
	return nil
}

// GetDenseWindowBitmaps returns exactly depth frames covering
// [end_timestep-depth+1 .. end_timestep], oldest first.
func (l *Ledger) GetDenseWindowBitmaps(area ids.CorticalAreaId, endTimestep uint64, depth int) ([]Frame, error) {
	if depth <= 0 {
		return nil, newError(InvalidDepth, "ledger: depth must be > 0")
	}
	if endTimestep > l.currentTimestep {
		return nil, newError(EndTimestepInFuture, "ledger: requested end_timestep=%d exceeds current_timestep=%d", endTimestep, l.currentTimestep)
	}

	hist, ok := l.tracked[area]
	if !ok {
		return nil, newError(AreaNotTracked, "ledger: area %d is not tracked", area)
	}
	if depth > hist.windowSize {
		return nil, newError(DepthExceedsWindow, "ledger: requested depth %d exceeds tracked window size %d for area %d", depth, hist.windowSize, area)
	}

	start := uint64(0)
	if endTimestep+1 > uint64(depth) {
		start = endTimestep + 1 - uint64(depth)
	} else {
		start = 1
	}

	haveStart, haveEnd, ok := hist.rangeBounds()
	if !ok || start < haveStart || endTimestep > haveEnd {
		return nil, newError(InsufficientHistory, "ledger: insufficient history for area %d: need [%d..%d], but have [%d..%d]", area, start, endTimestep, haveStart, haveEnd)
	}

	startIdx := int(start - haveStart)
	out := make([]Frame, 0, depth)
	for i := 0; i < depth; i++ {
		t, bm, ok := hist.frameAt(startIdx + i)
		if !ok {
			return nil, newError(InsufficientHistory, "ledger: insufficient history for area %d: need [%d..%d], but have [%d..%d]", area, start, endTimestep, haveStart, haveEnd)
		}
		out = append(out, Frame{Timestep: t, Bitmap: bm})
	}
	return out, nil
}

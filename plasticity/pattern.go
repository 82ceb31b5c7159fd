// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package plasticity

import (
	"crypto/sha256"
	"encoding/binary"
	"sort"
	"sync"

	"github.com/feagi/feagi-core-sub006/ids"
	"github.com/feagi/feagi-core-sub006/ledger"
)

// PatternConfig parameterizes temporal pattern detection.
type PatternConfig struct {
	DefaultTemporalDepth uint32
	MinActivityThreshold int
	MaxPatternCacheSize  int
}

// DefaultPatternConfig matches the reference detector's defaults.
func DefaultPatternConfig() PatternConfig {
	return PatternConfig{DefaultTemporalDepth: 3, MinActivityThreshold: 1, MaxPatternCacheSize: 10000}
}

// TemporalPattern is a detected firing pattern, keyed by its
// deterministic hash.
type TemporalPattern struct {
	PatternHash             [32]byte
	TemporalDepth           uint32
	UpstreamAreas           []ids.CorticalAreaId
	PerTimestepNeuronCounts []int
	TotalActivity           int
}

// PatternDetectorStats reports running detector counters.
type PatternDetectorStats struct {
	PatternsDetected int
	CacheHits        int
	CacheMisses      int
	EmptyPatterns    int
}

// PatternDetector finds deterministic, hashable firing patterns across
// an area's upstream bitmaps and caches them with FIFO-as-LRU eviction
// (an access hit moves a hash to the back of the eviction order; the
// front is always the next victim).
type PatternDetector struct {
	config PatternConfig

	mu          sync.Mutex
	cache       map[[32]byte]TemporalPattern
	accessOrder [][32]byte
	areaDepths  map[ids.CorticalAreaId]uint32
	stats       PatternDetectorStats
}

// NewPatternDetector builds a detector with the given configuration.
func NewPatternDetector(cfg PatternConfig) *PatternDetector {
	return &PatternDetector{
		config:     cfg,
		cache:      make(map[[32]byte]TemporalPattern),
		areaDepths: make(map[ids.CorticalAreaId]uint32),
	}
}

// ConfigureAreaTemporalDepth overrides the default temporal depth for
// one memory area.
func (d *PatternDetector) ConfigureAreaTemporalDepth(area ids.CorticalAreaId, depth uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.areaDepths[area] = depth
}

func (d *PatternDetector) areaTemporalDepth(area ids.CorticalAreaId) uint32 {
	if depth, ok := d.areaDepths[area]; ok {
		return depth
	}
	return d.config.DefaultTemporalDepth
}

// DetectPattern inspects a sequence of per-timestep bitmaps (oldest
// first) and produces a TemporalPattern, or nil below the activity
// threshold or with no upstream areas / bitmaps at all.
func (d *PatternDetector) DetectPattern(area ids.CorticalAreaId, upstreamAreas []ids.CorticalAreaId, frames []ledger.Frame, temporalDepth *uint32) *TemporalPattern {
	if len(upstreamAreas) == 0 {
		return nil
	}

	d.mu.Lock()
	depth := d.config.DefaultTemporalDepth
	if temporalDepth != nil {
		depth = *temporalDepth
	} else {
		depth = d.areaTemporalDepth(area)
	}

	if len(frames) == 0 {
		d.stats.EmptyPatterns++
		d.mu.Unlock()
		return nil
	}

	total := 0
	counts := make([]int, len(frames))
	for i, f := range frames {
		counts[i] = f.Bitmap.Len()
		total += counts[i]
	}
	if total < d.config.MinActivityThreshold {
		d.stats.EmptyPatterns++
		d.mu.Unlock()
		return nil
	}

	hash := hashFrames(frames)
	if cached, ok := d.cache[hash]; ok {
		d.touch(hash)
		d.stats.CacheHits++
		d.mu.Unlock()
		out := cached
		return &out
	}

	sortedUpstream := append([]ids.CorticalAreaId(nil), upstreamAreas...)
	sort.Slice(sortedUpstream, func(i, j int) bool { return sortedUpstream[i] < sortedUpstream[j] })

	pattern := TemporalPattern{
		PatternHash:             hash,
		TemporalDepth:           depth,
		UpstreamAreas:           sortedUpstream,
		PerTimestepNeuronCounts: counts,
		TotalActivity:           total,
	}
	d.addToCache(pattern)
	d.stats.PatternsDetected++
	d.stats.CacheMisses++
	d.mu.Unlock()
	return &pattern
}

// hashFrames implements the deterministic serialization spec.md §4.10
// names: for each bitmap in temporal order, a little-endian u32 length
// followed by sorted little-endian u32 neuron ids, hashed with SHA-256.
func hashFrames(frames []ledger.Frame) [32]byte {
	h := sha256.New()
	var buf [4]byte
	for _, f := range frames {
		idList := f.Bitmap.IDs() // already sorted ascending
		binary.LittleEndian.PutUint32(buf[:], uint32(len(idList)))
		h.Write(buf[:])
		for _, id := range idList {
			binary.LittleEndian.PutUint32(buf[:], uint32(id))
			h.Write(buf[:])
		}
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// addToCache inserts pattern and evicts the least-recently-touched
// entry if the cache is now over capacity. Caller holds d.mu.
func (d *PatternDetector) addToCache(pattern TemporalPattern) {
	d.cache[pattern.PatternHash] = pattern
	d.accessOrder = append(d.accessOrder, pattern.PatternHash)
	if len(d.cache) > d.config.MaxPatternCacheSize && len(d.accessOrder) > 0 {
		oldest := d.accessOrder[0]
		d.accessOrder = d.accessOrder[1:]
		delete(d.cache, oldest)
	}
}

// touch moves hash to the back of the eviction order. Caller holds d.mu.
func (d *PatternDetector) touch(hash [32]byte) {
	for i, h := range d.accessOrder {
		if h == hash {
			d.accessOrder = append(d.accessOrder[:i], d.accessOrder[i+1:]...)
			break
		}
	}
	d.accessOrder = append(d.accessOrder, hash)
}

// Stats returns a snapshot of the running counters.
func (d *PatternDetector) Stats() PatternDetectorStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// ClearCache empties the pattern cache and its eviction order.
func (d *PatternDetector) ClearCache() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cache = make(map[[32]byte]TemporalPattern)
	d.accessOrder = nil
}

// ResetStats zeroes the running counters.
func (d *PatternDetector) ResetStats() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats = PatternDetectorStats{}
}

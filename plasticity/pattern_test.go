// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package plasticity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feagi/feagi-core-sub006/ids"
	"github.com/feagi/feagi-core-sub006/ledger"
)

func frame(t uint64, neurons ...ids.NeuronId) ledger.Frame {
	return ledger.Frame{Timestep: t, Bitmap: ledger.NewBitmap(neurons)}
}

func TestDetectPatternBasic(t *testing.T) {
	d := NewPatternDetector(DefaultPatternConfig())
	frames := []ledger.Frame{frame(1, 1, 2), frame(2, 3, 4)}
	pattern := d.DetectPattern(100, []ids.CorticalAreaId{1, 2}, frames, nil)
	require.NotNil(t, pattern)
	assert.Equal(t, uint32(3), pattern.TemporalDepth)
	assert.Equal(t, 4, pattern.TotalActivity)
}

func TestDetectPatternCacheHit(t *testing.T) {
	d := NewPatternDetector(DefaultPatternConfig())
	frames := []ledger.Frame{frame(10, 1, 2)}
	p1 := d.DetectPattern(100, []ids.CorticalAreaId{1}, frames, nil)
	require.NotNil(t, p1)
	assert.Equal(t, 1, d.Stats().CacheMisses)

	p2 := d.DetectPattern(100, []ids.CorticalAreaId{1}, frames, nil)
	require.NotNil(t, p2)
	assert.Equal(t, 1, d.Stats().CacheHits)
	assert.Equal(t, p1.PatternHash, p2.PatternHash)
}

func TestDeterministicHashing(t *testing.T) {
	frames := []ledger.Frame{frame(1, 3, 1, 2)}
	h1 := hashFrames(frames)
	h2 := hashFrames([]ledger.Frame{frame(1, 1, 2, 3)})
	assert.Equal(t, h1, h2)
}

func TestPatternCacheEviction(t *testing.T) {
	cfg := DefaultPatternConfig()
	cfg.MaxPatternCacheSize = 2
	d := NewPatternDetector(cfg)
	d.DetectPattern(100, []ids.CorticalAreaId{1}, []ledger.Frame{frame(1, 1)}, nil)
	d.DetectPattern(100, []ids.CorticalAreaId{1}, []ledger.Frame{frame(1, 2)}, nil)
	d.DetectPattern(100, []ids.CorticalAreaId{1}, []ledger.Frame{frame(1, 3)}, nil)

	d.mu.Lock()
	size := len(d.cache)
	d.mu.Unlock()
	assert.Equal(t, 2, size)
}

func TestNoUpstreamAreasYieldsNoPattern(t *testing.T) {
	d := NewPatternDetector(DefaultPatternConfig())
	pattern := d.DetectPattern(100, nil, []ledger.Frame{frame(1, 1)}, nil)
	assert.Nil(t, pattern)
}

// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feagi/feagi-core-sub006/firequeue"
	"github.com/feagi/feagi-core-sub006/ids"
)

func fq(fires ...firequeue.FiringNeuron) *firequeue.Queue {
	q := firequeue.New()
	for _, f := range fires {
		q.Add(f)
	}
	return q
}

// TestDenseHistoryIncludesSilence encodes scenario S5: a silent tick
// between two firing ticks still produces an explicit empty frame.
func TestDenseHistoryIncludesSilence(t *testing.T) {
	l := New()
	require.NoError(t, l.TrackArea(1, 5))

	require.NoError(t, l.ArchiveBurst(1, fq(
		firequeue.FiringNeuron{NeuronID: 100, CorticalIdx: 1},
		firequeue.FiringNeuron{NeuronID: 200, CorticalIdx: 1},
	)))
	require.NoError(t, l.ArchiveBurst(2, fq()))
	require.NoError(t, l.ArchiveBurst(3, fq(
		firequeue.FiringNeuron{NeuronID: 200, CorticalIdx: 1},
	)))

	window, err := l.GetDenseWindowBitmaps(1, 3, 3)
	require.NoError(t, err)
	require.Len(t, window, 3)
	assert.Equal(t, []uint64{1, 2, 3}, []uint64{window[0].Timestep, window[1].Timestep, window[2].Timestep})
	assert.Equal(t, 2, window[0].Bitmap.Len())
	assert.Equal(t, 0, window[1].Bitmap.Len())
	assert.Equal(t, 1, window[2].Bitmap.Len())
	assert.True(t, window[2].Bitmap.Contains(200))
}

// TestGapFillWithEmptyFrames encodes scenario S6: archiving a timestep
// that skips ahead fills the intervening ticks with empty frames.
func TestGapFillWithEmptyFrames(t *testing.T) {
	l := New()
	require.NoError(t, l.TrackArea(1, 5))

	require.NoError(t, l.ArchiveBurst(1, fq(
		firequeue.FiringNeuron{NeuronID: 1, CorticalIdx: 1},
	)))
	require.NoError(t, l.ArchiveBurst(4, fq()))

	window, err := l.GetDenseWindowBitmaps(1, 4, 4)
	require.NoError(t, err)
	timesteps := make([]uint64, len(window))
	for i, f := range window {
		timesteps[i] = f.Timestep
	}
	assert.Equal(t, []uint64{1, 2, 3, 4}, timesteps)
	assert.Equal(t, 0, window[1].Bitmap.Len())
	assert.Equal(t, 0, window[2].Bitmap.Len())
}

func TestInsufficientHistoryErrors(t *testing.T) {
	l := New()
	require.NoError(t, l.TrackArea(1, 3))
	require.NoError(t, l.ArchiveBurst(1, fq()))

	_, err := l.GetDenseWindowBitmaps(1, 1, 3)
	require.Error(t, err)
	var le *Error
	require.ErrorAs(t, err, &le)
	assert.Equal(t, InsufficientHistory, le.Kind)
}

func TestNonMonotonicTimestepRejected(t *testing.T) {
	l := New()
	require.NoError(t, l.ArchiveBurst(5, fq()))
	err := l.ArchiveBurst(5, fq())
	require.Error(t, err)
	var le *Error
	require.ErrorAs(t, err, &le)
	assert.Equal(t, NonMonotonicTimestep, le.Kind)
}

func TestOverflowDropsOldestFrame(t *testing.T) {
	l := New()
	require.NoError(t, l.TrackArea(1, 2))
	require.NoError(t, l.ArchiveBurst(1, fq()))
	require.NoError(t, l.ArchiveBurst(2, fq()))
	require.NoError(t, l.ArchiveBurst(3, fq()))

	_, err := l.GetDenseWindowBitmaps(1, 3, 2)
	require.NoError(t, err)
	_, err = l.GetDenseWindowBitmaps(1, 1, 1)
	require.Error(t, err)
	var le *Error
	require.ErrorAs(t, err, &le)
	assert.Equal(t, InsufficientHistory, le.Kind)
}

func TestTrackAreaAfterTicksSeedsEmptyFrames(t *testing.T) {
	l := New()
	require.NoError(t, l.ArchiveBurst(1, fq()))
	require.NoError(t, l.ArchiveBurst(2, fq()))
	require.NoError(t, l.ArchiveBurst(3, fq()))

	require.NoError(t, l.TrackArea(ids.CorticalAreaId(9), 5))
	window, err := l.GetDenseWindowBitmaps(9, 3, 3)
	require.NoError(t, err)
	require.Len(t, window, 3)
	for _, f := range window {
		assert.Equal(t, 0, f.Bitmap.Len())
	}
}

// TestCurrentTimestepEqualsLastArchived checks the property that
// current_timestep always equals the maximum archived timestep, even
// across a TrackArea call made mid-stream (§8, quantified properties).
func TestCurrentTimestepEqualsLastArchived(t *testing.T) {
	l := New()
	assert.EqualValues(t, 0, l.CurrentTimestep())

	require.NoError(t, l.ArchiveBurst(1, fq()))
	assert.EqualValues(t, 1, l.CurrentTimestep())

	require.NoError(t, l.TrackArea(1, 4))
	assert.EqualValues(t, 1, l.CurrentTimestep())

	require.NoError(t, l.ArchiveBurst(7, fq(firequeue.FiringNeuron{NeuronID: 1, CorticalIdx: 1})))
	assert.EqualValues(t, 7, l.CurrentTimestep())
}

func TestDepthExceedsWindow(t *testing.T) {
	l := New()
	require.NoError(t, l.TrackArea(1, 2))
	require.NoError(t, l.ArchiveBurst(1, fq()))

	_, err := l.GetDenseWindowBitmaps(1, 1, 3)
	require.Error(t, err)
	var le *Error
	require.ErrorAs(t, err, &le)
	assert.Equal(t, DepthExceedsWindow, le.Kind)
}

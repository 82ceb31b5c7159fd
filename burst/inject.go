// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package burst

import (
	"errors"
	"sync"

	"github.com/feagi/feagi-core-sub006/ids"
)

// ErrInjectQueueFull is returned by Enqueue when the bounded sensory
// inject queue is at capacity. The loop never blocks for a transport,
// so producers must handle this explicitly rather than retry silently.
var ErrInjectQueueFull = errors.New("burst: sensory inject queue is full")

// SensoryPoint is one resolved-by-coordinate injection target.
type SensoryPoint struct {
	X, Y, Z   uint32
	Potential float32
}

// SensoryBatch is one producer's inject request for a single area,
// consumed at the top of the next tick.
type SensoryBatch struct {
	Area   ids.CorticalAreaId
	Points []SensoryPoint
}

// injectQueue is the bounded, single-consumer queue of pending sensory
// batches the burst loop drains each tick (spec §4.8 phase 2).
type injectQueue struct {
	mu       sync.Mutex
	capacity int
	batches  []SensoryBatch
}

func newInjectQueue(capacity int) *injectQueue {
	return &injectQueue{capacity: capacity}
}

// enqueue appends a batch, failing explicitly rather than blocking if
// the queue is already at capacity.
func (q *injectQueue) enqueue(b SensoryBatch) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.batches) >= q.capacity {
		return ErrInjectQueueFull
	}
	q.batches = append(q.batches, b)
	return nil
}

// drain returns and clears every queued batch.
func (q *injectQueue) drain() []SensoryBatch {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.batches
	q.batches = nil
	return out
}

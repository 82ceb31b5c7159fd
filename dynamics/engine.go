// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dynamics implements the leaky integrate-and-fire membrane
// update (C6): per-neuron candidate-potential accumulation, threshold
// and refractory/consecutive-fire/snooze bookkeeping, and probabilistic
// firing, generic over the neural.Value representation.
package dynamics

import (
	"sort"

	"github.com/feagi/feagi-core-sub006/firequeue"
	"github.com/feagi/feagi-core-sub006/ids"
	"github.com/feagi/feagi-core-sub006/neural"
	"github.com/feagi/feagi-core-sub006/neuron"
	"github.com/feagi/feagi-core-sub006/propagation"
)

// Rand is the seedable source of per-call randomness dynamics uses for
// probabilistic firing, adapted from the teacher's erand.Rand contract
// so a deterministic source can be substituted in tests.
type Rand interface {
	// Float32 returns a value in [0,1). thr is an optional per-worker
	// thread index (-1 selects the shared/global stream).
	Float32(thr int) float32
}

// Engine applies the dynamics update to a neuron store, generic over
// the membrane-potential representation T.
type Engine[T neural.Value[T]] struct {
	Contribution neural.Contribution[T]
	Rand         Rand
}

// New builds a dynamics Engine for the given NeuralValue representation.
func New[T neural.Value[T]](contribution neural.Contribution[T], rnd Rand) *Engine[T] {
	return &Engine[T]{Contribution: contribution, Rand: rnd}
}

// candidateFor accumulates or replaces candidate potentials for a
// single area's contributions, honoring each neuron's
// mp_charge_accumulation flag. Contributions are walked in their
// encounter order (propagation's Group order), and "replace" semantics
// keep the last one seen per target -- see DESIGN.md's Open Question
// decision on mp_charge_accumulation=false.
func (e *Engine[T]) candidateFor(store *neuron.Store[T], contribs []propagation.Contribution) map[ids.NeuronId]T {
	out := make(map[ids.NeuronId]T, len(contribs))
	accum := store.MPChargeAccumulation()
	for _, c := range contribs {
		delta := e.Contribution(c.Weight, c.PSP, c.Sign)
		if int(c.Target) >= len(accum) {
			continue
		}
		if accum[c.Target] {
			prev, ok := out[c.Target]
			if ok {
				out[c.Target] = prev.SaturatingAdd(delta)
			} else {
				out[c.Target] = delta
			}
		} else {
			out[c.Target] = delta
		}
	}
	return out
}

// Tick updates every neuron belonging to an area touched either by a
// propagation contribution or a direct injection (power/sensory),
// producing the new Fire Candidate List. members must list every valid
// neuron id for each area touched, in any order. injected carries
// potentials applied directly (bypassing the weight/PSP scaling
// propagation contributions go through), e.g. power injection and
// resolved sensory-inject batches.
func (e *Engine[T]) Tick(store *neuron.Store[T], result propagation.Result, injected map[ids.NeuronId]T, members map[ids.CorticalAreaId][]ids.NeuronId) *firequeue.Queue {
	fq := firequeue.New()

	areaSet := make(map[ids.CorticalAreaId]bool, len(result))
	for area := range result {
		areaSet[area] = true
	}
	for id := range injected {
		if area, ok := store.AreaOf(id); ok {
			areaSet[area] = true
		}
	}
	areas := make([]ids.CorticalAreaId, 0, len(areaSet))
	for area := range areaSet {
		areas = append(areas, area)
	}
	sort.Slice(areas, func(i, j int) bool { return areas[i] < areas[j] })

	mp := store.MembranePotentials()
	threshold := store.Thresholds()
	thresholdLimit := store.ThresholdLimits()
	leak := store.LeakCoefficients()
	refractoryPeriod := store.RefractoryPeriods()
	refractoryCountdown := store.RefractoryCountdowns()
	excitability := store.Excitabilities()
	fireCount := store.ConsecutiveFireCounts()
	fireLimit := store.ConsecutiveFireLimits()
	snooze := store.SnoozePeriods()
	valid := store.ValidMask()

	for _, area := range areas {
		candidate := e.candidateFor(store, result[area])
		neuronIDs := append([]ids.NeuronId(nil), members[area]...)
		sort.Slice(neuronIDs, func(i, j int) bool { return neuronIDs[i] < neuronIDs[j] })

		for _, id := range neuronIDs {
			if !valid[id] {
				continue
			}
			delta, hasDelta := candidate[id]
			if inj, ok := injected[id]; ok {
				if hasDelta {
					delta = delta.SaturatingAdd(inj)
				} else {
					delta, hasDelta = inj, true
				}
			}
			if hasDelta {
				mp[id] = mp[id].SaturatingAdd(delta)
			}

			if refractoryCountdown[id] > 0 {
				refractoryCountdown[id]--
				continue
			}

			var zero T
			atOrAbove := mp[id].Ge(threshold[id])
			limitIsZero := thresholdLimit[id].Ge(zero) && zero.Ge(thresholdLimit[id])
			withinLimit := limitIsZero || mp[id].Lt(thresholdLimit[id])
			if atOrAbove && withinLimit && e.shouldFire(excitability[id]) {
				coord := store.CoordinateOf(id)
				area, _ := store.AreaOf(id)
				fq.Add(firequeue.FiringNeuron{
					NeuronID:          id,
					MembranePotential: float32(anyToFloat(mp[id])),
					CorticalIdx:       area,
					X:                 coord[0],
					Y:                 coord[1],
					Z:                 coord[2],
				})
				mp[id] = zero
				refractoryCountdown[id] = refractoryPeriod[id]
				fireCount[id]++
				if fireLimit[id] != 0 && fireCount[id] >= fireLimit[id] {
					refractoryCountdown[id] = snooze[id]
					fireCount[id] = 0
				}
			} else {
				mp[id] = mp[id].MulLeak(leak[id])
			}
		}
	}
	return fq
}

// shouldFire applies the excitability fast paths named in spec §4.1/§4.6
// before falling back to the probabilistic draw.
func (e *Engine[T]) shouldFire(excitability float32) bool {
	if excitability >= 0.999 {
		return true
	}
	if excitability <= 0.0 {
		return false
	}
	return e.Rand.Float32(-1) < excitability
}

// DecrementRefractory applies loop-step-5's refractory countdown to
// every valid neuron in an area NOT in touched (the areas Tick already
// processed this tick, whether from the propagation result or from
// injection), so areas with no incoming activity still age their
// refractory state.
func DecrementRefractory[T neural.Value[T]](store *neuron.Store[T], touched map[ids.CorticalAreaId]bool, members map[ids.CorticalAreaId][]ids.NeuronId) {
	countdown := store.RefractoryCountdowns()
	valid := store.ValidMask()
	for area, ns := range members {
		if touched[area] {
			continue
		}
		for _, id := range ns {
			if valid[id] && countdown[id] > 0 {
				countdown[id]--
			}
		}
	}
}

// anyToFloat extracts a float32 approximation of a NeuralValue for
// reporting in the Fire Candidate List; it is never used for control
// flow, only for the outbound snapshot payload.
func anyToFloat[T neural.Value[T]](v T) float64 {
	switch val := any(v).(type) {
	case neural.F32:
		return float64(val)
	case interface{ ToF32() float32 }:
		return float64(val.ToF32())
	default:
		return 0
	}
}

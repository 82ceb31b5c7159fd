// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mapping implements the cortical mapping editor named in
// spec §6: update_cortical_mapping replaces the projector.Params-plus-
// synapse-attributes rule set for an (src, dst) area pair,
// regenerate_synapses_for_mapping then materializes that mapping into
// concrete synapses via C4's deterministic coordinate projection,
// adding only the synapses that don't already exist so repeated calls
// with an unchanged rule set add nothing further.
package mapping

import (
	"sync"

	"github.com/feagi/feagi-core-sub006/cortical"
	"github.com/feagi/feagi-core-sub006/ids"
	"github.com/feagi/feagi-core-sub006/neural"
	"github.com/feagi/feagi-core-sub006/neuron"
	"github.com/feagi/feagi-core-sub006/projector"
	"github.com/feagi/feagi-core-sub006/synapse"
)

// Rule pairs a projector.Params (the coordinate-projection shape) with
// the synapse attributes to stamp onto every edge the projection
// produces.
type Rule struct {
	Projector projector.Params
	Weight    uint8
	PSP       uint8
	Type      synapse.Type
}

// areaPair keys the rule registry by source/destination area.
type areaPair struct {
	src, dst ids.CorticalAreaId
}

// Registry holds the current mapping rule set for every (src, dst)
// pair that's been configured, so regenerate_synapses_for_mapping can
// be called independently of update_cortical_mapping (e.g. after a
// process restart that reloaded a connectome but not its mapping
// config).
type Registry struct {
	mu    sync.RWMutex
	rules map[areaPair][]Rule
}

// NewRegistry returns an empty mapping registry.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[areaPair][]Rule)}
}

// UpdateCorticalMapping replaces the rule set for (src, dst) wholesale.
// It never touches existing synapses -- call
// RegenerateSynapsesForMapping afterward to materialize the change.
func (r *Registry) UpdateCorticalMapping(src, dst ids.CorticalAreaId, rules []Rule) {
	stored := append([]Rule(nil), rules...)
	r.mu.Lock()
	r.rules[areaPair{src, dst}] = stored
	r.mu.Unlock()
}

// RulesFor returns the currently configured rules for (src, dst), or
// nil if none have been set.
func (r *Registry) RulesFor(src, dst ids.CorticalAreaId) []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Rule(nil), r.rules[areaPair{src, dst}]...)
}

// existingTargets returns the set of (source,target) pairs already
// wired from any neuron in src to any neuron in dst, by walking src's
// source index rather than scanning the whole synapse population.
func existingTargets(synapses *synapse.Store[ids.NeuronId], srcNeurons []ids.NeuronId) map[[2]ids.NeuronId]bool {
	targets := synapses.Targets()
	existing := make(map[[2]ids.NeuronId]bool)
	for _, src := range srcNeurons {
		for _, idx := range synapses.SourceIndex(src) {
			if !synapses.IsValid(idx) {
				continue
			}
			existing[[2]ids.NeuronId{src, targets[idx]}] = true
		}
	}
	return existing
}

// RegenerateSynapsesForMapping materializes every rule configured for
// (src, dst) against the current neuron population: for each valid
// source neuron, it projects its coordinate through each rule's
// projector.Params, resolves every resulting destination coordinate to
// a neuron id, and adds a synapse for any (source, target) pair that
// doesn't already exist. It returns the count of newly added synapses,
// 0 if nothing was new -- so identical repeated calls are idempotent
// by construction, not by tracking call history.
func RegenerateSynapsesForMapping[T neural.Value[T]](
	reg *Registry,
	src, dst ids.CorticalAreaId,
	srcDims, dstDims cortical.Dims,
	store *neuron.Store[T],
	synapses *synapse.Store[ids.NeuronId],
) (int, error) {
	rules := reg.RulesFor(src, dst)
	if len(rules) == 0 {
		return 0, nil
	}

	srcNeurons := store.EnumerateByArea(src)
	existing := existingTargets(synapses, srcNeurons)

	added := 0
	for _, rule := range rules {
		for _, srcID := range srcNeurons {
			coord := store.CoordinateOf(srcID)
			dstCoords, err := projector.Project(srcDims, dstDims, coord, rule.Projector)
			if err != nil {
				return added, err
			}
			for _, dc := range dstCoords {
				targetID, ok := store.GetNeuronAtCoordinate(dst, dc)
				if !ok {
					continue
				}
				key := [2]ids.NeuronId{srcID, targetID}
				if existing[key] {
					continue
				}
				if _, err := synapses.AddSynapse(synapse.Params[ids.NeuronId]{
					Source: srcID,
					Target: targetID,
					Weight: rule.Weight,
					PSP:    rule.PSP,
					Type:   rule.Type,
				}); err != nil {
					return added, err
				}
				existing[key] = true
				added++
			}
		}
	}
	return added, nil
}

// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command burstcored runs a standalone burst-engine loop: it loads a
// connectome (or starts with an empty one), wires a compute backend,
// and drives the tick loop until interrupted, optionally checkpointing
// on the way out.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/feagi/feagi-core-sub006/burst"
	"github.com/feagi/feagi-core-sub006/compute"
	"github.com/feagi/feagi-core-sub006/config"
	"github.com/feagi/feagi-core-sub006/dynamics"
	"github.com/feagi/feagi-core-sub006/ids"
	"github.com/feagi/feagi-core-sub006/ledger"
	"github.com/feagi/feagi-core-sub006/neural"
	"github.com/feagi/feagi-core-sub006/neuron"
	"github.com/feagi/feagi-core-sub006/snapshot"
	"github.com/feagi/feagi-core-sub006/synapse"
)

func main() {
	configFile := flag.String("config", "burstcored.toml", "TOML config file; missing file falls back to defaults")
	connectomeFile := flag.String("connectome", "", "connectome snapshot to load at startup; empty starts with no neurons")
	saveFile := flag.String("save", "", "connectome snapshot path to write on shutdown; empty skips saving")
	saveCompressed := flag.Bool("compress", true, "LZ4-compress the snapshot written by -save")
	capacity := flag.Int("capacity", 1_000_000, "neuron/synapse store capacity when not loading -connectome")
	backendFlag := flag.String("backend", "", "override the config's backend policy: cpu, gpu, or heuristic")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("burstcored: %v", err)
	}
	if *backendFlag != "" {
		policy, err := parsePolicy(*backendFlag)
		if err != nil {
			log.Fatalf("burstcored: %v", err)
		}
		cfg.BackendPolicy = policy
	}

	store, synapses, areas, err := loadConnectome(*connectomeFile, *capacity)
	if err != nil {
		log.Fatalf("burstcored: loading connectome: %v", err)
	}

	areaOf := func(id ids.NeuronId) (ids.CorticalAreaId, bool) { return store.AreaOf(id) }
	cpu := compute.NewCPUBackend(cfg.Workers)
	var gpu compute.Backend // no device probing available in this environment
	backend := compute.Select(cfg.BackendPolicy, cpu, gpu, store.Count(), synapses.ValidCount())
	if err := backend.Initialize(store.Count(), areaOf, synapses); err != nil {
		log.Fatalf("burstcored: initializing %s backend: %v", backend.Name(), err)
	}
	slog.Info("burstcored: backend selected", "name", backend.Name(), "parallel", backend.SupportsParallel())

	dyn := dynamics.New[neural.F32](neural.F32Contribution, dynamics.NewStdRand(cfg.RandSeed, cfg.Workers))

	loop := burst.New[neural.F32](burst.Config[neural.F32]{
		Store:          store,
		Synapses:       synapses,
		Backend:        backend,
		Dynamics:       dyn,
		Ledger:         ledger.New(),
		FromF32:        func(f float32) neural.F32 { return neural.F32(f) },
		FrequencyHz:    cfg.TickHz,
		InjectCapacity: cfg.InjectQueueCapacity,
		SampleQueueCap: cfg.SampleQueueCapacity,
		OverflowPolicy: cfg.SampleOverflowPolicy,
	})
	for area := range areas {
		loop.RegisterArea(area)
		if err := loop.ConfigureFireLedgerWindow(area, cfg.DefaultLedgerWindow); err != nil {
			log.Fatalf("burstcored: configuring fire ledger window for area %d: %v", area, err)
		}
	}

	if cfg.EnableSTDP {
		stdp := burst.DefaultSTDPSettings()
		stdp.LearningRate = cfg.STDPLearningRate
		loop.EnableSTDP(stdp)
		slog.Info("burstcored: STDP weight adjustment enabled", "learning_rate", cfg.STDPLearningRate)
	}
	if cfg.EnableMemoryFormation {
		mem := burst.DefaultMemoryFormationConfig()
		mem.Capacity = cfg.MemoryNeuronCapacity
		for area := range areas {
			mem.Areas[area] = []ids.CorticalAreaId{area}
		}
		loop.EnableMemoryFormation(mem)
		slog.Info("burstcored: memory-neuron formation enabled", "capacity", cfg.MemoryNeuronCapacity)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("burstcored: shutdown signal received, stopping loop")
		loop.Stop()
	}()

	loop.Start()
	loop.Run()

	if *saveFile != "" {
		if err := saveConnectome(*saveFile, store, synapses, loop, *saveCompressed); err != nil {
			log.Fatalf("burstcored: saving connectome: %v", err)
		}
		slog.Info("burstcored: connectome saved", "path", *saveFile)
	}
}

func parsePolicy(s string) (compute.Policy, error) {
	switch s {
	case "cpu":
		return compute.ForceCPU, nil
	case "gpu":
		return compute.ForceGPU, nil
	case "heuristic":
		return compute.Heuristic, nil
	default:
		return 0, fmt.Errorf("unknown backend %q (want cpu, gpu, or heuristic)", s)
	}
}

// loadConnectome loads a snapshot from file if given, else returns an
// empty pair of stores sized to capacity. The returned set of areas is
// every cortical area the connectome actually mentions, used to
// pre-register the burst loop's refractory-decay bookkeeping.
func loadConnectome(file string, capacity int) (*neuron.Store[neural.F32], *synapse.Store[ids.NeuronId], map[ids.CorticalAreaId]bool, error) {
	areas := make(map[ids.CorticalAreaId]bool)
	if file == "" {
		return neuron.New[neural.F32](capacity), synapse.New[ids.NeuronId](capacity), areas, nil
	}
	snap, err := snapshot.Load(file)
	if err != nil {
		return nil, nil, nil, err
	}
	store, synapses, err := snapshot.ToStores(snap)
	if err != nil {
		return nil, nil, nil, err
	}
	for area := range snap.CorticalAreaNames {
		areas[ids.CorticalAreaId(area)] = true
	}
	for _, nr := range snap.Neurons {
		if nr.Valid {
			areas[ids.CorticalAreaId(nr.CorticalArea)] = true
		}
	}
	return store, synapses, areas, nil
}

func saveConnectome(file string, store *neuron.Store[neural.F32], synapses *synapse.Store[ids.NeuronId], loop *burst.Loop[neural.F32], compress bool) error {
	status := loop.GetStatus()
	snap := snapshot.FromStores(store, synapses, status.BurstCount, 0, 0, nil, snapshot.Metadata{
		Description: "burstcored shutdown checkpoint",
		Source:      "burstcored",
	})
	return snapshot.Save(file, snap, compress)
}

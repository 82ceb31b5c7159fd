// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package snapshot implements connectome persistence: saving and
// loading a complete neuron/synapse population plus burst-loop runtime
// state to a single file, for checkpointing and cold-start loading
// (spec §6's load_connectome/save_connectome surface).
package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"os"

	"github.com/pierrec/lz4/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/feagi/feagi-core-sub006/cortical"
	"github.com/feagi/feagi-core-sub006/ids"
	"github.com/feagi/feagi-core-sub006/neural"
	"github.com/feagi/feagi-core-sub006/neuron"
	"github.com/feagi/feagi-core-sub006/synapse"
)

// magic identifies a connectome file; version 1 predates the
// compression flag byte, version 2 adds it. Both are accepted on
// load; every file written by this package is version 2.
var magic = [5]byte{'F', 'E', 'A', 'G', 'I'}

const (
	formatVersion1 uint32 = 1
	formatVersion2 uint32 = 2

	flagCompressed uint8 = 1 << 0
)

var (
	// ErrInvalidMagic is returned when a file doesn't start with the
	// "FEAGI" marker.
	ErrInvalidMagic = errors.New("snapshot: invalid magic number")
	// ErrUnsupportedVersion is returned for any version other than 1 or 2.
	ErrUnsupportedVersion = errors.New("snapshot: unsupported format version")
	// ErrChecksumMismatch is returned when the stored FNV-1a checksum
	// doesn't match the payload actually read.
	ErrChecksumMismatch = errors.New("snapshot: checksum mismatch, file may be corrupted")
)

// NeuronRecord is one neuron's full persisted state: construction
// parameters plus the runtime fields that evolve tick to tick, so a
// loaded connectome resumes exactly where a save left off.
type NeuronRecord struct {
	Threshold            float32
	ThresholdLimit       float32
	MembranePotential    float32
	LeakCoefficient      float32
	RestingPotential     float32
	NeuronType           int32
	RefractoryPeriod     uint16
	RefractoryCountdown  uint16
	Excitability         float32
	ConsecutiveFireCount uint16
	ConsecutiveFireLimit uint16
	SnoozePeriod         uint16
	MPChargeAccumulation bool
	CorticalArea         uint32
	X, Y, Z              uint32
	Valid                bool
}

// SynapseRecord is one synapse's persisted state.
type SynapseRecord struct {
	Source uint32
	Target uint32
	Weight uint8
	PSP    uint8
	Type   uint8
}

// Metadata carries optional human-facing tracking information, never
// interpreted by Save/Load themselves.
type Metadata struct {
	TimestampUnix int64
	Description   string
	Source        string
	Tags          map[string]string
}

// ConnectomeSnapshot captures the complete state of a running instance:
// every neuron and synapse, cortical area display names, and the
// burst-loop runtime counters needed to resume cleanly.
type ConnectomeSnapshot struct {
	Version           uint32
	Neurons           []NeuronRecord
	Synapses          []SynapseRecord
	CorticalAreaNames map[uint32]string
	BurstCount        uint64
	PowerAmount       float32
	FireLedgerWindow  int
	Metadata          Metadata
}

// FromStores builds a ConnectomeSnapshot from live neuron/synapse
// storage, over the float32 membrane-potential representation
// (neural.F32) this command line uses.
func FromStores(store *neuron.Store[neural.F32], synapses *synapse.Store[ids.NeuronId], burstCount uint64, powerAmount float32, fireLedgerWindow int, areaNames map[uint32]string, meta Metadata) *ConnectomeSnapshot {
	count := store.Count()
	neurons := make([]NeuronRecord, count)
	mp := store.MembranePotentials()
	threshold := store.Thresholds()
	thresholdLimit := store.ThresholdLimits()
	leak := store.LeakCoefficients()
	resting := store.RestingPotentials()
	neuronType := store.NeuronTypes()
	refPeriod := store.RefractoryPeriods()
	refCountdown := store.RefractoryCountdowns()
	excitability := store.Excitabilities()
	fireCount := store.ConsecutiveFireCounts()
	fireLimit := store.ConsecutiveFireLimits()
	snooze := store.SnoozePeriods()
	accum := store.MPChargeAccumulation()
	area := store.CorticalAreas()
	valid := store.ValidMask()

	for i := 0; i < count; i++ {
		id := ids.NeuronId(i)
		coord := store.CoordinateOf(id)
		neurons[i] = NeuronRecord{
			Threshold:            float32(threshold[i]),
			ThresholdLimit:       float32(thresholdLimit[i]),
			MembranePotential:    float32(mp[i]),
			LeakCoefficient:      leak[i],
			RestingPotential:     float32(resting[i]),
			NeuronType:           neuronType[i],
			RefractoryPeriod:     refPeriod[i],
			RefractoryCountdown:  refCountdown[i],
			Excitability:         excitability[i],
			ConsecutiveFireCount: fireCount[i],
			ConsecutiveFireLimit: fireLimit[i],
			SnoozePeriod:         snooze[i],
			MPChargeAccumulation: accum[i],
			CorticalArea:         uint32(area[i]),
			X:                    coord[0],
			Y:                    coord[1],
			Z:                    coord[2],
			Valid:                valid[i],
		}
	}

	sources := synapses.Sources()
	targets := synapses.Targets()
	weights := synapses.Weights()
	psps := synapses.PSPs()
	synTypes := synapses.Types()
	synValid := synapses.ValidMask()
	synOut := make([]SynapseRecord, 0, len(sources))
	for i := range sources {
		if !synValid[i] {
			continue
		}
		synOut = append(synOut, SynapseRecord{
			Source: uint32(sources[i]),
			Target: uint32(targets[i]),
			Weight: weights[i],
			PSP:    psps[i],
			Type:   uint8(synTypes[i]),
		})
	}

	return &ConnectomeSnapshot{
		Version:           formatVersion2,
		Neurons:           neurons,
		Synapses:          synOut,
		CorticalAreaNames: areaNames,
		BurstCount:        burstCount,
		PowerAmount:       powerAmount,
		FireLedgerWindow:  fireLedgerWindow,
		Metadata:          meta,
	}
}

// ToStores rebuilds live neuron and synapse storage from snap. Every
// neuron record is added in order so ids match the snapshot; a record
// not marked Valid is invalidated right after it is added, so only
// Valid neurons end up live and carry their saved runtime state.
// Capacity is sized exactly to the snapshot's population
// so no headroom for further growth is implied; callers that need
// headroom should build stores with a larger capacity and add these
// records through AddNeuronsBatch directly instead.
func ToStores(snap *ConnectomeSnapshot) (*neuron.Store[neural.F32], *synapse.Store[ids.NeuronId], error) {
	store := neuron.New[neural.F32](len(snap.Neurons))
	// id i in the snapshot must map back to neuron id i, since
	// synapse records reference neurons by their original index --
	// AddNeuron assigns ids in append order, so valid and invalid
	// records alike must be added in original order. A tombstoned
	// slot is added as valid and then immediately invalidated, to
	// preserve the id numbering synapse records depend on.
	for i, nr := range snap.Neurons {
		id, err := store.AddNeuron(neuron.Params[neural.F32]{
			Threshold:            neural.F32(nr.Threshold),
			ThresholdLimit:       neural.F32(nr.ThresholdLimit),
			LeakCoefficient:      nr.LeakCoefficient,
			RestingPotential:     neural.F32(nr.RestingPotential),
			NeuronType:           nr.NeuronType,
			RefractoryPeriod:     nr.RefractoryPeriod,
			Excitability:         nr.Excitability,
			ConsecutiveFireLimit: nr.ConsecutiveFireLimit,
			SnoozePeriod:         nr.SnoozePeriod,
			MPChargeAccumulation: nr.MPChargeAccumulation,
			CorticalArea:         ids.CorticalAreaId(nr.CorticalArea),
			Coordinate:           cortical.Coord{nr.X, nr.Y, nr.Z},
		})
		if err != nil {
			return nil, nil, fmt.Errorf("snapshot: restoring neuron %d: %w", i, err)
		}
		if !nr.Valid {
			store.Invalidate(id)
			continue
		}
		store.MembranePotentials()[id] = neural.F32(nr.MembranePotential)
		store.RefractoryCountdowns()[id] = nr.RefractoryCountdown
		store.ConsecutiveFireCounts()[id] = nr.ConsecutiveFireCount
	}

	synapses := synapse.New[ids.NeuronId](len(snap.Synapses))
	for i, sr := range snap.Synapses {
		if _, err := synapses.AddSynapse(synapse.Params[ids.NeuronId]{
			Source: ids.NeuronId(sr.Source),
			Target: ids.NeuronId(sr.Target),
			Weight: sr.Weight,
			PSP:    sr.PSP,
			Type:   synapse.Type(sr.Type),
		}); err != nil {
			return nil, nil, fmt.Errorf("snapshot: restoring synapse %d: %w", i, err)
		}
	}

	return store, synapses, nil
}

// Save writes snap to path in the [magic|version|flags|uncompressed
// size|FNV-1a checksum|payload] envelope. When compress is true, the
// msgpack payload is LZ4-frame-compressed before the checksum is taken
// (the checksum always covers the bytes actually stored on disk, so a
// reader need not decompress before validating integrity).
func Save(path string, snap *ConnectomeSnapshot, compress bool) error {
	payload, err := msgpack.Marshal(snap)
	if err != nil {
		return fmt.Errorf("snapshot: encoding payload: %w", err)
	}

	var flags uint8
	uncompressedSize := uint64(0)
	stored := payload
	if compress {
		uncompressedSize = uint64(len(payload))
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(payload); err != nil {
			return fmt.Errorf("snapshot: compressing payload: %w", err)
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("snapshot: compressing payload: %w", err)
		}
		stored = buf.Bytes()
		flags |= flagCompressed
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(magic[:]); err != nil {
		return err
	}
	if err := writeUint32LE(f, formatVersion2); err != nil {
		return err
	}
	if _, err := f.Write([]byte{flags}); err != nil {
		return err
	}
	if err := writeUint64LE(f, uncompressedSize); err != nil {
		return err
	}
	if err := writeUint64LE(f, fnv1a(stored)); err != nil {
		return err
	}
	_, err = f.Write(stored)
	return err
}

// Load reads a connectome previously written by Save, verifying the
// magic number and checksum before decoding. Version 1 files (no flags
// byte, never compressed) load for backward compatibility.
func Load(path string) (*ConnectomeSnapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var gotMagic [5]byte
	if _, err := io.ReadFull(f, gotMagic[:]); err != nil {
		return nil, err
	}
	if gotMagic != magic {
		return nil, ErrInvalidMagic
	}

	version, err := readUint32LE(f)
	if err != nil {
		return nil, err
	}
	if version != formatVersion1 && version != formatVersion2 {
		return nil, ErrUnsupportedVersion
	}

	var compressed bool
	var uncompressedSize uint64
	if version == formatVersion2 {
		flagByte := make([]byte, 1)
		if _, err := io.ReadFull(f, flagByte); err != nil {
			return nil, err
		}
		compressed = flagByte[0]&flagCompressed != 0
		uncompressedSize, err = readUint64LE(f)
		if err != nil {
			return nil, err
		}
	}

	wantChecksum, err := readUint64LE(f)
	if err != nil {
		return nil, err
	}

	stored, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	if fnv1a(stored) != wantChecksum {
		return nil, ErrChecksumMismatch
	}

	payload := stored
	if compressed {
		r := lz4.NewReader(bytes.NewReader(stored))
		buf := make([]byte, 0, uncompressedSize)
		out := bytes.NewBuffer(buf)
		if _, err := io.Copy(out, r); err != nil {
			return nil, fmt.Errorf("snapshot: decompressing payload: %w", err)
		}
		payload = out.Bytes()
	}

	var snap ConnectomeSnapshot
	if err := msgpack.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("snapshot: decoding payload: %w", err)
	}
	return &snap, nil
}

// fnv1a matches the original format's hand-rolled FNV-1a exactly
// (same offset basis and prime as hash/fnv's New64a, used directly).
func fnv1a(data []byte) uint64 {
	h := fnv.New64a()
	h.Write(data)
	return h.Sum64()
}

func writeUint32LE(w io.Writer, v uint32) error {
	b := []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
	_, err := w.Write(b)
	return err
}

func writeUint64LE(w io.Writer, v uint64) error {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	_, err := w.Write(b)
	return err
}

func readUint32LE(r io.Reader) (uint32, error) {
	b := make([]byte, 4)
	if _, err := io.ReadFull(r, b); err != nil {
		return 0, err
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24, nil
}

func readUint64LE(r io.Reader) (uint64, error) {
	b := make([]byte, 8)
	if _, err := io.ReadFull(r, b); err != nil {
		return 0, err
	}
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v, nil
}

// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cortical implements the 8-byte CorticalID structured
// identifier and the I/O data-type configuration flag it carries for
// input/output areas.
package cortical

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strings"
)

// Length is the byte length of a CorticalID.
const Length = 8

// Type is the role a cortical area plays, dispatched from byte 0 of
// its CorticalID (the "sigil").
type Type int

const ( //enums:enum
	Custom Type = iota
	Memory
	Core
	Input
	Output
	Invalid
)

func sigilOf(t Type) byte {
	switch t {
	case Custom:
		return 'c'
	case Memory:
		return 'm'
	case Core:
		return '_'
	case Input:
		return 'i'
	case Output:
		return 'o'
	default:
		return 0
	}
}

func typeOfSigil(b byte) Type {
	switch b {
	case 'c':
		return Custom
	case 'm':
		return Memory
	case '_':
		return Core
	case 'i':
		return Input
	case 'o':
		return Output
	default:
		return Invalid
	}
}

// ID is the 8-byte structured cortical area identifier.
type ID [Length]byte

// FromBytes validates and wraps an 8-byte slice as an ID.
func FromBytes(b []byte) (ID, error) {
	var id ID
	if len(b) != Length {
		return id, fmt.Errorf("cortical: id must be %d bytes, got %d", Length, len(b))
	}
	copy(id[:], b)
	if typeOfSigil(id[0]) == Invalid {
		return id, fmt.Errorf("cortical: invalid role sigil %q", id[0])
	}
	return id, nil
}

// FromU64 decodes an ID from its big-endian u64 form.
func FromU64(u uint64) (ID, error) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], u)
	return FromBytes(b[:])
}

// FromBase64 decodes an ID from its standard-base64 string form.
func FromBase64(s string) (ID, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return ID{}, fmt.Errorf("cortical: invalid base64: %w", err)
	}
	if len(raw) != Length {
		return ID{}, fmt.Errorf("cortical: decoded base64 must be %d bytes, got %d", Length, len(raw))
	}
	return FromBytes(raw)
}

// AsBytes returns the raw 8 bytes of the id.
func (id ID) AsBytes() []byte {
	b := make([]byte, Length)
	copy(b, id[:])
	return b
}

// AsU64 encodes the id as a big-endian u64.
func (id ID) AsU64() uint64 {
	return binary.BigEndian.Uint64(id[:])
}

// AsBase64 encodes the id using standard base64 (12 characters, padded).
func (id ID) AsBase64() string {
	return base64.StdEncoding.EncodeToString(id[:])
}

// AsType dispatches the sigil byte to a Type.
func (id ID) AsType() Type {
	return typeOfSigil(id[0])
}

func (id ID) String() string {
	return id.AsBase64()
}

// ExtractSubtype returns the role-specific subtype carried in bytes 1-3,
// trimmed of trailing '_'/NUL padding and lower-cased. Only meaningful
// for Input/Output areas; returns false otherwise.
func (id ID) ExtractSubtype() (string, bool) {
	t := id.AsType()
	if t != Input && t != Output {
		return "", false
	}
	raw := string(id[1:4])
	raw = strings.TrimRight(raw, "_\x00")
	return strings.ToLower(raw), true
}

// ExtractUnitID returns the unit id encoded in byte 4: an ascii digit
// maps to its digit value, '_' or NUL maps to 0, anything else is
// unrepresentable and returns false. Only meaningful for Input/Output
// areas; returns false otherwise.
func (id ID) ExtractUnitID() (int, bool) {
	t := id.AsType()
	if t != Input && t != Output {
		return 0, false
	}
	b := id[4]
	if b == '_' || b == 0 {
		return 0, true
	}
	if b >= '0' && b <= '9' {
		return int(b - '0'), true
	}
	return 0, false
}

// ExtractGroupID returns the group id, currently defined to equal the
// unit id.
func (id ID) ExtractGroupID() (int, bool) {
	return id.ExtractUnitID()
}

// ExtractIODataFlag reads the little-endian u16 data-type configuration
// flag from bytes 4-5 and parses it. Only meaningful for Input/Output
// areas.
func (id ID) ExtractIODataFlag() (IOConfigFlag, error) {
	t := id.AsType()
	if t != Input && t != Output {
		return IOConfigFlag{}, fmt.Errorf("cortical: id is not an I/O area")
	}
	raw := binary.LittleEndian.Uint16(id[4:6])
	return ParseIOConfigFlag(raw)
}

// NewID builds a raw ID from a sigil and the remaining 7 bytes.
func NewID(t Type, rest [7]byte) ID {
	var id ID
	id[0] = sigilOf(t)
	copy(id[1:], rest[:])
	return id
}

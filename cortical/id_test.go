// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cortical

import (
	"encoding/base64"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func coreID(rest [7]byte) ID {
	return NewID(Core, rest)
}

func TestFromBytesRejectsWrongLength(t *testing.T) {
	_, err := FromBytes([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestFromBytesRejectsInvalidSigil(t *testing.T) {
	raw := make([]byte, Length)
	raw[0] = 'x'
	_, err := FromBytes(raw)
	assert.Error(t, err)
}

func TestU64RoundTrip(t *testing.T) {
	original := coreID([7]byte{'p', 'o', 'w', 'e', 'r', 0, 0})
	restored, err := FromU64(original.AsU64())
	require.NoError(t, err)
	assert.Equal(t, original, restored)
	assert.Equal(t, original.AsBytes(), restored.AsBytes())
}

func TestBase64RoundTrip(t *testing.T) {
	original := coreID([7]byte{'d', 'e', 'a', 't', 'h', 0, 0})
	restored, err := FromBase64(original.AsBase64())
	require.NoError(t, err)
	assert.Equal(t, original, restored)
	assert.Equal(t, original.AsBytes(), restored.AsBytes())
}

func TestBase64Length(t *testing.T) {
	s := coreID([7]byte{}).AsBase64()
	assert.GreaterOrEqual(t, len(s), 11)
	assert.LessOrEqual(t, len(s), 12)
}

func TestFromBase64RejectsInvalidBase64(t *testing.T) {
	_, err := FromBase64("not valid base64!")
	assert.Error(t, err)
}

func TestFromBase64RejectsWrongLength(t *testing.T) {
	short := base64.StdEncoding.EncodeToString([]byte{1, 2, 3, 4})
	_, err := FromBase64(short)
	assert.Error(t, err)
}

func TestAsTypeDispatchesSigil(t *testing.T) {
	cases := map[Type]byte{
		Custom: 'c',
		Memory: 'm',
		Core:   '_',
		Input:  'i',
		Output: 'o',
	}
	for typ, sigil := range cases {
		var id ID
		id[0] = sigil
		assert.Equal(t, typ, id.AsType(), "sigil %q", sigil)
	}
	var invalid ID
	invalid[0] = 'z'
	assert.Equal(t, Invalid, invalid.AsType())
}

func TestExtractSubtypeOnlyForIOAreas(t *testing.T) {
	var input ID
	input[0] = 'i'
	copy(input[1:4], "SVI")
	subtype, ok := input.ExtractSubtype()
	require.True(t, ok)
	assert.Equal(t, "svi", subtype)

	var padded ID
	padded[0] = 'o'
	copy(padded[1:4], "a_\x00")
	subtype, ok = padded.ExtractSubtype()
	require.True(t, ok)
	assert.Equal(t, "a", subtype)

	var custom ID
	custom[0] = 'c'
	_, ok = custom.ExtractSubtype()
	assert.False(t, ok)
}

func TestExtractUnitIDGatesOnSigil(t *testing.T) {
	var input ID
	input[0] = 'i'
	input[4] = '5'
	unit, ok := input.ExtractUnitID()
	require.True(t, ok)
	assert.Equal(t, 5, unit)

	input[4] = '_'
	unit, ok = input.ExtractUnitID()
	require.True(t, ok)
	assert.Equal(t, 0, unit)

	input[4] = 0
	unit, ok = input.ExtractUnitID()
	require.True(t, ok)
	assert.Equal(t, 0, unit)

	input[4] = 'x'
	_, ok = input.ExtractUnitID()
	assert.False(t, ok, "non-digit, non-sentinel byte is unrepresentable")

	var custom ID
	custom[0] = 'c'
	custom[4] = '5'
	_, ok = custom.ExtractUnitID()
	assert.False(t, ok, "unit id is only meaningful for Input/Output areas")
}

func TestExtractGroupIDEqualsUnitID(t *testing.T) {
	var output ID
	output[0] = 'o'
	output[4] = '7'
	unit, unitOK := output.ExtractUnitID()
	group, groupOK := output.ExtractGroupID()
	assert.Equal(t, unitOK, groupOK)
	assert.Equal(t, unit, group)
}

func TestExtractIODataFlagOnlyForIOAreas(t *testing.T) {
	var input ID
	input[0] = 'i'
	binary.LittleEndian.PutUint16(input[4:6], IOConfigFlag{Variant: Percentage2D, FrameChange: Incremental}.Pack())
	flag, err := input.ExtractIODataFlag()
	require.NoError(t, err)
	assert.Equal(t, Percentage2D, flag.Variant)
	assert.Equal(t, Incremental, flag.FrameChange)

	var custom ID
	custom[0] = 'c'
	_, err = custom.ExtractIODataFlag()
	assert.Error(t, err)
}

func TestNewIDBuildsExpectedBytes(t *testing.T) {
	id := NewID(Memory, [7]byte{1, 2, 3, 4, 5, 6, 7})
	assert.Equal(t, byte('m'), id[0])
	assert.Equal(t, ID{'m', 1, 2, 3, 4, 5, 6, 7}, id)
}

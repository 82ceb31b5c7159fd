// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cortical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIOConfigFlagRoundTripsThroughPack(t *testing.T) {
	for variant := Boolean; variant <= SignedPercentage4D; variant++ {
		for _, frame := range []FrameChangeHandling{Absolute, Incremental} {
			for _, pos := range []PercentageNeuronPositioning{Linear, Fractional} {
				want := IOConfigFlag{Variant: variant, FrameChange: frame, Positioning: pos}
				got, err := ParseIOConfigFlag(want.Pack())
				require.NoError(t, err)
				assert.Equal(t, want, got)
			}
		}
	}
}

func TestParseIOConfigFlagRejectsUnknownVariant(t *testing.T) {
	_, err := ParseIOConfigFlag(uint16(Misc) + 1)
	assert.Error(t, err)
}

func TestParseIOConfigFlagRejectsFractionalCartesianPlane(t *testing.T) {
	flag := IOConfigFlag{Variant: CartesianPlane, Positioning: Fractional}
	_, err := ParseIOConfigFlag(flag.Pack())
	assert.Error(t, err)
}

func TestParseIOConfigFlagRejectsFractionalMisc(t *testing.T) {
	flag := IOConfigFlag{Variant: Misc, Positioning: Fractional}
	_, err := ParseIOConfigFlag(flag.Pack())
	assert.Error(t, err)
}

func TestParseIOConfigFlagAcceptsLinearCartesianPlaneAndMisc(t *testing.T) {
	for _, variant := range []Variant{CartesianPlane, Misc} {
		flag := IOConfigFlag{Variant: variant, Positioning: Linear}
		got, err := ParseIOConfigFlag(flag.Pack())
		require.NoError(t, err)
		assert.Equal(t, variant, got.Variant)
		assert.Equal(t, Linear, got.Positioning)
	}
}

func TestPackSetsExpectedBits(t *testing.T) {
	flag := IOConfigFlag{Variant: SignedPercentage3D, FrameChange: Incremental, Positioning: Fractional}
	raw := flag.Pack()
	assert.Equal(t, uint16(SignedPercentage3D), raw&0xFF)
	assert.Equal(t, uint16(1), (raw>>8)&0x01)
	assert.Equal(t, uint16(1), (raw>>9)&0x01)
}

// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package neural

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestF32SaturatingAdd(t *testing.T) {
	v := F32(0.5)
	v = v.SaturatingAdd(F32(0.3))
	assert.InDelta(t, 0.8, float32(v), 1e-6)
}

func TestF32MulLeak(t *testing.T) {
	v := F32(1.0)
	v = v.MulLeak(0.5)
	assert.InDelta(t, 0.5, float32(v), 1e-6)
}

func TestF32Compare(t *testing.T) {
	assert.True(t, F32(1.0).Ge(F32(1.0)))
	assert.False(t, F32(0.9).Ge(F32(1.0)))
	assert.True(t, F32(0.9).Lt(F32(1.0)))
}

func TestInt8RoundTrip(t *testing.T) {
	v := FromF32(4.0)
	got := v.ToF32()
	assert.InDelta(t, 4.0, got, 0.1)
}

func TestInt8SaturatingAddClamps(t *testing.T) {
	v := Int8(120)
	v = v.SaturatingAdd(Int8(50))
	assert.Equal(t, Int8(127), v)

	v = Int8(-120)
	v = v.SaturatingAdd(Int8(-50))
	assert.Equal(t, Int8(-128), v)
}

func TestInt8Contribution(t *testing.T) {
	c := Int8Contribution(255, 255, 1)
	assert.Equal(t, Int8(127), c)
	c = Int8Contribution(255, 255, -1)
	assert.Equal(t, Int8(-127), c)
}

func TestF32Contribution(t *testing.T) {
	c := F32Contribution(128, 255, 1)
	assert.InDelta(t, 0.5019608, float32(c), 1e-4)
}

// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package neural

import "cogentcore.org/core/math32"

// F32 is the native-precision membrane potential representation.
type F32 float32

var _ Value[F32] = F32(0)

// Zero implements Value.
func (v F32) Zero() F32 { return 0 }

// SaturatingAdd implements Value. float32 addition does not wrap, so
// this simply clamps to +/-MaxFloat32 in case of overflow to inf.
func (v F32) SaturatingAdd(other F32) F32 {
	sum := float32(v) + float32(other)
	if math32.IsInf(sum, 1) {
		return F32(math32.MaxFloat32)
	}
	if math32.IsInf(sum, -1) {
		return F32(-math32.MaxFloat32)
	}
	return F32(sum)
}

// MulLeak implements Value.
func (v F32) MulLeak(leak float32) F32 {
	return F32(float32(v) * (1 - leak))
}

// Ge implements Value.
func (v F32) Ge(other F32) bool { return v >= other }

// Lt implements Value.
func (v F32) Lt(other F32) bool { return v < other }

// F32Contribution scales a synapse's u8 weight and u8 PSP into an F32
// membrane-potential delta: weight/255 * psp/255 * sign.
func F32Contribution(weight, psp uint8, sign int8) F32 {
	w := float32(weight) / 255.0
	p := float32(psp) / 255.0
	return F32(w * p * float32(sign))
}

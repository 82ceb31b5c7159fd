// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package neural

// Int8ScaleRange is the fixed global range mapped onto [-128,127].
// The original implementation left the int8 quantization scale an open
// question (several of its tests are gated off pending a better
// mapping); this repo fixes a coarse global range rather than a dynamic
// per-area one, and documents saturation instead of silent truncation
// (see DESIGN.md Open Questions).
const Int8ScaleRange = 8.0

// Int8 is the quantized membrane potential representation: a signed
// byte whose value maps linearly onto [-Int8ScaleRange, +Int8ScaleRange].
type Int8 int8

var _ Value[Int8] = Int8(0)

// FromF32 quantizes a float32 onto the Int8 representation, saturating
// rather than wrapping if f falls outside the representable range.
func FromF32(f float32) Int8 {
	scaled := f / Int8ScaleRange * 127.0
	if scaled > 127 {
		return 127
	}
	if scaled < -128 {
		return -128
	}
	return Int8(scaled)
}

// ToF32 dequantizes the receiver back to float32.
func (v Int8) ToF32() float32 {
	return float32(v) / 127.0 * Int8ScaleRange
}

// Zero implements Value.
func (v Int8) Zero() Int8 { return 0 }

// SaturatingAdd implements Value, clamping at the int8 range.
func (v Int8) SaturatingAdd(other Int8) Int8 {
	sum := int16(v) + int16(other)
	if sum > 127 {
		return 127
	}
	if sum < -128 {
		return -128
	}
	return Int8(sum)
}

// MulLeak implements Value. Leak is always carried as f32; the
// multiplication happens in float space and is re-quantized, which is
// the source of the int8 path's acknowledged precision loss.
func (v Int8) MulLeak(leak float32) Int8 {
	return FromF32(v.ToF32() * (1 - leak))
}

// Ge implements Value. The quantization scale is a positive affine
// map, so raw int8 ordering matches dequantized ordering.
func (v Int8) Ge(other Int8) bool { return v >= other }

// Lt implements Value.
func (v Int8) Lt(other Int8) bool { return v < other }

// Int8Contribution scales a synapse's u8 weight and u8 PSP into an
// Int8 membrane-potential delta, saturating at the representable range.
func Int8Contribution(weight, psp uint8, sign int8) Int8 {
	w := float32(weight) / 255.0
	p := float32(psp) / 255.0
	return FromF32(w * p * float32(sign) * Int8ScaleRange)
}

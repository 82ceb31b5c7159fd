// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package neural provides the numeric capability set membrane dynamics
// are built on, so that the rest of the connectome (neuron storage,
// propagation, dynamics) can be generic over the precision of the
// membrane potential -- native float32 or an 8-bit quantized
// representation -- without a subtype hierarchy.
package neural

// Value is the capability set required of a membrane-potential
// representation. Leak is always applied as f32 regardless of T; only
// the add/compare/reset operations are generic.
type Value[T any] interface {
	// Zero returns the reset value used after a neuron fires.
	Zero() T

	// SaturatingAdd adds other to the receiver, saturating at the
	// representable range rather than wrapping.
	SaturatingAdd(other T) T

	// MulLeak multiplies the receiver by (1 - leak), leak in [0,1].
	MulLeak(leak float32) T

	// Ge reports whether the receiver is greater than or equal to other.
	Ge(other T) bool

	// Lt reports whether the receiver is strictly less than other.
	Lt(other T) bool
}

// Contribution converts a synapse's quantized weight/PSP/sign into a
// membrane-potential delta of type T. The exact scale factor is
// implementation-defined per T (see F32Contribution, Int8Contribution).
type Contribution[T any] func(weight, psp uint8, sign int8) T

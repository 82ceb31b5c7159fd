// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cortical

import "github.com/feagi/feagi-core-sub006/ids"

// Dims is a 3D cortical area extent (width, height, depth).
type Dims [3]uint32

// Coord is a 3D coordinate within a cortical area.
type Coord [3]uint32

// Contains reports whether c lies within d on every axis.
func (d Dims) Contains(c Coord) bool {
	return c[0] < d[0] && c[1] < d[1] && c[2] < d[2]
}

// Area describes one cortical area: its structured id, its tag,
// dimensions, position, role, and free-form properties.
type Area struct {
	ID         ID
	Idx        ids.CorticalAreaId
	Name       string
	Dimensions Dims
	Position   [3]int32
	Type       Type
	Properties map[string]string
}

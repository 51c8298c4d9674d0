// Package glinst builds the per-instance vertex attribute buffers of sphere and
// cylinder impostors along with the base meshes they are instanced over.
package glinst

import (
	"fmt"

	"github.com/soypat/geometry/ms3"
)

// Attribute sizes in float32 components.
const (
	OffsetSize = 4
	ColorSize  = 3
	RowSize    = 4
)

// Attribute is a named float32 vertex attribute ready for upload.
type Attribute struct {
	Name string
	// Size is the number of components per vertex or instance.
	Size int
	// Divisor is 0 for per-vertex attributes and 1 for per-instance attributes.
	Divisor int
	Data    []float32
}

// Len returns the amount of vertices or instances held by the attribute.
func (a Attribute) Len() int {
	if a.Size == 0 {
		return 0
	}
	return len(a.Data) / a.Size
}

func setXYZ(dst []float32, i int, v ms3.Vec) {
	dst[i] = v.X
	dst[i+1] = v.Y
	dst[i+2] = v.Z
}

func checkIndex(i, n int) error {
	if i < 0 || i >= n {
		return fmt.Errorf("instance index %d out of range [0,%d)", i, n)
	}
	return nil
}

func unionBox(bb ms3.Box, empty bool, other ms3.Box) ms3.Box {
	if empty {
		return other
	}
	return bb.Union(other)
}

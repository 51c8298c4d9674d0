package glinst

import (
	"fmt"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glimp"
)

// Spheres holds the offset (center and radius) and color attributes of sphere instances.
type Spheres struct {
	offsets []float32
	colors  []float32
}

// NewSpheres returns a buffer of n spheres with zero radius. Set them with [Spheres.SetItem].
func NewSpheres(n int) *Spheres {
	return &Spheres{
		offsets: make([]float32, n*OffsetSize),
		colors:  make([]float32, n*ColorSize),
	}
}

// Len returns the number of spheres in the buffer.
func (s *Spheres) Len() int { return len(s.offsets) / OffsetSize }

// SetItem sets the i'th sphere.
func (s *Spheres) SetItem(i int, center ms3.Vec, radius float32, c glimp.Color) error {
	if err := checkIndex(i, s.Len()); err != nil {
		return err
	}
	if !(radius > 0) {
		return fmt.Errorf("sphere %d: %w: %g", i, glimp.ErrInvalidRadius, radius)
	}
	off := glimp.SphereOffset(center, radius)
	copy(s.offsets[i*OffsetSize:], off[:])
	col := c.Array()
	copy(s.colors[i*ColorSize:], col[:])
	return nil
}

// Item returns the i'th sphere.
func (s *Spheres) Item(i int) (center ms3.Vec, radius float32, c glimp.Color) {
	o := s.offsets[i*OffsetSize : i*OffsetSize+OffsetSize]
	col := s.colors[i*ColorSize : i*ColorSize+ColorSize]
	return ms3.Vec{X: o[0], Y: o[1], Z: o[2]}, o[3], glimp.Color{R: col[0], G: col[1], B: col[2]}
}

// Append adds a sphere at the end of the buffer.
func (s *Spheres) Append(center ms3.Vec, radius float32, c glimp.Color) error {
	if !(radius > 0) {
		return fmt.Errorf("sphere %d: %w: %g", s.Len(), glimp.ErrInvalidRadius, radius)
	}
	off := glimp.SphereOffset(center, radius)
	s.offsets = append(s.offsets, off[:]...)
	s.colors = append(s.colors, c.R, c.G, c.B)
	return nil
}

// AppendChain appends count spheres evenly spaced on the segment from p0 towards p1.
// The first sphere sits on p0 and the last one a step short of p1 so chains
// sharing endpoints do not overlap.
func (s *Spheres) AppendChain(p0, p1 ms3.Vec, count int, radius float32, c glimp.Color) error {
	if count <= 0 {
		return fmt.Errorf("bad sphere chain count %d", count)
	}
	for j := 0; j < count; j++ {
		t := float32(j) / float32(count)
		p := ms3.Add(ms3.Scale(1-t, p0), ms3.Scale(t, p1))
		err := s.Append(p, radius, c)
		if err != nil {
			return err
		}
	}
	return nil
}

// Attributes returns the per-instance attributes offset and color. The data is shared with s.
func (s *Spheres) Attributes() []Attribute {
	return []Attribute{
		{Name: "offset", Size: OffsetSize, Divisor: 1, Data: s.offsets},
		{Name: "color", Size: ColorSize, Divisor: 1, Data: s.colors},
	}
}

// Bounds returns the box enclosing all spheres.
func (s *Spheres) Bounds() ms3.Box {
	var bb ms3.Box
	for i := 0; i < s.Len(); i++ {
		c, r, _ := s.Item(i)
		rv := ms3.Vec{X: r, Y: r, Z: r}
		bb = unionBox(bb, i == 0, ms3.Box{Min: ms3.Sub(c, rv), Max: ms3.Add(c, rv)})
	}
	return bb
}

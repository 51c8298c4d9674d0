package glinst

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// Mesh is a non-indexed triangle list with per-vertex normals, drawn with GL_TRIANGLES.
type Mesh struct {
	Positions []float32
	Normals   []float32
}

// Len returns the number of vertices in the mesh.
func (m *Mesh) Len() int { return len(m.Positions) / 3 }

// Attributes returns the per-vertex attributes position and normal.
func (m *Mesh) Attributes() []Attribute {
	return []Attribute{
		{Name: "position", Size: 3, Data: m.Positions},
		{Name: "normal", Size: 3, Data: m.Normals},
	}
}

func (m *Mesh) appendTriangle(a, b, c, na, nb, nc ms3.Vec) {
	m.Positions = append(m.Positions, a.X, a.Y, a.Z, b.X, b.Y, b.Z, c.X, c.Y, c.Z)
	m.Normals = append(m.Normals, na.X, na.Y, na.Z, nb.X, nb.Y, nb.Z, nc.X, nc.Y, nc.Z)
}

func (m *Mesh) appendQuad(a, b, c, d, n ms3.Vec) {
	m.appendTriangle(a, b, c, n, n, n)
	m.appendTriangle(a, c, d, n, n, n)
}

// Quad returns the 2x2 quad in the XY plane facing +Z. It is the proxy geometry
// of sphere sprites, which place it in front of the sphere facing the camera.
func Quad() *Mesh {
	m := &Mesh{}
	n := ms3.Vec{Z: 1}
	m.appendQuad(ms3.Vec{X: -1, Y: -1}, ms3.Vec{X: 1, Y: -1}, ms3.Vec{X: 1, Y: 1}, ms3.Vec{X: -1, Y: 1}, n)
	return m
}

// Box returns the box with the given bounds with outward facing triangles.
func Box(bb ms3.Box) *Mesh {
	m := &Mesh{}
	lo, hi := bb.Min, bb.Max
	// Corners indexed by bits: X=1, Y=2, Z=4.
	var c [8]ms3.Vec
	for i := range c {
		c[i] = lo
		if i&1 != 0 {
			c[i].X = hi.X
		}
		if i&2 != 0 {
			c[i].Y = hi.Y
		}
		if i&4 != 0 {
			c[i].Z = hi.Z
		}
	}
	m.appendQuad(c[1], c[3], c[7], c[5], ms3.Vec{X: 1})  // +X
	m.appendQuad(c[0], c[4], c[6], c[2], ms3.Vec{X: -1}) // -X
	m.appendQuad(c[2], c[6], c[7], c[3], ms3.Vec{Y: 1})  // +Y
	m.appendQuad(c[0], c[1], c[5], c[4], ms3.Vec{Y: -1}) // -Y
	m.appendQuad(c[4], c[5], c[7], c[6], ms3.Vec{Z: 1})  // +Z
	m.appendQuad(c[0], c[2], c[3], c[1], ms3.Vec{Z: -1}) // -Z
	return m
}

// UnitCylinderBox returns the box enclosing the unit cylinder, the proxy geometry
// of cylinder sprites. Its instance transform places it around each cylinder.
func UnitCylinderBox() *Mesh {
	return Box(ms3.Box{Min: ms3.Vec{X: -1, Y: -0.5, Z: -1}, Max: ms3.Vec{X: 1, Y: 0.5, Z: 1}})
}

// UVSphere returns a unit sphere tessellated in slices around Y and stacks from pole to pole.
func UVSphere(slices, stacks int) *Mesh {
	slices = max(slices, 3)
	stacks = max(stacks, 2)
	m := &Mesh{}
	point := func(i, j int) ms3.Vec {
		theta := 2 * math32.Pi * float32(i) / float32(slices)
		phi := math32.Pi * float32(j) / float32(stacks)
		sp, cp := math32.Sincos(phi)
		st, ct := math32.Sincos(theta)
		return ms3.Vec{X: sp * st, Y: cp, Z: sp * ct}
	}
	for j := 0; j < stacks; j++ {
		for i := 0; i < slices; i++ {
			a, b := point(i, j), point(i, j+1)
			c, d := point(i+1, j+1), point(i+1, j)
			if j != 0 {
				m.appendTriangle(a, b, d, a, b, d)
			}
			if j != stacks-1 {
				m.appendTriangle(b, c, d, b, c, d)
			}
		}
	}
	return m
}

// OpenCylinder returns the side of the unit cylinder (radius 1, y in [-0.5,0.5]) without caps.
func OpenCylinder(segments int) *Mesh {
	segments = max(segments, 3)
	m := &Mesh{}
	for i := 0; i < segments; i++ {
		s0, c0 := math32.Sincos(2 * math32.Pi * float32(i) / float32(segments))
		s1, c1 := math32.Sincos(2 * math32.Pi * float32(i+1) / float32(segments))
		n0 := ms3.Vec{X: s0, Z: c0}
		n1 := ms3.Vec{X: s1, Z: c1}
		b0, t0 := ms3.Vec{X: s0, Y: -0.5, Z: c0}, ms3.Vec{X: s0, Y: 0.5, Z: c0}
		b1, t1 := ms3.Vec{X: s1, Y: -0.5, Z: c1}, ms3.Vec{X: s1, Y: 0.5, Z: c1}
		m.appendTriangle(b0, b1, t1, n0, n1, n1)
		m.appendTriangle(b0, t1, t0, n0, n1, n0)
	}
	return m
}

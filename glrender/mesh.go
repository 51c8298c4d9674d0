package glrender

import (
	"errors"
	"io"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glimp"
	"github.com/soypat/glimp/glinst"
)

// MeshConfig sets the tessellation of meshed instances.
type MeshConfig struct {
	SphereSlices     int
	SphereStacks     int
	CylinderSegments int
}

// DefaultMeshConfig returns a tessellation fine enough for visual inspection of exported scenes.
func DefaultMeshConfig() MeshConfig {
	return MeshConfig{SphereSlices: 16, SphereStacks: 8, CylinderSegments: 16}
}

// MeshRenderer tessellates every instance of a scene into closed triangle meshes.
// Spheres are read first, then cylinders.
type MeshRenderer struct {
	scene    Scene
	sphere   []ms3.Triangle
	cylinder []ms3.Triangle
	next     int
	// pending holds the unread triangles of the last tessellated instance.
	pending []ms3.Triangle
	scratch []ms3.Triangle
}

// NewMeshRenderer returns a renderer of the scene's instances.
func NewMeshRenderer(s Scene, cfg MeshConfig) (*MeshRenderer, error) {
	if cfg.SphereSlices < 3 || cfg.SphereStacks < 2 || cfg.CylinderSegments < 3 {
		return nil, errors.New("mesh tessellation too coarse")
	}
	mr := &MeshRenderer{
		scene:    s,
		sphere:   meshTriangles(nil, glinst.UVSphere(cfg.SphereSlices, cfg.SphereStacks)),
		cylinder: cappedCylinder(cfg.CylinderSegments),
	}
	mr.scratch = make([]ms3.Triangle, 0, max(len(mr.sphere), len(mr.cylinder)))
	return mr, nil
}

// TotalTriangles returns the amount of triangles read from a fresh renderer.
func (mr *MeshRenderer) TotalTriangles() int {
	return mr.scene.numSpheres()*len(mr.sphere) + mr.scene.numCylinders()*len(mr.cylinder)
}

// Reset rewinds the renderer to the first instance.
func (mr *MeshRenderer) Reset() {
	mr.next = 0
	mr.pending = nil
}

// ReadTriangles implements [Renderer]. It returns io.EOF once all instances are read.
func (mr *MeshRenderer) ReadTriangles(dst []ms3.Triangle, userData any) (n int, err error) {
	ns, nc := mr.scene.numSpheres(), mr.scene.numCylinders()
	for n < len(dst) {
		if len(mr.pending) == 0 {
			switch {
			case mr.next < ns:
				mr.pending = mr.tessellateSphere(mr.next)
			case mr.next < ns+nc:
				mr.pending = mr.tessellateCylinder(mr.next - ns)
			default:
				return n, io.EOF
			}
			mr.next++
		}
		copied := copy(dst[n:], mr.pending)
		mr.pending = mr.pending[copied:]
		n += copied
	}
	return n, nil
}

func (mr *MeshRenderer) tessellateSphere(i int) []ms3.Triangle {
	c, r, _ := mr.scene.Spheres.Item(i)
	out := mr.scratch[:0]
	for _, t := range mr.sphere {
		out = append(out, ms3.Triangle{
			ms3.Add(c, ms3.Scale(r, t[0])),
			ms3.Add(c, ms3.Scale(r, t[1])),
			ms3.Add(c, ms3.Scale(r, t[2])),
		})
	}
	return out
}

func (mr *MeshRenderer) tessellateCylinder(i int) []ms3.Triangle {
	m := mr.scene.Cylinders.Transform(i)
	out := mr.scratch[:0]
	for _, t := range mr.cylinder {
		out = append(out, ms3.Triangle{
			glimp.TransformPosition(m, t[0]),
			glimp.TransformPosition(m, t[1]),
			glimp.TransformPosition(m, t[2]),
		})
	}
	return out
}

func meshTriangles(dst []ms3.Triangle, m *glinst.Mesh) []ms3.Triangle {
	p := m.Positions
	for i := 0; i+9 <= len(p); i += 9 {
		dst = append(dst, ms3.Triangle{
			{X: p[i], Y: p[i+1], Z: p[i+2]},
			{X: p[i+3], Y: p[i+4], Z: p[i+5]},
			{X: p[i+6], Y: p[i+7], Z: p[i+8]},
		})
	}
	return dst
}

// cappedCylinder returns the closed unit cylinder: radius 1 around Y spanning y in [-0.5,0.5].
func cappedCylinder(segments int) []ms3.Triangle {
	tris := meshTriangles(nil, glinst.OpenCylinder(segments))
	top, bottom := ms3.Vec{Y: 0.5}, ms3.Vec{Y: -0.5}
	for i := 0; i < segments; i++ {
		s0, c0 := math32.Sincos(2 * math32.Pi * float32(i) / float32(segments))
		s1, c1 := math32.Sincos(2 * math32.Pi * float32(i+1) / float32(segments))
		tris = append(tris,
			ms3.Triangle{top, {X: s0, Y: 0.5, Z: c0}, {X: s1, Y: 0.5, Z: c1}},
			ms3.Triangle{bottom, {X: s1, Y: -0.5, Z: c1}, {X: s0, Y: -0.5, Z: c0}},
		)
	}
	return tris
}

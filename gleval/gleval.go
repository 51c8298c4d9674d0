// Package gleval evaluates sphere and cylinder impostors on the CPU: ray
// intersections matching the impostor fragment shader and signed distance
// fields over instance buffers.
package gleval

import (
	"errors"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glimp"
)

// SDF3 implements a 3D signed distance field in vectorized form.
type SDF3 interface {
	// Evaluate evaluates the signed distance field over pos positions.
	// dist and pos must be of same length.  Resulting distances are stored
	// in dist.
	Evaluate(pos []ms3.Vec, dist []float32, userData any) error
	// Bounds returns the SDF's bounding box such that all of the shape is contained within.
	Bounds() ms3.Box
}

var (
	errEmptyBuffers         = errors.New("empty buffers")
	errMismatchBufferLength = errors.New("position and distance buffer length mismatch")
	errNoInverse            = errors.New("cylinder buffer built without inverse transforms")
)

// Ray is a half line starting at Origin. Dir need not be normalized; ray parameters
// are measured in units of Dir.
type Ray struct {
	Origin ms3.Vec
	Dir    ms3.Vec
}

// At returns the point of the ray at parameter t.
func (r Ray) At(t float32) ms3.Vec {
	return ms3.Add(r.Origin, ms3.Scale(t, r.Dir))
}

// Transform returns the ray with origin and direction transformed by the affine transform m.
// Ray parameters are preserved: r.Transform(m).At(t) equals m applied to r.At(t).
func (r Ray) Transform(m ms3.Mat4) Ray {
	return Ray{
		Origin: glimp.TransformPosition(m, r.Origin),
		Dir:    glimp.TransformDirection(m, r.Dir),
	}
}

// RaySphere returns the smallest non-negative parameter at which ray hits the sphere.
func RaySphere(center ms3.Vec, radius float32, ray Ray) (t float32, ok bool) {
	oc := ms3.Sub(ray.Origin, center)
	a := ms3.Dot(ray.Dir, ray.Dir)
	if a == 0 {
		return 0, false
	}
	b := ms3.Dot(oc, ray.Dir)
	c := ms3.Dot(oc, oc) - radius*radius
	h := b*b - a*c
	if h < 0 {
		return 0, false
	}
	h = math32.Sqrt(h)
	t = (-b - h) / a
	if t < 0 {
		t = (-b + h) / a
	}
	return t, t >= 0
}

// RayUnitCylinder intersects ray with the capped unit cylinder of radius 1 around Y
// spanning y in [-0.5, 0.5]. Only surfaces facing the ray origin are hit, as in
// the impostor fragment shader. The returned normal is in local space and not normalized.
func RayUnitCylinder(ray Ray) (t float32, normal ms3.Vec, ok bool) {
	const eps = 1e-12
	ro, rd := ray.Origin, ray.Dir
	t = -1
	a := rd.X*rd.X + rd.Z*rd.Z
	if a > eps {
		b := ro.X*rd.X + ro.Z*rd.Z
		c := ro.X*ro.X + ro.Z*ro.Z - 1
		h := b*b - a*c
		if h >= 0 {
			ts := (-b - math32.Sqrt(h)) / a
			if ts >= 0 && math32.Abs(ro.Y+ts*rd.Y) <= 0.5 {
				t = ts
				normal = ms3.Vec{X: ro.X + ts*rd.X, Z: ro.Z + ts*rd.Z}
			}
		}
	}
	if math32.Abs(rd.Y) > eps {
		for _, cy := range [2]float32{-0.5, 0.5} {
			tc := (cy - ro.Y) / rd.Y
			p := ray.At(tc)
			if tc >= 0 && p.X*p.X+p.Z*p.Z <= 1 && (t < 0 || tc < t) {
				t = tc
				normal = ms3.Vec{Y: 2 * cy}
			}
		}
	}
	return t, normal, t >= 0
}

// RayCylinder intersects ray with the cylinder whose inverse transform is inv,
// as stored in the invmatVector attributes. The parameter t is valid for ray
// and normal is the unit world space normal at the hit.
func RayCylinder(inv ms3.Mat4, ray Ray) (t float32, normal ms3.Vec, ok bool) {
	t, nLocal, ok := RayUnitCylinder(ray.Transform(inv))
	if !ok {
		return 0, ms3.Vec{}, false
	}
	// Normals transform by the inverse transpose of the transform.
	a := inv.Array()
	normal = ms3.Vec{
		X: a[0]*nLocal.X + a[4]*nLocal.Y + a[8]*nLocal.Z,
		Y: a[1]*nLocal.X + a[5]*nLocal.Y + a[9]*nLocal.Z,
		Z: a[2]*nLocal.X + a[6]*nLocal.Y + a[10]*nLocal.Z,
	}
	return t, ms3.Unit(normal), true
}

// NormalsCentralDiff uses central differences algorithm for normal calculation, which are stored in normals for each position.
// The returned normals are not normalized (converted to unit length).
func NormalsCentralDiff(s SDF3, pos []ms3.Vec, normals []ms3.Vec, step float32, userData any) error {
	step *= 0.5
	if step <= 0 {
		return errors.New("invalid step")
	} else if len(pos) != len(normals) {
		return errors.New("length of position must match length of normals")
	} else if s == nil {
		return errors.New("nil SDF3")
	} else if len(pos) == 0 {
		return errEmptyBuffers
	}
	d1 := make([]float32, len(pos))
	d2 := make([]float32, len(pos))
	auxPos := make([]ms3.Vec, len(pos))
	var vecs = [3]ms3.Vec{{X: step}, {Y: step}, {Z: step}}
	for dim := 0; dim < 3; dim++ {
		h := vecs[dim]
		for i, p := range pos {
			auxPos[i] = ms3.Add(p, h)
		}
		err := s.Evaluate(auxPos, d1, userData)
		if err != nil {
			return err
		}
		for i, p := range pos {
			auxPos[i] = ms3.Sub(p, h)
		}
		err = s.Evaluate(auxPos, d2, userData)
		if err != nil {
			return err
		}

		switch dim {
		case 0:
			for i, d := range d1 {
				normals[i].X = d - d2[i]
			}
		case 1:
			for i, d := range d1 {
				normals[i].Y = d - d2[i]
			}
		case 2:
			for i, d := range d1 {
				normals[i].Z = d - d2[i]
			}
		}
	}
	return nil
}

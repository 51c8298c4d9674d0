package gleval

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glimp/glinst"
)

// Hit is the nearest impostor hit by a ray.
type Hit struct {
	// Index is the instance index within its buffer.
	Index int
	// T is the ray parameter of the hit point.
	T float32
	// Normal is the unit world space surface normal at the hit point.
	Normal ms3.Vec
}

// PickSpheres returns the sphere of s nearest to the ray origin along ray.
func PickSpheres(s *glinst.Spheres, ray Ray) (hit Hit, ok bool) {
	for i := 0; i < s.Len(); i++ {
		c, r, _ := s.Item(i)
		t, hitSphere := RaySphere(c, r, ray)
		if !hitSphere || (ok && t >= hit.T) {
			continue
		}
		ok = true
		hit = Hit{Index: i, T: t, Normal: ms3.Scale(1/r, ms3.Sub(ray.At(t), c))}
	}
	return hit, ok
}

// PickCylinders returns the cylinder of c nearest to the ray origin along ray.
// c must have been built with inverse transforms.
func PickCylinders(c *glinst.Cylinders, ray Ray) (hit Hit, ok bool, err error) {
	if !c.HasInverse() {
		return Hit{}, false, errNoInverse
	}
	for i := 0; i < c.Len(); i++ {
		t, n, hitCyl := RayCylinder(c.InverseTransform(i), ray)
		if !hitCyl || (ok && t >= hit.T) {
			continue
		}
		ok = true
		hit = Hit{Index: i, T: t, Normal: n}
	}
	return hit, ok, nil
}

// SpheresSDF is the signed distance field of the union of all spheres in a buffer.
type SpheresSDF struct {
	Spheres *glinst.Spheres
}

// Evaluate implements [SDF3].
func (s SpheresSDF) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	if len(pos) != len(dist) {
		return errMismatchBufferLength
	} else if len(pos) == 0 || s.Spheres.Len() == 0 {
		return errEmptyBuffers
	}
	for i := range dist {
		dist[i] = math32.Inf(1)
	}
	for k := 0; k < s.Spheres.Len(); k++ {
		c, r, _ := s.Spheres.Item(k)
		for i, p := range pos {
			dist[i] = math32.Min(dist[i], ms3.Norm(ms3.Sub(p, c))-r)
		}
	}
	return nil
}

// Bounds implements [SDF3].
func (s SpheresSDF) Bounds() ms3.Box { return s.Spheres.Bounds() }

// CylindersSDF is the signed distance field of the union of all capped cylinders in a buffer.
type CylindersSDF struct {
	Cylinders *glinst.Cylinders
}

// Evaluate implements [SDF3].
func (s CylindersSDF) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	if len(pos) != len(dist) {
		return errMismatchBufferLength
	} else if len(pos) == 0 || s.Cylinders.Len() == 0 {
		return errEmptyBuffers
	}
	for i := range dist {
		dist[i] = math32.Inf(1)
	}
	for k := 0; k < s.Cylinders.Len(); k++ {
		cyl := s.Cylinders.Item(k)
		a, r := cyl.Bottom, cyl.Radius
		ba := ms3.Sub(cyl.Top, a)
		baba := ms3.Dot(ba, ba)
		for i, p := range pos {
			pa := ms3.Sub(p, a)
			paba := ms3.Dot(pa, ba)
			x := ms3.Norm(ms3.Sub(ms3.Scale(baba, pa), ms3.Scale(paba, ba))) - r*baba
			y := math32.Abs(paba-baba*0.5) - baba*0.5
			x2 := x * x
			y2 := y * y * baba
			var d float32
			if math32.Max(x, y) < 0 {
				d = -math32.Min(x2, y2)
			} else {
				if x > 0 {
					d += x2
				}
				if y > 0 {
					d += y2
				}
			}
			sd := math32.Sqrt(math32.Abs(d)) / baba
			if d < 0 {
				sd = -sd
			}
			dist[i] = math32.Min(dist[i], sd)
		}
	}
	return nil
}

// Bounds implements [SDF3].
func (s CylindersSDF) Bounds() ms3.Box { return s.Cylinders.Bounds() }

package glimp

import (
	"fmt"

	"github.com/soypat/geometry/ms3"
)

// Cylinder is a cylinder impostor instance spanning Bottom to Top.
type Cylinder struct {
	Bottom, Top ms3.Vec
	Radius      float32
}

// Transform returns the world transform of c and, if wantInverse is set, its inverse.
func (c Cylinder) Transform(wantInverse bool) (t, inv ms3.Mat4, err error) {
	return CylinderTransform(c.Bottom, c.Top, c.Radius, wantInverse)
}

// CylinderTransform returns the transform placing the unit cylinder between bottom and top.
// The unit cylinder has radius 1 and spans y in [-0.5, 0.5] so its local +Y axis ends
// up pointing from bottom to top. The inverse transform is only calculated when wantInverse
// is set, as needed by ray traced cylinder impostors; otherwise inv is the zero matrix.
//
// Coincident endpoints return [ErrDegenerateSegment] regardless of radius.
func CylinderTransform(bottom, top ms3.Vec, radius float32, wantInverse bool) (t, inv ms3.Mat4, err error) {
	axis := ms3.Sub(top, bottom)
	height := ms3.Norm(axis)
	if !(height > 0) || !isFinite(height) {
		return t, inv, fmt.Errorf("%w: bottom %v top %v", ErrDegenerateSegment, bottom, top)
	}
	if !(radius > 0) || !isFinite(radius) {
		return t, inv, fmt.Errorf("%w: %g", ErrInvalidRadius, radius)
	}
	center := ms3.Scale(0.5, ms3.Add(bottom, top))
	dir := ms3.Scale(1/height, axis)

	rot := lookAtRotation(dir, ms3.Vec{Y: 1})
	t = ms3.MulMat4(rot, rotX90)
	t = ms3.MulMat4(t, ms3.ScalingMat4(ms3.Vec{X: radius, Y: height, Z: radius}))
	t = ms3.MulMat4(translationMat4(center), t)
	if wantInverse {
		inv, err = invertible(t)
		if err != nil {
			return ms3.Mat4{}, ms3.Mat4{}, fmt.Errorf("cylinder %v-%v: %w", bottom, top, err)
		}
	}
	return t, inv, nil
}

// rotX90 is a quarter turn about X. It takes the look-at forward axis (Z) onto the cylinder axis (Y).
var rotX90 = ms3.NewMat4([]float32{
	1, 0, 0, 0,
	0, 0, -1, 0,
	0, 1, 0, 0,
	0, 0, 0, 1,
})

// lookAtRotation returns the rotation whose Z column is forward. The X and Y columns
// are built from the up reference, which is swapped for another axis when parallel to forward.
// forward must be normalized.
func lookAtRotation(forward, up ms3.Vec) ms3.Mat4 {
	x := ms3.Cross(up, forward)
	if ms3.Norm(x) < parallelTol {
		up = ms3.Vec{Z: 1}
		x = ms3.Cross(up, forward)
	}
	x = ms3.Unit(x)
	y := ms3.Cross(forward, x)
	return ms3.NewMat4([]float32{
		x.X, y.X, forward.X, 0,
		x.Y, y.Y, forward.Y, 0,
		x.Z, y.Z, forward.Z, 0,
		0, 0, 0, 1,
	})
}

func translationMat4(p ms3.Vec) ms3.Mat4 {
	return ms3.NewMat4([]float32{
		1, 0, 0, p.X,
		0, 1, 0, p.Y,
		0, 0, 1, p.Z,
		0, 0, 0, 1,
	})
}

// PackRows returns the first three rows of the affine transform m. Each row holds the
// X, Y and Z basis coefficients of one output component followed by its translation.
// These are the matVector1..3 (or invmatVector1..3) per-instance attributes.
func PackRows(m ms3.Mat4) (rows [3][4]float32) {
	a := m.Array()
	copy(rows[0][:], a[0:4])
	copy(rows[1][:], a[4:8])
	copy(rows[2][:], a[8:12])
	return rows
}

// UnpackRows reconstructs an affine transform from rows packed with [PackRows].
// The last row is (0,0,0,1) as in the vertex shader.
func UnpackRows(rows [3][4]float32) ms3.Mat4 {
	return ms3.NewMat4([]float32{
		rows[0][0], rows[0][1], rows[0][2], rows[0][3],
		rows[1][0], rows[1][1], rows[1][2], rows[1][3],
		rows[2][0], rows[2][1], rows[2][2], rows[2][3],
		0, 0, 0, 1,
	})
}

// SphereOffset returns the offset attribute of a sphere impostor: center in xyz and radius in w.
func SphereOffset(center ms3.Vec, radius float32) [4]float32 {
	return [4]float32{center.X, center.Y, center.Z, radius}
}

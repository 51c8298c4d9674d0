// Package glimp configures a single uber shader program for rendering large
// amounts of instanced sphere and cylinder impostors. It derives shader defines
// and extensions from feature flags, keeps inheritable material options and
// builds the per-instance transforms consumed by the cylinder impostor vertex shader.
package glimp

import (
	"errors"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

var (
	ErrUnknownOption     = errors.New("unknown uber option")
	ErrOptionType        = errors.New("bad uber option value type")
	ErrInvalidParent     = errors.New("invalid option parent")
	ErrDegenerateSegment = errors.New("degenerate cylinder segment")
	ErrInvalidRadius     = errors.New("zero or negative radius")
	ErrSingularTransform = errors.New("singular transform")
)

const (
	// parallelTol is the minimum sine between the cylinder axis and the
	// look-at up reference before the reference is substituted.
	parallelTol = 1e-4
)

// Color is a linear RGB color with components nominally in [0,1].
type Color struct {
	R, G, B float32
}

// ColorHex returns the color encoded as 0xRRGGBB.
func ColorHex(hex uint32) Color {
	return Color{
		R: float32(hex>>16&0xff) / 255,
		G: float32(hex>>8&0xff) / 255,
		B: float32(hex&0xff) / 255,
	}
}

// Vec returns the color as a vector with X,Y,Z set to R,G,B.
func (c Color) Vec() ms3.Vec { return ms3.Vec{X: c.R, Y: c.G, Z: c.B} }

// Array returns the color components in RGB order.
func (c Color) Array() [3]float32 { return [3]float32{c.R, c.G, c.B} }

// TransformPosition applies the affine transform m to the point v.
func TransformPosition(m ms3.Mat4, v ms3.Vec) ms3.Vec {
	a := m.Array()
	return ms3.Vec{
		X: a[0]*v.X + a[1]*v.Y + a[2]*v.Z + a[3],
		Y: a[4]*v.X + a[5]*v.Y + a[6]*v.Z + a[7],
		Z: a[8]*v.X + a[9]*v.Y + a[10]*v.Z + a[11],
	}
}

// TransformDirection applies the linear part of m to the direction v, ignoring translation.
func TransformDirection(m ms3.Mat4, v ms3.Vec) ms3.Vec {
	a := m.Array()
	return ms3.Vec{
		X: a[0]*v.X + a[1]*v.Y + a[2]*v.Z,
		Y: a[4]*v.X + a[5]*v.Y + a[6]*v.Z,
		Z: a[8]*v.X + a[9]*v.Y + a[10]*v.Z,
	}
}

// EqualMat4 reports whether all elements of a and b are within tol of each other.
func EqualMat4(a, b ms3.Mat4, tol float32) bool {
	aa, ba := a.Array(), b.Array()
	for i := range aa {
		if math32.Abs(aa[i]-ba[i]) > tol {
			return false
		}
	}
	return true
}

// invertible returns the inverse of m or ErrSingularTransform.
func invertible(m ms3.Mat4) (ms3.Mat4, error) {
	det := m.Determinant()
	if det == 0 || !isFinite(det) {
		return ms3.Mat4{}, ErrSingularTransform
	}
	inv := m.Inverse()
	for _, v := range inv.Array() {
		if !isFinite(v) {
			return ms3.Mat4{}, ErrSingularTransform
		}
	}
	return inv, nil
}

func isFinite(f float32) bool {
	return !math32.IsNaN(f) && !math32.IsInf(f, 0)
}

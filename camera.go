package glimp

import (
	"errors"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// Camera is a perspective camera looking from Eye at Target. FOV is the vertical field of view in radians.
type Camera struct {
	Eye, Target, Up ms3.Vec
	FOV             float32
	Aspect          float32
	Near, Far       float32
}

// View returns the world to camera transform.
func (cam Camera) View() ms3.Mat4 {
	up := cam.Up
	if up == (ms3.Vec{}) {
		up = ms3.Vec{Y: 1}
	}
	f := ms3.Unit(ms3.Sub(cam.Target, cam.Eye))
	s := ms3.Cross(f, up)
	if ms3.Norm(s) < parallelTol {
		s = ms3.Cross(f, ms3.Vec{Z: 1})
	}
	s = ms3.Unit(s)
	u := ms3.Cross(s, f)
	return ms3.NewMat4([]float32{
		s.X, s.Y, s.Z, -ms3.Dot(s, cam.Eye),
		u.X, u.Y, u.Z, -ms3.Dot(u, cam.Eye),
		-f.X, -f.Y, -f.Z, ms3.Dot(f, cam.Eye),
		0, 0, 0, 1,
	})
}

// Projection returns the OpenGL style perspective projection of the camera.
func (cam Camera) Projection() ms3.Mat4 {
	f := 1 / math32.Tan(cam.FOV/2)
	n, fr := cam.Near, cam.Far
	return ms3.NewMat4([]float32{
		f / cam.Aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, (fr + n) / (n - fr), 2 * fr * n / (n - fr),
		0, 0, -1, 0,
	})
}

// InverseProjection returns the inverse of the camera projection as used by the
// projMatrixInv uniform.
func (cam Camera) InverseProjection() (ms3.Mat4, error) {
	if !(cam.Near > 0) || !(cam.Far > cam.Near) || !(cam.Aspect > 0) || !(cam.FOV > 0) {
		return ms3.Mat4{}, errors.New("bad camera frustum parameters")
	}
	return invertible(cam.Projection())
}

// Orbit places the camera dist away from Target looking along the direction set by
// yaw and pitch in radians.
func (cam *Camera) Orbit(yaw, pitch, dist float32) {
	dir := ms3.Vec{
		X: math32.Cos(pitch) * math32.Sin(yaw),
		Y: math32.Sin(pitch),
		Z: math32.Cos(pitch) * math32.Cos(yaw),
	}
	cam.Eye = ms3.Sub(cam.Target, ms3.Scale(dist, dir))
}

// InverseModelView returns the inverse of view*world, the value of the
// invModelViewMatrix uniform for an object placed by world and seen through view.
func InverseModelView(view, world ms3.Mat4) (ms3.Mat4, error) {
	return invertible(ms3.MulMat4(view, world))
}

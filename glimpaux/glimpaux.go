// Package glimpaux provides an interactive GLFW viewer for sphere and cylinder
// impostor scenes. It is meant to get users started quickly; applications with
// their own render loop should drive glimp materials and glinst buffers directly.
package glimpaux

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glimp"
	"github.com/soypat/glimp/gleval"
	"github.com/soypat/glimp/glinst"
	"github.com/soypat/glimp/glrender"
)

// Uniform names set by the viewer every frame. They are not backed by uber options.
const (
	uniformModelView  = "modelViewMatrix"
	uniformProjection = "projectionMatrix"
	uniformLightDir   = "lightDir"
	uniformLightColor = "lightColor"
	uniformAmbient    = "ambientColor"
	uniformFogColor   = "fogColor"
	uniformFogDensity = "fogDensity"
)

type UIConfig struct {
	Width, Height int
	// Context cancels the render loop when done.
	Context context.Context
	// Silent disables logging of program compilation and picked instances.
	Silent bool
	// Title of the window. Defaults to "glimp impostor viewer".
	Title string
}

// Light is a directional light plus ambient term shading the scene.
type Light = glrender.Light

// Fog is exponential squared fog applied to the color pass.
type Fog = glrender.Fog

// Scene holds the instance buffers to draw and the materials they are drawn with.
// Either buffer may be nil.
type Scene struct {
	Spheres        *glinst.Spheres
	SphereMaterial *glimp.Material

	// Cylinders built with inverse transforms are drawn as ray traced sprites
	// and can be picked. Without inverses they are drawn as open cylinder meshes.
	Cylinders        *glinst.Cylinders
	CylinderMaterial *glimp.Material

	// Camera is the initial camera. A zero camera is placed to frame the scene bounds.
	Camera     glimp.Camera
	Light      Light
	Background glimp.Color
	// Fog, when set, compiles color pass programs with fog.
	Fog *Fog
}

// UI opens a window showing the scene. The left mouse button orbits the camera around
// its target, the scroll wheel zooms and the right mouse button picks the instance
// under the cursor. UI blocks until the window is closed or cfg.Context is done.
// It must be called from the main OS thread.
func UI(scene Scene, cfg UIConfig) error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return errors.New("UI requires positive window dimensions")
	}
	if cfg.Title == "" {
		cfg.Title = "glimp impostor viewer"
	}
	err := scene.prepare(float32(cfg.Width) / float32(cfg.Height))
	if err != nil {
		return err
	}
	return ui(scene, cfg)
}

// prepare fills in the scene defaults: materials matching the buffers, a camera
// framing the scene and a light.
func (s *Scene) prepare(aspect float32) error {
	hasSpheres := s.Spheres != nil && s.Spheres.Len() > 0
	hasCylinders := s.Cylinders != nil && s.Cylinders.Len() > 0
	if !hasSpheres && !hasCylinders {
		return errors.New("empty scene")
	}
	if !hasSpheres {
		s.Spheres = nil
	}
	if !hasCylinders {
		s.Cylinders = nil
	}
	if s.Spheres != nil && s.SphereMaterial == nil {
		s.SphereMaterial = glimp.NewMaterial(glimp.InstancedPos | glimp.SphereSprite)
	}
	if s.Cylinders != nil && s.CylinderMaterial == nil {
		f := glimp.InstancedMatrix
		if s.Cylinders.HasInverse() {
			f |= glimp.CylinderSprite
		}
		s.CylinderMaterial = glimp.NewMaterial(f)
	}
	if s.Cylinders != nil && s.CylinderMaterial.Features().Has(glimp.CylinderSprite) && !s.Cylinders.HasInverse() {
		return errors.New("cylinder sprites require cylinders built with inverse transforms")
	}
	if s.Camera == (glimp.Camera{}) {
		s.Camera = frameCamera(s.bounds(), aspect)
	}
	if s.Camera.Aspect == 0 {
		s.Camera.Aspect = aspect
	}
	if s.Light == (Light{}) {
		s.Light = Light{
			Dir:     ms3.Vec{X: 50, Y: 40},
			Color:   glimp.Color{R: 0.4, G: 0.4, B: 0.4},
			Ambient: glimp.Color{R: 0.7, G: 0.7, B: 0.7},
		}
	}
	return nil
}

func (s *Scene) renderScene() glrender.Scene {
	return glrender.Scene{
		Spheres:          s.Spheres,
		SphereMaterial:   s.SphereMaterial,
		Cylinders:        s.Cylinders,
		CylinderMaterial: s.CylinderMaterial,
	}
}

func (s *Scene) bounds() ms3.Box {
	var bb ms3.Box
	empty := true
	if s.Spheres != nil {
		bb, empty = s.Spheres.Bounds(), false
	}
	if s.Cylinders != nil {
		if empty {
			bb = s.Cylinders.Bounds()
		} else {
			bb = bb.Union(s.Cylinders.Bounds())
		}
	}
	return bb
}

// frameCamera returns a camera looking at the center of bb from a distance that fits it in view.
func frameCamera(bb ms3.Box, aspect float32) glimp.Camera {
	const fov = 40 * math32.Pi / 180
	diag := ms3.Norm(bb.Size())
	if diag == 0 {
		diag = 1
	}
	dist := 0.5 * diag / math32.Tan(fov/2) * 1.2
	cam := glimp.Camera{
		Target: bb.Center(),
		Up:     ms3.Vec{Y: 1},
		FOV:    fov,
		Aspect: aspect,
		Near:   dist * 1e-2,
		Far:    dist + diag*10,
	}
	cam.Orbit(math32.Pi/4, -math32.Pi/8, dist)
	return cam
}

// orbit is the mouse controlled camera placement around the camera target.
type orbit struct {
	yaw, pitch       float32
	dist             float32
	minDist, maxDist float32
}

const (
	yawSensitivity   = 0.005
	pitchSensitivity = 0.005
	maxPitch         = math32.Pi/2 - 0.01
)

func newOrbit(cam glimp.Camera) orbit {
	d := ms3.Sub(cam.Target, cam.Eye)
	dist := ms3.Norm(d)
	if dist == 0 {
		return orbit{dist: 1, minDist: 1e-3, maxDist: 10}
	}
	d = ms3.Scale(1/dist, d)
	return orbit{
		yaw:     math32.Atan2(d.X, d.Z),
		pitch:   math32.Asin(d.Y),
		dist:    dist,
		minDist: dist * 1e-3,
		maxDist: dist * 10,
	}
}

func (o *orbit) drag(dx, dy float64) {
	o.yaw += float32(dx) * yawSensitivity
	o.pitch -= float32(dy) * pitchSensitivity // Invert y-axis
	o.pitch = min(max(o.pitch, -maxPitch), maxPitch)
}

func (o *orbit) zoom(yoff float64) {
	o.dist -= float32(yoff) * (o.dist*.1 + .01)
	o.dist = min(max(o.dist, o.minDist), o.maxDist)
}

func (o *orbit) apply(cam *glimp.Camera) {
	cam.Orbit(o.yaw, o.pitch, o.dist)
}

// frameUniforms refreshes the material uniforms for the camera and returns them
// together with the per frame uniforms the viewer owns.
func frameUniforms(mat *glimp.Material, cam glimp.Camera, light Light, fog *Fog) (glimp.Uniforms, error) {
	view := cam.View()
	projInv, err := cam.InverseProjection()
	if err != nil {
		return nil, err
	}
	mat.Options().SetProjMatrixInv(projInv)
	mat.UpdateUniforms()
	err = mat.SetModelView(view, ms3.IdentityMat4())
	if err != nil {
		return nil, err
	}
	u := mat.Uniforms().Clone()
	u.Set(uniformModelView, view)
	u.Set(uniformProjection, cam.Projection())
	u.Set(uniformLightDir, ms3.Unit(glimp.TransformDirection(view, light.Dir)))
	u.Set(uniformLightColor, light.Color)
	u.Set(uniformAmbient, light.Ambient)
	if fog != nil {
		u.Set(uniformFogColor, fog.Color)
		u.Set(uniformFogDensity, fog.Density)
	}
	return u, nil
}

// uniformNames returns the names of all uniforms uploaded when drawing with mat.
func uniformNames(mat *glimp.Material) []string {
	names := mat.Uniforms().Names()
	return append(names, uniformModelView, uniformProjection, uniformLightDir, uniformLightColor, uniformAmbient, uniformFogColor, uniformFogDensity)
}

// uniformData flattens a uniform value into the float32 components uploaded to the GPU.
// Matrices are returned in row-major order.
func uniformData(v any) ([]float32, error) {
	switch v := v.(type) {
	case float32:
		return []float32{v}, nil
	case glimp.Color:
		a := v.Array()
		return a[:], nil
	case ms3.Vec:
		return []float32{v.X, v.Y, v.Z}, nil
	case ms3.Mat4:
		a := v.Array()
		return a[:], nil
	}
	return nil, fmt.Errorf("unsupported uniform type %T", v)
}

// pick returns a description of the instance nearest along ray, or the empty string.
func pick(s *Scene, ray gleval.Ray) string {
	var (
		desc  string
		tBest = math32.Inf(1)
	)
	if s.Spheres != nil {
		if hit, ok := gleval.PickSpheres(s.Spheres, ray); ok {
			c, r, _ := s.Spheres.Item(hit.Index)
			tBest = hit.T
			desc = fmt.Sprintf("sphere %d center=%v radius=%g", hit.Index, c, r)
		}
	}
	if s.Cylinders != nil && s.Cylinders.HasInverse() {
		hit, ok, _ := gleval.PickCylinders(s.Cylinders, ray)
		if ok && hit.T < tBest {
			cyl := s.Cylinders.Item(hit.Index)
			desc = fmt.Sprintf("cylinder %d bottom=%v top=%v radius=%g", hit.Index, cyl.Bottom, cyl.Top, cyl.Radius)
		}
	}
	return desc
}

func stopwatch() func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}

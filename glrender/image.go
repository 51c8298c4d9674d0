package glrender

import (
	"errors"
	"image"
	"image/color"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glimp"
	"github.com/soypat/glimp/gleval"
)

type setImage = interface {
	image.Image
	Set(x, y int, c color.Color)
}

// Light is a directional light plus ambient term.
type Light struct {
	// Dir points from the lit surfaces toward the light, in world space.
	Dir     ms3.Vec
	Color   glimp.Color
	Ambient glimp.Color
}

// Fog is exponential squared fog: shaded colors blend toward Color as their
// view depth grows, at a rate set by Density.
type Fog struct {
	Color   glimp.Color
	Density float32
}

// Factor returns the weight of the fog color at view depth, in [0,1).
func (f Fog) Factor(depth float32) float32 {
	d := f.Density * depth
	return 1 - math32.Exp(-d*d)
}

// Apply blends c toward the fog color at view depth.
func (f Fog) Apply(c glimp.Color, depth float32) glimp.Color {
	k := f.Factor(depth)
	return glimp.Color{
		R: c.R + k*(f.Color.R-c.R),
		G: c.G + k*(f.Color.G-c.G),
		B: c.B + k*(f.Color.B-c.B),
	}
}

// ImageRenderer ray casts scenes into images the way the impostor shader
// shades them: one ray per pixel center, Blinn-Phong shading of the nearest hit.
type ImageRenderer struct {
	Camera glimp.Camera
	Light  Light
	// Background colors pixels whose ray hits nothing. Nil is transparent.
	Background color.Color
	// DepthConversion, when set, replaces shading with a color mapping of the
	// hit depth normalized to [0,1] between the camera near and far planes.
	DepthConversion func(depth float32) color.Color
	// Fog, when set, is applied to shaded hits like the color pass does.
	// The background and depth conversion are not fogged.
	Fog *Fog
}

type pixelHit struct {
	t      float32
	normal ms3.Vec
	color  glimp.Color
	opts   *glimp.Options
}

// Render renders the scene over the bounds of img.
func (ir *ImageRenderer) Render(img setImage, s Scene) error {
	cam := ir.Camera
	if _, err := cam.InverseProjection(); err != nil {
		return err
	}
	if s.numCylinders() > 0 && !s.Cylinders.HasInverse() {
		return errors.New("image rendering requires cylinders built with inverse transforms")
	}
	bg := ir.Background
	if bg == nil {
		bg = color.Transparent
	}
	sphereOpts, cylOpts := options(s.SphereMaterial), options(s.CylinderMaterial)
	lightDir := ms3.Unit(ir.Light.Dir)
	view := cam.View()
	bb := img.Bounds()
	w, h := bb.Dx(), bb.Dy()
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			ray := PixelRay(cam, float32(i)+0.5, float32(j)+0.5, w, h)
			hit, ok := ir.nearest(s, ray, sphereOpts, cylOpts)
			if !ok {
				img.Set(bb.Min.X+i, bb.Min.Y+j, bg)
				continue
			}
			var c color.Color
			z := -glimp.TransformPosition(view, ray.At(hit.t)).Z
			if ir.DepthConversion != nil {
				c = ir.DepthConversion((z - cam.Near) / (cam.Far - cam.Near))
			} else {
				base := mulColor(hit.opts.Diffuse(), hit.color)
				viewDir := ms3.Scale(-1, ray.Dir)
				shaded := BlinnPhong(hit.normal, viewDir, lightDir, base, hit.opts.Specular(), hit.opts.Shininess(), ir.Light.Color, ir.Light.Ambient)
				if ir.Fog != nil {
					shaded = ir.Fog.Apply(shaded, z)
				}
				c = rgba(shaded)
			}
			img.Set(bb.Min.X+i, bb.Min.Y+j, c)
		}
	}
	return nil
}

func (ir *ImageRenderer) nearest(s Scene, ray gleval.Ray, sphereOpts, cylOpts *glimp.Options) (pixelHit, bool) {
	var best pixelHit
	found := false
	if s.numSpheres() > 0 {
		if hit, ok := gleval.PickSpheres(s.Spheres, ray); ok {
			_, _, c := s.Spheres.Item(hit.Index)
			best = pixelHit{t: hit.T, normal: hit.Normal, color: c, opts: sphereOpts}
			found = true
		}
	}
	if s.numCylinders() > 0 {
		hit, ok, _ := gleval.PickCylinders(s.Cylinders, ray)
		if ok && (!found || hit.T < best.t) {
			best = pixelHit{t: hit.T, normal: hit.Normal, color: s.Cylinders.Color(hit.Index), opts: cylOpts}
			found = true
		}
	}
	return best, found
}

// PixelRay returns the world space ray from the camera eye through the window
// coordinates x,y of a width by height viewport. y grows downwards. The direction is unit length.
func PixelRay(cam glimp.Camera, x, y float32, width, height int) gleval.Ray {
	ndcX := 2*x/float32(width) - 1
	ndcY := 1 - 2*y/float32(height)
	tanHalf := math32.Tan(cam.FOV / 2)
	dirView := ms3.Vec{X: ndcX * tanHalf * cam.Aspect, Y: ndcY * tanHalf, Z: -1}
	invView := cam.View().Inverse()
	return gleval.Ray{
		Origin: cam.Eye,
		Dir:    ms3.Unit(glimp.TransformDirection(invView, dirView)),
	}
}

// BlinnPhong shades a surface with unit normal n seen from unit direction viewDir
// and lit from unit direction lightDir. It matches the shading of the color pass.
func BlinnPhong(n, viewDir, lightDir ms3.Vec, base, spec glimp.Color, shininess float32, light, ambient glimp.Color) glimp.Color {
	ndl := max(ms3.Dot(n, lightDir), 0)
	var s float32
	if ndl > 0 {
		half := ms3.Unit(ms3.Add(lightDir, viewDir))
		s = math32.Pow(max(ms3.Dot(n, half), 0), max(shininess, 1e-4))
	}
	return glimp.Color{
		R: ambient.R*base.R + light.R*(base.R*ndl+spec.R*s),
		G: ambient.G*base.G + light.G*(base.G*ndl+spec.G*s),
		B: ambient.B*base.B + light.B*(base.B*ndl+spec.B*s),
	}
}

func mulColor(a, b glimp.Color) glimp.Color {
	return glimp.Color{R: a.R * b.R, G: a.G * b.G, B: a.B * b.B}
}

func rgba(c glimp.Color) color.RGBA {
	return color.RGBA{R: unorm8(c.R), G: unorm8(c.G), B: unorm8(c.B), A: 255}
}

func unorm8(f float32) uint8 {
	if !(f > 0) {
		return 0
	} else if f >= 1 {
		return 255
	}
	return uint8(f*255 + 0.5)
}

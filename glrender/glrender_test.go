package glrender

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"testing"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glimp"
	"github.com/soypat/glimp/glinst"
)

const tol = 1e-4

func testScene(t *testing.T, withInverse bool) Scene {
	t.Helper()
	spheres := glinst.NewSpheres(0)
	spheres.Append(ms3.Vec{}, 1, glimp.Color{R: 1})
	spheres.Append(ms3.Vec{X: 3}, 0.5, glimp.Color{G: 1})
	cyls, err := glinst.BuildCylinders(context.Background(), []glimp.Cylinder{
		{Bottom: ms3.Vec{X: -3}, Top: ms3.Vec{X: -3, Y: 2, Z: 1}, Radius: 0.25},
	}, []glimp.Color{{B: 1}}, withInverse, 1)
	if err != nil {
		t.Fatal(err)
	}
	return Scene{Spheres: spheres, Cylinders: cyls}
}

func TestMeshRenderer(t *testing.T) {
	s := testScene(t, false)
	cfg := DefaultMeshConfig()
	mr, err := NewMeshRenderer(s, cfg)
	if err != nil {
		t.Fatal(err)
	}
	// Small buffer forces instances to be split across reads.
	buf := make([]ms3.Triangle, 7)
	var all []ms3.Triangle
	for {
		n, err := mr.ReadTriangles(buf, nil)
		all = append(all, buf[:n]...)
		if err != nil {
			break
		}
	}
	if len(all) != mr.TotalTriangles() {
		t.Fatalf("read %d triangles, want %d", len(all), mr.TotalTriangles())
	}
	perSphere := len(glinst.UVSphere(cfg.SphereSlices, cfg.SphereStacks).Positions) / 9
	for k := 0; k < 2; k++ {
		c, r, _ := s.Spheres.Item(k)
		for _, tri := range all[k*perSphere : (k+1)*perSphere] {
			for _, v := range tri {
				if d := ms3.Norm(ms3.Sub(v, c)); math32.Abs(d-r) > tol {
					t.Fatalf("sphere %d vertex %v at distance %g, want %g", k, v, d, r)
				}
			}
		}
	}
	cyl := s.Cylinders.Item(0)
	axis := ms3.Sub(cyl.Top, cyl.Bottom)
	h := ms3.Norm(axis)
	axis = ms3.Scale(1/h, axis)
	for _, tri := range all[2*perSphere:] {
		for _, v := range tri {
			rel := ms3.Sub(v, cyl.Bottom)
			along := ms3.Dot(rel, axis)
			radial := ms3.Norm(ms3.Sub(rel, ms3.Scale(along, axis)))
			if along < -tol || along > h+tol || radial > cyl.Radius+tol {
				t.Fatalf("cylinder vertex %v outside cylinder", v)
			}
		}
	}

	mr.Reset()
	again, err := RenderAll(mr, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != len(all) || again[len(again)-1] != all[len(all)-1] {
		t.Error("reset renderer read different triangles")
	}
	_, err = NewMeshRenderer(s, MeshConfig{})
	if err == nil {
		t.Error("expected error for zero tessellation")
	}
}

func TestSTL(t *testing.T) {
	s := testScene(t, false)
	mr, err := NewMeshRenderer(s, MeshConfig{SphereSlices: 4, SphereStacks: 2, CylinderSegments: 3})
	if err != nil {
		t.Fatal(err)
	}
	tris, err := RenderAll(mr, nil)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	n, err := WriteBinarySTL(&buf, tris)
	if err != nil {
		t.Fatal(err)
	}
	if n != buf.Len() || n != 84+50*len(tris) {
		t.Fatalf("wrote %d bytes, buffer has %d for %d triangles", n, buf.Len(), len(tris))
	}
	got, err := readBinarySTL(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(tris) {
		t.Fatalf("read %d triangles, want %d", len(got), len(tris))
	}
	for i := range got {
		if got[i] != tris[i] {
			t.Fatalf("triangle %d: got %v want %v", i, got[i], tris[i])
		}
	}
	_, err = readBinarySTL(bytes.NewReader(make([]byte, 84+10)))
	if err != nil {
		t.Error("zero count STL with trailing bytes should read:", err)
	}
	truncated := make([]byte, 84)
	truncated[80] = 2
	_, err = readBinarySTL(bytes.NewReader(truncated))
	if err == nil {
		t.Error("expected error on truncated STL")
	}
}

func TestImageRenderer(t *testing.T) {
	s := testScene(t, true)
	s.SphereMaterial = glimp.NewMaterial(glimp.InstancedPos | glimp.SphereSprite)
	s.SphereMaterial.Options().SetDiffuse(glimp.Color{R: 1, G: 1, B: 1})
	s.SphereMaterial.Options().SetSpecular(glimp.Color{})
	cam := glimp.Camera{FOV: math32.Pi / 4, Aspect: 1, Near: 1, Far: 21}
	cam.Orbit(0, 0, 10) // Looks down +Z at the origin.
	ir := ImageRenderer{
		Camera:     cam,
		Light:      Light{Dir: ms3.Vec{Z: -1}, Color: glimp.Color{R: 1, G: 1, B: 1}},
		Background: color.Black,
	}
	const size = 64
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	err := ir.Render(img, s)
	if err != nil {
		t.Fatal(err)
	}
	center := img.RGBAAt(size/2, size/2)
	if center.R < 200 || center.G != 0 || center.B != 0 {
		t.Errorf("want lit red sphere at center, got %v", center)
	}
	if corner := img.RGBAAt(0, 0); corner != (color.RGBA{A: 255}) {
		t.Errorf("want background at corner, got %v", corner)
	}

	var depths []float32
	ir.DepthConversion = func(d float32) color.Color {
		depths = append(depths, d)
		return color.White
	}
	err = ir.Render(img, Scene{Spheres: s.Spheres})
	if err != nil {
		t.Fatal(err)
	}
	minDepth := float32(1)
	for _, d := range depths {
		minDepth = min(minDepth, d)
	}
	// Nearest sphere point is 9 units away from the eye.
	if want := (9 - cam.Near) / (cam.Far - cam.Near); math32.Abs(minDepth-want) > 1e-2 {
		t.Errorf("want nearest depth %g, got %g", want, minDepth)
	}

	err = ir.Render(img, testScene(t, false))
	if err == nil {
		t.Error("expected error rendering cylinders without inverse")
	}
	ir.Camera = glimp.Camera{}
	err = ir.Render(img, s)
	if err == nil {
		t.Error("expected error for degenerate camera")
	}
}

func TestFog(t *testing.T) {
	fog := Fog{Color: glimp.Color{B: 1}, Density: 0.1}
	if fog.Factor(0) != 0 {
		t.Errorf("want no fog at zero depth, got %g", fog.Factor(0))
	}
	if f := fog.Factor(10); math32.Abs(f-(1-math32.Exp(-1))) > tol {
		t.Errorf("want exp2 fog factor at depth 10, got %g", f)
	}
	if got := fog.Apply(glimp.Color{R: 1}, 1e3); !colorEqual(got, fog.Color) {
		t.Errorf("want fog color far away, got %v", got)
	}

	s := testScene(t, true)
	s.SphereMaterial = glimp.NewMaterial(glimp.InstancedPos | glimp.SphereSprite)
	s.SphereMaterial.Options().SetDiffuse(glimp.Color{R: 1, G: 1, B: 1})
	s.SphereMaterial.Options().SetSpecular(glimp.Color{})
	cam := glimp.Camera{FOV: math32.Pi / 4, Aspect: 1, Near: 1, Far: 21}
	cam.Orbit(0, 0, 10)
	ir := ImageRenderer{
		Camera:     cam,
		Light:      Light{Dir: ms3.Vec{Z: -1}, Color: glimp.Color{R: 1, G: 1, B: 1}},
		Background: color.Black,
		Fog:        &fog,
	}
	const size = 64
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	err := ir.Render(img, s)
	if err != nil {
		t.Fatal(err)
	}
	// Lit red sphere front 9 units away blended toward blue.
	k := 1 - math32.Exp(-0.81)
	want := rgba(glimp.Color{R: 1 - k, B: k})
	center := img.RGBAAt(size/2, size/2)
	if absDiff(center.R, want.R) > 2 || absDiff(center.B, want.B) > 2 || center.G != 0 {
		t.Errorf("want fogged center %v, got %v", want, center)
	}
	if corner := img.RGBAAt(0, 0); corner != (color.RGBA{A: 255}) {
		t.Errorf("background must not be fogged, got %v", corner)
	}
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}

func TestPixelRay(t *testing.T) {
	cam := glimp.Camera{Target: ms3.Vec{X: 1, Y: 1, Z: 1}, FOV: 1, Aspect: 2, Near: 0.1, Far: 10}
	cam.Orbit(1, 0.5, 3)
	ray := PixelRay(cam, 100, 50, 200, 100)
	want := ms3.Unit(ms3.Sub(cam.Target, cam.Eye))
	if ray.Origin != cam.Eye || ms3.Norm(ms3.Sub(ray.Dir, want)) > tol {
		t.Errorf("center ray %+v, want direction %v", ray, want)
	}
	// Top edge ray makes half the field of view with the view axis.
	top := PixelRay(cam, 100, 0, 200, 100)
	angle := math32.Acos(ms3.Dot(top.Dir, want))
	if math32.Abs(angle-cam.FOV/2) > 1e-3 {
		t.Errorf("top ray at %g rad from axis, want %g", angle, cam.FOV/2)
	}
}

func TestBlinnPhong(t *testing.T) {
	n := ms3.Vec{Z: 1}
	base := glimp.Color{R: 0.5, G: 0.25, B: 1}
	spec := glimp.Color{R: 0.1, G: 0.1, B: 0.1}
	light := glimp.Color{R: 1, G: 1, B: 1}
	ambient := glimp.Color{R: 0.2, G: 0.2, B: 0.2}
	got := BlinnPhong(n, n, n, base, spec, 30, light, ambient)
	want := glimp.Color{R: 0.2*0.5 + 0.5 + 0.1, G: 0.2*0.25 + 0.25 + 0.1, B: 0.2 + 1 + 0.1}
	if !colorEqual(got, want) {
		t.Errorf("facing light: got %v want %v", got, want)
	}
	// Back lit surfaces only receive ambient light.
	got = BlinnPhong(n, n, ms3.Vec{Z: -1}, base, spec, 30, light, ambient)
	want = glimp.Color{R: 0.1, G: 0.05, B: 0.2}
	if !colorEqual(got, want) {
		t.Errorf("back lit: got %v want %v", got, want)
	}
}

func colorEqual(a, b glimp.Color) bool {
	return math32.Abs(a.R-b.R) < tol && math32.Abs(a.G-b.G) < tol && math32.Abs(a.B-b.B) < tol
}

// readBinarySTL reads the triangles of a binary STL file. Stored normals are ignored.
func readBinarySTL(r io.Reader) ([]ms3.Triangle, error) {
	var header [stlHeaderSize + 4]byte
	_, err := io.ReadFull(r, header[:])
	if err != nil {
		return nil, fmt.Errorf("reading STL header: %w", err)
	}
	count := binary.LittleEndian.Uint32(header[stlHeaderSize:])
	if count > 1<<20 {
		return nil, fmt.Errorf("STL triangle count %d too large", count)
	}
	triangles := make([]ms3.Triangle, count)
	var buf [stlTriangleSize]byte
	for i := range triangles {
		_, err = io.ReadFull(r, buf[:])
		if err != nil {
			return nil, fmt.Errorf("reading STL triangle %d: %w", i, err)
		}
		triangles[i] = ms3.Triangle{getVec(buf[12:]), getVec(buf[24:]), getVec(buf[36:])}
	}
	return triangles, nil
}

func getVec(b []byte) ms3.Vec {
	return ms3.Vec{
		X: math.Float32frombits(binary.LittleEndian.Uint32(b)),
		Y: math.Float32frombits(binary.LittleEndian.Uint32(b[4:])),
		Z: math.Float32frombits(binary.LittleEndian.Uint32(b[8:])),
	}
}

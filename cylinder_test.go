package glimp_test

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glimp"
)

const tol = 1e-4

func TestCylinderTransformVertical(t *testing.T) {
	bottom := ms3.Vec{}
	top := ms3.Vec{Y: 2}
	tf, inv, err := glimp.CylinderTransform(bottom, top, 1, true)
	if err != nil {
		t.Fatal(err)
	}
	var tests = []struct {
		local, world ms3.Vec
	}{
		{local: ms3.Vec{Y: 0.5}, world: top},
		{local: ms3.Vec{Y: -0.5}, world: bottom},
		{local: ms3.Vec{}, world: ms3.Vec{Y: 1}},
	}
	for _, test := range tests {
		got := glimp.TransformPosition(tf, test.local)
		if !vecEqual(got, test.world, tol) {
			t.Errorf("local %v: want world %v, got %v", test.local, test.world, got)
		}
		back := glimp.TransformPosition(inv, test.world)
		if !vecEqual(back, test.local, tol) {
			t.Errorf("world %v: want local %v, got %v", test.world, test.local, back)
		}
	}
	// Radial points sit on the cylinder surface.
	rim := glimp.TransformPosition(tf, ms3.Vec{X: 1})
	if d := math32.Hypot(rim.X, rim.Z); math32.Abs(d-1) > tol || math32.Abs(rim.Y-1) > tol {
		t.Errorf("rim point %v not at radius 1 around axis", rim)
	}
}

func TestCylinderTransformRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 500; i++ {
		bottom := randVec(rng, 10)
		top := ms3.Add(bottom, ms3.Scale(0.1+5*rng.Float32(), ms3.Unit(randVec(rng, 1))))
		radius := 0.1 + 2*rng.Float32()
		tf, inv, err := glimp.CylinderTransform(bottom, top, radius, true)
		if err != nil {
			t.Fatal(i, err)
		}
		if got := glimp.TransformPosition(tf, ms3.Vec{Y: 0.5}); !vecEqual(got, top, tol) {
			t.Fatalf("%d: top %v mapped to %v", i, top, got)
		}
		if got := glimp.TransformPosition(tf, ms3.Vec{Y: -0.5}); !vecEqual(got, bottom, tol) {
			t.Fatalf("%d: bottom %v mapped to %v", i, bottom, got)
		}
		// Local radial directions are perpendicular to the axis and radius long.
		axis := ms3.Unit(ms3.Sub(top, bottom))
		for _, radial := range []ms3.Vec{{X: 1}, {Z: 1}} {
			w := glimp.TransformDirection(tf, radial)
			if math32.Abs(ms3.Norm(w)-radius) > tol*10 || math32.Abs(ms3.Dot(w, axis)) > tol*10 {
				t.Fatalf("%d: radial %v mapped to %v (radius %g)", i, radial, w, radius)
			}
		}
		if !glimp.EqualMat4(ms3.MulMat4(inv, tf), ms3.IdentityMat4(), tol*10) {
			t.Fatalf("%d: inverse times transform is not identity", i)
		}
	}
}

func TestCylinderTransformParallelAxis(t *testing.T) {
	var tops = []ms3.Vec{
		{Y: 3},
		{Y: -3},
		{X: 1e-6, Y: 1},
		{Z: -1e-7, Y: -2},
	}
	for _, top := range tops {
		tf, inv, err := glimp.CylinderTransform(ms3.Vec{}, top, 0.5, true)
		if err != nil {
			t.Fatal(top, err)
		}
		for _, v := range tf.Array() {
			if math32.IsNaN(v) || math32.IsInf(v, 0) {
				t.Fatalf("top %v: non-finite transform %v", top, tf.Array())
			}
		}
		for _, v := range inv.Array() {
			if math32.IsNaN(v) || math32.IsInf(v, 0) {
				t.Fatalf("top %v: non-finite inverse %v", top, inv.Array())
			}
		}
		if got := glimp.TransformPosition(tf, ms3.Vec{Y: 0.5}); !vecEqual(got, top, tol) {
			t.Errorf("top %v mapped to %v", top, got)
		}
	}
}

func TestCylinderTransformErrors(t *testing.T) {
	nan := math32.NaN()
	var tests = []struct {
		bottom, top ms3.Vec
		radius      float32
		want        error
	}{
		{bottom: ms3.Vec{X: 1}, top: ms3.Vec{X: 1}, radius: 1, want: glimp.ErrDegenerateSegment},
		{bottom: ms3.Vec{X: 1}, top: ms3.Vec{X: 1}, radius: 0, want: glimp.ErrDegenerateSegment},
		{bottom: ms3.Vec{X: nan}, top: ms3.Vec{}, radius: 1, want: glimp.ErrDegenerateSegment},
		{bottom: ms3.Vec{}, top: ms3.Vec{Y: 1}, radius: 0, want: glimp.ErrInvalidRadius},
		{bottom: ms3.Vec{}, top: ms3.Vec{Y: 1}, radius: -1, want: glimp.ErrInvalidRadius},
		{bottom: ms3.Vec{}, top: ms3.Vec{Y: 1}, radius: nan, want: glimp.ErrInvalidRadius},
	}
	for _, test := range tests {
		_, _, err := glimp.CylinderTransform(test.bottom, test.top, test.radius, true)
		if !errors.Is(err, test.want) {
			t.Errorf("%v-%v r=%g: want %v, got %v", test.bottom, test.top, test.radius, test.want, err)
		}
	}
}

func TestCylinderNoInverse(t *testing.T) {
	c := glimp.Cylinder{Bottom: ms3.Vec{X: 1}, Top: ms3.Vec{X: 1, Z: 4}, Radius: 0.25}
	tf, inv, err := c.Transform(false)
	if err != nil {
		t.Fatal(err)
	}
	if glimp.EqualMat4(tf, ms3.Mat4{}, 0) {
		t.Error("transform not computed")
	}
	if !glimp.EqualMat4(inv, ms3.Mat4{}, 0) {
		t.Error("inverse computed without being requested")
	}
}

func TestPackRowsRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 100; i++ {
		bottom := randVec(rng, 5)
		top := ms3.Add(bottom, ms3.Vec{X: 1 + rng.Float32(), Y: rng.Float32(), Z: -rng.Float32()})
		tf, inv, err := glimp.CylinderTransform(bottom, top, 0.3, true)
		if err != nil {
			t.Fatal(err)
		}
		rows := glimp.PackRows(tf)
		got := glimp.UnpackRows(rows)
		if got.Array() != tf.Array() {
			t.Fatalf("round trip not exact:\n%v\n%v", tf.Array(), got.Array())
		}
		a := tf.Array()
		if rows[0][3] != a[3] || rows[1][3] != a[7] || rows[2][3] != a[11] {
			t.Fatal("translation not in fourth row component")
		}
		// Inverse bottom row is only affine up to rounding.
		if !glimp.EqualMat4(glimp.UnpackRows(glimp.PackRows(inv)), inv, tol) {
			t.Fatal("inverse round trip mismatch")
		}
	}
}

func TestSphereOffset(t *testing.T) {
	got := glimp.SphereOffset(ms3.Vec{X: 1, Y: 2, Z: 3}, 0.5)
	if got != [4]float32{1, 2, 3, 0.5} {
		t.Errorf("got %v", got)
	}
}

func TestCameraInverseProjection(t *testing.T) {
	cam := glimp.Camera{
		Eye:    ms3.Vec{Z: 10},
		Target: ms3.Vec{},
		Up:     ms3.Vec{Y: 1},
		FOV:    math32.Pi / 3,
		Aspect: 1.5,
		Near:   0.1,
		Far:    100,
	}
	inv, err := cam.InverseProjection()
	if err != nil {
		t.Fatal(err)
	}
	if !glimp.EqualMat4(ms3.MulMat4(inv, cam.Projection()), ms3.IdentityMat4(), tol) {
		t.Error("inverse projection times projection is not identity")
	}
	view := cam.View()
	if got := glimp.TransformPosition(view, cam.Eye); !vecEqual(got, ms3.Vec{}, tol) {
		t.Errorf("eye maps to %v in view space", got)
	}
	if got := glimp.TransformPosition(view, cam.Target); !vecEqual(got, ms3.Vec{Z: -10}, tol) {
		t.Errorf("target maps to %v in view space", got)
	}
	cam.Near = 0
	_, err = cam.InverseProjection()
	if err == nil {
		t.Error("expected error for zero near plane")
	}
}

func TestCameraOrbit(t *testing.T) {
	cam := glimp.Camera{Target: ms3.Vec{X: 1}}
	cam.Orbit(0.3, 0.2, 7)
	if d := ms3.Norm(ms3.Sub(cam.Eye, cam.Target)); math32.Abs(d-7) > tol {
		t.Errorf("orbit distance %g", d)
	}
}

func vecEqual(a, b ms3.Vec, tol float32) bool {
	return math32.Abs(a.X-b.X) <= tol && math32.Abs(a.Y-b.Y) <= tol && math32.Abs(a.Z-b.Z) <= tol
}

func randVec(rng *rand.Rand, scale float32) ms3.Vec {
	return ms3.Vec{
		X: scale * (2*rng.Float32() - 1),
		Y: scale * (2*rng.Float32() - 1),
		Z: scale * (2*rng.Float32() - 1),
	}
}

package glinst_test

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glimp"
	"github.com/soypat/glimp/glinst"
)

func TestSpheres(t *testing.T) {
	s := glinst.NewSpheres(2)
	err := s.SetItem(0, ms3.Vec{X: 1}, 0.5, glimp.Color{R: 1})
	if err != nil {
		t.Fatal(err)
	}
	err = s.SetItem(1, ms3.Vec{Y: -2}, 1, glimp.Color{B: 1})
	if err != nil {
		t.Fatal(err)
	}
	if err = s.SetItem(2, ms3.Vec{}, 1, glimp.Color{}); err == nil {
		t.Error("expected out of range error")
	}
	if err = s.SetItem(0, ms3.Vec{}, 0, glimp.Color{}); !errors.Is(err, glimp.ErrInvalidRadius) {
		t.Errorf("want ErrInvalidRadius, got %v", err)
	}
	c, r, col := s.Item(0)
	if c != (ms3.Vec{X: 1}) || r != 0.5 || col != (glimp.Color{R: 1}) {
		t.Errorf("failed set modified item: %v %v %v", c, r, col)
	}
	attrs := s.Attributes()
	if attrs[0].Name != "offset" || attrs[0].Size != 4 || attrs[0].Divisor != 1 || attrs[0].Len() != 2 {
		t.Errorf("bad offset attribute %+v", attrs[0])
	}
	if attrs[1].Name != "color" || attrs[1].Size != 3 || attrs[1].Len() != 2 {
		t.Errorf("bad color attribute %+v", attrs[1])
	}
	if got := attrs[0].Data[4:8]; got[1] != -2 || got[3] != 1 {
		t.Errorf("bad packed offset %v", got)
	}
	bb := s.Bounds()
	want := ms3.Box{Min: ms3.Vec{X: -1, Y: -3, Z: -1}, Max: ms3.Vec{X: 1.5, Y: 0.5, Z: 1}}
	if bb != want {
		t.Errorf("want bounds %v, got %v", want, bb)
	}
}

func TestSphereChain(t *testing.T) {
	s := glinst.NewSpheres(0)
	p0, p1 := ms3.Vec{}, ms3.Vec{X: 4}
	err := s.AppendChain(p0, p1, 4, 0.25, glimp.Color{G: 1})
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 4 {
		t.Fatalf("want 4 spheres, got %d", s.Len())
	}
	for i := 0; i < 4; i++ {
		c, r, _ := s.Item(i)
		if c.X != float32(i) || r != 0.25 {
			t.Errorf("sphere %d at %v radius %g", i, c, r)
		}
	}
	if err = s.AppendChain(p0, p1, 0, 1, glimp.Color{}); err == nil {
		t.Error("expected error on empty chain")
	}
}

func TestBuildCylindersMatchesSerial(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	const n = 257
	items := make([]glimp.Cylinder, n)
	colors := make([]glimp.Color, n)
	for i := range items {
		bottom := randVec(rng)
		items[i] = glimp.Cylinder{
			Bottom: bottom,
			Top:    ms3.Add(bottom, ms3.Vec{X: rng.Float32() + 0.1, Y: rng.Float32(), Z: rng.Float32()}),
			Radius: 0.1 + rng.Float32(),
		}
		colors[i] = glimp.Color{R: rng.Float32(), G: rng.Float32(), B: rng.Float32()}
	}
	serial := glinst.NewCylinders(n, true)
	for i := range items {
		err := serial.SetItem(i, items[i], colors[i])
		if err != nil {
			t.Fatal(err)
		}
	}
	for _, workers := range []int{1, 3, 8, 1000} {
		parallel, err := glinst.BuildCylinders(context.Background(), items, colors, true, workers)
		if err != nil {
			t.Fatal(err)
		}
		pa, sa := parallel.Attributes(), serial.Attributes()
		if len(pa) != 7 || len(pa) != len(sa) {
			t.Fatalf("want 7 attributes, got %d", len(pa))
		}
		for k := range pa {
			if pa[k].Name != sa[k].Name {
				t.Fatalf("attribute order differs: %s vs %s", pa[k].Name, sa[k].Name)
			}
			for j := range pa[k].Data {
				if pa[k].Data[j] != sa[k].Data[j] {
					t.Fatalf("workers=%d: %s differs at %d", workers, pa[k].Name, j)
				}
			}
		}
	}
}

func TestBuildCylindersError(t *testing.T) {
	items := []glimp.Cylinder{
		{Bottom: ms3.Vec{}, Top: ms3.Vec{Y: 1}, Radius: 1},
		{Bottom: ms3.Vec{X: 2}, Top: ms3.Vec{X: 2}, Radius: 1},
		{Bottom: ms3.Vec{}, Top: ms3.Vec{Z: 1}, Radius: 1},
	}
	_, err := glinst.BuildCylinders(context.Background(), items, nil, false, 2)
	if !errors.Is(err, glimp.ErrDegenerateSegment) {
		t.Fatalf("want ErrDegenerateSegment, got %v", err)
	}
	if !strings.Contains(err.Error(), "cylinder 1") {
		t.Errorf("error does not name failing item: %v", err)
	}
	_, err = glinst.BuildCylinders(context.Background(), items, make([]glimp.Color, 1), false, 2)
	if err == nil {
		t.Error("expected color count mismatch error")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = glinst.BuildCylinders(ctx, items[:1], nil, false, 1)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("want context.Canceled, got %v", err)
	}
}

func TestCylindersTransform(t *testing.T) {
	c := glinst.NewCylinders(1, false)
	cyl := glimp.Cylinder{Bottom: ms3.Vec{X: 1}, Top: ms3.Vec{X: 1, Y: 3}, Radius: 0.5}
	err := c.SetItem(0, cyl, glimp.Color{})
	if err != nil {
		t.Fatal(err)
	}
	want, _, _ := cyl.Transform(false)
	if c.Transform(0).Array() != want.Array() {
		t.Error("stored transform differs from computed")
	}
	if len(c.Attributes()) != 4 {
		t.Error("inverse attributes present without inverse")
	}
	bb := c.Bounds()
	wantBB := ms3.Box{Min: ms3.Vec{X: 0.5, Y: 0, Z: -0.5}, Max: ms3.Vec{X: 1.5, Y: 3, Z: 0.5}}
	if !boxEqual(bb, wantBB, 1e-5) {
		t.Errorf("want bounds %v, got %v", wantBB, bb)
	}
	defer func() {
		if recover() == nil {
			t.Error("expected panic for missing inverse")
		}
	}()
	c.InverseTransform(0)
}

func TestMeshes(t *testing.T) {
	var tests = []struct {
		name  string
		m     *glinst.Mesh
		verts int
	}{
		{name: "quad", m: glinst.Quad(), verts: 6},
		{name: "box", m: glinst.UnitCylinderBox(), verts: 36},
		{name: "cylinder", m: glinst.OpenCylinder(10), verts: 60},
		{name: "sphere", m: glinst.UVSphere(8, 4), verts: 8 * (4*2 - 2) * 3},
	}
	for _, test := range tests {
		if test.m.Len() != test.verts {
			t.Errorf("%s: want %d vertices, got %d", test.name, test.verts, test.m.Len())
		}
		attrs := test.m.Attributes()
		if attrs[0].Len() != attrs[1].Len() || attrs[0].Divisor != 0 {
			t.Errorf("%s: bad attributes", test.name)
		}
		// Normals are unit length.
		n := test.m.Normals
		for i := 0; i < len(n); i += 3 {
			l := math32.Sqrt(n[i]*n[i] + n[i+1]*n[i+1] + n[i+2]*n[i+2])
			if math32.Abs(l-1) > 1e-5 {
				t.Fatalf("%s: normal %d has length %g", test.name, i/3, l)
			}
		}
	}
}

func boxEqual(a, b ms3.Box, tol float32) bool {
	d1, d2 := ms3.Sub(a.Min, b.Min), ms3.Sub(a.Max, b.Max)
	return math32.Abs(d1.X) <= tol && math32.Abs(d1.Y) <= tol && math32.Abs(d1.Z) <= tol &&
		math32.Abs(d2.X) <= tol && math32.Abs(d2.Y) <= tol && math32.Abs(d2.Z) <= tol
}

func randVec(rng *rand.Rand) ms3.Vec {
	return ms3.Vec{X: 10 * (rng.Float32() - 0.5), Y: 10 * (rng.Float32() - 0.5), Z: 10 * (rng.Float32() - 0.5)}
}

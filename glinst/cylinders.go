package glinst

import (
	"context"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glimp"
	"golang.org/x/sync/errgroup"
)

// Cylinders holds the packed transform rows, inverse transform rows and colors
// of cylinder instances. Inverse rows are only kept when the buffer is built for
// ray traced impostors.
type Cylinders struct {
	items       []glimp.Cylinder
	mat         [3][]float32
	invmat      [3][]float32
	colors      []float32
	withInverse bool
}

// NewCylinders returns a buffer of n cylinders. Set them with [Cylinders.SetItem].
// withInverse should be set when the buffer feeds CylinderSprite materials or picking.
func NewCylinders(n int, withInverse bool) *Cylinders {
	c := &Cylinders{
		items:       make([]glimp.Cylinder, n),
		colors:      make([]float32, n*ColorSize),
		withInverse: withInverse,
	}
	for i := range c.mat {
		c.mat[i] = make([]float32, n*RowSize)
		if withInverse {
			c.invmat[i] = make([]float32, n*RowSize)
		}
	}
	return c
}

// Len returns the number of cylinders in the buffer.
func (c *Cylinders) Len() int { return len(c.items) }

// HasInverse reports whether the buffer holds inverse transforms.
func (c *Cylinders) HasInverse() bool { return c.withInverse }

// SetItem computes and stores the transform of cylinder i. On error the
// previously stored instance is left untouched.
func (c *Cylinders) SetItem(i int, cyl glimp.Cylinder, col glimp.Color) error {
	if err := checkIndex(i, c.Len()); err != nil {
		return err
	}
	t, inv, err := cyl.Transform(c.withInverse)
	if err != nil {
		return fmt.Errorf("cylinder %d: %w", i, err)
	}
	c.items[i] = cyl
	putRows(c.mat, i, glimp.PackRows(t))
	if c.withInverse {
		putRows(c.invmat, i, glimp.PackRows(inv))
	}
	rgb := col.Array()
	copy(c.colors[i*ColorSize:], rgb[:])
	return nil
}

// Item returns the i'th cylinder.
func (c *Cylinders) Item(i int) glimp.Cylinder { return c.items[i] }

// Color returns the color of cylinder i.
func (c *Cylinders) Color(i int) glimp.Color {
	rgb := c.colors[i*ColorSize : i*ColorSize+ColorSize]
	return glimp.Color{R: rgb[0], G: rgb[1], B: rgb[2]}
}

// Transform returns the transform of cylinder i as rebuilt from its packed rows.
func (c *Cylinders) Transform(i int) ms3.Mat4 {
	return glimp.UnpackRows(getRows(c.mat, i))
}

// InverseTransform returns the inverse transform of cylinder i. It panics if the
// buffer was built without inverses.
func (c *Cylinders) InverseTransform(i int) ms3.Mat4 {
	if !c.withInverse {
		panic("glinst: cylinder buffer built without inverse transforms")
	}
	return glimp.UnpackRows(getRows(c.invmat, i))
}

// Attributes returns the per-instance attributes matVector1..3, color and, when
// built with inverses, invmatVector1..3. The data is shared with c.
func (c *Cylinders) Attributes() []Attribute {
	attrs := []Attribute{
		{Name: "matVector1", Size: RowSize, Divisor: 1, Data: c.mat[0]},
		{Name: "matVector2", Size: RowSize, Divisor: 1, Data: c.mat[1]},
		{Name: "matVector3", Size: RowSize, Divisor: 1, Data: c.mat[2]},
		{Name: "color", Size: ColorSize, Divisor: 1, Data: c.colors},
	}
	if c.withInverse {
		attrs = append(attrs,
			Attribute{Name: "invmatVector1", Size: RowSize, Divisor: 1, Data: c.invmat[0]},
			Attribute{Name: "invmatVector2", Size: RowSize, Divisor: 1, Data: c.invmat[1]},
			Attribute{Name: "invmatVector3", Size: RowSize, Divisor: 1, Data: c.invmat[2]},
		)
	}
	return attrs
}

// Bounds returns the box enclosing all cylinders including their caps.
func (c *Cylinders) Bounds() ms3.Box {
	var bb ms3.Box
	for i, cyl := range c.items {
		bb = unionBox(bb, i == 0, cylinderBounds(cyl))
	}
	return bb
}

// cylinderBounds is the exact box of a capped cylinder: the endpoints grown by
// the extent of the cap disks along each axis.
func cylinderBounds(cyl glimp.Cylinder) ms3.Box {
	axis := ms3.Sub(cyl.Top, cyl.Bottom)
	h := ms3.Norm(axis)
	var ext ms3.Vec
	if h > 0 {
		a := ms3.Scale(1/h, axis)
		ext = ms3.Vec{
			X: cyl.Radius * math32.Sqrt(math32.Max(0, 1-a.X*a.X)),
			Y: cyl.Radius * math32.Sqrt(math32.Max(0, 1-a.Y*a.Y)),
			Z: cyl.Radius * math32.Sqrt(math32.Max(0, 1-a.Z*a.Z)),
		}
	}
	lo := ms3.MinElem(cyl.Bottom, cyl.Top)
	hi := ms3.MaxElem(cyl.Bottom, cyl.Top)
	return ms3.Box{Min: ms3.Sub(lo, ext), Max: ms3.Add(hi, ext)}
}

// BuildCylinders returns a buffer holding items and their colors, computing
// transforms on up to workers goroutines. colors may be nil, in which case all
// cylinders are white. The first failing item cancels the build and its error,
// which names the item index, is returned.
func BuildCylinders(ctx context.Context, items []glimp.Cylinder, colors []glimp.Color, withInverse bool, workers int) (*Cylinders, error) {
	if colors != nil && len(colors) != len(items) {
		return nil, fmt.Errorf("got %d colors for %d cylinders", len(colors), len(items))
	}
	if workers <= 0 {
		workers = 1
	}
	c := NewCylinders(len(items), withInverse)
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	chunk := (len(items) + workers - 1) / workers
	white := glimp.ColorHex(0xffffff)
	for start := 0; start < len(items); start += chunk {
		end := min(start+chunk, len(items))
		group.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				col := white
				if colors != nil {
					col = colors[i]
				}
				err := c.SetItem(i, items[i], col)
				if err != nil {
					return err
				}
			}
			return nil
		})
	}
	err := group.Wait()
	if err != nil {
		return nil, err
	}
	return c, nil
}

func putRows(dst [3][]float32, i int, rows [3][4]float32) {
	for r := range rows {
		copy(dst[r][i*RowSize:], rows[r][:])
	}
}

func getRows(src [3][]float32, i int) (rows [3][4]float32) {
	for r := range rows {
		copy(rows[r][:], src[r][i*RowSize:i*RowSize+RowSize])
	}
	return rows
}

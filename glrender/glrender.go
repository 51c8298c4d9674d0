// Package glrender renders sphere and cylinder instance buffers on the CPU:
// as triangle meshes for export or as ray cast images matching the impostor shader.
package glrender

import (
	"io"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glimp"
	"github.com/soypat/glimp/glinst"
)

// Renderer streams triangles.
type Renderer interface {
	ReadTriangles(dst []ms3.Triangle, userData any) (n int, err error)
}

// RenderAll reads the full contents of a Renderer and returns the slice read.
// It does not return error on io.EOF, like the io.RenderAll implementation.
func RenderAll(r Renderer, userData any) ([]ms3.Triangle, error) {
	const startSize = 4096
	var err error
	var nt int
	result := make([]ms3.Triangle, 0, startSize)
	buf := make([]ms3.Triangle, startSize)
	for {
		nt, err = r.ReadTriangles(buf, userData)
		if err == nil || err == io.EOF {
			result = append(result, buf[:nt]...)
		}
		if err != nil {
			break
		}
	}
	if err == io.EOF {
		return result, nil
	}
	return result, err
}

// Scene is a set of instance buffers with the materials they are shaded with.
// Either buffer may be nil. Nil materials shade with default options.
type Scene struct {
	Spheres          *glinst.Spheres
	SphereMaterial   *glimp.Material
	Cylinders        *glinst.Cylinders
	CylinderMaterial *glimp.Material
}

func (s Scene) numSpheres() int {
	if s.Spheres == nil {
		return 0
	}
	return s.Spheres.Len()
}

func (s Scene) numCylinders() int {
	if s.Cylinders == nil {
		return 0
	}
	return s.Cylinders.Len()
}

func options(mat *glimp.Material) *glimp.Options {
	if mat == nil {
		return glimp.NewOptions()
	}
	return mat.Options()
}

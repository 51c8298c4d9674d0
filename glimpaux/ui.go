//go:build !tinygo && cgo

package glimpaux

import (
	"bytes"
	"fmt"
	"log"
	"time"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/soypat/glgl/v4.6-core/glgl"
	"github.com/soypat/glimp"
	"github.com/soypat/glimp/glbuild"
	"github.com/soypat/glimp/glinst"
	"github.com/soypat/glimp/glrender"
)

func ui(scene Scene, cfg UIConfig) error {
	logf := func(format string, args ...any) {
		if !cfg.Silent {
			log.Printf(format, args...)
		}
	}
	window, term, err := startGLFW(cfg.Width, cfg.Height, cfg.Title)
	if err != nil {
		return err
	}
	defer term()

	// One batch per pass and buffer. Attribute locations are program specific
	// so batches do not share vertex arrays.
	var passes [2][]*batch
	for i, pass := range []glbuild.Pass{glbuild.PassColor, glbuild.PassDepth} {
		watch := stopwatch()
		if scene.Spheres != nil {
			b, err := newBatch(scene.SphereMaterial, pass, scene.Fog != nil, glinst.Quad(), scene.Spheres.Attributes(), scene.Spheres.Len())
			if err != nil {
				return fmt.Errorf("sphere program: %w", err)
			}
			defer b.delete()
			passes[i] = append(passes[i], b)
		}
		if scene.Cylinders != nil {
			mesh := glinst.OpenCylinder(16)
			if scene.CylinderMaterial.Features().Has(glimp.CylinderSprite) {
				mesh = glinst.UnitCylinderBox()
			}
			b, err := newBatch(scene.CylinderMaterial, pass, scene.Fog != nil, mesh, scene.Cylinders.Attributes(), scene.Cylinders.Len())
			if err != nil {
				return fmt.Errorf("cylinder program: %w", err)
			}
			defer b.delete()
			passes[i] = append(passes[i], b)
		}
		logf("compiled %s pass programs in %s", pass, watch())
	}

	gl.Enable(gl.DEPTH_TEST)

	cam := scene.Camera
	orb := newOrbit(cam)
	var (
		lastMouseX, lastMouseY float64
		firstMouseMove         = true
		isMousePressed         = false
		refresh                = true
		depthPass              = false
	)
	window.SetCursorPosCallback(func(w *glfw.Window, xpos float64, ypos float64) {
		if !isMousePressed {
			return
		}
		refresh = true
		if firstMouseMove {
			lastMouseX = xpos
			lastMouseY = ypos
			firstMouseMove = false
		}
		orb.drag(xpos-lastMouseX, ypos-lastMouseY)
		lastMouseX = xpos
		lastMouseY = ypos
	})
	window.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		refresh = true
		orb.zoom(yoff)
	})
	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		switch button {
		case glfw.MouseButtonLeft:
			refresh = true
			if action == glfw.Press {
				isMousePressed = true
				firstMouseMove = true
				window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
			} else if action == glfw.Release {
				isMousePressed = false
				window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
			}
		case glfw.MouseButtonRight:
			if action != glfw.Press {
				return
			}
			x, y := window.GetCursorPos()
			width, height := window.GetSize()
			if desc := pick(&scene, glrender.PixelRay(cam, float32(x), float32(y), width, height)); desc != "" {
				logf("picked %s", desc)
			}
		}
	})
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyD && action == glfw.Press {
			depthPass = !depthPass
			refresh = true
		}
	})

	ctx := cfg.Context
	bg := scene.Background
	for !window.ShouldClose() {
		if ctx != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
		orb.apply(&cam)
		gl.ClearColor(bg.R, bg.G, bg.B, 1.0)
		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
		batches := passes[0]
		if depthPass {
			batches = passes[1]
		}
		for _, b := range batches {
			err = b.draw(cam, scene.Light, scene.Fog)
			if err != nil {
				return err
			}
		}
		window.SwapBuffers()

		// Limit frame rate
		for {
			time.Sleep(time.Second / 60)
			glfw.PollEvents()
			if refresh || window.ShouldClose() {
				refresh = false
				break
			}
		}
	}
	return nil
}

// batch is an instanced draw call: a compiled material variant, the vertex array
// holding the base mesh and instance attributes and the uniform locations.
type batch struct {
	mat       *glimp.Material
	prog      glgl.Program
	vao       uint32
	vbos      []uint32
	verts     int32
	instances int32
	uniforms  map[string]int32
}

func newBatch(mat *glimp.Material, pass glbuild.Pass, fog bool, mesh *glinst.Mesh, instanced []glinst.Attribute, n int) (*batch, error) {
	var source bytes.Buffer
	v := mat.Variant(glbuild.DialectCore410, pass)
	v.Fog = fog
	err := mat.WriteVariant(&source, v)
	if err != nil {
		return nil, err
	}
	combined, err := glgl.ParseCombined(&source)
	if err != nil {
		return nil, err
	}
	prog, err := glgl.CompileProgram(combined)
	if err != nil {
		return nil, fmt.Errorf("%s\n%s\n%w", combined.Vertex, combined.Fragment, err)
	}
	b := &batch{
		mat:       mat,
		prog:      prog,
		verts:     int32(mesh.Len()),
		instances: int32(n),
		uniforms:  make(map[string]int32),
	}
	prog.Bind()
	gl.GenVertexArrays(1, &b.vao)
	gl.BindVertexArray(b.vao)
	for _, attr := range append(mesh.Attributes(), instanced...) {
		// Attributes unused by the variant are removed by the GLSL compiler.
		loc, err := prog.AttribLocation(attr.Name + "\x00")
		if err != nil || len(attr.Data) == 0 {
			continue
		}
		var vbo uint32
		gl.GenBuffers(1, &vbo)
		gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
		gl.BufferData(gl.ARRAY_BUFFER, 4*len(attr.Data), gl.Ptr(attr.Data), gl.STATIC_DRAW)
		gl.EnableVertexAttribArray(loc)
		gl.VertexAttribPointer(loc, int32(attr.Size), gl.FLOAT, false, 0, gl.PtrOffset(0))
		gl.VertexAttribDivisor(loc, uint32(attr.Divisor))
		b.vbos = append(b.vbos, vbo)
	}
	gl.BindVertexArray(0)

	for _, name := range uniformNames(mat) {
		loc, err := prog.UniformLocation(name + "\x00")
		if err != nil {
			continue
		}
		b.uniforms[name] = loc
	}
	prog.Unbind()
	return b, nil
}

func (b *batch) draw(cam glimp.Camera, light Light, fog *Fog) error {
	u, err := frameUniforms(b.mat, cam, light, fog)
	if err != nil {
		return err
	}
	b.prog.Bind()
	defer b.prog.Unbind()
	for name, loc := range b.uniforms {
		slot, ok := u[name]
		if !ok {
			continue
		}
		data, err := uniformData(slot.Value)
		if err != nil {
			return fmt.Errorf("uniform %s: %w", name, err)
		}
		switch len(data) {
		case 1:
			gl.Uniform1f(loc, data[0])
		case 3:
			gl.Uniform3f(loc, data[0], data[1], data[2])
		case 16:
			// Row-major data, transposed on upload.
			gl.UniformMatrix4fv(loc, 1, true, &data[0])
		}
	}
	gl.BindVertexArray(b.vao)
	gl.DrawArraysInstanced(gl.TRIANGLES, 0, b.verts, b.instances)
	gl.BindVertexArray(0)
	return nil
}

func (b *batch) delete() {
	if len(b.vbos) > 0 {
		gl.DeleteBuffers(int32(len(b.vbos)), &b.vbos[0])
	}
	gl.DeleteVertexArrays(1, &b.vao)
	b.prog.Delete()
}

func startGLFW(width, height int, title string) (window *glfw.Window, term func(), err error) {
	if err := glfw.Init(); err != nil {
		return nil, nil, fmt.Errorf("initializing GLFW: %w", err)
	}
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 6)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.Resizable, glfw.False)

	window, err = glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, nil, fmt.Errorf("creating GLFW window: %w", err)
	}
	window.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		glfw.Terminate()
		return nil, nil, fmt.Errorf("initializing OpenGL: %w", err)
	}
	return window, glfw.Terminate, nil
}

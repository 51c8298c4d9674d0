package glimpaux

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"

	"github.com/soypat/glgl/math/ms1"
	"github.com/soypat/glimp"
	"github.com/soypat/glimp/glrender"
)

type RenderConfig struct {
	// STLOutput receives the scene tessellated as a binary STL mesh.
	STLOutput io.Writer
	// ImageOutput receives a PNG of the scene ray cast on the CPU.
	ImageOutput   io.Writer
	Width, Height int
	// Depth renders a near to far color gradient instead of shading.
	Depth  bool
	Mesh   glrender.MeshConfig
	Silent bool
}

// Render is an auxiliary function that exports a scene without a GPU: as an
// STL mesh, as a PNG image or both.
func Render(scene Scene, cfg RenderConfig) error {
	if cfg.STLOutput == nil && cfg.ImageOutput == nil {
		return errors.New("Render requires output parameter in config")
	}
	log := func(args ...any) {
		if !cfg.Silent {
			fmt.Println(args...)
		}
	}
	if cfg.ImageOutput != nil && (cfg.Width <= 0 || cfg.Height <= 0) {
		return errors.New("image output requires positive dimensions")
	}
	aspect := float32(1)
	if cfg.Height > 0 {
		aspect = float32(cfg.Width) / float32(cfg.Height)
	}
	err := scene.prepare(aspect)
	if err != nil {
		return err
	}
	rs := scene.renderScene()

	if cfg.STLOutput != nil {
		watch := stopwatch()
		meshCfg := cfg.Mesh
		if meshCfg == (glrender.MeshConfig{}) {
			meshCfg = glrender.DefaultMeshConfig()
		}
		renderer, err := glrender.NewMeshRenderer(rs, meshCfg)
		if err != nil {
			return err
		}
		triangles, err := glrender.RenderAll(renderer, nil)
		if err != nil {
			return fmt.Errorf("rendering triangles: %w", err)
		}
		_, err = glrender.WriteBinarySTL(cfg.STLOutput, triangles)
		if err != nil {
			return fmt.Errorf("writing STL file: %w", err)
		}
		log("wrote", len(triangles), "triangles to", outputName(cfg.STLOutput, "STL"), "in", watch())
	}

	if cfg.ImageOutput != nil {
		watch := stopwatch()
		ir := glrender.ImageRenderer{
			Camera:     scene.Camera,
			Light:      scene.Light,
			Background: rgbaColor(scene.Background),
			Fog:        scene.Fog,
		}
		if cfg.Depth {
			ir.DepthConversion = ColorConversionLinearGradient(color.White, color.Black)
		}
		img := image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
		err = ir.Render(img, rs)
		if err != nil {
			return fmt.Errorf("rendering image: %w", err)
		}
		err = png.Encode(cfg.ImageOutput, img)
		if err != nil {
			return fmt.Errorf("encoding PNG: %w", err)
		}
		log("wrote", outputName(cfg.ImageOutput, "PNG"), "in", watch())
	}
	return nil
}

func outputName(w io.Writer, fallback string) string {
	if fp, ok := w.(*os.File); ok {
		return fp.Name()
	}
	return fallback
}

func rgbaColor(c glimp.Color) color.RGBA {
	return color.RGBA{
		R: uint8(ms1.Clamp(c.R, 0, 1) * 255),
		G: uint8(ms1.Clamp(c.G, 0, 1) * 255),
		B: uint8(ms1.Clamp(c.B, 0, 1) * 255),
		A: 255,
	}
}

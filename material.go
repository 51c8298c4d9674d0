package glimp

import (
	"fmt"
	"io"
	"sort"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glimp/glbuild"
	"github.com/soypat/glimp/glbuild/glsllib"
)

// Material is a configuration of the uber shader: the feature flags selecting
// its variant, the options feeding its uniforms and the uniform slots themselves.
// Materials are not safe for concurrent use.
type Material struct {
	features Features
	config   ShaderConfig
	opts     *Options
	uniforms Uniforms
}

// NewMaterial returns a material with root options, default uniforms and the shader
// configuration resolved from f. Uniforms hold the default uniform values until
// [Material.UpdateUniforms] is called.
func NewMaterial(f Features) *Material {
	return &Material{
		features: f,
		config:   Resolve(f),
		opts:     NewOptions(),
		uniforms: DefaultUniforms(),
	}
}

// SetFeatures replaces the feature flags and the resolved shader configuration.
// Defines and extensions of the previous flags do not carry over.
func (m *Material) SetFeatures(f Features) {
	m.features = f
	m.config = Resolve(f)
}

// Features returns the feature flags the material was last configured with.
func (m *Material) Features() Features { return m.features }

// Config returns the shader configuration resolved from the material's features.
func (m *Material) Config() ShaderConfig { return m.config }

// Options returns the option node of the material. Edits on it are seen by
// instances of the material that do not override the same option.
func (m *Material) Options() *Options { return m.opts }

// Uniforms returns the uniform slots owned by the material.
func (m *Material) Uniforms() Uniforms { return m.uniforms }

// SetOptions overrides the named options with their values. Names may be schema names
// or uniform names. Either all values are applied or, on error, none are.
func (m *Material) SetOptions(values map[string]any) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	staged := *m.opts
	for _, name := range names {
		err := staged.SetByName(name, values[name])
		if err != nil {
			return err
		}
	}
	*m.opts = staged
	return nil
}

// UpdateUniforms writes the effective option values into the material's uniforms.
func (m *Material) UpdateUniforms() {
	SyncUniforms(m.uniforms, m.opts)
}

// Instance returns a material with the same features and a copy of m's uniforms
// whose options fall back on m's options. Overrides on the instance never reach m.
func (m *Material) Instance() *Material {
	opts, err := DeriveOptions(m.opts)
	if err != nil {
		panic(err) // Materials always hold options.
	}
	return &Material{
		features: m.features,
		config:   m.config,
		opts:     opts,
		uniforms: m.uniforms.Clone(),
	}
}

// CopyFrom makes m a copy of src: features, configuration, a clone of its uniforms and
// the options src overrides itself. The option parent of m is kept.
func (m *Material) CopyFrom(src *Material) {
	m.features = src.features
	m.config = src.config
	m.uniforms = src.uniforms.Clone()
	m.opts.CopyFrom(src.opts)
}

// SetModelView stores the inverse of view*world in the invModelViewMatrix uniform.
// It is called once per frame before drawing, after the camera moves.
func (m *Material) SetModelView(view, world ms3.Mat4) error {
	inv, err := InverseModelView(view, world)
	if err != nil {
		return fmt.Errorf("model view: %w", err)
	}
	m.uniforms.Set(UniformInvModelView, inv)
	return nil
}

// Variant returns the shader variant of the material for the given pass.
func (m *Material) Variant(dialect glbuild.Dialect, pass glbuild.Pass) glbuild.Variant {
	return glbuild.Variant{
		Dialect:    dialect,
		Defines:    m.config.DefineNames(),
		Extensions: m.config.ExtensionNames(),
		Pass:       pass,
	}
}

// WriteShaders writes the GLSL 4.1 core vertex and fragment sources of the material's variant.
func (m *Material) WriteShaders(vert, frag io.Writer, pass glbuild.Pass) error {
	p := glbuild.NewDefaultProgrammer()
	v := m.Variant(glbuild.DialectCore410, pass)
	_, err := p.WriteStage(vert, v, glsllib.UberVertex())
	if err != nil {
		return fmt.Errorf("vertex shader: %w", err)
	}
	_, err = p.WriteStage(frag, v, glsllib.UberFragment(), glsllib.FragmentFunctions()...)
	if err != nil {
		return fmt.Errorf("fragment shader: %w", err)
	}
	return nil
}

// WriteCombined writes both shader stages of the material's variant in the
// combined format read by glgl.ParseCombined.
func (m *Material) WriteCombined(w io.Writer, pass glbuild.Pass) error {
	return m.WriteVariant(w, m.Variant(glbuild.DialectCore410, pass))
}

// WriteVariant is like [Material.WriteCombined] for a variant edited by the caller,
// i.e. with fog enabled. The uber shader is only written for [glbuild.DialectCore410].
func (m *Material) WriteVariant(w io.Writer, v glbuild.Variant) error {
	if v.Dialect != glbuild.DialectCore410 {
		return fmt.Errorf("uber shader bodies require GLSL 4.1 core, got dialect %d", v.Dialect)
	}
	p := glbuild.NewDefaultProgrammer()
	_, err := p.WriteCombined(w, v, glsllib.UberVertex(), glsllib.UberFragment(), glsllib.FragmentFunctions()...)
	return err
}

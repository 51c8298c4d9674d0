package glimp

import (
	"sort"

	"github.com/soypat/geometry/ms3"
)

// Uniform names of the uber shader that are not backed by an uber option.
const (
	UniformInvModelView = "invModelViewMatrix"
)

// Uniform is a value slot of a shader program. Value holds a float32, [Color] or [ms3.Mat4].
type Uniform struct {
	Value any
}

// Uniforms maps shader uniform names to their value slots.
type Uniforms map[string]*Uniform

// DefaultUniforms returns a fresh set of the uniforms declared by the uber shader.
func DefaultUniforms() Uniforms {
	return Uniforms{
		OptDiffuse.UniformName():       {Value: ColorHex(0x111111)},
		OptSpecular.UniformName():      {Value: ColorHex(0x111111)},
		OptShininess.UniformName():     {Value: float32(30)},
		OptZOffset.UniformName():       {Value: float32(0)},
		OptProjMatrixInv.UniformName(): {Value: ms3.IdentityMat4()},
		UniformInvModelView:            {Value: ms3.IdentityMat4()},
	}
}

// Clone returns a copy of u that shares no value slots with it.
func (u Uniforms) Clone() Uniforms {
	c := make(Uniforms, len(u))
	for name, slot := range u {
		c[name] = &Uniform{Value: slot.Value}
	}
	return c
}

// Set stores v in the slot called name, creating the slot if missing.
func (u Uniforms) Set(name string, v any) {
	if slot, ok := u[name]; ok {
		slot.Value = v
		return
	}
	u[name] = &Uniform{Value: v}
}

// Names returns the uniform names in u sorted alphabetically.
func (u Uniforms) Names() []string {
	names := make([]string, 0, len(u))
	for name := range u {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SyncUniforms writes the effective value of every uber option into the
// uniform of the same name in dst. Uniforms missing from dst are skipped since a
// shader variant need not declare all of them. Colors and matrices are stored as
// copies so later option edits never reach a synced slot.
func SyncUniforms(dst Uniforms, o *Options) {
	for _, opt := range AllOptions() {
		slot, ok := dst[opt.UniformName()]
		if !ok || slot == nil {
			continue
		}
		slot.Value = o.Value(opt)
	}
}

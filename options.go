package glimp

import (
	"fmt"

	"github.com/soypat/geometry/ms3"
)

// Option identifies one of the uber material options. The set is closed.
type Option uint8

const (
	OptDiffuse Option = iota
	OptSpecular
	OptShininess
	OptZOffset
	OptProjMatrixInv
	numOptions
)

var optionNames = [numOptions]struct{ schema, uniform string }{
	OptDiffuse:       {"diffuseColor", "diffuse"},
	OptSpecular:      {"specularColor", "specular"},
	OptShininess:     {"shininess", "shininess"},
	OptZOffset:       {"zOffset", "zOffset"},
	OptProjMatrixInv: {"inverseProjection", "projMatrixInv"},
}

// AllOptions returns all uber options in declaration order.
func AllOptions() []Option {
	return []Option{OptDiffuse, OptSpecular, OptShininess, OptZOffset, OptProjMatrixInv}
}

// ParseOption returns the option matching name. Both the schema names
// (i.e. "diffuseColor") and the shader uniform names (i.e. "diffuse") are accepted.
func ParseOption(name string) (Option, error) {
	for i, n := range optionNames {
		if name == n.schema || name == n.uniform {
			return Option(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOption, name)
}

func (o Option) valid() bool { return o < numOptions }

func (o Option) String() string {
	if !o.valid() {
		return fmt.Sprintf("Option(%d)", uint8(o))
	}
	return optionNames[o].schema
}

// UniformName returns the name of the shader uniform the option is synced to.
func (o Option) UniformName() string {
	if !o.valid() {
		return ""
	}
	return optionNames[o].uniform
}

func (o Option) mask() uint8 { return 1 << o }

// Options is a node in a fallback chain of uber options. Options not set on a node
// are looked up on its parent and finally on the package defaults, which are never modified.
// The zero value is a valid root node with no overrides.
type Options struct {
	parent *Options
	// set holds a bit per Option that is overridden on this node.
	set       uint8
	diffuse   Color
	specular  Color
	shininess float32
	zOffset   float32
	projInv   ms3.Mat4
}

var defaultOptions = Options{
	set:       1<<numOptions - 1,
	diffuse:   ColorHex(0xffffff),
	specular:  ColorHex(0x111111),
	shininess: 30,
	zOffset:   0,
	projInv:   ms3.IdentityMat4(),
}

// DefaultValue returns the package default for opt.
func DefaultValue(opt Option) any {
	mustValid(opt)
	return defaultOptions.get(opt)
}

// NewOptions returns a root option set that falls back on the package defaults.
func NewOptions() *Options { return &Options{} }

// DeriveOptions returns a new option set with no overrides that falls back on parent.
func DeriveOptions(parent *Options) (*Options, error) {
	if parent == nil {
		return nil, fmt.Errorf("%w: nil parent for derived options", ErrInvalidParent)
	}
	return &Options{parent: parent}, nil
}

// Parent returns the node o falls back on. It is nil for root nodes.
func (o *Options) Parent() *Options { return o.parent }

// SetParent changes the fallback of o. A nil parent turns o into a root node.
// Parents that are o itself or fall back on o are rejected.
func (o *Options) SetParent(parent *Options) error {
	for p := parent; p != nil; p = p.parent {
		if p == o {
			return fmt.Errorf("%w: fallback cycle", ErrInvalidParent)
		}
	}
	o.parent = parent
	return nil
}

// Overrides reports whether o itself sets opt, ignoring its parents.
func (o *Options) Overrides(opt Option) bool {
	return opt.valid() && o.set&opt.mask() != 0
}

// Set overrides opt with v on o. Colors take a [Color], the inverse
// projection takes a [ms3.Mat4] and scalars accept float32, float64 or int.
func (o *Options) Set(opt Option, v any) error {
	if !opt.valid() {
		return fmt.Errorf("%w: %v", ErrUnknownOption, opt)
	}
	switch opt {
	case OptDiffuse, OptSpecular:
		c, ok := v.(Color)
		if !ok {
			return fmt.Errorf("%w: %v wants Color, got %T", ErrOptionType, opt, v)
		}
		if opt == OptDiffuse {
			o.diffuse = c
		} else {
			o.specular = c
		}
	case OptProjMatrixInv:
		m, ok := v.(ms3.Mat4)
		if !ok {
			return fmt.Errorf("%w: %v wants ms3.Mat4, got %T", ErrOptionType, opt, v)
		}
		o.projInv = m
	case OptShininess, OptZOffset:
		f, ok := scalar(v)
		if !ok {
			return fmt.Errorf("%w: %v wants scalar, got %T", ErrOptionType, opt, v)
		}
		if opt == OptShininess {
			if !(f >= 0) {
				return fmt.Errorf("%w: shininess must be non-negative, got %g", ErrOptionType, f)
			}
			o.shininess = f
		} else {
			o.zOffset = f
		}
	}
	o.set |= opt.mask()
	return nil
}

// SetByName is like [Options.Set] but looks up the option by name first.
func (o *Options) SetByName(name string, v any) error {
	opt, err := ParseOption(name)
	if err != nil {
		return err
	}
	return o.Set(opt, v)
}

// Unset drops the override of opt on o so lookups fall back again.
func (o *Options) Unset(opt Option) {
	if opt.valid() {
		o.set &^= opt.mask()
	}
}

// SetDiffuse overrides the diffuse color.
func (o *Options) SetDiffuse(c Color) {
	o.diffuse = c
	o.set |= OptDiffuse.mask()
}

// SetSpecular overrides the specular color.
func (o *Options) SetSpecular(c Color) {
	o.specular = c
	o.set |= OptSpecular.mask()
}

// SetZOffset overrides the view space depth offset.
func (o *Options) SetZOffset(z float32) {
	o.zOffset = z
	o.set |= OptZOffset.mask()
}

// SetProjMatrixInv overrides the inverse projection matrix.
func (o *Options) SetProjMatrixInv(m ms3.Mat4) {
	o.projInv = m
	o.set |= OptProjMatrixInv.mask()
}

// SetShininess overrides the specular exponent. Negative and NaN values are rejected.
func (o *Options) SetShininess(s float32) error { return o.Set(OptShininess, s) }

// Value returns the effective value of opt: the nearest override walking from o
// up through its parents, or the package default. Value panics if opt is not a declared Option.
func (o *Options) Value(opt Option) any {
	mustValid(opt)
	return o.owner(opt).get(opt)
}

// ValueByName is like [Options.Value] but looks up the option by name first.
func (o *Options) ValueByName(name string) (any, error) {
	opt, err := ParseOption(name)
	if err != nil {
		return nil, err
	}
	return o.Value(opt), nil
}

// Diffuse returns the effective diffuse color.
func (o *Options) Diffuse() Color { return o.owner(OptDiffuse).diffuse }

// Specular returns the effective specular color.
func (o *Options) Specular() Color { return o.owner(OptSpecular).specular }

// Shininess returns the effective specular exponent.
func (o *Options) Shininess() float32 { return o.owner(OptShininess).shininess }

// ZOffset returns the effective view space depth offset.
func (o *Options) ZOffset() float32 { return o.owner(OptZOffset).zOffset }

// ProjMatrixInv returns the effective inverse projection matrix.
func (o *Options) ProjMatrixInv() ms3.Mat4 { return o.owner(OptProjMatrixInv).projInv }

// CopyFrom copies the overrides set directly on src into o.
// Values src inherits are not copied and the parent of o is left untouched.
func (o *Options) CopyFrom(src *Options) {
	for _, opt := range AllOptions() {
		if src.Overrides(opt) {
			o.put(opt, src)
		}
	}
}

// owner returns the first node in the fallback chain overriding opt.
func (o *Options) owner(opt Option) *Options {
	m := opt.mask()
	for n := o; n != nil; n = n.parent {
		if n.set&m != 0 {
			return n
		}
	}
	return &defaultOptions
}

func (o *Options) get(opt Option) any {
	switch opt {
	case OptDiffuse:
		return o.diffuse
	case OptSpecular:
		return o.specular
	case OptShininess:
		return o.shininess
	case OptZOffset:
		return o.zOffset
	case OptProjMatrixInv:
		return o.projInv
	}
	panic("unreachable")
}

// put copies the value of opt from src into o and marks it as overridden.
func (o *Options) put(opt Option, src *Options) {
	switch opt {
	case OptDiffuse:
		o.diffuse = src.diffuse
	case OptSpecular:
		o.specular = src.specular
	case OptShininess:
		o.shininess = src.shininess
	case OptZOffset:
		o.zOffset = src.zOffset
	case OptProjMatrixInv:
		o.projInv = src.projInv
	}
	o.set |= opt.mask()
}

func mustValid(opt Option) {
	if !opt.valid() {
		panic("glimp: undeclared option " + opt.String())
	}
}

func scalar(v any) (float32, bool) {
	switch f := v.(type) {
	case float32:
		return f, true
	case float64:
		return float32(f), true
	case int:
		return float32(f), true
	}
	return 0, false
}

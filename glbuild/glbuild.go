package glbuild

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/soypat/geometry/ms3"
)

const VersionStr = "#version 410 core\n"

// Dialect is the GLSL flavor a shader variant is generated for.
type Dialect uint8

const (
	// DialectCore410 is desktop OpenGL 4.1 core GLSL. Fragment depth writes are core functionality.
	DialectCore410 Dialect = iota
	// DialectES100 is GLSL ES 1.00 as used by WebGL 1. Fragment depth writes need GL_EXT_frag_depth.
	// Only the preamble is dialect aware: shader bodies and functions written with it must
	// themselves be GLSL ES 1.00, which the uber shader bodies in glsllib are not.
	DialectES100
)

func (d Dialect) versionLine() string {
	switch d {
	case DialectCore410:
		return VersionStr
	case DialectES100:
		return "#version 100\n"
	}
	return ""
}

// Pass selects what the program outputs. It adds a pass define after the variant defines.
type Pass uint8

const (
	// PassColor renders lit color. Defines USE_LIGHTS.
	PassColor Pass = iota
	// PassDepth renders depth encoded as color for shadow maps. Defines COLOR_FROM_DEPTH.
	PassDepth
)

func (p Pass) define() string {
	switch p {
	case PassColor:
		return "USE_LIGHTS"
	case PassDepth:
		return "COLOR_FROM_DEPTH"
	}
	return ""
}

func (p Pass) String() string {
	switch p {
	case PassColor:
		return "color"
	case PassDepth:
		return "depth"
	}
	return "Pass(" + strconv.Itoa(int(p)) + ")"
}

// Extension names understood by the Programmer.
const (
	ExtFragmentDepthWrite = "FRAGMENT_DEPTH_WRITE"
)

// Variant is the compile-time configuration of one uber shader program.
type Variant struct {
	Dialect Dialect
	// Defines are preprocessor symbols defined to 1. Order is irrelevant.
	Defines []string
	// Extensions are GPU capabilities required by the program, i.e. [ExtFragmentDepthWrite].
	Extensions []string
	Pass       Pass
	// Fog enables exponential squared fog in the color pass. Defines USE_FOG.
	Fog bool
}

// Name returns a short identifier unique to the variant's configuration.
func (v Variant) Name() string {
	h := uint64(v.Dialect)<<8 | uint64(v.Pass)
	if v.Fog {
		h |= 1 << 16
	}
	for _, d := range sorted(v.Defines) {
		h = hash([]byte(d), h)
	}
	for _, e := range sorted(v.Extensions) {
		h = hash([]byte(e), h)
	}
	return "uber" + strconv.FormatUint(h, 32)
}

// ShaderFunction is a GLSL function definition written ahead of the shader body that uses it.
type ShaderFunction struct {
	// Name is the function name as found in Source.
	Name   []byte
	Source []byte
}

// MakeShaderFunction parses the name of the GLSL function definition in shaderDef.
func MakeShaderFunction(shaderDef []byte) (sf ShaderFunction, err error) {
	shaderDef = bytes.TrimSpace(shaderDef)
	fnNameEnd := bytes.IndexByte(shaderDef, '(')
	fnNameStart := bytes.IndexByte(shaderDef, ' ')
	if fnNameEnd < 0 || fnNameStart < 0 || fnNameStart > fnNameEnd {
		return ShaderFunction{}, errors.New("unable to parse function name")
	}
	name := shaderDef[fnNameStart:fnNameEnd]
	name = bytes.TrimSpace(name)
	if len(name) == 0 {
		return ShaderFunction{}, errors.New("empty function name")
	}
	sf = ShaderFunction{
		Name:   name,
		Source: shaderDef,
	}
	return sf, nil
}

// Programmer writes shader variants: the preamble derived from a [Variant]
// followed by helper functions and a shader body.
type Programmer struct {
	scratch []byte
	// names maps function name hashes to source hashes for checking duplicates.
	names map[uint64]uint64
}

// NewDefaultProgrammer returns a Programmer ready for use.
func NewDefaultProgrammer() *Programmer {
	return &Programmer{
		scratch: make([]byte, 0, 1024),
		names:   make(map[uint64]uint64),
	}
}

// AppendPreamble appends the version line, extension directives, precision
// statements and defines of v to b. Defines are written in sorted order.
func (p *Programmer) AppendPreamble(b []byte, v Variant) ([]byte, error) {
	version := v.Dialect.versionLine()
	if version == "" {
		return b, fmt.Errorf("unknown dialect %d", v.Dialect)
	}
	b = append(b, version...)
	fragDepth := false
	for _, ext := range sorted(v.Extensions) {
		switch ext {
		case ExtFragmentDepthWrite:
			fragDepth = true
			if v.Dialect == DialectES100 {
				b = AppendExtensionDecl(b, "GL_EXT_frag_depth", "enable")
			}
		default:
			return b, fmt.Errorf("unknown extension %q", ext)
		}
	}
	if v.Dialect == DialectES100 {
		b = append(b, "precision highp float;\nprecision highp int;\n"...)
	}
	if fragDepth {
		b = AppendDefineDecl(b, ExtFragmentDepthWrite, "1")
		if v.Dialect == DialectES100 {
			b = AppendDefineDecl(b, "SET_FRAG_DEPTH(d)", "gl_FragDepthEXT = (d)")
		} else {
			b = AppendDefineDecl(b, "SET_FRAG_DEPTH(d)", "gl_FragDepth = (d)")
		}
	}
	for _, d := range sorted(v.Defines) {
		if !validIdent(d) {
			return b, fmt.Errorf("invalid define name %q", d)
		}
		b = AppendDefineDecl(b, d, "1")
	}
	if pd := v.Pass.define(); pd != "" {
		b = AppendDefineDecl(b, pd, "1")
	} else {
		return b, fmt.Errorf("unknown pass %d", v.Pass)
	}
	if v.Fog && v.Pass == PassColor {
		b = AppendDefineDecl(b, "USE_FOG", "1")
	}
	return b, nil
}

// WriteStage writes one complete shader stage to w: the preamble of v, the
// functions in order of appearance with duplicates omitted, and body.
func (p *Programmer) WriteStage(w io.Writer, v Variant, body []byte, funcs ...ShaderFunction) (n int, err error) {
	p.scratch, err = p.AppendPreamble(p.scratch[:0], v)
	if err != nil {
		return 0, err
	}
	p.scratch = append(p.scratch, '\n')
	p.scratch, err = p.appendFunctions(p.scratch, funcs)
	if err != nil {
		return 0, err
	}
	p.scratch = append(p.scratch, body...)
	if len(body) > 0 && body[len(body)-1] != '\n' {
		p.scratch = append(p.scratch, '\n')
	}
	return w.Write(p.scratch)
}

// WriteCombined writes the vertex and fragment stages of v in the combined format
// understood by glgl.ParseCombined, each stage introduced by a "#shader" line.
func (p *Programmer) WriteCombined(w io.Writer, v Variant, vertex, fragment []byte, funcs ...ShaderFunction) (n int, err error) {
	ngot, err := io.WriteString(w, "#shader vertex\n")
	n += ngot
	if err != nil {
		return n, err
	}
	ngot, err = p.WriteStage(w, v, vertex, funcs...)
	n += ngot
	if err != nil {
		return n, err
	}
	ngot, err = io.WriteString(w, "#shader fragment\n")
	n += ngot
	if err != nil {
		return n, err
	}
	ngot, err = p.WriteStage(w, v, fragment, funcs...)
	n += ngot
	return n, err
}

func (p *Programmer) appendFunctions(b []byte, funcs []ShaderFunction) ([]byte, error) {
	clear(p.names)
	for _, fn := range funcs {
		nameHash := hash(fn.Name, 0)
		srcHash := hash(fn.Source, nameHash)
		gotHash, nameConflict := p.names[nameHash]
		if nameConflict {
			if gotHash == srcHash {
				continue // Identical function already written.
			}
			return b, fmt.Errorf("conflicting definitions for shader function %q", fn.Name)
		}
		p.names[nameHash] = srcHash
		b = append(b, fn.Source...)
		b = append(b, "\n\n"...)
	}
	return b, nil
}

func AppendDefineDecl(b []byte, aliasToDefine, aliasReplace string) []byte {
	b = append(b, "#define "...)
	b = append(b, aliasToDefine...)
	b = append(b, ' ')
	b = append(b, aliasReplace...)
	b = append(b, '\n')
	return b
}

func AppendUndefineDecl(b []byte, aliasToUndefine string) []byte {
	b = append(b, "#undef "...)
	b = append(b, aliasToUndefine...)
	b = append(b, '\n')
	return b
}

// AppendExtensionDecl appends a GLSL extension directive, behavior is one of "enable", "require", "warn" or "disable".
func AppendExtensionDecl(b []byte, extension, behavior string) []byte {
	b = append(b, "#extension "...)
	b = append(b, extension...)
	b = append(b, " : "...)
	b = append(b, behavior...)
	b = append(b, '\n')
	return b
}

func AppendVec3Decl(b []byte, vec3Varname string, v ms3.Vec) []byte {
	b = append(b, "vec3 "...)
	b = append(b, vec3Varname...)
	b = append(b, "=vec3("...)
	b = AppendFloats(b, ',', '-', '.', v.X, v.Y, v.Z)
	b = append(b, ')', ';', '\n')
	return b
}

func AppendFloatDecl(b []byte, floatVarname string, v float32) []byte {
	b = append(b, "float "...)
	b = append(b, floatVarname...)
	b = append(b, '=')
	b = AppendFloat(b, '-', '.', v)
	b = append(b, ';', '\n')
	return b
}

func AppendMat4Decl(b []byte, mat4Varname string, m44 ms3.Mat4) []byte {
	arr := m44.Array()
	return appendMatDecl(b, "mat4", mat4Varname, 4, 4, arr[:])
}

func appendMatDecl(b []byte, typename, name string, row, col int, arr []float32) []byte {
	b = append(b, typename...)
	b = append(b, ' ')
	b = append(b, name...)
	b = append(b, '=')
	b = append(b, typename...)
	b = append(b, '(')
	for i := 0; i < row; i++ {
		for j := 0; j < col; j++ {
			v := arr[j*row+i] // Column major access, as per OpenGL standard.
			b = AppendFloat(b, '-', '.', v)
			last := i == row-1 && j == col-1
			if !last {
				b = append(b, ',')
			}
		}
	}
	b = append(b, ");\n"...)
	return b
}

const decimalDigits = 9

func AppendFloat(b []byte, neg, decimal byte, v float32) []byte {
	start := len(b)
	b = strconv.AppendFloat(b, float64(v), 'f', decimalDigits, 32)
	idx := bytes.IndexByte(b[start:], '.')
	if decimal != '.' && idx >= 0 {
		b[start+idx] = decimal
	}
	if b[start] == '-' {
		b[start] = neg
	}
	// Finally trim zeroes.
	end := len(b)
	for i := len(b) - 1; idx >= 0 && i > idx+start && b[i] == '0'; i-- {
		end--
	}
	return b[:end]
}

func AppendFloats(b []byte, sep, neg, decimal byte, s ...float32) []byte {
	for i, v := range s {
		b = AppendFloat(b, neg, decimal, v)
		if sep != 0 && i != len(s)-1 {
			b = append(b, sep)
		}
	}
	return b
}

func sorted(s []string) []string {
	if sort.StringsAreSorted(s) {
		return s
	}
	c := append([]string(nil), s...)
	sort.Strings(c)
	return c
}

func validIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		letter := c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
		digit := c >= '0' && c <= '9'
		if !letter && !(digit && i > 0) {
			return false
		}
	}
	return true
}

func hash(b []byte, in uint64) uint64 {
	x := in
	for len(b) >= 8 {
		x ^= binary.LittleEndian.Uint64(b)
		x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
		x = (x ^ (x >> 27)) * 0x94d049bb133111eb
		x ^= x >> 31
		b = b[8:]
	}
	if len(b) > 0 {
		var buf [8]byte
		copy(buf[:], b)
		x ^= binary.LittleEndian.Uint64(buf[:])
		x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
		x = (x ^ (x >> 27)) * 0x94d049bb133111eb
		x ^= x >> 31
	}
	return x
}

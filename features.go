package glimp

import "strings"

// Features are the orthogonal flags selecting the uber shader variant.
// SphereSprite and CylinderSprite both select ray traced depth impostors
// and are expected to be used one at a time.
type Features uint8

const (
	// InstancedPos reads per-instance position and scale from the offset attribute.
	InstancedPos Features = 1 << iota
	// InstancedMatrix reads a per-instance transform from the matVector attributes.
	InstancedMatrix
	// SphereSprite ray traces a sphere on a camera facing quad and writes fragment depth.
	SphereSprite
	// CylinderSprite ray traces a cylinder on a camera facing quad and writes fragment depth.
	CylinderSprite
)

// Has reports whether all flags in f2 are set in f.
func (f Features) Has(f2 Features) bool { return f&f2 == f2 }

func (f Features) String() string {
	if f == 0 {
		return "none"
	}
	var names []string
	for _, e := range featureTable {
		if f.Has(e.flag) {
			names = append(names, e.name)
		}
	}
	return strings.Join(names, "|")
}

// Define is a preprocessor symbol of the uber shader.
type Define uint8

const (
	DefInstancedPos Define = 1 << iota
	DefInstancedMatrix
	DefSphereSprite
	DefCylinderSprite
)

// Defines is a set of [Define].
type Defines uint8

// Has reports whether d is in the set.
func (s Defines) Has(d Define) bool { return s&Defines(d) != 0 }

func (d Define) String() string {
	switch d {
	case DefInstancedPos:
		return "INSTANCED_POS"
	case DefInstancedMatrix:
		return "INSTANCED_MATRIX"
	case DefSphereSprite:
		return "SPHERE_SPRITE"
	case DefCylinderSprite:
		return "CYLINDER_SPRITE"
	}
	return "UNKNOWN_DEFINE"
}

// Extension is a GPU capability the program has to be compiled and run with.
type Extension uint8

const (
	// ExtFragDepth allows the fragment shader to write its own depth.
	ExtFragDepth Extension = 1 << iota
)

// Extensions is a set of [Extension].
type Extensions uint8

// Has reports whether e is in the set.
func (s Extensions) Has(e Extension) bool { return s&Extensions(e) != 0 }

func (e Extension) String() string {
	if e == ExtFragDepth {
		return "FRAGMENT_DEPTH_WRITE"
	}
	return "UNKNOWN_EXTENSION"
}

// ShaderConfig is the set of defines and extensions a shader variant is built with.
// It is derived from [Features] with [Resolve] and never edited directly.
type ShaderConfig struct {
	Defines    Defines
	Extensions Extensions
}

var featureTable = [...]struct {
	flag Features
	name string
	def  Define
	ext  Extension
}{
	{flag: InstancedPos, name: "InstancedPos", def: DefInstancedPos},
	{flag: InstancedMatrix, name: "InstancedMatrix", def: DefInstancedMatrix},
	{flag: SphereSprite, name: "SphereSprite", def: DefSphereSprite, ext: ExtFragDepth},
	{flag: CylinderSprite, name: "CylinderSprite", def: DefCylinderSprite, ext: ExtFragDepth},
}

// Resolve maps feature flags to the shader variant configuration.
func Resolve(f Features) ShaderConfig {
	var cfg ShaderConfig
	for _, e := range featureTable {
		if !f.Has(e.flag) {
			continue
		}
		cfg.Defines |= Defines(e.def)
		cfg.Extensions |= Extensions(e.ext)
	}
	return cfg
}

// DefineNames returns the names of the defines in cfg sorted alphabetically.
func (cfg ShaderConfig) DefineNames() []string {
	// Names are listed in alphabetical order.
	order := [...]Define{DefCylinderSprite, DefInstancedMatrix, DefInstancedPos, DefSphereSprite}
	var names []string
	for _, d := range order {
		if cfg.Defines.Has(d) {
			names = append(names, d.String())
		}
	}
	return names
}

// ExtensionNames returns the names of the extensions required by cfg sorted alphabetically.
func (cfg ShaderConfig) ExtensionNames() []string {
	var names []string
	if cfg.Extensions.Has(ExtFragDepth) {
		names = append(names, ExtFragDepth.String())
	}
	return names
}

// Equal reports whether both configurations hold the same defines and extensions.
func (cfg ShaderConfig) Equal(other ShaderConfig) bool { return cfg == other }

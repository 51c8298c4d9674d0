// Package glsllib holds the GLSL sources of the uber impostor shader.
package glsllib

import (
	_ "embed"

	"github.com/soypat/glimp/glbuild"
)

//go:embed uber.vert
var uberVertSrc []byte

//go:embed uber.frag
var uberFragSrc []byte

// UberVertex returns the body of the uber vertex shader. It expects a preamble
// written by [glbuild.Programmer] and reads the attributes position, normal,
// color, offset, matVector1..3 and invmatVector1..3 depending on the defines.
func UberVertex() []byte { return uberVertSrc }

// UberFragment returns the body of the uber fragment shader. It calls the
// functions listed by [FragmentFunctions], which must be written before it.
func UberFragment() []byte { return uberFragSrc }

// FragmentFunctions returns the functions used by [UberFragment] in order of declaration.
func FragmentFunctions() []glbuild.ShaderFunction {
	return []glbuild.ShaderFunction{RaySphere(), RayUnitCylinder(), BlinnPhong(), PackDepth()}
}

//go:embed raysphere.glsl
var raySphereSrc []byte

// RaySphere is the ray/sphere intersection of sphere impostors:
//
//	float glimpRaySphere(vec3 ro, vec3 rd, vec4 sph)
func RaySphere() glbuild.ShaderFunction {
	obj, _ := glbuild.MakeShaderFunction(raySphereSrc)
	return obj
}

//go:embed raycylinder.glsl
var rayCylinderSrc []byte

// RayUnitCylinder is the ray/capped unit cylinder intersection of cylinder impostors.
// It returns the ray parameter in x and the local normal in yzw:
//
//	vec4 glimpRayUnitCylinder(vec3 ro, vec3 rd)
func RayUnitCylinder() glbuild.ShaderFunction {
	obj, _ := glbuild.MakeShaderFunction(rayCylinderSrc)
	return obj
}

//go:embed blinnphong.glsl
var blinnPhongSrc []byte

// BlinnPhong is single directional light shading:
//
//	vec3 glimpBlinnPhong(vec3 n, vec3 viewDir, vec3 lightDir, vec3 base, vec3 spec, float shininess, vec3 lightColor, vec3 ambient)
func BlinnPhong() glbuild.ShaderFunction {
	obj, _ := glbuild.MakeShaderFunction(blinnPhongSrc)
	return obj
}

//go:embed packdepth.glsl
var packDepthSrc []byte

// PackDepth encodes a [0,1] depth into 8 bit RGBA channels for depth passes:
//
//	vec4 glimpPackDepth(float depth)
func PackDepth() glbuild.ShaderFunction {
	obj, _ := glbuild.MakeShaderFunction(packDepthSrc)
	return obj
}

package camera

import (
	"encoding/binary"
	"math"
	"unsafe"

	glm "github.com/go-gl/mathgl/mgl32"
)

// GPUGlobals is the camera and global frame uniform bound at slot 0 of the uniform bind group.
// Size: 256 bytes (std140 / WGSL aligned).
//
// Layout:
//
//	mat4x4<f32> view_proj        (offset   0)
//	mat4x4<f32> inv_view_proj    (offset  64)
//	mat4x4<f32> light_view_proj  (offset 128)
//	vec4<f32>   camera_position  (offset 192, w unused)
//	vec4<f32>   sun_direction    (offset 208, w 1 when a directional light is enabled)
//	vec4<f32>   sun_color        (offset 224: rgb color, a intensity)
//	vec4<f32>   params           (offset 240: width, height, reversed_z, shadow_bias)
type GPUGlobals struct {
	ViewProj       [16]float32
	InvViewProj    [16]float32
	LightViewProj  [16]float32
	CameraPosition [4]float32
	SunDirection   [4]float32
	SunColor       [4]float32
	Params         [4]float32
}

// Size returns the size of the GPUGlobals struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (256)
func (g *GPUGlobals) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUGlobals struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUGlobals) Marshal() []byte {
	buf := make([]byte, g.Size())
	off := 0
	for _, m := range [][16]float32{g.ViewProj, g.InvViewProj, g.LightViewProj} {
		for i := range 16 {
			binary.LittleEndian.PutUint32(buf[off+i*4:], math.Float32bits(m[i]))
		}
		off += 64
	}
	for _, v := range [][4]float32{g.CameraPosition, g.SunDirection, g.SunColor, g.Params} {
		for i := range 4 {
			binary.LittleEndian.PutUint32(buf[off+i*4:], math.Float32bits(v[i]))
		}
		off += 16
	}
	return buf
}

// FrameParams carries the per-frame inputs of the globals uniform that do not come from the camera.
type FrameParams struct {
	LightViewProj glm.Mat4
	SunDirection  glm.Vec3
	SunColor      glm.Vec3
	SunIntensity  float32
	SunEnabled    bool
	Width         uint32
	Height        uint32
	ShadowBias    float32
}

// Globals assembles the globals uniform for a camera and the frame parameters.
//
// Parameters:
//   - c: the camera
//   - p: the directional light, surface size and shadow bias of the frame
//
// Returns:
//   - GPUGlobals: the uniform contents
func Globals(c Camera, p FrameParams) GPUGlobals {
	vp := c.ViewProjection()
	pos := c.Position()
	reversed := float32(0)
	if c.ReversedZ() {
		reversed = 1
	}
	sun := float32(0)
	if p.SunEnabled {
		sun = 1
	}
	return GPUGlobals{
		ViewProj:       vp,
		InvViewProj:    vp.Inv(),
		LightViewProj:  p.LightViewProj,
		CameraPosition: [4]float32{pos[0], pos[1], pos[2], 1},
		SunDirection:   [4]float32{p.SunDirection[0], p.SunDirection[1], p.SunDirection[2], sun},
		SunColor:       [4]float32{p.SunColor[0], p.SunColor[1], p.SunColor[2], p.SunIntensity},
		Params:         [4]float32{float32(p.Width), float32(p.Height), reversed, p.ShadowBias},
	}
}

package light

import (
	"encoding/binary"
	"math"
	"unsafe"

	glm "github.com/go-gl/mathgl/mgl32"
)

// GPULight is the GPU-aligned representation of a single point or spot light in the light list.
// Size: 80 bytes (std430 / WGSL aligned).
//
// Layout:
//
//	vec4<f32> position     (xyz position, w light type)
//	vec4<f32> direction    (xyz direction, w unused)
//	vec4<f32> color        (rgb color, a intensity)
//	vec4<f32> attenuation  (constant, linear, quadratic, 1)
//	vec4<f32> cutoffs      (inner cos, outer cos, 1, 1)
type GPULight struct {
	Position    [4]float32
	Direction   [4]float32
	Color       [4]float32
	Attenuation [4]float32
	Cutoffs     [4]float32
}

// Size returns the size of the GPULight struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (80)
func (g *GPULight) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPULight struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 80-byte buffer ready for GPU upload
func (g *GPULight) Marshal() []byte {
	buf := make([]byte, g.Size())
	putVec4(buf[0:], g.Position)
	putVec4(buf[16:], g.Direction)
	putVec4(buf[32:], g.Color)
	putVec4(buf[48:], g.Attenuation)
	putVec4(buf[64:], g.Cutoffs)
	return buf
}

// GPULightHeader is the header at the start of the light list storage buffer.
// Size: 16 bytes (vec3 + u32, std430 aligned).
type GPULightHeader struct {
	AmbientColor [3]float32 // offset 0: scene ambient RGB
	LightCount   uint32     // offset 12: number of lights following the header
}

// Size returns the size of the GPULightHeader struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (16)
func (h *GPULightHeader) Size() int {
	return int(unsafe.Sizeof(*h))
}

// Marshal serializes the header into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 16-byte buffer ready for GPU upload
func (h *GPULightHeader) Marshal() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(h.AmbientColor[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(h.AmbientColor[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(h.AmbientColor[2]))
	binary.LittleEndian.PutUint32(buf[12:16], h.LightCount)
	return buf
}

// LightListSize returns the byte size of a light list buffer holding up to maxLights lights.
func LightListSize(maxLights uint32) uint64 {
	return uint64((&GPULightHeader{}).Size()) + uint64(maxLights)*uint64((&GPULight{}).Size())
}

// ToGPULight converts a point or spot light to its GPU representation.
//
// Parameters:
//   - l: the light
//
// Returns:
//   - GPULight: the packed light
func ToGPULight(l Light) GPULight {
	pos := l.Position()
	dir := l.Direction()
	color := l.Color()
	att := l.Attenuation()
	return GPULight{
		Position:    [4]float32{pos[0], pos[1], pos[2], float32(l.Type())},
		Direction:   [4]float32{dir[0], dir[1], dir[2], 0},
		Color:       [4]float32{color[0], color[1], color[2], l.Intensity()},
		Attenuation: [4]float32{att.Constant, att.Linear, att.Quadratic, 1},
		Cutoffs:     [4]float32{l.InnerCone(), l.OuterCone(), 1, 1},
	}
}

// MarshalLightList packs the enabled point and spot lights behind a header. Directional and
// disabled lights are skipped and at most maxLights lights are written.
//
// Parameters:
//   - lights: the scene lights
//   - ambient: the ambient color written to the header
//   - maxLights: the light capacity of the destination buffer
//
// Returns:
//   - []byte: the header followed by the packed lights
//   - uint32: the number of lights written
func MarshalLightList(lights []Light, ambient glm.Vec3, maxLights uint32) ([]byte, uint32) {
	packed := make([][]byte, 0, len(lights))
	for _, l := range lights {
		if uint32(len(packed)) >= maxLights {
			break
		}
		if !l.Enabled() || l.Type() == LightTypeDirectional {
			continue
		}
		g := ToGPULight(l)
		packed = append(packed, g.Marshal())
	}

	header := GPULightHeader{AmbientColor: ambient, LightCount: uint32(len(packed))}
	buf := header.Marshal()
	for _, p := range packed {
		buf = append(buf, p...)
	}
	return buf, header.LightCount
}

// GPUShadowUniform is the uniform bound at slot 0 of the shadow bind group.
// Size: 64 bytes.
type GPUShadowUniform struct {
	LightViewProj [16]float32
}

// Size returns the size of the GPUShadowUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (64)
func (u *GPUShadowUniform) Size() int {
	return int(unsafe.Sizeof(*u))
}

// Marshal serializes the shadow uniform for GPU upload.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload
func (u *GPUShadowUniform) Marshal() []byte {
	buf := make([]byte, u.Size())
	putMat4(buf, u.LightViewProj)
	return buf
}

func putVec4(buf []byte, v [4]float32) {
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v[i]))
	}
}

func putMat4(buf []byte, m [16]float32) {
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(m[i]))
	}
}

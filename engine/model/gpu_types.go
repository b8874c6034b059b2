package model

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
	glm "github.com/go-gl/mathgl/mgl32"
)

// GPUVertex is the GPU-aligned representation of a single static mesh vertex.
// Size: 32 bytes, tightly packed vertex attributes.
type GPUVertex struct {
	Position [3]float32 // offset  0: model-space position (location 0)
	TexCoord [2]float32 // offset 12: UV coordinate (location 1)
	Normal   [3]float32 // offset 20: model-space normal (location 2)
}

// Size returns the size of the GPUVertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes (32)
func (g *GPUVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUVertex struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload
func (g *GPUVertex) Marshal() []byte {
	buf := make([]byte, 32)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Position[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Position[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Position[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(g.TexCoord[0]))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.TexCoord[1]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(g.Normal[0]))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(g.Normal[1]))
	binary.LittleEndian.PutUint32(buf[28:32], math.Float32bits(g.Normal[2]))
	return buf
}

// VertexLayout returns the vertex buffer layout of GPUVertex.
//
// Returns:
//   - wgpu.VertexBufferLayout: position at location 0, UV at 1, normal at 2
func VertexLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: 32,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x2, Offset: 12, ShaderLocation: 1},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 20, ShaderLocation: 2},
		},
	}
}

// MarshalVertices packs vertices for upload.
func MarshalVertices(vertices []GPUVertex) []byte {
	buf := make([]byte, 0, len(vertices)*32)
	for i := range vertices {
		buf = append(buf, vertices[i].Marshal()...)
	}
	return buf
}

// MarshalIndices packs 32-bit indices for upload.
func MarshalIndices(indices []uint32) []byte {
	buf := make([]byte, len(indices)*4)
	for i, idx := range indices {
		binary.LittleEndian.PutUint32(buf[i*4:], idx)
	}
	return buf
}

// GPUInstance is the per-instance record stored in the instance storage buffer.
// Size: 80 bytes (std430 aligned).
type GPUInstance struct {
	Model [16]float32 // offset  0: model-to-world transform
	Color [4]float32  // offset 64: RGBA tint
}

// Size returns the size of the GPUInstance struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes (80)
func (g *GPUInstance) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUInstance struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 80-byte buffer ready for GPU upload
func (g *GPUInstance) Marshal() []byte {
	buf := make([]byte, 80)
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.Model[i]))
	}
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[64+i*4:], math.Float32bits(g.Color[i]))
	}
	return buf
}

// GPUNormalMatrix is the per-instance normal matrix stored in the normal matrix storage buffer.
// The upper 3x3 is the inverse transpose of the model matrix, padded to a mat4.
// Size: 64 bytes.
type GPUNormalMatrix struct {
	Matrix [16]float32
}

// Size returns the size of the GPUNormalMatrix struct in bytes.
func (g *GPUNormalMatrix) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the normal matrix for GPU upload.
func (g *GPUNormalMatrix) Marshal() []byte {
	buf := make([]byte, 64)
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.Matrix[i]))
	}
	return buf
}

// NormalMatrix computes the normal matrix of a model transform.
//
// Parameters:
//   - m: the model-to-world transform
//
// Returns:
//   - GPUNormalMatrix: the inverse transpose of the upper 3x3, padded to a mat4
func NormalMatrix(m glm.Mat4) GPUNormalMatrix {
	n := m.Mat3().Inv().Transpose()
	return GPUNormalMatrix{Matrix: n.Mat4()}
}

// FullscreenVertex is one vertex of the full-screen quad used by the composite and debug draws.
// Size: 16 bytes.
type FullscreenVertex struct {
	Position [2]float32 // clip-space xy (location 0)
	TexCoord [2]float32 // UV with v pointing down (location 1)
}

// FullscreenVertexCount is the number of vertices drawn for a full-screen quad.
const FullscreenVertexCount = 6

// FullscreenQuad returns the two triangles covering clip space.
//
// Returns:
//   - []FullscreenVertex: six vertices, counter-clockwise
func FullscreenQuad() []FullscreenVertex {
	return []FullscreenVertex{
		{Position: [2]float32{-1, -1}, TexCoord: [2]float32{0, 1}},
		{Position: [2]float32{1, -1}, TexCoord: [2]float32{1, 1}},
		{Position: [2]float32{1, 1}, TexCoord: [2]float32{1, 0}},
		{Position: [2]float32{-1, -1}, TexCoord: [2]float32{0, 1}},
		{Position: [2]float32{1, 1}, TexCoord: [2]float32{1, 0}},
		{Position: [2]float32{-1, 1}, TexCoord: [2]float32{0, 0}},
	}
}

// MarshalFullscreenQuad returns FullscreenQuad packed for upload.
func MarshalFullscreenQuad() []byte {
	quad := FullscreenQuad()
	buf := make([]byte, len(quad)*16)
	for i, v := range quad {
		binary.LittleEndian.PutUint32(buf[i*16:], math.Float32bits(v.Position[0]))
		binary.LittleEndian.PutUint32(buf[i*16+4:], math.Float32bits(v.Position[1]))
		binary.LittleEndian.PutUint32(buf[i*16+8:], math.Float32bits(v.TexCoord[0]))
		binary.LittleEndian.PutUint32(buf[i*16+12:], math.Float32bits(v.TexCoord[1]))
	}
	return buf
}

// FullscreenLayout returns the vertex buffer layout of FullscreenVertex.
func FullscreenLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: 16,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
		},
	}
}

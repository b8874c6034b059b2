package model

import (
	"testing"

	"github.com/Carmen-Shannon/horizon/engine/gpu/gputest"
	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGPUTypeSizes(t *testing.T) {
	var v GPUVertex
	var i GPUInstance
	var n GPUNormalMatrix
	assert.Equal(t, 32, v.Size())
	assert.Len(t, v.Marshal(), 32)
	assert.Equal(t, 80, i.Size())
	assert.Len(t, i.Marshal(), 80)
	assert.Equal(t, 64, n.Size())
	assert.Equal(t, uint64(32), VertexLayout().ArrayStride)
}

func TestFullscreenQuad(t *testing.T) {
	assert.Len(t, FullscreenQuad(), FullscreenVertexCount)
	assert.Len(t, MarshalFullscreenQuad(), FullscreenVertexCount*16)
}

func TestNormalMatrixOfUniformScale(t *testing.T) {
	n := NormalMatrix(glm.Scale3D(2, 2, 2))
	got := glm.Mat4(n.Matrix).Mul4x1(glm.Vec4{0, 1, 0, 0})
	assert.InDelta(t, 0.5, got.Y(), 1e-6)
}

func TestCubeGeometry(t *testing.T) {
	c := Cube("cube", 2)
	assert.Len(t, c.Vertices(), 24)
	assert.Equal(t, uint32(36), c.IndexCount())
	assert.InDelta(t, 1.7320508, c.BoundingRadius(), 1e-5)
}

func TestUploadCreatesBuffersOnce(t *testing.T) {
	_, dev, queue, _ := gputest.NewContext()
	m := Plane("ground", 10)

	require.NoError(t, m.Upload(dev, queue))
	vb := m.VertexBuffer()
	require.NotNil(t, vb)
	assert.Equal(t, uint64(4*32), vb.Size())
	assert.Equal(t, uint64(6*4), m.IndexBuffer().Size())

	require.NoError(t, m.Upload(dev, queue))
	assert.Same(t, vb, m.VertexBuffer())

	m.Release()
	assert.Nil(t, m.VertexBuffer())
	assert.Zero(t, dev.LiveCount())
}

func TestUploadWithoutGeometry(t *testing.T) {
	_, dev, queue, _ := gputest.NewContext()
	assert.Error(t, NewModel(WithName("empty")).Upload(dev, queue))
}

func TestInstances(t *testing.T) {
	m := Cube("cube", 1, WithInstances(Instance{Transform: glm.Ident4(), Color: glm.Vec4{1, 1, 1, 1}}))
	m.AddInstance(Instance{Transform: glm.Translate3D(1, 0, 0)})
	assert.Len(t, m.Instances(), 2)
	m.SetInstances()
	assert.Empty(t, m.Instances())
}

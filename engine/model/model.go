package model

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/horizon/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
	glm "github.com/go-gl/mathgl/mgl32"
)

// Instance is one placement of a model in the world.
type Instance struct {
	Transform glm.Mat4
	Color     glm.Vec4
}

// GPU returns the instance record and its normal matrix.
func (i Instance) GPU() (GPUInstance, GPUNormalMatrix) {
	return GPUInstance{Model: i.Transform, Color: i.Color}, NormalMatrix(i.Transform)
}

// model is the implementation of the Model interface.
type model struct {
	mu             *sync.Mutex
	name           string
	vertices       []GPUVertex
	indices        []uint32
	instances      []Instance
	boundingRadius float32
	vertexBuffer   gpu.Buffer
	indexBuffer    gpu.Buffer
}

// Model defines the interface for a static indexed mesh and its instances.
// Geometry is kept on the CPU until Upload creates the vertex and index buffers; the instance
// records are packed into the shared instance storage buffer every frame by the upload system.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// Vertices retrieves the CPU-side vertex data.
	//
	// Returns:
	//   - []GPUVertex: the vertices
	Vertices() []GPUVertex

	// IndexCount returns the number of indices drawn per instance.
	//
	// Returns:
	//   - uint32: the index count
	IndexCount() uint32

	// BoundingRadius returns the radius of the sphere around the model origin enclosing every vertex.
	//
	// Returns:
	//   - float32: the bounding radius
	BoundingRadius() float32

	// Instances retrieves a copy of the instance list.
	//
	// Returns:
	//   - []Instance: the instances in draw order
	Instances() []Instance

	// SetInstances replaces the instance list.
	//
	// Parameters:
	//   - instances: the new instances
	SetInstances(instances ...Instance)

	// AddInstance appends an instance.
	//
	// Parameters:
	//   - instance: the instance to append
	AddInstance(instance Instance)

	// Upload creates and fills the vertex and index buffers if they do not exist yet.
	//
	// Parameters:
	//   - device: the GPU device
	//   - queue: the queue used to write the geometry
	//
	// Returns:
	//   - error: creation or write failure
	Upload(device gpu.Device, queue gpu.Queue) error

	// VertexBuffer returns the uploaded vertex buffer, or nil before Upload.
	//
	// Returns:
	//   - gpu.Buffer: the vertex buffer
	VertexBuffer() gpu.Buffer

	// IndexBuffer returns the uploaded index buffer, or nil before Upload.
	//
	// Returns:
	//   - gpu.Buffer: the index buffer
	IndexBuffer() gpu.Buffer

	// Release frees the GPU buffers. The model may be uploaded again afterwards.
	Release()
}

var _ Model = &model{}

func (m *model) Name() string {
	return m.name
}

func (m *model) Vertices() []GPUVertex {
	return m.vertices
}

func (m *model) IndexCount() uint32 {
	return uint32(len(m.indices))
}

func (m *model) BoundingRadius() float32 {
	return m.boundingRadius
}

func (m *model) Instances() []Instance {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Instance(nil), m.instances...)
}

func (m *model) SetInstances(instances ...Instance) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.instances = append(m.instances[:0], instances...)
}

func (m *model) AddInstance(instance Instance) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.instances = append(m.instances, instance)
}

func (m *model) Upload(device gpu.Device, queue gpu.Queue) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.vertexBuffer != nil && m.indexBuffer != nil {
		return nil
	}
	if len(m.vertices) == 0 || len(m.indices) == 0 {
		return fmt.Errorf("model %q: no geometry", m.name)
	}

	vertexData := MarshalVertices(m.vertices)
	vb, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: m.name + " Vertex Buffer",
		Size:  uint64(len(vertexData)),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("model %q: vertex buffer: %w", m.name, err)
	}
	if err := queue.WriteBuffer(vb, 0, vertexData); err != nil {
		vb.Release()
		return fmt.Errorf("model %q: vertex upload: %w", m.name, err)
	}

	indexData := MarshalIndices(m.indices)
	ib, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: m.name + " Index Buffer",
		Size:  uint64(len(indexData)),
		Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		vb.Release()
		return fmt.Errorf("model %q: index buffer: %w", m.name, err)
	}
	if err := queue.WriteBuffer(ib, 0, indexData); err != nil {
		vb.Release()
		ib.Release()
		return fmt.Errorf("model %q: index upload: %w", m.name, err)
	}

	m.vertexBuffer, m.indexBuffer = vb, ib
	return nil
}

func (m *model) VertexBuffer() gpu.Buffer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.vertexBuffer
}

func (m *model) IndexBuffer() gpu.Buffer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.indexBuffer
}

func (m *model) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.vertexBuffer != nil {
		m.vertexBuffer.Release()
		m.vertexBuffer = nil
	}
	if m.indexBuffer != nil {
		m.indexBuffer.Release()
		m.indexBuffer = nil
	}
}

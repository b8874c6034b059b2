package model

import (
	"sync"

	glm "github.com/go-gl/mathgl/mgl32"
)

// ModelBuilderOption is a functional option for configuring a Model.
type ModelBuilderOption func(*model)

// NewModel creates a new Model with the given options.
// The bounding radius is derived from the vertices.
//
// Parameters:
//   - options: builder options
//
// Returns:
//   - Model: the new model
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{
		mu: &sync.Mutex{},
	}
	for _, opt := range options {
		opt(m)
	}
	for _, v := range m.vertices {
		if r := glm.Vec3(v.Position).Len(); r > m.boundingRadius {
			m.boundingRadius = r
		}
	}
	return m
}

// WithName sets the name of the Model.
//
// Parameters:
//   - name: the model identifier
//
// Returns:
//   - ModelBuilderOption: a function that applies the name option
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithGeometry sets the vertices and triangle-list indices of the Model.
//
// Parameters:
//   - vertices: the mesh vertices
//   - indices: 32-bit triangle-list indices into vertices
//
// Returns:
//   - ModelBuilderOption: a function that applies the geometry option
func WithGeometry(vertices []GPUVertex, indices []uint32) ModelBuilderOption {
	return func(m *model) {
		m.vertices = vertices
		m.indices = indices
	}
}

// WithInstances sets the initial instances of the Model.
func WithInstances(instances ...Instance) ModelBuilderOption {
	return func(m *model) {
		m.instances = append([]Instance(nil), instances...)
	}
}

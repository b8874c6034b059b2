package bind_group_container

import (
	"sync"

	"github.com/Carmen-Shannon/horizon/engine/gpu"
)

// BindGroupContainerOption is a functional option used to configure a BindGroupContainer during
// construction or Rebind.
type BindGroupContainerOption func(*bindGroupContainer)

// NewBindGroupContainer creates a container for a layout and the bind group realized against it.
//
// Parameters:
//   - label: the debug label
//   - layout: the binding layout
//   - bg: the bind group realized against layout
//   - entries: the entries bg was created from
//   - opts: resource options
//
// Returns:
//   - BindGroupContainer: the new container
func NewBindGroupContainer(label string, layout gpu.BindGroupLayout, bg gpu.BindGroup, entries []gpu.BindGroupEntry, opts ...BindGroupContainerOption) BindGroupContainer {
	c := &bindGroupContainer{
		mu:        &sync.Mutex{},
		label:     label,
		layout:    layout,
		bindGroup: bg,
		entries:   append([]gpu.BindGroupEntry(nil), entries...),
		buffers:   make(map[string]held[gpu.Buffer]),
		textures:  make(map[string]held[gpu.Texture]),
		views:     make(map[string]held[gpu.TextureView]),
		samplers:  make(map[string]held[gpu.Sampler]),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithOwnedBuffer registers a buffer the container owns and releases.
//
// Parameters:
//   - name: the resource name
//   - buf: the buffer
//
// Returns:
//   - BindGroupContainerOption: a function that stores the buffer as owned
func WithOwnedBuffer(name string, buf gpu.Buffer) BindGroupContainerOption {
	return func(c *bindGroupContainer) {
		put(c.buffers, name, held[gpu.Buffer]{handle: buf, owned: true})
	}
}

// WithSharedBuffer registers a buffer referenced from the registry. The container never releases it.
//
// Parameters:
//   - name: the resource name
//   - buf: the buffer
//
// Returns:
//   - BindGroupContainerOption: a function that stores the buffer as a shared reference
func WithSharedBuffer(name string, buf gpu.Buffer) BindGroupContainerOption {
	return func(c *bindGroupContainer) {
		put(c.buffers, name, held[gpu.Buffer]{handle: buf})
	}
}

// WithOwnedTexture registers a texture the container owns and releases.
func WithOwnedTexture(name string, tex gpu.Texture) BindGroupContainerOption {
	return func(c *bindGroupContainer) {
		put(c.textures, name, held[gpu.Texture]{handle: tex, owned: true})
	}
}

// WithSharedTexture registers a texture referenced from the registry.
func WithSharedTexture(name string, tex gpu.Texture) BindGroupContainerOption {
	return func(c *bindGroupContainer) {
		put(c.textures, name, held[gpu.Texture]{handle: tex})
	}
}

// WithOwnedTextureView registers a texture view the container owns and releases.
func WithOwnedTextureView(name string, view gpu.TextureView) BindGroupContainerOption {
	return func(c *bindGroupContainer) {
		put(c.views, name, held[gpu.TextureView]{handle: view, owned: true})
	}
}

// WithSharedTextureView registers a texture view referenced from the registry.
func WithSharedTextureView(name string, view gpu.TextureView) BindGroupContainerOption {
	return func(c *bindGroupContainer) {
		put(c.views, name, held[gpu.TextureView]{handle: view})
	}
}

// WithOwnedSampler registers a sampler the container owns and releases.
func WithOwnedSampler(name string, s gpu.Sampler) BindGroupContainerOption {
	return func(c *bindGroupContainer) {
		put(c.samplers, name, held[gpu.Sampler]{handle: s, owned: true})
	}
}

// WithSharedSampler registers a sampler referenced from the registry.
func WithSharedSampler(name string, s gpu.Sampler) BindGroupContainerOption {
	return func(c *bindGroupContainer) {
		put(c.samplers, name, held[gpu.Sampler]{handle: s})
	}
}

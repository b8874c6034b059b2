package bind_group_container

import (
	"sync"

	"github.com/Carmen-Shannon/horizon/engine/gpu"
)

// held is a named resource of a container. owned resources are released with the container,
// shared ones belong to the registry and are only referenced.
type held[T gpu.Releasable] struct {
	handle T
	owned  bool
}

// bindGroupContainer is the implementation of BindGroupContainer.
type bindGroupContainer struct {
	mu *sync.Mutex

	// label is a debug label added for convenience.
	label string

	layout    gpu.BindGroupLayout
	bindGroup gpu.BindGroup
	entries   []gpu.BindGroupEntry

	buffers  map[string]held[gpu.Buffer]
	textures map[string]held[gpu.Texture]
	views    map[string]held[gpu.TextureView]
	samplers map[string]held[gpu.Sampler]

	// generation counts rebinds, so passes can tell a stale bind group from a fresh one.
	generation uint64
}

// BindGroupContainer pairs a binding layout with the bind group realized against it and the named
// resources backing that bind group, so a pass can both bind the group and look up or rewrite
// individual resources later.
//
// The layout is fixed for the lifetime of the container. The bind group may be swapped in place
// with Rebind when the resources it references change; Release frees the bind group and the
// resources the container owns, never the shared ones.
type BindGroupContainer interface {
	// Label returns the debug label for this container.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// Layout returns the binding layout the container was built against.
	//
	// Returns:
	//   - gpu.BindGroupLayout: the layout
	Layout() gpu.BindGroupLayout

	// BindGroup returns the currently realized bind group.
	//
	// Returns:
	//   - gpu.BindGroup: the bind group
	BindGroup() gpu.BindGroup

	// Entries returns the resources bound by the current bind group, in binding order.
	//
	// Returns:
	//   - []gpu.BindGroupEntry: a copy of the bound entries
	Entries() []gpu.BindGroupEntry

	// Generation returns how many times the bind group was swapped with Rebind.
	Generation() uint64

	// Buffer returns the buffer held under name.
	//
	// Parameters:
	//   - name: the resource name
	//
	// Returns:
	//   - gpu.Buffer: the buffer, or nil
	//   - bool: whether a buffer is held under name
	Buffer(name string) (gpu.Buffer, bool)

	// Texture returns the texture held under name.
	Texture(name string) (gpu.Texture, bool)

	// TextureView returns the texture view held under name.
	TextureView(name string) (gpu.TextureView, bool)

	// Sampler returns the sampler held under name.
	Sampler(name string) (gpu.Sampler, bool)

	// Owns reports whether the resource held under name is owned by the container.
	//
	// Parameters:
	//   - name: the resource name
	//
	// Returns:
	//   - bool: true if a resource named name is held and owned
	Owns(name string) bool

	// Rebind swaps the bind group without touching the layout. The previous bind group is released.
	// The options name the resources backing the new bind group; an owned resource replaced under
	// the same name is released.
	//
	// Parameters:
	//   - bg: the new bind group, realized against Layout()
	//   - entries: the entries bg was created from
	//   - opts: resource options for the new bind group
	Rebind(bg gpu.BindGroup, entries []gpu.BindGroupEntry, opts ...BindGroupContainerOption)

	// Release releases the bind group and every owned resource. The layout is kept.
	Release()

	// ReleaseLayout releases the layout. Call after Release during full teardown.
	ReleaseLayout()
}

var _ BindGroupContainer = &bindGroupContainer{}

func (c *bindGroupContainer) Label() string {
	return c.label
}

func (c *bindGroupContainer) Layout() gpu.BindGroupLayout {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.layout
}

func (c *bindGroupContainer) BindGroup() gpu.BindGroup {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bindGroup
}

func (c *bindGroupContainer) Entries() []gpu.BindGroupEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]gpu.BindGroupEntry(nil), c.entries...)
}

func (c *bindGroupContainer) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

func (c *bindGroupContainer) Buffer(name string) (gpu.Buffer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.buffers[name]
	return h.handle, ok
}

func (c *bindGroupContainer) Texture(name string) (gpu.Texture, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.textures[name]
	return h.handle, ok
}

func (c *bindGroupContainer) TextureView(name string) (gpu.TextureView, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.views[name]
	return h.handle, ok
}

func (c *bindGroupContainer) Sampler(name string) (gpu.Sampler, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.samplers[name]
	return h.handle, ok
}

func (c *bindGroupContainer) Owns(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if h, ok := c.buffers[name]; ok && h.owned {
		return true
	}
	if h, ok := c.textures[name]; ok && h.owned {
		return true
	}
	if h, ok := c.views[name]; ok && h.owned {
		return true
	}
	if h, ok := c.samplers[name]; ok && h.owned {
		return true
	}
	return false
}

func (c *bindGroupContainer) Rebind(bg gpu.BindGroup, entries []gpu.BindGroupEntry, opts ...BindGroupContainerOption) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.bindGroup
	c.bindGroup = bg
	c.entries = append([]gpu.BindGroupEntry(nil), entries...)
	c.generation++
	if prev != nil && prev != bg {
		prev.Release()
	}

	for _, opt := range opts {
		opt(c)
	}
}

func (c *bindGroupContainer) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.bindGroup != nil {
		c.bindGroup.Release()
		c.bindGroup = nil
	}
	c.entries = nil

	releaseOwned(c.views)
	releaseOwned(c.textures)
	releaseOwned(c.buffers)
	releaseOwned(c.samplers)
}

func (c *bindGroupContainer) ReleaseLayout() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.layout != nil {
		c.layout.Release()
		c.layout = nil
	}
}

// put installs h under name in m. An owned resource that is replaced by a different handle is
// released.
func put[T gpu.Releasable](m map[string]held[T], name string, h held[T]) {
	if prev, ok := m[name]; ok && prev.owned && any(prev.handle) != any(h.handle) {
		prev.handle.Release()
	}
	m[name] = h
}

func releaseOwned[T gpu.Releasable](m map[string]held[T]) {
	for name, h := range m {
		if h.owned {
			h.handle.Release()
		}
		delete(m, name)
	}
}

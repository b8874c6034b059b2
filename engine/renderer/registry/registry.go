package registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/horizon/engine/gpu"
	log "github.com/sirupsen/logrus"
)

// ErrMissingResource is wrapped by the Must accessors when a mandatory kind was never built.
var ErrMissingResource = errors.New("missing registry resource")

// registry is the implementation of Registry.
type registry struct {
	mu *sync.RWMutex

	buffers  map[BufferKind]gpu.Buffer
	textures map[TextureKind]gpu.Texture
	views    map[TextureViewKind]gpu.TextureView
	samplers map[SamplerKind]gpu.Sampler

	// named holds ad-hoc textures, mostly for debug inspection. order keeps registration order.
	named map[string]gpu.Texture
	order []string
}

// Registry is the typed store of GPU objects owned by the render core. Each kind maps to at most
// one live handle; replacing a handle releases the superseded one before the new one is installed.
// Absence is a valid state: the plain accessors report it through their second return value and
// only the Must accessors treat it as a programming error.
//
// A Registry is safe for concurrent readers. Writers are expected only during initialization,
// resize and debug-texture registration.
type Registry interface {
	// Buffer returns the buffer registered under kind.
	//
	// Parameters:
	//   - kind: the buffer kind
	//
	// Returns:
	//   - gpu.Buffer: the buffer, or nil
	//   - bool: whether a buffer is registered
	Buffer(kind BufferKind) (gpu.Buffer, bool)

	// SetBuffer installs buf under kind, releasing the previous buffer if it differs.
	// A nil buf clears the entry.
	//
	// Parameters:
	//   - kind: the buffer kind
	//   - buf: the new buffer
	SetBuffer(kind BufferKind, buf gpu.Buffer)

	// BufferOrBuild returns the registered buffer, building and installing it when absent.
	//
	// Parameters:
	//   - kind: the buffer kind
	//   - build: called only if no buffer is registered
	//
	// Returns:
	//   - gpu.Buffer: the registered or newly built buffer
	//   - error: the build error, or ErrMissingResource when build returns a nil buffer
	BufferOrBuild(kind BufferKind, build func() (gpu.Buffer, error)) (gpu.Buffer, error)

	// MustBuffer returns the buffer under kind and panics with ErrMissingResource when absent.
	MustBuffer(kind BufferKind) gpu.Buffer

	// Texture returns the texture registered under kind.
	Texture(kind TextureKind) (gpu.Texture, bool)

	// SetTexture installs tex under kind, releasing the previous texture if it differs.
	SetTexture(kind TextureKind, tex gpu.Texture)

	// TextureOrBuild returns the registered texture, building and installing it when absent.
	TextureOrBuild(kind TextureKind, build func() (gpu.Texture, error)) (gpu.Texture, error)

	// MustTexture returns the texture under kind and panics with ErrMissingResource when absent.
	MustTexture(kind TextureKind) gpu.Texture

	// TextureView returns the view registered under kind.
	TextureView(kind TextureViewKind) (gpu.TextureView, bool)

	// SetTextureView installs view under kind, releasing the previous view if it differs.
	SetTextureView(kind TextureViewKind, view gpu.TextureView)

	// TextureViewOrBuild returns the registered view, building and installing it when absent.
	TextureViewOrBuild(kind TextureViewKind, build func() (gpu.TextureView, error)) (gpu.TextureView, error)

	// MustTextureView returns the view under kind and panics with ErrMissingResource when absent.
	MustTextureView(kind TextureViewKind) gpu.TextureView

	// Sampler returns the sampler registered under kind.
	Sampler(kind SamplerKind) (gpu.Sampler, bool)

	// SetSampler installs s under kind, releasing the previous sampler if it differs.
	SetSampler(kind SamplerKind, s gpu.Sampler)

	// SamplerOrBuild returns the registered sampler, building and installing it when absent.
	SamplerOrBuild(kind SamplerKind, build func() (gpu.Sampler, error)) (gpu.Sampler, error)

	// MustSampler returns the sampler under kind and panics with ErrMissingResource when absent.
	MustSampler(kind SamplerKind) gpu.Sampler

	// NamedTexture returns the ad-hoc texture registered under name.
	//
	// Parameters:
	//   - name: the texture name
	//
	// Returns:
	//   - gpu.Texture: the texture, or nil
	//   - bool: whether a texture is registered under name
	NamedTexture(name string) (gpu.Texture, bool)

	// SetNamedTexture installs an ad-hoc texture, releasing the previous texture under name if it
	// differs. A nil tex removes the name.
	//
	// Parameters:
	//   - name: the texture name
	//   - tex: the texture
	SetNamedTexture(name string, tex gpu.Texture)

	// NamedTextures returns the ad-hoc texture names in registration order.
	NamedTextures() []string

	// LiveCount returns the number of handles currently held across all kinds and names.
	LiveCount() int

	// Release releases every held handle and empties the registry.
	Release()
}

var _ Registry = &registry{}

// NewRegistry creates an empty Registry.
//
// Returns:
//   - Registry: the new registry
func NewRegistry() Registry {
	return &registry{
		mu:       &sync.RWMutex{},
		buffers:  make(map[BufferKind]gpu.Buffer, bufferKindCount),
		textures: make(map[TextureKind]gpu.Texture, textureKindCount),
		views:    make(map[TextureViewKind]gpu.TextureView, textureViewKindCount),
		samplers: make(map[SamplerKind]gpu.Sampler, samplerKindCount),
		named:    make(map[string]gpu.Texture),
	}
}

// orBuild returns the value under k, installing the result of build when absent. A build that
// yields a nil handle installs nothing.
func orBuild[K comparable, V comparable](m map[K]V, k K, build func() (V, error), isNil func(V) bool) (V, error) {
	if v, ok := m[k]; ok {
		return v, nil
	}
	v, err := build()
	if err == nil && isNil(v) {
		err = fmt.Errorf("build returned no handle: %w", ErrMissingResource)
	}
	if err != nil {
		var zero V
		return zero, err
	}
	m[k] = v
	return v, nil
}

// replace installs v under k in m, releasing the previous value unless it is v itself.
func replace[K comparable, V comparable](m map[K]V, k K, v V, isNil func(V) bool) {
	prev, ok := m[k]
	if ok && prev == v {
		return
	}
	if ok {
		any(prev).(gpu.Releasable).Release()
		log.WithField("kind", k).Debug("registry handle replaced")
	}
	if isNil(v) {
		delete(m, k)
		return
	}
	m[k] = v
}

func (r *registry) Buffer(kind BufferKind) (gpu.Buffer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.buffers[kind]
	return b, ok
}

func (r *registry) SetBuffer(kind BufferKind, buf gpu.Buffer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	replace(r.buffers, kind, buf, func(b gpu.Buffer) bool { return b == nil })
}

func (r *registry) BufferOrBuild(kind BufferKind, build func() (gpu.Buffer, error)) (gpu.Buffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, err := orBuild(r.buffers, kind, build, func(x gpu.Buffer) bool { return x == nil })
	if err != nil {
		return nil, fmt.Errorf("build buffer %s: %w", kind, err)
	}
	return b, nil
}

func (r *registry) MustBuffer(kind BufferKind) gpu.Buffer {
	b, ok := r.Buffer(kind)
	if !ok {
		panic(fmt.Errorf("buffer %s: %w", kind, ErrMissingResource))
	}
	return b
}

func (r *registry) Texture(kind TextureKind) (gpu.Texture, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.textures[kind]
	return t, ok
}

func (r *registry) SetTexture(kind TextureKind, tex gpu.Texture) {
	r.mu.Lock()
	defer r.mu.Unlock()
	replace(r.textures, kind, tex, func(t gpu.Texture) bool { return t == nil })
}

func (r *registry) TextureOrBuild(kind TextureKind, build func() (gpu.Texture, error)) (gpu.Texture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, err := orBuild(r.textures, kind, build, func(x gpu.Texture) bool { return x == nil })
	if err != nil {
		return nil, fmt.Errorf("build texture %s: %w", kind, err)
	}
	return t, nil
}

func (r *registry) MustTexture(kind TextureKind) gpu.Texture {
	t, ok := r.Texture(kind)
	if !ok {
		panic(fmt.Errorf("texture %s: %w", kind, ErrMissingResource))
	}
	return t
}

func (r *registry) TextureView(kind TextureViewKind) (gpu.TextureView, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.views[kind]
	return v, ok
}

func (r *registry) SetTextureView(kind TextureViewKind, view gpu.TextureView) {
	r.mu.Lock()
	defer r.mu.Unlock()
	replace(r.views, kind, view, func(v gpu.TextureView) bool { return v == nil })
}

func (r *registry) TextureViewOrBuild(kind TextureViewKind, build func() (gpu.TextureView, error)) (gpu.TextureView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, err := orBuild(r.views, kind, build, func(x gpu.TextureView) bool { return x == nil })
	if err != nil {
		return nil, fmt.Errorf("build view %s: %w", kind, err)
	}
	return v, nil
}

func (r *registry) MustTextureView(kind TextureViewKind) gpu.TextureView {
	v, ok := r.TextureView(kind)
	if !ok {
		panic(fmt.Errorf("view %s: %w", kind, ErrMissingResource))
	}
	return v
}

func (r *registry) Sampler(kind SamplerKind) (gpu.Sampler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.samplers[kind]
	return s, ok
}

func (r *registry) SetSampler(kind SamplerKind, s gpu.Sampler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	replace(r.samplers, kind, s, func(s gpu.Sampler) bool { return s == nil })
}

func (r *registry) SamplerOrBuild(kind SamplerKind, build func() (gpu.Sampler, error)) (gpu.Sampler, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := orBuild(r.samplers, kind, build, func(x gpu.Sampler) bool { return x == nil })
	if err != nil {
		return nil, fmt.Errorf("build sampler %s: %w", kind, err)
	}
	return s, nil
}

func (r *registry) MustSampler(kind SamplerKind) gpu.Sampler {
	s, ok := r.Sampler(kind)
	if !ok {
		panic(fmt.Errorf("sampler %s: %w", kind, ErrMissingResource))
	}
	return s
}

func (r *registry) NamedTexture(name string) (gpu.Texture, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.named[name]
	return t, ok
}

func (r *registry) SetNamedTexture(name string, tex gpu.Texture) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, existed := r.named[name]
	replace(r.named, name, tex, func(t gpu.Texture) bool { return t == nil })

	switch {
	case tex == nil && existed:
		for i, n := range r.order {
			if n == name {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
	case tex != nil && !existed:
		r.order = append(r.order, name)
	}
}

func (r *registry) NamedTextures() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

func (r *registry) LiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.buffers) + len(r.textures) + len(r.views) + len(r.samplers) + len(r.named)
}

func (r *registry) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	// views go before the textures they were created from
	for k, v := range r.views {
		v.Release()
		delete(r.views, k)
	}
	for k, t := range r.textures {
		t.Release()
		delete(r.textures, k)
	}
	for k, b := range r.buffers {
		b.Release()
		delete(r.buffers, k)
	}
	for k, s := range r.samplers {
		s.Release()
		delete(r.samplers, k)
	}
	for k, t := range r.named {
		t.Release()
		delete(r.named, k)
	}
	r.order = nil
}

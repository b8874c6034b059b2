// Package gputest provides an in-memory graphics context that records what the render core asks
// of it. Objects are tracked from creation to release so tests can assert on leaks, and every
// render pass keeps an ordered command log.
package gputest

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/horizon/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// Device is a recording gpu.Device.
type Device struct {
	mu     *sync.Mutex
	nextID int
	live   map[int]string

	// CompileHook, when set, is consulted for every shader stage of every pipeline. A non-nil
	// return fails pipeline creation with that error.
	CompileHook func(stage gpu.ShaderStage) error

	// TextureHook, when set, is consulted for every texture creation. A non-nil return fails it.
	TextureHook func(desc *wgpu.TextureDescriptor) error

	pipelines []*RenderPipeline
	encoders  []*CommandEncoder
}

var _ gpu.Device = &Device{}

// NewDevice creates an empty recording device.
func NewDevice() *Device {
	return &Device{
		mu:   &sync.Mutex{},
		live: make(map[int]string),
	}
}

// NewContext returns a graphics context backed by a fresh recording device, queue and surface.
//
// Returns:
//   - *gpu.Context: the context
//   - *Device: the recording device
//   - *Queue: the recording queue
//   - *Surface: the scripted surface
func NewContext() (*gpu.Context, *Device, *Queue, *Surface) {
	d := NewDevice()
	q := &Queue{mu: &sync.Mutex{}}
	s := NewSurface(d)
	return gpu.NewContext(d, q, s, nil), d, q, s
}

func (d *Device) track(label string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	d.live[d.nextID] = label
	return d.nextID
}

func (d *Device) untrack(id int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.live, id)
}

// LiveCount returns the number of created objects that were not released.
func (d *Device) LiveCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.live)
}

// Live returns the sorted labels of every unreleased object.
func (d *Device) Live() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	labels := make([]string, 0, len(d.live))
	for _, l := range d.live {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// Pipelines returns every render pipeline created so far, released or not.
func (d *Device) Pipelines() []*RenderPipeline {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*RenderPipeline(nil), d.pipelines...)
}

// Encoders returns every command encoder created so far.
func (d *Device) Encoders() []*CommandEncoder {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*CommandEncoder(nil), d.encoders...)
}

func (d *Device) Limits() wgpu.Limits {
	return wgpu.DefaultLimits()
}

func (d *Device) CreateBuffer(desc *wgpu.BufferDescriptor) (gpu.Buffer, error) {
	b := &Buffer{Desc: *desc}
	b.handle = handle{dev: d, id: d.track("buffer:" + desc.Label)}
	return b, nil
}

func (d *Device) CreateTexture(desc *wgpu.TextureDescriptor) (gpu.Texture, error) {
	if desc.Size.Width == 0 || desc.Size.Height == 0 {
		return nil, fmt.Errorf("texture %q: zero extent %dx%d", desc.Label, desc.Size.Width, desc.Size.Height)
	}
	if d.TextureHook != nil {
		if err := d.TextureHook(desc); err != nil {
			return nil, err
		}
	}
	t := &Texture{Desc: *desc}
	t.handle = handle{dev: d, id: d.track("texture:" + desc.Label)}
	return t, nil
}

func (d *Device) CreateSampler(desc *wgpu.SamplerDescriptor) (gpu.Sampler, error) {
	s := &Sampler{Desc: *desc}
	s.handle = handle{dev: d, id: d.track("sampler:" + desc.Label)}
	return s, nil
}

func (d *Device) CreateBindGroupLayout(desc *wgpu.BindGroupLayoutDescriptor) (gpu.BindGroupLayout, error) {
	seen := make(map[uint32]bool, len(desc.Entries))
	for _, e := range desc.Entries {
		if seen[e.Binding] {
			return nil, fmt.Errorf("layout %q: duplicate binding %d", desc.Label, e.Binding)
		}
		seen[e.Binding] = true
	}
	l := &BindGroupLayout{Desc: *desc}
	l.handle = handle{dev: d, id: d.track("layout:" + desc.Label)}
	return l, nil
}

func (d *Device) CreateBindGroup(desc *gpu.BindGroupDescriptor) (gpu.BindGroup, error) {
	if desc.Layout == nil {
		return nil, fmt.Errorf("bind group %q: nil layout", desc.Label)
	}
	layout := desc.Layout.Descriptor()
	if len(layout.Entries) != len(desc.Entries) {
		return nil, fmt.Errorf("bind group %q: %d entries for a layout of %d", desc.Label, len(desc.Entries), len(layout.Entries))
	}
	for _, le := range layout.Entries {
		found := false
		for _, e := range desc.Entries {
			if e.Binding != le.Binding {
				continue
			}
			found = true
			switch {
			case le.Buffer.Type != wgpu.BufferBindingTypeUndefined && e.Buffer == nil:
				return nil, fmt.Errorf("bind group %q: binding %d expects a buffer", desc.Label, le.Binding)
			case le.Texture.SampleType != wgpu.TextureSampleTypeUndefined && e.TextureView == nil:
				return nil, fmt.Errorf("bind group %q: binding %d expects a texture view", desc.Label, le.Binding)
			case le.Sampler.Type != wgpu.SamplerBindingTypeUndefined && e.Sampler == nil:
				return nil, fmt.Errorf("bind group %q: binding %d expects a sampler", desc.Label, le.Binding)
			}
		}
		if !found {
			return nil, fmt.Errorf("bind group %q: binding %d not provided", desc.Label, le.Binding)
		}
	}
	g := &BindGroup{Desc: *desc}
	g.handle = handle{dev: d, id: d.track("bindgroup:" + desc.Label)}
	return g, nil
}

func (d *Device) checkStage(stage gpu.ShaderStage) error {
	if d.CompileHook != nil {
		if err := d.CompileHook(stage); err != nil {
			return err
		}
	}
	if !strings.Contains(stage.Source, "fn "+stage.EntryPoint+"(") {
		return fmt.Errorf("shader %q: entry point %q not found", stage.Label, stage.EntryPoint)
	}
	return nil
}

func (d *Device) CreateRenderPipeline(desc *gpu.RenderPipelineDescriptor) (gpu.RenderPipeline, error) {
	if err := d.checkStage(desc.Vertex); err != nil {
		return nil, err
	}
	if desc.Fragment != nil {
		if err := d.checkStage(*desc.Fragment); err != nil {
			return nil, err
		}
	}
	p := &RenderPipeline{Desc: *desc}
	p.handle = handle{dev: d, id: d.track("pipeline:" + desc.Label)}
	d.mu.Lock()
	d.pipelines = append(d.pipelines, p)
	d.mu.Unlock()
	return p, nil
}

func (d *Device) CreateCommandEncoder(label string) (gpu.CommandEncoder, error) {
	e := &CommandEncoder{Label: label}
	e.handle = handle{dev: d, id: d.track("encoder:" + label)}
	d.mu.Lock()
	d.encoders = append(d.encoders, e)
	d.mu.Unlock()
	return e, nil
}

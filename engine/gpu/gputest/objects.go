package gputest

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/horizon/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

type handle struct {
	dev      *Device
	id       int
	released bool
}

// Released reports whether Release was called.
func (h *handle) Released() bool {
	return h.released
}

func (h *handle) Release() {
	if h.released {
		return
	}
	h.released = true
	h.dev.untrack(h.id)
}

// Buffer is a recorded buffer.
type Buffer struct {
	handle
	Desc wgpu.BufferDescriptor
}

func (b *Buffer) Label() string           { return b.Desc.Label }
func (b *Buffer) Size() uint64            { return b.Desc.Size }
func (b *Buffer) Usage() wgpu.BufferUsage { return b.Desc.Usage }

// Texture is a recorded texture.
type Texture struct {
	handle
	Desc wgpu.TextureDescriptor
}

func (t *Texture) Label() string              { return t.Desc.Label }
func (t *Texture) Width() uint32              { return t.Desc.Size.Width }
func (t *Texture) Height() uint32             { return t.Desc.Size.Height }
func (t *Texture) Layers() uint32             { return t.Desc.Size.DepthOrArrayLayers }
func (t *Texture) Format() wgpu.TextureFormat { return t.Desc.Format }
func (t *Texture) Usage() wgpu.TextureUsage   { return t.Desc.Usage }

func (t *Texture) CreateView(desc *wgpu.TextureViewDescriptor) (gpu.TextureView, error) {
	if t.released {
		return nil, fmt.Errorf("texture %q: view of released texture", t.Desc.Label)
	}
	v := &TextureView{Parent: t}
	label := t.Desc.Label + " View"
	if desc != nil {
		v.Desc = *desc
		if desc.Label != "" {
			label = desc.Label
		}
	}
	v.label = label
	v.handle = handle{dev: t.dev, id: t.dev.track("view:" + label)}
	return v, nil
}

// TextureView is a recorded view. Parent is nil for surface views.
type TextureView struct {
	handle
	Parent *Texture
	Desc   wgpu.TextureViewDescriptor
	label  string
}

func (v *TextureView) Label() string { return v.label }

// Sampler is a recorded sampler.
type Sampler struct {
	handle
	Desc wgpu.SamplerDescriptor
}

func (s *Sampler) Label() string { return s.Desc.Label }

// BindGroupLayout is a recorded layout.
type BindGroupLayout struct {
	handle
	Desc wgpu.BindGroupLayoutDescriptor
}

func (l *BindGroupLayout) Descriptor() wgpu.BindGroupLayoutDescriptor { return l.Desc }

// BindGroup is a recorded bind group.
type BindGroup struct {
	handle
	Desc gpu.BindGroupDescriptor
}

func (g *BindGroup) Label() string { return g.Desc.Label }

// Entry returns the entry bound at the given index, or false if there is none.
func (g *BindGroup) Entry(binding uint32) (gpu.BindGroupEntry, bool) {
	for _, e := range g.Desc.Entries {
		if e.Binding == binding {
			return e, true
		}
	}
	return gpu.BindGroupEntry{}, false
}

// RenderPipeline is a recorded pipeline.
type RenderPipeline struct {
	handle
	Desc gpu.RenderPipelineDescriptor
}

func (p *RenderPipeline) Label() string { return p.Desc.Label }

// Op names a recorded render pass command.
type Op string

const (
	OpSetPipeline     Op = "set_pipeline"
	OpSetBindGroup    Op = "set_bind_group"
	OpSetVertexBuffer Op = "set_vertex_buffer"
	OpSetIndexBuffer  Op = "set_index_buffer"
	OpSetViewport     Op = "set_viewport"
	OpDraw            Op = "draw"
	OpDrawIndexed     Op = "draw_indexed"
)

// Command is one recorded render pass command. Label is the label of the bound object, Index the
// group, slot or first instance, Count and Instances the draw arguments.
type Command struct {
	Op        Op
	Index     uint32
	Label     string
	Object    any
	Count     uint32
	Instances uint32
}

// RenderPass is a recorded render pass scope.
type RenderPass struct {
	Desc     gpu.RenderPassDescriptor
	Commands []Command
	Ended    bool
}

func (p *RenderPass) record(c Command) {
	if p.Ended {
		panic(fmt.Sprintf("render pass %q: %s after End", p.Desc.Label, c.Op))
	}
	p.Commands = append(p.Commands, c)
}

func (p *RenderPass) SetPipeline(rp gpu.RenderPipeline) {
	p.record(Command{Op: OpSetPipeline, Label: rp.Label(), Object: rp})
}

func (p *RenderPass) SetBindGroup(index uint32, bg gpu.BindGroup) {
	p.record(Command{Op: OpSetBindGroup, Index: index, Label: bg.Label(), Object: bg})
}

func (p *RenderPass) SetVertexBuffer(slot uint32, buf gpu.Buffer) {
	p.record(Command{Op: OpSetVertexBuffer, Index: slot, Label: buf.Label(), Object: buf})
}

func (p *RenderPass) SetIndexBuffer(buf gpu.Buffer, _ wgpu.IndexFormat) {
	p.record(Command{Op: OpSetIndexBuffer, Label: buf.Label(), Object: buf})
}

func (p *RenderPass) SetViewport(_, _, width, height, _, _ float32) {
	p.record(Command{Op: OpSetViewport, Count: uint32(width), Instances: uint32(height)})
}

func (p *RenderPass) Draw(vertexCount, instanceCount uint32) {
	p.record(Command{Op: OpDraw, Count: vertexCount, Instances: instanceCount})
}

func (p *RenderPass) DrawIndexed(indexCount, instanceCount, firstInstance uint32) {
	p.record(Command{Op: OpDrawIndexed, Index: firstInstance, Count: indexCount, Instances: instanceCount})
}

func (p *RenderPass) End() error {
	if p.Ended {
		return fmt.Errorf("render pass %q: already ended", p.Desc.Label)
	}
	p.Ended = true
	return nil
}

// Draws returns the draw and draw_indexed commands of the pass.
func (p *RenderPass) Draws() []Command {
	var draws []Command
	for _, c := range p.Commands {
		if c.Op == OpDraw || c.Op == OpDrawIndexed {
			draws = append(draws, c)
		}
	}
	return draws
}

// BoundGroup returns the bind group most recently set at index, or nil.
func (p *RenderPass) BoundGroup(index uint32) gpu.BindGroup {
	var bg gpu.BindGroup
	for _, c := range p.Commands {
		if c.Op == OpSetBindGroup && c.Index == index {
			bg = c.Object.(gpu.BindGroup)
		}
	}
	return bg
}

// CommandEncoder is a recorded encoder.
type CommandEncoder struct {
	handle
	Label    string
	Passes   []*RenderPass
	Finished bool
}

func (e *CommandEncoder) BeginRenderPass(desc *gpu.RenderPassDescriptor) gpu.RenderPass {
	if e.Finished {
		panic(fmt.Sprintf("encoder %q: render pass after Finish", e.Label))
	}
	if n := len(e.Passes); n > 0 && !e.Passes[n-1].Ended {
		panic(fmt.Sprintf("encoder %q: render pass %q overlaps %q", e.Label, desc.Label, e.Passes[n-1].Desc.Label))
	}
	p := &RenderPass{Desc: *desc}
	e.Passes = append(e.Passes, p)
	return p
}

func (e *CommandEncoder) Finish() (gpu.CommandBuffer, error) {
	if n := len(e.Passes); n > 0 && !e.Passes[n-1].Ended {
		return nil, fmt.Errorf("encoder %q: finish with open render pass %q", e.Label, e.Passes[n-1].Desc.Label)
	}
	e.Finished = true
	cb := &CommandBuffer{Encoder: e}
	cb.handle = handle{dev: e.dev, id: e.dev.track("commands:" + e.Label)}
	return cb, nil
}

// CommandBuffer is a finished recording.
type CommandBuffer struct {
	handle
	Encoder *CommandEncoder
}

// Write is one recorded queue upload.
type Write struct {
	Label  string
	Offset uint64
	Data   []byte
}

// Queue is a recording gpu.Queue.
type Queue struct {
	mu        *sync.Mutex
	submitted []*CommandBuffer
	writes    []Write
}

var _ gpu.Queue = &Queue{}

func (q *Queue) Submit(buffers ...gpu.CommandBuffer) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, b := range buffers {
		q.submitted = append(q.submitted, b.(*CommandBuffer))
	}
}

func (q *Queue) WriteBuffer(buf gpu.Buffer, offset uint64, data []byte) error {
	if b, ok := buf.(*Buffer); ok && b.released {
		return fmt.Errorf("buffer %q: write to released buffer", b.Desc.Label)
	}
	if offset+uint64(len(data)) > buf.Size() {
		return fmt.Errorf("buffer %q: write of %d bytes at %d overflows size %d", buf.Label(), len(data), offset, buf.Size())
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.writes = append(q.writes, Write{Label: buf.Label(), Offset: offset, Data: append([]byte(nil), data...)})
	return nil
}

func (q *Queue) WriteTexture(tex gpu.Texture, data []byte, bytesPerRow uint32) error {
	if uint64(len(data)) < uint64(bytesPerRow)*uint64(tex.Height()) {
		return fmt.Errorf("texture %q: %d bytes is short of %d rows of %d", tex.Label(), len(data), tex.Height(), bytesPerRow)
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.writes = append(q.writes, Write{Label: tex.Label(), Data: append([]byte(nil), data...)})
	return nil
}

// Submitted returns every submitted command buffer in submission order.
func (q *Queue) Submitted() []*CommandBuffer {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]*CommandBuffer(nil), q.submitted...)
}

// Writes returns every recorded upload in order.
func (q *Queue) Writes() []Write {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Write(nil), q.writes...)
}

// LastWrite returns the most recent upload to the labelled buffer or texture.
func (q *Queue) LastWrite(label string) (Write, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := len(q.writes) - 1; i >= 0; i-- {
		if q.writes[i].Label == label {
			return q.writes[i], true
		}
	}
	return Write{}, false
}

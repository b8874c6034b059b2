package gpu

import (
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

type wgpuBuffer struct {
	once  sync.Once
	buf   *wgpu.Buffer
	label string
	size  uint64
	usage wgpu.BufferUsage
}

var _ Buffer = &wgpuBuffer{}

func (b *wgpuBuffer) Label() string           { return b.label }
func (b *wgpuBuffer) Size() uint64            { return b.size }
func (b *wgpuBuffer) Usage() wgpu.BufferUsage { return b.usage }

func (b *wgpuBuffer) Release() {
	b.once.Do(func() { b.buf.Release() })
}

type wgpuTexture struct {
	once sync.Once
	tex  *wgpu.Texture
	desc wgpu.TextureDescriptor
}

var _ Texture = &wgpuTexture{}

func (t *wgpuTexture) Label() string              { return t.desc.Label }
func (t *wgpuTexture) Width() uint32              { return t.desc.Size.Width }
func (t *wgpuTexture) Height() uint32             { return t.desc.Size.Height }
func (t *wgpuTexture) Layers() uint32             { return t.desc.Size.DepthOrArrayLayers }
func (t *wgpuTexture) Format() wgpu.TextureFormat { return t.desc.Format }
func (t *wgpuTexture) Usage() wgpu.TextureUsage   { return t.desc.Usage }

func (t *wgpuTexture) CreateView(desc *wgpu.TextureViewDescriptor) (TextureView, error) {
	view, err := t.tex.CreateView(desc)
	if err != nil {
		return nil, err
	}
	label := t.desc.Label + " View"
	if desc != nil && desc.Label != "" {
		label = desc.Label
	}
	return &wgpuTextureView{view: view, label: label}, nil
}

func (t *wgpuTexture) Release() {
	t.once.Do(func() { t.tex.Release() })
}

type wgpuTextureView struct {
	once  sync.Once
	view  *wgpu.TextureView
	label string
}

var _ TextureView = &wgpuTextureView{}

func (v *wgpuTextureView) Label() string { return v.label }

func (v *wgpuTextureView) Release() {
	v.once.Do(func() { v.view.Release() })
}

type wgpuSampler struct {
	once    sync.Once
	sampler *wgpu.Sampler
	label   string
}

var _ Sampler = &wgpuSampler{}

func (s *wgpuSampler) Label() string { return s.label }

func (s *wgpuSampler) Release() {
	s.once.Do(func() { s.sampler.Release() })
}

type wgpuBindGroupLayout struct {
	once   sync.Once
	layout *wgpu.BindGroupLayout
	desc   wgpu.BindGroupLayoutDescriptor
}

var _ BindGroupLayout = &wgpuBindGroupLayout{}

func (l *wgpuBindGroupLayout) Descriptor() wgpu.BindGroupLayoutDescriptor { return l.desc }

func (l *wgpuBindGroupLayout) Release() {
	l.once.Do(func() { l.layout.Release() })
}

type wgpuBindGroup struct {
	once  sync.Once
	group *wgpu.BindGroup
	label string
}

var _ BindGroup = &wgpuBindGroup{}

func (g *wgpuBindGroup) Label() string { return g.label }

func (g *wgpuBindGroup) Release() {
	g.once.Do(func() { g.group.Release() })
}

type wgpuRenderPipeline struct {
	once     sync.Once
	pipeline *wgpu.RenderPipeline
	layout   *wgpu.PipelineLayout
	label    string
}

var _ RenderPipeline = &wgpuRenderPipeline{}

func (p *wgpuRenderPipeline) Label() string { return p.label }

func (p *wgpuRenderPipeline) Release() {
	p.once.Do(func() {
		p.pipeline.Release()
		p.layout.Release()
	})
}

type wgpuCommandBuffer struct {
	once sync.Once
	cb   *wgpu.CommandBuffer
}

var _ CommandBuffer = &wgpuCommandBuffer{}

func (c *wgpuCommandBuffer) Release() {
	c.once.Do(func() { c.cb.Release() })
}

type wgpuRenderPass struct {
	pass *wgpu.RenderPassEncoder
}

var _ RenderPass = &wgpuRenderPass{}

func (p *wgpuRenderPass) SetPipeline(rp RenderPipeline) {
	p.pass.SetPipeline(rp.(*wgpuRenderPipeline).pipeline)
}

func (p *wgpuRenderPass) SetBindGroup(index uint32, bg BindGroup) {
	p.pass.SetBindGroup(index, bg.(*wgpuBindGroup).group, nil)
}

func (p *wgpuRenderPass) SetVertexBuffer(slot uint32, buf Buffer) {
	p.pass.SetVertexBuffer(slot, buf.(*wgpuBuffer).buf, 0, wgpu.WholeSize)
}

func (p *wgpuRenderPass) SetIndexBuffer(buf Buffer, format wgpu.IndexFormat) {
	p.pass.SetIndexBuffer(buf.(*wgpuBuffer).buf, format, 0, wgpu.WholeSize)
}

func (p *wgpuRenderPass) SetViewport(x, y, width, height, minDepth, maxDepth float32) {
	p.pass.SetViewport(x, y, width, height, minDepth, maxDepth)
}

func (p *wgpuRenderPass) Draw(vertexCount, instanceCount uint32) {
	p.pass.Draw(vertexCount, instanceCount, 0, 0)
}

func (p *wgpuRenderPass) DrawIndexed(indexCount, instanceCount, firstInstance uint32) {
	p.pass.DrawIndexed(indexCount, instanceCount, 0, 0, firstInstance)
}

func (p *wgpuRenderPass) End() error {
	p.pass.End()
	// the encoder must not hold the pass when Finish is called
	p.pass.Release()
	return nil
}

type wgpuCommandEncoder struct {
	once    sync.Once
	encoder *wgpu.CommandEncoder
}

var _ CommandEncoder = &wgpuCommandEncoder{}

func (e *wgpuCommandEncoder) BeginRenderPass(desc *RenderPassDescriptor) RenderPass {
	native := &wgpu.RenderPassDescriptor{
		Label:            desc.Label,
		ColorAttachments: make([]wgpu.RenderPassColorAttachment, 0, len(desc.ColorAttachments)),
	}
	for _, ca := range desc.ColorAttachments {
		native.ColorAttachments = append(native.ColorAttachments, wgpu.RenderPassColorAttachment{
			View:       ca.View.(*wgpuTextureView).view,
			LoadOp:     ca.LoadOp,
			StoreOp:    ca.StoreOp,
			ClearValue: ca.ClearValue,
		})
	}
	if desc.DepthAttachment != nil {
		native.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            desc.DepthAttachment.View.(*wgpuTextureView).view,
			DepthLoadOp:     desc.DepthAttachment.DepthLoadOp,
			DepthStoreOp:    desc.DepthAttachment.DepthStoreOp,
			DepthClearValue: desc.DepthAttachment.DepthClearValue,
		}
	}
	return &wgpuRenderPass{pass: e.encoder.BeginRenderPass(native)}
}

func (e *wgpuCommandEncoder) Finish() (CommandBuffer, error) {
	cb, err := e.encoder.Finish(nil)
	if err != nil {
		return nil, err
	}
	return &wgpuCommandBuffer{cb: cb}, nil
}

func (e *wgpuCommandEncoder) Release() {
	e.once.Do(func() { e.encoder.Release() })
}

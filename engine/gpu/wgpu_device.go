package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

type wgpuDevice struct {
	device *wgpu.Device
	limits wgpu.Limits
}

var _ Device = &wgpuDevice{}

func (d *wgpuDevice) Limits() wgpu.Limits {
	return d.limits
}

func (d *wgpuDevice) CreateBuffer(desc *wgpu.BufferDescriptor) (Buffer, error) {
	buf, err := d.device.CreateBuffer(desc)
	if err != nil {
		return nil, err
	}
	return &wgpuBuffer{buf: buf, label: desc.Label, size: desc.Size, usage: desc.Usage}, nil
}

func (d *wgpuDevice) CreateTexture(desc *wgpu.TextureDescriptor) (Texture, error) {
	tex, err := d.device.CreateTexture(desc)
	if err != nil {
		return nil, err
	}
	return &wgpuTexture{tex: tex, desc: *desc}, nil
}

func (d *wgpuDevice) CreateSampler(desc *wgpu.SamplerDescriptor) (Sampler, error) {
	s, err := d.device.CreateSampler(desc)
	if err != nil {
		return nil, err
	}
	return &wgpuSampler{sampler: s, label: desc.Label}, nil
}

func (d *wgpuDevice) CreateBindGroupLayout(desc *wgpu.BindGroupLayoutDescriptor) (BindGroupLayout, error) {
	layout, err := d.device.CreateBindGroupLayout(desc)
	if err != nil {
		return nil, err
	}
	return &wgpuBindGroupLayout{layout: layout, desc: *desc}, nil
}

func (d *wgpuDevice) CreateBindGroup(desc *BindGroupDescriptor) (BindGroup, error) {
	entries := make([]wgpu.BindGroupEntry, 0, len(desc.Entries))
	for _, e := range desc.Entries {
		entry := wgpu.BindGroupEntry{Binding: e.Binding}
		switch {
		case e.Buffer != nil:
			entry.Buffer = e.Buffer.(*wgpuBuffer).buf
			entry.Size = wgpu.WholeSize
		case e.TextureView != nil:
			entry.TextureView = e.TextureView.(*wgpuTextureView).view
		case e.Sampler != nil:
			entry.Sampler = e.Sampler.(*wgpuSampler).sampler
		default:
			return nil, fmt.Errorf("bind group %q: entry %d has no resource", desc.Label, e.Binding)
		}
		entries = append(entries, entry)
	}

	bg, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   desc.Label,
		Layout:  desc.Layout.(*wgpuBindGroupLayout).layout,
		Entries: entries,
	})
	if err != nil {
		return nil, err
	}
	return &wgpuBindGroup{group: bg, label: desc.Label}, nil
}

func (d *wgpuDevice) createShaderModule(stage ShaderStage) (*wgpu.ShaderModule, error) {
	module, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: stage.Label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: stage.Source,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("shader module %q: %w", stage.Label, err)
	}
	return module, nil
}

func (d *wgpuDevice) CreateRenderPipeline(desc *RenderPipelineDescriptor) (RenderPipeline, error) {
	vs, err := d.createShaderModule(desc.Vertex)
	if err != nil {
		return nil, err
	}
	defer vs.Release()

	layouts := make([]*wgpu.BindGroupLayout, 0, len(desc.BindGroupLayouts))
	for _, l := range desc.BindGroupLayouts {
		layouts = append(layouts, l.(*wgpuBindGroupLayout).layout)
	}
	pipelineLayout, err := d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Label + " Layout",
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return nil, err
	}

	native := &wgpu.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: desc.Vertex.EntryPoint,
			Buffers:    desc.VertexBuffers,
		},
		Primitive:    desc.Primitive,
		DepthStencil: desc.DepthStencil,
		Multisample:  desc.Multisample,
	}

	if desc.Fragment != nil {
		fs := vs
		if desc.Fragment.Source != desc.Vertex.Source {
			fs, err = d.createShaderModule(*desc.Fragment)
			if err != nil {
				pipelineLayout.Release()
				return nil, err
			}
			defer fs.Release()
		}
		native.Fragment = &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: desc.Fragment.EntryPoint,
			Targets:    desc.Targets,
		}
	}

	created, err := d.device.CreateRenderPipeline(native)
	if err != nil {
		pipelineLayout.Release()
		return nil, err
	}
	return &wgpuRenderPipeline{pipeline: created, layout: pipelineLayout, label: desc.Label}, nil
}

func (d *wgpuDevice) CreateCommandEncoder(label string) (CommandEncoder, error) {
	encoder, err := d.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, err
	}
	return &wgpuCommandEncoder{encoder: encoder}, nil
}

type wgpuQueue struct {
	queue *wgpu.Queue
}

var _ Queue = &wgpuQueue{}

func (q *wgpuQueue) Submit(buffers ...CommandBuffer) {
	native := make([]*wgpu.CommandBuffer, 0, len(buffers))
	for _, b := range buffers {
		native = append(native, b.(*wgpuCommandBuffer).cb)
	}
	q.queue.Submit(native...)
}

func (q *wgpuQueue) WriteBuffer(buf Buffer, offset uint64, data []byte) error {
	return q.queue.WriteBuffer(buf.(*wgpuBuffer).buf, offset, data)
}

func (q *wgpuQueue) WriteTexture(tex Texture, data []byte, bytesPerRow uint32) error {
	t, ok := tex.(*wgpuTexture)
	if !ok {
		return fmt.Errorf("texture %q was not created by this device", tex.Label())
	}
	q.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  t.tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		data,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  bytesPerRow,
			RowsPerImage: t.Height(),
		},
		&wgpu.Extent3D{
			Width:              t.Width(),
			Height:             t.Height(),
			DepthOrArrayLayers: t.Layers(),
		},
	)
	return nil
}

package gpu

import "github.com/cogentcore/webgpu/wgpu"

// BindGroupEntry binds one resource at a binding index. Exactly one of Buffer, TextureView or
// Sampler is set.
type BindGroupEntry struct {
	Binding     uint32
	Buffer      Buffer
	TextureView TextureView
	Sampler     Sampler
}

// BindGroupDescriptor describes a bind group to realize against a layout.
type BindGroupDescriptor struct {
	Label   string
	Layout  BindGroupLayout
	Entries []BindGroupEntry
}

// ShaderStage is a single programmable stage of a render pipeline.
type ShaderStage struct {
	// Label is the debug label for the shader module.
	Label string
	// Source is the WGSL source of the module.
	Source string
	// EntryPoint is the function name of the stage inside Source.
	EntryPoint string
}

// RenderPipelineDescriptor describes a render pipeline. Fragment is nil for depth-only pipelines.
type RenderPipelineDescriptor struct {
	Label            string
	BindGroupLayouts []BindGroupLayout
	Vertex           ShaderStage
	VertexBuffers    []wgpu.VertexBufferLayout
	Fragment         *ShaderStage
	Targets          []wgpu.ColorTargetState
	Primitive        wgpu.PrimitiveState
	DepthStencil     *wgpu.DepthStencilState
	Multisample      wgpu.MultisampleState
}

// ColorAttachment is one color target of a render pass.
type ColorAttachment struct {
	View       TextureView
	LoadOp     wgpu.LoadOp
	StoreOp    wgpu.StoreOp
	ClearValue wgpu.Color
}

// DepthAttachment is the depth target of a render pass.
type DepthAttachment struct {
	View            TextureView
	DepthLoadOp     wgpu.LoadOp
	DepthStoreOp    wgpu.StoreOp
	DepthClearValue float32
}

// RenderPassDescriptor describes the attachments of a render pass.
type RenderPassDescriptor struct {
	Label            string
	ColorAttachments []ColorAttachment
	DepthAttachment  *DepthAttachment
}

// Package gpu defines the graphics context consumed by the render core. Every GPU object the
// core touches is reached through the small interfaces in this package, so the registry, the
// bind group factories, the pipeline factories and the frame orchestration never hold a concrete
// backend type. The WebGPU implementation lives in the wgpu_*.go files of this package and an
// in-memory recording implementation used by tests lives in gpu/gputest.
//
// The descriptor vocabulary (formats, usages, layouts, fixed-function state) is the
// cogentcore/webgpu wgpu package itself; only descriptors that carry GPU object references are
// redeclared here.
package gpu

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// Releasable is implemented by every GPU object that owns a device-side allocation.
type Releasable interface {
	// Release frees the device-side allocation. Calling Release more than once is a no-op.
	Release()
}

// Buffer is a device buffer.
type Buffer interface {
	Releasable

	// Label returns the debug label the buffer was created with.
	Label() string

	// Size returns the allocation size in bytes.
	Size() uint64

	// Usage returns the usage flags the buffer was created with.
	Usage() wgpu.BufferUsage
}

// Texture is a device texture.
type Texture interface {
	Releasable

	// Label returns the debug label the texture was created with.
	Label() string

	// Width returns the texture width in texels.
	Width() uint32

	// Height returns the texture height in texels.
	Height() uint32

	// Layers returns the depth or array layer count.
	Layers() uint32

	// Format returns the texel format.
	Format() wgpu.TextureFormat

	// Usage returns the usage flags the texture was created with.
	Usage() wgpu.TextureUsage

	// CreateView creates a view over the texture. A nil descriptor creates the default view.
	//
	// Parameters:
	//   - desc: the view descriptor, or nil for the default full view
	//
	// Returns:
	//   - TextureView: the created view
	//   - error: an error if view creation fails
	CreateView(desc *wgpu.TextureViewDescriptor) (TextureView, error)
}

// TextureView is a view over a Texture or over a presentation surface image.
type TextureView interface {
	Releasable

	// Label returns the debug label of the view.
	Label() string
}

// Sampler is a device sampler.
type Sampler interface {
	Releasable

	// Label returns the debug label of the sampler.
	Label() string
}

// BindGroupLayout is a realized binding layout.
type BindGroupLayout interface {
	Releasable

	// Descriptor returns the descriptor the layout was created from.
	Descriptor() wgpu.BindGroupLayoutDescriptor
}

// BindGroup is a realized set of resources matched against a BindGroupLayout.
type BindGroup interface {
	Releasable

	// Label returns the debug label of the bind group.
	Label() string
}

// RenderPipeline is a compiled render pipeline.
type RenderPipeline interface {
	Releasable

	// Label returns the debug label of the pipeline.
	Label() string
}

// CommandBuffer is a finished, submittable command recording.
type CommandBuffer interface {
	Releasable
}

// RenderPass records draw commands into a single render-pass scope of a CommandEncoder.
type RenderPass interface {
	SetPipeline(p RenderPipeline)
	SetBindGroup(index uint32, bg BindGroup)
	SetVertexBuffer(slot uint32, buf Buffer)
	SetIndexBuffer(buf Buffer, format wgpu.IndexFormat)
	SetViewport(x, y, width, height, minDepth, maxDepth float32)
	Draw(vertexCount, instanceCount uint32)
	DrawIndexed(indexCount, instanceCount, firstInstance uint32)

	// End closes the render-pass scope. No further commands may be recorded on the pass.
	End() error
}

// CommandEncoder records render passes for one frame.
type CommandEncoder interface {
	Releasable

	// BeginRenderPass opens a render-pass scope. The previous scope must have been ended.
	//
	// Parameters:
	//   - desc: the attachments of the pass
	//
	// Returns:
	//   - RenderPass: the open pass
	BeginRenderPass(desc *RenderPassDescriptor) RenderPass

	// Finish closes the recording and returns the command buffer to submit.
	//
	// Returns:
	//   - CommandBuffer: the finished command buffer
	//   - error: an error if the encoder could not be finished
	Finish() (CommandBuffer, error)
}

// Queue submits command buffers and uploads data.
type Queue interface {
	// Submit hands the command buffers to the device.
	Submit(buffers ...CommandBuffer)

	// WriteBuffer uploads data to the buffer at the given byte offset.
	WriteBuffer(buf Buffer, offset uint64, data []byte) error

	// WriteTexture uploads tightly packed texel rows to mip level 0 of the texture.
	WriteTexture(tex Texture, data []byte, bytesPerRow uint32) error
}

// Device creates GPU objects.
type Device interface {
	CreateBuffer(desc *wgpu.BufferDescriptor) (Buffer, error)
	CreateTexture(desc *wgpu.TextureDescriptor) (Texture, error)
	CreateSampler(desc *wgpu.SamplerDescriptor) (Sampler, error)
	CreateBindGroupLayout(desc *wgpu.BindGroupLayoutDescriptor) (BindGroupLayout, error)
	CreateBindGroup(desc *BindGroupDescriptor) (BindGroup, error)

	// CreateRenderPipeline compiles the shader stages and builds the pipeline. Shader compilation
	// failures are reported through the returned error.
	CreateRenderPipeline(desc *RenderPipelineDescriptor) (RenderPipeline, error)

	CreateCommandEncoder(label string) (CommandEncoder, error)

	// Limits returns the limits the device was created with.
	Limits() wgpu.Limits
}

// SurfaceTexture is the presentation image acquired for one frame.
type SurfaceTexture interface {
	Releasable

	// CreateView creates the render target view of the image.
	CreateView() (TextureView, error)

	// Present hands the image to the presentation engine. It must be called exactly once
	// for every successfully acquired image that is not dropped.
	Present()
}

// Surface is the window-backed presentation surface.
type Surface interface {
	// Configure (re)configures the swap chain for the given pixel size and present mode.
	//
	// Parameters:
	//   - width: the surface width in pixels
	//   - height: the surface height in pixels
	//   - mode: the wgpu present mode
	//
	// Returns:
	//   - error: an error if the surface could not be configured
	Configure(width, height uint32, mode wgpu.PresentMode) error

	// Format returns the pixel format chosen at the last Configure.
	Format() wgpu.TextureFormat

	// Acquire returns the next presentation image. Failures are *SurfaceError values.
	Acquire() (SurfaceTexture, error)
}

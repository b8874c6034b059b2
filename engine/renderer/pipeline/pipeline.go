package pipeline

import (
	"errors"

	"github.com/Carmen-Shannon/horizon/engine/gpu"
	"github.com/Carmen-Shannon/horizon/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrMalformedLayout is returned when the layouts given to Build do not match what the
	// pipeline's shader declares.
	ErrMalformedLayout = errors.New("malformed pipeline layout")

	// ErrShaderCompile is returned when a shader cannot be loaded or compiled.
	ErrShaderCompile = errors.New("shader compilation failed")
)

// Kind identifies one of the closed set of render pipelines.
type Kind int

const (
	// KindShadow renders scene depth from the directional light.
	KindShadow Kind = iota
	// KindGeometry renders scene meshes into the G-buffer.
	KindGeometry
	// KindForward composites the G-buffer and lights into the surface.
	KindForward
	// KindTexture blits a selected texture into the debug viewport.
	KindTexture
	// KindLight draws one marker per light on top of the composite.
	KindLight

	kindCount
)

func (k Kind) String() string {
	switch k {
	case KindShadow:
		return "shadow"
	case KindGeometry:
		return "geometry"
	case KindForward:
		return "forward"
	case KindTexture:
		return "texture"
	case KindLight:
		return "light"
	default:
		return "unknown_pipeline"
	}
}

// Kinds returns every Kind in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, kindCount)
	for k := Kind(0); k < kindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// pipeline is the implementation of the Pipeline interface.
// Every field is fixed once Build returns.
type pipeline struct {
	kind Kind

	shader         shader.Shader
	layouts        []gpu.BindGroupLayout
	renderPipeline gpu.RenderPipeline

	colorFormats        []wgpu.TextureFormat
	depthFormat         wgpu.TextureFormat
	depthTestEnabled    bool
	depthWriteEnabled   bool
	depthCompare        wgpu.CompareFunction
	depthBias           int32
	depthBiasSlopeScale float32
	reversedZ           bool
	cullMode            wgpu.CullMode
	topology            wgpu.PrimitiveTopology
	frontFace           wgpu.FrontFace
	writeMask           wgpu.ColorWriteMask
	blendState          *wgpu.BlendState
}

// Pipeline defines the interface for a compiled render pipeline and the fixed-function state it was
// built with. A Pipeline has no setters: a change in layout or state means building a new one.
type Pipeline interface {
	// Kind returns the pipeline kind.
	//
	// Returns:
	//   - Kind: the pipeline kind
	Kind() Kind

	// Shader returns the shader module the pipeline was built from.
	//
	// Returns:
	//   - shader.Shader: the shader
	Shader() shader.Shader

	// Layouts returns the bind group layouts the pipeline was built with, in group order.
	//
	// Returns:
	//   - []gpu.BindGroupLayout: a copy of the layout list
	Layouts() []gpu.BindGroupLayout

	// RenderPipeline returns the compiled pipeline.
	//
	// Returns:
	//   - gpu.RenderPipeline: the pipeline object
	RenderPipeline() gpu.RenderPipeline

	// ColorFormats returns the formats of the color targets, empty for depth-only pipelines.
	//
	// Returns:
	//   - []wgpu.TextureFormat: the color target formats
	ColorFormats() []wgpu.TextureFormat

	// DepthTestEnabled returns whether the pipeline has a depth attachment.
	//
	// Returns:
	//   - bool: true if depth testing is enabled
	DepthTestEnabled() bool

	// DepthWriteEnabled returns whether the pipeline writes depth.
	//
	// Returns:
	//   - bool: true if depth writing is enabled
	DepthWriteEnabled() bool

	// DepthCompare returns the depth comparison, which follows the depth convention.
	//
	// Returns:
	//   - wgpu.CompareFunction: the comparison function
	DepthCompare() wgpu.CompareFunction

	// DepthBias returns the constant depth bias.
	//
	// Returns:
	//   - int32: the constant depth bias, negated under reversed-Z
	DepthBias() int32

	// DepthBiasSlopeScale returns the slope-scaled depth bias.
	//
	// Returns:
	//   - float32: the slope scale, negated under reversed-Z
	DepthBiasSlopeScale() float32

	// CullMode returns the face culling mode.
	//
	// Returns:
	//   - wgpu.CullMode: the cull mode
	CullMode() wgpu.CullMode

	// Topology returns the primitive topology.
	//
	// Returns:
	//   - wgpu.PrimitiveTopology: the topology
	Topology() wgpu.PrimitiveTopology

	// FrontFace returns the front face winding order.
	//
	// Returns:
	//   - wgpu.FrontFace: the winding order
	FrontFace() wgpu.FrontFace

	// Release frees the compiled pipeline. The layouts belong to their containers and are kept.
	Release()
}

var _ Pipeline = &pipeline{}

func (p *pipeline) Kind() Kind {
	return p.kind
}

func (p *pipeline) Shader() shader.Shader {
	return p.shader
}

func (p *pipeline) Layouts() []gpu.BindGroupLayout {
	return append([]gpu.BindGroupLayout(nil), p.layouts...)
}

func (p *pipeline) RenderPipeline() gpu.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) ColorFormats() []wgpu.TextureFormat {
	return append([]wgpu.TextureFormat(nil), p.colorFormats...)
}

func (p *pipeline) DepthTestEnabled() bool {
	return p.depthTestEnabled
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled
}

func (p *pipeline) DepthCompare() wgpu.CompareFunction {
	return p.depthCompare
}

func (p *pipeline) DepthBias() int32 {
	return p.depthBias
}

func (p *pipeline) DepthBiasSlopeScale() float32 {
	return p.depthBiasSlopeScale
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) Release() {
	if p.renderPipeline != nil {
		p.renderPipeline.Release()
	}
}

// descriptor assembles the device-level pipeline descriptor.
func (p *pipeline) descriptor(vertex gpu.ShaderStage, fragment *gpu.ShaderStage, buffers []wgpu.VertexBufferLayout) *gpu.RenderPipelineDescriptor {
	targets := make([]wgpu.ColorTargetState, 0, len(p.colorFormats))
	for _, f := range p.colorFormats {
		targets = append(targets, wgpu.ColorTargetState{
			Format:    f,
			Blend:     p.blendState,
			WriteMask: p.writeMask,
		})
	}

	desc := &gpu.RenderPipelineDescriptor{
		Label:            p.kind.String() + " Render Pipeline",
		BindGroupLayouts: p.layouts,
		Vertex:           vertex,
		VertexBuffers:    buffers,
		Fragment:         fragment,
		Targets:          targets,
		Primitive: wgpu.PrimitiveState{
			Topology:  p.topology,
			FrontFace: p.frontFace,
			CullMode:  p.cullMode,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	}
	if p.depthTestEnabled {
		desc.DepthStencil = &wgpu.DepthStencilState{
			Format:              p.depthFormat,
			DepthWriteEnabled:   p.depthWriteEnabled,
			DepthCompare:        p.depthCompare,
			DepthBias:           p.depthBias,
			DepthBiasSlopeScale: p.depthBiasSlopeScale,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		}
	}
	return desc
}

package pipeline

import (
	"fmt"

	"github.com/Carmen-Shannon/horizon/engine/gpu"
	"github.com/Carmen-Shannon/horizon/engine/model"
	"github.com/Carmen-Shannon/horizon/engine/renderer/bind_group"
	"github.com/Carmen-Shannon/horizon/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	log "github.com/sirupsen/logrus"
)

// Shadow pipeline depth bias defaults.
const (
	DefaultShadowDepthBias      int32   = 2
	DefaultShadowDepthBiasSlope float32 = 2.0
)

// Factory builds one kind of pipeline.
type Factory interface {
	// Kind returns the pipeline kind this factory builds.
	//
	// Returns:
	//   - Kind: the pipeline kind
	Kind() Kind

	// Concerns returns the binding concerns whose layouts Build expects, in group order.
	//
	// Returns:
	//   - []bind_group.Concern: the concerns
	Concerns() []bind_group.Concern

	// Build compiles a pipeline against layouts.
	// Failures are configuration errors wrapping ErrMalformedLayout or ErrShaderCompile.
	//
	// Parameters:
	//   - device: the GPU device
	//   - layouts: one layout per concern returned by Concerns, in the same order
	//   - surfaceFormat: the format of the presentation surface
	//   - opts: overrides of the kind's fixed-function state
	//
	// Returns:
	//   - Pipeline: the compiled pipeline
	//   - error: configuration error
	Build(device gpu.Device, layouts []gpu.BindGroupLayout, surfaceFormat wgpu.TextureFormat, opts ...PipelineBuilderOption) (Pipeline, error)
}

// factory is the implementation of the Factory interface shared by every kind.
type factory struct {
	kind      Kind
	shaderKey string
	concerns  []bind_group.Concern
	buffers   []wgpu.VertexBufferLayout
	// targets returns the color formats for a surface format.
	targets  func(surface wgpu.TextureFormat) []wgpu.TextureFormat
	defaults func(p *pipeline)
}

var _ Factory = &factory{}

var factories = [kindCount]*factory{
	KindShadow: {
		kind:      KindShadow,
		shaderKey: shader.KeyShadow,
		concerns:  []bind_group.Concern{bind_group.Shadow},
		buffers:   []wgpu.VertexBufferLayout{model.VertexLayout()},
		targets:   func(wgpu.TextureFormat) []wgpu.TextureFormat { return nil },
		defaults: func(p *pipeline) {
			p.depthTestEnabled = true
			p.depthWriteEnabled = true
			p.depthBias = DefaultShadowDepthBias
			p.depthBiasSlopeScale = DefaultShadowDepthBiasSlope
			p.cullMode = wgpu.CullModeFront
		},
	},
	KindGeometry: {
		kind:      KindGeometry,
		shaderKey: shader.KeyGeometry,
		concerns:  []bind_group.Concern{bind_group.Uniform},
		buffers:   []wgpu.VertexBufferLayout{model.VertexLayout()},
		targets: func(wgpu.TextureFormat) []wgpu.TextureFormat {
			return []wgpu.TextureFormat{bind_group.AlbedoFormat, bind_group.NormalFormat}
		},
		defaults: func(p *pipeline) {
			p.depthTestEnabled = true
			p.depthWriteEnabled = true
			p.cullMode = wgpu.CullModeBack
		},
	},
	KindForward: {
		kind:      KindForward,
		shaderKey: shader.KeyComposite,
		concerns:  []bind_group.Concern{bind_group.Deferred, bind_group.Uniform, bind_group.Lighting},
		buffers:   []wgpu.VertexBufferLayout{model.FullscreenLayout()},
		targets:   surfaceTarget,
		defaults: func(p *pipeline) {
			p.cullMode = wgpu.CullModeBack
		},
	},
	KindTexture: {
		kind:      KindTexture,
		shaderKey: shader.KeyTexture,
		concerns:  []bind_group.Concern{bind_group.DebugTexture},
		buffers:   []wgpu.VertexBufferLayout{model.FullscreenLayout()},
		targets:   surfaceTarget,
		defaults: func(p *pipeline) {
			p.cullMode = wgpu.CullModeBack
		},
	},
	KindLight: {
		kind:      KindLight,
		shaderKey: shader.KeyLightMarker,
		concerns:  []bind_group.Concern{bind_group.Uniform, bind_group.Lighting},
		targets:   surfaceTarget,
		defaults: func(p *pipeline) {
			p.cullMode = wgpu.CullModeNone
		},
	},
}

func surfaceTarget(surface wgpu.TextureFormat) []wgpu.TextureFormat {
	return []wgpu.TextureFormat{surface}
}

// For returns the factory of a pipeline kind.
//
// Parameters:
//   - kind: the pipeline kind
//
// Returns:
//   - Factory: the factory
func For(kind Kind) Factory {
	if kind < 0 || kind >= kindCount {
		panic(fmt.Sprintf("pipeline: unknown kind %d", kind))
	}
	return factories[kind]
}

func (f *factory) Kind() Kind {
	return f.kind
}

func (f *factory) Concerns() []bind_group.Concern {
	return append([]bind_group.Concern(nil), f.concerns...)
}

func (f *factory) Build(device gpu.Device, layouts []gpu.BindGroupLayout, surfaceFormat wgpu.TextureFormat, opts ...PipelineBuilderOption) (Pipeline, error) {
	if len(layouts) != len(f.concerns) {
		return nil, fmt.Errorf("%s pipeline: %d layouts given, want %d: %w", f.kind, len(layouts), len(f.concerns), ErrMalformedLayout)
	}
	descs := make([]wgpu.BindGroupLayoutDescriptor, len(layouts))
	for i, l := range layouts {
		if l == nil {
			return nil, fmt.Errorf("%s pipeline: nil layout for group %d (%s): %w", f.kind, i, f.concerns[i], ErrMalformedLayout)
		}
		descs[i] = l.Descriptor()
	}

	p := &pipeline{
		kind:         f.kind,
		layouts:      append([]gpu.BindGroupLayout(nil), layouts...),
		colorFormats: f.targets(surfaceFormat),
		depthFormat:  bind_group.DepthFormat,
		depthCompare: wgpu.CompareFunctionLessEqual,
		topology:     wgpu.PrimitiveTopologyTriangleList,
		frontFace:    wgpu.FrontFaceCCW,
		writeMask:    wgpu.ColorWriteMaskAll,
	}
	f.defaults(p)
	for _, opt := range opts {
		opt(p)
	}
	if p.reversedZ {
		p.depthCompare = wgpu.CompareFunctionGreaterEqual
		p.depthBias = -p.depthBias
		p.depthBiasSlopeScale = -p.depthBiasSlopeScale
	}

	if p.shader == nil {
		s, err := shader.Load(f.shaderKey)
		if err != nil {
			return nil, fmt.Errorf("%s pipeline: %w: %w", f.kind, ErrShaderCompile, err)
		}
		p.shader = s
	}
	if err := p.shader.CheckLayouts(descs); err != nil {
		return nil, fmt.Errorf("%s pipeline: %w: %w", f.kind, ErrMalformedLayout, err)
	}
	if err := p.shader.CheckVertexLayouts(f.buffers); err != nil {
		return nil, fmt.Errorf("%s pipeline: %w: %w", f.kind, ErrMalformedLayout, err)
	}

	vertex, ok := p.shader.Stage(shader.ShaderTypeVertex)
	if !ok {
		return nil, fmt.Errorf("%s pipeline: shader %s has no vertex entry point: %w", f.kind, p.shader.Key(), ErrShaderCompile)
	}
	var fragment *gpu.ShaderStage
	if len(p.colorFormats) > 0 {
		stage, ok := p.shader.Stage(shader.ShaderTypeFragment)
		if !ok {
			return nil, fmt.Errorf("%s pipeline: shader %s has no fragment entry point: %w", f.kind, p.shader.Key(), ErrShaderCompile)
		}
		fragment = &stage
	}

	rp, err := device.CreateRenderPipeline(p.descriptor(vertex, fragment, f.buffers))
	if err != nil {
		return nil, fmt.Errorf("%s pipeline: %w: %w", f.kind, ErrShaderCompile, err)
	}
	p.renderPipeline = rp

	log.WithFields(log.Fields{
		"pipeline":  f.kind,
		"shader":    p.shader.Key(),
		"groups":    len(layouts),
		"reversedZ": p.reversedZ,
	}).Info("render pipeline built")
	return p, nil
}

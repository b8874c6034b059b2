package shader

import (
	"embed"
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/horizon/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

//go:embed assets/*.wgsl
var assets embed.FS

// ShaderType identifies a shader stage.
type ShaderType int

const (
	// ShaderTypeVertex is the vertex stage.
	ShaderTypeVertex ShaderType = iota

	// ShaderTypeFragment is the fragment stage.
	ShaderTypeFragment
)

func (t ShaderType) String() string {
	if t == ShaderTypeFragment {
		return "fragment"
	}
	return "vertex"
}

// Keys of the embedded pipeline shaders.
const (
	KeyShadow      = "shadow"
	KeyGeometry    = "geometry"
	KeyComposite   = "composite"
	KeyTexture     = "texture"
	KeyLightMarker = "light_marker"
)

// shader is the implementation of the Shader interface.
type shader struct {
	key                        string
	source                     string
	entryPoints                map[ShaderType]string
	bindGroupLayoutDescriptors map[int]wgpu.BindGroupLayoutDescriptor
	bindingVarNames            map[int]map[int]string
	vertexLayouts              []wgpu.VertexBufferLayout
}

// Shader defines the interface for a pre-processed WGSL module holding a vertex entry point and
// optionally a fragment entry point. The bind group and vertex layouts the source declares are
// parsed so pipelines can check them against the layouts they are built with.
type Shader interface {
	// Key retrieves the unique identifier for this shader.
	//
	// Returns:
	//   - string: the shader's key
	Key() string

	// Source retrieves the pre-processed WGSL source code.
	//
	// Returns:
	//   - string: the WGSL source with every include expanded
	Source() string

	// EntryPoint returns the entry point of a stage.
	//
	// Parameters:
	//   - stage: the shader stage
	//
	// Returns:
	//   - string: the entry point name, or empty if the module has no such stage
	EntryPoint(stage ShaderType) string

	// Stage returns the description of one stage for pipeline creation.
	//
	// Parameters:
	//   - stage: the shader stage
	//
	// Returns:
	//   - gpu.ShaderStage: the stage
	//   - bool: false if the module has no such stage
	Stage(stage ShaderType) (gpu.ShaderStage, bool)

	// BindGroupLayoutDescriptors retrieves the bindings declared by the source, keyed by group index.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindGroupVarName retrieves the variable name declared at a group and binding.
	//
	// Parameters:
	//   - group: the bind group index
	//   - binding: the binding index within the group
	//
	// Returns:
	//   - string: the variable name, or an empty string if not declared
	BindGroupVarName(group, binding int) string

	// VertexLayouts retrieves the vertex buffer layouts consumed by the vertex entry point,
	// in parameter order.
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: the vertex buffer layouts
	VertexLayouts() []wgpu.VertexBufferLayout

	// CheckLayouts verifies that every binding the source declares exists in layouts at the same
	// group and binding with a compatible resource type.
	//
	// Parameters:
	//   - layouts: the pipeline's bind group layouts in group order
	//
	// Returns:
	//   - error: the first mismatch found
	CheckLayouts(layouts []wgpu.BindGroupLayoutDescriptor) error

	// CheckVertexLayouts verifies that the given vertex buffers match the ones the vertex entry point reads.
	//
	// Parameters:
	//   - buffers: the vertex buffer layouts the pipeline will be built with
	//
	// Returns:
	//   - error: the first mismatch found
	CheckVertexLayouts(buffers []wgpu.VertexBufferLayout) error
}

var _ Shader = &shader{}

// Load creates a Shader from one of the embedded assets.
//
// Parameters:
//   - key: the asset name without extension, e.g. KeyShadow
//
// Returns:
//   - Shader: the parsed shader
//   - error: unknown asset, bad include or missing vertex entry point
func Load(key string) (Shader, error) {
	data, err := assets.ReadFile("assets/" + key + ".wgsl")
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", key, err)
	}
	return NewShader(key, string(data))
}

// NewShader pre-processes and parses WGSL source.
//
// Parameters:
//   - key: a unique identifier for the shader
//   - source: the raw WGSL source, which may contain include annotations
//
// Returns:
//   - Shader: the parsed shader
//   - error: bad include or missing vertex entry point
func NewShader(key, source string) (Shader, error) {
	processed, err := NewPreProcessor().Process(source)
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", key, err)
	}

	r := reflectModule(processed, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment)
	if r.entryPoints[ShaderTypeVertex] == "" {
		return nil, fmt.Errorf("shader %s: no @vertex entry point", key)
	}

	s := &shader{
		key:                        key,
		source:                     processed,
		entryPoints:                r.entryPoints,
		bindGroupLayoutDescriptors: r.groups,
		bindingVarNames:            r.names,
		vertexLayouts:              r.vertexBuffers,
	}
	return s, nil
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) EntryPoint(stage ShaderType) string {
	return s.entryPoints[stage]
}

func (s *shader) Stage(stage ShaderType) (gpu.ShaderStage, bool) {
	ep, ok := s.entryPoints[stage]
	if !ok {
		return gpu.ShaderStage{}, false
	}
	return gpu.ShaderStage{
		Label:      s.key + " " + stage.String(),
		Source:     s.source,
		EntryPoint: ep,
	}, true
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors
}

func (s *shader) BindGroupVarName(group, binding int) string {
	if s.bindingVarNames[group] == nil {
		return ""
	}
	return s.bindingVarNames[group][binding]
}

func (s *shader) VertexLayouts() []wgpu.VertexBufferLayout {
	return s.vertexLayouts
}

func (s *shader) CheckLayouts(layouts []wgpu.BindGroupLayoutDescriptor) error {
	groups := make([]int, 0, len(s.bindGroupLayoutDescriptors))
	for g := range s.bindGroupLayoutDescriptors {
		groups = append(groups, g)
	}
	sort.Ints(groups)

	for _, g := range groups {
		if g >= len(layouts) {
			return fmt.Errorf("shader %s: group %d declared but only %d layouts given", s.key, g, len(layouts))
		}
		for _, want := range s.bindGroupLayoutDescriptors[g].Entries {
			got, ok := findEntry(layouts[g], want.Binding)
			if !ok {
				return fmt.Errorf("shader %s: %s (group %d binding %d) missing from layout %q",
					s.key, s.BindGroupVarName(g, int(want.Binding)), g, want.Binding, layouts[g].Label)
			}
			if !compatible(want, got) {
				return fmt.Errorf("shader %s: %s (group %d binding %d) does not match layout %q",
					s.key, s.BindGroupVarName(g, int(want.Binding)), g, want.Binding, layouts[g].Label)
			}
		}
	}
	return nil
}

func (s *shader) CheckVertexLayouts(buffers []wgpu.VertexBufferLayout) error {
	if len(buffers) != len(s.vertexLayouts) {
		return fmt.Errorf("shader %s: %d vertex buffers given, entry point reads %d", s.key, len(buffers), len(s.vertexLayouts))
	}
	for i, want := range s.vertexLayouts {
		got := buffers[i]
		if got.ArrayStride != want.ArrayStride || len(got.Attributes) != len(want.Attributes) {
			return fmt.Errorf("shader %s: vertex buffer %d stride %d with %d attributes, want %d with %d",
				s.key, i, got.ArrayStride, len(got.Attributes), want.ArrayStride, len(want.Attributes))
		}
		for j, a := range want.Attributes {
			if got.Attributes[j] != a {
				return fmt.Errorf("shader %s: vertex buffer %d attribute %d is %+v, want %+v", s.key, i, j, got.Attributes[j], a)
			}
		}
	}
	return nil
}

func findEntry(layout wgpu.BindGroupLayoutDescriptor, binding uint32) (wgpu.BindGroupLayoutEntry, bool) {
	for _, e := range layout.Entries {
		if e.Binding == binding {
			return e, true
		}
	}
	return wgpu.BindGroupLayoutEntry{}, false
}

// compatible reports whether a layout entry can back a binding declared in WGSL.
func compatible(declared, entry wgpu.BindGroupLayoutEntry) bool {
	switch {
	case declared.Buffer.Type != wgpu.BufferBindingTypeUndefined:
		return declared.Buffer.Type == entry.Buffer.Type
	case declared.Sampler.Type == wgpu.SamplerBindingTypeComparison:
		return entry.Sampler.Type == wgpu.SamplerBindingTypeComparison
	case declared.Sampler.Type != wgpu.SamplerBindingTypeUndefined:
		return entry.Sampler.Type == wgpu.SamplerBindingTypeFiltering || entry.Sampler.Type == wgpu.SamplerBindingTypeNonFiltering
	case declared.Texture.SampleType == wgpu.TextureSampleTypeFloat:
		return (entry.Texture.SampleType == wgpu.TextureSampleTypeFloat || entry.Texture.SampleType == wgpu.TextureSampleTypeUnfilterableFloat) &&
			entry.Texture.ViewDimension == declared.Texture.ViewDimension
	case declared.Texture.SampleType != wgpu.TextureSampleTypeUndefined:
		return entry.Texture.SampleType == declared.Texture.SampleType &&
			entry.Texture.ViewDimension == declared.Texture.ViewDimension
	default:
		return false
	}
}

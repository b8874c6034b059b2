package shader

import (
	"strings"
	"testing"

	"github.com/Carmen-Shannon/horizon/engine/model"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbeddedShaders(t *testing.T) {
	cases := []struct {
		key      string
		fragment bool
		vertex   []wgpu.VertexBufferLayout
	}{
		{KeyShadow, false, []wgpu.VertexBufferLayout{model.VertexLayout()}},
		{KeyGeometry, true, []wgpu.VertexBufferLayout{model.VertexLayout()}},
		{KeyComposite, true, []wgpu.VertexBufferLayout{model.FullscreenLayout()}},
		{KeyTexture, true, []wgpu.VertexBufferLayout{model.FullscreenLayout()}},
		{KeyLightMarker, true, nil},
	}
	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			s, err := Load(tc.key)
			require.NoError(t, err)
			assert.Equal(t, "vs_main", s.EntryPoint(ShaderTypeVertex))

			_, ok := s.Stage(ShaderTypeFragment)
			assert.Equal(t, tc.fragment, ok)
			assert.NotContains(t, s.Source(), includePrefix)
			assert.NoError(t, s.CheckVertexLayouts(tc.vertex))
		})
	}
}

func TestLoadUnknownShader(t *testing.T) {
	_, err := Load("missing")
	assert.Error(t, err)
}

func TestParsedBindGroups(t *testing.T) {
	s, err := Load(KeyComposite)
	require.NoError(t, err)

	groups := s.BindGroupLayoutDescriptors()
	require.Len(t, groups, 3)
	assert.Equal(t, "depth_tex", s.BindGroupVarName(0, 2))
	assert.Equal(t, wgpu.TextureSampleTypeDepth, groups[0].Entries[2].Texture.SampleType)
	assert.Equal(t, wgpu.SamplerBindingTypeComparison, groups[1].Entries[2].Sampler.Type)
	assert.Equal(t, wgpu.TextureViewDimension2DArray, groups[1].Entries[1].Texture.ViewDimension)
	assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, groups[2].Entries[0].Buffer.Type)
}

func TestCheckLayouts(t *testing.T) {
	s, err := NewShader("check", `
@group(0) @binding(0) var<uniform> u: vec4<f32>;
@group(0) @binding(1) var tex: texture_2d<f32>;

@vertex
fn vs_main() -> @builtin(position) vec4<f32> {
    return u;
}
`)
	require.NoError(t, err)

	good := wgpu.BindGroupLayoutDescriptor{Entries: []wgpu.BindGroupLayoutEntry{
		{Binding: 0, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform}},
		{Binding: 1, Texture: wgpu.TextureBindingLayout{SampleType: wgpu.TextureSampleTypeFloat, ViewDimension: wgpu.TextureViewDimension2D}},
		{Binding: 2, Sampler: wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering}},
	}}
	assert.NoError(t, s.CheckLayouts([]wgpu.BindGroupLayoutDescriptor{good}))

	wrongType := wgpu.BindGroupLayoutDescriptor{Entries: []wgpu.BindGroupLayoutEntry{
		{Binding: 0, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage}},
		good.Entries[1],
	}}
	assert.ErrorContains(t, s.CheckLayouts([]wgpu.BindGroupLayoutDescriptor{wrongType}), "does not match")

	missing := wgpu.BindGroupLayoutDescriptor{Entries: good.Entries[:1]}
	assert.ErrorContains(t, s.CheckLayouts([]wgpu.BindGroupLayoutDescriptor{missing}), "missing")

	assert.ErrorContains(t, s.CheckLayouts(nil), "only 0 layouts")
}

func TestNewShaderWithoutVertexEntry(t *testing.T) {
	_, err := NewShader("frag_only", "@fragment\nfn fs_main() -> @location(0) vec4<f32> { return vec4<f32>(1.0); }")
	assert.Error(t, err)
}

func TestPreProcessorIncludesOnce(t *testing.T) {
	p := NewPreProcessor()
	out, err := p.Process("//@hz:include instance\n//@hz:include instance\nfn f() {}")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "struct Instance"))
	assert.Equal(t, []string{"instance"}, p.Included())

	_, err = p.Process("//@hz:include nope")
	assert.ErrorContains(t, err, "unknown include")

	_, err = p.Process("//@hz:include a b")
	assert.Error(t, err)
}

func TestStripComments(t *testing.T) {
	src := "a /* one /* two */ still */ b // tail\nc /* x // y */ d"
	assert.Equal(t, "a  b \nc  d", stripComments(src))
	assert.Equal(t, "e ", stripComments("e // no newline"))
}

func TestVertexFormat(t *testing.T) {
	cases := []struct {
		typeName string
		format   wgpu.VertexFormat
		size     uint64
	}{
		{"f32", wgpu.VertexFormatFloat32, 4},
		{"vec3<f32>", wgpu.VertexFormatFloat32x3, 12},
		{"vec3f", wgpu.VertexFormatFloat32x3, 12},
		{"vec2u", wgpu.VertexFormatUint32x2, 8},
		{"vec4< i32 >", wgpu.VertexFormatSint32x4, 16},
	}
	for _, tc := range cases {
		format, size, ok := vertexFormat(tc.typeName)
		require.True(t, ok, tc.typeName)
		assert.Equal(t, tc.format, format, tc.typeName)
		assert.Equal(t, tc.size, size, tc.typeName)
	}

	for _, bad := range []string{"mat4x4<f32>", "vec5f", "vec2h", "Instance"} {
		_, _, ok := vertexFormat(bad)
		assert.False(t, ok, bad)
	}
}

func TestVertexLayoutsSkipBuiltinsAndOutputs(t *testing.T) {
	s, err := NewShader("layouts", `
struct In {
    @location(0) pos: vec3f,
    @location(3) weight: f32,
};
struct Out {
    @builtin(position) clip: vec4<f32>,
    @location(0) uv: vec2<f32>,
};
@vertex
fn vs_main(@builtin(instance_index) idx: u32, in: In, out_like: Out) -> Out {
    var o: Out;
    return o;
}
`)
	require.NoError(t, err)

	layouts := s.VertexLayouts()
	require.Len(t, layouts, 1)
	assert.Equal(t, uint64(16), layouts[0].ArrayStride)
	assert.Equal(t, []wgpu.VertexAttribute{
		{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
		{Format: wgpu.VertexFormatFloat32, Offset: 12, ShaderLocation: 3},
	}, layouts[0].Attributes)
}

package bind_group_container

import (
	"testing"

	"github.com/Carmen-Shannon/horizon/engine/gpu"
	"github.com/Carmen-Shannon/horizon/engine/gpu/gputest"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	dev    *gputest.Device
	layout gpu.BindGroupLayout
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dev := gputest.NewDevice()
	layout, err := dev.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "test",
		Entries: []wgpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: wgpu.ShaderStageFragment, Texture: wgpu.TextureBindingLayout{SampleType: wgpu.TextureSampleTypeFloat, ViewDimension: wgpu.TextureViewDimension2D}},
			{Binding: 1, Visibility: wgpu.ShaderStageFragment, Sampler: wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering}},
		},
	})
	require.NoError(t, err)
	return fixture{dev: dev, layout: layout}
}

func (f fixture) view(t *testing.T, label string) gpu.TextureView {
	t.Helper()
	tex, err := f.dev.CreateTexture(&wgpu.TextureDescriptor{
		Label:  label,
		Size:   wgpu.Extent3D{Width: 2, Height: 2, DepthOrArrayLayers: 1},
		Format: wgpu.TextureFormatRGBA8Unorm,
	})
	require.NoError(t, err)
	v, err := tex.CreateView(nil)
	require.NoError(t, err)
	return v
}

func (f fixture) bind(t *testing.T, view gpu.TextureView, s gpu.Sampler) (gpu.BindGroup, []gpu.BindGroupEntry) {
	t.Helper()
	entries := []gpu.BindGroupEntry{{Binding: 0, TextureView: view}, {Binding: 1, Sampler: s}}
	bg, err := f.dev.CreateBindGroup(&gpu.BindGroupDescriptor{Label: "test", Layout: f.layout, Entries: entries})
	require.NoError(t, err)
	return bg, entries
}

func TestContainerReleaseKeepsShared(t *testing.T) {
	f := newFixture(t)
	owned := f.view(t, "owned")
	shared, err := f.dev.CreateSampler(&wgpu.SamplerDescriptor{Label: "shared"})
	require.NoError(t, err)

	bg, entries := f.bind(t, owned, shared)
	c := NewBindGroupContainer("test", f.layout, bg, entries,
		WithOwnedTextureView("view", owned),
		WithSharedSampler("sampler", shared),
	)

	assert.True(t, c.Owns("view"))
	assert.False(t, c.Owns("sampler"))

	c.Release()

	assert.True(t, owned.(*gputest.TextureView).Released())
	assert.True(t, bg.(*gputest.BindGroup).Released())
	assert.False(t, shared.(*gputest.Sampler).Released())
	assert.False(t, f.layout.(*gputest.BindGroupLayout).Released())

	c.ReleaseLayout()
	assert.True(t, f.layout.(*gputest.BindGroupLayout).Released())
}

func TestContainerRebindSwapsOnlyBindGroup(t *testing.T) {
	f := newFixture(t)
	s, err := f.dev.CreateSampler(&wgpu.SamplerDescriptor{Label: "s"})
	require.NoError(t, err)

	first := f.view(t, "first")
	bg1, entries1 := f.bind(t, first, s)
	c := NewBindGroupContainer("debug", f.layout, bg1, entries1,
		WithOwnedTextureView("view", first),
		WithSharedSampler("sampler", s),
	)

	second := f.view(t, "second")
	bg2, entries2 := f.bind(t, second, s)
	c.Rebind(bg2, entries2, WithOwnedTextureView("view", second))

	assert.Same(t, f.layout, c.Layout())
	assert.Same(t, bg2, c.BindGroup())
	assert.Equal(t, uint64(1), c.Generation())
	assert.True(t, bg1.(*gputest.BindGroup).Released())
	assert.True(t, first.(*gputest.TextureView).Released())
	assert.False(t, second.(*gputest.TextureView).Released())

	got, ok := c.TextureView("view")
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.Same(t, second, c.Entries()[0].TextureView)
}

func TestContainerRebindSameOwnedResourceKeepsIt(t *testing.T) {
	f := newFixture(t)
	s, err := f.dev.CreateSampler(&wgpu.SamplerDescriptor{Label: "s"})
	require.NoError(t, err)
	view := f.view(t, "view")

	bg1, entries := f.bind(t, view, s)
	c := NewBindGroupContainer("c", f.layout, bg1, entries, WithOwnedTextureView("view", view))

	bg2, entries := f.bind(t, view, s)
	c.Rebind(bg2, entries, WithOwnedTextureView("view", view))

	assert.False(t, view.(*gputest.TextureView).Released())
}

package bind_group

import (
	"testing"

	"github.com/Carmen-Shannon/horizon/engine/gpu/gputest"
	"github.com/Carmen-Shannon/horizon/engine/renderer/registry"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams(w, h uint32) Params {
	return Params{
		Width:         w,
		Height:        h,
		ShadowMapSize: 512,
		ShadowLayers:  1,
		MaxInstances:  16,
		MaxLights:     8,
	}
}

func allocateAll(t *testing.T, dev *gputest.Device, reg registry.Registry, p Params) {
	t.Helper()
	for _, c := range Concerns() {
		require.NoError(t, For(c).AllocateResources(dev, reg, p))
	}
}

func TestForCoversEveryConcern(t *testing.T) {
	for _, c := range Concerns() {
		assert.Equal(t, c, For(c).Concern())
	}
	assert.Panics(t, func() { For(Concern(99)) })
}

func TestDescribeLayoutIsDeterministic(t *testing.T) {
	dev := gputest.NewDevice()
	for _, c := range Concerns() {
		assert.Equal(t, For(c).DescribeLayout(dev), For(c).DescribeLayout(dev), c.String())
	}
}

func TestUniformLayoutSlots(t *testing.T) {
	desc := For(Uniform).DescribeLayout(gputest.NewDevice())
	require.Len(t, desc.Entries, 5)

	assert.Equal(t, wgpu.BufferBindingTypeUniform, desc.Entries[0].Buffer.Type)
	assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, desc.Entries[1].Buffer.Type)
	assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, desc.Entries[2].Buffer.Type)
	assert.Equal(t, wgpu.TextureSampleTypeDepth, desc.Entries[3].Texture.SampleType)
	assert.Equal(t, wgpu.TextureViewDimension2DArray, desc.Entries[3].Texture.ViewDimension)
	assert.Equal(t, wgpu.SamplerBindingTypeComparison, desc.Entries[4].Sampler.Type)
}

func TestAllocateResourcesIsIdempotent(t *testing.T) {
	dev := gputest.NewDevice()
	reg := registry.NewRegistry()
	p := testParams(800, 600)

	allocateAll(t, dev, reg, p)
	live := dev.Live()
	albedo := reg.MustTexture(registry.TextureAlbedo)
	globals := reg.MustBuffer(registry.BufferGlobalUniform)

	allocateAll(t, dev, reg, p)
	assert.Equal(t, live, dev.Live())
	assert.Same(t, albedo, reg.MustTexture(registry.TextureAlbedo))
	assert.Same(t, globals, reg.MustBuffer(registry.BufferGlobalUniform))
}

func TestAllocateResourcesReplacesSurfaceSizedTargets(t *testing.T) {
	dev := gputest.NewDevice()
	reg := registry.NewRegistry()
	allocateAll(t, dev, reg, testParams(800, 600))
	oldAlbedo := reg.MustTexture(registry.TextureAlbedo).(*gputest.Texture)
	oldView := reg.MustTextureView(registry.ViewAlbedo).(*gputest.TextureView)
	shadow := reg.MustTexture(registry.TextureShadowDepth)
	count := dev.LiveCount()

	allocateAll(t, dev, reg, testParams(400, 300))

	albedo := reg.MustTexture(registry.TextureAlbedo)
	assert.Equal(t, uint32(400), albedo.Width())
	assert.Equal(t, uint32(300), albedo.Height())
	assert.True(t, oldAlbedo.Released())
	assert.True(t, oldView.Released())
	assert.Same(t, shadow, reg.MustTexture(registry.TextureShadowDepth))
	assert.Equal(t, count, dev.LiveCount())
}

func TestAllocateResourcesRebuildsMissingView(t *testing.T) {
	dev := gputest.NewDevice()
	reg := registry.NewRegistry()
	allocateAll(t, dev, reg, testParams(800, 600))
	albedo := reg.MustTexture(registry.TextureAlbedo)
	count := dev.LiveCount()

	reg.SetTextureView(registry.ViewAlbedo, nil)
	allocateAll(t, dev, reg, testParams(800, 600))

	assert.Same(t, albedo, reg.MustTexture(registry.TextureAlbedo))
	view := reg.MustTextureView(registry.ViewAlbedo).(*gputest.TextureView)
	assert.False(t, view.Released())
	assert.Equal(t, count, dev.LiveCount())
}

func TestReversedZSwapsShadowSampler(t *testing.T) {
	dev := gputest.NewDevice()
	reg := registry.NewRegistry()
	p := testParams(64, 64)
	require.NoError(t, For(Uniform).AllocateResources(dev, reg, p))
	s := reg.MustSampler(registry.SamplerShadow).(*gputest.Sampler)
	assert.Equal(t, wgpu.CompareFunctionLessEqual, s.Desc.Compare)

	p.ReversedZ = true
	require.NoError(t, For(Uniform).AllocateResources(dev, reg, p))
	assert.True(t, s.Released())
	assert.Equal(t, wgpu.CompareFunctionGreaterEqual, reg.MustSampler(registry.SamplerShadow).(*gputest.Sampler).Desc.Compare)
}

func TestBuildContainerMissingBinding(t *testing.T) {
	dev := gputest.NewDevice()
	reg := registry.NewRegistry()
	f := For(Shadow)
	require.NoError(t, f.AllocateResources(dev, reg, testParams(64, 64)))

	layout, err := CreateLayout(dev, f)
	require.NoError(t, err)

	// the instance buffer belongs to the uniform concern and was never allocated
	_, err = f.BuildContainer(dev, layout, f.Resources(reg))
	assert.ErrorIs(t, err, ErrMissingBinding)
}

func TestBuildContainerBindsSlots(t *testing.T) {
	dev := gputest.NewDevice()
	reg := registry.NewRegistry()
	allocateAll(t, dev, reg, testParams(64, 64))

	f := For(Uniform)
	layout, err := CreateLayout(dev, f)
	require.NoError(t, err)
	c, err := f.BuildContainer(dev, layout, f.Resources(reg))
	require.NoError(t, err)

	bg := c.BindGroup().(*gputest.BindGroup)
	e, ok := bg.Entry(0)
	require.True(t, ok)
	assert.Same(t, reg.MustBuffer(registry.BufferGlobalUniform), e.Buffer)

	e, ok = bg.Entry(3)
	require.True(t, ok)
	view := e.TextureView.(*gputest.TextureView)
	assert.Same(t, reg.MustTexture(registry.TextureShadowDepth), view.Parent)
	assert.Equal(t, wgpu.TextureViewDimension2DArray, view.Desc.Dimension)
	assert.True(t, c.Owns(NameShadowMap))
	assert.False(t, c.Owns(NameGlobals))

	c.Release()
	assert.True(t, view.Released())
	assert.False(t, reg.MustBuffer(registry.BufferGlobalUniform).(*gputest.Buffer).Released())
}

func TestRefreshKeepsCurrentContainer(t *testing.T) {
	dev := gputest.NewDevice()
	reg := registry.NewRegistry()
	allocateAll(t, dev, reg, testParams(800, 600))

	f := For(Deferred)
	layout, err := CreateLayout(dev, f)
	require.NoError(t, err)
	c, err := f.BuildContainer(dev, layout, f.Resources(reg))
	require.NoError(t, err)
	bg := c.BindGroup()

	rebound, err := f.Refresh(dev, c, f.Resources(reg))
	require.NoError(t, err)
	assert.False(t, rebound)
	assert.Same(t, bg, c.BindGroup())

	allocateAll(t, dev, reg, testParams(400, 300))
	rebound, err = f.Refresh(dev, c, f.Resources(reg))
	require.NoError(t, err)
	assert.True(t, rebound)
	assert.Same(t, layout, c.Layout())
	assert.True(t, bg.(*gputest.BindGroup).Released())

	v, ok := c.TextureView(NameAlbedo)
	require.True(t, ok)
	assert.Same(t, reg.MustTextureView(registry.ViewAlbedo), v)
}

func TestRefreshDebugTextureOwnsOneView(t *testing.T) {
	dev := gputest.NewDevice()
	reg := registry.NewRegistry()
	allocateAll(t, dev, reg, testParams(32, 32))

	f := For(DebugTexture)
	layout, err := CreateLayout(dev, f)
	require.NoError(t, err)

	res := f.Resources(reg)
	res.DebugTexture = reg.MustTexture(registry.TextureAlbedo)
	c, err := f.BuildContainer(dev, layout, res)
	require.NoError(t, err)
	first, _ := c.TextureView(NameDebugTexture)

	res.DebugTexture = reg.MustTexture(registry.TextureNormal)
	rebound, err := f.Refresh(dev, c, res)
	require.NoError(t, err)
	assert.True(t, rebound)
	assert.True(t, first.(*gputest.TextureView).Released())

	second, _ := c.TextureView(NameDebugTexture)
	assert.Same(t, reg.MustTexture(registry.TextureNormal), second.(*gputest.TextureView).Parent)
}

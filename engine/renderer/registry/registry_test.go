package registry

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/horizon/engine/gpu"
	"github.com/Carmen-Shannon/horizon/engine/gpu/gputest"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBuffer(t *testing.T, dev *gputest.Device, label string) gpu.Buffer {
	t.Helper()
	b, err := dev.CreateBuffer(&wgpu.BufferDescriptor{Label: label, Size: 64, Usage: wgpu.BufferUsageUniform})
	require.NoError(t, err)
	return b
}

func newTexture(t *testing.T, dev *gputest.Device, label string) gpu.Texture {
	t.Helper()
	tex, err := dev.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          wgpu.Extent3D{Width: 4, Height: 4, DepthOrArrayLayers: 1},
		Format:        wgpu.TextureFormatRGBA8Unorm,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
	})
	require.NoError(t, err)
	return tex
}

func TestRegistryAbsentIsNotAnError(t *testing.T) {
	reg := NewRegistry()

	b, ok := reg.Buffer(BufferGlobalUniform)
	assert.False(t, ok)
	assert.Nil(t, b)

	_, ok = reg.Sampler(SamplerShadow)
	assert.False(t, ok)
	assert.Equal(t, 0, reg.LiveCount())
}

func TestRegistrySetReleasesPrevious(t *testing.T) {
	dev := gputest.NewDevice()
	reg := NewRegistry()

	first := newBuffer(t, dev, "first")
	second := newBuffer(t, dev, "second")

	reg.SetBuffer(BufferInstance, first)
	reg.SetBuffer(BufferInstance, second)

	assert.True(t, first.(*gputest.Buffer).Released())
	assert.False(t, second.(*gputest.Buffer).Released())
	assert.Equal(t, 1, dev.LiveCount())

	got, ok := reg.Buffer(BufferInstance)
	require.True(t, ok)
	assert.Same(t, second, got)
}

func TestRegistrySetSameHandleKeepsIt(t *testing.T) {
	dev := gputest.NewDevice()
	reg := NewRegistry()

	buf := newBuffer(t, dev, "buf")
	reg.SetBuffer(BufferLightList, buf)
	reg.SetBuffer(BufferLightList, buf)

	assert.False(t, buf.(*gputest.Buffer).Released())
	assert.Equal(t, 1, reg.LiveCount())
}

func TestRegistrySetNilClears(t *testing.T) {
	dev := gputest.NewDevice()
	reg := NewRegistry()

	tex := newTexture(t, dev, "albedo")
	reg.SetTexture(TextureAlbedo, tex)
	reg.SetTexture(TextureAlbedo, nil)

	_, ok := reg.Texture(TextureAlbedo)
	assert.False(t, ok)
	assert.True(t, tex.(*gputest.Texture).Released())
}

func TestRegistryOrBuildBuildsOnce(t *testing.T) {
	dev := gputest.NewDevice()
	reg := NewRegistry()

	calls := 0
	build := func() (gpu.Buffer, error) {
		calls++
		return newBuffer(t, dev, "globals"), nil
	}

	a, err := reg.BufferOrBuild(BufferGlobalUniform, build)
	require.NoError(t, err)
	b, err := reg.BufferOrBuild(BufferGlobalUniform, build)
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Equal(t, 1, calls)
}

func TestRegistryOrBuildPropagatesError(t *testing.T) {
	reg := NewRegistry()
	boom := errors.New("boom")

	_, err := reg.SamplerOrBuild(SamplerGBuffer, func() (gpu.Sampler, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	_, ok := reg.Sampler(SamplerGBuffer)
	assert.False(t, ok)
}

func TestRegistryOrBuildRejectsNilHandle(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.BufferOrBuild(BufferGlobalUniform, func() (gpu.Buffer, error) { return nil, nil })
	assert.ErrorIs(t, err, ErrMissingResource)
	_, err = reg.TextureViewOrBuild(ViewAlbedo, func() (gpu.TextureView, error) { return nil, nil })
	assert.ErrorIs(t, err, ErrMissingResource)

	_, ok := reg.Buffer(BufferGlobalUniform)
	assert.False(t, ok)
	_, ok = reg.TextureView(ViewAlbedo)
	assert.False(t, ok)
	assert.Equal(t, 0, reg.LiveCount())

	// a later build still runs
	dev := gputest.NewDevice()
	b, err := reg.BufferOrBuild(BufferGlobalUniform, func() (gpu.Buffer, error) { return newBuffer(t, dev, "globals"), nil })
	require.NoError(t, err)
	assert.Same(t, b, reg.MustBuffer(BufferGlobalUniform))
}

func TestRegistryMustPanicsWithMissingResource(t *testing.T) {
	reg := NewRegistry()

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.ErrorIs(t, err, ErrMissingResource)
		assert.Contains(t, err.Error(), "deferred_vao")
	}()
	reg.MustBuffer(BufferDeferredVAO)
}

func TestRegistryNamedTexturesKeepOrder(t *testing.T) {
	dev := gputest.NewDevice()
	reg := NewRegistry()

	reg.SetNamedTexture("brick", newTexture(t, dev, "brick"))
	reg.SetNamedTexture("grass", newTexture(t, dev, "grass"))
	reg.SetNamedTexture("brick", newTexture(t, dev, "brick2"))

	assert.Equal(t, []string{"brick", "grass"}, reg.NamedTextures())
	assert.Equal(t, 2, dev.LiveCount())

	reg.SetNamedTexture("brick", nil)
	assert.Equal(t, []string{"grass"}, reg.NamedTextures())
	assert.Equal(t, 1, dev.LiveCount())
}

func TestRegistryReleaseFreesEverything(t *testing.T) {
	dev := gputest.NewDevice()
	reg := NewRegistry()

	tex := newTexture(t, dev, "depth")
	view, err := tex.CreateView(nil)
	require.NoError(t, err)

	reg.SetTexture(TextureDepth, tex)
	reg.SetTextureView(ViewDepth, view)
	reg.SetBuffer(BufferGlobalUniform, newBuffer(t, dev, "globals"))
	reg.SetNamedTexture("debug", newTexture(t, dev, "debug"))
	require.Equal(t, 4, reg.LiveCount())

	reg.Release()

	assert.Equal(t, 0, reg.LiveCount())
	assert.Equal(t, 0, dev.LiveCount())
	assert.Empty(t, reg.NamedTextures())
}

func TestTextureKindSurfaceSized(t *testing.T) {
	assert.False(t, TextureShadowDepth.SurfaceSized())
	for _, k := range []TextureKind{TextureAlbedo, TextureNormal, TextureDepth} {
		assert.True(t, k.SurfaceSized(), k.String())
	}
	assert.Len(t, TextureKinds(), 4)
	assert.Len(t, BufferKinds(), 6)
}

package renderer

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/horizon/engine/config"
	"github.com/Carmen-Shannon/horizon/engine/gpu"
	"github.com/Carmen-Shannon/horizon/engine/gpu/gputest"
	"github.com/Carmen-Shannon/horizon/engine/light"
	"github.com/Carmen-Shannon/horizon/engine/model"
	"github.com/Carmen-Shannon/horizon/engine/renderer/bind_group"
	"github.com/Carmen-Shannon/horizon/engine/renderer/frame"
	"github.com/Carmen-Shannon/horizon/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/horizon/engine/renderer/registry"
	"github.com/cogentcore/webgpu/wgpu"
	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	r   Renderer
	dev *gputest.Device
	q   *gputest.Queue
	s   *gputest.Surface
}

func newFixture(t *testing.T, options ...RendererBuilderOption) *fixture {
	t.Helper()
	ctx, dev, q, s := gputest.NewContext()
	r, err := NewRenderer(ctx, 800, 600, append([]RendererBuilderOption{WithWorkers(2)}, options...)...)
	require.NoError(t, err)
	t.Cleanup(r.Release)
	return &fixture{r: r, dev: dev, q: q, s: s}
}

func (f *fixture) addScene(t *testing.T) model.Model {
	t.Helper()
	cube := model.Cube("cube", 1, model.WithInstances(
		model.Instance{Transform: glm.Ident4(), Color: glm.Vec4{1, 1, 1, 1}},
		model.Instance{Transform: glm.Translate3D(2, 0, 0), Color: glm.Vec4{1, 0, 0, 1}},
	))
	require.NoError(t, f.r.AddModel(cube))
	require.NoError(t, f.r.SetDirectionalLight(light.NewLight(light.LightTypeDirectional, light.WithDirection(-1, -1, -1))))
	return cube
}

// lastPasses returns the render passes of the most recent submission keyed by label.
func (f *fixture) lastPasses(t *testing.T) map[string]*gputest.RenderPass {
	t.Helper()
	subs := f.q.Submitted()
	require.NotEmpty(t, subs)
	passes := make(map[string]*gputest.RenderPass)
	for _, p := range subs[len(subs)-1].Encoder.Passes {
		passes[p.Desc.Label] = p
	}
	return passes
}

// assertNoStaleBindings fails if any container binds a released buffer, view, texture or sampler.
func assertNoStaleBindings(t *testing.T, r Renderer) {
	t.Helper()
	for _, c := range bind_group.Concerns() {
		bgc, ok := r.Container(c)
		require.True(t, ok, c.String())
		bg := bgc.BindGroup().(*gputest.BindGroup)
		assert.False(t, bg.Released(), "%s bind group", c)
		for _, e := range bg.Desc.Entries {
			switch {
			case e.Buffer != nil:
				assert.False(t, e.Buffer.(*gputest.Buffer).Released(), "%s binding %d", c, e.Binding)
			case e.TextureView != nil:
				v := e.TextureView.(*gputest.TextureView)
				assert.False(t, v.Released(), "%s binding %d", c, e.Binding)
				if v.Parent != nil {
					assert.False(t, v.Parent.Released(), "%s binding %d texture", c, e.Binding)
				}
			case e.Sampler != nil:
				assert.False(t, e.Sampler.(*gputest.Sampler).Released(), "%s binding %d", c, e.Binding)
			}
		}
	}
}

func TestRenderPresentsFrame(t *testing.T) {
	f := newFixture(t)
	cube := f.addScene(t)

	out := f.r.Render()
	require.True(t, out.Presented(), out.String())
	assert.Equal(t, 1, f.s.Presented)
	require.Len(t, f.q.Submitted(), 1)

	var labels []string
	for _, p := range f.q.Submitted()[0].Encoder.Passes {
		labels = append(labels, p.Desc.Label)
	}
	assert.Equal(t, []string{"Shadow Pass", "Geometry Pass", "Composite Pass"}, labels)

	passes := f.lastPasses(t)
	shadow := passes["Shadow Pass"]
	assert.Empty(t, shadow.Desc.ColorAttachments)
	require.NotNil(t, shadow.Desc.DepthAttachment)
	require.Len(t, shadow.Draws(), 1)
	assert.Equal(t, gputest.OpDrawIndexed, shadow.Draws()[0].Op)
	assert.Equal(t, cube.IndexCount(), shadow.Draws()[0].Count)
	assert.Equal(t, uint32(2), shadow.Draws()[0].Instances)

	geometry := passes["Geometry Pass"]
	assert.Len(t, geometry.Desc.ColorAttachments, 2)
	assert.Len(t, geometry.Draws(), 1)

	composite := passes["Composite Pass"]
	require.Len(t, composite.Draws(), 1)
	assert.Equal(t, gputest.Command{Op: gputest.OpDraw, Count: 6, Instances: 1}, composite.Draws()[0])
	deferred, _ := f.r.Container(bind_group.Deferred)
	assert.Same(t, deferred.BindGroup(), composite.BoundGroup(0))

	globals := f.r.Registry().MustBuffer(registry.BufferGlobalUniform)
	_, ok := f.q.LastWrite(globals.Label())
	assert.True(t, ok)
	for _, label := range f.dev.Live() {
		assert.NotContains(t, label, "surface", "presented frame leaks %s", label)
		assert.NotContains(t, label, "commands:", "presented frame leaks %s", label)
	}
}

func TestRenderNoCaster(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.r.AddModel(model.Plane("floor", 4, model.WithInstances(
		model.Instance{Transform: glm.Ident4(), Color: glm.Vec4{1, 1, 1, 1}},
	))))
	tri, err := f.r.AddMesh("tri", []model.GPUVertex{
		{Position: [3]float32{0, 0, 0}, Normal: [3]float32{0, 0, 1}},
		{Position: [3]float32{1, 0, 0}, Normal: [3]float32{0, 0, 1}},
		{Position: [3]float32{0, 1, 0}, Normal: [3]float32{0, 0, 1}},
	}, []uint32{0, 1, 2}, model.Instance{Transform: glm.Ident4(), Color: glm.Vec4{0, 1, 0, 1}})
	require.NoError(t, err)
	assert.Equal(t, uint32(3), tri.IndexCount())

	require.True(t, f.r.Render().Presented())
	shadow := f.lastPasses(t)["Shadow Pass"]
	assert.Empty(t, shadow.Draws())
	draws := f.lastPasses(t)["Geometry Pass"].Draws()
	require.Len(t, draws, 2)
	assert.Equal(t, uint32(1), draws[1].Index, "second model starts after the first model's instances")
}

func TestRenderLightMarkers(t *testing.T) {
	f := newFixture(t, WithLightMarkers(true))
	f.addScene(t)
	f.r.SetLights(
		light.NewLight(light.LightTypePoint, light.WithPosition(0, 2, 0)),
		light.NewLight(light.LightTypePoint, light.WithPosition(2, 2, 0)),
	)

	require.True(t, f.r.Render().Presented())
	draws := f.lastPasses(t)["Composite Pass"].Draws()
	require.Len(t, draws, 2)
	assert.Equal(t, uint32(2), draws[1].Instances)
}

func TestAcquireFailureDropsFrame(t *testing.T) {
	f := newFixture(t)
	f.addScene(t)
	configures := f.s.Configures

	f.s.FailNextAcquire(gpu.SurfaceErrorOutdated)
	out := f.r.Render()
	assert.Equal(t, frame.StatusAborted, out.Status)
	assert.Equal(t, frame.ReasonSurfaceError, out.Reason)
	var serr *gpu.SurfaceError
	require.True(t, errors.As(out.Err, &serr))
	assert.Equal(t, gpu.SurfaceErrorOutdated, serr.Kind)

	assert.Empty(t, f.q.Submitted())
	assert.Empty(t, f.dev.Encoders())
	assert.Equal(t, 0, f.s.Presented)
	assert.Equal(t, configures+1, f.s.Configures, "outdated surface is reconfigured")

	out = f.r.Render()
	assert.True(t, out.Presented(), out.String())
	assert.Equal(t, 1, f.s.Presented)
}

func TestResizeRebuildsSurfaceSizedResources(t *testing.T) {
	f := newFixture(t)
	f.addScene(t)
	require.True(t, f.r.Render().Presented())

	reg := f.r.Registry()
	shadowBefore := reg.MustTexture(registry.TextureShadowDepth)
	albedoBefore := reg.MustTexture(registry.TextureAlbedo)
	uniform, _ := f.r.Container(bind_group.Uniform)
	deferred, _ := f.r.Container(bind_group.Deferred)
	uniformGen, deferredGen := uniform.Generation(), deferred.Generation()
	pipelinesBefore := f.dev.Pipelines()

	require.NoError(t, f.r.Resize(400, 300))
	w, h := f.r.Size()
	assert.Equal(t, uint32(400), w)
	assert.Equal(t, uint32(300), h)
	assert.Equal(t, uint32(400), f.s.Width)
	assert.Equal(t, uint32(300), f.s.Height)

	for _, k := range []registry.TextureKind{registry.TextureAlbedo, registry.TextureNormal, registry.TextureDepth} {
		tex := reg.MustTexture(k)
		assert.Equal(t, uint32(400), tex.Width(), k.String())
		assert.Equal(t, uint32(300), tex.Height(), k.String())
	}
	assert.True(t, albedoBefore.(*gputest.Texture).Released())
	assert.Same(t, shadowBefore, reg.MustTexture(registry.TextureShadowDepth))

	assert.Equal(t, uniformGen, uniform.Generation())
	assert.Greater(t, deferred.Generation(), deferredGen)
	assertNoStaleBindings(t, f.r)

	// the surface format did not change
	assert.Len(t, f.dev.Pipelines(), len(pipelinesBefore))
	assert.InDelta(t, float32(400)/300, f.r.Camera().Aspect(), 1e-6)

	out := f.r.Render()
	assert.True(t, out.Presented(), out.String())
}

func TestResizeFormatChangeRebuildsPipelines(t *testing.T) {
	f := newFixture(t)
	forward, _ := f.r.Pipeline(pipeline.KindForward)

	f.s.FormatOnConfigure = wgpu.TextureFormatRGBA8Unorm
	require.NoError(t, f.r.Resize(1024, 768))

	rebuilt, ok := f.r.Pipeline(pipeline.KindForward)
	require.True(t, ok)
	assert.NotSame(t, forward, rebuilt)
	desc := rebuilt.RenderPipeline().(*gputest.RenderPipeline).Desc
	require.NotNil(t, desc.Fragment)
	assert.Equal(t, wgpu.TextureFormatRGBA8Unorm, desc.Targets[0].Format)
	assert.True(t, forward.RenderPipeline().(*gputest.RenderPipeline).Released())
}

func TestResizeFailureKeepsPreviousSize(t *testing.T) {
	f := newFixture(t)
	f.addScene(t)
	require.True(t, f.r.Render().Presented())
	reg := f.r.Registry()
	normalBefore := reg.MustTexture(registry.TextureNormal)

	f.dev.TextureHook = func(desc *wgpu.TextureDescriptor) error {
		if desc.Label == "G-Buffer Normal" {
			return errors.New("out of memory")
		}
		return nil
	}
	assert.ErrorContains(t, f.r.Resize(400, 300), "out of memory")

	w, h := f.r.Size()
	assert.Equal(t, uint32(800), w)
	assert.Equal(t, uint32(600), h)
	assert.Equal(t, uint32(800), f.s.Width)
	assert.Equal(t, uint32(600), f.s.Height)
	assert.InDelta(t, float32(800)/600, f.r.Camera().Aspect(), 1e-6)

	assert.Same(t, normalBefore, reg.MustTexture(registry.TextureNormal))
	_, ok := reg.TextureView(registry.ViewNormal)
	assert.True(t, ok)
	for _, k := range []registry.TextureKind{registry.TextureAlbedo, registry.TextureNormal, registry.TextureDepth} {
		assert.Equal(t, uint32(800), reg.MustTexture(k).Width(), k.String())
	}
	assertNoStaleBindings(t, f.r)

	out := f.r.Render()
	require.True(t, out.Presented(), out.String())

	f.dev.TextureHook = nil
	require.NoError(t, f.r.Resize(400, 300))
	assert.Equal(t, uint32(400), reg.MustTexture(registry.TextureNormal).Width())
	assertNoStaleBindings(t, f.r)
}

func TestResizeRetriesFailedPipelineRebuild(t *testing.T) {
	f := newFixture(t)
	forward, _ := f.r.Pipeline(pipeline.KindForward)

	f.s.FormatOnConfigure = wgpu.TextureFormatRGBA8Unorm
	f.dev.CompileHook = func(gpu.ShaderStage) error { return errors.New("driver rejected module") }
	assert.ErrorIs(t, f.r.Resize(1024, 768), pipeline.ErrShaderCompile)

	kept, _ := f.r.Pipeline(pipeline.KindForward)
	assert.Same(t, forward, kept)

	f.dev.CompileHook = nil
	require.NoError(t, f.r.Resize(1024, 768))
	rebuilt, _ := f.r.Pipeline(pipeline.KindForward)
	assert.NotSame(t, forward, rebuilt)
	desc := rebuilt.RenderPipeline().(*gputest.RenderPipeline).Desc
	assert.Equal(t, wgpu.TextureFormatRGBA8Unorm, desc.Targets[0].Format)
}

func TestResizeRejectsZero(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.r.Resize(0, 600), ErrInvalidSize)
	assert.ErrorIs(t, f.r.Resize(800, 0), ErrInvalidSize)
	w, h := f.r.Size()
	assert.Equal(t, uint32(800), w)
	assert.Equal(t, uint32(600), h)
}

func TestDebugSelectionRebinds(t *testing.T) {
	f := newFixture(t)
	f.addScene(t)
	reg := f.r.Registry()

	assert.Equal(t, "albedo", f.r.SelectDebugTextureIndex(0))
	require.True(t, f.r.Render().Presented())
	debug := f.lastPasses(t)["Debug Texture Pass"]
	require.NotNil(t, debug)
	assert.Equal(t, wgpu.LoadOpLoad, debug.Desc.ColorAttachments[0].LoadOp)
	entry, ok := debug.BoundGroup(0).(*gputest.BindGroup).Entry(0)
	require.True(t, ok)
	assert.Same(t, reg.MustTexture(registry.TextureAlbedo), entry.TextureView.(*gputest.TextureView).Parent)

	assert.Equal(t, "normal", f.r.SelectDebugTextureIndex(1))
	require.True(t, f.r.Render().Presented())
	debug = f.lastPasses(t)["Debug Texture Pass"]
	entry, ok = debug.BoundGroup(0).(*gputest.BindGroup).Entry(0)
	require.True(t, ok)
	assert.Same(t, reg.MustTexture(registry.TextureNormal), entry.TextureView.(*gputest.TextureView).Parent)

	// the viewport covers a quarter of each dimension by default
	for _, c := range debug.Commands {
		if c.Op == gputest.OpSetViewport {
			assert.Equal(t, uint32(200), c.Count)
			assert.Equal(t, uint32(150), c.Instances)
		}
	}
	assertNoStaleBindings(t, f.r)

	require.NoError(t, f.r.SelectDebugTexture("none"))
	require.True(t, f.r.Render().Presented())
	assert.NotContains(t, f.lastPasses(t), "Debug Texture Pass")
}

func TestDebugTextureNames(t *testing.T) {
	f := newFixture(t)

	pixels := make([]byte, 2*2*4)
	require.NoError(t, f.r.CreateDebugTexture("checker", 2, 2, pixels))
	assert.Equal(t, []string{"albedo", "normal", "checker"}, f.r.DebugTextures())

	assert.Equal(t, "checker", f.r.SelectDebugTextureIndex(-1))
	assert.Equal(t, "albedo", f.r.SelectDebugTextureIndex(3))
	assert.Equal(t, "normal", f.r.SelectDebugTextureIndex(4))

	assert.ErrorIs(t, f.r.SelectDebugTexture("nope"), ErrUnknownDebugTexture)
	assert.Equal(t, "normal", f.r.DebugTexture())

	require.NoError(t, f.r.SelectDebugTexture("checker"))
	require.True(t, f.r.Render().Presented())
	entry, ok := f.lastPasses(t)["Debug Texture Pass"].BoundGroup(0).(*gputest.BindGroup).Entry(0)
	require.True(t, ok)
	assert.Equal(t, "checker", entry.TextureView.(*gputest.TextureView).Parent.Label())

	require.NoError(t, f.r.SelectDebugTexture("none"))
	assert.Equal(t, "none", f.r.DebugTexture())

	assert.Error(t, f.r.CreateDebugTexture("albedo", 2, 2, pixels))
	assert.Error(t, f.r.CreateDebugTexture("short", 2, 2, pixels[:4]))
}

func TestUnregisterSelectedDebugTexture(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.r.CreateDebugTexture("checker", 1, 1, []byte{255, 0, 255, 255}))
	require.NoError(t, f.r.SelectDebugTexture("checker"))

	require.NoError(t, f.r.RegisterDebugTexture("checker", nil))
	assert.Equal(t, "none", f.r.DebugTexture())
	assert.Equal(t, []string{"albedo", "normal"}, f.r.DebugTextures())
}

func TestUnknownDebugTextureInConfig(t *testing.T) {
	ctx, dev, _, _ := gputest.NewContext()
	cfg := config.Default()
	cfg.Debug.Texture = "missing"

	_, err := NewRenderer(ctx, 800, 600, WithConfig(cfg), WithWorkers(1))
	assert.ErrorIs(t, err, ErrUnknownDebugTexture)
	assert.Zero(t, dev.LiveCount(), dev.Live())
}

func TestRebuildPipelinesKeepsContainers(t *testing.T) {
	f := newFixture(t)
	before := make(map[bind_group.Concern]gpu.BindGroup)
	for _, c := range bind_group.Concerns() {
		bgc, _ := f.r.Container(c)
		before[c] = bgc.BindGroup()
	}
	old, _ := f.r.Pipeline(pipeline.KindGeometry)

	require.NoError(t, f.r.RebuildPipelines())

	for _, c := range bind_group.Concerns() {
		bgc, _ := f.r.Container(c)
		assert.Same(t, before[c], bgc.BindGroup(), c.String())
	}
	rebuilt, _ := f.r.Pipeline(pipeline.KindGeometry)
	assert.NotSame(t, old, rebuilt)
	assert.True(t, old.RenderPipeline().(*gputest.RenderPipeline).Released())
}

func TestRebuildPipelinesFailureKeepsOld(t *testing.T) {
	f := newFixture(t)
	old, _ := f.r.Pipeline(pipeline.KindForward)

	f.dev.CompileHook = func(gpu.ShaderStage) error { return errors.New("driver rejected module") }
	assert.ErrorIs(t, f.r.RebuildPipelines(), pipeline.ErrShaderCompile)

	current, _ := f.r.Pipeline(pipeline.KindForward)
	assert.Same(t, old, current)
	assert.False(t, old.RenderPipeline().(*gputest.RenderPipeline).Released())

	f.dev.CompileHook = nil
	assert.True(t, f.r.Render().Presented())
}

func TestNewRendererCompileFailureReleasesEverything(t *testing.T) {
	ctx, dev, _, _ := gputest.NewContext()
	dev.CompileHook = func(gpu.ShaderStage) error { return errors.New("driver rejected module") }

	r, err := NewRenderer(ctx, 800, 600)
	assert.Nil(t, r)
	assert.ErrorIs(t, err, pipeline.ErrShaderCompile)
	assert.Zero(t, dev.LiveCount(), dev.Live())
}

func TestNewRendererRejectsBadInput(t *testing.T) {
	ctx, _, _, _ := gputest.NewContext()
	_, err := NewRenderer(ctx, 0, 600)
	assert.ErrorIs(t, err, ErrInvalidSize)

	cfg := config.Default()
	cfg.MaxLights = 0
	_, err = NewRenderer(ctx, 800, 600, WithConfig(cfg))
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestReversedZ(t *testing.T) {
	f := newFixture(t, WithDepthConvention(config.DepthReversedZ))
	f.addScene(t)
	assert.True(t, f.r.Camera().ReversedZ())

	require.True(t, f.r.Render().Presented())
	geometry := f.lastPasses(t)["Geometry Pass"]
	assert.Equal(t, float32(0), geometry.Desc.DepthAttachment.DepthClearValue)

	p, _ := f.r.Pipeline(pipeline.KindGeometry)
	ds := p.RenderPipeline().(*gputest.RenderPipeline).Desc.DepthStencil
	require.NotNil(t, ds)
	assert.Equal(t, wgpu.CompareFunctionGreaterEqual, ds.DepthCompare)
}

func TestSetDirectionalLightRejectsPointLight(t *testing.T) {
	f := newFixture(t)
	assert.Error(t, f.r.SetDirectionalLight(light.NewLight(light.LightTypePoint)))
	assert.NoError(t, f.r.SetDirectionalLight(nil))
}

func TestReleaseFreesEverything(t *testing.T) {
	ctx, dev, _, _ := gputest.NewContext()
	r, err := NewRenderer(ctx, 800, 600, WithWorkers(2))
	require.NoError(t, err)
	require.NoError(t, r.AddModel(model.Cube("cube", 1, model.WithInstances(model.Instance{Transform: glm.Ident4(), Color: glm.Vec4{1, 1, 1, 1}}))))
	require.NoError(t, r.CreateDebugTexture("checker", 1, 1, []byte{0, 0, 0, 255}))
	require.NoError(t, r.SelectDebugTexture("checker"))
	require.True(t, r.Render().Presented())
	require.NoError(t, r.Resize(640, 480))
	require.True(t, r.Render().Presented())

	r.Release()
	r.Release()
	assert.Zero(t, dev.LiveCount(), dev.Live())
}

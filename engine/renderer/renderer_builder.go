package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/horizon/engine/camera"
	"github.com/Carmen-Shannon/horizon/engine/config"
	"github.com/Carmen-Shannon/horizon/engine/ecs"
	"github.com/Carmen-Shannon/horizon/engine/gpu"
	"github.com/Carmen-Shannon/horizon/engine/profiler"
	"github.com/Carmen-Shannon/horizon/engine/renderer/pass"
	"github.com/Carmen-Shannon/horizon/engine/renderer/registry"
	log "github.com/sirupsen/logrus"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// NewRenderer configures the surface, allocates every registry resource, builds one container per
// binding concern and one pipeline per pipeline kind, and registers the frame systems. Any failure
// is a configuration error: everything created so far is released and the error is returned.
//
// Parameters:
//   - ctx: the graphics context
//   - width: the initial surface width in pixels
//   - height: the initial surface height in pixels
//   - options: builder options
//
// Returns:
//   - Renderer: the renderer
//   - error: an invalid size, an invalid configuration or a failed resource, layout or pipeline
func NewRenderer(ctx *gpu.Context, width, height uint32, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:        &sync.Mutex{},
		ctx:       ctx,
		cfg:       config.Default(),
		reg:       registry.NewRegistry(),
		bindings:  make(pass.Bindings),
		pipelines: make(pass.Pipelines),
		world:     ecs.NewWorld(),
	}
	for _, opt := range options {
		opt(r)
	}

	if width == 0 || height == 0 {
		return nil, fmt.Errorf("new renderer %dx%d: %w", width, height, ErrInvalidSize)
	}
	if err := r.cfg.Validate(); err != nil {
		return nil, err
	}

	r.settings = &pass.Settings{Config: r.cfg, Width: width, Height: height}
	if r.cfg.Debug.Texture != pass.DebugNone {
		r.settings.DebugTexture = r.cfg.Debug.Texture
	}
	r.scene = &pass.Scene{Camera: camera.NewCamera(
		camera.WithAspect(float32(width)/float32(height)),
		camera.WithReversedZ(r.cfg.Depth.Reversed()),
	)}

	if err := r.setup(); err != nil {
		log.WithError(err).Error("renderer setup failed")
		r.Release()
		return nil, err
	}

	log.WithFields(log.Fields{
		"width":  width,
		"height": height,
		"depth":  r.cfg.Depth,
		"stages": len(r.scheduler.Stages()),
	}).Info("renderer ready")
	return r, nil
}

func (r *renderer) setup() error {
	if err := r.ctx.Surface.Configure(r.settings.Width, r.settings.Height, r.cfg.PresentMode.WGPU()); err != nil {
		return fmt.Errorf("configure surface: %w", err)
	}
	r.surfaceFormat = r.ctx.Surface.Format()

	if err := r.allocate(); err != nil {
		return err
	}
	if r.settings.DebugTexture != "" {
		if _, ok := pass.DebugTexture(r.reg, r.settings.DebugTexture); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownDebugTexture, r.settings.DebugTexture)
		}
	}
	if err := r.buildContainers(); err != nil {
		return err
	}

	r.world.Set(pass.ResourceGraphics, r.ctx)
	r.world.Set(pass.ResourceRegistry, r.reg)
	r.world.Set(pass.ResourceBindings, r.bindings)
	r.world.Set(pass.ResourceScene, r.scene)
	r.world.Set(pass.ResourceSettings, r.settings)

	if err := r.rebuildPipelines(r.surfaceFormat); err != nil {
		return err
	}

	r.scheduler = ecs.NewScheduler(ecs.WithWorkers(r.cfg.Workers))
	return r.scheduler.Add(pass.Systems()...)
}

// WithConfig replaces the whole configuration.
//
// Parameters:
//   - cfg: the configuration
//
// Returns:
//   - RendererBuilderOption: a function that applies the configuration to a renderer
func WithConfig(cfg config.Config) RendererBuilderOption {
	return func(r *renderer) {
		r.cfg = cfg
	}
}

// WithDepthConvention selects less-equal or reversed-Z depth.
//
// Parameters:
//   - d: the depth convention
//
// Returns:
//   - RendererBuilderOption: a function that applies the depth convention to a renderer
func WithDepthConvention(d config.DepthConvention) RendererBuilderOption {
	return func(r *renderer) {
		r.cfg.Depth = d
	}
}

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option to a renderer
func WithPresentMode(mode config.PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.cfg.PresentMode = mode
	}
}

// WithWorkers sets the size of the scheduler's worker pool.
func WithWorkers(n int) RendererBuilderOption {
	return func(r *renderer) {
		r.cfg.Workers = n
	}
}

// WithLightMarkers toggles the light marker overlay of the composite pass.
func WithLightMarkers(enabled bool) RendererBuilderOption {
	return func(r *renderer) {
		r.cfg.Debug.LightMarkers = enabled
	}
}

// WithProfiler reports every frame outcome to p.
func WithProfiler(p *profiler.Profiler) RendererBuilderOption {
	return func(r *renderer) {
		r.profiler = p
	}
}

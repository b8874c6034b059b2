package renderer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/horizon/engine/camera"
	"github.com/Carmen-Shannon/horizon/engine/config"
	"github.com/Carmen-Shannon/horizon/engine/ecs"
	"github.com/Carmen-Shannon/horizon/engine/gpu"
	"github.com/Carmen-Shannon/horizon/engine/light"
	"github.com/Carmen-Shannon/horizon/engine/model"
	"github.com/Carmen-Shannon/horizon/engine/profiler"
	"github.com/Carmen-Shannon/horizon/engine/renderer/bind_group"
	"github.com/Carmen-Shannon/horizon/engine/renderer/bind_group_container"
	"github.com/Carmen-Shannon/horizon/engine/renderer/frame"
	"github.com/Carmen-Shannon/horizon/engine/renderer/pass"
	"github.com/Carmen-Shannon/horizon/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/horizon/engine/renderer/registry"
	"github.com/cogentcore/webgpu/wgpu"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrInvalidSize is returned for a zero surface width or height.
	ErrInvalidSize = errors.New("invalid surface size")

	// ErrUnknownDebugTexture is returned when selecting a texture name that is not registered.
	ErrUnknownDebugTexture = errors.New("unknown debug texture")
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	ctx *gpu.Context
	cfg config.Config

	reg           registry.Registry
	bindings      pass.Bindings
	pipelines     pass.Pipelines
	surfaceFormat wgpu.TextureFormat

	scene    *pass.Scene
	settings *pass.Settings

	world     *ecs.World
	scheduler ecs.Scheduler
	profiler  *profiler.Profiler
	frames    uint64
	released  bool
}

// Renderer drives the frame: it owns the resource registry, one bind group container per binding
// concern and one pipeline per pipeline kind, and runs the pass systems once per Render call.
//
// All methods are safe to call from any goroutine but never run concurrently with each other.
type Renderer interface {
	// Render builds and presents one frame. A frame whose presentation target could not be acquired
	// is dropped: no pass records anything and the outcome is aborted with ReasonSurfaceError. The
	// next call starts clean.
	//
	// Returns:
	//   - frame.Outcome: presented, or aborted with the reason and error
	Render() frame.Outcome

	// Resize reconfigures the surface and rebuilds every size-dependent resource, then rebinds the
	// containers that referenced the old ones. Pipelines are rebuilt only if the surface format
	// changed. Must be called before the next Render after the window size changed.
	//
	// Parameters:
	//   - width: the new surface width in pixels
	//   - height: the new surface height in pixels
	//
	// Returns:
	//   - error: ErrInvalidSize for a zero dimension, or the allocation failure
	Resize(width, height uint32) error

	// Size returns the current surface size in pixels.
	Size() (uint32, uint32)

	// SelectDebugTexture selects the texture shown in the debug overlay.
	//
	// Parameters:
	//   - name: a name from DebugTextures, or "none" to hide the overlay
	//
	// Returns:
	//   - error: ErrUnknownDebugTexture if no texture is registered under name
	SelectDebugTexture(name string) error

	// SelectDebugTextureIndex selects the k-th name of DebugTextures, wrapping around in both
	// directions.
	//
	// Parameters:
	//   - k: the index
	//
	// Returns:
	//   - string: the selected name
	SelectDebugTextureIndex(k int) string

	// DebugTexture returns the selected debug texture name, "none" when the overlay is hidden.
	DebugTexture() string

	// DebugTextures lists the selectable names: "albedo" and "normal" followed by the registered
	// textures in registration order.
	DebugTextures() []string

	// RegisterDebugTexture makes a texture selectable under name. The registry takes ownership
	// of the texture and releases it when it is replaced or the renderer is released. A nil
	// texture unregisters the name.
	//
	// Parameters:
	//   - name: the selection name
	//   - tex: the texture, created on the renderer's device with texture binding usage
	//
	// Returns:
	//   - error: an error if name is reserved
	RegisterDebugTexture(name string, tex gpu.Texture) error

	// CreateDebugTexture uploads tightly packed RGBA8 pixels into a new texture and registers it.
	//
	// Parameters:
	//   - name: the selection name
	//   - width: the texture width in pixels
	//   - height: the texture height in pixels
	//   - rgba: width*height*4 bytes
	//
	// Returns:
	//   - error: a reserved name, a size mismatch or a creation failure
	CreateDebugTexture(name string, width, height uint32, rgba []byte) error

	// AddMesh creates a model, uploads its geometry and adds it to the scene.
	//
	// Parameters:
	//   - name: the model name
	//   - vertices: the vertex stream
	//   - indices: the triangle list indices
	//   - instances: the initial placements
	//
	// Returns:
	//   - model.Model: the model, whose instances may be changed between frames
	//   - error: an upload failure
	AddMesh(name string, vertices []model.GPUVertex, indices []uint32, instances ...model.Instance) (model.Model, error)

	// AddModel uploads an existing model and adds it to the scene.
	AddModel(m model.Model) error

	// Camera returns the scene camera.
	Camera() camera.Camera

	// SetCamera replaces the scene camera. Its aspect ratio and depth convention are set to match
	// the surface and the configuration.
	SetCamera(c camera.Camera)

	// SetLights replaces the point and spot lights of the light list.
	SetLights(lights ...light.Light)

	// SetDirectionalLight sets the light that casts the shadow map, nil for none.
	//
	// Returns:
	//   - error: an error if l is not a directional light
	SetDirectionalLight(l light.Light) error

	// RebuildPipelines builds a new pipeline of every kind against the current container layouts
	// and replaces the old ones. On failure the old pipelines stay in use.
	//
	// Returns:
	//   - error: a configuration error from the pipeline factories
	RebuildPipelines() error

	// Registry returns the resource registry.
	Registry() registry.Registry

	// Container returns the bind group container of a concern.
	Container(concern bind_group.Concern) (bind_group_container.BindGroupContainer, bool)

	// Pipeline returns the compiled pipeline of a kind.
	Pipeline(kind pipeline.Kind) (pipeline.Pipeline, bool)

	// Config returns the configuration the renderer runs with.
	Config() config.Config

	// Release frees every GPU object the renderer owns. The graphics context is left to its owner.
	Release()
}

var _ Renderer = &renderer{}

func (r *renderer) Render() frame.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.frames++
	f := frame.New(fmt.Sprintf("Frame %d", r.frames))
	r.world.Set(pass.ResourceFrame, f)
	runErr := r.scheduler.Run(r.world)
	out := f.Close()
	r.world.Set(pass.ResourceFrame, nil)

	if runErr != nil {
		log.WithError(runErr).WithField("frame", r.frames).Error("frame systems failed")
		if out.Err == nil {
			out.Err = runErr
		}
	}
	if out.Reason == frame.ReasonSurfaceError {
		r.recoverSurface(out.Err)
	}
	if r.profiler != nil {
		r.profiler.Record(out)
	}
	return out
}

// recoverSurface reconfigures the surface after an acquire failure that a reconfigure can fix.
func (r *renderer) recoverSurface(err error) {
	var serr *gpu.SurfaceError
	if !errors.As(err, &serr) || !serr.Recoverable() {
		return
	}
	if cerr := r.ctx.Surface.Configure(r.settings.Width, r.settings.Height, r.cfg.PresentMode.WGPU()); cerr != nil {
		log.WithError(cerr).Warn("surface reconfigure failed")
	}
}

func (r *renderer) Resize(width, height uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if width == 0 || height == 0 {
		return fmt.Errorf("resize to %dx%d: %w", width, height, ErrInvalidSize)
	}
	if err := r.ctx.Surface.Configure(width, height, r.cfg.PresentMode.WGPU()); err != nil {
		return fmt.Errorf("configure surface: %w", err)
	}
	prevWidth, prevHeight := r.settings.Width, r.settings.Height
	if err := r.resizeTargets(width, height); err != nil {
		r.restoreSize(prevWidth, prevHeight)
		return err
	}
	r.scene.Camera.SetAspect(float32(width) / float32(height))

	rebuilt := false
	if format := r.ctx.Surface.Format(); format != r.surfaceFormat {
		if err := r.rebuildPipelines(format); err != nil {
			return err
		}
		rebuilt = true
	}

	log.WithFields(log.Fields{
		"width":     width,
		"height":    height,
		"pipelines": rebuilt,
	}).Info("renderer resized")
	return nil
}

func (r *renderer) Size() (uint32, uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settings.Width, r.settings.Height
}

func (r *renderer) SelectDebugTexture(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name == "" || name == pass.DebugNone {
		r.settings.DebugTexture = ""
		return nil
	}
	if _, ok := pass.DebugTexture(r.reg, name); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDebugTexture, name)
	}
	r.settings.DebugTexture = name
	return nil
}

func (r *renderer) SelectDebugTextureIndex(k int) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := pass.DebugTextures(r.reg)
	n := len(names)
	name := names[((k%n)+n)%n]
	r.settings.DebugTexture = name
	return name
}

func (r *renderer) DebugTexture() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.settings.DebugTexture == "" {
		return pass.DebugNone
	}
	return r.settings.DebugTexture
}

func (r *renderer) DebugTextures() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return pass.DebugTextures(r.reg)
}

func reservedName(name string) bool {
	return name == "" || name == pass.DebugNone || name == pass.DebugAlbedo || name == pass.DebugNormal
}

func (r *renderer) RegisterDebugTexture(name string, tex gpu.Texture) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if reservedName(name) {
		return fmt.Errorf("debug texture name %q is reserved", name)
	}
	r.reg.SetNamedTexture(name, tex)
	if tex == nil && r.settings.DebugTexture == name {
		r.settings.DebugTexture = ""
	}
	return nil
}

func (r *renderer) CreateDebugTexture(name string, width, height uint32, rgba []byte) error {
	if reservedName(name) {
		return fmt.Errorf("debug texture name %q is reserved", name)
	}
	if uint64(len(rgba)) != uint64(width)*uint64(height)*4 {
		return fmt.Errorf("debug texture %q: %d bytes for %dx%d RGBA8", name, len(rgba), width, height)
	}

	tex, err := r.ctx.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         name,
		Size:          wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create debug texture %q: %w", name, err)
	}
	if err := r.ctx.Queue.WriteTexture(tex, rgba, width*4); err != nil {
		tex.Release()
		return fmt.Errorf("write debug texture %q: %w", name, err)
	}
	return r.RegisterDebugTexture(name, tex)
}

func (r *renderer) AddMesh(name string, vertices []model.GPUVertex, indices []uint32, instances ...model.Instance) (model.Model, error) {
	m := model.NewModel(
		model.WithName(name),
		model.WithGeometry(vertices, indices),
		model.WithInstances(instances...),
	)
	if err := r.AddModel(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *renderer) AddModel(m model.Model) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := m.Upload(r.ctx.Device, r.ctx.Queue); err != nil {
		return fmt.Errorf("upload model %q: %w", m.Name(), err)
	}
	r.scene.Models = append(r.scene.Models, m)
	log.WithFields(log.Fields{
		"model":     m.Name(),
		"instances": len(m.Instances()),
	}).Debug("model added")
	return nil
}

func (r *renderer) Camera() camera.Camera {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scene.Camera
}

func (r *renderer) SetCamera(c camera.Camera) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.SetAspect(float32(r.settings.Width) / float32(r.settings.Height))
	c.SetReversedZ(r.cfg.Depth.Reversed())
	r.scene.Camera = c
}

func (r *renderer) SetLights(lights ...light.Light) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scene.Lights = append([]light.Light(nil), lights...)
}

func (r *renderer) SetDirectionalLight(l light.Light) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l != nil && l.Type() != light.LightTypeDirectional {
		return fmt.Errorf("shadow caster must be a directional light, got %s", l.Type())
	}
	r.scene.Sun = l
	return nil
}

func (r *renderer) RebuildPipelines() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rebuildPipelines(r.surfaceFormat)
}

func (r *renderer) Registry() registry.Registry {
	return r.reg
}

func (r *renderer) Container(concern bind_group.Concern) (bind_group_container.BindGroupContainer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.bindings[concern]
	return c, ok
}

func (r *renderer) Pipeline(kind pipeline.Kind) (pipeline.Pipeline, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pipelines[kind]
	return p, ok
}

func (r *renderer) Config() config.Config {
	return r.cfg
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return
	}
	r.released = true

	if r.scheduler != nil {
		r.scheduler.Close()
	}
	for k, p := range r.pipelines {
		p.Release()
		delete(r.pipelines, k)
	}
	for c, bgc := range r.bindings {
		bgc.Release()
		bgc.ReleaseLayout()
		delete(r.bindings, c)
	}
	for _, m := range r.scene.Models {
		m.Release()
	}
	r.reg.Release()
	log.WithField("frames", r.frames).Info("renderer released")
}

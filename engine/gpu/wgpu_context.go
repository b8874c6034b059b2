package gpu

import (
	"errors"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	log "github.com/sirupsen/logrus"
)

// ContextOption configures NewWGPUContext.
type ContextOption func(*contextConfig)

type contextConfig struct {
	forceFallbackAdapter bool
	label                string
	maxBindGroups        uint32
}

// WithFallbackAdapter forces the software fallback adapter.
func WithFallbackAdapter(force bool) ContextOption {
	return func(c *contextConfig) {
		c.forceFallbackAdapter = force
	}
}

// WithDeviceLabel sets the debug label of the created device.
func WithDeviceLabel(label string) ContextOption {
	return func(c *contextConfig) {
		c.label = label
	}
}

// NewWGPUContext creates a WebGPU instance, surface, adapter, device and queue for the given
// window surface descriptor. It locks the calling goroutine to its OS thread.
//
// Parameters:
//   - surfaceDescriptor: the platform surface descriptor, usually from wgpuglfw
//   - opts: context options
//
// Returns:
//   - *Context: the graphics context
//   - error: an error if no adapter or device could be obtained
func NewWGPUContext(surfaceDescriptor *wgpu.SurfaceDescriptor, opts ...ContextOption) (*Context, error) {
	runtime.LockOSThread()

	cfg := &contextConfig{label: "Horizon Device", maxBindGroups: 4}
	for _, opt := range opts {
		opt(cfg)
	}

	instance := wgpu.CreateInstance(nil)
	surface := instance.CreateSurface(surfaceDescriptor)
	if surface == nil {
		instance.Release()
		return nil, errors.New("could not create presentation surface")
	}

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: cfg.forceFallbackAdapter,
		CompatibleSurface:    surface,
	})
	if err != nil {
		surface.Release()
		instance.Release()
		return nil, err
	}

	limits := wgpu.DefaultLimits()
	if limits.MaxBindGroups < cfg.maxBindGroups {
		limits.MaxBindGroups = cfg.maxBindGroups
	}
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: cfg.label,
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		adapter.Release()
		surface.Release()
		instance.Release()
		return nil, err
	}
	queue := device.GetQueue()

	log.WithFields(log.Fields{
		"label":    cfg.label,
		"fallback": cfg.forceFallbackAdapter,
	}).Info("graphics device ready")

	s := &wgpuSurface{surface: surface, adapter: adapter, device: device}
	return NewContext(
		&wgpuDevice{device: device, limits: limits},
		&wgpuQueue{queue: queue},
		s,
		func() {
			queue.Release()
			device.Release()
			adapter.Release()
			surface.Release()
			instance.Release()
		},
	), nil
}

type wgpuSurface struct {
	surface *wgpu.Surface
	adapter *wgpu.Adapter
	device  *wgpu.Device
	format  wgpu.TextureFormat
}

var _ Surface = &wgpuSurface{}

func (s *wgpuSurface) Configure(width, height uint32, mode wgpu.PresentMode) error {
	if width == 0 || height == 0 {
		return errors.New("surface size must be non-zero")
	}

	capabilities := s.surface.GetCapabilities(s.adapter)
	if len(capabilities.Formats) == 0 {
		return errors.New("surface reports no supported formats")
	}
	s.format = capabilities.Formats[0]

	alpha := wgpu.CompositeAlphaModeAuto
	if len(capabilities.AlphaModes) > 0 {
		alpha = capabilities.AlphaModes[0]
	}

	s.surface.Configure(s.adapter, s.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      s.format,
		Width:       width,
		Height:      height,
		PresentMode: mode,
		AlphaMode:   alpha,
	})
	return nil
}

func (s *wgpuSurface) Format() wgpu.TextureFormat {
	return s.format
}

func (s *wgpuSurface) Acquire() (SurfaceTexture, error) {
	tex, err := s.surface.GetCurrentTexture()
	if err != nil {
		return nil, NewSurfaceError(err)
	}
	return &wgpuSurfaceTexture{surface: s.surface, tex: tex}, nil
}

type wgpuSurfaceTexture struct {
	surface   *wgpu.Surface
	tex       *wgpu.Texture
	released  bool
	presented bool
}

var _ SurfaceTexture = &wgpuSurfaceTexture{}

func (t *wgpuSurfaceTexture) CreateView() (TextureView, error) {
	view, err := t.tex.CreateView(nil)
	if err != nil {
		return nil, err
	}
	return &wgpuTextureView{view: view, label: "Surface View"}, nil
}

func (t *wgpuSurfaceTexture) Present() {
	if t.presented {
		return
	}
	t.presented = true
	t.surface.Present()
	t.Release()
}

func (t *wgpuSurfaceTexture) Release() {
	if t.released {
		return
	}
	t.released = true
	t.tex.Release()
}

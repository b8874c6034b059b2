package gputest

import (
	"fmt"

	"github.com/Carmen-Shannon/horizon/engine/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	_ gpu.Buffer          = &Buffer{}
	_ gpu.Texture         = &Texture{}
	_ gpu.TextureView     = &TextureView{}
	_ gpu.Sampler         = &Sampler{}
	_ gpu.BindGroupLayout = &BindGroupLayout{}
	_ gpu.BindGroup       = &BindGroup{}
	_ gpu.RenderPipeline  = &RenderPipeline{}
	_ gpu.CommandEncoder  = &CommandEncoder{}
	_ gpu.CommandBuffer   = &CommandBuffer{}
	_ gpu.RenderPass      = &RenderPass{}
	_ gpu.Surface         = &Surface{}
	_ gpu.SurfaceTexture  = &SurfaceTexture{}
)

// Surface is a scripted gpu.Surface. Acquire pops queued failures before handing out images.
type Surface struct {
	dev *Device

	// FormatOnConfigure is the format reported after every Configure.
	FormatOnConfigure wgpu.TextureFormat

	Width       uint32
	Height      uint32
	PresentMode wgpu.PresentMode
	Configures  int
	Acquired    int
	Presented   int

	failures []error
	format   wgpu.TextureFormat
	current  *SurfaceTexture
}

// NewSurface creates an unconfigured surface whose images are tracked by dev.
func NewSurface(dev *Device) *Surface {
	return &Surface{dev: dev, FormatOnConfigure: wgpu.TextureFormatBGRA8UnormSrgb}
}

// FailNextAcquire queues an acquire failure of the given kind.
func (s *Surface) FailNextAcquire(kind gpu.SurfaceErrorKind) {
	s.failures = append(s.failures, &gpu.SurfaceError{Kind: kind, Err: fmt.Errorf("scripted %s", kind)})
}

func (s *Surface) Configure(width, height uint32, mode wgpu.PresentMode) error {
	if width == 0 || height == 0 {
		return fmt.Errorf("surface: zero size %dx%d", width, height)
	}
	s.Width, s.Height, s.PresentMode = width, height, mode
	s.format = s.FormatOnConfigure
	s.Configures++
	return nil
}

func (s *Surface) Format() wgpu.TextureFormat {
	return s.format
}

func (s *Surface) Acquire() (gpu.SurfaceTexture, error) {
	if len(s.failures) > 0 {
		err := s.failures[0]
		s.failures = s.failures[1:]
		return nil, err
	}
	if s.Configures == 0 {
		return nil, &gpu.SurfaceError{Kind: gpu.SurfaceErrorOutdated, Err: fmt.Errorf("surface not configured")}
	}
	if s.current != nil && !s.current.released {
		return nil, &gpu.SurfaceError{Kind: gpu.SurfaceErrorUnknown, Err: fmt.Errorf("surface image already acquired")}
	}
	st := &SurfaceTexture{surface: s}
	st.handle = handle{dev: s.dev, id: s.dev.track("surface_texture")}
	s.current = st
	s.Acquired++
	return st, nil
}

// SurfaceTexture is a recorded presentation image.
type SurfaceTexture struct {
	handle
	surface   *Surface
	Presented bool
}

func (t *SurfaceTexture) CreateView() (gpu.TextureView, error) {
	v := &TextureView{label: "Surface View"}
	v.handle = handle{dev: t.dev, id: t.dev.track("view:surface")}
	return v, nil
}

func (t *SurfaceTexture) Present() {
	if t.Presented {
		panic("surface texture presented twice")
	}
	t.Presented = true
	t.surface.Presented++
	t.Release()
}

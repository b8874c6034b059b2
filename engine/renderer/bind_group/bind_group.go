package bind_group

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/horizon/engine/gpu"
	"github.com/Carmen-Shannon/horizon/engine/renderer/bind_group_container"
	"github.com/Carmen-Shannon/horizon/engine/renderer/registry"
	"github.com/cogentcore/webgpu/wgpu"
	log "github.com/sirupsen/logrus"
)

// ErrMissingBinding is returned by BuildContainer and Refresh when a resource the layout requires
// was not supplied. It marks a programming error in the caller, not a runtime condition.
var ErrMissingBinding = errors.New("missing binding resource")

// Concern identifies one of the closed set of binding concerns.
type Concern int

const (
	// Shadow binds the shadow-pass uniform and the instance storage.
	Shadow Concern = iota
	// Uniform binds the camera globals, instance and normal-matrix storage and the shadow map.
	Uniform
	// Lighting binds the light list.
	Lighting
	// Deferred binds the G-buffer attachments read by the composite.
	Deferred
	// DebugTexture binds the texture selected for inspection.
	DebugTexture

	concernCount
)

func (c Concern) String() string {
	switch c {
	case Shadow:
		return "shadow"
	case Uniform:
		return "uniform"
	case Lighting:
		return "lighting"
	case Deferred:
		return "deferred"
	case DebugTexture:
		return "debug_texture"
	default:
		return "unknown_concern"
	}
}

// Concerns returns every Concern in declaration order.
func Concerns() []Concern {
	concerns := make([]Concern, 0, concernCount)
	for c := Concern(0); c < concernCount; c++ {
		concerns = append(concerns, c)
	}
	return concerns
}

// Params sizes the resources the factories allocate.
type Params struct {
	Width         uint32
	Height        uint32
	ShadowMapSize uint32
	ShadowLayers  uint32
	MaxInstances  uint32
	MaxLights     uint32
	ReversedZ     bool
}

// Resources is the set of handles a container may bind. Fields a concern does not use are ignored.
type Resources struct {
	ShadowUniform  gpu.Buffer
	Globals        gpu.Buffer
	Instances      gpu.Buffer
	NormalMatrices gpu.Buffer
	LightList      gpu.Buffer
	ShadowTexture  gpu.Texture
	ShadowSampler  gpu.Sampler
	Albedo         gpu.TextureView
	Normal         gpu.TextureView
	Depth          gpu.TextureView
	GBufferSampler gpu.Sampler
	DebugTexture   gpu.Texture
	DebugSampler   gpu.Sampler
}

// Factory describes, allocates and binds the resources of one binding concern.
// Factories hold no state; every call receives the device it works against.
type Factory interface {
	// Concern returns the binding concern this factory serves.
	//
	// Returns:
	//   - Concern: the concern
	Concern() Concern

	// DescribeLayout returns the binding layout of the concern.
	// The result depends only on the device and is equal across calls.
	//
	// Parameters:
	//   - device: the GPU device
	//
	// Returns:
	//   - wgpu.BindGroupLayoutDescriptor: the layout descriptor
	DescribeLayout(device gpu.Device) wgpu.BindGroupLayoutDescriptor

	// AllocateResources creates the GPU objects this concern owns and installs them in the registry.
	// A live handle that already matches params is kept; any other is released and recreated, so
	// repeated calls without a change in params leave the registry untouched.
	//
	// Parameters:
	//   - device: the GPU device
	//   - reg: the resource registry
	//   - params: sizes and conventions
	//
	// Returns:
	//   - error: creation failure
	AllocateResources(device gpu.Device, reg registry.Registry, params Params) error

	// Resources gathers the handles currently in the registry.
	//
	// Parameters:
	//   - reg: the resource registry
	//
	// Returns:
	//   - Resources: the registry handles, with DebugTexture left empty
	Resources(reg registry.Registry) Resources

	// BuildContainer binds res against layout.
	// It fails with ErrMissingBinding if a handle the layout needs is nil.
	//
	// Parameters:
	//   - device: the GPU device
	//   - layout: a layout created from DescribeLayout
	//   - res: the handles to bind
	//
	// Returns:
	//   - bind_group_container.BindGroupContainer: the new container
	//   - error: missing binding or creation failure
	BuildContainer(device gpu.Device, layout gpu.BindGroupLayout, res Resources) (bind_group_container.BindGroupContainer, error)

	// Refresh rebinds the container if any handle in res differs from the one it holds.
	// The layout is kept; only the bind group and the resources created for it are replaced.
	//
	// Parameters:
	//   - device: the GPU device
	//   - container: a container built by this factory
	//   - res: the handles to bind
	//
	// Returns:
	//   - bool: true if the container was rebound
	//   - error: missing binding or creation failure
	Refresh(device gpu.Device, container bind_group_container.BindGroupContainer, res Resources) (bool, error)
}

var factories = [concernCount]*factory{
	Shadow:       shadowFactory(),
	Uniform:      uniformFactory(),
	Lighting:     lightingFactory(),
	Deferred:     deferredFactory(),
	DebugTexture: debugTextureFactory(),
}

// For returns the factory of a concern.
//
// Parameters:
//   - concern: the binding concern
//
// Returns:
//   - Factory: the factory
func For(concern Concern) Factory {
	if concern < 0 || concern >= concernCount {
		panic(fmt.Sprintf("bind_group: unknown concern %d", concern))
	}
	return factories[concern]
}

// CreateLayout realizes the layout of a concern on the device.
//
// Parameters:
//   - device: the GPU device
//   - f: the factory
//
// Returns:
//   - gpu.BindGroupLayout: the layout
//   - error: creation failure
func CreateLayout(device gpu.Device, f Factory) (gpu.BindGroupLayout, error) {
	desc := f.DescribeLayout(device)
	layout, err := device.CreateBindGroupLayout(&desc)
	if err != nil {
		return nil, fmt.Errorf("%s layout: %w", f.Concern(), err)
	}
	return layout, nil
}

// GatherResources reads every registry handle a container may bind.
//
// Parameters:
//   - reg: the resource registry
//
// Returns:
//   - Resources: the handles, nil where the registry has none
func GatherResources(reg registry.Registry) Resources {
	var res Resources
	res.ShadowUniform, _ = reg.Buffer(registry.BufferShadowUniform)
	res.Globals, _ = reg.Buffer(registry.BufferGlobalUniform)
	res.Instances, _ = reg.Buffer(registry.BufferInstance)
	res.NormalMatrices, _ = reg.Buffer(registry.BufferNormalMatrix)
	res.LightList, _ = reg.Buffer(registry.BufferLightList)
	res.ShadowTexture, _ = reg.Texture(registry.TextureShadowDepth)
	res.ShadowSampler, _ = reg.Sampler(registry.SamplerShadow)
	res.Albedo, _ = reg.TextureView(registry.ViewAlbedo)
	res.Normal, _ = reg.TextureView(registry.ViewNormal)
	res.Depth, _ = reg.TextureView(registry.ViewDepth)
	res.GBufferSampler, _ = reg.Sampler(registry.SamplerGBuffer)
	res.DebugSampler, _ = reg.Sampler(registry.SamplerDebugTexture)
	return res
}

type inputKind int

const (
	inputBuffer inputKind = iota
	inputTextureView
	// inputTexture binds a view the container creates and owns over a shared texture.
	inputTexture
	inputSampler
)

// input is one binding of a concern. Exactly one handle field is set, as named by kind.
type input struct {
	binding  uint32
	name     string
	kind     inputKind
	buffer   gpu.Buffer
	view     gpu.TextureView
	texture  gpu.Texture
	viewDesc *wgpu.TextureViewDescriptor
	sampler  gpu.Sampler
}

func (in input) missing() bool {
	switch in.kind {
	case inputBuffer:
		return in.buffer == nil
	case inputTextureView:
		return in.view == nil
	case inputTexture:
		return in.texture == nil
	default:
		return in.sampler == nil
	}
}

// factory is the implementation of the Factory interface shared by every concern.
type factory struct {
	concern  Concern
	label    string
	entries  []wgpu.BindGroupLayoutEntry
	allocate func(device gpu.Device, reg registry.Registry, params Params) error
	inputs   func(res Resources) []input
}

var _ Factory = &factory{}

func (f *factory) Concern() Concern {
	return f.concern
}

func (f *factory) DescribeLayout(_ gpu.Device) wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label:   f.label + " Bind Group Layout",
		Entries: append([]wgpu.BindGroupLayoutEntry(nil), f.entries...),
	}
}

func (f *factory) AllocateResources(device gpu.Device, reg registry.Registry, params Params) error {
	if f.allocate == nil {
		return nil
	}
	if err := f.allocate(device, reg, params); err != nil {
		return fmt.Errorf("%s resources: %w", f.concern, err)
	}
	return nil
}

func (f *factory) Resources(reg registry.Registry) Resources {
	return GatherResources(reg)
}

func (f *factory) BuildContainer(device gpu.Device, layout gpu.BindGroupLayout, res Resources) (bind_group_container.BindGroupContainer, error) {
	inputs, err := f.checked(res)
	if err != nil {
		return nil, err
	}

	bg, entries, opts, err := f.bind(device, layout, inputs)
	if err != nil {
		return nil, err
	}

	log.WithField("concern", f.concern).Debug("bind group container built")
	return bind_group_container.NewBindGroupContainer(f.label, layout, bg, entries, opts...), nil
}

func (f *factory) Refresh(device gpu.Device, container bind_group_container.BindGroupContainer, res Resources) (bool, error) {
	inputs, err := f.checked(res)
	if err != nil {
		return false, err
	}
	if f.current(container, inputs) {
		return false, nil
	}

	bg, entries, opts, err := f.bind(device, container.Layout(), inputs)
	if err != nil {
		return false, err
	}
	container.Rebind(bg, entries, opts...)

	log.WithFields(log.Fields{
		"concern":    f.concern,
		"generation": container.Generation(),
	}).Debug("bind group container rebound")
	return true, nil
}

func (f *factory) checked(res Resources) ([]input, error) {
	inputs := f.inputs(res)
	for _, in := range inputs {
		if in.missing() {
			return nil, fmt.Errorf("%s binding %d (%s): %w", f.concern, in.binding, in.name, ErrMissingBinding)
		}
	}
	return inputs, nil
}

// current reports whether the container already holds every handle of inputs.
func (f *factory) current(c bind_group_container.BindGroupContainer, inputs []input) bool {
	for _, in := range inputs {
		switch in.kind {
		case inputBuffer:
			if b, ok := c.Buffer(in.name); !ok || b != in.buffer {
				return false
			}
		case inputTextureView:
			if v, ok := c.TextureView(in.name); !ok || v != in.view {
				return false
			}
		case inputTexture:
			if t, ok := c.Texture(in.name); !ok || t != in.texture {
				return false
			}
		case inputSampler:
			if s, ok := c.Sampler(in.name); !ok || s != in.sampler {
				return false
			}
		}
	}
	return true
}

// bind creates the bind group of inputs, along with the container options recording each handle.
// Views created here are released again if bind group creation fails.
func (f *factory) bind(device gpu.Device, layout gpu.BindGroupLayout, inputs []input) (gpu.BindGroup, []gpu.BindGroupEntry, []bind_group_container.BindGroupContainerOption, error) {
	entries := make([]gpu.BindGroupEntry, 0, len(inputs))
	opts := make([]bind_group_container.BindGroupContainerOption, 0, len(inputs)+1)
	var created []gpu.TextureView

	for _, in := range inputs {
		entry := gpu.BindGroupEntry{Binding: in.binding}
		switch in.kind {
		case inputBuffer:
			entry.Buffer = in.buffer
			opts = append(opts, bind_group_container.WithSharedBuffer(in.name, in.buffer))
		case inputTextureView:
			entry.TextureView = in.view
			opts = append(opts, bind_group_container.WithSharedTextureView(in.name, in.view))
		case inputTexture:
			view, err := in.texture.CreateView(in.viewDesc)
			if err != nil {
				releaseViews(created)
				return nil, nil, nil, fmt.Errorf("%s binding %d view: %w", f.concern, in.binding, err)
			}
			created = append(created, view)
			entry.TextureView = view
			opts = append(opts,
				bind_group_container.WithSharedTexture(in.name, in.texture),
				bind_group_container.WithOwnedTextureView(in.name, view),
			)
		case inputSampler:
			entry.Sampler = in.sampler
			opts = append(opts, bind_group_container.WithSharedSampler(in.name, in.sampler))
		}
		entries = append(entries, entry)
	}

	bg, err := device.CreateBindGroup(&gpu.BindGroupDescriptor{
		Label:   f.label + " Bind Group",
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		releaseViews(created)
		return nil, nil, nil, fmt.Errorf("%s bind group: %w", f.concern, err)
	}
	return bg, entries, opts, nil
}

func releaseViews(views []gpu.TextureView) {
	for _, v := range views {
		v.Release()
	}
}

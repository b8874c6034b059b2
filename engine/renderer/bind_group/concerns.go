package bind_group

import (
	"github.com/Carmen-Shannon/horizon/engine/camera"
	"github.com/Carmen-Shannon/horizon/engine/gpu"
	"github.com/Carmen-Shannon/horizon/engine/light"
	"github.com/Carmen-Shannon/horizon/engine/model"
	"github.com/Carmen-Shannon/horizon/engine/renderer/registry"
	"github.com/cogentcore/webgpu/wgpu"
)

// G-buffer and shadow map formats.
const (
	AlbedoFormat = wgpu.TextureFormatRGBA8Unorm
	NormalFormat = wgpu.TextureFormatRGBA16Float
	DepthFormat  = wgpu.TextureFormatDepth32Float
)

// Container resource names.
const (
	NameShadowUniform  = "shadow_uniform"
	NameGlobals        = "globals"
	NameInstances      = "instances"
	NameNormalMatrices = "normal_matrices"
	NameShadowMap      = "shadow_map"
	NameShadowSampler  = "shadow_sampler"
	NameLightList      = "light_list"
	NameAlbedo         = "albedo"
	NameNormal         = "normal"
	NameDepth          = "depth"
	NameGBufferSampler = "gbuffer_sampler"
	NameDebugTexture   = "debug_texture"
	NameDebugSampler   = "debug_sampler"
)

func uniformEntry(binding uint32, visibility wgpu.ShaderStage) wgpu.BindGroupLayoutEntry {
	return wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: visibility,
		Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform},
	}
}

func storageEntry(binding uint32, visibility wgpu.ShaderStage) wgpu.BindGroupLayoutEntry {
	return wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: visibility,
		Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage},
	}
}

func textureEntry(binding uint32, sampleType wgpu.TextureSampleType, dim wgpu.TextureViewDimension) wgpu.BindGroupLayoutEntry {
	return wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: wgpu.ShaderStageFragment,
		Texture: wgpu.TextureBindingLayout{
			SampleType:    sampleType,
			ViewDimension: dim,
		},
	}
}

func samplerEntry(binding uint32, samplerType wgpu.SamplerBindingType) wgpu.BindGroupLayoutEntry {
	return wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: wgpu.ShaderStageFragment,
		Sampler:    wgpu.SamplerBindingLayout{Type: samplerType},
	}
}

func shadowFactory() *factory {
	return &factory{
		concern: Shadow,
		label:   "Shadow",
		entries: []wgpu.BindGroupLayoutEntry{
			uniformEntry(0, wgpu.ShaderStageVertex),
			storageEntry(1, wgpu.ShaderStageVertex),
		},
		allocate: func(device gpu.Device, reg registry.Registry, _ Params) error {
			var u light.GPUShadowUniform
			return ensureBuffer(device, reg, registry.BufferShadowUniform, wgpu.BufferDescriptor{
				Label: "Shadow Uniform Buffer",
				Size:  uint64(u.Size()),
				Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
			})
		},
		inputs: func(res Resources) []input {
			return []input{
				{binding: 0, name: NameShadowUniform, kind: inputBuffer, buffer: res.ShadowUniform},
				{binding: 1, name: NameInstances, kind: inputBuffer, buffer: res.Instances},
			}
		},
	}
}

// ShadowCompare returns the comparison the shadow sampler and shadow pipeline use for a depth convention.
func ShadowCompare(reversedZ bool) wgpu.CompareFunction {
	if reversedZ {
		return wgpu.CompareFunctionGreaterEqual
	}
	return wgpu.CompareFunctionLessEqual
}

func uniformFactory() *factory {
	return &factory{
		concern: Uniform,
		label:   "Uniform",
		entries: []wgpu.BindGroupLayoutEntry{
			uniformEntry(0, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment),
			storageEntry(1, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment),
			storageEntry(2, wgpu.ShaderStageVertex),
			textureEntry(3, wgpu.TextureSampleTypeDepth, wgpu.TextureViewDimension2DArray),
			samplerEntry(4, wgpu.SamplerBindingTypeComparison),
		},
		allocate: allocateUniform,
		inputs: func(res Resources) []input {
			var layers uint32
			if res.ShadowTexture != nil {
				layers = res.ShadowTexture.Layers()
			}
			return []input{
				{binding: 0, name: NameGlobals, kind: inputBuffer, buffer: res.Globals},
				{binding: 1, name: NameInstances, kind: inputBuffer, buffer: res.Instances},
				{binding: 2, name: NameNormalMatrices, kind: inputBuffer, buffer: res.NormalMatrices},
				{binding: 3, name: NameShadowMap, kind: inputTexture, texture: res.ShadowTexture, viewDesc: &wgpu.TextureViewDescriptor{
					Label:           "Shadow Map Array View",
					Format:          DepthFormat,
					Dimension:       wgpu.TextureViewDimension2DArray,
					BaseMipLevel:    0,
					MipLevelCount:   1,
					BaseArrayLayer:  0,
					ArrayLayerCount: layers,
					Aspect:          wgpu.TextureAspectDepthOnly,
				}},
				{binding: 4, name: NameShadowSampler, kind: inputSampler, sampler: res.ShadowSampler},
			}
		},
	}
}

func allocateUniform(device gpu.Device, reg registry.Registry, params Params) error {
	var globals camera.GPUGlobals
	var instance model.GPUInstance
	var normal model.GPUNormalMatrix
	maxInstances := max(params.MaxInstances, 1)

	if err := ensureBuffer(device, reg, registry.BufferGlobalUniform, wgpu.BufferDescriptor{
		Label: "Global Uniform Buffer",
		Size:  uint64(globals.Size()),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	}); err != nil {
		return err
	}
	if err := ensureBuffer(device, reg, registry.BufferInstance, wgpu.BufferDescriptor{
		Label: "Instance Storage Buffer",
		Size:  uint64(instance.Size()) * uint64(maxInstances),
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	}); err != nil {
		return err
	}
	if err := ensureBuffer(device, reg, registry.BufferNormalMatrix, wgpu.BufferDescriptor{
		Label: "Normal Matrix Storage Buffer",
		Size:  uint64(normal.Size()) * uint64(maxInstances),
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	}); err != nil {
		return err
	}

	size := max(params.ShadowMapSize, 1)
	shadow := renderTarget("Shadow Depth Texture", size, size, DepthFormat)
	shadow.Size.DepthOrArrayLayers = max(params.ShadowLayers, 1)
	if err := ensureTexture(device, reg, registry.TextureShadowDepth, registry.ViewShadowDepth, shadow, &wgpu.TextureViewDescriptor{
		Label:           "Shadow Depth Layer View",
		Format:          DepthFormat,
		Dimension:       wgpu.TextureViewDimension2D,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
		Aspect:          wgpu.TextureAspectDepthOnly,
	}); err != nil {
		return err
	}

	compare := ShadowCompare(params.ReversedZ)
	sampler := linearSampler("Shadow Comparison Sampler (" + compareName(compare) + ")")
	sampler.Compare = compare
	return ensureSampler(device, reg, registry.SamplerShadow, sampler)
}

func compareName(c wgpu.CompareFunction) string {
	if c == wgpu.CompareFunctionGreaterEqual {
		return "greater-equal"
	}
	return "less-equal"
}

func lightingFactory() *factory {
	return &factory{
		concern: Lighting,
		label:   "Lighting",
		entries: []wgpu.BindGroupLayoutEntry{
			storageEntry(0, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment),
		},
		allocate: func(device gpu.Device, reg registry.Registry, params Params) error {
			return ensureBuffer(device, reg, registry.BufferLightList, wgpu.BufferDescriptor{
				Label: "Light List Storage Buffer",
				Size:  uint64(light.LightListSize(max(params.MaxLights, 1))),
				Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
			})
		},
		inputs: func(res Resources) []input {
			return []input{
				{binding: 0, name: NameLightList, kind: inputBuffer, buffer: res.LightList},
			}
		},
	}
}

func deferredFactory() *factory {
	return &factory{
		concern: Deferred,
		label:   "Deferred",
		entries: []wgpu.BindGroupLayoutEntry{
			textureEntry(0, wgpu.TextureSampleTypeFloat, wgpu.TextureViewDimension2D),
			textureEntry(1, wgpu.TextureSampleTypeFloat, wgpu.TextureViewDimension2D),
			textureEntry(2, wgpu.TextureSampleTypeDepth, wgpu.TextureViewDimension2D),
			samplerEntry(3, wgpu.SamplerBindingTypeFiltering),
		},
		allocate: allocateDeferred,
		inputs: func(res Resources) []input {
			return []input{
				{binding: 0, name: NameAlbedo, kind: inputTextureView, view: res.Albedo},
				{binding: 1, name: NameNormal, kind: inputTextureView, view: res.Normal},
				{binding: 2, name: NameDepth, kind: inputTextureView, view: res.Depth},
				{binding: 3, name: NameGBufferSampler, kind: inputSampler, sampler: res.GBufferSampler},
			}
		},
	}
}

func allocateDeferred(device gpu.Device, reg registry.Registry, params Params) error {
	targets := []struct {
		kind   registry.TextureKind
		view   registry.TextureViewKind
		label  string
		format wgpu.TextureFormat
	}{
		{registry.TextureAlbedo, registry.ViewAlbedo, "G-Buffer Albedo", AlbedoFormat},
		{registry.TextureNormal, registry.ViewNormal, "G-Buffer Normal", NormalFormat},
		{registry.TextureDepth, registry.ViewDepth, "Scene Depth", DepthFormat},
	}
	for _, t := range targets {
		if err := ensureTexture(device, reg, t.kind, t.view, renderTarget(t.label, params.Width, params.Height, t.format), nil); err != nil {
			return err
		}
	}

	if err := ensureSampler(device, reg, registry.SamplerGBuffer, linearSampler("G-Buffer Sampler")); err != nil {
		return err
	}

	quad := model.MarshalFullscreenQuad()
	return ensureBuffer(device, reg, registry.BufferDeferredVAO, wgpu.BufferDescriptor{
		Label: "Deferred Fullscreen Vertex Buffer",
		Size:  uint64(len(quad)),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
}

func debugTextureFactory() *factory {
	return &factory{
		concern: DebugTexture,
		label:   "Debug Texture",
		entries: []wgpu.BindGroupLayoutEntry{
			textureEntry(0, wgpu.TextureSampleTypeFloat, wgpu.TextureViewDimension2D),
			samplerEntry(1, wgpu.SamplerBindingTypeFiltering),
		},
		allocate: func(device gpu.Device, reg registry.Registry, _ Params) error {
			return ensureSampler(device, reg, registry.SamplerDebugTexture, linearSampler("Debug Texture Sampler"))
		},
		inputs: func(res Resources) []input {
			return []input{
				{binding: 0, name: NameDebugTexture, kind: inputTexture, texture: res.DebugTexture},
				{binding: 1, name: NameDebugSampler, kind: inputSampler, sampler: res.DebugSampler},
			}
		},
	}
}

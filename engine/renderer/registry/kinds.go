package registry

// BufferKind identifies a buffer the render core owns.
type BufferKind int

const (
	// BufferShadowUniform holds the light view-projection used by the shadow pass.
	BufferShadowUniform BufferKind = iota
	// BufferGlobalUniform holds the camera and global frame parameters.
	BufferGlobalUniform
	// BufferInstance holds per-instance model matrices.
	BufferInstance
	// BufferNormalMatrix holds per-instance normal matrices.
	BufferNormalMatrix
	// BufferLightList holds the packed point and spot light list.
	BufferLightList
	// BufferDeferredVAO holds the six full-screen vertices used by composite and debug draws.
	BufferDeferredVAO

	bufferKindCount
)

func (k BufferKind) String() string {
	switch k {
	case BufferShadowUniform:
		return "shadow_uniform"
	case BufferGlobalUniform:
		return "global_uniform"
	case BufferInstance:
		return "instance"
	case BufferNormalMatrix:
		return "normal_matrix"
	case BufferLightList:
		return "light_list"
	case BufferDeferredVAO:
		return "deferred_vao"
	default:
		return "unknown_buffer"
	}
}

// BufferKinds returns every BufferKind in declaration order.
func BufferKinds() []BufferKind {
	kinds := make([]BufferKind, 0, bufferKindCount)
	for k := BufferKind(0); k < bufferKindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// TextureKind identifies a texture the render core owns.
type TextureKind int

const (
	// TextureShadowDepth is the shadow map array. It is not sized from the surface.
	TextureShadowDepth TextureKind = iota
	// TextureAlbedo is the G-buffer albedo target.
	TextureAlbedo
	// TextureNormal is the G-buffer normal target.
	TextureNormal
	// TextureDepth is the scene depth target.
	TextureDepth

	textureKindCount
)

func (k TextureKind) String() string {
	switch k {
	case TextureShadowDepth:
		return "shadow_depth"
	case TextureAlbedo:
		return "albedo"
	case TextureNormal:
		return "normal"
	case TextureDepth:
		return "depth"
	default:
		return "unknown_texture"
	}
}

// SurfaceSized reports whether textures of this kind track the surface dimensions.
func (k TextureKind) SurfaceSized() bool {
	return k == TextureAlbedo || k == TextureNormal || k == TextureDepth
}

// TextureKinds returns every TextureKind in declaration order.
func TextureKinds() []TextureKind {
	kinds := make([]TextureKind, 0, textureKindCount)
	for k := TextureKind(0); k < textureKindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// TextureViewKind identifies a texture view the render core owns.
type TextureViewKind int

const (
	// ViewShadowDepth is the render attachment view of shadow map layer 0.
	ViewShadowDepth TextureViewKind = iota
	ViewAlbedo
	ViewNormal
	ViewDepth

	textureViewKindCount
)

func (k TextureViewKind) String() string {
	switch k {
	case ViewShadowDepth:
		return "shadow_depth_view"
	case ViewAlbedo:
		return "albedo_view"
	case ViewNormal:
		return "normal_view"
	case ViewDepth:
		return "depth_view"
	default:
		return "unknown_view"
	}
}

// SamplerKind identifies a sampler the render core owns.
type SamplerKind int

const (
	// SamplerShadow is the shadow comparison sampler.
	SamplerShadow SamplerKind = iota
	// SamplerGBuffer samples G-buffer targets in the composite pass.
	SamplerGBuffer
	// SamplerDebugTexture samples whichever texture the debug pass inspects.
	SamplerDebugTexture

	samplerKindCount
)

func (k SamplerKind) String() string {
	switch k {
	case SamplerShadow:
		return "shadow_sampler"
	case SamplerGBuffer:
		return "gbuffer_sampler"
	case SamplerDebugTexture:
		return "debug_texture_sampler"
	default:
		return "unknown_sampler"
	}
}

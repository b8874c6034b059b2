package pass

import (
	"github.com/Carmen-Shannon/horizon/engine/gpu"
	"github.com/Carmen-Shannon/horizon/engine/model"
	"github.com/Carmen-Shannon/horizon/engine/renderer/registry"
)

// Built-in debug texture names.
const (
	DebugAlbedo = "albedo"
	DebugNormal = "normal"
	// DebugNone disables the debug overlay.
	DebugNone = "none"
)

const (
	fullscreenVertices = model.FullscreenVertexCount
	// markerVertices is the vertex count of one light marker quad.
	markerVertices = 6
)

// DebugTextures lists the selectable texture names: the G-buffer targets followed by the ad-hoc
// textures of the registry in registration order.
func DebugTextures(r registry.Registry) []string {
	return append([]string{DebugAlbedo, DebugNormal}, r.NamedTextures()...)
}

// DebugTexture resolves a selectable name to the texture currently registered under it.
func DebugTexture(r registry.Registry, name string) (gpu.Texture, bool) {
	switch name {
	case DebugAlbedo:
		return r.Texture(registry.TextureAlbedo)
	case DebugNormal:
		return r.Texture(registry.TextureNormal)
	default:
		return r.NamedTexture(name)
	}
}

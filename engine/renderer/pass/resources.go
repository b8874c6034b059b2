// Package pass holds the systems that build a frame: the buffer upload, frame acquisition, the
// shadow, geometry, composite and debug render passes, and the final submit and present. Each
// system declares the world resources it touches so the scheduler keeps every system that writes
// the frame in registration order.
package pass

import (
	"fmt"

	"github.com/Carmen-Shannon/horizon/engine/camera"
	"github.com/Carmen-Shannon/horizon/engine/config"
	"github.com/Carmen-Shannon/horizon/engine/ecs"
	"github.com/Carmen-Shannon/horizon/engine/gpu"
	"github.com/Carmen-Shannon/horizon/engine/light"
	"github.com/Carmen-Shannon/horizon/engine/model"
	"github.com/Carmen-Shannon/horizon/engine/renderer/bind_group"
	"github.com/Carmen-Shannon/horizon/engine/renderer/bind_group_container"
	"github.com/Carmen-Shannon/horizon/engine/renderer/frame"
	"github.com/Carmen-Shannon/horizon/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/horizon/engine/renderer/registry"
)

// World resource names.
const (
	ResourceGraphics  ecs.ResourceID = "graphics"
	ResourceRegistry  ecs.ResourceID = "registry"
	ResourceBindings  ecs.ResourceID = "bindings"
	ResourcePipelines ecs.ResourceID = "pipelines"
	ResourceScene     ecs.ResourceID = "scene"
	ResourceSettings  ecs.ResourceID = "settings"
	ResourceDrawList  ecs.ResourceID = "draw_list"
	ResourceFrame     ecs.ResourceID = "frame"
)

// Bindings is the container of every binding concern.
type Bindings map[bind_group.Concern]bind_group_container.BindGroupContainer

// Pipelines is the compiled pipeline of every kind.
type Pipelines map[pipeline.Kind]pipeline.Pipeline

// Scene is what the passes draw.
type Scene struct {
	Camera camera.Camera
	Models []model.Model
	// Lights are the point and spot lights of the light list.
	Lights []light.Light
	// Sun is the directional light that casts the shadow map, nil for none.
	Sun light.Light
}

// Settings are the per-frame knobs of the passes.
type Settings struct {
	Config config.Config
	Width  uint32
	Height uint32
	// DebugTexture is the name of the texture shown in the debug overlay, empty for none.
	DebugTexture string
}

// Draw is one instanced mesh draw.
type Draw struct {
	Model         model.Model
	FirstInstance uint32
	Instances     uint32
}

// DrawList is what the upload system wrote for this frame.
type DrawList struct {
	Draws      []Draw
	LightCount uint32
	// ShadowCaster is true when a directional light drives the shadow map.
	ShadowCaster bool
}

func graphics(w *ecs.World) *gpu.Context {
	return ecs.MustResource[*gpu.Context](w, ResourceGraphics)
}

func reg(w *ecs.World) registry.Registry {
	return ecs.MustResource[registry.Registry](w, ResourceRegistry)
}

func settings(w *ecs.World) *Settings {
	return ecs.MustResource[*Settings](w, ResourceSettings)
}

func currentFrame(w *ecs.World) *frame.Context {
	return ecs.MustResource[*frame.Context](w, ResourceFrame)
}

// container returns the container of a concern. A missing container is a setup bug.
func container(w *ecs.World, c bind_group.Concern) bind_group_container.BindGroupContainer {
	b := ecs.MustResource[Bindings](w, ResourceBindings)
	bgc, ok := b[c]
	if !ok {
		panic(fmt.Errorf("%w: %s bind group container", registry.ErrMissingResource, c))
	}
	return bgc
}

// renderPipeline returns the compiled pipeline of a kind. A missing pipeline is a setup bug.
func renderPipeline(w *ecs.World, k pipeline.Kind) pipeline.Pipeline {
	p, ok := ecs.MustResource[Pipelines](w, ResourcePipelines)[k]
	if !ok {
		panic(fmt.Errorf("%w: %s pipeline", registry.ErrMissingResource, k))
	}
	return p
}

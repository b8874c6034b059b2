package pass

import (
	"fmt"

	"github.com/Carmen-Shannon/horizon/engine/camera"
	"github.com/Carmen-Shannon/horizon/engine/ecs"
	"github.com/Carmen-Shannon/horizon/engine/gpu"
	"github.com/Carmen-Shannon/horizon/engine/light"
	"github.com/Carmen-Shannon/horizon/engine/model"
	"github.com/Carmen-Shannon/horizon/engine/renderer/frame"
	"github.com/Carmen-Shannon/horizon/engine/renderer/registry"
	glm "github.com/go-gl/mathgl/mgl32"
)

// uploader writes the per-frame buffer contents: globals, shadow uniform, instance records,
// normal matrices and the light list.
type uploader struct {
	// quad is the full-screen vertex buffer last filled, so the quad is written once per buffer.
	quad gpu.Buffer
}

// Upload returns the system that fills the frame's buffers and publishes the DrawList. It runs
// after frame acquisition and writes nothing for a dropped frame.
func Upload() ecs.System {
	u := &uploader{}
	return ecs.System{
		Name: "upload",
		Access: ecs.Access{
			Reads:  []ecs.ResourceID{ResourceGraphics, ResourceRegistry, ResourceScene, ResourceSettings, ResourceFrame},
			Writes: []ecs.ResourceID{ResourceDrawList},
		},
		Run: u.run,
	}
}

func (u *uploader) run(w *ecs.World) error {
	if f, ok := ecs.Resource[*frame.Context](w, ResourceFrame); ok && f.Failed() {
		return nil
	}
	ctx := graphics(w)
	r := reg(w)
	scene := ecs.MustResource[*Scene](w, ResourceScene)
	st := settings(w)
	cfg := st.Config
	reversed := cfg.Depth.Reversed()

	list := &DrawList{}

	lightVP := glm.Ident4()
	params := camera.FrameParams{
		Width:      st.Width,
		Height:     st.Height,
		ShadowBias: cfg.Shadow.Bias,
	}
	if sun := scene.Sun; sun != nil && sun.Enabled() {
		lightVP = light.DirectionalLightVP(sun.Direction(), scene.Camera.Target(), cfg.Shadow.HalfExtent, cfg.Shadow.Near, cfg.Shadow.Far, reversed)
		params.SunEnabled = true
		params.SunDirection = sun.Direction()
		params.SunColor = sun.Color()
		params.SunIntensity = sun.Intensity()
		list.ShadowCaster = true
	}
	params.LightViewProj = lightVP

	globals := camera.Globals(scene.Camera, params)
	if err := ctx.Queue.WriteBuffer(r.MustBuffer(registry.BufferGlobalUniform), 0, globals.Marshal()); err != nil {
		return fmt.Errorf("write globals: %w", err)
	}
	shadow := light.GPUShadowUniform{LightViewProj: lightVP}
	if err := ctx.Queue.WriteBuffer(r.MustBuffer(registry.BufferShadowUniform), 0, shadow.Marshal()); err != nil {
		return fmt.Errorf("write shadow uniform: %w", err)
	}

	instances, normals := packInstances(scene.Models, cfg.MaxInstances, list)
	if len(instances) > 0 {
		if err := ctx.Queue.WriteBuffer(r.MustBuffer(registry.BufferInstance), 0, instances); err != nil {
			return fmt.Errorf("write instances: %w", err)
		}
		if err := ctx.Queue.WriteBuffer(r.MustBuffer(registry.BufferNormalMatrix), 0, normals); err != nil {
			return fmt.Errorf("write normal matrices: %w", err)
		}
	}

	lights, count := light.MarshalLightList(scene.Lights, glm.Vec3(cfg.Ambient), cfg.MaxLights)
	if err := ctx.Queue.WriteBuffer(r.MustBuffer(registry.BufferLightList), 0, lights); err != nil {
		return fmt.Errorf("write light list: %w", err)
	}
	list.LightCount = count

	if quad := r.MustBuffer(registry.BufferDeferredVAO); quad != u.quad {
		if err := ctx.Queue.WriteBuffer(quad, 0, model.MarshalFullscreenQuad()); err != nil {
			return fmt.Errorf("write fullscreen quad: %w", err)
		}
		u.quad = quad
	}

	w.Set(ResourceDrawList, list)
	return nil
}

// packInstances lays the instances of every model out back to back, up to capacity, and records
// where each model's run starts.
func packInstances(models []model.Model, capacity uint32, list *DrawList) ([]byte, []byte) {
	var instances, normals []byte
	next := uint32(0)
	for _, m := range models {
		insts := m.Instances()
		first := next
		for _, inst := range insts {
			if next >= capacity {
				break
			}
			gi, gn := inst.GPU()
			instances = append(instances, gi.Marshal()...)
			normals = append(normals, gn.Marshal()...)
			next++
		}
		if next > first {
			list.Draws = append(list.Draws, Draw{Model: m, FirstInstance: first, Instances: next - first})
		}
	}
	return instances, normals
}

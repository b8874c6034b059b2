package pass

import (
	"fmt"

	"github.com/Carmen-Shannon/horizon/engine/ecs"
	"github.com/Carmen-Shannon/horizon/engine/gpu"
	"github.com/Carmen-Shannon/horizon/engine/renderer/bind_group"
	"github.com/Carmen-Shannon/horizon/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/horizon/engine/renderer/registry"
	"github.com/cogentcore/webgpu/wgpu"
)

// reads of every render pass
var passReads = []ecs.ResourceID{
	ResourceGraphics, ResourceRegistry, ResourceBindings, ResourcePipelines, ResourceSettings, ResourceDrawList,
}

// BeginFrame returns the system that acquires the presentation target and opens the frame's
// command encoder. A failed acquisition is recorded in the frame and is not an error.
func BeginFrame() ecs.System {
	return ecs.System{
		Name: "begin_frame",
		Access: ecs.Access{
			Reads:  []ecs.ResourceID{ResourceGraphics},
			Writes: []ecs.ResourceID{ResourceFrame},
		},
		Run: func(w *ecs.World) error {
			ctx := graphics(w)
			f := currentFrame(w)
			if err := f.Acquire(ctx.Surface); err != nil {
				if f.Failed() {
					return nil
				}
				return err
			}
			if err := f.BeginEncoding(ctx.Device); err != nil && !f.Failed() {
				return err
			}
			return nil
		},
	}
}

// drawMeshes issues one indexed draw per entry of the draw list.
func drawMeshes(rp gpu.RenderPass, list *DrawList) {
	for _, d := range list.Draws {
		vb, ib := d.Model.VertexBuffer(), d.Model.IndexBuffer()
		if vb == nil || ib == nil {
			continue
		}
		rp.SetVertexBuffer(0, vb)
		rp.SetIndexBuffer(ib, wgpu.IndexFormatUint32)
		rp.DrawIndexed(d.Model.IndexCount(), d.Instances, d.FirstInstance)
	}
}

// Shadow returns the system that renders scene depth from the directional light into the shadow
// map. Without a shadow caster the map is only cleared.
func Shadow() ecs.System {
	return ecs.System{
		Name:   "shadow_pass",
		Access: ecs.Access{Reads: passReads, Writes: []ecs.ResourceID{ResourceFrame}},
		Run: func(w *ecs.World) error {
			f := currentFrame(w)
			if f.Failed() {
				return nil
			}
			st := settings(w)
			list := ecs.MustResource[*DrawList](w, ResourceDrawList)
			p := renderPipeline(w, pipeline.KindShadow)
			bgc := container(w, bind_group.Shadow)

			desc := &gpu.RenderPassDescriptor{
				Label: "Shadow Pass",
				DepthAttachment: &gpu.DepthAttachment{
					View:            reg(w).MustTextureView(registry.ViewShadowDepth),
					DepthLoadOp:     wgpu.LoadOpClear,
					DepthStoreOp:    wgpu.StoreOpStore,
					DepthClearValue: st.Config.Depth.ClearDepth(),
				},
			}
			return f.Pass(desc, func(rp gpu.RenderPass) {
				if !list.ShadowCaster {
					return
				}
				rp.SetPipeline(p.RenderPipeline())
				rp.SetBindGroup(0, bgc.BindGroup())
				drawMeshes(rp, list)
			})
		},
	}
}

// Geometry returns the system that renders the scene meshes into the G-buffer.
func Geometry() ecs.System {
	return ecs.System{
		Name:   "geometry_pass",
		Access: ecs.Access{Reads: passReads, Writes: []ecs.ResourceID{ResourceFrame}},
		Run: func(w *ecs.World) error {
			f := currentFrame(w)
			if f.Failed() {
				return nil
			}
			r := reg(w)
			st := settings(w)
			list := ecs.MustResource[*DrawList](w, ResourceDrawList)
			p := renderPipeline(w, pipeline.KindGeometry)
			bgc := container(w, bind_group.Uniform)

			target := func(kind registry.TextureViewKind) gpu.ColorAttachment {
				return gpu.ColorAttachment{
					View:    r.MustTextureView(kind),
					LoadOp:  wgpu.LoadOpClear,
					StoreOp: wgpu.StoreOpStore,
				}
			}
			desc := &gpu.RenderPassDescriptor{
				Label:            "Geometry Pass",
				ColorAttachments: []gpu.ColorAttachment{target(registry.ViewAlbedo), target(registry.ViewNormal)},
				DepthAttachment: &gpu.DepthAttachment{
					View:            r.MustTextureView(registry.ViewDepth),
					DepthLoadOp:     wgpu.LoadOpClear,
					DepthStoreOp:    wgpu.StoreOpStore,
					DepthClearValue: st.Config.Depth.ClearDepth(),
				},
			}
			return f.Pass(desc, func(rp gpu.RenderPass) {
				rp.SetPipeline(p.RenderPipeline())
				rp.SetBindGroup(0, bgc.BindGroup())
				drawMeshes(rp, list)
			})
		},
	}
}

// Composite returns the system that shades the G-buffer into the presentation target with a
// full-screen draw, then draws the light markers when they are enabled.
func Composite() ecs.System {
	return ecs.System{
		Name:   "composite_pass",
		Access: ecs.Access{Reads: passReads, Writes: []ecs.ResourceID{ResourceFrame}},
		Run: func(w *ecs.World) error {
			f := currentFrame(w)
			if f.Failed() {
				return nil
			}
			st := settings(w)
			list := ecs.MustResource[*DrawList](w, ResourceDrawList)
			forward := renderPipeline(w, pipeline.KindForward)
			deferred := container(w, bind_group.Deferred)
			uniform := container(w, bind_group.Uniform)
			lighting := container(w, bind_group.Lighting)
			quad := reg(w).MustBuffer(registry.BufferDeferredVAO)

			var markers pipeline.Pipeline
			if st.Config.Debug.LightMarkers && list.LightCount > 0 {
				markers = renderPipeline(w, pipeline.KindLight)
			}

			cc := st.Config.ClearColor
			desc := &gpu.RenderPassDescriptor{
				Label: "Composite Pass",
				ColorAttachments: []gpu.ColorAttachment{{
					View:       f.TargetView(),
					LoadOp:     wgpu.LoadOpClear,
					StoreOp:    wgpu.StoreOpStore,
					ClearValue: wgpu.Color{R: cc[0], G: cc[1], B: cc[2], A: cc[3]},
				}},
			}
			return f.Pass(desc, func(rp gpu.RenderPass) {
				rp.SetPipeline(forward.RenderPipeline())
				rp.SetBindGroup(0, deferred.BindGroup())
				rp.SetBindGroup(1, uniform.BindGroup())
				rp.SetBindGroup(2, lighting.BindGroup())
				rp.SetVertexBuffer(0, quad)
				rp.Draw(fullscreenVertices, 1)

				if markers != nil {
					rp.SetPipeline(markers.RenderPipeline())
					rp.SetBindGroup(0, uniform.BindGroup())
					rp.SetBindGroup(1, lighting.BindGroup())
					rp.Draw(markerVertices, list.LightCount)
				}
			})
		},
	}
}

// Debug returns the system that shows the selected texture in a corner of the presentation target.
// The debug texture container is rebound here whenever the selection, or the texture behind it,
// changed since the last frame.
func Debug() ecs.System {
	return ecs.System{
		Name: "debug_pass",
		Access: ecs.Access{
			Reads:  []ecs.ResourceID{ResourceGraphics, ResourceRegistry, ResourcePipelines, ResourceSettings},
			Writes: []ecs.ResourceID{ResourceFrame, ResourceBindings},
		},
		Run: func(w *ecs.World) error {
			f := currentFrame(w)
			if f.Failed() {
				return nil
			}
			st := settings(w)
			if st.DebugTexture == "" {
				return nil
			}
			r := reg(w)
			tex, ok := DebugTexture(r, st.DebugTexture)
			if !ok {
				return nil
			}

			bgc := container(w, bind_group.DebugTexture)
			res := bind_group.Resources{DebugTexture: tex, DebugSampler: r.MustSampler(registry.SamplerDebugTexture)}
			if _, err := bind_group.For(bind_group.DebugTexture).Refresh(graphics(w).Device, bgc, res); err != nil {
				return fmt.Errorf("rebind debug texture %q: %w", st.DebugTexture, err)
			}
			p := renderPipeline(w, pipeline.KindTexture)
			quad := r.MustBuffer(registry.BufferDeferredVAO)

			frac := st.Config.Debug.Viewport
			desc := &gpu.RenderPassDescriptor{
				Label: "Debug Texture Pass",
				ColorAttachments: []gpu.ColorAttachment{{
					View:    f.TargetView(),
					LoadOp:  wgpu.LoadOpLoad,
					StoreOp: wgpu.StoreOpStore,
				}},
			}
			return f.Pass(desc, func(rp gpu.RenderPass) {
				rp.SetViewport(0, 0, float32(st.Width)*frac, float32(st.Height)*frac, 0, 1)
				rp.SetPipeline(p.RenderPipeline())
				rp.SetBindGroup(0, bgc.BindGroup())
				rp.SetVertexBuffer(0, quad)
				rp.Draw(fullscreenVertices, 1)
			})
		},
	}
}

// EndFrame returns the system that submits the frame's commands and presents the target.
func EndFrame() ecs.System {
	return ecs.System{
		Name: "end_frame",
		Access: ecs.Access{
			Reads:  []ecs.ResourceID{ResourceGraphics},
			Writes: []ecs.ResourceID{ResourceFrame},
		},
		Run: func(w *ecs.World) error {
			ctx := graphics(w)
			f := currentFrame(w)
			if err := f.Submit(ctx.Queue); err != nil {
				if f.Failed() {
					return nil
				}
				return err
			}
			return f.Present()
		},
	}
}

// Systems returns every frame system in execution order.
func Systems() []ecs.System {
	return []ecs.System{BeginFrame(), Upload(), Shadow(), Geometry(), Composite(), Debug(), EndFrame()}
}

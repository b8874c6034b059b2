package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/horizon/engine/gpu"
	"github.com/Carmen-Shannon/horizon/engine/renderer/bind_group"
	"github.com/Carmen-Shannon/horizon/engine/renderer/pass"
	"github.com/Carmen-Shannon/horizon/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
	log "github.com/sirupsen/logrus"
)

func (r *renderer) params() bind_group.Params {
	return bind_group.Params{
		Width:         r.settings.Width,
		Height:        r.settings.Height,
		ShadowMapSize: r.cfg.Shadow.MapSize,
		ShadowLayers:  r.cfg.Shadow.Layers,
		MaxInstances:  r.cfg.MaxInstances,
		MaxLights:     r.cfg.MaxLights,
		ReversedZ:     r.cfg.Depth.Reversed(),
	}
}

// allocate runs every factory's allocation against the current size. Handles that still match are
// kept.
func (r *renderer) allocate() error {
	p := r.params()
	for _, c := range bind_group.Concerns() {
		if err := bind_group.For(c).AllocateResources(r.ctx.Device, r.reg, p); err != nil {
			return fmt.Errorf("allocate %s resources: %w", c, err)
		}
	}
	return nil
}

// resizeTargets reallocates the size-dependent resources for width x height and rebinds the
// containers that reference them. The new size is kept only when both steps succeed.
func (r *renderer) resizeTargets(width, height uint32) error {
	prevWidth, prevHeight := r.settings.Width, r.settings.Height
	r.settings.Width, r.settings.Height = width, height
	if err := r.allocate(); err != nil {
		r.settings.Width, r.settings.Height = prevWidth, prevHeight
		return err
	}
	if err := r.refreshContainers(); err != nil {
		r.settings.Width, r.settings.Height = prevWidth, prevHeight
		return err
	}
	return nil
}

func (r *renderer) refreshContainers() error {
	for _, c := range bind_group.Concerns() {
		if _, err := bind_group.For(c).Refresh(r.ctx.Device, r.bindings[c], r.resources(c)); err != nil {
			return fmt.Errorf("refresh %s container: %w", c, err)
		}
	}
	return nil
}

// restoreSize puts the surface and every size-dependent resource back to width x height after a
// failed resize. Targets already replaced at the new size are recreated and rebound.
func (r *renderer) restoreSize(width, height uint32) {
	if err := r.ctx.Surface.Configure(width, height, r.cfg.PresentMode.WGPU()); err != nil {
		log.WithError(err).Error("surface restore failed")
	}
	if err := r.resizeTargets(width, height); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"width":  width,
			"height": height,
		}).Error("size-dependent resources not restored")
	}
}

// resources returns what the container of a concern should bind now. The debug texture container
// binds the selected texture, or the albedo target while nothing is selected.
func (r *renderer) resources(c bind_group.Concern) bind_group.Resources {
	res := bind_group.For(c).Resources(r.reg)
	if c == bind_group.DebugTexture {
		tex, ok := pass.DebugTexture(r.reg, r.settings.DebugTexture)
		if !ok {
			tex, _ = pass.DebugTexture(r.reg, pass.DebugAlbedo)
		}
		res.DebugTexture = tex
	}
	return res
}

// buildContainers creates the layout and container of every concern.
func (r *renderer) buildContainers() error {
	for _, c := range bind_group.Concerns() {
		f := bind_group.For(c)
		layout, err := bind_group.CreateLayout(r.ctx.Device, f)
		if err != nil {
			return err
		}
		bgc, err := f.BuildContainer(r.ctx.Device, layout, r.resources(c))
		if err != nil {
			layout.Release()
			return fmt.Errorf("build %s container: %w", c, err)
		}
		r.bindings[c] = bgc
	}
	return nil
}

func (r *renderer) pipelineOptions(kind pipeline.Kind) []pipeline.PipelineBuilderOption {
	opts := []pipeline.PipelineBuilderOption{pipeline.WithReversedZ(r.cfg.Depth.Reversed())}
	if kind == pipeline.KindShadow {
		opts = append(opts, pipeline.WithDepthBias(r.cfg.Shadow.DepthBias, r.cfg.Shadow.DepthBiasSlope))
	}
	return opts
}

// rebuildPipelines builds every pipeline against the container layouts. The old set is released
// only once the whole new set is built.
func (r *renderer) rebuildPipelines(format wgpu.TextureFormat) error {
	built := make(pass.Pipelines, len(pipeline.Kinds()))
	for _, k := range pipeline.Kinds() {
		f := pipeline.For(k)
		concerns := f.Concerns()
		layouts := make([]gpu.BindGroupLayout, len(concerns))
		for i, c := range concerns {
			bgc, ok := r.bindings[c]
			if !ok {
				releasePipelines(built)
				return fmt.Errorf("%s pipeline: no %s container: %w", k, c, pipeline.ErrMalformedLayout)
			}
			layouts[i] = bgc.Layout()
		}

		p, err := f.Build(r.ctx.Device, layouts, format, r.pipelineOptions(k)...)
		if err != nil {
			releasePipelines(built)
			log.WithError(err).WithField("pipeline", k).Error("pipeline build failed")
			return err
		}
		built[k] = p
	}

	releasePipelines(r.pipelines)
	r.pipelines = built
	r.surfaceFormat = format
	r.world.Set(pass.ResourcePipelines, built)
	log.WithFields(log.Fields{
		"pipelines": len(built),
		"format":    r.surfaceFormat,
	}).Info("pipelines built")
	return nil
}

func releasePipelines(ps pass.Pipelines) {
	for _, p := range ps {
		p.Release()
	}
}

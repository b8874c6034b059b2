package bind_group

import (
	"fmt"

	"github.com/Carmen-Shannon/horizon/engine/gpu"
	"github.com/Carmen-Shannon/horizon/engine/renderer/registry"
	"github.com/cogentcore/webgpu/wgpu"
	log "github.com/sirupsen/logrus"
)

// ensureBuffer installs a buffer matching desc under kind unless one is already there.
func ensureBuffer(device gpu.Device, reg registry.Registry, kind registry.BufferKind, desc wgpu.BufferDescriptor) error {
	build := func() (gpu.Buffer, error) { return device.CreateBuffer(&desc) }

	cur, ok := reg.Buffer(kind)
	switch {
	case !ok:
		if _, err := reg.BufferOrBuild(kind, build); err != nil {
			return err
		}
	case cur.Size() == desc.Size && cur.Usage() == desc.Usage:
		return nil
	default:
		buf, err := build()
		if err != nil {
			return fmt.Errorf("buffer %s: %w", kind, err)
		}
		reg.SetBuffer(kind, buf)
	}

	log.WithFields(log.Fields{
		"kind": kind,
		"size": desc.Size,
	}).Debug("buffer allocated")
	return nil
}

func textureMatches(t gpu.Texture, desc *wgpu.TextureDescriptor) bool {
	return t.Width() == desc.Size.Width &&
		t.Height() == desc.Size.Height &&
		t.Layers() == desc.Size.DepthOrArrayLayers &&
		t.Format() == desc.Format &&
		t.Usage() == desc.Usage
}

// ensureTexture installs a texture matching desc under kind, with its view under viewKind.
// The replacement and its view are created before anything is released, so a failure leaves
// the registry as it was.
func ensureTexture(device gpu.Device, reg registry.Registry, kind registry.TextureKind, viewKind registry.TextureViewKind, desc wgpu.TextureDescriptor, viewDesc *wgpu.TextureViewDescriptor) error {
	cur, ok := reg.Texture(kind)
	if ok && textureMatches(cur, &desc) {
		_, err := reg.TextureViewOrBuild(viewKind, func() (gpu.TextureView, error) { return cur.CreateView(viewDesc) })
		return err
	}

	tex, err := device.CreateTexture(&desc)
	if err != nil {
		return fmt.Errorf("texture %s: %w", kind, err)
	}
	view, err := tex.CreateView(viewDesc)
	if err != nil {
		tex.Release()
		return fmt.Errorf("view %s: %w", viewKind, err)
	}

	// the old view goes before the texture it was created from
	reg.SetTextureView(viewKind, nil)
	reg.SetTexture(kind, tex)
	reg.SetTextureView(viewKind, view)

	log.WithFields(log.Fields{
		"kind":   kind,
		"width":  desc.Size.Width,
		"height": desc.Size.Height,
		"layers": desc.Size.DepthOrArrayLayers,
	}).Debug("texture allocated")
	return nil
}

// ensureSampler installs a sampler under kind unless one with the same label is already there.
// Labels encode every setting that may change between calls.
func ensureSampler(device gpu.Device, reg registry.Registry, kind registry.SamplerKind, desc wgpu.SamplerDescriptor) error {
	build := func() (gpu.Sampler, error) { return device.CreateSampler(&desc) }

	cur, ok := reg.Sampler(kind)
	switch {
	case !ok:
		if _, err := reg.SamplerOrBuild(kind, build); err != nil {
			return err
		}
	case cur.Label() == desc.Label:
		return nil
	default:
		s, err := build()
		if err != nil {
			return fmt.Errorf("sampler %s: %w", kind, err)
		}
		reg.SetSampler(kind, s)
	}

	log.WithField("kind", kind).Debug("sampler allocated")
	return nil
}

func renderTarget(label string, width, height uint32, format wgpu.TextureFormat) wgpu.TextureDescriptor {
	return wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	}
}

func linearSampler(label string) wgpu.SamplerDescriptor {
	return wgpu.SamplerDescriptor{
		Label:         label,
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMaxClamp:   32.0,
		MaxAnisotropy: 1,
	}
}

package frame

import (
	"testing"

	"github.com/Carmen-Shannon/horizon/engine/gpu"
	"github.com/Carmen-Shannon/horizon/engine/gpu/gputest"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func configured(t *testing.T) (*gpu.Context, *gputest.Device, *gputest.Queue, *gputest.Surface) {
	t.Helper()
	ctx, dev, q, s := gputest.NewContext()
	require.NoError(t, s.Configure(800, 600, wgpu.PresentModeFifo))
	return ctx, dev, q, s
}

func clearPass(view gpu.TextureView) *gpu.RenderPassDescriptor {
	return &gpu.RenderPassDescriptor{
		Label: "clear",
		ColorAttachments: []gpu.ColorAttachment{{
			View:    view,
			LoadOp:  wgpu.LoadOpClear,
			StoreOp: wgpu.StoreOpStore,
		}},
	}
}

func TestFullLifecycle(t *testing.T) {
	ctx, dev, q, s := configured(t)
	f := New("frame")

	require.NoError(t, f.Acquire(ctx.Surface))
	assert.Equal(t, StateTargetAcquired, f.State())
	require.NoError(t, f.BeginEncoding(ctx.Device))
	assert.Equal(t, StateEncoding, f.State())

	require.NoError(t, f.Pass(clearPass(f.TargetView()), func(p gpu.RenderPass) {
		p.Draw(3, 1)
	}))
	require.NoError(t, f.Pass(clearPass(f.TargetView()), func(p gpu.RenderPass) {}))
	assert.Equal(t, 2, f.Passes())

	require.NoError(t, f.Submit(ctx.Queue))
	assert.Equal(t, StateSubmitted, f.State())
	require.NoError(t, f.Present())

	out := f.Close()
	assert.True(t, out.Presented())
	assert.Equal(t, "presented", out.String())
	assert.Len(t, q.Submitted(), 1)
	assert.Equal(t, 1, s.Presented)
	assert.Zero(t, dev.LiveCount(), dev.Live())
}

func TestAcquireFailureAbortsFrame(t *testing.T) {
	ctx, dev, q, s := configured(t)
	s.FailNextAcquire(gpu.SurfaceErrorOutdated)
	f := New("frame")

	err := f.Acquire(ctx.Surface)
	require.ErrorIs(t, err, gpu.ErrSurfaceAcquire)
	assert.True(t, f.Failed())
	assert.Equal(t, StateAborted, f.State())

	// every later step is skipped
	called := false
	assert.NoError(t, f.Pass(clearPass(nil), func(gpu.RenderPass) { called = true }))
	assert.NoError(t, f.Submit(ctx.Queue))
	assert.NoError(t, f.Present())
	assert.False(t, called)

	out := f.Close()
	assert.Equal(t, StatusAborted, out.Status)
	assert.Equal(t, ReasonSurfaceError, out.Reason)
	var serr *gpu.SurfaceError
	require.ErrorAs(t, out.Err, &serr)
	assert.Equal(t, gpu.SurfaceErrorOutdated, serr.Kind)

	assert.Empty(t, q.Submitted())
	assert.Empty(t, dev.Encoders())
	assert.Zero(t, s.Presented)
}

func TestInvalidTransitions(t *testing.T) {
	ctx, _, _, _ := configured(t)
	f := New("frame")

	assert.ErrorIs(t, f.BeginEncoding(ctx.Device), ErrInvalidTransition)
	assert.ErrorIs(t, f.Submit(ctx.Queue), ErrInvalidTransition)
	assert.ErrorIs(t, f.Present(), ErrInvalidTransition)
	assert.ErrorIs(t, f.Pass(clearPass(nil), func(gpu.RenderPass) {}), ErrInvalidTransition)

	require.NoError(t, f.Acquire(ctx.Surface))
	assert.ErrorIs(t, f.Acquire(ctx.Surface), ErrInvalidTransition)
	assert.ErrorIs(t, f.Present(), ErrInvalidTransition)
}

func TestCloseBeforePresentReleasesTarget(t *testing.T) {
	ctx, dev, q, s := configured(t)
	f := New("frame")
	require.NoError(t, f.Acquire(ctx.Surface))
	require.NoError(t, f.BeginEncoding(ctx.Device))

	out := f.Close()
	assert.Equal(t, StatusAborted, out.Status)
	assert.Equal(t, ReasonIncomplete, out.Reason)
	assert.Empty(t, q.Submitted())
	assert.Zero(t, s.Presented)
	assert.Zero(t, dev.LiveCount(), dev.Live())

	// the next frame starts clean
	next := New("frame")
	require.NoError(t, next.Acquire(ctx.Surface))
	next.Close()
}

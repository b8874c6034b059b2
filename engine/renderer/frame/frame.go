// Package frame holds the per-frame orchestration state: the acquired presentation target, the
// single command encoder shared by the passes of the frame and the result flag every pass checks
// before recording.
package frame

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/horizon/engine/gpu"
	log "github.com/sirupsen/logrus"
)

// ErrInvalidTransition is returned when a Context operation is called in a state that does not
// allow it.
var ErrInvalidTransition = errors.New("invalid frame state transition")

// State is the position of a frame in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateTargetAcquired
	StateEncoding
	StateSubmitted
	StatePresented
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTargetAcquired:
		return "target_acquired"
	case StateEncoding:
		return "encoding"
	case StateSubmitted:
		return "submitted"
	case StatePresented:
		return "presented"
	case StateAborted:
		return "aborted"
	default:
		return "unknown_state"
	}
}

// Status is the terminal result of a frame.
type Status int

const (
	StatusPresented Status = iota
	StatusAborted
)

func (s Status) String() string {
	if s == StatusPresented {
		return "presented"
	}
	return "aborted"
}

// Reason classifies why a frame was aborted.
type Reason int

const (
	ReasonNone Reason = iota
	// ReasonSurfaceError means no presentation image could be acquired.
	ReasonSurfaceError
	// ReasonEncoderError means the backend refused to open or finish the command encoder.
	ReasonEncoderError
	// ReasonIncomplete means the frame was closed before it was presented.
	ReasonIncomplete
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonSurfaceError:
		return "surface_error"
	case ReasonEncoderError:
		return "encoder_error"
	case ReasonIncomplete:
		return "incomplete"
	default:
		return "unknown_reason"
	}
}

// Outcome is what Render reports for one frame.
type Outcome struct {
	Status Status
	Reason Reason
	// Err is the failure recorded in the result flag, nil for presented frames.
	Err error
}

// Presented reports whether the frame reached the screen.
func (o Outcome) Presented() bool {
	return o.Status == StatusPresented
}

func (o Outcome) String() string {
	if o.Status == StatusPresented {
		return "presented"
	}
	return fmt.Sprintf("aborted(%s)", o.Reason)
}

// Context is the state of one frame. It is created by the orchestrator at the start of the frame,
// handed to each pass in turn and closed at the end. Nothing may keep a Context or its encoder
// after Close.
type Context struct {
	label string
	state State

	target  gpu.SurfaceTexture
	view    gpu.TextureView
	encoder gpu.CommandEncoder

	passes int

	// result flag
	err    error
	reason Reason
}

// New creates a frame in the Idle state.
//
// Parameters:
//   - label: the label given to the frame's command encoder
//
// Returns:
//   - *Context: the frame
func New(label string) *Context {
	return &Context{label: label, state: StateIdle}
}

// State returns the current lifecycle state.
func (c *Context) State() State {
	return c.state
}

// Failed reports whether the result flag is set. Passes become no-ops once it is.
func (c *Context) Failed() bool {
	return c.err != nil
}

// Result returns the failure recorded in the result flag and its reason.
func (c *Context) Result() (Reason, error) {
	return c.reason, c.err
}

// TargetView returns the view of the acquired presentation image, nil before Acquire succeeds.
func (c *Context) TargetView() gpu.TextureView {
	return c.view
}

// Passes returns the number of render pass scopes recorded so far.
func (c *Context) Passes() int {
	return c.passes
}

func (c *Context) transition(from []State, to State) error {
	for _, s := range from {
		if c.state == s {
			c.state = to
			return nil
		}
	}
	return fmt.Errorf("frame %q: %s -> %s: %w", c.label, c.state, to, ErrInvalidTransition)
}

func (c *Context) abort(reason Reason, err error) {
	c.state = StateAborted
	c.reason = reason
	c.err = err
}

// Acquire takes the next presentation image from the surface. On failure the frame is aborted with
// ReasonSurfaceError and the returned error is the *gpu.SurfaceError.
//
// Parameters:
//   - surface: the presentation surface
//
// Returns:
//   - error: the acquire failure, or ErrInvalidTransition outside the Idle state
func (c *Context) Acquire(surface gpu.Surface) error {
	if c.state != StateIdle {
		return fmt.Errorf("frame %q: acquire in %s: %w", c.label, c.state, ErrInvalidTransition)
	}
	target, err := surface.Acquire()
	if err != nil {
		serr := gpu.NewSurfaceError(err)
		c.abort(ReasonSurfaceError, serr)
		return serr
	}
	view, err := target.CreateView()
	if err != nil {
		target.Release()
		serr := gpu.NewSurfaceError(err)
		c.abort(ReasonSurfaceError, serr)
		return serr
	}
	c.target = target
	c.view = view
	return c.transition([]State{StateIdle}, StateTargetAcquired)
}

// BeginEncoding opens the command encoder shared by every pass of the frame.
//
// Parameters:
//   - device: the device that creates the encoder
//
// Returns:
//   - error: the backend failure, or ErrInvalidTransition outside the TargetAcquired state
func (c *Context) BeginEncoding(device gpu.Device) error {
	if c.state != StateTargetAcquired {
		return fmt.Errorf("frame %q: begin encoding in %s: %w", c.label, c.state, ErrInvalidTransition)
	}
	enc, err := device.CreateCommandEncoder(c.label + " Command Encoder")
	if err != nil {
		c.abort(ReasonEncoderError, err)
		return err
	}
	c.encoder = enc
	return c.transition([]State{StateTargetAcquired}, StateEncoding)
}

// Pass records one render pass scope. The scope is opened on the shared encoder, handed to fn and
// ended before Pass returns, so scopes never overlap. When the result flag is set the call does
// nothing.
//
// Parameters:
//   - desc: the attachments of the pass
//   - fn: records the commands of the pass
//
// Returns:
//   - error: ErrInvalidTransition outside the Encoding state, or the error of ending the scope
func (c *Context) Pass(desc *gpu.RenderPassDescriptor, fn func(pass gpu.RenderPass)) error {
	if c.Failed() {
		return nil
	}
	if c.state != StateEncoding {
		return fmt.Errorf("frame %q: pass %q in %s: %w", c.label, desc.Label, c.state, ErrInvalidTransition)
	}
	rp := c.encoder.BeginRenderPass(desc)
	fn(rp)
	if err := rp.End(); err != nil {
		return fmt.Errorf("frame %q: end pass %q: %w", c.label, desc.Label, err)
	}
	c.passes++
	return nil
}

// Submit finishes the encoder and hands the command buffer to the queue. It runs at most once per
// frame and does nothing when the result flag is set.
//
// Parameters:
//   - queue: the device queue
//
// Returns:
//   - error: ErrInvalidTransition outside the Encoding state, or the backend failure
func (c *Context) Submit(queue gpu.Queue) error {
	if c.Failed() {
		return nil
	}
	if c.state != StateEncoding {
		return fmt.Errorf("frame %q: submit in %s: %w", c.label, c.state, ErrInvalidTransition)
	}
	cb, err := c.encoder.Finish()
	if err != nil {
		c.abort(ReasonEncoderError, err)
		return err
	}
	queue.Submit(cb)
	cb.Release()
	return c.transition([]State{StateEncoding}, StateSubmitted)
}

// Present hands the acquired image to the presentation engine. It does nothing when the result
// flag is set.
//
// Returns:
//   - error: ErrInvalidTransition outside the Submitted state
func (c *Context) Present() error {
	if c.Failed() {
		return nil
	}
	if err := c.transition([]State{StateSubmitted}, StatePresented); err != nil {
		return err
	}
	c.releaseView()
	c.target.Present()
	c.target = nil
	return nil
}

// Close ends the frame, releases whatever the frame still holds and reports the outcome. A frame
// closed before it was presented is reported as aborted.
//
// Returns:
//   - Outcome: the frame outcome
func (c *Context) Close() Outcome {
	if c.state != StatePresented && c.state != StateAborted {
		c.abort(ReasonIncomplete, fmt.Errorf("frame %q: closed in %s", c.label, c.state))
	}
	c.releaseView()
	if c.target != nil {
		c.target.Release()
		c.target = nil
	}
	if c.encoder != nil {
		c.encoder.Release()
		c.encoder = nil
	}

	if c.state == StatePresented {
		return Outcome{Status: StatusPresented}
	}
	log.WithFields(log.Fields{
		"frame":  c.label,
		"reason": c.reason,
		"error":  c.err,
	}).Warn("frame dropped")
	return Outcome{Status: StatusAborted, Reason: c.reason, Err: c.err}
}

func (c *Context) releaseView() {
	if c.view != nil {
		c.view.Release()
		c.view = nil
	}
}

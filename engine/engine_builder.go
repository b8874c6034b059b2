package engine

import (
	"time"

	"github.com/Carmen-Shannon/horizon/engine/config"
	"github.com/Carmen-Shannon/horizon/engine/gpu"
	"github.com/Carmen-Shannon/horizon/engine/renderer"
	"github.com/Carmen-Shannon/horizon/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// An option that can fail, such as loading a configuration file, aborts NewEngine with its error.
type EngineBuilderOption func(*engine) error

// WithConfigFile loads the renderer configuration from a TOML file.
//
// Parameters:
//   - path: the configuration file path
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithConfigFile(path string) EngineBuilderOption {
	return func(e *engine) error {
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		e.cfg = cfg
		return nil
	}
}

// WithConfig sets the renderer configuration.
func WithConfig(cfg config.Config) EngineBuilderOption {
	return func(e *engine) error {
		e.cfg = cfg
		return nil
	}
}

// WithProfiling enables or disables the frame profiler.
//
// Parameters:
//   - enabled: if true, frame statistics are logged once per second
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) error {
		e.profilingEnabled = enabled
		return nil
	}
}

// WithTickRate sets the engine tick rate in ticks per second.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) error {
		if fps <= 0 {
			fps = 60.0
		}
		e.engineTickRate = time.Duration(float64(time.Second) / fps)
		return nil
	}
}

// WithWindow sets a pre-configured window rather than letting the engine create one.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) error {
		e.window = w
		return nil
	}
}

// WithWindowOptions sets the options of the window the engine creates.
func WithWindowOptions(options ...window.WindowBuilderOption) EngineBuilderOption {
	return func(e *engine) error {
		e.windowOptions = append(e.windowOptions, options...)
		return nil
	}
}

// WithContextOptions sets the options of the WebGPU context the engine creates.
func WithContextOptions(options ...gpu.ContextOption) EngineBuilderOption {
	return func(e *engine) error {
		e.contextOpts = append(e.contextOpts, options...)
		return nil
	}
}

// WithRendererOptions appends renderer options. They are applied after the configuration, so they
// override it.
func WithRendererOptions(options ...renderer.RendererBuilderOption) EngineBuilderOption {
	return func(e *engine) error {
		e.rendererOpts = append(e.rendererOpts, options...)
		return nil
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) error {
		if fps <= 0 {
			e.renderFrameLimit = 0
			return nil
		}
		e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
		return nil
	}
}

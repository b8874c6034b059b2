package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/horizon/engine/config"
	"github.com/Carmen-Shannon/horizon/engine/gpu"
	"github.com/Carmen-Shannon/horizon/engine/profiler"
	"github.com/Carmen-Shannon/horizon/engine/renderer"
	"github.com/Carmen-Shannon/horizon/engine/window"
	log "github.com/sirupsen/logrus"
)

// engine implements the Engine interface.
// Coordinates the tick, render and window threads.
type engine struct {
	mu *sync.Mutex

	tickRateChannel chan time.Duration

	running bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once

	cfg           config.Config
	windowOptions []window.WindowBuilderOption
	rendererOpts  []renderer.RendererBuilderOption
	contextOpts   []gpu.ContextOption

	window   window.Window
	ctx      *gpu.Context
	renderer renderer.Renderer

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate   time.Duration
	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped

	tickCallback func(deltaTime float32)
	keyCallback  func(key window.Key)

	// debugIndex is the position in the renderer's debug texture list the Tab key cycles through
	debugIndex int
}

// Engine owns the window, the graphics context and the renderer, and drives them: a fixed-rate
// tick goroutine for scene updates and a render goroutine that builds one frame per iteration,
// while the calling goroutine pumps window events.
type Engine interface {
	// Window returns the window the surface was created from.
	Window() window.Window

	// Renderer returns the renderer. Scene setup (meshes, lights, camera, debug textures) goes
	// through it.
	Renderer() renderer.Renderer

	// Profiler returns the frame profiler, nil unless profiling was enabled.
	Profiler() *profiler.Profiler

	// SetTickRate sets the engine tick rate in ticks per second.
	// If the engine is running, the change takes effect immediately.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick.
	// Use this for scene updates: instance transforms, light placement, camera movement.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetKeyCallback registers the function called for key presses the engine does not handle
	// itself. Tab cycles the debug texture and F1 hides it.
	SetKeyCallback(callback func(key window.Key))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Run starts the tick and render goroutines and pumps window events until the window is
	// closed or Quit is called. Everything the engine created is released before Run returns.
	// Must be called from the goroutine that created the engine.
	Run()

	// Quit signals all engine goroutines to stop.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates the window (unless one was supplied), the WebGPU context for its surface and
// the renderer sized to its framebuffer.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the engine, ready to Run
//   - error: a window, context or renderer creation failure
func NewEngine(options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		mu:              &sync.Mutex{},
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		cfg:             config.Default(),
		engineTickRate:  time.Second / 60,
	}
	for _, opt := range options {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	if e.window == nil {
		w, err := window.NewWindow(e.windowOptions...)
		if err != nil {
			return nil, err
		}
		e.window = w
	}

	ctx, err := gpu.NewWGPUContext(e.window.SurfaceDescriptor(), e.contextOpts...)
	if err != nil {
		_ = e.window.Close()
		return nil, fmt.Errorf("create graphics context: %w", err)
	}
	e.ctx = ctx

	opts := []renderer.RendererBuilderOption{renderer.WithConfig(e.cfg)}
	if e.profilingEnabled {
		e.profiler = profiler.NewProfiler()
		opts = append(opts, renderer.WithProfiler(e.profiler))
	}
	width, height := e.window.Size()
	r, err := renderer.NewRenderer(ctx, width, height, append(opts, e.rendererOpts...)...)
	if err != nil {
		ctx.Release()
		_ = e.window.Close()
		return nil, err
	}
	e.renderer = r

	e.window.SetResizeCallback(e.handleResize)
	e.window.SetKeyDownCallback(e.handleKey)
	e.window.SetUpdateCallback(e.handleUpdate)
	return e, nil
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Profiler() *profiler.Profiler {
	return e.profiler
}

// handleResize forwards framebuffer size changes to the renderer. A minimized window reports a
// zero size, which is skipped until the window is restored.
func (e *engine) handleResize(width, height uint32) {
	if width == 0 || height == 0 {
		return
	}
	if err := e.renderer.Resize(width, height); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"width":  width,
			"height": height,
		}).Error("resize failed")
	}
}

func (e *engine) handleKey(key window.Key) {
	switch key {
	case window.KeyTab:
		e.debugIndex++
		name := e.renderer.SelectDebugTextureIndex(e.debugIndex - 1)
		log.WithField("texture", name).Info("debug texture selected")
		return
	case window.KeyF1:
		_ = e.renderer.SelectDebugTexture("none")
		e.debugIndex = 0
		return
	}

	e.mu.Lock()
	cb := e.keyCallback
	e.mu.Unlock()
	if cb != nil {
		cb(key)
	}
}

// handleUpdate runs on the window goroutine once per event poll and ends the event loop after Quit.
func (e *engine) handleUpdate() {
	select {
	case <-e.quitChannel:
		e.window.RequestClose()
	default:
	}
}

func (e *engine) Run() {
	e.mu.Lock()
	e.running = true
	e.mu.Unlock()

	e.wg.Add(2)
	go e.handleEngine()
	go e.handleRender()

	e.window.ProcessMessages()

	e.signalQuit()
	e.wg.Wait()

	e.renderer.Release()
	e.ctx.Release()
	if err := e.window.Close(); err != nil {
		log.WithError(err).Warn("window close failed")
	}
	log.Info("engine stopped")
}

func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
		close(e.quitChannel)
	})
}

// handleEngine runs the fixed-rate tick loop and listens for rate changes on tickRateChannel.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	e.mu.Lock()
	ticker := time.NewTicker(e.engineTickRate)
	e.mu.Unlock()
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			e.mu.Lock()
			cb := e.tickCallback
			e.mu.Unlock()
			if cb != nil {
				cb(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.mu.Lock()
			e.engineTickRate = newRate
			e.mu.Unlock()
		}
	}
}

// handleRender builds frames until quit. Dropped frames are reported by the renderer and are
// not fatal. A panic, which only a missing resource or a broken invariant raises, stops the engine.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("render goroutine recovered from panic")
			e.signalQuit()
		}
	}()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
		}

		start := time.Now()
		e.renderer.Render()

		e.mu.Lock()
		limit := e.renderFrameLimit
		e.mu.Unlock()
		if limit > 0 {
			if remaining := limit - time.Since(start); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
}

func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	e.mu.Lock()
	running := e.running
	if !running {
		e.engineTickRate = newRate
	}
	e.mu.Unlock()
	if !running {
		return
	}

	// replace a pending update rather than block
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		e.tickRateChannel <- newRate
	}
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tickCallback = callback
}

func (e *engine) SetKeyCallback(callback func(key window.Key)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.keyCallback = callback
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}

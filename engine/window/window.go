package window

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
)

// Window is the surface provider of the render core: it owns the native window the presentation
// surface is created from and reports framebuffer size changes and key presses.
type Window interface {
	// SetUpdateCallback sets the function called each message loop iteration.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the framebuffer size changes. A minimized
	// window reports a zero dimension, which the callback should skip.
	//
	// Parameters:
	//   - callback: function receiving the new framebuffer width and height in pixels
	SetResizeCallback(callback func(width, height uint32))

	// SetKeyDownCallback sets the callback for key press and repeat events.
	//
	// Parameters:
	//   - callback: function receiving the key
	SetKeyDownCallback(callback func(key Key))

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for creating a WebGPU surface.
	// The descriptor is platform-appropriate (Windows HWND, X11 Xlib, Wayland, macOS Metal, etc.)
	// and is created by the wgpuglfw bridge from the underlying GLFW window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform-specific surface descriptor, or nil if the window is closed
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning returns true if the window is still active.
	IsRunning() bool

	// RequestClose ends ProcessMessages after the current iteration. The window stays valid until
	// Close.
	RequestClose()

	// Close closes the window and releases platform resources.
	//
	// Returns:
	//   - error: error if the window was already closed
	Close() error

	// ProcessMessages runs the window message loop.
	// Blocks until the window is closed. Calls the update callback each iteration.
	ProcessMessages()

	// Size returns the current framebuffer size in pixels.
	//
	// Returns:
	//   - uint32: width in pixels
	//   - uint32: height in pixels
	Size() (uint32, uint32)
}

// Key is a keyboard key as reported by GLFW.
type Key int

// Keys the render loop reacts to.
const (
	KeyTab    Key = 258
	KeyEscape Key = 256
	KeyF1     Key = 290
	KeyF2     Key = 291
)

// engineWindow is the implementation of the Window interface.
type engineWindow struct {
	title string

	// width and height are the framebuffer size, which differs from the requested window size
	// on high-DPI displays
	width  uint32
	height uint32

	minWidth  int
	minHeight int

	// native is nil once the window is closed
	native *glfwWindow

	onUpdate  func()
	onResize  func(width, height uint32)
	onKeyDown func(key Key)
}

var _ Window = &engineWindow{}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetResizeCallback(callback func(width, height uint32)) {
	w.onResize = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(key Key)) {
	w.onKeyDown = callback
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	if w.native == nil {
		return nil
	}
	return w.native.surfaceDescriptor()
}

func (w *engineWindow) IsRunning() bool {
	return w.native != nil && w.native.open()
}

func (w *engineWindow) RequestClose() {
	if w.native != nil {
		w.native.requestClose()
	}
}

func (w *engineWindow) Close() error {
	if w.native == nil {
		return fmt.Errorf("window %q already closed", w.title)
	}
	w.native.destroy()
	w.native = nil
	return nil
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		w.native.poll()
		if !w.native.open() {
			break
		}
		if w.onUpdate != nil {
			w.onUpdate()
		}
		runtime.Gosched()
	}
}

func (w *engineWindow) Size() (uint32, uint32) {
	return w.width, w.height
}

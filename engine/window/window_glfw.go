package window

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// glfwWindow wraps the GLFW handle backing an engineWindow.
type glfwWindow struct {
	handle  *glfw.Window
	closing bool
}

// openGLFWWindow initialises GLFW, creates the native window for w and installs its input and
// framebuffer callbacks. The calling goroutine stays locked to its OS thread.
//
// GLFW reference: https://www.glfw.org/docs/latest/window_guide.html
func openGLFWWindow(w *engineWindow) (*glfwWindow, error) {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("initialise GLFW: %w", err)
	}
	// no OpenGL context, the surface comes from WebGPU
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	handle, err := glfw.CreateWindow(int(w.width), int(w.height), w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("create GLFW window: %w", err)
	}
	handle.SetSizeLimits(w.minWidth, w.minHeight, glfw.DontCare, glfw.DontCare)

	gw := &glfwWindow{handle: handle}
	handle.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		switch {
		case action == glfw.Release:
		case key == glfw.KeyEscape:
			gw.requestClose()
		case w.onKeyDown != nil:
			w.onKeyDown(Key(key))
		}
	})

	// The surface is sized in framebuffer pixels, which differ from screen coordinates on
	// high-DPI displays.
	handle.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.width, w.height = uint32(max(width, 0)), uint32(max(height, 0))
		if w.onResize != nil {
			w.onResize(w.width, w.height)
		}
	})
	fbWidth, fbHeight := handle.GetFramebufferSize()
	w.width, w.height = uint32(fbWidth), uint32(fbHeight)

	return gw, nil
}

// surfaceDescriptor returns the platform surface source (HWND, Xlib, Wayland or Metal layer).
//
// Reference: https://pkg.go.dev/github.com/cogentcore/webgpu/wgpuglfw#GetSurfaceDescriptor
func (gw *glfwWindow) surfaceDescriptor() *wgpu.SurfaceDescriptor {
	return wgpuglfw.GetSurfaceDescriptor(gw.handle)
}

func (gw *glfwWindow) open() bool {
	return !gw.closing && !gw.handle.ShouldClose()
}

func (gw *glfwWindow) requestClose() {
	gw.closing = true
	gw.handle.SetShouldClose(true)
}

func (gw *glfwWindow) poll() {
	glfw.PollEvents()
}

// destroy closes the native window and shuts GLFW down.
func (gw *glfwWindow) destroy() {
	gw.closing = true
	gw.handle.Destroy()
	glfw.Terminate()
}

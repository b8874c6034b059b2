package camera

import (
	"sync"

	glm "github.com/go-gl/mathgl/mgl32"
)

type CameraBuilderOption func(*cameraImpl)

// NewCamera creates a camera at (0, 2, 5) looking at the origin with a 60 degree field of view,
// a 16:9 aspect ratio and clip planes at 0.1 and 500.
//
// Parameters:
//   - options: builder options
//
// Returns:
//   - Camera: the new camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:       &sync.Mutex{},
		position: glm.Vec3{0, 2, 5},
		up:       glm.Vec3{0, 1, 0},
		fov:      glm.DegToRad(60),
		aspect:   16.0 / 9.0,
		near:     0.1,
		far:      500,
	}

	for _, opt := range options {
		opt(c)
	}
	c.updateMatrices()

	return c
}

// WithPosition sets the camera's eye position.
//
// Parameters:
//   - x, y, z: position components
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's position
func WithPosition(x, y, z float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.position = glm.Vec3{x, y, z}
	}
}

// WithTarget sets the point the camera looks at.
//
// Parameters:
//   - x, y, z: target components
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's target
func WithTarget(x, y, z float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.target = glm.Vec3{x, y, z}
	}
}

// WithUp sets the camera's up vector.
//
// Parameters:
//   - x, y, z: up vector components
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's up vector
func WithUp(x, y, z float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.up = glm.Vec3{x, y, z}
	}
}

// WithFov sets the camera's vertical field of view in radians.
//
// Parameters:
//   - fov: field of view in radians
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's field of view
func WithFov(fov float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.fov = fov
	}
}

// WithAspect sets the camera's aspect ratio (width / height).
func WithAspect(aspect float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.aspect = aspect
	}
}

// WithClipPlanes sets the near and far clipping plane distances.
func WithClipPlanes(near, far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.near = near
		c.far = far
	}
}

// WithReversedZ selects the reversed depth convention.
func WithReversedZ(reversed bool) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.reversedZ = reversed
	}
}

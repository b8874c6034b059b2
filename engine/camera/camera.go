package camera

import (
	"math"
	"sync"

	glm "github.com/go-gl/mathgl/mgl32"
)

type cameraImpl struct {
	mu *sync.Mutex

	position glm.Vec3
	target   glm.Vec3
	up       glm.Vec3

	fov       float32
	aspect    float32
	near      float32
	far       float32
	reversedZ bool

	view       glm.Mat4
	projection glm.Mat4
	viewProj   glm.Mat4
}

// Camera defines the interface for the scene camera.
// The camera holds a look-at pose and perspective settings and keeps its view, projection and
// view-projection matrices current whenever one of them changes. Projections map depth to the
// [0, 1] clip range WebGPU expects, flipped when the reversed-Z convention is selected.
type Camera interface {
	// Position returns the world-space eye position.
	//
	// Returns:
	//   - glm.Vec3: the eye position
	Position() glm.Vec3

	// Target returns the world-space point the camera looks at.
	//
	// Returns:
	//   - glm.Vec3: the look-at target
	Target() glm.Vec3

	// Fov returns the vertical field of view in radians.
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	Aspect() float32

	// Near returns the near clipping plane distance.
	Near() float32

	// Far returns the far clipping plane distance.
	Far() float32

	// ReversedZ reports whether the projection maps near to depth 1 and far to depth 0.
	ReversedZ() bool

	// View returns the view matrix.
	View() glm.Mat4

	// Projection returns the projection matrix.
	Projection() glm.Mat4

	// ViewProjection returns the combined view-projection matrix.
	ViewProjection() glm.Mat4

	// LookAt moves the camera to position looking at target.
	//
	// Parameters:
	//   - position: the eye position
	//   - target: the look-at target
	LookAt(position, target glm.Vec3)

	// SetAspect sets the aspect ratio (width / height), typically after a resize.
	//
	// Parameters:
	//   - aspect: the aspect ratio
	SetAspect(aspect float32)

	// SetReversedZ selects the depth convention of the projection.
	SetReversedZ(reversed bool)
}

var _ Camera = &cameraImpl{}

func (c *cameraImpl) Position() glm.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

func (c *cameraImpl) Target() glm.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) ReversedZ() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reversedZ
}

func (c *cameraImpl) View() glm.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

func (c *cameraImpl) Projection() glm.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projection
}

func (c *cameraImpl) ViewProjection() glm.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProj
}

func (c *cameraImpl) LookAt(position, target glm.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = position
	c.target = target
	c.updateMatrices()
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if aspect <= 0 {
		return
	}
	c.aspect = aspect
	c.updateMatrices()
}

func (c *cameraImpl) SetReversedZ(reversed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reversedZ = reversed
	c.updateMatrices()
}

// updateMatrices recomputes all matrices. Callers hold c.mu.
func (c *cameraImpl) updateMatrices() {
	c.view = glm.LookAtV(c.position, c.target, c.up)
	c.projection = perspective(c.fov, c.aspect, c.near, c.far, c.reversedZ)
	c.viewProj = c.projection.Mul4(c.view)
}

// perspective is a right-handed perspective projection with a [0, 1] depth range.
func perspective(fov, aspect, near, far float32, reversedZ bool) glm.Mat4 {
	f := float32(1 / math.Tan(float64(fov)/2))
	if reversedZ {
		near, far = far, near
	}
	return glm.Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, far / (near - far), -1,
		0, 0, near * far / (near - far), 0,
	}
}

package light

import (
	glm "github.com/go-gl/mathgl/mgl32"
)

// ShadowMapResolution is the default width and height in texels of the shadow depth texture.
const ShadowMapResolution = 2048

// DefaultShadowHalfExtent is the default orthographic half-extent (in world units) of the
// directional light shadow frustum.
const DefaultShadowHalfExtent float32 = 40.0

// DefaultShadowNear is the default near plane for the directional light's
// orthographic shadow projection.
const DefaultShadowNear float32 = 0.1

// DefaultShadowFar is the default far plane for the directional light's
// orthographic shadow projection.
const DefaultShadowFar float32 = 200.0

// DirectionalLightVP builds the orthographic view-projection of a directional light's shadow
// frustum. The frustum is centered on center and looks along the light direction. With reversedZ
// the depth range is flipped so near maps to 1 and far to 0.
//
// Parameters:
//   - dir: the light direction, from the light toward the scene
//   - center: world-space center of the shadow frustum, typically the camera target
//   - halfExtent: half-size of the orthographic frustum in world units
//   - near: near plane distance
//   - far: far plane distance
//   - reversedZ: whether the reversed depth convention is in use
//
// Returns:
//   - glm.Mat4: the light view-projection
func DirectionalLightVP(dir, center glm.Vec3, halfExtent, near, far float32, reversedZ bool) glm.Mat4 {
	dir = normalize(dir)
	eye := center.Sub(dir.Mul(far * 0.5))

	up := glm.Vec3{0, 1, 0}
	if abs(dir.Dot(up)) > 0.99 {
		up = glm.Vec3{0, 0, 1}
	}
	view := glm.LookAtV(eye, center, up)

	proj := ortho(-halfExtent, halfExtent, -halfExtent, halfExtent, near, far)
	if reversedZ {
		proj = reverseDepth().Mul4(proj)
	}
	return proj.Mul4(view)
}

// ortho is an orthographic projection mapping depth to [0, 1] as WebGPU expects.
func ortho(left, right, bottom, top, near, far float32) glm.Mat4 {
	rl := right - left
	tb := top - bottom
	fn := far - near
	return glm.Mat4{
		2 / rl, 0, 0, 0,
		0, 2 / tb, 0, 0,
		0, 0, -1 / fn, 0,
		-(right + left) / rl, -(top + bottom) / tb, -near / fn, 1,
	}
}

// reverseDepth maps clip depth z to w - z, turning [0, 1] into [1, 0].
func reverseDepth() glm.Mat4 {
	return glm.Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, -1, 0,
		0, 0, 1, 1,
	}
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

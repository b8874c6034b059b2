package light

import (
	"sync"

	glm "github.com/go-gl/mathgl/mgl32"
)

// LightBuilderOption is a function that configures a Light instance during construction.
type LightBuilderOption func(*lightImpl)

// NewLight creates a new enabled Light of the given type. Defaults are a white light of intensity
// 1 at the origin pointing straight down, with DefaultAttenuation and a 20/30 degree spot cone.
//
// Parameters:
//   - lightType: the kind of light
//   - opts: builder options
//
// Returns:
//   - Light: the new light
func NewLight(lightType LightType, opts ...LightBuilderOption) Light {
	l := &lightImpl{
		mu:          &sync.Mutex{},
		lightType:   lightType,
		direction:   glm.Vec3{0, -1, 0},
		color:       glm.Vec3{1, 1, 1},
		intensity:   1,
		attenuation: DefaultAttenuation,
		enabled:     true,
	}
	l.innerCone, l.outerCone = coneCosines(20, 30)

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// WithPosition is an option builder that sets the world-space position of the light.
//
// Parameters:
//   - x: the x position component
//   - y: the y position component
//   - z: the z position component
//
// Returns:
//   - LightBuilderOption: a function that applies the position option to a lightImpl
func WithPosition(x, y, z float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.position = glm.Vec3{x, y, z}
	}
}

// WithDirection is an option builder that sets the direction of the light.
// The direction is normalized before storing.
//
// Parameters:
//   - x: the x direction component
//   - y: the y direction component
//   - z: the z direction component
//
// Returns:
//   - LightBuilderOption: a function that applies the direction option to a lightImpl
func WithDirection(x, y, z float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.direction = normalize(glm.Vec3{x, y, z})
	}
}

// WithColor is an option builder that sets the RGB color of the light.
func WithColor(r, g, b float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.color = glm.Vec3{r, g, b}
	}
}

// WithIntensity is an option builder that sets the scalar intensity multiplier.
func WithIntensity(intensity float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.intensity = intensity
	}
}

// WithAttenuation is an option builder that sets the constant, linear and quadratic falloff terms.
//
// Parameters:
//   - constant: the constant term
//   - linear: the linear term
//   - quadratic: the quadratic term
//
// Returns:
//   - LightBuilderOption: a function that applies the attenuation option to a lightImpl
func WithAttenuation(constant, linear, quadratic float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.attenuation = Attenuation{Constant: constant, Linear: linear, Quadratic: quadratic}
	}
}

// WithSpotCone is an option builder that sets the spot cone half-angles in degrees.
func WithSpotCone(innerDeg, outerDeg float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.innerCone, l.outerCone = coneCosines(innerDeg, outerDeg)
	}
}

// WithEnabled is an option builder that sets whether the light starts enabled.
func WithEnabled(enabled bool) LightBuilderOption {
	return func(l *lightImpl) {
		l.enabled = enabled
	}
}

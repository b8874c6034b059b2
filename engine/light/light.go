package light

import (
	"math"
	"sync"

	glm "github.com/go-gl/mathgl/mgl32"
)

// LightType identifies the kind of light source.
type LightType int

const (
	// LightTypeDirectional represents a light with no position, only direction.
	// The directional light drives the shadow pass.
	LightTypeDirectional LightType = iota

	// LightTypePoint represents a light that emits in all directions from a position and
	// attenuates with distance.
	LightTypePoint

	// LightTypeSpot represents a light that emits in a cone from a position along a direction.
	// Attenuates with distance and with the angle from the cone axis between the inner and outer cone.
	LightTypeSpot
)

func (t LightType) String() string {
	switch t {
	case LightTypeDirectional:
		return "directional"
	case LightTypePoint:
		return "point"
	case LightTypeSpot:
		return "spot"
	default:
		return "unknown"
	}
}

// Attenuation holds the constant, linear and quadratic distance falloff terms.
type Attenuation struct {
	Constant  float32
	Linear    float32
	Quadratic float32
}

// DefaultAttenuation is a falloff reaching roughly zero at 50 world units.
var DefaultAttenuation = Attenuation{Constant: 1.0, Linear: 0.09, Quadratic: 0.032}

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	mu *sync.Mutex

	lightType   LightType
	position    glm.Vec3
	direction   glm.Vec3
	color       glm.Vec3
	intensity   float32
	attenuation Attenuation
	innerCone   float32 // stored as cos(angle in radians)
	outerCone   float32 // stored as cos(angle in radians)
	enabled     bool
}

// Light defines the interface for a light source in the scene.
//
// All light types share this interface; type-specific properties (cone angles for spot lights,
// attenuation for point and spot lights) are ignored where they do not apply. Point and spot
// lights are packed into the light list storage buffer every frame; the directional light feeds
// the shadow uniform.
type Light interface {
	// Type returns the kind of light source.
	//
	// Returns:
	//   - LightType: the light type (directional, point, or spot)
	Type() LightType

	// Position returns the world-space position of the light.
	// Meaningless for directional lights.
	//
	// Returns:
	//   - glm.Vec3: the position
	Position() glm.Vec3

	// Direction returns the normalized direction of the light.
	// Meaningless for point lights.
	//
	// Returns:
	//   - glm.Vec3: the direction
	Direction() glm.Vec3

	// Color returns the RGB color of the light.
	Color() glm.Vec3

	// Intensity returns the scalar intensity multiplier for the light.
	Intensity() float32

	// Attenuation returns the distance falloff terms.
	Attenuation() Attenuation

	// InnerCone returns the cosine of the inner cone half-angle for spot lights.
	InnerCone() float32

	// OuterCone returns the cosine of the outer cone half-angle for spot lights.
	OuterCone() float32

	// Enabled reports whether the light contributes to the frame.
	Enabled() bool

	// SetPosition sets the world-space position of the light.
	SetPosition(pos glm.Vec3)

	// SetDirection sets the direction of the light. The direction is normalized before storing.
	SetDirection(dir glm.Vec3)

	// SetColor sets the RGB color of the light.
	SetColor(color glm.Vec3)

	// SetIntensity sets the scalar intensity multiplier.
	SetIntensity(intensity float32)

	// SetSpotCone sets the inner and outer cone half-angles in degrees.
	//
	// Parameters:
	//   - innerDeg: inner cone half-angle, full intensity inside
	//   - outerDeg: outer cone half-angle, zero intensity outside
	SetSpotCone(innerDeg, outerDeg float32)

	// SetEnabled enables or disables the light.
	SetEnabled(enabled bool)
}

var _ Light = &lightImpl{}

func (l *lightImpl) Type() LightType {
	return l.lightType
}

func (l *lightImpl) Position() glm.Vec3 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.position
}

func (l *lightImpl) Direction() glm.Vec3 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.direction
}

func (l *lightImpl) Color() glm.Vec3 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.color
}

func (l *lightImpl) Intensity() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.intensity
}

func (l *lightImpl) Attenuation() Attenuation {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.attenuation
}

func (l *lightImpl) InnerCone() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.innerCone
}

func (l *lightImpl) OuterCone() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.outerCone
}

func (l *lightImpl) Enabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

func (l *lightImpl) SetPosition(pos glm.Vec3) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.position = pos
}

func (l *lightImpl) SetDirection(dir glm.Vec3) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.direction = normalize(dir)
}

func (l *lightImpl) SetColor(color glm.Vec3) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.color = color
}

func (l *lightImpl) SetIntensity(intensity float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.intensity = intensity
}

func (l *lightImpl) SetSpotCone(innerDeg, outerDeg float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.innerCone, l.outerCone = coneCosines(innerDeg, outerDeg)
}

func (l *lightImpl) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

func normalize(v glm.Vec3) glm.Vec3 {
	if v.Len() == 0 {
		return glm.Vec3{0, -1, 0}
	}
	return v.Normalize()
}

// coneCosines converts half-angles in degrees to cosines, keeping outer at least as wide as inner.
func coneCosines(innerDeg, outerDeg float32) (inner, outer float32) {
	if outerDeg < innerDeg {
		outerDeg = innerDeg
	}
	inner = float32(math.Cos(float64(glm.DegToRad(innerDeg))))
	outer = float32(math.Cos(float64(glm.DegToRad(outerDeg))))
	return inner, outer
}

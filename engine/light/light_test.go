package light

import (
	"encoding/binary"
	"math"
	"testing"

	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f32At(buf []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
}

func TestMarshalLightListSkipsDirectionalAndDisabled(t *testing.T) {
	lights := []Light{
		NewLight(LightTypeDirectional, WithDirection(0, -1, 0)),
		NewLight(LightTypePoint, WithPosition(1, 2, 3), WithAttenuation(1, 0.5, 0.25)),
		NewLight(LightTypeSpot, WithEnabled(false)),
		NewLight(LightTypeSpot, WithPosition(4, 5, 6), WithSpotCone(10, 20)),
	}

	buf, count := MarshalLightList(lights, glm.Vec3{0.1, 0.2, 0.3}, 16)

	require.Equal(t, uint32(2), count)
	require.Len(t, buf, 16+2*80)
	assert.InDelta(t, 0.2, f32At(buf, 4), 1e-6)
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(buf[12:]))

	// first light: point at (1,2,3) with attenuation (1, .5, .25, 1)
	assert.Equal(t, float32(3), f32At(buf, 16+8))
	assert.Equal(t, float32(LightTypePoint), f32At(buf, 16+12))
	assert.Equal(t, float32(0.5), f32At(buf, 16+48+4))
	assert.Equal(t, float32(1), f32At(buf, 16+48+12))

	// second light: spot cutoffs are cosines with inner >= outer
	spot := 16 + 80
	assert.Equal(t, float32(LightTypeSpot), f32At(buf, spot+12))
	assert.Greater(t, f32At(buf, spot+64), f32At(buf, spot+68))
}

func TestMarshalLightListRespectsCapacity(t *testing.T) {
	lights := make([]Light, 0, 5)
	for range 5 {
		lights = append(lights, NewLight(LightTypePoint))
	}

	buf, count := MarshalLightList(lights, glm.Vec3{}, 3)

	assert.Equal(t, uint32(3), count)
	assert.Len(t, buf, int(LightListSize(3)))
}

func TestSpotConeOuterNeverNarrowerThanInner(t *testing.T) {
	l := NewLight(LightTypeSpot)
	l.SetSpotCone(30, 10)
	assert.Equal(t, l.InnerCone(), l.OuterCone())
}

func TestDirectionalLightVPMapsCenterIntoDepthRange(t *testing.T) {
	center := glm.Vec3{0, 0, 0}
	for _, reversed := range []bool{false, true} {
		vp := DirectionalLightVP(glm.Vec3{-0.3, -1, -0.2}, center, 40, 0.1, 200, reversed)
		clip := vp.Mul4x1(center.Vec4(1))
		z := clip.Z() / clip.W()

		assert.GreaterOrEqual(t, z, float32(0))
		assert.LessOrEqual(t, z, float32(1))
		assert.InDelta(t, 0, clip.X(), 1e-4)
		assert.InDelta(t, 0, clip.Y(), 1e-4)
	}
}

func TestDirectionalLightVPReversesDepth(t *testing.T) {
	dir := glm.Vec3{0, -1, 0}
	near := glm.Vec3{0, 50, 0}
	far := glm.Vec3{0, -50, 0}

	std := DirectionalLightVP(dir, glm.Vec3{}, 40, 0.1, 200, false)
	rev := DirectionalLightVP(dir, glm.Vec3{}, 40, 0.1, 200, true)

	assert.Less(t, std.Mul4x1(near.Vec4(1)).Z(), std.Mul4x1(far.Vec4(1)).Z())
	assert.Greater(t, rev.Mul4x1(near.Vec4(1)).Z(), rev.Mul4x1(far.Vec4(1)).Z())
}

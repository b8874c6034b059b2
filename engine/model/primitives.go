package model

import glm "github.com/go-gl/mathgl/mgl32"

// Cube builds a unit cube centred on the origin with per-face normals.
//
// Parameters:
//   - name: the model identifier
//   - size: the edge length
//   - options: additional builder options
//
// Returns:
//   - Model: the cube
func Cube(name string, size float32, options ...ModelBuilderOption) Model {
	h := size / 2
	faces := []struct {
		normal, u, v glm.Vec3
	}{
		{glm.Vec3{0, 0, 1}, glm.Vec3{1, 0, 0}, glm.Vec3{0, 1, 0}},
		{glm.Vec3{0, 0, -1}, glm.Vec3{-1, 0, 0}, glm.Vec3{0, 1, 0}},
		{glm.Vec3{1, 0, 0}, glm.Vec3{0, 0, -1}, glm.Vec3{0, 1, 0}},
		{glm.Vec3{-1, 0, 0}, glm.Vec3{0, 0, 1}, glm.Vec3{0, 1, 0}},
		{glm.Vec3{0, 1, 0}, glm.Vec3{1, 0, 0}, glm.Vec3{0, 0, -1}},
		{glm.Vec3{0, -1, 0}, glm.Vec3{1, 0, 0}, glm.Vec3{0, 0, 1}},
	}

	vertices := make([]GPUVertex, 0, 24)
	indices := make([]uint32, 0, 36)
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	for _, f := range faces {
		base := uint32(len(vertices))
		for _, c := range corners {
			p := f.normal.Mul(h).Add(f.u.Mul(c[0] * h)).Add(f.v.Mul(c[1] * h))
			vertices = append(vertices, GPUVertex{
				Position: p,
				TexCoord: [2]float32{(c[0] + 1) / 2, 1 - (c[1]+1)/2},
				Normal:   f.normal,
			})
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}

	return NewModel(append([]ModelBuilderOption{WithName(name), WithGeometry(vertices, indices)}, options...)...)
}

// Plane builds a square on the XZ plane facing +Y.
func Plane(name string, size float32, options ...ModelBuilderOption) Model {
	h := size / 2
	up := [3]float32{0, 1, 0}
	vertices := []GPUVertex{
		{Position: [3]float32{-h, 0, h}, TexCoord: [2]float32{0, 1}, Normal: up},
		{Position: [3]float32{h, 0, h}, TexCoord: [2]float32{1, 1}, Normal: up},
		{Position: [3]float32{h, 0, -h}, TexCoord: [2]float32{1, 0}, Normal: up},
		{Position: [3]float32{-h, 0, -h}, TexCoord: [2]float32{0, 0}, Normal: up},
	}
	indices := []uint32{0, 1, 2, 0, 2, 3}
	return NewModel(append([]ModelBuilderOption{WithName(name), WithGeometry(vertices, indices)}, options...)...)
}

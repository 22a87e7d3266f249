package math

// Mat4 is an affine transform stored column-major: element (row, col) is at
// index col*4+row and the translation occupies indices 12-14.
type Mat4 [16]float32

// Identity returns the identity transform.
func Identity() Mat4 {
	return Mat4{0: 1, 5: 1, 10: 1, 15: 1}
}

// FromTRS builds the transform that scales, then rotates, then translates.
// Rotation and scale are applied as the object's local basis.
func FromTRS(t Vec3, r Quat, s Vec3) Mat4 {
	x := r.Rotate(Vec3{X: 1}).Scale(s.X)
	y := r.Rotate(Vec3{Y: 1}).Scale(s.Y)
	z := r.Rotate(Vec3{Z: 1}).Scale(s.Z)
	return Mat4{
		x.X, x.Y, x.Z, 0,
		y.X, y.Y, y.Z, 0,
		z.X, z.Y, z.Z, 0,
		t.X, t.Y, t.Z, 1,
	}
}

// Mul returns m*other, the transform that applies other first.
func (m Mat4) Mul(other Mat4) Mat4 {
	var out Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += m[k*4+row] * other[col*4+k]
			}
			out[col*4+row] = sum
		}
	}
	return out
}

// TransformPoint applies m to a point.
func (m Mat4) TransformPoint(p Vec3) Vec3 {
	return Vec3{
		m[0]*p.X + m[4]*p.Y + m[8]*p.Z + m[12],
		m[1]*p.X + m[5]*p.Y + m[9]*p.Z + m[13],
		m[2]*p.X + m[6]*p.Y + m[10]*p.Z + m[14],
	}
}

// Translation returns the transform's origin.
func (m Mat4) Translation() Vec3 {
	return Vec3{m[12], m[13], m[14]}
}

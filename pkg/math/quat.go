package math

import "github.com/chewxy/math32"

// Quat is a rotation quaternion. W is the scalar part.
type Quat struct {
	X, Y, Z, W float32
}

// QuatIdentity returns the quaternion that does not rotate.
func QuatIdentity() Quat {
	return Quat{W: 1}
}

// QuatFrom reads an X, Y, Z, W array.
func QuatFrom(a [4]float32) Quat {
	return Quat{X: a[0], Y: a[1], Z: a[2], W: a[3]}
}

// Array returns q in X, Y, Z, W order.
func (q Quat) Array() [4]float32 {
	return [4]float32{q.X, q.Y, q.Z, q.W}
}

// WXYZ returns q with the scalar part first.
func (q Quat) WXYZ() [4]float32 {
	return [4]float32{q.W, q.X, q.Y, q.Z}
}

// QuatFromAxisAngle rotates angle radians about a unit axis.
func QuatFromAxisAngle(axis Vec3, angle float32) Quat {
	v := axis.Scale(math32.Sin(angle / 2))
	return Quat{X: v.X, Y: v.Y, Z: v.Z, W: math32.Cos(angle / 2)}
}

// Len returns the quaternion norm.
func (q Quat) Len() float32 {
	return math32.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
}

// Normalize scales q to unit length. A degenerate quaternion becomes the
// identity.
func (q Quat) Normalize() Quat {
	n := q.Len()
	if n < 1e-4 {
		return QuatIdentity()
	}
	return Quat{X: q.X / n, Y: q.Y / n, Z: q.Z / n, W: q.W / n}
}

// Mul returns the Hamilton product q*other: other is applied first.
func (q Quat) Mul(other Quat) Quat {
	u, v := q.vec(), other.vec()
	w := q.W*other.W - u.Dot(v)
	xyz := v.Scale(q.W).Add(u.Scale(other.W)).Add(u.Cross(v))
	return Quat{X: xyz.X, Y: xyz.Y, Z: xyz.Z, W: w}
}

// Rotate applies the normalized rotation to v.
func (q Quat) Rotate(v Vec3) Vec3 {
	q = q.Normalize()
	u := q.vec()
	t := u.Cross(v).Scale(2)
	return v.Add(t.Scale(q.W)).Add(u.Cross(t))
}

func (q Quat) vec() Vec3 {
	return Vec3{q.X, q.Y, q.Z}
}

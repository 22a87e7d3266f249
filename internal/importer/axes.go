package importer

import "github.com/Faultbox/mu-import/pkg/math"

// Mu files are Y-up and left-handed; the plan is Z-up and right-handed.
// Swapping Y and Z converts vectors; quaternions additionally negate their
// vector part. The animation binding table applies the same remap per
// channel.

func hostVector(v [3]float32) [3]float32 {
	return [3]float32{v[0], v[2], v[1]}
}

func hostQuat(q [4]float32) math.Quat {
	return math.Quat{X: -q[0], Y: -q[2], Z: -q[1], W: q[3]}
}

func hostVectors(src [][3]float32) [][3]float32 {
	if src == nil {
		return nil
	}
	out := make([][3]float32, len(src))
	for i, v := range src {
		out[i] = hostVector(v)
	}
	return out
}

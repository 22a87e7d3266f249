package formats

import (
	"fmt"

	"go.uber.org/zap"
)

// MuMeshChannels is the per-vertex attribute presence mask of a mesh record.
// Bits 0-7 select UV channels 0-7.
type MuMeshChannels uint32

const (
	MeshChannelUV0      MuMeshChannels = 1 << 0
	MeshChannelUV1      MuMeshChannels = 1 << 1
	MeshChannelNormals  MuMeshChannels = 1 << 8
	MeshChannelTangents MuMeshChannels = 1 << 9
	MeshChannelColors   MuMeshChannels = 1 << 10

	maxUVChannels = 8
)

// MuMesh is vertex data shared by one or more submeshes.
type MuMesh struct {
	Vertices [][3]float32

	// UVs holds one coordinate list per present channel; UVChannels holds
	// the matching channel numbers in ascending order.
	UVs        [][][2]float32
	UVChannels []int

	Normals  [][3]float32 // nil when absent
	Tangents [][4]float32 // nil when absent
	Colors   [][4]uint8   // nil when absent

	// Submeshes are flat triangle lists into Vertices. Every list length is
	// a multiple of 3 and every index is below len(Vertices).
	Submeshes [][]int32
}

// UV returns the coordinates of a UV channel, or nil if it is absent.
func (m *MuMesh) UV(channel int) [][2]float32 {
	for i, ch := range m.UVChannels {
		if ch == channel {
			return m.UVs[i]
		}
	}
	return nil
}

// TriangleCount returns the number of triangles across all submeshes.
func (m *MuMesh) TriangleCount() int {
	total := 0
	for _, sm := range m.Submeshes {
		total += len(sm) / 3
	}
	return total
}

// Triangles returns submesh i as index triples.
func (m *MuMesh) Triangles(i int) [][3]int32 {
	sm := m.Submeshes[i]
	tris := make([][3]int32, len(sm)/3)
	for t := range tris {
		tris[t] = [3]int32{sm[t*3], sm[t*3+1], sm[t*3+2]}
	}
	return tris
}

func (s *muDecodeState) decodeMesh(c *Cursor, owner string) (*MuMesh, error) {
	vertexCount, err := c.Count(12)
	if err != nil {
		return nil, fmt.Errorf("mesh vertices: %w", err)
	}
	mesh := &MuMesh{Vertices: make([][3]float32, vertexCount)}
	for i := range mesh.Vertices {
		if mesh.Vertices[i], err = c.Vec3(); err != nil {
			return nil, fmt.Errorf("mesh vertex %d: %w", i, err)
		}
	}

	mask, err := c.Uint32()
	if err != nil {
		return nil, fmt.Errorf("mesh channels: %w", err)
	}
	channels := MuMeshChannels(mask)

	for ch := 0; ch < maxUVChannels; ch++ {
		if channels&(1<<ch) == 0 {
			continue
		}
		uvs := make([][2]float32, vertexCount)
		for i := range uvs {
			if uvs[i], err = c.Vec2(); err != nil {
				return nil, fmt.Errorf("mesh uv%d %d: %w", ch, i, err)
			}
		}
		mesh.UVs = append(mesh.UVs, uvs)
		mesh.UVChannels = append(mesh.UVChannels, ch)
	}
	if channels&MeshChannelNormals != 0 {
		mesh.Normals = make([][3]float32, vertexCount)
		for i := range mesh.Normals {
			if mesh.Normals[i], err = c.Vec3(); err != nil {
				return nil, fmt.Errorf("mesh normal %d: %w", i, err)
			}
		}
	}
	if channels&MeshChannelTangents != 0 {
		mesh.Tangents = make([][4]float32, vertexCount)
		for i := range mesh.Tangents {
			if mesh.Tangents[i], err = c.Vec4(); err != nil {
				return nil, fmt.Errorf("mesh tangent %d: %w", i, err)
			}
		}
	}
	if channels&MeshChannelColors != 0 {
		mesh.Colors = make([][4]uint8, vertexCount)
		for i := range mesh.Colors {
			rgba, err := c.Bytes(4)
			if err != nil {
				return nil, fmt.Errorf("mesh color %d: %w", i, err)
			}
			copy(mesh.Colors[i][:], rgba)
		}
	}

	submeshCount, err := c.Count(4)
	if err != nil {
		return nil, fmt.Errorf("mesh submeshes: %w", err)
	}
	mesh.Submeshes = make([][]int32, submeshCount)
	for i := range mesh.Submeshes {
		indexCount, err := c.Count(4)
		if err != nil {
			return nil, fmt.Errorf("submesh %d: %w", i, err)
		}
		indices := make([]int32, indexCount)
		if err := c.int32s(indices); err != nil {
			return nil, fmt.Errorf("submesh %d indices: %w", i, err)
		}
		mesh.Submeshes[i] = s.validTriangles(indices, vertexCount, owner, i)
	}
	return mesh, nil
}

// validTriangles drops a trailing partial triple and any triangle that
// references a vertex outside the mesh, recording a warning for each.
func (s *muDecodeState) validTriangles(indices []int32, vertexCount int, owner string, submesh int) []int32 {
	if rem := len(indices) % 3; rem != 0 {
		s.warn(fmt.Errorf("%w: node %q submesh %d has %d indices, dropping %d",
			ErrInvalidIndex, owner, submesh, len(indices), rem),
			zap.String("node", owner))
		indices = indices[:len(indices)-rem]
	}

	out := indices[:0]
	dropped := 0
	for t := 0; t < len(indices); t += 3 {
		a, b, c := indices[t], indices[t+1], indices[t+2]
		if !inRange(a, vertexCount) || !inRange(b, vertexCount) || !inRange(c, vertexCount) {
			dropped++
			continue
		}
		out = append(out, a, b, c)
	}
	if dropped > 0 {
		s.warn(fmt.Errorf("%w: node %q submesh %d: dropped %d triangles referencing vertices beyond %d",
			ErrInvalidIndex, owner, submesh, dropped, vertexCount),
			zap.String("node", owner))
	}
	return out
}

func inRange(idx int32, n int) bool {
	return idx >= 0 && int(idx) < n
}

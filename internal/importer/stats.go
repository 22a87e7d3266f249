package importer

import "github.com/Faultbox/mu-import/pkg/math"

// Stats summarizes a planned scene.
type Stats struct {
	Objects   int
	Meshes    int
	Lights    int
	Cameras   int
	Colliders int

	Vertices     int
	Triangles    int
	HasAnimation bool

	// Bounds encloses every visual mesh vertex in world space. It is empty
	// when the scene has no mesh objects.
	Bounds math.Bounds
}

func computeStats(scene *Scene) Stats {
	st := Stats{
		Objects:      len(scene.Objects),
		Vertices:     scene.model.GetTotalVertexCount(),
		Triangles:    scene.model.GetTotalTriangleCount(),
		HasAnimation: scene.model.HasAnimation(),
	}

	world := make(map[*Object]math.Mat4, len(scene.Objects))
	for _, obj := range scene.Objects {
		local := math.FromTRS(math.Vec3From(obj.Location), obj.Rotation, math.Vec3From(obj.Scale))
		if parent, ok := world[obj.Parent]; ok {
			local = parent.Mul(local)
		}
		world[obj] = local

		switch obj.Kind {
		case KindMesh:
			st.Meshes++
			for _, v := range obj.Mesh.Vertices {
				st.Bounds.Extend(local.TransformPoint(math.Vec3From(v)))
			}
		case KindLight:
			st.Lights++
		case KindCamera:
			st.Cameras++
		case KindCollider:
			st.Colliders++
		}
	}
	return st
}

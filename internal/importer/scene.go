// Package importer turns a decoded Mu model into a host-neutral scene plan:
// the objects, meshes, materials, lights, cameras, colliders and animation
// actions a 3-D host has to create, already converted to host conventions.
package importer

import (
	"errors"
	"fmt"

	"github.com/Faultbox/mu-import/internal/textures"
	"github.com/Faultbox/mu-import/pkg/formats"
	"github.com/Faultbox/mu-import/pkg/math"
)

// Planning errors. They are recorded in Scene.Warnings, never returned.
var (
	ErrUnknownPath         = errors.New("animation path not found")
	ErrUnknownProperty     = errors.New("animation property not bound")
	ErrUnsupportedProperty = errors.New("animation property not supported")
	ErrUnknownEnum         = errors.New("enum value out of range")
)

// ObjectKind is the host object type.
type ObjectKind int

const (
	KindEmpty ObjectKind = iota
	KindMesh
	KindLight
	KindCamera
	KindCollider
)

// String returns the kind name.
func (k ObjectKind) String() string {
	switch k {
	case KindEmpty:
		return "EMPTY"
	case KindMesh:
		return "MESH"
	case KindLight:
		return "LIGHT"
	case KindCamera:
		return "CAMERA"
	case KindCollider:
		return "COLLIDER"
	default:
		return fmt.Sprintf("ObjectKind(%d)", int(k))
	}
}

// Object is one host object. Children are in node order, collider objects
// first.
type Object struct {
	Name     string
	Path     string // node path; collider objects share their owner's
	Kind     ObjectKind
	Location [3]float32
	Rotation math.Quat
	Scale    [3]float32

	Parent   *Object
	Children []*Object
	Node     *formats.MuNode

	Mesh     *Mesh
	Light    *Light
	Camera   *Camera
	Collider *Collider

	Tag   string
	Layer int32

	Tracks []*Track
}

// Mesh is a host mesh built from a Mu mesh. Vertices and Normals are in
// host axes; faces and UVs are read from Source.
type Mesh struct {
	Name      string
	Source    *formats.MuMesh
	Vertices  [][3]float32
	Normals   [][3]float32
	Smooth    bool
	UVLayers  []UVLayer
	Materials []*Material
}

// UVLayer names one UV channel of the source mesh.
type UVLayer struct {
	Name    string
	Channel int
}

// Material is a host material built from a Mu material.
type Material struct {
	Name     string
	Shader   string
	Source   *formats.MuMaterial
	Textures []TextureSlot
	Tracks   []*Track
}

// TextureSlot is one texture property of a material.
type TextureSlot struct {
	Property string
	Index    int32
	Texture  string          // texture-table name; empty for dangling indices
	Image    *textures.Image // nil when the texture was not loaded
	Scale    [2]float32
	Offset   [2]float32
}

// Light is a host lamp.
type Light struct {
	Type        string // SPOT, SUN, POINT or AREA
	Color       [3]float32
	Distance    float32
	Energy      float32
	SpotSize    float32 // radians, spot lights only
	HasSpotSize bool
	CullingMask [32]bool
}

// Camera is a host camera.
type Camera struct {
	Type            string  // PERSP or ORTHO
	Angle           float32 // radians
	ClipStart       float32
	ClipEnd         float32
	BackgroundColor [4]float32
	Depth           float32
	ClearFlags      string // empty when unset
	CullingMask     [32]bool
}

// Scene is the complete import plan.
type Scene struct {
	Root      *Object
	Objects   []*Object // pre-order
	Materials []*Material
	Actions   []*Action
	Warnings  []error
	Stats     Stats

	model   *formats.Mu
	objects map[*formats.MuNode]*Object
}

// Model returns the decoded model the scene was planned from.
func (s *Scene) Model() *formats.Mu {
	return s.model
}

// ObjectByPath returns the object planned for the node at path.
func (s *Scene) ObjectByPath(path string) *Object {
	node := s.model.NodeByPath(path)
	if node == nil {
		return nil
	}
	return s.objects[node]
}

// Walk visits objects in pre-order. Returning false stops the walk.
func (s *Scene) Walk(fn func(obj *Object) bool) {
	for _, obj := range s.Objects {
		if !fn(obj) {
			return
		}
	}
}

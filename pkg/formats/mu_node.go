package formats

import (
	"fmt"

	"go.uber.org/zap"
)

// MuTransform is a node's local transform, stored in the source coordinate
// system. Rotation is a quaternion in X, Y, Z, W order.
type MuTransform struct {
	Position [3]float32
	Rotation [4]float32
	Scale    [3]float32
}

// MuComponentSet records which optional components a node carries.
type MuComponentSet uint16

const (
	ComponentMesh MuComponentSet = 1 << iota
	ComponentRenderer
	ComponentSkinnedMeshRenderer
	ComponentLight
	ComponentCamera
	ComponentCollider
	ComponentTagLayer
	ComponentAnimation
)

// Has reports whether every component in want is present.
func (s MuComponentSet) Has(want MuComponentSet) bool {
	return s&want == want
}

// MuRenderer assigns materials to a node's mesh, one slot per submesh.
type MuRenderer struct {
	MaterialIndices []int32
	// Materials holds the resolved table entries; nil where the index was
	// outside the material table.
	Materials []*MuMaterial
}

// MuSkinnedMeshRenderer is a renderer that owns its own mesh and bone list.
type MuSkinnedMeshRenderer struct {
	MuRenderer
	Center              [3]float32
	Size                [3]float32
	Quality             int32
	UpdateWhenOffscreen bool
	Bones               []string
	Mesh                *MuMesh
}

// MuLightType enumerates light shapes.
type MuLightType int32

const (
	MuLightSpot        MuLightType = 0
	MuLightDirectional MuLightType = 1
	MuLightPoint       MuLightType = 2
	MuLightArea        MuLightType = 3
)

// String returns a human-readable light type name.
func (t MuLightType) String() string {
	switch t {
	case MuLightSpot:
		return "Spot"
	case MuLightDirectional:
		return "Directional"
	case MuLightPoint:
		return "Point"
	case MuLightArea:
		return "Area"
	default:
		return fmt.Sprintf("Unknown(%d)", t)
	}
}

// MuLight is a light component.
type MuLight struct {
	Type        MuLightType
	Intensity   float32
	Range       float32
	Color       [4]float32 // RGBA
	CullingMask uint32
	// SpotAngle is in degrees. Older files omit it; HasSpotAngle tells.
	SpotAngle    float32
	HasSpotAngle bool
}

// MuClearFlags is a camera's background clear mode. Zero means unset.
type MuClearFlags int32

const (
	MuClearUnset      MuClearFlags = 0
	MuClearSkybox     MuClearFlags = 1
	MuClearSolidColor MuClearFlags = 2
	MuClearDepth      MuClearFlags = 3
	MuClearNothing    MuClearFlags = 4
)

// String returns a human-readable clear mode name.
func (f MuClearFlags) String() string {
	switch f {
	case MuClearUnset:
		return "Unset"
	case MuClearSkybox:
		return "Skybox"
	case MuClearSolidColor:
		return "SolidColor"
	case MuClearDepth:
		return "Depth"
	case MuClearNothing:
		return "Nothing"
	default:
		return fmt.Sprintf("Unknown(%d)", f)
	}
}

// MuCamera is a camera component. FieldOfView is in degrees.
type MuCamera struct {
	ClearFlags      MuClearFlags
	BackgroundColor [4]float32
	CullingMask     uint32
	Orthographic    bool
	FieldOfView     float32
	Near            float32
	Far             float32
	Depth           float32
}

// MuTagLayer is a node's tag string and layer number.
type MuTagLayer struct {
	Tag   string
	Layer int32
}

// MuNode represents a node in the model hierarchy.
type MuNode struct {
	Name      string
	Transform MuTransform
	Children  []*MuNode

	// Parent and Path are assigned by BuildPaths.
	Parent *MuNode
	Path   string

	Components          MuComponentSet
	Mesh                *MuMesh
	Renderer            *MuRenderer
	SkinnedMeshRenderer *MuSkinnedMeshRenderer
	Light               *MuLight
	Camera              *MuCamera
	Collider            MuCollider
	TagLayer            *MuTagLayer
	Animation           *MuAnimation
}

// VisualMesh returns the mesh a renderer would draw for this node: the mesh
// filter's mesh, or the skinned renderer's mesh, or nil.
func (n *MuNode) VisualMesh() *MuMesh {
	if n.Mesh != nil {
		return n.Mesh
	}
	if n.SkinnedMeshRenderer != nil {
		return n.SkinnedMeshRenderer.Mesh
	}
	return nil
}

// decodeNode decodes a node payload: a transform block, component blocks,
// and an optional children block.
func (s *muDecodeState) decodeNode(c *Cursor, depth int) (*MuNode, error) {
	if depth > maxNodeDepth {
		return nil, fmt.Errorf("%w: node nesting deeper than %d", ErrMalformedBlock, maxNodeDepth)
	}

	first, err := c.ReadBlock()
	if err != nil {
		return nil, err
	}
	if first.Tag != TagTransform {
		return nil, fmt.Errorf("%w: node at offset %d starts with %s, want %s",
			ErrMalformedBlock, first.Offset, first.Tag, TagTransform)
	}
	node := &MuNode{}
	if err := decodeTransform(first.Payload, node); err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}

	err = eachBlock(c, func(b Block) error {
		if err := s.decodeComponent(node, b, depth); err != nil {
			return fmt.Errorf("node %q: %s: %w", node.Name, b.Tag, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}

func decodeTransform(c *Cursor, node *MuNode) error {
	var err error
	if node.Name, err = c.ReadString(); err != nil {
		return err
	}
	if node.Transform.Position, err = c.Vec3(); err != nil {
		return err
	}
	if node.Transform.Rotation, err = c.Vec4(); err != nil {
		return err
	}
	node.Transform.Scale, err = c.Vec3()
	return err
}

func (s *muDecodeState) decodeComponent(node *MuNode, b Block, depth int) error {
	c := b.Payload
	switch b.Tag {
	case TagMeshFilter:
		mesh, err := s.decodeMesh(c, node.Name)
		if err != nil {
			return err
		}
		node.Mesh = mesh
		node.Components |= ComponentMesh
	case TagRenderer:
		r, err := s.decodeRenderer(c, node.Name, "renderer")
		if err != nil {
			return err
		}
		node.Renderer = r
		node.Components |= ComponentRenderer
	case TagSkinnedMeshRenderer:
		smr, err := s.decodeSkinnedMeshRenderer(c, node.Name)
		if err != nil {
			return err
		}
		node.SkinnedMeshRenderer = smr
		node.Components |= ComponentSkinnedMeshRenderer
	case TagLight:
		light, err := decodeLight(c)
		if err != nil {
			return err
		}
		node.Light = light
		node.Components |= ComponentLight
	case TagCamera:
		cam, err := decodeCamera(c)
		if err != nil {
			return err
		}
		node.Camera = cam
		node.Components |= ComponentCamera
	case TagColliderMesh, TagColliderSphere, TagColliderCapsule, TagColliderBox, TagColliderWheel:
		col, err := s.decodeCollider(b.Tag, c, node.Name)
		if err != nil {
			return err
		}
		node.Collider = col
		node.Components |= ComponentCollider
	case TagTagLayer:
		tl := &MuTagLayer{}
		var err error
		if tl.Tag, err = c.ReadString(); err != nil {
			return err
		}
		if tl.Layer, err = c.Int32(); err != nil {
			return err
		}
		node.TagLayer = tl
		node.Components |= ComponentTagLayer
	case TagAnimation:
		anim, err := decodeAnimation(c)
		if err != nil {
			return err
		}
		node.Animation = anim
		node.Components |= ComponentAnimation
	case TagChildren:
		return s.decodeChildren(c, node, depth)
	default:
		s.log.Debug("skipping node block",
			zap.String("node", node.Name),
			zap.Stringer("tag", b.Tag),
			zap.Int("length", b.Length))
	}
	return nil
}

func (s *muDecodeState) decodeChildren(c *Cursor, node *MuNode, depth int) error {
	count, err := c.Count(blockHeaderSize)
	if err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		b, err := c.ReadBlock()
		if err != nil {
			return fmt.Errorf("child %d: %w", i, err)
		}
		if b.Tag != TagNode {
			return fmt.Errorf("%w: child %d at offset %d is %s, want %s",
				ErrMalformedBlock, i, b.Offset, b.Tag, TagNode)
		}
		child, err := s.decodeNode(b.Payload, depth+1)
		if err != nil {
			return fmt.Errorf("child %d: %w", i, err)
		}
		node.Children = append(node.Children, child)
	}
	return nil
}

func (s *muDecodeState) decodeRenderer(c *Cursor, owner, component string) (*MuRenderer, error) {
	count, err := c.Count(4)
	if err != nil {
		return nil, err
	}
	r := &MuRenderer{
		MaterialIndices: make([]int32, count),
		Materials:       make([]*MuMaterial, count),
	}
	for i := range r.MaterialIndices {
		idx, err := c.Int32()
		if err != nil {
			return nil, err
		}
		r.MaterialIndices[i] = idx
		if idx < 0 || int(idx) >= len(s.mu.Materials) {
			s.warn(fmt.Errorf("%w: node %q %s slot %d uses material %d of %d",
				ErrDanglingReference, owner, component, i, idx, len(s.mu.Materials)),
				zap.String("node", owner))
			continue
		}
		r.Materials[i] = s.mu.Materials[idx]
	}
	return r, nil
}

func (s *muDecodeState) decodeSkinnedMeshRenderer(c *Cursor, owner string) (*MuSkinnedMeshRenderer, error) {
	r, err := s.decodeRenderer(c, owner, "skinned mesh renderer")
	if err != nil {
		return nil, err
	}
	smr := &MuSkinnedMeshRenderer{MuRenderer: *r}
	if smr.Center, err = c.Vec3(); err != nil {
		return nil, err
	}
	if smr.Size, err = c.Vec3(); err != nil {
		return nil, err
	}
	if smr.Quality, err = c.Int32(); err != nil {
		return nil, err
	}
	if smr.UpdateWhenOffscreen, err = c.Bool(); err != nil {
		return nil, err
	}
	boneCount, err := c.Count(1)
	if err != nil {
		return nil, err
	}
	smr.Bones = make([]string, boneCount)
	for i := range smr.Bones {
		if smr.Bones[i], err = c.ReadString(); err != nil {
			return nil, fmt.Errorf("bone %d: %w", i, err)
		}
	}
	if smr.Mesh, err = s.decodeMesh(c, owner); err != nil {
		return nil, err
	}
	return smr, nil
}

func decodeLight(c *Cursor) (*MuLight, error) {
	light := &MuLight{}
	typ, err := c.Int32()
	if err != nil {
		return nil, err
	}
	light.Type = MuLightType(typ)
	if light.Intensity, err = c.Float32(); err != nil {
		return nil, err
	}
	if light.Range, err = c.Float32(); err != nil {
		return nil, err
	}
	if light.Color, err = c.Vec4(); err != nil {
		return nil, err
	}
	if light.CullingMask, err = c.Uint32(); err != nil {
		return nil, err
	}
	// Spot angle was appended in a later revision of the format.
	if c.Remaining() >= 4 {
		if light.SpotAngle, err = c.Float32(); err != nil {
			return nil, err
		}
		light.HasSpotAngle = true
	}
	return light, nil
}

func decodeCamera(c *Cursor) (*MuCamera, error) {
	cam := &MuCamera{}
	flags, err := c.Int32()
	if err != nil {
		return nil, err
	}
	cam.ClearFlags = MuClearFlags(flags)
	if cam.BackgroundColor, err = c.Vec4(); err != nil {
		return nil, err
	}
	if cam.CullingMask, err = c.Uint32(); err != nil {
		return nil, err
	}
	if cam.Orthographic, err = c.Bool(); err != nil {
		return nil, err
	}
	if cam.FieldOfView, err = c.Float32(); err != nil {
		return nil, err
	}
	if cam.Near, err = c.Float32(); err != nil {
		return nil, err
	}
	if cam.Far, err = c.Float32(); err != nil {
		return nil, err
	}
	if cam.Depth, err = c.Float32(); err != nil {
		return nil, err
	}
	return cam, nil
}

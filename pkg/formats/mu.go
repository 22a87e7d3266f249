// Package formats provides decoders for the Mu model container and the MBM
// raster container.
// Mu is a tagged-block scene format: a header, a texture table, a material
// table and one root node whose subtree carries meshes, renderers, lights,
// cameras, colliders and animation clips.
package formats

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/mu-import/pkg/encoding"
)

// Mu format errors.
var (
	ErrUnrecognizedFormat = errors.New("unrecognized Mu format")
	ErrDanglingReference  = errors.New("dangling reference")
	ErrInvalidIndex       = errors.New("invalid triangle index")
)

const (
	// MuMagic is the first int32 of every Mu file.
	MuMagic int32 = 76543
	// MuVersionMajor is the only major version this decoder reads.
	MuVersionMajor int32 = 1

	muHeaderSize = 12
	maxNodeDepth = 256
)

// MuVersion represents the Mu file version.
type MuVersion struct {
	Major int32
	Minor int32
}

// String returns the version as "Major.Minor".
func (v MuVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// MuTextureType distinguishes plain textures from normal maps.
type MuTextureType int32

const (
	MuTextureMain      MuTextureType = 0
	MuTextureNormalMap MuTextureType = 1
)

// String returns a human-readable texture type name.
func (t MuTextureType) String() string {
	switch t {
	case MuTextureMain:
		return "Main"
	case MuTextureNormalMap:
		return "NormalMap"
	default:
		return fmt.Sprintf("Unknown(%d)", t)
	}
}

// MuTexture is one entry of the model's global texture table.
type MuTexture struct {
	Name string
	Type MuTextureType
}

// Mu represents a decoded Mu model.
type Mu struct {
	Version   MuVersion
	Textures  []MuTexture
	Materials []*MuMaterial
	Root      *MuNode

	// Objects maps node names to nodes. Duplicate names resolve to the node
	// visited last in pre-order.
	Objects map[string]*MuNode
	// ObjectPaths maps slash-joined node paths to nodes.
	ObjectPaths map[string]*MuNode

	// Warnings collects recoverable problems found while decoding.
	Warnings []error
}

// MuDecoder decodes Mu files. The zero value is ready to use.
type MuDecoder struct {
	// Logger receives warnings for recovered problems. Nil discards them.
	Logger *zap.Logger
	// Charset decodes names from legacy exporters. Zero value is UTF-8.
	Charset encoding.Charset
}

// ParseMu parses Mu data from a byte slice.
func ParseMu(data []byte) (*Mu, error) {
	return MuDecoder{}.Decode(data)
}

// ParseMuFile parses a Mu file from disk.
func ParseMuFile(path string) (*Mu, error) {
	return MuDecoder{}.DecodeFile(path)
}

// DecodeFile reads and decodes a Mu file from disk.
func (d MuDecoder) DecodeFile(path string) (*Mu, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading Mu file: %w", err)
	}
	return d.Decode(data)
}

// muDecodeState carries the tables shared by every node decoder of one call.
type muDecodeState struct {
	log *zap.Logger
	mu  *Mu

	texturesSeen  bool
	materialsSeen bool
}

func (s *muDecodeState) warn(err error, fields ...zap.Field) {
	s.mu.Warnings = append(s.mu.Warnings, err)
	s.log.Warn(err.Error(), fields...)
}

// Decode parses Mu data. Framing errors abort the decode; dangling
// references and bad triangle indices are recorded in Mu.Warnings.
func (d MuDecoder) Decode(data []byte) (*Mu, error) {
	if len(data) < muHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the %d-byte header",
			ErrUnrecognizedFormat, len(data), muHeaderSize)
	}

	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}

	c := newCursor(data, 0, d.Charset)
	magic, _ := c.Int32()
	major, _ := c.Int32()
	minor, _ := c.Int32()

	mu := &Mu{Version: MuVersion{Major: major, Minor: minor}}
	if magic != MuMagic || major != MuVersionMajor {
		return nil, fmt.Errorf("%w: magic %d version %s", ErrUnrecognizedFormat, magic, mu.Version)
	}

	s := &muDecodeState{log: log, mu: mu}
	err := eachBlock(c, func(b Block) error {
		switch b.Tag {
		case TagTextures:
			if s.texturesSeen || mu.Root != nil {
				return fmt.Errorf("%w: unexpected texture table at offset %d", ErrMalformedBlock, b.Offset)
			}
			s.texturesSeen = true
			return s.decodeTextures(b.Payload)
		case TagMaterials:
			if s.materialsSeen || mu.Root != nil {
				return fmt.Errorf("%w: unexpected material table at offset %d", ErrMalformedBlock, b.Offset)
			}
			s.materialsSeen = true
			return s.decodeMaterials(b.Payload)
		case TagNode:
			if mu.Root != nil {
				return fmt.Errorf("%w: second root node at offset %d", ErrMalformedBlock, b.Offset)
			}
			root, err := s.decodeNode(b.Payload, 0)
			if err != nil {
				return fmt.Errorf("root node: %w", err)
			}
			mu.Root = root
		default:
			log.Debug("skipping block",
				zap.Stringer("tag", b.Tag),
				zap.Int64("offset", b.Offset),
				zap.Int("length", b.Length))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if mu.Root == nil {
		return nil, fmt.Errorf("%w: no root node", ErrUnrecognizedFormat)
	}

	for _, dup := range BuildPaths(mu) {
		log.Debug("duplicate node path", zap.String("path", dup))
	}

	return mu, nil
}

func (s *muDecodeState) decodeTextures(c *Cursor) error {
	count, err := c.Count(5)
	if err != nil {
		return fmt.Errorf("texture table: %w", err)
	}
	s.mu.Textures = make([]MuTexture, count)
	for i := range s.mu.Textures {
		tex := &s.mu.Textures[i]
		if tex.Name, err = c.ReadString(); err != nil {
			return fmt.Errorf("texture %d: %w", i, err)
		}
		typ, err := c.Int32()
		if err != nil {
			return fmt.Errorf("texture %d: %w", i, err)
		}
		tex.Type = MuTextureType(typ)
	}
	return nil
}

func (s *muDecodeState) decodeMaterials(c *Cursor) error {
	count, err := c.Count(2)
	if err != nil {
		return fmt.Errorf("material table: %w", err)
	}
	s.mu.Materials = make([]*MuMaterial, count)
	for i := range s.mu.Materials {
		mat, err := s.decodeMaterial(c)
		if err != nil {
			return fmt.Errorf("material %d: %w", i, err)
		}
		s.mu.Materials[i] = mat
	}
	return nil
}

// Walk visits every node in pre-order, children in decoded order.
// Returning false from fn stops the walk.
func (mu *Mu) Walk(fn func(node *MuNode) bool) {
	if mu.Root == nil {
		return
	}
	var visit func(n *MuNode) bool
	visit = func(n *MuNode) bool {
		if !fn(n) {
			return false
		}
		for _, child := range n.Children {
			if !visit(child) {
				return false
			}
		}
		return true
	}
	visit(mu.Root)
}

// NodeCount returns the number of nodes in the tree.
func (mu *Mu) NodeCount() int {
	count := 0
	mu.Walk(func(*MuNode) bool {
		count++
		return true
	})
	return count
}

// GetTotalVertexCount returns the number of vertices across all node meshes,
// skinned meshes included. Collider meshes are not counted.
func (mu *Mu) GetTotalVertexCount() int {
	total := 0
	mu.Walk(func(n *MuNode) bool {
		if m := n.VisualMesh(); m != nil {
			total += len(m.Vertices)
		}
		return true
	})
	return total
}

// GetTotalTriangleCount returns the number of triangles across all node meshes.
func (mu *Mu) GetTotalTriangleCount() int {
	total := 0
	mu.Walk(func(n *MuNode) bool {
		if m := n.VisualMesh(); m != nil {
			total += m.TriangleCount()
		}
		return true
	})
	return total
}

// HasAnimation returns true if any node carries an animation clip.
func (mu *Mu) HasAnimation() bool {
	found := false
	mu.Walk(func(n *MuNode) bool {
		if n.Animation != nil && len(n.Animation.Clips) > 0 {
			found = true
			return false
		}
		return true
	})
	return found
}

// Texture returns the texture-table entry a reference points at.
func (mu *Mu) Texture(ref MuTextureRef) (*MuTexture, error) {
	if ref.Index < 0 || int(ref.Index) >= len(mu.Textures) {
		return nil, fmt.Errorf("%w: texture %d of %d", ErrDanglingReference, ref.Index, len(mu.Textures))
	}
	return &mu.Textures[ref.Index], nil
}

package formats

import "fmt"

// blockHeaderSize is the size of a block's tag and length fields.
const blockHeaderSize = 8

// BlockTag identifies the payload layout of a tagged block.
type BlockTag int32

// Top-level block tags.
const (
	TagTextures  BlockTag = 1
	TagMaterials BlockTag = 2
	TagNode      BlockTag = 3
)

// Node-level block tags.
const (
	TagTransform           BlockTag = 10
	TagMeshFilter          BlockTag = 11
	TagRenderer            BlockTag = 12
	TagSkinnedMeshRenderer BlockTag = 13
	TagLight               BlockTag = 14
	TagCamera              BlockTag = 15
	TagColliderMesh        BlockTag = 16
	TagColliderSphere      BlockTag = 17
	TagColliderCapsule     BlockTag = 18
	TagColliderBox         BlockTag = 19
	TagColliderWheel       BlockTag = 20
	TagTagLayer            BlockTag = 21
	TagAnimation           BlockTag = 22
	TagChildren            BlockTag = 23
)

var blockTagNames = map[BlockTag]string{
	TagTextures:            "Textures",
	TagMaterials:           "Materials",
	TagNode:                "Node",
	TagTransform:           "Transform",
	TagMeshFilter:          "MeshFilter",
	TagRenderer:            "Renderer",
	TagSkinnedMeshRenderer: "SkinnedMeshRenderer",
	TagLight:               "Light",
	TagCamera:              "Camera",
	TagColliderMesh:        "ColliderMesh",
	TagColliderSphere:      "ColliderSphere",
	TagColliderCapsule:     "ColliderCapsule",
	TagColliderBox:         "ColliderBox",
	TagColliderWheel:       "ColliderWheel",
	TagTagLayer:            "TagLayer",
	TagAnimation:           "Animation",
	TagChildren:            "Children",
}

// String returns a human-readable tag name.
func (t BlockTag) String() string {
	if name, ok := blockTagNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", int32(t))
}

// Known reports whether the tag is one this decoder understands.
func (t BlockTag) Known() bool {
	_, ok := blockTagNames[t]
	return ok
}

// Block is one framed record: its tag, the absolute offset of its header,
// and a cursor limited to its payload.
type Block struct {
	Tag     BlockTag
	Offset  int64
	Length  int
	Payload *Cursor
}

// ReadBlock reads a block header and returns the block with its payload
// cursor. The parent cursor is always advanced past the whole payload, so a
// caller that ignores the payload has skipped the block.
func (c *Cursor) ReadBlock() (Block, error) {
	offset := c.Offset()
	tag, err := c.Int32()
	if err != nil {
		return Block{}, err
	}
	length, err := c.Int32()
	if err != nil {
		return Block{}, err
	}
	if length < 0 {
		return Block{}, fmt.Errorf("%w: %s block at offset %d has negative length %d",
			ErrMalformedBlock, BlockTag(tag), offset, length)
	}
	payload, err := c.Sub(int(length))
	if err != nil {
		return Block{}, fmt.Errorf("%s block at offset %d: %w", BlockTag(tag), offset, err)
	}
	return Block{Tag: BlockTag(tag), Offset: offset, Length: int(length), Payload: payload}, nil
}

// eachBlock reads consecutive blocks until c is exhausted.
func eachBlock(c *Cursor, fn func(b Block) error) error {
	for c.Remaining() > 0 {
		b, err := c.ReadBlock()
		if err != nil {
			return err
		}
		if err := fn(b); err != nil {
			return err
		}
	}
	return nil
}

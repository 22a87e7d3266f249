package formats

import (
	"fmt"

	"go.uber.org/zap"
)

// MuPropertyKind identifies one of a material's property groups.
type MuPropertyKind int

const (
	MuPropertyColor MuPropertyKind = iota
	MuPropertyVector
	MuPropertyFloat2
	MuPropertyFloat
	MuPropertyTexture
)

// MuPropertyKinds lists the groups in the order they are stored.
var MuPropertyKinds = []MuPropertyKind{
	MuPropertyColor, MuPropertyVector, MuPropertyFloat2, MuPropertyFloat, MuPropertyTexture,
}

// String returns the group name.
func (k MuPropertyKind) String() string {
	switch k {
	case MuPropertyColor:
		return "color"
	case MuPropertyVector:
		return "vector"
	case MuPropertyFloat2:
		return "float2"
	case MuPropertyFloat:
		return "float"
	case MuPropertyTexture:
		return "texture"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// MuTextureRef points into the model's texture table.
type MuTextureRef struct {
	Index  int32
	Scale  [2]float32
	Offset [2]float32
}

// MuProperty is one named shader parameter.
type MuProperty[T any] struct {
	Name  string
	Value T
}

// MuPropertyGroup is an ordered list of properties with unique names.
type MuPropertyGroup[T any] []MuProperty[T]

// Index returns the position of name in the group, or -1.
func (g MuPropertyGroup[T]) Index(name string) int {
	for i := range g {
		if g[i].Name == name {
			return i
		}
	}
	return -1
}

// Get returns the value stored under name.
func (g MuPropertyGroup[T]) Get(name string) (T, bool) {
	if i := g.Index(name); i >= 0 {
		return g[i].Value, true
	}
	var zero T
	return zero, false
}

// set stores v under name. A repeated name overwrites the earlier value in
// place, keeping its position.
func (g *MuPropertyGroup[T]) set(name string, v T) {
	if i := g.Index(name); i >= 0 {
		(*g)[i].Value = v
		return
	}
	*g = append(*g, MuProperty[T]{Name: name, Value: v})
}

// MuMaterial is a named shader with its parameter groups.
type MuMaterial struct {
	Name     string
	Shader   string
	Colors   MuPropertyGroup[[4]float32]
	Vectors  MuPropertyGroup[[4]float32]
	Float2s  MuPropertyGroup[[2]float32]
	Floats   MuPropertyGroup[float32]
	Textures MuPropertyGroup[MuTextureRef]
}

// Lookup finds a property by name across the groups in storage order and
// returns its group and position within that group.
func (m *MuMaterial) Lookup(name string) (MuPropertyKind, int, bool) {
	for _, kind := range MuPropertyKinds {
		if i := m.indexIn(kind, name); i >= 0 {
			return kind, i, true
		}
	}
	return 0, -1, false
}

func (m *MuMaterial) indexIn(kind MuPropertyKind, name string) int {
	switch kind {
	case MuPropertyColor:
		return m.Colors.Index(name)
	case MuPropertyVector:
		return m.Vectors.Index(name)
	case MuPropertyFloat2:
		return m.Float2s.Index(name)
	case MuPropertyFloat:
		return m.Floats.Index(name)
	case MuPropertyTexture:
		return m.Textures.Index(name)
	}
	return -1
}

// PropertyCount returns the number of properties across all groups.
func (m *MuMaterial) PropertyCount() int {
	return len(m.Colors) + len(m.Vectors) + len(m.Float2s) + len(m.Floats) + len(m.Textures)
}

func readGroup[T any](c *Cursor, g *MuPropertyGroup[T], read func(*Cursor) (T, error)) error {
	count, err := c.Count(1)
	if err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		name, err := c.ReadString()
		if err != nil {
			return fmt.Errorf("property %d: %w", i, err)
		}
		v, err := read(c)
		if err != nil {
			return fmt.Errorf("property %q: %w", name, err)
		}
		g.set(name, v)
	}
	return nil
}

func readTextureRef(c *Cursor) (MuTextureRef, error) {
	var ref MuTextureRef
	var err error
	if ref.Index, err = c.Int32(); err != nil {
		return ref, err
	}
	if ref.Scale, err = c.Vec2(); err != nil {
		return ref, err
	}
	ref.Offset, err = c.Vec2()
	return ref, err
}

func (s *muDecodeState) decodeMaterial(c *Cursor) (*MuMaterial, error) {
	mat := &MuMaterial{}
	var err error
	if mat.Name, err = c.ReadString(); err != nil {
		return nil, err
	}
	if mat.Shader, err = c.ReadString(); err != nil {
		return nil, err
	}

	if err := readGroup(c, &mat.Colors, (*Cursor).Vec4); err != nil {
		return nil, fmt.Errorf("%q colors: %w", mat.Name, err)
	}
	if err := readGroup(c, &mat.Vectors, (*Cursor).Vec4); err != nil {
		return nil, fmt.Errorf("%q vectors: %w", mat.Name, err)
	}
	if err := readGroup(c, &mat.Float2s, (*Cursor).Vec2); err != nil {
		return nil, fmt.Errorf("%q float2s: %w", mat.Name, err)
	}
	if err := readGroup(c, &mat.Floats, (*Cursor).Float32); err != nil {
		return nil, fmt.Errorf("%q floats: %w", mat.Name, err)
	}
	if err := readGroup(c, &mat.Textures, readTextureRef); err != nil {
		return nil, fmt.Errorf("%q textures: %w", mat.Name, err)
	}

	for _, p := range mat.Textures {
		if p.Value.Index < 0 || int(p.Value.Index) >= len(s.mu.Textures) {
			s.warn(fmt.Errorf("%w: material %q property %q uses texture %d of %d",
				ErrDanglingReference, mat.Name, p.Name, p.Value.Index, len(s.mu.Textures)),
				zap.String("material", mat.Name))
		}
	}
	return mat, nil
}

package formats

import (
	"bytes"
	"encoding/binary"
)

// muBuilder writes Mu wire data for tests.
type muBuilder struct {
	buf bytes.Buffer
}

func newMu() *muBuilder {
	b := &muBuilder{}
	b.i32(MuMagic).i32(MuVersionMajor).i32(0)
	return b
}

func (b *muBuilder) bytes() []byte { return b.buf.Bytes() }

func (b *muBuilder) i32(vs ...int32) *muBuilder {
	for _, v := range vs {
		binary.Write(&b.buf, binary.LittleEndian, v)
	}
	return b
}

func (b *muBuilder) u32(v uint32) *muBuilder {
	binary.Write(&b.buf, binary.LittleEndian, v)
	return b
}

func (b *muBuilder) f32(vs ...float32) *muBuilder {
	for _, v := range vs {
		binary.Write(&b.buf, binary.LittleEndian, v)
	}
	return b
}

func (b *muBuilder) boolean(v bool) *muBuilder {
	if v {
		b.buf.WriteByte(1)
	} else {
		b.buf.WriteByte(0)
	}
	return b
}

func (b *muBuilder) raw(p []byte) *muBuilder {
	b.buf.Write(p)
	return b
}

// str writes a 7-bit length-prefixed string.
func (b *muBuilder) str(s string) *muBuilder {
	n := uint32(len(s))
	for n >= 0x80 {
		b.buf.WriteByte(byte(n) | 0x80)
		n >>= 7
	}
	b.buf.WriteByte(byte(n))
	b.buf.WriteString(s)
	return b
}

// block writes a tagged block whose payload is produced by fill.
func (b *muBuilder) block(tag BlockTag, fill func(p *muBuilder)) *muBuilder {
	payload := &muBuilder{}
	if fill != nil {
		fill(payload)
	}
	b.i32(int32(tag), int32(payload.buf.Len()))
	b.buf.Write(payload.buf.Bytes())
	return b
}

func (b *muBuilder) textures(names ...string) *muBuilder {
	return b.block(TagTextures, func(p *muBuilder) {
		p.i32(int32(len(names)))
		for _, name := range names {
			p.str(name).i32(int32(MuTextureMain))
		}
	})
}

// plainMaterials writes a material table of materials with no properties.
func (b *muBuilder) plainMaterials(names ...string) *muBuilder {
	return b.block(TagMaterials, func(p *muBuilder) {
		p.i32(int32(len(names)))
		for _, name := range names {
			p.str(name).str("KSP/Diffuse").i32(0, 0, 0, 0, 0)
		}
	})
}

// node writes a TagNode block with an identity transform named name.
func (b *muBuilder) node(name string, fill func(p *muBuilder)) *muBuilder {
	return b.block(TagNode, func(p *muBuilder) {
		p.block(TagTransform, func(t *muBuilder) {
			t.str(name).f32(0, 0, 0).f32(0, 0, 0, 1).f32(1, 1, 1)
		})
		if fill != nil {
			fill(p)
		}
	})
}

// children writes a TagChildren block holding one node per name.
func (b *muBuilder) children(names ...string) *muBuilder {
	return b.block(TagChildren, func(p *muBuilder) {
		p.i32(int32(len(names)))
		for _, name := range names {
			p.node(name, nil)
		}
	})
}

// mesh writes a mesh payload with positions, an optional UV0 channel and
// the given submeshes.
func (b *muBuilder) mesh(verts [][3]float32, uv0 [][2]float32, submeshes ...[]int32) *muBuilder {
	b.i32(int32(len(verts)))
	for _, v := range verts {
		b.f32(v[:]...)
	}
	if uv0 != nil {
		b.u32(uint32(MeshChannelUV0))
		for _, uv := range uv0 {
			b.f32(uv[:]...)
		}
	} else {
		b.u32(0)
	}
	b.i32(int32(len(submeshes)))
	for _, sm := range submeshes {
		b.i32(int32(len(sm)))
		b.i32(sm...)
	}
	return b
}

var quadVerts = [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}

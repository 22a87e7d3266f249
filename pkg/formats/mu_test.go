package formats

import (
	"errors"
	"reflect"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// sampleMu builds a small ship part: a root with a tag, a textured body and
// a light.
func sampleMu() []byte {
	b := newMu()
	b.textures("hull.mbm", "hull_n.mbm")
	b.block(TagMaterials, func(p *muBuilder) {
		p.i32(1)
		p.str("Hull").str("KSP/Bumped Specular")
		p.i32(1).str("_Color").f32(1, 0.5, 0.25, 1)
		p.i32(0)
		p.i32(0)
		p.i32(1).str("_Shininess").f32(0.4)
		p.i32(2)
		p.str("_MainTex").i32(0).f32(1, 1).f32(0, 0)
		p.str("_BumpMap").i32(1).f32(2, 2).f32(0.5, 0)
	})
	b.node("part", func(p *muBuilder) {
		p.block(TagTagLayer, func(t *muBuilder) { t.str("Untagged").i32(0) })
		p.block(TagChildren, func(c *muBuilder) {
			c.i32(2)
			c.node("body", func(n *muBuilder) {
				n.block(TagMeshFilter, func(m *muBuilder) {
					m.mesh(quadVerts, [][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}}, []int32{0, 1, 2, 0, 2, 3})
				})
				n.block(TagRenderer, func(r *muBuilder) { r.i32(1, 0) })
			})
			c.node("lamp", func(n *muBuilder) {
				n.block(TagLight, func(l *muBuilder) {
					l.i32(int32(MuLightSpot)).f32(2, 10).f32(1, 1, 0.8, 1).u32(0xFFFFFFFF).f32(45)
				})
			})
		})
	})
	return b.bytes()
}

func TestParseMuSample(t *testing.T) {
	mu, err := ParseMu(sampleMu())
	if err != nil {
		t.Fatalf("ParseMu failed: %v", err)
	}

	if mu.Version != (MuVersion{Major: 1, Minor: 0}) {
		t.Errorf("Version = %s, want 1.0", mu.Version)
	}
	if len(mu.Textures) != 2 || mu.Textures[1].Name != "hull_n.mbm" {
		t.Errorf("Textures = %+v", mu.Textures)
	}
	if len(mu.Materials) != 1 || mu.Materials[0].Shader != "KSP/Bumped Specular" {
		t.Fatalf("Materials = %+v", mu.Materials)
	}
	if len(mu.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", mu.Warnings)
	}

	if mu.Root.Name != "part" || len(mu.Root.Children) != 2 {
		t.Fatalf("root = %q with %d children", mu.Root.Name, len(mu.Root.Children))
	}
	if !mu.Root.Components.Has(ComponentTagLayer) || mu.Root.TagLayer.Tag != "Untagged" {
		t.Errorf("root tag layer = %+v", mu.Root.TagLayer)
	}
	if mu.NodeCount() != 3 {
		t.Errorf("NodeCount = %d, want 3", mu.NodeCount())
	}
	if mu.GetTotalVertexCount() != 4 {
		t.Errorf("GetTotalVertexCount = %d, want 4", mu.GetTotalVertexCount())
	}
	if mu.GetTotalTriangleCount() != 2 {
		t.Errorf("GetTotalTriangleCount = %d, want 2", mu.GetTotalTriangleCount())
	}
	if mu.HasAnimation() {
		t.Error("HasAnimation = true, want false")
	}

	body := mu.NodeByPath("part/body")
	if body == nil {
		t.Fatal("part/body not found")
	}
	if body.Parent != mu.Root {
		t.Error("body.Parent is not the root")
	}
	if !body.Components.Has(ComponentMesh | ComponentRenderer) {
		t.Errorf("body components = %b", body.Components)
	}
	if body.Renderer.Materials[0] != mu.Materials[0] {
		t.Error("renderer slot 0 does not resolve to the Hull material")
	}

	lamp := mu.NodeByName("lamp")
	if lamp == nil || lamp.Light == nil {
		t.Fatal("lamp light not decoded")
	}
	if !lamp.Light.HasSpotAngle || lamp.Light.SpotAngle != 45 || lamp.Light.Range != 10 {
		t.Errorf("light = %+v", lamp.Light)
	}

	tex, err := mu.Texture(mu.Materials[0].Textures[1].Value)
	if err != nil || tex.Name != "hull_n.mbm" {
		t.Errorf("Texture(_BumpMap) = %v, %v", tex, err)
	}
}

func TestParseMuHeader(t *testing.T) {
	withHeader := func(magic, major, minor int32) []byte {
		b := &muBuilder{}
		b.i32(magic, major, minor)
		b.node("root", nil)
		return b.bytes()
	}

	tests := []struct {
		name    string
		data    []byte
		wantErr bool
	}{
		{"valid", withHeader(MuMagic, 1, 0), false},
		{"newer minor", withHeader(MuMagic, 1, 7), false},
		{"bad magic", withHeader(12345, 1, 0), true},
		{"bad major", withHeader(MuMagic, 2, 0), true},
		{"too short", []byte{0x1F, 0x2B, 0x01, 0x00}, true},
		{"empty", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mu, err := ParseMu(tt.data)
			if tt.wantErr {
				if !errors.Is(err, ErrUnrecognizedFormat) {
					t.Errorf("err = %v, want ErrUnrecognizedFormat", err)
				}
				if mu != nil {
					t.Error("expected nil model on error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestParseMuSkipsUnknownBlocks(t *testing.T) {
	b := newMu()
	b.block(BlockTag(4000), func(p *muBuilder) { p.raw([]byte("vendor data")) })
	b.textures("a.png")
	b.node("root", func(p *muBuilder) {
		p.block(BlockTag(4001), func(u *muBuilder) { u.i32(1, 2, 3, 4) })
		p.block(TagTagLayer, func(t *muBuilder) { t.str("Ladder").i32(3) })
		p.block(BlockTag(4002), nil)
	})
	b.block(BlockTag(4003), func(p *muBuilder) { p.f32(9) })

	mu, err := ParseMu(b.bytes())
	if err != nil {
		t.Fatalf("ParseMu failed: %v", err)
	}
	if len(mu.Textures) != 1 {
		t.Errorf("Textures = %d, want 1", len(mu.Textures))
	}
	if mu.Root.TagLayer == nil || mu.Root.TagLayer.Tag != "Ladder" || mu.Root.TagLayer.Layer != 3 {
		t.Errorf("TagLayer = %+v", mu.Root.TagLayer)
	}
}

func TestParseMuStructureErrors(t *testing.T) {
	nested := func(depth int) []byte {
		var fill func(p *muBuilder, d int)
		fill = func(p *muBuilder, d int) {
			if d == 0 {
				return
			}
			p.block(TagChildren, func(c *muBuilder) {
				c.i32(1)
				c.node("n", func(n *muBuilder) { fill(n, d-1) })
			})
		}
		b := newMu()
		b.node("root", func(p *muBuilder) { fill(p, depth) })
		return b.bytes()
	}

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{
			name: "no root",
			data: newMu().textures("a.png").bytes(),
			want: ErrUnrecognizedFormat,
		},
		{
			name: "second root",
			data: newMu().node("a", nil).node("b", nil).bytes(),
			want: ErrMalformedBlock,
		},
		{
			name: "textures after root",
			data: newMu().node("a", nil).textures("a.png").bytes(),
			want: ErrMalformedBlock,
		},
		{
			name: "duplicate material table",
			data: newMu().plainMaterials("a").plainMaterials("b").node("a", nil).bytes(),
			want: ErrMalformedBlock,
		},
		{
			name: "node without transform",
			data: newMu().block(TagNode, func(p *muBuilder) {
				p.block(TagTagLayer, func(t *muBuilder) { t.str("x").i32(0) })
			}).bytes(),
			want: ErrMalformedBlock,
		},
		{
			name: "child that is not a node",
			data: newMu().node("root", func(p *muBuilder) {
				p.block(TagChildren, func(c *muBuilder) {
					c.i32(1)
					c.block(TagTagLayer, func(t *muBuilder) { t.str("x").i32(0) })
				})
			}).bytes(),
			want: ErrMalformedBlock,
		},
		{
			name: "truncated mesh",
			data: newMu().node("root", func(p *muBuilder) {
				p.block(TagMeshFilter, func(m *muBuilder) { m.i32(3).f32(0, 0, 0) })
			}).bytes(),
			want: ErrUnexpectedEndOfData,
		},
		{
			name: "truncated file",
			data: sampleMu()[:60],
			want: ErrUnexpectedEndOfData,
		},
		{
			name: "nesting too deep",
			data: nested(maxNodeDepth + 10),
			want: ErrMalformedBlock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mu, err := ParseMu(tt.data)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if mu != nil {
				t.Error("expected nil model on error")
			}
		})
	}
}

func TestParseMuDanglingMaterialIsolated(t *testing.T) {
	b := newMu()
	b.plainMaterials("only")
	b.node("root", func(p *muBuilder) {
		p.block(TagChildren, func(c *muBuilder) {
			c.i32(2)
			c.node("broken", func(n *muBuilder) {
				n.block(TagMeshFilter, func(m *muBuilder) { m.mesh(quadVerts, nil, []int32{0, 1, 2}) })
				n.block(TagRenderer, func(r *muBuilder) { r.i32(2, 0, 5) })
			})
			c.node("fine", func(n *muBuilder) {
				n.block(TagMeshFilter, func(m *muBuilder) { m.mesh(quadVerts, nil, []int32{0, 1, 2}) })
				n.block(TagRenderer, func(r *muBuilder) { r.i32(1, 0) })
			})
		})
	})

	core, logs := observer.New(zapcore.WarnLevel)
	mu, err := MuDecoder{Logger: zap.New(core)}.Decode(b.bytes())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if len(mu.Warnings) != 1 || !errors.Is(mu.Warnings[0], ErrDanglingReference) {
		t.Fatalf("Warnings = %v, want one ErrDanglingReference", mu.Warnings)
	}
	if logs.Len() != 1 {
		t.Errorf("logged %d warnings, want 1", logs.Len())
	}

	broken := mu.NodeByPath("root/broken")
	if broken.Renderer.Materials[0] == nil || broken.Renderer.Materials[1] != nil {
		t.Errorf("broken renderer materials = %v", broken.Renderer.Materials)
	}
	if broken.Renderer.MaterialIndices[1] != 5 {
		t.Errorf("raw index = %d, want 5", broken.Renderer.MaterialIndices[1])
	}
	fine := mu.NodeByPath("root/fine")
	if fine.Renderer.Materials[0] == nil || fine.Mesh.TriangleCount() != 1 {
		t.Error("sibling node was affected by the dangling reference")
	}
}

func TestParseMuComponents(t *testing.T) {
	b := newMu()
	b.node("root", func(p *muBuilder) {
		p.block(TagCamera, func(c *muBuilder) {
			c.i32(int32(MuClearSolidColor)).f32(0.1, 0.2, 0.3, 1).u32(1 << 3).boolean(false)
			c.f32(60, 0.3, 1000, 2)
		})
		p.block(TagLight, func(l *muBuilder) {
			l.i32(int32(MuLightPoint)).f32(1, 5).f32(1, 1, 1, 1).u32(1)
		})
		p.block(TagColliderCapsule, func(c *muBuilder) {
			c.boolean(true).f32(0.5, 2).i32(1).f32(0, 1, 0)
		})
	})

	mu, err := ParseMu(b.bytes())
	if err != nil {
		t.Fatal(err)
	}
	root := mu.Root
	if !root.Components.Has(ComponentCamera | ComponentLight | ComponentCollider) {
		t.Errorf("components = %b", root.Components)
	}

	want := &MuCamera{
		ClearFlags:      MuClearSolidColor,
		BackgroundColor: [4]float32{0.1, 0.2, 0.3, 1},
		CullingMask:     8,
		FieldOfView:     60,
		Near:            0.3,
		Far:             1000,
		Depth:           2,
	}
	if !reflect.DeepEqual(root.Camera, want) {
		t.Errorf("camera = %+v, want %+v", root.Camera, want)
	}

	if root.Light.HasSpotAngle {
		t.Error("light without trailing spot angle reports one")
	}

	capsule, ok := root.Collider.(*MuColliderCapsule)
	if !ok {
		t.Fatalf("collider is %T, want *MuColliderCapsule", root.Collider)
	}
	if !capsule.Trigger() || capsule.Height != 2 || capsule.Direction != 1 || capsule.Center != [3]float32{0, 1, 0} {
		t.Errorf("capsule = %+v", capsule)
	}
}

func TestParseMuWheelCollider(t *testing.T) {
	b := newMu()
	b.node("wheel", func(p *muBuilder) {
		p.block(TagColliderWheel, func(c *muBuilder) {
			c.f32(0.05, 0.3, 0.15).f32(0, 0, 0)
			c.f32(300, 30, 0.5)
			c.f32(1, 2, 3, 4)
			c.f32(5, 6, 7, 8)
		})
	})

	mu, err := ParseMu(b.bytes())
	if err != nil {
		t.Fatal(err)
	}
	wheel, ok := mu.Root.Collider.(*MuColliderWheel)
	if !ok {
		t.Fatalf("collider is %T", mu.Root.Collider)
	}
	if wheel.Trigger() {
		t.Error("wheel reports trigger")
	}
	if wheel.SuspensionSpring != (MuSpring{Spring: 300, Damper: 30, TargetPosition: 0.5}) {
		t.Errorf("spring = %+v", wheel.SuspensionSpring)
	}
	if wheel.SidewaysFriction.Stiffness != 8 || wheel.ForwardFriction.ExtremumSlip != 1 {
		t.Errorf("friction = %+v / %+v", wheel.ForwardFriction, wheel.SidewaysFriction)
	}
}

func TestParseMuDeterministic(t *testing.T) {
	data := sampleMu()
	a, err := ParseMu(data)
	if err != nil {
		t.Fatal(err)
	}
	b, err := ParseMu(data)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("decoding the same bytes twice produced different models")
	}
}

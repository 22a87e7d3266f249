package formats

import (
	"reflect"
	"testing"
)

func animatedMu() []byte {
	b := newMu()
	b.node("door", func(p *muBuilder) {
		p.block(TagAnimation, func(a *muBuilder) {
			a.i32(2)
			a.str("Open").i32(2)
			a.str("hinge").str("m_LocalRotation.y").i32(2)
			a.f32(0, 0, 0, 1).f32(1.5, 0.7, 1, 0)
			a.str("").str("m_LocalPosition.x").i32(1)
			a.f32(0.25, 3, 0, 0)
			a.str("Idle").i32(0)
			a.str("Open").boolean(true)
		})
		p.block(TagChildren, func(c *muBuilder) {
			c.i32(1)
			c.node("hinge", nil)
		})
	})
	return b.bytes()
}

func TestAnimationDecode(t *testing.T) {
	mu, err := ParseMu(animatedMu())
	if err != nil {
		t.Fatal(err)
	}
	if !mu.HasAnimation() {
		t.Fatal("HasAnimation = false")
	}
	anim := mu.Root.Animation
	if anim.DefaultClip != "Open" || !anim.AutoPlay {
		t.Errorf("default = %q autoplay = %v", anim.DefaultClip, anim.AutoPlay)
	}
	if len(anim.Clips) != 2 || anim.Clip("Idle") == nil || anim.Clip("Close") != nil {
		t.Fatalf("clips = %+v", anim.Clips)
	}

	open := anim.Clip("Open")
	if open.Curves[0].Property != "m_LocalRotation.y" {
		t.Errorf("property = %q, want channel suffix kept", open.Curves[0].Property)
	}
	wantKeys := []MuKey{
		{Time: 0, Value: 0, Tangent: [2]float32{0, 1}},
		{Time: 1.5, Value: 0.7, Tangent: [2]float32{1, 0}},
	}
	if !reflect.DeepEqual(open.Curves[0].Keys, wantKeys) {
		t.Errorf("keys = %+v, want %+v", open.Curves[0].Keys, wantKeys)
	}
	if open.Duration() != 1.5 {
		t.Errorf("Duration = %v, want 1.5", open.Duration())
	}
	if anim.Clip("Idle").Duration() != 0 {
		t.Error("empty clip has non-zero duration")
	}
}

func TestResolveCurveTarget(t *testing.T) {
	mu, err := ParseMu(animatedMu())
	if err != nil {
		t.Fatal(err)
	}
	open := mu.Root.Animation.Clip("Open")

	node, path, ok := mu.ResolveCurveTarget(mu.Root, open.Curves[0])
	if !ok || path != "door/hinge" || node.Name != "hinge" {
		t.Errorf("curve 0 target = %v, %q, %v", node, path, ok)
	}
	node, path, ok = mu.ResolveCurveTarget(mu.Root, open.Curves[1])
	if !ok || path != "door" || node != mu.Root {
		t.Errorf("curve 1 target = %v, %q, %v", node, path, ok)
	}
	_, path, ok = mu.ResolveCurveTarget(mu.Root, MuCurve{Path: "missing"})
	if ok || path != "door/missing" {
		t.Errorf("missing target = %q, %v", path, ok)
	}
}

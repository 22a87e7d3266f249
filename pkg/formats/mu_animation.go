package formats

import "fmt"

// MuKey is one keyframe. Tangent holds the incoming and outgoing slopes.
type MuKey struct {
	Time    float32
	Value   float32
	Tangent [2]float32
}

// MuCurve animates one property. Path is relative to the node owning the
// animation; empty means the owner itself. Property is kept verbatim,
// including channel suffixes such as "m_LocalPosition.x".
type MuCurve struct {
	Path     string
	Property string
	Keys     []MuKey
}

// MuClip is a named set of curves.
type MuClip struct {
	Name   string
	Curves []MuCurve
}

// MuAnimation is an animation component.
type MuAnimation struct {
	Clips       []*MuClip
	DefaultClip string
	AutoPlay    bool
}

// Clip returns the clip with the given name, or nil.
func (a *MuAnimation) Clip(name string) *MuClip {
	for _, clip := range a.Clips {
		if clip.Name == name {
			return clip
		}
	}
	return nil
}

// Duration returns the time of the last key across all curves.
func (c *MuClip) Duration() float32 {
	var end float32
	for _, curve := range c.Curves {
		if n := len(curve.Keys); n > 0 && curve.Keys[n-1].Time > end {
			end = curve.Keys[n-1].Time
		}
	}
	return end
}

func decodeAnimation(c *Cursor) (*MuAnimation, error) {
	clipCount, err := c.Count(5)
	if err != nil {
		return nil, err
	}
	anim := &MuAnimation{Clips: make([]*MuClip, clipCount)}
	for i := range anim.Clips {
		clip, err := decodeClip(c)
		if err != nil {
			return nil, fmt.Errorf("clip %d: %w", i, err)
		}
		anim.Clips[i] = clip
	}
	if anim.DefaultClip, err = c.ReadString(); err != nil {
		return nil, err
	}
	if anim.AutoPlay, err = c.Bool(); err != nil {
		return nil, err
	}
	return anim, nil
}

func decodeClip(c *Cursor) (*MuClip, error) {
	clip := &MuClip{}
	var err error
	if clip.Name, err = c.ReadString(); err != nil {
		return nil, err
	}
	curveCount, err := c.Count(6)
	if err != nil {
		return nil, err
	}
	clip.Curves = make([]MuCurve, curveCount)
	for i := range clip.Curves {
		curve := &clip.Curves[i]
		if curve.Path, err = c.ReadString(); err != nil {
			return nil, fmt.Errorf("%q curve %d: %w", clip.Name, i, err)
		}
		if curve.Property, err = c.ReadString(); err != nil {
			return nil, fmt.Errorf("%q curve %d: %w", clip.Name, i, err)
		}
		keyCount, err := c.Count(16)
		if err != nil {
			return nil, fmt.Errorf("%q curve %q: %w", clip.Name, curve.Property, err)
		}
		raw := make([]float32, keyCount*4)
		if err := c.float32s(raw); err != nil {
			return nil, fmt.Errorf("%q curve %q keys: %w", clip.Name, curve.Property, err)
		}
		curve.Keys = make([]MuKey, keyCount)
		for k := range curve.Keys {
			f := raw[k*4 : k*4+4]
			curve.Keys[k] = MuKey{Time: f[0], Value: f[1], Tangent: [2]float32{f[2], f[3]}}
		}
	}
	return clip, nil
}

package importer

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/mu-import/pkg/formats"
)

// Keyframe is a Bezier key in frame/value space with free handles.
type Keyframe struct {
	Co          [2]float32
	HandleLeft  [2]float32
	HandleRight [2]float32
}

// FCurve animates one channel of a data path.
type FCurve struct {
	DataPath  string
	Index     int
	Property  string // source curve property
	Keyframes []Keyframe
}

// Action is the set of curves one clip applies to one subject.
type Action struct {
	Name     string // clip.path.subject
	Clip     string
	Path     string // curve path relative to the animation owner
	Subject  Subject
	Object   *Object
	Material *Material // set for SubjectMaterial
	FCurves  []*FCurve
}

// Track plays one action. It is named after the clip.
type Track struct {
	Name   string
	Action *Action
}

// endHandle is the handle offset used on the outer side of the first and
// last keys.
const endHandle = 10

// createActions binds the curves of one clip owned by node. Curves whose
// target or property cannot be bound are skipped with a warning.
func (p *planner) createActions(node *formats.MuNode, clip *formats.MuClip) {
	var order []string
	actions := make(map[string]*Action)

	for _, curve := range clip.Curves {
		target, path, ok := p.mu.ResolveCurveTarget(node, curve)
		obj := p.scene.objects[target]
		if !ok || obj == nil {
			p.warn(fmt.Errorf("%w: %s", ErrUnknownPath, path), zap.String("clip", clip.Name))
			continue
		}

		b, err := bind(obj, curve.Property)
		if err == nil && b.Subject == SubjectData && obj.Light == nil {
			err = fmt.Errorf("%w: %s needs a light", ErrUnknownProperty, curve.Property)
		}
		if err != nil {
			p.warn(fmt.Errorf("%s: %w", path, err), zap.String("clip", clip.Name))
			continue
		}

		subject := b.Subject.String()
		if b.Material != nil {
			subject = b.Material.Name
		}
		name := clip.Name + "." + curve.Path + "." + subject
		act, ok := actions[name]
		if !ok {
			act = &Action{
				Name:     name,
				Clip:     clip.Name,
				Path:     curve.Path,
				Subject:  b.Subject,
				Object:   obj,
				Material: b.Material,
			}
			actions[name] = act
			order = append(order, name)
		}
		act.FCurves = append(act.FCurves, &FCurve{
			DataPath:  b.DataPath,
			Index:     b.Index,
			Property:  curve.Property,
			Keyframes: buildKeyframes(curve.Keys, p.opts.FPS, p.opts.FrameStart, b.Multiplier),
		})
	}

	for _, name := range order {
		act := actions[name]
		track := &Track{Name: clip.Name, Action: act}
		if act.Material != nil {
			act.Material.Tracks = append(act.Material.Tracks, track)
		} else {
			act.Object.Tracks = append(act.Object.Tracks, track)
		}
		p.scene.Actions = append(p.scene.Actions, act)
	}
}

// buildKeyframes converts keys to frame space. Each handle reaches one third
// of the way to the neighbouring key along that side's tangent.
func buildKeyframes(keys []formats.MuKey, fps, frameStart, mult float32) []Keyframe {
	out := make([]Keyframe, len(keys))
	for i, key := range keys {
		x, y := key.Time*fps+frameStart, key.Value*mult
		kf := Keyframe{Co: [2]float32{x, y}}

		dx, dy := float32(endHandle), float32(0)
		if i > 0 {
			dist := (key.Time - keys[i-1].Time) / 3
			dx, dy = dist*fps, key.Tangent[0]*dist*mult
		}
		kf.HandleLeft = [2]float32{x - dx, y - dy}

		dx, dy = endHandle, 0
		if i < len(keys)-1 {
			dist := (keys[i+1].Time - key.Time) / 3
			dx, dy = dist*fps, key.Tangent[1]*dist*mult
		}
		kf.HandleRight = [2]float32{x + dx, y + dy}

		out[i] = kf
	}
	return out
}

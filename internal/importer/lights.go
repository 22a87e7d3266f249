package importer

import (
	"fmt"

	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/Faultbox/mu-import/pkg/formats"
)

var lightTypeNames = [...]string{
	formats.MuLightSpot:        "SPOT",
	formats.MuLightDirectional: "SUN",
	formats.MuLightPoint:       "POINT",
	formats.MuLightArea:        "AREA",
}

// clearFlagNames is indexed by clear flags minus one.
var clearFlagNames = [...]string{"SKYBOX", "COLOR", "DEPTH", "NOTHING"}

func degreesToRadians(deg float32) float32 {
	return deg * math32.Pi / 180
}

// expandMask turns a 32-bit layer mask into one flag per layer.
func expandMask(mask uint32) [32]bool {
	var out [32]bool
	for i := range out {
		out[i] = mask&(1<<i) != 0
	}
	return out
}

// orientedObject plans a light or camera: the source rotation followed by
// the host axis correction.
func (p *planner) orientedObject(node *formats.MuNode, kind ObjectKind) *Object {
	obj := p.transformObject(node, kind)
	obj.Rotation = obj.Rotation.Mul(hostAxisCorrection)
	return obj
}

func (p *planner) lightObject(node *formats.MuNode) *Object {
	src := node.Light
	light := &Light{
		Color:       [3]float32{src.Color[0], src.Color[1], src.Color[2]},
		Distance:    src.Range,
		Energy:      src.Intensity,
		CullingMask: expandMask(src.CullingMask),
	}
	if src.Type >= 0 && int(src.Type) < len(lightTypeNames) {
		light.Type = lightTypeNames[src.Type]
	} else {
		p.warn(fmt.Errorf("%w: node %q light type %d", ErrUnknownEnum, node.Name, src.Type),
			zap.String("node", node.Name))
		light.Type = lightTypeNames[formats.MuLightPoint]
	}
	if src.Type == formats.MuLightSpot && src.HasSpotAngle {
		light.SpotSize = degreesToRadians(src.SpotAngle)
		light.HasSpotSize = true
	}

	obj := p.orientedObject(node, KindLight)
	obj.Light = light
	return obj
}

func (p *planner) cameraObject(node *formats.MuNode) *Object {
	src := node.Camera
	cam := &Camera{
		Type:            "PERSP",
		Angle:           degreesToRadians(src.FieldOfView),
		ClipStart:       src.Near,
		ClipEnd:         src.Far,
		BackgroundColor: src.BackgroundColor,
		Depth:           src.Depth,
		CullingMask:     expandMask(src.CullingMask),
	}
	if src.Orthographic {
		cam.Type = "ORTHO"
	}
	if src.ClearFlags > 0 {
		if i := int(src.ClearFlags) - 1; i < len(clearFlagNames) {
			cam.ClearFlags = clearFlagNames[i]
		} else {
			p.warn(fmt.Errorf("%w: node %q clear flags %d", ErrUnknownEnum, node.Name, src.ClearFlags),
				zap.String("node", node.Name))
		}
	}

	obj := p.orientedObject(node, KindCamera)
	obj.Camera = cam
	return obj
}

package gltfexport

import (
	"github.com/Faultbox/mu-import/internal/importer"
)

// objectExtras collects the plan data glTF has no slot for.
func objectExtras(obj *importer.Object) map[string]any {
	extras := make(map[string]any)
	if obj.Node != nil && obj.Kind != importer.KindCollider {
		extras["mu_path"] = obj.Path
	}
	if obj.Tag != "" {
		extras["mu_tag"] = obj.Tag
	}
	if obj.Layer != 0 {
		extras["mu_layer"] = obj.Layer
	}
	if obj.Light != nil {
		extras["mu_light"] = lightExtras(obj.Light)
	}
	if obj.Camera != nil {
		extras["mu_camera"] = map[string]any{
			"clear_flags":      obj.Camera.ClearFlags,
			"background_color": obj.Camera.BackgroundColor,
			"depth":            obj.Camera.Depth,
			"culling_mask":     maskLayers(obj.Camera.CullingMask),
		}
	}
	if obj.Collider != nil {
		extras["mu_collider"] = colliderExtras(obj.Collider)
	}
	if len(obj.Tracks) > 0 {
		tracks := make([]map[string]any, len(obj.Tracks))
		for i, tr := range obj.Tracks {
			tracks[i] = map[string]any{
				"name":   tr.Name,
				"action": tr.Action.Name,
				"curves": len(tr.Action.FCurves),
			}
		}
		extras["mu_tracks"] = tracks
	}
	return extras
}

func lightExtras(l *importer.Light) map[string]any {
	m := map[string]any{
		"type":         l.Type,
		"color":        l.Color,
		"energy":       l.Energy,
		"distance":     l.Distance,
		"culling_mask": maskLayers(l.CullingMask),
	}
	if l.HasSpotSize {
		m["spot_size"] = l.SpotSize
	}
	return m
}

func colliderExtras(c *importer.Collider) map[string]any {
	m := map[string]any{
		"kind":       string(c.Kind),
		"is_trigger": c.IsTrigger,
	}
	switch c.Kind {
	case importer.ColliderSphere:
		m["radius"] = c.Radius
		m["center"] = c.Center
	case importer.ColliderCapsule:
		m["radius"] = c.Radius
		m["height"] = c.Height
		m["direction"] = c.Direction
		m["center"] = c.Center
	case importer.ColliderBox:
		m["size"] = c.Size
		m["center"] = c.Center
	case importer.ColliderWheel:
		m["radius"] = c.Radius
		m["center"] = c.Center
		m["mass"] = c.Mass
		m["suspension_distance"] = c.SuspensionDistance
		m["suspension_spring"] = c.SuspensionSpring
		m["forward_friction"] = c.ForwardFriction
		m["side_friction"] = c.SideFriction
	}
	return m
}

// maskLayers lists the enabled layer numbers.
func maskLayers(mask [32]bool) []int {
	layers := []int{}
	for i, on := range mask {
		if on {
			layers = append(layers, i)
		}
	}
	return layers
}

package importer

import (
	"fmt"
	"strings"

	"github.com/Faultbox/mu-import/pkg/formats"
)

// Subject is what an animation curve drives.
type Subject int

const (
	SubjectObject   Subject = iota // the object transform
	SubjectData                    // the light or camera data block
	SubjectMaterial                // a shader property of a material
)

// String returns the subject name used in action keys.
func (s Subject) String() string {
	switch s {
	case SubjectObject:
		return "obj"
	case SubjectData:
		return "data"
	case SubjectMaterial:
		return "mat"
	default:
		return fmt.Sprintf("Subject(%d)", int(s))
	}
}

// Binding maps a curve property onto one host channel.
type Binding struct {
	Subject    Subject
	DataPath   string
	Index      int
	Multiplier float32

	// Material is set for shader-property bindings.
	Material *Material
}

// propertyMap binds Unity transform and light properties. The indices and
// signs apply the same axis remap as hostVector and hostQuat; rotation
// indices are in W, X, Y, Z order.
var propertyMap = map[string]Binding{
	"m_LocalPosition.x": {SubjectObject, "location", 0, 1, nil},
	"m_LocalPosition.y": {SubjectObject, "location", 2, 1, nil},
	"m_LocalPosition.z": {SubjectObject, "location", 1, 1, nil},
	"m_LocalRotation.x": {SubjectObject, "rotation_quaternion", 1, -1, nil},
	"m_LocalRotation.y": {SubjectObject, "rotation_quaternion", 3, -1, nil},
	"m_LocalRotation.z": {SubjectObject, "rotation_quaternion", 2, -1, nil},
	"m_LocalRotation.w": {SubjectObject, "rotation_quaternion", 0, 1, nil},
	"m_LocalScale.x":    {SubjectObject, "scale", 0, 1, nil},
	"m_LocalScale.y":    {SubjectObject, "scale", 2, 1, nil},
	"m_LocalScale.z":    {SubjectObject, "scale", 1, 1, nil},
	"m_Intensity":       {SubjectData, "energy", 0, 1, nil},
	"m_Color.r":         {SubjectData, "color", 0, 1, nil},
	"m_Color.g":         {SubjectData, "color", 1, 1, nil},
	"m_Color.b":         {SubjectData, "color", 2, 1, nil},
	"m_Color.a":         {SubjectData, "color", 3, 1, nil},
}

// vectorChannels maps shader property channel suffixes to component indices.
var vectorChannels = map[string]int{
	"r": 0, "g": 1, "b": 2, "a": 3,
	"x": 0, "y": 1, "z": 2, "w": 3,
}

// bind resolves a curve property against the object it animates.
func bind(obj *Object, property string) (Binding, error) {
	if b, ok := propertyMap[property]; ok {
		return b, nil
	}
	return shaderProperty(obj, property)
}

// shaderProperty binds "<name>[.<channel>]" to the first material of obj's
// mesh that declares name, searching each material's groups in storage
// order.
func shaderProperty(obj *Object, property string) (Binding, error) {
	name, channel, _ := strings.Cut(property, ".")
	if obj == nil || obj.Mesh == nil || len(obj.Mesh.Materials) == 0 {
		return Binding{}, fmt.Errorf("%w: %s", ErrUnknownProperty, property)
	}
	for _, mat := range obj.Mesh.Materials {
		kind, idx, ok := mat.Source.Lookup(name)
		if !ok {
			continue
		}
		b := Binding{
			Subject:    SubjectMaterial,
			DataPath:   fmt.Sprintf("%s[%d].value", kind, idx),
			Multiplier: 1,
			Material:   mat,
		}
		switch kind {
		case formats.MuPropertyTexture:
			return Binding{}, fmt.Errorf("%w: texture property %s", ErrUnsupportedProperty, property)
		case formats.MuPropertyFloat2, formats.MuPropertyFloat:
			b.Index = 0
		default:
			i, ok := vectorChannels[channel]
			if !ok {
				return Binding{}, fmt.Errorf("%w: %s has no channel %q", ErrUnknownProperty, property, channel)
			}
			b.Index = i
		}
		return b, nil
	}
	return Binding{}, fmt.Errorf("%w: %s", ErrUnknownProperty, property)
}

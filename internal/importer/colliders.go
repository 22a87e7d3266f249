package importer

import (
	"fmt"

	"github.com/jinzhu/copier"
	"go.uber.org/zap"

	"github.com/Faultbox/mu-import/pkg/formats"
	"github.com/Faultbox/mu-import/pkg/math"
)

// ColliderKind names a collider shape.
type ColliderKind string

const (
	ColliderMesh    ColliderKind = "MU_COL_MESH"
	ColliderSphere  ColliderKind = "MU_COL_SPHERE"
	ColliderCapsule ColliderKind = "MU_COL_CAPSULE"
	ColliderBox     ColliderKind = "MU_COL_BOX"
	ColliderWheel   ColliderKind = "MU_COL_WHEEL"
)

var directionNames = [...]string{"X", "Y", "Z"}

// Spring is a wheel suspension spring.
type Spring struct {
	Spring         float32
	Damper         float32
	TargetPosition float32
}

// Friction is a wheel friction curve.
type Friction struct {
	ExtremumSlip  float32
	ExtremumValue float32
	AsymptoteSlip float32
	Stiffness     float32
}

// Collider holds the collider properties a host stores on the collider
// object. Only the fields of Kind are meaningful.
type Collider struct {
	Kind      ColliderKind
	IsTrigger bool

	Radius    float32
	Height    float32
	Direction string // X, Y or Z
	Center    [3]float32
	Size      [3]float32

	Mass               float32
	SuspensionDistance float32
	SuspensionSpring   Spring
	ForwardFriction    Friction
	SideFriction       Friction
}

func (p *planner) createCollider(node *formats.MuNode, owner *Object) {
	name := node.Name
	col := &Collider{IsTrigger: node.Collider.Trigger()}
	var mesh *Mesh

	switch src := node.Collider.(type) {
	case *formats.MuColliderMesh:
		name += ".collider"
		mesh = newMesh(name, src.Mesh)
		col.Kind = ColliderMesh
	case *formats.MuColliderSphere:
		col.Kind = ColliderSphere
		col.Radius = src.Radius
		col.Center = hostVector(src.Center)
	case *formats.MuColliderCapsule:
		col.Kind = ColliderCapsule
		col.Radius = src.Radius
		col.Height = src.Height
		col.Center = hostVector(src.Center)
		if src.Direction >= 0 && int(src.Direction) < len(directionNames) {
			col.Direction = directionNames[src.Direction]
		} else {
			p.warn(fmt.Errorf("%w: node %q capsule direction %d", ErrUnknownEnum, node.Name, src.Direction),
				zap.String("node", node.Name))
		}
	case *formats.MuColliderBox:
		col.Kind = ColliderBox
		col.Size = hostVector(src.Size)
		col.Center = hostVector(src.Center)
	case *formats.MuColliderWheel:
		col.Kind = ColliderWheel
		col.Radius = src.Radius
		col.SuspensionDistance = src.SuspensionDistance
		col.Center = hostVector(src.Center)
		col.Mass = src.Mass
		if err := copyWheel(col, src); err != nil {
			p.warn(fmt.Errorf("node %q wheel: %w", node.Name, err), zap.String("node", node.Name))
		}
	}

	obj := &Object{
		Name:     name,
		Path:     node.Path,
		Kind:     KindCollider,
		Rotation: math.QuatIdentity(),
		Scale:    [3]float32{1, 1, 1},
		Parent:   owner,
		Node:     node,
		Mesh:     mesh,
		Collider: col,
	}
	owner.Children = append(owner.Children, obj)
	p.scene.Objects = append(p.scene.Objects, obj)
}

// copyWheel copies the spring and friction curves field by field.
func copyWheel(dst *Collider, src *formats.MuColliderWheel) error {
	if err := copier.Copy(&dst.SuspensionSpring, &src.SuspensionSpring); err != nil {
		return err
	}
	if err := copier.Copy(&dst.ForwardFriction, &src.ForwardFriction); err != nil {
		return err
	}
	return copier.Copy(&dst.SideFriction, &src.SidewaysFriction)
}

package formats

import "fmt"

// MuCollider is a collision shape attached to a node. It is implemented only
// by the MuCollider* types of this package; consumers switch on the
// concrete type.
type MuCollider interface {
	// Trigger reports whether the collider only raises trigger events.
	// Wheels are never triggers.
	Trigger() bool
	isMuCollider()
}

// MuColliderMesh collides against an arbitrary mesh.
type MuColliderMesh struct {
	IsTrigger bool
	Convex    bool
	Mesh      *MuMesh
}

// MuColliderSphere is a sphere around Center.
type MuColliderSphere struct {
	IsTrigger bool
	Radius    float32
	Center    [3]float32
}

// MuColliderCapsule is a capsule along the Direction axis (0=X, 1=Y, 2=Z).
type MuColliderCapsule struct {
	IsTrigger bool
	Radius    float32
	Height    float32
	Direction int32
	Center    [3]float32
}

// MuColliderBox is an axis-aligned box of Size around Center.
type MuColliderBox struct {
	IsTrigger bool
	Size      [3]float32
	Center    [3]float32
}

// MuSpring is a wheel suspension spring.
type MuSpring struct {
	Spring         float32
	Damper         float32
	TargetPosition float32
}

// MuWheelFriction is one of a wheel's tyre friction curves.
type MuWheelFriction struct {
	ExtremumSlip  float32
	ExtremumValue float32
	AsymptoteSlip float32
	Stiffness     float32
}

// MuColliderWheel is a vehicle wheel.
type MuColliderWheel struct {
	Mass               float32
	Radius             float32
	SuspensionDistance float32
	Center             [3]float32
	SuspensionSpring   MuSpring
	ForwardFriction    MuWheelFriction
	SidewaysFriction   MuWheelFriction
}

func (c *MuColliderMesh) Trigger() bool    { return c.IsTrigger }
func (c *MuColliderSphere) Trigger() bool  { return c.IsTrigger }
func (c *MuColliderCapsule) Trigger() bool { return c.IsTrigger }
func (c *MuColliderBox) Trigger() bool     { return c.IsTrigger }
func (c *MuColliderWheel) Trigger() bool   { return false }

func (*MuColliderMesh) isMuCollider()    {}
func (*MuColliderSphere) isMuCollider()  {}
func (*MuColliderCapsule) isMuCollider() {}
func (*MuColliderBox) isMuCollider()     {}
func (*MuColliderWheel) isMuCollider()   {}

func (s *muDecodeState) decodeCollider(tag BlockTag, c *Cursor, owner string) (MuCollider, error) {
	switch tag {
	case TagColliderMesh:
		col := &MuColliderMesh{}
		var err error
		if col.IsTrigger, err = c.Bool(); err != nil {
			return nil, err
		}
		if col.Convex, err = c.Bool(); err != nil {
			return nil, err
		}
		if col.Mesh, err = s.decodeMesh(c, owner); err != nil {
			return nil, err
		}
		return col, nil

	case TagColliderSphere:
		col := &MuColliderSphere{}
		var err error
		if col.IsTrigger, err = c.Bool(); err != nil {
			return nil, err
		}
		if col.Radius, err = c.Float32(); err != nil {
			return nil, err
		}
		if col.Center, err = c.Vec3(); err != nil {
			return nil, err
		}
		return col, nil

	case TagColliderCapsule:
		col := &MuColliderCapsule{}
		var err error
		if col.IsTrigger, err = c.Bool(); err != nil {
			return nil, err
		}
		if col.Radius, err = c.Float32(); err != nil {
			return nil, err
		}
		if col.Height, err = c.Float32(); err != nil {
			return nil, err
		}
		if col.Direction, err = c.Int32(); err != nil {
			return nil, err
		}
		if col.Center, err = c.Vec3(); err != nil {
			return nil, err
		}
		return col, nil

	case TagColliderBox:
		col := &MuColliderBox{}
		var err error
		if col.IsTrigger, err = c.Bool(); err != nil {
			return nil, err
		}
		if col.Size, err = c.Vec3(); err != nil {
			return nil, err
		}
		if col.Center, err = c.Vec3(); err != nil {
			return nil, err
		}
		return col, nil

	case TagColliderWheel:
		col := &MuColliderWheel{}
		var err error
		if col.Mass, err = c.Float32(); err != nil {
			return nil, err
		}
		if col.Radius, err = c.Float32(); err != nil {
			return nil, err
		}
		if col.SuspensionDistance, err = c.Float32(); err != nil {
			return nil, err
		}
		if col.Center, err = c.Vec3(); err != nil {
			return nil, err
		}
		var f [11]float32
		if err = c.float32s(f[:]); err != nil {
			return nil, err
		}
		col.SuspensionSpring = MuSpring{Spring: f[0], Damper: f[1], TargetPosition: f[2]}
		col.ForwardFriction = wheelFriction(f[3:7])
		col.SidewaysFriction = wheelFriction(f[7:11])
		return col, nil
	}
	return nil, fmt.Errorf("%w: %s is not a collider", ErrMalformedBlock, tag)
}

func wheelFriction(f []float32) MuWheelFriction {
	return MuWheelFriction{ExtremumSlip: f[0], ExtremumValue: f[1], AsymptoteSlip: f[2], Stiffness: f[3]}
}

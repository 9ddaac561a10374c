// Package world holds the externally owned objects that physics states move.
package world

import (
	"fmt"

	"github.com/san-kum/parallelphysics/internal/dynamo"
)

// Locatable exposes a mutable position. Implementations must return the same
// pointer on every call.
type Locatable interface {
	Location() *dynamo.Vec3
}

// Mover is a Locatable that also exposes a mutable velocity.
type Mover interface {
	Locatable
	Motion() *dynamo.Vec3
}

// Object is a named point in world space.
type Object struct {
	Name     string
	Position dynamo.Vec3
	Velocity dynamo.Vec3
}

func NewObject(name string) *Object {
	return &Object{Name: name}
}

func (o *Object) Location() *dynamo.Vec3 { return &o.Position }
func (o *Object) Motion() *dynamo.Vec3   { return &o.Velocity }

func (o *Object) String() string {
	return fmt.Sprintf("%s pos=(%.4f, %.4f, %.4f) vel=(%.4f, %.4f, %.4f)", o.Name,
		o.Position[0], o.Position[1], o.Position[2],
		o.Velocity[0], o.Velocity[1], o.Velocity[2])
}

// Drifter moves its object at a constant rate per second, the simplest
// physics-bearing object there is.
type Drifter struct {
	Object       Mover
	PositionRate dynamo.Vec3
	VelocityRate dynamo.Vec3
}

func (d *Drifter) UpdatePhysics(dt float64) error {
	if !dynamo.IsFinite(dt) || dt < 0 {
		return dynamo.Domainf("drifter: timestep %v", dt)
	}
	pos := d.Object.Location()
	vel := d.Object.Motion()
	*pos = pos.Add(d.PositionRate.Mul(dt))
	*vel = vel.Add(d.VelocityRate.Mul(dt))
	return nil
}

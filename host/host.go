// Package host declares the interfaces the particle core expects the
// surrounding rigid-body physics engine to provide. The rigid-body
// world, its broad-phase AABB queries, fixture ray-casts/distance
// queries, and destruction-listener callbacks are an external
// collaborator's responsibility, not this core's. Every
// type in this package is therefore an interface (or a small immutable
// value type describing a call's shape) with no behavior of its own —
// package hostworld supplies the one concrete implementation used by
// this module's own tests and CLI demo.
package host

import "github.com/pthm-cable/particles/geom"

// AABB is an axis-aligned bounding box in world space.
type AABB struct {
	Lower, Upper geom.Vec2
}

// Contains reports whether p lies within the box (inclusive).
func (a AABB) Contains(p geom.Vec2) bool {
	return p.X >= a.Lower.X && p.X <= a.Upper.X && p.Y >= a.Lower.Y && p.Y <= a.Upper.Y
}

// Extend returns the smallest AABB containing a and b.
func Extend(a, b AABB) AABB {
	return AABB{
		Lower: geom.Vec2{X: min32(a.Lower.X, b.Lower.X), Y: min32(a.Lower.Y, b.Lower.Y)},
		Upper: geom.Vec2{X: max32(a.Upper.X, b.Upper.X), Y: max32(a.Upper.Y, b.Upper.Y)},
	}
}

// Inflate grows the box by r on every side.
func (a AABB) Inflate(r float32) AABB {
	return AABB{
		Lower: geom.Vec2{X: a.Lower.X - r, Y: a.Lower.Y - r},
		Upper: geom.Vec2{X: a.Upper.X + r, Y: a.Upper.Y + r},
	}
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

// RayCastInput describes a segment ray-cast against a single fixture.
type RayCastInput struct {
	P1, P2      geom.Vec2
	MaxFraction float32
}

// RayCastOutput is the result of a successful fixture ray-cast.
type RayCastOutput struct {
	Normal   geom.Vec2
	Fraction float32
}

// Shape is a single collidable shape owned by a Fixture.
type Shape interface {
	ChildCount() int
	ComputeAABB(xf geom.Transform, child int) AABB
	TestPoint(xf geom.Transform, p geom.Vec2) bool
}

// Body is a single rigid body owned by the host world.
type Body interface {
	WorldCenter() geom.Vec2
	Mass() float32
	Inertia() float32
	LocalCenter() geom.Vec2
	LinearVelocityFromWorldPoint(p geom.Vec2) geom.Vec2
	ApplyLinearImpulse(impulse, point geom.Vec2, wake bool)
}

// Fixture is a shape attached to a body, as queried by the broad phase.
type Fixture interface {
	Shape() Shape
	Body() Body
	AABB(child int) AABB
	// ComputeDistance returns the signed distance from p to the fixture's
	// surface (negative if p is inside) along with the surface normal at
	// the closest point.
	ComputeDistance(p geom.Vec2) (dist float32, normal geom.Vec2)
	RayCast(input RayCastInput, child int) (out RayCastOutput, hit bool)
	IsSensor() bool
}

// FixtureCallback receives one fixture per broad-phase hit. Returning
// false stops the enumeration early.
type FixtureCallback func(f Fixture) bool

// World is the rigid-body world the particle core queries and applies
// impulses to. It never queries the particle core itself.
type World interface {
	// QueryAABB invokes cb once per fixture whose AABB overlaps box,
	// until cb returns false or every overlapping fixture was visited.
	QueryAABB(box AABB, cb FixtureCallback)
	Gravity() geom.Vec2
}

// DestructionListener is notified when particles or groups are
// destroyed with their destruction-listener flag set.
type DestructionListener interface {
	SayGoodbyeParticle(index int)
	SayGoodbyeGroup(groupID int)
}

package hostworld

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/particles/components"
	"github.com/pthm-cable/particles/geom"
)

// BodyHandle is a handle to one body inside a World, returned by
// AddCircleBody and usable wherever host.Body is expected.
type BodyHandle struct {
	world  *World
	entity ecs.Entity
}

// Entity exposes the underlying ark entity, for callers that want to
// attach extra components (e.g. for rendering) of their own.
func (b BodyHandle) Entity() ecs.Entity { return b.entity }

// WorldCenter implements host.Body.
func (b BodyHandle) WorldCenter() geom.Vec2 {
	pos := b.world.posMap.Get(b.entity)
	return geom.Vec2{X: pos.X, Y: pos.Y}
}

// Mass implements host.Body, treating the circle as a uniform disk.
func (b BodyHandle) Mass() float32 {
	body := b.world.bodyMap.Get(b.entity)
	return body.Density * float32(math.Pi) * body.Radius * body.Radius
}

// Inertia implements host.Body: a solid disk's moment about its center
// is 1/2 m r^2.
func (b BodyHandle) Inertia() float32 {
	return 0.5 * b.Mass() * b.radius() * b.radius()
}

func (b BodyHandle) radius() float32 {
	return b.world.bodyMap.Get(b.entity).Radius
}

// LocalCenter implements host.Body. A circle's centroid coincides with
// its body origin, so this is always the zero vector.
func (b BodyHandle) LocalCenter() geom.Vec2 { return geom.Vec2{} }

// LinearVelocityFromWorldPoint implements host.Body: v + ω × r, the
// velocity of the material point currently at p.
func (b BodyHandle) LinearVelocityFromWorldPoint(p geom.Vec2) geom.Vec2 {
	vel := b.world.velMap.Get(b.entity)
	rot := b.rotation()
	center := b.WorldCenter()
	r := geom.Sub(p, center)
	return geom.Add(geom.Vec2{X: vel.X, Y: vel.Y}, geom.Scale(geom.Perp(r), rot.AngVel))
}

func (b BodyHandle) rotation() components.Rotation {
	if !b.world.rotMap.Has(b.entity) {
		return components.Rotation{}
	}
	return *b.world.rotMap.Get(b.entity)
}

// ApplyLinearImpulse implements host.Body, updating linear velocity
// directly and, when the body has a rotation component, its spin from
// the impulse's torque about the body's center.
func (b BodyHandle) ApplyLinearImpulse(impulse, point geom.Vec2, wake bool) {
	_ = wake // this reference world never sleeps bodies

	mass := b.Mass()
	if mass <= 0 {
		return
	}
	vel := b.world.velMap.Get(b.entity)
	vel.X += impulse.X / mass
	vel.Y += impulse.Y / mass

	if b.world.rotMap.Has(b.entity) {
		rot := b.world.rotMap.Get(b.entity)
		inertia := b.Inertia()
		if inertia > 0 {
			r := geom.Sub(point, b.WorldCenter())
			torque := geom.Cross(r, impulse)
			rot.AngVel += torque / inertia
		}
	}
}

// EnableRotation attaches a Rotation component to an existing body, so
// that subsequent ApplyLinearImpulse calls also spin it up.
func (b BodyHandle) EnableRotation() {
	if !b.world.rotMap.Has(b.entity) {
		b.world.rotMap.Add(b.entity, &components.Rotation{})
	}
}

// Step advances every body's position by its current linear velocity
// and, for rotating bodies, its heading by its angular velocity. The
// particle core never calls this: it only ever reads body state and
// applies impulses, leaving rigid bodies owned and stepped by the
// host. A CLI demo calls it once per tick alongside particle.System.Solve.
func (w *World) Step(dt float32) {
	for _, e := range w.entities {
		if !w.ecsWorld.Alive(e) {
			continue
		}
		pos := w.posMap.Get(e)
		vel := w.velMap.Get(e)
		pos.X += vel.X * dt
		pos.Y += vel.Y * dt
		if w.rotMap.Has(e) {
			rot := w.rotMap.Get(e)
			rot.Heading += rot.AngVel * dt
		}
	}
}

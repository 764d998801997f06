package hostworld

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/particles/geom"
	"github.com/pthm-cable/particles/host"
)

// Circle is a host.Shape wrapping a single circle in body-local space
// (always centered on the body's origin, since BodyHandle has no
// separate fixture offset).
type Circle struct {
	Radius float32
}

// ChildCount implements host.Shape. A circle has exactly one child.
func (c Circle) ChildCount() int { return 1 }

// ComputeAABB implements host.Shape.
func (c Circle) ComputeAABB(xf geom.Transform, child int) host.AABB {
	center := xf.Apply(geom.Vec2{})
	return host.AABB{
		Lower: geom.Vec2{X: center.X - c.Radius, Y: center.Y - c.Radius},
		Upper: geom.Vec2{X: center.X + c.Radius, Y: center.Y + c.Radius},
	}
}

// TestPoint implements host.Shape.
func (c Circle) TestPoint(xf geom.Transform, p geom.Vec2) bool {
	center := xf.Apply(geom.Vec2{})
	return geom.DistSq(p, center) <= c.Radius*c.Radius
}

// Fixture is a Circle attached to one body, as handed to the particle
// core's body-contact queries.
type Fixture struct {
	world  *World
	entity ecs.Entity
}

// Shape implements host.Fixture.
func (f Fixture) Shape() host.Shape {
	c := f.world.bodyMap.Get(f.entity)
	return Circle{Radius: c.Radius}
}

// Body implements host.Fixture.
func (f Fixture) Body() host.Body {
	return BodyHandle{world: f.world, entity: f.entity}
}

// AABB implements host.Fixture.
func (f Fixture) AABB(child int) host.AABB {
	body := BodyHandle{world: f.world, entity: f.entity}
	c := f.world.bodyMap.Get(f.entity)
	center := body.WorldCenter()
	return host.AABB{
		Lower: geom.Vec2{X: center.X - c.Radius, Y: center.Y - c.Radius},
		Upper: geom.Vec2{X: center.X + c.Radius, Y: center.Y + c.Radius},
	}
}

// ComputeDistance implements host.Fixture.
func (f Fixture) ComputeDistance(p geom.Vec2) (float32, geom.Vec2) {
	body := BodyHandle{world: f.world, entity: f.entity}
	c := f.world.bodyMap.Get(f.entity)
	center := body.WorldCenter()
	toP := geom.Sub(p, center)
	dist := geom.Len(toP)
	normal := geom.Normalized(toP, geom.Vec2{X: 1})
	return dist - c.Radius, normal
}

// RayCast implements host.Fixture: a segment-vs-circle intersection
// identical in form to the particle core's own particle-vs-ray test.
func (f Fixture) RayCast(input host.RayCastInput, child int) (host.RayCastOutput, bool) {
	body := BodyHandle{world: f.world, entity: f.entity}
	c := f.world.bodyMap.Get(f.entity)
	center := body.WorldCenter()

	d := geom.Sub(input.P2, input.P1)
	s := geom.Sub(input.P1, center)
	a := geom.Dot(d, d)
	b := 2 * geom.Dot(s, d)
	cc := geom.Dot(s, s) - c.Radius*c.Radius
	disc := b*b - 4*a*cc
	if disc < 0 || a == 0 {
		return host.RayCastOutput{}, false
	}
	sq := float32(math.Sqrt(float64(disc)))
	t := (-b - sq) / (2 * a)
	if t < 0 || t > input.MaxFraction {
		return host.RayCastOutput{}, false
	}
	hitPoint := geom.Add(input.P1, geom.Scale(d, t))
	normal := geom.Normalized(geom.Sub(hitPoint, center), geom.Vec2{X: 1})
	return host.RayCastOutput{Normal: normal, Fraction: t}, true
}

// IsSensor implements host.Fixture. Reference bodies are always solid.
func (f Fixture) IsSensor() bool { return false }

// Package hostworld is a reference implementation of package host's
// interfaces, backing each rigid body with an mlange-42/ark ECS
// entity the way pthm-soup's game package backs every organism with
// one. It exists for this module's own tests and its CLI demo; a real
// embedding application is expected to supply its own host.World from
// whatever physics engine it already runs.
package hostworld

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/particles/components"
	"github.com/pthm-cable/particles/geom"
	"github.com/pthm-cable/particles/host"
)

// World is a minimal rigid-body world: a fixed set of circular bodies
// an ark ecs.World tracks, plus a constant gravity vector.
type World struct {
	ecsWorld ecs.World
	posMap   *ecs.Map1[components.Position]
	velMap   *ecs.Map1[components.Velocity]
	bodyMap  *ecs.Map1[components.Body]
	rotMap   *ecs.Map1[components.Rotation]
	mapper   *ecs.Map3[components.Position, components.Velocity, components.Body]
	entities []ecs.Entity
	gravity  geom.Vec2
}

// New builds an empty World with the given gravity vector.
func New(gravity geom.Vec2) *World {
	w := ecs.NewWorld()
	return &World{
		ecsWorld: w,
		posMap:   ecs.NewMap1[components.Position](&w),
		velMap:   ecs.NewMap1[components.Velocity](&w),
		bodyMap:  ecs.NewMap1[components.Body](&w),
		rotMap:   ecs.NewMap1[components.Rotation](&w),
		mapper:   ecs.NewMap3[components.Position, components.Velocity, components.Body](&w),
		gravity:  gravity,
	}
}

// AddCircleBody creates a new circular rigid body and returns its
// BodyHandle.
func (w *World) AddCircleBody(center geom.Vec2, radius, density float32) BodyHandle {
	e := w.mapper.NewEntity(
		&components.Position{X: center.X, Y: center.Y},
		&components.Velocity{},
		&components.Body{Radius: radius, Density: density},
	)
	w.entities = append(w.entities, e)
	return BodyHandle{world: w, entity: e}
}

// Gravity implements host.World.
func (w *World) Gravity() geom.Vec2 { return w.gravity }

// QueryAABB implements host.World, brute-force testing every body's
// AABB against box. A reference implementation favors simplicity over
// a real broad phase; a production host.World backed by an actual
// physics engine would use its existing broad-phase structure here.
func (w *World) QueryAABB(box host.AABB, cb host.FixtureCallback) {
	for _, e := range w.entities {
		if !w.ecsWorld.Alive(e) {
			continue
		}
		body := w.bodyMap.Get(e)
		pos := w.posMap.Get(e)
		fixtureBox := circleAABB(geom.Vec2{X: pos.X, Y: pos.Y}, body.Radius)
		if !overlaps(box, fixtureBox) {
			continue
		}
		f := Fixture{world: w, entity: e}
		if !cb(f) {
			return
		}
	}
}

func overlaps(a, b host.AABB) bool {
	return a.Lower.X <= b.Upper.X && a.Upper.X >= b.Lower.X &&
		a.Lower.Y <= b.Upper.Y && a.Upper.Y >= b.Lower.Y
}

func circleAABB(center geom.Vec2, radius float32) host.AABB {
	return host.AABB{
		Lower: geom.Vec2{X: center.X - radius, Y: center.Y - radius},
		Upper: geom.Vec2{X: center.X + radius, Y: center.Y + radius},
	}
}

package hostworld

import (
	"testing"

	"github.com/pthm-cable/particles/geom"
	"github.com/pthm-cable/particles/host"
)

func TestAddCircleBodyIsQueryable(t *testing.T) {
	w := New(geom.Vec2{Y: -9.8})
	w.AddCircleBody(geom.Vec2{X: 1, Y: 1}, 0.5, 1.0)

	var hits int
	w.QueryAABB(host.AABB{
		Lower: geom.Vec2{X: 0, Y: 0},
		Upper: geom.Vec2{X: 2, Y: 2},
	}, func(f host.Fixture) bool {
		hits++
		return true
	})

	if hits != 1 {
		t.Fatalf("expected 1 hit, got %d", hits)
	}
}

func TestQueryAABBSkipsFarBodies(t *testing.T) {
	w := New(geom.Vec2{})
	w.AddCircleBody(geom.Vec2{X: 100, Y: 100}, 0.5, 1.0)

	var hits int
	w.QueryAABB(host.AABB{
		Lower: geom.Vec2{X: -1, Y: -1},
		Upper: geom.Vec2{X: 1, Y: 1},
	}, func(f host.Fixture) bool {
		hits++
		return true
	})

	if hits != 0 {
		t.Fatalf("expected 0 hits, got %d", hits)
	}
}

func TestApplyLinearImpulseChangesVelocity(t *testing.T) {
	w := New(geom.Vec2{})
	handle := w.AddCircleBody(geom.Vec2{}, 1.0, 1.0)

	mass := handle.Mass()
	if mass <= 0 {
		t.Fatalf("expected positive mass, got %f", mass)
	}

	handle.ApplyLinearImpulse(geom.Vec2{X: mass}, handle.WorldCenter(), true)
	v := handle.LinearVelocityFromWorldPoint(handle.WorldCenter())
	if v.X < 0.99 || v.X > 1.01 {
		t.Fatalf("expected velocity.X ~= 1, got %f", v.X)
	}
}

func TestApplyLinearImpulseOffCenterSpinsRotatingBody(t *testing.T) {
	w := New(geom.Vec2{})
	handle := w.AddCircleBody(geom.Vec2{}, 1.0, 1.0)
	handle.EnableRotation()

	point := geom.Add(handle.WorldCenter(), geom.Vec2{Y: 1})
	handle.ApplyLinearImpulse(geom.Vec2{X: 1}, point, true)

	v := handle.LinearVelocityFromWorldPoint(geom.Add(handle.WorldCenter(), geom.Vec2{X: 1}))
	vCenter := handle.LinearVelocityFromWorldPoint(handle.WorldCenter())
	if v == vCenter {
		t.Fatal("expected rotation to make velocity vary with sampled point")
	}
}

func TestStepIntegratesPosition(t *testing.T) {
	w := New(geom.Vec2{})
	handle := w.AddCircleBody(geom.Vec2{}, 0.5, 1.0)
	handle.ApplyLinearImpulse(geom.Vec2{X: handle.Mass()}, handle.WorldCenter(), true)

	w.Step(1.0)

	center := handle.WorldCenter()
	if center.X < 0.99 || center.X > 1.01 {
		t.Fatalf("expected body to have moved to x~=1, got %f", center.X)
	}
}

func TestFixtureComputeDistance(t *testing.T) {
	w := New(geom.Vec2{})
	w.AddCircleBody(geom.Vec2{}, 1.0, 1.0)

	var got host.Fixture
	w.QueryAABB(host.AABB{Lower: geom.Vec2{X: -2, Y: -2}, Upper: geom.Vec2{X: 2, Y: 2}}, func(f host.Fixture) bool {
		got = f
		return false
	})
	if got == nil {
		t.Fatal("expected a fixture hit")
	}

	dist, _ := got.ComputeDistance(geom.Vec2{X: 3})
	if dist < 1.9 || dist > 2.1 {
		t.Fatalf("expected distance ~2, got %f", dist)
	}
}

package particle

import (
	"github.com/pthm-cable/particles/geom"
	"github.com/pthm-cable/particles/host"
)

// rectShape is a minimal host.Shape test double: an axis-aligned
// rectangle centered on the transform's position.
type rectShape struct {
	halfWidth, halfHeight float32
}

func (r rectShape) ChildCount() int { return 1 }

func (r rectShape) ComputeAABB(xf geom.Transform, child int) host.AABB {
	return host.AABB{
		Lower: geom.Vec2{X: xf.Pos.X - r.halfWidth, Y: xf.Pos.Y - r.halfHeight},
		Upper: geom.Vec2{X: xf.Pos.X + r.halfWidth, Y: xf.Pos.Y + r.halfHeight},
	}
}

func (r rectShape) TestPoint(xf geom.Transform, p geom.Vec2) bool {
	local := geom.Sub(p, xf.Pos)
	return local.X >= -r.halfWidth && local.X <= r.halfWidth && local.Y >= -r.halfHeight && local.Y <= r.halfHeight
}

// noWorld is a host.World test double with no fixtures: suitable for
// tests that never need body contacts.
type noWorld struct {
	gravity geom.Vec2
}

func (w noWorld) QueryAABB(box host.AABB, cb host.FixtureCallback) {}
func (w noWorld) Gravity() geom.Vec2                               { return w.gravity }

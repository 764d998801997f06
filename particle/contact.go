package particle

import (
	"math"

	"github.com/pthm-cable/particles/geom"
	"github.com/pthm-cable/particles/host"
)

// ParticleContact is a detected overlap between two particles.
// Weight and Normal are cached each step so every
// solver that needs them (pressure, viscous, tensile, ...) reads them
// once instead of recomputing distance/direction per pass.
type ParticleContact struct {
	IndexA, IndexB int32
	Weight         float32   // 1 - dist/diameter, in [0,1)
	Normal         geom.Vec2 // unit vector from A to B
	Flags          Flag      // IndexA.Flags | IndexB.Flags, cached for solver dispatch
}

// ParticleBodyContact is a detected overlap between a particle and a
// host rigid-body fixture.
type ParticleBodyContact struct {
	Index   int32
	Fixture host.Fixture
	Weight  float32
	Normal  geom.Vec2 // points from the fixture surface toward the particle
	Mass    float32   // reduced mass of the particle/body pair
}

// updateContacts rebuilds s.contacts from the current proxy order
// using a dual-cursor neighbor scan over the tag-sorted proxy array:
// a forward scan catches same-row and
// next-column neighbors, and a second monotonically advancing cursor
// catches the row below. If exceptZombie is set, contacts where either
// particle carries ZombieFlag are dropped.
func (s *System) updateContacts(exceptZombie bool) {
	s.contacts = s.contacts[:0]
	diameter := s.cfg.diameter()
	n := len(s.proxies)
	c := 0
	for a := 0; a < n; a++ {
		aTag := s.proxies[a].Tag
		rightTag := computeRelativeTag(aTag, 1, 0)
		for b := a + 1; b < n; b++ {
			if s.proxies[b].Tag > rightTag {
				break
			}
			s.addContact(s.proxies[a].Index, s.proxies[b].Index, diameter, exceptZombie)
		}
		bottomLeftTag := computeRelativeTag(aTag, -1, 1)
		for c < n && s.proxies[c].Tag < bottomLeftTag {
			c++
		}
		bottomRightTag := computeRelativeTag(aTag, 1, 1)
		for b := c; b < n; b++ {
			if s.proxies[b].Tag > bottomRightTag {
				break
			}
			s.addContact(s.proxies[a].Index, s.proxies[b].Index, diameter, exceptZombie)
		}
	}
}

func (s *System) addContact(ia, ib int32, diameter float32, exceptZombie bool) {
	if ia == ib {
		return
	}
	flagsA := s.buffers.Flags[ia]
	flagsB := s.buffers.Flags[ib]
	if exceptZombie && (flagsA|flagsB)&ZombieFlag != 0 {
		return
	}
	pa := s.buffers.Position[ia]
	pb := s.buffers.Position[ib]
	d2 := geom.DistSq(pa, pb)
	if d2 >= diameter*diameter || d2 < geom.Epsilon {
		return
	}
	dist := sqrt32(d2)
	normal := geom.Scale(geom.Sub(pb, pa), 1/dist)
	s.contacts = append(s.contacts, ParticleContact{
		IndexA: ia,
		IndexB: ib,
		Weight: 1 - dist/diameter,
		Normal: normal,
		Flags:  flagsA | flagsB,
	})
}

// updateBodyContacts rebuilds s.bodyContacts by querying the host
// world's broad phase once over the particle set's inflated AABB, then
// for each returned fixture tag-range-scanning candidate proxies and
// testing the host's exact fixture-distance function. Wall-flagged
// particles contribute zero inverse mass to the
// reduced-mass formula, matching a wall's "infinite mass" intent.
func (s *System) updateBodyContacts() {
	s.bodyContacts = s.bodyContacts[:0]
	n := s.buffers.Count()
	if n == 0 || s.world == nil {
		return
	}
	diameter := s.cfg.diameter()
	invDiameter := s.cfg.invDiameter()

	box := host.AABB{Lower: s.buffers.Position[0], Upper: s.buffers.Position[0]}
	for i := 1; i < n; i++ {
		p := s.buffers.Position[i]
		box.Lower.X = min32f(box.Lower.X, p.X)
		box.Lower.Y = min32f(box.Lower.Y, p.Y)
		box.Upper.X = max32f(box.Upper.X, p.X)
		box.Upper.Y = max32f(box.Upper.Y, p.Y)
	}
	box = box.Inflate(diameter)

	invMass := s.cfg.particleInvMass()

	s.world.QueryAABB(box, func(f host.Fixture) bool {
		if f.IsSensor() {
			return true
		}
		shape := f.Shape()
		body := f.Body()
		for child := 0; child < shape.ChildCount(); child++ {
			fb := f.AABB(child).Inflate(diameter)
			lowTag := computeTag(fb.Lower, invDiameter)
			highTag := computeTag(fb.Upper, invDiameter)
			lo, hi := s.proxyTagRange(minI32(lowTag, highTag), maxI32(lowTag, highTag))
			for k := lo; k < hi; k++ {
				idx := s.proxies[k].Index
				if s.buffers.Flags[idx]&ZombieFlag != 0 {
					continue
				}
				p := s.buffers.Position[idx]
				if !fb.Contains(p) {
					continue
				}
				dist, normal := f.ComputeDistance(p)
				if dist >= diameter {
					continue
				}
				rel := geom.Sub(p, body.WorldCenter())
				rn := geom.Cross(rel, normal)
				bodyInv := float32(0)
				if body.Mass() > 0 {
					bodyInv = 1 / body.Mass()
				}
				bodyInvI := float32(0)
				if body.Inertia() > 0 {
					bodyInvI = 1 / body.Inertia()
				}
				partInv := invMass
				if s.buffers.Flags[idx]&WallFlag != 0 {
					partInv = 0
				}
				denom := partInv + bodyInv + bodyInvI*rn*rn
				mass := float32(0)
				if denom > geom.Epsilon {
					mass = 1 / denom
				}
				s.bodyContacts = append(s.bodyContacts, ParticleBodyContact{
					Index:   idx,
					Fixture: f,
					Weight:  1 - dist/diameter,
					Normal:  normal,
					Mass:    mass,
				})
			}
		}
		return true
	})
}

func sqrt32(v float32) float32 { return float32(math.Sqrt(float64(v))) }

func min32f(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func max32f(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func minI32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

func maxI32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

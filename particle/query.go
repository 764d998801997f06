package particle

import (
	"github.com/pthm-cable/particles/geom"
	"github.com/pthm-cable/particles/host"
)

// QueryCallback receives one particle index per hit, in arbitrary
// order. Returning false stops the query early.
type QueryCallback func(index int32) bool

// QueryAABB reports every live particle whose position lies within
// box, narrowing with a tag-range binary search over the sorted proxy
// array before the exact bounds check.
func (s *System) QueryAABB(box host.AABB, cb QueryCallback) {
	if len(s.proxies) == 0 {
		return
	}
	invDiameter := s.cfg.invDiameter()
	lowTag := computeTag(box.Lower, invDiameter)
	highTag := computeTag(box.Upper, invDiameter)
	lo, hi := s.proxyTagRange(minI32(lowTag, highTag), maxI32(lowTag, highTag))
	for k := lo; k < hi; k++ {
		idx := s.proxies[k].Index
		if s.buffers.Flags[idx]&ZombieFlag != 0 {
			continue
		}
		if !box.Contains(s.buffers.Position[idx]) {
			continue
		}
		if !cb(idx) {
			return
		}
	}
}

// RayCastCallback receives one candidate particle per hit along the
// segment, in tag-range scan order (not necessarily closest first):
// index, the hit point and surface normal, and the fraction along
// p1->p2 at which the hit occurred. Its return value becomes the
// fraction bound for every later candidate in the scan, so returning
// the hit's own fraction narrows the search to closer hits only; a
// negative return stops the cast immediately.
type RayCastCallback func(index int32, point, normal geom.Vec2, fraction float32) float32

// RayCast walks the same tag-range proxy scan QueryAABB uses, over the
// bounding box of the segment inflated by one particle diameter, and
// solves each candidate's exact circle/segment intersection (radius =
// cfg.Radius). Every hit is reported to cb; cb's return value tightens
// the remaining search fraction or, if negative, ends the cast.
func (s *System) RayCast(p1, p2 geom.Vec2, maxFraction float32, cb RayCastCallback) {
	if len(s.proxies) == 0 || cb == nil {
		return
	}
	d := geom.Sub(p2, p1)
	diameter := s.cfg.diameter()
	invDiameter := s.cfg.invDiameter()
	box := host.Extend(host.AABB{Lower: p1, Upper: p1}, host.AABB{Lower: p2, Upper: p2}).Inflate(diameter)
	lowTag := computeTag(box.Lower, invDiameter)
	highTag := computeTag(box.Upper, invDiameter)
	lo, hi := s.proxyTagRange(minI32(lowTag, highTag), maxI32(lowTag, highTag))

	r := s.cfg.Radius
	fraction := maxFraction
	for k := lo; k < hi; k++ {
		idx := s.proxies[k].Index
		if s.buffers.Flags[idx]&ZombieFlag != 0 {
			continue
		}
		center := s.buffers.Position[idx]
		t, n, hit := raySegmentCircle(p1, d, center, r, fraction)
		if !hit {
			continue
		}
		point := geom.Add(p1, geom.Scale(d, t))
		next := cb(idx, point, n, t)
		if next < 0 {
			return
		}
		fraction = next
	}
}

// raySegmentCircle solves |p1 + t*d - center|^2 = r^2 for the smallest
// t in [0,maxT], returning the surface normal at that point.
func raySegmentCircle(p1, d, center geom.Vec2, r, maxT float32) (t float32, normal geom.Vec2, hit bool) {
	s := geom.Sub(p1, center)
	a := geom.Dot(d, d)
	if a < geom.Epsilon {
		return 0, geom.Vec2{}, false
	}
	b := 2 * geom.Dot(s, d)
	c := geom.Dot(s, s) - r*r
	disc := b*b - 4*a*c
	if disc < 0 {
		return 0, geom.Vec2{}, false
	}
	sq := sqrt32(disc)
	t0 := (-b - sq) / (2 * a)
	if t0 < 0 || t0 > maxT {
		return 0, geom.Vec2{}, false
	}
	hitPoint := geom.Add(p1, geom.Scale(d, t0))
	n := geom.Normalized(geom.Sub(hitPoint, center), geom.Vec2{X: 1})
	return t0, n, true
}

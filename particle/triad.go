package particle

import "github.com/pthm-cable/particles/geom"

// Triad is an elastic constraint among three particles. OA, OB, OC are
// each particle's offset from the triangle's centroid at the moment
// the triad was created; solveElastic finds the 2x2 rotation that best
// maps these rest offsets onto the triangle's current shape and
// restores it.
type Triad struct {
	IndexA, IndexB, IndexC int32
	Strength               float32
	OA, OB, OC             geom.Vec2
}

// buildTriadsFromVoronoi triangulates the positions of every
// triadFlags-eligible particle among indices, keeping only triangles
// whose every edge is within maxTriadDistanceSq and, when within is
// non-nil, satisfies it (used by Join to keep only boundary-straddling
// triads — see joinGroups). Strength is stamped onto every new Triad.
func (s *System) buildTriadsFromVoronoi(indices []int32, strength float32, within func(a, b, c int32) bool) {
	eligible := make([]int32, 0, len(indices))
	for _, idx := range indices {
		if s.buffers.Flags[idx]&triadFlags != 0 {
			eligible = append(eligible, idx)
		}
	}
	indices = eligible
	if len(indices) < 3 {
		return
	}
	pts := make([]geom.Vec2, len(indices))
	for i, idx := range indices {
		pts[i] = s.buffers.Position[idx]
	}
	maxDistSq := s.cfg.maxTriadDistanceSq()

	for _, t := range delaunay(pts) {
		ia, ib, ic := indices[t.a], indices[t.b], indices[t.c]
		pa, pb, pc := pts[t.a], pts[t.b], pts[t.c]
		if geom.DistSq(pa, pb) > maxDistSq || geom.DistSq(pb, pc) > maxDistSq || geom.DistSq(pc, pa) > maxDistSq {
			continue
		}
		if within != nil && !within(ia, ib, ic) {
			continue
		}
		centroid := geom.Scale(geom.Add(geom.Add(pa, pb), pc), 1.0/3.0)
		s.triads = append(s.triads, Triad{
			IndexA:   ia,
			IndexB:   ib,
			IndexC:   ic,
			Strength: strength,
			OA:       geom.Sub(pa, centroid),
			OB:       geom.Sub(pb, centroid),
			OC:       geom.Sub(pc, centroid),
		})
	}
}

package particle

import "github.com/pthm-cable/particles/geom"

// Pair is a spring constraint between two particles, created when two
// particles, at least one of them carrying SpringFlag, land within one
// diameter of each other at group creation/join time, and persisted
// across steps independent of
// whether the particles remain in contact.
type Pair struct {
	IndexA, IndexB int32
	Strength       float32
	RestLength     float32
}

// connectPairs scans every unordered pair within indices and appends a
// Pair for each pairFlags-eligible pair closer together than one
// diameter and not already tracked, capturing the current distance as
// the rest length. Called directly off particle positions (not the
// step's contact list) so it works at group-creation time, before any
// Solve has run.
func (s *System) connectPairs(indices []int32, strength float32) {
	s.connectPairsAcross(indices, strength, nil)
}

// connectPairsAcross is connectPairs with an optional filter, used by
// Join to restrict new pairs to those crossing the old group boundary.
func (s *System) connectPairsAcross(indices []int32, strength float32, within func(a, b int32) bool) {
	diameter := s.cfg.diameter()
	for i := 0; i < len(indices); i++ {
		a := indices[i]
		for j := i + 1; j < len(indices); j++ {
			b := indices[j]
			if (s.buffers.Flags[a]|s.buffers.Flags[b])&pairFlags == 0 {
				continue
			}
			if within != nil && !within(a, b) {
				continue
			}
			if s.hasPair(a, b) {
				continue
			}
			d2 := geom.DistSq(s.buffers.Position[a], s.buffers.Position[b])
			if d2 >= diameter*diameter {
				continue
			}
			s.pairs = append(s.pairs, Pair{
				IndexA:     a,
				IndexB:     b,
				Strength:   strength,
				RestLength: sqrt32(d2),
			})
		}
	}
}

func (s *System) hasPair(a, b int32) bool {
	for _, p := range s.pairs {
		if (p.IndexA == a && p.IndexB == b) || (p.IndexA == b && p.IndexB == a) {
			return true
		}
	}
	return false
}

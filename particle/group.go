package particle

import "github.com/pthm-cable/particles/geom"

// Group is one ParticleGroup: a contiguous range
// [FirstIndex,LastIndex) of the particle buffer plus the flags,
// strength and bookkeeping shared by every particle in that range.
//
// Groups live in a flat slice with an explicit free list rather than
// an intrusive linked list: prev/next pointers are never observable
// through the public API, so a flat collection indexed by a stable
// GroupID is simpler in Go and needs no sentinel node.
type Group struct {
	id                   int32
	FirstIndex, LastIndex int32
	Flags                Flag
	GroupFlags           GroupFlag
	Strength             float32
	Transform            geom.Transform
	DestroyAutomatically bool
	ToBeDestroyed        bool
	ToBeSplit            bool
	UserData             any
	live                 bool
	// MaxDepth is the deepest (most submerged) member's distance from
	// the group's free surface, refreshed each solve by
	// solveDepthForGroup. Zero for groups that never ran the depth
	// solver (groups without SolidGroupFlag).
	MaxDepth float32
}

// ID returns the group's stable identifier, valid until the group is destroyed.
func (g Group) ID() int32 { return g.id }

// Count returns how many particles currently belong to the group.
func (g Group) Count() int32 { return g.LastIndex - g.FirstIndex }

func (s *System) allocGroupSlot() int32 {
	if n := len(s.freeGroup); n > 0 {
		id := s.freeGroup[n-1]
		s.freeGroup = s.freeGroup[:n-1]
		return id
	}
	id := int32(len(s.groups))
	s.groups = append(s.groups, Group{})
	return id
}

// Group returns a copy of group id's current state. Changes made to
// the returned copy do not affect the system.
func (s *System) Group(id int32) Group { return s.groups[id] }

// CreateParticleGroup fills def.Shape with a grid of particles spaced
// def.Stride diameters apart (or the system default when Stride is
// zero) and registers them as one new group, building spring pairs and
// elastic triads among the new particles immediately.
func (s *System) CreateParticleGroup(def ParticleGroupDef) int32 {
	stride := def.Stride
	if stride <= 0 {
		stride = s.cfg.Stride
	}
	spacing := stride * s.cfg.diameter()
	if spacing <= 0 {
		return InvalidIndex
	}

	first := int32(s.buffers.Count())
	for child := 0; child < def.Shape.ChildCount(); child++ {
		box := def.Shape.ComputeAABB(def.Transform, child)
		for y := box.Lower.Y; y <= box.Upper.Y; y += spacing {
			for x := box.Lower.X; x <= box.Upper.X; x += spacing {
				p := geom.Vec2{X: x, Y: y}
				if !def.Shape.TestPoint(def.Transform, p) {
					continue
				}
				r := geom.Sub(p, def.Transform.Pos)
				vel := geom.Add(def.LinearVelocity, geom.Scale(geom.Perp(r), def.AngularVelocity))
				idx := s.buffers.create(ParticleDef{
					Flags:    def.Flags,
					Position: p,
					Velocity: vel,
					Color:    def.Color,
					HasColor: def.HasColor,
					UserData: def.UserData,
					Group:    InvalidIndex,
				})
				if idx == InvalidIndex {
					break
				}
			}
		}
	}
	last := int32(s.buffers.Count())
	if last == first {
		return InvalidIndex
	}

	strength := def.Strength
	if strength <= 0 {
		strength = 1
	}

	id := s.allocGroupSlot()
	s.groups[id] = Group{
		id:                    id,
		FirstIndex:            first,
		LastIndex:             last,
		Flags:                 def.Flags,
		GroupFlags:            def.GroupFlags,
		Strength:              strength,
		Transform:             def.Transform,
		DestroyAutomatically:  def.DestroyAutomatically,
		UserData:              def.UserData,
		live:                  true,
	}
	for i := first; i < last; i++ {
		s.buffers.Group[i] = id
	}

	indices := make([]int32, 0, last-first)
	for i := first; i < last; i++ {
		indices = append(indices, i)
	}
	s.connectPairs(indices, strength)
	s.buildTriadsFromVoronoi(indices, strength, nil)

	return id
}

// DestroyParticleGroup marks every particle in the group as a zombie
// and marks the group itself for removal on the next compaction.
func (s *System) DestroyParticleGroup(id int32) {
	if id < 0 || int(id) >= len(s.groups) {
		panic("particle: DestroyParticleGroup called with an invalid group id")
	}
	g := &s.groups[id]
	if !g.live {
		return
	}
	for i := g.FirstIndex; i < g.LastIndex; i++ {
		s.buffers.Flags[i] |= ZombieFlag
	}
	g.ToBeDestroyed = true
}

// JoinParticleGroups merges b's particles into a, destroying b. See
// rotate.go for the two-rotation buffer surgery and triad.go/pair.go
// for the boundary-straddling reconnection this performs afterward.
func (s *System) JoinParticleGroups(a, b int32) {
	if a == b {
		panic("particle: JoinParticleGroups called with the same group twice")
	}
	s.joinGroups(a, b)
}

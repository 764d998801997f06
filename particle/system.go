// Package particle implements the 2-D particle/fluid simulation core:
// a Structure-of-Arrays particle pool, a spatial-hash contact index,
// group/pair/triad lifecycle management and the multi-pass constraint
// solver that advances them, embedded inside a host rigid-body world.
//
// The package never implements rigid-body physics itself — it only
// calls out to the interfaces in package host for anything involving
// bodies, fixtures and shapes.
package particle

import (
	"github.com/pthm-cable/particles/geom"
	"github.com/pthm-cable/particles/host"
)

// System is the module's inbound API: one System owns one particle
// buffer, its spatial index, its groups/pairs/triads, and the host
// world it is embedded in.
type System struct {
	cfg   Config
	world host.World

	buffers *buffers
	proxies []Proxy

	contacts     []ParticleContact
	bodyContacts []ParticleBodyContact
	pairs        []Pair
	triads       []Triad

	groups    []Group
	freeGroup []int32

	listener host.DestructionListener

	scratchDensity []float32

	step int
}

// NewSystem builds an empty System bound to world, using cfg for every
// solver-tunable constant.
func NewSystem(cfg Config, world host.World) *System {
	s := &System{
		cfg:     cfg,
		world:   world,
		buffers: newBuffers(cfg.MaxCount),
	}
	return s
}

// SetDestructionListener registers the callback invoked whenever a
// destruction-listener-flagged particle or group is removed.
func (s *System) SetDestructionListener(l host.DestructionListener) {
	s.listener = l
}

// Count returns the number of particles in the buffer. Particles marked
// zombie are included until the next Solve compacts them away.
func (s *System) Count() int { return s.buffers.Count() }

// Position returns particle i's world position.
func (s *System) Position(i int32) geom.Vec2 { return s.buffers.Position[i] }

// Velocity returns particle i's velocity.
func (s *System) Velocity(i int32) geom.Vec2 { return s.buffers.Velocity[i] }

// Flags returns particle i's flag bitset.
func (s *System) Flags(i int32) Flag { return s.buffers.Flags[i] }

// GroupOf returns the group index particle i belongs to, or
// InvalidIndex if it belongs to no group.
func (s *System) GroupOf(i int32) int32 { return s.buffers.Group[i] }

// CreateParticle appends a single particle and returns its index, or
// InvalidIndex if the hard capacity has been reached.
func (s *System) CreateParticle(def ParticleDef) int32 {
	if def.Group == 0 {
		def.Group = InvalidIndex
	}
	return s.buffers.create(def)
}

// DestroyParticle marks particle i as a zombie; it is physically
// removed on the next Solve's compaction pass (component H).
// callDestructionListener forces a listener notification for this
// particle even if it was not created with DestructionListenerFlag
// set.
func (s *System) DestroyParticle(i int32, callDestructionListener bool) {
	s.buffers.Flags[i] |= ZombieFlag
	if callDestructionListener {
		s.buffers.Flags[i] |= DestructionListenerFlag
	}
}

// DestroyParticlesInShape marks every particle inside shape (evaluated
// in xf's frame) as a zombie and returns how many were marked.
// callDestructionListener forces a listener notification for every
// particle marked, even those not created with DestructionListenerFlag
// set.
func (s *System) DestroyParticlesInShape(shape host.Shape, xf geom.Transform, callDestructionListener bool) int {
	n := 0
	for i := 0; i < s.buffers.Count(); i++ {
		if s.buffers.Flags[i]&ZombieFlag != 0 {
			continue
		}
		if shape.TestPoint(xf, s.buffers.Position[i]) {
			s.buffers.Flags[i] |= ZombieFlag
			if callDestructionListener {
				s.buffers.Flags[i] |= DestructionListenerFlag
			}
			n++
		}
	}
	return n
}

// ComputeParticleCollisionEnergy returns the total kinetic energy of
// every live particle, using the system's uniform particle mass
// (1/particleInvMass). Hosts use this to sanity-check a scene's energy
// budget, e.g. in tests asserting a closed system loses energy under
// damping rather than gaining it.
func (s *System) ComputeParticleCollisionEnergy() float32 {
	invMass := s.cfg.particleInvMass()
	if invMass <= 0 {
		return 0
	}
	mass := 1 / invMass
	var total float32
	for i := range s.liveIndices() {
		total += 0.5 * mass * geom.LenSq(s.buffers.Velocity[i])
	}
	return total
}

package particle

import (
	"github.com/pthm-cable/particles/geom"
	"github.com/pthm-cable/particles/host"
)

// InvalidIndex marks an absent particle or group reference: a sentinel
// int instead of a pointer for "no such slot".
const InvalidIndex = -1

// Fixed algorithmic constants. These are properties of the
// tag-packing/solver scheme itself, not host tunables, so they live
// next to the code that uses them rather than in package config.
const (
	minParticleBufferCapacity = 256
	maxTriadDistanceFactor    = 1.5 // triad edges longer than 1.5*diameter are rejected
)

// Color is a small RGBA8 value used by colorMixing particles and by
// host-side debug rendering. It is intentionally independent of any
// particular renderer's color type.
type Color struct {
	R, G, B, A uint8
}

// TimeStep carries both the step size and its reciprocal so solvers
// never recompute 1/dt, mirroring pthm-soup's systems.PhysicsSystem.Update
// taking a precomputed dt rather than a frame-time accumulator.
type TimeStep struct {
	Dt    float32
	InvDt float32
}

// NewTimeStep builds a TimeStep from a step size, guarding the
// reciprocal against a zero or negative dt.
func NewTimeStep(dt float32) TimeStep {
	if dt <= 0 {
		return TimeStep{}
	}
	return TimeStep{Dt: dt, InvDt: 1 / dt}
}

// ParticleDef is the input to System.CreateParticle: the particle
// fields that a caller may set at creation time.
type ParticleDef struct {
	Flags    Flag
	Position geom.Vec2
	Velocity geom.Vec2
	Color    Color
	HasColor bool
	UserData any
	Group    int32 // InvalidIndex if the particle belongs to no group
}

// ParticleGroupDef is the input to System.CreateParticleGroup: a shape
// to fill with a grid of particles plus the flags/strength/transform to
// stamp onto each one.
type ParticleGroupDef struct {
	Flags                 Flag
	GroupFlags            GroupFlag
	Shape                 host.Shape
	Transform             geom.Transform
	LinearVelocity        geom.Vec2
	Angle                 float32
	AngularVelocity       float32
	Color                 Color
	HasColor              bool
	Strength              float32 // spring/elastic constraint stiffness, default 1
	UserData              any
	DestroyAutomatically  bool // destroy the group once its particle count reaches 0
	Stride                float32 // particle spacing as a multiple of diameter; 0 uses the system default
}

package particle

// Flag is the per-particle bitset. It is a fixed-width integer with
// named constants rather than an open-ended type, since several
// solvers rely on OR'ing and AND'ing combined flags.
type Flag uint32

const (
	ZombieFlag               Flag = 1 << iota // marked for removal, still occupies its slot
	DestructionListenerFlag                   // notify host.DestructionListener on removal
	WallFlag                                  // infinite mass, zero velocity every step
	SpringFlag                                // participates in Pair (spring) constraints
	ElasticFlag                               // participates in Triad (elastic mesh) constraints
	ViscousFlag                               // subject to the viscous solver
	PowderFlag                                // subject to the powder solver, excluded from pressure accumulation
	TensileFlag                               // subject to the tensile (surface tension) solver
	ColorMixingFlag                           // exchanges color with colliding colorMixing particles
)

// pairFlags is the subset of flags that causes a particle-particle
// contact to become a spring Pair on group creation/join.
const pairFlags = SpringFlag

// triadFlags is the subset of flags that causes a particle to
// contribute to Voronoi triad construction.
const triadFlags = ElasticFlag

// GroupFlag is the per-group flags bitset. It is a superset of
// {SolidGroupFlag, RigidGroupFlag}; ClosedGroupFlag is an extra bit this module adds to
// let a host mark a group as not accepting new pair/triad growth on
// join without needing a separate API, mirroring how particle flags are
// a freely extensible bitset.
type GroupFlag uint32

const (
	SolidGroupFlag  GroupFlag = 1 << iota // emits the solid (ejection) solver force and has a depth buffer
	RigidGroupFlag                        // simulated as a single rigid body by solveRigid
	ClosedGroupFlag                       // group does not participate in further pair/triad growth on join
)

// Has reports whether all bits in mask are set in f.
func (f Flag) Has(mask Flag) bool { return f&mask == mask }

// Any reports whether any bit in mask is set in f.
func (f Flag) Any(mask Flag) bool { return f&mask != 0 }

// Has reports whether all bits in mask are set in f.
func (f GroupFlag) Has(mask GroupFlag) bool { return f&mask == mask }

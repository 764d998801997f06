package particle

import "github.com/pthm-cable/particles/geom"

// buffers holds every per-particle Structure-of-Arrays column. Flags,
// Position, Velocity and Group are always live; Color, UserData and
// Depth are lazily materialized on first use, mirroring how
// pthm-soup's ParticleResourceField only allocates its optional grids
// once a feature that needs them is touched.
//
// A buffer is either system-allocated (grows by doubling, starting at
// minParticleBufferCapacity) or bounded by a user-supplied capacity
// ceiling; userCap tracks the tightest ceiling any caller has
// registered via SetUserCapacity, so growth never exceeds
// min(2*count, userCap) across all user-supplied buffers.
type buffers struct {
	count    int
	capacity int
	maxCount int // hard cap; 0 means unbounded aside from userCap
	userCap  int // 0 means no user-supplied ceiling registered

	Flags    []Flag
	Position []geom.Vec2
	Velocity []geom.Vec2
	Group    []int32

	color       []Color
	hasColor    bool
	userData    []any
	hasUserData bool
	depth       []float32
	hasDepth    bool
}

func newBuffers(maxCount int) *buffers {
	return &buffers{maxCount: maxCount}
}

// SetUserCapacity registers a caller-supplied fixed-capacity ceiling.
// Buffers never grow past the tightest ceiling registered.
func (b *buffers) SetUserCapacity(n int) {
	if n <= 0 {
		return
	}
	if b.userCap == 0 || n < b.userCap {
		b.userCap = n
	}
}

func (b *buffers) Count() int { return b.count }

// grow ensures every live column can hold index want-1, applying the
// doubling-with-ceiling policy. It returns false if want exceeds every
// registered capacity ceiling.
func (b *buffers) grow(want int) bool {
	if want <= b.capacity {
		return true
	}
	newCap := b.capacity
	if newCap < minParticleBufferCapacity {
		newCap = minParticleBufferCapacity
	}
	for newCap < want {
		newCap *= 2
	}
	if b.userCap > 0 && newCap > b.userCap {
		newCap = b.userCap
	}
	if b.maxCount > 0 && newCap > b.maxCount {
		newCap = b.maxCount
	}
	if newCap < want {
		return false
	}
	b.reallocate(newCap)
	return true
}

func (b *buffers) reallocate(newCap int) {
	b.Flags = growSlice(b.Flags, newCap)
	b.Position = growSlice(b.Position, newCap)
	b.Velocity = growSlice(b.Velocity, newCap)
	b.Group = growSlice(b.Group, newCap)
	if b.hasColor {
		b.color = growSlice(b.color, newCap)
	}
	if b.hasUserData {
		b.userData = growSlice(b.userData, newCap)
	}
	if b.hasDepth {
		b.depth = growSlice(b.depth, newCap)
	}
	b.capacity = newCap
}

func growSlice[T any](s []T, newCap int) []T {
	grown := make([]T, newCap)
	copy(grown, s)
	return grown
}

func (b *buffers) materializeColor() {
	if b.hasColor {
		return
	}
	b.color = make([]Color, b.capacity)
	b.hasColor = true
}

func (b *buffers) materializeUserData() {
	if b.hasUserData {
		return
	}
	b.userData = make([]any, b.capacity)
	b.hasUserData = true
}

func (b *buffers) materializeDepth() {
	if b.hasDepth {
		return
	}
	b.depth = make([]float32, b.capacity)
	b.hasDepth = true
}

func (b *buffers) Depth() []float32 {
	b.materializeDepth()
	return b.depth
}

// create appends one particle, growing buffers as needed. It returns
// InvalidIndex if the buffer is already at its hard capacity.
func (b *buffers) create(def ParticleDef) int32 {
	if !b.grow(b.count + 1) {
		return InvalidIndex
	}
	idx := b.count
	b.count++
	b.Flags[idx] = def.Flags
	b.Position[idx] = def.Position
	b.Velocity[idx] = def.Velocity
	b.Group[idx] = def.Group
	if def.HasColor {
		b.materializeColor()
		b.color[idx] = def.Color
	}
	if def.UserData != nil {
		b.materializeUserData()
		b.userData[idx] = def.UserData
	}
	return int32(idx)
}

// truncate sets the live particle count to newCount without touching
// capacity. The compactor (component H) calls it once every survivor
// has been copied down into the dense prefix [0,newCount).
func (b *buffers) truncate(newCount int) {
	b.count = newCount
}

package particle

import (
	"sort"

	"github.com/pthm-cable/particles/geom"
)

// Proxy is one particle's entry in the tag-sorted spatial index.
type Proxy struct {
	Index int32
	Tag   int32
}

// Tag packing constants: a tag bit-packs
// a particle's grid cell (cell size == particle diameter) into a
// single 32-bit integer, 12 bits of truncated precision per axis, with
// the y axis occupying the high bits so that particles one row apart
// differ by exactly 1<<yShift and particles one column apart differ by
// exactly 1<<xShift.
const (
	xTruncBits = 12
	yTruncBits = 12
	tagBits    = 32
	yShift     = tagBits - yTruncBits
	xShift     = tagBits - yTruncBits - xTruncBits
	xScale     = int32(1) << xShift
	xOffset    = xScale * (int32(1) << (xTruncBits - 1))
	yOffset    = int32(1) << (yTruncBits - 1)
)

// computeTag packs a world position into its spatial tag. invDiameter
// is 1/diameter, precomputed once per step by the caller.
func computeTag(pos geom.Vec2, invDiameter float32) int32 {
	u := pos.X * invDiameter
	v := pos.Y * invDiameter
	return (int32(v+float32(yOffset)) << yShift) + int32(xScale*u+float32(xOffset))
}

// computeRelativeTag returns the tag of a cell dx,dy away from the
// cell that produced tag, without recomputing from a position. It
// must satisfy
// computeRelativeTag(computeTag(p), dx, dy) == computeTag(p + (dx,dy)*diameter)
// up to truncation.
func computeRelativeTag(tag int32, dx, dy int32) int32 {
	return tag + dy<<yShift + dx<<xShift
}

// updateProxies refreshes every proxy's tag from the current particle
// position and re-sorts the array by tag. The sort is intentionally
// not required to be stable: contacts derived from the sorted order
// only need to be symmetric and order-independent, never that ties
// break in insertion order.
func (s *System) updateProxies(invDiameter float32) {
	n := s.buffers.Count()
	if cap(s.proxies) < n {
		s.proxies = make([]Proxy, n)
	} else {
		s.proxies = s.proxies[:n]
	}
	for i := 0; i < n; i++ {
		s.proxies[i] = Proxy{
			Index: int32(i),
			Tag:   computeTag(s.buffers.Position[i], invDiameter),
		}
	}
	sort.Slice(s.proxies, func(i, j int) bool { return s.proxies[i].Tag < s.proxies[j].Tag })
}

// proxyTagRange returns the half-open index range [lo,hi) of s.proxies
// whose tag falls in [lowTag,highTag], using binary search since the
// proxy array is tag-sorted. Used by both the body-contact scan
// (component C) and AABB queries (component I).
func (s *System) proxyTagRange(lowTag, highTag int32) (lo, hi int) {
	lo = sort.Search(len(s.proxies), func(i int) bool { return s.proxies[i].Tag >= lowTag })
	hi = sort.Search(len(s.proxies), func(i int) bool { return s.proxies[i].Tag > highTag })
	return lo, hi
}

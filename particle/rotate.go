package particle

// reverseRange reverses s[lo:hi] in place.
func reverseRange[T any](s []T, lo, hi int) {
	for lo < hi-1 {
		s[lo], s[hi-1] = s[hi-1], s[lo]
		lo++
		hi--
	}
}

// rotateRange performs an in-place left rotation of s[start:end) so
// that the block [mid,end) moves in front of [start,mid), via the
// classic triple-reversal algorithm. The resulting index mapping is
// exactly rotateIndex below, which every cross-referencing structure
// (proxies, contacts, pairs, triads, group boundaries) must be run
// through afterward.
func rotateRange[T any](s []T, start, mid, end int) {
	reverseRange(s, start, mid)
	reverseRange(s, mid, end)
	reverseRange(s, start, end)
}

// rotateIndex maps a pre-rotation buffer index to its post-rotation
// position for a rotateRange(start,mid,end) call. Indices outside
// [start,end) are unaffected.
func rotateIndex(i, start, mid, end int32) int32 {
	switch {
	case i < start || i >= end:
		return i
	case i < mid:
		return i + (end - mid)
	default:
		return i + (start - mid)
	}
}

// rotateBuffers performs rotateRange over every parallel particle
// buffer and remaps every structure that references a particle index
// by position, keeping them all consistent with the new layout.
func (s *System) rotateBuffers(start, mid, end int) {
	rotateRange(s.buffers.Flags, start, mid, end)
	rotateRange(s.buffers.Position, start, mid, end)
	rotateRange(s.buffers.Velocity, start, mid, end)
	rotateRange(s.buffers.Group, start, mid, end)
	if s.buffers.hasColor {
		rotateRange(s.buffers.color, start, mid, end)
	}
	if s.buffers.hasUserData {
		rotateRange(s.buffers.userData, start, mid, end)
	}
	if s.buffers.hasDepth {
		rotateRange(s.buffers.depth, start, mid, end)
	}

	st, mi, en := int32(start), int32(mid), int32(end)
	remap := func(i int32) int32 { return rotateIndex(i, st, mi, en) }

	for i := range s.proxies {
		s.proxies[i].Index = remap(s.proxies[i].Index)
	}
	for i := range s.contacts {
		s.contacts[i].IndexA = remap(s.contacts[i].IndexA)
		s.contacts[i].IndexB = remap(s.contacts[i].IndexB)
	}
	for i := range s.bodyContacts {
		s.bodyContacts[i].Index = remap(s.bodyContacts[i].Index)
	}
	for i := range s.pairs {
		s.pairs[i].IndexA = remap(s.pairs[i].IndexA)
		s.pairs[i].IndexB = remap(s.pairs[i].IndexB)
	}
	for i := range s.triads {
		s.triads[i].IndexA = remap(s.triads[i].IndexA)
		s.triads[i].IndexB = remap(s.triads[i].IndexB)
		s.triads[i].IndexC = remap(s.triads[i].IndexC)
	}
	for i := range s.groups {
		if !s.groups[i].live {
			continue
		}
		first, last := s.groups[i].FirstIndex, s.groups[i].LastIndex
		if last <= first {
			continue
		}
		// LastIndex is exclusive: map the group's last member, then
		// step one past it.
		s.groups[i].FirstIndex = remap(first)
		s.groups[i].LastIndex = remap(last-1) + 1
	}
}

// joinGroups merges b's particles into a using two rotations: the
// first brings a's and b's particle ranges adjacent to each other in
// whichever order they already appear in the buffer, and the second
// slides the merged block to the end of the live particle region.
// Pairs and triads are then rebuilt only across the
// boundary that used to separate the two groups, and not at all when
// the merged group carries ClosedGroupFlag; the pairs/triads each
// group already had from its own creation are left untouched.
func (s *System) joinGroups(aID, bID int32) {
	a := &s.groups[aID]
	b := &s.groups[bID]
	if !a.live || !b.live || aID == bID {
		return
	}

	first, second := a, b
	if first.FirstIndex > second.FirstIndex {
		first, second = second, first
	}

	// Rotation 1: bring the two ranges adjacent.
	if first.LastIndex != second.FirstIndex {
		s.rotateBuffers(int(first.LastIndex), int(second.FirstIndex), int(second.LastIndex))
	}
	mergedLen := (first.LastIndex - first.FirstIndex) + (second.LastIndex - second.FirstIndex)
	boundaryOffset := first.LastIndex - first.FirstIndex // count of "first" group's particles
	blockStart := first.FirstIndex

	// Rotation 2: slide the now-adjacent block to the tail of the live region.
	count := int32(s.buffers.Count())
	blockEnd := blockStart + mergedLen
	if blockEnd != count {
		s.rotateBuffers(int(blockStart), int(blockEnd), int(count))
	}
	newFirst := count - mergedLen
	newLast := count
	boundary := newFirst + boundaryOffset

	a.FirstIndex = newFirst
	a.LastIndex = newLast
	a.Flags |= b.Flags
	a.GroupFlags |= b.GroupFlags
	for i := newFirst; i < newLast; i++ {
		s.buffers.Group[i] = aID
	}

	b.live = false
	b.FirstIndex = 0
	b.LastIndex = 0
	s.freeGroup = append(s.freeGroup, bID)

	if a.GroupFlags.Has(ClosedGroupFlag) {
		return
	}

	indices := make([]int32, 0, mergedLen)
	for i := newFirst; i < newLast; i++ {
		indices = append(indices, i)
	}
	straddlesPair := func(x, y int32) bool {
		return (x < boundary) != (y < boundary)
	}
	straddlesTriad := func(x, y, z int32) bool {
		below := 0
		for _, v := range [3]int32{x, y, z} {
			if v < boundary {
				below++
			}
		}
		return below == 1 || below == 2
	}
	s.connectPairsAcross(indices, a.Strength, straddlesPair)
	s.buildTriadsFromVoronoi(indices, a.Strength, straddlesTriad)
}

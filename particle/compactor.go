package particle

// compactZombies performs the mark-then-compact cycle: it walks the
// live range once, overwriting each zombie slot with a later survivor
// (swap-free prefix compaction, matching pthm-soup's
// ParticleResourceField.cleanupCompact), then remaps every structure
// that stores a particle index by position — proxies, contacts,
// body-contacts, pairs, triads and group boundaries — before finally
// recomputing each group's [FirstIndex,LastIndex) range and releasing
// any group that has emptied out or was explicitly destroyed.
//
// recomputeGroupRanges sets ToBeSplit on rigid groups that lost
// members this pass, but this implementation stops there: it does not
// itself perform the split. TODO: implement connected-component
// splitting for rigid groups whose solid bridge of contacts has
// broken, driven off this flag.
func (s *System) compactZombies() {
	n := s.buffers.Count()
	if n == 0 {
		return
	}
	newIndex := make([]int32, n)
	write := int32(0)
	for i := 0; i < n; i++ {
		flags := s.buffers.Flags[i]
		if flags&ZombieFlag != 0 {
			if flags&DestructionListenerFlag != 0 && s.listener != nil {
				s.listener.SayGoodbyeParticle(i)
			}
			newIndex[i] = InvalidIndex
			continue
		}
		newIndex[i] = write
		if int32(i) != write {
			s.copyParticle(write, int32(i))
		}
		write++
	}
	s.buffers.truncate(int(write))

	remap := func(i int32) int32 {
		if i < 0 || int(i) >= len(newIndex) {
			return InvalidIndex
		}
		return newIndex[i]
	}

	proxies := s.proxies[:0]
	for _, p := range s.proxies {
		ni := remap(p.Index)
		if ni == InvalidIndex {
			continue
		}
		p.Index = ni
		proxies = append(proxies, p)
	}
	s.proxies = proxies

	contacts := s.contacts[:0]
	for _, c := range s.contacts {
		na, nb := remap(c.IndexA), remap(c.IndexB)
		if na == InvalidIndex || nb == InvalidIndex {
			continue
		}
		c.IndexA, c.IndexB = na, nb
		contacts = append(contacts, c)
	}
	s.contacts = contacts

	bodyContacts := s.bodyContacts[:0]
	for _, bc := range s.bodyContacts {
		ni := remap(bc.Index)
		if ni == InvalidIndex {
			continue
		}
		bc.Index = ni
		bodyContacts = append(bodyContacts, bc)
	}
	s.bodyContacts = bodyContacts

	pairs := s.pairs[:0]
	for _, p := range s.pairs {
		na, nb := remap(p.IndexA), remap(p.IndexB)
		if na == InvalidIndex || nb == InvalidIndex {
			continue
		}
		p.IndexA, p.IndexB = na, nb
		pairs = append(pairs, p)
	}
	s.pairs = pairs

	triads := s.triads[:0]
	for _, t := range s.triads {
		na, nb, nc := remap(t.IndexA), remap(t.IndexB), remap(t.IndexC)
		if na == InvalidIndex || nb == InvalidIndex || nc == InvalidIndex {
			continue
		}
		t.IndexA, t.IndexB, t.IndexC = na, nb, nc
		triads = append(triads, t)
	}
	s.triads = triads

	s.recomputeGroupRanges(write)
}

// copyParticle overwrites slot dst with slot src's data across every
// live column.
func (s *System) copyParticle(dst, src int32) {
	b := s.buffers
	b.Flags[dst] = b.Flags[src]
	b.Position[dst] = b.Position[src]
	b.Velocity[dst] = b.Velocity[src]
	b.Group[dst] = b.Group[src]
	if b.hasColor {
		b.color[dst] = b.color[src]
	}
	if b.hasUserData {
		b.userData[dst] = b.userData[src]
	}
	if b.hasDepth {
		b.depth[dst] = b.depth[src]
	}
}

// recomputeGroupRanges derives every live group's new [FirstIndex,
// LastIndex) from the post-compaction Group column, relying on groups
// staying contiguous through compaction (which only ever removes
// slots, never reorders survivors). Groups marked ToBeDestroyed, and
// groups with zero particles left that have DestroyAutomatically set,
// are released back to the free list, notifying the destruction
// listener when requested; an emptied group without
// DestroyAutomatically stays live with an empty range. A RigidGroupFlag group that lost members
// this pass without being fully destroyed is marked ToBeSplit: its
// solid bridge of particles may have broken into disconnected pieces,
// and a host that cares should re-derive connectivity and split it.
func (s *System) recomputeGroupRanges(count int32) {
	oldCount := make(map[int32]int32, len(s.groups))
	for i := range s.groups {
		if s.groups[i].live {
			oldCount[int32(i)] = s.groups[i].Count()
			s.groups[i].FirstIndex = 0
			s.groups[i].LastIndex = 0
		}
	}

	curGroup := int32(InvalidIndex)
	var curStart int32
	closeRange := func(end int32) {
		if curGroup != InvalidIndex {
			s.groups[curGroup].FirstIndex = curStart
			s.groups[curGroup].LastIndex = end
		}
	}
	for i := int32(0); i < count; i++ {
		g := s.buffers.Group[i]
		if g != curGroup {
			closeRange(i)
			curGroup = g
			curStart = i
		}
	}
	closeRange(count)

	for i := range s.groups {
		g := &s.groups[i]
		if !g.live {
			continue
		}
		empty := g.Count() == 0
		if g.ToBeDestroyed || (empty && g.DestroyAutomatically) {
			if g.Flags&DestructionListenerFlag != 0 && s.listener != nil {
				s.listener.SayGoodbyeGroup(int(g.id))
			}
			g.live = false
			s.freeGroup = append(s.freeGroup, g.id)
			continue
		}
		if !empty && g.GroupFlags.Has(RigidGroupFlag) && g.Count() < oldCount[int32(i)] {
			g.ToBeSplit = true
		}
	}
}

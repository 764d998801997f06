package particle

import (
	"gonum.org/v1/gonum/mat"

	"github.com/pthm-cable/particles/geom"
	"github.com/pthm-cable/particles/host"
)

// Solve advances the simulation by dt, running a fixed pipeline in
// order: zombie compaction, gravity integrate, collision solve (swept
// against host bodies), rigid-group solve, wall zero, position
// integrate, body-contact/contact rebuild, body-contact solve, contact
// solve, the per-flag force solvers (viscous, powder, tensile, elastic,
// spring, solid, colorMixing), pressure, then damping. The contact and
// body-contact graphs are rebuilt from this step's post-integration
// positions before any force solver reads them, so every solver sees
// the geometry the particles actually ended up in, not where they
// stood before moving. Every sub-solver only ever queries host.World
// and applies impulses through the Body/Fixture interfaces those
// queries returned (s.bodyContacts, or solveCollision's own swept
// query), so the whole step runs
// single-threaded with the host owning the loop.
func (s *System) Solve(dt float32) {
	ts := NewTimeStep(dt)
	if ts.Dt == 0 {
		return
	}
	s.step++
	if s.buffers.Count() == 0 {
		return
	}

	s.compactZombies()

	s.integrateGravity(ts)
	s.solveCollision(ts)
	s.solveRigid(ts)
	s.solveWall()

	s.integratePositions(ts)

	invDiameter := s.cfg.invDiameter()
	s.updateProxies(invDiameter)
	s.updateBodyContacts()
	s.updateContacts(true)

	s.solveBodyContacts(ts)
	s.solveContacts(ts)

	s.solveViscous(ts)
	s.solvePowder(ts)
	s.solveTensile(ts)
	s.solveElastic(ts)
	s.solveSpring(ts)
	s.solveSolid(ts)
	s.solveColorMixing(ts)

	s.solvePressure(ts)
	s.solveDamping(ts)

	for i := range s.groups {
		if s.groups[i].live && s.groups[i].GroupFlags.Has(SolidGroupFlag) {
			s.solveDepthForGroup(int32(i))
		}
	}
}

func (s *System) liveIndices() func(yield func(int32) bool) {
	return func(yield func(int32) bool) {
		for i := 0; i < s.buffers.Count(); i++ {
			if s.buffers.Flags[i]&ZombieFlag != 0 {
				continue
			}
			if !yield(int32(i)) {
				return
			}
		}
	}
}

// integrateGravity applies one step of gravity to every non-wall
// particle, then clamps each particle's speed to the critical velocity
// (diameter/dt, scaled by Config.VelocityLimitFactor) — past this
// speed a particle can tunnel clean through another particle or a
// thin body fixture within a single step.
func (s *System) integrateGravity(ts TimeStep) {
	if s.world == nil {
		return
	}
	g := s.world.Gravity()
	dv := geom.Scale(g, ts.Dt)

	maxV := float32(0)
	if ts.Dt > 0 && s.cfg.VelocityLimitFactor > 0 {
		maxV = s.cfg.VelocityLimitFactor * s.cfg.diameter() * ts.InvDt
	}

	for i := range s.liveIndices() {
		if s.buffers.Flags[i]&WallFlag != 0 {
			continue
		}
		v := geom.Add(s.buffers.Velocity[i], dv)
		if maxV > 0 {
			if speedSq := geom.LenSq(v); speedSq > maxV*maxV {
				v = geom.Scale(v, maxV/sqrt32(speedSq))
			}
		}
		s.buffers.Velocity[i] = v
	}
}

// solveCollision prevents a fast particle from tunneling clean through
// a thin or fast-moving body fixture within a single step: for every
// non-wall particle it builds an AABB enclosing the particle's swept
// motion this step, asks the host world for every fixture overlapping
// that box, and ray-casts the swept segment against each fixture's
// children. On the earliest hit it clips the particle's velocity to
// remove the component along the surface normal (leaving only the
// tangential part, so the particle slides along the surface) and
// applies the equal-and-opposite linear impulse
// to the struck body, so a heavy/fast body pushing through a cloud of
// particles feels their combined resistance.
func (s *System) solveCollision(ts TimeStep) {
	if s.world == nil {
		return
	}
	invMass := s.cfg.particleInvMass()
	if invMass <= 0 {
		return
	}
	mass := 1 / invMass

	for i := range s.liveIndices() {
		if s.buffers.Flags[i]&WallFlag != 0 {
			continue
		}
		p1 := s.buffers.Position[i]
		v := s.buffers.Velocity[i]
		d := geom.Scale(v, ts.Dt)
		p2 := geom.Add(p1, d)
		box := host.Extend(host.AABB{Lower: p1, Upper: p1}, host.AABB{Lower: p2, Upper: p2}).Inflate(s.cfg.Radius)

		bestFraction := float32(1)
		var bestNormal geom.Vec2
		var bestFixture host.Fixture
		hit := false

		s.world.QueryAABB(box, func(f host.Fixture) bool {
			if f.IsSensor() {
				return true
			}
			shape := f.Shape()
			for child := 0; child < shape.ChildCount(); child++ {
				out, ok := f.RayCast(host.RayCastInput{P1: p1, P2: p2, MaxFraction: bestFraction}, child)
				if !ok {
					continue
				}
				bestFraction = out.Fraction
				bestNormal = out.Normal
				bestFixture = f
				hit = true
			}
			return true
		})

		if !hit {
			continue
		}
		vn := geom.Dot(v, bestNormal)
		if vn >= 0 {
			continue // already moving away from the surface
		}
		reflected := geom.Sub(v, geom.Scale(bestNormal, vn))
		s.buffers.Velocity[i] = reflected

		point := geom.Add(p1, geom.Scale(d, bestFraction))
		bodyImpulse := geom.Scale(geom.Sub(v, reflected), mass)
		bestFixture.Body().ApplyLinearImpulse(bodyImpulse, point, true)
	}
}

// solveRigid approximates each RigidGroupFlag group as a single rigid
// body for velocity purposes: every live member's velocity is replaced
// by the group's centroid linear velocity plus a rigid rotation about
// the centroid derived from the group's average angular momentum.
// Zombie-flagged members are skipped in every pass so a particle
// already marked for removal doesn't pull the group's centroid/angular
// statistics toward its stale position, or get its own velocity
// overwritten before compaction ever removes it.
func (s *System) solveRigid(ts TimeStep) {
	for gi := range s.groups {
		g := &s.groups[gi]
		if !g.live || !g.GroupFlags.Has(RigidGroupFlag) || g.Count() == 0 {
			continue
		}
		centroid := geom.Vec2{}
		avgVel := geom.Vec2{}
		n := float32(0)
		for i := g.FirstIndex; i < g.LastIndex; i++ {
			if s.buffers.Flags[i]&ZombieFlag != 0 {
				continue
			}
			centroid = geom.Add(centroid, s.buffers.Position[i])
			avgVel = geom.Add(avgVel, s.buffers.Velocity[i])
			n++
		}
		if n == 0 {
			continue
		}
		centroid = geom.Scale(centroid, 1/n)
		avgVel = geom.Scale(avgVel, 1/n)

		var angMomentum, inertia float32
		for i := g.FirstIndex; i < g.LastIndex; i++ {
			if s.buffers.Flags[i]&ZombieFlag != 0 {
				continue
			}
			r := geom.Sub(s.buffers.Position[i], centroid)
			relV := geom.Sub(s.buffers.Velocity[i], avgVel)
			angMomentum += geom.Cross(r, relV)
			inertia += geom.Dot(r, r)
		}
		angVel := float32(0)
		if inertia > geom.Epsilon {
			angVel = angMomentum / inertia
		}
		for i := g.FirstIndex; i < g.LastIndex; i++ {
			if s.buffers.Flags[i]&ZombieFlag != 0 {
				continue
			}
			r := geom.Sub(s.buffers.Position[i], centroid)
			s.buffers.Velocity[i] = geom.Add(avgVel, geom.Scale(geom.Perp(r), angVel))
		}
	}
}

func (s *System) solveWall() {
	for i := range s.liveIndices() {
		if s.buffers.Flags[i]&WallFlag != 0 {
			s.buffers.Velocity[i] = geom.Vec2{}
		}
	}
}

func (s *System) integratePositions(ts TimeStep) {
	for i := range s.liveIndices() {
		s.buffers.Position[i] = geom.Add(s.buffers.Position[i], geom.Scale(s.buffers.Velocity[i], ts.Dt))
	}
}

// solveBodyContacts applies an impulse along each body-contact's
// normal that cancels any approaching relative velocity, scaled by the
// contact's precomputed reduced mass, and applies the reaction to the
// host body through host.Body.ApplyLinearImpulse.
func (s *System) solveBodyContacts(ts TimeStep) {
	for _, bc := range s.bodyContacts {
		if bc.Mass <= 0 {
			continue
		}
		body := bc.Fixture.Body()
		pp := s.buffers.Position[bc.Index]
		bodyVel := body.LinearVelocityFromWorldPoint(pp)
		rv := geom.Sub(s.buffers.Velocity[bc.Index], bodyVel)
		vn := geom.Dot(rv, bc.Normal)
		if vn >= 0 {
			continue
		}
		impulseMag := -vn * bc.Mass
		impulse := geom.Scale(bc.Normal, impulseMag)
		if s.buffers.Flags[bc.Index]&WallFlag == 0 {
			s.buffers.Velocity[bc.Index] = geom.Sub(s.buffers.Velocity[bc.Index], geom.Scale(impulse, s.cfg.particleInvMass()))
		}
		body.ApplyLinearImpulse(impulse, pp, true)
	}
}

// solveContacts is the post-integration positional-correction pass: it
// pushes overlapping particles apart directly in position space,
// proportional to their contact weight. This is the only mechanism
// that resolves particle-particle interpenetration directly; the
// velocity-space pressure/damping solvers below handle the rest.
func (s *System) solveContacts(ts TimeStep) {
	diameter := s.cfg.diameter()
	for _, c := range s.contacts {
		correction := geom.Scale(c.Normal, 0.5*c.Weight*diameter*0.2)
		s.buffers.Position[c.IndexA] = geom.Sub(s.buffers.Position[c.IndexA], correction)
		s.buffers.Position[c.IndexB] = geom.Add(s.buffers.Position[c.IndexB], correction)
	}
}

// solveViscous damps the tangential (non-normal) component of relative
// velocity between contacting ViscousFlag particles, so nearby fluid
// particles tend to move together.
func (s *System) solveViscous(ts TimeStep) {
	k := s.cfg.ViscousStrength
	if k <= 0 {
		return
	}
	for _, c := range s.contacts {
		if c.Flags&ViscousFlag == 0 {
			continue
		}
		va, vb := s.buffers.Velocity[c.IndexA], s.buffers.Velocity[c.IndexB]
		rv := geom.Sub(vb, va)
		tangent := geom.Perp(c.Normal)
		vt := geom.Dot(rv, tangent)
		damp := geom.Scale(tangent, vt*k*c.Weight*0.5)
		s.buffers.Velocity[c.IndexA] = geom.Add(va, damp)
		s.buffers.Velocity[c.IndexB] = geom.Sub(vb, damp)
	}
}

// solvePowder pushes PowderFlag particles apart directly (rather than
// through the shared pressure accumulator, which powder particles are
// excluded from), so dry granular particles separate
// without the springy rebound a pressure impulse gives fluid.
func (s *System) solvePowder(ts TimeStep) {
	k := s.cfg.PowderStrength
	if k <= 0 {
		return
	}
	for _, c := range s.contacts {
		if c.Flags&PowderFlag == 0 {
			continue
		}
		push := geom.Scale(c.Normal, k*c.Weight*ts.Dt)
		s.buffers.Velocity[c.IndexA] = geom.Sub(s.buffers.Velocity[c.IndexA], push)
		s.buffers.Velocity[c.IndexB] = geom.Add(s.buffers.Velocity[c.IndexB], push)
	}
}

// solveTensile pulls lightly-overlapping TensileFlag particles back
// together, approximating surface tension: the pull scales with
// (1-weight)*weight, so it is zero at the diameter boundary, peaks at
// half overlap (weight 0.5) and fades to zero again as particles
// overlap fully, where the collision/pressure solvers already
// dominate.
func (s *System) solveTensile(ts TimeStep) {
	k := s.cfg.TensileStrength
	if k <= 0 {
		return
	}
	for _, c := range s.contacts {
		if c.Flags&TensileFlag == 0 {
			continue
		}
		pull := geom.Scale(c.Normal, k*(1-c.Weight)*c.Weight*ts.Dt)
		s.buffers.Velocity[c.IndexA] = geom.Add(s.buffers.Velocity[c.IndexA], pull)
		s.buffers.Velocity[c.IndexB] = geom.Sub(s.buffers.Velocity[c.IndexB], pull)
	}
}

// solveSpring applies a linear spring force toward each Pair's rest
// length, scaled by the pair's strength and the system's spring
// strength tunable.
func (s *System) solveSpring(ts TimeStep) {
	k := s.cfg.SpringStrength
	if k <= 0 {
		return
	}
	for _, p := range s.pairs {
		pa, pb := s.buffers.Position[p.IndexA], s.buffers.Position[p.IndexB]
		delta := geom.Sub(pb, pa)
		dist := geom.Len(delta)
		if dist < geom.Epsilon {
			continue
		}
		dir := geom.Scale(delta, 1/dist)
		stretch := dist - p.RestLength
		force := geom.Scale(dir, k*p.Strength*stretch*ts.Dt)
		s.buffers.Velocity[p.IndexA] = geom.Add(s.buffers.Velocity[p.IndexA], force)
		s.buffers.Velocity[p.IndexB] = geom.Sub(s.buffers.Velocity[p.IndexB], force)
	}
}

// solveElastic restores each Triad's rest shape using the 2x2 best-fit
// (Kabsch) rotation between its rest offsets and current offsets,
// solved with gonum/mat's SVD.
func (s *System) solveElastic(ts TimeStep) {
	k := s.cfg.ElasticStrength
	if k <= 0 {
		return
	}
	for _, t := range s.triads {
		pa, pb, pc := s.buffers.Position[t.IndexA], s.buffers.Position[t.IndexB], s.buffers.Position[t.IndexC]
		centroid := geom.Scale(geom.Add(geom.Add(pa, pb), pc), 1.0/3.0)
		ca, cb, cc := geom.Sub(pa, centroid), geom.Sub(pb, centroid), geom.Sub(pc, centroid)

		rot, ok := bestFitRotation([3]geom.Vec2{t.OA, t.OB, t.OC}, [3]geom.Vec2{ca, cb, cc})
		if !ok {
			continue
		}

		target := [3]geom.Vec2{
			geom.Add(centroid, rot.Apply(t.OA)),
			geom.Add(centroid, rot.Apply(t.OB)),
			geom.Add(centroid, rot.Apply(t.OC)),
		}
		idx := [3]int32{t.IndexA, t.IndexB, t.IndexC}
		cur := [3]geom.Vec2{pa, pb, pc}
		strength := k * t.Strength * ts.Dt
		for i := 0; i < 3; i++ {
			correction := geom.Scale(geom.Sub(target[i], cur[i]), strength)
			s.buffers.Velocity[idx[i]] = geom.Add(s.buffers.Velocity[idx[i]], correction)
		}
	}
}

// bestFitRotation solves for the rotation R minimizing
// sum_i |R*rest[i] - cur[i]|^2 via the 2x2 Kabsch/polar-decomposition
// method: build the covariance H = rest^T * cur, take its SVD
// H = U*Sigma*V^T, and R = V*U^T.
func bestFitRotation(rest, cur [3]geom.Vec2) (geom.Rot, bool) {
	var h00, h01, h10, h11 float64
	for i := 0; i < 3; i++ {
		h00 += float64(rest[i].X) * float64(cur[i].X)
		h01 += float64(rest[i].X) * float64(cur[i].Y)
		h10 += float64(rest[i].Y) * float64(cur[i].X)
		h11 += float64(rest[i].Y) * float64(cur[i].Y)
	}
	h := mat.NewDense(2, 2, []float64{h00, h01, h10, h11})

	var svd mat.SVD
	if !svd.Factorize(h, mat.SVDFull) {
		return geom.Rot{}, false
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	var r mat.Dense
	r.Mul(&v, u.T())
	det := r.At(0, 0)*r.At(1, 1) - r.At(0, 1)*r.At(1, 0)
	if det < 0 {
		// Reflection instead of rotation: flip the smaller singular
		// vector's sign, the standard Kabsch correction.
		v.Set(0, 1, -v.At(0, 1))
		v.Set(1, 1, -v.At(1, 1))
		r.Mul(&v, u.T())
	}
	return geom.Rot{C: float32(r.At(0, 0)), S: float32(r.At(1, 0))}, true
}

// solveSolid applies an extra short-range repulsive impulse within
// SolidGroupFlag groups, preventing the over-compression that a pure
// pressure/collision solve allows near a group's interior.
func (s *System) solveSolid(ts TimeStep) {
	k := s.cfg.GroupSolidStrength
	if k <= 0 {
		return
	}
	for _, c := range s.contacts {
		ga, gb := s.buffers.Group[c.IndexA], s.buffers.Group[c.IndexB]
		if ga != gb || ga == InvalidIndex || !s.groups[ga].live || !s.groups[ga].GroupFlags.Has(SolidGroupFlag) {
			continue
		}
		push := geom.Scale(c.Normal, k*c.Weight*ts.Dt)
		s.buffers.Velocity[c.IndexA] = geom.Sub(s.buffers.Velocity[c.IndexA], push)
		s.buffers.Velocity[c.IndexB] = geom.Add(s.buffers.Velocity[c.IndexB], push)
	}
}

// solveColorMixing exchanges a fraction of each contacting
// ColorMixingFlag particle pair's color, so adjacent fluids of
// different color visibly blend at their interface.
func (s *System) solveColorMixing(ts TimeStep) {
	k := s.cfg.ColorMixingStrength
	if k <= 0 || !s.buffers.hasColor {
		return
	}
	for _, c := range s.contacts {
		if c.Flags&ColorMixingFlag == 0 {
			continue
		}
		ca, cb := s.buffers.color[c.IndexA], s.buffers.color[c.IndexB]
		mix := k * c.Weight * 0.5
		s.buffers.color[c.IndexA] = blendColor(ca, cb, mix)
		s.buffers.color[c.IndexB] = blendColor(cb, ca, mix)
	}
}

func blendColor(a, b Color, t float32) Color {
	lerp := func(x, y uint8) uint8 {
		return uint8(float32(x) + (float32(y)-float32(x))*t)
	}
	return Color{R: lerp(a.R, b.R), G: lerp(a.G, b.G), B: lerp(a.B, b.B), A: lerp(a.A, b.A)}
}

// solvePressure accumulates each particle's local density from its
// contact weights and pushes particles apart from high-density
// neighborhoods. A documented source of the reference this
// implementation follows applies the resulting impulse's x component
// to both axes of one particle instead of splitting it between x and
// y; this implementation applies the full 2-D impulse vector to both
// particles on both axes (see TestSolvePressureBothAxes).
func (s *System) solvePressure(ts TimeStep) {
	k := s.cfg.PressureStrength
	if k <= 0 {
		return
	}
	n := s.buffers.Count()
	if cap(s.scratchDensity) < n {
		s.scratchDensity = make([]float32, n)
	}
	density := s.scratchDensity[:n]
	for i := range density {
		density[i] = 0
	}
	for _, c := range s.contacts {
		if c.Flags&PowderFlag != 0 {
			continue // powder particles do not contribute to or feel pressure
		}
		density[c.IndexA] += c.Weight
		density[c.IndexB] += c.Weight
	}
	invMass := s.cfg.particleInvMass()
	for _, c := range s.contacts {
		if c.Flags&PowderFlag != 0 {
			continue
		}
		pressureA := k * density[c.IndexA]
		pressureB := k * density[c.IndexB]
		mag := (pressureA + pressureB) * invMass * ts.Dt
		impulse := geom.Scale(c.Normal, mag)
		s.buffers.Velocity[c.IndexA] = geom.Vec2{
			X: s.buffers.Velocity[c.IndexA].X - impulse.X,
			Y: s.buffers.Velocity[c.IndexA].Y - impulse.Y,
		}
		s.buffers.Velocity[c.IndexB] = geom.Vec2{
			X: s.buffers.Velocity[c.IndexB].X + impulse.X,
			Y: s.buffers.Velocity[c.IndexB].Y + impulse.Y,
		}
	}
}

func (s *System) solveDamping(ts TimeStep) {
	k := s.cfg.DampingStrength
	if k <= 0 {
		return
	}
	factor := float32(1) - minF(k*ts.Dt, 1)
	for i := range s.liveIndices() {
		if s.buffers.Flags[i]&WallFlag != 0 {
			continue
		}
		s.buffers.Velocity[i] = geom.Scale(s.buffers.Velocity[i], factor)
	}
}

func minF(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

// solveDepthForGroup computes each group member's distance from the
// group's free surface by relaxation over the contact graph: surface
// particles (contact weight strictly below 0.8) seed depth 0, and
// every other particle's depth relaxes toward 1+min(neighbor depth)
// until no further improvement occurs.
func (s *System) solveDepthForGroup(gi int32) {
	g := s.groups[gi]
	if g.Count() == 0 {
		return
	}
	depth := s.buffers.Depth()
	for i := g.FirstIndex; i < g.LastIndex; i++ {
		depth[i] = -1
	}
	for _, c := range s.contacts {
		ga, gb := s.buffers.Group[c.IndexA], s.buffers.Group[c.IndexB]
		if ga != gi || gb != gi {
			continue
		}
		if c.Weight < 0.8 {
			depth[c.IndexA] = 0
			depth[c.IndexB] = 0
		}
	}
	for iter := 0; iter < int(g.Count()); iter++ {
		changed := false
		for _, c := range s.contacts {
			ga, gb := s.buffers.Group[c.IndexA], s.buffers.Group[c.IndexB]
			if ga != gi || gb != gi {
				continue
			}
			da, db := depth[c.IndexA], depth[c.IndexB]
			if da >= 0 && (db < 0 || da+1 < db) {
				depth[c.IndexB] = da + 1
				changed = true
			}
			if db >= 0 && (da < 0 || db+1 < da) {
				depth[c.IndexA] = db + 1
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	maxDepth := float32(0)
	for i := g.FirstIndex; i < g.LastIndex; i++ {
		if depth[i] < 0 {
			depth[i] = 0
		}
		if depth[i] > maxDepth {
			maxDepth = depth[i]
		}
	}
	s.groups[gi].MaxDepth = maxDepth
}

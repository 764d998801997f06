package particle

import (
	"github.com/pthm-cable/particles/geom"
	"gonum.org/v1/gonum/mat"
)

// triangle is a Delaunay triangle by point index into a local points
// slice (not particle index; the caller remaps).
type triangle struct {
	a, b, c int
}

// delaunay runs an incremental Bowyer-Watson triangulation over pts
// and returns every triangle in the final mesh. Nothing in the
// reference pack implements Delaunay/Voronoi construction, so this
// algorithm is written from the textbook description rather than
// adapted from an example; gonum/mat is used for each triangle's
// circumcenter solve, the one piece of linear algebra involved.
func delaunay(pts []geom.Vec2) []triangle {
	if len(pts) < 3 {
		return nil
	}

	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := pts[0].X, pts[0].Y
	for _, p := range pts {
		minX = min32f(minX, p.X)
		minY = min32f(minY, p.Y)
		maxX = max32f(maxX, p.X)
		maxY = max32f(maxY, p.Y)
	}
	dx, dy := maxX-minX, maxY-minY
	deltaMax := max32f(dx, dy)
	if deltaMax < geom.Epsilon {
		deltaMax = 1
	}
	midX, midY := (minX+maxX)/2, (minY+maxY)/2

	// The super-triangle's vertices are appended after a copy of pts,
	// so they take indices superStart..superStart+2 in all.
	super := []geom.Vec2{
		{X: midX - 20*deltaMax, Y: midY - deltaMax},
		{X: midX, Y: midY + 20*deltaMax},
		{X: midX + 20*deltaMax, Y: midY - deltaMax},
	}
	all := make([]geom.Vec2, 0, len(pts)+3)
	all = append(all, pts...)
	all = append(all, super...)
	superStart := len(pts)

	tris := []triangle{{superStart, superStart + 1, superStart + 2}}

	type edge struct{ a, b int }

	for pi := 0; pi < len(pts); pi++ {
		p := pts[pi]
		var bad []int
		for ti, t := range tris {
			cx, cy, r2, ok := circumcircle(all[t.a], all[t.b], all[t.c])
			if !ok {
				continue
			}
			ddx, ddy := p.X-cx, p.Y-cy
			if ddx*ddx+ddy*ddy <= r2 {
				bad = append(bad, ti)
			}
		}

		edgeCount := map[edge]int{}
		var edgeOrder []edge
		addEdge := func(a, b int) {
			if a > b {
				a, b = b, a
			}
			e := edge{a, b}
			if edgeCount[e] == 0 {
				edgeOrder = append(edgeOrder, e)
			}
			edgeCount[e]++
		}
		for _, ti := range bad {
			t := tris[ti]
			addEdge(t.a, t.b)
			addEdge(t.b, t.c)
			addEdge(t.c, t.a)
		}

		keep := make([]triangle, 0, len(tris))
		badSet := make(map[int]bool, len(bad))
		for _, ti := range bad {
			badSet[ti] = true
		}
		for ti, t := range tris {
			if !badSet[ti] {
				keep = append(keep, t)
			}
		}
		tris = keep

		for _, e := range edgeOrder {
			if edgeCount[e] != 1 {
				continue
			}
			tris = append(tris, triangle{e.a, e.b, pi})
		}
	}

	out := make([]triangle, 0, len(tris))
	for _, t := range tris {
		if t.a >= superStart || t.b >= superStart || t.c >= superStart {
			continue
		}
		out = append(out, t)
	}
	return out
}

// circumcircle solves for the center and squared radius of the circle
// through p0,p1,p2 via the 2x2 linear system
//
//	2*(p1-p0)·c = |p1|^2-|p0|^2
//	2*(p2-p0)·c = |p2|^2-|p0|^2
//
// returning ok=false for (near-)collinear points.
func circumcircle(p0, p1, p2 geom.Vec2) (cx, cy, r2 float32, ok bool) {
	a := mat.NewDense(2, 2, []float64{
		2 * float64(p1.X-p0.X), 2 * float64(p1.Y-p0.Y),
		2 * float64(p2.X-p0.X), 2 * float64(p2.Y-p0.Y),
	})
	rhs := mat.NewVecDense(2, []float64{
		float64(p1.X*p1.X+p1.Y*p1.Y) - float64(p0.X*p0.X+p0.Y*p0.Y),
		float64(p2.X*p2.X+p2.Y*p2.Y) - float64(p0.X*p0.X+p0.Y*p0.Y),
	})

	var lu mat.LU
	lu.Factorize(a)
	if lu.Cond() > 1e12 {
		return 0, 0, 0, false
	}
	var center mat.VecDense
	if err := lu.SolveVecTo(&center, false, rhs); err != nil {
		return 0, 0, 0, false
	}
	cx, cy = float32(center.AtVec(0)), float32(center.AtVec(1))
	dx, dy := float64(p0.X)-float64(cx), float64(p0.Y)-float64(cy)
	return cx, cy, float32(dx*dx + dy*dy), true
}

package particle

import (
	"testing"

	"github.com/pthm-cable/particles/geom"
)

func TestDelaunaySingleTriangle(t *testing.T) {
	pts := []geom.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}
	tris := delaunay(pts)
	if len(tris) != 1 {
		t.Fatalf("expected exactly 1 triangle for 3 points, got %d", len(tris))
	}
}

func TestDelaunaySquareProducesTwoTriangles(t *testing.T) {
	pts := []geom.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	tris := delaunay(pts)
	if len(tris) != 2 {
		t.Fatalf("expected 2 triangles for a square, got %d", len(tris))
	}
}

func TestBuildTriadsFromVoronoiRejectsDistantPoints(t *testing.T) {
	s := NewSystem(testConfig(), noWorld{})
	d := s.cfg.diameter()
	near := []geom.Vec2{{X: 0, Y: 0}, {X: d * 0.3, Y: 0}, {X: 0, Y: d * 0.3}}
	indices := make([]int32, len(near))
	for i, p := range near {
		indices[i] = s.CreateParticle(ParticleDef{Flags: ElasticFlag, Position: p})
	}
	far := s.CreateParticle(ParticleDef{Flags: ElasticFlag, Position: geom.Vec2{X: 100, Y: 100}})
	indices = append(indices, far)

	s.buildTriadsFromVoronoi(indices, 1, nil)

	for _, tr := range s.triads {
		if tr.IndexA == far || tr.IndexB == far || tr.IndexC == far {
			t.Errorf("expected far-away point to never join a triad, triad=%+v", tr)
		}
	}
	if len(s.triads) == 0 {
		t.Error("expected at least one triad among the three nearby elastic particles")
	}
}

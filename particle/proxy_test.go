package particle

import (
	"testing"

	"github.com/pthm-cable/particles/geom"
)

func TestComputeRelativeTagMatchesComputeTag(t *testing.T) {
	const diameter = 0.2
	invDiameter := float32(1 / diameter)
	base := geom.Vec2{X: 1.3, Y: -4.7}
	tag := computeTag(base, invDiameter)

	for dx := int32(-2); dx <= 2; dx++ {
		for dy := int32(-2); dy <= 2; dy++ {
			want := computeTag(geom.Vec2{
				X: base.X + float32(dx)*diameter,
				Y: base.Y + float32(dy)*diameter,
			}, invDiameter)
			got := computeRelativeTag(tag, dx, dy)
			if got != want {
				t.Errorf("dx=%d dy=%d: computeRelativeTag=%d, computeTag(shifted)=%d", dx, dy, got, want)
			}
		}
	}
}

func TestProxyTagRangeFindsExactMatches(t *testing.T) {
	s := NewSystem(DefaultConfig(), noWorld{})
	for i := 0; i < 20; i++ {
		s.CreateParticle(ParticleDef{Position: geom.Vec2{X: float32(i) * 0.01, Y: 0}})
	}
	s.updateProxies(s.cfg.invDiameter())

	lo, hi := s.proxyTagRange(s.proxies[0].Tag, s.proxies[len(s.proxies)-1].Tag)
	if lo != 0 || hi != len(s.proxies) {
		t.Errorf("expected full range [0,%d), got [%d,%d)", len(s.proxies), lo, hi)
	}
}

package geom

import "testing"

func TestNormalizedFallback(t *testing.T) {
	v := Normalized(Vec2{0, 0}, Vec2{1, 0})
	if v.X != 1 || v.Y != 0 {
		t.Errorf("expected fallback (1,0), got (%v,%v)", v.X, v.Y)
	}
}

func TestNormalizedUnit(t *testing.T) {
	v := Normalized(Vec2{3, 4}, Vec2{})
	if got := Len(v); got < 0.999 || got > 1.001 {
		t.Errorf("expected unit length, got %f", got)
	}
}

func TestRotApplyInverse(t *testing.T) {
	r := NewRot(0.7)
	v := Vec2{1.5, -2.25}
	rv := r.Apply(v)
	back := r.InverseApply(rv)
	if DistSq(back, v) > 1e-6 {
		t.Errorf("expected round trip, got %+v want %+v", back, v)
	}
}

func TestCrossDot(t *testing.T) {
	a := Vec2{1, 0}
	b := Vec2{0, 1}
	if Cross(a, b) != 1 {
		t.Errorf("expected cross=1, got %f", Cross(a, b))
	}
	if Dot(a, b) != 0 {
		t.Errorf("expected dot=0, got %f", Dot(a, b))
	}
}

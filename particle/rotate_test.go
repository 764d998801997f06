package particle

import "testing"

func TestRotateRangeThenInverseRestoresOrder(t *testing.T) {
	original := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	s := append([]int(nil), original...)

	start, mid, end := 2, 5, 8
	rotateRange(s, start, mid, end)

	// The inverse of rotating [start,mid,end) is rotating the same
	// range around its new midpoint: the block that moved to the front
	// has length end-mid.
	newMid := start + (end - mid)
	rotateRange(s, start, newMid, end)

	for i := range original {
		if s[i] != original[i] {
			t.Fatalf("round trip failed at %d: got %v, want %v", i, s, original)
		}
	}
}

func TestRotateIndexMapping(t *testing.T) {
	s := []rune("ABCDEFGHIJ")
	original := append([]rune(nil), s...)
	start, mid, end := 2, 5, 8
	rotateRange(s, start, mid, end)

	for i := range original {
		ni := rotateIndex(int32(i), int32(start), int32(mid), int32(end))
		if s[ni] != original[i] {
			t.Errorf("index %d: expected rotated position %d to hold %q, got %q", i, ni, original[i], s[ni])
		}
	}
}

package geom

import (
	"github.com/Faultbox/wwcull/pkg/math"
)

// LineSeg is the segment from P0 to P1.
type LineSeg struct {
	P0, P1 math.Vec3
}

// Bounds returns the box spanned by the two endpoints.
func (l LineSeg) Bounds() AABox {
	return AABoxFromMinMax(l.P0, l.P1)
}

// Clip returns the parametric interval [t0, t1] of the segment inside b,
// using the slab method, and whether the segment touches b at all.
func (l LineSeg) Clip(b AABox) (t0, t1 float32, hit bool) {
	t0, t1 = 0, 1
	dir := l.P1.Sub(l.P0)
	lo, hi := b.Min(), b.Max()

	for i := 0; i < 3; i++ {
		o, d := l.P0.Axis(i), dir.Axis(i)
		if d == 0 {
			// Parallel to this slab: reject if outside it
			if o < lo.Axis(i) || o > hi.Axis(i) {
				return 0, 0, false
			}
			continue
		}
		ta := (lo.Axis(i) - o) / d
		tb := (hi.Axis(i) - o) / d
		if ta > tb {
			ta, tb = tb, ta
		}
		if ta > t0 {
			t0 = ta
		}
		if tb < t1 {
			t1 = tb
		}
		if t0 > t1 {
			return 0, 0, false
		}
	}
	return t0, t1, true
}

// IntersectsBox reports whether any part of the segment lies in b.
func (l LineSeg) IntersectsBox(b AABox) bool {
	_, _, hit := l.Clip(b)
	return hit
}

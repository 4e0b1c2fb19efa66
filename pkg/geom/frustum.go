package geom

import (
	"github.com/Faultbox/wwcull/pkg/math"
)

// Plane is the half-space Normal·p + D >= 0. The normal points inward.
type Plane struct {
	Normal math.Vec3
	D      float32
}

// Distance returns the signed distance from p to the plane.
func (p Plane) Distance(pt math.Vec3) float32 {
	return p.Normal.Dot(pt) + p.D
}

func normalizePlane(r math.Vec4) Plane {
	n := math.Vec3{X: r[0], Y: r[1], Z: r[2]}
	l := n.Length()
	if l == 0 {
		return Plane{}
	}
	return Plane{Normal: n.Scale(1 / l), D: r[3] / l}
}

// Frustum plane indices.
const (
	FrustumLeft = iota
	FrustumRight
	FrustumBottom
	FrustumTop
	FrustumNear
	FrustumFar
	FrustumPlaneCount
)

// AllPlanesPassed is the plane mask of a box inside every frustum plane.
const AllPlanesPassed uint32 = 1<<FrustumPlaneCount - 1

// Frustum is a view volume: six inward-facing planes plus its corners and
// their enclosing box.
type Frustum struct {
	Planes  [FrustumPlaneCount]Plane
	Corners [8]math.Vec3
	Bound   AABox
}

// NewFrustum extracts the frustum of a column-major view-projection matrix
// (Gribb/Hartmann) and unprojects the NDC cube to find its corners.
func NewFrustum(viewProj math.Mat4) Frustum {
	r0, r1, r2, r3 := viewProj.Row(0), viewProj.Row(1), viewProj.Row(2), viewProj.Row(3)
	add := func(a, b math.Vec4) math.Vec4 { return math.Vec4{a[0] + b[0], a[1] + b[1], a[2] + b[2], a[3] + b[3]} }
	sub := func(a, b math.Vec4) math.Vec4 { return math.Vec4{a[0] - b[0], a[1] - b[1], a[2] - b[2], a[3] - b[3]} }

	var f Frustum
	f.Planes[FrustumLeft] = normalizePlane(add(r3, r0))
	f.Planes[FrustumRight] = normalizePlane(sub(r3, r0))
	f.Planes[FrustumBottom] = normalizePlane(add(r3, r1))
	f.Planes[FrustumTop] = normalizePlane(sub(r3, r1))
	f.Planes[FrustumNear] = normalizePlane(add(r3, r2))
	f.Planes[FrustumFar] = normalizePlane(sub(r3, r2))

	inv := viewProj.Inverse()
	i := 0
	for _, z := range []float32{-1, 1} {
		for _, y := range []float32{-1, 1} {
			for _, x := range []float32{-1, 1} {
				f.Corners[i] = inv.TransformPoint(math.Vec3{X: x, Y: y, Z: z})
				i++
			}
		}
	}
	f.Bound = AABoxFromPoints(f.Corners[:])
	return f
}

// ContainsPoint reports whether p is on the inner side of every plane.
func (f *Frustum) ContainsPoint(p math.Vec3) bool {
	for i := range f.Planes {
		if f.Planes[i].Distance(p) < 0 {
			return false
		}
	}
	return true
}

// ClassifyBox tests b against every plane whose bit is not yet set in
// planesPassed. It returns the classification and the updated mask, with a
// bit set for each plane b lies fully inside of. Children of a box can reuse
// the mask and skip those planes.
func (f *Frustum) ClassifyBox(b AABox, planesPassed uint32) (Overlap, uint32) {
	for i := range f.Planes {
		bit := uint32(1) << i
		if planesPassed&bit != 0 {
			continue
		}
		p := &f.Planes[i]
		r := p.Normal.Abs().Dot(b.Extent)
		s := p.Distance(b.Center)
		if s+r < 0 {
			return Outside, planesPassed
		}
		if s-r >= 0 {
			planesPassed |= bit
		}
	}
	if planesPassed == AllPlanesPassed {
		return Inside, planesPassed
	}
	return Overlapping, planesPassed
}

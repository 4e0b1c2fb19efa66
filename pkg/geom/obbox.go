package geom

import (
	"github.com/Faultbox/wwcull/pkg/math"
	"github.com/chewxy/math32"
)

// OBBox is an oriented box: a center, half-extents along each local axis and
// the orthonormal local axes in world space.
type OBBox struct {
	Center math.Vec3
	Extent math.Vec3
	Basis  [3]math.Vec3
}

// NewOBBox creates an oriented box rotated by q.
func NewOBBox(center, extent math.Vec3, q math.Quat) OBBox {
	return OBBox{Center: center, Extent: extent.Abs(), Basis: q.Basis()}
}

// OBBoxFromAABox returns the oriented box equal to an axis-aligned one.
func OBBoxFromAABox(b AABox) OBBox {
	return NewOBBox(b.Center, b.Extent, math.QuatIdentity())
}

// Bounds returns the axis-aligned box enclosing the oriented box.
func (o OBBox) Bounds() AABox {
	var ext math.Vec3
	for i := 0; i < 3; i++ {
		var e float32
		for j := 0; j < 3; j++ {
			e += math32.Abs(o.Basis[j].Axis(i)) * o.Extent.Axis(j)
		}
		ext = ext.WithAxis(i, e)
	}
	return AABox{Center: o.Center, Extent: ext}
}

// ContainsPoint reports whether p lies inside or on the oriented box.
func (o OBBox) ContainsPoint(p math.Vec3) bool {
	d := p.Sub(o.Center)
	for j := 0; j < 3; j++ {
		if math32.Abs(d.Dot(o.Basis[j])) > o.Extent.Axis(j)+1e-5 {
			return false
		}
	}
	return true
}

// ContainsBox reports whether every corner of b lies inside the oriented box.
func (o OBBox) ContainsBox(b AABox) bool {
	for _, c := range b.Corners() {
		if !o.ContainsPoint(c) {
			return false
		}
	}
	return true
}

// projectedRadius returns the half-length of the oriented box projected on axis.
func (o OBBox) projectedRadius(axis math.Vec3) float32 {
	return math32.Abs(o.Basis[0].Dot(axis))*o.Extent.X +
		math32.Abs(o.Basis[1].Dot(axis))*o.Extent.Y +
		math32.Abs(o.Basis[2].Dot(axis))*o.Extent.Z
}

// IntersectsBox runs the separating axis test against an axis-aligned box:
// the three world axes, the three box axes and their nine cross products.
func (o OBBox) IntersectsBox(b AABox) bool {
	d := o.Center.Sub(b.Center)
	world := [3]math.Vec3{{X: 1}, {Y: 1}, {Z: 1}}

	separated := func(axis math.Vec3) bool {
		if axis.Dot(axis) < 1e-8 {
			return false // parallel edges give a degenerate axis
		}
		ra := math32.Abs(axis.X)*b.Extent.X + math32.Abs(axis.Y)*b.Extent.Y + math32.Abs(axis.Z)*b.Extent.Z
		rb := o.projectedRadius(axis)
		return math32.Abs(d.Dot(axis)) > ra+rb
	}

	for i := 0; i < 3; i++ {
		if separated(world[i]) || separated(o.Basis[i]) {
			return false
		}
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if separated(world[i].Cross(o.Basis[j])) {
				return false
			}
		}
	}
	return true
}

// Classify reports how b relates to the oriented box.
func (o OBBox) Classify(b AABox) Overlap {
	if !o.IntersectsBox(b) {
		return Outside
	}
	if o.ContainsBox(b) {
		return Inside
	}
	return Overlapping
}

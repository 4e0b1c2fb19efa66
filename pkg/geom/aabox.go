// Package geom provides the bounding volumes the cull systems test against:
// axis-aligned boxes, oriented boxes, view frustums and line segments.
package geom

import (
	"fmt"

	"github.com/Faultbox/wwcull/pkg/math"
	"github.com/chewxy/math32"
)

// Overlap classifies a box against a query volume.
type Overlap uint8

// Overlap results.
const (
	Outside     Overlap = iota // disjoint
	Overlapping                // partially inside
	Inside                     // fully contained
)

// String returns a human-readable overlap name.
func (o Overlap) String() string {
	switch o {
	case Outside:
		return "Outside"
	case Overlapping:
		return "Overlapping"
	case Inside:
		return "Inside"
	default:
		return fmt.Sprintf("Unknown(%d)", o)
	}
}

// AABox is an axis-aligned box stored as center and half-extents.
type AABox struct {
	Center math.Vec3
	Extent math.Vec3
}

// NewAABox creates a box from center and half-extents.
func NewAABox(center, extent math.Vec3) AABox {
	return AABox{Center: center, Extent: extent.Abs()}
}

// AABoxFromMinMax creates a box from its corners, handling swapped corners.
func AABoxFromMinMax(min, max math.Vec3) AABox {
	lo := min.Min(max)
	hi := min.Max(max)
	return AABox{
		Center: lo.Add(hi).Scale(0.5),
		Extent: hi.Sub(lo).Scale(0.5),
	}
}

// AABoxFromPoints returns the smallest box containing every point.
// An empty slice yields the zero box.
func AABoxFromPoints(points []math.Vec3) AABox {
	if len(points) == 0 {
		return AABox{}
	}
	lo, hi := points[0], points[0]
	for _, p := range points[1:] {
		lo = lo.Min(p)
		hi = hi.Max(p)
	}
	return AABoxFromMinMax(lo, hi)
}

// Min returns the minimum corner.
func (b AABox) Min() math.Vec3 {
	return b.Center.Sub(b.Extent)
}

// Max returns the maximum corner.
func (b AABox) Max() math.Vec3 {
	return b.Center.Add(b.Extent)
}

// ContainsPoint reports whether p lies inside or on the box.
func (b AABox) ContainsPoint(p math.Vec3) bool {
	d := p.Sub(b.Center).Abs()
	return d.X <= b.Extent.X && d.Y <= b.Extent.Y && d.Z <= b.Extent.Z
}

// ContainsBox reports whether other lies entirely inside b.
func (b AABox) ContainsBox(other AABox) bool {
	lo, hi := b.Min(), b.Max()
	olo, ohi := other.Min(), other.Max()
	return olo.X >= lo.X && olo.Y >= lo.Y && olo.Z >= lo.Z &&
		ohi.X <= hi.X && ohi.Y <= hi.Y && ohi.Z <= hi.Z
}

// Intersects reports whether the boxes overlap. Touching boxes intersect.
func (b AABox) Intersects(other AABox) bool {
	d := b.Center.Sub(other.Center).Abs()
	e := b.Extent.Add(other.Extent)
	return d.X <= e.X && d.Y <= e.Y && d.Z <= e.Z
}

// Classify reports how other relates to b.
func (b AABox) Classify(other AABox) Overlap {
	if !b.Intersects(other) {
		return Outside
	}
	if b.ContainsBox(other) {
		return Inside
	}
	return Overlapping
}

// Union returns the smallest box containing both boxes.
func (b AABox) Union(other AABox) AABox {
	return AABoxFromMinMax(b.Min().Min(other.Min()), b.Max().Max(other.Max()))
}

// Expand grows the box by d on every side.
func (b AABox) Expand(d float32) AABox {
	return AABox{Center: b.Center, Extent: b.Extent.Add(math.Splat(d))}
}

// SurfaceArea returns the area of the box surface.
func (b AABox) SurfaceArea() float32 {
	s := b.Extent.Scale(2)
	return 2 * (s.X*s.Y + s.Y*s.Z + s.Z*s.X)
}

// Volume returns the box volume.
func (b AABox) Volume() float32 {
	s := b.Extent.Scale(2)
	return s.X * s.Y * s.Z
}

// Corners returns the eight box corners.
func (b AABox) Corners() [8]math.Vec3 {
	lo, hi := b.Min(), b.Max()
	return [8]math.Vec3{
		{X: lo.X, Y: lo.Y, Z: lo.Z},
		{X: hi.X, Y: lo.Y, Z: lo.Z},
		{X: lo.X, Y: hi.Y, Z: lo.Z},
		{X: hi.X, Y: hi.Y, Z: lo.Z},
		{X: lo.X, Y: lo.Y, Z: hi.Z},
		{X: hi.X, Y: lo.Y, Z: hi.Z},
		{X: lo.X, Y: hi.Y, Z: hi.Z},
		{X: hi.X, Y: hi.Y, Z: hi.Z},
	}
}

// IsValid reports whether the box has finite, non-negative extents.
func (b AABox) IsValid() bool {
	for i := 0; i < 3; i++ {
		c, e := b.Center.Axis(i), b.Extent.Axis(i)
		if math32.IsNaN(c) || math32.IsInf(c, 0) || math32.IsNaN(e) || math32.IsInf(e, 0) || e < 0 {
			return false
		}
	}
	return true
}

package cull

import (
	"fmt"

	"github.com/Faultbox/wwcull/pkg/geom"
	"github.com/Faultbox/wwcull/pkg/math"
)

// Shape tags the volume a Query collects against.
type Shape uint8

// Query shapes.
const (
	ShapePoint Shape = iota
	ShapeBox
	ShapeOBBox
	ShapeFrustum
	ShapeLine
)

// String returns the shape name.
func (s Shape) String() string {
	switch s {
	case ShapePoint:
		return "point"
	case ShapeBox:
		return "box"
	case ShapeOBBox:
		return "obbox"
	case ShapeFrustum:
		return "frustum"
	case ShapeLine:
		return "line"
	default:
		return fmt.Sprintf("Shape(%d)", s)
	}
}

// Query is a tagged union of the volumes a culling system can collect
// against. Only the field named by Shape is meaningful.
type Query struct {
	Shape   Shape
	Point   math.Vec3
	Box     geom.AABox
	OBBox   geom.OBBox
	Frustum *geom.Frustum
	Line    geom.LineSeg
}

// PointQuery collects objects whose box contains p.
func PointQuery(p math.Vec3) Query {
	return Query{Shape: ShapePoint, Point: p}
}

// BoxQuery collects objects whose box overlaps b.
func BoxQuery(b geom.AABox) Query {
	return Query{Shape: ShapeBox, Box: b}
}

// OBBoxQuery collects objects whose box overlaps the oriented box o.
func OBBoxQuery(o geom.OBBox) Query {
	return Query{Shape: ShapeOBBox, OBBox: o}
}

// FrustumQuery collects objects whose box is at least partly inside f.
func FrustumQuery(f *geom.Frustum) Query {
	return Query{Shape: ShapeFrustum, Frustum: f}
}

// LineQuery collects objects whose box is crossed by the segment l.
func LineQuery(l geom.LineSeg) Query {
	return Query{Shape: ShapeLine, Line: l}
}

// Volume is the intersection predicate the systems' traversals run on.
type Volume interface {
	// Bounds returns an axis-aligned box enclosing the volume.
	Bounds() geom.AABox
	// Classify reports how box relates to the volume. planesPassed is only
	// used by frustums; other volumes return it unchanged.
	Classify(box geom.AABox, planesPassed uint32) (geom.Overlap, uint32)
}

// Volume returns the predicate for q.
func (q Query) Volume() Volume {
	switch q.Shape {
	case ShapePoint:
		return pointVolume{q.Point}
	case ShapeBox:
		return boxVolume{q.Box}
	case ShapeOBBox:
		return obboxVolume{q.OBBox}
	case ShapeFrustum:
		if q.Frustum == nil {
			panic("cull: frustum query without a frustum")
		}
		return frustumVolume{q.Frustum}
	case ShapeLine:
		return lineVolume{q.Line}
	default:
		panic(fmt.Sprintf("cull: unknown query shape %d", q.Shape))
	}
}

type pointVolume struct{ p math.Vec3 }

func (v pointVolume) Bounds() geom.AABox {
	return geom.AABox{Center: v.p}
}

func (v pointVolume) Classify(box geom.AABox, mask uint32) (geom.Overlap, uint32) {
	if box.ContainsPoint(v.p) {
		return geom.Overlapping, mask
	}
	return geom.Outside, mask
}

type boxVolume struct{ b geom.AABox }

func (v boxVolume) Bounds() geom.AABox {
	return v.b
}

func (v boxVolume) Classify(box geom.AABox, mask uint32) (geom.Overlap, uint32) {
	return v.b.Classify(box), mask
}

type obboxVolume struct{ o geom.OBBox }

func (v obboxVolume) Bounds() geom.AABox {
	return v.o.Bounds()
}

func (v obboxVolume) Classify(box geom.AABox, mask uint32) (geom.Overlap, uint32) {
	return v.o.Classify(box), mask
}

type frustumVolume struct{ f *geom.Frustum }

func (v frustumVolume) Bounds() geom.AABox {
	return v.f.Bound
}

func (v frustumVolume) Classify(box geom.AABox, mask uint32) (geom.Overlap, uint32) {
	return v.f.ClassifyBox(box, mask)
}

type lineVolume struct{ l geom.LineSeg }

func (v lineVolume) Bounds() geom.AABox {
	return v.l.Bounds()
}

func (v lineVolume) Classify(box geom.AABox, mask uint32) (geom.Overlap, uint32) {
	if v.l.IntersectsBox(box) {
		return geom.Overlapping, mask
	}
	return geom.Outside, mask
}

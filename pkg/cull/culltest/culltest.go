// Package culltest provides objects and reference queries for testing
// culling systems.
package culltest

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/Faultbox/wwcull/pkg/cull"
	"github.com/Faultbox/wwcull/pkg/geom"
	"github.com/Faultbox/wwcull/pkg/math"
	"github.com/chewxy/math32"
)

// Object is a named Cullable.
type Object struct {
	cull.Base
	ID int
}

// NewObject returns an unlinked object with the given box.
func NewObject(id int, box geom.AABox) *Object {
	o := &Object{ID: id}
	o.SetCullBox(box, false)
	return o
}

// String returns a short description of o.
func (o *Object) String() string {
	return fmt.Sprintf("obj#%d", o.ID)
}

// RandomObjects returns n objects with centers inside bounds and half
// extents in [minExt, maxExt).
func RandomObjects(rng *rand.Rand, n int, bounds geom.AABox, minExt, maxExt float32) []*Object {
	objs := make([]*Object, n)
	for i := range objs {
		c := RandomPoint(rng, bounds)
		e := math.Vec3{
			X: minExt + rng.Float32()*(maxExt-minExt),
			Y: minExt + rng.Float32()*(maxExt-minExt),
			Z: minExt + rng.Float32()*(maxExt-minExt),
		}
		objs[i] = NewObject(i, geom.NewAABox(c, e))
	}
	return objs
}

// RandomPoint returns a point inside bounds.
func RandomPoint(rng *rand.Rand, bounds geom.AABox) math.Vec3 {
	lo, hi := bounds.Min(), bounds.Max()
	return math.Vec3{
		X: lo.X + rng.Float32()*(hi.X-lo.X),
		Y: lo.Y + rng.Float32()*(hi.Y-lo.Y),
		Z: lo.Z + rng.Float32()*(hi.Z-lo.Z),
	}
}

// RandomQueries returns n queries of every shape spread over bounds.
func RandomQueries(rng *rand.Rand, n int, bounds geom.AABox) []cull.Query {
	span := bounds.Extent.MaxComponent()
	qs := make([]cull.Query, 0, n)
	for i := 0; i < n; i++ {
		c := RandomPoint(rng, bounds)
		e := math.Splat(rng.Float32() * span * 0.5)
		switch i % 5 {
		case 0:
			qs = append(qs, cull.PointQuery(c))
		case 1:
			qs = append(qs, cull.BoxQuery(geom.NewAABox(c, e)))
		case 2:
			q := math.QuatFromAxisAngle(math.Vec3{X: 1, Y: 1, Z: 0}, rng.Float32()*math32.Pi)
			qs = append(qs, cull.OBBoxQuery(geom.NewOBBox(c, e, q)))
		case 3:
			qs = append(qs, cull.LineQuery(geom.LineSeg{P0: c, P1: RandomPoint(rng, bounds)}))
		case 4:
			f := LookFrustum(bounds.Center.Add(math.Vec3{Z: span * 2}), c, span*4)
			qs = append(qs, cull.FrustumQuery(&f))
		}
	}
	return qs
}

// LookFrustum returns a 60 degree frustum at eye looking at target.
func LookFrustum(eye, target math.Vec3, far float32) geom.Frustum {
	proj := math.Perspective(math32.Pi/3, 1, 0.5, far)
	view := math.LookAt(eye, target, math.Vec3{Y: 1})
	return geom.NewFrustum(proj.Mul(view))
}

// BruteForce returns the IDs of every object q selects, sorted.
func BruteForce(objs []*Object, q cull.Query) []int {
	vol := q.Volume()
	ids := []int{}
	for _, o := range objs {
		if ov, _ := vol.Classify(o.CullBox(), 0); ov != geom.Outside {
			ids = append(ids, o.ID)
		}
	}
	slices.Sort(ids)
	return ids
}

// IDs returns the sorted IDs of objs.
func IDs(objs []*Object) []int {
	ids := make([]int, 0, len(objs))
	for _, o := range objs {
		ids = append(ids, o.ID)
	}
	slices.Sort(ids)
	return ids
}

package cull

import (
	"testing"

	"github.com/Faultbox/wwcull/pkg/geom"
	"github.com/Faultbox/wwcull/pkg/math"
	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

func unitBoxAt(x, y, z float32) geom.AABox {
	return geom.NewAABox(math.Vec3{X: x, Y: y, Z: z}, math.Splat(1))
}

func TestQueryVolumes(t *testing.T) {
	proj := math.Perspective(math32.Pi/2, 1, 1, 100)
	view := math.LookAt(math.Vec3{}, math.Vec3{Z: -1}, math.Vec3{Y: 1})
	frustum := geom.NewFrustum(proj.Mul(view))

	tests := []struct {
		name string
		q    Query
		box  geom.AABox
		want geom.Overlap
	}{
		{"point inside", PointQuery(math.Vec3{X: 0.5}), unitBoxAt(0, 0, 0), geom.Overlapping},
		{"point outside", PointQuery(math.Vec3{X: 5}), unitBoxAt(0, 0, 0), geom.Outside},
		{"box contains", BoxQuery(geom.NewAABox(math.Vec3{}, math.Splat(10))), unitBoxAt(0, 0, 0), geom.Inside},
		{"box disjoint", BoxQuery(geom.NewAABox(math.Vec3{}, math.Splat(1))), unitBoxAt(5, 0, 0), geom.Outside},
		{"obbox overlap", OBBoxQuery(geom.OBBoxFromAABox(unitBoxAt(1, 0, 0))), unitBoxAt(0, 0, 0), geom.Overlapping},
		{"frustum inside", FrustumQuery(&frustum), unitBoxAt(0, 0, -10), geom.Inside},
		{"frustum behind", FrustumQuery(&frustum), unitBoxAt(0, 0, 10), geom.Outside},
		{"line crosses", LineQuery(geom.LineSeg{P0: math.Vec3{X: -5}, P1: math.Vec3{X: 5}}), unitBoxAt(0, 0, 0), geom.Overlapping},
		{"line misses", LineQuery(geom.LineSeg{P0: math.Vec3{X: -5, Y: 3}, P1: math.Vec3{X: 5, Y: 3}}), unitBoxAt(0, 0, 0), geom.Outside},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := tt.q.Volume().Classify(tt.box, 0)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQueryBounds(t *testing.T) {
	seg := geom.LineSeg{P0: math.Vec3{X: 4, Y: 0, Z: 0}, P1: math.Vec3{X: 0, Y: 2, Z: 0}}
	b := LineQuery(seg).Volume().Bounds()
	assert.Equal(t, math.Vec3{}, b.Min())
	assert.Equal(t, math.Vec3{X: 4, Y: 2}, b.Max())

	p := PointQuery(math.Vec3{X: 1, Y: 2, Z: 3}).Volume().Bounds()
	assert.Equal(t, math.Vec3{}, p.Extent)
}

func TestQueryUnknownShapePanics(t *testing.T) {
	assert.Panics(t, func() { Query{Shape: 99}.Volume() })
	assert.Panics(t, func() { Query{Shape: ShapeFrustum}.Volume() })
}

package grid

import (
	"math/rand/v2"
	"testing"

	"github.com/Faultbox/wwcull/pkg/cull"
	"github.com/Faultbox/wwcull/pkg/cull/culltest"
	"github.com/Faultbox/wwcull/pkg/geom"
	"github.com/Faultbox/wwcull/pkg/math"
	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func v3(x, y, z float32) math.Vec3 {
	return math.Vec3{X: x, Y: y, Z: z}
}

// newGrid returns a 4x4x4 grid of 10 unit cells starting at the origin.
func newGrid(t *testing.T) *System[*culltest.Object] {
	t.Helper()
	s := New[*culltest.Object](WithMinCellSize(math.Splat(10)))
	s.RePartition(v3(0, 0, 0), v3(40, 40, 40), 5)
	require.Equal(t, [3]int{4, 4, 4}, s.CellCount())
	return s
}

func collectedIDs(s *System[*culltest.Object]) []int {
	return culltest.IDs(s.CollectedObjects())
}

func TestMapPointToCell(t *testing.T) {
	s := newGrid(t)
	assert.Equal(t, v3(10, 10, 10), s.CellDim())

	i, j, k, ok := s.MapPointToCell(v3(15, 5, 5))
	require.True(t, ok)
	assert.Equal(t, [3]int{1, 0, 0}, [3]int{i, j, k})
	assert.Equal(t, 1, s.MapIndicesToAddress(i, j, k))

	i, j, k, ok = s.MapPointToCell(v3(39.9, 20, 0))
	require.True(t, ok)
	assert.Equal(t, [3]int{3, 2, 0}, [3]int{i, j, k})

	for _, p := range []math.Vec3{v3(-0.1, 5, 5), v3(5, 40, 5), v3(5, 5, 100)} {
		_, _, _, ok := s.MapPointToCell(p)
		assert.False(t, ok, "point %v should be outside the grid", p)
	}
}

func TestAddressBijection(t *testing.T) {
	s := New[*culltest.Object](WithMinCellSize(math.Splat(1)))
	s.RePartition(v3(0, 0, 0), v3(3, 5, 7), 1)
	require.Equal(t, [3]int{3, 5, 7}, s.CellCount())

	seen := make(map[int]bool)
	for k := 0; k < 7; k++ {
		for j := 0; j < 5; j++ {
			for i := 0; i < 3; i++ {
				addr := s.MapIndicesToAddress(i, j, k)
				require.False(t, seen[addr], "address %d produced twice", addr)
				seen[addr] = true
				gi, gj, gk := s.MapAddressToIndices(addr)
				assert.Equal(t, [3]int{i, j, k}, [3]int{gi, gj, gk})
			}
		}
	}
	assert.Len(t, seen, s.TotalCellCount())
	assert.Panics(t, func() { s.MapIndicesToAddress(3, 0, 0) })
	assert.Panics(t, func() { s.MapAddressToIndices(s.TotalCellCount()) })
}

func TestRePartitionRespectsCellCap(t *testing.T) {
	s := New[*culltest.Object](WithMinCellSize(math.Splat(10)), WithTerminationCellCount(8))
	s.RePartition(v3(0, 0, 0), v3(100, 100, 100), 5)

	assert.Equal(t, [3]int{2, 2, 2}, s.CellCount())
	assert.LessOrEqual(t, s.TotalCellCount(), 8)
	assert.Equal(t, v3(50, 50, 50), s.CellDim())
}

func TestRePartitionNeverShrinksBelowMinCell(t *testing.T) {
	s := New[*culltest.Object](WithMinCellSize(math.Splat(10)))
	s.RePartition(v3(0, 0, 0), v3(25, 5, 0), 5)

	assert.Equal(t, [3]int{2, 1, 1}, s.CellCount())
	dim := s.CellDim()
	assert.Equal(t, float32(12.5), dim.X)
	assert.Equal(t, float32(5), dim.Y)
	assert.Equal(t, float32(10), dim.Z, "a flat axis falls back to the minimum cell size")
}

func TestRePartitionHugeWorldClampsCells(t *testing.T) {
	for _, span := range []float32{3e7, 1e8, 1e9} {
		s := New[*culltest.Object]()
		o := culltest.NewObject(1, geom.NewAABox(math.Splat(span/2), math.Splat(1)))
		s.Add(o)
		s.RePartition(v3(0, 0, 0), math.Splat(span), 15)

		assert.LessOrEqual(t, s.TotalCellCount(), DefaultTerminationCellCount, "span %v", span)
		assert.Equal(t, 1, s.ObjectCount())
		s.Collect(cull.PointQuery(math.Splat(span / 2)))
		assert.Equal(t, []int{1}, collectedIDs(s), "span %v", span)
	}
}

func TestFitCellCountSaturates(t *testing.T) {
	got := fitCellCount(math.Splat(3e7), math.Splat(10), 16384)
	total := got[0] * got[1] * got[2]
	if total < 1 || total > 16384 {
		t.Errorf("fitCellCount() = %v (total %d), want a total in [1, 16384]", got, total)
	}

	got = fitCellCount(math.Splat(math32.Inf(1)), math.Splat(10), 8)
	if got != [3]int{1, 1, 1} {
		t.Errorf("fitCellCount(inf) = %v, want [1 1 1]", got)
	}
}

func TestCellBoxes(t *testing.T) {
	s := newGrid(t)
	b := s.CellBox(1, 2, 3)
	assert.Equal(t, v3(10, 20, 30), b.Min())
	assert.Equal(t, v3(20, 30, 40), b.Max())

	e := s.EffectiveCellBox(1, 2, 3)
	assert.Equal(t, v3(5, 15, 25), e.Min())
	assert.Equal(t, v3(25, 35, 45), e.Max())
}

func TestAddPlacesObjects(t *testing.T) {
	s := newGrid(t)
	small := culltest.NewObject(1, geom.NewAABox(v3(15, 5, 5), math.Splat(2)))
	big := culltest.NewObject(2, geom.NewAABox(v3(15, 5, 5), v3(1, 6, 1)))
	outside := culltest.NewObject(3, geom.NewAABox(v3(-20, 5, 5), math.Splat(1)))

	s.Add(small)
	s.Add(big)
	s.Add(outside)

	assert.Equal(t, 3, s.ObjectCount())
	assert.Equal(t, int32(1), s.Address(small))
	assert.Equal(t, NoGridAddress, s.Address(big))
	assert.Equal(t, NoGridAddress, s.Address(outside))
	assert.Equal(t, 2, s.NoGridCount())
	assert.Equal(t, 1, s.CellObjectCount(1))
	assert.True(t, s.Contains(small))
	assert.Same(t, cull.System(s), small.CullingSystem())
}

func TestAddTwicePanics(t *testing.T) {
	a := newGrid(t)
	b := newGrid(t)
	o := culltest.NewObject(1, geom.NewAABox(v3(5, 5, 5), math.Splat(1)))
	a.Add(o)
	assert.Panics(t, func() { b.Add(o) })
	assert.Panics(t, func() { b.Remove(o) })
}

func TestRemove(t *testing.T) {
	s := newGrid(t)
	o := culltest.NewObject(1, geom.NewAABox(v3(5, 5, 5), math.Splat(1)))
	far := culltest.NewObject(2, geom.NewAABox(v3(500, 5, 5), math.Splat(1)))
	s.Add(o)
	s.Add(far)

	s.Collect(cull.BoxQuery(geom.NewAABox(v3(20, 20, 20), math.Splat(1000))))
	require.Equal(t, 2, s.CollectionLen())

	s.Remove(o)
	s.Remove(far)
	assert.Equal(t, 0, s.ObjectCount())
	assert.Equal(t, 0, s.CollectionLen(), "removal resets the collection")
	assert.False(t, o.CullLink().IsLinked())
	assert.Nil(t, far.CullingSystem())
	assert.Equal(t, 0, s.NoGridCount())

	s.Collect(cull.BoxQuery(geom.NewAABox(v3(20, 20, 20), math.Splat(1000))))
	assert.Empty(t, s.CollectedObjects())
	assert.Panics(t, func() { s.Remove(o) })
}

func TestUpdateCulling(t *testing.T) {
	s := newGrid(t)
	o := culltest.NewObject(1, geom.NewAABox(v3(5, 5, 5), math.Splat(1)))
	s.Add(o)
	require.Equal(t, int32(0), s.Address(o))

	o.SetCullBox(geom.NewAABox(v3(6, 6, 6), math.Splat(2)), false)
	assert.Equal(t, int32(0), s.Address(o), "same cell keeps the address")
	assert.Equal(t, 1, s.CellObjectCount(0))

	o.SetCullBox(geom.NewAABox(v3(35, 35, 35), math.Splat(1)), false)
	addr := s.MapIndicesToAddress(3, 3, 3)
	assert.Equal(t, int32(addr), s.Address(o))
	assert.Equal(t, 0, s.CellObjectCount(0))
	assert.Equal(t, 1, s.CellObjectCount(addr))

	s.Collect(cull.PointQuery(v3(5, 5, 5)))
	assert.Empty(t, s.CollectedObjects())
	s.Collect(cull.PointQuery(v3(35, 35, 35)))
	assert.Equal(t, []int{1}, collectedIDs(s))

	o.SetCullBox(geom.NewAABox(v3(35, 35, 35), math.Splat(30)), false)
	assert.Equal(t, NoGridAddress, s.Address(o))

	o.SetCullBox(geom.NewAABox(v3(1, 1, 1), math.Splat(1)), true)
	assert.Equal(t, NoGridAddress, s.Address(o), "a loaded box does not re-link")
}

func TestComputeVolume(t *testing.T) {
	s := newGrid(t)

	v := s.ComputeVolume(geom.AABoxFromMinMax(v3(12, 12, 12), v3(18, 18, 18)))
	assert.Equal(t, Volume{Min: [3]int{0, 0, 0}, Max: [3]int{3, 3, 3}}, v)

	v = s.ComputeVolume(geom.AABoxFromMinMax(v3(-100, -100, -100), v3(100, 100, 100)))
	assert.Equal(t, Volume{Max: [3]int{4, 4, 4}}, v, "volume is clamped to the grid")
	assert.Equal(t, 64, v.CellCount())

	v = s.ComputeVolume(geom.AABoxFromMinMax(v3(100, 0, 0), v3(120, 10, 10)))
	assert.True(t, v.IsEmpty())
	assert.Equal(t, 0, v.CellCount())

	v = s.ComputeVolume(geom.AABoxFromMinMax(v3(-30, 0, 0), v3(-20, 10, 10)))
	assert.True(t, v.IsEmpty())
}

func TestCollectDisjointQueryFindsNothing(t *testing.T) {
	s := newGrid(t)
	s.Add(culltest.NewObject(1, geom.NewAABox(v3(5, 5, 5), math.Splat(1))))
	s.Add(culltest.NewObject(2, geom.NewAABox(v3(35, 35, 35), math.Splat(1))))

	s.Collect(cull.BoxQuery(geom.AABoxFromMinMax(v3(15, 15, 15), v3(25, 25, 25))))
	assert.Empty(t, s.CollectedObjects())

	s.Collect(cull.BoxQuery(geom.AABoxFromMinMax(v3(0, 0, 0), v3(10, 10, 10))))
	assert.Equal(t, []int{1}, collectedIDs(s))
}

func TestCollectScansNoGridList(t *testing.T) {
	s := newGrid(t)
	huge := culltest.NewObject(1, geom.NewAABox(v3(200, 0, 0), math.Splat(50)))
	s.Add(huge)
	require.Equal(t, 1, s.NoGridCount())

	q := cull.BoxQuery(geom.AABoxFromMinMax(v3(160, 0, 0), v3(170, 1, 1)))
	require.True(t, s.ComputeVolume(q.Box).IsEmpty())
	s.Collect(q)
	assert.Equal(t, []int{1}, collectedIDs(s), "overflow objects are found even when no cell is visited")

	s.Collect(cull.PointQuery(v3(0, 500, 0)))
	assert.Empty(t, s.CollectedObjects())
}

func TestCollectMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	world := geom.AABoxFromMinMax(v3(0, 0, 0), v3(100, 100, 100))

	s := New[*culltest.Object](WithMinCellSize(math.Splat(8)))
	s.RePartition(world.Min(), world.Max(), 4)

	objs := culltest.RandomObjects(rng, 300, world.Expand(10), 0.1, 4)
	objs = append(objs, culltest.RandomObjects(rng, 20, world, 5, 20)...)
	for i, o := range objs {
		o.ID = i
		s.Add(o)
	}
	require.Greater(t, s.NoGridCount(), 0)

	for i, q := range culltest.RandomQueries(rng, 100, world) {
		s.Collect(q)
		assert.Equal(t, culltest.BruteForce(objs, q), collectedIDs(s), "query %d (%v)", i, q.Shape)
	}
}

func TestRePartitionKeepsObjects(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	world := geom.AABoxFromMinMax(v3(-50, -50, -50), v3(50, 50, 50))
	objs := culltest.RandomObjects(rng, 100, world, 0.5, 2)

	s := New[*culltest.Object]()
	for _, o := range objs {
		s.Add(o)
	}
	s.RePartition(world.Min(), world.Max(), 2)

	assert.Equal(t, 100, s.ObjectCount())
	assert.Equal(t, 0, s.NoGridCount())
	for _, o := range objs {
		assert.Same(t, cull.System(s), o.CullingSystem())
		i, j, k, ok := s.MapPointToCell(o.CullBox().Center)
		require.True(t, ok)
		assert.Equal(t, int32(s.MapIndicesToAddress(i, j, k)), s.Address(o))
	}

	q := cull.BoxQuery(world)
	s.Collect(q)
	assert.Equal(t, culltest.IDs(objs), collectedIDs(s))
}

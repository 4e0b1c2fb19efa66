// Package grid implements a culling system that buckets objects into a
// uniform 3D grid by the center of their box.
//
// Only box centers are gridded, so a cell's effective volume is the cell
// expanded by MaxObjExtent on every side. Objects whose extent exceeds that
// limit, or whose center falls outside the grid, live in an overflow list
// that every query scans in full.
package grid

import (
	"fmt"

	"github.com/Faultbox/wwcull/pkg/cull"
	"github.com/Faultbox/wwcull/pkg/geom"
	"github.com/Faultbox/wwcull/pkg/math"
	"github.com/chewxy/math32"
	"go.uber.org/zap"
)

// NoGridAddress is the address of objects held in the overflow list.
const NoGridAddress int32 = 1<<31 - 1

// System is a uniform-grid culling system for objects of type T.
// It is not safe for concurrent use.
type System[T cull.Cullable] struct {
	arena *cull.Arena[T]

	origin       math.Vec3
	cellDim      math.Vec3
	ooCellDim    math.Vec3
	cellCount    [3]int
	cells        []cull.List
	noGridList   cull.List
	maxObjExtent float32

	minCellSize          math.Vec3
	terminationCellCount int

	stats cull.Stats
	log   *zap.Logger
}

// New creates a grid with a single cell at the origin. Call RePartition to
// lay out the real grid.
func New[T cull.Cullable](opts ...Option) *System[T] {
	o := options{
		minCellSize:          DefaultMinCellSize,
		terminationCellCount: DefaultTerminationCellCount,
		maxObjExtent:         DefaultMaxObjExtent,
		log:                  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.terminationCellCount < 1 {
		o.terminationCellCount = 1
	}

	s := &System[T]{
		arena:                cull.NewArena[T](),
		cellDim:              o.minCellSize,
		ooCellDim:            reciprocal(o.minCellSize),
		cellCount:            [3]int{1, 1, 1},
		cells:                make([]cull.List, 1),
		maxObjExtent:         o.maxObjExtent,
		minCellSize:          o.minCellSize,
		terminationCellCount: o.terminationCellCount,
		log:                  o.log,
	}
	return s
}

func reciprocal(v math.Vec3) math.Vec3 {
	return math.Vec3{X: 1 / v.X, Y: 1 / v.Y, Z: 1 / v.Z}
}

// Origin returns the minimum corner of the grid.
func (s *System[T]) Origin() math.Vec3 { return s.origin }

// CellDim returns the size of one cell.
func (s *System[T]) CellDim() math.Vec3 { return s.cellDim }

// CellCount returns the number of cells along each axis.
func (s *System[T]) CellCount() [3]int { return s.cellCount }

// TotalCellCount returns the number of cells in the grid.
func (s *System[T]) TotalCellCount() int { return len(s.cells) }

// MaxObjExtent returns the largest half-extent an object may have and still
// be gridded.
func (s *System[T]) MaxObjExtent() float32 { return s.maxObjExtent }

// ObjectCount returns the number of linked objects.
func (s *System[T]) ObjectCount() int { return s.arena.Len() }

// NoGridCount returns the number of objects in the overflow list.
func (s *System[T]) NoGridCount() int { return s.noGridList.Len() }

// CellObjectCount returns the number of objects in the cell at addr.
func (s *System[T]) CellObjectCount(addr int) int { return s.cells[addr].Len() }

// Stats returns the counters of the last query.
func (s *System[T]) Stats() cull.Stats { return s.stats }

// MapPointToCell returns the indices of the cell containing p and whether
// p lies inside the grid.
func (s *System[T]) MapPointToCell(p math.Vec3) (i, j, k int, ok bool) {
	d := p.Sub(s.origin).Mul(s.ooCellDim)
	fi, fj, fk := math32.Floor(d.X), math32.Floor(d.Y), math32.Floor(d.Z)
	if fi < 0 || fj < 0 || fk < 0 ||
		fi >= float32(s.cellCount[0]) || fj >= float32(s.cellCount[1]) || fk >= float32(s.cellCount[2]) {
		return 0, 0, 0, false
	}
	return int(fi), int(fj), int(fk), true
}

// MapIndicesToAddress flattens cell indices into a cell address.
func (s *System[T]) MapIndicesToAddress(i, j, k int) int {
	if i < 0 || j < 0 || k < 0 || i >= s.cellCount[0] || j >= s.cellCount[1] || k >= s.cellCount[2] {
		panic(fmt.Sprintf("grid: cell (%d, %d, %d) out of range %v", i, j, k, s.cellCount))
	}
	return i + j*s.cellCount[0] + k*s.cellCount[0]*s.cellCount[1]
}

// MapAddressToIndices is the inverse of MapIndicesToAddress.
func (s *System[T]) MapAddressToIndices(addr int) (i, j, k int) {
	if addr < 0 || addr >= len(s.cells) {
		panic(fmt.Sprintf("grid: cell address %d out of range", addr))
	}
	layer := s.cellCount[0] * s.cellCount[1]
	k = addr / layer
	rem := addr % layer
	return rem % s.cellCount[0], rem / s.cellCount[0], k
}

// CellBox returns the geometric bounds of cell (i, j, k).
func (s *System[T]) CellBox(i, j, k int) geom.AABox {
	lo := s.origin.Add(math.Vec3{X: float32(i), Y: float32(j), Z: float32(k)}.Mul(s.cellDim))
	return geom.AABoxFromMinMax(lo, lo.Add(s.cellDim))
}

// EffectiveCellBox returns the cell expanded by MaxObjExtent, the volume
// every object gridded in the cell is guaranteed to fit in.
func (s *System[T]) EffectiveCellBox(i, j, k int) geom.AABox {
	return s.CellBox(i, j, k).Expand(s.maxObjExtent)
}

// addressFor returns the cell an object with box b belongs in.
func (s *System[T]) addressFor(b geom.AABox) int32 {
	if b.Extent.X > s.maxObjExtent || b.Extent.Y > s.maxObjExtent || b.Extent.Z > s.maxObjExtent {
		return NoGridAddress
	}
	i, j, k, ok := s.MapPointToCell(b.Center)
	if !ok {
		return NoGridAddress
	}
	return int32(s.MapIndicesToAddress(i, j, k))
}

func (s *System[T]) listFor(addr int32) *cull.List {
	if addr == NoGridAddress {
		return &s.noGridList
	}
	return &s.cells[addr]
}

func (s *System[T]) link(slot cull.Slot, b geom.AABox) {
	addr := s.addressFor(b)
	s.arena.Link(s.listFor(addr), slot, addr)
}

func (s *System[T]) ownedSlot(obj cull.Cullable) cull.Slot {
	l := obj.CullLink()
	if l.System() != cull.System(s) {
		panic("grid: object is not linked into this system")
	}
	return l.Slot()
}

// Add links obj into the grid in O(1).
func (s *System[T]) Add(obj T) {
	if sys := obj.CullLink().System(); sys != nil {
		panic(fmt.Sprintf("grid: object already linked into %T", sys))
	}
	slot := s.arena.Alloc(obj)
	obj.CullLink().Attach(s, slot)
	s.link(slot, obj.CullBox())
}

// Remove unlinks obj in O(1). The current collection is reset.
func (s *System[T]) Remove(obj T) {
	slot := s.ownedSlot(obj)
	s.arena.ResetCollection()
	s.arena.Unlink(s.listFor(s.arena.Home(slot)), slot)
	s.arena.Free(slot)
	obj.CullLink().Detach(s)
}

// UpdateCulling moves obj to the cell matching its current box. It does
// nothing when the cell is unchanged.
func (s *System[T]) UpdateCulling(obj cull.Cullable) {
	slot := s.ownedSlot(obj)
	old := s.arena.Home(slot)
	addr := s.addressFor(obj.CullBox())
	if addr == old {
		return
	}
	s.arena.Unlink(s.listFor(old), slot)
	s.arena.Link(s.listFor(addr), slot, addr)
}

// Contains reports whether obj is linked into this grid.
func (s *System[T]) Contains(obj T) bool {
	return obj.CullLink().System() == cull.System(s)
}

// Address returns the cell address of obj, or NoGridAddress for objects in
// the overflow list.
func (s *System[T]) Address(obj T) int32 {
	return s.arena.Home(s.ownedSlot(obj))
}

// RePartition discards the grid and lays out a new one covering [min, max]
// for objects with half-extents up to objDim. Cells start at the minimum
// cell size and grow until the cell count fits under the termination cap.
// Every linked object is re-inserted.
func (s *System[T]) RePartition(min, max math.Vec3, objDim float32) {
	var slots []cull.Slot
	for addr := range s.cells {
		slots = append(slots, s.arena.Drain(&s.cells[addr])...)
	}
	slots = append(slots, s.arena.Drain(&s.noGridList)...)
	s.arena.ResetCollection()

	lo, hi := min.Min(max), min.Max(max)
	span := hi.Sub(lo)
	for a := 0; a < 3; a++ {
		if span.Axis(a) <= 0 {
			span = span.WithAxis(a, s.minCellSize.Axis(a))
		}
	}

	s.origin = lo
	s.maxObjExtent = objDim
	s.cellCount = fitCellCount(span, s.minCellSize, s.terminationCellCount)
	s.cellDim = math.Vec3{
		X: span.X / float32(s.cellCount[0]),
		Y: span.Y / float32(s.cellCount[1]),
		Z: span.Z / float32(s.cellCount[2]),
	}
	s.ooCellDim = reciprocal(s.cellDim)
	s.cells = make([]cull.List, s.cellCount[0]*s.cellCount[1]*s.cellCount[2])

	for _, slot := range slots {
		s.link(slot, s.arena.Get(slot).CullBox())
	}

	s.log.Debug("grid re-partitioned",
		zap.Ints("cells", s.cellCount[:]),
		zap.Float32("max_obj_extent", objDim),
		zap.Int("objects", len(slots)),
		zap.Int("no_grid", s.noGridList.Len()))
}

// fitCellCount finds per-axis cell counts for span. Cells aim for minCell
// and never get smaller; they grow uniformly while the total exceeds limit.
// The product saturates at limit+1, so huge spans cannot wrap it.
func fitCellCount(span, minCell math.Vec3, limit int) [3]int {
	dim := minCell
	for {
		var counts [3]int
		total := 1
		for a := 0; a < 3; a++ {
			n := 1
			if f := math32.Floor(span.Axis(a) / dim.Axis(a)); f > float32(limit) {
				n = limit + 1
			} else if f > 1 {
				n = int(f)
			}
			counts[a] = n
			if total <= limit {
				total = min(total*n, limit+1)
			}
		}
		if total <= limit {
			return counts
		}
		if math32.IsInf(dim.MaxComponent(), 1) {
			return [3]int{1, 1, 1}
		}
		dim = dim.Scale(1.25)
	}
}

package grid

import (
	"iter"

	"github.com/Faultbox/wwcull/pkg/cull"
	"github.com/Faultbox/wwcull/pkg/geom"
	"github.com/chewxy/math32"
)

// Volume is a range of cell indices. Min is inclusive and Max exclusive.
type Volume struct {
	Min, Max [3]int
}

// IsEmpty reports whether the range covers no cell.
func (v Volume) IsEmpty() bool {
	return v.Max[0] <= v.Min[0] || v.Max[1] <= v.Min[1] || v.Max[2] <= v.Min[2]
}

// CellCount returns the number of cells in the range.
func (v Volume) CellCount() int {
	if v.IsEmpty() {
		return 0
	}
	return (v.Max[0] - v.Min[0]) * (v.Max[1] - v.Min[1]) * (v.Max[2] - v.Min[2])
}

// ComputeVolume returns every cell whose effective box can overlap b,
// clamped to the grid.
func (s *System[T]) ComputeVolume(b geom.AABox) Volume {
	lo := b.Min().Sub(s.origin).Mul(s.ooCellDim)
	hi := b.Max().Sub(s.origin).Mul(s.ooCellDim)
	pad := s.maxObjExtent

	var v Volume
	for a := 0; a < 3; a++ {
		n := float32(s.cellCount[a])
		e := pad * s.ooCellDim.Axis(a)
		v.Min[a] = int(clamp(math32.Ceil(lo.Axis(a)-e)-1, 0, n))
		v.Max[a] = int(clamp(math32.Floor(hi.Axis(a)+e)+1, 0, n))
	}
	return v
}

func clamp(x, lo, hi float32) float32 {
	if math32.IsNaN(x) || x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Collect fills the collection with every object whose box overlaps q.
// The previous collection is discarded.
func (s *System[T]) Collect(q cull.Query) {
	s.arena.ResetCollection()
	s.stats.Reset()
	s.collect(q.Volume())
}

func (s *System[T]) collect(vol cull.Volume) {
	cells := s.ComputeVolume(vol.Bounds())
	if !cells.IsEmpty() {
		for k := cells.Min[2]; k < cells.Max[2]; k++ {
			for j := cells.Min[1]; j < cells.Max[1]; j++ {
				for i := cells.Min[0]; i < cells.Max[0]; i++ {
					list := &s.cells[s.MapIndicesToAddress(i, j, k)]
					if list.Empty() {
						continue
					}
					s.stats.Visit()
					ov, mask := vol.Classify(s.EffectiveCellBox(i, j, k), 0)
					switch ov {
					case geom.Outside:
						s.stats.Reject()
					case geom.Inside:
						s.stats.TrivialAccept()
						for slot := range s.arena.Slots(list) {
							s.arena.AddToCollection(slot)
						}
					default:
						s.stats.Accept()
						s.collectObjects(list, vol, mask)
					}
				}
			}
		}
	}
	s.collectObjects(&s.noGridList, vol, 0)
}

func (s *System[T]) collectObjects(list *cull.List, vol cull.Volume, mask uint32) {
	for slot := range s.arena.Slots(list) {
		if ov, _ := vol.Classify(s.arena.Get(slot).CullBox(), mask); ov != geom.Outside {
			s.arena.AddToCollection(slot)
		}
	}
}

// ResetCollection empties the collection.
func (s *System[T]) ResetCollection() { s.arena.ResetCollection() }

// Collected iterates the objects gathered by the last Collect.
func (s *System[T]) Collected() iter.Seq[T] { return s.arena.Collected() }

// CollectedObjects returns the last collection as a slice.
func (s *System[T]) CollectedObjects() []T { return s.arena.CollectedSlice() }

// CollectionLen returns the size of the last collection.
func (s *System[T]) CollectionLen() int { return s.arena.CollectionLen() }

// Objects iterates every linked object.
func (s *System[T]) Objects() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, obj := range s.arena.All() {
			if !yield(obj) {
				return
			}
		}
	}
}

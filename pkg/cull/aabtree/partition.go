package aabtree

import (
	"github.com/Faultbox/wwcull/pkg/cull"
	"github.com/Faultbox/wwcull/pkg/geom"
	"github.com/Faultbox/wwcull/pkg/math"
	"go.uber.org/zap"
)

// item is a box being partitioned. Seed boxes carry no slot.
type item struct {
	slot cull.Slot
	box  geom.AABox
}

func unionOf(items []item) geom.AABox {
	if len(items) == 0 {
		return geom.AABox{}
	}
	b := items[0].box
	for _, it := range items[1:] {
		b = b.Union(it.box)
	}
	return b
}

// RePartition rebuilds the tree from the objects it holds. Node indices
// come out in pre-order and node user data is dropped.
func (s *System[T]) RePartition() {
	slots := s.drainObjects()
	items := make([]item, len(slots))
	for i, slot := range slots {
		items[i] = item{slot: slot, box: s.arena.Get(slot).CullBox()}
	}

	s.nodes = s.nodes[:0]
	s.build(items, noNode, 1, s.leafObjectCount)
	s.bounded = len(items) > 0

	s.log.Debug("aab-tree re-partitioned",
		zap.Int("objects", len(items)),
		zap.Int("nodes", len(s.nodes)),
		zap.Int("depth", s.PartitionDepth()))
}

// RePartitionBoxes builds the tree topology from seed boxes instead of the
// objects, then re-inserts every object. The root box covers bounds and all
// seeds. Each seed ends up alone in a leaf unless the depth limit or a
// failed split stops the recursion first.
func (s *System[T]) RePartitionBoxes(bounds geom.AABox, boxes []geom.AABox) {
	slots := s.drainObjects()
	seeds := make([]item, len(boxes))
	for i, b := range boxes {
		seeds[i] = item{slot: cull.NoSlot, box: b}
	}

	s.nodes = s.nodes[:0]
	s.build(seeds, noNode, 1, 1)
	if len(seeds) == 0 {
		s.nodes[0].box = bounds
	} else {
		s.nodes[0].box = s.nodes[0].box.Union(bounds)
	}
	s.bounded = true

	for _, slot := range slots {
		s.insert(slot, s.arena.Get(slot).CullBox())
	}

	s.log.Debug("aab-tree re-partitioned from seed boxes",
		zap.Int("seeds", len(boxes)),
		zap.Int("objects", len(slots)),
		zap.Int("nodes", len(s.nodes)))
}

// build appends a node for items and its subtree in pre-order and returns
// its index. Items with a slot are linked to the leaf they end in.
func (s *System[T]) build(items []item, parent int32, depth, leafSize int) int32 {
	idx := int32(len(s.nodes))
	s.nodes = append(s.nodes, node{box: unionOf(items), parent: parent, front: noNode, back: noNode})

	if len(items) > leafSize && depth < s.maxDepth {
		if front, back, ok := s.split(items, s.nodes[idx].box); ok {
			f := s.build(front, idx, depth+1, leafSize)
			b := s.build(back, idx, depth+1, leafSize)
			s.nodes[idx].front, s.nodes[idx].back = f, b
			return idx
		}
	}

	for _, it := range items {
		if it.slot != cull.NoSlot {
			s.arena.Link(&s.nodes[idx].objects, it.slot, idx)
		}
	}
	return idx
}

// split picks the cheapest splitting plane among sampled item centers.
// Items with a center at or beyond the plane go to the front.
// It fails when no plane beats leaving the items together.
func (s *System[T]) split(items []item, box geom.AABox) (front, back []item, ok bool) {
	best := float32(len(items)) * box.SurfaceArea()
	bestAxis, bestPlane := -1, float32(0)
	step := max(1, len(items)/s.splitCandidates)

	for axis := 0; axis < 3; axis++ {
		for i := 0; i < len(items); i += step {
			plane := items[i].box.Center.Axis(axis)
			if cost, ok := splitCost(items, axis, plane); ok && cost < best {
				best, bestAxis, bestPlane = cost, axis, plane
			}
		}
	}
	if bestAxis < 0 {
		return nil, nil, false
	}

	for _, it := range items {
		if it.box.Center.Axis(bestAxis) >= bestPlane {
			front = append(front, it)
		} else {
			back = append(back, it)
		}
	}
	return front, back, true
}

// splitCost is the surface area heuristic: each side's box area weighted
// by the number of items on that side.
func splitCost(items []item, axis int, plane float32) (float32, bool) {
	var fb, bb geom.AABox
	var fc, bc int
	for _, it := range items {
		if it.box.Center.Axis(axis) >= plane {
			if fc == 0 {
				fb = it.box
			} else {
				fb = fb.Union(it.box)
			}
			fc++
		} else {
			if bc == 0 {
				bb = it.box
			} else {
				bb = bb.Union(it.box)
			}
			bc++
		}
	}
	if fc == 0 || bc == 0 {
		return 0, false
	}
	return float32(fc)*fb.SurfaceArea() + float32(bc)*bb.SurfaceArea(), true
}

// UpdateBoundingBoxes recomputes every node box from its children and
// objects without changing the topology. Empty subtrees collapse to a point
// at their parent's center.
func (s *System[T]) UpdateBoundingBoxes() {
	if _, ok := s.refit(0); !ok {
		s.collapse(0, math.Vec3{})
		s.bounded = false
		return
	}
	s.bounded = true
}

func (s *System[T]) refit(n int32) (geom.AABox, bool) {
	var box geom.AABox
	has := false
	add := func(b geom.AABox) {
		if has {
			box = box.Union(b)
		} else {
			box, has = b, true
		}
	}

	var empty []int32
	for _, c := range s.nodes[n].children() {
		if c == noNode {
			continue
		}
		if b, ok := s.refit(c); ok {
			add(b)
		} else {
			empty = append(empty, c)
		}
	}
	for slot := range s.arena.Slots(&s.nodes[n].objects) {
		add(s.arena.Get(slot).CullBox())
	}
	if !has {
		return geom.AABox{}, false
	}

	s.nodes[n].box = box
	for _, c := range empty {
		s.collapse(c, box.Center)
	}
	return box, true
}

func (s *System[T]) collapse(n int32, at math.Vec3) {
	s.nodes[n].box = geom.AABox{Center: at}
	for _, c := range s.nodes[n].children() {
		if c != noNode {
			s.collapse(c, at)
		}
	}
}

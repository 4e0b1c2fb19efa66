// Package aabtree implements a culling system built on a binary tree of
// axis-aligned boxes.
//
// Every node box contains the boxes of its children and of the objects
// linked to it. Objects are inserted into the deepest node whose box fully
// contains them, so they may live on interior nodes as well as leaves.
// Partitioning is explicit: Add never splits a node; RePartition rebuilds
// the whole tree from the objects it holds.
package aabtree

import (
	"errors"
	"fmt"
	"iter"

	"github.com/Faultbox/wwcull/pkg/cull"
	"github.com/Faultbox/wwcull/pkg/geom"
	"go.uber.org/zap"
)

var (
	// ErrCorruptTree is returned when persisted tree data is inconsistent.
	ErrCorruptTree = errors.New("corrupt aab-tree data")
	// ErrInvalidTree is returned by Validate.
	ErrInvalidTree = errors.New("aab-tree invariant violated")
)

const noNode int32 = -1

type node struct {
	box      geom.AABox
	parent   int32
	front    int32
	back     int32
	objects  cull.List
	userData any
}

func (n *node) children() [2]int32 {
	return [2]int32{n.front, n.back}
}

func (n *node) isLeaf() bool {
	return n.front == noNode && n.back == noNode
}

// System is an AAB-tree culling system for objects of type T.
// It is not safe for concurrent use.
type System[T cull.Cullable] struct {
	arena *cull.Arena[T]
	nodes []node

	// bounded is false until the root box has been set by an object,
	// a seeded partition or a load.
	bounded bool

	leafObjectCount int
	maxDepth        int
	splitCandidates int

	stats cull.Stats
	log   *zap.Logger
}

// New returns a tree holding a single empty root node.
func New[T cull.Cullable](opts ...Option) *System[T] {
	o := options{
		leafObjectCount: DefaultLeafObjectCount,
		maxDepth:        DefaultMaxDepth,
		splitCandidates: DefaultSplitCandidates,
		log:             zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	s := &System[T]{
		arena:           cull.NewArena[T](),
		leafObjectCount: max(o.leafObjectCount, 1),
		maxDepth:        max(o.maxDepth, 1),
		splitCandidates: max(o.splitCandidates, 1),
		log:             o.log,
	}
	s.resetNodes()
	return s
}

func (s *System[T]) resetNodes() {
	s.nodes = append(s.nodes[:0], node{parent: noNode, front: noNode, back: noNode})
	s.bounded = false
}

// NodeCount returns the number of nodes in the tree.
func (s *System[T]) NodeCount() int { return len(s.nodes) }

// ObjectCount returns the number of linked objects.
func (s *System[T]) ObjectCount() int { return s.arena.Len() }

// Stats returns the counters of the last query.
func (s *System[T]) Stats() cull.Stats { return s.stats }

func (s *System[T]) node(i int) *node {
	if i < 0 || i >= len(s.nodes) {
		panic(fmt.Sprintf("aabtree: node index %d out of range [0,%d)", i, len(s.nodes)))
	}
	return &s.nodes[i]
}

// BoundingBox returns the root box.
func (s *System[T]) BoundingBox() geom.AABox { return s.nodes[0].box }

// NodeBox returns the box of node i.
func (s *System[T]) NodeBox(i int) geom.AABox { return s.node(i).box }

// NodeObjectCount returns the number of objects linked directly to node i.
func (s *System[T]) NodeObjectCount(i int) int { return s.node(i).objects.Len() }

// NodeParent returns the parent of node i, or -1 for the root.
func (s *System[T]) NodeParent(i int) int { return int(s.node(i).parent) }

// NodeChildren returns the front and back children of node i; -1 marks a
// missing child.
func (s *System[T]) NodeChildren(i int) (front, back int) {
	n := s.node(i)
	return int(n.front), int(n.back)
}

// NodeUserData returns the value attached to node i.
func (s *System[T]) NodeUserData(i int) any { return s.node(i).userData }

// SetNodeUserData attaches v to node i. User data does not survive a
// re-partition or a load.
func (s *System[T]) SetNodeUserData(i int, v any) { s.node(i).userData = v }

// NodeObjects iterates the objects linked directly to node i.
func (s *System[T]) NodeObjects(i int) iter.Seq[T] {
	l := &s.node(i).objects
	return func(yield func(T) bool) {
		for slot := range s.arena.Slots(l) {
			if !yield(s.arena.Get(slot)) {
				return
			}
		}
	}
}

// PartitionDepth returns the number of levels in the tree.
func (s *System[T]) PartitionDepth() int {
	return s.depth(0)
}

func (s *System[T]) depth(n int32) int {
	d := 0
	for _, c := range s.nodes[n].children() {
		if c != noNode {
			d = max(d, s.depth(c))
		}
	}
	return d + 1
}

func (s *System[T]) ownedSlot(obj cull.Cullable) cull.Slot {
	l := obj.CullLink()
	if l.System() != cull.System(s) {
		panic("aabtree: object is not linked into this tree")
	}
	return l.Slot()
}

// ObjectNodeIndex returns the index of the node obj is linked to.
func (s *System[T]) ObjectNodeIndex(obj T) int {
	return int(s.arena.Home(s.ownedSlot(obj)))
}

// Contains reports whether obj is linked into this tree.
func (s *System[T]) Contains(obj T) bool {
	return obj.CullLink().System() == cull.System(s)
}

// Add links obj into the deepest node whose box contains it. The root box
// grows when it does not contain obj; no other node changes.
func (s *System[T]) Add(obj T) {
	if sys := obj.CullLink().System(); sys != nil {
		panic(fmt.Sprintf("aabtree: object already linked into %T", sys))
	}
	slot := s.arena.Alloc(obj)
	obj.CullLink().Attach(s, slot)
	s.insert(slot, obj.CullBox())
}

func (s *System[T]) insert(slot cull.Slot, box geom.AABox) {
	root := &s.nodes[0]
	switch {
	case !s.bounded:
		root.box = box
		s.bounded = true
	case !root.box.ContainsBox(box):
		root.box = root.box.Union(box)
	}

	n := int32(0)
descend:
	for {
		for _, c := range s.nodes[n].children() {
			if c != noNode && s.nodes[c].box.ContainsBox(box) {
				n = c
				continue descend
			}
		}
		break
	}
	s.arena.Link(&s.nodes[n].objects, slot, n)
}

// Remove unlinks obj. The current collection is reset.
func (s *System[T]) Remove(obj T) {
	slot := s.ownedSlot(obj)
	s.arena.ResetCollection()
	s.arena.Unlink(&s.nodes[s.arena.Home(slot)].objects, slot)
	s.arena.Free(slot)
	obj.CullLink().Detach(s)
}

// UpdateCulling re-inserts obj from the root after its box changed.
func (s *System[T]) UpdateCulling(obj cull.Cullable) {
	slot := s.ownedSlot(obj)
	s.arena.Unlink(&s.nodes[s.arena.Home(slot)].objects, slot)
	s.insert(slot, obj.CullBox())
}

// ReIndexNodes renumbers the nodes in pre-order so the root is 0 and every
// front child directly follows its parent.
func (s *System[T]) ReIndexNodes() {
	order := make([]int32, 0, len(s.nodes))
	var walk func(n int32)
	walk = func(n int32) {
		order = append(order, n)
		for _, c := range s.nodes[n].children() {
			if c != noNode {
				walk(c)
			}
		}
	}
	walk(0)

	remap := make([]int32, len(s.nodes))
	for i := range remap {
		remap[i] = noNode
	}
	for i, old := range order {
		remap[old] = int32(i)
	}
	to := func(i int32) int32 {
		if i == noNode {
			return noNode
		}
		return remap[i]
	}

	nodes := make([]node, len(order))
	for i, old := range order {
		n := s.nodes[old]
		n.parent, n.front, n.back = to(n.parent), to(n.front), to(n.back)
		nodes[i] = n
	}
	s.nodes = nodes
	for i := range s.nodes {
		s.arena.Rehome(&s.nodes[i].objects, int32(i))
	}
}

// drainObjects unlinks every object from every node and returns the slots.
func (s *System[T]) drainObjects() []cull.Slot {
	s.arena.ResetCollection()
	slots := make([]cull.Slot, 0, s.arena.Len())
	for i := range s.nodes {
		slots = append(slots, s.arena.Drain(&s.nodes[i].objects)...)
	}
	return slots
}

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

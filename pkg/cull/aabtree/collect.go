package aabtree

import (
	"iter"

	"github.com/Faultbox/wwcull/pkg/cull"
	"github.com/Faultbox/wwcull/pkg/geom"
)

// Collect fills the collection with every object whose box overlaps q.
// The previous collection is discarded.
func (s *System[T]) Collect(q cull.Query) {
	s.arena.ResetCollection()
	s.stats.Reset()
	if !s.bounded {
		return
	}
	s.collectNode(0, q.Volume(), 0)
}

func (s *System[T]) collectNode(n int32, vol cull.Volume, planesPassed uint32) {
	nd := &s.nodes[n]
	s.stats.Visit()

	ov, planesPassed := vol.Classify(nd.box, planesPassed)
	switch ov {
	case geom.Outside:
		s.stats.Reject()
		return
	case geom.Inside:
		s.stats.TrivialAccept()
		s.collectSubtree(n)
		return
	}

	s.stats.Accept()
	for slot := range s.arena.Slots(&nd.objects) {
		if ov, _ := vol.Classify(s.arena.Get(slot).CullBox(), planesPassed); ov != geom.Outside {
			s.arena.AddToCollection(slot)
		}
	}
	for _, c := range nd.children() {
		if c != noNode {
			s.collectNode(c, vol, planesPassed)
		}
	}
}

func (s *System[T]) collectSubtree(n int32) {
	nd := &s.nodes[n]
	for slot := range s.arena.Slots(&nd.objects) {
		s.arena.AddToCollection(slot)
	}
	for _, c := range nd.children() {
		if c != noNode {
			s.collectSubtree(c)
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

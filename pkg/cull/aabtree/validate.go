package aabtree

import (
	"fmt"

	"github.com/Faultbox/wwcull/pkg/geom"
	"github.com/chewxy/math32"
	"go.uber.org/multierr"
)

// containsLoose is ContainsBox with a tolerance for the rounding that
// center/extent unions introduce.
func containsLoose(outer, inner geom.AABox) bool {
	scale := math32.Max(outer.Center.Abs().MaxComponent(), outer.Extent.MaxComponent())
	return outer.Expand(1e-5 * (1 + scale)).ContainsBox(inner)
}

// Validate checks the tree structure and the box invariant and reports
// every violation it finds. Each error wraps ErrInvalidTree.
func (s *System[T]) Validate() error {
	var err error
	fail := func(format string, args ...any) {
		err = multierr.Append(err, fmt.Errorf("%w: "+format, append([]any{ErrInvalidTree}, args...)...))
	}

	if s.nodes[0].parent != noNode {
		fail("root has parent %d", s.nodes[0].parent)
	}

	reached := 0
	var walk func(n int32)
	walk = func(n int32) {
		reached++
		nd := &s.nodes[n]
		for _, c := range nd.children() {
			if c == noNode {
				continue
			}
			if c <= 0 || int(c) >= len(s.nodes) {
				fail("node %d has child index %d out of range", n, c)
				continue
			}
			if s.nodes[c].parent != n {
				fail("node %d has parent %d, want %d", c, s.nodes[c].parent, n)
			}
			if !containsLoose(nd.box, s.nodes[c].box) {
				fail("node %d box %v does not contain child %d box %v", n, nd.box, c, s.nodes[c].box)
			}
			walk(c)
		}

		for slot := range s.arena.Slots(&nd.objects) {
			if home := s.arena.Home(slot); home != n {
				fail("object in node %d is tagged with node %d", n, home)
			}
			if b := s.arena.Get(slot).CullBox(); !containsLoose(nd.box, b) {
				fail("node %d box %v does not contain object box %v", n, nd.box, b)
			}
		}
	}
	walk(0)

	if reached != len(s.nodes) {
		fail("%d of %d nodes reachable from the root", reached, len(s.nodes))
	}

	linked := 0
	for i := range s.nodes {
		linked += s.nodes[i].objects.Len()
	}
	if linked != s.arena.Len() {
		fail("%d objects linked to nodes, %d live", linked, s.arena.Len())
	}
	return err
}

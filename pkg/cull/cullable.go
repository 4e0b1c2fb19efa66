// Package cull holds what every culling system shares: the cullable
// contract and its link record, the per-system slot arena with its
// intrusive lists, the collection list and the query volumes.
package cull

import (
	"fmt"

	"github.com/Faultbox/wwcull/pkg/geom"
)

// Cullable is an object with a bounding box that can be linked into one
// culling system at a time.
type Cullable interface {
	CullBox() geom.AABox
	CullLink() *Link
}

// System is the side of a culling system a linked object talks to.
type System interface {
	// UpdateCulling re-links obj after its box changed.
	UpdateCulling(obj Cullable)
}

// Link records which system owns an object and the object's slot in that
// system's arena. The system reference does not own the system.
type Link struct {
	system System
	slot   Slot
}

// System returns the owning system, or nil when unlinked.
func (l *Link) System() System {
	return l.system
}

// Slot returns the object's handle in the owning system's arena.
func (l *Link) Slot() Slot {
	if l.system == nil {
		return NoSlot
	}
	return l.slot
}

// IsLinked reports whether the object belongs to a system.
func (l *Link) IsLinked() bool {
	return l.system != nil
}

// Attach records sys as the owner. Linking an object that already has an
// owner is a programming error.
func (l *Link) Attach(sys System, slot Slot) {
	if l.system != nil {
		panic(fmt.Sprintf("cull: object already linked into %T", l.system))
	}
	l.system = sys
	l.slot = slot
}

// Detach clears the owner. It panics if sys is not the owner.
func (l *Link) Detach(sys System) {
	if l.system != sys {
		panic(fmt.Sprintf("cull: object is not linked into %T", sys))
	}
	l.system = nil
	l.slot = NoSlot
}

// Base is an embeddable Cullable.
type Base struct {
	box  geom.AABox
	link Link
}

// CullBox returns the stored box.
func (b *Base) CullBox() geom.AABox {
	return b.box
}

// CullLink returns the link record.
func (b *Base) CullLink() *Link {
	return &b.link
}

// CullingSystem returns the system the object is linked into, or nil.
func (b *Base) CullingSystem() System {
	return b.link.system
}

// SetCullBox stores box and, unless justLoaded is set, asks the owning
// system to re-link the object. justLoaded is for deserialization, where the
// caller already placed the object correctly.
func (b *Base) SetCullBox(box geom.AABox, justLoaded bool) {
	b.box = box
	if !justLoaded && b.link.system != nil {
		b.link.system.UpdateCulling(b)
	}
}

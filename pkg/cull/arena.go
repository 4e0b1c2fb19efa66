package cull

import "iter"

// Slot is a stable handle to an object in an Arena.
type Slot int32

// NoSlot marks the absence of a slot.
const NoSlot Slot = -1

type entry[T any] struct {
	obj           T
	next, prev    Slot
	home          int32
	nextCollected Slot
	live          bool
}

// Arena stores the objects of one culling system. Each object gets a slot
// that stays valid until it is freed. Objects are threaded through
// intrusive doubly linked Lists and one singly linked collection list.
// An Arena is owned by exactly one system and is not safe for concurrent use.
type Arena[T any] struct {
	entries []entry[T]
	free    []Slot
	live    int

	collectHead  Slot
	collectCount int
}

// NewArena returns an empty arena.
func NewArena[T any]() *Arena[T] {
	return &Arena[T]{collectHead: NoSlot}
}

// Alloc stores obj and returns its slot.
func (a *Arena[T]) Alloc(obj T) Slot {
	e := entry[T]{obj: obj, next: NoSlot, prev: NoSlot, home: -1, nextCollected: NoSlot, live: true}
	a.live++
	if n := len(a.free); n > 0 {
		s := a.free[n-1]
		a.free = a.free[:n-1]
		a.entries[s] = e
		return s
	}
	a.entries = append(a.entries, e)
	return Slot(len(a.entries) - 1)
}

// Free releases a slot. The object must already be unlinked from any list.
func (a *Arena[T]) Free(s Slot) {
	e := a.at(s)
	var zero T
	e.obj = zero
	e.live = false
	a.free = append(a.free, s)
	a.live--
}

func (a *Arena[T]) at(s Slot) *entry[T] {
	if s < 0 || int(s) >= len(a.entries) || !a.entries[s].live {
		panic("cull: invalid slot")
	}
	return &a.entries[s]
}

// Get returns the object in slot s.
func (a *Arena[T]) Get(s Slot) T {
	return a.at(s).obj
}

// Home returns the list owner tag recorded for s (a cell or node index).
func (a *Arena[T]) Home(s Slot) int32 {
	return a.at(s).home
}

// Len returns the number of live objects.
func (a *Arena[T]) Len() int {
	return a.live
}

// All iterates every live object in slot order.
func (a *Arena[T]) All() iter.Seq2[Slot, T] {
	return func(yield func(Slot, T) bool) {
		for i := range a.entries {
			if !a.entries[i].live {
				continue
			}
			if !yield(Slot(i), a.entries[i].obj) {
				return
			}
		}
	}
}

// List is the head of an intrusive doubly linked list of arena slots.
// The zero value is an empty list.
type List struct {
	first Slot // slot+1, so the zero value is empty
	count int
}

// Len returns the number of objects in the list.
func (l *List) Len() int {
	return l.count
}

// Empty reports whether the list holds no objects.
func (l *List) Empty() bool {
	return l.count == 0
}

func (l *List) head() Slot {
	return l.first - 1
}

// Link pushes s onto the front of l and records home as its owner tag.
func (a *Arena[T]) Link(l *List, s Slot, home int32) {
	e := a.at(s)
	e.prev = NoSlot
	e.next = l.head()
	if e.next != NoSlot {
		a.entries[e.next].prev = s
	}
	e.home = home
	l.first = s + 1
	l.count++
}

// Unlink removes s from l in O(1).
func (a *Arena[T]) Unlink(l *List, s Slot) {
	e := a.at(s)
	if e.prev != NoSlot {
		a.entries[e.prev].next = e.next
	} else {
		if l.head() != s {
			panic("cull: unlinking slot from a list it is not in")
		}
		l.first = e.next + 1
	}
	if e.next != NoSlot {
		a.entries[e.next].prev = e.prev
	}
	e.next, e.prev = NoSlot, NoSlot
	e.home = -1
	l.count--
}

// Slots iterates the slots of l front to back. The current slot may be
// unlinked during iteration.
func (a *Arena[T]) Slots(l *List) iter.Seq[Slot] {
	return func(yield func(Slot) bool) {
		for s := l.head(); s != NoSlot; {
			next := a.entries[s].next
			if !yield(s) {
				return
			}
			s = next
		}
	}
}

// Drain unlinks every slot of l and returns them in list order.
func (a *Arena[T]) Drain(l *List) []Slot {
	out := make([]Slot, 0, l.count)
	for s := range a.Slots(l) {
		out = append(out, s)
	}
	for _, s := range out {
		a.Unlink(l, s)
	}
	return out
}

// Rehome records home as the owner tag of every slot in l. Systems call it
// after renumbering the cells or nodes that own their lists.
func (a *Arena[T]) Rehome(l *List, home int32) {
	for s := range a.Slots(l) {
		a.entries[s].home = home
	}
}

package cull

import "iter"

// ResetCollection empties the collection list. Any previous result is gone.
func (a *Arena[T]) ResetCollection() {
	for s := a.collectHead; s != NoSlot; {
		next := a.entries[s].nextCollected
		a.entries[s].nextCollected = NoSlot
		s = next
	}
	a.collectHead = NoSlot
	a.collectCount = 0
}

// AddToCollection pushes s onto the collection list.
func (a *Arena[T]) AddToCollection(s Slot) {
	e := a.at(s)
	e.nextCollected = a.collectHead
	a.collectHead = s
	a.collectCount++
}

// CollectionLen returns the number of collected objects.
func (a *Arena[T]) CollectionLen() int {
	return a.collectCount
}

// Collected iterates the current collection. The sequence is only valid
// until the next query or ResetCollection.
func (a *Arena[T]) Collected() iter.Seq[T] {
	return func(yield func(T) bool) {
		for s := a.collectHead; s != NoSlot; s = a.entries[s].nextCollected {
			if !yield(a.entries[s].obj) {
				return
			}
		}
	}
}

// CollectedSlice copies the current collection into a new slice.
func (a *Arena[T]) CollectedSlice() []T {
	out := make([]T, 0, a.collectCount)
	for obj := range a.Collected() {
		out = append(out, obj)
	}
	return out
}

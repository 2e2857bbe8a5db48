// Package handle provides generation-counted arena handles.
//
// A Handle stays comparable and cheap to copy, and a lookup through a stale
// handle (slot freed or reused) reports "not alive" instead of returning the
// new occupant.
package handle

import "fmt"

// Handle references a slot in an Arena.
// The zero Handle is never alive.
type Handle struct {
	index      uint32
	generation uint32
}

// Nil is the zero handle.
var Nil = Handle{}

// IsNil reports whether h is the zero handle.
func (h Handle) IsNil() bool {
	return h == Nil
}

// String implements fmt.Stringer.
func (h Handle) String() string {
	if h.IsNil() {
		return "handle(nil)"
	}
	return fmt.Sprintf("handle(%d#%d)", h.index, h.generation)
}

type slot[T any] struct {
	value      T
	generation uint32
	alive      bool
}

// Arena stores values addressed by Handle.
type Arena[T any] struct {
	slots []slot[T]
	free  []uint32
	count int
}

// NewArena creates an empty arena.
func NewArena[T any]() *Arena[T] {
	// Slot 0 is reserved so the zero Handle never resolves.
	return &Arena[T]{slots: make([]slot[T], 1)}
}

// Insert stores value and returns its handle.
func (a *Arena[T]) Insert(value T) Handle {
	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		idx = uint32(len(a.slots))
		a.slots = append(a.slots, slot[T]{})
	}

	s := &a.slots[idx]
	s.generation++
	s.value = value
	s.alive = true
	a.count++

	return Handle{index: idx, generation: s.generation}
}

// Get returns the value for h if it is still alive.
func (a *Arena[T]) Get(h Handle) (T, bool) {
	if !a.Alive(h) {
		var zero T
		return zero, false
	}
	return a.slots[h.index].value, true
}

// Alive reports whether h still refers to a live value.
func (a *Arena[T]) Alive(h Handle) bool {
	if h.index == 0 || int(h.index) >= len(a.slots) {
		return false
	}
	s := a.slots[h.index]
	return s.alive && s.generation == h.generation
}

// Remove frees the slot for h. Returns false if h was already dead.
func (a *Arena[T]) Remove(h Handle) bool {
	if !a.Alive(h) {
		return false
	}
	s := &a.slots[h.index]
	var zero T
	s.value = zero
	s.alive = false
	a.free = append(a.free, h.index)
	a.count--
	return true
}

// Len returns the number of live values.
func (a *Arena[T]) Len() int {
	return a.count
}

// Each calls fn for every live value in slot order. Stops early if fn
// returns false. fn must not insert into or remove from the arena.
func (a *Arena[T]) Each(fn func(h Handle, value T) bool) {
	for i := 1; i < len(a.slots); i++ {
		s := a.slots[i]
		if !s.alive {
			continue
		}
		if !fn(Handle{index: uint32(i), generation: s.generation}, s.value) {
			return
		}
	}
}

// Handles returns the handles of all live values in slot order.
func (a *Arena[T]) Handles() []Handle {
	out := make([]Handle, 0, a.count)
	a.Each(func(h Handle, _ T) bool {
		out = append(out, h)
		return true
	})
	return out
}

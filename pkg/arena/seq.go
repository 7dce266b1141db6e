package arena

import (
	"unsafe"

	"fortio.org/safecast"

	"github.com/nextcore/sable/pkg/errors"
)

// New copies value into the arena and returns a pointer to the copy.
// Go methods cannot be generic, so typed allocation is package-level.
func New[T any](a *Arena, value T) *T {
	p := (*T)(a.Alloc(unsafe.Sizeof(value), unsafe.Alignof(value)))
	*p = value
	return p
}

// Slice returns a zeroed slice of length n and capacity c backed by arena
// memory.
func Slice[T any](a *Arena, n, c int) []T {
	if n < 0 || c < n {
		panic(errors.NewContract("arena.Slice", "invalid bounds len %d cap %d", n, c))
	}
	capacity, err := safecast.Conv[uintptr](c)
	if err != nil {
		panic(errors.NewContract("arena.Slice", "capacity %d out of range", c))
	}
	if capacity == 0 {
		return nil
	}

	var zero T
	p := (*T)(a.Alloc(unsafe.Sizeof(zero)*capacity, unsafe.Alignof(zero)))
	s := unsafe.Slice(p, c)
	// Chunks are recycled across resets, so clear the stale bytes.
	clear(s)
	return s[:n]
}

// Seq is a growable sequence backed by arena memory, the shape tree builders
// use for child lists. Growth reallocates within the arena and abandons the
// old block; bump arenas never free piecemeal. Pushing is legal only while
// the arena's scope is active.
type Seq[T any] struct {
	a     *Arena
	items []T
}

// NewSeq returns an empty sequence backed by a.
func NewSeq[T any](a *Arena) Seq[T] {
	return Seq[T]{a: a}
}

// NewSeqCap returns an empty sequence with room for n items already bumped.
func NewSeqCap[T any](a *Arena, n int) Seq[T] {
	return Seq[T]{a: a, items: Slice[T](a, 0, n)}
}

// Push appends v, growing within the arena when full.
func (s *Seq[T]) Push(v T) {
	if len(s.items) == cap(s.items) {
		next := 2 * cap(s.items)
		if next == 0 {
			next = 4
		}
		grown := Slice[T](s.a, len(s.items), next)
		copy(grown, s.items)
		s.items = grown
	}
	s.items = append(s.items, v)
}

// Len returns the number of items.
func (s *Seq[T]) Len() int {
	return len(s.items)
}

// At returns the item at index i.
func (s *Seq[T]) At(i int) T {
	return s.items[i]
}

// Items returns the backing slice. Valid until the arena is reset.
func (s *Seq[T]) Items() []T {
	return s.items
}

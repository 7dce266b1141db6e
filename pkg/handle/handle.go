package handle

import (
	"github.com/nextcore/sable/pkg/errors"
)

// Strong is an owning handle: it keeps its referent alive. Clones share one
// logical allocation through the slot's strong count. Every Strong must be
// released exactly once.
//
// Dereferencing via Get is direct memory access; only New, Clone, Release and
// Upgrade touch the registry lock.
type Strong[T any] struct {
	reg        *Registry
	index      int
	generation uint64
	data       *T
}

// New allocates value on the heap, registers a slot in the process-wide
// registry, and returns an owning handle holding the implicit first strong
// reference.
func New[T any](value T) *Strong[T] {
	return NewIn(defaultRegistry, value)
}

// NewIn is New against an explicit registry.
func NewIn[T any](r *Registry, value T) *Strong[T] {
	data := new(T)
	*data = value
	index, generation := r.register()
	return &Strong[T]{
		reg:        r,
		index:      index,
		generation: generation,
		data:       data,
	}
}

// Get returns the payload. No registry interaction.
func (s *Strong[T]) Get() *T {
	if s.data == nil {
		panic(errors.NewContract("handle.Strong.Get", "handle used after Release"))
	}
	return s.data
}

// Clone returns a new owning handle sharing this handle's slot and payload,
// incrementing the slot's strong count. O(1), registry-locked.
func (s *Strong[T]) Clone() *Strong[T] {
	if s.data == nil {
		panic(errors.NewContract("handle.Strong.Clone", "handle used after Release"))
	}
	s.reg.increment(s.index)
	return &Strong[T]{
		reg:        s.reg,
		index:      s.index,
		generation: s.generation,
		data:       s.data,
	}
}

// Release drops this handle's strong reference. The clone that takes the
// count from 1 to 0 retires the slot: the generation is bumped and the index
// recycled, so every Weak created for this lifecycle goes permanently stale.
// The retirement decision is made inside the registry's critical section, so
// concurrent releases of separate clones cannot retire the slot twice.
//
// Releasing the same handle twice is a contract violation.
func (s *Strong[T]) Release() {
	if s.data == nil {
		panic(errors.NewContract("handle.Strong.Release", "handle released twice"))
	}
	s.reg.release(s.index)
	// Sever this handle's payload pointer so later use panics deterministically
	// and the collector can reclaim the payload once all handles are gone.
	s.data = nil
}

// Downgrade returns a non-owning handle for the same slot. It never touches
// the strong count.
func (s *Strong[T]) Downgrade() Weak[T] {
	if s.data == nil {
		panic(errors.NewContract("handle.Strong.Downgrade", "handle used after Release"))
	}
	return Weak[T]{
		reg:        s.reg,
		index:      s.index,
		generation: s.generation,
		data:       s.data,
	}
}

// Weak is a non-owning handle. It is structurally a Strong without the
// ownership: holding one past the referent's death is always safe, and the
// only way to reach the payload is a successful Upgrade.
//
// The zero Weak is valid and never upgrades.
type Weak[T any] struct {
	reg        *Registry
	index      int
	generation uint64
	data       *T
}

// Upgrade attempts to turn the weak handle into an owning one. It succeeds
// only while the slot's current generation matches the handle's: the
// comparison and the count increment are one atomic critical section. On a
// mismatch the referent is gone, the slot may already belong to an unrelated
// later value, and every future Upgrade of this handle fails too.
//
// A failed upgrade is expected absence, not an error: callers in tree
// callbacks treat it as a silent no-op.
func (w Weak[T]) Upgrade() (*Strong[T], bool) {
	if w.reg == nil || !w.reg.acquire(w.index, w.generation) {
		return nil, false
	}
	return &Strong[T]{
		reg:        w.reg,
		index:      w.index,
		generation: w.generation,
		data:       w.data,
	}, true
}

package handle

import (
	"sync"

	"github.com/nextcore/sable/pkg/errors"
)

// slot is one entry in the registry table.
type slot struct {
	generation uint64
	strong     uint64
}

// Registry is a growable table of reference-counted, generation-tagged slots.
// It is safe for concurrent use; every operation is a short critical section
// under one mutex.
//
// The zero value is not usable; call NewRegistry.
type Registry struct {
	mu    sync.Mutex
	alive []slot
	dead  []int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry shared by the package-level
// handle constructors.
func Default() *Registry {
	return defaultRegistry
}

// register claims a slot with strong count 1, reusing a dead index when one
// is available, and returns the slot's identity pair.
func (r *Registry) register() (index int, generation uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n := len(r.dead); n > 0 {
		index = r.dead[n-1]
		r.dead = r.dead[:n-1]
		r.alive[index].strong = 1
		return index, r.alive[index].generation
	}

	index = len(r.alive)
	r.alive = append(r.alive, slot{generation: 0, strong: 1})
	return index, 0
}

// increment adds one strong reference to a live slot.
func (r *Registry) increment(index int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.alive[index].strong == 0 {
		panic(errors.NewContract("handle.Registry", "increment on retired slot %d", index))
	}
	r.alive[index].strong++
}

// release removes one strong reference. When the count transitions 1 to 0 the
// slot is retired: its generation is bumped and its index goes on the free
// list. Reports whether this call retired the slot.
func (r *Registry) release(index int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.alive[index].strong == 0 {
		panic(errors.NewContract("handle.Registry", "strong count underflow on slot %d", index))
	}
	r.alive[index].strong--
	if r.alive[index].strong > 0 {
		return false
	}
	r.alive[index].generation++
	r.dead = append(r.dead, index)
	return true
}

// acquire attempts to add a strong reference on behalf of a weak handle: it
// succeeds only while the slot's current generation matches the caller's.
// The comparison and the increment form a single critical section.
func (r *Registry) acquire(index int, generation uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if index >= len(r.alive) || r.alive[index].generation != generation {
		return false
	}
	// Retirement bumps the generation in the same critical section as the
	// final decrement, so a generation match implies a live slot.
	if r.alive[index].strong == 0 {
		return false
	}
	r.alive[index].strong++
	return true
}

// Len returns the size of the slot table, including retired slots. The table
// never shrinks.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.alive)
}

// LiveCount returns the number of slots with at least one strong reference.
func (r *Registry) LiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.alive {
		if s.strong > 0 {
			n++
		}
	}
	return n
}

// FreeCount returns the number of retired indices available for reuse.
func (r *Registry) FreeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.dead)
}

// strongCount reports the current strong count of a slot. Test hook.
func (r *Registry) strongCount(index int) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.alive[index].strong
}

// generationOf reports the current generation of a slot. Test hook.
func (r *Registry) generationOf(index int) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.alive[index].generation
}

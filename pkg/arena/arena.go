// Package arena provides the per-frame allocation substrate for the Sable
// framework: a chunked bump allocator whose contents are reclaimed in bulk,
// gated by a reference-counted scope token.
//
// One build pass owns the arena at a time. All allocation happens inside
// Do(arena, build); the bundle it returns carries a clone of the arena's
// scope token, and Reset succeeds only once every such clone has been
// released. Allocating outside a scope is a contract violation and panics.
//
// The allocator hands out raw memory with no per-allocation metadata, so a
// value stored in the arena must not be the only reference to separately
// collected memory unless that memory is itself kept alive by the scope's
// result. Every reference reachable from a build result must be exclusively
// owned by the returned bundle; the arena cannot verify this.
package arena

import (
	stderrors "errors"
	"unsafe"

	"github.com/nextcore/sable/pkg/errors"
)

// ErrBusy is returned by Reset while any scope bundle from a previous build
// pass is still alive. The caller retries on a later frame; a busy arena is
// never forced.
var ErrBusy = stderrors.New("arena: still referenced")

const minChunkSize = 64 * 1024

// Arena is a growable bump allocator. Allocation is a pointer bump into the
// current chunk; exhausted chunks are retained until Reset so outstanding
// references stay valid. Not safe for concurrent use: a single build pass
// owns the arena at a time, enforced by the enabled flag, not a lock.
type Arena struct {
	full    [][]byte
	current []byte
	off     uintptr
	used    int // bytes bumped into chunks now in full
	peak    int
	enabled bool
	tok     *token
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{tok: newToken()}
}

// Alloc bump-allocates size bytes at the given alignment and returns a
// pointer to them. Legal only inside Do; calling it outside an active scope
// signals tree construction leaking past its frame boundary and panics.
func (a *Arena) Alloc(size, align uintptr) unsafe.Pointer {
	if !a.enabled {
		panic(errors.NewContract("arena.Alloc", "allocator used outside of a scope"))
	}
	if size == 0 {
		// A shared non-nil pointer for zero-sized types.
		return unsafe.Pointer(&zerobase)
	}

	off := (a.off + align - 1) &^ (align - 1)
	if a.current == nil || off+size > uintptr(len(a.current)) {
		a.grow(size)
		off = 0
	}
	p := unsafe.Pointer(&a.current[off])
	a.off = off + size
	if total := a.used + int(a.off); total > a.peak {
		a.peak = total
	}
	return p
}

var zerobase byte

// grow retires the current chunk and installs a fresh one large enough for
// size, at least doubling so repeated growth stays amortized O(1).
func (a *Arena) grow(size uintptr) {
	next := minChunkSize
	if a.current != nil {
		a.used += int(a.off)
		a.full = append(a.full, a.current)
		next = 2 * len(a.current)
	}
	for uintptr(next) < size {
		next *= 2
	}
	a.current = make([]byte, next)
	a.off = 0
}

// Reset rewinds the arena for the next build pass. It succeeds only while
// the scope token's reference count is exactly one (the arena's own baseline
// reference); otherwise it returns ErrBusy and mutates nothing. It never
// blocks and never evicts outstanding references.
//
// A successful reset keeps the newest chunk for reuse and releases the rest.
func (a *Arena) Reset() error {
	if a.tok.count() != 1 {
		return ErrBusy
	}
	a.full = nil
	a.off = 0
	a.used = 0
	return nil
}

// Len returns the number of bytes currently bumped.
func (a *Arena) Len() int {
	return a.used + int(a.off)
}

// Cap returns the total backing capacity across all chunks.
func (a *Arena) Cap() int {
	n := len(a.current)
	for _, c := range a.full {
		n += len(c)
	}
	return n
}

// Peak returns the high-water mark of bumped bytes across all build passes.
// Reset does not clear it.
func (a *Arena) Peak() int {
	return a.peak
}

// Package state provides persistent widget state for the Sable framework.
//
// A Cell owns its payload through a strong handle created once, when the
// widget's state comes into being. The ephemeral tree rebuilt every frame
// never holds the cell itself: callbacks embedded into tree nodes are built
// with Bind, which captures only a weak handle, so a node's short lifetime
// never extends the state's lifetime. A callback firing after the cell is
// disposed detects that through the failed upgrade and does nothing.
package state

import (
	"sync"

	"github.com/nextcore/sable/pkg/handle"
	"github.com/nextcore/sable/pkg/key"
)

// Cell holds one widget's persistent state behind an owning handle.
//
// Access through Get is only safe on the UI thread; the cell guarantees
// identity and lifetime, not data-race safety of the payload's contents.
type Cell[T any] struct {
	strong *handle.Strong[T]
	id     key.Key

	mu        sync.Mutex
	disposers []func()
	disposed  bool
}

// NewCell allocates the state once and registers it in the process-wide
// registry.
func NewCell[T any](value T) *Cell[T] {
	return NewCellIn(handle.Default(), value)
}

// NewCellIn is NewCell against an explicit registry.
func NewCellIn[T any](r *handle.Registry, value T) *Cell[T] {
	return &Cell[T]{
		strong: handle.NewIn(r, value),
		id:     key.NewKey(),
	}
}

// Key returns the cell's identity tag, used to pair rebuilt tree nodes with
// the state that belongs to them.
func (c *Cell[T]) Key() key.Key {
	return c.id
}

// Get returns the payload. Calling Get after Dispose is a contract violation.
func (c *Cell[T]) Get() *T {
	return c.strong.Get()
}

// Disposed reports whether the cell has been disposed.
func (c *Cell[T]) Disposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}

// OnDispose registers a cleanup function to run when the cell is disposed.
// Returns an unregister function. If the cell is already disposed, cleanup
// runs immediately.
func (c *Cell[T]) OnDispose(cleanup func()) func() {
	if cleanup == nil {
		return func() {}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed {
		cleanup()
		return func() {}
	}

	index := len(c.disposers)
	c.disposers = append(c.disposers, cleanup)

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if index < len(c.disposers) {
			c.disposers[index] = nil
		}
	}
}

// Dispose runs the registered disposers in reverse order, then releases the
// owning handle, turning every bound callback into a permanent no-op.
// Dispose is idempotent.
func (c *Cell[T]) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	disposers := c.disposers
	c.disposers = nil
	c.mu.Unlock()

	// Run disposers in reverse order (LIFO).
	for i := len(disposers) - 1; i >= 0; i-- {
		if disposers[i] != nil {
			disposers[i]()
		}
	}

	c.strong.Release()
}

// Bind builds a callback for an ephemeral tree node. The closure captures a
// weak handle, never the cell: invoked while the cell is alive it runs fn
// with the payload; invoked after Dispose it silently does nothing. Binding
// an already-disposed cell yields a permanent no-op.
func Bind[T any](c *Cell[T], fn func(*T)) func() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return func() {}
	}
	weak := c.strong.Downgrade()
	c.mu.Unlock()

	return func() {
		u, ok := weak.Upgrade()
		if !ok {
			return
		}
		defer u.Release()
		fn(u.Get())
	}
}

// BindValue is Bind for callbacks that take an event argument.
func BindValue[T, A any](c *Cell[T], fn func(*T, A)) func(A) {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return func(A) {}
	}
	weak := c.strong.Downgrade()
	c.mu.Unlock()

	return func(arg A) {
		u, ok := weak.Upgrade()
		if !ok {
			return
		}
		defer u.Release()
		fn(u.Get(), arg)
	}
}

// Package frame coordinates per-frame tree construction over the arena.
//
// An Owner runs one build pass at a time: it retires the previous frame's
// scope bundle, reclaims the arena when nothing external still references the
// old tree, and runs the new pass inside an arena scope. When the renderer or
// event layer still holds a share of the previous frame, reclamation is
// deferred, never forced; the arena simply keeps growing until the holder
// lets go.
package frame

import (
	"fmt"
	"sync"

	"github.com/nextcore/sable/pkg/arena"
	"github.com/nextcore/sable/pkg/errors"
)

// Stats describes an Owner's build history.
type Stats struct {
	// FramesBuilt is the number of completed build passes.
	FramesBuilt uint64
	// ResetsDeferred counts build passes that could not reclaim the arena
	// because a previous frame's scope was still shared.
	ResetsDeferred uint64
}

// Owner owns the arena for one tree and serializes build passes over it.
type Owner[T any] struct {
	mu      sync.Mutex
	arena   *arena.Arena
	current arena.Scope[T]
	live    bool
	frame   uint64
	stats   Stats
}

// NewOwner creates an Owner with a fresh arena.
func NewOwner[T any]() *Owner[T] {
	return &Owner[T]{arena: arena.NewArena()}
}

// Arena returns the owned arena, for introspection.
func (o *Owner[T]) Arena() *arena.Arena {
	return o.arena
}

// BuildFrame runs one build pass. It releases the previous frame's scope,
// attempts to reclaim the arena, and constructs the new tree inside a fresh
// scope, retaining the resulting bundle as the current frame.
//
// A panic inside build is reported through the errors package and returned
// as an error; the pass produces no frame. Contract violations re-panic.
func (o *Owner[T]) BuildFrame(build func(a *arena.Arena) T) (result T, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.live {
		o.current.Release()
		o.live = false
	}
	if resetErr := o.arena.Reset(); resetErr != nil {
		// A shared scope from an earlier frame survives; keep building in
		// the grown arena and try again next pass.
		o.stats.ResetsDeferred++
	}

	o.frame++
	defer func() {
		if r := recover(); r != nil {
			errors.ReportBuildError(&errors.BuildError{
				Frame:      o.frame,
				Recovered:  r,
				StackTrace: errors.CaptureStack(),
			})
			if _, ok := r.(*errors.ContractError); ok {
				panic(r)
			}
			var zero T
			result = zero
			err = fmt.Errorf("build pass %d panicked: %v", o.frame, r)
		}
	}()

	scope := arena.Do(o.arena, func() T {
		return build(o.arena)
	})
	o.current = scope
	o.live = true
	o.stats.FramesBuilt++
	return scope.Value(), nil
}

// Current returns the latest frame's tree, if one exists.
func (o *Owner[T]) Current() (T, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.live {
		var zero T
		return zero, false
	}
	return o.current.Value(), true
}

// Share clones the current frame's scope for an external holder (the render
// or event layer). The holder must release the clone when done with the
// tree; until then the arena cannot be reclaimed.
func (o *Owner[T]) Share() (arena.Scope[T], bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.live {
		return arena.Scope[T]{}, false
	}
	return o.current.Clone(), true
}

// Retire releases the current frame and reclaims the arena when possible.
// Used at teardown or when the tree goes offscreen.
func (o *Owner[T]) Retire() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.live {
		o.current.Release()
		o.live = false
	}
	return o.arena.Reset()
}

// Stats returns a snapshot of the Owner's build history.
func (o *Owner[T]) Stats() Stats {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stats
}

package arena

import (
	"sync/atomic"

	"github.com/nextcore/sable/pkg/errors"
)

// token is the reference-counted scope marker. The arena holds the baseline
// reference; every Scope bundle and clone holds one more. Reset is legal
// only at baseline.
type token struct {
	refs atomic.Int64
}

func newToken() *token {
	t := &token{}
	t.refs.Store(1)
	return t
}

func (t *token) retain() {
	t.refs.Add(1)
}

func (t *token) release() {
	if t.refs.Add(-1) < 1 {
		panic(errors.NewContract("arena.Scope.Release", "scope released twice"))
	}
}

func (t *token) count() int64 {
	return t.refs.Load()
}

// Scope bundles a build pass's result with a clone of the arena's scope
// token. While any Scope (or clone) for an arena is alive, Reset on that
// arena reports ErrBusy.
//
// A Scope must be released exactly once, by calling Release on the value
// returned from Do or Clone. Copying a Scope without Clone does not extend
// the token.
type Scope[T any] struct {
	value T
	tok   *token
}

// Value returns the build result. The result and everything it references in
// arena memory stay valid until the arena is reset, which this Scope's
// liveness prevents.
func (s Scope[T]) Value() T {
	return s.value
}

// Clone returns a Scope sharing the same result and extending the token, for
// handing the built tree to another holder (the render or event layer).
func (s Scope[T]) Clone() Scope[T] {
	s.tok.retain()
	return s
}

// Release drops this Scope's hold on the arena. Once every Scope for a build
// pass is released, the arena's Reset succeeds.
func (s Scope[T]) Release() {
	s.tok.release()
}

// Do runs one build pass: it enables the allocator, runs build, and bundles
// the result with a fresh token clone. The allocator is disabled again when
// build returns, including by panic.
//
// Caller obligation, not checkable here: every arena reference reachable
// from the result must be exclusively owned by the returned Scope. An
// external alias retained past the Scope's release dangles after Reset.
func Do[T any](a *Arena, build func() T) Scope[T] {
	if a.enabled {
		panic(errors.NewContract("arena.Do", "scope is already active"))
	}
	a.enabled = true
	defer func() { a.enabled = false }()

	value := build()
	a.tok.retain()
	return Scope[T]{value: value, tok: a.tok}
}

// Package key provides unique identity tags for tree nodes.
package key

import "sync/atomic"

// Key is a unique identifier for a node. Ephemeral trees are rebuilt every
// frame; a Key carried across rebuilds lets persistent state follow the node
// it belongs to.
type Key uint32

// NilKey is the zero Key and identifies nothing.
const NilKey Key = 0

var counter atomic.Uint32

// NewKey returns a process-unique Key.
func NewKey() Key {
	return Key(counter.Add(1))
}

// IsNil reports whether k is the zero Key.
func (k Key) IsNil() bool {
	return k == NilKey
}

// Package handle provides the ownership substrate for long-lived state in
// the Sable framework: a generation-tagged slot registry and the Strong/Weak
// handle pair built on top of it.
//
// # Why not plain pointers
//
// Sable rebuilds its ephemeral UI tree every frame. Tree nodes embed callbacks
// that need to reach persistent widget state, but a node's short lifetime must
// never extend that state's lifetime, and a callback firing after the state's
// owner is gone must detect that safely instead of touching stale memory. A
// plain pointer gives neither property; a Weak handle gives both.
//
// # Core Types
//
// Registry is a growable table of reference-counted, generation-tagged slots.
// Freed slot indices are recycled, and each full lifecycle of a slot bumps its
// generation, so a stale handle can never be confused with a later occupant of
// the same index. The table never shrinks; this trades peak memory for O(1)
// bookkeeping.
//
// Strong[T] keeps its referent alive. Cloning increments and Release
// decrements the slot's shared strong count; the count reaching zero retires
// the slot. Dereferencing a Strong handle is direct access with no registry
// interaction.
//
// Weak[T] holds no ownership. Upgrade compares its stored generation against
// the slot's current generation under the registry lock: on a match it yields
// a new Strong handle, on a mismatch it reports that the referent is gone.
// Once Upgrade fails for a handle it fails forever, because generations only
// increase.
//
// # Concurrency
//
// Every registry mutation runs under one process-wide mutex, so generation
// comparisons are linearizable with respect to count transitions. The payload
// itself gets no synchronization from this package: the registry guarantees
// identity (is this still the same value), not data-race safety of the
// value's contents.
//
// # Registry Lifecycle
//
// Most callers use the package-level constructors, which share the
// process-wide registry behind Default(). Tests and embedders that want an
// isolated identity space construct their own with NewRegistry and use the
// In-suffixed constructors:
//
//	reg := handle.NewRegistry()
//	s := handle.NewIn(reg, myState{})
//	defer s.Release()
//	w := s.Downgrade()
//
// # Contract Violations
//
// Releasing a handle twice, using it after Release, or any strong-count
// underflow inside the registry panics with *errors.ContractError. These are
// bugs in handle bookkeeping, never recoverable runtime conditions.
package handle

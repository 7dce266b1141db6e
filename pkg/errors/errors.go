// Package errors provides structured error handling for the Sable framework.
package errors

import (
	"fmt"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindContract indicates a violated programming contract (a bug in the
	// caller, not a runtime condition).
	KindContract
	// KindRegistry indicates a slot registry error.
	KindRegistry
	// KindArena indicates an arena allocation or reset error.
	KindArena
	// KindBuild indicates a build-pass error.
	KindBuild
	// KindConfig indicates a configuration error.
	KindConfig
	// KindPanic indicates a recovered panic.
	KindPanic
)

func (k ErrorKind) String() string {
	switch k {
	case KindContract:
		return "contract"
	case KindRegistry:
		return "registry"
	case KindArena:
		return "arena"
	case KindBuild:
		return "build"
	case KindConfig:
		return "config"
	case KindPanic:
		return "panic"
	default:
		return "unknown"
	}
}

// SableError represents a structured error in the Sable framework.
type SableError struct {
	// Op is the operation that failed (e.g., "arena.Reset").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Err is the underlying error.
	Err error
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *SableError) Error() string {
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *SableError) Unwrap() error {
	return e.Err
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "frame.Build").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// ContractError is the panic payload for programming-contract violations:
// releasing a handle twice, allocating from an arena outside a scope, or a
// strong-count underflow in the registry. These indicate a bug in the
// surrounding integration and are never recovered into normal control flow.
type ContractError struct {
	// Op is the contract that was violated (e.g., "handle.Strong.Release").
	Op string
	// Msg describes the violation.
	Msg string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("contract violation in %s: %s", e.Op, e.Msg)
}

// NewContract builds a ContractError. Callers panic with the result:
//
//	panic(errors.NewContract("arena.Alloc", "allocator used outside a scope"))
func NewContract(op, format string, args ...any) *ContractError {
	return &ContractError{Op: op, Msg: fmt.Sprintf(format, args...)}
}

// BuildError represents a failure during a frame build pass.
type BuildError struct {
	// Frame is the sequence number of the build pass that failed.
	Frame uint64
	// Recovered is the panic value (nil for regular errors).
	Recovered any
	// Err is the underlying error (nil for panics).
	Err error
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *BuildError) Error() string {
	if e.Recovered != nil {
		return fmt.Sprintf("panic in build pass %d: %v", e.Frame, e.Recovered)
	}
	if e.Err != nil {
		return fmt.Sprintf("error in build pass %d: %v", e.Frame, e.Err)
	}
	return fmt.Sprintf("unknown error in build pass %d", e.Frame)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// ErrorHandler receives errors reported by the Sable framework.
type ErrorHandler interface {
	// HandleError is called when an error occurs.
	HandleError(err *SableError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
	// HandleBuildError is called when a build pass fails.
	HandleBuildError(err *BuildError)
}

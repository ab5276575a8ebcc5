// Package result provides the uniform outcome shape shared by asynchronous
// session operations: a value that is either still loading, resolved with a
// value, or failed with a human-readable message. Callers switch on the
// state instead of inspecting error types.
package result

// State enumerates the three outcome phases of an operation.
type State int

const (
	// StatePending means the operation has not resolved yet.
	StatePending State = iota

	// StateSuccess means the operation resolved with a value.
	StateSuccess

	// StateFailure means the operation failed with a message.
	StateFailure
)

// Result is the outcome of an asynchronous operation producing a T.
// The zero value is a pending result.
type Result[T any] struct {
	state   State
	value   T
	message string
}

// Pending returns a result that has not resolved yet.
func Pending[T any]() Result[T] {
	return Result[T]{state: StatePending}
}

// Ok returns a successful result carrying value.
func Ok[T any](value T) Result[T] {
	return Result[T]{state: StateSuccess, value: value}
}

// Fail returns a failed result carrying a human-readable message.
func Fail[T any](message string) Result[T] {
	return Result[T]{state: StateFailure, message: message}
}

// State returns the outcome phase.
func (r Result[T]) State() State { return r.state }

// IsPending reports whether the operation has not resolved yet.
func (r Result[T]) IsPending() bool { return r.state == StatePending }

// Value returns the resolved value and whether the result is successful.
func (r Result[T]) Value() (T, bool) {
	if r.state != StateSuccess {
		var zero T
		return zero, false
	}
	return r.value, true
}

// Message returns the failure message, or an empty string when the result
// has not failed.
func (r Result[T]) Message() string {
	if r.state != StateFailure {
		return ""
	}
	return r.message
}

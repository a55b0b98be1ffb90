package errors

import (
	"fmt"
)

// ValidationError occurs when a file fails to open, reports no entries, or
// reports a range the Element's configured first/num can't fit inside.
type ValidationError struct {
	File   string
	Reason string
}

// Error returns a textual representation of this ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.File, e.Reason)
}

// TransportError occurs when a worker Recv fails, sends FATAL, or sends an
// unexpected message kind. It is always fatal to the owning Packetizer.
type TransportError struct {
	WorkerID string
	Reason   string
}

// Error returns a textual representation of this TransportError
func (e TransportError) Error() string {
	return fmt.Sprintf("transport failure for worker %s: %s", e.WorkerID, e.Reason)
}

// ConfigurationError occurs when the Packetizer has nothing valid to
// schedule, e.g. an empty DataSet after windowing.
type ConfigurationError struct{ Reason string }

// Error returns a textual representation of this ConfigurationError
func (e ConfigurationError) Error() string {
	return fmt.Sprintf("packetizer configuration error: %s", e.Reason)
}

// InvalidElementError occurs when an Element's first/num are nonsensical
// (first < 0 or num < -1). Per the contract-error policy, callers never see
// this thrown — it is recorded and the Element is clamped — but it is kept
// as a typed value so the clamp can be logged and tested precisely.
type InvalidElementError struct {
	First, Num int64
}

// Error returns a textual representation of this InvalidElementError
func (e InvalidElementError) Error() string {
	return fmt.Sprintf("invalid element range: first=%d num=%d", e.First, e.Num)
}

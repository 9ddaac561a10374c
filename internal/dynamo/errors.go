package dynamo

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds of the engine.
var (
	// ErrNumericDomain indicates an input outside a formula's domain or a
	// non-finite (NaN/Inf) intermediate value.
	ErrNumericDomain = errors.New("dynamo: numeric domain error")

	// ErrCapability indicates an object that cannot be dispatched because it
	// lacks the physics update operation.
	ErrCapability = errors.New("dynamo: object lacks physics update capability")

	// ErrClosed indicates use of a processor after its worker pool was released.
	ErrClosed = errors.New("dynamo: processor closed")

	// ErrDimensionMismatch indicates a state vector of unexpected length.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch")
)

// Domainf returns an error wrapping ErrNumericDomain.
func Domainf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNumericDomain, fmt.Sprintf(format, args...))
}

// StepError wraps an error with the update step that produced it.
type StepError struct {
	Step    string
	Frame   int
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("frame %d, %s: %v", e.Frame, e.Step, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}

// ObjectError is the failure of one object within a frame.
type ObjectError struct {
	Index int
	Err   error
}

func (e ObjectError) Error() string {
	return fmt.Sprintf("object %d: %v", e.Index, e.Err)
}

func (e ObjectError) Unwrap() error {
	return e.Err
}

// FrameError aggregates every object failure of a single frame.
type FrameError struct {
	Frame   int
	Objects []ObjectError
}

func (e *FrameError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "frame %d: %d object(s) failed", e.Frame, len(e.Objects))
	for _, oe := range e.Objects {
		sb.WriteString("; ")
		sb.WriteString(oe.Error())
	}
	return sb.String()
}

// Unwrap exposes the per-object errors to errors.Is and errors.As.
func (e *FrameError) Unwrap() []error {
	errs := make([]error, len(e.Objects))
	for i, oe := range e.Objects {
		errs[i] = oe
	}
	return errs
}

// Failed reports the indices of the objects that failed.
func (e *FrameError) Failed() []int {
	idx := make([]int, len(e.Objects))
	for i, oe := range e.Objects {
		idx[i] = oe.Index
	}
	return idx
}

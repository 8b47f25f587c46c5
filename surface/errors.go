package surface

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrMissingElement is matched by errors.Is for every *MissingElementError.
	ErrMissingElement = errors.New("missing element")
	// ErrAssertionMismatch is matched by errors.Is for every *AssertionMismatchError.
	ErrAssertionMismatch = errors.New("assertion mismatch")
	// ErrTimeout is matched by errors.Is for every *TimeoutError.
	ErrTimeout = errors.New("timed out")
)

// MissingElementError means a control or observable ID is not exposed by the widget.
type MissingElementError struct {
	ID string
}

func (e *MissingElementError) Error() string {
	return fmt.Sprintf("element %q is not present", e.ID)
}

func (e *MissingElementError) Is(target error) bool { return target == ErrMissingElement }

// AssertionMismatchError means an observable did not have the expected value.
type AssertionMismatchError struct {
	ID       string
	Expected string
	Actual   string
}

func (e *AssertionMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %q, got %q", e.ID, e.Expected, e.Actual)
}

func (e *AssertionMismatchError) Is(target error) bool { return target == ErrAssertionMismatch }

// TimeoutError means a condition on an observable was not satisfied within the allowed time.
// LastValue is the last value that was observed before giving up.
type TimeoutError struct {
	ID           string
	Condition    string
	Elapsed      time.Duration
	LastValue    string
	StreamClosed bool
}

func (e *TimeoutError) Error() string {
	cond := e.Condition
	if cond == "" {
		cond = "condition"
	}
	if e.StreamClosed {
		return fmt.Sprintf("%s: update stream closed after %s before %s was met (last value %q)",
			e.ID, e.Elapsed, cond, e.LastValue)
	}
	return fmt.Sprintf("%s: %s was not met within %s (last value %q)", e.ID, cond, e.Elapsed, e.LastValue)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

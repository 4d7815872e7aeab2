package streamtest

import (
	"context"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
)

var (
	// ErrAssertion is matched by every *AssertionError.
	ErrAssertion = errors.New("assertion failed", j.C("ERR_b71f0e24c9a35d68"))

	// ErrTimeout is returned when a guarded await does not see an event in time.
	ErrTimeout = errors.New("timed out waiting for event", j.C("ERR_0c94d2ae716b5f3e"))

	// ErrClosedForSend is returned when pushing into a recorder which has been closed or cancelled.
	ErrClosedForSend = errors.New("recorder closed for send", j.C("ERR_e83a51c6f02d97b4"))

	// ErrClosedForReceive is returned when awaiting on a recorder which is closed and fully drained.
	ErrClosedForReceive = errors.New("recorder closed and drained", j.C("ERR_4d6bf9031a8ec527"))

	// ErrProducerPanicked is recorded as the cause of an Error event when a Source panics.
	ErrProducerPanicked = errors.New("producer panicked", j.C("ERR_91c7e05b3fa4d816"))
)

// AssertionError describes an observed event that did not match what the caller expected.
type AssertionError struct {
	Message string
	// Cause is the failure carried by the offending event, if any.
	Cause error
}

func (e *AssertionError) Error() string {
	return e.Message
}

func (e *AssertionError) Unwrap() error {
	return e.Cause
}

func (e *AssertionError) Is(target error) bool {
	return target == ErrAssertion
}

// IsAssertion reports whether err is an assertion failure.
func IsAssertion(err error) bool {
	return errors.Is(err, ErrAssertion)
}

// IsTimeout reports whether err is a timeout failure.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// isCancellation reports whether an Error event is the expected result of tearing down its producer.
func isCancellation(err error) bool {
	return errors.IsAny(err, context.Canceled, ErrClosedForSend)
}

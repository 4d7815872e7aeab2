package test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/luno/streamtest"
)

// Only for testing purposes - do not import into main code builds

// TB records failures instead of stopping the test, so that the failures of
// a streamtest.Harness can themselves be asserted on.
// FailNow does not exit the calling goroutine.
type TB struct {
	mu       sync.Mutex
	failed   bool
	messages []string
	cleanups []func()
}

var _ streamtest.TB = (*TB)(nil)

func (t *TB) Helper() {}

func (t *TB) Errorf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, fmt.Sprintf(format, args...))
}

func (t *TB) FailNow() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failed = true
}

func (t *TB) Cleanup(f func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cleanups = append(t.cleanups, f)
}

// RunCleanups runs the registered cleanups, last registered first, as the
// testing package does when a test ends.
func (t *TB) RunCleanups() {
	for {
		t.mu.Lock()
		if len(t.cleanups) == 0 {
			t.mu.Unlock()
			return
		}
		f := t.cleanups[len(t.cleanups)-1]
		t.cleanups = t.cleanups[:len(t.cleanups)-1]
		t.mu.Unlock()
		f()
	}
}

func (t *TB) Failed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.failed
}

func (t *TB) Messages() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.messages...)
}

type EventConstraint[T any] interface {
	CheckMore(t *testing.T, e streamtest.Event[T]) bool
}

// Event expects exactly e.
type Event[T any] streamtest.Event[T]

func (e Event[T]) CheckMore(t *testing.T, got streamtest.Event[T]) bool {
	assert.Equal(t, streamtest.Event[T](e), got)
	return false
}

type ConstraintFunc[T any] func(t *testing.T, e streamtest.Event[T]) bool

func (f ConstraintFunc[T]) CheckMore(t *testing.T, got streamtest.Event[T]) bool {
	return f(t, got)
}

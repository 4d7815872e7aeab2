package streamtest

import (
	"context"
	"fmt"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/log"
	"github.com/stretchr/testify/require"
)

// TB is the part of testing.TB used to fail a test and register its teardown.
type TB interface {
	Helper()
	Errorf(format string, args ...any)
	FailNow()
	Cleanup(func())
}

// Harness binds a Recorder to a test. Every operation fails the test as soon
// as it sees something unexpected, and the test's cleanup cancels the
// recorder and fails if any event was left unconsumed.
type Harness[T any] struct {
	t   TB
	rec *Recorder[T]
}

// New returns a Harness fed manually with Add and Close.
func New[T any](t TB, opts ...Option) *Harness[T] {
	t.Helper()
	h := &Harness[T]{t: t, rec: NewRecorder[T](opts...)}
	t.Cleanup(h.teardown)
	return h
}

// Observe starts recording src for the rest of the test.
func Observe[T any](t TB, src Source[T], opts ...Option) *Harness[T] {
	t.Helper()
	h := &Harness[T]{t: t, rec: Record(context.Background(), src, opts...)}
	t.Cleanup(h.teardown)
	return h
}

func (h *Harness[T]) teardown() {
	h.t.Helper()
	if err := closeRecorder(h.rec); err != nil {
		h.fail(err)
	}
}

// closeRecorder cancels r and audits it, bounded by Config.CancelTimeout.
func closeRecorder[T any](r *Recorder[T]) error {
	ctx, cancel := context.WithTimeout(context.Background(), loadConfig().CancelTimeout)
	defer cancel()

	cancelErr := r.Cancel(ctx)
	if cancelErr != nil {
		// NoReturnErr: Still audit what was recorded
		log.Error(ctx, cancelErr)
	}
	if err := r.EnsureAllEventsConsumed(); err != nil {
		return err
	}
	return cancelErr
}

// Recorder returns the underlying Recorder.
func (h *Harness[T]) Recorder() *Recorder[T] {
	return h.rec
}

func (h *Harness[T]) fail(err error) {
	h.t.Helper()
	require.FailNow(h.t, describe(err))
}

// describe renders err for a test failure, including the failure carried by
// an assertion's offending event.
func describe(err error) string {
	ae, ok := err.(*AssertionError)
	if !ok || ae.Cause == nil {
		return err.Error()
	}
	return fmt.Sprintf("%s\ncaused by: %+v", ae.Message, ae.Cause)
}

// Add pushes an item, failing the test if the recorder was closed.
func (h *Harness[T]) Add(v T) {
	h.t.Helper()
	if err := h.rec.Add(v); err != nil {
		h.fail(errors.Wrap(err, "add item"))
	}
}

func (h *Harness[T]) Close(cause error) {
	h.rec.Close(cause)
}

func (h *Harness[T]) Cancel() {
	h.t.Helper()
	if err := h.rec.Cancel(h.cancelContext()); err != nil {
		h.fail(err)
	}
}

func (h *Harness[T]) CancelAndIgnoreRemainingEvents() {
	h.t.Helper()
	if err := h.rec.CancelAndIgnoreRemainingEvents(h.cancelContext()); err != nil {
		h.fail(err)
	}
}

func (h *Harness[T]) CancelAndConsumeRemainingEvents() []Event[T] {
	h.t.Helper()
	evs, err := h.rec.CancelAndConsumeRemainingEvents(h.cancelContext())
	if err != nil {
		h.fail(err)
	}
	return evs
}

func (h *Harness[T]) cancelContext() context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), loadConfig().CancelTimeout)
	h.t.Cleanup(cancel)
	return ctx
}

func (h *Harness[T]) TryTake() (Event[T], bool) {
	return h.rec.TryTake()
}

func (h *Harness[T]) AwaitEvent() Event[T] {
	h.t.Helper()
	ev, err := h.rec.AwaitEvent(context.Background())
	if err != nil {
		h.fail(err)
	}
	return ev
}

func (h *Harness[T]) AwaitItem() T {
	h.t.Helper()
	v, err := h.rec.AwaitItem(context.Background())
	if err != nil {
		h.fail(err)
	}
	return v
}

func (h *Harness[T]) SkipItems(count int) {
	h.t.Helper()
	if err := h.rec.SkipItems(context.Background(), count); err != nil {
		h.fail(err)
	}
}

func (h *Harness[T]) AwaitComplete() {
	h.t.Helper()
	if err := h.rec.AwaitComplete(context.Background()); err != nil {
		h.fail(err)
	}
}

func (h *Harness[T]) AwaitError() error {
	h.t.Helper()
	cause, err := h.rec.AwaitError(context.Background())
	if err != nil {
		h.fail(err)
	}
	return cause
}

func (h *Harness[T]) ExpectNoEvents() {
	h.t.Helper()
	if err := h.rec.ExpectNoEvents(); err != nil {
		h.fail(err)
	}
}

func (h *Harness[T]) ExpectMostRecentItem() T {
	h.t.Helper()
	v, err := h.rec.ExpectMostRecentItem()
	if err != nil {
		h.fail(err)
	}
	return v
}

// EnsureAllEventsConsumed audits the recorder now rather than at teardown.
func (h *Harness[T]) EnsureAllEventsConsumed() {
	h.t.Helper()
	if err := h.rec.EnsureAllEventsConsumed(); err != nil {
		h.fail(err)
	}
}

// Package streamtest records the events of an asynchronous stream so that a
// test can assert on them one at a time, with bounded waits and a strict check
// at teardown that nothing produced was left unconsumed.
package streamtest

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
	"github.com/luno/jettison/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/luno/streamtest/internal/fifo"
)

// Recorder buffers the events of one stream in the order they were produced.
//
// A Recorder has a single consumer: the await and take methods must not be
// called concurrently with each other.
type Recorder[T any] struct {
	buf      *fifo.Buffer[Event[T]]
	producer *producer
	opts     options

	// ignoreTerminalEvents is set once the stream has been closed or cancelled
	// by the test, or a terminal event has been awaited.
	ignoreTerminalEvents atomic.Bool
	// ignoreRemainingEvents is set once the test no longer cares about the
	// contents of the buffer.
	ignoreRemainingEvents atomic.Bool
	// cancelled refuses further awaits, what is left is for the audit.
	cancelled atomic.Bool
}

// NewRecorder returns a Recorder which is fed manually with Add and Close.
func NewRecorder[T any](opts ...Option) *Recorder[T] {
	return &Recorder[T]{
		buf:  fifo.New[Event[T]](),
		opts: resolveOptions(opts),
	}
}

// Record starts collecting src into a new Recorder in the background.
// The producer runs until src returns or the recorder is closed or cancelled.
func Record[T any](ctx context.Context, src Source[T], opts ...Option) *Recorder[T] {
	r := NewRecorder[T](opts...)
	r.producer = startProducer(ctx, r, src)
	return r
}

func (r *Recorder[T]) Name() string {
	return r.opts.name
}

// Len returns the number of events waiting to be consumed.
func (r *Recorder[T]) Len() int {
	return r.buf.Len()
}

// Add pushes an item, it never blocks.
// It returns ErrClosedForSend once the recorder has been closed or cancelled.
func (r *Recorder[T]) Add(v T) error {
	return r.push(context.Background(), Item(v))
}

func (r *Recorder[T]) emitter(ctx context.Context) Emitter[T] {
	return func(v T) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return r.push(ctx, Item(v))
	}
}

func (r *Recorder[T]) push(ctx context.Context, ev Event[T]) error {
	if err := r.buf.Push(ev); err != nil {
		return errors.Wrap(ErrClosedForSend, "", j.KV("recorder", r.opts.name))
	}
	r.observe(ctx, ev)
	return nil
}

func (r *Recorder[T]) observe(ctx context.Context, ev Event[T]) {
	recordedEvents.With(prometheus.Labels{typeLabel: ev.Type.String()}).Inc()
	if r.opts.debug {
		log.Info(ctx, "recorded event", j.KV("recorder", r.opts.name), j.KS("event", ev.String()))
	}
}

// TryTake removes the next event without waiting.
// Taking a terminal event this way stops the teardown audit from reporting
// anything left in the recorder.
func (r *Recorder[T]) TryTake() (Event[T], bool) {
	ev, ok := r.buf.TryPop()
	if ok && ev.IsTerminal() {
		r.ignoreRemainingEvents.Store(true)
	}
	return ev, ok
}

// AwaitEvent waits for the next event.
// Once the recorder is closed and every event has been taken, it returns
// ErrClosedForReceive without waiting.
func (r *Recorder[T]) AwaitEvent(ctx context.Context) (Event[T], error) {
	return r.await(ctx, "await event")
}

func (r *Recorder[T]) await(ctx context.Context, op string) (Event[T], error) {
	if r.cancelled.Load() {
		return Event[T]{}, errors.Wrap(ErrClosedForReceive, op, j.KV("recorder", r.opts.name))
	}
	ev, err := r.guard(ctx, op, r.pop)
	if err != nil {
		return Event[T]{}, err
	}
	if ev.IsTerminal() {
		r.ignoreTerminalEvents.Store(true)
	}
	return ev, nil
}

func (r *Recorder[T]) pop(ctx context.Context) (Event[T], error) {
	ev, err := r.buf.Pop(ctx)
	if errors.Is(err, fifo.ErrClosed) {
		return ev, errors.Wrap(ErrClosedForReceive, "", j.KV("recorder", r.opts.name))
	}
	return ev, err
}

// AwaitItem waits for the next event and returns its value if it is an item.
func (r *Recorder[T]) AwaitItem(ctx context.Context) (T, error) {
	var zero T
	ev, err := r.await(ctx, "await item")
	if err != nil {
		return zero, err
	}
	if ev.Type != EventItem {
		return zero, r.unexpected("item", ev)
	}
	return ev.Value, nil
}

// SkipItems waits for count items and discards them.
func (r *Recorder[T]) SkipItems(ctx context.Context, count int) error {
	for i := 0; i < count; i++ {
		ev, err := r.await(ctx, "skip items")
		if err != nil {
			return err
		}
		if ev.Type != EventItem {
			return &AssertionError{
				Message: fmt.Sprintf("expected %d items%s but skipped %d and found %s", count, r.forName(), i, ev),
				Cause:   ev.Err,
			}
		}
	}
	return nil
}

// AwaitComplete waits for the next event and fails unless it completes the stream.
func (r *Recorder[T]) AwaitComplete(ctx context.Context) error {
	ev, err := r.await(ctx, "await complete")
	if err != nil {
		return err
	}
	if ev.Type != EventComplete {
		return r.unexpected("complete", ev)
	}
	return nil
}

// AwaitError waits for the next event and returns the failure it carries.
// It fails unless the event is an error.
func (r *Recorder[T]) AwaitError(ctx context.Context) (cause error, err error) {
	ev, err := r.await(ctx, "await error")
	if err != nil {
		return nil, err
	}
	if ev.Type != EventError {
		return nil, r.unexpected("error", ev)
	}
	return ev.Err, nil
}

// ExpectNoEvents fails if an event is waiting. The event is left in place.
func (r *Recorder[T]) ExpectNoEvents() error {
	ev, ok := r.buf.Peek()
	if !ok {
		return nil
	}
	return &AssertionError{
		Message: fmt.Sprintf("expected no events%s but found %s", r.forName(), ev),
		Cause:   ev.Err,
	}
}

// ExpectMostRecentItem takes every buffered item and returns the last one.
// A Complete after an item ends the drain and is left for the caller to await.
// It fails if no item was buffered, or on an Error or a Complete before any item.
func (r *Recorder[T]) ExpectMostRecentItem() (T, error) {
	var (
		last  T
		found bool
	)
	for {
		ev, ok := r.buf.Peek()
		if !ok {
			break
		}
		if found && ev.Type == EventComplete {
			return last, nil
		}
		ev, _ = r.TryTake()
		if ev.IsTerminal() {
			var zero T
			return zero, r.unexpected("item", ev)
		}
		last, found = ev.Value, true
	}
	if !found {
		return last, &AssertionError{Message: "no item was found" + r.forName()}
	}
	return last, nil
}

// Close stops the recorder accepting items and records the end of the stream,
// Complete for a nil cause or Error otherwise. The terminal event is expected
// so the audit does not report it. If the stream had already ended, its own
// terminal event is kept and still reported. The producer, if any, is asked
// to stop but is not waited for.
func (r *Recorder[T]) Close(cause error) {
	ev := Complete[T]()
	if cause != nil {
		ev = Error[T](cause)
	}
	if err := r.buf.PushAndClose(ev); err == nil {
		r.ignoreTerminalEvents.Store(true)
		r.observe(context.Background(), ev)
	}

	if r.producer != nil {
		r.producer.cancel()
	}
}

// Cancel stops the recorder accepting items, cancels the producer and waits
// for it to terminate, or for ctx to be done. Further awaits return
// ErrClosedForReceive. Events still buffered are reported by the audit unless
// the remaining events are ignored.
func (r *Recorder[T]) Cancel(ctx context.Context) error {
	r.cancelled.Store(true)
	if r.buf.Close() {
		r.ignoreTerminalEvents.Store(true)
	}
	if r.producer == nil {
		return nil
	}
	if err := r.producer.stop(ctx); err != nil {
		return errors.Wrap(err, "producer still running", j.KV("recorder", r.opts.name))
	}
	return nil
}

// CancelAndIgnoreRemainingEvents cancels the recorder and marks everything in it as expected.
func (r *Recorder[T]) CancelAndIgnoreRemainingEvents(ctx context.Context) error {
	r.ignoreRemainingEvents.Store(true)
	return r.Cancel(ctx)
}

// CancelAndConsumeRemainingEvents cancels the recorder and returns the events
// it still held, up to and including the first terminal event.
func (r *Recorder[T]) CancelAndConsumeRemainingEvents(ctx context.Context) ([]Event[T], error) {
	r.ignoreRemainingEvents.Store(true)
	err := r.Cancel(ctx)

	var evs []Event[T]
	for {
		ev, ok := r.buf.TryPop()
		if !ok {
			break
		}
		evs = append(evs, ev)
		if ev.IsTerminal() {
			break
		}
	}
	return evs, err
}

func (r *Recorder[T]) unexpected(want string, got Event[T]) *AssertionError {
	return &AssertionError{
		Message: fmt.Sprintf("expected %s%s but found %s", want, r.forName(), got),
		Cause:   got.Err,
	}
}

func (r *Recorder[T]) forName() string {
	if r.opts.name == "" {
		return ""
	}
	return " for " + r.opts.name
}

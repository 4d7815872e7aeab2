package streamtest

import "strings"

// Report lists the events which were still in a recorder when it was audited.
type Report[T any] struct {
	Name   string
	Origin string
	Events []Event[T]
	// Cause is the failure carried by the first error event found, if any.
	Cause error
}

func (r Report[T]) Empty() bool {
	return len(r.Events) == 0
}

// FormatReport describes every unconsumed event of rep, one per line.
func FormatReport[T any](rep Report[T]) string {
	var b strings.Builder
	b.WriteString("unconsumed events found")
	if rep.Name != "" {
		b.WriteString(" for ")
		b.WriteString(rep.Name)
	}
	if rep.Origin != "" {
		b.WriteString(" (recorded in ")
		b.WriteString(rep.Origin)
		b.WriteString(")")
	}
	b.WriteString(":")
	for _, ev := range rep.Events {
		b.WriteString("\n - ")
		b.WriteString(ev.String())
	}
	return b.String()
}

// Audit takes every event left in the recorder and reports the ones the test
// did not expect.
//
// The drain stops at the first terminal event. A cancellation error is the
// result of tearing down the producer and ends the audit without being
// reported. Terminal events are expected once the recorder was closed or
// cancelled, and nothing is reported once remaining events are ignored.
func (r *Recorder[T]) Audit() Report[T] {
	rep := Report[T]{Name: r.opts.name, Origin: r.opts.origin}
	for {
		ev, ok := r.buf.TryPop()
		if !ok {
			break
		}
		if ev.Type == EventError && isCancellation(ev.Err) {
			break
		}
		if r.ignoreRemainingEvents.Load() {
			return Report[T]{Name: r.opts.name, Origin: r.opts.origin}
		}
		if !ev.IsTerminal() || !r.ignoreTerminalEvents.Load() {
			rep.Events = append(rep.Events, ev)
		}
		if ev.Type == EventError {
			rep.Cause = ev.Err
			break
		}
		if ev.Type == EventComplete {
			break
		}
	}
	unconsumedEvents.Add(float64(len(rep.Events)))
	return rep
}

// EnsureAllEventsConsumed audits the recorder and fails if anything
// unexpected was left in it.
func (r *Recorder[T]) EnsureAllEventsConsumed() error {
	rep := r.Audit()
	if rep.Empty() {
		return nil
	}
	return &AssertionError{Message: FormatReport(rep), Cause: rep.Cause}
}

package streamtest

import (
	"context"
	"fmt"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
)

var errDeadline = errors.New("await deadline reached", j.C("ERR_7f25c3b0e9a14d6c"))

// guard runs read under the recorder's timeout.
//
// An event which is available is returned even if the deadline has passed.
// Otherwise the recorder timeout or a deadline on ctx gives ErrTimeout, and a
// cancelled ctx gives its own error. A timeout leaves the recorder open, a
// later await will still see events produced after the deadline.
func (r *Recorder[T]) guard(ctx context.Context, op string,
	read func(context.Context) (Event[T], error),
) (Event[T], error) {
	readCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	d := r.opts.timeout
	if d > 0 {
		ti := r.opts.clock.NewTimer(d)
		defer ti.Stop()
		go func() {
			select {
			case <-ti.C():
				cancel(errDeadline)
			case <-readCtx.Done():
			}
		}()
	}

	ev, err := read(readCtx)
	if err == nil {
		return ev, nil
	}

	switch {
	case errors.Is(context.Cause(readCtx), errDeadline):
		awaitTimeouts.Inc()
		return ev, errors.Wrap(ErrTimeout,
			fmt.Sprintf("%s: no event%s within %v", op, r.forName(), d),
			j.KV("recorder", r.opts.name), j.KV("timeout", d.String()))
	case errors.Is(err, context.DeadlineExceeded):
		awaitTimeouts.Inc()
		return ev, errors.Wrap(ErrTimeout,
			fmt.Sprintf("%s: no event%s before context deadline", op, r.forName()),
			j.KV("recorder", r.opts.name))
	}
	return ev, err
}

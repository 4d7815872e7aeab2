package streamtest

import (
	"context"
	"fmt"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
	"github.com/luno/jettison/log"
)

// producer is the goroutine collecting a Source into a Recorder.
type producer struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func startProducer[T any](ctx context.Context, r *Recorder[T], src Source[T]) *producer {
	ctx, cancel := context.WithCancel(ctx)
	if r.opts.name != "" {
		ctx = log.ContextWith(ctx, j.MKV{"recorder": r.opts.name})
	}
	p := &producer{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(p.done)
		defer cancel()

		err := runSource(ctx, src, r.emitter(ctx))

		ev := Complete[T]()
		if err != nil {
			ev = Error[T](err)
		}
		if pushErr := r.buf.PushAndClose(ev); pushErr != nil {
			// NoReturnErr: The recorder was closed before the producer finished
			if r.opts.debug {
				log.Info(ctx, "producer terminated after recorder closed", j.KS("event", ev.String()))
			}
			return
		}
		r.observe(ctx, ev)
	}()

	return p
}

func runSource[T any](ctx context.Context, src Source[T], emit Emitter[T]) (err error) {
	defer cleanPanic()(&err)
	return src(ctx, emit)
}

// stop cancels the producer and waits for it to terminate.
func (p *producer) stop(ctx context.Context) error {
	p.cancel()
	_, err := waitFor(ctx, p.done)
	return err
}

func cleanPanic() func(err *error) {
	return func(err *error) {
		if recv := recover(); recv != nil {
			*err = errors.Wrap(ErrProducerPanicked, fmt.Sprint(recv), j.KV("panic_value", recv))
		}
	}
}

func waitFor[T any](ctx context.Context, ch <-chan T) (T, error) {
	select {
	case v := <-ch:
		return v, nil
	case <-ctx.Done():
		var v T
		return v, ctx.Err()
	}
}

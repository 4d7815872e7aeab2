// Package reflexsource records luno reflex event streams.
package reflexsource

import (
	"context"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
	"github.com/luno/reflex"

	"github.com/luno/streamtest"
)

// Stream returns a Source which streams events after the cursor after.
//
// The recorded stream completes when the stream reports that it has reached
// its head, which it only does when configured with reflex.WithStreamToHead.
// Any other stream error fails the recorded stream.
func Stream(stream reflex.StreamFunc, after string, opts ...reflex.StreamOption) streamtest.Source[*reflex.Event] {
	return func(ctx context.Context, emit streamtest.Emitter[*reflex.Event]) error {
		cl, err := stream(ctx, after, opts...)
		if err != nil {
			return errors.Wrap(err, "open stream", j.KS("after", after))
		}
		return recv(ctx, cl, emit)
	}
}

// FromHead streams events from the current head of the stream only.
func FromHead(stream reflex.StreamFunc, opts ...reflex.StreamOption) streamtest.Source[*reflex.Event] {
	opts = append([]reflex.StreamOption{reflex.WithStreamFromHead()}, opts...)
	return Stream(stream, "", opts...)
}

func recv(ctx context.Context, cl reflex.StreamClient, emit streamtest.Emitter[*reflex.Event]) error {
	for {
		e, err := cl.Recv()
		if reflex.IsHeadReachedErr(err) {
			return nil
		} else if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		if err := emit(e); err != nil {
			return err
		}
	}
}

package streamtest

import (
	"context"
	"iter"
)

// Emitter delivers one value to a recorder. It returns an error once the
// recorder no longer accepts values, and the producer should return it.
type Emitter[T any] func(T) error

// Source is a multi-value producer. It emits values until it returns, a nil
// return completes the stream and an error fails it. It must return promptly
// once ctx is cancelled.
type Source[T any] func(ctx context.Context, emit Emitter[T]) error

// FromChan records every value received on ch and completes when ch is closed.
func FromChan[T any](ch <-chan T) Source[T] {
	return func(ctx context.Context, emit Emitter[T]) error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case v, ok := <-ch:
				if !ok {
					return nil
				}
				if err := emit(v); err != nil {
					return err
				}
			}
		}
	}
}

// FromSeq records every value of seq and then completes.
func FromSeq[T any](seq iter.Seq[T]) Source[T] {
	return func(ctx context.Context, emit Emitter[T]) error {
		for v := range seq {
			if err := emit(v); err != nil {
				return err
			}
		}
		return ctx.Err()
	}
}

// FromSeq2 records values of seq until it yields a non-nil error, which fails the stream.
func FromSeq2[T any](seq iter.Seq2[T, error]) Source[T] {
	return func(ctx context.Context, emit Emitter[T]) error {
		for v, err := range seq {
			if err != nil {
				return err
			}
			if err := emit(v); err != nil {
				return err
			}
		}
		return ctx.Err()
	}
}

func FromValues[T any](vs ...T) Source[T] {
	return func(_ context.Context, emit Emitter[T]) error {
		for _, v := range vs {
			if err := emit(v); err != nil {
				return err
			}
		}
		return nil
	}
}

// FromError fails immediately with err without emitting anything.
func FromError[T any](err error) Source[T] {
	return func(context.Context, Emitter[T]) error {
		return err
	}
}

// Never emits nothing and runs until it is cancelled.
func Never[T any]() Source[T] {
	return func(ctx context.Context, _ Emitter[T]) error {
		<-ctx.Done()
		return context.Cause(ctx)
	}
}

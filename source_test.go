package streamtest_test

import (
	"context"
	"iter"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/jtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luno/streamtest"
	"github.com/luno/streamtest/test"
)

func TestSources(t *testing.T) {
	testCases := []struct {
		name      string
		src       streamtest.Source[int]
		expEvents []streamtest.Event[int]
	}{
		{
			name: "values",
			src:  streamtest.FromValues(1, 2),
			expEvents: []streamtest.Event[int]{
				streamtest.Item(1), streamtest.Item(2), streamtest.Complete[int](),
			},
		},
		{
			name: "seq",
			src:  streamtest.FromSeq(slices.Values([]int{3, 4})),
			expEvents: []streamtest.Event[int]{
				streamtest.Item(3), streamtest.Item(4), streamtest.Complete[int](),
			},
		},
		{
			name: "seq2 with error",
			src: streamtest.FromSeq2(func(yield func(int, error) bool) {
				if !yield(5, nil) {
					return
				}
				yield(0, errBoom)
			}),
			expEvents: []streamtest.Event[int]{
				streamtest.Item(5), streamtest.Error[int](errBoom),
			},
		},
		{
			name: "seq2 without error",
			src:  streamtest.FromSeq2(seq2(6)),
			expEvents: []streamtest.Event[int]{
				streamtest.Item(6), streamtest.Complete[int](),
			},
		},
		{
			name:      "error",
			src:       streamtest.FromError[int](errBoom),
			expEvents: []streamtest.Event[int]{streamtest.Error[int](errBoom)},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			r := streamtest.Record(ctx, tc.src)

			var evs []streamtest.Event[int]
			for range tc.expEvents {
				ev, err := r.AwaitEvent(ctx)
				jtest.RequireNil(t, err)
				evs = append(evs, ev)
			}
			assert.Equal(t, tc.expEvents, evs)

			jtest.RequireNil(t, r.Cancel(ctx))
			jtest.RequireNil(t, r.EnsureAllEventsConsumed())
		})
	}
}

func seq2(vs ...int) iter.Seq2[int, error] {
	return func(yield func(int, error) bool) {
		for _, v := range vs {
			if !yield(v, nil) {
				return
			}
		}
	}
}

func TestFromChan_MergedProducers(t *testing.T) {
	ctx := context.Background()
	ch := make(chan int)

	var wg sync.WaitGroup
	for _, vs := range [][]int{{1, 2}, {3, 4}} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, v := range vs {
				ch <- v
			}
		}()
	}
	go func() {
		wg.Wait()
		close(ch)
	}()

	r := streamtest.Record(ctx, streamtest.FromChan(ch))
	require.Eventually(t, func() bool { return r.Len() == 5 }, time.Second, time.Millisecond)

	evs, err := r.CancelAndConsumeRemainingEvents(ctx)
	jtest.RequireNil(t, err)
	test.AssertEvents(t, evs,
		test.AnyOrder(1, 2, 3, 4),
		test.Event[int](streamtest.Complete[int]()),
	)
}

func TestFromChan_Cancelled(t *testing.T) {
	ctx := context.Background()
	ch := make(chan int)
	r := streamtest.Record(ctx, streamtest.FromChan(ch))

	jtest.RequireNil(t, r.ExpectNoEvents())
	jtest.RequireNil(t, r.Cancel(ctx))
	jtest.RequireNil(t, r.EnsureAllEventsConsumed())
}

func TestEmitAfterCancel(t *testing.T) {
	ctx := context.Background()
	emitted := make(chan error, 1)
	started := make(chan struct{})
	release := make(chan struct{})

	r := streamtest.Record(ctx, func(ctx context.Context, emit streamtest.Emitter[int]) error {
		close(started)
		<-release
		err := emit(1)
		emitted <- err
		return err
	})

	<-started
	r.Close(nil)
	close(release)

	err := <-emitted
	require.Error(t, err)
	assert.True(t, errors.IsAny(err, context.Canceled, streamtest.ErrClosedForSend))

	jtest.RequireNil(t, r.AwaitComplete(ctx))
	jtest.RequireNil(t, r.Cancel(ctx))
	jtest.RequireNil(t, r.EnsureAllEventsConsumed())
}

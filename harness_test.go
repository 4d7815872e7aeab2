package streamtest_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luno/streamtest"
	"github.com/luno/streamtest/test"
)

func TestHarness_Observe(t *testing.T) {
	ch := make(chan string)
	h := streamtest.Observe(t, streamtest.FromChan(ch), streamtest.WithName("words"))

	go func() {
		defer close(ch)
		for _, w := range []string{"a", "b", "c"} {
			ch <- w
		}
	}()

	assert.Equal(t, "a", h.AwaitItem())
	h.SkipItems(1)
	assert.Equal(t, "c", h.AwaitItem())
	h.AwaitComplete()
}

func TestHarness_Teardown(t *testing.T) {
	testCases := []struct {
		name      string
		run       func(t *testing.T, tb *test.TB)
		expFailed bool
		expMsgs   []string
	}{
		{
			name: "all consumed",
			run: func(t *testing.T, tb *test.TB) {
				h := streamtest.Observe(tb, streamtest.FromValues(1, 2, 3))
				h.SkipItems(2)
				assert.Equal(t, 3, h.AwaitItem())
				h.AwaitComplete()
			},
		},
		{
			name: "unconsumed item",
			run: func(t *testing.T, tb *test.TB) {
				h := streamtest.New[int](tb, streamtest.WithName("numbers"))
				h.Add(1)
			},
			expFailed: true,
			expMsgs:   []string{"unconsumed events found for numbers", " - Item(1)"},
		},
		{
			name: "complete awaited",
			run: func(t *testing.T, tb *test.TB) {
				h := streamtest.Observe(tb, streamtest.FromValues[int]())
				assert.Equal(t, streamtest.Complete[int](), h.AwaitEvent())
			},
		},
		{
			name: "never completes",
			run: func(t *testing.T, tb *test.TB) {
				h := streamtest.Observe(tb, streamtest.Never[int]())
				h.ExpectNoEvents()
			},
		},
		{
			name: "closed by the test",
			run: func(t *testing.T, tb *test.TB) {
				h := streamtest.New[int](tb)
				h.Add(1)
				h.Close(nil)
				assert.Equal(t, 1, h.AwaitItem())
			},
		},
		{
			name: "ignore remaining",
			run: func(t *testing.T, tb *test.TB) {
				h := streamtest.Observe(tb, streamtest.FromValues(1, 2, 3))
				h.CancelAndIgnoreRemainingEvents()
			},
		},
		{
			name: "consume remaining",
			run: func(t *testing.T, tb *test.TB) {
				h := streamtest.New[int](tb)
				h.Add(1)
				h.Add(2)
				evs := h.CancelAndConsumeRemainingEvents()
				assert.Equal(t, []streamtest.Event[int]{streamtest.Item(1), streamtest.Item(2)}, evs)
			},
		},
		{
			name: "unconsumed error",
			run: func(t *testing.T, tb *test.TB) {
				h := streamtest.Observe(tb, streamtest.FromError[int](errBoom))
				require.Eventually(t, func() bool {
					return h.Recorder().Len() == 1
				}, time.Second, time.Millisecond)
			},
			expFailed: true,
			expMsgs:   []string{" - Error(", "caused by: "},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tb := new(test.TB)
			tc.run(t, tb)
			require.False(t, tb.Failed(), "failed before teardown: %v", tb.Messages())

			tb.RunCleanups()
			assert.Equal(t, tc.expFailed, tb.Failed())

			msgs := strings.Join(tb.Messages(), "\n")
			for _, exp := range tc.expMsgs {
				assert.Contains(t, msgs, exp)
			}
		})
	}
}

func TestHarness_Failures(t *testing.T) {
	testCases := []struct {
		name    string
		run     func(tb *test.TB)
		expMsgs []string
	}{
		{
			name: "item instead of complete",
			run: func(tb *test.TB) {
				h := streamtest.New[int](tb)
				h.Add(1)
				h.AwaitComplete()
			},
			expMsgs: []string{"expected complete but found Item(1)"},
		},
		{
			name: "error instead of item",
			run: func(tb *test.TB) {
				h := streamtest.Observe(tb, streamtest.FromError[int](errBoom))
				h.AwaitItem()
			},
			expMsgs: []string{"expected item but found Error(", "caused by: "},
		},
		{
			name: "add after close",
			run: func(tb *test.TB) {
				h := streamtest.New[int](tb)
				h.Close(nil)
				h.AwaitComplete()
				h.Add(1)
			},
			expMsgs: []string{"add item"},
		},
		{
			name: "no most recent item",
			run: func(tb *test.TB) {
				h := streamtest.New[int](tb)
				h.ExpectMostRecentItem()
			},
			expMsgs: []string{"no item was found"},
		},
		{
			name: "audit during the test",
			run: func(tb *test.TB) {
				h := streamtest.New[int](tb)
				h.Add(1)
				h.EnsureAllEventsConsumed()
			},
			expMsgs: []string{"unconsumed events found", " - Item(1)"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tb := new(test.TB)
			tc.run(tb)
			assert.True(t, tb.Failed())

			msgs := strings.Join(tb.Messages(), "\n")
			for _, exp := range tc.expMsgs {
				assert.Contains(t, msgs, exp)
			}

			tb.RunCleanups()
		})
	}
}

func TestHarness_ExpectNoEventsLeavesEvent(t *testing.T) {
	tb := new(test.TB)
	h := streamtest.New[int](tb)
	h.Add(1)

	h.ExpectNoEvents()
	require.True(t, tb.Failed())
	require.Len(t, tb.Messages(), 1)
	assert.Contains(t, tb.Messages()[0], "expected no events but found Item(1)")

	// The event is still reported at teardown
	tb.RunCleanups()
	require.Len(t, tb.Messages(), 2)
	assert.Contains(t, tb.Messages()[1], " - Item(1)")
}

func TestHarness_ExpectMostRecentItem(t *testing.T) {
	tb := new(test.TB)
	h := streamtest.New[string](tb)
	h.Add("a")
	h.Add("b")

	assert.Equal(t, "b", h.ExpectMostRecentItem())
	h.ExpectNoEvents()

	ev, ok := h.TryTake()
	assert.False(t, ok)
	assert.Equal(t, streamtest.Event[string]{}, ev)

	tb.RunCleanups()
	assert.False(t, tb.Failed(), "%v", tb.Messages())
}

func TestHarness_AwaitError(t *testing.T) {
	tb := new(test.TB)
	h := streamtest.Observe(tb, streamtest.FromError[int](errBoom))

	assert.ErrorIs(t, h.AwaitError(), errBoom)

	tb.RunCleanups()
	assert.False(t, tb.Failed(), "%v", tb.Messages())
}

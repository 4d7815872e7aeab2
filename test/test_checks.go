package test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luno/streamtest"
)

// Only for testing purposes - do not import into main code builds

// AnyOrder expects the items vs, in any order. Use it for events merged from
// independent producers.
func AnyOrder[T comparable](vs ...T) EventConstraint[T] {
	left := make(map[T]int)
	for _, v := range vs {
		left[v]++
	}
	return ConstraintFunc[T](func(t *testing.T, e streamtest.Event[T]) bool {
		require.Equal(t, streamtest.EventItem, e.Type, "unexpected event %v", e)
		l, ok := left[e.Value]
		require.True(t, ok, "unexpected event %v", e)
		assert.Greater(t, l, 0, "already got %v", e)
		left[e.Value]--
		for _, v := range left {
			if v > 0 {
				return true
			}
		}
		return false
	})
}

// AssertEvents checks events against the constraints in order.
func AssertEvents[T any](t *testing.T, events []streamtest.Event[T], constraints ...EventConstraint[T]) {
	t.Helper()
	var cIdx int
	for _, ev := range events {
		t.Log("checking event", ev)
		require.Less(t, cIdx, len(constraints), "additional unexpected event")
		more := constraints[cIdx].CheckMore(t, ev)
		if !more {
			cIdx++
		}
	}
	assert.Equal(t, len(constraints), cIdx, "expected more events")
}

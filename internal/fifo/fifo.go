// Package fifo implements an unbounded first-in first-out buffer which can be
// closed for sending while the values already in it remain available.
package fifo

import (
	"context"
	"sync"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
)

// ErrClosed is returned by Push on a closed buffer and by Pop on a closed, empty buffer.
var ErrClosed = errors.New("buffer closed", j.C("ERR_5a0e1c7b93d2f846"))

// Buffer is safe for concurrent use.
type Buffer[T any] struct {
	mu     sync.Mutex
	items  []T
	closed bool
	// ready is closed and replaced every time the buffer changes state
	ready chan struct{}
}

func New[T any]() *Buffer[T] {
	return &Buffer[T]{ready: make(chan struct{})}
}

// Push appends v to the back of the buffer, it never blocks.
func (b *Buffer[T]) Push(v T) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	b.items = append(b.items, v)
	b.notify()
	return nil
}

// PushAndClose appends v and closes the buffer in one step so that
// nothing can be pushed between the two.
func (b *Buffer[T]) PushAndClose(v T) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	b.items = append(b.items, v)
	b.closed = true
	b.notify()
	return nil
}

// Close stops the buffer accepting values.
// It reports whether this call was the one to close it.
func (b *Buffer[T]) Close() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false
	}
	b.closed = true
	b.notify()
	return true
}

func (b *Buffer[T]) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *Buffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Peek returns the value at the front of the buffer without removing it.
func (b *Buffer[T]) Peek() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.items) == 0 {
		var zero T
		return zero, false
	}
	return b.items[0], true
}

// TryPop removes and returns the value at the front of the buffer if there is one.
func (b *Buffer[T]) TryPop() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.popLocked()
}

// Pop blocks until a value is available and removes it.
// A value which is already buffered is always returned in preference to
// reporting ctx as done.
func (b *Buffer[T]) Pop(ctx context.Context) (T, error) {
	for {
		b.mu.Lock()
		if v, ok := b.popLocked(); ok {
			b.mu.Unlock()
			return v, nil
		}
		if b.closed {
			b.mu.Unlock()
			var zero T
			return zero, ErrClosed
		}
		ready := b.ready
		b.mu.Unlock()

		select {
		case <-ready:
		case <-ctx.Done():
			if v, ok := b.TryPop(); ok {
				return v, nil
			}
			var zero T
			return zero, ctx.Err()
		}
	}
}

func (b *Buffer[T]) popLocked() (T, bool) {
	var zero T
	if len(b.items) == 0 {
		return zero, false
	}
	v := b.items[0]
	b.items[0] = zero
	b.items = b.items[1:]
	return v, true
}

func (b *Buffer[T]) notify() {
	close(b.ready)
	b.ready = make(chan struct{})
}

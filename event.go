package streamtest

import "fmt"

type EventType int

const (
	EventUnknown  EventType = iota
	EventItem               // A value emitted by the producer
	EventComplete           // The producer finished normally
	EventError              // The producer finished with an error
)

func (t EventType) String() string {
	switch t {
	case EventItem:
		return "Item"
	case EventComplete:
		return "Complete"
	case EventError:
		return "Error"
	default:
		return fmt.Sprintf("EventType(%d)", int(t))
	}
}

// Event is one signal recorded from a stream.
// Value is only set for EventItem and Err only for EventError.
type Event[T any] struct {
	Type  EventType
	Value T
	Err   error
}

func Item[T any](v T) Event[T] {
	return Event[T]{Type: EventItem, Value: v}
}

func Complete[T any]() Event[T] {
	return Event[T]{Type: EventComplete}
}

func Error[T any](err error) Event[T] {
	return Event[T]{Type: EventError, Err: err}
}

// IsTerminal reports whether the event ends the stream.
func (e Event[T]) IsTerminal() bool {
	return e.Type == EventComplete || e.Type == EventError
}

func (e Event[T]) String() string {
	switch e.Type {
	case EventItem:
		return fmt.Sprintf("Item(%v)", e.Value)
	case EventError:
		if e.Err == nil {
			return "Error(<nil>)"
		}
		return "Error(" + e.Err.Error() + ")"
	default:
		return e.Type.String()
	}
}

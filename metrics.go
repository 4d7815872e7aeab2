package streamtest

import "github.com/prometheus/client_golang/prometheus"

const typeLabel = "event_type"

var recordedEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "streamtest_recorded_events_total",
	Help: "Number of events pushed into recorders",
}, []string{typeLabel})

var awaitTimeouts = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "streamtest_await_timeouts_total",
	Help: "Number of awaits which timed out before an event was available",
})

var unconsumedEvents = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "streamtest_unconsumed_events_total",
	Help: "Number of events found unconsumed when auditing a recorder",
})

func init() {
	prometheus.MustRegister(
		recordedEvents,
		awaitTimeouts,
		unconsumedEvents,
	)
}

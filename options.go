package streamtest

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/go-stack/stack"
	"github.com/luno/jettison/trace"
	"k8s.io/utils/clock"
)

type options struct {
	// name is included in failure messages to tell recorders apart
	name string
	// origin is the function which created the recorder
	origin string
	// timeout bounds every await, zero means unbounded
	timeout time.Duration
	clock   clock.Clock
	debug   bool
}

type Option func(*options)

func defaultOptions() options {
	cfg := loadConfig()
	o := options{
		timeout: cfg.DefaultTimeout,
		debug:   cfg.Debug,
	}
	o.origin = callerOrigin(trace.PackagePath(options{}))
	return o
}

// callerOrigin names the first function on the stack outside of the hidden
// packages. Closures are named after the function declaring them.
// Packages are matched exactly so that a package's external tests are not hidden.
func callerOrigin(hidden ...string) string {
	cs := stack.Trace().TrimRuntime()
	for _, call := range cs[1:] {
		if slices.Contains(hidden, fmt.Sprintf("%+k", call)) {
			continue
		}
		name := fmt.Sprintf("%n", call)
		if i := strings.Index(name, ".func"); i > 0 {
			name = name[:i]
		}
		return name
	}
	return ""
}

// resolveOptions applies opts to the defaults
func resolveOptions(opts []Option) options {
	res := defaultOptions()
	for _, opt := range opts {
		opt(&res)
	}
	if res.clock == nil {
		res.clock = clock.RealClock{}
	}
	if res.timeout < 0 {
		res.timeout = 0
	}
	return res
}

// WithName sets the name used to identify the recorder in failure messages.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithTimeout bounds every await on the recorder, overriding Config.DefaultTimeout.
// A zero duration leaves awaits bounded only by the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithClock overwrites the clock used for timeouts.
// Mainly used during testing.
func WithClock(cl clock.Clock) Option {
	return func(o *options) {
		o.clock = cl
	}
}

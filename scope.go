package streamtest

import (
	"context"
	"strings"
	"sync"

	"github.com/luno/jettison/errors"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type auditable interface {
	Cancel(ctx context.Context) error
	EnsureAllEventsConsumed() error
}

// Scope tears down several recorders of one test together. Their producers
// are cancelled concurrently before any of them is audited, so that streams
// which depend on each other all stop before the audit.
type Scope struct {
	t    TB
	mu   sync.Mutex
	recs []auditable
}

// NewScope returns a Scope which is closed when the test is cleaned up.
func NewScope(t TB) *Scope {
	t.Helper()
	s := &Scope{t: t}
	t.Cleanup(s.teardown)
	return s
}

// NewIn returns a manually fed Harness torn down with s.
func NewIn[T any](s *Scope, opts ...Option) *Harness[T] {
	h := &Harness[T]{t: s.t, rec: NewRecorder[T](opts...)}
	s.add(h.rec)
	return h
}

// ObserveIn starts recording src in a Harness torn down with s.
func ObserveIn[T any](s *Scope, src Source[T], opts ...Option) *Harness[T] {
	h := &Harness[T]{t: s.t, rec: Record(context.Background(), src, opts...)}
	s.add(h.rec)
	return h
}

func (s *Scope) add(r auditable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, r)
}

// Close cancels every recorder in the scope, waits for their producers, and
// then audits each of them. All failures are returned together.
func (s *Scope) Close(ctx context.Context) error {
	return errors.Join(s.close(ctx)...)
}

func (s *Scope) close(ctx context.Context) []error {
	s.mu.Lock()
	recs := s.recs
	s.recs = nil
	s.mu.Unlock()

	var (
		eg     errgroup.Group
		errsMu sync.Mutex
		errs   []error
	)
	for _, r := range recs {
		eg.Go(func() error {
			if err := r.Cancel(ctx); err != nil {
				// NoReturnErr: Collect so every recorder is stopped and audited
				errsMu.Lock()
				errs = append(errs, err)
				errsMu.Unlock()
			}
			return nil
		})
	}
	_ = eg.Wait()

	for _, r := range recs {
		if err := r.EnsureAllEventsConsumed(); err != nil {
			// NoReturnErr: Collect for later
			errs = append(errs, err)
		}
	}
	return errs
}

func (s *Scope) teardown() {
	s.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), loadConfig().CancelTimeout)
	defer cancel()

	errs := s.close(ctx)
	if len(errs) == 0 {
		return
	}
	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, describe(err))
	}
	require.FailNow(s.t, strings.Join(msgs, "\n"))
}

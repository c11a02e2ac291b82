// Package cancel implements the cooperative cancellation signal shared by an
// execution and everyone allowed to stop it. The signal is monotonic: once
// cancelled it never reverts, repeat cancellations are no-ops, and the first
// reason wins. Handlers observe it at checkpoints; nothing is preempted.
package cancel

import (
	"sync"

	"github.com/ajitpratap0/quasar/pkg/qerrors"
)

// Signal is a monotonic cancellation flag with a reason.
// The zero value is not usable; create signals with NewSignal.
type Signal struct {
	mu        sync.RWMutex
	cancelled bool
	reason    string
	done      chan struct{}
}

// NewSignal returns a signal in the not-cancelled state.
func NewSignal() *Signal {
	return &Signal{done: make(chan struct{})}
}

// Cancel marks the signal cancelled with the given reason. Idempotent; the
// first reason is retained and later calls are ignored.
func (s *Signal) Cancel(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelled {
		return
	}
	s.cancelled = true
	s.reason = reason
	close(s.done)
}

// Cancelled reports whether the signal has been cancelled.
func (s *Signal) Cancelled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cancelled
}

// Reason returns the reason recorded by the first Cancel call, or "" when
// the signal is still live.
func (s *Signal) Reason() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reason
}

// Check returns a cancelled-kind error when the signal has fired, nil
// otherwise. Stage boundaries and long-running handlers call this.
func (s *Signal) Check() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.cancelled {
		return nil
	}
	return qerrors.New(qerrors.KindCancelled, "execution cancelled").
		WithDetail("reason", s.reason)
}

// Done returns a channel closed on cancellation, for select loops.
func (s *Signal) Done() <-chan struct{} {
	return s.done
}

package cancel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/quasar/pkg/qerrors"
)

func TestSignalInitialState(t *testing.T) {
	s := NewSignal()

	assert.False(t, s.Cancelled())
	assert.Empty(t, s.Reason())
	assert.NoError(t, s.Check())

	select {
	case <-s.Done():
		t.Fatal("done channel closed before cancel")
	default:
	}
}

func TestCancel(t *testing.T) {
	s := NewSignal()
	s.Cancel("user requested")

	assert.True(t, s.Cancelled())
	assert.Equal(t, "user requested", s.Reason())

	err := s.Check()
	require.Error(t, err)
	assert.True(t, qerrors.IsKind(err, qerrors.KindCancelled))

	var qe *qerrors.Error
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, "user requested", qe.Details["reason"])
}

func TestCancelFirstReasonWins(t *testing.T) {
	s := NewSignal()
	s.Cancel("first")
	s.Cancel("second")
	s.Cancel("third")

	assert.Equal(t, "first", s.Reason())
}

func TestCancelIdempotent(t *testing.T) {
	s := NewSignal()
	s.Cancel("once")

	// A second cancel must not re-close the done channel.
	assert.NotPanics(t, func() { s.Cancel("twice") })
}

func TestDoneUnblocksWaiters(t *testing.T) {
	s := NewSignal()

	unblocked := make(chan struct{})
	go func() {
		<-s.Done()
		close(unblocked)
	}()

	s.Cancel("shutting down")

	select {
	case <-unblocked:
	case <-time.After(time.Second):
		t.Fatal("waiter not unblocked by cancel")
	}
}

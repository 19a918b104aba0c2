package circuitbreaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fixedClock(t *time.Time) func() time.Time {
	return func() time.Time { return *t }
}

func TestClosedAllowsUntilFailureThreshold(t *testing.T) {
	now := time.Unix(0, 0).UTC()
	cb := New(Config{FailureThreshold: 3, Clock: fixedClock(&now)})

	for i := 0; i < 2; i++ {
		require.Truef(t, cb.ShouldAllow(), "expected allow before threshold reached (iteration %d)", i)
		cb.RecordFailure()
	}
	require.Equal(t, Closed, cb.State(), "want Closed after 2 of 3 failures")

	cb.RecordFailure()
	require.Equal(t, Open, cb.State(), "want Open after 3rd consecutive failure")
	require.False(t, cb.ShouldAllow(), "expected Open to block calls before recovery_timeout")
}

func TestSuccessResetsFailureStreakInClosed(t *testing.T) {
	now := time.Unix(0, 0).UTC()
	cb := New(Config{FailureThreshold: 3, Clock: fixedClock(&now)})

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()
	cb.RecordFailure()

	require.Equal(t, Closed, cb.State(), "success should have reset the streak")
}

func TestOpenTransitionsToHalfOpenAfterRecoveryTimeout(t *testing.T) {
	now := time.Unix(0, 0).UTC()
	cb := New(Config{FailureThreshold: 1, RecoveryTimeout: 10 * time.Second, HalfOpenMaxRequests: 1, Clock: fixedClock(&now)})

	cb.RecordFailure()
	require.Equal(t, Open, cb.State())

	now = now.Add(5 * time.Second)
	require.False(t, cb.ShouldAllow(), "expected still blocked before recovery_timeout elapses")

	now = now.Add(6 * time.Second)
	require.True(t, cb.ShouldAllow(), "expected first probe allowed once recovery_timeout has elapsed")
	require.Equal(t, HalfOpen, cb.State())
}

func TestHalfOpenLimitsConcurrentProbes(t *testing.T) {
	now := time.Unix(0, 0).UTC()
	cb := New(Config{FailureThreshold: 1, RecoveryTimeout: time.Second, HalfOpenMaxRequests: 2, Clock: fixedClock(&now)})
	cb.RecordFailure()
	now = now.Add(2 * time.Second)

	require.True(t, cb.ShouldAllow(), "probe 1 should be allowed")
	require.True(t, cb.ShouldAllow(), "probe 2 should be allowed")
	require.False(t, cb.ShouldAllow(), "probe 3 should be rejected, half_open_max_requests=2 already in flight")
}

func TestHalfOpenClosesAfterSuccessThreshold(t *testing.T) {
	now := time.Unix(0, 0).UTC()
	cb := New(Config{FailureThreshold: 1, RecoveryTimeout: time.Second, SuccessThreshold: 2, HalfOpenMaxRequests: 2, Clock: fixedClock(&now)})
	cb.RecordFailure()
	now = now.Add(2 * time.Second)
	cb.ShouldAllow()

	cb.RecordSuccess()
	require.Equal(t, HalfOpen, cb.State(), "only 1 of 2 successes recorded")
	cb.RecordSuccess()
	require.Equal(t, Closed, cb.State(), "want Closed after success_threshold reached")
}

func TestHalfOpenFailureReopensImmediately(t *testing.T) {
	now := time.Unix(0, 0).UTC()
	cb := New(Config{FailureThreshold: 1, RecoveryTimeout: time.Second, Clock: fixedClock(&now)})
	cb.RecordFailure()
	now = now.Add(2 * time.Second)
	cb.ShouldAllow()

	cb.RecordFailure()
	require.Equal(t, Open, cb.State(), "a HalfOpen probe failure reopens immediately")
}

func TestResetForcesClosed(t *testing.T) {
	now := time.Unix(0, 0).UTC()
	cb := New(Config{FailureThreshold: 1, Clock: fixedClock(&now)})
	cb.RecordFailure()
	require.Equal(t, Open, cb.State(), "setup: expected Open")

	cb.Reset()
	require.Equal(t, Closed, cb.State(), "want Closed after Reset")
	require.True(t, cb.ShouldAllow(), "expected ShouldAllow true after Reset")
}

func TestOnStateChangeCalledOnTransition(t *testing.T) {
	now := time.Unix(0, 0).UTC()
	var transitions []State
	cb := New(Config{
		FailureThreshold: 1,
		Clock:            fixedClock(&now),
		OnStateChange:    func(from, to State) { transitions = append(transitions, to) },
	})

	cb.RecordFailure()

	require.Equal(t, []State{Open}, transitions)
}

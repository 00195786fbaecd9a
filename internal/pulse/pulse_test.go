package pulse

import (
	"sync"
	"testing"
	"time"

	"github.com/yegors/sso-sentinel/internal/policy"
	"github.com/yegors/sso-sentinel/pkg/logger"
)

type recordingSink struct {
	mu     sync.Mutex
	states []policy.IconState
}

func (r *recordingSink) SetIcon(state policy.IconState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
}

func (r *recordingSink) snapshot() []policy.IconState {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]policy.IconState, len(r.states))
	copy(out, r.states)
	return out
}

func newTestScheduler(sink IconSink) *Scheduler {
	s := NewScheduler(sink, logger.NewNop())
	s.cadence = 10 * time.Millisecond
	return s
}

func waitForStates(t *testing.T, sink *recordingSink, n int) []policy.IconState {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if states := sink.snapshot(); len(states) >= n {
			return states
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d icon states, got %v", n, sink.snapshot())
	return nil
}

func TestPulseAlternatesVisibleFirst(t *testing.T) {
	sink := &recordingSink{}
	s := newTestScheduler(sink)

	s.Start()
	defer s.Stop()

	states := waitForStates(t, sink, 5)

	// First emission is the visible phase, then strict alternation
	if states[0] != policy.IconInactive {
		t.Fatalf("first state = %v, want %v", states[0], policy.IconInactive)
	}
	for i := 1; i < 5; i++ {
		want := policy.IconHidden
		if i%2 == 0 {
			want = policy.IconInactive
		}
		if states[i] != want {
			t.Errorf("state[%d] = %v, want %v (sequence %v)", i, states[i], want, states[:5])
		}
	}
}

func TestStopHaltsTicks(t *testing.T) {
	sink := &recordingSink{}
	s := newTestScheduler(sink)

	s.Start()
	waitForStates(t, sink, 3)
	s.Stop()

	count := len(sink.snapshot())
	time.Sleep(50 * time.Millisecond)
	if after := len(sink.snapshot()); after != count {
		t.Errorf("ticks continued after Stop: %d -> %d", count, after)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	s := newTestScheduler(&recordingSink{})

	// Stopping a never-started scheduler is a no-op
	s.Stop()
	s.Stop()

	s.Start()
	s.Stop()
	s.Stop()
	s.Stop()

	if s.Running() {
		t.Error("scheduler still running after Stop")
	}
}

func TestRestartBeginsVisible(t *testing.T) {
	sink := &recordingSink{}
	s := newTestScheduler(sink)

	s.Start()
	// Let it reach a hidden phase before restarting
	waitForStates(t, sink, 2)
	s.Stop()

	n := len(sink.snapshot())
	s.Start()
	defer s.Stop()

	states := waitForStates(t, sink, n+1)
	// The restart emission must be the visible phase regardless of
	// where the first run stopped
	if states[n] != policy.IconInactive {
		t.Errorf("restart emitted %v, want %v", states[n], policy.IconInactive)
	}
}

func TestRunningReflectsState(t *testing.T) {
	s := newTestScheduler(&recordingSink{})

	if s.Running() {
		t.Error("new scheduler reports running")
	}
	s.Start()
	if !s.Running() {
		t.Error("started scheduler reports stopped")
	}
	s.Stop()
	if s.Running() {
		t.Error("stopped scheduler reports running")
	}
}

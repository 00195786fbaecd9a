package pulse

import (
	"context"
	"sync"
	"time"

	"github.com/yegors/sso-sentinel/internal/policy"
	"github.com/yegors/sso-sentinel/pkg/logger"
)

// DefaultCadence is the blink half-period of the pulsing icon
const DefaultCadence = 800 * time.Millisecond

// IconSink receives icon state changes from the oscillator
type IconSink interface {
	SetIcon(state policy.IconState)
}

// Scheduler is the pulsing-icon oscillator. While running it toggles
// the icon between inactive (visible) and hidden at a fixed cadence.
// At most one tick loop is live at a time: Start cancels any previous
// run before starting, so a restart always begins in the visible
// phase, and Stop is an idempotent no-op on a stopped scheduler.
type Scheduler struct {
	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	cadence time.Duration
	sink    IconSink
	logger  *logger.Logger
}

// NewScheduler creates a stopped pulse scheduler
func NewScheduler(sink IconSink, log *logger.Logger) *Scheduler {
	return &Scheduler{
		cadence: DefaultCadence,
		sink:    sink,
		logger:  log.Named("pulse"),
	}
}

// Start begins (or restarts) the blink loop in the visible phase
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	// Visible-first: emit before the first tick so the icon never
	// starts a pulse cycle in the hidden phase.
	s.sink.SetIcon(policy.IconInactive)

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Debug("Pulse started",
		logger.Duration("cadence", s.cadence))
}

// Stop cancels the blink loop and releases its ticker. Safe to call
// any number of times.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// Running reports whether the blink loop is live
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// stopLocked cancels the current run and waits for its goroutine to
// drain, so no tick can fire after Stop or during a restart.
func (s *Scheduler) stopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.cancel = nil
	s.wg.Wait()
	s.logger.Debug("Pulse stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cadence)
	defer ticker.Stop()

	visible := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			visible = !visible
			if visible {
				s.sink.SetIcon(policy.IconInactive)
			} else {
				s.sink.SetIcon(policy.IconHidden)
			}
		}
	}
}

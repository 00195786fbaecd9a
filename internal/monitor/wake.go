package monitor

import (
	"context"
	"time"

	"github.com/yegors/sso-sentinel/pkg/logger"
)

const (
	// wakeTickInterval is how often the wake watcher samples the clock
	wakeTickInterval = 15 * time.Second
	// wakeGapThreshold is the wall-clock gap beyond which the process
	// is assumed to have been asleep
	wakeGapThreshold = 2 * wakeTickInterval
	// wakeGraceDelay gives networking time to reestablish after wake
	// before the check fires
	wakeGraceDelay = 3 * time.Second
)

// wakeLoop detects wake-from-sleep by watching for wall-clock jumps
// between coarse ticks. Ticker delivery stalls while the host sleeps,
// so a tick arriving far later than scheduled marks a wake. When
// check-on-wake is enabled a refresh is scheduled after a short grace
// period.
func (s *Service) wakeLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.wakeTick)
	defer ticker.Stop()

	last := s.now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			now := s.now()
			gap := now.Sub(last)
			last = now

			if gap < s.wakeGap {
				continue
			}

			s.logger.Info("Wake from sleep detected",
				logger.Duration("clock_gap", gap))

			if !s.prefs.CheckOnWake() {
				s.logger.Debug("Check-on-wake disabled, skipping")
				continue
			}

			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				select {
				case <-ctx.Done():
				case <-s.stopCh:
				case <-time.After(s.wakeGrace):
					s.Refresh("wake")
				}
			}()
		}
	}
}

package session

import (
	"sync"
	"time"

	"github.com/yegors/sso-sentinel/internal/authority"
	"github.com/yegors/sso-sentinel/pkg/logger"
)

// Store holds the authoritative session status. Single writer (the
// monitor's control loop), many readers (API, websocket, policy).
// Status and identity are replaced wholesale on every Apply; nothing
// is merged field-by-field.
type Store struct {
	mu             sync.RWMutex
	status         Status
	identity       *authority.Identity
	lastChecked    time.Time
	lastTransition time.Time
	logger         *logger.Logger
}

// NewStore creates a session store in the unknown state
func NewStore(log *logger.Logger) *Store {
	return &Store{
		status: StatusUnknown,
		logger: log.Named("session"),
	}
}

// Apply folds one check outcome into the store and returns the
// resulting transition for the policy engine. The snapshot of the
// prior authenticated-ness and the status swap happen under one lock,
// so concurrent Snapshot readers never observe a half-applied update.
func (s *Store) Apply(outcome authority.Outcome) Transition {
	// An authenticated outcome must carry its identity; one without is
	// malformed and folds to a parse-style failure
	if outcome.Authenticated && outcome.Identity == nil {
		outcome = authority.FailureOutcome(authority.FailureParse, "authenticated outcome without identity")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.status == StatusAuthenticated

	now := time.Now().UTC()
	s.lastChecked = now

	if outcome.Authenticated {
		s.status = StatusAuthenticated
		id := *outcome.Identity
		s.identity = &id
	} else {
		s.status = StatusUnauthenticated
		s.identity = nil
	}

	current := s.status == StatusAuthenticated
	if previous != current {
		s.lastTransition = now
		s.logger.Info("Session status changed",
			logger.Bool("was_authenticated", previous),
			logger.Bool("now_authenticated", current),
			logger.String("failure_kind", string(outcome.Failure)))
	}

	return Transition{Previous: previous, Current: current}
}

// Snapshot returns a copy of the current state
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Status:         s.status,
		LastChecked:    s.lastChecked,
		LastTransition: s.lastTransition,
	}
	if s.identity != nil {
		id := *s.identity
		snap.Identity = &id
	}
	return snap
}

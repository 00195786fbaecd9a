package session

import (
	"time"

	"github.com/yegors/sso-sentinel/internal/authority"
)

// Status is the policy-level authentication state
type Status string

const (
	// StatusUnknown is the transient state before the first check completes
	StatusUnknown Status = "unknown"
	// StatusAuthenticated means the last check returned a valid identity
	StatusAuthenticated Status = "authenticated"
	// StatusUnauthenticated means the last check failed for any reason
	StatusUnauthenticated Status = "unauthenticated"
)

// Transition captures the authenticated-ness change between two
// consecutive status updates. It is computed per check and discarded.
type Transition struct {
	Previous bool // authenticated before the update
	Current  bool // authenticated after the update
}

// Expired reports whether this is the one reaction-worthy transition:
// authenticated to unauthenticated.
func (t Transition) Expired() bool {
	return t.Previous && !t.Current
}

// Snapshot is a point-in-time copy of the session state, safe to hand
// to the API and presentation layers.
type Snapshot struct {
	Status         Status              `json:"status"`
	Identity       *authority.Identity `json:"identity,omitempty"`
	LastChecked    time.Time           `json:"last_checked,omitempty"`
	LastTransition time.Time           `json:"last_transition,omitempty"`
}

// Authenticated reports whether the snapshot carries a valid session
func (s Snapshot) Authenticated() bool {
	return s.Status == StatusAuthenticated
}

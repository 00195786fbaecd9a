package policy

import (
	"github.com/yegors/sso-sentinel/internal/prefs"
	"github.com/yegors/sso-sentinel/internal/session"
)

// IconState is what the presentation layer renders for the tray icon
type IconState string

const (
	IconActive   IconState = "active"
	IconInactive IconState = "inactive"
	IconExpired  IconState = "expired"
	IconHidden   IconState = "hidden"
)

// Visual is the policy-selected presentation mode. VisualPulse means
// the pulse scheduler owns the icon until the next re-evaluation.
type Visual string

const (
	VisualActive   Visual = "active"
	VisualPulse    Visual = "pulse"
	VisualExpired  Visual = "expired"
	VisualInactive Visual = "inactive"
)

// ReactionSet is the set of expiry reactions to fire for one transition
type ReactionSet struct {
	NotifyExpired bool
	AutoRelogin   bool
}

// Empty reports whether no reaction fires
func (r ReactionSet) Empty() bool {
	return !r.NotifyExpired && !r.AutoRelogin
}

// Decide maps a transition to the expiry reactions it triggers.
// Only the authenticated-to-unauthenticated transition is
// reaction-worthy; every other pair (including unknown-to-anything
// and repeated failures) produces an empty set.
func Decide(tr session.Transition, actions map[prefs.ActionKind]bool) ReactionSet {
	if !tr.Expired() {
		return ReactionSet{}
	}
	return ReactionSet{
		NotifyExpired: actions[prefs.ActionNotification],
		AutoRelogin:   actions[prefs.ActionAutoLogin],
	}
}

// VisualFor selects the presentation mode for the current status.
// Evaluated on every status refresh, not only on expiry transitions.
// First-match order: authenticated wins, then pulse, then red icon,
// then plain inactive.
func VisualFor(authenticated bool, actions map[prefs.ActionKind]bool) Visual {
	switch {
	case authenticated:
		return VisualActive
	case actions[prefs.ActionPulseIcon]:
		return VisualPulse
	case actions[prefs.ActionRedIcon]:
		return VisualExpired
	default:
		return VisualInactive
	}
}

package dispatch

import (
	"github.com/yegors/sso-sentinel/internal/policy"
	"github.com/yegors/sso-sentinel/internal/pulse"
	"github.com/yegors/sso-sentinel/pkg/logger"
)

// Notifier delivers user-facing notifications, fire-and-forget
type Notifier interface {
	Notify(title, message string)
}

// Dispatcher executes the reaction set produced by the policy engine.
// The visual update always lands before the expiry reactions, so a
// notification or auto-login never observably precedes the icon
// reflecting the new state.
type Dispatcher struct {
	icons    pulse.IconSink
	notifier Notifier
	pulse    *pulse.Scheduler
	relogin  func()
	logger   *logger.Logger
}

// NewDispatcher creates a new reaction dispatcher
func NewDispatcher(icons pulse.IconSink, notifier Notifier, pulseScheduler *pulse.Scheduler, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		icons:    icons,
		notifier: notifier,
		pulse:    pulseScheduler,
		logger:   log.Named("dispatch"),
	}
}

// SetReloginFunc wires the auto-relogin reaction back into the login
// flow. Set once at startup, before the first poll completes.
func (d *Dispatcher) SetReloginFunc(fn func()) {
	d.relogin = fn
}

// HandleRefresh applies the visual selection and then fires the expiry
// reactions for one completed poll
func (d *Dispatcher) HandleRefresh(visual policy.Visual, reactions policy.ReactionSet) {
	d.ApplyVisual(visual)
	d.DispatchExpiry(reactions)
}

// ApplyVisual drives the icon (or the pulse oscillator) to match the
// policy-selected presentation mode. Reselecting pulse restarts the
// oscillator so it always begins in the visible phase.
func (d *Dispatcher) ApplyVisual(visual policy.Visual) {
	if visual == policy.VisualPulse {
		d.pulse.Start()
		return
	}

	d.pulse.Stop()
	switch visual {
	case policy.VisualActive:
		d.icons.SetIcon(policy.IconActive)
	case policy.VisualExpired:
		d.icons.SetIcon(policy.IconExpired)
	default:
		d.icons.SetIcon(policy.IconInactive)
	}
}

// DispatchExpiry fires the enabled expiry reactions exactly once
func (d *Dispatcher) DispatchExpiry(reactions policy.ReactionSet) {
	if reactions.Empty() {
		return
	}

	if reactions.NotifyExpired {
		d.logger.Info("Dispatching expiry notification")
		d.notifier.Notify("SSO session expired", "Your session is no longer valid.")
	}

	if reactions.AutoRelogin {
		if d.relogin == nil {
			d.logger.Warn("Auto-relogin enabled but no login flow wired")
			return
		}
		d.logger.Info("Dispatching automatic re-login")
		d.relogin()
	}
}

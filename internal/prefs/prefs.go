package prefs

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/yegors/sso-sentinel/pkg/logger"
)

// ErrUnknownAction reports a mutation against an action kind that does
// not exist, as opposed to a persistence failure
var ErrUnknownAction = errors.New("unknown expiry action")

// ActionKind identifies one configurable expiry reaction
type ActionKind string

const (
	ActionAutoLogin    ActionKind = "auto_login"
	ActionNotification ActionKind = "notification"
	ActionRedIcon      ActionKind = "red_icon"
	ActionPulseIcon    ActionKind = "pulse_icon"
)

// ActionKinds lists all expiry action kinds in display order
var ActionKinds = []ActionKind{ActionAutoLogin, ActionNotification, ActionRedIcon, ActionPulseIcon}

// Interval is the poll interval enum. Only the three listed values are
// valid; anything else read from the store decodes to the smallest.
type Interval int

const (
	Interval5Min  Interval = 300
	Interval15Min Interval = 900
	Interval30Min Interval = 1800
)

// Intervals lists the valid poll intervals in ascending order
var Intervals = []Interval{Interval5Min, Interval15Min, Interval30Min}

// Duration returns the interval as a time.Duration
func (i Interval) Duration() time.Duration {
	return time.Duration(i) * time.Second
}

// DecodeInterval maps raw stored seconds to an Interval member,
// falling back to the 5-minute member for unrecognized values.
func DecodeInterval(seconds int) Interval {
	for _, iv := range Intervals {
		if int(iv) == seconds {
			return iv
		}
	}
	return Interval5Min
}

// Setting keys in the persistence store, one per config item
const (
	keyIntervalSecs = "poll_interval_seconds"
	keyCheckOnWake  = "check_on_wake"
	keyActionPrefix = "expiry_action_"
)

// KV is the persistence interface the preferences layer consumes
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

// Preferences holds the mutable user configuration. All values are
// loaded once at construction with defaults filled for absent keys;
// mutation goes through the setters, which re-persist and invoke the
// change hook so downstream state (poll ticker, pulse, icon) can be
// re-derived in one place.
type Preferences struct {
	mu          sync.RWMutex
	store       KV
	actions     map[ActionKind]bool
	interval    Interval
	checkOnWake bool
	onChange    func()
	logger      *logger.Logger
}

// Load reads all settings from the store, applying defaults for keys
// that were never set: red_icon is the only action enabled by default,
// the interval defaults to 5 minutes, check-on-wake defaults to true.
func Load(store KV, log *logger.Logger) (*Preferences, error) {
	p := &Preferences{
		store:       store,
		actions:     make(map[ActionKind]bool, len(ActionKinds)),
		interval:    Interval5Min,
		checkOnWake: true,
		logger:      log.Named("prefs"),
	}

	for _, kind := range ActionKinds {
		enabled := kind == ActionRedIcon
		raw, found, err := store.Get(keyActionPrefix + string(kind))
		if err != nil {
			return nil, err
		}
		if found {
			enabled = raw == "true"
		}
		p.actions[kind] = enabled
	}

	if raw, found, err := store.Get(keyIntervalSecs); err != nil {
		return nil, err
	} else if found {
		secs, convErr := strconv.Atoi(raw)
		if convErr != nil {
			secs = 0
		}
		p.interval = DecodeInterval(secs)
	}

	if raw, found, err := store.Get(keyCheckOnWake); err != nil {
		return nil, err
	} else if found {
		p.checkOnWake = raw == "true"
	}

	p.logger.Info("Preferences loaded",
		logger.Int("interval_seconds", int(p.interval)),
		logger.Bool("check_on_wake", p.checkOnWake),
		logger.Bool("auto_login", p.actions[ActionAutoLogin]),
		logger.Bool("notification", p.actions[ActionNotification]),
		logger.Bool("red_icon", p.actions[ActionRedIcon]),
		logger.Bool("pulse_icon", p.actions[ActionPulseIcon]))

	return p, nil
}

// SetOnChange registers the hook invoked after every successful set
func (p *Preferences) SetOnChange(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onChange = fn
}

// ActionEnabled reports whether the given expiry action is enabled
func (p *Preferences) ActionEnabled(kind ActionKind) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.actions[kind]
}

// Actions returns a copy of the full action map
func (p *Preferences) Actions() map[ActionKind]bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[ActionKind]bool, len(p.actions))
	for k, v := range p.actions {
		out[k] = v
	}
	return out
}

// Interval returns the current poll interval
func (p *Preferences) Interval() Interval {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.interval
}

// CheckOnWake reports whether a wake event should trigger a check
func (p *Preferences) CheckOnWake() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.checkOnWake
}

// SetAction enables or disables one expiry action
func (p *Preferences) SetAction(kind ActionKind, enabled bool) error {
	valid := false
	for _, k := range ActionKinds {
		if k == kind {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("%w: %s", ErrUnknownAction, kind)
	}

	if err := p.store.Set(keyActionPrefix+string(kind), strconv.FormatBool(enabled)); err != nil {
		return err
	}

	p.mu.Lock()
	p.actions[kind] = enabled
	fn := p.onChange
	p.mu.Unlock()

	p.logger.Info("Expiry action updated",
		logger.String("action", string(kind)),
		logger.Bool("enabled", enabled))

	if fn != nil {
		fn()
	}
	return nil
}

// SetInterval updates the poll interval. Raw seconds are snapped to
// the nearest enum member before persisting, so the store only ever
// holds one of the three valid values.
func (p *Preferences) SetInterval(seconds int) error {
	iv := DecodeInterval(seconds)
	if err := p.store.Set(keyIntervalSecs, strconv.Itoa(int(iv))); err != nil {
		return err
	}

	p.mu.Lock()
	p.interval = iv
	fn := p.onChange
	p.mu.Unlock()

	p.logger.Info("Poll interval updated",
		logger.Int("interval_seconds", int(iv)))

	if fn != nil {
		fn()
	}
	return nil
}

// SetCheckOnWake updates the wake-check gate
func (p *Preferences) SetCheckOnWake(enabled bool) error {
	if err := p.store.Set(keyCheckOnWake, strconv.FormatBool(enabled)); err != nil {
		return err
	}

	p.mu.Lock()
	p.checkOnWake = enabled
	fn := p.onChange
	p.mu.Unlock()

	p.logger.Info("Check-on-wake updated",
		logger.Bool("enabled", enabled))

	if fn != nil {
		fn()
	}
	return nil
}

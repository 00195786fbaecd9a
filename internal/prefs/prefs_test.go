package prefs

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/yegors/sso-sentinel/pkg/logger"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "settings.db"), logger.NewNop())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestDefaults(t *testing.T) {
	p, err := Load(testStore(t), logger.NewNop())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// Only red_icon defaults to enabled
	if !p.ActionEnabled(ActionRedIcon) {
		t.Error("red_icon must default to enabled")
	}
	for _, kind := range []ActionKind{ActionAutoLogin, ActionNotification, ActionPulseIcon} {
		if p.ActionEnabled(kind) {
			t.Errorf("%s must default to disabled", kind)
		}
	}

	if p.Interval() != Interval5Min {
		t.Errorf("interval = %d, want %d", p.Interval(), Interval5Min)
	}
	if !p.CheckOnWake() {
		t.Error("check_on_wake must default to true")
	}
}

func TestIntervalRoundTrip(t *testing.T) {
	store := testStore(t)

	p, err := Load(store, logger.NewNop())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := p.SetInterval(900); err != nil {
		t.Fatalf("SetInterval: %v", err)
	}

	reloaded, err := Load(store, logger.NewNop())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Interval() != Interval15Min {
		t.Errorf("reloaded interval = %d, want %d", reloaded.Interval(), Interval15Min)
	}
}

func TestIntervalFallback(t *testing.T) {
	store := testStore(t)

	// An unrecognized stored value decodes to the smallest member
	if err := store.Set("poll_interval_seconds", "42"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	p, err := Load(store, logger.NewNop())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Interval() != Interval5Min {
		t.Errorf("interval = %d, want fallback %d", p.Interval(), Interval5Min)
	}

	// Same for a value that is not even numeric
	if err := store.Set("poll_interval_seconds", "soon"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	p, err = Load(store, logger.NewNop())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Interval() != Interval5Min {
		t.Errorf("interval = %d, want fallback %d", p.Interval(), Interval5Min)
	}
}

func TestDecodeInterval(t *testing.T) {
	tests := []struct {
		seconds int
		want    Interval
	}{
		{300, Interval5Min},
		{900, Interval15Min},
		{1800, Interval30Min},
		{42, Interval5Min},
		{0, Interval5Min},
		{-900, Interval5Min},
	}
	for _, tt := range tests {
		if got := DecodeInterval(tt.seconds); got != tt.want {
			t.Errorf("DecodeInterval(%d) = %d, want %d", tt.seconds, got, tt.want)
		}
	}
}

func TestSetActionPersists(t *testing.T) {
	store := testStore(t)

	p, err := Load(store, logger.NewNop())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := p.SetAction(ActionAutoLogin, true); err != nil {
		t.Fatalf("SetAction: %v", err)
	}
	if err := p.SetAction(ActionRedIcon, false); err != nil {
		t.Fatalf("SetAction: %v", err)
	}

	reloaded, err := Load(store, logger.NewNop())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reloaded.ActionEnabled(ActionAutoLogin) {
		t.Error("auto_login did not survive reload")
	}
	if reloaded.ActionEnabled(ActionRedIcon) {
		t.Error("explicit red_icon=false was overridden by the default")
	}
}

func TestSetActionRejectsUnknownKind(t *testing.T) {
	p, err := Load(testStore(t), logger.NewNop())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	err = p.SetAction(ActionKind("blue_icon"), true)
	if err == nil {
		t.Fatal("expected error for unknown action kind")
	}
	if !errors.Is(err, ErrUnknownAction) {
		t.Errorf("error = %v, want ErrUnknownAction", err)
	}
}

func TestOnChangeHook(t *testing.T) {
	p, err := Load(testStore(t), logger.NewNop())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	calls := 0
	p.SetOnChange(func() { calls++ })

	if err := p.SetAction(ActionPulseIcon, true); err != nil {
		t.Fatalf("SetAction: %v", err)
	}
	if err := p.SetInterval(1800); err != nil {
		t.Fatalf("SetInterval: %v", err)
	}
	if err := p.SetCheckOnWake(false); err != nil {
		t.Fatalf("SetCheckOnWake: %v", err)
	}

	if calls != 3 {
		t.Errorf("change hook fired %d times, want 3", calls)
	}
}

func TestSetIntervalSnapsToEnum(t *testing.T) {
	store := testStore(t)
	p, err := Load(store, logger.NewNop())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// Arbitrary durations snap to a valid member before persisting
	if err := p.SetInterval(42); err != nil {
		t.Fatalf("SetInterval: %v", err)
	}
	if p.Interval() != Interval5Min {
		t.Errorf("interval = %d, want %d", p.Interval(), Interval5Min)
	}

	raw, found, err := store.Get("poll_interval_seconds")
	if err != nil || !found {
		t.Fatalf("Get: %v found=%v", err, found)
	}
	if raw != "300" {
		t.Errorf("stored raw value = %q, want \"300\"", raw)
	}
}

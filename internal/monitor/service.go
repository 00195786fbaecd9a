package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/yegors/sso-sentinel/internal/authority"
	"github.com/yegors/sso-sentinel/internal/policy"
	"github.com/yegors/sso-sentinel/internal/prefs"
	"github.com/yegors/sso-sentinel/internal/session"
	"github.com/yegors/sso-sentinel/pkg/logger"
)

// AuthorityClient is the external authority surface the monitor drives
type AuthorityClient interface {
	Check(ctx context.Context) authority.Outcome
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
}

// Reactor executes policy decisions against the presentation layer
type Reactor interface {
	HandleRefresh(visual policy.Visual, reactions policy.ReactionSet)
	ApplyVisual(visual policy.Visual)
}

// StatusPusher pushes full status snapshots to the presentation layer
type StatusPusher interface {
	PushStatus(snap session.Snapshot, visual policy.Visual)
}

// Notifier delivers user-facing notifications for login/logout failures
type Notifier interface {
	Notify(title, message string)
}

// opKind identifies a queued authority operation
type opKind string

const (
	opLogin  opKind = "login"
	opLogout opKind = "logout"
)

// checkResult marshals a completed check back to the control loop
type checkResult struct {
	outcome authority.Outcome
	source  string
}

// opResult marshals a completed login/logout back to the control loop
type opResult struct {
	kind opKind
	err  error
}

// Service drives periodic and on-demand session checks. One control
// loop goroutine owns all state mutation, reaction dispatch and timer
// bookkeeping; authority invocations run on worker goroutines and
// their results are marshaled back over channels. An explicit
// in-flight guard drops (never queues) any trigger arriving while a
// check is outstanding, so at most one check executes at a time no
// matter how many trigger sources fire.
type Service struct {
	client  AuthorityClient
	state   *session.Store
	prefs   *prefs.Preferences
	reactor Reactor
	pusher  StatusPusher
	notify  Notifier
	logger  *logger.Logger

	refreshCh chan string
	resultCh  chan checkResult
	opCh      chan opKind
	opDoneCh  chan opResult
	prefsCh   chan struct{}
	stopCh    chan struct{}
	wg        sync.WaitGroup

	// Wake detection timing and clock, overridable in tests
	wakeTick  time.Duration
	wakeGap   time.Duration
	wakeGrace time.Duration
	now       func() time.Time

	// Loop-owned flags, never touched outside the control loop
	inFlight   bool
	opInFlight bool

	mu            sync.RWMutex
	currentVisual policy.Visual
	started       bool
}

// NewService creates a new monitor service
func NewService(client AuthorityClient, state *session.Store, preferences *prefs.Preferences, reactor Reactor, pusher StatusPusher, notify Notifier, log *logger.Logger) *Service {
	return &Service{
		client:        client,
		state:         state,
		prefs:         preferences,
		reactor:       reactor,
		pusher:        pusher,
		notify:        notify,
		logger:        log.Named("monitor"),
		refreshCh:     make(chan string, 1),
		resultCh:      make(chan checkResult, 1),
		opCh:          make(chan opKind, 1),
		opDoneCh:      make(chan opResult, 1),
		prefsCh:       make(chan struct{}, 1),
		stopCh:        make(chan struct{}),
		wakeTick:      wakeTickInterval,
		wakeGap:       wakeGapThreshold,
		wakeGrace:     wakeGraceDelay,
		now:           time.Now,
		currentVisual: policy.VisualInactive,
	}
}

// Start launches the control loop and the wake watcher, then queues
// the initial check
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.mu.Unlock()

	s.logger.Info("Starting session monitor",
		logger.Duration("poll_interval", s.prefs.Interval().Duration()))

	s.wg.Add(1)
	go s.run(ctx)

	s.wg.Add(1)
	go s.wakeLoop(ctx)

	s.Refresh("startup")
	return nil
}

// Stop shuts the control loop down and waits for it to drain
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.mu.Unlock()

	s.logger.Info("Stopping session monitor")
	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info("Session monitor stopped")
}

// Refresh requests an on-demand check. True means the request was
// queued for the control loop, not that a check will run: the in-flight
// guard may still drop the trigger once dequeued. False means a refresh
// request is already pending.
func (s *Service) Refresh(source string) bool {
	select {
	case s.refreshCh <- source:
		return true
	default:
		s.logger.Debug("Refresh request already pending, dropping",
			logger.String("source", source))
		return false
	}
}

// Login requests an asynchronous login. The attempt is dropped when
// another login/logout is already queued.
func (s *Service) Login() bool {
	return s.requestOp(opLogin)
}

// Logout requests an asynchronous logout.
func (s *Service) Logout() bool {
	return s.requestOp(opLogout)
}

func (s *Service) requestOp(kind opKind) bool {
	select {
	case s.opCh <- kind:
		return true
	default:
		s.logger.Warn("Authority operation already pending, dropping",
			logger.String("op", string(kind)))
		return false
	}
}

// ReapplySettings notifies the control loop that preferences changed.
// Wired as the prefs change hook; coalesces bursts into one signal.
func (s *Service) ReapplySettings() {
	select {
	case s.prefsCh <- struct{}{}:
	default:
	}
}

// Snapshot returns the current session state
func (s *Service) Snapshot() session.Snapshot {
	return s.state.Snapshot()
}

// CurrentVisual returns the most recently applied visual selection
func (s *Service) CurrentVisual() policy.Visual {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentVisual
}

// run is the control loop. Everything that mutates session state,
// fires reactions or touches the poll ticker happens here.
func (s *Service) run(ctx context.Context) {
	defer s.wg.Done()

	interval := s.prefs.Interval().Duration()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return

		case <-ticker.C:
			s.startCheck(ctx, "interval")

		case source := <-s.refreshCh:
			s.startCheck(ctx, source)

		case res := <-s.resultCh:
			s.finishCheck(res)

		case kind := <-s.opCh:
			s.startOp(ctx, kind)

		case res := <-s.opDoneCh:
			s.finishOp(res)

		case <-s.prefsCh:
			if next := s.prefs.Interval().Duration(); next != interval {
				interval = next
				ticker.Reset(interval)
				s.logger.Info("Poll interval rescheduled",
					logger.Duration("interval", interval))
			}
			s.reapplyVisual()
		}
	}
}

// startCheck launches one authority check unless one is already in
// flight, in which case the trigger is dropped
func (s *Service) startCheck(ctx context.Context, source string) {
	if s.inFlight {
		s.logger.Debug("Check already in flight, dropping trigger",
			logger.String("source", source))
		return
	}
	s.inFlight = true

	s.logger.Debug("Starting session check",
		logger.String("source", source))

	go func() {
		outcome := s.client.Check(ctx)
		select {
		case s.resultCh <- checkResult{outcome: outcome, source: source}:
		case <-s.stopCh:
		}
	}()
}

// finishCheck applies a completed check: state update, policy
// decision, reaction dispatch and status push, in that order
func (s *Service) finishCheck(res checkResult) {
	s.inFlight = false

	tr := s.state.Apply(res.outcome)
	actions := s.prefs.Actions()

	reactions := policy.Decide(tr, actions)
	visual := policy.VisualFor(tr.Current, actions)

	s.setVisual(visual)
	s.reactor.HandleRefresh(visual, reactions)
	s.pusher.PushStatus(s.state.Snapshot(), visual)

	s.logger.Debug("Session check processed",
		logger.String("source", res.source),
		logger.Bool("authenticated", tr.Current),
		logger.Bool("expired", tr.Expired()),
		logger.String("visual", string(visual)))
}

// startOp launches a login or logout worker unless one is outstanding
func (s *Service) startOp(ctx context.Context, kind opKind) {
	if s.opInFlight {
		s.logger.Warn("Authority operation already in flight, dropping",
			logger.String("op", string(kind)))
		return
	}
	s.opInFlight = true

	s.logger.Info("Starting authority operation",
		logger.String("op", string(kind)))

	go func() {
		var err error
		switch kind {
		case opLogin:
			err = s.client.Login(ctx)
		case opLogout:
			err = s.client.Logout(ctx)
		}
		select {
		case s.opDoneCh <- opResult{kind: kind, err: err}:
		case <-s.stopCh:
		}
	}()
}

// finishOp reports the operation result and chains the reconciliation
// poll. Status is never set from the operation itself; the follow-up
// check is the sole mechanism that updates it.
func (s *Service) finishOp(res opResult) {
	s.opInFlight = false

	if res.err != nil {
		s.logger.Error("Authority operation failed",
			logger.String("op", string(res.kind)),
			logger.Error(res.err))
		if res.kind == opLogin {
			s.notify.Notify("SSO login failed", "The login attempt did not complete.")
		} else {
			s.notify.Notify("SSO logout failed", "The logout attempt did not complete.")
		}
	} else {
		s.logger.Info("Authority operation completed",
			logger.String("op", string(res.kind)))
	}

	// Chained refresh fires regardless of the operation's own outcome
	s.Refresh("post-" + string(res.kind))
}

// reapplyVisual re-derives the visual state after a settings change.
// No expiry reactions fire here; only the presentation is refreshed.
func (s *Service) reapplyVisual() {
	snap := s.state.Snapshot()
	visual := policy.VisualFor(snap.Authenticated(), s.prefs.Actions())

	s.setVisual(visual)
	s.reactor.ApplyVisual(visual)
	s.pusher.PushStatus(snap, visual)
}

func (s *Service) setVisual(v policy.Visual) {
	s.mu.Lock()
	s.currentVisual = v
	s.mu.Unlock()
}

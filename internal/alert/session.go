// Package alert holds the single alert session state machine and the
// dispatcher that fans a confirmed alert out across channels.
package alert

import (
	"sync"
	"time"

	"SafeHerAPI/internal/logger"
)

type State string

const (
	StateIdle                 State = "IDLE"
	StateAwaitingConfirmation State = "AWAITING_CONFIRMATION"
	StateAwaitingLocation     State = "AWAITING_LOCATION"
	StateDispatching          State = "DISPATCHING"
	StateSent                 State = "SENT"
	StateCancelled            State = "CANCELLED"
)

// Snapshot is the externally visible session state, pushed to clients
// on every transition.
type Snapshot struct {
	State           State      `json:"state"`
	TriggeredBy     string     `json:"triggered_by,omitempty"`
	MatchedKeywords []string   `json:"matched_keywords,omitempty"`
	CooldownUntil   *time.Time `json:"cooldown_until,omitempty"`
	Note            string     `json:"note,omitempty"`
}

type SessionConfig struct {
	// SafeResetDelay is how long the "you are safe" note lingers after
	// the user declines a detected threat.
	SafeResetDelay time.Duration
	// SentDisplayWindow is how long the Sent state is shown before the
	// session resets to Idle.
	SentDisplayWindow time.Duration
	// CancelClearDelay is how long the Cancelled state is shown.
	CancelClearDelay time.Duration
	// TriggerCooldown suppresses keyword triggers after a sent alert.
	TriggerCooldown time.Duration
}

// Session is the process-wide alert lifecycle. Exactly one exists; all
// transitions go through it so overlapping alerts cannot happen.
//
// Re-entrancy rule: keyword triggers are accepted only from Idle (and
// outside the cooldown window); an explicit SOS action additionally
// preempts a session that is awaiting confirmation.
type Session struct {
	mu  sync.Mutex
	cfg SessionConfig
	log *logger.Logger

	state         State
	triggeredBy   string
	matched       []string
	cooldownUntil time.Time

	resetTimer *time.Timer
	onChange   func(Snapshot)

	now   func() time.Time
	after func(time.Duration, func()) *time.Timer
}

func NewSession(cfg SessionConfig, log *logger.Logger, onChange func(Snapshot)) *Session {
	return &Session{
		cfg:      cfg,
		log:      log,
		state:    StateIdle,
		onChange: onChange,
		now:      time.Now,
		after:    time.AfterFunc,
	}
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked("")
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// RequestConfirmation moves Idle -> AwaitingConfirmation for a keyword
// trigger. Returns false while a session is in flight or the cooldown
// window is still open.
func (s *Session) RequestConfirmation(trigger string, matched []string) bool {
	s.mu.Lock()

	if s.state != StateIdle {
		s.mu.Unlock()
		s.log.Debug("Keyword trigger ignored, session is %s", s.state)
		return false
	}
	if s.now().Before(s.cooldownUntil) {
		s.mu.Unlock()
		s.log.Debug("Keyword trigger ignored, cooldown until %v", s.cooldownUntil)
		return false
	}

	s.state = StateAwaitingConfirmation
	s.triggeredBy = trigger
	s.matched = matched
	snap := s.snapshotLocked("Potential threat detected")
	s.mu.Unlock()

	s.log.Warn("Threat detected (%s), awaiting user confirmation", trigger)
	s.notify(snap)
	return true
}

// TriggerSOS moves straight to AwaitingLocation with no confirmation.
// It preempts a pending AwaitingConfirmation session; any other busy
// state rejects the trigger.
func (s *Session) TriggerSOS(trigger string) bool {
	s.mu.Lock()

	switch s.state {
	case StateIdle, StateAwaitingConfirmation:
	default:
		s.mu.Unlock()
		s.log.Debug("SOS ignored, session is %s", s.state)
		return false
	}

	s.cancelResetLocked()
	s.state = StateAwaitingLocation
	s.triggeredBy = trigger
	snap := s.snapshotLocked("SOS activated, sending alerts")
	s.mu.Unlock()

	s.log.Warn("SOS triggered (%s)", trigger)
	s.notify(snap)
	return true
}

// Confirm accepts a detected threat: AwaitingConfirmation -> AwaitingLocation.
func (s *Session) Confirm() bool {
	s.mu.Lock()

	if s.state != StateAwaitingConfirmation {
		s.mu.Unlock()
		return false
	}

	s.state = StateAwaitingLocation
	snap := s.snapshotLocked("Alert confirmed, resolving location")
	s.mu.Unlock()

	s.notify(snap)
	return true
}

// Decline rejects a detected threat and resets to Idle. A "you are
// safe" note is pushed after a short delay, mirroring the client UI.
func (s *Session) Decline() bool {
	s.mu.Lock()

	if s.state != StateAwaitingConfirmation {
		s.mu.Unlock()
		return false
	}

	s.resetLocked()
	snap := s.snapshotLocked("Threat dismissed")
	s.cancelResetLocked()
	s.resetTimer = s.after(s.cfg.SafeResetDelay, func() {
		s.notify(Snapshot{State: StateIdle, Note: "You are safe"})
	})
	s.mu.Unlock()

	s.notify(snap)
	return true
}

// BeginFanOut marks the point of no return: AwaitingLocation ->
// Dispatching. Returns false if the session was cancelled while the
// position was being resolved, in which case no channel may be opened.
func (s *Session) BeginFanOut() bool {
	s.mu.Lock()

	if s.state != StateAwaitingLocation {
		s.mu.Unlock()
		return false
	}

	s.state = StateDispatching
	snap := s.snapshotLocked("")
	s.mu.Unlock()

	s.notify(snap)
	return true
}

// Complete marks the dispatch done: Dispatching -> Sent, opens the
// trigger cooldown, and schedules the reset to Idle after the display
// window.
func (s *Session) Complete() {
	s.mu.Lock()

	if s.state != StateDispatching {
		s.mu.Unlock()
		return
	}

	s.state = StateSent
	s.cooldownUntil = s.now().Add(s.cfg.TriggerCooldown)
	snap := s.snapshotLocked("Alert sent")
	s.cancelResetLocked()
	s.resetTimer = s.after(s.cfg.SentDisplayWindow, s.resetToIdle)
	s.mu.Unlock()

	s.log.Info("Alert dispatched, cooldown until %v", s.cooldownUntil)
	s.notify(snap)
}

// Cancel aborts a session that has not started fan-out yet. Once
// Dispatching is reached the dispatch runs to completion.
func (s *Session) Cancel() bool {
	s.mu.Lock()

	switch s.state {
	case StateAwaitingConfirmation, StateAwaitingLocation:
	default:
		s.mu.Unlock()
		return false
	}

	s.state = StateCancelled
	snap := s.snapshotLocked("Alert cancelled")
	s.cancelResetLocked()
	s.resetTimer = s.after(s.cfg.CancelClearDelay, s.resetToIdle)
	s.mu.Unlock()

	s.log.Info("Alert cancelled before fan-out")
	s.notify(snap)
	return true
}

func (s *Session) resetToIdle() {
	s.mu.Lock()
	s.resetLocked()
	snap := s.snapshotLocked("")
	s.mu.Unlock()
	s.notify(snap)
}

func (s *Session) resetLocked() {
	s.state = StateIdle
	s.triggeredBy = ""
	s.matched = nil
}

func (s *Session) cancelResetLocked() {
	if s.resetTimer != nil {
		s.resetTimer.Stop()
		s.resetTimer = nil
	}
}

func (s *Session) snapshotLocked(note string) Snapshot {
	snap := Snapshot{
		State:           s.state,
		TriggeredBy:     s.triggeredBy,
		MatchedKeywords: s.matched,
		Note:            note,
	}
	if !s.cooldownUntil.IsZero() && s.now().Before(s.cooldownUntil) {
		until := s.cooldownUntil
		snap.CooldownUntil = &until
	}
	return snap
}

func (s *Session) notify(snap Snapshot) {
	if s.onChange != nil {
		s.onChange(snap)
	}
}

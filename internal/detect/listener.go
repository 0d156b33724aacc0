package detect

import (
	"context"
	"errors"
	"sync"
	"time"

	"SafeHerAPI/internal/logger"
)

// ErrUnsupported is returned by a Stream whose environment has no
// speech recognition capability. It disables the feature without
// failing the host.
var ErrUnsupported = errors.New("speech recognition not supported in this environment")

// ErrDetectionDisabled means the user has opted out of voice detection.
var ErrDetectionDisabled = errors.New("voice detection disabled by user preference")

// Permission error kinds reported by the recognition stream. Either one
// permanently suppresses auto-restart and persists the opt-out.
const (
	ErrorNotAllowed        = "not-allowed"
	ErrorServiceNotAllowed = "service-not-allowed"
)

// Stream is the continuous speech-to-text collaborator. It reports
// results (interim and final), errors by kind, and stream end through
// the registered handlers, all from a single goroutine.
type Stream interface {
	Start() error
	Stop()
	SetHandlers(onResult func(text string, final bool), onError func(kind string), onEnd func())
}

// PreferenceStore persists the voice-detection opt-out across sessions.
type PreferenceStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
}

// PrefVoiceDetection is the preference key the listener writes when
// permission is denied.
const PrefVoiceDetection = "voice_detection_enabled"

type ListenerState int

const (
	StateStopped ListenerState = iota
	StateStarting
	StateListening
)

func (s ListenerState) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateListening:
		return "listening"
	default:
		return "stopped"
	}
}

type ListenerConfig struct {
	// EndBackoff delays the restart after the stream ends naturally.
	EndBackoff time.Duration
	// ErrorBackoff delays the restart after a recoverable error.
	ErrorBackoff time.Duration
	// Cooldown suppresses fragments and restarts after a confirmed
	// trigger, so the alert's own aftermath cannot re-trigger.
	Cooldown time.Duration
}

// Listener supervises a recognition Stream: it forwards finalized
// fragments in arrival order, restarts the stream with a fixed backoff
// when it drops, and stops for good on permission denial.
type Listener struct {
	mu     sync.Mutex
	stream Stream
	prefs  PreferenceStore
	cfg    ListenerConfig
	log    *logger.Logger

	onFragment func(text string)

	state       ListenerState
	visible     bool
	suppressed  bool // permission denied, never restart
	stopped     bool // explicit Stop, no auto-restart until next Start
	pausedUntil time.Time

	restartTimer *time.Timer
	resumeTimer  *time.Timer

	now   func() time.Time
	after func(time.Duration, func()) *time.Timer
}

func NewListener(stream Stream, prefs PreferenceStore, cfg ListenerConfig, log *logger.Logger, onFragment func(string)) *Listener {
	l := &Listener{
		stream:     stream,
		prefs:      prefs,
		cfg:        cfg,
		log:        log,
		onFragment: onFragment,
		visible:    true,
		stopped:    true,
		now:        time.Now,
		after:      time.AfterFunc,
	}
	stream.SetHandlers(l.handleResult, l.handleError, l.handleEnd)
	return l
}

// Start begins listening. It refuses to start when the user has opted
// out, and passes ErrUnsupported through untouched.
func (l *Listener) Start(ctx context.Context) error {
	if v, err := l.prefs.Get(ctx, PrefVoiceDetection); err != nil {
		l.log.Warn("Could not read voice detection preference: %v", err)
	} else if v == "false" {
		return ErrDetectionDisabled
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == StateListening {
		return nil
	}

	l.state = StateStarting
	if err := l.stream.Start(); err != nil {
		l.state = StateStopped
		if errors.Is(err, ErrUnsupported) {
			l.log.Warn("Voice detection unavailable: %v", err)
			return err
		}
		return err
	}

	l.state = StateListening
	l.stopped = false
	l.suppressed = false
	l.log.Info("Voice detection active")
	return nil
}

// Stop halts listening and cancels any pending restart. The listener
// stays down until the next explicit Start.
func (l *Listener) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.stopped = true
	l.state = StateStopped
	l.cancelTimersLocked()
	l.stream.Stop()
	l.log.Info("Voice detection stopped")
}

// Pause suspends fragment delivery and listening for the cooldown
// window, then resumes automatically if nothing else got in the way.
func (l *Listener) Pause() {
	l.mu.Lock()
	defer l.mu.Unlock()

	d := l.cfg.Cooldown
	l.pausedUntil = l.now().Add(d)
	l.state = StateStopped
	l.cancelTimersLocked()
	l.stream.Stop()
	l.log.Info("Voice detection paused for %v after trigger", d)

	l.resumeTimer = l.after(d, l.tryRestart)
}

// SetVisible records whether the client page is foreground-visible.
// Restarts are only scheduled while visible.
func (l *Listener) SetVisible(visible bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.visible = visible
}

func (l *Listener) State() ListenerState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// handleResult forwards finalized fragments only; interim partials are
// dropped at the boundary so the analyzer never sees them.
func (l *Listener) handleResult(text string, final bool) {
	if !final {
		return
	}

	l.mu.Lock()
	if l.now().Before(l.pausedUntil) {
		l.mu.Unlock()
		l.log.Debug("Fragment ignored during cooldown")
		return
	}
	cb := l.onFragment
	l.mu.Unlock()

	if cb != nil {
		cb(text)
	}
}

func (l *Listener) handleError(kind string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.state = StateStopped

	if kind == ErrorNotAllowed || kind == ErrorServiceNotAllowed {
		l.suppressed = true
		l.cancelTimersLocked()
		l.log.Warn("Microphone permission denied (%s), voice detection disabled", kind)
		if err := l.prefs.Set(context.Background(), PrefVoiceDetection, "false"); err != nil {
			l.log.Error("Could not persist voice detection opt-out: %v", err)
		}
		return
	}

	l.log.Warn("Recognition error (%s), restarting in %v", kind, l.cfg.ErrorBackoff)
	l.scheduleRestartLocked(l.cfg.ErrorBackoff)
}

func (l *Listener) handleEnd() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stopped {
		return
	}

	l.state = StateStopped
	l.log.Debug("Recognition stream ended, restarting in %v", l.cfg.EndBackoff)
	l.scheduleRestartLocked(l.cfg.EndBackoff)
}

func (l *Listener) scheduleRestartLocked(backoff time.Duration) {
	if !l.visible || l.suppressed || l.stopped {
		return
	}
	if l.restartTimer != nil {
		l.restartTimer.Stop()
	}
	l.restartTimer = l.after(backoff, l.tryRestart)
}

func (l *Listener) tryRestart() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.visible || l.suppressed || l.stopped || l.state == StateListening {
		return
	}
	// Still inside a cooldown pause; the resume timer owns the restart.
	if l.now().Before(l.pausedUntil) {
		return
	}

	l.state = StateStarting
	if err := l.stream.Start(); err != nil {
		l.state = StateStopped
		l.log.Error("Failed to restart voice recognition: %v", err)
		return
	}
	l.state = StateListening
	l.log.Info("Voice detection restarted")
}

func (l *Listener) cancelTimersLocked() {
	if l.restartTimer != nil {
		l.restartTimer.Stop()
		l.restartTimer = nil
	}
	if l.resumeTimer != nil {
		l.resumeTimer.Stop()
		l.resumeTimer = nil
	}
}

package alert

import (
	"testing"
	"time"

	"SafeHerAPI/internal/logger"
	"SafeHerAPI/internal/models"
)

type sessionTimers struct {
	calls []struct {
		delay time.Duration
		fn    func()
	}
}

func (st *sessionTimers) after(d time.Duration, fn func()) *time.Timer {
	st.calls = append(st.calls, struct {
		delay time.Duration
		fn    func()
	}{d, fn})
	return time.AfterFunc(time.Hour, func() {})
}

func testSession(onChange func(Snapshot)) (*Session, *sessionTimers, *time.Time) {
	s := NewSession(SessionConfig{
		SafeResetDelay:    5 * time.Second,
		SentDisplayWindow: 3 * time.Second,
		CancelClearDelay:  3 * time.Second,
		TriggerCooldown:   10 * time.Second,
	}, logger.Discard(), onChange)

	timers := &sessionTimers{}
	clock := time.Now()
	clockPtr := &clock

	s.now = func() time.Time { return *clockPtr }
	s.after = timers.after
	return s, timers, clockPtr
}

func TestKeywordTriggerOnlyFromIdle(t *testing.T) {
	s, _, _ := testSession(nil)

	if !s.RequestConfirmation(models.TriggerTextKeyword, []string{"help"}) {
		t.Fatal("first keyword trigger rejected from Idle")
	}
	if s.State() != StateAwaitingConfirmation {
		t.Fatalf("state = %v, want AwaitingConfirmation", s.State())
	}

	if s.RequestConfirmation(models.TriggerVoiceKeyword, []string{"danger"}) {
		t.Error("keyword trigger accepted while a session is pending")
	}
}

func TestSOSPreemptsPendingConfirmation(t *testing.T) {
	s, _, _ := testSession(nil)

	s.RequestConfirmation(models.TriggerVoiceKeyword, []string{"help"})

	if !s.TriggerSOS(models.TriggerSOSButton) {
		t.Fatal("SOS rejected while awaiting confirmation")
	}

	snap := s.Snapshot()
	if snap.State != StateAwaitingLocation {
		t.Errorf("state = %v, want AwaitingLocation", snap.State)
	}
	if snap.TriggeredBy != models.TriggerSOSButton {
		t.Errorf("triggered_by = %q, want %q", snap.TriggeredBy, models.TriggerSOSButton)
	}
}

func TestSOSRejectedDuringDispatch(t *testing.T) {
	s, _, _ := testSession(nil)

	s.TriggerSOS(models.TriggerSOSButton)
	if !s.BeginFanOut() {
		t.Fatal("BeginFanOut failed from AwaitingLocation")
	}

	if s.TriggerSOS(models.TriggerSOSButton) {
		t.Error("SOS accepted while dispatching")
	}
}

func TestConfirmMovesToAwaitingLocation(t *testing.T) {
	s, _, _ := testSession(nil)

	s.RequestConfirmation(models.TriggerTextKeyword, []string{"scared"})
	if !s.Confirm() {
		t.Fatal("Confirm rejected from AwaitingConfirmation")
	}
	if s.State() != StateAwaitingLocation {
		t.Errorf("state = %v, want AwaitingLocation", s.State())
	}
}

func TestDeclineResetsAndSchedulesSafeNote(t *testing.T) {
	var notes []string
	s, timers, _ := testSession(func(snap Snapshot) {
		if snap.Note != "" {
			notes = append(notes, snap.Note)
		}
	})

	s.RequestConfirmation(models.TriggerTextKeyword, []string{"help"})
	if !s.Decline() {
		t.Fatal("Decline rejected from AwaitingConfirmation")
	}
	if s.State() != StateIdle {
		t.Errorf("state = %v, want Idle", s.State())
	}

	if len(timers.calls) == 0 {
		t.Fatal("safe-note timer not scheduled")
	}
	timers.calls[len(timers.calls)-1].fn()

	found := false
	for _, note := range notes {
		if note == "You are safe" {
			found = true
		}
	}
	if !found {
		t.Errorf("safe note never pushed, notes: %v", notes)
	}
}

func TestCancelBlocksFanOut(t *testing.T) {
	s, _, _ := testSession(nil)

	s.TriggerSOS(models.TriggerSOSButton)
	if !s.Cancel() {
		t.Fatal("Cancel rejected from AwaitingLocation")
	}
	if s.State() != StateCancelled {
		t.Errorf("state = %v, want Cancelled", s.State())
	}

	if s.BeginFanOut() {
		t.Error("fan-out began after cancellation")
	}
}

func TestCancelIgnoredOnceDispatching(t *testing.T) {
	s, _, _ := testSession(nil)

	s.TriggerSOS(models.TriggerSOSButton)
	s.BeginFanOut()

	if s.Cancel() {
		t.Error("Cancel accepted after fan-out started")
	}
}

func TestCompleteOpensCooldownThenResets(t *testing.T) {
	s, timers, clock := testSession(nil)

	s.TriggerSOS(models.TriggerSOSButton)
	s.BeginFanOut()
	s.Complete()

	if s.State() != StateSent {
		t.Fatalf("state = %v, want Sent", s.State())
	}

	// Display window elapses and the session resets.
	if len(timers.calls) == 0 {
		t.Fatal("reset timer not scheduled after Complete")
	}
	timers.calls[len(timers.calls)-1].fn()

	if s.State() != StateIdle {
		t.Fatalf("state = %v, want Idle after display window", s.State())
	}

	// Keyword triggers stay suppressed until the cooldown passes.
	if s.RequestConfirmation(models.TriggerVoiceKeyword, []string{"help"}) {
		t.Error("keyword trigger accepted inside cooldown window")
	}

	*clock = clock.Add(11 * time.Second)
	if !s.RequestConfirmation(models.TriggerVoiceKeyword, []string{"help"}) {
		t.Error("keyword trigger rejected after cooldown elapsed")
	}
}

func TestSnapshotsBroadcastOnTransitions(t *testing.T) {
	var states []State
	s, _, _ := testSession(func(snap Snapshot) {
		states = append(states, snap.State)
	})

	s.TriggerSOS(models.TriggerSOSButton)
	s.BeginFanOut()
	s.Complete()

	want := []State{StateAwaitingLocation, StateDispatching, StateSent}
	if len(states) != len(want) {
		t.Fatalf("broadcast states = %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Errorf("broadcast %d = %v, want %v", i, states[i], want[i])
		}
	}
}

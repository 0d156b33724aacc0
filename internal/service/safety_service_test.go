package service

import (
	"context"
	"testing"
	"time"

	"SafeHerAPI/internal/alert"
	"SafeHerAPI/internal/detect"
	"SafeHerAPI/internal/logger"
	"SafeHerAPI/internal/models"
)

type stubPrefs struct {
	values map[string]string
}

func (p *stubPrefs) Get(ctx context.Context, key string) (string, error) {
	return p.values[key], nil
}

func (p *stubPrefs) Set(ctx context.Context, key, value string) error {
	p.values[key] = value
	return nil
}

// newTestSafetyService wires the real analyzer, session, listener and
// voice stream together, with the dispatch fan-out replaced by a
// recorder.
func newTestSafetyService(t *testing.T) (*SafetyService, *alert.Session, *stubPrefs, *[]string) {
	t.Helper()

	session := alert.NewSession(alert.SessionConfig{
		SafeResetDelay:    time.Minute,
		SentDisplayWindow: time.Minute,
		CancelClearDelay:  time.Minute,
		TriggerCooldown:   10 * time.Second,
	}, logger.Discard(), nil)

	prefs := &stubPrefs{values: make(map[string]string)}
	stream := NewVoiceStream(nil, logger.Discard())

	var svc *SafetyService
	listener := detect.NewListener(stream, prefs, detect.ListenerConfig{
		EndBackoff:   3 * time.Second,
		ErrorBackoff: 5 * time.Second,
		Cooldown:     10 * time.Second,
	}, logger.Discard(), func(text string) {
		svc.HandleFragment(text)
	})

	svc = NewSafetyService(detect.NewAnalyzer(true), listener, session, nil, stream, 0.3, logger.Discard())

	dispatched := &[]string{}
	svc.dispatch = func(trigger string) {
		*dispatched = append(*dispatched, trigger)
	}

	return svc, session, prefs, dispatched
}

func TestAnalyzeTextBelowThreshold(t *testing.T) {
	svc, session, _, dispatched := newTestSafetyService(t)

	match, triggered := svc.AnalyzeText(context.Background(), "the sky is blue")
	if triggered || match.Level != 0 {
		t.Errorf("clean text triggered (level %v)", match.Level)
	}
	if session.State() != alert.StateIdle {
		t.Errorf("session state = %v, want Idle", session.State())
	}
	if len(*dispatched) != 0 {
		t.Error("dispatch ran for clean text")
	}
}

func TestSingleKeywordCrossesThreshold(t *testing.T) {
	svc, session, _, _ := newTestSafetyService(t)

	// One keyword scores 1/3, just above the 0.3 threshold.
	_, triggered := svc.AnalyzeText(context.Background(), "I am scared")
	if !triggered {
		t.Fatal("single keyword did not request confirmation")
	}

	snap := session.Snapshot()
	if snap.State != alert.StateAwaitingConfirmation {
		t.Errorf("session state = %v, want AwaitingConfirmation", snap.State)
	}
	if snap.TriggeredBy != models.TriggerTextKeyword {
		t.Errorf("triggered_by = %q, want %q", snap.TriggeredBy, models.TriggerTextKeyword)
	}
}

func TestConfirmDispatchesWithOriginalTrigger(t *testing.T) {
	svc, session, _, dispatched := newTestSafetyService(t)

	svc.HandleFragment("someone is following me, help")
	if session.State() != alert.StateAwaitingConfirmation {
		t.Fatalf("session state = %v, want AwaitingConfirmation", session.State())
	}

	if _, ok := svc.Confirm(context.Background()); !ok {
		t.Fatal("Confirm rejected")
	}

	if len(*dispatched) != 1 || (*dispatched)[0] != models.TriggerVoiceKeyword {
		t.Errorf("dispatched = %v, want [VOICE_KEYWORD]", *dispatched)
	}
}

func TestSOSPreemptsPendingKeywordTrigger(t *testing.T) {
	svc, _, _, dispatched := newTestSafetyService(t)

	svc.AnalyzeText(context.Background(), "help me, emergency, danger")

	if _, ok := svc.TriggerSOS(context.Background()); !ok {
		t.Fatal("SOS rejected while confirmation pending")
	}

	if len(*dispatched) != 1 || (*dispatched)[0] != models.TriggerSOSButton {
		t.Errorf("dispatched = %v, want [SOS_BUTTON]", *dispatched)
	}
}

func TestDeclineNeverDispatches(t *testing.T) {
	svc, session, _, dispatched := newTestSafetyService(t)

	svc.AnalyzeText(context.Background(), "I am not safe")

	if _, ok := svc.Decline(context.Background()); !ok {
		t.Fatal("Decline rejected")
	}
	if session.State() != alert.StateIdle {
		t.Errorf("session state = %v, want Idle", session.State())
	}
	if len(*dispatched) != 0 {
		t.Errorf("dispatch ran after decline: %v", *dispatched)
	}
}

func TestHandleTranscriptDrivesDetection(t *testing.T) {
	svc, session, _, _ := newTestSafetyService(t)

	// Interim fragments never reach the analyzer.
	err := svc.HandleTranscript("safeher/devices/d1/transcript",
		[]byte(`{"device_id":"d1","text":"help me i am scared","final":false}`))
	if err != nil {
		t.Fatal(err)
	}
	if session.State() != alert.StateIdle {
		t.Fatalf("interim fragment triggered: state %v", session.State())
	}

	err = svc.HandleTranscript("safeher/devices/d1/transcript",
		[]byte(`{"device_id":"d1","text":"help me i am scared","final":true}`))
	if err != nil {
		t.Fatal(err)
	}

	snap := session.Snapshot()
	if snap.State != alert.StateAwaitingConfirmation || snap.TriggeredBy != models.TriggerVoiceKeyword {
		t.Errorf("snapshot = %+v, want voice-triggered confirmation", snap)
	}
}

func TestHandleTranscriptRejectsMalformedPayload(t *testing.T) {
	svc, _, _, _ := newTestSafetyService(t)

	if err := svc.HandleTranscript("safeher/devices/d1/transcript", []byte("{not json")); err == nil {
		t.Error("malformed payload accepted")
	}
}

func TestHandleVoiceStatusPermissionDenied(t *testing.T) {
	svc, _, prefs, _ := newTestSafetyService(t)

	err := svc.HandleVoiceStatus("safeher/devices/d1/voice",
		[]byte(`{"device_id":"d1","event":"error","error":"not-allowed","visible":true}`))
	if err != nil {
		t.Fatal(err)
	}

	if prefs.values[detect.PrefVoiceDetection] != "false" {
		t.Errorf("opt-out not persisted: %v", prefs.values)
	}
}

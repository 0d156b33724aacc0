package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"SafeHerAPI/internal/alert"
	"SafeHerAPI/internal/detect"
	"SafeHerAPI/internal/logger"
	"SafeHerAPI/internal/models"
	"SafeHerAPI/internal/mqtt"
)

// ISafetyService is the detection and alerting entry point: analyzed
// text, SOS actions, and the MQTT transcript feed all land here.
type ISafetyService interface {
	AnalyzeText(ctx context.Context, text string) (detect.ThreatMatch, bool)
	TriggerSOS(ctx context.Context) (alert.Snapshot, bool)
	Confirm(ctx context.Context) (alert.Snapshot, bool)
	Decline(ctx context.Context) (alert.Snapshot, bool)
	Cancel(ctx context.Context) (alert.Snapshot, bool)
	Session() alert.Snapshot
	StartVoiceDetection(ctx context.Context) error
	StopVoiceDetection()
}

type SafetyService struct {
	analyzer   *detect.Analyzer
	listener   *detect.Listener
	session    *alert.Session
	dispatcher *alert.Dispatcher
	stream     *VoiceStream
	threshold  float64
	log        *logger.Logger

	// dispatch is swapped out by tests to run synchronously.
	dispatch func(trigger string)
}

func NewSafetyService(analyzer *detect.Analyzer, listener *detect.Listener, session *alert.Session, dispatcher *alert.Dispatcher, stream *VoiceStream, threshold float64, log *logger.Logger) *SafetyService {
	s := &SafetyService{
		analyzer:   analyzer,
		listener:   listener,
		session:    session,
		dispatcher: dispatcher,
		stream:     stream,
		threshold:  threshold,
		log:        log,
	}
	s.dispatch = func(trigger string) { go s.runDispatch(trigger) }
	return s
}

// AnalyzeText scores user-entered text and, when it crosses the
// threshold, asks the session for confirmation. Returns the match and
// whether a confirmation was requested.
func (s *SafetyService) AnalyzeText(ctx context.Context, text string) (detect.ThreatMatch, bool) {
	match := s.analyzer.Analyze(text)
	if match.Level <= s.threshold {
		return match, false
	}

	requested := s.session.RequestConfirmation(models.TriggerTextKeyword, match.MatchedKeywords)
	return match, requested
}

// HandleFragment is the listener's fragment callback. Same scoring as
// AnalyzeText, but attributed to the voice trigger.
func (s *SafetyService) HandleFragment(text string) {
	match := s.analyzer.Analyze(text)
	if match.Level <= s.threshold {
		return
	}

	s.log.Warn("Voice fragment crossed threat threshold (level %.2f): %v", match.Level, match.MatchedKeywords)
	s.session.RequestConfirmation(models.TriggerVoiceKeyword, match.MatchedKeywords)
}

// TriggerSOS starts an immediate dispatch, preempting a pending
// confirmation.
func (s *SafetyService) TriggerSOS(ctx context.Context) (alert.Snapshot, bool) {
	if !s.session.TriggerSOS(models.TriggerSOSButton) {
		return s.session.Snapshot(), false
	}
	s.dispatch(models.TriggerSOSButton)
	return s.session.Snapshot(), true
}

// Confirm accepts a pending detected threat and starts the dispatch.
func (s *SafetyService) Confirm(ctx context.Context) (alert.Snapshot, bool) {
	if !s.session.Confirm() {
		return s.session.Snapshot(), false
	}
	trigger := s.session.Snapshot().TriggeredBy
	s.dispatch(trigger)
	return s.session.Snapshot(), true
}

func (s *SafetyService) Decline(ctx context.Context) (alert.Snapshot, bool) {
	ok := s.session.Decline()
	return s.session.Snapshot(), ok
}

func (s *SafetyService) Cancel(ctx context.Context) (alert.Snapshot, bool) {
	ok := s.session.Cancel()
	return s.session.Snapshot(), ok
}

func (s *SafetyService) Session() alert.Snapshot {
	return s.session.Snapshot()
}

func (s *SafetyService) StartVoiceDetection(ctx context.Context) error {
	return s.listener.Start(ctx)
}

func (s *SafetyService) StopVoiceDetection() {
	s.listener.Stop()
}

// runDispatch drives the fan-out off the caller's goroutine so SOS and
// confirm endpoints return immediately; progress reaches clients via
// session broadcasts.
func (s *SafetyService) runDispatch(trigger string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	outcome, err := s.dispatcher.Dispatch(ctx, s.session, trigger)
	if err != nil {
		if errors.Is(err, alert.ErrCancelled) {
			s.log.Info("Dispatch cancelled before fan-out")
			return
		}
		s.log.Error("Alert dispatch failed: %v", err)
		return
	}

	s.log.Info("Alert sent: %d contacts, location=%v", outcome.ContactsNotified, outcome.HadLocation)

	// A voice-triggered alert pauses recognition so its own aftermath
	// cannot re-trigger inside the cooldown window.
	if trigger == models.TriggerVoiceKeyword {
		s.listener.Pause()
	}
}

// HandleTranscript is the MQTT handler for transcript fragments.
func (s *SafetyService) HandleTranscript(topic string, payload []byte) error {
	var msg models.TranscriptMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("malformed transcript payload: %w", err)
	}
	if msg.DeviceID == "" {
		msg.DeviceID = mqtt.DeviceID(topic)
	}

	s.stream.HandleTranscript(msg)
	return nil
}

// HandleVoiceStatus is the MQTT handler for recognition status events.
// Visibility rides along on every status message and gates restarts.
func (s *SafetyService) HandleVoiceStatus(topic string, payload []byte) error {
	var msg models.VoiceStatusMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("malformed voice status payload: %w", err)
	}

	s.listener.SetVisible(msg.Visible)
	s.stream.HandleStatus(msg)
	return nil
}

package service

import (
	"sync"

	"SafeHerAPI/internal/logger"
	"SafeHerAPI/internal/models"
	"SafeHerAPI/internal/mqtt"
)

// CommandPublisher pushes control commands out to devices.
type CommandPublisher interface {
	BroadcastCommand(cmd mqtt.Command) error
}

// VoiceStream adapts the MQTT transcript feed to the listener's Stream
// interface. The device fleet is treated as one logical recognition
// stream: Start/Stop broadcast the voice-control toggle, and incoming
// transcript and status messages from any device drive the handlers.
type VoiceStream struct {
	publisher CommandPublisher
	log       *logger.Logger

	mu       sync.Mutex
	onResult func(text string, final bool)
	onError  func(kind string)
	onEnd    func()
}

func NewVoiceStream(publisher CommandPublisher, log *logger.Logger) *VoiceStream {
	return &VoiceStream{publisher: publisher, log: log}
}

func (s *VoiceStream) SetHandlers(onResult func(string, bool), onError func(string), onEnd func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onResult = onResult
	s.onError = onError
	s.onEnd = onEnd
}

func (s *VoiceStream) Start() error {
	return s.control(true)
}

func (s *VoiceStream) Stop() {
	if err := s.control(false); err != nil {
		s.log.Warn("Could not broadcast voice stop: %v", err)
	}
}

func (s *VoiceStream) control(enabled bool) error {
	if s.publisher == nil {
		return nil
	}
	return s.publisher.BroadcastCommand(mqtt.Command{
		Type:    mqtt.CommandVoiceControl,
		Payload: map[string]interface{}{"enabled": enabled},
	})
}

// HandleTranscript feeds one device transcript fragment to the
// listener.
func (s *VoiceStream) HandleTranscript(msg models.TranscriptMessage) {
	s.mu.Lock()
	cb := s.onResult
	s.mu.Unlock()

	if cb != nil {
		cb(msg.Text, msg.Final)
	}
}

// HandleStatus maps a device recognition status event onto the stream
// handlers: "error" carries the error kind, "ended" signals a natural
// stream end.
func (s *VoiceStream) HandleStatus(msg models.VoiceStatusMessage) {
	s.mu.Lock()
	onError, onEnd := s.onError, s.onEnd
	s.mu.Unlock()

	switch msg.Event {
	case "error":
		if onError != nil {
			onError(msg.Error)
		}
	case "ended":
		if onEnd != nil {
			onEnd()
		}
	case "started":
		s.log.Debug("Device %s recognition stream started", msg.DeviceID)
	default:
		s.log.Debug("Unknown voice status event from %s: %s", msg.DeviceID, msg.Event)
	}
}

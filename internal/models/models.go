// internal/models/models.go

package models

import (
	"strings"
	"time"
)

// Trigger constants record what initiated an alert.
const (
	TriggerSOSButton    = "SOS_BUTTON"
	TriggerVoiceKeyword = "VOICE_KEYWORD"
	TriggerTextKeyword  = "TEXT_KEYWORD"
)

// Zone type constants
const (
	ZoneSafe   = "safe"
	ZoneUnsafe = "unsafe"
)

// Contact is a person notified on every dispatched alert. Contacts are
// never edited in place; the client deletes and re-adds.
type Contact struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Phone     string    `json:"phone" db:"phone"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// AlertRecord is the append-only trace of one dispatched alert.
// Coordinates and address are nil when the alert went out without a
// position fix.
type AlertRecord struct {
	ID               int       `json:"id" db:"id"`
	Latitude         *float64  `json:"latitude" db:"latitude"`
	Longitude        *float64  `json:"longitude" db:"longitude"`
	Address          *string   `json:"address" db:"address"`
	TriggeredBy      string    `json:"triggered_by" db:"triggered_by"`
	Message          string    `json:"message" db:"message"`
	ContactsNotified int       `json:"contacts_notified" db:"contacts_notified"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// IncidentReport is a community-submitted safety report.
type IncidentReport struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Latitude    *float64  `json:"latitude" db:"latitude"`
	Longitude   *float64  `json:"longitude" db:"longitude"`
	Address     *string   `json:"address" db:"address"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Zone is a user-marked safe or unsafe area, rendered by the client as
// a fixed-radius circle.
type Zone struct {
	ID        string    `json:"id" db:"id"`
	Type      string    `json:"type" db:"type"`
	Latitude  float64   `json:"latitude" db:"latitude"`
	Longitude float64   `json:"longitude" db:"longitude"`
	Address   *string   `json:"address" db:"address"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// LocationSample is one tracked position. History is bounded to the
// 100 most recent samples.
type LocationSample struct {
	ID         int       `json:"id" db:"id"`
	Latitude   float64   `json:"latitude" db:"latitude"`
	Longitude  float64   `json:"longitude" db:"longitude"`
	Accuracy   *float64  `json:"accuracy" db:"accuracy"`
	RecordedAt time.Time `json:"recorded_at" db:"recorded_at"`
}

// Settings mirrors the client-side user settings record.
type Settings struct {
	Name                  string `json:"name"`
	Phone                 string `json:"phone"`
	TrackingEnabled       bool   `json:"tracking_enabled"`
	AutoSendSOS           bool   `json:"auto_send_sos"`
	VoiceDetectionEnabled bool   `json:"voice_detection_enabled"`
}

// DefaultSettings matches the record a fresh client starts with.
func DefaultSettings() Settings {
	return Settings{VoiceDetectionEnabled: true}
}

// TranscriptMessage is the MQTT payload carrying one speech-to-text
// fragment from a device.
type TranscriptMessage struct {
	DeviceID string `json:"device_id"`
	Text     string `json:"text"`
	Final    bool   `json:"final"`
}

// VoiceStatusMessage reports a device's recognition stream state
// (started, ended, error kinds like "not-allowed").
type VoiceStatusMessage struct {
	DeviceID string `json:"device_id"`
	Event    string `json:"event"`
	Error    string `json:"error,omitempty"`
	Visible  bool   `json:"visible"`
}

// LocationMessage is the MQTT payload for a tracking ping.
type LocationMessage struct {
	DeviceID  string   `json:"device_id"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Accuracy  *float64 `json:"accuracy"`
}

// ExportBundle is the JSON backup shape (contacts, reports, settings),
// matching the safeher-backup.json layout.
type ExportBundle struct {
	EmergencyContacts []Contact        `json:"emergencyContacts"`
	CommunityReports  []IncidentReport `json:"communityReports"`
	UserSettings      Settings         `json:"userSettings"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Services  struct {
		Database bool `json:"database"`
		MQTT     bool `json:"mqtt"`
	} `json:"services"`
}

// NormalizePhone reduces a phone number to a dialable form: digits
// plus an optional leading '+'. Returns "" if nothing dialable remains.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r == '+' && b.Len() == 0 {
			b.WriteRune(r)
		}
	}
	s := b.String()
	if s == "+" || s == "" {
		return ""
	}
	return s
}

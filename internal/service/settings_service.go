package service

import (
	"context"
	"fmt"
	"strconv"

	"SafeHerAPI/internal/logger"
	"SafeHerAPI/internal/models"
	"SafeHerAPI/internal/mqtt"
	"SafeHerAPI/internal/repository"
)

// VoiceController lets the settings layer start and stop voice
// detection when the preference flips.
type VoiceController interface {
	StartVoiceDetection(ctx context.Context) error
	StopVoiceDetection()
}

// ISettingsService manages user settings, the full data wipe, and the
// JSON export bundle.
type ISettingsService interface {
	Get(ctx context.Context) (models.Settings, error)
	Update(ctx context.Context, settings models.Settings) error
	Wipe(ctx context.Context) error
	Export(ctx context.Context) (models.ExportBundle, error)
}

type SettingsService struct {
	settings  repository.ISettingsRepository
	contacts  repository.IContactRepository
	reports   repository.IReportRepository
	zones     repository.IZoneRepository
	locations repository.ILocationRepository
	alerts    repository.IAlertRepository
	voice     VoiceController
	devices   CommandPublisher
	log       *logger.Logger
}

func NewSettingsService(
	settings repository.ISettingsRepository,
	contacts repository.IContactRepository,
	reports repository.IReportRepository,
	zones repository.IZoneRepository,
	locations repository.ILocationRepository,
	alerts repository.IAlertRepository,
	voice VoiceController,
	devices CommandPublisher,
	log *logger.Logger,
) *SettingsService {
	return &SettingsService{
		settings:  settings,
		contacts:  contacts,
		reports:   reports,
		zones:     zones,
		locations: locations,
		alerts:    alerts,
		voice:     voice,
		devices:   devices,
		log:       log,
	}
}

// Get assembles the settings record from stored preferences. Keys that
// were never written fall back to the defaults a fresh client gets.
func (s *SettingsService) Get(ctx context.Context) (models.Settings, error) {
	out := models.DefaultSettings()

	var err error
	if out.Name, err = s.settings.Get(ctx, repository.PrefUserName); err != nil {
		return out, err
	}
	if out.Phone, err = s.settings.Get(ctx, repository.PrefUserPhone); err != nil {
		return out, err
	}

	if v, err := s.settings.Get(ctx, repository.PrefVoiceDetection); err != nil {
		return out, err
	} else if v != "" {
		out.VoiceDetectionEnabled = v == "true"
	}
	if v, err := s.settings.Get(ctx, repository.PrefTracking); err != nil {
		return out, err
	} else if v != "" {
		out.TrackingEnabled = v == "true"
	}
	if v, err := s.settings.Get(ctx, repository.PrefAutoSendSOS); err != nil {
		return out, err
	} else if v != "" {
		out.AutoSendSOS = v == "true"
	}

	return out, nil
}

// Update persists every preference and applies the toggles: the voice
// switch goes to the running listener, the tracking switch is pushed
// out to the device fleet. Starting the listener can legitimately fail
// (for example in an unsupported environment); the preference is
// persisted either way.
func (s *SettingsService) Update(ctx context.Context, settings models.Settings) error {
	before, err := s.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to read current settings: %w", err)
	}

	pairs := map[string]string{
		repository.PrefUserName:       settings.Name,
		repository.PrefUserPhone:      models.NormalizePhone(settings.Phone),
		repository.PrefVoiceDetection: strconv.FormatBool(settings.VoiceDetectionEnabled),
		repository.PrefTracking:       strconv.FormatBool(settings.TrackingEnabled),
		repository.PrefAutoSendSOS:    strconv.FormatBool(settings.AutoSendSOS),
	}
	for key, value := range pairs {
		if err := s.settings.Set(ctx, key, value); err != nil {
			return fmt.Errorf("failed to persist setting %s: %w", key, err)
		}
	}

	if s.voice != nil && before.VoiceDetectionEnabled != settings.VoiceDetectionEnabled {
		if settings.VoiceDetectionEnabled {
			if err := s.voice.StartVoiceDetection(ctx); err != nil {
				s.log.Warn("Voice detection could not start: %v", err)
			}
		} else {
			s.voice.StopVoiceDetection()
		}
	}

	if s.devices != nil && before.TrackingEnabled != settings.TrackingEnabled {
		err := s.devices.BroadcastCommand(mqtt.Command{
			Type:    mqtt.CommandTrackingControl,
			Payload: map[string]interface{}{"enabled": settings.TrackingEnabled},
		})
		if err != nil {
			s.log.Warn("Could not broadcast tracking control: %v", err)
		}
	}

	s.log.Info("Settings updated")
	return nil
}

// Wipe deletes every stored record: contacts, reports, zones, location
// history, alert history, and preferences. This is the only path that
// removes alert records.
func (s *SettingsService) Wipe(ctx context.Context) error {
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"contacts", s.contacts.DeleteAll},
		{"reports", s.reports.DeleteAll},
		{"zones", s.zones.DeleteAll},
		{"location history", s.locations.DeleteAll},
		{"alert history", s.alerts.DeleteAll},
		{"settings", s.settings.DeleteAll},
	}

	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			return fmt.Errorf("wipe failed at %s: %w", step.name, err)
		}
	}

	s.log.Warn("All stored data wiped")
	return nil
}

// Export builds the backup bundle: contacts, reports and settings in
// the safeher-backup.json layout.
func (s *SettingsService) Export(ctx context.Context) (models.ExportBundle, error) {
	var bundle models.ExportBundle

	contacts, err := s.contacts.List(ctx)
	if err != nil {
		return bundle, fmt.Errorf("export failed loading contacts: %w", err)
	}
	reports, err := s.reports.List(ctx, 1000, 0)
	if err != nil {
		return bundle, fmt.Errorf("export failed loading reports: %w", err)
	}
	settings, err := s.Get(ctx)
	if err != nil {
		return bundle, fmt.Errorf("export failed loading settings: %w", err)
	}

	bundle.EmergencyContacts = contacts
	bundle.CommunityReports = reports
	bundle.UserSettings = settings
	return bundle, nil
}

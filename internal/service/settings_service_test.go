package service

import (
	"context"
	"testing"

	"SafeHerAPI/internal/logger"
	"SafeHerAPI/internal/models"
	"SafeHerAPI/internal/mqtt"
	"SafeHerAPI/internal/repository"
)

type memSettingsRepo struct {
	values map[string]string
}

func newMemSettingsRepo() *memSettingsRepo {
	return &memSettingsRepo{values: make(map[string]string)}
}

func (r *memSettingsRepo) Get(ctx context.Context, key string) (string, error) {
	return r.values[key], nil
}

func (r *memSettingsRepo) Set(ctx context.Context, key, value string) error {
	r.values[key] = value
	return nil
}

func (r *memSettingsRepo) DeleteAll(ctx context.Context) error {
	r.values = make(map[string]string)
	return nil
}

type fakeCommandPublisher struct {
	commands []mqtt.Command
}

func (p *fakeCommandPublisher) BroadcastCommand(cmd mqtt.Command) error {
	p.commands = append(p.commands, cmd)
	return nil
}

type fakeVoiceController struct {
	started int
	stopped int
}

func (c *fakeVoiceController) StartVoiceDetection(ctx context.Context) error {
	c.started++
	return nil
}

func (c *fakeVoiceController) StopVoiceDetection() {
	c.stopped++
}

func newTestSettingsService() (*SettingsService, *memSettingsRepo, *fakeCommandPublisher, *fakeVoiceController) {
	repo := newMemSettingsRepo()
	publisher := &fakeCommandPublisher{}
	voice := &fakeVoiceController{}
	svc := NewSettingsService(repo, nil, nil, nil, nil, nil, voice, publisher, logger.Discard())
	return svc, repo, publisher, voice
}

func TestUpdatePushesTrackingToggleToDevices(t *testing.T) {
	svc, repo, publisher, _ := newTestSettingsService()
	ctx := context.Background()

	settings := models.DefaultSettings()
	settings.TrackingEnabled = true
	if err := svc.Update(ctx, settings); err != nil {
		t.Fatal(err)
	}

	if repo.values[repository.PrefTracking] != "true" {
		t.Errorf("tracking preference = %q, want \"true\"", repo.values[repository.PrefTracking])
	}
	if len(publisher.commands) != 1 {
		t.Fatalf("got %d commands, want 1", len(publisher.commands))
	}
	cmd := publisher.commands[0]
	if cmd.Type != mqtt.CommandTrackingControl {
		t.Errorf("command type = %q, want %q", cmd.Type, mqtt.CommandTrackingControl)
	}
	if cmd.Payload["enabled"] != true {
		t.Errorf("payload = %v, want enabled=true", cmd.Payload)
	}

	// Flipping back off reaches the fleet too.
	settings.TrackingEnabled = false
	if err := svc.Update(ctx, settings); err != nil {
		t.Fatal(err)
	}
	if len(publisher.commands) != 2 {
		t.Fatalf("got %d commands after toggle off, want 2", len(publisher.commands))
	}
	if publisher.commands[1].Payload["enabled"] != false {
		t.Errorf("second payload = %v, want enabled=false", publisher.commands[1].Payload)
	}
}

func TestUpdateSkipsTrackingCommandWhenUnchanged(t *testing.T) {
	svc, _, publisher, _ := newTestSettingsService()

	// Tracking stays at its default; only the name changes.
	settings := models.DefaultSettings()
	settings.Name = "Asha"
	if err := svc.Update(context.Background(), settings); err != nil {
		t.Fatal(err)
	}

	if len(publisher.commands) != 0 {
		t.Errorf("unchanged tracking setting broadcast commands: %v", publisher.commands)
	}
}

func TestUpdateTogglesVoiceDetection(t *testing.T) {
	svc, _, _, voice := newTestSettingsService()
	ctx := context.Background()

	settings := models.DefaultSettings()
	settings.VoiceDetectionEnabled = false
	if err := svc.Update(ctx, settings); err != nil {
		t.Fatal(err)
	}
	if voice.stopped != 1 {
		t.Errorf("stopped = %d, want 1", voice.stopped)
	}

	settings.VoiceDetectionEnabled = true
	if err := svc.Update(ctx, settings); err != nil {
		t.Fatal(err)
	}
	if voice.started != 1 {
		t.Errorf("started = %d, want 1", voice.started)
	}
}

package service

import (
	"context"
	"fmt"

	"SafeHerAPI/internal/logger"
	"SafeHerAPI/internal/models"
	"SafeHerAPI/internal/repository"
	"SafeHerAPI/internal/websocket"
)

// IZoneService defines the business logic for marked safe and unsafe
// areas.
type IZoneService interface {
	Mark(ctx context.Context, zone *models.Zone) (*models.Zone, error)
	List(ctx context.Context, zoneType string) ([]models.Zone, error)
}

type ZoneService struct {
	repo repository.IZoneRepository
	hub  Broadcaster
	log  *logger.Logger
}

func NewZoneService(repo repository.IZoneRepository, hub Broadcaster, log *logger.Logger) *ZoneService {
	return &ZoneService{repo: repo, hub: hub, log: log}
}

func (s *ZoneService) Mark(ctx context.Context, zone *models.Zone) (*models.Zone, error) {
	if zone.Type != models.ZoneSafe && zone.Type != models.ZoneUnsafe {
		return nil, fmt.Errorf("zone type must be %q or %q", models.ZoneSafe, models.ZoneUnsafe)
	}

	if err := s.repo.Create(ctx, zone); err != nil {
		return nil, fmt.Errorf("failed to mark zone: %w", err)
	}

	s.log.Info("Zone marked %s at %.5f,%.5f", zone.Type, zone.Latitude, zone.Longitude)
	if s.hub != nil {
		s.hub.Broadcast(websocket.TypeZone, zone)
	}
	return zone, nil
}

// List returns all zones, or only one type when zoneType is set.
func (s *ZoneService) List(ctx context.Context, zoneType string) ([]models.Zone, error) {
	if zoneType == "" {
		return s.repo.List(ctx)
	}
	if zoneType != models.ZoneSafe && zoneType != models.ZoneUnsafe {
		return nil, fmt.Errorf("unknown zone type %q", zoneType)
	}
	return s.repo.ListByType(ctx, zoneType)
}

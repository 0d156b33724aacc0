package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"SafeHerAPI/internal/alert"
	"SafeHerAPI/internal/logger"
	"SafeHerAPI/internal/models"
	"SafeHerAPI/internal/repository"
	"SafeHerAPI/internal/websocket"
)

// maxFixAge is how old a tracked sample may be and still serve as the
// current position during a dispatch.
const maxFixAge = 2 * time.Minute

// ILocationService records tracking pings and answers position
// queries. It doubles as the dispatcher's Positioner.
type ILocationService interface {
	Record(ctx context.Context, sample *models.LocationSample) error
	History(ctx context.Context) ([]models.LocationSample, error)
	Latest() (models.LocationSample, bool)
	CurrentPosition(ctx context.Context) (*alert.Position, error)
}

type LocationService struct {
	repo   repository.ILocationRepository
	window *LocationWindow
	hub    Broadcaster
	log    *logger.Logger

	mu      sync.Mutex
	waiters []chan models.LocationSample
}

func NewLocationService(repo repository.ILocationRepository, hub Broadcaster, log *logger.Logger) *LocationService {
	return &LocationService{
		repo:   repo,
		window: NewLocationWindow(repository.HistoryCap),
		hub:    hub,
		log:    log,
	}
}

// Record persists a tracking ping, mirrors it into the in-memory
// window, and wakes anyone blocked on a position fix.
func (s *LocationService) Record(ctx context.Context, sample *models.LocationSample) error {
	if err := s.repo.Insert(ctx, sample); err != nil {
		return fmt.Errorf("failed to record location sample: %w", err)
	}

	s.window.Add(*sample)

	s.mu.Lock()
	waiters := s.waiters
	s.waiters = nil
	s.mu.Unlock()
	for _, ch := range waiters {
		ch <- *sample
	}

	if s.hub != nil {
		s.hub.Broadcast(websocket.TypeLocation, sample)
	}
	return nil
}

func (s *LocationService) History(ctx context.Context) ([]models.LocationSample, error) {
	return s.repo.History(ctx)
}

func (s *LocationService) Latest() (models.LocationSample, bool) {
	return s.window.Latest()
}

// CurrentPosition answers with the latest tracked sample when it is
// fresh enough, otherwise blocks for the next ping until the context
// expires. Mirrors a bounded getCurrentPosition call.
func (s *LocationService) CurrentPosition(ctx context.Context) (*alert.Position, error) {
	if sample, ok := s.window.Latest(); ok && time.Since(sample.RecordedAt) <= maxFixAge {
		return positionFrom(sample), nil
	}

	ch := make(chan models.LocationSample, 1)
	s.mu.Lock()
	s.waiters = append(s.waiters, ch)
	s.mu.Unlock()

	select {
	case sample := <-ch:
		return positionFrom(sample), nil
	case <-ctx.Done():
		s.dropWaiter(ch)
		return nil, fmt.Errorf("no recent position fix: %w", ctx.Err())
	}
}

func (s *LocationService) dropWaiter(ch chan models.LocationSample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, w := range s.waiters {
		if w == ch {
			s.waiters = append(s.waiters[:i], s.waiters[i+1:]...)
			return
		}
	}
}

func positionFrom(sample models.LocationSample) *alert.Position {
	return &alert.Position{
		Latitude:  sample.Latitude,
		Longitude: sample.Longitude,
		Accuracy:  sample.Accuracy,
	}
}

// HandleLocation is the MQTT handler for device tracking pings.
func (s *LocationService) HandleLocation(topic string, payload []byte) error {
	var msg models.LocationMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("malformed location payload: %w", err)
	}

	sample := &models.LocationSample{
		Latitude:  msg.Latitude,
		Longitude: msg.Longitude,
		Accuracy:  msg.Accuracy,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Record(ctx, sample)
}

package service

import (
	"context"

	"SafeHerAPI/internal/models"
	"SafeHerAPI/internal/repository"
	"SafeHerAPI/internal/websocket"
)

// BroadcastRecorder persists alert records and pushes each new one to
// connected clients, so history views update without a refetch.
type BroadcastRecorder struct {
	repo repository.IAlertRepository
	hub  Broadcaster
}

func NewBroadcastRecorder(repo repository.IAlertRepository, hub Broadcaster) *BroadcastRecorder {
	return &BroadcastRecorder{repo: repo, hub: hub}
}

func (r *BroadcastRecorder) Create(ctx context.Context, record *models.AlertRecord) error {
	if err := r.repo.Create(ctx, record); err != nil {
		return err
	}
	if r.hub != nil {
		r.hub.Broadcast(websocket.TypeAlert, record)
	}
	return nil
}

package service

import (
	"context"
	"fmt"
	"strings"

	"SafeHerAPI/internal/logger"
	"SafeHerAPI/internal/models"
	"SafeHerAPI/internal/repository"
	"SafeHerAPI/internal/websocket"
)

// IContactService defines the business logic for emergency contacts.
// There is no update: the client deletes and re-adds, matching the
// stored-record lifecycle.
type IContactService interface {
	Add(ctx context.Context, name, phone string) (*models.Contact, error)
	Get(ctx context.Context, id string) (*models.Contact, error)
	List(ctx context.Context) ([]models.Contact, error)
	Remove(ctx context.Context, id string) error
}

type ContactService struct {
	repo repository.IContactRepository
	hub  Broadcaster
	log  *logger.Logger
}

func NewContactService(repo repository.IContactRepository, hub Broadcaster, log *logger.Logger) *ContactService {
	return &ContactService{repo: repo, hub: hub, log: log}
}

func (s *ContactService) Add(ctx context.Context, name, phone string) (*models.Contact, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("contact name cannot be empty")
	}

	normalized := models.NormalizePhone(phone)
	if normalized == "" {
		return nil, fmt.Errorf("contact phone number is not dialable: %q", phone)
	}

	contact := &models.Contact{Name: name, Phone: normalized}
	if err := s.repo.Create(ctx, contact); err != nil {
		return nil, fmt.Errorf("failed to add contact: %w", err)
	}

	s.log.Info("Emergency contact added: %s", contact.Name)
	s.notify(contact)
	return contact, nil
}

func (s *ContactService) Get(ctx context.Context, id string) (*models.Contact, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ContactService) List(ctx context.Context) ([]models.Contact, error) {
	return s.repo.List(ctx)
}

func (s *ContactService) Remove(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to remove contact %s: %w", id, err)
	}
	// Watching clients need the id to drop the right row.
	if s.hub != nil {
		s.hub.Broadcast(websocket.TypeContact, map[string]string{"deleted": id})
	}
	return nil
}

func (s *ContactService) notify(contact *models.Contact) {
	if s.hub != nil {
		s.hub.Broadcast(websocket.TypeContact, contact)
	}
}

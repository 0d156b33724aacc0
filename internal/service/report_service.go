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

// IReportService defines the business logic for community incident
// reports.
type IReportService interface {
	Create(ctx context.Context, report *models.IncidentReport) (*models.IncidentReport, error)
	List(ctx context.Context, limit, offset int) ([]models.IncidentReport, error)
	Remove(ctx context.Context, id string) error
}

type ReportService struct {
	repo repository.IReportRepository
	hub  Broadcaster
	log  *logger.Logger
}

func NewReportService(repo repository.IReportRepository, hub Broadcaster, log *logger.Logger) *ReportService {
	return &ReportService{repo: repo, hub: hub, log: log}
}

func (s *ReportService) Create(ctx context.Context, report *models.IncidentReport) (*models.IncidentReport, error) {
	report.Title = strings.TrimSpace(report.Title)
	report.Description = strings.TrimSpace(report.Description)
	if report.Title == "" || report.Description == "" {
		return nil, fmt.Errorf("report title and description are required")
	}

	if err := s.repo.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to create incident report: %w", err)
	}

	s.log.Info("Incident report submitted: %s", report.Title)
	if s.hub != nil {
		s.hub.Broadcast(websocket.TypeReport, report)
	}
	return report, nil
}

func (s *ReportService) List(ctx context.Context, limit, offset int) ([]models.IncidentReport, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *ReportService) Remove(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to remove report %s: %w", id, err)
	}
	if s.hub != nil {
		s.hub.Broadcast(websocket.TypeReport, map[string]string{"deleted": id})
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"SafeHerAPI/internal/models"

	"github.com/google/uuid"
)

// IReportRepository defines the operations for community incident reports.
type IReportRepository interface {
	Create(ctx context.Context, report *models.IncidentReport) error
	List(ctx context.Context, limit int, offset int) ([]models.IncidentReport, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
}

type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) Create(ctx context.Context, report *models.IncidentReport) error {
	query := `
		INSERT INTO reports (id, title, description, latitude, longitude, address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	report.ID = uuid.NewString()
	report.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		report.ID, report.Title, report.Description,
		report.Latitude, report.Longitude, report.Address, report.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}

	return nil
}

// List returns reports newest first. A non-positive limit falls back
// to the default page size.
func (r *ReportRepository) List(ctx context.Context, limit int, offset int) ([]models.IncidentReport, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, title, description, latitude, longitude, address, created_at
		FROM reports
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []models.IncidentReport
	for rows.Next() {
		var rep models.IncidentReport
		err := rows.Scan(
			&rep.ID, &rep.Title, &rep.Description,
			&rep.Latitude, &rep.Longitude, &rep.Address, &rep.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	return reports, nil
}

func (r *ReportRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM reports WHERE id = $1`, id)
	return err
}

func (r *ReportRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM reports`)
	return err
}

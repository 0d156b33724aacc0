package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"SafeHerAPI/internal/models"
)

// IAlertRepository defines the operations for dispatched alert records.
// Records are append-only: there is no update path, and the only delete
// is the full data wipe.
type IAlertRepository interface {
	Create(ctx context.Context, record *models.AlertRecord) error
	GetByID(ctx context.Context, id int) (*models.AlertRecord, error)
	GetHistory(ctx context.Context, limit int, offset int) ([]models.AlertRecord, error)
	Count(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context) error
}

type AlertRepository struct {
	db *sql.DB
}

func NewAlertRepository(db *sql.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// Create inserts a new alert record and returns the generated ID.
func (r *AlertRepository) Create(ctx context.Context, record *models.AlertRecord) error {
	query := `
		INSERT INTO alerts (latitude, longitude, address, triggered_by, message, contacts_notified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	record.CreatedAt = time.Now()

	err := r.db.QueryRowContext(
		ctx, query,
		record.Latitude,
		record.Longitude,
		record.Address,
		record.TriggeredBy,
		record.Message,
		record.ContactsNotified,
		record.CreatedAt,
	).Scan(&record.ID)

	if err != nil {
		return fmt.Errorf("failed to create alert record: %w", err)
	}

	return nil
}

func (r *AlertRepository) GetByID(ctx context.Context, id int) (*models.AlertRecord, error) {
	query := `
		SELECT id, latitude, longitude, address, triggered_by, message, contacts_notified, created_at
		FROM alerts
		WHERE id = $1
	`

	record := &models.AlertRecord{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&record.ID,
		&record.Latitude,
		&record.Longitude,
		&record.Address,
		&record.TriggeredBy,
		&record.Message,
		&record.ContactsNotified,
		&record.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alert by id: %w", err)
	}

	return record, nil
}

// GetHistory returns a paginated list of alerts, newest first. A
// non-positive limit falls back to the default page size.
func (r *AlertRepository) GetHistory(ctx context.Context, limit int, offset int) ([]models.AlertRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, latitude, longitude, address, triggered_by, message, contacts_notified, created_at
		FROM alerts
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query alert history: %w", err)
	}
	defer rows.Close()

	var records []models.AlertRecord
	for rows.Next() {
		var a models.AlertRecord
		err := rows.Scan(
			&a.ID, &a.Latitude, &a.Longitude, &a.Address,
			&a.TriggeredBy, &a.Message, &a.ContactsNotified, &a.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, a)
	}
	return records, nil
}

func (r *AlertRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM alerts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count alerts: %w", err)
	}
	return count, nil
}

// DeleteAll is only reachable through the full data wipe.
func (r *AlertRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM alerts`)
	return err
}

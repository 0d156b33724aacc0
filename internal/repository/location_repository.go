package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"SafeHerAPI/internal/models"
)

// HistoryCap bounds the persisted location history. Oldest samples are
// evicted inside the same transaction as the insert, so the table never
// holds more than this many rows.
const HistoryCap = 100

// ILocationRepository defines the operations for the tracked location history.
type ILocationRepository interface {
	Insert(ctx context.Context, sample *models.LocationSample) error
	History(ctx context.Context) ([]models.LocationSample, error)
	DeleteAll(ctx context.Context) error
}

type LocationRepository struct {
	db *sql.DB
}

func NewLocationRepository(db *sql.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

// Insert appends a sample and prunes anything beyond the newest
// HistoryCap rows.
func (r *LocationRepository) Insert(ctx context.Context, sample *models.LocationSample) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin location insert: %w", err)
	}
	defer tx.Rollback()

	sample.RecordedAt = time.Now()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO location_history (latitude, longitude, accuracy, recorded_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, sample.Latitude, sample.Longitude, sample.Accuracy, sample.RecordedAt).Scan(&sample.ID)
	if err != nil {
		return fmt.Errorf("failed to insert location sample: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM location_history
		WHERE id NOT IN (
			SELECT id FROM location_history
			ORDER BY recorded_at DESC, id DESC
			LIMIT $1
		)
	`, HistoryCap)
	if err != nil {
		return fmt.Errorf("failed to prune location history: %w", err)
	}

	return tx.Commit()
}

// History returns the retained samples in arrival order (oldest first).
func (r *LocationRepository) History(ctx context.Context) ([]models.LocationSample, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, latitude, longitude, accuracy, recorded_at
		FROM location_history
		ORDER BY recorded_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query location history: %w", err)
	}
	defer rows.Close()

	var samples []models.LocationSample
	for rows.Next() {
		var s models.LocationSample
		if err := rows.Scan(&s.ID, &s.Latitude, &s.Longitude, &s.Accuracy, &s.RecordedAt); err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	return samples, nil
}

func (r *LocationRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM location_history`)
	return err
}

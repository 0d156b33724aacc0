package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"SafeHerAPI/internal/models"

	"github.com/google/uuid"
)

// IZoneRepository defines the operations for safe/unsafe zone marks.
type IZoneRepository interface {
	Create(ctx context.Context, zone *models.Zone) error
	List(ctx context.Context) ([]models.Zone, error)
	ListByType(ctx context.Context, zoneType string) ([]models.Zone, error)
	DeleteAll(ctx context.Context) error
}

type ZoneRepository struct {
	db *sql.DB
}

func NewZoneRepository(db *sql.DB) *ZoneRepository {
	return &ZoneRepository{db: db}
}

func (r *ZoneRepository) Create(ctx context.Context, zone *models.Zone) error {
	query := `
		INSERT INTO zones (id, type, latitude, longitude, address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	zone.ID = uuid.NewString()
	zone.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		zone.ID, zone.Type, zone.Latitude, zone.Longitude, zone.Address, zone.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create zone: %w", err)
	}

	return nil
}

func (r *ZoneRepository) List(ctx context.Context) ([]models.Zone, error) {
	return r.query(ctx, `
		SELECT id, type, latitude, longitude, address, created_at
		FROM zones
		ORDER BY created_at ASC
	`)
}

func (r *ZoneRepository) ListByType(ctx context.Context, zoneType string) ([]models.Zone, error) {
	return r.query(ctx, `
		SELECT id, type, latitude, longitude, address, created_at
		FROM zones
		WHERE type = $1
		ORDER BY created_at ASC
	`, zoneType)
}

func (r *ZoneRepository) query(ctx context.Context, q string, args ...interface{}) ([]models.Zone, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query zones: %w", err)
	}
	defer rows.Close()

	var zones []models.Zone
	for rows.Next() {
		var z models.Zone
		if err := rows.Scan(&z.ID, &z.Type, &z.Latitude, &z.Longitude, &z.Address, &z.CreatedAt); err != nil {
			return nil, err
		}
		zones = append(zones, z)
	}
	return zones, nil
}

func (r *ZoneRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM zones`)
	return err
}

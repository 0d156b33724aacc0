package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"SafeHerAPI/internal/models"

	"github.com/google/uuid"
)

// IContactRepository defines the operations for the emergency contact list.
type IContactRepository interface {
	Create(ctx context.Context, contact *models.Contact) error
	GetByID(ctx context.Context, id string) (*models.Contact, error)
	List(ctx context.Context) ([]models.Contact, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
}

type ContactRepository struct {
	db *sql.DB
}

func NewContactRepository(db *sql.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// Create inserts a new contact with a generated key.
func (r *ContactRepository) Create(ctx context.Context, contact *models.Contact) error {
	query := `
		INSERT INTO contacts (id, name, phone, created_at)
		VALUES ($1, $2, $3, $4)
	`

	contact.ID = uuid.NewString()
	contact.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query, contact.ID, contact.Name, contact.Phone, contact.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}

	return nil
}

func (r *ContactRepository) GetByID(ctx context.Context, id string) (*models.Contact, error) {
	query := `SELECT id, name, phone, created_at FROM contacts WHERE id = $1`

	contact := &models.Contact{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&contact.ID,
		&contact.Name,
		&contact.Phone,
		&contact.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact by id: %w", err)
	}

	return contact, nil
}

// List returns all contacts in insertion order.
func (r *ContactRepository) List(ctx context.Context) ([]models.Contact, error) {
	query := `SELECT id, name, phone, created_at FROM contacts ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query contacts: %w", err)
	}
	defer rows.Close()

	var contacts []models.Contact
	for rows.Next() {
		var c models.Contact
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.CreatedAt); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}

	return contacts, nil
}

func (r *ContactRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM contacts WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// DeleteAll is only reachable through the full data wipe.
func (r *ContactRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM contacts`)
	return err
}

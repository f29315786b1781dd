package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"contacthub/api/internal/models"
)

var ErrContactNotFound = errors.New("contact not found")

type ContactRepository struct {
	pool *pgxpool.Pool
}

func NewContactRepository(pool *pgxpool.Pool) *ContactRepository {
	return &ContactRepository{pool: pool}
}

const contactColumns = `id, owner_id, name, email, phone, favorite, created_at, updated_at`

func scanContact(row pgx.Row) (models.Contact, error) {
	var contact models.Contact
	if err := row.Scan(
		&contact.ID,
		&contact.OwnerID,
		&contact.Name,
		&contact.Email,
		&contact.Phone,
		&contact.Favorite,
		&contact.CreatedAt,
		&contact.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Contact{}, ErrContactNotFound
		}
		return models.Contact{}, err
	}
	return contact, nil
}

func (r *ContactRepository) Create(ctx context.Context, contact models.Contact) error {
	const query = `
		INSERT INTO contacts (
			id, owner_id, name, email, phone, favorite, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, NOW(), NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		contact.ID,
		contact.OwnerID,
		contact.Name,
		contact.Email,
		contact.Phone,
		contact.Favorite,
	)
	return err
}

func (r *ContactRepository) GetByID(ctx context.Context, id string) (models.Contact, error) {
	const query = `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1`
	return scanContact(r.pool.QueryRow(ctx, query, id))
}

func (r *ContactRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]models.Contact, error) {
	const query = `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE owner_id = $1
		ORDER BY created_at
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []models.Contact
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, contact)
	}
	return contacts, rows.Err()
}

// Update replaces name, email and phone wholesale and returns the
// resulting row.
func (r *ContactRepository) Update(ctx context.Context, id string, name, email, phone string) (models.Contact, error) {
	const query = `
		UPDATE contacts
		SET name = $2, email = $3, phone = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + contactColumns

	return scanContact(r.pool.QueryRow(ctx, query, id, name, email, phone))
}

func (r *ContactRepository) UpdateFavorite(ctx context.Context, id string, favorite bool) (models.Contact, error) {
	const query = `
		UPDATE contacts
		SET favorite = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + contactColumns

	return scanContact(r.pool.QueryRow(ctx, query, id, favorite))
}

func (r *ContactRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM contacts WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrContactNotFound
	}
	return nil
}

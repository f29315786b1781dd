package service

import (
	"context"

	"contacthub/api/internal/ids"
	"contacthub/api/internal/models"
)

const (
	defaultPage  = 1
	defaultLimit = 20
)

type ContactStore interface {
	Create(ctx context.Context, contact models.Contact) error
	GetByID(ctx context.Context, id string) (models.Contact, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]models.Contact, error)
	Update(ctx context.Context, id string, name, email, phone string) (models.Contact, error)
	UpdateFavorite(ctx context.Context, id string, favorite bool) (models.Contact, error)
	Delete(ctx context.Context, id string) error
}

type ContactService struct {
	contacts ContactStore
}

func NewContactService(contacts ContactStore) *ContactService {
	return &ContactService{contacts: contacts}
}

// List returns the owner's contacts, paginated with offset
// (page-1)*limit. Page and limit fall back to 1 and 20.
func (s *ContactService) List(ctx context.Context, ownerID string, page, limit int) ([]models.Contact, error) {
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	offset := (page - 1) * limit

	return s.contacts.ListByOwner(ctx, ownerID, limit, offset)
}

func (s *ContactService) Get(ctx context.Context, id string) (models.Contact, error) {
	parsed, err := ids.Parse(id)
	if err != nil {
		return models.Contact{}, err
	}
	return s.contacts.GetByID(ctx, parsed)
}

func (s *ContactService) Create(ctx context.Context, ownerID string, name, email, phone string) (models.Contact, error) {
	contact := models.Contact{
		ID:      ids.New(),
		OwnerID: ownerID,
		Name:    name,
		Email:   email,
		Phone:   phone,
	}
	if err := s.contacts.Create(ctx, contact); err != nil {
		return models.Contact{}, err
	}
	return contact, nil
}

func (s *ContactService) Update(ctx context.Context, id string, name, email, phone string) (models.Contact, error) {
	parsed, err := ids.Parse(id)
	if err != nil {
		return models.Contact{}, err
	}
	return s.contacts.Update(ctx, parsed, name, email, phone)
}

func (s *ContactService) SetFavorite(ctx context.Context, id string, favorite bool) (models.Contact, error) {
	parsed, err := ids.Parse(id)
	if err != nil {
		return models.Contact{}, err
	}
	return s.contacts.UpdateFavorite(ctx, parsed, favorite)
}

func (s *ContactService) Delete(ctx context.Context, id string) error {
	parsed, err := ids.Parse(id)
	if err != nil {
		return err
	}
	return s.contacts.Delete(ctx, parsed)
}

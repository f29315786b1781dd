package models

import "time"

// Contact belongs to exactly one owning user. Listing is always scoped
// to the owner; deletion is permanent.
type Contact struct {
	ID        string
	OwnerID   string
	Name      string
	Email     string
	Phone     string
	Favorite  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

package models

import "time"

type Subscription string

const (
	SubscriptionStarter  Subscription = "starter"
	SubscriptionPro      Subscription = "pro"
	SubscriptionBusiness Subscription = "business"
)

func (s Subscription) Valid() bool {
	switch s {
	case SubscriptionStarter, SubscriptionPro, SubscriptionBusiness:
		return true
	}
	return false
}

// User is an account record. SessionToken holds the single live session
// token while the user is logged in; VerificationToken is cleared once
// the email address has been confirmed.
type User struct {
	ID                string
	Email             string
	PasswordHash      []byte
	Subscription      Subscription
	SessionToken      *string
	AvatarURL         string
	Verified          bool
	VerificationToken *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

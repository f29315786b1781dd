package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"contacthub/api/internal/ids"
	"contacthub/api/internal/models"
	"contacthub/api/internal/repository"
	"contacthub/api/internal/security"
)

var (
	ErrInvalidCredentials  = errors.New("email or password is wrong")
	ErrNotVerified         = errors.New("email not verified")
	ErrAlreadyVerified     = errors.New("verification has already been passed")
	ErrResendLimitExceeded = errors.New("too many verification requests")
	ErrInvalidSubscription = errors.New("invalid subscription tier")
)

// UserStore is the credential store contract. The pgx repository is the
// production implementation; tests use an in-memory fake.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	FindByVerificationToken(ctx context.Context, token string) (models.User, error)
	UpdateSessionToken(ctx context.Context, id string, token *string) error
	UpdateAvatarURL(ctx context.Context, id string, url string) error
	UpdateSubscription(ctx context.Context, id string, sub models.Subscription) error
	MarkVerified(ctx context.Context, id string) error
}

type VerificationMailer interface {
	EnqueueVerification(ctx context.Context, to string, token string) error
}

type ResendLimiter interface {
	Allow(ctx context.Context, email string) (bool, error)
}

type AuthService struct {
	users      UserStore
	mailer     VerificationMailer
	limiter    ResendLimiter
	jwtSecret  string
	sessionTTL time.Duration
	log        zerolog.Logger
}

func NewAuthService(
	users UserStore,
	mailer VerificationMailer,
	limiter ResendLimiter,
	jwtSecret string,
	sessionTTL time.Duration,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:      users,
		mailer:     mailer,
		limiter:    limiter,
		jwtSecret:  jwtSecret,
		sessionTTL: sessionTTL,
		log:        log,
	}
}

// Signup creates an unverified account and dispatches the verification
// email. Duplicate emails surface as repository.ErrEmailInUse. A mail
// dispatch failure is logged, not returned, since the stored token can
// be re-sent later.
func (s *AuthService) Signup(ctx context.Context, email string, password string) (models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}

	verificationToken, err := security.GenerateVerificationToken()
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		ID:                ids.New(),
		Email:             email,
		PasswordHash:      passwordHash,
		Subscription:      models.SubscriptionStarter,
		AvatarURL:         placeholderAvatarURL(email),
		Verified:          false,
		VerificationToken: &verificationToken,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return models.User{}, err
	}

	if err := s.mailer.EnqueueVerification(ctx, user.Email, verificationToken); err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("verification mail dispatch failed")
	}

	return user, nil
}

// Login verifies credentials, requires a verified account, then issues
// a session token and stores it as the user's single live session.
// Issuing a new token implicitly invalidates any previous one.
func (s *AuthService) Login(ctx context.Context, email string, password string) (string, models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", models.User{}, ErrInvalidCredentials
		}
		return "", models.User{}, err
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return "", models.User{}, ErrInvalidCredentials
	}

	if !user.Verified {
		return "", models.User{}, ErrNotVerified
	}

	token, err := security.IssueSessionToken(s.jwtSecret, user.ID, s.sessionTTL)
	if err != nil {
		return "", models.User{}, err
	}

	if err := s.users.UpdateSessionToken(ctx, user.ID, &token); err != nil {
		return "", models.User{}, err
	}
	user.SessionToken = &token

	return token, user, nil
}

// Logout clears the stored session token. The old token then fails the
// guard's equality check on every later request.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return s.users.UpdateSessionToken(ctx, userID, nil)
}

// Verify consumes a verification token. Consumption is exactly-once:
// the token is cleared together with setting the flag, so a repeat
// lookup fails with ErrUserNotFound.
func (s *AuthService) Verify(ctx context.Context, token string) error {
	user, err := s.users.FindByVerificationToken(ctx, token)
	if err != nil {
		return err
	}
	return s.users.MarkVerified(ctx, user.ID)
}

// ResendVerification re-sends the stored token without rotating it.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	allowed, err := s.limiter.Allow(ctx, email)
	if err != nil {
		s.log.Error().Err(err).Msg("resend limiter check failed")
	} else if !allowed {
		return ErrResendLimitExceeded
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	if user.Verified || user.VerificationToken == nil {
		return ErrAlreadyVerified
	}

	return s.mailer.EnqueueVerification(ctx, user.Email, *user.VerificationToken)
}

func (s *AuthService) UpdateSubscription(ctx context.Context, userID string, sub models.Subscription) (models.User, error) {
	if !sub.Valid() {
		return models.User{}, ErrInvalidSubscription
	}

	if err := s.users.UpdateSubscription(ctx, userID, sub); err != nil {
		return models.User{}, err
	}
	return s.users.GetByID(ctx, userID)
}

// placeholderAvatarURL derives a gravatar identicon from the email, so
// every account has an avatar before uploading one.
func placeholderAvatarURL(email string) string {
	sum := md5.Sum([]byte(email))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%s?d=identicon", hex.EncodeToString(sum[:]))
}

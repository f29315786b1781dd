package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"contacthub/api/internal/config"
	"contacthub/api/internal/models"
	"contacthub/api/internal/repository"
	"contacthub/api/internal/service"
	"contacthub/api/internal/storage"
)

type memUserStore struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]models.User)}
}

func (m *memUserStore) Create(_ context.Context, user models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return repository.ErrEmailInUse
		}
	}
	m.users[user.ID] = user
	return nil
}

func (m *memUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (m *memUserStore) GetByID(_ context.Context, id string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *memUserStore) FindByVerificationToken(_ context.Context, token string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.VerificationToken != nil && *user.VerificationToken == token {
			return user, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (m *memUserStore) UpdateSessionToken(_ context.Context, id string, token *string) error {
	return m.mutate(id, func(user *models.User) { user.SessionToken = token })
}

func (m *memUserStore) UpdateAvatarURL(_ context.Context, id string, url string) error {
	return m.mutate(id, func(user *models.User) { user.AvatarURL = url })
}

func (m *memUserStore) UpdateSubscription(_ context.Context, id string, sub models.Subscription) error {
	return m.mutate(id, func(user *models.User) { user.Subscription = sub })
}

func (m *memUserStore) MarkVerified(_ context.Context, id string) error {
	return m.mutate(id, func(user *models.User) {
		user.Verified = true
		user.VerificationToken = nil
	})
}

func (m *memUserStore) mutate(id string, fn func(*models.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	fn(&user)
	m.users[id] = user
	return nil
}

type memContactStore struct {
	mu       sync.Mutex
	contacts []models.Contact
}

func (m *memContactStore) Create(_ context.Context, contact models.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contacts = append(m.contacts, contact)
	return nil
}

func (m *memContactStore) GetByID(_ context.Context, id string) (models.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, contact := range m.contacts {
		if contact.ID == id {
			return contact, nil
		}
	}
	return models.Contact{}, repository.ErrContactNotFound
}

func (m *memContactStore) ListByOwner(_ context.Context, ownerID string, limit, offset int) ([]models.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var owned []models.Contact
	for _, contact := range m.contacts {
		if contact.OwnerID == ownerID {
			owned = append(owned, contact)
		}
	}
	if offset >= len(owned) {
		return nil, nil
	}
	owned = owned[offset:]
	if len(owned) > limit {
		owned = owned[:limit]
	}
	return owned, nil
}

func (m *memContactStore) Update(_ context.Context, id string, name, email, phone string) (models.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, contact := range m.contacts {
		if contact.ID == id {
			contact.Name = name
			contact.Email = email
			contact.Phone = phone
			m.contacts[i] = contact
			return contact, nil
		}
	}
	return models.Contact{}, repository.ErrContactNotFound
}

func (m *memContactStore) UpdateFavorite(_ context.Context, id string, favorite bool) (models.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, contact := range m.contacts {
		if contact.ID == id {
			contact.Favorite = favorite
			m.contacts[i] = contact
			return contact, nil
		}
	}
	return models.Contact{}, repository.ErrContactNotFound
}

func (m *memContactStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, contact := range m.contacts {
		if contact.ID == id {
			m.contacts = append(m.contacts[:i], m.contacts[i+1:]...)
			return nil
		}
	}
	return repository.ErrContactNotFound
}

type capturingMailer struct {
	mu     sync.Mutex
	to     []string
	tokens []string
}

func (c *capturingMailer) EnqueueVerification(_ context.Context, to string, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.to = append(c.to, to)
	c.tokens = append(c.tokens, token)
	return nil
}

type allowLimiter struct{}

func (allowLimiter) Allow(context.Context, string) (bool, error) { return true, nil }

type testEnv struct {
	engine   *gin.Engine
	cfg      *config.AppConfig
	users    *memUserStore
	contacts *memContactStore
	mailer   *capturingMailer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.AppConfig{
		Environment: "test",
		Security: config.SecurityConfig{
			JWTSecret:  "handler-test-secret",
			SessionTTL: time.Hour,
		},
		Storage: config.StorageConfig{
			TempDir:       t.TempDir(),
			AvatarDir:     t.TempDir(),
			PublicBaseURL: "http://localhost:3000",
			MaxUploadSize: 5 << 20,
		},
	}

	users := newMemUserStore()
	contacts := &memContactStore{}
	mailer := &capturingMailer{}
	logger := zerolog.Nop()

	authSvc := service.NewAuthService(users, mailer, allowLimiter{}, cfg.Security.JWTSecret, cfg.Security.SessionTTL, logger)
	contactSvc := service.NewContactService(contacts)

	store, err := storage.NewDiskStore(cfg.Storage)
	require.NoError(t, err)
	avatarSvc := service.NewAvatarService(users, store, logger)

	h := newHandlerSet(logger, cfg, authSvc, contactSvc, avatarSvc, users, nil, nil)

	engine := gin.New()
	h.Register(engine.Group(""))

	return &testEnv{
		engine:   engine,
		cfg:      cfg,
		users:    users,
		contacts: contacts,
		mailer:   mailer,
	}
}

func (env *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	env.engine.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// signup registers an account and returns its verification token.
func (env *testEnv) signup(t *testing.T, email, password string) string {
	t.Helper()

	rec := env.do(t, http.MethodPost, "/users/signup", gin.H{"email": email, "password": password}, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	token, _ := user["verificationToken"].(string)
	require.NotEmpty(t, token)
	return token
}

// signupVerified registers, verifies and logs in, returning the session
// token.
func (env *testEnv) signupVerified(t *testing.T, email, password string) string {
	t.Helper()

	verifyToken := env.signup(t, email, password)
	rec := env.do(t, http.MethodGet, "/users/verify/"+verifyToken, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/users/login", gin.H{"email": email, "password": password}, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

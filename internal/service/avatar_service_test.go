package service

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"contacthub/api/internal/media"
)

type memAvatarStore struct {
	saved map[string]string
	dir   string
}

func newMemAvatarStore(t *testing.T) *memAvatarStore {
	return &memAvatarStore{saved: make(map[string]string), dir: t.TempDir()}
}

func (m *memAvatarStore) Save(_ context.Context, name string, tempPath string) (string, error) {
	dest := filepath.Join(m.dir, name)
	if err := os.Rename(tempPath, dest); err != nil {
		return "", err
	}
	m.saved[name] = dest
	return "http://localhost/avatars/" + name, nil
}

func writeAvatarPNG(t *testing.T, w, h int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}

	path := filepath.Join(t.TempDir(), "upload.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestAvatarProcess(t *testing.T) {
	users := newMemUserStore()
	store := newMemAvatarStore(t)
	svc := NewAvatarService(users, store, zerolog.Nop())
	ctx := context.Background()

	user, err := NewAuthService(users, &capturingMailer{}, stubLimiter{allow: true}, authTestSecret, 0, zerolog.Nop()).
		Signup(ctx, "a@x.com", "p1secret")
	require.NoError(t, err)

	temp := writeAvatarPNG(t, 500, 320)

	url, err := svc.Process(ctx, user.ID, temp, "selfie.PNG")
	require.NoError(t, err)
	require.Equal(t, "http://localhost/avatars/"+user.ID+".png", url, "filename keyed by user id, extension lowercased")

	stored, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, url, stored.AvatarURL)

	img, err := imaging.Open(store.saved[user.ID+".png"])
	require.NoError(t, err)
	require.Equal(t, 250, img.Bounds().Dx())
	require.Equal(t, 250, img.Bounds().Dy())
}

func TestAvatarProcessRejectsNonImage(t *testing.T) {
	users := newMemUserStore()
	store := newMemAvatarStore(t)
	svc := NewAvatarService(users, store, zerolog.Nop())

	temp := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(temp, []byte("just text"), 0o644))

	_, err := svc.Process(context.Background(), "user-1", temp, "notes.txt")
	require.ErrorIs(t, err, media.ErrUnknownType)
	require.Empty(t, store.saved)
}

func TestAvatarProcessKeepsOriginalWhenResizeFails(t *testing.T) {
	users := newMemUserStore()
	store := newMemAvatarStore(t)
	svc := NewAvatarService(users, store, zerolog.Nop())
	ctx := context.Background()

	user, err := NewAuthService(users, &capturingMailer{}, stubLimiter{allow: true}, authTestSecret, 0, zerolog.Nop()).
		Signup(ctx, "b@x.com", "p1secret")
	require.NoError(t, err)

	// valid WEBP magic but undecodable payload: detection passes,
	// resize fails, the original bytes are still relocated
	payload := append([]byte("RIFF\x10\x00\x00\x00WEBP"), []byte("garbage")...)
	temp := filepath.Join(t.TempDir(), "upload.webp")
	require.NoError(t, os.WriteFile(temp, payload, 0o644))

	url, err := svc.Process(ctx, user.ID, temp, "pic.webp")
	require.NoError(t, err)
	require.Equal(t, "http://localhost/avatars/"+user.ID+".webp", url)

	data, err := os.ReadFile(store.saved[user.ID+".webp"])
	require.NoError(t, err)
	require.Equal(t, payload, data)
}

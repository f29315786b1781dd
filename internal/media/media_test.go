package media

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	cases := []struct {
		name string
		head []byte
		want ImageType
	}{
		{"jpeg", []byte{0xff, 0xd8, 0xff, 0xe0}, TypeJPEG},
		{"png", []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, TypePNG},
		{"gif87", []byte("GIF87a......"), TypeGIF},
		{"gif89", []byte("GIF89a......"), TypeGIF},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBP"), TypeWEBP},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Detect(tc.head)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestDetectUnknown(t *testing.T) {
	for _, head := range [][]byte{nil, {}, []byte("plain text"), []byte("%PDF-1.4")} {
		_, err := Detect(head)
		require.ErrorIs(t, err, ErrUnknownType)
	}
}

func TestDetectFile(t *testing.T) {
	path := writeTestPNG(t, 40, 30)

	got, err := DetectFile(path)
	require.NoError(t, err)
	require.Equal(t, TypePNG, got)
}

func TestDetectFileMissing(t *testing.T) {
	_, err := DetectFile(filepath.Join(t.TempDir(), "nope.png"))
	require.Error(t, err)
}

func TestResizeSquare(t *testing.T) {
	path := writeTestPNG(t, 600, 400)

	require.NoError(t, ResizeSquare(path, 250))

	img, err := imaging.Open(path)
	require.NoError(t, err)
	bounds := img.Bounds()
	require.Equal(t, 250, bounds.Dx())
	require.Equal(t, 250, bounds.Dy())
}

func TestResizeSquareNotAnImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))

	require.Error(t, ResizeSquare(path, 250))
}

func writeTestPNG(t *testing.T, w, h int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 100, A: 255})
		}
	}

	path := filepath.Join(t.TempDir(), "test.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

package media

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/disintegration/imaging"
)

type ImageType string

const (
	TypeJPEG ImageType = "jpeg"
	TypePNG  ImageType = "png"
	TypeGIF  ImageType = "gif"
	TypeWEBP ImageType = "webp"
)

var ErrUnknownType = errors.New("unknown image type")

// DetectFile sniffs the magic bytes at the start of the file at path.
// Declared filenames and Content-Type headers are not trusted.
func DetectFile(path string) (ImageType, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	head := make([]byte, 16)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	return Detect(head[:n])
}

func Detect(head []byte) (ImageType, error) {
	switch {
	case isJPEG(head):
		return TypeJPEG, nil
	case isPNG(head):
		return TypePNG, nil
	case isGIF(head):
		return TypeGIF, nil
	case isWEBP(head):
		return TypeWEBP, nil
	}
	return "", ErrUnknownType
}

func isJPEG(head []byte) bool {
	return len(head) > 3 && head[0] == 0xff && head[1] == 0xd8 && head[2] == 0xff
}

func isPNG(head []byte) bool {
	pngMagic := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	return len(head) >= len(pngMagic) && bytes.Equal(head[:len(pngMagic)], pngMagic)
}

func isGIF(head []byte) bool {
	return len(head) >= 6 && (bytes.Equal(head[:6], []byte("GIF87a")) || bytes.Equal(head[:6], []byte("GIF89a")))
}

func isWEBP(head []byte) bool {
	return len(head) >= 12 &&
		bytes.Equal(head[:4], []byte("RIFF")) &&
		bytes.Equal(head[8:12], []byte("WEBP"))
}

// ResizeSquare scales the image at path to size×size and writes the
// result back over the original file.
func ResizeSquare(path string, size int) error {
	img, err := imaging.Open(path)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}

	resized := imaging.Resize(img, size, size, imaging.Lanczos)

	if err := imaging.Save(resized, path); err != nil {
		return fmt.Errorf("save image: %w", err)
	}
	return nil
}

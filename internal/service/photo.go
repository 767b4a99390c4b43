package service

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	// ClaimPhotoFolder holds prize redemption photos under the media dir.
	ClaimPhotoFolder = "claim_prize"
	// MaxPhotoWidth is the widest stored photo; wider images are scaled down.
	MaxPhotoWidth = 1280

	maxPhotoBytes  = 10 << 20
	maxPhotoPixels = 40_000_000
	photoQuality   = 85
)

var ErrInvalidPhoto = errors.New("invalid photo data")

var photoTypes = []string{"image/jpeg", "image/jpg", "image/png", "image/webp"}

// DecodeDataURL decodes a "data:image/...;base64," URL into an image.
func DecodeDataURL(dataURL string) (image.Image, error) {
	head, body, ok := strings.Cut(strings.TrimSpace(dataURL), ",")
	if !ok || !strings.HasPrefix(head, "data:") || !strings.HasSuffix(head, ";base64") {
		return nil, errors.Wrap(ErrInvalidPhoto, "not a base64 data url")
	}

	mime := strings.TrimSuffix(strings.TrimPrefix(head, "data:"), ";base64")
	if !InArray(strings.ToLower(mime), photoTypes) {
		return nil, errors.Wrapf(ErrInvalidPhoto, "unsupported type %q", mime)
	}

	if base64.StdEncoding.DecodedLen(len(body)) > maxPhotoBytes {
		return nil, errors.Wrap(ErrInvalidPhoto, "photo too large")
	}

	raw, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidPhoto, err.Error())
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrap(ErrInvalidPhoto, err.Error())
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxPhotoPixels {
		return nil, errors.Wrapf(ErrInvalidPhoto, "photo is %dx%d pixels", cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrap(ErrInvalidPhoto, err.Error())
	}

	return img, nil
}

// Downscale shrinks img to at most maxWidth pixels wide keeping the aspect
// ratio. Narrower images are returned unchanged.
func Downscale(img image.Image, maxWidth int) image.Image {
	b := img.Bounds()
	if b.Dx() <= maxWidth {
		return img
	}

	height := b.Dy() * maxWidth / b.Dx()
	if height < 1 {
		height = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)

	return dst
}

// PhotoName builds the stored name of a redemption photo.
func PhotoName(employeeID, prizeID string, at time.Time) string {
	return fmt.Sprintf("%s-%s-%d.jpg", safeName(employeeID), safeName(prizeID), at.UnixMilli())
}

// SavePhoto decodes dataURL, downsizes it and writes a JPEG to
// mediaDir/claim_prize. It returns the path relative to mediaDir.
func SavePhoto(mediaDir, dataURL, employeeID, prizeID string, at time.Time) (string, error) {
	img, err := DecodeDataURL(dataURL)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(mediaDir, ClaimPhotoFolder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "creating photo dir")
	}

	rel := filepath.ToSlash(filepath.Join(ClaimPhotoFolder, PhotoName(employeeID, prizeID, at)))

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, Downscale(img, MaxPhotoWidth), &jpeg.Options{Quality: photoQuality}); err != nil {
		return "", errors.Wrap(err, "encoding photo")
	}

	if err := os.WriteFile(filepath.Join(mediaDir, filepath.FromSlash(rel)), buf.Bytes(), 0o644); err != nil {
		return "", errors.Wrap(err, "writing photo")
	}

	return rel, nil
}

// RemovePhoto deletes a photo saved by SavePhoto.
func RemovePhoto(mediaDir, rel string) error {
	err := os.Remove(filepath.Join(mediaDir, filepath.FromSlash(rel)))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing photo")
	}
	return nil
}

func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, strings.TrimSpace(s))
}

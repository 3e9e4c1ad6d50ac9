// Package cover converts downloaded thumbnails into JPEG cover art.
package cover

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"yodel/internal/textutil"
)

const (
	jpegQuality   = 90
	coverIDLength = 64
)

// Converter scales thumbnails to fit a square of MaxSize pixels and encodes
// them as JPEG.
type Converter struct {
	MaxSize int
}

// ToJPEG decodes data (webp, jpeg or png) and re-encodes it as JPEG, scaled
// down when larger than MaxSize. Smaller images are never enlarged.
func (c Converter) ToJPEG(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("cover: empty image")
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("cover: decode: %w", err)
	}

	bounds := img.Bounds()
	width, height := fitWithin(bounds.Dx(), bounds.Dy(), c.MaxSize)
	var out image.Image = img
	if width != bounds.Dx() || height != bounds.Dy() {
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		out = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("cover: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// ConvertFile reads the thumbnail at path and returns JPEG bytes.
func (c Converter) ConvertFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cover: read thumbnail: %w", err)
	}
	return c.ToJPEG(data)
}

// Store writes the converted thumbnail to coverDir as
// "<trackID>_<random>.jpg" and returns the written path.
func (c Converter) Store(thumbnail, coverDir, trackID string) (string, error) {
	if thumbnail == "" {
		return "", errors.New("cover: thumbnail not found")
	}
	data, err := c.ConvertFile(thumbnail)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(coverDir, 0o755); err != nil {
		return "", fmt.Errorf("cover: create cover dir: %w", err)
	}
	name := fmt.Sprintf("%s_%s.jpg", textutil.SanitizeToken(trackID), textutil.RandomAlphanumeric(coverIDLength))
	target := filepath.Join(coverDir, name)
	if err := os.WriteFile(target, data, 0o644); err != nil {
		_ = os.Remove(target)
		return "", fmt.Errorf("cover: write: %w", err)
	}
	return target, nil
}

func fitWithin(width, height, limit int) (int, int) {
	if limit <= 0 || (width <= limit && height <= limit) || width == 0 || height == 0 {
		return width, height
	}
	if width >= height {
		return limit, max(1, height*limit/width)
	}
	return max(1, width*limit/height), limit
}

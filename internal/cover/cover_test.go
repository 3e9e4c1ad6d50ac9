package cover_test

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"yodel/internal/cover"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestToJPEGScalesDown(t *testing.T) {
	c := cover.Converter{MaxSize: 64}
	out, err := c.ToJPEG(pngBytes(t, 200, 100))
	if err != nil {
		t.Fatalf("ToJPEG failed: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode jpeg: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 32 {
		t.Fatalf("unexpected size %dx%d", b.Dx(), b.Dy())
	}
}

func TestToJPEGKeepsSmallImages(t *testing.T) {
	c := cover.Converter{MaxSize: 1024}
	out, err := c.ToJPEG(pngBytes(t, 40, 30))
	if err != nil {
		t.Fatalf("ToJPEG failed: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode jpeg: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 30 {
		t.Fatalf("unexpected size %dx%d", b.Dx(), b.Dy())
	}
}

func TestToJPEGRejectsGarbage(t *testing.T) {
	if _, err := (cover.Converter{}).ToJPEG([]byte("not an image")); err == nil {
		t.Fatal("expected decode error")
	}
	if _, err := (cover.Converter{}).ToJPEG(nil); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestStore(t *testing.T) {
	dir := t.TempDir()
	thumb := filepath.Join(dir, "thumb.png")
	if err := os.WriteFile(thumb, pngBytes(t, 10, 10), 0o644); err != nil {
		t.Fatalf("write thumb: %v", err)
	}
	coverDir := filepath.Join(dir, "covers")
	path, err := cover.Converter{MaxSize: 512}.Store(thumb, coverDir, "abc123")
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	base := filepath.Base(path)
	if !strings.HasPrefix(base, "abc123_") || !strings.HasSuffix(base, ".jpg") || len(base) != len("abc123_")+64+len(".jpg") {
		t.Fatalf("unexpected cover name %q", base)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("cover not written: %v", err)
	}

	if _, err := (cover.Converter{}).Store("", coverDir, "abc123"); err == nil {
		t.Fatal("expected error for missing thumbnail")
	}
}

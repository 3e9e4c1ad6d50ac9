package tempfiles_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"yodel/internal/tempfiles"
	"yodel/internal/testsupport"
)

func TestNamesAreAttemptUnique(t *testing.T) {
	dir := t.TempDir()
	a := tempfiles.New(dir, "abc123", "mp3")
	b := tempfiles.New(dir, "abc123", "mp3")
	if a.Raw() == b.Raw() {
		t.Fatal("expected distinct raw names per attempt")
	}
	base := filepath.Base(a.Raw())
	if !strings.HasPrefix(base, "dl_abc123") || len(base) != len("dl_abc123")+32 {
		t.Fatalf("unexpected raw name %q", base)
	}
	if a.Converted() != a.Raw()+".mp3" {
		t.Fatalf("unexpected converted name %q", a.Converted())
	}
	if a.MetadataSidecar() != a.Raw()+".info.json" {
		t.Fatalf("unexpected sidecar %q", a.MetadataSidecar())
	}
}

func TestAudioPrefersConverted(t *testing.T) {
	set := tempfiles.New(t.TempDir(), "id", "mp3")
	if set.Audio() != set.Raw() {
		t.Fatalf("expected raw fallback, got %q", set.Audio())
	}
	testsupport.WriteFile(t, set.Raw(), 10)
	if set.Audio() != set.Raw() {
		t.Fatalf("expected raw file, got %q", set.Audio())
	}
	testsupport.WriteFile(t, set.Converted(), 10)
	if set.Audio() != set.Converted() {
		t.Fatalf("expected converted file, got %q", set.Audio())
	}
}

func TestThumbnailProbeOrder(t *testing.T) {
	set := tempfiles.New(t.TempDir(), "id", "mp3")
	if got := set.Thumbnail(); got != "" {
		t.Fatalf("expected no thumbnail, got %q", got)
	}
	testsupport.WriteFile(t, set.Raw()+".png", 1)
	if got := set.Thumbnail(); got != set.Raw()+".png" {
		t.Fatalf("expected png, got %q", got)
	}
	testsupport.WriteFile(t, set.Raw()+".jpg", 1)
	if got := set.Thumbnail(); got != set.Raw()+".jpg" {
		t.Fatalf("expected jpg to win over png, got %q", got)
	}
	testsupport.WriteFile(t, set.Raw()+".webp", 1)
	if got := set.Thumbnail(); got != set.Raw()+".webp" {
		t.Fatalf("expected webp to win, got %q", got)
	}
}

func TestDeleteAll(t *testing.T) {
	dir := t.TempDir()
	set := tempfiles.New(dir, "id", "mp3")
	if !set.DeleteAll() {
		t.Fatal("expected DeleteAll to succeed with nothing on disk")
	}

	testsupport.WriteFile(t, set.Raw(), 1)
	testsupport.WriteFile(t, set.Converted(), 1)
	testsupport.WriteFile(t, set.MetadataSidecar(), 1)
	testsupport.WriteFile(t, set.Raw()+".webm", 1)
	unrelated := filepath.Join(dir, "keep.txt")
	testsupport.WriteFile(t, unrelated, 1)

	if !set.DeleteAll() {
		t.Fatal("expected DeleteAll to succeed")
	}
	if left := set.Existing(); len(left) != 0 {
		t.Fatalf("expected no scratch files, got %v", left)
	}
	if _, err := os.Stat(unrelated); err != nil {
		t.Fatalf("unrelated file removed: %v", err)
	}
}

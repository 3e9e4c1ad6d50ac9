package textutil_test

import (
	"strings"
	"testing"

	"yodel/internal/textutil"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Song", "Song"},
		{"  AC/DC: Back in Black?  ", "AC-DC- Back in Black"},
		{"a<b>c|d\"e", "abcde"},
		{"...hidden.", "hidden"},
		{"Café", "Café"},
		{"tab\tname", "tabname"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := textutil.SanitizeFileName(tt.in); got != tt.want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeFileNameTruncatesOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("é", 150)
	got := textutil.SanitizeFileName(long)
	if len(got) > 200 {
		t.Fatalf("expected at most 200 bytes, got %d", len(got))
	}
	if !strings.HasPrefix(long, got) {
		t.Fatalf("truncation split a rune: %q", got)
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := map[string]string{
		" Hello World! ": "Hello_World",
		"dQw4w9WgXcQ":    "dQw4w9WgXcQ",
		"a/../b":         "a_b",
		"ünïcode":        "n_code",
		"!!!":            "unknown",
		"":               "unknown",
	}
	for input, want := range tests {
		if got := textutil.SanitizeToken(input); got != want {
			t.Fatalf("SanitizeToken(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestRandomAlphanumeric(t *testing.T) {
	a := textutil.RandomAlphanumeric(32)
	b := textutil.RandomAlphanumeric(32)
	if len(a) != 32 || len(b) != 32 {
		t.Fatalf("unexpected lengths %d %d", len(a), len(b))
	}
	if a == b {
		t.Fatal("expected distinct values")
	}
	for _, r := range a {
		if !strings.ContainsRune("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789", r) {
			t.Fatalf("unexpected rune %q", r)
		}
	}
	if textutil.RandomAlphanumeric(0) != "" {
		t.Fatal("expected empty string for n=0")
	}
}

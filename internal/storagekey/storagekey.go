// Package storagekey encodes persisted file locations as opaque keys stored on
// tracks and resolves them back to files.
package storagekey

import (
	"encoding/base64"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Codec converts between persisted file paths and storage keys.
type Codec struct{}

// Encode returns the key for path: the URL-safe, unpadded base64 of the
// escaped file:// URI.
func (Codec) Encode(path string) string {
	if strings.TrimSpace(path) == "" {
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	uri := (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
	return base64.RawURLEncoding.EncodeToString([]byte(url.QueryEscape(uri)))
}

// Decode returns the file path behind key. Empty or garbled keys are absent.
func (Codec) Decode(key string) (string, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", false
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(key, "="))
	if err != nil {
		return "", false
	}
	uri, err := url.QueryUnescape(string(raw))
	if err != nil {
		return "", false
	}
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" || u.Path == "" {
		return "", false
	}
	return filepath.FromSlash(u.Path), true
}

// Resolve decodes key and reports the path only if the file still exists.
func (c Codec) Resolve(key string) (string, bool) {
	path, ok := c.Decode(key)
	if !ok {
		return "", false
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}
	return path, true
}

// Exists reports whether key resolves to an existing file.
func (c Codec) Exists(key string) bool {
	_, ok := c.Resolve(key)
	return ok
}

package pipeline

import (
	"fmt"
	"strings"
)

// Format describes an audio format the fetch tool can convert to.
type Format struct {
	Name        string
	Extension   string
	MimeType    string
	SupportsID3 bool
}

var formats = []Format{
	{Name: "mp3", Extension: "mp3", MimeType: "audio/mpeg", SupportsID3: true},
	{Name: "aac", Extension: "aac", MimeType: "audio/aac"},
	{Name: "weba", Extension: "weba", MimeType: "audio/webm"},
	{Name: "ogg", Extension: "ogg", MimeType: "audio/ogg"},
	{Name: "flac", Extension: "flac", MimeType: "audio/flac"},
	{Name: "wav", Extension: "wav", MimeType: "audio/wav"},
}

// Formats returns every supported format.
func Formats() []Format {
	out := make([]Format, len(formats))
	copy(out, formats)
	return out
}

// FormatByName looks a format up case-insensitively.
func FormatByName(name string) (Format, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, f := range formats {
		if f.Name == name {
			return f, nil
		}
	}
	return Format{}, fmt.Errorf("unsupported download format %q", name)
}

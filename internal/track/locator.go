package track

import (
	"net/url"
	"regexp"
	"strings"
)

var bareIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ExtractID returns the track id referenced by a watch link, a short link or
// a bare id.
func ExtractID(input string) (string, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", false
	}
	if bareIDPattern.MatchString(input) {
		return input, true
	}
	if !strings.Contains(input, "://") {
		input = "https://" + input
	}
	u, err := url.Parse(input)
	if err != nil {
		return "", false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	var id string
	switch host {
	case "youtube.com", "m.youtube.com", "music.youtube.com":
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		switch {
		case parts[0] == "watch":
			id = u.Query().Get("v")
		case len(parts) >= 2 && (parts[0] == "shorts" || parts[0] == "embed" || parts[0] == "live"):
			id = parts[1]
		}
	case "youtu.be":
		id = firstSegment(strings.TrimPrefix(u.Path, "/"))
	}
	if !bareIDPattern.MatchString(id) {
		return "", false
	}
	return id, true
}

// ExtractPlaylistID returns the list parameter of a playlist link.
func ExtractPlaylistID(input string) (string, bool) {
	input = strings.TrimSpace(input)
	if !strings.Contains(input, "://") {
		input = "https://" + input
	}
	u, err := url.Parse(input)
	if err != nil {
		return "", false
	}
	list := u.Query().Get("list")
	if list == "" {
		return "", false
	}
	return list, true
}

func firstSegment(path string) string {
	if i := strings.IndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	return path
}

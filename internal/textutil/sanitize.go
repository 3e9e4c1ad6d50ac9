package textutil

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// maxFileNameBytes leaves room for a " (n)" suffix and the extension within
// the usual 255 byte limit.
const maxFileNameBytes = 200

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
	"\x00", "",
)

// SanitizeFileName replaces filesystem-unsafe characters in a filename.
// Slashes, backslashes, colons, and asterisks become dashes; other unsafe
// characters are removed. The result is NFC normalized, trimmed of
// surrounding whitespace and dots, and capped in length.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	name = norm.NFC.String(fileNameReplacer.Replace(name))
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
	name = strings.Trim(name, " .")
	return truncateUTF8(name, maxFileNameBytes)
}

func truncateUTF8(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(value[cut]) {
		cut--
	}
	return strings.TrimRight(value[:cut], " .")
}

// SanitizeToken reduces value to ASCII letters, digits, '-' and '_' so it can
// be embedded in scratch and cover file names. Case is kept because track ids
// are case sensitive. Other runs of characters collapse into one underscore.
// Blank or fully stripped input yields "unknown".
func SanitizeToken(value string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.TrimSpace(value) {
		switch {
		case r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_'):
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		default:
			pendingSep = true
		}
	}
	if b.Len() == 0 {
		return "unknown"
	}
	return b.String()
}

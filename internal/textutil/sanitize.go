package textutil

import (
	"strings"
	"unicode"
)

// UndeterminedLanguage stands in for a missing or unusable language tag.
const UndeterminedLanguage = "und"

// SanitizeFileName makes name safe as a single path element. Path
// separators, colons and asterisks become dashes; quotes, angle brackets,
// pipes, question marks and control characters are dropped. Surrounding
// whitespace is trimmed.
func SanitizeFileName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*':
			b.WriteByte('-')
		case r == '?' || r == '"' || r == '<' || r == '>' || r == '|':
		case unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}
	out := strings.TrimSpace(b.String())
	if strings.Trim(out, ".") == "" {
		return ""
	}
	return out
}

// SubtitleFileName builds "<prefix>_<itemID>_<language>.srt". The language
// is sanitized and falls back to UndeterminedLanguage.
func SubtitleFileName(prefix, itemID, language string) string {
	language = SanitizeFileName(language)
	if language == "" {
		language = UndeterminedLanguage
	}
	return prefix + "_" + itemID + "_" + language + ".srt"
}

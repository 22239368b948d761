package language

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

var namer = display.English.Tags()

// Normalize returns the canonical BCP 47 form of a platform language code,
// or the trimmed input when it does not parse.
func Normalize(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	return tag.String()
}

// DisplayName returns an English name for a language code.
// Returns "Unknown" for empty input, or the uppercased code when no name
// is known.
func DisplayName(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return "Unknown"
	}
	tag, err := language.Parse(code)
	if err != nil {
		return strings.ToUpper(code)
	}
	if name := namer.Name(tag); name != "" {
		return name
	}
	return strings.ToUpper(code)
}

// Label picks the platform's own description when present and falls back to
// DisplayName.
func Label(code, description string) string {
	if description = strings.TrimSpace(description); description != "" {
		return description
	}
	return DisplayName(code)
}

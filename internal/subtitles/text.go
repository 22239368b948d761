package subtitles

import (
	"regexp"
	"strings"
)

const (
	lrmMarker = "&lrm;"
	rlmMarker = "&rlm;"

	// Explicit embedding controls understood by SRT players.
	leftToRightEmbedding = "\u202a"
	rightToLeftEmbedding = "\u202b"
	popDirectionalFormat = "\u202c"
)

var tagPattern = regexp.MustCompile(`</?([^>]*)>`)

// allowedTags are the formatting tags SRT players render.
var allowedTags = map[string]struct{}{
	"i": {},
	"u": {},
	"b": {},
}

// SimplifyText reduces one WebVTT cue text line to SRT-compatible text. Tags
// other than <i>, <u> and <b> are removed while their inner text is kept.
// With bidiFix, a leading &lrm; or &rlm; marker is replaced by explicit
// embedding controls around the rest of the line.
func SimplifyText(line string, bidiFix bool) string {
	simple := tagPattern.ReplaceAllStringFunc(line, func(tag string) string {
		name := tagPattern.FindStringSubmatch(tag)[1]
		if _, ok := allowedTags[strings.ToLower(name)]; ok {
			return tag
		}
		return ""
	})
	if !bidiFix {
		return simple
	}

	lines := strings.Split(simple, "\n")
	for i, l := range lines {
		switch {
		case strings.HasPrefix(l, lrmMarker):
			lines[i] = leftToRightEmbedding + strings.TrimPrefix(l, lrmMarker) + popDirectionalFormat
		case strings.HasPrefix(l, rlmMarker):
			lines[i] = rightToLeftEmbedding + strings.TrimPrefix(l, rlmMarker) + popDirectionalFormat
		}
	}
	return strings.Join(lines, "\n")
}

package subtitles

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

const rangeSeparator = "-->"

var cueIndexPattern = regexp.MustCompile(`^\d+$`)

// Options tunes WebVTT to SRT conversion.
type Options struct {
	// BidiFix rewrites &lrm;/&rlm; prefixed lines into embedding controls.
	BidiFix bool
	// NormalizeTiming rewrites range lines as SRT timestamps and drops cue
	// settings. When false the range line is copied verbatim.
	NormalizeTiming bool
}

// DefaultOptions returns the conversion defaults.
func DefaultOptions() Options {
	return Options{BidiFix: true}
}

type cue struct {
	timing string
	lines  []string
}

func (c *cue) complete() bool {
	return c.timing != "" && len(c.lines) > 0
}

// Convert transcodes WebVTT markup into SRT text using DefaultOptions.
func Convert(markup string) string {
	return ConvertWithOptions(markup, DefaultOptions())
}

// ConvertWithOptions transcodes WebVTT markup into SRT text. Cues are
// renumbered from 1 in input order. Blocks without a range or without text are
// dropped. The output is deterministic and carries no header.
func ConvertWithOptions(markup string, opts Options) string {
	var (
		out     strings.Builder
		index   = 1
		pending cue
	)

	emit := func() {
		out.WriteString(strconv.Itoa(index))
		out.WriteByte('\n')
		out.WriteString(pending.timing)
		out.WriteByte('\n')
		out.WriteString(strings.Join(pending.lines, "\n"))
		out.WriteString("\n\n")
		index++
		pending = cue{}
	}

	for _, raw := range strings.Split(markup, "\n") {
		line := trimLine(raw)
		switch {
		case line == "":
			if pending.complete() {
				emit()
			}
		case strings.Contains(line, rangeSeparator):
			if pending.complete() {
				emit()
			}
			pending.timing = line
			if opts.NormalizeTiming {
				pending.timing = normalizeRange(line)
			}
		case pending.timing != "" && !cueIndexPattern.MatchString(line):
			pending.lines = append(pending.lines, SimplifyText(line, opts.BidiFix))
		}
	}
	if pending.complete() {
		emit()
	}
	return out.String()
}

func trimLine(line string) string {
	return strings.TrimFunc(line, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\uFEFF'
	})
}

// normalizeRange turns "00:01.000 --> 00:02.500 line:85%" into
// "00:00:01,000 --> 00:00:02,500". Unparseable ranges are returned unchanged.
func normalizeRange(line string) string {
	parts := strings.SplitN(line, rangeSeparator, 2)
	if len(parts) != 2 {
		return line
	}
	start, err := ParseTimestamp(parts[0])
	if err != nil {
		return line
	}
	endFields := strings.Fields(parts[1])
	if len(endFields) == 0 {
		return line
	}
	end, err := ParseTimestamp(endFields[0])
	if err != nil {
		return line
	}
	return FormatTimestamp(start) + " " + rangeSeparator + " " + FormatTimestamp(end)
}

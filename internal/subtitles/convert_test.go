package subtitles

import (
	"strings"
	"testing"
)

func TestConvertEndToEnd(t *testing.T) {
	input := "00:00:01.000 --> 00:00:02.000\nHi\n\n00:00:03.000 --> 00:00:04.000\nBye\n"
	want := "1\n00:00:01.000 --> 00:00:02.000\nHi\n\n2\n00:00:03.000 --> 00:00:04.000\nBye\n\n"
	if got := Convert(input); got != want {
		t.Fatalf("Convert mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestConvertRealisticDocument(t *testing.T) {
	input := strings.Join([]string{
		"WEBVTT",
		"",
		"NOTE Netflix",
		"",
		"1",
		"00:00:05.005 --> 00:00:07.007 position:50.00%,middle align:middle size:80.00% line:84.67%",
		"<c.bg_transparent>&lrm;Where are you going?</c.bg_transparent>",
		"",
		"2",
		"00:00:08.100 --> 00:00:10.000 position:50.00%,middle align:middle size:80.00% line:79.33%",
		"<c.white><c.mono_sans>- <i>Home.</i></c.mono_sans></c.white>",
		"<c.white>- Now?</c.white>",
		"",
	}, "\r\n")

	want := "1\n" +
		"00:00:05.005 --> 00:00:07.007 position:50.00%,middle align:middle size:80.00% line:84.67%\n" +
		"\u202aWhere are you going?\u202c\n\n" +
		"2\n" +
		"00:00:08.100 --> 00:00:10.000 position:50.00%,middle align:middle size:80.00% line:79.33%\n" +
		"- <i>Home.</i>\n- Now?\n\n"
	if got := Convert(input); got != want {
		t.Fatalf("Convert mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestConvertFinalCueWithoutTrailingBlankLine(t *testing.T) {
	input := "00:00:01.000 --> 00:00:02.000\nOne\n\n00:00:03.000 --> 00:00:04.000\nTwo"
	got := Convert(input)
	if CountCues(got) != 2 {
		t.Fatalf("expected 2 cues, got %d: %q", CountCues(got), got)
	}
	if !strings.HasSuffix(got, "2\n00:00:03.000 --> 00:00:04.000\nTwo\n\n") {
		t.Fatalf("final cue missing: %q", got)
	}
}

func TestConvertDropsMalformedBlocks(t *testing.T) {
	cases := []struct {
		name  string
		input string
		cues  int
	}{
		{"text before any range", "orphan text\n\n00:00:01.000 --> 00:00:02.000\nkept\n", 1},
		{"range without text", "00:00:01.000 --> 00:00:02.000\n\n00:00:03.000 --> 00:00:04.000\nkept\n", 1},
		{"index only lines", "7\n00:00:01.000 --> 00:00:02.000\n42\nkept\n", 1},
		{"empty input", "", 0},
		{"header only", "WEBVTT\n\n", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Convert(tc.input)
			if n := CountCues(got); n != tc.cues {
				t.Fatalf("expected %d cues, got %d: %q", tc.cues, n, got)
			}
		})
	}
}

func TestConvertSplitsAdjacentRangesWithoutBlankLine(t *testing.T) {
	input := "00:00:01.000 --> 00:00:02.000\nfirst\n00:00:03.000 --> 00:00:04.000\nsecond\n"
	want := "1\n00:00:01.000 --> 00:00:02.000\nfirst\n\n2\n00:00:03.000 --> 00:00:04.000\nsecond\n\n"
	if got := Convert(input); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestConvertIsDeterministic(t *testing.T) {
	input := "WEBVTT\n\n00:00:01.000 --> 00:00:02.000\n&rlm;שלום\n<b>bold</b>\n\n"
	first := Convert(input)
	second := Convert(input)
	if first != second {
		t.Fatalf("non-deterministic output: %q vs %q", first, second)
	}
}

func TestConvertNormalizeTiming(t *testing.T) {
	input := "00:01.000 --> 01:02.500 line:85%\nHi\n\nbad --> range\nkept verbatim\n"
	got := ConvertWithOptions(input, Options{BidiFix: true, NormalizeTiming: true})
	want := "1\n00:00:01,000 --> 00:01:02,500\nHi\n\n2\nbad --> range\nkept verbatim\n\n"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestConvertWithoutBidiFixKeepsMarkers(t *testing.T) {
	input := "00:00:01.000 --> 00:00:02.000\n&lrm;Hello\n"
	got := ConvertWithOptions(input, Options{})
	if !strings.Contains(got, "&lrm;Hello") {
		t.Fatalf("expected marker preserved: %q", got)
	}
}

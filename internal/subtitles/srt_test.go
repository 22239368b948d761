package subtitles

import (
	"math"
	"testing"
)

func TestFormatTimestamp(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00,000"},
		{1.001, "00:00:01,001"},
		{59.999, "00:00:59,999"},
		{1.9996, "00:00:01,999"},
		{0.0009, "00:00:00,000"},
		{3661.5, "01:01:01,500"},
		{90000, "25:00:00,000"},
		{-4, "00:00:00,000"},
		{math.NaN(), "00:00:00,000"},
	}
	for _, tc := range cases {
		if got := FormatTimestamp(tc.seconds); got != tc.want {
			t.Errorf("FormatTimestamp(%v) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"00:00:01.500", 1.5},
		{"01:02:03,004", 3723.004},
		{"02:03.250", 123.25},
	}
	for _, tc := range cases {
		got, err := ParseTimestamp(tc.in)
		if err != nil {
			t.Fatalf("ParseTimestamp(%q): %v", tc.in, err)
		}
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("ParseTimestamp(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
	for _, bad := range []string{"", "abc", "00:00:01", "00:61:00.000", "1:2:3:4.000", "00:00:01.5"} {
		if _, err := ParseTimestamp(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	for _, s := range []float64{0, 0.04, 12.345, 3599.999, 7325.1} {
		parsed, err := ParseTimestamp(FormatTimestamp(s))
		if err != nil {
			t.Fatalf("round trip %v: %v", s, err)
		}
		if math.Abs(parsed-s) > 0.0005 {
			t.Fatalf("round trip drift for %v: %v", s, parsed)
		}
	}
}

func TestCountCues(t *testing.T) {
	if got := CountCues(""); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	srt := "1\n00:00:01,000 --> 00:00:02,000\nA\n\n2\n00:00:03,000 --> 00:00:04,000\nB\n\n"
	if got := CountCues(srt); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
}

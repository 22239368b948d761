package subtitles

import "testing"

func TestSimplifyText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"strips class tags keeps allowed", "<c.white>Hello</c> <i>world</i>", "Hello <i>world</i>"},
		{"allowed tags are case insensitive", "<B>loud</B> <U>under</U>", "<B>loud</B> <U>under</U>"},
		{"tags with attributes are removed", "<i.italic>x</i> <v Bob>hey</v>", "x</i> hey"},
		{"left to right marker", "&lrm;Hello", "\u202aHello\u202c"},
		{"right to left marker", "&rlm;Hello", "\u202bHello\u202c"},
		{"marker after tag strip", "<c.yellow>&rlm;مرحبا</c.yellow>", "\u202bمرحبا\u202c"},
		{"marker mid line untouched", "Hi &lrm;there", "Hi &lrm;there"},
		{"plain text", "nothing to do", "nothing to do"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SimplifyText(tc.in, true); got != tc.want {
				t.Fatalf("SimplifyText(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestSimplifyTextWithoutBidiFix(t *testing.T) {
	if got := SimplifyText("&rlm;<c.x>abc</c>", false); got != "&rlm;abc" {
		t.Fatalf("unexpected output %q", got)
	}
}

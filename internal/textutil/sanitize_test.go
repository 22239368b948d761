package textutil

import "testing"

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "en"},
		{"pt-BR", "pt-BR"},
		{"zh/Hant", "zh-Hant"},
		{`a:b*c?"d"<e>|f`, "a-b-cdef"},
		{"  spaced  ", "spaced"},
		{"tab\there", "tabhere"},
		{"..", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SanitizeFileName(tt.input); got != tt.expected {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestSubtitleFileName(t *testing.T) {
	tests := []struct {
		prefix, item, lang string
		expected           string
	}{
		{"netflix_subtitle", "80100172", "en", "netflix_subtitle_80100172_en.srt"},
		{"netflix_subtitle", "1", "", "netflix_subtitle_1_und.srt"},
		{"subs", "1", "../x", "subs_1_..-x.srt"},
	}
	for _, tt := range tests {
		if got := SubtitleFileName(tt.prefix, tt.item, tt.lang); got != tt.expected {
			t.Errorf("SubtitleFileName(%q, %q, %q) = %q, want %q", tt.prefix, tt.item, tt.lang, got, tt.expected)
		}
	}
}

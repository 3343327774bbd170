package util

import "testing"

func TestSanitizePostgresText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "clean text", input: "hello 世界", want: "hello 世界"},
		{name: "nul bytes removed", input: "a\x00b\x00c", want: "abc"},
		{name: "invalid utf8 removed", input: "ok\xff\xfealso ok", want: "okalso ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizePostgresText(tt.input); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{name: "shorter than max", input: "abc", max: 10, want: "abc"},
		{name: "exactly max", input: "abcde", max: 5, want: "abcde"},
		{name: "truncated", input: "abcdef", max: 3, want: "abc…"},
		{name: "multibyte runes", input: "一二三四五", max: 2, want: "一二…"},
		{name: "non-positive max returns input", input: "abc", max: 0, want: "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateRunes(tt.input, tt.max); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

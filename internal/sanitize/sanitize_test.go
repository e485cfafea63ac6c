package sanitize

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain", "Hello club", "Hello club"},
		{"trims", "  hi  ", "hi"},
		{"strips tags", "<b>bold</b> move", "bold move"},
		{"drops script", `<script>alert("x")</script>ok`, "ok"},
		{"drops quotes and semicolons", `Robert'); DROP TABLE`, "Robert) DROP TABLE"},
		{"keeps ampersand", "Tom & Jerry", "Tom & Jerry"},
		{"drops backslash", `a\b`, "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.input); got != tt.want {
				t.Errorf("Text(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestText_Caps(t *testing.T) {
	got := Text(strings.Repeat("ş", MaxTextLength+50))
	if n := utf8.RuneCountInString(got); n != MaxTextLength {
		t.Fatalf("length = %d, want %d", n, MaxTextLength)
	}
}

func TestEmail(t *testing.T) {
	if got := Email("  Alice@Example.COM "); got != "alice@example.com" {
		t.Fatalf("Email = %q", got)
	}
}

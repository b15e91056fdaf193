package flatten

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"single newline", "a\nb", "a b"},
		{"double newline", "a\n\nb", "a b"},
		{"triple newline", "a\n\n\nb", "a b"},
		{"many newlines", "a\n\n\n\n\n\nb", "a b"},
		{"spaces around newline", "a  \n  b", "a b"},
		{"tabs", "a\t\tb", "a b"},
		{"crlf", "a\r\n\r\nb", "a b"},
		{"non-breaking space", "a\u00a0\u00a0b", "a b"},
		{"leading and trailing", "\n a \n", " a "},
		{"markdown kept", "**bold** _it_", "**bold** _it_"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

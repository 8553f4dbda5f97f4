package utils

import "testing"

func TestNormalizeIdentifier(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already canonical", "alice", "alice"},
		{"mixed case", "BadArtist", "badartist"},
		{"surrounding whitespace", "  bob\t", "bob"},
		{"bom prefix", "\uFEFFCarol", "carol"},
		{"bom after whitespace", " \uFEFF dave ", "dave"},
		{"empty", "", ""},
		{"only spaces", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeIdentifier(tt.in); got != tt.want {
				t.Errorf("NormalizeIdentifier(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

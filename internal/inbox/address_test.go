package inbox

import "testing"

func TestExtractAddress(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"name and address", "Jane Doe <jane@acme.com>", "jane@acme.com"},
		{"bare address", "jane@acme.com", "jane@acme.com"},
		{"brackets only", "<jane@acme.com>", "jane@acme.com"},
		{"quoted name", `"Doe, Jane" <jane@acme.com>`, "jane@acme.com"},
		{"unclosed bracket degrades to raw", "Jane <jane@acme.com", "Jane <jane@acme.com"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractAddress(tt.raw); got != tt.want {
				t.Errorf("ExtractAddress(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestExtractDisplayName(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"name and address", "Jane Doe <jane@acme.com>", "Jane Doe"},
		{"padded name is trimmed", "  Jane Doe   <jane@acme.com>", "Jane Doe"},
		{"bare address is the name", "jane@acme.com", "jane@acme.com"},
		{"brackets only", "<jane@acme.com>", "Unknown"},
		{"whitespace before bracket", "   <jane@acme.com>", "Unknown"},
		{"empty", "", "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractDisplayName(tt.raw); got != tt.want {
				t.Errorf("ExtractDisplayName(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

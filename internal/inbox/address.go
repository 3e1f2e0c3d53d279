package inbox

import "strings"

// UnknownSender is the display name used when a From header carries no name
const UnknownSender = "Unknown"

// ExtractAddress returns the address inside angle brackets from a raw
// From/To header value ("Jane Doe <jane@acme.com>" -> "jane@acme.com").
// Without brackets the raw string is returned unchanged; malformed input
// degrades to the raw string rather than an error.
func ExtractAddress(raw string) string {
	start := strings.Index(raw, "<")
	if start < 0 {
		return raw
	}
	end := strings.Index(raw[start:], ">")
	if end < 0 {
		return raw
	}
	return raw[start+1 : start+end]
}

// ExtractDisplayName returns the trimmed text before the first angle
// bracket. A header without brackets is all name. UnknownSender stands in
// whenever trimming leaves nothing, so callers never see an empty name.
func ExtractDisplayName(raw string) string {
	name := raw
	if idx := strings.Index(raw, "<"); idx >= 0 {
		name = raw[:idx]
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return UnknownSender
	}
	return name
}

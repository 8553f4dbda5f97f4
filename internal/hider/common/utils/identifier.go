package utils

import "strings"

// NormalizeIdentifier returns an identifier in canonical form:
// - Trimmed of surrounding whitespace and a leading byte order mark
// - Lowercased
func NormalizeIdentifier(id string) string {
	id = strings.TrimPrefix(strings.TrimSpace(id), "\uFEFF")
	return strings.ToLower(strings.TrimSpace(id))
}

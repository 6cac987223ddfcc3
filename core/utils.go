package core

import "strings"

// CleanString strips surrounding whitespace from `s`, lowercasing it too when
// asked. Used on names and emails before validation.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

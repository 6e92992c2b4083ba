package usermgr

import (
	"strings"
	"unicode"
)

// ValidUsername rejects names that cannot round-trip through a properties key:
// empty names and names with whitespace, control characters, '=', ':', '#' or '!'.
func ValidUsername(u string) bool {
	if u == "" {
		return false
	}
	if strings.ContainsAny(u, "=:#!") {
		return false
	}
	for _, r := range u {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return false
		}
	}
	return true
}

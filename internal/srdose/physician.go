package srdose

import "strings"

// NotAvailable is the sentinel stored when a person-name field is absent.
const NotAvailable = "N/A"

// IdentifyPhysician extracts a stable badge number from a DICOM person-name
// string. The `^` component separator is treated as whitespace and the first
// purely numeric token wins. When no numeric token exists the raw input is
// returned verbatim, without the separator substitution, because downstream
// grouping keys depend on that exact fallback.
func IdentifyPhysician(raw string) string {
	if raw == "" || raw == NotAvailable {
		return NotAvailable
	}
	cleaned := strings.TrimSpace(strings.ReplaceAll(raw, "^", " "))
	for _, part := range strings.Fields(cleaned) {
		if isDigits(part) {
			return part
		}
	}
	return raw
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

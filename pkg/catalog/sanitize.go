package catalog

import (
	"math"
	"regexp"
	"strings"
)

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// Sanitize replaces every character outside [A-Za-z0-9_-] with '-', so the
// result is always a single safe path component.
func Sanitize(name string) string {
	return unsafeNameChars.ReplaceAllString(name, "-")
}

// ClampPort rounds v to the nearest integer and returns it when it is a
// valid TCP port. Out of range, non-finite or nil input yields nil.
func ClampPort(v *float64) *int {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	r := math.Floor(*v + 0.5)
	if r < 1 || r > 65535 {
		return nil
	}
	n := int(r)
	return &n
}

// NormalizeURL trims raw and maps an empty value to nil.
func NormalizeURL(raw string) *string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

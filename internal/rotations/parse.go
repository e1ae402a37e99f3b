// Package rotations stores shipping services and their port rotations.
package rotations

import (
	"regexp"
	"strings"
)

var separators = regexp.MustCompile(`[,\->]+`)

// Parse splits a rotation string such as "Busan - Shanghai -> Rotterdam"
// into port names. Commas, hyphens and arrows separate names.
func Parse(raw string) []string {
	parts := separators.Split(raw, -1)
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, p)
		}
	}
	return names
}

package dsl

import (
	"fmt"
	"strconv"
	"strings"
)

// CompareVersions performs a simple dotted-version comparison.
// Returns -1 if a < b, 0 if a == b, 1 if a > b.
// Handles partial versions (e.g. "0.1" vs "0.1.3").
func CompareVersions(a, b string) int {
	aParts := parseVersionParts(a)
	bParts := parseVersionParts(b)

	maxLen := len(aParts)
	if len(bParts) > maxLen {
		maxLen = len(bParts)
	}

	for i := 0; i < maxLen; i++ {
		var av, bv int
		if i < len(aParts) {
			av = aParts[i]
		}
		if i < len(bParts) {
			bv = bParts[i]
		}
		if av < bv {
			return -1
		}
		if av > bv {
			return 1
		}
	}
	return 0
}

// CompatibilityWarning describes the gap between the document's DSL version
// and the one the target runs. Empty when either is unknown or they match.
func CompatibilityWarning(imported, current string) string {
	if imported == "" || current == "" {
		return ""
	}
	switch CompareVersions(imported, current) {
	case 1:
		return fmt.Sprintf("document DSL version %s is newer than the target's %s", imported, current)
	case -1:
		return fmt.Sprintf("document DSL version %s is older than the target's %s", imported, current)
	}
	return ""
}

func parseVersionParts(v string) []int {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	parts := strings.Split(v, ".")
	result := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			break
		}
		result = append(result, n)
	}
	return result
}

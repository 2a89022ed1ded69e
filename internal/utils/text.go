package utils

import (
	"strings"
)

// NormalizeText lowercases and trims text for comparison.
// Any value that is not a string yields the empty string.
func NormalizeText(value any) string {
	text, ok := value.(string)
	if !ok {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(text))
}

// ContainsFold reports whether needle occurs in haystack, ignoring case.
// An empty needle matches every haystack.
func ContainsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// JoinLines joins non-empty lines with "\n" and trims the result
func JoinLines(lines []string) string {
	var b strings.Builder
	for _, line := range lines {
		if line == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
	}
	return strings.TrimSpace(b.String())
}

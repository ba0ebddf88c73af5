package util

import (
	"strings"
	"unicode"

	"finance-dashboard/pkg/apierror"
)

const (
	MaxNameRunes     = 120
	MaxCategoryRunes = 60
)

// CleanText normalizes a user supplied label such as an asset name or a
// transaction description. Control and invisible characters are dropped,
// runs of whitespace collapse to one space and the result is truncated to
// maxRunes. field names the input in the returned error.
func CleanText(value string, field string, maxRunes int, required bool) (string, error) {
	if strings.Contains(value, "\x00") {
		return "", apierror.BadRequest(field+" contains null bytes", "")
	}

	builder := strings.Builder{}
	builder.Grow(len(value))

	space := false
	for _, char := range value {
		if unicode.IsSpace(char) {
			space = true
			continue
		}
		if unicode.IsControl(char) || isInvisibleUnicode(char) {
			continue
		}
		if space && builder.Len() > 0 {
			builder.WriteRune(' ')
		}
		space = false
		builder.WriteRune(char)
	}

	cleaned := builder.String()
	if cleaned == "" {
		if required {
			return "", apierror.BadRequest(field+" is required", "")
		}
		return "", nil
	}

	// Truncate by runes (not bytes) to avoid splitting multi-byte characters.
	runes := []rune(cleaned)
	if maxRunes > 0 && len(runes) > maxRunes {
		cleaned = strings.TrimSpace(string(runes[:maxRunes]))
	}

	return cleaned, nil
}

// isInvisibleUnicode returns true for zero-width, formatting, and other
// invisible Unicode characters that should be stripped from labels.
func isInvisibleUnicode(r rune) bool {
	switch r {
	case
		'\u200B', // Zero-Width Space
		'\u200C', // Zero-Width Non-Joiner
		'\u200D', // Zero-Width Joiner
		'\u200E', // Left-to-Right Mark
		'\u200F', // Right-to-Left Mark
		'\u2060', // Word Joiner
		'\uFEFF', // Zero-Width No-Break Space / BOM
		'\uFFF9', // Interlinear Annotation Anchor
		'\uFFFA', // Interlinear Annotation Separator
		'\uFFFB': // Interlinear Annotation Terminator
		return true
	}

	return unicode.Is(unicode.Cf, r)
}

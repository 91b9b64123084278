package auth

import (
	"fmt"
	"html"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tendant/simple-workspace/pkg/domain"
)

// SanitizeName trims a display name, strips control characters and escapes HTML.
// Applied to user, tenant and database names before they are stored.
func SanitizeName(name string) string {
	name = strings.TrimSpace(name)
	name = removeControlChars(name)
	return html.EscapeString(name)
}

// ValidateStringLength checks the rune length of value. A zero bound is not enforced.
func ValidateStringLength(field, value string, min, max int) error {
	length := utf8.RuneCountInString(value)

	if min > 0 && length < min {
		return domain.NewValidationError(field, fmt.Sprintf("must be at least %d characters long", min))
	}
	if max > 0 && length > max {
		return domain.NewValidationError(field, fmt.Sprintf("must be at most %d characters long", max))
	}
	return nil
}

// removeControlChars removes control characters except newline and tab.
func removeControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

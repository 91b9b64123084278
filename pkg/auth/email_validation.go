package auth

import (
	"fmt"
	"strings"

	"github.com/badoux/checkmail"
	"github.com/tendant/simple-workspace/pkg/domain"
)

// Common disposable email domains to block (can be extended)
var disposableDomains = map[string]bool{
	"tempmail.com":      true,
	"10minutemail.com":  true,
	"guerrillamail.com": true,
	"mailinator.com":    true,
	"throwaway.email":   true,
}

const maxEmailLength = 254 // RFC 5321

// ValidateEmail validates an email address for format and length.
// Errors wrap domain.ErrInvalidEmail.
func ValidateEmail(email string, blockDisposable bool) error {
	if email == "" {
		return fmt.Errorf("email address is required: %w", domain.ErrInvalidEmail)
	}

	if len(email) > maxEmailLength {
		return fmt.Errorf("email address is too long (max %d characters): %w", maxEmailLength, domain.ErrInvalidEmail)
	}

	normalized := NormalizeEmail(email)
	if err := checkmail.ValidateFormat(normalized); err != nil {
		return domain.ErrInvalidEmail
	}

	if blockDisposable && disposableDomains[getDomain(normalized)] {
		return fmt.Errorf("disposable email addresses are not allowed: %w", domain.ErrInvalidEmail)
	}

	return nil
}

// NormalizeEmail normalizes an email address by lowercasing and trimming.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// getDomain extracts the domain from an email address.
func getDomain(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return ""
	}
	return parts[1]
}

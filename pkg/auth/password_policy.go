package auth

import (
	"fmt"
	"unicode"

	"github.com/tendant/simple-workspace/internal/config"
	"github.com/tendant/simple-workspace/pkg/domain"
)

// PasswordPolicy defines password complexity requirements for registration.
type PasswordPolicy struct {
	MinLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireNumber    bool
	RequireSpecial   bool
}

// NewPasswordPolicy creates a PasswordPolicy from config.
func NewPasswordPolicy(cfg config.PasswordPolicyConfig) *PasswordPolicy {
	return &PasswordPolicy{
		MinLength:        cfg.MinLength,
		RequireUppercase: cfg.RequireUppercase,
		RequireLowercase: cfg.RequireLowercase,
		RequireNumber:    cfg.RequireNumber,
		RequireSpecial:   cfg.RequireSpecial,
	}
}

// ValidatePassword returns an error wrapping domain.ErrWeakPassword when
// password misses a requirement.
func (p *PasswordPolicy) ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password is required: %w", domain.ErrWeakPassword)
	}
	if p.MinLength > 0 && len(password) < p.MinLength {
		return fmt.Errorf("password must be at least %d characters long: %w", p.MinLength, domain.ErrWeakPassword)
	}

	var upper, lower, number, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			number = true
		case !unicode.IsLetter(r) && !unicode.IsSpace(r):
			special = true
		}
	}

	switch {
	case p.RequireUppercase && !upper:
		return fmt.Errorf("password must contain at least one uppercase letter: %w", domain.ErrWeakPassword)
	case p.RequireLowercase && !lower:
		return fmt.Errorf("password must contain at least one lowercase letter: %w", domain.ErrWeakPassword)
	case p.RequireNumber && !number:
		return fmt.Errorf("password must contain at least one number: %w", domain.ErrWeakPassword)
	case p.RequireSpecial && !special:
		return fmt.Errorf("password must contain at least one special character: %w", domain.ErrWeakPassword)
	}

	return nil
}

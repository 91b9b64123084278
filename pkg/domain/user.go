package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered account.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Contact      Contact   `json:"contact"`
	Verified     bool      `json:"verified"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Contact holds a phone number split into country code and subscriber number.
type Contact struct {
	CountryCode string `json:"country_code"`
	Number      string `json:"number"`
}

// TenantMembershipRef is the user-side view of an accepted membership.
type TenantMembershipRef struct {
	TenantID   uuid.UUID `json:"tenant_id"`
	TenantName string    `json:"tenant_name,omitempty"`
	Role       Role      `json:"role"`
	InvitedBy  uuid.UUID `json:"invited_by"`
	JoinedAt   time.Time `json:"joined_at"`
}

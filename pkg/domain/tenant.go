package domain

import (
	"time"

	"github.com/google/uuid"
)

// Tenant represents a workspace.
type Tenant struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"tenant_name"`
	CreatedBy uuid.UUID `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Member is the tenant-side view of a membership.
type Member struct {
	UserID    uuid.UUID    `json:"user_id"`
	Name      string       `json:"name"`
	Role      Role         `json:"role"`
	Status    MemberStatus `json:"status"`
	JoinedAt  time.Time    `json:"joined_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
